package main

import (
	"fmt"
	"time"

	"github.com/dbagal/mydig/internal/logging"
	"github.com/dbagal/mydig/resolve"
)

// printDigStyle renders a.Answer in the familiar dig(1) block format.
func printDigStyle(hostname, typeStr string, a *resolve.Answer, elapsed time.Duration) {
	fmt.Println()
	fmt.Println(";; QUESTION SECTION:")
	fmt.Printf(";%s\t\tIN\t%s\n", resolve.NormalizeName(hostname), typeStr)
	fmt.Println()

	fmt.Println(";; ANSWER SECTION:")
	for _, rr := range a.Answer {
		fmt.Println(rr.String())
	}
	fmt.Println()

	fmt.Printf(";; Query time: %d msec\n", elapsed.Milliseconds())
	fmt.Printf(";; WHEN: %s\n", logging.Timestamp())
	fmt.Printf(";; MSG SIZE  rcvd: %d\n", msgSize(a))
}

// msgSize approximates the on-wire answer-section size by summing each
// RR's rendered string length — this CLI doesn't retain the raw wire
// bytes once the walker has extracted the answer sections.
func msgSize(a *resolve.Answer) int {
	n := 0
	for _, rr := range a.Answer {
		n += len(rr.String())
	}
	return n
}
