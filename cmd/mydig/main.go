// Command mydig is a minimal dig-like CLI over this module's iterative
// resolver: mydig <hostname> <type> [--dnssec].
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/dbagal/mydig/dnssec"
	"github.com/dbagal/mydig/internal/logging"
	"github.com/dbagal/mydig/resolve"
	"github.com/dbagal/mydig/roothints"
)

// Exit codes, spec §6.
const (
	exitSuccess = 0
	exitRRType  = 1
	exitResolve = 2
	exitNoDNSSEC = 3
	exitKSK     = 4
	exitZSK     = 5
	exitRRSet   = 6
	exitOther   = 127
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		wantDNSSEC      bool
		timeout         time.Duration
		logDir          string
		debug           bool
		rootHintsFlag   string
		trustAnchorFlag string
	)

	root := &cobra.Command{
		Use:   "mydig <hostname> <type>",
		Short: "mydig performs an iterative, optionally DNSSEC-validated DNS lookup",
		Args:  cobra.ExactArgs(2),
	}
	root.Flags().BoolVar(&wantDNSSEC, "dnssec", false, "validate the chain of trust back to the root")
	root.Flags().DurationVar(&timeout, "timeout", resolve.DefaultTimeout, "per-attempt network timeout")
	defaultLogDir := "./logs"
	if exe, err := os.Executable(); err == nil {
		defaultLogDir = filepath.Join(filepath.Dir(exe), "logs")
	}
	root.Flags().StringVar(&logDir, "log-dir", defaultLogDir, "directory for per-query transcript logs")
	root.Flags().BoolVar(&debug, "debug", false, "log every hop at debug level")
	root.Flags().StringVar(&rootHintsFlag, "root-hints", "", "comma-separated IPv4 root server addresses, overriding the built-in root hint list")
	root.Flags().StringVar(&trustAnchorFlag, "trust-anchor", "", "keytag,algorithm,digesttype,digest quadruple, overriding the built-in root trust anchor")

	exitCode := exitSuccess
	root.RunE = func(cmd *cobra.Command, args []string) error {
		logging.Configure(debug)

		rootHints := roothints.Default()
		if rootHintsFlag != "" {
			rootHints = parseRootHints(rootHintsFlag)
		}
		if trustAnchorFlag != "" {
			anchor, err := parseTrustAnchor(trustAnchorFlag)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				exitCode = exitOther
				return nil
			}
			dnssec.RootTrustAnchor = anchor
		}

		exitCode = resolveAndPrint(args[0], args[1], wantDNSSEC, timeout, logDir, rootHints)
		return nil
	}
	root.SilenceUsage = true
	root.SilenceErrors = true

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitOther
	}
	return exitCode
}

func resolveAndPrint(hostname, typeStr string, wantDNSSEC bool, timeout time.Duration, logDir string, rootHints []resolve.Nameserver) int {
	qtype, err := resolve.TypeFromString(typeStr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitRRType
	}

	transcript := logging.NewTranscript(logDir)
	defer transcript.Flush(hostname, typeStr)
	transcript.Logf("%s Querying %q for %s-record", logging.Timestamp(), hostname, typeStr)

	walker := resolve.NewWalker(rootHints)
	walker.Transport = resolve.NewTransport(timeout)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	start := time.Now()
	answer, history, err := walker.Resolve(ctx, resolve.Question{Name: hostname, Type: qtype}, wantDNSSEC)
	elapsed := time.Since(start)
	if err != nil {
		transcript.Logf("%v", err)
		fmt.Fprintln(os.Stderr, err)
		return exitResolve
	}
	for _, ip := range history {
		transcript.Logf("Redirected to %s", ip)
	}

	if wantDNSSEC {
		if err := dnssec.Validate(ctx, walker.Transport, resolve.NormalizeName(hostname), answer, history); err != nil {
			transcript.Logf("%v", err)
			fmt.Fprintln(os.Stderr, err)
			return exitCodeForDNSSECError(err)
		}
	}

	printDigStyle(hostname, typeStr, answer, elapsed)
	transcript.Logf("%s", answer.Answer)
	return exitSuccess
}

func exitCodeForDNSSECError(err error) int {
	switch err.(type) {
	case *resolve.ResolutionError:
		return exitResolve
	case *dnssec.NoDNSSECSupportError:
		return exitNoDNSSEC
	case *dnssec.KSKVerificationError:
		return exitKSK
	case *dnssec.ZSKVerificationError:
		return exitZSK
	case *dnssec.RRSetVerificationError:
		return exitRRSet
	default:
		return exitOther
	}
}
