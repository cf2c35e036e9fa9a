// Command rulekit-inspect prints the contents of a serialized provider map,
// read from a file, stdin or a cache server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/kbukum/rulekit/cas"
	"github.com/kbukum/rulekit/cas/server"
	"github.com/kbukum/rulekit/codec"
	"github.com/kbukum/rulekit/digest"
	"github.com/kbukum/rulekit/provider"
	"github.com/kbukum/rulekit/version"
)

const programName = "rulekit-inspect"

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	remote      string
	timeout     time.Duration
	diag        bool
	asJSON      bool
	showVersion bool
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	var opts options
	flagSet := pflag.NewFlagSet(programName, pflag.ContinueOnError)
	flagSet.StringVarP(&opts.remote, "remote", "r", "", "cache server URL; the argument is then a map digest")
	flagSet.DurationVar(&opts.timeout, "timeout", 30*time.Second, "remote request timeout")
	flagSet.BoolVar(&opts.diag, "diag", false, "print CBOR diagnostic notation instead of a summary")
	flagSet.BoolVar(&opts.asJSON, "json", false, "print the summary as JSON")
	flagSet.BoolVar(&opts.showVersion, "version", false, "print version information and exit")
	flagSet.Usage = func() {
		fmt.Fprintf(flagSet.Output(), "Usage: %s [flags] [FILE|-|DIGEST]\n\n", programName)
		flagSet.PrintDefaults()
	}
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if opts.showVersion {
		version.Fprint(stdout, programName)
		return nil
	}
	if flagSet.NArg() > 1 {
		return fmt.Errorf("expected at most one argument, got %d", flagSet.NArg())
	}

	data, err := readInput(flagSet.Arg(0), opts, stdin)
	if err != nil {
		return err
	}

	if opts.diag {
		text, err := codec.Diagnose(data)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, text)
		return err
	}

	pm, err := provider.Unmarshal(data)
	if err != nil {
		return err
	}
	summary := server.Summarize(digest.Of(data), pm)

	if opts.asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}
	return printSummary(stdout, summary)
}

func readInput(arg string, opts options, stdin io.Reader) ([]byte, error) {
	if opts.remote != "" {
		if arg == "" {
			return nil, fmt.Errorf("--remote requires a map digest argument")
		}
		d, err := digest.Parse(arg)
		if err != nil {
			return nil, err
		}
		store, err := cas.NewHTTPStore(opts.remote, opts.timeout)
		if err != nil {
			return nil, err
		}
		return store.Get(context.Background(), d)
	}
	if arg == "" || arg == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(arg)
}

func printSummary(w io.Writer, s server.MapSummary) error {
	fmt.Fprintf(w, "digest:    %s\n", s.Digest)
	fmt.Fprintf(w, "providers: %d\n", s.Count)
	fmt.Fprintf(w, "payload:   %d bytes\n", s.Size)
	if s.Count == 0 {
		return nil
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE ID\tSIZE")
	for _, p := range s.Providers {
		fmt.Fprintf(tw, "%s\t%d\n", p.TypeID, p.Size)
	}
	return tw.Flush()
}
