// Package cli implements the thin CLI wrapper of §6: parse one file (or
// stdin), run the pipeline, print the result (or write it to -o), report
// diagnostics, and exit with status 0 (success), 1 (I/O error), 2 (parse
// error) or 3 (invariant violation inside the pipeline). Grounded on
// rubiojr-rugo's cmd/cmd.go single-cli.Command-with-flags shape.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/t14raptor/go-fast/generator"
	"github.com/t14raptor/go-fast/parser"
	"github.com/urfave/cli/v3"

	"github.com/fxnatic/jsdeobf/internal/passes"
	"github.com/fxnatic/jsdeobf/internal/pipeline"
)

// exit codes per §6.
const (
	exitOK        = 0
	exitIOError   = 1
	exitParseError = 2
	exitInvariantViolation = 3
)

// Execute runs the jsdeobf CLI with the given version string.
func Execute(version string) {
	cmd := &cli.Command{
		Name:                   "jsdeobf",
		Usage:                  "Deobfuscate a JavaScript bundle",
		Version:                version,
		UseShortOptionHandling: true,
		ArgsUsage:              "<file.js|->",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "write result to this file instead of stdout",
			},
			&cli.StringFlag{
				Name:  "deobfuscate",
				Usage: "comma-separated pass names to run; prefix a name with '!' to disable it from the default set instead of restricting to an allow-list",
			},
			&cli.IntFlag{
				Name:  "indent-size",
				Usage: "spaces per indent level in the printed output",
				Value: 2,
			},
			&cli.BoolFlag{
				Name:  "indent-with-tabs",
				Usage: "indent the printed output with tabs instead of spaces",
			},
			&cli.BoolFlag{
				Name:  "source-maps",
				Usage: "accepted; it has no effect on the printed output",
			},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		var xerr exitError
		if errors.As(err, &xerr) {
			fmt.Fprintln(os.Stderr, xerr.msg)
			os.Exit(xerr.code)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(exitIOError)
	}
}

// exitError carries the specific status code for each failure the CLI
// surfaces (I/O, parse, invariant violation).
type exitError struct {
	code int
	msg  string
}

func (e exitError) Error() string { return e.msg }

func run(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() < 1 {
		return exitError{exitIOError, "usage: jsdeobf [flags] <file.js|->"}
	}

	src, err := readInput(cmd.Args().First())
	if err != nil {
		return exitError{exitIOError, fmt.Sprintf("error: %v", err)}
	}

	program, err := parser.ParseFile(src)
	if err != nil {
		return exitError{exitParseError, fmt.Sprintf("parse error: %v", err)}
	}

	opts := pipeline.DefaultOptions()
	if enable := cmd.String("deobfuscate"); enable != "" {
		mask, err := parsePassSelection(enable, opts.EnabledPasses)
		if err != nil {
			return exitError{exitIOError, fmt.Sprintf("error: %v", err)}
		}
		opts.EnabledPasses = mask
	}
	opts.Trace = os.Stderr

	_, report, err := pipeline.Deobfuscate(program, passes.All(opts), opts)
	if err != nil {
		var iv *pipeline.InvariantViolation
		if errors.As(err, &iv) {
			return exitError{exitInvariantViolation, fmt.Sprintf("internal error: %v", err)}
		}
		return exitError{exitIOError, fmt.Sprintf("error: %v", err)}
	}

	out := generator.Generate(program)
	out = reindent(out, int(cmd.Int("indent-size")), cmd.Bool("indent-with-tabs"))

	if err := writeOutput(cmd.String("output"), out); err != nil {
		return exitError{exitIOError, fmt.Sprintf("error: %v", err)}
	}

	fmt.Fprint(os.Stderr, report.Summary())
	return nil
}

func readInput(path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(os.Stdin)
		return string(b), err
	}
	b, err := os.ReadFile(path)
	return string(b), err
}

func writeOutput(path, text string) error {
	if path == "" {
		_, err := fmt.Print(text)
		return err
	}
	return os.WriteFile(path, []byte(text), 0644)
}

// passByName maps §4.2's pass names to their identifiers, for
// --deobfuscate's name-based selection.
var passByName = map[string]pipeline.PassID{
	"control-flow-unflatten":  pipeline.P1,
	"string-array-rotation":   pipeline.P2,
	"decoder-proxy-resolve":   pipeline.P3a,
	"decoder-inline":          pipeline.P3,
	"call-proxy-inline":       pipeline.P4,
	"operator-proxy-inline":   pipeline.P5,
	"expression-simplify":     pipeline.P6,
	"dead-code-eliminate":     pipeline.P7,
	"dead-variable-eliminate": pipeline.P8,
	"function-inline":         pipeline.P9,
	"structural-cleanup":      pipeline.P10,
	"literal-normalize":       pipeline.P11,
	"identifier-rename":       pipeline.P12,
	"empty-statement-cleanup": pipeline.P13,
	"sequence-split":          pipeline.P14,
	"variable-split":          pipeline.P15,
	"ternary-to-if":           pipeline.P16,
	"short-circuit-to-if":     pipeline.P17,
	"iife-unwrap":             pipeline.P18,
	"webpack-module-annotate": pipeline.P19,
	"peephole-sweep":          pipeline.P20,
}

// parsePassSelection turns --deobfuscate's value into an enabled-pass
// bitset. A list of bare names replaces the default entirely (allow-list
// mode); a list where every entry is "!name" instead removes those
// passes from the default. Mixing the two forms is rejected as
// ambiguous.
func parsePassSelection(raw string, defaultMask pipeline.PassID) (pipeline.PassID, error) {
	names := strings.Split(raw, ",")
	var allow, deny []string
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if strings.HasPrefix(n, "!") {
			deny = append(deny, strings.TrimPrefix(n, "!"))
		} else {
			allow = append(allow, n)
		}
	}
	if len(allow) > 0 && len(deny) > 0 {
		return 0, fmt.Errorf("--deobfuscate: cannot mix enabled and disabled pass names")
	}

	if len(deny) > 0 {
		mask := defaultMask
		for _, n := range deny {
			id, ok := passByName[n]
			if !ok {
				return 0, fmt.Errorf("--deobfuscate: unknown pass %q", n)
			}
			mask &^= id
		}
		return mask, nil
	}

	var mask pipeline.PassID
	for _, n := range allow {
		id, ok := passByName[n]
		if !ok {
			return 0, fmt.Errorf("--deobfuscate: unknown pass %q", n)
		}
		mask |= id
	}
	return mask, nil
}
