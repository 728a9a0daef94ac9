// Command planctl scores, validates and analyzes strategic plans offline.
//
//	planctl score plan.yaml
//	planctl validate plan.json
//	planctl coverage templates.yaml --catalog catalog.yaml
//	planctl watch plan.yaml
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

const (
	outputText = "text"
	outputJSON = "json"
)

type options struct {
	output  string
	catalog string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "planctl",
		Short:         "Offline tools for municipal innovation strategic plans",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch opts.output {
			case outputText, outputJSON:
				return nil
			default:
				return fmt.Errorf("unknown output %q (want text or json)", opts.output)
			}
		},
	}
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", outputText, "output format: text or json")
	root.PersistentFlags().StringVar(&opts.catalog, "catalog", "", "taxonomy catalog YAML (defaults to the built-in catalog)")

	root.AddCommand(
		newScoreCmd(opts),
		newValidateCmd(opts),
		newCoverageCmd(opts),
		newWatchCmd(opts),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "planctl:", err)
		os.Exit(1)
	}
}
