package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/miradorstack/mirador-status/internal/config"
	"github.com/miradorstack/mirador-status/internal/engine"
	"github.com/miradorstack/mirador-status/internal/models"
	"github.com/miradorstack/mirador-status/internal/repo"
	"github.com/miradorstack/mirador-status/internal/utils"
)

// Cli runs the status pipeline over a records file without starting servers.
type Cli struct {
	input          string
	subdomain      string
	pretty         bool
	unresolvedOnly bool
	verbose        bool
}

// Execute sets up and runs the root command.
func (cli *Cli) Execute() error {
	return cli.rootCommand().Execute()
}

func (cli *Cli) rootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "dashboardctl",
		Short:         "dashboardctl groups PagerDuty service records into dashboard groups.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&cli.input, "input", "i", "-", "Records file (JSON array or {\"services\": [...]}); - reads stdin")
	rootCmd.PersistentFlags().StringVar(&cli.subdomain, "subdomain", os.Getenv("MIRADOR_STATUS_PAGERDUTY_SUBDOMAIN"), "PagerDuty subdomain used to build service links")
	rootCmd.PersistentFlags().BoolVarP(&cli.verbose, "verbose", "v", false, "Log pipeline diagnostics to stderr")

	rootCmd.AddCommand(cli.createGroupsCommand())
	rootCmd.AddCommand(cli.createDepsCommand())
	return rootCmd
}

func (cli *Cli) createGroupsCommand() *cobra.Command {
	groupsCmd := &cobra.Command{
		Use:   "groups",
		Short: "Print the aggregated groups as JSON.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := (config.PagerDutyConfig{Subdomain: cli.subdomain}).Validate(); err != nil {
				return err
			}
			res, err := cli.run(cmd)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			if cli.pretty {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(res.Groups)
		},
	}
	groupsCmd.Flags().BoolVar(&cli.pretty, "pretty", false, "Indent the JSON output")
	return groupsCmd
}

func (cli *Cli) createDepsCommand() *cobra.Command {
	depsCmd := &cobra.Command{
		Use:   "deps",
		Short: "List dependency declarations and what they resolved to.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := cli.run(cmd)
			if err != nil {
				return err
			}
			return writeResolutions(cmd.OutOrStdout(), res.Resolutions, cli.unresolvedOnly)
		},
	}
	depsCmd.Flags().BoolVar(&cli.unresolvedOnly, "unresolved", false, "Only list declarations that matched nothing")
	return depsCmd
}

func (cli *Cli) run(cmd *cobra.Command) (engine.Result, error) {
	records, err := cli.loadRecords(cmd.Context(), cmd.InOrStdin())
	if err != nil {
		return engine.Result{}, err
	}
	level := "warn"
	if cli.verbose {
		level = "debug"
	}
	logger := utils.NewLoggerTo(cmd.ErrOrStderr(), level, false)
	return engine.NewPipeline(logger, cli.subdomain).Run(records), nil
}

func (cli *Cli) loadRecords(ctx context.Context, stdin io.Reader) ([]models.RawService, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if cli.input == "" || cli.input == "-" {
		return repo.DecodeRecords(stdin)
	}
	return repo.NewFileSource(cli.input).Load(ctx)
}

func writeResolutions(w io.Writer, resolutions []engine.Resolution, unresolvedOnly bool) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SERVICE\tDECLARED\tRESULT")
	for _, r := range resolutions {
		if unresolvedOnly && !r.Unresolved() {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Service, r.Declared, describe(r))
	}
	return tw.Flush()
}

func describe(r engine.Resolution) string {
	switch {
	case r.Invalid:
		return "invalid pattern"
	case r.Unresolved():
		return "unresolved"
	case r.Exact:
		return "exact: " + r.Matched[0]
	default:
		return "pattern: " + strings.Join(r.Matched, ", ")
	}
}
