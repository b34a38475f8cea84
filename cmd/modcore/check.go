package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dshills/modcore/internal/config"
)

var errCheckFailed = errors.New("configuration has problems")

func newCheckCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration without changing it",
		Long: "check reconciles the configuration with the module schemas and validates it. " +
			"It reports what a migration would change and every value that would fall back " +
			"to its default. The file is never written.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, g, sessionOptions{readOnly: true})
			if err != nil {
				return err
			}
			defer s.close()

			res, err := s.app.Load()
			if res == nil {
				return err
			}

			out := cmd.OutOrStdout()
			printReport(out, res)

			if err != nil || len(res.Violations) > 0 {
				return errCheckFailed
			}
			return nil
		},
	}
}

func newMigrateCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Bring the configuration file up to date with the module schemas",
		Long: "migrate reconciles the configuration with the module schemas and rewrites it " +
			"in schema order with descriptions as comments. User values are kept, even invalid ones.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, g, sessionOptions{})
			if err != nil {
				return err
			}
			defer s.close()

			res, err := s.app.Load()
			if res == nil {
				return err
			}

			out := cmd.OutOrStdout()
			printReport(out, res)
			switch {
			case res.Saved:
				fmt.Fprintf(out, "wrote %s\n", s.app.Store().Path())
			case err == nil:
				fmt.Fprintf(out, "%s is up to date\n", s.app.Store().Path())
			}
			return err
		},
	}
}

func printReport(out io.Writer, res *config.Result) {
	if !res.Existed {
		fmt.Fprintln(out, "no configuration file, defaults apply")
	}
	if res.ReadErr != nil {
		fmt.Fprintf(out, "unreadable: %v\n", res.ReadErr)
	}

	r := res.Reconciled
	for _, rn := range r.Renamed {
		fmt.Fprintf(out, "rename  %s -> %s\n", rn.From, rn.To)
	}
	for _, p := range r.Pruned {
		fmt.Fprintf(out, "remove  %s\n", p)
	}
	if res.Existed {
		for _, p := range r.Inserted {
			fmt.Fprintf(out, "add     %s\n", p)
		}
	}

	for _, v := range res.Violations {
		fmt.Fprintf(out, "invalid %s: %s (got %v, using %v)\n", v.Path, v.Reason, v.Observed, v.Default)
	}
	fmt.Fprintf(out, "%d violations\n", len(res.Violations))
}
