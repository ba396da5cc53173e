package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newSavedCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "saved",
		Short: "List, export or delete saved reports",
	}
	cmd.AddCommand(newSavedListCmd(opts), newSavedExportCmd(opts), newSavedDeleteCmd(opts))
	return cmd
}

func newSavedListCmd(opts *rootOptions) *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "list [report]",
		Short: "List saved reports, optionally of one report",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(opts.configPath)
			if err != nil {
				return err
			}
			defer e.Close()

			_, saved, err := e.openLocalState()
			if err != nil {
				return err
			}

			list := saved.Search(search)
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tREPORT\tUSED\tTAGS")
			for _, s := range list {
				if len(args) == 1 && !strings.EqualFold(s.Report, args[0]) {
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", s.ID, s.Name, s.Report, s.UsageCount, strings.Join(s.Tags, ","))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "Only saved reports matching this text")
	return cmd
}

func newSavedExportCmd(opts *rootOptions) *cobra.Command {
	var (
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every saved report to CSV or JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(opts.configPath)
			if err != nil {
				return err
			}
			defer e.Close()

			_, saved, err := e.openLocalState()
			if err != nil {
				return err
			}

			var path string
			switch strings.ToLower(format) {
			case "csv":
				path, err = saved.ExportToCSV(out)
			case "json":
				path, err = saved.ExportToJSON(out)
			default:
				return errors.Errorf("unknown format %q, use csv or json", format)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "csv", "csv or json")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default: next to saved_reports.yaml)")
	return cmd
}

func newSavedDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(opts.configPath)
			if err != nil {
				return err
			}
			defer e.Close()

			_, saved, err := e.openLocalState()
			if err != nil {
				return err
			}
			if err := saved.Delete(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}
