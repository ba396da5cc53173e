package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/rebeliceyang/lazyreport/internal/db/metadata"
	"github.com/rebeliceyang/lazyreport/internal/models"
	"github.com/spf13/cobra"
)

func newReportsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reports",
		Short: "List the reports the configured source offers",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(opts.configPath)
			if err != nil {
				return err
			}
			defer e.Close()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

			if e.cfg.Source.Kind == models.SourcePostgres {
				tokens, err := e.tokens()
				if err != nil {
					return err
				}
				pool, err := e.openPool(cmd.Context(), tokens)
				if err != nil {
					return err
				}
				defer pool.Close()

				tables, err := metadata.Tables(cmd.Context(), pool, e.cfg.Source.Schema)
				if err != nil {
					return err
				}
				fmt.Fprintln(w, "TABLE\tROWS\tSIZE")
				for _, t := range tables {
					rows := "?"
					if t.Rows >= 0 {
						rows = fmt.Sprint(t.Rows)
					}
					fmt.Fprintf(w, "%s\t%s\t%s\n", t.Name, rows, t.Size)
				}
				return w.Flush()
			}

			defs, err := e.definitions()
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "REPORT\tFROM\tFIELDS")
			for _, def := range defs {
				fmt.Fprintf(w, "%s\t%s\t%d\n", def.Name, def.From, len(def.Fields))
			}
			return w.Flush()
		},
	}
}
