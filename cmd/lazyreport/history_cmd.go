package main

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/rebeliceyang/lazyreport/internal/history"
	"github.com/spf13/cobra"
)

type historyOutput struct {
	Report     string `json:"report"`
	QueryText  string `json:"query_text"`
	ExecutedAt string `json:"executed_at"`
	DurationMS int64  `json:"duration_ms"`
	RowCount   int    `json:"row_count"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var (
		limit  int
		search string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print recent report runs as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(opts.configPath)
			if err != nil {
				return err
			}
			defer e.Close()

			if !e.cfg.History.Enabled {
				return errors.New("history is disabled (history.enabled)")
			}
			store, _, err := e.openLocalState()
			if err != nil {
				return err
			}
			if store == nil {
				return errors.New("history database could not be opened, see the log")
			}

			var entries []history.Entry
			if search != "" {
				entries, err = store.Search(search, limit)
			} else {
				entries, err = store.GetRecent(limit)
			}
			if err != nil {
				return err
			}

			out := make([]historyOutput, len(entries))
			for i, entry := range entries {
				out[i] = historyOutput{
					Report:     entry.Report,
					QueryText:  entry.QueryText,
					ExecutedAt: entry.ExecutedAt.Local().Format("2006-01-02 15:04:05"),
					DurationMS: entry.Duration.Milliseconds(),
					RowCount:   entry.RowCount,
					Success:    entry.Success,
					Error:      entry.ErrorMessage,
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to print")
	cmd.Flags().StringVar(&search, "search", "", "Only runs whose report or query contains this text")
	return cmd
}
