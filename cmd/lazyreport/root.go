package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/rebeliceyang/lazyreport/internal/app"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	var reportName string

	cmd := &cobra.Command{
		Use:           "lazyreport",
		Short:         "Browse absence and vacancy reports in the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(opts.configPath)
			if err != nil {
				return err
			}
			defer e.Close()

			if reportName == "" {
				reportName = e.cfg.General.Report
			}

			src, def, closeSource, err := e.openSource(cmd.Context(), reportName)
			if err != nil {
				return errors.Wrap(err, "open report source")
			}
			defer closeSource()

			store, saved, err := e.openLocalState()
			if err != nil {
				return err
			}

			log := logrus.NewEntry(e.log)
			log.WithFields(logrus.Fields{
				"report": def.Name,
				"source": e.cfg.Source.Kind,
			}).Info("starting")

			model := app.New(app.Deps{
				Config:     e.cfg,
				Definition: def,
				Source:     src,
				History:    store,
				Favorites:  saved,
				Log:        log,
			})

			programOpts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(cmd.Context())}
			if e.cfg.UI.MouseEnabled {
				programOpts = append(programOpts, tea.WithMouseCellMotion())
			}

			if _, err := tea.NewProgram(model, programOpts...).Run(); err != nil {
				return errors.Wrap(err, "run program")
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (default: search the user config dir, . and ./config)")
	cmd.Flags().StringVarP(&reportName, "report", "r", "", "Report to open (default: general.report)")

	cmd.AddCommand(newTokenCmd(opts))
	cmd.AddCommand(newHistoryCmd(opts))
	cmd.AddCommand(newSavedCmd(opts))
	cmd.AddCommand(newReportsCmd(opts))
	return cmd
}
