package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rebeliceyang/lazyreport/internal/models"
	"github.com/spf13/cobra"
)

func newTokenCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the stored report service token or database password",
	}
	cmd.AddCommand(newTokenSetCmd(opts), newTokenDeleteCmd(opts))
	return cmd
}

// credentialKey returns the server and user a secret is stored under for the
// configured source
func credentialKey(e *env) (string, string) {
	if e.cfg.Source.Kind == models.SourcePostgres {
		return e.postgresKey(), e.cfg.Postgres.User
	}
	return e.cfg.Source.URL, e.cfg.Source.User
}

func newTokenSetCmd(opts *rootOptions) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store a secret in the system keyring (read from stdin when --token is empty)",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(opts.configPath)
			if err != nil {
				return err
			}
			defer e.Close()

			if token == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "Token: ")
				line, err := bufio.NewReader(os.Stdin).ReadString('\n')
				if err != nil && line == "" {
					return errors.Wrap(err, "read token")
				}
				token = strings.TrimSpace(line)
			}
			if token == "" {
				return errors.New("empty token")
			}

			store, err := e.tokens()
			if err != nil {
				return err
			}
			server, user := credentialKey(e)
			if err := store.Save(server, user, token); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored secret for %s\n", server)
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Secret to store")
	return cmd
}

func newTokenDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Remove the stored secret of the configured source",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(opts.configPath)
			if err != nil {
				return err
			}
			defer e.Close()

			store, err := e.tokens()
			if err != nil {
				return err
			}
			server, user := credentialKey(e)
			if err := store.Delete(server, user); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed secret for %s\n", server)
			return nil
		},
	}
}
