package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/flowdesk/pkg/session"
	"github.com/Sternrassler/flowdesk/pkg/workflow"
)

func (a *app) auth() (*workflow.Auth, error) {
	c, err := a.client()
	if err != nil {
		return nil, err
	}
	return workflow.NewAuth(c, a.session), nil
}

func newLoginCmd(a *app) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		Long: "Log in with username and password. Without --password the password is\n" +
			"read from the first line of standard input.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}

			auth, err := a.auth()
			if err != nil {
				return err
			}
			cred, err := auth.Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}

			fmt.Fprintf(out(cmd), "Logged in as %s (session expires %s)\n",
				cred.Username, cred.ExpiresAt.Local().Format(time.RFC1123))
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget the token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if a.cfg.BaseURL == "" {
				// Without an API only the local credential is dropped.
				err = a.session.Logout(cmd.Context())
			} else {
				var auth *workflow.Auth
				if auth, err = a.auth(); err == nil {
					err = auth.Logout(cmd.Context())
				}
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(out(cmd), "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	var local bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cred, err := a.session.Current(ctx)
			if err != nil {
				if errors.Is(err, session.ErrNoCredential) {
					fmt.Fprintln(out(cmd), "Not logged in")
					return nil
				}
				return err
			}

			if local {
				fmt.Fprintf(out(cmd), "%s (session expires %s)\n",
					cred.Username, cred.ExpiresAt.Local().Format(time.RFC1123))
				return nil
			}

			auth, err := a.auth()
			if err != nil {
				return err
			}
			me, err := auth.Me(ctx)
			if err != nil {
				return err
			}
			return writeJSON(out(cmd), me)
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "Only show the stored session, do not ask the API")
	return cmd
}
