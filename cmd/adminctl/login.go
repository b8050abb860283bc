package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"portfoliosite/portfolio/internal/apiclient"
)

func newLoginCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session locally",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newConsole(cmd)
			if err != nil {
				return err
			}

			if username == "" {
				return fmt.Errorf("--username is required")
			}
			if password == "" {
				fmt.Fprint(cmd.OutOrStdout(), "password: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}

			c.nav.Visit(loginPath)
			user, err := c.client.Admin.Login(cmd.Context(), username, password)
			if err != nil {
				if errors.Is(err, apiclient.ErrUnauthorized) {
					return fmt.Errorf("invalid username or password")
				}
				return describeFailure(err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s (%s)\n", user.Username, user.Role)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "admin username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "admin password (prompted when omitted)")

	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and clear local credentials",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newConsole(cmd)
			if err != nil {
				return err
			}
			if err := c.client.Admin.Logout(cmd.Context()); err != nil {
				return describeFailure(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the locally cached session user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newConsole(cmd)
			if err != nil {
				return err
			}
			if !c.oracle.IsAuthenticated() {
				fmt.Fprintln(cmd.OutOrStdout(), "not signed in")
				return nil
			}
			user, ok := c.oracle.CurrentUser()
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "signed in (no cached profile)")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", user.Username, user.Role)
			if user.Email != "" {
				fmt.Fprintln(cmd.OutOrStdout(), user.Email)
			}
			return nil
		},
	}
}

// describeFailure maps the client's error classes to operator-facing
// messages.
func describeFailure(err error) error {
	switch {
	case errors.Is(err, apiclient.ErrUnauthorized):
		return fmt.Errorf("session rejected; run \"adminctl login\"")
	case errors.Is(err, apiclient.ErrTimeout):
		return fmt.Errorf("the server took too long to respond")
	case errors.Is(err, apiclient.ErrUnreachable):
		return fmt.Errorf("could not reach the server")
	}
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return fmt.Errorf("%s", apiErr.Message)
	}
	return err
}
