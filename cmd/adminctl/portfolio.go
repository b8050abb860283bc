package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newPortfolioCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "portfolio",
		Short: "Browse the public portfolio",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List published projects",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newConsole(cmd)
			if err != nil {
				return err
			}
			items, err := c.client.Portfolio.ListProjects(cmd.Context())
			if err != nil {
				return describeFailure(err)
			}
			printProjectTable(cmd.OutOrStdout(), items)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "featured",
		Short: "List featured projects",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newConsole(cmd)
			if err != nil {
				return err
			}
			items, err := c.client.Portfolio.FeaturedProjects(cmd.Context())
			if err != nil {
				return describeFailure(err)
			}
			printProjectTable(cmd.OutOrStdout(), items)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show one published project as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newConsole(cmd)
			if err != nil {
				return err
			}
			p, err := c.client.Portfolio.GetProject(cmd.Context(), args[0])
			if err != nil {
				return describeFailure(err)
			}
			return printJSON(cmd.OutOrStdout(), p)
		},
	})

	return cmd
}

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin accounts",
	}

	var username, password, email string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create another admin account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newConsole(cmd)
			if err != nil {
				return err
			}
			if username == "" || password == "" {
				return fmt.Errorf("--username and --password are required")
			}
			return c.runProtected(cmd.Context(), "/admin/accounts", func(ctx context.Context) error {
				user, err := c.client.Admin.CreateAdmin(ctx, username, password, email)
				if err != nil {
					return describeFailure(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", user.Username, user.ID)
				return nil
			})
		},
	}
	create.Flags().StringVarP(&username, "username", "u", "", "new admin username")
	create.Flags().StringVarP(&password, "password", "p", "", "new admin password")
	create.Flags().StringVarP(&email, "email", "e", "", "new admin email")
	cmd.AddCommand(create)

	return cmd
}
