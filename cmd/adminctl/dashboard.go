package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newDashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show the admin dashboard summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newConsole(cmd)
			if err != nil {
				return err
			}
			return c.runProtected(cmd.Context(), "/admin/dashboard", func(ctx context.Context) error {
				stats, err := c.client.Admin.DashboardStats(ctx)
				if err != nil {
					return describeFailure(err)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "projects:          %d\n", stats.Projects)
				fmt.Fprintf(out, "featured projects: %d\n", stats.FeaturedProjects)
				fmt.Fprintf(out, "contacts:          %d\n", stats.Contacts)
				fmt.Fprintf(out, "new contacts:      %d\n", stats.NewContacts)
				return nil
			})
		},
	}
}
