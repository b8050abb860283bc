package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"portfoliosite/portfolio/internal/contact"
)

func newContactsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contacts",
		Short: "Triage contact-form submissions",
	}

	cmd.AddCommand(newContactsListCmd())
	cmd.AddCommand(newContactsShowCmd())
	cmd.AddCommand(newContactsMarkCmd())
	cmd.AddCommand(newContactsDeleteCmd())
	cmd.AddCommand(newContactsStatsCmd())

	return cmd
}

func newContactsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List contact submissions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newConsole(cmd)
			if err != nil {
				return err
			}
			return c.runProtected(cmd.Context(), "/admin/contacts", func(ctx context.Context) error {
				items, err := c.client.Contact.List(ctx)
				if err != nil {
					return describeFailure(err)
				}
				printContactTable(cmd.OutOrStdout(), items)
				return nil
			})
		},
	}
}

func newContactsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one contact submission as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newConsole(cmd)
			if err != nil {
				return err
			}
			return c.runProtected(cmd.Context(), "/admin/contacts", func(ctx context.Context) error {
				item, err := c.client.Contact.Get(ctx, args[0])
				if err != nil {
					return describeFailure(err)
				}
				return printJSON(cmd.OutOrStdout(), item)
			})
		},
	}
}

func newContactsMarkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mark <id> <new|read|replied>",
		Short: "Set the triage status of a contact submission",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newConsole(cmd)
			if err != nil {
				return err
			}
			return c.runProtected(cmd.Context(), "/admin/contacts", func(ctx context.Context) error {
				updated, err := c.client.Contact.UpdateStatus(ctx, args[0], args[1])
				if err != nil {
					return describeFailure(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "contact %s is now %s\n", updated.ID, updated.Status)
				return nil
			})
		},
	}
}

func newContactsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a contact submission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newConsole(cmd)
			if err != nil {
				return err
			}
			return c.runProtected(cmd.Context(), "/admin/contacts", func(ctx context.Context) error {
				if err := c.client.Contact.Delete(ctx, args[0]); err != nil {
					return describeFailure(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted contact %s\n", args[0])
				return nil
			})
		},
	}
}

func newContactsStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show contact totals by status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newConsole(cmd)
			if err != nil {
				return err
			}
			return c.runProtected(cmd.Context(), "/admin/contacts", func(ctx context.Context) error {
				stats, err := c.client.Contact.Stats(ctx)
				if err != nil {
					return describeFailure(err)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "total:   %d\n", stats.Total)
				fmt.Fprintf(out, "new:     %d\n", stats.New)
				fmt.Fprintf(out, "read:    %d\n", stats.Read)
				fmt.Fprintf(out, "replied: %d\n", stats.Replied)
				return nil
			})
		},
	}
}

func printContactTable(out io.Writer, items []contact.Contact) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tSUBJECT\tSTATUS")
	for _, c := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Email, c.Subject, c.Status)
	}
	_ = w.Flush()
}
