package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"portfoliosite/portfolio/internal/project"
)

func newProjectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Manage portfolio projects",
	}

	cmd.AddCommand(newProjectsListCmd())
	cmd.AddCommand(newProjectsShowCmd())
	cmd.AddCommand(newProjectsCreateCmd())
	cmd.AddCommand(newProjectsUpdateCmd())
	cmd.AddCommand(newProjectsDeleteCmd())

	return cmd
}

func newProjectsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all projects, including inactive ones",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newConsole(cmd)
			if err != nil {
				return err
			}
			return c.runProtected(cmd.Context(), "/admin/projects", func(ctx context.Context) error {
				items, err := c.client.Admin.ListProjects(ctx)
				if err != nil {
					return describeFailure(err)
				}
				printProjectTable(cmd.OutOrStdout(), items)
				return nil
			})
		},
	}
}

func newProjectsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one project as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newConsole(cmd)
			if err != nil {
				return err
			}
			return c.runProtected(cmd.Context(), "/admin/projects", func(ctx context.Context) error {
				p, err := c.client.Portfolio.GetProject(ctx, args[0])
				if err != nil {
					return describeFailure(err)
				}
				return printJSON(cmd.OutOrStdout(), p)
			})
		},
	}
}

func newProjectsCreateCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "create --file project.json",
		Short: "Create a project from a JSON document",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newConsole(cmd)
			if err != nil {
				return err
			}
			var p project.Project
			if err := readJSONFile(file, cmd.InOrStdin(), &p); err != nil {
				return err
			}
			return c.runProtected(cmd.Context(), "/admin/projects", func(ctx context.Context) error {
				created, err := c.client.Admin.CreateProject(ctx, p)
				if err != nil {
					return describeFailure(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created project %s (%s)\n", created.Title, created.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file describing the project (\"-\" for stdin)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func newProjectsUpdateCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "update <id> --file project.json",
		Short: "Replace a project from a JSON document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newConsole(cmd)
			if err != nil {
				return err
			}
			var p project.Project
			if err := readJSONFile(file, cmd.InOrStdin(), &p); err != nil {
				return err
			}
			return c.runProtected(cmd.Context(), "/admin/projects", func(ctx context.Context) error {
				updated, err := c.client.Admin.UpdateProject(ctx, args[0], p)
				if err != nil {
					return describeFailure(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "updated project %s (%s)\n", updated.Title, updated.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file describing the project (\"-\" for stdin)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func newProjectsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newConsole(cmd)
			if err != nil {
				return err
			}
			return c.runProtected(cmd.Context(), "/admin/projects", func(ctx context.Context) error {
				if err := c.client.Admin.DeleteProject(ctx, args[0]); err != nil {
					return describeFailure(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted project %s\n", args[0])
				return nil
			})
		},
	}
}

func printProjectTable(out io.Writer, items []project.Project) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tCATEGORY\tSTATUS\tFEATURED")
	for _, p := range items {
		featured := ""
		if p.Featured {
			featured = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Title, p.Category, p.Status, featured)
	}
	_ = w.Flush()
}

func printJSON(out io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(out, string(b))
	return err
}

func readJSONFile(path string, stdin io.Reader, v any) error {
	var r io.Reader
	name := path
	if path == "-" {
		r = stdin
		name = "stdin"
	} else {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}
