package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"portfoliosite/portfolio/internal/apiclient"
	"portfoliosite/portfolio/internal/config"
	"portfoliosite/portfolio/internal/credentials"
	"portfoliosite/portfolio/internal/session"
)

const loginPath = "/admin/login"

// NewRootCmd creates the root command for the admin console.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "adminctl",
		Short: "Manage the portfolio site from the terminal",
		Long: `adminctl talks to the portfolio API. Public portfolio content is
readable without signing in; admin and contact management commands
require a session established with "adminctl login".`,
		SilenceUsage: true,
	}

	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newLogoutCmd())
	cmd.AddCommand(newWhoamiCmd())
	cmd.AddCommand(newDashboardCmd())
	cmd.AddCommand(newProjectsCmd())
	cmd.AddCommand(newContactsCmd())
	cmd.AddCommand(newPortfolioCmd())
	cmd.AddCommand(newAdminCmd())

	return cmd
}

// console bundles the client-side session machinery every command uses.
type console struct {
	store  *credentials.Store
	client *apiclient.Client
	oracle *session.Oracle
	guard  *session.Guard
	nav    *consoleNavigator
}

func newConsole(cmd *cobra.Command) (*console, error) {
	cfg, err := config.LoadClient()
	if err != nil {
		return nil, fmt.Errorf("load client config: %w", err)
	}

	store, err := credentials.NewStore(cfg.StateDir)
	if err != nil {
		return nil, err
	}

	nav := &consoleNavigator{out: cmd.ErrOrStderr(), loc: "/"}
	client, err := apiclient.New(apiclient.Config{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
	}, store, nav)
	if err != nil {
		return nil, err
	}

	oracle := session.NewOracle(store)
	return &console{
		store:  store,
		client: client,
		oracle: oracle,
		guard:  session.NewGuard(oracle, nav, loginPath),
		nav:    nav,
	}, nil
}

// runProtected visits an admin location and renders the view through the
// guard. Anonymous invocations land on the login path without running
// the view.
func (c *console) runProtected(ctx context.Context, path string, view session.View) error {
	c.nav.Visit(path)
	return c.guard.Protect(view)(ctx)
}

// consoleNavigator stands in for browser navigation. The current command's
// admin location is the Location; a forced Replace tells the operator the
// session ended.
type consoleNavigator struct {
	mu  sync.Mutex
	out io.Writer
	loc string
}

func (n *consoleNavigator) Visit(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.loc = path
}

func (n *consoleNavigator) Location() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.loc
}

func (n *consoleNavigator) Replace(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.loc = path
	if path == loginPath {
		fmt.Fprintln(n.out, "session is no longer valid; run \"adminctl login\"")
	}
}
