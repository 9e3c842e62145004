// Package cli is the chinji command line client.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mehnda-chinji/internal/app"
	"mehnda-chinji/internal/domain"
	"mehnda-chinji/internal/guard"
)

// ErrLoginRequired is returned by app commands run without a session.
var ErrLoginRequired = errors.New("not logged in; run 'chinji login' first")

// Opener builds the app for a command run from the --config file.
type Opener func(ctx context.Context, configFile string) (*app.App, error)

// area annotation values; commands without one run in any state.
const (
	areaKey  = "area"
	areaAuth = "auth"
	areaApp  = "app"
)

type runner struct {
	open       Opener
	configFile string
	app        *app.App
}

// NewRootCommand builds the command tree. open is called once per run,
// before any command that needs the app.
func NewRootCommand(open Opener) *cobra.Command {
	r := &runner{open: open}

	root := &cobra.Command{
		Use:   "chinji",
		Short: "Mehnda Chinji community app client",
		Long: `chinji signs in to the Mehnda Chinji backend and browses the
blood donor list and the business directory.

The session is kept in the device store configured by store.driver, so a
login survives between runs.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a, err := r.open(cmd.Context(), r.configFile)
			if err != nil {
				return err
			}
			a.Start(cmd.Context())
			r.app = a
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if r.app == nil {
				return nil
			}
			return r.app.Close()
		},
	}
	root.PersistentFlags().StringVar(&r.configFile, "config", "", "config file (default ./config.yaml)")

	root.AddCommand(
		r.loginCmd(),
		r.signupCmd(),
		r.logoutCmd(),
		r.whoamiCmd(),
		r.profileCmd(),
		r.passwordCmd(),
		r.accountCmd(),
		r.sessionsCmd(),
		r.donorsCmd(),
		r.businessesCmd(),
		r.themeCmd(),
	)
	return root
}

// guarded runs the route guard for the command's area before run. App
// commands without a session fail; auth commands with one report the
// active user instead of running.
func (r *runner) guarded(run func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		route := domain.RouteSplash
		switch cmd.Annotations[areaKey] {
		case areaAuth:
			route = guard.AuthEntry
		case areaApp:
			route = guard.AppEntry
		default:
			return run(cmd, args)
		}

		target, redirect := guard.Decide(guard.StateOf(r.app.Session.Snapshot()), route)
		switch {
		case !redirect:
			return run(cmd, args)
		case target == guard.AuthEntry:
			return ErrLoginRequired
		default:
			fmt.Fprintf(cmd.OutOrStdout(), "Already logged in as %s\n", describe(r.app.Session.Profile()))
			return nil
		}
	}
}

func describe(p domain.Profile) string {
	name, email := p.String("name"), p.String("email")
	switch {
	case name != "" && email != "":
		return fmt.Sprintf("%s <%s>", name, email)
	case email != "":
		return email
	case name != "":
		return name
	}
	return p.ID()
}

func annotate(cmd *cobra.Command, area string) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[areaKey] = area
	return cmd
}
