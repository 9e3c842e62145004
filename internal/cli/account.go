package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"mehnda-chinji/internal/api"
)

func (r *runner) loginCmd() *cobra.Command {
	var (
		email    string
		password string
		remember bool
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with email and password",
		Long: `Log in to the backend and keep the session on this device.

Without --email the remembered address is used.

Examples:
  chinji login --email ayesha@example.com --password secret1 --remember`,
		Args: cobra.NoArgs,
	}
	cmd.RunE = r.guarded(func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if email == "" {
			email = r.app.Preferences.RememberedEmail(ctx)
		}
		if err := r.app.Accounts.Login(ctx, email, password, remember); err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", describe(r.app.Session.Profile()))
		return nil
	})
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().BoolVar(&remember, "remember", false, "remember the email for the next login")
	return annotate(cmd, areaAuth)
}

func (r *runner) signupCmd() *cobra.Command {
	var req api.SignupRequest
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = r.guarded(func(cmd *cobra.Command, args []string) error {
		if err := r.app.Accounts.Signup(cmd.Context(), req); err != nil {
			return fmt.Errorf("signup failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s\n", describe(r.app.Session.Profile()))
		return nil
	})
	cmd.Flags().StringVar(&req.Name, "name", "", "full name")
	cmd.Flags().StringVar(&req.Email, "email", "", "account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "account password")
	cmd.Flags().StringVar(&req.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&req.City, "city", "", "city")
	cmd.Flags().StringVar(&req.Village, "village", "", "village")
	return annotate(cmd, areaAuth)
}

func (r *runner) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and forget the session on this device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !r.app.Session.IsAuthenticated() {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
				return nil
			}
			if err := r.app.Accounts.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func (r *runner) whoamiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = r.guarded(func(cmd *cobra.Command, args []string) error {
		snap := r.app.Session.Snapshot()
		out := cmd.OutOrStdout()
		keys := make([]string, 0, len(snap.Session.Profile))
		for k := range snap.Session.Profile {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(out, "%-10s %v\n", k+":", snap.Session.Profile[k])
		}
		if snap.TokenExpiry != nil {
			fmt.Fprintf(out, "%-10s %s\n", "expires:", snap.TokenExpiry.Local().Format("2006-01-02 15:04"))
		}
		return nil
	})
	return annotate(cmd, areaApp)
}

func (r *runner) profileCmd() *cobra.Command {
	profile := &cobra.Command{
		Use:   "profile",
		Short: "Manage your profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	set := &cobra.Command{
		Use:   "set key=value...",
		Short: "Update profile fields",
		Long: `Update profile fields on the backend and in the local session.

Examples:
  chinji profile set city=Multan village=Chinji`,
		Args: cobra.MinimumNArgs(1),
	}
	set.RunE = r.guarded(func(cmd *cobra.Command, args []string) error {
		fields := make(map[string]any, len(args))
		for _, arg := range args {
			k, v, ok := strings.Cut(arg, "=")
			if !ok || strings.TrimSpace(k) == "" {
				return fmt.Errorf("expected key=value, got %q", arg)
			}
			fields[strings.TrimSpace(k)] = v
		}
		if _, err := r.app.Accounts.UpdateProfile(cmd.Context(), fields); err != nil {
			return fmt.Errorf("update profile: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Profile updated")
		return nil
	})
	profile.AddCommand(annotate(set, areaApp))
	return profile
}
