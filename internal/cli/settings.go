package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (r *runner) passwordCmd() *cobra.Command {
	var current, next string
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Change the account password",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = r.guarded(func(cmd *cobra.Command, args []string) error {
		if err := r.app.Accounts.ChangePassword(cmd.Context(), current, next); err != nil {
			return fmt.Errorf("change password: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Password changed")
		return nil
	})
	cmd.Flags().StringVar(&current, "current", "", "current password")
	cmd.Flags().StringVar(&next, "new", "", "new password, at least 6 characters")
	_ = cmd.MarkFlagRequired("current")
	_ = cmd.MarkFlagRequired("new")
	return annotate(cmd, areaApp)
}

func (r *runner) accountCmd() *cobra.Command {
	account := &cobra.Command{
		Use:   "account",
		Short: "Manage the account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var password string
	del := &cobra.Command{
		Use:   "delete",
		Short: "Delete the account with its donor entry and businesses",
		Args:  cobra.NoArgs,
	}
	del.RunE = r.guarded(func(cmd *cobra.Command, args []string) error {
		if err := r.app.Accounts.DeleteAccount(cmd.Context(), password); err != nil {
			return fmt.Errorf("delete account: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Account deleted")
		return nil
	})
	del.Flags().StringVar(&password, "password", "", "account password")
	_ = del.MarkFlagRequired("password")
	account.AddCommand(annotate(del, areaApp))
	return account
}

func (r *runner) sessionsCmd() *cobra.Command {
	sessions := &cobra.Command{
		Use:   "sessions",
		Short: "List the devices logged in to the account",
		Args:  cobra.NoArgs,
	}
	sessions.RunE = r.guarded(func(cmd *cobra.Command, args []string) error {
		list, err := r.app.Accounts.Sessions(cmd.Context())
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTARTED\tLAST SEEN\t")
		for _, ls := range list {
			marker := ""
			if ls.Current {
				marker = "(this device)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", ls.ID,
				ls.CreatedAt.Local().Format("2006-01-02 15:04"),
				ls.LastSeenAt.Local().Format("2006-01-02 15:04"),
				marker)
		}
		return w.Flush()
	})

	revoke := &cobra.Command{
		Use:   "revoke <session-id>",
		Short: "Log out another device",
		Args:  cobra.ExactArgs(1),
	}
	revoke.RunE = r.guarded(func(cmd *cobra.Command, args []string) error {
		if err := r.app.Accounts.RevokeSession(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("revoke session: %w", err)
		}
		if !r.app.Session.IsAuthenticated() {
			fmt.Fprintln(cmd.OutOrStdout(), "Revoked this device's session, logged out")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Session revoked")
		return nil
	})
	sessions.AddCommand(annotate(revoke, areaApp))
	return annotate(sessions, areaApp)
}
