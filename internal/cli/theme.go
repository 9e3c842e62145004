package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"mehnda-chinji/internal/domain"
)

func (r *runner) themeCmd() *cobra.Command {
	theme := &cobra.Command{
		Use:   "theme",
		Short: "Show or change the colour theme",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), r.app.Preferences.ThemePreference(cmd.Context()))
			return nil
		},
	}
	var system string
	toggle := &cobra.Command{
		Use:   "toggle",
		Short: "Switch between light and dark",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			next := r.app.Preferences.ToggleTheme(cmd.Context(), domain.ThemePreference(system))
			fmt.Fprintf(cmd.OutOrStdout(), "Theme set to %s\n", next)
			return nil
		},
	}
	toggle.Flags().StringVar(&system, "system", string(domain.ThemeLight), "colour scheme of the OS, used when the preference is system")

	theme.AddCommand(
		toggle,
		&cobra.Command{
			Use:   "get",
			Short: "Print the stored theme preference",
			Args:  cobra.NoArgs,
			RunE:  theme.RunE,
		},
		&cobra.Command{
			Use:       "set light|dark|system",
			Short:     "Store a theme preference",
			Args:      cobra.ExactArgs(1),
			ValidArgs: []string{string(domain.ThemeLight), string(domain.ThemeDark), string(domain.ThemeSystem)},
			RunE: func(cmd *cobra.Command, args []string) error {
				pref := domain.ThemePreference(args[0])
				if err := r.app.Preferences.SetThemePreference(cmd.Context(), pref); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Theme set to %s\n", pref)
				return nil
			},
		},
	)
	return theme
}
