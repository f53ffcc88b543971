package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"maintenance-tracker/internal/model"
)

func themeCmd(e *env) *cobra.Command {
	c := &cobra.Command{
		Use:   "theme",
		Short: "Show or change the display theme",
	}

	c.AddCommand(
		&cobra.Command{
			Use:   "get",
			Short: "Print the saved theme",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				t, err := e.themes.Get(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), t)
				return nil
			},
		},
		&cobra.Command{
			Use:       "set light|dark",
			Short:     "Save the theme",
			Args:      cobra.ExactArgs(1),
			ValidArgs: []string{string(model.ThemeLight), string(model.ThemeDark)},
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := e.themes.Set(cmd.Context(), model.Theme(args[0])); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "toggle",
			Short: "Switch between light and dark",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				t, err := e.themes.Toggle(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), t)
				return nil
			},
		},
	)
	return c
}
