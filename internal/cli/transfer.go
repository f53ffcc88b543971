package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"maintenance-tracker/internal/importer"
	"maintenance-tracker/internal/store"
)

func importCmd(e *env) *cobra.Command {
	var (
		url     string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "import [FILE|-]",
		Short: "Import machines from an exported file, stdin or a URL",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				res store.ImportResult
				err error
			)
			switch {
			case url != "" && len(args) > 0:
				return errors.New("give either a file or --url, not both")
			case url != "":
				res, err = importer.NewFetcher(timeout).FromURL(cmd.Context(), e.machines, url)
			case len(args) == 0 || args[0] == "-":
				res, err = importer.FromReader(cmd.Context(), e.machines, cmd.InOrStdin())
			default:
				var f *os.File
				f, err = os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				res, err = importer.FromReader(cmd.Context(), e.machines, f)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d, skipped %d duplicate(s) and %d invalid record(s)\n",
				res.Added, res.Duplicates, res.Invalid)
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "fetch the export from this URL")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "timeout for --url")
	return cmd
}

func exportCmd(e *env) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the saved machines as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			machines, err := e.machines.List(cmd.Context())
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return importer.Encode(w, machines)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write (default stdout)")
	return cmd
}
