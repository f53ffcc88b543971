package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"maintenance-tracker/internal/form"
	"maintenance-tracker/internal/model"
	"maintenance-tracker/internal/parse"
	"maintenance-tracker/internal/store"
	"maintenance-tracker/internal/view"
)

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid machine id %q", arg)
	}
	return id, nil
}

// due renders the distance to the next service date in words.
func due(r view.Row, today model.Date) string {
	if r.DaysRemaining == 0 {
		return "today"
	}
	return humanize.RelTime(r.NextServiceDate.Time(), today.Time(), "ago", "from now")
}

func printRows(w io.Writer, rows []view.Row, today model.Date) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tLAST SERVICED\tINTERVAL\tNEXT SERVICE\tDUE\tSTATUS")
	for _, r := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			r.ID, r.Name, r.Type, r.LastServiced, r.Interval, r.NextServiceDate, due(r, today), r.Status)
	}
	return tw.Flush()
}

func addCmd(e *env) *cobra.Command {
	var raw parse.RawMachine

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := parse.Machine(raw)
			if err != nil {
				return err
			}
			m, err := e.machines.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %d\n", m.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&raw.Name, "name", "", "machine name")
	cmd.Flags().StringVar(&raw.Type, "type", "", "machine type")
	cmd.Flags().StringVar(&raw.LastServiced, "last-serviced", "", "date of the last service (YYYY-MM-DD)")
	cmd.Flags().StringVar(&raw.Interval, "interval", "", "service interval in days")
	return cmd
}

func listCmd(e *env) *cobra.Command {
	var (
		search string
		sorted bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List machines with their service status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				machines []model.Machine
				err      error
			)
			if sorted {
				machines, err = e.machines.SortByNextServiceDate(cmd.Context())
			} else {
				machines, err = e.machines.List(cmd.Context())
			}
			if err != nil {
				return err
			}

			today := e.today()
			rows := view.Filter(view.Rows(machines, today), search)
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "(no machines)")
				return nil
			}
			return printRows(cmd.OutOrStdout(), rows, today)
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "only show machines whose type or status contains this text")
	cmd.Flags().BoolVar(&sorted, "sort", false, "sort by next service date and save that order")
	return cmd
}

func showCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one machine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			m, err := e.machines.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			today := e.today()
			return printRows(cmd.OutOrStdout(), []view.Row{view.NewRow(m, today)}, today)
		},
	}
}

// editCmd loads the record into the form, overrides the flags that were set
// and submits it in edit mode.
func editCmd(e *env) *cobra.Command {
	var raw parse.RawMachine

	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change fields of a machine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			st, m, err := form.StartEdit(cmd.Context(), e.machines, id)
			if err != nil {
				return err
			}

			values := form.Values(m)
			flags := cmd.Flags()
			if flags.Changed("name") {
				values.Name = raw.Name
			}
			if flags.Changed("type") {
				values.Type = raw.Type
			}
			if flags.Changed("last-serviced") {
				values.LastServiced = raw.LastServiced
			}
			if flags.Changed("interval") {
				values.Interval = raw.Interval
			}

			if _, err := form.Submit(cmd.Context(), e.machines, st, values); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %d\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&raw.Name, "name", "", "new machine name")
	cmd.Flags().StringVar(&raw.Type, "type", "", "new machine type")
	cmd.Flags().StringVar(&raw.LastServiced, "last-serviced", "", "new last service date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&raw.Interval, "interval", "", "new service interval in days")
	return cmd
}

func deleteCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Short:   "Delete a machine",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return e.machines.Delete(cmd.Context(), id)
		},
	}
}

func sortCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "sort",
		Short: "Reorder the saved machines by next service date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			machines, err := e.machines.SortByNextServiceDate(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sorted %d machine(s)\n", len(machines))
			return nil
		},
	}
}

// IsValidation reports whether err is an input error rather than a failure.
func IsValidation(err error) bool {
	return errors.Is(err, store.ErrValidation)
}
