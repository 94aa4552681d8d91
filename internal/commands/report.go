package commands

import (
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ledger/internal/core"
	"ledger/internal/storage"
)

type rangeFlags struct {
	start string
	end   string
}

func (f *rangeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.start, "start", "", "first date of the range, inclusive (required)")
	cmd.Flags().StringVar(&f.end, "end", "", "last date of the range, inclusive (required)")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
}

func (f *rangeFlags) dateRange() core.DateRange {
	return core.DateRange{Start: f.start, End: f.end}
}

func newSummaryCommand(opts *options) *cobra.Command {
	var (
		rf       rangeFlags
		category string
	)

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print per-category totals for a date range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := storage.NewSQLiteRepository(opts.dbPath)
			if err != nil {
				return err
			}
			defer repo.Close()

			totals, err := repo.SummarizeExpenses(cmd.Context(), core.SummaryFilter{Range: rf.dateRange(), Category: category})
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "CATEGORY\tTOTAL")
			for _, t := range totals {
				fmt.Fprintf(tw, "%s\t%s\n", t.Category, strconv.FormatFloat(t.TotalAmount, 'f', -1, 64))
			}
			return tw.Flush()
		},
	}

	rf.register(cmd)
	cmd.Flags().StringVar(&category, "category", "", "only total this category")

	return cmd
}

func newListCommand(opts *options) *cobra.Command {
	var rf rangeFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the expenses of a date range as JSON lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := storage.NewSQLiteRepository(opts.dbPath)
			if err != nil {
				return err
			}
			defer repo.Close()

			items, err := repo.ListExpenses(cmd.Context(), rf.dateRange())
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, e := range items {
				if err := enc.Encode(e); err != nil {
					return err
				}
			}
			return nil
		},
	}

	rf.register(cmd)

	return cmd
}
