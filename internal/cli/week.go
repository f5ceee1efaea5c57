package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/streak"
)

type WeekSpan struct {
	ID     string      `json:"id"`
	Monday streak.Date `json:"monday"`
	Sunday streak.Date `json:"sunday"`
}

func spanOf(w streak.Week) WeekSpan {
	monday := w.Monday()
	return WeekSpan{ID: w.String(), Monday: monday, Sunday: monday.AddDays(6)}
}

func (s WeekSpan) String() string {
	return fmt.Sprintf("%s  %s .. %s", s.ID, s.Monday, s.Sunday)
}

// WeekResult places a date in its ISO week and the weeks around it.
type WeekResult struct {
	Date     streak.Date `json:"date"`
	Week     WeekSpan    `json:"week"`
	Previous WeekSpan    `json:"previous"`
	Next     WeekSpan    `json:"next"`
}

func (r WeekResult) String() string {
	return fmt.Sprintf("%-10s%s\n%-10s%s\n%-10s%s\n%-10s%s",
		"date", r.Date,
		"week", r.Week,
		"previous", r.Previous,
		"next", r.Next)
}

// NewWeekCommand creates the week command.
func NewWeekCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "week <YYYY-MM-DD>",
		Short:         "Show the ISO week of a date",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{
				Format:    rootOpts.Format,
				Writer:    cmd.OutOrStdout(),
				ErrWriter: cmd.ErrOrStderr(),
				Verbose:   rootOpts.Verbose,
			}

			day, err := streak.ParseDate(args[0])
			if err != nil {
				return formatter.Fail(ErrCodeInvalidInput, "invalid date", err)
			}

			week := streak.WeekOf(day)
			return formatter.Success(WeekResult{
				Date:     day,
				Week:     spanOf(week),
				Previous: spanOf(week.Prev()),
				Next:     spanOf(week.Next()),
			})
		},
	}
}
