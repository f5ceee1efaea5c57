package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/streak"
)

// Snapshot is the on-disk form of one habit's log:
//
//	schedule: weekly
//	weekly_target: 3
//	today: 2024-03-11
//	logs:
//	  - {date: 2024-03-11, status: done}
type Snapshot struct {
	Schedule     streak.ScheduleKind `yaml:"schedule"`
	WeeklyTarget int                 `yaml:"weekly_target"`
	Today        streak.Date         `yaml:"today"`
	Logs         []streak.LogEntry   `yaml:"logs"`
}

// ComputeResult is what compute prints.
type ComputeResult struct {
	Schedule streak.Schedule `json:"schedule"`
	AsOf     streak.Date     `json:"as_of"`
	Logs     int             `json:"logs"`
	Stats    streak.Stats    `json:"stats"`
}

func (r ComputeResult) String() string {
	unit := "day"
	schedule := r.Schedule.Kind.String()
	if r.Schedule.Kind == streak.ScheduleWeekly {
		unit = "week"
		schedule = fmt.Sprintf("weekly (%d/week)", r.Schedule.WeeklyTarget)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-16s%s\n", "schedule", schedule)
	fmt.Fprintf(&b, "%-16s%s\n", "as of", r.AsOf)
	fmt.Fprintf(&b, "%-16s%d\n", "logs", r.Logs)
	fmt.Fprintf(&b, "%-16s%s\n", "current streak", plural(r.Stats.CurrentStreak, unit))
	fmt.Fprintf(&b, "%-16s%s\n", "best streak", plural(r.Stats.BestStreak, unit))
	fmt.Fprintf(&b, "%-16s%d\n", "done 7 days", r.Stats.Done7)
	fmt.Fprintf(&b, "%-16s%d\n", "done 30 days", r.Stats.Done30)
	fmt.Fprintf(&b, "%-16s%d", "total done", r.Stats.TotalDone)
	return b.String()
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// NewComputeCommand creates the compute command.
func NewComputeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "compute <snapshot.yaml>",
		Short: "Compute streak stats from a habit snapshot",
		Long: `Read a YAML snapshot holding the schedule, the evaluation day and the
per-day log of one habit, and print its streaks and completion counts.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompute(rootOpts, args[0], cmd)
		},
	}
}

func runCompute(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return formatter.Fail(ErrCodeNotFound, fmt.Sprintf("snapshot %s not found", path), nil)
		}
		return formatter.Fail(ErrCodeGeneric, "cannot open snapshot", err)
	}
	defer f.Close()

	snap, err := LoadSnapshot(f)
	if err != nil {
		return formatter.Fail(ErrCodeInvalidInput, "invalid snapshot", err)
	}
	formatter.VerboseLog("Loaded %d log entries from %s", len(snap.Logs), path)

	schedule := streak.Schedule{Kind: snap.Schedule, WeeklyTarget: snap.WeeklyTarget}
	stats, err := streak.Compute(snap.Logs, schedule, snap.Today)
	if err != nil {
		return formatter.Fail(ErrCodeInvalidInput, "cannot compute stats", err)
	}

	return formatter.Success(ComputeResult{
		Schedule: schedule,
		AsOf:     snap.Today,
		Logs:     len(snap.Logs),
		Stats:    stats,
	})
}

// LoadSnapshot decodes a snapshot and rejects unknown keys. A missing
// schedule means daily.
func LoadSnapshot(r io.Reader) (*Snapshot, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var snap Snapshot
	if err := dec.Decode(&snap); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("snapshot is empty")
		}
		return nil, err
	}

	if snap.Schedule == 0 {
		snap.Schedule = streak.ScheduleDaily
	}
	if snap.Today.IsZero() {
		return nil, errors.New("today is required")
	}
	if err := streak.ValidateEntries(snap.Logs); err != nil {
		return nil, err
	}
	return &snap, nil
}
