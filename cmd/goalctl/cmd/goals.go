package cmd

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/templui/goalboard/internal/model"
	"github.com/templui/goalboard/internal/validation"
)

const dateLayout = "2006-01-02"

// goalFlags binds the editable goal fields to command flags.
type goalFlags struct {
	title       string
	description string
	category    string
	start       string
	end         string
	target      float64
	current     float64
	unit        string
	direction   string
	step        float64
	public      bool
}

func (f *goalFlags) register(flags *pflag.FlagSet) {
	flags.StringVar(&f.title, "title", "", "goal title")
	flags.StringVar(&f.description, "description", "", "goal description")
	flags.StringVar(&f.category, "category", "", "free-text category")
	flags.StringVar(&f.start, "start", "", "start date (YYYY-MM-DD)")
	flags.StringVar(&f.end, "end", "", "end date (YYYY-MM-DD)")
	flags.Float64Var(&f.target, "target", 0, "target value")
	flags.Float64Var(&f.current, "current", 0, "current value")
	flags.StringVar(&f.unit, "unit", "", "unit label")
	flags.StringVar(&f.direction, "direction", "", "increase or decrease")
	flags.Float64Var(&f.step, "step", 0, "participation step size")
	flags.BoolVar(&f.public, "public", false, "share with friends")
}

func createCmd(s *session) *cobra.Command {
	var f goalFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a goal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			draft, err := f.draft(s.opts.Now())
			if err != nil {
				return err
			}

			goals, err := s.store.Create(cmd.Context(), draft)
			if err != nil {
				return describe(cmd.ErrOrStderr(), err)
			}
			return printGoals(cmd.OutOrStdout(), goals)
		},
	}
	f.register(cmd.Flags())
	return cmd
}

func updateCmd(s *session) *cobra.Command {
	var f goalFlags

	cmd := &cobra.Command{
		Use:   "update <goal-id>",
		Short: "Edit fields of a goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := f.patch(cmd.Flags())
			if err != nil {
				return err
			}

			goals, err := s.store.Update(cmd.Context(), args[0], patch)
			if err != nil {
				return describe(cmd.ErrOrStderr(), err)
			}
			return printGoals(cmd.OutOrStdout(), goals)
		},
	}
	f.register(cmd.Flags())
	return cmd
}

func deleteCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <goal-id>",
		Short: "Delete a goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			goals, err := s.store.Remove(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printGoals(cmd.OutOrStdout(), goals)
		},
	}
}

func participateCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "participate <goal-id>",
		Short: "Record one participation step on a goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			goals, err := s.store.Participate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printGoals(cmd.OutOrStdout(), goals)
		},
	}
}

func pinCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "pin <goal-id>",
		Short: "Toggle the pin on a goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			goals, err := s.store.Pin(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printGoals(cmd.OutOrStdout(), goals)
		},
	}
}

func archiveCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "archive",
		Short: "Archive an export of all goals and print its download URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := s.backend.Archive(cmd.Context(), s.cfg.OwnerID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}
}

// draft builds a create request. Start defaults to today and end to 30 days later.
func (f *goalFlags) draft(now time.Time) (model.GoalDraft, error) {
	start := now.UTC().Truncate(24 * time.Hour)
	if f.start != "" {
		parsed, err := parseDate("start", f.start)
		if err != nil {
			return model.GoalDraft{}, err
		}
		start = parsed
	}

	end := start.AddDate(0, 0, 30)
	if f.end != "" {
		parsed, err := parseDate("end", f.end)
		if err != nil {
			return model.GoalDraft{}, err
		}
		end = parsed
	}

	return model.GoalDraft{
		Title:        f.title,
		Description:  f.description,
		Category:     f.category,
		StartDate:    start,
		EndDate:      end,
		TargetValue:  f.target,
		CurrentValue: f.current,
		Unit:         f.unit,
		Direction:    f.direction,
		StepSize:     f.step,
		Public:       f.public,
	}, nil
}

// patch includes only the flags given on the command line.
func (f *goalFlags) patch(flags *pflag.FlagSet) (model.GoalPatch, error) {
	var patch model.GoalPatch

	if flags.Changed("title") {
		patch.Title = &f.title
	}
	if flags.Changed("description") {
		patch.Description = &f.description
	}
	if flags.Changed("category") {
		patch.Category = &f.category
	}
	if flags.Changed("start") {
		start, err := parseDate("start", f.start)
		if err != nil {
			return patch, err
		}
		patch.StartDate = &start
	}
	if flags.Changed("end") {
		end, err := parseDate("end", f.end)
		if err != nil {
			return patch, err
		}
		patch.EndDate = &end
	}
	if flags.Changed("target") {
		patch.TargetValue = &f.target
	}
	if flags.Changed("current") {
		patch.CurrentValue = &f.current
	}
	if flags.Changed("unit") {
		patch.Unit = &f.unit
	}
	if flags.Changed("direction") {
		patch.Direction = &f.direction
	}
	if flags.Changed("step") {
		patch.StepSize = &f.step
	}
	if flags.Changed("public") {
		patch.Public = &f.public
	}

	return patch, nil
}

func parseDate(flag, value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s must be a date like 2006-01-02: %w", flag, err)
	}
	return t, nil
}

// describe prints field-level validation reasons before returning err.
func describe(w io.Writer, err error) error {
	var fields validation.Errors
	if !errors.As(err, &fields) {
		return err
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s: %s\n", name, fields[name])
	}
	return err
}
