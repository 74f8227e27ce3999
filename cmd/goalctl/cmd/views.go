package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/templui/goalboard/internal/engine"
	"github.com/templui/goalboard/internal/model"
)

func listCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List goals with their progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printGoals(cmd.OutOrStdout(), s.store.Goals())
		},
	}
}

func boardCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "board",
		Short: "Show goals grouped by workflow bucket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			board := s.store.Board()
			for i, bucket := range engine.Buckets {
				if i > 0 {
					fmt.Fprintln(out)
				}
				goals := board.Bucket(bucket)
				fmt.Fprintf(out, "%s (%d)\n", bucketTitle(bucket), len(goals))
				for _, g := range goals {
					fmt.Fprintf(out, "  %s %s  %s\n", pinMark(g), g.Title, formatProgress(g))
				}
			}
			return nil
		},
	}
}

func streakCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "streak",
		Short: "Show the current update streak",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), s.store.Streak())
			return nil
		},
	}
}

func summaryCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show dashboard metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			summary := s.store.Summary()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Total\t%d\n", summary.Total)
			fmt.Fprintf(w, "New\t%d\n", summary.New)
			fmt.Fprintf(w, "In progress\t%d\n", summary.InProgress)
			fmt.Fprintf(w, "Completed\t%d\n", summary.Completed)
			fmt.Fprintf(w, "Streak\t%d\n", summary.Streak)
			fmt.Fprintf(w, "Average progress\t%.0f%%\n", summary.AverageProgress)
			if summary.Pinned != nil {
				fmt.Fprintf(w, "Pinned\t%s\n", summary.Pinned.Title)
			}
			return w.Flush()
		},
	}
}

func friendsCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "friends",
		Short: "Show friends' public goals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			feed, err := s.store.FriendsGoals(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "FRIEND\tTITLE\tPROGRESS")
			for _, g := range feed {
				fmt.Fprintf(w, "%s\t%s\t%s\n", g.OwnerName, g.Title, formatProgress(g.Goal))
			}
			return w.Flush()
		},
	}
}

func printGoals(out io.Writer, goals []model.Goal) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tPROGRESS\tBUCKET\tPIN")
	for _, g := range goals {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", g.ID, g.Title, formatProgress(g), engine.BucketOf(g), pinMark(g))
	}
	return w.Flush()
}

// formatProgress renders clamped progress with the raw values behind it.
func formatProgress(g model.Goal) string {
	progress := fmt.Sprintf("%.0f%%", engine.Progress(g))
	if g.Unit == "" {
		return fmt.Sprintf("%s (%g/%g)", progress, g.CurrentValue, g.TargetValue)
	}
	return fmt.Sprintf("%s (%g/%g %s)", progress, g.CurrentValue, g.TargetValue, g.Unit)
}

func pinMark(g model.Goal) string {
	if g.IsPinned {
		return "*"
	}
	return "-"
}

func bucketTitle(b engine.Bucket) string {
	switch b {
	case engine.BucketNew:
		return "New"
	case engine.BucketInProgress:
		return "In progress"
	case engine.BucketCompleted:
		return "Completed"
	}
	return string(b)
}
