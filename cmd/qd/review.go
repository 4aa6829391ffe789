package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quadra-game/quadra/internal/storage"
	"github.com/quadra-game/quadra/internal/types"
)

var (
	reviewGenre  string
	reviewLimit  int
	rejectReason string
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review pending groups",
	Long: `Review lists pending groups and records accept/reject verdicts.
Verdicts do two things: they move the group through its lifecycle, and they
become exemplars that shape future generation prompts.`,
}

var reviewListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending groups",
	RunE: func(cmd *cobra.Command, args []string) error {
		genre, err := parseGenre(reviewGenre)
		if err != nil {
			return err
		}
		s, err := openStore(cmd.Context())
		if err != nil {
			return err
		}

		groups, total, err := s.Groups().List(cmd.Context(), storage.GroupFilter{
			Status: types.GroupPending,
			Genre:  genre,
			Limit:  reviewLimit,
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			outputJSON(map[string]interface{}{"groups": groups, "total": total})
			return nil
		}

		if len(groups) == 0 {
			fmt.Printf("No pending groups for %s\n", genre)
			return nil
		}
		for _, g := range groups {
			titles := make([]string, len(g.Items))
			for i, it := range g.Items {
				titles[i] = it.Title
			}
			fmt.Printf("%s  [%s]  %q\n    %s\n", g.ID, g.Color, g.Connection, strings.Join(titles, " / "))
		}
		fmt.Printf("%d pending (showing %d)\n", total, len(groups))
		return nil
	},
}

var reviewApproveCmd = &cobra.Command{
	Use:   "approve <group-id>",
	Short: "Approve a group and record positive feedback",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return recordVerdict(cmd, args[0], true, "")
	},
}

var reviewRejectCmd = &cobra.Command{
	Use:   "reject <group-id>",
	Short: "Reject a group and record the reason",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if rejectReason == "" {
			return fmt.Errorf("--reason is required when rejecting")
		}
		return recordVerdict(cmd, args[0], false, rejectReason)
	},
}

// recordVerdict updates the group status and appends the feedback record that
// later prompt runs sample as an exemplar.
func recordVerdict(cmd *cobra.Command, id string, accepted bool, reason string) error {
	s, err := openStore(cmd.Context())
	if err != nil {
		return err
	}

	status := types.GroupRejected
	if accepted {
		status = types.GroupApproved
	}
	g, err := s.Groups().Update(cmd.Context(), id, storage.GroupPatch{Status: &status})
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}

	items := make([]types.FeedbackItem, len(g.Items))
	for i, it := range g.Items {
		items[i] = types.FeedbackItem{Title: it.Title, Year: it.Year}
	}
	err = s.Feedback().Record(cmd.Context(), &types.FeedbackRecord{
		Items:           items,
		Connection:      g.Connection,
		Accepted:        accepted,
		RejectionReason: reason,
		Genre:           g.Genre,
	})
	if err != nil {
		return fmt.Errorf("failed to record feedback: %w", err)
	}

	if jsonOutput {
		outputJSON(g)
		return nil
	}
	verb := "Rejected"
	if accepted {
		verb = "Approved"
	}
	fmt.Printf("%s %q (%s)\n", verb, g.Connection, g.ID)
	return nil
}

func init() {
	reviewListCmd.Flags().StringVar(&reviewGenre, "genre", "", "Genre to review (required)")
	reviewListCmd.Flags().IntVar(&reviewLimit, "limit", 20, "Maximum groups to show")
	_ = reviewListCmd.MarkFlagRequired("genre")

	reviewRejectCmd.Flags().StringVar(&rejectReason, "reason", "", "Why the group was rejected (required)")

	reviewCmd.AddCommand(reviewListCmd)
	reviewCmd.AddCommand(reviewApproveCmd)
	reviewCmd.AddCommand(reviewRejectCmd)
}
