package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/quadra-game/quadra/internal/pipeline"
	"github.com/quadra-game/quadra/internal/timeparsing"
	"github.com/quadra-game/quadra/internal/types"
)

var (
	fillGenre  string
	fillWindow int
	fillFrom   string
)

var fillCmd = &cobra.Command{
	Use:   "fill",
	Short: "Fill the rolling publishing window with puzzles",
	Long: `Fill runs one pipeline pass for a genre: finds empty dates in the
rolling window, generates groups for any color in deficit (when an LLM
credential is configured), then assembles and publishes one puzzle per
empty date.

Examples:
  qd fill --genre films
  qd fill --genre music --window 7
  qd fill --genre films --from "next monday"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		genre, err := parseGenre(fillGenre)
		if err != nil {
			return err
		}

		svc, err := buildService(cmd.Context())
		if err != nil {
			return err
		}

		if fillFrom != "" {
			from, err := timeparsing.ParseDate(fillFrom, time.Now())
			if err != nil {
				return err
			}
			svc.SetClock(func() time.Time { return from })
		}

		cfg, err := store.PipelineConfigs().Get(cmd.Context(), genre)
		if err != nil {
			return fmt.Errorf("failed to load pipeline config: %w", err)
		}
		if fillWindow > 0 {
			cfg.RollingWindowDays = fillWindow
		}

		var stage pipeline.StageFunc
		if verboseFlag && !jsonOutput {
			stage = func(s pipeline.Stage) {
				fmt.Printf("  [%s]\n", s)
			}
		}

		result, err := svc.FillWindow(cmd.Context(), cfg, stage)
		if err != nil {
			return err
		}

		if jsonOutput {
			outputJSON(result)
			return nil
		}

		fmt.Printf("Created %d puzzle(s) for %s", result.PuzzlesCreated, genre)
		if result.EmptyDaysRemaining > 0 {
			fmt.Printf(", %d day(s) still empty", result.EmptyDaysRemaining)
		}
		fmt.Println()
		if result.AIGenerationTriggered {
			fmt.Printf("Generated %d group(s), saved %d\n", result.GroupsGenerated, result.GroupsSaved)
			for _, c := range types.Colors {
				if outcome, ok := result.GroupsByColor[c]; ok {
					fmt.Printf("  %-6s  generated %d, saved %d\n", c, outcome.Generated, outcome.Saved)
				}
			}
		}
		for _, e := range result.Errors {
			if e.Date != "" {
				fmt.Printf("  %s: %s (%s)\n", e.Date, e.Message, e.Code)
			} else {
				fmt.Printf("  %s (%s)\n", e.Message, e.Code)
			}
		}
		return nil
	},
}

func init() {
	fillCmd.Flags().StringVar(&fillGenre, "genre", "", "Genre to fill (required)")
	fillCmd.Flags().IntVar(&fillWindow, "window", 0, "Override the rolling window length in days")
	fillCmd.Flags().StringVar(&fillFrom, "from", "", "Window start date (ISO date, +Nd, or natural language; default today)")
	_ = fillCmd.MarkFlagRequired("genre")
}
