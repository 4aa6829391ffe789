package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quadra-game/quadra/internal/config"
	"github.com/quadra-game/quadra/internal/llm"
	"github.com/quadra-game/quadra/internal/pipeline"
	"github.com/quadra-game/quadra/internal/types"
	"github.com/quadra-game/quadra/internal/verify"
)

var (
	generateGenre  string
	generateColors string
	generateCount  int
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate verified groups into the pool",
	Long: `Generate asks the LLM for candidate groups in the given colors,
verifies every item against the genre's catalog, and saves the survivors
as approved groups. Requires an LLM credential (llm-api-key in config.yaml,
QUADRA_LLM_API_KEY, or ANTHROPIC_API_KEY).

Examples:
  qd generate --genre films
  qd generate --genre music --colors purple,blue --count 5`,
	RunE: func(cmd *cobra.Command, args []string) error {
		genre, err := parseGenre(generateGenre)
		if err != nil {
			return err
		}

		colors := types.Colors
		if generateColors != "" {
			colors = nil
			for _, s := range strings.Split(generateColors, ",") {
				c := types.Color(strings.TrimSpace(s))
				if !c.Valid() {
					return fmt.Errorf("unknown color %q (known: yellow, green, blue, purple)", s)
				}
				colors = append(colors, c)
			}
		}

		s, err := openStore(cmd.Context())
		if err != nil {
			return err
		}

		creds := config.LoadCredentials()
		client, err := llm.NewAnthropicClient(creds.LLMAPIKey, config.LLMModel())
		if err != nil {
			return err
		}

		count := generateCount
		if count <= 0 {
			cfg, err := s.PipelineConfigs().Get(cmd.Context(), genre)
			if err != nil {
				return err
			}
			count = cfg.AIGenerationBatchSize
		}

		gen := pipeline.NewGenerator(
			s.Groups(), s.Feedback(), s.ConnectionTypes(),
			llm.NewGroupGenerator(client),
			verify.ForGenre(genre, verify.Catalogs{}),
		)

		var stage pipeline.StageFunc
		if !jsonOutput {
			stage = func(st pipeline.Stage) { fmt.Printf("  [%s]\n", st) }
		}

		result := gen.Generate(cmd.Context(), genre, colors, count, stage)

		if jsonOutput {
			outputJSON(result)
			return nil
		}

		fmt.Printf("Generated %d group(s), saved %d\n", result.GroupsGenerated, result.GroupsSaved)
		for _, c := range colors {
			if outcome, ok := result.ByColor[c]; ok {
				fmt.Printf("  %-6s  generated %d, saved %d\n", c, outcome.Generated, outcome.Saved)
			}
		}
		for _, e := range result.Errors {
			fmt.Printf("  %s (%s)\n", e.Message, e.Code)
		}
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVar(&generateGenre, "genre", "", "Genre to generate for (required)")
	generateCmd.Flags().StringVar(&generateColors, "colors", "", "Comma-separated colors (default: all four)")
	generateCmd.Flags().IntVar(&generateCount, "count", 0, "Groups per color (default: configured batch size)")
	_ = generateCmd.MarkFlagRequired("genre")
}
