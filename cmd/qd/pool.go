package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quadra-game/quadra/internal/types"
)

var poolGenre string

var poolCmd = &cobra.Command{
	Use:   "pool",
	Short: "Show group-pool health for a genre",
	Long: `Pool reports the approved-group supply per color and how much of it
is still unused by any puzzle. A color with zero approved groups makes the
pool insufficient: no puzzle can be assembled until it is restocked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		genre, err := parseGenre(poolGenre)
		if err != nil {
			return err
		}

		svc, err := buildService(cmd.Context())
		if err != nil {
			return err
		}

		health, err := svc.CheckPool(cmd.Context(), genre)
		if err != nil {
			return err
		}
		unused, err := svc.UnusedCounts(cmd.Context(), genre)
		if err != nil {
			return err
		}

		if jsonOutput {
			outputJSON(map[string]interface{}{
				"genre":      genre,
				"total":      health.Total,
				"sufficient": health.Sufficient,
				"counts":     health.Counts,
				"unused":     unused,
			})
			return nil
		}

		fmt.Printf("Pool for %s: %d approved group(s)\n", genre, health.Total)
		for _, c := range types.Colors {
			fmt.Printf("  %-6s  %3d approved, %3d unused\n", c, health.Counts[c], unused[c])
		}
		if !health.Sufficient {
			fmt.Println("Insufficient: at least one color has no approved groups")
		}
		return nil
	},
}

func init() {
	poolCmd.Flags().StringVar(&poolGenre, "genre", "", "Genre to inspect (required)")
	_ = poolCmd.MarkFlagRequired("genre")
}
