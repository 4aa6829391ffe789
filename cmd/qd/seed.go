package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quadra-game/quadra/internal/seed"
	"github.com/quadra-game/quadra/internal/types"
)

var seedGenre string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the built-in connection-type taxonomy",
	Long: `Seed inserts the built-in connection-type taxonomy for a genre (or
all genres), skipping entries that already exist. Run once after creating a
database; safe to re-run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd.Context())
		if err != nil {
			return err
		}

		genres := types.KnownGenres
		if seedGenre != "" {
			g, err := parseGenre(seedGenre)
			if err != nil {
				return err
			}
			genres = []types.Genre{g}
		}

		total := 0
		for _, g := range genres {
			created, err := seed.Run(cmd.Context(), s.ConnectionTypes(), g)
			if err != nil {
				return err
			}
			if !jsonOutput {
				fmt.Printf("%s: %d connection type(s) created\n", g, created)
			}
			total += created
		}
		if jsonOutput {
			outputJSON(map[string]int{"created": total})
		}
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedGenre, "genre", "", "Genre to seed (default: all genres)")
}
