package verify

import (
	"github.com/quadra-game/quadra/internal/types"
)

// Catalogs holds the catalog clients available to the factory. A nil catalog
// downgrades that genre to pass-through verification.
type Catalogs struct {
	Film  Catalog
	Music Catalog
}

// ForGenre selects the verifier variant for a genre.
func ForGenre(genre types.Genre, catalogs Catalogs) Verifier {
	switch genre {
	case types.GenreFilms:
		if catalogs.Film != nil {
			return NewFilmVerifier(catalogs.Film)
		}
	case types.GenreMusic:
		if catalogs.Music != nil {
			return NewMusicVerifier(catalogs.Music)
		}
	}
	return NewPassthroughVerifier()
}
