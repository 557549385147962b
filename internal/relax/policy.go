// Package relax runs a search through up to four progressively broader relaxation
// levels until enough distinct events are found, then ranks them.
package relax

import "github.com/hyperjump/stagefinder/internal/models"

// MaxLevel is the broadest relaxation level.
const MaxLevel = 4

// LocationExpansion says how the region filter is widened.
type LocationExpansion int

const (
	// LocationNone keeps the region filter as given.
	LocationNone LocationExpansion = iota
	// LocationProvince drops the district filter and keeps its province.
	LocationProvince
	// LocationProvinceOrNationwide keeps only the province, or no region when none was given.
	LocationProvinceOrNationwide
)

// GenreExpansion says how the genre filter is widened.
type GenreExpansion int

const (
	// GenreNone keeps the requested genre.
	GenreNone GenreExpansion = iota
	// GenreOneRelated adds the most similar related genre.
	GenreOneRelated
	// GenreAllRelated adds every related genre.
	GenreAllRelated
	// GenreAll queries every known genre.
	GenreAll
)

// DateExpansion says how the date window is widened.
type DateExpansion int

const (
	// DateNone keeps the date window.
	DateNone DateExpansion = iota
	// DateMonth widens the window to today through one month out.
	DateMonth
)

// Strategy is the relaxation applied at one level.
type Strategy struct {
	Location LocationExpansion
	Genre    GenreExpansion
	Date     DateExpansion
}

var exact = Strategy{}

// maximal is shared by every mode at level 4.
var maximal = Strategy{Location: LocationProvinceOrNationwide, Genre: GenreAll, Date: DateMonth}

// policies lists levels 1 to 4 per mode.
var policies = map[models.SearchMode][MaxLevel]Strategy{
	models.ModeByLocation: {
		exact,
		{Genre: GenreOneRelated},
		{Location: LocationProvince, Genre: GenreAllRelated},
		maximal,
	},
	models.ModeFreeEvents: {
		exact,
		{Location: LocationProvince},
		{Location: LocationProvince, Genre: GenreAllRelated},
		maximal,
	},
	models.ModeTrending: {
		exact,
		{Genre: GenreOneRelated},
		{Genre: GenreAllRelated, Date: DateMonth},
		maximal,
	},
}

// StrategyFor returns the relaxation for mode at level (1-based).
// Unknown modes and out-of-range levels get the exact strategy.
func StrategyFor(mode models.SearchMode, level int) Strategy {
	levels, ok := policies[mode]
	if !ok || level < 1 || level > MaxLevel {
		return exact
	}
	return levels[level-1]
}
