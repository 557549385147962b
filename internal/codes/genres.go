// Package codes holds the read-only lookup tables for genre and region codes.
package codes

import "strings"

// Genre codes as used by the listing API.
const (
	GenreTheater      = "AAAA"
	GenreMusical      = "GGGA"
	GenreClassical    = "CCCA"
	GenreGugak        = "CCCC"
	GenrePopularMusic = "CCCD"
	GenreDance        = "BBBC"
	GenrePopularDance = "BBBE"
	GenreComplex      = "EEEA"
	GenreCircusMagic  = "EEEB"
)

// AllGenres lists every known genre code in fan-out order.
var AllGenres = []string{
	GenreTheater,
	GenreMusical,
	GenreClassical,
	GenreGugak,
	GenrePopularMusic,
	GenreDance,
	GenrePopularDance,
	GenreComplex,
	GenreCircusMagic,
}

var genreNames = map[string]string{
	GenreTheater:      "연극",
	GenreMusical:      "뮤지컬",
	GenreClassical:    "서양음악(클래식)",
	GenreGugak:        "한국음악(국악)",
	GenrePopularMusic: "대중음악",
	GenreDance:        "무용(서양/한국무용)",
	GenrePopularDance: "대중무용",
	GenreComplex:      "복합",
	GenreCircusMagic:  "서커스/마술",
}

// relatedGenres is the genre-similarity graph. Order matters: the first entry
// is the single related genre used by one-step expansion.
var relatedGenres = map[string][]string{
	GenreTheater:      {GenreMusical, GenreComplex},
	GenreMusical:      {GenreTheater, GenrePopularMusic},
	GenreClassical:    {GenreGugak, GenrePopularMusic},
	GenreGugak:        {GenreClassical},
	GenrePopularMusic: {GenreMusical, GenreClassical},
	GenreDance:        {GenrePopularDance},
	GenrePopularDance: {GenreDance, GenrePopularMusic},
	GenreComplex:      {GenreCircusMagic, GenreTheater},
	GenreCircusMagic:  {GenreComplex},
}

// similarGenrePairs are display-name pairs that score as similar genres.
var similarGenrePairs = [][2]string{
	{"연극", "뮤지컬"},
	{"서양음악(클래식)", "한국음악(국악)"},
	{"무용", "대중무용"},
	{"복합", "서커스/마술"},
}

// GenreName returns the display name for a genre code.
func GenreName(code string) (string, bool) {
	name, ok := genreNames[code]
	return name, ok
}

// GenreLabel returns the display name for code, or the code itself when unknown.
func GenreLabel(code string) string {
	if name, ok := genreNames[code]; ok {
		return name
	}
	return code
}

// RelatedGenres returns a copy of the genres related to code, most similar first.
func RelatedGenres(code string) []string {
	related := relatedGenres[code]
	return append([]string(nil), related...)
}

// SimilarGenreNames reports whether a and b appear together in one similar-genre pair.
// The match is by containment so that e.g. "무용(서양/한국무용)" pairs like "무용".
func SimilarGenreNames(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	for _, pair := range similarGenrePairs {
		if pairMatches(pair, a, b) || pairMatches(pair, b, a) {
			return true
		}
	}
	return false
}

func pairMatches(pair [2]string, a, b string) bool {
	return nameMatches(a, pair[0]) && nameMatches(b, pair[1])
}

func nameMatches(name, pairName string) bool {
	return name == pairName || strings.HasPrefix(name, pairName+"(")
}
