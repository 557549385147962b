package ranking

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	priceTokenRegex = regexp.MustCompile(`\d[\d,]*`)
	freeMarkers     = []string{"무료", "free"}
	zeroPrices      = map[string]bool{"0": true, "0원": true}
)

// priceTier maps an upper bound (inclusive, in won) to a score.
type priceTier struct {
	max   int
	score float64
}

var priceTiers = []priceTier{
	{max: 5000, score: 80},
	{max: 10000, score: 60},
	{max: 20000, score: 40},
	{max: 50000, score: 20},
}

const (
	freePriceScore      = 100
	expensivePriceScore = 10
)

// PriceScorer scores events by their price guidance text.
type PriceScorer struct{}

// NewPriceScorer creates a new PriceScorer.
func NewPriceScorer() *PriceScorer {
	return &PriceScorer{}
}

// Name returns the scorer name.
func (s *PriceScorer) Name() string {
	return "price"
}

// Score returns 100 for free events, a tiered score for the cheapest listed price,
// and 0 when no price can be read.
func (s *PriceScorer) Score(ctx *ScoringContext) float64 {
	if ctx == nil || ctx.Event == nil {
		return 0
	}
	return PriceScore(ctx.Event.PriceGuidance)
}

// PriceScore scores a free-text price guidance string.
func PriceScore(guidance string) float64 {
	if IsFreePrice(guidance) {
		return freePriceScore
	}
	price, ok := MinPrice(guidance)
	if !ok {
		return 0
	}
	for _, tier := range priceTiers {
		if price <= tier.max {
			return tier.score
		}
	}
	return expensivePriceScore
}

// IsFreePrice reports whether guidance names a free event: it contains a free
// marker or is exactly a zero price.
func IsFreePrice(guidance string) bool {
	text := strings.ToLower(strings.TrimSpace(guidance))
	if text == "" {
		return false
	}
	for _, marker := range freeMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return zeroPrices[strings.ReplaceAll(text, " ", "")]
}

// MinPrice extracts the smallest numeric token from guidance.
func MinPrice(guidance string) (int, bool) {
	tokens := priceTokenRegex.FindAllString(guidance, -1)
	found := false
	minPrice := 0
	for _, token := range tokens {
		n, err := strconv.Atoi(strings.ReplaceAll(token, ",", ""))
		if err != nil {
			continue
		}
		if !found || n < minPrice {
			minPrice = n
			found = true
		}
	}
	return minPrice, found
}
