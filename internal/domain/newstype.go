package domain

import "strings"

// NewsType categorizes a story for decay-rate selection. The zero value
// is the general catch-all so an unclassified story always has a rate.
type NewsType int

// News type categories.
const (
	NewsTypeGeneral NewsType = iota
	NewsTypeEarnings
	NewsTypeMergers
	NewsTypeRegulatory
	NewsTypeMarketMove
)

func (t NewsType) String() string {
	switch t {
	case NewsTypeEarnings:
		return "earnings"
	case NewsTypeMergers:
		return "mergers"
	case NewsTypeRegulatory:
		return "regulatory"
	case NewsTypeMarketMove:
		return "market_move"
	default:
		return "general"
	}
}

// DecayRates holds the per-category exponential decay rates. Higher rate
// means the category goes stale faster (routine earnings), lower rate
// means it stays newsworthy longer (M&A).
type DecayRates struct {
	Earnings   float64
	Mergers    float64
	Regulatory float64
	MarketMove float64
	Default    float64
}

// DefaultDecayRates returns the built-in decay constants.
func DefaultDecayRates() DecayRates {
	return DecayRates{
		Earnings:   1.5,
		Mergers:    0.5,
		Regulatory: 0.8,
		MarketMove: 1.2,
		Default:    1.0,
	}
}

// Rate resolves the decay rate for the news type. Every category maps to
// a defined rate; unknown categories fall to Default.
func (r DecayRates) Rate(t NewsType) float64 {
	switch t {
	case NewsTypeEarnings:
		return r.Earnings
	case NewsTypeMergers:
		return r.Mergers
	case NewsTypeRegulatory:
		return r.Regulatory
	case NewsTypeMarketMove:
		return r.MarketMove
	default:
		return r.Default
	}
}

var newsTypeKeywords = []struct {
	t        NewsType
	keywords []string
}{
	{NewsTypeMergers, []string{"merger", "acquisition", "takeover", "buyout", "m&a"}},
	{NewsTypeEarnings, []string{"earnings", "quarterly results", "revenue", "guidance", "dividend", "buyback"}},
	{NewsTypeRegulatory, []string{"regulation", "regulator", "lawsuit", "investigation", "antitrust", "sanction", "fine"}},
	{NewsTypeMarketMove, []string{"stock", "shares", "rally", "selloff", "plunge", "surge", "ipo"}},
}

// ClassifyNewsType infers the category from text by keyword matching.
// First category with a hit wins; order encodes priority (M&A over the
// broader market-move bucket).
func ClassifyNewsType(text string) NewsType {
	lower := strings.ToLower(text)
	for _, entry := range newsTypeKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.t
			}
		}
	}
	return NewsTypeGeneral
}
