package domain

import "testing"

func TestClassifyNewsType(t *testing.T) {
	cases := []struct {
		text string
		want NewsType
	}{
		{"Company A announces merger with Company B", NewsTypeMergers},
		{"Quarterly results beat guidance", NewsTypeEarnings},
		{"Regulator opens antitrust investigation", NewsTypeRegulatory},
		{"Shares surge after upgrade", NewsTypeMarketMove},
		{"Weather delays flights nationwide", NewsTypeGeneral},
		{"", NewsTypeGeneral},
		// M&A keywords win over market-move keywords
		{"Shares surge on acquisition talks", NewsTypeMergers},
	}
	for _, c := range cases {
		if got := ClassifyNewsType(c.text); got != c.want {
			t.Errorf("ClassifyNewsType(%q) = %s, want %s", c.text, got, c.want)
		}
	}
}

func TestDecayRates_EveryTypeHasARate(t *testing.T) {
	rates := DefaultDecayRates()
	for _, nt := range []NewsType{
		NewsTypeGeneral, NewsTypeEarnings, NewsTypeMergers,
		NewsTypeRegulatory, NewsTypeMarketMove, NewsType(99),
	} {
		if rates.Rate(nt) <= 0 {
			t.Errorf("Rate(%s) = %f, want > 0", nt, rates.Rate(nt))
		}
	}
}

func TestDecayRates_EarningsFasterThanMergers(t *testing.T) {
	rates := DefaultDecayRates()
	if rates.Rate(NewsTypeEarnings) <= rates.Rate(NewsTypeMergers) {
		t.Error("earnings should decay faster than M&A")
	}
}
