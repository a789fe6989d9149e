package domain

// Entities holds structured entities extracted from a story's coverage.
type Entities struct {
	Companies []string `json:"companies"`
	People    []string `json:"people"`
	Locations []string `json:"locations"`
	Tickers   []string `json:"tickers"`
}

// Enrichment carries the best-effort enrichment output for a hot story.
// Degraded is set when any enrichment call failed or timed out; the
// story is still returned with whatever fields were produced.
type Enrichment struct {
	Entities *Entities `json:"entities,omitempty"`
	Draft    string    `json:"draft,omitempty"`
	Degraded bool      `json:"degraded,omitempty"`
}
