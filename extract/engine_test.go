package extract

import (
	"errors"
	"testing"

	"propscrape/models"
	"propscrape/page"
)

// textPage is a minimal accessor for chain tests that only need the
// rendered text.
type textPage struct {
	url  string
	text string
}

func (p *textPage) URL() string                    { return p.url }
func (p *textPage) QueryAll(string) []page.Element { return nil }
func (p *textPage) FullText() string               { return p.text }

func newTrace() *models.ExtractionTrace { return &models.ExtractionTrace{} }

func TestChainFirstValidWins(t *testing.T) {
	chain := Chain{
		Field: "test",
		Valid: func(s string) bool { return s != "bad" },
		Strategies: []Strategy{
			{Name: "a", Run: func(page.Page) (string, error) { return "", nil }},
			{Name: "b", Run: func(page.Page) (string, error) { return "bad", nil }},
			{Name: "c", Run: func(page.Page) (string, error) { return "good", nil }},
			{Name: "d", Run: func(page.Page) (string, error) { t.Fatal("chain continued past a match"); return "", nil }},
		},
	}

	trace := &models.ExtractionTrace{}
	value, found := chain.Extract(&textPage{}, trace)
	if !found || value != "good" {
		t.Fatalf("Extract = %q, %v; want good, true", value, found)
	}

	ft := trace.Field("test")
	if ft == nil || ft.MatchedBy != "c" {
		t.Fatalf("expected trace matched by c, got %+v", ft)
	}
	if len(ft.Attempts) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(ft.Attempts))
	}
	if ft.Attempts[0].Outcome != models.OutcomeMiss {
		t.Errorf("attempt a outcome = %s; want miss", ft.Attempts[0].Outcome)
	}
	if ft.Attempts[1].Outcome != models.OutcomeInvalid {
		t.Errorf("attempt b outcome = %s; want invalid", ft.Attempts[1].Outcome)
	}
}

func TestChainDistinguishesErrorFromMiss(t *testing.T) {
	chain := Chain{
		Field: "test",
		Strategies: []Strategy{
			{Name: "broken", Run: func(page.Page) (string, error) { return "", errors.New("selector exploded") }},
			{Name: "quiet", Run: func(page.Page) (string, error) { return "", nil }},
		},
	}

	trace := &models.ExtractionTrace{}
	_, found := chain.Extract(&textPage{}, trace)
	if found {
		t.Fatal("expected all-miss chain to report not found")
	}

	ft := trace.Field("test")
	if ft.Attempts[0].Outcome != models.OutcomeErrored {
		t.Errorf("errored strategy recorded as %s", ft.Attempts[0].Outcome)
	}
	if ft.Attempts[1].Outcome != models.OutcomeMiss {
		t.Errorf("missing strategy recorded as %s", ft.Attempts[1].Outcome)
	}
	if ft.Found {
		t.Error("field trace should not be marked found")
	}
}

func TestChainAllMissIsNotFound(t *testing.T) {
	chain := Chain{
		Field: "empty",
		Strategies: []Strategy{
			{Name: "a", Run: func(page.Page) (string, error) { return "", nil }},
		},
	}
	if _, found := chain.Extract(&textPage{}, nil); found {
		t.Fatal("expected not found")
	}
}
