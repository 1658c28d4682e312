package extract

import (
	"sync"

	"propscrape/models"
	"propscrape/page"
)

// Strategy is one self-contained attempt to pull a field's raw value from
// a page. Run returns ("", nil) when the page simply doesn't match, and a
// non-nil error when the attempt itself blew up; both let the chain
// continue, but the trace keeps them apart.
type Strategy struct {
	Name string
	Run  func(p page.Page) (string, error)
}

// Chain is an ordered waterfall of strategies plus the field's validity
// predicate. The first candidate that passes Valid wins. Later strategies
// are progressively looser and exist to catch what earlier ones miss, so
// reordering changes outcomes on ambiguous pages.
type Chain struct {
	Field      string
	Strategies []Strategy
	Valid      func(string) bool
}

// Extract runs the chain against a page. The second return is false when
// every strategy missed, which is a normal outcome, not a failure.
func (c Chain) Extract(p page.Page, trace *models.ExtractionTrace) (string, bool) {
	ft := models.FieldTrace{Field: c.Field}

	var value string
	for _, s := range c.Strategies {
		candidate, err := s.Run(p)
		switch {
		case err != nil:
			ft.Attempts = append(ft.Attempts, models.StrategyAttempt{
				Strategy: s.Name, Outcome: models.OutcomeErrored, Detail: err.Error(),
			})
		case candidate == "":
			ft.Attempts = append(ft.Attempts, models.StrategyAttempt{
				Strategy: s.Name, Outcome: models.OutcomeMiss,
			})
		case c.Valid != nil && !c.Valid(candidate):
			ft.Attempts = append(ft.Attempts, models.StrategyAttempt{
				Strategy: s.Name, Outcome: models.OutcomeInvalid, Detail: truncate(candidate, 80),
			})
		default:
			ft.Attempts = append(ft.Attempts, models.StrategyAttempt{
				Strategy: s.Name, Outcome: models.OutcomeMatched,
			})
			ft.Found = true
			ft.MatchedBy = s.Name
			value = candidate
		}
		if ft.Found {
			break
		}
	}

	if trace != nil {
		trace.Record(ft)
	}
	return value, ft.Found
}

// snapshot memoizes the expensive accessor calls so the chains for one
// record share a single rendered-text read.
type snapshot struct {
	page.Page
	once sync.Once
	text string
}

func (s *snapshot) FullText() string {
	s.once.Do(func() {
		s.text = s.Page.FullText()
	})
	return s.text
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
