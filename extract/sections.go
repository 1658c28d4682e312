package extract

import (
	"strings"

	"propscrape/models"
	"propscrape/page"
)

const (
	minDescriptionLineLen  = 15
	minDescriptionBlockLen = 300
	minFeatureLen          = 5
	maxFeatureLen          = 150
)

var descriptionKeywords = []string{
	"bedroom", "apartment", "property", "refurbished", "beautifully",
}

var featureStopHeadings = []string{
	"description", "brochures", "council tax", "notes", "property type",
}

var navigationPhrases = []string{
	"sign in", "saved properties", "saved searches", "my rightmove",
	"back to top", "cookie", "privacy policy", "skip to",
}

// extractDescription walks the linearized page text: find the line equal
// to a description heading, collect subsequent lines longer than the
// minimum until a next-section heading, join with single spaces. Falls
// back to the longest keyword-bearing text block when the heading walk
// yields nothing substantial.
func (e *Extractor) extractDescription(p page.Page, trace *models.ExtractionTrace) string {
	ft := models.FieldTrace{Field: "description"}

	text := e.descriptionFromHeading(p)
	if text != "" {
		ft.Found = true
		ft.MatchedBy = "heading-walk"
		ft.Attempts = append(ft.Attempts, models.StrategyAttempt{
			Strategy: "heading-walk", Outcome: models.OutcomeMatched,
		})
		trace.Record(ft)
		return text
	}
	ft.Attempts = append(ft.Attempts, models.StrategyAttempt{
		Strategy: "heading-walk", Outcome: models.OutcomeMiss,
	})

	text = e.descriptionFromBlocks(p)
	if text != "" {
		ft.Found = true
		ft.MatchedBy = "longest-block"
		ft.Attempts = append(ft.Attempts, models.StrategyAttempt{
			Strategy: "longest-block", Outcome: models.OutcomeMatched,
		})
	} else {
		ft.Attempts = append(ft.Attempts, models.StrategyAttempt{
			Strategy: "longest-block", Outcome: models.OutcomeMiss,
		})
	}
	trace.Record(ft)
	return text
}

func (e *Extractor) descriptionFromHeading(p page.Page) string {
	lines := textLines(p)
	start := -1
	for i, line := range lines {
		lower := strings.ToLower(line)
		if lower == "description" || lower == "property description" {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return ""
	}

	var collected []string
	for _, line := range lines[start:] {
		if isStopHeading(line, e.cfg.StopHeadings) {
			break
		}
		if len(line) > minDescriptionLineLen {
			collected = append(collected, line)
		}
	}
	return strings.Join(collected, " ")
}

func (e *Extractor) descriptionFromBlocks(p page.Page) string {
	var best string
	for _, el := range p.QueryAll("p, div") {
		text := strings.TrimSpace(el.Text())
		if len(text) <= minDescriptionBlockLen || len(text) <= len(best) {
			continue
		}
		if containsAnyFold(text, descriptionKeywords) {
			best = text
		}
	}
	return best
}

// extractKeyFeatures is symmetric to the description walk. Lines that are
// all-uppercase, contain a colon, or start with the currency symbol mark
// section boundaries or prices rather than features and are skipped.
func (e *Extractor) extractKeyFeatures(p page.Page, trace *models.ExtractionTrace) []string {
	ft := models.FieldTrace{Field: "key_features"}

	features := e.featuresFromHeading(p)
	if len(features) >= 2 {
		ft.Found = true
		ft.MatchedBy = "heading-walk"
		ft.Attempts = append(ft.Attempts, models.StrategyAttempt{
			Strategy: "heading-walk", Outcome: models.OutcomeMatched,
		})
		trace.Record(ft)
		return features
	}
	ft.Attempts = append(ft.Attempts, models.StrategyAttempt{
		Strategy: "heading-walk", Outcome: models.OutcomeMiss,
	})

	// Fewer than two features from the heading walk usually means the
	// section markup drifted; list items are the looser fallback.
	fallback := e.featuresFromListItems(p)
	if len(fallback) > len(features) {
		features = fallback
		ft.MatchedBy = "list-items"
		ft.Attempts = append(ft.Attempts, models.StrategyAttempt{
			Strategy: "list-items", Outcome: models.OutcomeMatched,
		})
	} else {
		ft.Attempts = append(ft.Attempts, models.StrategyAttempt{
			Strategy: "list-items", Outcome: models.OutcomeMiss,
		})
	}
	ft.Found = len(features) > 0
	if ft.Found && ft.MatchedBy == "" {
		ft.MatchedBy = "heading-walk"
	}
	trace.Record(ft)
	if features == nil {
		features = []string{}
	}
	return features
}

func (e *Extractor) featuresFromHeading(p page.Page) []string {
	lines := textLines(p)
	start := -1
	for i, line := range lines {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "key features") || lower == "features" {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return nil
	}

	var features []string
	for _, line := range lines[start:] {
		if isStopHeading(line, featureStopHeadings) {
			break
		}
		if len(line) <= minFeatureLen || len(line) >= maxFeatureLen {
			continue
		}
		if isAllUpper(line) || strings.Contains(line, ":") || strings.HasPrefix(line, e.cfg.CurrencySymbol) {
			continue
		}
		features = append(features, line)
	}
	return features
}

func (e *Extractor) featuresFromListItems(p page.Page) []string {
	var features []string
	seen := make(map[string]bool)
	for _, el := range p.QueryAll("li") {
		text := strings.TrimSpace(el.Text())
		if len(text) <= minFeatureLen || len(text) >= maxFeatureLen {
			continue
		}
		if isAllUpper(text) || strings.Contains(text, ":") || strings.HasPrefix(text, e.cfg.CurrencySymbol) {
			continue
		}
		if containsAnyFold(text, navigationPhrases) {
			continue
		}
		if seen[text] {
			continue
		}
		seen[text] = true
		features = append(features, text)
	}
	return features
}

func isStopHeading(line string, headings []string) bool {
	lower := strings.ToLower(line)
	for _, h := range headings {
		if strings.Contains(lower, h) {
			return true
		}
	}
	return false
}

func isAllUpper(s string) bool {
	return s == strings.ToUpper(s) && s != strings.ToLower(s)
}

func containsAnyFold(s string, needles []string) bool {
	lower := strings.ToLower(s)
	for _, n := range needles {
		if strings.Contains(lower, n) {
			return true
		}
	}
	return false
}
