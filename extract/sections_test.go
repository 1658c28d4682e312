package extract

import (
	"reflect"
	"testing"

	"propscrape/config"
)

func testExtractor() *Extractor {
	site := config.SiteConfig{}
	site.ApplyDefaults()
	return New(site.Extraction)
}

func TestDescriptionAndFeaturesSectionWalk(t *testing.T) {
	p := &textPage{
		url: "https://example.com/properties/1",
		text: "Description\n" +
			"A beautifully refurbished two bedroom flat with private balcony and secure parking.\n" +
			"Key features\n" +
			"Balcony\n" +
			"PRIVATE PARKING\n" +
			"Tenure: Leasehold",
	}
	e := testExtractor()

	listing, _ := e.Extract(p)

	wantDesc := "A beautifully refurbished two bedroom flat with private balcony and secure parking."
	if listing.Description != wantDesc {
		t.Errorf("description = %q; want %q", listing.Description, wantDesc)
	}
	if !reflect.DeepEqual(listing.KeyFeatures, []string{"Balcony"}) {
		t.Errorf("key features = %v; want [Balcony]", listing.KeyFeatures)
	}
}

func TestDescriptionJoinsLinesAndStopsAtNextSection(t *testing.T) {
	p := &textPage{
		text: "Property description\n" +
			"The first line of the description text.\n" +
			"The second line of the description text.\n" +
			"The third line of the description text.\n" +
			"Key features\n" +
			"This line belongs to another section entirely.",
	}
	e := testExtractor()

	got := e.extractDescription(&snapshot{Page: p}, newTrace())

	want := "The first line of the description text. " +
		"The second line of the description text. " +
		"The third line of the description text."
	if got != want {
		t.Errorf("description = %q; want %q", got, want)
	}
}

func TestDescriptionSkipsShortLines(t *testing.T) {
	p := &textPage{
		text: "Description\n" +
			"Short.\n" +
			"A long enough line that should be collected here.\n" +
			"Brochures",
	}
	e := testExtractor()

	got := e.extractDescription(&snapshot{Page: p}, newTrace())
	want := "A long enough line that should be collected here."
	if got != want {
		t.Errorf("description = %q; want %q", got, want)
	}
}

func TestKeyFeaturesFiltersBoundaryLines(t *testing.T) {
	p := &textPage{
		text: "Key features\n" +
			"ALL UPPERCASE HEADING\n" +
			"Tenure: Leasehold\n" +
			"Gas central heating\n" +
			"Private south-facing garden\n" +
			"Description\n" +
			"Not a feature line.",
	}
	e := testExtractor()

	got := e.extractKeyFeatures(&snapshot{Page: p}, newTrace())

	want := []string{"Gas central heating", "Private south-facing garden"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("features = %v; want %v", got, want)
	}
}

func TestKeyFeaturesAbsentSectionYieldsEmptySlice(t *testing.T) {
	p := &textPage{text: "Nothing interesting on this page."}
	e := testExtractor()

	got := e.extractKeyFeatures(&snapshot{Page: p}, newTrace())
	if got == nil || len(got) != 0 {
		t.Errorf("features = %#v; want empty, non-nil slice", got)
	}
}
