package storage

import (
	"errors"
	"reflect"
	"testing"
)

func TestDedupeImageURLsKeepsFirstSeenOrder(t *testing.T) {
	in := []string{
		"https://media.example.com/photo1.jpg",
		"https://media.example.com/photo2.jpg",
		"https://media.example.com/photo1.jpg",
		"https://media.example.com/photo3.jpg",
		"https://media.example.com/photo2.jpg",
	}
	want := []string{
		"https://media.example.com/photo1.jpg",
		"https://media.example.com/photo2.jpg",
		"https://media.example.com/photo3.jpg",
	}

	got := dedupeImageURLs(in)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("dedupeImageURLs = %v; want %v", got, want)
	}
}

func TestDedupeImageURLsEmpty(t *testing.T) {
	got := dedupeImageURLs(nil)
	if got == nil || len(got) != 0 {
		t.Errorf("dedupeImageURLs(nil) = %#v; want empty non-nil slice", got)
	}
}

func TestImageTitle(t *testing.T) {
	tests := []struct {
		order int
		want  string
	}{
		{0, "Image 1"},
		{1, "Image 2"},
		{9, "Image 10"},
	}
	for _, tt := range tests {
		if got := imageTitle(tt.order); got != tt.want {
			t.Errorf("imageTitle(%d) = %q; want %q", tt.order, got, tt.want)
		}
	}
}

func TestPersistenceErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := &PersistenceError{Op: "upsert listing", URL: "https://example.com/properties/1", Err: cause}

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to reach the cause")
	}
	msg := err.Error()
	if msg != "upsert listing https://example.com/properties/1: connection reset" {
		t.Errorf("message = %q", msg)
	}
}
