package identity

import "testing"

func TestListingID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.rightmove.co.uk/properties/141234567", "141234567"},
		{"https://www.rightmove.co.uk/properties/90210#media", "90210"},
		{"https://www.rightmove.co.uk/property-for-sale/find.html", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := ListingID(tt.url); got != tt.want {
			t.Errorf("ListingID(%q) = %q; want %q", tt.url, got, tt.want)
		}
	}
}

func TestCanonicalURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://example.com/properties/123/", "https://example.com/properties/123"},
		{"https://example.com/properties/123?channel=BUY#gallery", "https://example.com/properties/123"},
		{" https://example.com/properties/123 ", "https://example.com/properties/123"},
		{"HTTPS://Example.COM/properties/123", "https://example.com/properties/123"},
		{"https://EXAMPLE.com/properties/123/?x=1#top", "https://example.com/properties/123"},
	}

	for _, tt := range tests {
		if got := CanonicalURL(tt.url); got != tt.want {
			t.Errorf("CanonicalURL(%q) = %q; want %q", tt.url, got, tt.want)
		}
	}
}
