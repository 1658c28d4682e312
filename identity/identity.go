package identity

import (
	"net/url"
	"regexp"
	"strings"
)

var listingIDRegex = regexp.MustCompile(`/properties/(\d+)`)

// ListingID derives the site's numeric identifier from a detail page URL
// path segment. Returns "" when the URL carries no identifier; the
// listing URL itself remains the identity key in that case.
func ListingID(rawURL string) string {
	m := listingIDRegex.FindStringSubmatch(rawURL)
	if m == nil {
		return ""
	}
	return m[1]
}

// CanonicalURL normalizes a listing URL for use as the identity key:
// scheme and host lowercased, fragment and query tracking noise dropped,
// trailing slash trimmed. Two visits to the same property must map to
// the same key. Scheme and host spelling variants that survive this
// (http vs https, www vs bare) are caught by the unique identifier
// index in storage instead.
func CanonicalURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return strings.TrimSpace(rawURL)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawQuery = ""
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String()
}
