package sources

import (
	"net/url"
	"strings"
)

// NormalizeURL cleans a URL so that equivalent references collapse to the
// same string during deduplication:
// - lowercases scheme and host
// - removes a leading "www."
// - removes fragment identifiers
// - removes common tracking query parameters (utm_*, fbclid, gclid, ...)
// - removes trailing slashes from the path
func NormalizeURL(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)

	if strings.HasPrefix(parsed.Host, "www.") {
		parsed.Host = parsed.Host[4:]
	}

	parsed.Fragment = ""

	if parsed.RawQuery != "" {
		q := parsed.Query()
		trackingParams := []string{
			"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content",
			"fbclid", "gclid", "msclkid",
			"ref", "source",
		}
		for _, param := range trackingParams {
			q.Del(param)
		}
		parsed.RawQuery = q.Encode()
	}

	if strings.HasSuffix(parsed.Path, "/") {
		parsed.Path = strings.TrimSuffix(parsed.Path, "/")
	}

	return parsed.String(), nil
}

// ExtractDomain returns the lowercase host from a URL, removing any port and
// a leading "www." but preserving other subdomains.
// Example: "https://blog.example.com/path" -> "blog.example.com"
func ExtractDomain(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	host := strings.ToLower(parsed.Host)

	if colonIndex := strings.Index(host, ":"); colonIndex != -1 {
		host = host[:colonIndex]
	}

	if strings.HasPrefix(host, "www.") {
		host = host[4:]
	}

	return host, nil
}
