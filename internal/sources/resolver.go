// Package sources resolves which search results a chat response actually
// cites. It extracts citation numbers from generated text, coerces the
// heterogeneous result records coming back from the search pipeline into a
// uniform shape, and filters the result set down to what should be rendered.
//
// All functions here degrade to empty or partial output on malformed input;
// upstream is a best-effort text-generation system and nothing it produces
// is trusted to be well-formed.
package sources

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// FallbackDisplayCount is how many sources are shown when no citation could
// be detected in the response text.
const FallbackDisplayCount = 3

// Citation syntaxes recognized in generated text. Each pattern captures the
// integer; matches are unioned across all patterns.
var citationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\[(\d+)\]`),            // [3]
	regexp.MustCompile(`\((\d+)\)`),            // (3)
	regexp.MustCompile(`\^(\d+)`),              // ^3
	regexp.MustCompile(`(?i)\bsource\s+(\d+)`), // source 3 / SOURCE 3
	regexp.MustCompile(`(?i)\bref\s+(\d+)`),    // ref 3 / Ref 3
}

// ExtractCitedNumbers scans generated response text for citation references
// and returns the set of cited numbers. Recognized syntaxes: [n], (n), ^n,
// a bare integer surrounded by whitespace, and "source n" / "ref n"
// (case-insensitive).
//
// The bare-integer heuristic is intentionally permissive and produces false
// positives on numeric content unrelated to citations; callers render the
// result best-effort rather than treating it as precise.
func ExtractCitedNumbers(responseText string) CitedSet {
	cited := make(CitedSet)
	if responseText == "" {
		return cited
	}

	for _, re := range citationPatterns {
		for _, m := range re.FindAllStringSubmatch(responseText, -1) {
			if len(m) < 2 {
				continue
			}
			if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
				cited[n] = struct{}{}
			}
		}
	}

	// Bare integers delimited by whitespace. Done with field splitting
	// rather than a regex so adjacent numbers ("1 2 3") are all seen.
	for _, field := range strings.Fields(responseText) {
		if n, err := strconv.Atoi(field); err == nil && n > 0 {
			cited[n] = struct{}{}
		}
	}

	return cited
}

// NormalizeSources coerces a raw result list into a uniform, deduplicated
// slice of NormalizedSource. Entries that already carry a non-empty id,
// title and url pass through unchanged; anything else is synthesized with
// positional defaults (id "source-{i}", citation number i+1, result type
// "web"). Records resolving to the same normalized URL collapse to the
// first occurrence. Non-list input yields an empty slice, never an error.
func NormalizeSources(raw interface{}) []NormalizedSource {
	entries := toEntryList(raw)
	out := make([]NormalizedSource, 0, len(entries))
	for i, entry := range entries {
		out = append(out, normalizeEntry(entry, i))
	}
	return dedupeByURL(out)
}

// entry is one raw source record in either already-typed or loose-map form.
type entry struct {
	typed *NormalizedSource
	m     map[string]interface{}
}

func toEntryList(raw interface{}) []entry {
	switch v := raw.(type) {
	case []NormalizedSource:
		out := make([]entry, len(v))
		for i := range v {
			s := v[i]
			out[i] = entry{typed: &s}
		}
		return out
	case []map[string]interface{}:
		out := make([]entry, len(v))
		for i := range v {
			out[i] = entry{m: v[i]}
		}
		return out
	case []interface{}:
		out := make([]entry, 0, len(v))
		for _, item := range v {
			switch it := item.(type) {
			case map[string]interface{}:
				out = append(out, entry{m: it})
			case NormalizedSource:
				s := it
				out = append(out, entry{typed: &s})
			default:
				// Unusable element: keep the slot so positional citation
				// numbers downstream stay aligned with the input order.
				out = append(out, entry{})
			}
		}
		return out
	default:
		return nil
	}
}

func normalizeEntry(e entry, index int) NormalizedSource {
	var s NormalizedSource
	if e.typed != nil {
		s = *e.typed
	} else if e.m != nil {
		s = sourceFromMap(e.m)
	}

	// Already well-formed records pass through untouched.
	if s.ID != "" && s.Title != "" && s.URL != "" {
		return s
	}

	if s.ID == "" {
		s.ID = fmt.Sprintf("source-%d", index)
	}
	if s.Title == "" {
		s.Title = "Untitled Source"
	}
	if s.Domain == "" && s.URL != "" {
		if d, err := ExtractDomain(s.URL); err == nil {
			s.Domain = d
		}
	}
	if s.CitationNumber <= 0 {
		s.CitationNumber = index + 1
	}
	if s.Images == nil {
		s.Images = []string{}
	}
	if s.ResultType == "" {
		s.ResultType = "web"
	}
	return s
}

func sourceFromMap(m map[string]interface{}) NormalizedSource {
	var s NormalizedSource
	s.ID, _ = m["id"].(string)
	s.Title, _ = m["title"].(string)
	s.URL, _ = m["url"].(string)
	s.Snippet, _ = m["snippet"].(string)
	if s.Snippet == "" {
		s.Snippet, _ = m["description"].(string)
	}
	s.Domain, _ = m["domain"].(string)
	s.FaviconURL, _ = m["favicon"].(string)
	if s.FaviconURL == "" {
		s.FaviconURL, _ = m["favicon_url"].(string)
	}
	s.ResultType, _ = m["result_type"].(string)

	switch n := m["citation_number"].(type) {
	case float64:
		s.CitationNumber = int(n)
	case int:
		s.CitationNumber = n
	case string:
		if v, err := strconv.Atoi(n); err == nil {
			s.CitationNumber = v
		}
	}

	if imgs, ok := m["images"].([]interface{}); ok {
		for _, img := range imgs {
			if u, ok := img.(string); ok {
				s.Images = append(s.Images, u)
			}
		}
	} else if imgs, ok := m["images"].([]string); ok {
		s.Images = append(s.Images, imgs...)
	}

	if vm, ok := m["video_metadata"].(map[string]interface{}); ok {
		s.VideoMetadata = vm
	}
	return s
}

// dedupeByURL collapses records sharing a normalized URL, keeping the first
// occurrence. Records without a URL never collapse.
func dedupeByURL(list []NormalizedSource) []NormalizedSource {
	seen := make(map[string]bool, len(list))
	out := make([]NormalizedSource, 0, len(list))
	for _, s := range list {
		if s.URL != "" {
			key := s.URL
			if norm, err := NormalizeURL(s.URL); err == nil && norm != "" {
				key = norm
			}
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		out = append(out, s)
	}
	return out
}

// SelectDisplaySources filters normalized sources down to the ones the chat
// surface should render. When citations were detected, exactly the cited
// sources are returned in their original order, even if that means zero
// results. When no citation was detected, the first FallbackDisplayCount
// sources are shown instead of the full list.
func SelectDisplaySources(normalized []NormalizedSource, cited CitedSet) []NormalizedSource {
	if len(cited) == 0 {
		if len(normalized) > FallbackDisplayCount {
			return normalized[:FallbackDisplayCount]
		}
		return normalized
	}

	out := make([]NormalizedSource, 0, len(cited))
	for _, s := range normalized {
		if cited.Contains(s.CitationNumber) {
			out = append(out, s)
		}
	}
	return out
}

// CountDisplayable computes per-category counts over the selected sources.
// Video results are recognized either by result_type or by attached video
// metadata.
func CountDisplayable(selected []NormalizedSource) FilterCounts {
	var counts FilterCounts
	counts.Sources = len(selected)
	for _, s := range selected {
		counts.Images += len(s.Images)
		if s.VideoMetadata != nil || s.ResultType == "video" {
			counts.Videos++
		}
	}
	return counts
}

// HasDisplayableContent reports whether the filtered result set has anything
// worth rendering. Consumers show an explicit "no sources available" state
// when this is false.
func HasDisplayableContent(counts FilterCounts) bool {
	return counts.Sources > 0 || counts.Images > 0 || counts.Videos > 0
}
