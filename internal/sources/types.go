package sources

import "sort"

// NormalizedSource is a source record coerced into a complete, uniform shape
// regardless of how much the upstream search/generation pipeline filled in.
type NormalizedSource struct {
	ID             string                 `json:"id"`
	Title          string                 `json:"title"`
	URL            string                 `json:"url"`
	Snippet        string                 `json:"snippet"`
	Domain         string                 `json:"domain"`
	FaviconURL     string                 `json:"favicon_url,omitempty"`
	CitationNumber int                    `json:"citation_number"`
	Images         []string               `json:"images,omitempty"`
	VideoMetadata  map[string]interface{} `json:"video_metadata,omitempty"`
	ResultType     string                 `json:"result_type"`
}

// WebSearchMeta carries pass-through counters from the search backend.
// The resolver only ever checks it for existence of results; everything else
// is display-only.
type WebSearchMeta struct {
	TavilyHitsCount int `json:"tavily_hits_count,omitempty"`
	SourcesCount    int `json:"sources_count,omitempty"`
	ImagesCount     int `json:"images_count,omitempty"`
	VideosCount     int `json:"videos_count,omitempty"`
}

// HasAnySources reports whether the search backend claims to have produced
// any results at all.
func (m *WebSearchMeta) HasAnySources() bool {
	if m == nil {
		return false
	}
	return m.TavilyHitsCount > 0 || m.SourcesCount > 0 || m.ImagesCount > 0 || m.VideosCount > 0
}

// FilterCounts holds per-category counts after citation filtering.
type FilterCounts struct {
	Sources int `json:"sources"`
	Images  int `json:"images"`
	Videos  int `json:"videos"`
}

// CitedSet is a set of citation numbers extracted from generated text.
type CitedSet map[int]struct{}

// Contains reports membership of n in the set.
func (s CitedSet) Contains(n int) bool {
	_, ok := s[n]
	return ok
}

// Values returns the set's members in ascending order.
func (s CitedSet) Values() []int {
	out := make([]int, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}
