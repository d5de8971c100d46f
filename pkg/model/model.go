package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Category is the release stream bucket a deep link is filed under.
type Category string

const (
	LTS   Category = "LTS"
	BETA  Category = "BETA"
	ALPHA Category = "ALPHA"
	TECH  Category = "TECH"
)

// Categories lists every bucket in classification priority order.
var Categories = []Category{LTS, BETA, ALPHA, TECH}

// Release is a single node returned by the getUnityReleases query.
type Release struct {
	Version      string   `json:"version"`
	Entitlements []string `json:"entitlements"`
	ReleaseDate  string   `json:"releaseDate"`
	HubDeepLink  string   `json:"unityHubDeepLink"` // empty when the node has no link
	Stream       string   `json:"stream"`
}

// Link is a classified release reduced to what gets persisted.
type Link struct {
	Version string `json:"version"`
	URL     string `json:"link"`
}

// Classified holds the links found for one version prefix, keyed by category.
type Classified map[Category][]Link

// LinkSet maps version prefixes to deep links, keeping prefixes in insertion order.
type LinkSet struct {
	prefixes []string
	links    map[string][]string
}

// NewLinkSet returns an empty LinkSet.
func NewLinkSet() *LinkSet {
	return &LinkSet{links: make(map[string][]string)}
}

// Has reports whether prefix has been recorded.
func (s *LinkSet) Has(prefix string) bool {
	_, ok := s.links[prefix]
	return ok
}

// Put records links under prefix. An existing prefix is left untouched and
// Put returns false.
func (s *LinkSet) Put(prefix string, links []string) bool {
	if s.links == nil {
		s.links = make(map[string][]string)
	}
	if _, ok := s.links[prefix]; ok {
		return false
	}
	s.prefixes = append(s.prefixes, prefix)
	s.links[prefix] = links
	return true
}

// Get returns the links stored for prefix.
func (s *LinkSet) Get(prefix string) []string {
	return s.links[prefix]
}

// Prefixes returns the recorded prefixes in insertion order.
func (s *LinkSet) Prefixes() []string {
	out := make([]string, len(s.prefixes))
	copy(out, s.prefixes)
	return out
}

// Len is the number of recorded prefixes.
func (s *LinkSet) Len() int {
	return len(s.prefixes)
}

// Map returns a plain copy of the prefix to links mapping.
func (s *LinkSet) Map() map[string][]string {
	out := make(map[string][]string, len(s.links))
	for k, v := range s.links {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// MarshalJSON writes the set as a JSON object with keys in insertion order.
// Literal & < > in links only survive an encoder with HTML escaping off;
// json.Marshal escapes them again.
func (s *LinkSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, prefix := range s.prefixes {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalNoEscape(prefix)
		if err != nil {
			return nil, err
		}
		links := s.links[prefix]
		if links == nil {
			links = []string{}
		}
		val, err := marshalNoEscape(links)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object of prefix to links, keeping file order.
func (s *LinkSet) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("link set: expected object, got %v", tok)
	}

	s.prefixes = nil
	s.links = make(map[string][]string)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		prefix, ok := tok.(string)
		if !ok {
			return fmt.Errorf("link set: expected string key, got %v", tok)
		}
		var links []string
		if err := dec.Decode(&links); err != nil {
			return fmt.Errorf("link set: decode %q: %w", prefix, err)
		}
		if links == nil {
			links = []string{}
		}
		s.Put(prefix, links)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Aggregate collects links for every category across all queried prefixes.
type Aggregate struct {
	sets map[Category]*LinkSet
}

// NewAggregate returns an Aggregate with an empty LinkSet for each category.
func NewAggregate() *Aggregate {
	a := &Aggregate{sets: make(map[Category]*LinkSet, len(Categories))}
	for _, c := range Categories {
		a.sets[c] = NewLinkSet()
	}
	return a
}

// Set returns the LinkSet for category, creating it if needed.
func (a *Aggregate) Set(c Category) *LinkSet {
	s, ok := a.sets[c]
	if !ok {
		s = NewLinkSet()
		a.sets[c] = s
	}
	return s
}

// Merge files the classified links for prefix into the aggregate. Empty
// categories are skipped and a prefix already present for a category is not
// overwritten. The returned map holds the number of links filed per category.
func (a *Aggregate) Merge(prefix string, classified Classified) map[Category]int {
	counts := make(map[Category]int)
	for _, c := range Categories {
		hits := classified[c]
		if len(hits) == 0 {
			continue
		}
		urls := make([]string, 0, len(hits))
		for _, h := range hits {
			urls = append(urls, h.URL)
		}
		if a.Set(c).Put(prefix, urls) {
			counts[c] = len(urls)
		}
	}
	return counts
}
