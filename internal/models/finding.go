package models

import "sort"

// Finding is one public file that contains the marker
type Finding struct {
	Repository string  // owner/name
	Path       string  // file path within the repository
	URL        string  // direct link to the file
	Score      float64 // platform relevance, advisory only
}

// Key returns the identity used for deduplication. The URL is not part of it
// because GitHub may change it between runs.
func (f Finding) Key() string {
	return f.Repository + ":" + f.Path
}

// String returns a human-readable representation
func (f Finding) String() string {
	return f.Repository + "/" + f.Path
}

// SeenSet holds the keys of everything already reported
type SeenSet map[string]struct{}

// NewSeenSet builds a set from a list of keys
func NewSeenSet(keys ...string) SeenSet {
	s := make(SeenSet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Has reports whether key is in the set
func (s SeenSet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Add inserts key into the set
func (s SeenSet) Add(key string) {
	s[key] = struct{}{}
}

// Clone returns an independent copy
func (s SeenSet) Clone() SeenSet {
	out := make(SeenSet, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

// Keys returns the keys in sorted order so persisted records are stable
func (s SeenSet) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
