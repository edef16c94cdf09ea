package blsloader

import (
	"fmt"
	"strings"
)

// Source is a file published by the statistics agency.
type Source struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

func (s Source) String() string {
	if s.Name == "" {
		return s.URL
	}
	return fmt.Sprintf("%s <%s>", s.Name, s.URL)
}

// Scheme returns the URL scheme, "file" for bare paths.
func (s Source) Scheme() string {
	if i := strings.Index(s.URL, "://"); i > 0 {
		return strings.ToLower(s.URL[:i])
	}
	return "file"
}
