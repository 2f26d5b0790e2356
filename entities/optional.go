package entities

import "strings"

// Optional trims s and returns nil when nothing is left. Every optional field of a
// record goes through it so that absence is never confused with an empty string.
func Optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Value returns the pointed-to string, or "" when absent.
func Value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
