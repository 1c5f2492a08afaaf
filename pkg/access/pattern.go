package access

import "strings"

const (
	// Wildcard matches every name, or every name below a prefix when used as
	// a suffix ("uikit.*").
	Wildcard = "*"

	// Delimiter separates hierarchy levels in namespaces and controller names.
	Delimiter = "."

	patternSeparator = " "
)

// Match reports whether name is matched by pattern. A pattern is either an
// exact name, the global wildcard, or a prefix ending in ".*".
func Match(name, pattern string) bool {
	if name == pattern || pattern == Wildcard {
		return true
	}
	if strings.HasSuffix(pattern, Wildcard) {
		prefix := strings.TrimSuffix(pattern, Wildcard)
		prefix = strings.TrimSuffix(prefix, Delimiter)
		return strings.HasPrefix(name, prefix+Delimiter)
	}
	return false
}

// MatchAny reports whether any pattern matches name.
func MatchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if Match(name, p) {
			return true
		}
	}
	return false
}

// ParsePatterns splits a space separated list. Returns nil for blank input.
func ParsePatterns(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, patternSeparator)
	out := make([]string, 0, len(parts))
	for i := range parts {
		if parts[i] = strings.TrimSpace(parts[i]); parts[i] != "" {
			out = append(out, parts[i])
		}
	}
	return out
}

// validPattern rejects empty patterns and wildcards anywhere but the last
// segment.
func validPattern(p string) bool {
	if p == "" || strings.ContainsAny(p, " \t\n") {
		return false
	}
	i := strings.Index(p, Wildcard)
	if i < 0 {
		return true
	}
	if i != len(p)-1 {
		return false
	}
	return i == 0 || strings.HasSuffix(p, Delimiter+Wildcard)
}
