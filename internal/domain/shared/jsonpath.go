package shared

import "strings"

// PathSegments splits a content path into its segments.
// Both JSON pointers ("/person/firstName") and dotted paths ("person.firstName") are accepted.
// JSON pointer escapes (~0, ~1) are decoded.
func PathSegments(path string) []string {
	path = strings.TrimSpace(path)
	if path == "" || path == "/" {
		return nil
	}

	var parts []string
	if strings.HasPrefix(path, "/") {
		parts = strings.Split(path[1:], "/")
		for i, p := range parts {
			p = strings.ReplaceAll(p, "~1", "/")
			parts[i] = strings.ReplaceAll(p, "~0", "~")
		}
	} else {
		parts = strings.Split(path, ".")
	}

	segments := parts[:0]
	for _, p := range parts {
		if p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}

// GJSONPath converts a content path into gjson/sjson path syntax,
// escaping characters that have a special meaning there.
func GJSONPath(path string) string {
	segments := PathSegments(path)
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = escapeGJSON(s)
	}
	return strings.Join(escaped, ".")
}

// JSONPointer converts a content path into an RFC 6901 JSON pointer
func JSONPointer(path string) string {
	segments := PathSegments(path)
	if len(segments) == 0 {
		return ""
	}
	var b strings.Builder
	for _, s := range segments {
		b.WriteByte('/')
		s = strings.ReplaceAll(s, "~", "~0")
		b.WriteString(strings.ReplaceAll(s, "/", "~1"))
	}
	return b.String()
}

func escapeGJSON(segment string) string {
	var b strings.Builder
	for _, r := range segment {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\', '!', '=', '<', '>', '%':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
