package app

import "strings"

// splitLine splits one delimited line on commas outside double quotes.
// A quote toggles the in-quotes state and is not kept; doubled quotes are
// not treated as escapes, so `"a""b"` reads as `ab`.
func splitLine(line string) []string {
	var (
		fields   []string
		cur      strings.Builder
		inQuotes bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	return append(fields, cur.String())
}

// splitRows trims the document and returns its non-blank lines.
func splitRows(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var out []string
	for _, l := range strings.Split(raw, "\n") {
		l = strings.TrimSuffix(l, "\r")
		if strings.TrimSpace(l) == "" {
			continue
		}
		out = append(out, l)
	}
	return out
}

// row gives by-name access to one split line; absent columns read as "".
type row struct {
	index  map[string]int
	values []string
}

func (r row) get(name string) string {
	i, ok := r.index[name]
	if !ok || i >= len(r.values) {
		return ""
	}
	return strings.TrimSpace(r.values[i])
}
