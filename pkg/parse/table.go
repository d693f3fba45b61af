package parse

import "strings"

// TableSpec describes delimiter-separated tabular output.
//
// Two dialects exist in the wild. Tools that print a header row set Header:
// the first non-blank line must match it as a case-insensitive prefix, and
// the table matches even when no data rows follow. Tools that print bare
// rows leave Header nil: the table then matches only when at least one row
// parses, so arbitrary prose cannot masquerade as data.
type TableSpec struct {
	// Header, when set, holds the expected leading cells of the header row.
	// Matching is a case-insensitive prefix test on the joined cells.
	Header []string

	// Delim separates columns. Empty means tab.
	Delim string

	// CollapseDelim treats runs of the delimiter as one separator and trims
	// each cell, for tools that pad columns into alignment.
	CollapseDelim bool

	// MinFields drops rows with fewer columns.
	MinFields int

	// Sentinels are complete lines (case-insensitive) meaning "no items".
	// A sentinel is an empty match, not a miss.
	Sentinels []string

	// SkipPrefixes drops decoration lines such as repeated headers or
	// trailing totals. A prefix also matches a line equal to its own
	// trimmed form, so "ID " skips a bare "ID" line.
	SkipPrefixes []string
}

// Table builds a strategy matching tabular text against spec. The value of
// a match is [][]string, one slice of cells per row, in input order. Cells
// are trimmed only in CollapseDelim mode; otherwise the caller sees the raw
// split so multi-column tails can be rejoined losslessly.
func Table(name string, spec TableSpec) Named {
	delim := spec.Delim
	if delim == "" {
		delim = "\t"
	}
	return Named{Name: name, Fn: func(text string) (interface{}, bool) {
		lines := nonBlankLines(text)
		if len(lines) == 0 {
			return nil, false
		}
		if len(lines) == 1 && isSentinel(lines[0], spec.Sentinels) {
			return [][]string{}, true
		}
		rows := lines
		if len(spec.Header) > 0 {
			want := strings.ToUpper(strings.Join(spec.Header, delim))
			if !strings.HasPrefix(strings.ToUpper(strings.TrimSpace(lines[0])), want) {
				return nil, false
			}
			rows = lines[1:]
		}
		var out [][]string
		for _, line := range rows {
			if skipLine(line, spec.SkipPrefixes) {
				continue
			}
			cells := splitCells(line, delim, spec.CollapseDelim)
			if len(cells) < spec.MinFields {
				continue
			}
			out = append(out, cells)
		}
		if len(spec.Header) == 0 && len(out) == 0 {
			return nil, false
		}
		if out == nil {
			out = [][]string{}
		}
		return out, true
	}}
}

func nonBlankLines(text string) []string {
	var lines []string
	for _, ln := range strings.Split(text, "\n") {
		ln = strings.TrimRight(ln, "\r")
		if strings.TrimSpace(ln) != "" {
			lines = append(lines, ln)
		}
	}
	return lines
}

func isSentinel(line string, sentinels []string) bool {
	trimmed := strings.TrimSpace(line)
	for _, s := range sentinels {
		if strings.EqualFold(trimmed, s) {
			return true
		}
	}
	return false
}

func skipLine(line string, prefixes []string) bool {
	trimmed := strings.TrimSpace(line)
	for _, p := range prefixes {
		if strings.HasPrefix(trimmed, p) || trimmed == strings.TrimSpace(p) {
			return true
		}
	}
	return false
}

func splitCells(line, delim string, collapse bool) []string {
	if !collapse {
		return strings.Split(line, delim)
	}
	var cells []string
	for _, c := range strings.Split(line, delim) {
		c = strings.TrimSpace(c)
		if c != "" {
			cells = append(cells, c)
		}
	}
	return cells
}
