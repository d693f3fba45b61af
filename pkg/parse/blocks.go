package parse

import "strings"

// BlockSpec describes freeform "header then detail lines" output, the
// last-resort format for tools that print human-oriented listings.
type BlockSpec struct {
	// HeaderSep marks a block opener: a non-indented line containing it
	// starts a new block, split on the first occurrence.
	HeaderSep string

	// SkipPrefixes drops decoration lines wherever they appear.
	SkipPrefixes []string
}

// Block is one parsed paragraph. First and Rest are the two halves of the
// opening line; Fields holds the "Key: value" detail lines that followed it.
type Block struct {
	First  string
	Rest   string
	Fields map[string]string
}

// Field returns the named detail field, or "" when the block lacks it.
func (b Block) Field(key string) string {
	return b.Fields[key]
}

// Blocks builds a strategy for paragraph-separated records. A blank line or
// a new opener closes the current block, detail lines attach to the block
// opened last, and lines before any opener are ignored. The value of a
// match is []Block; zero blocks is a miss.
func Blocks(name string, spec BlockSpec) Named {
	return Named{Name: name, Fn: func(text string) (interface{}, bool) {
		var (
			blocks  []Block
			current *Block
		)
		flush := func() {
			if current != nil {
				blocks = append(blocks, *current)
				current = nil
			}
		}
		for _, raw := range strings.Split(text, "\n") {
			line := strings.TrimRight(raw, "\r")
			if strings.TrimSpace(line) == "" {
				flush()
				continue
			}
			if skipLine(line, spec.SkipPrefixes) {
				continue
			}
			if strings.Contains(line, spec.HeaderSep) && !strings.HasPrefix(line, "  ") {
				flush()
				first, rest, _ := strings.Cut(line, spec.HeaderSep)
				current = &Block{
					First:  strings.TrimSpace(first),
					Rest:   strings.TrimSpace(rest),
					Fields: map[string]string{},
				}
				continue
			}
			if current == nil {
				continue
			}
			if key, val, ok := strings.Cut(strings.TrimSpace(line), ":"); ok {
				current.Fields[strings.TrimSpace(key)] = strings.TrimSpace(val)
			}
		}
		flush()
		if len(blocks) == 0 {
			return nil, false
		}
		return blocks, true
	}}
}
