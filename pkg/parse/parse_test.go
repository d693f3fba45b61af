package parse

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func calendarTable() Named {
	return Table("tsv", TableSpec{
		Header:    []string{"ID", "START", "END", "SUMMARY"},
		MinFields: 4,
		Sentinels: []string{"no events"},
	})
}

func TestChainPrefersStructuredFormats(t *testing.T) {
	chain := func(text string) Outcome {
		return Chain(text, EmbeddedJSON(), WholeJSON(), calendarTable())
	}

	t.Run("embedded JSON wins over everything", func(t *testing.T) {
		out := chain("fetching events...\n[{\"id\": \"e1\"}]\ndone in 0.2s")
		require.True(t, out.Matched())
		assert.Equal(t, "embedded-json", out.Parser)
		list, ok := out.Value.([]interface{})
		require.True(t, ok)
		assert.Len(t, list, 1)
	})

	t.Run("tabular text falls through to the table strategy", func(t *testing.T) {
		out := chain("ID\tSTART\tEND\tSUMMARY\ne1\t09:00\t10:00\tStandup")
		require.True(t, out.Matched())
		assert.Equal(t, "tsv", out.Parser)
		rows, ok := out.Value.([][]string)
		require.True(t, ok)
		assert.Len(t, rows, 1)
	})

	t.Run("prose matches nothing", func(t *testing.T) {
		out := chain("the calendar service is temporarily unavailable")
		assert.False(t, out.Matched())
		assert.Empty(t, out.Parser)
		assert.Nil(t, out.Value)
	})

	t.Run("table-first chains still hand JSON to the JSON strategy", func(t *testing.T) {
		mailTable := Table("tsv", TableSpec{CollapseDelim: true, MinFields: 4})
		out := Chain(`[{"id": "t1"}]`, mailTable, WholeJSON())
		require.True(t, out.Matched())
		assert.Equal(t, "json", out.Parser)
	})
}

func TestEmbeddedJSON(t *testing.T) {
	fn := EmbeddedJSON().Fn

	t.Run("object inside log noise", func(t *testing.T) {
		v, ok := fn("INFO fetching\n{\"events\": [{\"id\": \"e1\"}]}\nINFO done")
		require.True(t, ok)
		m, isMap := v.(map[string]interface{})
		require.True(t, isMap)
		assert.Contains(t, m, "events")
	})

	t.Run("skips undecodable brace positions", func(t *testing.T) {
		v, ok := fn("warn {unbalanced\n[{\"id\": \"a\"}] trailing")
		require.True(t, ok)
		_, isList := v.([]interface{})
		assert.True(t, isList)
	})

	t.Run("bracketed prose is not JSON", func(t *testing.T) {
		_, ok := fn("deadline [2s] exceeded while calling {service}")
		assert.False(t, ok)
	})

	t.Run("plain text misses", func(t *testing.T) {
		_, ok := fn("nothing to see here")
		assert.False(t, ok)
	})
}

func TestWholeJSON(t *testing.T) {
	fn := WholeJSON().Fn

	t.Run("bare array with surrounding whitespace", func(t *testing.T) {
		v, ok := fn("  [{\"id\": \"t1\"}, {\"id\": \"t2\"}]\n")
		require.True(t, ok)
		list, isList := v.([]interface{})
		require.True(t, isList)
		assert.Len(t, list, 2)
	})

	t.Run("trailing garbage is a miss", func(t *testing.T) {
		_, ok := fn("[1, 2]\nplus a summary line")
		assert.False(t, ok)
	})

	t.Run("leading noise is a miss", func(t *testing.T) {
		_, ok := fn("result: {\"id\": 1}")
		assert.False(t, ok)
	})

	t.Run("scalar documents are not payloads", func(t *testing.T) {
		_, ok := fn("42")
		assert.False(t, ok)
	})

	t.Run("empty text misses", func(t *testing.T) {
		_, ok := fn("   \n")
		assert.False(t, ok)
	})
}

func TestTableWithHeader(t *testing.T) {
	fn := calendarTable().Fn

	t.Run("rows split on the raw delimiter", func(t *testing.T) {
		text := "ID\tSTART\tEND\tSUMMARY\n" +
			"e1\t2026-03-01T09:00:00Z\t2026-03-01T10:00:00Z\tStandup\n" +
			"e2\t2026-03-01T11:00:00Z\t2026-03-01T12:00:00Z\tPlanning\textra\tcells\n"
		v, ok := fn(text)
		require.True(t, ok)
		rows := v.([][]string)
		require.Len(t, rows, 2)
		assert.Equal(t, "e1", rows[0][0])
		// The tail keeps its own tabs so callers can rejoin multi-column
		// summaries losslessly.
		assert.Equal(t, []string{"e2", "2026-03-01T11:00:00Z", "2026-03-01T12:00:00Z", "Planning", "extra", "cells"}, rows[1])
	})

	t.Run("header match is case-insensitive", func(t *testing.T) {
		v, ok := fn("id\tstart\tend\tsummary\ne1\ta\tb\tc")
		require.True(t, ok)
		assert.Len(t, v.([][]string), 1)
	})

	t.Run("header with no rows is an empty match", func(t *testing.T) {
		v, ok := fn("ID\tSTART\tEND\tSUMMARY\n")
		require.True(t, ok)
		assert.Empty(t, v.([][]string))
	})

	t.Run("short rows are dropped", func(t *testing.T) {
		v, ok := fn("ID\tSTART\tEND\tSUMMARY\ne1\tonly\tthree\ne2\ta\tb\tc")
		require.True(t, ok)
		rows := v.([][]string)
		require.Len(t, rows, 1)
		assert.Equal(t, "e2", rows[0][0])
	})

	t.Run("sentinel is an empty match, not a miss", func(t *testing.T) {
		for _, text := range []string{"no events", "No Events\n", "  NO EVENTS  "} {
			v, ok := fn(text)
			require.True(t, ok, "sentinel %q", text)
			assert.Empty(t, v.([][]string))
		}
	})

	t.Run("blank text is a miss", func(t *testing.T) {
		_, ok := fn("\n  \n")
		assert.False(t, ok)
	})

	t.Run("wrong header is a miss", func(t *testing.T) {
		_, ok := fn("NAME\tWHEN\ne1\tnow")
		assert.False(t, ok)
	})
}

func TestTableHeaderless(t *testing.T) {
	fn := Table("tsv", TableSpec{
		CollapseDelim: true,
		MinFields:     4,
		SkipPrefixes:  []string{"ID\t", "ID ", "Total:"},
	}).Fn

	t.Run("collapses tab runs and trims cells", func(t *testing.T) {
		text := "ID\tDATE\tFROM\tSUBJECT\n" +
			"t1\t\t2026-03-01 09:30\t\talice@example.com\t\tQuarterly report\tINBOX,UNREAD\n" +
			"Total: 1 thread\n"
		v, ok := fn(text)
		require.True(t, ok)
		rows := v.([][]string)
		require.Len(t, rows, 1)
		assert.Equal(t, []string{"t1", "2026-03-01 09:30", "alice@example.com", "Quarterly report", "INBOX,UNREAD"}, rows[0])
	})

	t.Run("skip prefixes also match their own trimmed line", func(t *testing.T) {
		_, ok := fn("ID\nTotal: 0 threads")
		assert.False(t, ok)
	})

	t.Run("data rows starting with the prefix text survive", func(t *testing.T) {
		v, ok := fn("ID123\t2026-03-01 10:00\tbob@example.com\tHello")
		require.True(t, ok)
		assert.Equal(t, "ID123", v.([][]string)[0][0])
	})

	t.Run("no parseable rows means no match", func(t *testing.T) {
		_, ok := fn("this output has\nno tabular structure")
		assert.False(t, ok)
	})
}

func TestBlocks(t *testing.T) {
	fn := Blocks("blocks", BlockSpec{
		HeaderSep:    " - ",
		SkipPrefixes: []string{"Total:"},
	}).Fn

	t.Run("paragraphs become blocks with fields", func(t *testing.T) {
		text := "ENG-101 - Fix flaky webhook retries\n" +
			"  Status: In Progress (started)\n" +
			"  Team: Platform\n" +
			"  State ID: st-9\n" +
			"\n" +
			"ENG-204 - Rotate signing keys\n" +
			"  Status: Todo\n" +
			"Total: 2 issues\n"
		v, ok := fn(text)
		require.True(t, ok)
		blocks := v.([]Block)
		require.Len(t, blocks, 2)
		assert.Equal(t, "ENG-101", blocks[0].First)
		assert.Equal(t, "Fix flaky webhook retries", blocks[0].Rest)
		assert.Equal(t, "In Progress (started)", blocks[0].Field("Status"))
		assert.Equal(t, "st-9", blocks[0].Field("State ID"))
		assert.Equal(t, "Platform", blocks[0].Field("Team"))
		assert.Equal(t, "Todo", blocks[1].Field("Status"))
	})

	t.Run("a new opener closes the previous block", func(t *testing.T) {
		v, ok := fn("A-1 - first\nA-2 - second")
		require.True(t, ok)
		assert.Len(t, v.([]Block), 2)
	})

	t.Run("lines before the first opener are ignored", func(t *testing.T) {
		v, ok := fn("Assigned issues:\nA-1 - only one\n  Status: Done\n")
		require.True(t, ok)
		blocks := v.([]Block)
		require.Len(t, blocks, 1)
		assert.Equal(t, "Done", blocks[0].Field("Status"))
	})

	t.Run("indented separator lines are not openers", func(t *testing.T) {
		v, ok := fn("A-1 - parent\n  child - not a header\n")
		require.True(t, ok)
		assert.Len(t, v.([]Block), 1)
	})

	t.Run("no openers means no match", func(t *testing.T) {
		_, ok := fn("nothing here resembles an issue listing\n")
		assert.False(t, ok)
	})
}

func TestHead(t *testing.T) {
	t.Run("short strings pass through", func(t *testing.T) {
		assert.Equal(t, "short", Head("short"))
	})

	t.Run("long output is capped", func(t *testing.T) {
		long := strings.Repeat("x", HeadLimit+500)
		assert.Len(t, Head(long), HeadLimit)
	})

	t.Run("truncation lands on a rune boundary", func(t *testing.T) {
		long := strings.Repeat("é", HeadLimit+100)
		head := Head(long)
		assert.True(t, utf8.ValidString(head))
		assert.Equal(t, HeadLimit, utf8.RuneCountInString(head))
	})
}

func TestDebug(t *testing.T) {
	d := Debug("  partial <output>  \n", strings.Repeat("e", HeadLimit+10))
	assert.True(t, d.ParseError)
	assert.Equal(t, "partial <output>", d.StdoutHead)
	assert.Len(t, d.StderrHead, HeadLimit)
}
