package events

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inletlabs/inlet/pkg/json"
)

func TestStreamEmitsOneLinePerEvent(t *testing.T) {
	var buf bytes.Buffer
	stream := NewStream(&buf)

	stream.Emit(Progress("gccli work@example.com events primary", 0.1))
	stream.Emit(Artifact("state/gcal.json", "Updated calendar index state"))
	stream.Emit(Result(true, map[string]interface{}{"events": 4}))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)

	var first map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "progress", first["type"])
	assert.Equal(t, "gccli work@example.com events primary", first["message"])
	assert.InDelta(t, 0.1, first["pct"], 1e-9)

	var last map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &last))
	assert.Equal(t, "result", last["type"])
	assert.Equal(t, true, last["ok"])
}

func TestStreamEncodesFailedResult(t *testing.T) {
	var buf bytes.Buffer
	NewStream(&buf).Emit(Result(false, nil))

	// ok must survive encoding even when false
	assert.Contains(t, buf.String(), `"ok":false`)
}

func TestStreamErrorEventCarriesDetails(t *testing.T) {
	var buf bytes.Buffer
	NewStream(&buf).Emit(Error("gmcli exited with status 2", map[string]interface{}{
		"code":   2,
		"stderr": "auth expired",
	}))

	var ev map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &ev))
	assert.Equal(t, "error", ev["type"])

	details, ok := ev["details"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "auth expired", details["stderr"])
}

func TestStreamOmitsUnusedFields(t *testing.T) {
	var buf bytes.Buffer
	NewStream(&buf).Emit(Progress("fetch", 0.5))

	line := buf.String()
	assert.NotContains(t, line, `"ok"`)
	assert.NotContains(t, line, `"data"`)
	assert.NotContains(t, line, `"path"`)
}

func TestStreamFlushesBufferedWriters(t *testing.T) {
	var buf bytes.Buffer
	bw := bufio.NewWriterSize(&buf, 1<<16)

	NewStream(bw).Emit(Progress("fetch", 0.2))

	// the event must be visible without an explicit Flush by the caller
	assert.Contains(t, buf.String(), `"type":"progress"`)
}

func TestRecorder(t *testing.T) {
	rec := NewRecorder()
	rec.Emit(Progress("a", 0.1))
	rec.Emit(Progress("b", 0.5))
	rec.Emit(Result(true, nil))

	assert.Equal(t, []Type{TypeProgress, TypeProgress, TypeResult}, rec.Types())
	assert.Len(t, rec.OfType(TypeProgress), 2)
	assert.Equal(t, TypeResult, rec.Last().Type)
	assert.Equal(t, "a", rec.Events()[0].Message)
}

func TestRecorderEmptyLast(t *testing.T) {
	assert.Equal(t, Event{}, NewRecorder().Last())
}
