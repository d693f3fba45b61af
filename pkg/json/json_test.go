package json

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalRoundTrip(t *testing.T) {
	in := map[string]interface{}{"id": "evt-1", "count": 3.0}

	data, err := Marshal(in)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestEncoderDoesNotEscapeHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewEncoder(&buf).Encode(map[string]string{
		"url": "https://example.com/pulls?q=is:pr&state=open",
	}))

	assert.Contains(t, buf.String(), "q=is:pr&state=open")
	assert.NotContains(t, buf.String(), "u0026")
}

func TestEncodeLine(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeLine(&buf, map[string]string{"type": "progress"}))
	require.NoError(t, EncodeLine(&buf, map[string]string{"type": "result"}))

	lines := bytes.Split(bytes.TrimRight(buf.Bytes(), "\n"), []byte("\n"))
	require.Len(t, lines, 2)
	for _, line := range lines {
		assert.True(t, Valid(line), "each line must be a standalone JSON document")
	}
}

func TestValid(t *testing.T) {
	assert.True(t, Valid([]byte(`{"ok":true}`)))
	assert.False(t, Valid([]byte(`{"ok":`)))
}
