package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inletlabs/inlet/pkg/errors"
)

func TestRunConfigValidate(t *testing.T) {
	assert.NoError(t, (&RunConfig{BaseDir: "/tmp/inlet"}).Validate())

	err := (&RunConfig{}).Validate()
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	err = (&RunConfig{BaseDir: "   "}).Validate()
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestRunConfigPaths(t *testing.T) {
	cfg := &RunConfig{BaseDir: filepath.Join("/", "home", "me", ".inlet")}

	assert.Equal(t, filepath.Join(cfg.BaseDir, "connectors", "gcal"), cfg.ConnectorDir("gcal"))
	assert.Equal(t, filepath.Join(cfg.BaseDir, "connectors", "gcal", "connector.md"), cfg.ConnectorDoc("gcal"))
	assert.Equal(t, filepath.Join(cfg.BaseDir, "state", "gcal.json"), cfg.StatePath("gcal"))
	assert.Equal(t, "state/gcal.json", cfg.StateRel("gcal"))
	assert.Equal(t, filepath.Join(cfg.BaseDir, "journal"), cfg.JournalDir())
}

func TestRunConfigClock(t *testing.T) {
	fixed := time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC)
	cfg := &RunConfig{BaseDir: "/tmp", Clock: func() time.Time { return fixed }}
	assert.Equal(t, fixed, cfg.Now())

	// nil clock falls back to the real one
	assert.WithinDuration(t, time.Now(), (&RunConfig{BaseDir: "/tmp"}).Now(), time.Minute)
}

func TestSettingsAccessors(t *testing.T) {
	s := Settings{
		"calendar_id": "team-calendar",
		"max_events":  25,
		"days_back":   "3",
		"ratio":       2.0,
		"zero":        0,
		"verbose":     true,
		"quiet":       "false",
		"empty":       "",
	}

	t.Run("string", func(t *testing.T) {
		assert.Equal(t, "team-calendar", s.String("calendar_id", "primary"))
		assert.Equal(t, "primary", s.String("missing", "primary"))
		assert.Equal(t, "primary", s.String("empty", "primary"))
		assert.Equal(t, "25", s.String("max_events", ""))
	})

	t.Run("int", func(t *testing.T) {
		assert.Equal(t, 25, s.Int("max_events", 50))
		assert.Equal(t, 3, s.Int("days_back", 1))
		assert.Equal(t, 2, s.Int("ratio", 0))
		assert.Equal(t, 50, s.Int("missing", 50))
		assert.Equal(t, 50, s.Int("calendar_id", 50))
		assert.Equal(t, 50, s.Int("zero", 50), "explicit zero means unconfigured")
	})

	t.Run("bool", func(t *testing.T) {
		assert.True(t, s.Bool("verbose", false))
		assert.False(t, s.Bool("quiet", true))
		assert.True(t, s.Bool("missing", true))
	})
}

func TestSettingsStringList(t *testing.T) {
	s := Settings{
		"accounts": []interface{}{"work@example.com", "home@example.com", ""},
		"account":  "solo@example.com",
		"limits":   []interface{}{10, 20},
	}

	assert.Equal(t, []string{"work@example.com", "home@example.com"}, s.StringList("accounts"))
	assert.Equal(t, []string{"solo@example.com"}, s.StringList("account"), "scalar promotes to one-element list")
	assert.Equal(t, []string{"10", "20"}, s.StringList("limits"))
	assert.Nil(t, s.StringList("missing"))
}

func TestParseFrontmatter(t *testing.T) {
	t.Run("well-formed document", func(t *testing.T) {
		doc := "---\naccounts:\n  - work@example.com\nmax_events: 25\n---\n# Calendar connector\n\nNotes.\n"

		settings, body, err := ParseFrontmatter(doc)
		require.NoError(t, err)
		assert.Equal(t, []string{"work@example.com"}, settings.StringList("accounts"))
		assert.Equal(t, 25, settings.Int("max_events", 50))
		assert.Equal(t, "# Calendar connector\n\nNotes.\n", body)
	})

	t.Run("no frontmatter", func(t *testing.T) {
		settings, body, err := ParseFrontmatter("just a readme\n")
		require.NoError(t, err)
		assert.Empty(t, settings)
		assert.Equal(t, "just a readme\n", body)
	})

	t.Run("empty frontmatter block", func(t *testing.T) {
		settings, _, err := ParseFrontmatter("---\n---\nbody\n")
		require.NoError(t, err)
		assert.Empty(t, settings)
	})

	t.Run("unterminated frontmatter", func(t *testing.T) {
		_, _, err := ParseFrontmatter("---\naccounts: [a]\n")
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, _, err := ParseFrontmatter("---\n\taccounts: [a]\n---\n")
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	})

	t.Run("env substitution", func(t *testing.T) {
		t.Setenv("INLET_TEST_ACCOUNT", "work@example.com")

		settings, _, err := ParseFrontmatter("---\naccount: ${INLET_TEST_ACCOUNT}\n---\n")
		require.NoError(t, err)
		assert.Equal(t, "work@example.com", settings.String("account", ""))
	})
}

func TestLoadSettings(t *testing.T) {
	t.Run("missing document yields defaults", func(t *testing.T) {
		settings, err := LoadSettings(filepath.Join(t.TempDir(), "connector.md"))
		require.NoError(t, err)
		assert.Empty(t, settings)
		assert.Equal(t, 50, settings.Int("max_events", 50))
	})

	t.Run("reads frontmatter from disk", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "connector.md")
		require.NoError(t, os.WriteFile(path, []byte("---\nassignee: me\nlimit: 10\n---\n"), 0o644))

		settings, err := LoadSettings(path)
		require.NoError(t, err)
		assert.Equal(t, "me", settings.String("assignee", ""))
		assert.Equal(t, 10, settings.Int("limit", 50))
	})

	t.Run("malformed document is a config error", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "connector.md")
		require.NoError(t, os.WriteFile(path, []byte("---\naccounts: [unclosed\n"), 0o644))

		_, err := LoadSettings(path)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	})
}
