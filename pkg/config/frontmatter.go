package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/inletlabs/inlet/pkg/errors"
)

// ParseFrontmatter extracts the YAML frontmatter block from a markdown
// settings document. The block is delimited by `---` lines and must open on
// the first line; a document without one parses as empty Settings with the
// whole text as body. `${VAR_NAME}` references inside the block are replaced
// with environment variable values before decoding, so account names and
// tokens can stay out of dotfiles.
func ParseFrontmatter(raw string) (Settings, string, error) {
	lines := strings.Split(raw, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return Settings{}, raw, nil
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			end = i
			break
		}
	}
	if end == -1 {
		return nil, "", errors.New(errors.ErrorTypeConfig, "frontmatter: missing closing ---")
	}

	yml := substituteEnvVars(strings.Join(lines[1:end], "\n"))

	var fm map[string]interface{}
	if err := yaml.Unmarshal([]byte(yml), &fm); err != nil {
		return nil, "", errors.Wrap(err, errors.ErrorTypeConfig, "frontmatter: invalid YAML")
	}
	if fm == nil {
		fm = map[string]interface{}{}
	}

	body := strings.Join(lines[end+1:], "\n")
	body = strings.TrimPrefix(body, "\n")
	return Settings(fm), body, nil
}

// LoadSettings reads a connector's settings document. A missing document is
// not an error: the connector runs with every documented default.
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Settings{}, nil
		}
		return nil, errors.Wrapf(err, errors.ErrorTypeConfig, "failed to read settings document %s", path)
	}

	settings, _, err := ParseFrontmatter(string(data))
	if err != nil {
		return nil, err
	}
	return settings, nil
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
func substituteEnvVars(content string) string {
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		varName := content[start+2 : end]
		envValue := os.Getenv(varName)
		content = content[:start] + envValue + content[end+1:]
	}
	return content
}
