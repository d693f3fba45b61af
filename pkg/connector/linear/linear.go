// Package linear syncs assigned tracker issues by running the vendored
// issues.js script under node. The script owns the API access and prints a
// human-oriented listing; this connector turns that listing back into
// structured records.
package linear

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/inletlabs/inlet/pkg/aggregate"
	"github.com/inletlabs/inlet/pkg/command"
	"github.com/inletlabs/inlet/pkg/connector"
	"github.com/inletlabs/inlet/pkg/errors"
	"github.com/inletlabs/inlet/pkg/events"
	"github.com/inletlabs/inlet/pkg/models"
	"github.com/inletlabs/inlet/pkg/parse"
)

const (
	name            = "linear"
	defaultAssignee = "me"
	defaultLimit    = 50
)

func init() {
	_ = connector.Register(name, func() connector.Connector { return New() })
}

// Connector pulls the assigned-issue list into a snapshot.
type Connector struct{}

// New creates an issue-tracker connector.
func New() *Connector {
	return &Connector{}
}

// Name implements connector.Connector.
func (c *Connector) Name() string {
	return name
}

// Snapshot is the persisted issue-tracker document.
type Snapshot struct {
	LastSync string                `json:"last_sync"`
	Assignee string                `json:"assignee"`
	Issues   []models.TrackerIssue `json:"issues"`
	Stats    Stats                 `json:"stats"`
}

// Stats summarizes the issue list.
type Stats struct {
	Count int `json:"count"`
}

// Sync implements connector.Connector.
func (c *Connector) Sync(ctx context.Context, rc *connector.RunContext) (*connector.Result, error) {
	assignee := rc.Settings.String("assignee", defaultAssignee)
	limit := rc.Settings.Int("limit", defaultLimit)

	// The script ships with the connector's files, not with the binary;
	// a missing script is a setup problem, not a tool problem.
	vendorDir := filepath.Join(rc.Config.ConnectorDir(name), "vendor")
	issuesJS := filepath.Join(vendorDir, "issues.js")
	if _, err := os.Stat(issuesJS); err != nil {
		return nil, errors.New(errors.ErrorTypeConfig, "linear vendor/issues.js not found")
	}

	rc.Events.Emit(events.Progress(fmt.Sprintf("Fetching issues (assignee=%s, limit=%d)", assignee, limit), 0.1))

	res, err := rc.Commands.Run(ctx, command.Command{
		Name: "node",
		Args: []string{issuesJS, "--assignee", assignee, "--limit", strconv.Itoa(limit)},
		Dir:  vendorDir,
	})
	if err != nil {
		var notFound *command.NotFoundError
		var exit *command.ExitError
		switch {
		case errors.As(err, &notFound):
			return nil, errors.New(errors.ErrorTypeToolMissing, "node not found in PATH")
		case errors.As(err, &exit):
			return nil, errors.New(errors.ErrorTypeCommand, "linear issues.js failed").
				WithDetail("code", exit.Code).
				WithDetail("stderr", exit.Stderr)
		default:
			return nil, err
		}
	}

	issues := parseIssues(res.Stdout, assignee, rc.Logger)
	merged, _ := aggregate.Merge(
		[]aggregate.Group[models.TrackerIssue]{{Source: assignee, Records: issues}},
		aggregate.Options[models.TrackerIssue]{
			Key:   func(i models.TrackerIssue) string { return i.Identifier },
			Limit: limit,
		})

	return &connector.Result{
		State: Snapshot{
			LastSync: rc.Now().UTC().Format(time.RFC3339),
			Assignee: assignee,
			Issues:   merged,
			Stats:    Stats{Count: len(merged)},
		},
		Summary:  map[string]interface{}{"issues": len(merged), "assignee": assignee},
		Artifact: "Updated linear index state",
	}, nil
}

// parseIssues runs the format chain over the script's output. The block
// grammar is what issues.js prints today ("ABC-123 - Title" headers with
// indented detail lines); the JSON strategies cover a script upgraded to
// structured output.
func parseIssues(stdout, assignee string, log *zap.Logger) []models.TrackerIssue {
	raw := strings.TrimSpace(stdout)
	out := parse.Chain(raw,
		parse.EmbeddedJSON(),
		parse.WholeJSON(),
		parse.Blocks("blocks", parse.BlockSpec{
			HeaderSep:    " - ",
			SkipPrefixes: []string{"Total:"},
		}),
	)
	if !out.Matched() {
		if raw != "" {
			log.Debug("no parser matched tracker output", zap.Int("stdout_len", len(raw)))
		}
		return nil
	}

	var issues []models.TrackerIssue
	switch v := out.Value.(type) {
	case []parse.Block:
		for _, b := range v {
			if b.First == "" {
				continue
			}
			issues = append(issues, models.TrackerIssue{
				Identifier:         b.First,
				Title:              b.Rest,
				Assignee:           assignee,
				Status:             b.Field("Status"),
				Team:               b.Field("Team"),
				AssigneeName:       b.Field("Assignee"),
				ID:                 b.Field("ID"),
				StateID:            b.Field("State ID"),
				DescriptionPreview: b.Field("Description"),
			})
		}
	default:
		for _, m := range parse.ObjectsAt(v, "issues", "nodes") {
			if issue, ok := fromObject(m, assignee); ok {
				issues = append(issues, issue)
			}
		}
	}
	return issues
}

// fromObject maps one structured issue, probing both the flat spellings of
// the text format and the nested shapes the tracker API uses.
func fromObject(m map[string]interface{}, assignee string) (models.TrackerIssue, bool) {
	identifier := parse.FirstString(m, "identifier", "id")
	if identifier == "" {
		return models.TrackerIssue{}, false
	}
	stateID := parse.FirstString(m, "state_id", "stateId")
	if stateID == "" {
		if st, ok := m["state"].(map[string]interface{}); ok {
			stateID = parse.FirstString(st, "id")
		}
	}
	return models.TrackerIssue{
		Identifier:         identifier,
		Title:              parse.FirstString(m, "title"),
		Assignee:           assignee,
		Status:             parse.NestedString(parse.First(m, "status", "state"), "name"),
		Team:               parse.NestedString(parse.First(m, "team"), "name", "key"),
		AssigneeName:       parse.NestedString(parse.First(m, "assignee_name", "assignee"), "name", "displayName"),
		ID:                 parse.FirstString(m, "id"),
		StateID:            stateID,
		DescriptionPreview: parse.FirstString(m, "description_preview", "description"),
	}, true
}
