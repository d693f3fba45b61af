// Package gcal syncs calendar events for one or more accounts via the
// gccli tool. Accounts are fetched sequentially; a failing account is
// recorded in the snapshot's error map and the run continues, so one
// expired credential never hides the other calendars.
package gcal

import (
	"context"
	"fmt"
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
	name              = "gcal"
	defaultCalendarID = "primary"
	defaultMaxEvents  = 50
	defaultDaysBack   = 1
	defaultDaysAhead  = 14
)

func init() {
	_ = connector.Register(name, func() connector.Connector { return New() })
}

// Connector pulls events per account and merges them into one snapshot.
type Connector struct{}

// New creates a calendar connector.
func New() *Connector {
	return &Connector{}
}

// Name implements connector.Connector.
func (c *Connector) Name() string {
	return name
}

// Snapshot is the persisted calendar document. Errors and Debug marshal as
// null when empty so a clean run is visibly clean in diffs.
type Snapshot struct {
	LastSync   string                        `json:"last_sync"`
	Accounts   []string                      `json:"accounts"`
	CalendarID string                        `json:"calendar_id"`
	Range      models.TimeRange              `json:"range"`
	Events     []models.CalendarEvent        `json:"events"`
	Stats      Stats                         `json:"stats"`
	Errors     map[string]models.SourceError `json:"errors"`
	Debug      map[string]models.ParseDebug  `json:"debug"`
}

// Stats summarizes the merged event list. PerAccount counts are pre-dedup,
// and an account that fetched successfully but parsed to nothing still
// appears with a zero.
type Stats struct {
	Count      int            `json:"count"`
	PerAccount map[string]int `json:"per_account_count"`
}

// Sync implements connector.Connector.
func (c *Connector) Sync(ctx context.Context, rc *connector.RunContext) (*connector.Result, error) {
	accounts := rc.Settings.StringList("accounts")
	if len(accounts) == 0 {
		if fallback := rc.Settings.String("account", ""); fallback != "" {
			accounts = []string{fallback}
		}
	}
	if len(accounts) == 0 {
		return nil, errors.New(errors.ErrorTypeConfig, "gcal accounts not configured in connector.md")
	}

	calendarID := rc.Settings.String("calendar_id", defaultCalendarID)
	maxEvents := rc.Settings.Int("max_events", defaultMaxEvents)
	daysBack := rc.Settings.Int("days_back", defaultDaysBack)
	daysAhead := rc.Settings.Int("days_ahead", defaultDaysAhead)

	now := rc.Now().UTC()
	window := models.TimeRange{
		From:      now.AddDate(0, 0, -daysBack).Format(time.RFC3339),
		To:        now.AddDate(0, 0, daysAhead).Format(time.RFC3339),
		DaysBack:  daysBack,
		DaysAhead: daysAhead,
	}

	var groups []aggregate.Group[models.CalendarEvent]
	srcErrors := map[string]models.SourceError{}
	debug := map[string]models.ParseDebug{}

	for idx, account := range accounts {
		pct := 0.1 + 0.7*float64(idx)/float64(max(len(accounts), 1))
		rc.Events.Emit(events.Progress(fmt.Sprintf("gccli %s events %s", account, calendarID), pct))

		res, err := rc.Commands.Run(ctx, command.Command{
			Name: "gccli",
			Args: []string{
				account, "events", calendarID,
				"--from", window.From,
				"--to", window.To,
				"--max", strconv.Itoa(maxEvents),
			},
		})
		if err != nil {
			var notFound *command.NotFoundError
			var exit *command.ExitError
			switch {
			case errors.As(err, &notFound):
				return nil, errors.New(errors.ErrorTypeToolMissing, "gccli not found in PATH")
			case errors.As(err, &exit):
				srcErrors[account] = models.SourceError{Code: exit.Code, Stderr: exit.Stderr}
				rc.Logger.Warn("calendar fetch failed",
					zap.String("account", account),
					zap.Int("code", exit.Code))
				continue
			default:
				return nil, err
			}
		}

		recs, dbg := parseAccount(res.Stdout, res.Stderr, account, calendarID, rc.Logger)
		if dbg != nil {
			debug[account] = *dbg
		}
		groups = append(groups, aggregate.Group[models.CalendarEvent]{Source: account, Records: recs})
	}

	merged, counts := aggregate.Merge(groups, aggregate.Options[models.CalendarEvent]{
		Key:     func(e models.CalendarEvent) string { return e.ID },
		SortKey: func(e models.CalendarEvent) string { return e.Start },
		Limit:   maxEvents,
	})

	if len(srcErrors) == 0 {
		srcErrors = nil
	}
	if len(debug) == 0 {
		debug = nil
	}

	summary := map[string]interface{}{
		"events":      len(merged),
		"accounts":    accounts,
		"calendar_id": calendarID,
	}
	if len(srcErrors) > 0 {
		summary["errors"] = srcErrors
	}

	return &connector.Result{
		State: Snapshot{
			LastSync:   now.Format(time.RFC3339),
			Accounts:   accounts,
			CalendarID: calendarID,
			Range:      window,
			Events:     merged,
			Stats:      Stats{Count: len(merged), PerAccount: counts},
			Errors:     srcErrors,
			Debug:      debug,
		},
		Summary:  summary,
		Artifact: "Updated calendar index state",
	}, nil
}

// parseAccount runs the format chain over one account's output and
// normalizes whatever matched. A nil debug means some parser accepted the
// text, even if it held zero events.
func parseAccount(stdout, stderr, account, calendarID string, log *zap.Logger) ([]models.CalendarEvent, *models.ParseDebug) {
	raw := strings.TrimSpace(stdout)
	out := parse.Chain(raw,
		parse.EmbeddedJSON(),
		parse.WholeJSON(),
		parse.Table("tsv", parse.TableSpec{
			Header:    []string{"ID", "START", "END", "SUMMARY"},
			MinFields: 4,
			Sentinels: []string{"no events"},
		}),
	)
	if !out.Matched() {
		log.Debug("no parser matched calendar output",
			zap.String("account", account),
			zap.Int("stdout_len", len(raw)))
		dbg := parse.Debug(raw, stderr)
		return nil, &dbg
	}

	var recs []models.CalendarEvent
	switch v := out.Value.(type) {
	case [][]string:
		for _, row := range v {
			payload := map[string]interface{}{
				"id":      strings.TrimSpace(row[0]),
				"start":   strings.TrimSpace(row[1]),
				"end":     strings.TrimSpace(row[2]),
				"summary": strings.TrimSpace(strings.Join(row[3:], "\t")),
			}
			if ev, ok := normalize(payload, account, calendarID); ok {
				recs = append(recs, ev)
			}
		}
	default:
		for _, m := range parse.ObjectsAt(v, "events", "items") {
			if ev, ok := normalize(m, account, calendarID); ok {
				recs = append(recs, ev)
			}
		}
	}
	return recs, nil
}

// normalize builds one canonical event. Identity is mandatory: a payload
// without an id is dropped rather than invented.
func normalize(raw map[string]interface{}, account, calendarID string) (models.CalendarEvent, bool) {
	id := parse.FirstString(raw, "id", "eventId")
	if id == "" {
		return models.CalendarEvent{}, false
	}
	ev := models.CalendarEvent{
		ID:         id,
		Summary:    parse.FirstString(raw, "summary", "title"),
		Start:      parse.NestedString(parse.First(raw, "start", "startTime"), "dateTime", "date"),
		End:        parse.NestedString(parse.First(raw, "end", "endTime"), "dateTime", "date"),
		Account:    account,
		CalendarID: calendarID,
		Attendees:  parse.StringsAt(raw["attendees"], "email"),
	}
	ev.Location = passthrough(raw, "location")
	ev.Description = passthrough(raw, "description")
	ev.HTMLLink = passthrough(raw, "htmlLink")
	return ev, true
}

// passthrough returns a pointer only when the field is present and
// non-null, preserving the omitted-vs-empty distinction in the snapshot.
func passthrough(raw map[string]interface{}, key string) *string {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil
	}
	s := parse.Str(v)
	return &s
}
