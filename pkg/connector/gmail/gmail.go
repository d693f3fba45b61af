// Package gmail syncs recent mail threads for one account via the gmcli
// tool. gmcli's output format has drifted across releases, so the parser
// tries the current tabular layout first, then whole-document JSON, then
// the freeform layouts older builds printed.
package gmail

import (
	"context"
	"fmt"
	"slices"
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
	name              = "gmail"
	defaultQuery      = "in:inbox is:unread"
	defaultMaxThreads = 50

	// gmcli prints dates as "YYYY-MM-DD HH:MM" in UTC
	dateLayout = "2006-01-02 15:04"
)

func init() {
	_ = connector.Register(name, func() connector.Connector { return New() })
}

// Connector pulls one account's matching threads into a snapshot.
type Connector struct{}

// New creates a mail connector.
func New() *Connector {
	return &Connector{}
}

// Name implements connector.Connector.
func (c *Connector) Name() string {
	return name
}

// Snapshot is the persisted mail document.
type Snapshot struct {
	LastSync string              `json:"last_sync"`
	Account  string              `json:"account"`
	Query    string              `json:"query"`
	Threads  []models.MailThread `json:"threads"`
	Stats    Stats               `json:"stats"`
}

// Stats summarizes the thread list. InboxTotal stays null until gmcli
// grows a mailbox-wide count to report.
type Stats struct {
	Unread     int  `json:"unread"`
	InboxTotal *int `json:"inbox_total"`
}

// Sync implements connector.Connector. Unlike the multi-account
// connectors there is no per-source error map here: with a single
// account, a failed search fails the run.
func (c *Connector) Sync(ctx context.Context, rc *connector.RunContext) (*connector.Result, error) {
	account := rc.Settings.String("account", "")
	if account == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "gmail account not configured in connector.md")
	}
	query := rc.Settings.String("query", defaultQuery)
	maxThreads := rc.Settings.Int("max_threads", defaultMaxThreads)

	rc.Events.Emit(events.Progress(fmt.Sprintf("gmcli search %s %q", account, query), 0.1))

	res, err := rc.Commands.Run(ctx, command.Command{
		Name: "gmcli",
		Args: []string{account, "search", query, "--max", strconv.Itoa(maxThreads)},
	})
	if err != nil {
		var notFound *command.NotFoundError
		var exit *command.ExitError
		switch {
		case errors.As(err, &notFound):
			return nil, errors.New(errors.ErrorTypeToolMissing, "gmcli not found in PATH")
		case errors.As(err, &exit):
			return nil, errors.New(errors.ErrorTypeCommand, "gmcli search failed").
				WithDetail("code", exit.Code).
				WithDetail("stderr", exit.Stderr)
		default:
			return nil, err
		}
	}

	threads := parseSearch(res.Stdout, rc.Logger)
	merged, _ := aggregate.Merge(
		[]aggregate.Group[models.MailThread]{{Source: account, Records: threads}},
		aggregate.Options[models.MailThread]{
			Key:   func(t models.MailThread) string { return t.ID },
			Limit: maxThreads,
		})

	unread := 0
	for _, t := range merged {
		if t.Unread {
			unread++
		}
	}

	now := rc.Now().UTC()
	return &connector.Result{
		State: Snapshot{
			LastSync: now.Format(time.RFC3339),
			Account:  account,
			Query:    query,
			Threads:  merged,
			Stats:    Stats{Unread: unread},
		},
		Summary:  map[string]interface{}{"threads": len(merged), "account": account},
		Artifact: "Updated gmail index state",
	}, nil
}

// parseSearch runs the format chain over gmcli output. Blank output is an
// empty mailbox, not a failure.
func parseSearch(stdout string, log *zap.Logger) []models.MailThread {
	raw := strings.TrimSpace(stdout)
	out := parse.Chain(raw,
		parse.Table("tsv", parse.TableSpec{
			CollapseDelim: true,
			MinFields:     4,
			SkipPrefixes:  []string{"ID\t", "ID ", "Total:"},
		}),
		parse.WholeJSON(),
		parse.Named{Name: "freeform", Fn: freeform},
	)
	if !out.Matched() {
		if raw != "" {
			log.Debug("no parser matched mail output", zap.Int("stdout_len", len(raw)))
		}
		return nil
	}

	var threads []models.MailThread
	switch v := out.Value.(type) {
	case [][]string:
		for _, row := range v {
			threads = append(threads, fromRow(row))
		}
	case []models.MailThread:
		threads = v
	default:
		for _, m := range parse.ObjectsAt(v, "threads", "results", "messages") {
			if t, ok := fromObject(m); ok {
				threads = append(threads, t)
			}
		}
	}
	return threads
}

// fromRow maps one tabular row: ID, DATE, FROM, SUBJECT, then an optional
// comma-joined label column. When the tool reports labels the flags come
// from membership; without them every matched thread counts as unread
// inbox mail, since that is what the default query selects.
func fromRow(row []string) models.MailThread {
	var labels []string
	if len(row) >= 5 {
		for _, l := range strings.Split(row[4], ",") {
			if l != "" {
				labels = append(labels, l)
			}
		}
	}
	t := models.MailThread{
		ID:      row[0],
		Subject: row[3],
		From:    row[2],
		Date:    reencodeDate(row[1]),
		Labels:  labels,
		Unread:  true,
		Inbox:   true,
	}
	if len(labels) > 0 {
		t.Unread = slices.Contains(labels, "UNREAD")
		t.Inbox = slices.Contains(labels, "INBOX")
		t.Starred = slices.Contains(labels, "STARRED")
	}
	return t
}

// fromObject maps one JSON thread object. Identity sits under different
// keys depending on which gmcli mode produced the document.
func fromObject(m map[string]interface{}) (models.MailThread, bool) {
	id := parse.FirstString(m, "threadId", "thread_id", "id")
	if id == "" {
		return models.MailThread{}, false
	}
	return models.MailThread{
		ID:      id,
		Subject: parse.FirstString(m, "subject", "title"),
		From:    parse.FirstString(m, "from", "sender"),
		Date:    parse.FirstString(m, "date", "internalDate"),
		Unread:  true,
		Inbox:   true,
	}, true
}

// freeform absorbs the line-oriented layouts older gmcli builds printed:
// pipe-delimited columns, or a bare id followed by the subject. Every
// surviving line yields a thread, which is why this strategy runs last.
func freeform(text string) (interface{}, bool) {
	var threads []models.MailThread
	for _, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "ID") && strings.Contains(line, "DATE") && strings.Contains(line, "SUBJECT") {
			continue
		}
		if parts := strings.Split(line, "|"); len(parts) >= 3 {
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			threads = append(threads, models.MailThread{
				ID:      parts[0],
				Subject: strings.Join(parts[2:], " | "),
				From:    parts[1],
				Unread:  true,
				Inbox:   true,
			})
			continue
		}
		id := strings.Fields(line)[0]
		threads = append(threads, models.MailThread{
			ID:      id,
			Subject: strings.TrimSpace(strings.TrimPrefix(line, id)),
			Unread:  true,
			Inbox:   true,
		})
	}
	if len(threads) == 0 {
		return nil, false
	}
	return threads, true
}

// reencodeDate converts gmcli's date stamp to RFC3339 UTC; anything else
// passes through untouched.
func reencodeDate(raw string) string {
	if ts, err := time.Parse(dateLayout, raw); err == nil {
		return ts.UTC().Format(time.RFC3339)
	}
	return raw
}
