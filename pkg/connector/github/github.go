// Package github syncs the review feed via the gh CLI: the authenticated
// user, every logged-in account, the notification inbox, recently authored
// pull requests per account, and open items in explicitly tracked
// repositories. Only the identity probe is load-bearing; every later phase
// degrades to a recorded error so a rate-limited API never hides the rest
// of the feed.
package github

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
	"github.com/inletlabs/inlet/pkg/json"
	"github.com/inletlabs/inlet/pkg/models"
	"github.com/inletlabs/inlet/pkg/parse"
)

const (
	name                    = "github"
	defaultMaxNotifications = 50
	defaultMaxItems         = 30
	defaultTrackedLimit     = 10

	// The GraphQL search caps page size at 50 regardless of what the
	// caller asks for.
	searchPageCap = 50

	itemFields = "title,url,number,state,updatedAt,author"
)

const graphqlSearchPRs = `query($q: String!, $first: Int!) {
  search(query: $q, type: ISSUE, first: $first) {
    nodes {
      __typename
      ... on PullRequest {
        title
        url
        updatedAt
        state
        number
        repository { nameWithOwner }
        author { login }
      }
    }
  }
}`

func init() {
	_ = connector.Register(name, func() connector.Connector { return New() })
}

// Connector assembles the review feed snapshot.
type Connector struct{}

// New creates a review-feed connector.
func New() *Connector {
	return &Connector{}
}

// Name implements connector.Connector.
func (c *Connector) Name() string {
	return name
}

// Snapshot is the persisted review-feed document. NotificationsError and
// ItemsError marshal as null on a clean run.
type Snapshot struct {
	LastSync           string                `json:"last_sync"`
	User               models.User           `json:"user"`
	Accounts           []models.Account      `json:"accounts"`
	Notifications      []models.Notification `json:"notifications"`
	NotificationsError *string               `json:"notifications_error"`
	Items              []models.ReviewItem   `json:"items"`
	ItemsError         map[string]string     `json:"items_error"`
	Stats              Stats                 `json:"stats"`
}

// Stats summarizes the snapshot's lists.
type Stats struct {
	NotificationsCount  int `json:"notifications_count"`
	NotificationsUnread int `json:"notifications_unread"`
	ItemsCount          int `json:"items_count"`
	AccountsCount       int `json:"accounts_count"`
}

// Sync implements connector.Connector.
func (c *Connector) Sync(ctx context.Context, rc *connector.RunContext) (*connector.Result, error) {
	maxNotifications := rc.Settings.Int("max_notifications", defaultMaxNotifications)
	maxItems := rc.Settings.Int("max_items", defaultMaxItems)
	trackedLimit := rc.Settings.Int("tracked_repo_limit", defaultTrackedLimit)
	trackedRepos := rc.Settings.StringList("tracked_repos")

	// Identity probe. This is the one phase that must succeed: without it
	// there is no point fetching anything else.
	rc.Events.Emit(events.Progress("gh api user", 0.1))
	userRes, err := rc.Commands.Run(ctx, command.Command{Name: "gh", Args: []string{"api", "user"}})
	if err != nil {
		var notFound *command.NotFoundError
		var exit *command.ExitError
		switch {
		case errors.As(err, &notFound):
			return nil, errors.New(errors.ErrorTypeToolMissing, "gh not found in PATH")
		case errors.As(err, &exit):
			return nil, errors.New(errors.ErrorTypeCommand, "gh api user failed").
				WithDetail("code", exit.Code).
				WithDetail("stderr", exit.Stderr)
		default:
			return nil, err
		}
	}
	var userPayload map[string]interface{}
	if err := json.Unmarshal([]byte(userRes.Stdout), &userPayload); err != nil {
		rc.Logger.Debug("gh api user returned non-JSON", zap.Int("stdout_len", len(userRes.Stdout)))
	}
	user := models.User{
		Login: parse.FirstString(userPayload, "login"),
		Name:  parse.FirstString(userPayload, "name"),
	}

	// Account inventory. A failing auth probe just means zero accounts.
	rc.Events.Emit(events.Progress("gh auth status", 0.3))
	accounts := []models.Account{}
	authRes, err := rc.Commands.Run(ctx, command.Command{Name: "gh", Args: []string{"auth", "status"}})
	switch {
	case err == nil:
		accounts = parseAuthStatus(authRes.Stdout)
	case isExit(err):
		rc.Logger.Warn("gh auth status failed, assuming no accounts")
	default:
		return nil, err
	}

	// Notification inbox.
	rc.Events.Emit(events.Progress("gh api /notifications", 0.5))
	var notificationsError *string
	notifications := []models.Notification{}
	nRes, err := rc.Commands.Run(ctx, command.Command{Name: "gh", Args: []string{
		"api", "/notifications",
		"-H", "Accept: application/vnd.github+json",
		"-F", fmt.Sprintf("per_page=%d", maxNotifications),
	}})
	var exit *command.ExitError
	switch {
	case err == nil:
		notifications = normalizeNotifications(nRes.Stdout)
	case errors.As(err, &exit):
		msg := stderrOr(exit, fmt.Sprintf("gh api /notifications failed (code=%d)", exit.Code))
		notificationsError = &msg
		rc.Logger.Warn("notification fetch failed", zap.Int("code", exit.Code))
	default:
		return nil, err
	}

	// Authored pull requests, one GraphQL search per account.
	var items []models.ReviewItem
	itemsErrors := map[string]string{}
	var logins []string
	for _, a := range accounts {
		if a.Login != "" {
			logins = append(logins, a.Login)
		}
	}
	rc.Events.Emit(events.Progress("gh api graphql (recent PRs)", 0.7))
	for idx, login := range logins {
		query := fmt.Sprintf("is:pr author:%s sort:updated-desc", login)
		nodes, err := searchPRs(ctx, rc.Commands, query, min(maxItems, searchPageCap))
		switch {
		case err == nil:
			for _, n := range nodes {
				items = append(items, models.ReviewItem{
					Kind:      "pr",
					Title:     parse.FirstString(n, "title"),
					URL:       parse.FirstString(n, "url"),
					Repo:      parse.NestedString(n["repository"], "nameWithOwner"),
					Number:    parse.IntAt(n, "number"),
					State:     parse.FirstString(n, "state"),
					UpdatedAt: parse.FirstString(n, "updatedAt"),
					Account:   login,
					Source:    "authored",
				})
			}
		case isExit(err):
			var e *command.ExitError
			errors.As(err, &e)
			itemsErrors["prs:"+login] = stderrOr(e, fmt.Sprintf("gh api graphql failed (code=%d)", e.Code))
		case isNotFound(err):
			return nil, err
		default:
			itemsErrors["prs:"+login] = err.Error()
		}
		pct := 0.7 + 0.1*float64(idx+1)/float64(max(len(logins), 1))
		rc.Events.Emit(events.Progress("recent PRs: "+login, pct))
	}

	// Open items in tracked repositories. Both lists share one error slot
	// per repo; pull requests fetched before a failing issue list survive.
	if len(trackedRepos) > 0 {
		rc.Events.Emit(events.Progress("gh repo items (tracked repos)", 0.82))
	}
	for _, repo := range trackedRepos {
		for _, kind := range []string{"pr", "issue"} {
			payload, err := ghJSON(ctx, rc.Commands, kind, "list", "-R", repo,
				"--limit", strconv.Itoa(trackedLimit), "--json", itemFields)
			if err != nil {
				switch {
				case isExit(err):
					var e *command.ExitError
					errors.As(err, &e)
					itemsErrors["tracked:"+repo] = stderrOr(e, fmt.Sprintf("gh list failed (code=%d)", e.Code))
				case isNotFound(err):
					return nil, err
				default:
					itemsErrors["tracked:"+repo] = err.Error()
				}
				break
			}
			for _, n := range parse.Objects(payload) {
				items = append(items, models.ReviewItem{
					Kind:      kind,
					Title:     parse.FirstString(n, "title"),
					URL:       parse.FirstString(n, "url"),
					Repo:      repo,
					Number:    parse.IntAt(n, "number"),
					State:     parse.FirstString(n, "state"),
					UpdatedAt: parse.FirstString(n, "updatedAt"),
					Source:    "tracked",
				})
			}
		}
	}

	merged, _ := aggregate.Merge(
		[]aggregate.Group[models.ReviewItem]{{Source: name, Records: items}},
		aggregate.Options[models.ReviewItem]{
			Key:        func(it models.ReviewItem) string { return it.URL },
			SortKey:    func(it models.ReviewItem) string { return it.UpdatedAt },
			Descending: true,
			Limit:      maxItems,
		})

	if len(itemsErrors) == 0 {
		itemsErrors = nil
	}
	unread := 0
	for _, n := range notifications {
		if n.Unread {
			unread++
		}
	}

	summary := map[string]interface{}{
		"accounts":            len(accounts),
		"notifications":       len(notifications),
		"login":               user.Login,
		"notifications_error": notificationsError,
	}
	if len(itemsErrors) > 0 {
		summary["items_error"] = itemsErrors
	}

	return &connector.Result{
		State: Snapshot{
			LastSync:           rc.Now().UTC().Format(time.RFC3339),
			User:               user,
			Accounts:           accounts,
			Notifications:      notifications,
			NotificationsError: notificationsError,
			Items:              merged,
			ItemsError:         itemsErrors,
			Stats: Stats{
				NotificationsCount:  len(notifications),
				NotificationsUnread: unread,
				ItemsCount:          len(merged),
				AccountsCount:       len(accounts),
			},
		},
		Summary:  summary,
		Artifact: "Updated github state",
	}, nil
}

// parseAuthStatus extracts the account list from gh's human-readable auth
// report. Detail lines before the first account header are ignored.
func parseAuthStatus(output string) []models.Account {
	accounts := []models.Account{}
	cur := -1
	for _, rawLine := range strings.Split(output, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}
		if _, after, found := strings.Cut(line, "Logged in to github.com account "); found {
			login, _, _ := strings.Cut(after, " ")
			accounts = append(accounts, models.Account{Login: strings.TrimSpace(login)})
			cur = len(accounts) - 1
			continue
		}
		if cur < 0 {
			continue
		}
		if after, ok := strings.CutPrefix(line, "- Active account:"); ok {
			accounts[cur].Active = strings.EqualFold(strings.TrimSpace(after), "true")
			continue
		}
		if after, ok := strings.CutPrefix(line, "- Token scopes:"); ok {
			accounts[cur].Scopes = strings.ReplaceAll(strings.TrimSpace(after), "'", "")
		}
	}
	return accounts
}

// normalizeNotifications flattens the notification payload. Anything that
// is not a list of objects yields an empty feed rather than an error; the
// inbox is best-effort by contract.
func normalizeNotifications(stdout string) []models.Notification {
	var payload interface{}
	if err := json.Unmarshal([]byte(stdout), &payload); err != nil {
		return []models.Notification{}
	}
	out := []models.Notification{}
	for _, n := range parse.Objects(payload) {
		updated := parse.FirstString(n, "updated_at")
		url := parse.NestedString(n["subject"], "url")
		if url == "" {
			url = parse.FirstString(n, "url")
		}
		out = append(out, models.Notification{
			ID:        parse.FirstString(n, "id"),
			Repo:      parse.NestedString(n["repository"], "full_name"),
			Title:     parse.NestedString(n["subject"], "title"),
			Type:      parse.NestedString(n["subject"], "type"),
			Unread:    parse.Truthy(n["unread"]),
			UpdatedAt: updated,
			Date:      updated,
			URL:       url,
		})
	}
	return out
}

// searchPRs runs the authored-PR search and returns the PullRequest nodes.
func searchPRs(ctx context.Context, runner command.Runner, query string, first int) ([]map[string]interface{}, error) {
	payload, err := ghJSON(ctx, runner,
		"api", "graphql",
		"-f", "query="+graphqlSearchPRs,
		"-f", "q="+query,
		"-F", fmt.Sprintf("first=%d", first),
	)
	if err != nil {
		return nil, err
	}
	data, _ := payload.(map[string]interface{})
	search, _ := data["data"].(map[string]interface{})
	inner, _ := search["search"].(map[string]interface{})

	var nodes []map[string]interface{}
	for _, n := range parse.Objects(inner["nodes"]) {
		if parse.FirstString(n, "__typename") != "PullRequest" {
			continue
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// ghJSON runs gh and decodes its stdout as JSON.
func ghJSON(ctx context.Context, runner command.Runner, args ...string) (interface{}, error) {
	res, err := runner.Run(ctx, command.Command{Name: "gh", Args: args})
	if err != nil {
		return nil, err
	}
	var payload interface{}
	if err := json.Unmarshal([]byte(res.Stdout), &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// stderrOr returns the failure's stderr, or fallback when the tool wrote
// nothing.
func stderrOr(exit *command.ExitError, fallback string) string {
	if exit.Stderr != "" {
		return exit.Stderr
	}
	return fallback
}

func isExit(err error) bool {
	var e *command.ExitError
	return errors.As(err, &e)
}

func isNotFound(err error) bool {
	var e *command.NotFoundError
	return errors.As(err, &e)
}
