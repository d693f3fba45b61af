// Package models defines the canonical record kinds connectors produce and
// the snapshot fragments they share.
//
// Normalization happens in the connector packages; this package only fixes
// the shapes. Optional passthrough fields are pointers so a marshaled record
// distinguishes "the tool never sent this" from "the tool sent an empty
// string": a calendar event with no location omits the key entirely rather
// than carrying "".
package models

// CalendarEvent is one normalized calendar entry.
//
// ID, Summary, Start and End always marshal, even when empty. Location,
// Description and HTMLLink marshal only when the upstream payload carried
// them non-null. Attendees holds attendee email addresses.
type CalendarEvent struct {
	ID          string   `json:"id"`
	Summary     string   `json:"summary"`
	Start       string   `json:"start"`
	End         string   `json:"end"`
	Account     string   `json:"account"`
	CalendarID  string   `json:"calendar_id"`
	Location    *string  `json:"location,omitempty"`
	Description *string  `json:"description,omitempty"`
	HTMLLink    *string  `json:"htmlLink,omitempty"`
	Attendees   []string `json:"attendees,omitempty"`
}

// MailThread is one normalized mail search hit.
//
// Unread and Inbox default to true when the source format carries no label
// information; Starred defaults to false.
type MailThread struct {
	ID      string   `json:"id"`
	Subject string   `json:"subject"`
	From    string   `json:"from"`
	Date    string   `json:"date,omitempty"`
	Labels  []string `json:"labels,omitempty"`
	Unread  bool     `json:"unread"`
	Inbox   bool     `json:"inbox"`
	Starred bool     `json:"starred"`
}

// ReviewItem is one pull request or issue surfaced by the code-review feed.
type ReviewItem struct {
	// Kind is "pr" or "issue".
	Kind   string `json:"kind"`
	Title  string `json:"title"`
	URL    string `json:"url"`
	Repo   string `json:"repo"`
	Number int    `json:"number"`
	State  string `json:"state"`
	// UpdatedAt keeps the upstream camelCase key; it is the sort key for
	// the review feed.
	UpdatedAt string `json:"updatedAt"`
	// Account is the login the item was fetched for; empty for items from
	// tracked repositories.
	Account string `json:"account"`
	// Source is "authored" or "tracked".
	Source string `json:"source"`
}

// Notification is one normalized notification-feed entry. Date mirrors
// UpdatedAt so consumers that sort on a generic date field need no special
// case.
type Notification struct {
	ID        string `json:"id"`
	Repo      string `json:"repo"`
	Title     string `json:"title"`
	Type      string `json:"type"`
	Unread    bool   `json:"unread"`
	UpdatedAt string `json:"updated_at"`
	Date      string `json:"date"`
	URL       string `json:"url"`
}

// TrackerIssue is one normalized issue-tracker entry. Fields beyond the
// identifier and title marshal only when the tracker output carried them.
type TrackerIssue struct {
	Identifier         string `json:"identifier"`
	Title              string `json:"title"`
	Assignee           string `json:"assignee"`
	Status             string `json:"status,omitempty"`
	Team               string `json:"team,omitempty"`
	AssigneeName       string `json:"assignee_name,omitempty"`
	ID                 string `json:"id,omitempty"`
	StateID            string `json:"state_id,omitempty"`
	DescriptionPreview string `json:"description_preview,omitempty"`
}

// Account is one authenticated account reported by the review tool's auth
// probe.
type Account struct {
	Login  string `json:"login"`
	Active bool   `json:"active"`
	Scopes string `json:"scopes"`
}

// User identifies the primary login of the review tool.
type User struct {
	Login string `json:"login"`
	Name  string `json:"name"`
}

// SourceError records a per-source command failure in a partial run: the
// exit code and the trimmed stderr of the failing invocation.
type SourceError struct {
	Code   int    `json:"code"`
	Stderr string `json:"stderr"`
}

// ParseDebug captures capped output heads for a source whose output no
// parser recognized. It is recorded in the snapshot instead of failing the
// run, so undiagnosed formats stay inspectable.
type ParseDebug struct {
	ParseError bool   `json:"parse_error"`
	StdoutHead string `json:"stdout_head"`
	StderrHead string `json:"stderr_head"`
}

// TimeRange is the query window of a calendar sync, with the day offsets it
// was derived from.
type TimeRange struct {
	From      string `json:"from"`
	To        string `json:"to"`
	DaysBack  int    `json:"days_back"`
	DaysAhead int    `json:"days_ahead"`
}
