package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inletlabs/inlet/internal/pipeline"
	"github.com/inletlabs/inlet/pkg/config"
	"github.com/inletlabs/inlet/pkg/connector"
	"github.com/inletlabs/inlet/pkg/events"
	"github.com/inletlabs/inlet/pkg/journal"
	"github.com/inletlabs/inlet/pkg/json"
	"github.com/inletlabs/inlet/pkg/logger"
	"github.com/inletlabs/inlet/pkg/state"

	// Import all connectors to register them
	_ "github.com/inletlabs/inlet/pkg/connector/gcal"
	_ "github.com/inletlabs/inlet/pkg/connector/github"
	_ "github.com/inletlabs/inlet/pkg/connector/gmail"
	_ "github.com/inletlabs/inlet/pkg/connector/linear"
)

// Build metadata, overridden with -ldflags at release time.
var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	var dir, logLevel, logEncoding string

	root := &cobra.Command{
		Use:   "inlet",
		Short: "Inlet - sync connectors for calendar, mail, code review, and issues",
		Long: `Inlet pulls state from external services by wrapping their command-line
tools (gccli, gmcli, gh, a vendored node script), normalizes their output
into canonical records, and persists one snapshot per connector under a
base directory.

A sync run narrates itself as newline-delimited JSON events on stdout;
logs go to stderr.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logger.Init(logger.Config{Level: logLevel, Encoding: logEncoding})
		},
	}
	root.PersistentFlags().StringVar(&dir, "dir", "", "Base directory for connector files (env INLET_DIR)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&logEncoding, "log-encoding", "console", "Log encoding (console, json)")

	// Version command
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("inlet v%s (commit %s, built %s)\n", version, commit, date)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	// Sync command: the whole point of the binary
	root.AddCommand(&cobra.Command{
		Use:   "sync <connector>",
		Short: "Run one connector sync",
		Long: `Run one connector sync end to end: load the connector's settings
document, invoke its external tool, and replace its snapshot.

Lifecycle events stream to stdout as one JSON object per line. The exit
status is 0 only when the run reached a successful result event.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := &pipeline.Pipeline{
				Config:  &config.RunConfig{BaseDir: resolveBaseDir(dir)},
				Emitter: events.NewStream(os.Stdout),
				Logger:  logger.Get(),
			}
			return p.Run(cmd.Context(), args[0])
		},
	})

	// List command
	root.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered connectors",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := &config.RunConfig{BaseDir: resolveBaseDir(dir)}
			haveBase := cfg.Validate() == nil
			synced := color.New(color.FgGreen).SprintFunc()
			never := color.New(color.FgYellow).SprintFunc()
			for _, name := range connector.List() {
				if !haveBase {
					fmt.Println(name)
					continue
				}
				marker := never("never synced")
				if _, err := os.Stat(cfg.StatePath(name)); err == nil {
					marker = synced("synced")
				}
				fmt.Printf("%-8s %s\n", name, marker)
			}
			return nil
		},
	})

	// Status command
	var statusJSON bool
	statusCmd := &cobra.Command{
		Use:   "status [connector]",
		Short: "Show snapshot freshness and recent activity",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := &config.RunConfig{BaseDir: resolveBaseDir(dir)}
			if err := cfg.Validate(); err != nil {
				return err
			}

			names := connector.List()
			if len(args) == 1 {
				if !connector.Has(args[0]) {
					return fmt.Errorf("unknown connector %s", args[0])
				}
				names = args[:1]
			}

			statuses := make([]connectorStatus, 0, len(names))
			for _, name := range names {
				statuses = append(statuses, gatherStatus(cfg, name))
			}
			recent, _ := journal.Tail(cfg.JournalDir(), 5)

			if statusJSON {
				out := map[string]interface{}{"connectors": statuses}
				if len(recent) > 0 {
					out["recent"] = recent
				}
				data, err := json.MarshalIndent(out, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}

			renderStatuses(statuses)
			renderRecent(recent)
			return nil
		},
	}
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Emit machine-readable JSON")
	root.AddCommand(statusCmd)

	// Init command
	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold the base directory and seed connector docs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := &config.RunConfig{BaseDir: resolveBaseDir(dir)}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return initBase(cfg, force)
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite existing connector docs")
	root.AddCommand(initCmd)

	err := root.Execute()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// resolveBaseDir resolves the base directory with flag > environment >
// config-file precedence. The optional config file lives at
// ~/.config/inlet/config.yaml with a top-level `dir` key.
func resolveBaseDir(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "inlet"))
	}
	v.SetEnvPrefix("INLET")
	v.AutomaticEnv()
	_ = v.ReadInConfig()
	return v.GetString("dir")
}

// connectorStatus is one row of the status view.
type connectorStatus struct {
	Connector string `json:"connector"`
	Synced    bool   `json:"synced"`
	LastSync  string `json:"last_sync,omitempty"`
	Records   int    `json:"records"`
	Errors    int    `json:"errors"`
}

// gatherStatus summarizes one connector's snapshot without binding to any
// connector-specific schema: record lists and error maps are probed by
// their shared field names.
func gatherStatus(cfg *config.RunConfig, name string) connectorStatus {
	st := connectorStatus{Connector: name}

	var doc map[string]interface{}
	if err := state.Read(cfg.StatePath(name), &doc); err != nil {
		return st
	}
	st.Synced = true

	if s, ok := doc["last_sync"].(string); ok {
		st.LastSync = s
	}
	for _, key := range []string{"events", "threads", "issues", "items", "notifications"} {
		if list, ok := doc[key].([]interface{}); ok {
			st.Records += len(list)
		}
	}
	if m, ok := doc["errors"].(map[string]interface{}); ok {
		st.Errors += len(m)
	}
	if s, ok := doc["notifications_error"].(string); ok && s != "" {
		st.Errors++
	}
	if m, ok := doc["items_error"].(map[string]interface{}); ok {
		st.Errors += len(m)
	}
	return st
}

func renderStatuses(statuses []connectorStatus) {
	okMark := color.New(color.FgGreen).SprintFunc()
	errMark := color.New(color.FgRed).SprintFunc()
	dimMark := color.New(color.FgYellow).SprintFunc()

	for _, st := range statuses {
		switch {
		case !st.Synced:
			fmt.Printf("%s  %-8s never synced\n", dimMark("--"), st.Connector)
		case st.Errors > 0:
			fmt.Printf("%s %-8s last_sync=%s records=%d errors=%d\n",
				errMark("ERR"), st.Connector, st.LastSync, st.Records, st.Errors)
		default:
			fmt.Printf("%s  %-8s last_sync=%s records=%d\n",
				okMark("OK"), st.Connector, st.LastSync, st.Records)
		}
	}
}

func renderRecent(entries []journal.Entry) {
	if len(entries) == 0 {
		return
	}
	fmt.Println("\nRecent activity:")
	for _, e := range entries {
		line := fmt.Sprintf("  %s  %-9s %s", e.TS, e.Status, e.Connector)
		if e.Summary != "" {
			line += "  " + e.Summary
		}
		fmt.Println(line)
	}
}

// initBase scaffolds the workspace layout and seeds one settings document
// per registered connector. Existing documents are kept unless force is
// set; snapshots are never seeded, so status renders "never synced" until
// the first real run.
func initBase(cfg *config.RunConfig, force bool) error {
	for _, sub := range []string{"connectors", "state", "journal"} {
		if err := os.MkdirAll(filepath.Join(cfg.BaseDir, sub), 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", filepath.Join(cfg.BaseDir, sub), err)
		}
	}

	for _, name := range connector.List() {
		doc, ok := seedDocs[name]
		if !ok {
			continue
		}
		path := cfg.ConnectorDoc(name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create connector dir for %s: %w", name, err)
		}
		if _, err := os.Stat(path); err == nil && !force {
			fmt.Printf("  kept    %s\n", path)
			continue
		}
		if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		fmt.Printf("  seeded  %s\n", path)
	}
	return nil
}

// seedDocs are the settings documents written by init. Every key ships
// commented out with its default; connectors with required keys fail
// their first sync with a pointed message until the user fills them in.
var seedDocs = map[string]string{
	"gcal": `---
# Accounts are required; list one per line.
# accounts:
#   - work@example.com
#   - personal@example.com
# calendar_id: primary
# max_events: 50
# days_back: 1
# days_ahead: 14
---

# Google Calendar

Sync pulls upcoming events for each account with ` + "`gccli`" + `. Uncomment
and edit the frontmatter keys above; every key except ` + "`accounts`" + ` has
the default shown.
`,
	"gmail": `---
# The account is required.
# account: me@example.com
# query: "in:inbox is:unread"
# max_threads: 50
---

# Gmail

Sync searches mail with ` + "`gmcli`" + `. ` + "`query`" + ` and ` + "`max_threads`" + ` default to
the values shown.
`,
	"github": `---
# max_notifications: 50
# max_items: 30
# tracked_repos:
#   - owner/repo
# tracked_repo_limit: 10
---

# GitHub

Sync reads the authenticated ` + "`gh`" + ` session: signed-in accounts, unread
notifications, recently updated pull requests, and open items from any
tracked repositories. No key is required.
`,
	"linear": `---
# assignee: me
# limit: 50
---

# Linear

Sync runs the vendored issue script under node. Drop the script at
` + "`connectors/linear/vendor/issues.js`" + `; ` + "`assignee`" + ` and ` + "`limit`" + ` default
to the values shown.
`,
}
