// Package inlet is a sync connector framework: a family of jobs that pull
// state from external services (calendar, mail, issue tracker, code-review
// feeds) by wrapping their local command-line tools, normalize the tools'
// inconsistent textual/JSON output into canonical records, and persist the
// result as an atomically replaced JSON snapshot.
//
// Every connector repeats the same shape: load settings, invoke external
// commands, parse multi-format output, normalize/dedup/sort, write the
// snapshot, and report structured lifecycle events. Inlet factors that shape
// into one framework so a connector is only the parts that differ.
//
// # Architecture
//
// A run flows through five stages:
//
//  1. Command execution: external CLIs are opaque collaborators reached
//     through command.Runner; "tool missing" and "tool failed" are distinct
//     conditions with distinct run policies.
//
//  2. Parsing: raw output goes through an ordered strategy chain
//     (embedded JSON scan, whole-string JSON, delimited tables, freeform
//     blocks). Strategies are total functions; the first match wins and a
//     full miss degrades to a capped debug payload, never a crash.
//
//  3. Normalization: source-specific shapes are probed field by field into
//     one canonical record type per entity kind. Records without a
//     resolvable identity are dropped, not invented.
//
//  4. Aggregation: per-source record groups are merged with first-seen-wins
//     dedup, stable-sorted on a connector-chosen key, and capped after the
//     sort so truncation always drops the tail.
//
//  5. Persistence and reporting: the snapshot is written via temp-file plus
//     rename so readers never observe a partial document, and the run
//     narrates itself as newline-delimited JSON events on stdout
//     (progress, error, artifact, result).
//
// # Quick Start
//
// Run a connector against a base directory:
//
//	export INLET_DIR=$HOME/.inlet
//	inlet init
//	inlet sync gcal
//	inlet status
//
// Or drive the pipeline from Go:
//
//	cfg := &config.RunConfig{BaseDir: dir}
//	p := &pipeline.Pipeline{Config: cfg, Emitter: events.NewStream(os.Stdout)}
//	err := p.Run(context.Background(), "gcal")
//
// # Key Packages
//
//	pkg/command      - External command runner with not-found/exit-code discrimination
//	pkg/parse        - Ordered parser strategy chain and field probing helpers
//	pkg/models       - Canonical record kinds shared across connectors
//	pkg/aggregate    - Dedup, stable sort, and cap for per-source record groups
//	pkg/state        - Atomic snapshot writer
//	pkg/events       - Lifecycle event stream (NDJSON on stdout)
//	pkg/journal      - Append-only run journal
//	pkg/connector    - Connector interface and registry
//	pkg/config       - Run configuration and frontmatter settings
//	pkg/errors       - Structured error handling
//	pkg/logger       - Structured logging (stderr; stdout belongs to events)
//
// # Connectors
//
// Built-in connectors:
//   - gcal: calendar events across one or more accounts (gccli)
//   - gmail: unread inbox threads (gmcli)
//   - github: notifications, authored PRs, tracked repos (gh)
//   - linear: assigned issues via a vendored CLI script (node)
//
// Each run is a full re-fetch and full-state replace; there is no incremental
// sync, no retry policy, and no credential handling here. Those concerns stay
// with the wrapped CLIs.
package inlet
