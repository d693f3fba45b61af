// Package connector defines the contract between the run pipeline and the
// connector implementations, plus the registry the CLI discovers them
// through.
package connector

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/inletlabs/inlet/pkg/command"
	"github.com/inletlabs/inlet/pkg/config"
	"github.com/inletlabs/inlet/pkg/events"
)

// Connector is one sync job: invoke an external tool, parse and normalize
// its output, and hand back a snapshot document for persistence.
type Connector interface {
	// Name is the registry name, which doubles as the snapshot file name
	// and the settings document directory name.
	Name() string

	// Sync performs one run. Progress is emitted through rc.Events; the
	// returned error is reserved for fatal conditions. Per-source failures
	// in multi-source connectors are recorded inside the result instead,
	// keeping the run partial rather than dead.
	Sync(ctx context.Context, rc *RunContext) (*Result, error)
}

// Result is a successful, possibly partial, sync outcome.
type Result struct {
	// State is the snapshot document to persist.
	State interface{}

	// Summary becomes the payload of the terminal result event. Partial
	// runs include their per-source error entries here so callers can see
	// named failures without opening the snapshot.
	Summary map[string]interface{}

	// Artifact is the human description attached to the artifact event.
	Artifact string
}

// RunContext carries everything a connector may touch during Sync. All
// side effects flow through these dependencies; connectors never read
// environment variables, and any path they touch derives from Config, so
// a run is reproducible from a fake runner, a settings map, and a base
// directory.
type RunContext struct {
	Config   *config.RunConfig
	Settings config.Settings
	Events   events.Emitter
	Commands command.Runner
	Logger   *zap.Logger
}

// Now reads the run clock, honoring an injected test clock.
func (rc *RunContext) Now() time.Time {
	return rc.Config.Now()
}
