// Package connector_test shows how connector packages plug into the
// registry and how a run drives one of them.
package connector_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/inletlabs/inlet/pkg/config"
	"github.com/inletlabs/inlet/pkg/connector"
	"github.com/inletlabs/inlet/pkg/events"
)

// pulse is a minimal connector: no external tool, fixed snapshot.
type pulse struct{}

func (pulse) Name() string { return "pulse" }

func (pulse) Sync(ctx context.Context, rc *connector.RunContext) (*connector.Result, error) {
	rc.Events.Emit(events.Progress("collecting", 0.5))
	interval := rc.Settings.Int("interval", 60)
	return &connector.Result{
		State: map[string]interface{}{
			"last_sync": rc.Now().UTC().Format(time.RFC3339),
			"interval":  interval,
		},
		Summary:  map[string]interface{}{"interval": interval},
		Artifact: "Updated pulse state",
	}, nil
}

// Example registers a connector on a fresh registry and performs one sync,
// narrating it on stdout the way the CLI does.
func Example() {
	reg := connector.NewRegistry()
	if err := reg.Register("pulse", func() connector.Connector { return pulse{} }); err != nil {
		log.Fatal(err)
	}

	conn, err := reg.Create("pulse")
	if err != nil {
		log.Fatal(err)
	}

	rc := &connector.RunContext{
		Config: &config.RunConfig{
			BaseDir: "/tmp/inlet",
			Clock:   func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) },
		},
		Settings: config.Settings{"interval": 30},
		Events:   events.NewStream(os.Stdout),
		Logger:   zap.NewNop(),
	}

	res, err := conn.Sync(context.Background(), rc)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("interval: %v\n", res.Summary["interval"])

	// Output:
	// {"type":"progress","message":"collecting","pct":0.5}
	// interval: 30
}

// ExampleRegistry_List shows that discovery order is stable regardless of
// registration order.
func ExampleRegistry_List() {
	reg := connector.NewRegistry()
	_ = reg.Register("gmail", func() connector.Connector { return pulse{} })
	_ = reg.Register("gcal", func() connector.Connector { return pulse{} })

	for _, name := range reg.List() {
		fmt.Println(name)
	}

	// Output:
	// gcal
	// gmail
}
