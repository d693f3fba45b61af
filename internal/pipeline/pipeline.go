// Package pipeline orchestrates one connector run end to end: resolve the
// settings document, invoke the connector, persist its snapshot, and
// narrate the lifecycle on the event stream.
//
// The pipeline owns the fatal-versus-partial policy. Connectors record
// per-source failures inside their result and keep going; any error a
// connector returns is fatal and produces exactly one error event with no
// result after it. A run that reaches a result always persisted its
// snapshot first, so a terminal result implies a readable snapshot.
package pipeline

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/inletlabs/inlet/pkg/command"
	"github.com/inletlabs/inlet/pkg/config"
	"github.com/inletlabs/inlet/pkg/connector"
	"github.com/inletlabs/inlet/pkg/errors"
	"github.com/inletlabs/inlet/pkg/events"
	"github.com/inletlabs/inlet/pkg/journal"
	"github.com/inletlabs/inlet/pkg/logger"
	"github.com/inletlabs/inlet/pkg/state"
)

// opSync is the journal operation name for snapshot refreshes.
const opSync = "sync"

// Pipeline runs connectors against one resolved configuration. Config and
// Emitter are required; a nil Runner means the real PATH-resolving runner
// and a nil Logger means the process logger, which is what tests override.
type Pipeline struct {
	Config  *config.RunConfig
	Emitter events.Emitter
	Runner  command.Runner
	Logger  *zap.Logger
}

// Run executes one sync of the named connector. The returned error is nil
// exactly when a terminal result event was emitted; every failure path
// emits one error event first, so callers only translate the error into an
// exit status.
func (p *Pipeline) Run(ctx context.Context, name string) error {
	runID := uuid.NewString()
	log := p.Logger
	if log == nil {
		log = logger.Get()
	}
	log = log.With(zap.String("connector", name), zap.String("run_id", runID))

	if err := p.Config.Validate(); err != nil {
		return p.emitFatal(log, err)
	}
	conn, err := connector.Create(name)
	if err != nil {
		return p.emitFatal(log, err)
	}
	settings, err := config.LoadSettings(p.Config.ConnectorDoc(name))
	if err != nil {
		return p.emitFatal(log, err)
	}

	jw := journal.Writer{Dir: p.Config.JournalDir(), Now: p.Config.Now}
	p.appendJournal(log, jw, journal.Entry{
		Connector: name,
		RunID:     runID,
		Op:        opSync,
		Status:    journal.StatusStarted,
	})

	runner := p.Runner
	if runner == nil {
		runner = command.NewExecRunner(log)
	}
	rc := &connector.RunContext{
		Config:   p.Config,
		Settings: settings,
		Events:   p.Emitter,
		Commands: runner,
		Logger:   log,
	}

	log.Info("sync started")
	res, err := conn.Sync(ctx, rc)
	if err == nil {
		// Persist before announcing: a result event promises a snapshot.
		if werr := state.Write(p.Config.StatePath(name), res.State); werr != nil {
			err = werr
		}
	}
	if err != nil {
		p.emitFatal(log, err)
		p.appendJournal(log, jw, journal.Entry{
			Connector: name,
			RunID:     runID,
			Op:        opSync,
			Status:    journal.StatusFailed,
			Summary:   errors.Message(err),
			Data:      errors.GetDetails(err),
		})
		return err
	}

	p.Emitter.Emit(events.Artifact(p.Config.StateRel(name), res.Artifact))
	p.Emitter.Emit(events.Result(true, res.Summary))
	p.appendJournal(log, jw, journal.Entry{
		Connector: name,
		RunID:     runID,
		Op:        opSync,
		Status:    journal.StatusCompleted,
		Data:      res.Summary,
	})
	log.Info("sync completed")
	return nil
}

// emitFatal reports a fatal condition as the run's single error event.
func (p *Pipeline) emitFatal(log *zap.Logger, err error) error {
	log.Error("run failed", zap.Error(err))
	p.Emitter.Emit(events.Error(errors.Message(err), errors.GetDetails(err)))
	return err
}

// appendJournal records an entry, downgrading journal failures to a log
// line: the audit trail is advisory and never fails a run.
func (p *Pipeline) appendJournal(log *zap.Logger, jw journal.Writer, e journal.Entry) {
	if err := jw.Append(e); err != nil {
		log.Warn("journal append failed", zap.Error(err))
	}
}
