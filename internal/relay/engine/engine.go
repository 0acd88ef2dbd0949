// Package engine serializes connection lifecycle and message routing for the
// relay. One goroutine owns the registry and the store; everything else talks
// to it through a command queue.
package engine

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/bleikamp/ply/errors"
	"github.com/bleikamp/ply/internal/relay/event"
	"github.com/bleikamp/ply/internal/relay/metrics"
	"github.com/bleikamp/ply/internal/relay/registry"
	"github.com/bleikamp/ply/internal/relay/store"
	"github.com/bleikamp/ply/logging"
)

// DefaultQueueSize is the command queue length used when Options leaves it unset.
const DefaultQueueSize = 1024

// Conn is the engine's handle on a live connection.
type Conn interface {
	ID() string
	// Send queues env for delivery without blocking. It returns false when
	// the message was dropped.
	Send(env event.Envelope) bool
}

// Options tunes engine behaviour.
type Options struct {
	// ScopeErrorsToRequester sends the no-target error to the requesting
	// consumer only. By default every consumer receives it.
	ScopeErrorsToRequester bool
	// QueueSize is the command queue length.
	QueueSize int
}

// Engine is the relay's single serializing coordinator.
type Engine struct {
	logger   *logrus.Entry
	metrics  *metrics.Metrics
	opts     Options
	commands chan command
	done     chan struct{}

	// Owned by the Run goroutine.
	registry *registry.Registry[Conn]
	store    *store.Store
}

// New creates an Engine. Run must be called before any other method returns.
func New(logger *logrus.Entry, m *metrics.Metrics, opts Options) *Engine {
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	return &Engine{
		logger:   logger,
		metrics:  m,
		opts:     opts,
		commands: make(chan command, opts.QueueSize),
		done:     make(chan struct{}),
		registry: registry.New[Conn](),
		store:    store.New(),
	}
}

// Run processes commands until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	defer close(e.done)
	e.logger.Debug("Relay engine started")
	for {
		select {
		case <-ctx.Done():
			e.logger.Debug("Relay engine stopped")
			return
		case cmd := <-e.commands:
			cmd.apply(e)
		}
	}
}

// Connect registers conn in group and runs the group's connect protocol.
// A DuplicateConnection error means nothing was changed; the caller should
// close the connection.
func (e *Engine) Connect(ctx context.Context, group registry.Group, conn Conn) error {
	reply := make(chan error, 1)
	if err := e.submit(ctx, connectCmd{group: group, conn: conn, reply: reply}); err != nil {
		return err
	}
	return e.await(ctx, reply)
}

// Disconnect unregisters id from group and runs the group's disconnect
// protocol.
func (e *Engine) Disconnect(ctx context.Context, group registry.Group, id string) error {
	reply := make(chan error, 1)
	if err := e.submit(ctx, disconnectCmd{group: group, id: id, reply: reply}); err != nil {
		return err
	}
	return e.await(ctx, reply)
}

// Dispatch queues a message received from connection id. Messages from
// producers are events; messages from consumers are requests.
func (e *Engine) Dispatch(ctx context.Context, group registry.Group, id string, env event.Envelope) error {
	return e.submit(ctx, messageCmd{group: group, id: id, env: env})
}

// Snapshot returns a copy of the shared state and the group sizes as of
// every command queued before it.
func (e *Engine) Snapshot(ctx context.Context) (store.State, registry.Counts, error) {
	reply := make(chan snapshotResult, 1)
	if err := e.submit(ctx, snapshotCmd{reply: reply}); err != nil {
		return store.State{}, registry.Counts{}, err
	}
	select {
	case res := <-reply:
		return res.state, res.counts, nil
	case <-ctx.Done():
		return store.State{}, registry.Counts{}, ctx.Err()
	case <-e.done:
		return store.State{}, registry.Counts{}, errors.RelayStopped(nil)
	}
}

func (e *Engine) submit(ctx context.Context, cmd command) error {
	select {
	case e.commands <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-e.done:
		return errors.RelayStopped(nil)
	}
}

func (e *Engine) await(ctx context.Context, reply <-chan error) error {
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-e.done:
		return errors.RelayStopped(nil)
	}
}

// broadcast sends env to every member of group.
func (e *Engine) broadcast(group registry.Group, env event.Envelope) {
	for _, conn := range e.registry.Members(group) {
		e.send(group, conn, env)
	}
}

func (e *Engine) send(group registry.Group, conn Conn, env event.Envelope) {
	if conn.Send(env) {
		return
	}
	e.metrics.Dropped(string(group))
	e.logger.WithFields(logrus.Fields{
		"group": group,
		"id":    conn.ID(),
		"kind":  env.Kind,
	}).Warn("Outbound queue full, message dropped")
}

func (e *Engine) logChange(change registry.Change) {
	e.metrics.ConnectionChanged(string(change.Group), change.Connected,
		change.Counts.Producers, change.Counts.Consumers)

	msg := "Connection closed"
	if change.Connected {
		msg = "Connection opened"
	}
	e.logger.WithFields(logrus.Fields{
		"group":     change.Group,
		"id":        change.ID,
		"producers": change.Counts.Producers,
		"consumers": change.Counts.Consumers,
	}).Info(msg)
}

func (e *Engine) fault(err error) {
	e.metrics.RegistryFault(string(errors.GetCode(err)))
	e.logger.WithError(err).Error("Connection lifecycle fault")
}

func truncatedBody(env event.Envelope) string {
	return logging.Truncate(string(env.Data), logging.Current().TruncateLimit())
}
