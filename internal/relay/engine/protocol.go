package engine

import (
	"github.com/sirupsen/logrus"

	"github.com/bleikamp/ply/errors"
	"github.com/bleikamp/ply/internal/relay/event"
	"github.com/bleikamp/ply/internal/relay/registry"
	"github.com/bleikamp/ply/internal/relay/store"
)

// command is a unit of work executed on the engine goroutine.
type command interface {
	apply(e *Engine)
}

type connectCmd struct {
	group registry.Group
	conn  Conn
	reply chan<- error
}

type disconnectCmd struct {
	group registry.Group
	id    string
	reply chan<- error
}

type messageCmd struct {
	group registry.Group
	id    string
	env   event.Envelope
}

type snapshotResult struct {
	state  store.State
	counts registry.Counts
}

type snapshotCmd struct {
	reply chan<- snapshotResult
}

func (c connectCmd) apply(e *Engine) {
	change, err := e.registry.Register(c.group, c.conn.ID(), c.conn)
	if err != nil {
		e.fault(err)
		c.reply <- err
		return
	}
	e.logChange(change)

	switch c.group {
	case registry.Producer:
		e.broadcast(registry.Consumer, event.Presence(true))
	case registry.Consumer:
		e.broadcast(registry.Consumer, event.Presence(change.Counts.Producers > 0))
		e.replay(c.conn)
	}
	c.reply <- nil
}

// replay brings a newly joined consumer up to date with the snapshot.
func (e *Engine) replay(conn Conn) {
	snap := e.store.Snapshot()
	if snap.InspectionRoot != nil {
		env, err := event.NewSetInspectionRoot(*snap.InspectionRoot)
		if err != nil {
			e.logger.WithError(err).WithField("id", conn.ID()).Error("Skipping inspection root replay")
		} else {
			e.send(registry.Consumer, conn, env)
		}
	}
	doc, err := event.NewSetDocument(snap.Nodes, snap.Styles)
	if err != nil {
		e.logger.WithError(err).WithField("id", conn.ID()).Error("Skipping document replay")
	} else {
		e.send(registry.Consumer, conn, doc)
	}

	stats := e.store.Stats()
	e.logger.WithFields(logrus.Fields{
		"id":        conn.ID(),
		"nodes":     stats.Nodes,
		"styles":    stats.Styles,
		"inspected": stats.Inspected,
	}).Debug("Replayed snapshot")
}

func (c disconnectCmd) apply(e *Engine) {
	change, err := e.registry.Unregister(c.group, c.id)
	if err != nil {
		e.fault(err)
		c.reply <- err
		return
	}
	e.logChange(change)

	if c.group == registry.Producer {
		if change.Counts.Producers == 0 {
			e.store.Reset()
			e.broadcast(registry.Consumer, event.Presence(false))
			e.logger.Debug("Last producer left, snapshot reset")
		} else {
			e.broadcast(registry.Consumer, event.Presence(true))
		}
	}
	c.reply <- nil
}

func (c messageCmd) apply(e *Engine) {
	conn, ok := e.registry.Get(c.group, c.id)
	if !ok {
		// Frames can trail a disconnect; the sender is gone.
		e.logger.WithFields(logrus.Fields{
			"group": c.group,
			"id":    c.id,
			"kind":  c.env.Kind,
		}).Debug("Message from unregistered connection ignored")
		return
	}

	switch c.group {
	case registry.Producer:
		e.handleEvent(c.id, c.env)
	case registry.Consumer:
		e.handleRequest(conn, c.env)
	}
}

// handleEvent applies a producer event to the snapshot and fans it out
// verbatim to every consumer.
func (e *Engine) handleEvent(id string, env event.Envelope) {
	in, err := event.Decode(env)
	if err != nil {
		e.metrics.InvalidEvent(string(env.Kind))
		e.logger.WithError(err).WithFields(logrus.Fields{
			"id":   id,
			"kind": env.Kind,
		}).Debug("Dropped malformed event")
		return
	}

	changed := e.store.Apply(in)
	e.broadcast(registry.Consumer, env)
	e.metrics.EventRelayed(string(env.Kind))

	e.logger.WithFields(logrus.Fields{
		"id":      id,
		"kind":    env.Kind,
		"changed": changed,
	}).Trace("Relayed event")
}

// handleRequest forwards a consumer request to every producer, or answers
// with a no-target error when there are none.
func (e *Engine) handleRequest(from Conn, env event.Envelope) {
	fields := logrus.Fields{
		"id":   from.ID(),
		"kind": env.Kind,
		"body": truncatedBody(env),
	}

	if e.registry.Count(registry.Producer) == 0 {
		err := errors.NoAvailableTarget(string(env.Kind))
		e.metrics.NoTarget()
		e.logger.WithFields(fields).Debug(err.Message)

		reply, encErr := event.NewError(err.Message)
		if encErr != nil {
			e.logger.WithError(encErr).Error("Failed to build no-target error")
			return
		}
		if e.opts.ScopeErrorsToRequester {
			e.send(registry.Consumer, from, reply)
		} else {
			e.broadcast(registry.Consumer, reply)
		}
		return
	}

	e.broadcast(registry.Producer, env)
	e.metrics.RequestForwarded(string(env.Kind))
	e.logger.WithFields(fields).Debug("Forwarded request")
}

func (c snapshotCmd) apply(e *Engine) {
	c.reply <- snapshotResult{
		state:  e.store.Snapshot(),
		counts: e.registry.Counts(),
	}
}
