package node

import (
	"context"
	"sync"
)

// Signal is a pub/sub point owned by a resource. On its own it is a local
// event source: handlers connect to it and every Notify reaches them. Once
// the owning node is bound and registered, a Notify additionally publishes
// to the signal's topic path, and remote publications to that path are
// delivered back to the connected handlers.
//
// The zero value is ready to use, so signals are declared as struct fields
// and exported through Exports.Signal.
type Signal struct {
	lock sync.RWMutex

	owner *Node
	name  string

	handlers map[uint64]EventHandler
	nextID   uint64
}

// NewSignal returns a standalone signal. Only needed when the signal is not
// a struct field.
func NewSignal() *Signal {
	return new(Signal)
}

// Connect attaches a local handler. The returned handle disconnects it.
func (s *Signal) Connect(h EventHandler) *Subscription {
	s.lock.Lock()
	if s.handlers == nil {
		s.handlers = make(map[uint64]EventHandler)
	}
	id := s.nextID
	s.nextID++
	s.handlers[id] = h
	path := s.topicPathLocked()
	s.lock.Unlock()

	return NewSubscription(path, func(context.Context) error {
		s.lock.Lock()
		delete(s.handlers, id)
		s.lock.Unlock()
		return nil
	})
}

// HandlerCount returns the number of connected local handlers.
func (s *Signal) HandlerCount() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return len(s.handlers)
}

// Notify fires the signal. Connected handlers always run; when the owning
// node is registered the payload also goes out through the dispatcher, which
// fans it to other local points at the topic and publishes it externally.
//
// An unbound or unregistered signal is local-only and never errors.
func (s *Signal) Notify(ctx context.Context, args List, kwargs Dict) error {
	s.lock.RLock()
	owner := s.owner
	path := s.topicPathLocked()
	s.lock.RUnlock()

	details := Dict{DetailPublisher: LocalPeer}
	if !path.IsZero() {
		details[DetailTopic] = path.String()
	}
	s.HandleEvent(ctx, Event{
		Path:    path,
		Args:    args,
		Kwargs:  kwargs,
		Details: details,
	})

	if owner == nil {
		return nil
	}
	res, nctx := owner.resource(), owner.Context()
	if res == nil || nctx == nil {
		return nil
	}
	d := nctx.Dispatcher()
	if d == nil || !d.NodeRegistered(res) {
		return nil
	}
	return d.Notify(ctx, Source{Resource: res, Signal: s}, path, args, kwargs)
}

// HandleEvent delivers an event to the connected handlers without
// re-publishing it. The dispatcher mounts this method as the signal's own
// subscription point, which is how remote publications reach the handlers.
func (s *Signal) HandleEvent(ctx context.Context, evt Event) {
	s.lock.RLock()
	handlers := make([]EventHandler, 0, len(s.handlers))
	for _, h := range s.handlers {
		handlers = append(handlers, h)
	}
	s.lock.RUnlock()

	for _, h := range handlers {
		h(ctx, evt)
	}
}

// bind ties the signal to its node point. Called while the owner binds.
func (s *Signal) bind(owner *Node, name string) {
	s.lock.Lock()
	s.owner = owner
	s.name = name
	s.lock.Unlock()
}

// unbind detaches the signal from its node, returning it to local-only
// operation.
func (s *Signal) unbind() {
	s.lock.Lock()
	s.owner = nil
	s.name = ""
	s.lock.Unlock()
}

// topicPathLocked computes the signal's topic path. Zero when the owner is
// not bound. Callers hold s.lock.
func (s *Signal) topicPathLocked() Path {
	if s.owner == nil {
		return Path{}
	}
	ownerPath := s.owner.Path()
	if ownerPath.IsZero() {
		return Path{}
	}
	if s.name == OwnPath {
		return ownerPath
	}
	return ownerPath.Join(s.name)
}
