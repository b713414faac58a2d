package node

import (
	"context"
	"sync"
)

// Dispatcher moves traffic between nodes and their WAMP session. The wamp
// package provides the session-backed implementation; the interface lives
// here so the tree types stay transport-agnostic.
type Dispatcher interface {
	// NodeBound starts tracking a freshly bound resource and registers its
	// points when the session is attached. Detached sessions register the
	// node on their next join.
	NodeBound(ctx context.Context, res Resource) error
	// NodeUnbound unregisters the resource's points and stops tracking it.
	NodeUnbound(ctx context.Context, res Resource) error
	// NodeRegister registers the resource's points now. A detached session
	// leaves the node pending without error.
	NodeRegister(ctx context.Context, res Resource) error
	// NodeUnregister withdraws the resource's points; the node stays bound
	// and can register again.
	NodeUnregister(ctx context.Context, res Resource) error
	// NodeRegistered reports whether the resource's points are live.
	NodeRegistered(res Resource) bool

	// Call invokes the procedure at dst, in-process when a local point
	// serves it, over the session otherwise.
	Call(ctx context.Context, src Resource, dst Path, args List, kwargs Dict) (*Result, error)
	// Notify publishes to the topic at dst: local fan-out, excluding the
	// source signal's own point, plus external publication.
	Notify(ctx context.Context, src Source, dst Path, args List, kwargs Dict) error
	// Connect mounts an extra event handler at dst and returns its handle.
	Connect(ctx context.Context, src Resource, dst Path, handler EventHandler) (*Subscription, error)
}

// Source identifies the origin of a publication so local fan-out can skip
// the point it came from.
type Source struct {
	// Resource is the publishing node.
	Resource Resource
	// Signal is set when the publication originates from a signal, whose
	// own subscription point must not be re-notified.
	Signal *Signal
}

// Subscription is the handle returned by connect operations. Handlers are
// plain funcs and cannot be compared, so disconnecting happens through the
// handle rather than by identity.
type Subscription struct {
	path Path

	lock   sync.Mutex
	cancel func(ctx context.Context) error
}

// NewSubscription builds a handle around a cancel func. Dispatcher
// implementations use it; applications only consume handles.
func NewSubscription(path Path, cancel func(ctx context.Context) error) *Subscription {
	return &Subscription{path: path, cancel: cancel}
}

// Path returns the topic path the handler is mounted on.
func (sub *Subscription) Path() Path {
	return sub.path
}

// Disconnect removes the handler. Further calls are no-ops.
func (sub *Subscription) Disconnect(ctx context.Context) error {
	sub.lock.Lock()
	cancel := sub.cancel
	sub.cancel = nil
	sub.lock.Unlock()

	if cancel == nil {
		return nil
	}
	return cancel(ctx)
}
