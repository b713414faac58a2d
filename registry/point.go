package registry

import (
	"fmt"
	"sync/atomic"

	"github.com/peake100/rockyRaccoon-go/node"
)

// Kind discriminates what a point does on the wire: answer calls or receive
// events.
type Kind int

const (
	// KindCall points answer routed calls. A path holds at most one.
	KindCall Kind = iota
	// KindEvent points receive published events. A path may hold many.
	KindEvent
)

// String returns the WAMP-facing name of the kind.
func (kind Kind) String() string {
	switch kind {
	case KindCall:
		return "call"
	case KindEvent:
		return "subscription"
	default:
		return fmt.Sprintf("kind(%d)", int(kind))
	}
}

// Counter for point ids. Ids only need to be unique within a process, so a
// package-level counter is enough.
var pointIDCounter uint64

// Point is a single local dispatch endpoint at a path: either a call handler
// or an event handler, collected from an owning resource.
type Point struct {
	// Owner is the resource the point was collected from. All of an owner's
	// points are dropped together when the owner unbinds.
	Owner node.Resource
	// Kind tells whether Call or Event carries the handler.
	Kind Kind
	// Call answers routed calls. Non-nil only for KindCall points.
	Call node.CallHandler
	// Event receives published events. Non-nil only for KindEvent points.
	Event node.EventHandler
	// Source is non-nil when this point is the local half of a signal: the
	// signal's own subscription at its topic path. Event dispatch skips the
	// source point of the signal that produced the event, mirroring the
	// router's publisher exclusion.
	Source *node.Signal

	id uint64
}

// NewCallPoint returns a call point for handler owned by owner.
func NewCallPoint(owner node.Resource, handler node.CallHandler) *Point {
	return &Point{
		Owner: owner,
		Kind:  KindCall,
		Call:  handler,
		id:    atomic.AddUint64(&pointIDCounter, 1),
	}
}

// NewEventPoint returns an event point for handler owned by owner.
func NewEventPoint(owner node.Resource, handler node.EventHandler) *Point {
	return &Point{
		Owner: owner,
		Kind:  KindEvent,
		Event: handler,
		id:    atomic.AddUint64(&pointIDCounter, 1),
	}
}

// NewSignalPoint returns the event point that lets sig receive events
// published at its own topic, whether they originate locally or from the
// router. The point's handler fans incoming events out to the signal's
// connected handlers.
func NewSignalPoint(owner node.Resource, sig *node.Signal) *Point {
	return &Point{
		Owner:  owner,
		Kind:   KindEvent,
		Event:  sig.HandleEvent,
		Source: sig,
		id:     atomic.AddUint64(&pointIDCounter, 1),
	}
}

// ID returns the point's process-unique id. Ids are assigned in construction
// order and are meant for logs.
func (point *Point) ID() uint64 {
	return point.id
}

// validate reports whether the point's handler matches its kind.
func (point *Point) validate() error {
	switch point.Kind {
	case KindCall:
		if point.Call == nil {
			return fmt.Errorf("call point %d has no call handler", point.id)
		}
	case KindEvent:
		if point.Event == nil {
			return fmt.Errorf("event point %d has no event handler", point.id)
		}
	default:
		return fmt.Errorf("point %d has unknown kind %d", point.id, int(point.Kind))
	}

	return nil
}
