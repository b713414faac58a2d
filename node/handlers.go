package node

import (
	"context"
)

// Detail keys found in Invocation.Details and Event.Details.
const (
	// DetailProcedure is the uri the call was made against.
	DetailProcedure = "procedure"
	// DetailCaller identifies the calling session.
	DetailCaller = "caller"
	// DetailTopic is the uri the event was published to.
	DetailTopic = "topic"
	// DetailPublisher identifies the publishing session.
	DetailPublisher = "publisher"
)

// LocalPeer is the caller / publisher detail value for traffic dispatched
// in-process, without touching the router.
const LocalPeer = "local"

// LocalKwargPrefix marks keyword arguments that must never leave the
// process: they are delivered to local points and stripped before external
// publication.
const LocalKwargPrefix = "local_"

// CallHandler serves calls to one procedure path.
type CallHandler func(ctx context.Context, inv Invocation) (*Result, error)

// EventHandler consumes publications to one topic path.
type EventHandler func(ctx context.Context, evt Event)

// Invocation is one incoming call.
type Invocation struct {
	// Path is the procedure path the handler is mounted on.
	Path Path
	// Args is the positional payload.
	Args List
	// Kwargs is the keyword payload.
	Kwargs Dict
	// Details carries call metadata such as DetailProcedure and
	// DetailCaller.
	Details Dict
}

// Event is one incoming publication.
type Event struct {
	// Path is the topic path the handler is mounted on.
	Path Path
	// Args is the positional payload.
	Args List
	// Kwargs is the keyword payload.
	Kwargs Dict
	// Details carries publication metadata such as DetailTopic and
	// DetailPublisher.
	Details Dict
}

// Result is a call return payload.
type Result struct {
	// Args is the positional payload.
	Args List
	// Kwargs is the keyword payload.
	Kwargs Dict
}

// NewResult builds a positional result.
func NewResult(args ...interface{}) *Result {
	return &Result{Args: args}
}

// First returns the first positional value, or nil for an empty result.
// Convenience for the common single-value reply.
func (r *Result) First() interface{} {
	if r == nil || len(r.Args) == 0 {
		return nil
	}
	return r.Args[0]
}
