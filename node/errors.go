package node

import (
	"errors"
	"fmt"
)

// ErrNotBound is returned by operations that need a node attached to a tree
// when the node has not been bound (or has already been unbound).
var ErrNotBound = errors.New("node is not bound to a path")

// ErrAlreadyBound is returned when binding a node that is already part of a
// tree.
var ErrAlreadyBound = errors.New("node is already bound to a path")

// ErrNoDispatcher is returned by communication operations on nodes whose
// context carries no dispatcher.
var ErrNoDispatcher = errors.New("node context has no dispatcher")

// PathError is returned when a path cannot be parsed, composed or resolved.
type PathError struct {
	// Expr is the offending path expression.
	Expr string
	// Reason describes why the operation failed.
	Reason string
}

// Error implements builtins.error.
func (err *PathError) Error() string {
	return fmt.Sprintf("path error for '%v': %v", err.Expr, err.Reason)
}

// NodeError is returned by failing tree operations: bind, unbind, child
// add and remove.
type NodeError struct {
	// Op is the failing operation.
	Op string
	// Path is the node path involved, when known.
	Path Path
	// Reason describes the failure.
	Reason string
	// Err is the underlying error, if any.
	Err error
}

// Unwrap implements xerrors.Wrapper and returns the underlying error.
func (err *NodeError) Unwrap() error {
	return err.Err
}

// Error implements builtins.error.
func (err *NodeError) Error() string {
	msg := fmt.Sprintf("node %v failed", err.Op)
	if !err.Path.IsZero() {
		msg = fmt.Sprintf("%v at '%v'", msg, err.Path)
	}
	if err.Reason != "" {
		msg = fmt.Sprintf("%v: %v", msg, err.Reason)
	}
	if err.Err != nil {
		msg = fmt.Sprintf("%v: %v", msg, err.Err)
	}
	return msg
}

// DispatchError is returned when a payload cannot be routed to any point,
// local or remote.
type DispatchError struct {
	// Path is the destination that could not be served.
	Path Path
	// Reason describes the failure.
	Reason string
	// Err is the underlying error, if any.
	Err error
}

// Unwrap implements xerrors.Wrapper and returns the underlying error.
func (err *DispatchError) Unwrap() error {
	return err.Err
}

// Error implements builtins.error.
func (err *DispatchError) Error() string {
	msg := fmt.Sprintf("dispatch to '%v' failed: %v", err.Path, err.Reason)
	if err.Err != nil {
		msg = fmt.Sprintf("%v: %v", msg, err.Err)
	}
	return msg
}

// RPCError is returned when a remote call fails. It surfaces the WAMP error
// uri and payload sent by the callee or the router.
type RPCError struct {
	// URI is the WAMP error uri, e.g. "wamp.error.no_such_procedure".
	URI string
	// Procedure is the called path.
	Procedure string
	// Args is the positional error payload, if any.
	Args List
	// Kwargs is the keyword error payload, if any.
	Kwargs Dict
	// Err is the underlying transport error, if any.
	Err error
}

// Unwrap implements xerrors.Wrapper and returns the underlying error.
func (err *RPCError) Unwrap() error {
	return err.Err
}

// Error implements builtins.error.
func (err *RPCError) Error() string {
	msg := fmt.Sprintf("rpc to '%v' failed with '%v'", err.Procedure, err.URI)
	if len(err.Args) > 0 {
		msg = fmt.Sprintf("%v: %v", msg, err.Args[0])
	}
	return msg
}

// ProxyError is returned by proxy operations that cannot be carried out, for
// example when the source node has been unbound underneath the proxy.
type ProxyError struct {
	// Path is the proxied path.
	Path Path
	// Reason describes the failure.
	Reason string
}

// Error implements builtins.error.
func (err *ProxyError) Error() string {
	return fmt.Sprintf("proxy for '%v': %v", err.Path, err.Reason)
}
