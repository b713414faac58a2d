package node

import (
	"fmt"
	"strings"
)

// Exporter is implemented by resources that publish points: procedures,
// signals and subscriptions mounted relative to the node's path. The export
// hook runs once, when the resource is bound.
type Exporter interface {
	ExportedPoints(e *Exports)
}

// OwnPath is the point name that mounts a point at the node's own path
// instead of a child fragment.
const OwnPath = "."

// HandlerExport is one exported subscription: an event handler mounted at a
// path expression resolved against the node's path at registration time.
type HandlerExport struct {
	// Expr is the path expression, which may use '@' base resolution.
	Expr string
	// Handler consumes the events.
	Handler EventHandler
}

// Exports collects the points a resource publishes. The builder methods
// panic on malformed declarations: exports describe the shape of a type the
// way its field and method declarations do, so mistakes are programming
// errors, not runtime conditions.
type Exports struct {
	calls    map[string]CallHandler
	signals  map[string]*Signal
	handlers []HandlerExport
}

// Call exports h as the procedure at the node path plus name. Use OwnPath to
// mount the procedure at the node's own path.
func (e *Exports) Call(name string, h CallHandler) *Exports {
	checkPointName("call", name)
	if h == nil {
		panic(fmt.Sprintf("exported call '%v' has a nil handler", name))
	}
	if e.calls == nil {
		e.calls = make(map[string]CallHandler)
	}
	if _, ok := e.calls[name]; ok {
		panic(fmt.Sprintf("call '%v' exported twice", name))
	}
	e.calls[name] = h
	return e
}

// Signal exports s as the topic at the node path plus name. Use OwnPath to
// mount the topic at the node's own path.
func (e *Exports) Signal(name string, s *Signal) *Exports {
	checkPointName("signal", name)
	if s == nil {
		panic(fmt.Sprintf("exported signal '%v' is nil", name))
	}
	if e.signals == nil {
		e.signals = make(map[string]*Signal)
	}
	if _, ok := e.signals[name]; ok {
		panic(fmt.Sprintf("signal '%v' exported twice", name))
	}
	e.signals[name] = s
	return e
}

// Handler exports h as a subscription at expr, resolved against the node's
// path when the node registers. Expressions may address other subtrees,
// including '@' base-relative ones.
func (e *Exports) Handler(expr string, h EventHandler) *Exports {
	if expr == "" {
		panic("exported handler has an empty path expression")
	}
	if h == nil {
		panic(fmt.Sprintf("exported handler '%v' has a nil handler", expr))
	}
	e.handlers = append(e.handlers, HandlerExport{Expr: expr, Handler: h})
	return e
}

// Calls returns the exported procedures by name.
func (e *Exports) Calls() map[string]CallHandler {
	out := make(map[string]CallHandler, len(e.calls))
	for name, h := range e.calls {
		out[name] = h
	}
	return out
}

// Signals returns the exported signals by name.
func (e *Exports) Signals() map[string]*Signal {
	out := make(map[string]*Signal, len(e.signals))
	for name, s := range e.signals {
		out[name] = s
	}
	return out
}

// Handlers returns the exported subscriptions in declaration order.
func (e *Exports) Handlers() []HandlerExport {
	out := make([]HandlerExport, len(e.handlers))
	copy(out, e.handlers)
	return out
}

// Point names become single uri fragments, so dotted names are invalid;
// only the OwnPath marker may contain the separator.
func checkPointName(kind, name string) {
	if name == "" {
		panic(fmt.Sprintf("exported %v has an empty name", kind))
	}
	if name != OwnPath && strings.Contains(name, PathSep) {
		panic(fmt.Sprintf("exported %v name '%v' cannot contain dots", kind, name))
	}
}
