package node

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Resource is anything that can take part in a node tree. Embedding Node
// satisfies it:
//
//	type Calculator struct {
//	    node.Node
//	    ...
//	}
//
// The tree machinery reaches the embedded state through NodeRef, while the
// embedder keeps its own identity everywhere a Resource is passed around.
type Resource interface {
	NodeRef() *Node
}

// BindEvent is sent when a node is attached to a path.
type BindEvent struct {
	// Node is the bound resource.
	Node Resource
	// Path is where it was mounted.
	Path Path
	// Parent is the owning resource, nil for roots.
	Parent Resource
}

// UnbindEvent is sent when a node is detached from its path.
type UnbindEvent struct {
	// Node is the resource being unbound.
	Node Resource
	// Path is where it was mounted.
	Path Path
	// Parent is the owning resource, nil for roots.
	Parent Resource
}

// ChildEvent is sent by a parent when a child is attached under it.
type ChildEvent struct {
	// Parent is the resource the child was added to.
	Parent Resource
	// Child is the new resource.
	Child Resource
	// Name is the child's fragment under the parent.
	Name string
	// Path is the child's full path.
	Path Path
}

// Node is the embeddable tree element. A fresh node is unbound: it has no
// path, no parent and no dispatcher. Bind mounts a root; AddChild mounts
// subtrees. Once bound under a context with a dispatcher, the node's
// exported points (see Exporter) are registered with the WAMP session and
// traffic methods like CallPath become live.
//
// The zero value is ready to use.
type Node struct {
	lock sync.RWMutex

	res        Resource
	path       Path
	nctx       *Context
	ownCtx     bool
	parent     Resource
	children   map[string]Resource
	childOrder []string
	exports    *Exports
	bound      bool

	bindSubs   []chan BindEvent
	unbindSubs []chan UnbindEvent
	childSubs  []chan ChildEvent
}

// NodeRef implements Resource.
func (n *Node) NodeRef() *Node {
	return n
}

// NodeSerializationID implements serialize.IdentifiesSerialization for the
// node and every type embedding it, so any resource crossing a session
// boundary travels as a reference to its path.
func (n *Node) NodeSerializationID() string {
	return SerializationIDNode
}

// Bind mounts res as a tree root at path. nctx supplies the configuration
// subtree nodes inherit; it may be nil for a purely local tree. When the
// context carries a dispatcher, the node's exported points are registered
// as soon as the session allows it.
//
// res must be the outer resource value, not the embedded node:
//
//	calc := &Calculator{}
//	err := node.Bind(ctx, calc, path, nctx)
func Bind(ctx context.Context, res Resource, path Path, nctx *Context) error {
	if res == nil {
		return &NodeError{Op: "bind", Path: path, Reason: "resource is nil"}
	}
	return res.NodeRef().bind(ctx, res, path, nctx, nil)
}

func (n *Node) bind(
	ctx context.Context, res Resource, path Path, nctx *Context, parent Resource,
) error {
	if path.IsZero() {
		return &NodeError{Op: "bind", Reason: "path has no value"}
	}

	n.lock.Lock()
	if n.bound {
		n.lock.Unlock()
		return &NodeError{Op: "bind", Path: path, Err: ErrAlreadyBound}
	}
	n.res = res
	n.path = path
	n.parent = parent
	if nctx != nil && n.nctx == nil {
		// each node gets its own chain link so subtree overrides stay local
		n.nctx = nctx.Child()
		n.ownCtx = true
	}
	if n.exports == nil {
		n.exports = new(Exports)
		if exp, ok := res.(Exporter); ok {
			exp.ExportedPoints(n.exports)
		}
	}
	for name, sig := range n.exports.signals {
		sig.bind(n, name)
	}
	n.bound = true
	boundCtx := n.nctx
	n.lock.Unlock()

	if boundCtx != nil {
		if d := boundCtx.Dispatcher(); d != nil {
			if err := d.NodeBound(ctx, res); err != nil {
				n.rollbackBind()
				return &NodeError{Op: "bind", Path: path, Err: err}
			}
		}
	}

	n.fireBind(BindEvent{Node: res, Path: path, Parent: parent})
	return nil
}

// rollbackBind undoes a bind whose dispatcher hookup failed.
func (n *Node) rollbackBind() {
	n.lock.Lock()
	defer n.lock.Unlock()
	for _, sig := range n.exports.signals {
		sig.unbind()
	}
	n.res = nil
	n.path = Path{}
	n.parent = nil
	if n.ownCtx {
		n.nctx = nil
		n.ownCtx = false
	}
	n.bound = false
}

// Unbind detaches the node: its points are unregistered, every descendant is
// unbound, and the parent forgets it. Notification channels are closed at
// the end, after the UnbindEvent is delivered. The node can be bound again
// afterwards.
func (n *Node) Unbind(ctx context.Context) error {
	n.lock.Lock()
	if !n.bound {
		n.lock.Unlock()
		return &NodeError{Op: "unbind", Err: ErrNotBound}
	}
	res := n.res
	path := n.path
	parent := n.parent
	nctx := n.nctx
	children := make([]Resource, 0, len(n.childOrder))
	for _, name := range n.childOrder {
		children = append(children, n.children[name])
	}
	unbindSubs := append([]chan UnbindEvent(nil), n.unbindSubs...)
	n.lock.Unlock()

	var errs []error

	// withdraw own points before the subtree goes away
	if nctx != nil {
		if d := nctx.Dispatcher(); d != nil {
			if err := d.NodeUnbound(ctx, res); err != nil {
				errs = append(errs, err)
			}
		}
	}

	for _, ch := range unbindSubs {
		ch <- UnbindEvent{Node: res, Path: path, Parent: parent}
	}

	for _, child := range children {
		if err := child.NodeRef().Unbind(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if parent != nil {
		parent.NodeRef().forgetChild(res)
	}

	n.lock.Lock()
	n.bound = false
	n.res = nil
	n.path = Path{}
	n.parent = nil
	n.children = nil
	n.childOrder = nil
	if n.ownCtx {
		n.nctx = nil
		n.ownCtx = false
	}
	for _, sig := range n.exports.signals {
		sig.unbind()
	}
	bindSubs := n.bindSubs
	childSubs := n.childSubs
	n.bindSubs = nil
	n.unbindSubs = nil
	n.childSubs = nil
	n.lock.Unlock()

	for _, ch := range bindSubs {
		close(ch)
	}
	for _, ch := range unbindSubs {
		close(ch)
	}
	for _, ch := range childSubs {
		close(ch)
	}

	return errors.Join(errs...)
}

// AddChild mounts child under the node at name. The child is bound at the
// parent's path plus name and inherits the parent's context. A registered
// parent gets the child registered as well.
func (n *Node) AddChild(ctx context.Context, name string, child Resource) error {
	if child == nil {
		return &NodeError{Op: "add", Reason: "child resource is nil"}
	}
	if name == "" {
		return &NodeError{Op: "add", Reason: "child name must not be empty"}
	}

	n.lock.Lock()
	if !n.bound {
		n.lock.Unlock()
		return &NodeError{Op: "add", Reason: fmt.Sprintf("cannot add '%v'", name), Err: ErrNotBound}
	}
	if _, ok := n.children[name]; ok {
		n.lock.Unlock()
		return &NodeError{
			Op:     "add",
			Path:   n.path,
			Reason: fmt.Sprintf("child name '%v' already in use", name),
		}
	}
	if n.children == nil {
		n.children = make(map[string]Resource)
	}
	// reserve the slot before releasing the lock
	n.children[name] = child
	n.childOrder = append(n.childOrder, name)
	parentRes := n.res
	childPath := n.path.Join(name)
	nctx := n.nctx
	n.lock.Unlock()

	if err := child.NodeRef().bind(ctx, child, childPath, nctx, parentRes); err != nil {
		n.forgetChild(child)
		return err
	}

	n.fireChild(ChildEvent{Parent: parentRes, Child: child, Name: name, Path: childPath})
	return nil
}

// RemoveChild unbinds the named child and its subtree.
func (n *Node) RemoveChild(ctx context.Context, name string) error {
	n.lock.RLock()
	child, ok := n.children[name]
	n.lock.RUnlock()
	if !ok {
		return &NodeError{Op: "remove", Reason: fmt.Sprintf("no child named '%v'", name)}
	}
	return child.NodeRef().Unbind(ctx)
}

func (n *Node) forgetChild(child Resource) {
	n.lock.Lock()
	defer n.lock.Unlock()
	for name, c := range n.children {
		if c == child {
			delete(n.children, name)
			for i, nm := range n.childOrder {
				if nm == name {
					n.childOrder = append(n.childOrder[:i], n.childOrder[i+1:]...)
					break
				}
			}
			return
		}
	}
}

// Register registers the node's exported points with the session. Nodes
// register automatically when bound; this re-arms a node after Unregister.
// Without a dispatcher, or with a detached session, it is a no-op.
func (n *Node) Register(ctx context.Context) error {
	n.lock.RLock()
	res, nctx, bound := n.res, n.nctx, n.bound
	n.lock.RUnlock()
	if !bound {
		return &NodeError{Op: "register", Err: ErrNotBound}
	}
	if nctx == nil {
		return nil
	}
	d := nctx.Dispatcher()
	if d == nil {
		return nil
	}
	return d.NodeRegister(ctx, res)
}

// Unregister withdraws the node's points from the session. The node stays
// bound and can register again.
func (n *Node) Unregister(ctx context.Context) error {
	n.lock.RLock()
	res, nctx, bound := n.res, n.nctx, n.bound
	n.lock.RUnlock()
	if !bound {
		return &NodeError{Op: "unregister", Err: ErrNotBound}
	}
	if nctx == nil {
		return nil
	}
	d := nctx.Dispatcher()
	if d == nil {
		return nil
	}
	return d.NodeUnregister(ctx, res)
}

// CallPath invokes the procedure at expr, resolved against the node's path.
// Expressions may be absolute ("other.tree.op") or base-relative
// ("@server.op").
func (n *Node) CallPath(
	ctx context.Context, expr string, args List, kwargs Dict,
) (*Result, error) {
	res, path, nctx, d, err := n.dispatchState("call")
	if err != nil {
		return nil, err
	}
	dst, err := path.Resolve(expr, nctx)
	if err != nil {
		return nil, err
	}
	ctx, cancel := dispatchContext(ctx, nctx)
	defer cancel()
	return d.Call(ctx, res, dst, args, kwargs)
}

// NotifyPath publishes to the topic at expr, resolved against the node's
// path.
func (n *Node) NotifyPath(
	ctx context.Context, expr string, args List, kwargs Dict,
) error {
	res, path, nctx, d, err := n.dispatchState("notify")
	if err != nil {
		return err
	}
	dst, err := path.Resolve(expr, nctx)
	if err != nil {
		return err
	}
	ctx, cancel := dispatchContext(ctx, nctx)
	defer cancel()
	return d.Notify(ctx, Source{Resource: res}, dst, args, kwargs)
}

// ConnectPath mounts handler as a subscription at expr, resolved against
// the node's path. The returned handle disconnects it.
func (n *Node) ConnectPath(
	ctx context.Context, expr string, handler EventHandler,
) (*Subscription, error) {
	res, path, nctx, d, err := n.dispatchState("connect")
	if err != nil {
		return nil, err
	}
	dst, err := path.Resolve(expr, nctx)
	if err != nil {
		return nil, err
	}
	return d.Connect(ctx, res, dst, handler)
}

// Remote returns a proxy for the subtree at expr, resolved against the
// node's path.
func (n *Node) Remote(expr string) (*Proxy, error) {
	n.lock.RLock()
	bound, path, nctx, res := n.bound, n.path, n.nctx, n.res
	n.lock.RUnlock()
	if !bound {
		return nil, &ProxyError{Reason: "source node is not bound"}
	}
	dst, err := path.Resolve(expr, nctx)
	if err != nil {
		return nil, err
	}
	return &Proxy{res: res, nctx: nctx, path: dst}, nil
}

// NotifyBind registers ch for bind events. The channel is closed when the
// node unbinds. Sends are synchronous: pass a buffered channel unless the
// receiver is always ready.
func (n *Node) NotifyBind(ch chan BindEvent) chan BindEvent {
	n.lock.Lock()
	defer n.lock.Unlock()
	n.bindSubs = append(n.bindSubs, ch)
	return ch
}

// NotifyUnbind registers ch for unbind events. The channel is closed when
// the node unbinds, after the event is delivered.
func (n *Node) NotifyUnbind(ch chan UnbindEvent) chan UnbindEvent {
	n.lock.Lock()
	defer n.lock.Unlock()
	n.unbindSubs = append(n.unbindSubs, ch)
	return ch
}

// NotifyChildAdd registers ch for child attachments. The channel is closed
// when the node unbinds.
func (n *Node) NotifyChildAdd(ch chan ChildEvent) chan ChildEvent {
	n.lock.Lock()
	defer n.lock.Unlock()
	n.childSubs = append(n.childSubs, ch)
	return ch
}

// Path returns where the node is mounted; zero while unbound.
func (n *Node) Path() Path {
	n.lock.RLock()
	defer n.lock.RUnlock()
	return n.path
}

// Context returns the node's context link, nil while unbound or for local
// trees bound without one.
func (n *Node) Context() *Context {
	n.lock.RLock()
	defer n.lock.RUnlock()
	return n.nctx
}

// Parent returns the owning resource, nil for roots and unbound nodes.
func (n *Node) Parent() Resource {
	n.lock.RLock()
	defer n.lock.RUnlock()
	return n.parent
}

// Bound reports whether the node is mounted in a tree.
func (n *Node) Bound() bool {
	n.lock.RLock()
	defer n.lock.RUnlock()
	return n.bound
}

// Registered reports whether the node's points are live on the session.
func (n *Node) Registered() bool {
	n.lock.RLock()
	res, nctx := n.res, n.nctx
	n.lock.RUnlock()
	if res == nil || nctx == nil {
		return false
	}
	d := nctx.Dispatcher()
	return d != nil && d.NodeRegistered(res)
}

// Name returns the node's own fragment, the last element of its path.
func (n *Node) Name() string {
	n.lock.RLock()
	defer n.lock.RUnlock()
	return n.path.Last()
}

// Root walks up the parents and returns the tree root.
func (n *Node) Root() Resource {
	n.lock.RLock()
	res, parent := n.res, n.parent
	n.lock.RUnlock()
	if parent == nil {
		return res
	}
	return parent.NodeRef().Root()
}

// Exports returns the points collected from the resource's Exporter hook.
// Nil until the first bind.
func (n *Node) Exports() *Exports {
	n.lock.RLock()
	defer n.lock.RUnlock()
	return n.exports
}

// Child returns the named child.
func (n *Node) Child(name string) (Resource, bool) {
	n.lock.RLock()
	defer n.lock.RUnlock()
	child, ok := n.children[name]
	return child, ok
}

// Children returns the children by name.
func (n *Node) Children() map[string]Resource {
	n.lock.RLock()
	defer n.lock.RUnlock()
	out := make(map[string]Resource, len(n.children))
	for name, child := range n.children {
		out[name] = child
	}
	return out
}

// ChildNames returns the child names in attachment order.
func (n *Node) ChildNames() []string {
	n.lock.RLock()
	defer n.lock.RUnlock()
	out := make([]string, len(n.childOrder))
	copy(out, n.childOrder)
	return out
}

// String implements fmt.Stringer.
func (n *Node) String() string {
	n.lock.RLock()
	defer n.lock.RUnlock()
	if !n.bound {
		return "unbound node"
	}
	return fmt.Sprintf("node at '%v'", n.path)
}

func (n *Node) resource() Resource {
	n.lock.RLock()
	defer n.lock.RUnlock()
	return n.res
}

func (n *Node) dispatchState(op string) (Resource, Path, *Context, Dispatcher, error) {
	n.lock.RLock()
	defer n.lock.RUnlock()
	if !n.bound {
		return nil, Path{}, nil, nil, &NodeError{Op: op, Err: ErrNotBound}
	}
	var d Dispatcher
	if n.nctx != nil {
		d = n.nctx.Dispatcher()
	}
	if d == nil {
		return nil, Path{}, nil, nil, &NodeError{Op: op, Path: n.path, Err: ErrNoDispatcher}
	}
	return n.res, n.path, n.nctx, d, nil
}

func (n *Node) fireBind(evt BindEvent) {
	n.lock.RLock()
	subs := append([]chan BindEvent(nil), n.bindSubs...)
	n.lock.RUnlock()
	for _, ch := range subs {
		ch <- evt
	}
}

func (n *Node) fireChild(evt ChildEvent) {
	n.lock.RLock()
	subs := append([]chan ChildEvent(nil), n.childSubs...)
	n.lock.RUnlock()
	for _, ch := range subs {
		ch <- evt
	}
}

// dispatchContext applies the context's call timeout when the caller's
// context has no deadline of its own.
func dispatchContext(ctx context.Context, nctx *Context) (context.Context, context.CancelFunc) {
	if nctx != nil {
		if timeout := nctx.CallTimeout(); timeout > 0 {
			if _, hasDeadline := ctx.Deadline(); !hasDeadline {
				return context.WithTimeout(ctx, timeout)
			}
		}
	}
	return ctx, func() {}
}
