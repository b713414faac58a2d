package node

import (
	"context"
)

// Proxy is a handle on a possibly remote subtree: a path paired with the
// local node whose session carries the traffic. Proxies are cheap values;
// Descend derives handles for nested paths without any network activity.
//
// A proxy created from a node on the serving session still works: calls and
// notifications dispatch in-process.
type Proxy struct {
	res  Resource
	nctx *Context
	path Path
}

// Path returns the proxied path.
func (p *Proxy) Path() Path {
	return p.path
}

// Node returns the local resource the proxy dispatches through.
func (p *Proxy) Node() Resource {
	return p.res
}

// String implements fmt.Stringer.
func (p *Proxy) String() string {
	return p.path.String()
}

// Descend returns a proxy for a path below this one.
func (p *Proxy) Descend(fragments ...string) *Proxy {
	return &Proxy{res: p.res, nctx: p.nctx, path: p.path.Join(fragments...)}
}

// Call invokes the procedure at the proxied path.
func (p *Proxy) Call(
	ctx context.Context, args List, kwargs Dict,
) (*Result, error) {
	d, err := p.dispatcher()
	if err != nil {
		return nil, err
	}
	ctx, cancel := dispatchContext(ctx, p.nctx)
	defer cancel()
	return d.Call(ctx, p.res, p.path, args, kwargs)
}

// Notify publishes to the topic at the proxied path.
func (p *Proxy) Notify(ctx context.Context, args List, kwargs Dict) error {
	d, err := p.dispatcher()
	if err != nil {
		return err
	}
	ctx, cancel := dispatchContext(ctx, p.nctx)
	defer cancel()
	return d.Notify(ctx, Source{Resource: p.res}, p.path, args, kwargs)
}

// Connect mounts handler as a subscription at the proxied path. The
// returned handle disconnects it.
func (p *Proxy) Connect(
	ctx context.Context, handler EventHandler,
) (*Subscription, error) {
	d, err := p.dispatcher()
	if err != nil {
		return nil, err
	}
	return d.Connect(ctx, p.res, p.path, handler)
}

func (p *Proxy) dispatcher() (Dispatcher, error) {
	if p.nctx == nil {
		return nil, &ProxyError{Path: p.path, Reason: "source node has no dispatcher"}
	}
	d := p.nctx.Dispatcher()
	if d == nil {
		return nil, &ProxyError{Path: p.path, Reason: "source node has no dispatcher"}
	}
	return d, nil
}
