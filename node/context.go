package node

import (
	"time"

	"github.com/rs/zerolog"
)

// PathResolver can translate a path expression the built-in rules do not
// cover. Resolvers are consulted before an expression is treated as an
// absolute uri; the first resolver to return true wins.
type PathResolver func(base Path, expr string, nctx *Context) (Path, bool)

// ContextOption configures one link of a context chain.
type ContextOption func(c *Context)

// WithDispatcher sets the dispatcher nodes bound under this context use for
// registration and traffic.
func WithDispatcher(d Dispatcher) ContextOption {
	return func(c *Context) {
		c.dispatcher = d
	}
}

// WithLogger sets the logger handed to nodes bound under this context.
func WithLogger(logger zerolog.Logger) ContextOption {
	return func(c *Context) {
		c.logger = &logger
	}
}

// WithCallTimeout bounds outgoing calls made through this context when the
// caller passes a context.Context without a deadline.
func WithCallTimeout(timeout time.Duration) ContextOption {
	return func(c *Context) {
		c.callTimeout = timeout
	}
}

// WithPathResolver appends a custom path resolver.
func WithPathResolver(r PathResolver) ContextOption {
	return func(c *Context) {
		c.pathResolvers = append(c.pathResolvers, r)
	}
}

// WithRegisterOptions sets the WAMP options attached to procedure
// registrations.
func WithRegisterOptions(options Dict) ContextOption {
	return func(c *Context) {
		c.registerOptions = options
	}
}

// WithSubscribeOptions sets the WAMP options attached to subscriptions.
func WithSubscribeOptions(options Dict) ContextOption {
	return func(c *Context) {
		c.subscribeOptions = options
	}
}

// WithCallOptions sets the WAMP options attached to outgoing calls.
func WithCallOptions(options Dict) ContextOption {
	return func(c *Context) {
		c.callOptions = options
	}
}

// WithPublishOptions sets the WAMP options attached to outgoing
// publications.
func WithPublishOptions(options Dict) ContextOption {
	return func(c *Context) {
		c.publishOptions = options
	}
}

// WithValue sets an application-defined key on this link.
func WithValue(key string, value interface{}) ContextOption {
	return func(c *Context) {
		if c.values == nil {
			c.values = make(map[string]interface{})
		}
		c.values[key] = value
	}
}

// Context carries the configuration a node needs to take part in WAMP
// traffic: the dispatcher, logging, per-operation options and custom values.
//
// Contexts form a chain: Child returns a new link whose lookups fall back to
// its parent, so a subtree can override single settings while inheriting the
// rest. Links are immutable once built; configuration happens through
// options.
type Context struct {
	parent *Context

	dispatcher       Dispatcher
	logger           *zerolog.Logger
	callTimeout      time.Duration
	pathResolvers    []PathResolver
	registerOptions  Dict
	subscribeOptions Dict
	callOptions      Dict
	publishOptions   Dict
	values           map[string]interface{}
}

// NewContext builds a root context link.
func NewContext(opts ...ContextOption) *Context {
	c := new(Context)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Child returns a new link chained to c. Options set on the child shadow the
// parent's values; everything else is inherited.
func (c *Context) Child(opts ...ContextOption) *Context {
	child := &Context{parent: c}
	for _, opt := range opts {
		opt(child)
	}
	return child
}

// Parent returns the link this context falls back to, or nil for a root.
func (c *Context) Parent() *Context {
	return c.parent
}

// Dispatcher returns the nearest dispatcher in the chain, or nil.
func (c *Context) Dispatcher() Dispatcher {
	for link := c; link != nil; link = link.parent {
		if link.dispatcher != nil {
			return link.dispatcher
		}
	}
	return nil
}

// Logger returns the nearest logger in the chain, or a no-op logger.
func (c *Context) Logger() zerolog.Logger {
	for link := c; link != nil; link = link.parent {
		if link.logger != nil {
			return *link.logger
		}
	}
	return zerolog.Nop()
}

// CallTimeout returns the nearest call timeout in the chain, or zero.
func (c *Context) CallTimeout() time.Duration {
	for link := c; link != nil; link = link.parent {
		if link.callTimeout != 0 {
			return link.callTimeout
		}
	}
	return 0
}

// PathResolvers collects the resolvers along the whole chain, innermost
// first.
func (c *Context) PathResolvers() []PathResolver {
	var out []PathResolver
	for link := c; link != nil; link = link.parent {
		out = append(out, link.pathResolvers...)
	}
	return out
}

// RegisterOptions returns the nearest registration options in the chain.
func (c *Context) RegisterOptions() Dict {
	for link := c; link != nil; link = link.parent {
		if link.registerOptions != nil {
			return link.registerOptions
		}
	}
	return nil
}

// SubscribeOptions returns the nearest subscription options in the chain.
func (c *Context) SubscribeOptions() Dict {
	for link := c; link != nil; link = link.parent {
		if link.subscribeOptions != nil {
			return link.subscribeOptions
		}
	}
	return nil
}

// CallOptions returns the nearest call options in the chain.
func (c *Context) CallOptions() Dict {
	for link := c; link != nil; link = link.parent {
		if link.callOptions != nil {
			return link.callOptions
		}
	}
	return nil
}

// PublishOptions returns the nearest publish options in the chain.
func (c *Context) PublishOptions() Dict {
	for link := c; link != nil; link = link.parent {
		if link.publishOptions != nil {
			return link.publishOptions
		}
	}
	return nil
}

// Value returns the nearest value stored under key in the chain.
func (c *Context) Value(key string) (interface{}, bool) {
	for link := c; link != nil; link = link.parent {
		if link.values != nil {
			if v, ok := link.values[key]; ok {
				return v, true
			}
		}
	}
	return nil, false
}
