package wamp

import (
	"github.com/peake100/rockyRaccoon-go/node"
)

// NewNodeContext returns a node context wired to the session: the session's
// manager as the dispatcher and the session's logger, with opts applied on
// top. It is the usual entry point for mounting a tree on the realm:
//
//	session, err := wamp.Dial("ws://localhost:8080/ws")
//	if err != nil {
//	    panic(err)
//	}
//
//	nctx := wamp.NewNodeContext(session)
//	err = node.Bind(ctx, service, node.MustPath("myapp.service"), nctx)
func NewNodeContext(session *Session, opts ...node.ContextOption) *node.Context {
	base := []node.ContextOption{
		node.WithDispatcher(session.Manager()),
		node.WithLogger(session.logger),
	}
	return node.NewContext(append(base, opts...)...)
}
