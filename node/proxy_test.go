//revive:disable
package node_test

import (
	"context"
	"testing"

	"github.com/peake100/rockyRaccoon-go/node"
	"github.com/stretchr/testify/suite"
)

type ProxySuite struct {
	suite.Suite
}

func (suite *ProxySuite) TestDescendAndTraffic() {
	res := new(testResource)
	dispatcher := newRecordingDispatcher()
	dispatcher.callResult = node.NewResult("pong")
	nctx := node.NewContext(node.WithDispatcher(dispatcher))

	path, err := node.NewPath("test2", node.MustPath("raccoon"))
	suite.NoError(err)
	suite.NoError(node.Bind(context.Background(), res, path, nctx))

	proxy, err := res.Remote("@test")
	suite.NoError(err)
	suite.Equal("raccoon.test", proxy.Path().String())
	suite.Equal("raccoon.test", proxy.String())
	suite.Same(res, proxy.Node())

	leaf := proxy.Descend("sub", "leaf")
	suite.Equal("raccoon.test.sub.leaf", leaf.Path().String())
	suite.Equal("raccoon.test", proxy.Path().String(), "descending leaves the parent alone")

	result, err := leaf.Call(context.Background(), node.List{1}, nil)
	suite.NoError(err)
	suite.Equal("pong", result.First())
	suite.Equal("raccoon.test.sub.leaf", dispatcher.calls[0].String())

	suite.NoError(proxy.Notify(context.Background(), nil, node.Dict{"k": "v"}))
	suite.Equal("raccoon.test", dispatcher.notifies[0].String())

	handle, err := proxy.Connect(
		context.Background(), func(ctx context.Context, evt node.Event) {},
	)
	suite.NoError(err)
	suite.Equal("raccoon.test", handle.Path().String())
	suite.NoError(handle.Disconnect(context.Background()))
}

func (suite *ProxySuite) TestWithoutDispatcher() {
	res := new(testResource)
	suite.NoError(
		node.Bind(context.Background(), res, node.MustPath("raccoon.test"), nil),
	)

	proxy, err := res.Remote("raccoon.other")
	suite.NoError(err, "proxies build without a dispatcher")

	_, err = proxy.Call(context.Background(), nil, nil)
	var proxyErr *node.ProxyError
	suite.ErrorAs(err, &proxyErr)

	suite.Error(proxy.Notify(context.Background(), nil, nil))

	_, err = proxy.Connect(
		context.Background(), func(ctx context.Context, evt node.Event) {},
	)
	suite.Error(err)
}

func (suite *ProxySuite) TestResolutionErrors() {
	unbound := new(testResource)
	_, err := unbound.Remote("raccoon.other")
	suite.Error(err, "unbound nodes have no path to resolve against")

	res := new(testResource)
	suite.NoError(
		node.Bind(context.Background(), res, node.MustPath("raccoon.test"), nil),
	)

	_, err = res.Remote("@other")
	suite.Error(err, "base resolution needs an anchored path")
}

func TestProxy(t *testing.T) {
	suite.Run(t, new(ProxySuite))
}
