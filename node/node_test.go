//revive:disable
package node_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/peake100/rockyRaccoon-go/node"
	"github.com/stretchr/testify/suite"
)

// recordingDispatcher is an in-memory node.Dispatcher that records tree
// traffic, so structural tests can run without a session.
type recordingDispatcher struct {
	lock sync.Mutex

	bound      []node.Resource
	unbound    []node.Resource
	registered map[node.Resource]bool

	calls         []node.Path
	notifies      []node.Path
	notifySources []node.Source

	callResult *node.Result
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{registered: make(map[node.Resource]bool)}
}

func (d *recordingDispatcher) NodeBound(ctx context.Context, res node.Resource) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.bound = append(d.bound, res)
	d.registered[res] = true
	return nil
}

func (d *recordingDispatcher) NodeUnbound(ctx context.Context, res node.Resource) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.unbound = append(d.unbound, res)
	delete(d.registered, res)
	return nil
}

func (d *recordingDispatcher) NodeRegister(ctx context.Context, res node.Resource) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.registered[res] = true
	return nil
}

func (d *recordingDispatcher) NodeUnregister(ctx context.Context, res node.Resource) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.registered[res] = false
	return nil
}

func (d *recordingDispatcher) NodeRegistered(res node.Resource) bool {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.registered[res]
}

func (d *recordingDispatcher) Call(
	ctx context.Context, src node.Resource, dst node.Path, args node.List, kwargs node.Dict,
) (*node.Result, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.calls = append(d.calls, dst)
	return d.callResult, nil
}

func (d *recordingDispatcher) Notify(
	ctx context.Context, src node.Source, dst node.Path, args node.List, kwargs node.Dict,
) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.notifies = append(d.notifies, dst)
	d.notifySources = append(d.notifySources, src)
	return nil
}

func (d *recordingDispatcher) Connect(
	ctx context.Context, src node.Resource, dst node.Path, handler node.EventHandler,
) (*node.Subscription, error) {
	return node.NewSubscription(dst, func(context.Context) error { return nil }), nil
}

// testResource is the minimal tree participant.
type testResource struct {
	node.Node
}

type NodeSuite struct {
	suite.Suite
}

func (suite *NodeSuite) TestBindLifecycle() {
	res := new(testResource)

	suite.False(res.Bound())
	suite.True(res.Path().IsZero())
	suite.Nil(res.Context())
	suite.Nil(res.Parent())

	dispatcher := newRecordingDispatcher()
	nctx := node.NewContext(node.WithDispatcher(dispatcher))
	path := node.MustPath("raccoon.test")

	bindEvents := res.NotifyBind(make(chan node.BindEvent, 1))

	err := node.Bind(context.Background(), res, path, nctx)
	suite.NoError(err, "bind node")

	suite.True(res.Bound())
	suite.True(res.Path().Equal(path))
	suite.Same(nctx, res.Context().Parent(), "node context chains to the bind context")
	suite.Nil(res.Parent(), "roots have no parent")
	suite.Same(res, res.Root())
	suite.Equal("test", res.Name())

	evt := <-bindEvents
	suite.Same(res, evt.Node)
	suite.True(evt.Path.Equal(path))
	suite.Nil(evt.Parent)

	suite.Len(dispatcher.bound, 1)
	suite.Same(res, dispatcher.bound[0])
	suite.True(res.Registered())

	unbindEvents := res.NotifyUnbind(make(chan node.UnbindEvent, 1))

	err = res.Unbind(context.Background())
	suite.NoError(err, "unbind node")

	unbindEvt, open := <-unbindEvents
	suite.True(open, "event delivered before the channel closes")
	suite.Same(res, unbindEvt.Node)
	suite.True(unbindEvt.Path.Equal(path))

	_, open = <-unbindEvents
	suite.False(open, "channel closed after unbind")

	suite.False(res.Bound())
	suite.True(res.Path().IsZero())
	suite.Nil(res.Context())
	suite.Len(dispatcher.unbound, 1)
	suite.False(res.Registered())
}

func (suite *NodeSuite) TestBindErrors() {
	res := new(testResource)
	path := node.MustPath("raccoon.test")

	err := node.Bind(context.Background(), nil, path, nil)
	suite.Error(err, "nil resource")

	err = node.Bind(context.Background(), res, node.Path{}, nil)
	suite.Error(err, "zero path")

	suite.NoError(node.Bind(context.Background(), res, path, nil))

	err = node.Bind(context.Background(), res, path, nil)
	suite.ErrorIs(err, node.ErrAlreadyBound)

	suite.NoError(res.Unbind(context.Background()))
	suite.ErrorIs(res.Unbind(context.Background()), node.ErrNotBound)
}

func (suite *NodeSuite) TestRebind() {
	res := new(testResource)

	suite.NoError(node.Bind(context.Background(), res, node.MustPath("raccoon.one"), nil))
	suite.NoError(res.Unbind(context.Background()))

	suite.NoError(node.Bind(context.Background(), res, node.MustPath("raccoon.two"), nil))
	suite.Equal("raccoon.two", res.Path().String())
}

func (suite *NodeSuite) TestAddChild() {
	parent := new(testResource)
	child := new(testResource)

	dispatcher := newRecordingDispatcher()
	nctx := node.NewContext(node.WithDispatcher(dispatcher))

	suite.NoError(
		node.Bind(context.Background(), parent, node.MustPath("raccoon.test"), nctx),
	)

	childEvents := parent.NotifyChildAdd(make(chan node.ChildEvent, 1))

	suite.NoError(parent.AddChild(context.Background(), "foo", child))

	suite.True(child.Bound())
	suite.Equal("raccoon.test.foo", child.Path().String())
	suite.Same(parent, child.Parent())
	suite.Same(parent, child.Root())
	suite.Same(parent.Context(), child.Context().Parent(), "child context chains to the parent's")
	suite.True(child.Registered(), "child registered through the parent's dispatcher")

	evt := <-childEvents
	suite.Same(parent, evt.Parent)
	suite.Same(child, evt.Child)
	suite.Equal("foo", evt.Name)
	suite.Equal("raccoon.test.foo", evt.Path.String())

	got, ok := parent.Child("foo")
	suite.True(ok)
	suite.Same(child, got)
	suite.Equal([]string{"foo"}, parent.ChildNames())
	suite.Len(parent.Children(), 1)

	suite.NoError(parent.RemoveChild(context.Background(), "foo"))

	suite.False(child.Bound())
	suite.True(child.Path().IsZero())
	suite.Nil(child.Parent())
	_, ok = parent.Child("foo")
	suite.False(ok, "parent forgot the child")

	// The child can be mounted again elsewhere.
	suite.NoError(node.Bind(context.Background(), child, node.MustPath("raccoon.other"), nil))
}

func (suite *NodeSuite) TestAddChildErrors() {
	parent := new(testResource)

	err := parent.AddChild(context.Background(), "foo", new(testResource))
	suite.ErrorIs(err, node.ErrNotBound, "unbound parent")

	suite.NoError(node.Bind(context.Background(), parent, node.MustPath("raccoon.test"), nil))

	suite.Error(parent.AddChild(context.Background(), "foo", nil), "nil child")
	suite.Error(parent.AddChild(context.Background(), "", new(testResource)), "empty name")

	suite.NoError(parent.AddChild(context.Background(), "foo", new(testResource)))
	suite.Error(
		parent.AddChild(context.Background(), "foo", new(testResource)),
		"name already in use",
	)

	suite.Error(parent.RemoveChild(context.Background(), "bar"), "unknown child")
}

func (suite *NodeSuite) TestUnbindCascade() {
	root := new(testResource)
	suite.NoError(node.Bind(context.Background(), root, node.MustPath("root"), nil))

	// Chain of layers: two children under the root, three under the last of
	// those, four under the last of those.
	var channels []chan node.UnbindEvent
	parent := root
	for i := 2; i < 5; i++ {
		var last *testResource
		for y := 0; y < i; y++ {
			child := new(testResource)
			name := fmt.Sprintf("n%d%d", i, y)
			suite.NoError(parent.AddChild(context.Background(), name, child))
			channels = append(channels, child.NotifyUnbind(make(chan node.UnbindEvent, 1)))
			last = child
		}
		parent = last
	}
	suite.Len(channels, 9)

	suite.NoError(root.Unbind(context.Background()))

	for i, ch := range channels {
		evt, open := <-ch
		suite.True(open, "descendant %d delivered its unbind event", i)
		suite.False(evt.Node.NodeRef().Bound())

		_, open = <-ch
		suite.False(open, "descendant %d closed its channel", i)
	}

	suite.Empty(root.Children(), "root forgot its subtree")
}

func (suite *NodeSuite) TestRegisterUnregister() {
	res := new(testResource)

	suite.ErrorIs(res.Register(context.Background()), node.ErrNotBound)
	suite.ErrorIs(res.Unregister(context.Background()), node.ErrNotBound)

	dispatcher := newRecordingDispatcher()
	nctx := node.NewContext(node.WithDispatcher(dispatcher))
	suite.NoError(node.Bind(context.Background(), res, node.MustPath("raccoon.test"), nctx))

	suite.True(res.Registered())

	suite.NoError(res.Unregister(context.Background()))
	suite.False(res.Registered())
	suite.True(res.Bound(), "unregistered node stays bound")

	suite.NoError(res.Register(context.Background()))
	suite.True(res.Registered())
}

func (suite *NodeSuite) TestTrafficThroughDispatcher() {
	res := new(testResource)
	dispatcher := newRecordingDispatcher()
	dispatcher.callResult = node.NewResult(6)
	nctx := node.NewContext(node.WithDispatcher(dispatcher))

	path, err := node.NewPath("test", node.MustPath("raccoon"))
	suite.NoError(err)
	suite.NoError(node.Bind(context.Background(), res, path, nctx))

	result, err := res.CallPath(context.Background(), "@other.op", node.List{1, 2, 3}, nil)
	suite.NoError(err)
	suite.Equal(6, result.First())

	suite.NoError(res.NotifyPath(context.Background(), "@other.evt", nil, node.Dict{"a": 1}))

	sub, err := res.ConnectPath(
		context.Background(), "@other.evt",
		func(ctx context.Context, evt node.Event) {},
	)
	suite.NoError(err)
	suite.Equal("raccoon.other.evt", sub.Path().String())
	suite.NoError(sub.Disconnect(context.Background()))

	suite.Equal("raccoon.other.op", dispatcher.calls[0].String())
	suite.Equal("raccoon.other.evt", dispatcher.notifies[0].String())
}

func (suite *NodeSuite) TestTrafficRequiresDispatcher() {
	unbound := new(testResource)

	_, err := unbound.CallPath(context.Background(), "raccoon.op", nil, nil)
	suite.ErrorIs(err, node.ErrNotBound)

	_, err = unbound.Remote("raccoon")
	suite.Error(err)

	local := new(testResource)
	suite.NoError(node.Bind(context.Background(), local, node.MustPath("raccoon.test"), nil))

	_, err = local.CallPath(context.Background(), "raccoon.op", nil, nil)
	suite.ErrorIs(err, node.ErrNoDispatcher)

	err = local.NotifyPath(context.Background(), "raccoon.evt", nil, nil)
	suite.ErrorIs(err, node.ErrNoDispatcher)

	_, err = local.ConnectPath(
		context.Background(), "raccoon.evt",
		func(ctx context.Context, evt node.Event) {},
	)
	suite.ErrorIs(err, node.ErrNoDispatcher)
}

func TestNode(t *testing.T) {
	suite.Run(t, new(NodeSuite))
}
