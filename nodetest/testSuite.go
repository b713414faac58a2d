//revive:disable:import-shadowing

package nodetest

import (
	"context"
	"github.com/gammazero/nexus/v3/router"
	"github.com/google/uuid"
	"github.com/peake100/rockyRaccoon-go/node"
	"github.com/peake100/rockyRaccoon-go/wamp"
	"github.com/stretchr/testify/suite"
)

// NodeSuiteOpts holds options for the NodeSuite type.
type NodeSuiteOpts struct {
	// realm is the realm served by the suite router and joined by suite
	// sessions.
	realm string
	// sessionConfig is the config suite sessions connect with. The realm
	// field is overwritten with realm above.
	sessionConfig *wamp.Config
}

// WithRealm sets the realm the suite router serves. Default: TestRealm.
func (opts *NodeSuiteOpts) WithRealm(realm string) *NodeSuiteOpts {
	opts.realm = realm
	return opts
}

// WithSessionConfig sets the base config suite sessions connect with.
// Default: wamp.DefaultConfig().
func (opts *NodeSuiteOpts) WithSessionConfig(config *wamp.Config) *NodeSuiteOpts {
	opts.sessionConfig = config
	return opts
}

// NewNodeSuiteOpts returns a new NodeSuiteOpts with default values.
func NewNodeSuiteOpts() *NodeSuiteOpts {
	return new(NodeSuiteOpts).WithRealm(TestRealm)
}

// NodeSuite is a testify Suite with an embedded router and lazy-loading
// sessions for testing node trees end to end. Two sessions are available, so
// a test can stand a resource up on one peer and exercise it from another
// over the realm.
//
// Sessions and the router are created on first access and torn down in
// TearDownSuite.
type NodeSuite struct {
	suite.Suite

	// Opts holds the options of the suite. If nil when SetupSuite runs, it
	// is replaced with NewNodeSuiteOpts().
	Opts *NodeSuiteOpts

	// testRouter is the embedded router suite sessions join.
	testRouter router.Router

	// sessionServer is the session resources are usually published on.
	sessionServer *wamp.Session
	// sessionClient is the session resources are usually consumed from.
	sessionClient *wamp.Session

	// contextServer is the root node context of sessionServer.
	contextServer *node.Context
	// contextClient is the root node context of sessionClient.
	contextClient *node.Context
}

// Router returns the embedded router of the suite, creating it on first
// access.
func (nodeSuite *NodeSuite) Router() router.Router {
	if nodeSuite.testRouter != nil {
		return nodeSuite.testRouter
	}

	nodeSuite.testRouter = NewTestRouter(nodeSuite.T(), nodeSuite.Opts.realm)
	return nodeSuite.testRouter
}

// SessionServer returns a session for publishing test resources, connecting
// it on first access.
func (nodeSuite *NodeSuite) SessionServer() *wamp.Session {
	if nodeSuite.sessionServer != nil {
		return nodeSuite.sessionServer
	}

	nodeSuite.sessionServer = nodeSuite.connectSession()
	return nodeSuite.sessionServer
}

// SessionClient returns a session for consuming test resources, connecting
// it on first access.
func (nodeSuite *NodeSuite) SessionClient() *wamp.Session {
	if nodeSuite.sessionClient != nil {
		return nodeSuite.sessionClient
	}

	nodeSuite.sessionClient = nodeSuite.connectSession()
	return nodeSuite.sessionClient
}

// SessionServerTester returns a testing harness for the server session.
func (nodeSuite *NodeSuite) SessionServerTester() *wamp.SessionTesting {
	return nodeSuite.SessionServer().Test(nodeSuite.T())
}

// SessionClientTester returns a testing harness for the client session.
func (nodeSuite *NodeSuite) SessionClientTester() *wamp.SessionTesting {
	return nodeSuite.SessionClient().Test(nodeSuite.T())
}

// ContextServer returns the root node context of the server session, creating
// it on first access.
func (nodeSuite *NodeSuite) ContextServer() *node.Context {
	if nodeSuite.contextServer != nil {
		return nodeSuite.contextServer
	}

	nodeSuite.contextServer = wamp.NewNodeContext(nodeSuite.SessionServer())
	return nodeSuite.contextServer
}

// ContextClient returns the root node context of the client session, creating
// it on first access.
func (nodeSuite *NodeSuite) ContextClient() *node.Context {
	if nodeSuite.contextClient != nil {
		return nodeSuite.contextClient
	}

	nodeSuite.contextClient = wamp.NewNodeContext(nodeSuite.SessionClient())
	return nodeSuite.contextClient
}

// TestPath returns a fresh base path under the "test" subtree, joined with
// any extra fragments. Each call yields a new subtree, so test methods do not
// tread on each other's uris.
func (nodeSuite *NodeSuite) TestPath(fragments ...string) node.Path {
	base := node.MustPath("test." + uuid.NewString()[0:8])
	if len(fragments) == 0 {
		return base
	}
	return base.Join(fragments...)
}

// BindNode binds res at path under nctx, failing the test on error. The
// resource is unbound again on test cleanup if the test leaves it bound.
func (nodeSuite *NodeSuite) BindNode(
	res node.Resource, path node.Path, nctx *node.Context,
) {
	err := node.Bind(context.Background(), res, path, nctx)
	if !nodeSuite.NoError(err, "bind node at '%v'", path) {
		nodeSuite.T().FailNow()
	}

	nodeSuite.T().Cleanup(func() {
		if res.NodeRef().Bound() {
			_ = res.NodeRef().Unbind(context.Background())
		}
	})
}

// connectSession joins a new session to the suite router.
func (nodeSuite *NodeSuite) connectSession() *wamp.Session {
	config := wamp.DefaultConfig()
	if nodeSuite.Opts.sessionConfig != nil {
		config = *nodeSuite.Opts.sessionConfig
	}
	config.Realm = nodeSuite.Opts.realm

	session, err := wamp.ConnectLocal(nodeSuite.Router(), config)
	if !nodeSuite.NoError(err, "connect suite session") {
		nodeSuite.T().FailNow()
	}

	return session
}

// SetupSuite puts default Opts in place when the embedding suite did not set
// its own.
func (nodeSuite *NodeSuite) SetupSuite() {
	if nodeSuite.Opts == nil {
		nodeSuite.Opts = NewNodeSuiteOpts()
	}
}

// TearDownSuite closes the suite sessions and router.
func (nodeSuite *NodeSuite) TearDownSuite() {
	if nodeSuite.sessionServer != nil {
		_ = nodeSuite.sessionServer.Close()
	}
	if nodeSuite.sessionClient != nil {
		_ = nodeSuite.sessionClient.Close()
	}
	if nodeSuite.testRouter != nil {
		nodeSuite.testRouter.Close()
	}
}
