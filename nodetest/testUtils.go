//revive:disable:import-shadowing

package nodetest

import (
	"testing"

	"github.com/gammazero/nexus/v3/router"
	nexusWamp "github.com/gammazero/nexus/v3/wamp"
	"github.com/peake100/rockyRaccoon-go/wamp"
	"github.com/stretchr/testify/assert"
)

const (
	// TestRealm is the realm served by embedded test routers.
	TestRealm = "rocky.test"
)

// NewTestRouter builds an embedded nexus router serving realm, for sessions
// created with wamp.ConnectLocal. Anonymous sessions are allowed and caller
// disclosure is permitted, matching what node trees expect from a production
// router. The router is closed on test cleanup.
//
// t.FailNow() is called on any errors.
func NewTestRouter(t *testing.T, realm string) router.Router {
	assert := assert.New(t)

	nexusRouter, err := router.NewRouter(&router.Config{
		RealmConfigs: []*router.RealmConfig{
			{
				URI:           nexusWamp.URI(realm),
				AnonymousAuth: true,
				AllowDisclose: true,
			},
		},
	}, nil)
	if !assert.NoError(err, "create embedded router") {
		t.FailNow()
	}

	t.Cleanup(nexusRouter.Close)

	return nexusRouter
}

// GetTestSession joins a new session to the embedded router's TestRealm.
//
// t.FailNow() is called on any errors.
func GetTestSession(t *testing.T, nexusRouter router.Router) *wamp.Session {
	assert := assert.New(t)

	config := wamp.DefaultConfig()
	config.Realm = TestRealm

	session, err := wamp.ConnectLocal(nexusRouter, config)
	if !assert.NoError(err, "connect local session") {
		t.FailNow()
	}

	if !assert.NotNil(session, "session is not nil") {
		t.FailNow()
	}

	t.Cleanup(
		func() {
			_ = session.Close()
		},
	)

	return session
}
