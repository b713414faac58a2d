package wamp

import (
	"context"
	"testing"

	"github.com/gammazero/nexus/v3/client"
	"github.com/peake100/rockyRaccoon-go/wamp/wampmiddleware"
	"github.com/stretchr/testify/assert"
)

// SessionTesting exposes some internals of the Session type for testing.
type SessionTesting struct {
	t       *testing.T
	session *Session
}

// UnderlyingClient returns the current underlying nexus client object.
func (tester *SessionTesting) UnderlyingClient() *client.Client {
	tester.session.transportLock.RLock()
	defer tester.session.transportLock.RUnlock()

	return tester.session.client
}

// GetMiddlewareProvider returns the running middleware provider registered
// with the given type ID, so tests can inspect it.
func (tester *SessionTesting) GetMiddlewareProvider(
	id wampmiddleware.ProviderTypeID,
) wampmiddleware.ProvidesMiddleware {
	provider, ok := tester.session.middlewareProviders[id]
	if !assert.Truef(tester.t, ok, "middleware provider '%v' found", id) {
		tester.t.FailNow()
	}
	return provider
}

// ForceReconnect closes the underlying client and waits for the realm to be
// re-joined or ctx to cancel.
func (tester *SessionTesting) ForceReconnect(ctx context.Context) {
	connectionEstablished := make(chan struct{})
	waitingOnReconnect := make(chan struct{})

	// Launch a goroutine to wait on a re-join.
	go func() {
		// Signal that the realm has been re-joined.
		defer close(connectionEstablished)

		// Grab the cond lock.
		tester.session.reconnectCond.L.Lock()
		defer tester.session.reconnectCond.L.Unlock()

		// Signal to our main function that we have spun up our wait.
		close(waitingOnReconnect)
		tester.session.reconnectCond.Wait()
	}()

	select {
	case <-waitingOnReconnect:
	case <-ctx.Done():
		tester.t.Errorf(
			"context cancelled before we could wait on cond: %v", ctx.Err(),
		)
		tester.t.FailNow()
	}

	err := tester.UnderlyingClient().Close()
	if !assert.NoError(tester.t, err, "close underlying client") {
		tester.t.FailNow()
	}

	select {
	case <-connectionEstablished:
	case <-ctx.Done():
		tester.t.Errorf(
			"context cancelled before realm re-joined: %v", ctx.Err(),
		)
		tester.t.FailNow()
	}
}

// Test returns testing methods for the session.
func (session *Session) Test(t *testing.T) *SessionTesting {
	return &SessionTesting{
		t:       t,
		session: session,
	}
}
