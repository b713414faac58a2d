//revive:disable
package wamp_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/peake100/rockyRaccoon-go/nodetest"
	"github.com/peake100/rockyRaccoon-go/wamp"
	"github.com/peake100/rockyRaccoon-go/wamp/defaultmiddlewares"
	"github.com/peake100/rockyRaccoon-go/wamp/wampmiddleware"
	"github.com/stretchr/testify/suite"
)

const countingMiddlewareID wampmiddleware.ProviderTypeID = "TestCounting"

// countingMiddleware counts the publishes that pass through its Publish
// middleware.
type countingMiddleware struct {
	published int32
}

func (middleware *countingMiddleware) TypeID() wampmiddleware.ProviderTypeID {
	return countingMiddlewareID
}

func (middleware *countingMiddleware) Publish(
	next wampmiddleware.HandlerPublish,
) wampmiddleware.HandlerPublish {
	return func(ctx context.Context, args wampmiddleware.ArgsPublish) error {
		atomic.AddInt32(&middleware.published, 1)
		return next(ctx, args)
	}
}

func (middleware *countingMiddleware) Published() int32 {
	return atomic.LoadInt32(&middleware.published)
}

type SessionSuite struct {
	nodetest.NodeSuite
}

func (suite *SessionSuite) waitNotification(ch <-chan error, what string) error {
	timer := time.NewTimer(5 * time.Second)
	defer timer.Stop()

	select {
	case err := <-ch:
		return err
	case <-timer.C:
		suite.T().Errorf("timeout waiting for %v", what)
		suite.T().FailNow()
	}
	return nil
}

func (suite *SessionSuite) TestAttached() {
	session := suite.SessionServer()

	suite.True(session.Attached())
	suite.NotEmpty(session.ID())
	suite.Equal(nodetest.TestRealm, session.Realm())
	suite.NotZero(session.ReconnectCount(), "initial join counts")
	suite.NotNil(session.Manager())

	select {
	case <-session.Done():
		suite.T().Error("live session reported done")
	default:
	}
}

func (suite *SessionSuite) TestDefaultMiddlewareProviders() {
	tester := suite.SessionServerTester()

	provider := tester.GetMiddlewareProvider(
		defaultmiddlewares.SerializationMiddlewareID,
	)
	suite.IsType(&defaultmiddlewares.SerializationMiddleware{}, provider)

	provider = tester.GetMiddlewareProvider(defaultmiddlewares.LoggingMiddlewareID)
	suite.IsType(defaultmiddlewares.LoggingMiddleware{}, provider)
}

func (suite *SessionSuite) TestProviderFactory() {
	counter := new(countingMiddleware)

	config := wamp.DefaultConfig()
	config.Realm = nodetest.TestRealm
	config.Middleware.AddProviderFactory(func() wampmiddleware.ProvidesMiddleware {
		return counter
	})

	session, err := wamp.ConnectLocal(suite.Router(), config)
	suite.NoError(err)
	suite.T().Cleanup(func() {
		_ = session.Close()
	})

	provider := session.Test(suite.T()).GetMiddlewareProvider(countingMiddlewareID)
	suite.Same(counter, provider)

	topic := suite.TestPath().String()
	suite.NoError(session.Publish(
		context.Background(), wampmiddleware.ArgsPublish{Topic: topic},
	))
	suite.NoError(session.Publish(
		context.Background(), wampmiddleware.ArgsPublish{Topic: topic},
	))
	suite.Equal(int32(2), counter.Published())
}

func (suite *SessionSuite) TestTracingProvider() {
	config := wamp.DefaultConfig()
	config.Realm = nodetest.TestRealm
	config.Middleware.AddProviderFactory(defaultmiddlewares.NewTracingMiddleware)

	session, err := wamp.ConnectLocal(suite.Router(), config)
	suite.NoError(err)
	suite.T().Cleanup(func() {
		_ = session.Close()
	})

	provider := session.Test(suite.T()).GetMiddlewareProvider(
		defaultmiddlewares.TracingMiddlewareID,
	)
	suite.IsType(&defaultmiddlewares.TracingMiddleware{}, provider)

	// Traffic still flows through the traced chain.
	suite.NoError(session.Publish(context.Background(), wampmiddleware.ArgsPublish{
		Topic: suite.TestPath().String(),
	}))
}

func (suite *SessionSuite) TestCloseLifecycle() {
	session := nodetest.GetTestSession(suite.T(), suite.Router())

	closeEvents := make(chan error, 1)
	suite.NoError(session.NotifyClose(closeEvents))

	suite.True(session.Attached())
	suite.NoError(session.Close())
	suite.False(session.Attached())

	suite.NoError(suite.waitNotification(closeEvents, "close notification"))
	_, open := <-closeEvents
	suite.False(open, "close receiver is closed after its event")

	select {
	case <-session.Done():
	default:
		suite.T().Error("closed session not reported done")
	}

	err := session.Publish(
		context.Background(), wampmiddleware.ArgsPublish{Topic: "test.closed"},
	)
	suite.ErrorIs(err, wamp.ErrSessionClosed)

	_, err = session.Call(
		context.Background(), wampmiddleware.ArgsCall{Procedure: "test.closed"},
	)
	suite.ErrorIs(err, wamp.ErrSessionClosed)

	suite.ErrorIs(session.Close(), wamp.ErrSessionClosed)
}

func (suite *SessionSuite) TestNotifyAfterClose() {
	session := nodetest.GetTestSession(suite.T(), suite.Router())
	suite.NoError(session.Close())

	receiver := make(chan error, 1)
	suite.ErrorIs(session.NotifyConnect(receiver), wamp.ErrSessionClosed)
	_, open := <-receiver
	suite.False(open, "receiver closed right away")

	receiver = make(chan error, 1)
	suite.ErrorIs(session.NotifyDisconnect(receiver), wamp.ErrSessionClosed)
	_, open = <-receiver
	suite.False(open)

	receiver = make(chan error, 1)
	suite.ErrorIs(session.NotifyClose(receiver), wamp.ErrSessionClosed)
	_, open = <-receiver
	suite.False(open)
}

func (suite *SessionSuite) TestForceReconnect() {
	session := nodetest.GetTestSession(suite.T(), suite.Router())

	connectEvents := make(chan error, 4)
	suite.NoError(session.NotifyConnect(connectEvents))
	disconnectEvents := make(chan error, 4)
	suite.NoError(session.NotifyDisconnect(disconnectEvents))

	joined := session.ReconnectCount()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	session.Test(suite.T()).ForceReconnect(ctx)

	// The drop may carry a router goodbye reason, so only delivery is
	// asserted.
	suite.waitNotification(disconnectEvents, "disconnect notification")
	suite.NoError(
		suite.waitNotification(connectEvents, "re-join notification"),
		"re-join succeeded",
	)

	suite.Equal(joined+1, session.ReconnectCount())
	suite.True(session.Attached())
}

func (suite *SessionSuite) TestDialUnreachable() {
	session, err := wamp.Dial("ws://127.0.0.1:9/ws")
	suite.Error(err)
	suite.Nil(session)
}

func TestSession(t *testing.T) {
	suite.Run(t, new(SessionSuite))
}
