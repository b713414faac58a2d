package wamp

import (
	"context"
	"fmt"
	stdlog "log"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gammazero/nexus/v3/client"
	"github.com/gammazero/nexus/v3/router"
	"github.com/google/uuid"
	"github.com/peake100/rockyRaccoon-go/wamp/wampmiddleware"
	"github.com/rs/zerolog"
)

// Session is a robust realm session: it wraps a nexus client and re-joins the
// realm whenever the underlying connection drops, re-running registrations
// and subscriptions made through it after its creator replays them.
//
// Methods are safe for concurrent use. Operations made while the session is
// between clients block until the realm is re-joined or their context
// expires.
type Session struct {
	// The master context of the robust session. Cancellation of this context
	// keeps the session from re-joining and closes the current client.
	ctx context.Context
	// Cancel func that cancels our main context.
	cancelFunc context.CancelFunc

	// id tags the session's log lines, so concurrent sessions in a process
	// stay apart.
	id string

	// routerURL is the websocket address to redial. Empty for sessions served
	// by an in-process router.
	routerURL string
	// localRouter carries the traffic of in-process sessions. Nil when
	// dialing out.
	localRouter router.Router
	// clientConfig is handed to nexus on every join.
	clientConfig client.Config

	// Our current nexus client.
	client *client.Client
	// Lock to control the client.
	transportLock *sync.RWMutex
	// attached is 1 while the current client is joined to the realm. Dispatch
	// paths read it lock-free, so they can route around the realm while a
	// redial holds the transport lock.
	attached *int32
	// This value is incremented every time we re-join the realm.
	reconnectCount *uint64
	// sync.Cond that broadcasts whenever the realm is successfully re-joined.
	reconnectCond *sync.Cond

	// handlers invoked by the session methods: the base operations wrapped in
	// the configured middleware.
	handlers sessionHandlers
	// middlewareProviders holds the providers built from factories, by type
	// id, so tests can reach running instances.
	middlewareProviders map[wampmiddleware.ProviderTypeID]wampmiddleware.ProvidesMiddleware

	// manager dispatches node tree traffic through this session.
	manager *Manager

	// List of channels to send a join attempt result to.
	notificationSubscribersConnect []chan error
	// List of channels to send a realm lost notification to.
	notificationSubscriberDisconnect []chan error
	// List of channels to send the final close notification to.
	notificationSubscriberClose []chan error

	// Logger
	logger zerolog.Logger
}

// ID returns the session's log tag id.
func (session *Session) ID() string {
	return session.id
}

// Realm returns the realm the session joins.
func (session *Session) Realm() string {
	return session.clientConfig.Realm
}

// Manager returns the dispatcher that routes node tree traffic through this
// session. Hand it to a node context to mount trees on the realm; usually
// through NewNodeContext.
func (session *Session) Manager() *Manager {
	return session.manager
}

// Attached reports whether the session currently has a client joined to the
// realm. It never blocks, so callers holding their own locks can consult it
// while a redial is in flight.
func (session *Session) Attached() bool {
	return atomic.LoadInt32(session.attached) == 1
}

// ReconnectCount returns the number of successful joins the session has made
// since creation.
func (session *Session) ReconnectCount() uint64 {
	return atomic.LoadUint64(session.reconnectCount)
}

// Done returns a channel closed once the session is closed and will not
// re-join again.
func (session *Session) Done() <-chan struct{} {
	return session.ctx.Done()
}

// NotifyConnect subscribes receiver to join attempt results. An event is sent
// on every attempt, failure and success alike, with the attempt's error. The
// receiver is closed when the session closes.
func (session *Session) NotifyConnect(receiver chan error) error {
	session.transportLock.Lock()
	defer session.transportLock.Unlock()

	// If the context of the session has been cancelled, close the receiver
	// and exit.
	if session.ctx.Err() != nil {
		close(receiver)
		return ErrSessionClosed
	}

	session.notificationSubscribersConnect = append(
		session.notificationSubscribersConnect, receiver,
	)
	return nil
}

// NotifyDisconnect subscribes receiver to realm lost events. The event error
// carries the router goodbye reason when there was one, and is nil for plain
// connection drops. The receiver is closed when the session closes.
func (session *Session) NotifyDisconnect(receiver chan error) error {
	session.transportLock.Lock()
	defer session.transportLock.Unlock()

	// If the context of the session has been cancelled, close the receiver
	// and exit.
	if session.ctx.Err() != nil {
		close(receiver)
		return ErrSessionClosed
	}

	session.notificationSubscriberDisconnect = append(
		session.notificationSubscriberDisconnect, receiver,
	)
	return nil
}

// NotifyClose subscribes receiver to the final close of the session.
// Subscribers are not notified of drops the session recovers from, only of
// Close being called; this mirrors how NotifyConnect and NotifyDisconnect
// carry the finer-grained connectivity events.
func (session *Session) NotifyClose(receiver chan error) error {
	session.transportLock.Lock()
	defer session.transportLock.Unlock()

	// If the context of the session has been cancelled, close the receiver
	// and exit.
	if session.ctx.Err() != nil {
		close(receiver)
		return ErrSessionClosed
	}

	session.notificationSubscriberClose = append(
		session.notificationSubscriberClose, receiver,
	)
	return nil
}

// sendConnectNotifications sends the result of a join attempt to all
// NotifyConnect subscribers.
func (session *Session) sendConnectNotifications(err error) {
	for _, receiver := range session.notificationSubscribersConnect {
		receiver <- err
	}
}

// sendDisconnectNotifications sends the reason the realm was lost to all
// NotifyDisconnect subscribers.
func (session *Session) sendDisconnectNotifications(err error) {
	for _, receiver := range session.notificationSubscriberDisconnect {
		receiver <- err
	}
}

// sendCloseNotifications notifies all NotifyClose subscribers.
func (session *Session) sendCloseNotifications(err error) {
	for _, receiver := range session.notificationSubscriberClose {
		// This event is only sent once, so we can close the receiver after.
		receiver <- err
		close(receiver)
	}
}

// clientDead reports whether wampClient has dropped off the realm.
func (session *Session) clientDead(wampClient *client.Client) bool {
	select {
	case <-wampClient.Done():
		return true
	default:
		return false
	}
}

// retryOperationOnClosed repeats operation until it succeeds, it fails for a
// reason other than a dead client, or ctx expires. This is the shared plumbing
// of the session methods: operations made against a client that dropped off
// the realm mid-flight are re-run against the next one.
func (session *Session) retryOperationOnClosed(
	ctx context.Context,
	operation func(ctx context.Context, wampClient *client.Client) error,
	retry bool,
) error {
	var err error

	attempt := 0
	for {
		// If the context of our robust session is closed, return an
		// ErrSessionClosed.
		if session.ctx.Err() != nil {
			if session.logger.Debug().Enabled() {
				session.logger.Debug().Caller(1).Msg(
					"operation attempted after session close",
				)
			}
			return ErrSessionClosed
		}
		// If the operation's own context expired while we waited on a redial,
		// surface that instead.
		if ctx.Err() != nil {
			return ctx.Err()
		}

		opCtx := wampmiddleware.WithMethodInfo(
			ctx, wampmiddleware.MethodInfo{OpAttempt: attempt},
		)

		var wampClient *client.Client

		// Run the operation in a closure so we can acquire and release the
		// transportLock using defer.
		func() {
			// Acquire the transportLock for read. This allows multiple
			// operations to occur at the same time, but blocks the client
			// from being switched out until the operations resolve.
			session.transportLock.RLock()
			defer session.transportLock.RUnlock()

			wampClient = session.client
			err = operation(opCtx, wampClient)
		}()

		// If there was no error, exit.
		if err == nil {
			return nil
		}

		// Blame errors from a client that died under the operation on the
		// disconnect and run it again once the realm is re-joined.
		if retry && session.clientDead(wampClient) {
			if session.logger.Debug().Enabled() {
				session.logger.Debug().Msgf(
					"repeating operation on error: %v", err,
				)
			}
			attempt++
			continue
		}

		// If it's not a retry error, return it.
		return err
	}
}

// Close closes the robust session. This both leaves the realm and keeps the
// session from re-joining.
func (session *Session) Close() error {
	// If the context has already been cancelled, we can exit.
	if session.ctx.Err() != nil {
		return ErrSessionClosed
	}

	// Cancel the context so the re-join loops exit.
	session.cancelFunc()

	// Take control of the transport lock to ensure all outstanding operations
	// have completed.
	session.transportLock.Lock()
	defer session.transportLock.Unlock()

	atomic.StoreInt32(session.attached, 0)

	// Leave the realm. A client that already dropped does not need closing.
	var closeErr error
	if session.client != nil && !session.clientDead(session.client) {
		closeErr = session.client.Close()
	}

	// Close all connect and disconnect subscribers, then clear them so the
	// re-join listener cannot send on a closed channel.
	for _, subscriber := range session.notificationSubscribersConnect {
		close(subscriber)
	}
	session.notificationSubscribersConnect = nil

	for _, subscriber := range session.notificationSubscriberDisconnect {
		close(subscriber)
	}
	session.notificationSubscriberDisconnect = nil

	session.sendCloseNotifications(nil)
	session.notificationSubscriberClose = nil

	if session.logger.Info().Enabled() {
		session.logger.Info().Msg("WAMP SESSION CLOSED")
	}

	return closeErr
}

// nexusLogWriter adapts the session logger into the stdlib-style logger nexus
// wants for its internal messages.
type nexusLogWriter struct {
	logger zerolog.Logger
}

// Write implements io.Writer.
func (writer nexusLogWriter) Write(p []byte) (int, error) {
	writer.logger.Debug().Msg(strings.TrimSpace(string(p)))
	return len(p), nil
}

// newSession creates a Session and builds its middleware, but does not make
// the initial join. Exactly one of url or localRouter must be set.
func newSession(url string, localRouter router.Router, config Config) (*Session, error) {
	ctx, cancelFunc := context.WithCancel(context.Background())

	sessionID := uuid.NewString()[0:8]
	logger := config.Logger.With().Str("SESSION_ID", sessionID).Logger()

	nexusLogger := stdlog.New(nexusLogWriter{logger: logger}, "", 0)

	clientConfig := client.Config{
		Realm:           config.Realm,
		HelloDetails:    config.HelloDetails,
		ResponseTimeout: config.ResponseTimeout,
		Logger:          nexusLogger,
		Debug:           logger.GetLevel() <= zerolog.DebugLevel,
	}

	session := &Session{
		ctx:            ctx,
		cancelFunc:     cancelFunc,
		id:             sessionID,
		routerURL:      url,
		localRouter:    localRouter,
		clientConfig:   clientConfig,
		transportLock:  new(sync.RWMutex),
		attached:       new(int32),
		reconnectCount: new(uint64),
		logger:         logger,
	}
	session.reconnectCond = sync.NewCond(session.transportLock)

	// Work on a copy of the configured middleware so building provider
	// factories does not bleed into the caller's config value.
	middlewares := config.Middleware
	if !config.NoDefaultMiddleware {
		addDefaultMiddleware(&middlewares, logger)
	}

	providers, err := middlewares.buildProviderFactories()
	if err != nil {
		cancelFunc()
		return nil, fmt.Errorf("error building middleware providers: %w", err)
	}
	session.middlewareProviders = providers

	builder := sessionHandlersBuilder{
		session:     session,
		middlewares: middlewares,
	}
	session.handlers = builder.buildHandlers()
	session.manager = newManager(session)

	return session, nil
}
