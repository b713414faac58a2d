package wamp

import (
	"context"

	"github.com/gammazero/nexus/v3/router"
)

// Dial accepts a websocket URL in the "ws://host:port/path" format and
// returns a new Session joined to the default realm.
//
// It is equivalent to calling DialConfig(url, DefaultConfig()).
func Dial(url string) (*Session, error) {
	config := DefaultConfig()

	// Make our initial join.
	return DialConfig(url, config)
}

// DialConfig accepts a websocket URL and a configuration for the session
// setup, returning a new Session joined to the configured realm.
func DialConfig(url string, config Config) (*Session, error) {
	// Create the robust session object.
	session, err := newSession(url, nil, config)
	if err != nil {
		return nil, err
	}
	// Make our initial join.
	err = session.reconnect(session.ctx, false)
	if err != nil {
		session.cancelFunc()
		return nil, err
	}
	return session, nil
}

// As DialConfig, but endlessly redials the router until ctx is cancelled.
// Once returned, cancelling ctx does not affect the session.
func DialConfigCtx(
	ctx context.Context, url string, config Config,
) (*Session, error) {
	session, err := newSession(url, nil, config)
	if err != nil {
		return nil, err
	}
	err = session.reconnect(ctx, true)
	if err != nil {
		session.cancelFunc()
		return nil, err
	}
	return session, nil
}

// As Dial, but endlessly redials the router until ctx is cancelled. Once
// returned, cancelling ctx does not affect the session.
func DialCtx(
	ctx context.Context, url string,
) (*Session, error) {
	config := DefaultConfig()

	// Dial the session.
	return DialConfigCtx(ctx, url, config)
}

// ConnectLocal returns a new Session served by an in-process nexus router
// rather than a websocket. Config.RouterURL is ignored.
//
// Local sessions are handy for tests and for processes that embed their own
// router.
func ConnectLocal(localRouter router.Router, config Config) (*Session, error) {
	session, err := newSession("", localRouter, config)
	if err != nil {
		return nil, err
	}
	err = session.reconnect(session.ctx, false)
	if err != nil {
		session.cancelFunc()
		return nil, err
	}
	return session, nil
}
