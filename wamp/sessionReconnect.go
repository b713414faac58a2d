package wamp

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gammazero/nexus/v3/client"
)

// maxRedialWait caps the backoff between redial attempts.
const maxRedialWait = 30 * time.Second

// join makes a single attempt to join the realm and returns the resulting
// client.
func (session *Session) join(ctx context.Context) (*client.Client, error) {
	if session.localRouter != nil {
		return client.ConnectLocal(session.localRouter, session.clientConfig)
	}
	return client.ConnectNet(ctx, session.routerURL, session.clientConfig)
}

// reconnectRedialOnce attempts to join the realm a single time.
func (session *Session) reconnectRedialOnce(ctx context.Context) error {
	// Make the connection.
	wampClient, err := session.join(ctx)
	// Send a notification to all listeners subscribed to connect events.
	session.sendConnectNotifications(err)
	if err != nil {
		// Otherwise, return (and possibly try again).
		return err
	}

	session.client = wampClient
	atomic.StoreInt32(session.attached, 1)

	// Increment our reconnection count tracker.
	atomic.AddUint64(session.reconnectCount, 1)

	// If there was no error, break out of the loop.
	return nil
}

// reconnectRedial tries to join the realm until successful or ctx is
// cancelled.
func (session *Session) reconnectRedial(ctx context.Context, retry bool) error {
	// Endlessly redial the router
	attempt := 0
	for {
		// Check to see if our context has been cancelled, and exit if so.
		if ctx.Err() != nil {
			if session.logger.Debug().Enabled() {
				session.logger.
					Debug().
					Msg("context cancelled before realm re-joined")
			}
			return ctx.Err()
		}

		if session.logger.Debug().Enabled() {
			session.logger.
				Debug().
				Uint64("RECONNECT_COUNT", session.ReconnectCount()).
				Msg("attempting to join realm")
		}

		err := session.reconnectRedialOnce(ctx)
		if err == nil {
			if session.logger.Info().Enabled() {
				session.logger.Info().
					Uint64("RECONNECT_COUNT", session.ReconnectCount()).
					Str("REALM", session.clientConfig.Realm).
					Msg("WAMP REALM JOINED")
			}
			return nil
		}

		session.logger.
			Error().
			Err(err).
			Uint64("RECONNECT_COUNT", session.ReconnectCount()).
			Msg("error joining realm")

		// If this is our first join, we want to return the error and allow
		// the caller to decide whether or not to retry.
		if !retry {
			return err
		}

		// We don't want to saturate the router with retries if we are having
		// a hard time re-joining.
		//
		// We'll give one immediate retry, but after that start increasing how
		// long we wait before re-attempting.
		waitDur := time.Second / 2 * time.Duration(attempt)
		if waitDur > maxRedialWait {
			waitDur = maxRedialWait
		}
		time.Sleep(waitDur)
		attempt++
	}
}

// disconnectReason extracts the router's goodbye reason from a dead client,
// or nil when the connection dropped without one.
func (session *Session) disconnectReason(deadClient *client.Client) error {
	goodbye := deadClient.RouterGoodbye()
	if goodbye == nil {
		return nil
	}
	return fmt.Errorf("router goodbye: %v", goodbye.Reason)
}

// reconnectListenForDone listens for the current client dropping off the
// realm, and starts the re-join process.
func (session *Session) reconnectListenForDone(deadClient *client.Client) {
	// Wait for the current client to die.
	<-deadClient.Done()
	atomic.StoreInt32(session.attached, 0)

	// Lock access to the client and don't unlock until we have re-joined.
	session.transportLock.Lock()
	defer session.transportLock.Unlock()

	// Exit if our context has been cancelled. Close fires Done as well, and
	// cancels the context before releasing the lock.
	if session.ctx.Err() != nil {
		return
	}

	reason := session.disconnectReason(deadClient)
	if session.logger.Info().Enabled() {
		session.logger.Info().Msgf("WAMP REALM LEFT: %v", reason)
	}

	// Send a disconnect event to all interested subscribers.
	session.sendDisconnectNotifications(reason)

	// Now that we have had an initial join, we use our internal context and
	// retry on failure.
	_ = session.reconnect(session.ctx, true)
}

// reconnect joins the realm with a fresh client and sets up a listener for
// its death.
func (session *Session) reconnect(ctx context.Context, retry bool) error {
	// This may be called directly by Dial methods. It's okay NOT to use the
	// lock here since the caller won't be handed back the Session until the
	// initial join is established.
	//
	// Once the first join is established, reconnectListenForDone will grab
	// the lock immediately on a disconnect.

	// Redial the router until we re-join.
	err := session.reconnectRedial(ctx, retry)
	if err != nil {
		return err
	}

	// Broadcast that we have made a successful re-join to any one-time
	// listeners.
	session.reconnectCond.Broadcast()

	// Launch a goroutine to re-join when the client drops off the realm.
	go session.reconnectListenForDone(session.client)

	return nil
}
