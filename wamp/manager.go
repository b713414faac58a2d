package wamp

import (
	"sync"

	"github.com/gammazero/nexus/v3/wamp"
	"github.com/peake100/rockyRaccoon-go/node"
	"github.com/peake100/rockyRaccoon-go/registry"
	"github.com/rs/zerolog"
)

// RegisterEvent reports the outcome of putting one node's points on the
// realm.
type RegisterEvent struct {
	// Node is the resource whose points were registered.
	Node node.Resource
	// Path is the node's mount path.
	Path node.Path
	// Err is nil when every point went live, and the joined wire errors
	// otherwise. Failed interests stay pending and are retried on the next
	// re-join.
	Err error
}

// UnregisterEvent reports the outcome of withdrawing one node's points from
// the realm.
type UnregisterEvent struct {
	// Node is the resource whose points were withdrawn.
	Node node.Resource
	// Path is the node's mount path.
	Path node.Path
	// Err is nil when every live interest was withdrawn cleanly.
	Err error
}

// Manager routes node tree traffic through a Session. It implements
// node.Dispatcher: nodes bound under a context carrying the manager get their
// exported points put on the realm, and their calls and notifications are
// dispatched in-process when a local point serves the destination path, over
// the realm otherwise.
//
// Every session owns one manager, reachable through Session.Manager.
type Manager struct {
	// session carries the wire operations and the lifecycle we follow.
	session *Session
	// store indexes the dispatch points by path.
	store *registry.Store

	// lock guards the node set and the notification subscriber lists.
	lock sync.RWMutex
	// nodes tracks the resources bound to this manager.
	nodes map[node.Resource]struct{}
	// subscribersClosed is set once the subscriber channels have been closed,
	// so late Notify* calls do not hand out channels nobody will close.
	subscribersClosed bool

	// wireLock serializes wire interest transitions, so a sweep and a node
	// registration cannot establish the same interest twice.
	wireLock sync.Mutex
	// wiredGens records the join generation each live interest was
	// established on, keyed by path and kind. Interests wired on an older
	// generation died with that client and are re-sent by the sweep.
	// Guarded by wireLock.
	wiredGens map[string]uint64

	// connectEvents receives join attempt results from the session.
	connectEvents chan error
	// sweepNeeded coalesces successful joins into a single pending sweep
	// mark.
	sweepNeeded chan struct{}

	// List of channels to send registration outcomes to.
	registerSubscribers []chan RegisterEvent
	// List of channels to send withdrawal outcomes to.
	unregisterSubscribers []chan UnregisterEvent

	// Logger.
	logger zerolog.Logger
}

// newManager builds the session's manager and starts its sweep routines.
func newManager(session *Session) *Manager {
	manager := &Manager{
		session:       session,
		store:         registry.NewStore(),
		nodes:         make(map[node.Resource]struct{}),
		wiredGens:     make(map[string]uint64),
		connectEvents: make(chan error, 1),
		sweepNeeded:   make(chan struct{}, 1),
		logger:        session.logger,
	}

	// The session has not joined yet while its manager is built, so this
	// cannot fail.
	_ = session.NotifyConnect(manager.connectEvents)

	go manager.runConnectListener()
	go manager.runSweeps()

	return manager
}

// Session returns the session the manager dispatches through.
func (manager *Manager) Session() *Session {
	return manager.session
}

// runConnectListener drains the session's connect events and marks a sweep
// for every successful join. Draining happens in its own routine so the
// session's redial loop is never blocked by a sweep in progress; the
// non-blocking mark coalesces joins that land while a sweep is running.
func (manager *Manager) runConnectListener() {
	for joinErr := range manager.connectEvents {
		// Failed attempts need no sweep.
		if joinErr != nil {
			continue
		}

		select {
		case manager.sweepNeeded <- struct{}{}:
		default:
		}
	}

	// The session closed the event stream, so no further sweeps can be
	// needed.
	close(manager.sweepNeeded)
}

// runSweeps runs a registration sweep for every pending mark, then closes the
// manager's subscriber channels once the session is gone.
func (manager *Manager) runSweeps() {
	defer manager.closeSubscribers()

	for range manager.sweepNeeded {
		manager.sweepRegistrations()
	}
}

// NotifyRegister subscribes receiver to registration outcomes: one event per
// node each time its points are put on the realm, on bind, manual register
// and re-join sweep alike. The receiver is closed when the session closes.
// Sends are synchronous, so pass a buffered channel unless the receiver is
// always ready.
func (manager *Manager) NotifyRegister(receiver chan RegisterEvent) error {
	manager.lock.Lock()
	defer manager.lock.Unlock()

	if manager.subscribersClosed {
		close(receiver)
		return ErrSessionClosed
	}

	manager.registerSubscribers = append(manager.registerSubscribers, receiver)
	return nil
}

// NotifyUnregister subscribes receiver to withdrawal outcomes: one event per
// node each time its points are taken off the realm. The receiver is closed
// when the session closes.
func (manager *Manager) NotifyUnregister(receiver chan UnregisterEvent) error {
	manager.lock.Lock()
	defer manager.lock.Unlock()

	if manager.subscribersClosed {
		close(receiver)
		return ErrSessionClosed
	}

	manager.unregisterSubscribers = append(manager.unregisterSubscribers, receiver)
	return nil
}

// sendRegisterEvent sends event to all NotifyRegister subscribers. The lock
// is held through the sends so a closing manager cannot close a channel
// mid-send.
func (manager *Manager) sendRegisterEvent(event RegisterEvent) {
	manager.lock.RLock()
	defer manager.lock.RUnlock()

	for _, subscriber := range manager.registerSubscribers {
		subscriber <- event
	}
}

// sendUnregisterEvent sends event to all NotifyUnregister subscribers.
func (manager *Manager) sendUnregisterEvent(event UnregisterEvent) {
	manager.lock.RLock()
	defer manager.lock.RUnlock()

	for _, subscriber := range manager.unregisterSubscribers {
		subscriber <- event
	}
}

// closeSubscribers closes and clears the event subscriber channels.
func (manager *Manager) closeSubscribers() {
	manager.lock.Lock()
	defer manager.lock.Unlock()

	manager.subscribersClosed = true

	for _, subscriber := range manager.registerSubscribers {
		close(subscriber)
	}
	manager.registerSubscribers = nil

	for _, subscriber := range manager.unregisterSubscribers {
		close(subscriber)
	}
	manager.unregisterSubscribers = nil
}

// resourceContext returns the node context of res, nil when res is nil or was
// bound without one.
func resourceContext(res node.Resource) *node.Context {
	if res == nil {
		return nil
	}
	return res.NodeRef().Context()
}

// optionsRegister returns the registration options configured on the
// resource's context chain.
func optionsRegister(res node.Resource) wamp.Dict {
	if nctx := resourceContext(res); nctx != nil {
		return nctx.RegisterOptions()
	}
	return nil
}

// optionsSubscribe returns the subscription options configured on the
// resource's context chain.
func optionsSubscribe(res node.Resource) wamp.Dict {
	if nctx := resourceContext(res); nctx != nil {
		return nctx.SubscribeOptions()
	}
	return nil
}

// optionsCall returns the call options configured on the resource's context
// chain.
func optionsCall(res node.Resource) wamp.Dict {
	if nctx := resourceContext(res); nctx != nil {
		return nctx.CallOptions()
	}
	return nil
}

// optionsPublish returns the publish options configured on the resource's
// context chain.
func optionsPublish(res node.Resource) wamp.Dict {
	if nctx := resourceContext(res); nctx != nil {
		return nctx.PublishOptions()
	}
	return nil
}
