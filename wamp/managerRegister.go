package wamp

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/peake100/rockyRaccoon-go/node"
	"github.com/peake100/rockyRaccoon-go/registry"
	"github.com/peake100/rockyRaccoon-go/wamp/wampmiddleware"
)

// wireKinds is the order wire interests of a record are processed in.
var wireKinds = [2]registry.Kind{registry.KindCall, registry.KindEvent}

// mountedPoint pairs a collected point with the path it mounts at.
type mountedPoint struct {
	path  node.Path
	point *registry.Point
}

// NodeBound implements node.Dispatcher. The resource's exported points are
// added to the dispatch store and, when the session is attached, put on the
// realm right away. With no session attached the points stay pending and go
// live on the next join.
//
// Binding only fails for local problems: a conflicting call point or an
// export expression that cannot be resolved. Wire failures are reported
// through NotifyRegister and retried on the next re-join.
func (manager *Manager) NodeBound(ctx context.Context, res node.Resource) error {
	if manager.session.ctx.Err() != nil {
		return ErrSessionClosed
	}

	mounts, err := manager.collectPoints(res)
	if err != nil {
		return err
	}

	records, err := manager.addPoints(mounts)
	if err != nil {
		return err
	}

	manager.lock.Lock()
	manager.nodes[res] = struct{}{}
	manager.lock.Unlock()

	// Wire errors stream rather than failing the bind.
	_ = manager.wireNode(ctx, res, records)
	return nil
}

// NodeUnbound implements node.Dispatcher: the resource's points are removed,
// wire interests that lost their last point are withdrawn, and the resource
// is no longer tracked.
func (manager *Manager) NodeUnbound(ctx context.Context, res node.Resource) error {
	err := manager.unregisterPoints(ctx, res)

	manager.lock.Lock()
	delete(manager.nodes, res)
	manager.lock.Unlock()

	return err
}

// NodeRegister implements node.Dispatcher. It re-collects the resource's
// exported points when they are not in the store (a node re-armed after
// NodeUnregister) and wires everything not yet live. A detached session
// leaves the points pending without error.
func (manager *Manager) NodeRegister(ctx context.Context, res node.Resource) error {
	if manager.session.ctx.Err() != nil {
		return ErrSessionClosed
	}

	records := manager.ownerRecords(res)
	if len(records) == 0 {
		mounts, err := manager.collectPoints(res)
		if err != nil {
			return err
		}
		records, err = manager.addPoints(mounts)
		if err != nil {
			return err
		}
	}

	manager.lock.Lock()
	manager.nodes[res] = struct{}{}
	manager.lock.Unlock()

	return manager.wireNode(ctx, res, records)
}

// NodeUnregister implements node.Dispatcher: like NodeUnbound, but the
// resource stays tracked, so NodeRegister can put its points back.
func (manager *Manager) NodeUnregister(ctx context.Context, res node.Resource) error {
	return manager.unregisterPoints(ctx, res)
}

// NodeRegistered implements node.Dispatcher. A resource counts as registered
// while the session is attached and at least one of its points belongs to a
// live wire interest.
func (manager *Manager) NodeRegistered(res node.Resource) bool {
	if !manager.session.Attached() {
		return false
	}

	manager.lock.RLock()
	_, tracked := manager.nodes[res]
	manager.lock.RUnlock()
	if !tracked {
		return false
	}

	for _, record := range manager.store.Records() {
		for _, point := range record.Points() {
			if point.Owner == res && record.State(point.Kind) == registry.StateDone {
				return true
			}
		}
	}
	return false
}

// collectPoints builds the dispatch points res exports: one call point per
// exported procedure, one source event point per exported signal, and one
// event point per exported handler, with handler expressions resolved against
// the node's path.
func (manager *Manager) collectPoints(res node.Resource) ([]mountedPoint, error) {
	ref := res.NodeRef()
	base := ref.Path()
	if base.IsZero() {
		return nil, &node.NodeError{Op: "register", Err: node.ErrNotBound}
	}

	exports := ref.Exports()
	if exports == nil {
		return nil, nil
	}
	nctx := ref.Context()

	var mounts []mountedPoint

	calls := exports.Calls()
	for _, name := range sortedKeys(calls) {
		mounts = append(mounts, mountedPoint{
			path:  mountPath(base, name),
			point: registry.NewCallPoint(res, calls[name]),
		})
	}

	signals := exports.Signals()
	for _, name := range sortedKeys(signals) {
		mounts = append(mounts, mountedPoint{
			path:  mountPath(base, name),
			point: registry.NewSignalPoint(res, signals[name]),
		})
	}

	for _, export := range exports.Handlers() {
		dst, err := base.Resolve(export.Expr, nctx)
		if err != nil {
			return nil, fmt.Errorf(
				"resolving handler expression '%v': %w", export.Expr, err,
			)
		}
		mounts = append(mounts, mountedPoint{
			path:  dst,
			point: registry.NewEventPoint(res, export.Handler),
		})
	}

	return mounts, nil
}

// mountPath computes where a named point lands: the node's own path for the
// OwnPath marker, a child fragment otherwise.
func mountPath(base node.Path, name string) node.Path {
	if name == node.OwnPath {
		return base
	}
	return base.Join(name)
}

// sortedKeys returns the map keys in sorted order, pinning down the
// collection order of exported points.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// addPoints adds the mounts to the store, unwinding the ones already added
// when one of them conflicts.
func (manager *Manager) addPoints(mounts []mountedPoint) ([]*registry.Record, error) {
	var records []*registry.Record
	for i, mount := range mounts {
		record, err := manager.store.Add(mount.path, mount.point)
		if err != nil {
			for _, added := range mounts[:i] {
				_, _ = manager.store.RemovePoint(added.path, added.point)
			}
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// ownerRecords returns the records currently holding points owned by res.
func (manager *Manager) ownerRecords(res node.Resource) []*registry.Record {
	var records []*registry.Record
	for _, record := range manager.store.Records() {
		for _, point := range record.Points() {
			if point.Owner == res {
				records = append(records, record)
				break
			}
		}
	}
	return records
}

// wireNode establishes the wire interests of the given records and, when the
// session was attached to attempt it, reports the outcome for res on the
// register stream.
func (manager *Manager) wireNode(
	ctx context.Context, res node.Resource, records []*registry.Record,
) error {
	attempted, err := manager.wireRecords(ctx, records)
	if !attempted {
		return nil
	}

	manager.sendRegisterEvent(RegisterEvent{
		Node: res,
		Path: res.NodeRef().Path(),
		Err:  err,
	})
	return err
}

// wireRecords wires every kind with points on the given records. It reports
// whether the session was attached to attempt wire ops at all, and the joined
// errors of the ops that failed. Failed and skipped interests are left
// pending for the next sweep.
func (manager *Manager) wireRecords(
	ctx context.Context, records []*registry.Record,
) (attempted bool, err error) {
	manager.wireLock.Lock()
	defer manager.wireLock.Unlock()

	attempted = manager.session.Attached()

	var errs []error
	seen := make(map[*registry.Record]struct{}, len(records))
	for _, record := range records {
		// Two points can land in the same record, a signal mounted at the
		// node's own path next to a handler resolved there for one.
		if _, ok := seen[record]; ok {
			continue
		}
		seen[record] = struct{}{}

		for _, kind := range wireKinds {
			if !record.Has(kind) {
				continue
			}
			if _, wireErr := manager.wireRecordKind(ctx, record, kind); wireErr != nil {
				errs = append(errs, wireErr)
			}
		}
	}

	return attempted, errors.Join(errs...)
}

// wireRecordKind puts one record's interest for kind on the realm: a
// procedure registration for call kinds, a topic subscription for event
// kinds. Interests already live on the current client are left alone, and
// nothing is sent while the session is detached; such interests stay pending
// for the next sweep. sent reports whether a wire op actually went out.
//
// Callers hold wireLock.
func (manager *Manager) wireRecordKind(
	ctx context.Context, record *registry.Record, kind registry.Kind,
) (sent bool, err error) {
	key := wireKey(record.Path(), kind)

	// The generation is read before the op goes out. An op that survives a
	// redial mid-flight is live on a newer client than recorded here and the
	// next sweep re-sends it, which the router refuses; recording after the
	// op could instead mark a dead interest as live and silently lose it.
	gen := manager.session.ReconnectCount()

	if record.State(kind) == registry.StateDone && manager.wiredGens[key] >= gen {
		return false, nil
	}

	if !manager.session.Attached() {
		record.SetState(kind, registry.StatePending)
		return false, nil
	}

	path := record.Path()
	uri := path.String()

	switch kind {
	case registry.KindCall:
		point, ok := record.CallPoint()
		if !ok {
			return false, nil
		}
		err = manager.session.Register(ctx, wampmiddleware.ArgsRegister{
			Procedure: uri,
			Options:   optionsRegister(point.Owner),
			Owner:     point.Owner,
			Path:      path,
			Handler:   manager.makeInvocationTarget(record),
		})
	case registry.KindEvent:
		points := record.PointsOf(registry.KindEvent)
		if len(points) == 0 {
			return false, nil
		}
		owner := points[0].Owner
		err = manager.session.Subscribe(ctx, wampmiddleware.ArgsSubscribe{
			Topic:   uri,
			Options: optionsSubscribe(owner),
			Owner:   owner,
			Path:    path,
			Handler: manager.makeEventTarget(record),
		})
	}

	if err != nil {
		record.SetState(kind, registry.StatePending)
		if manager.logger.Error().Enabled() {
			manager.logger.Error().
				Err(err).
				Str("URI", uri).
				Stringer("KIND", kind).
				Msg("error establishing wire interest")
		}
		return true, fmt.Errorf("%v interest at '%v': %w", kind, uri, err)
	}

	record.SetState(kind, registry.StateDone)
	manager.wiredGens[key] = gen

	if manager.logger.Debug().Enabled() {
		manager.logger.Debug().
			Str("URI", uri).
			Stringer("KIND", kind).
			Msg("wire interest established")
	}

	return true, nil
}

// unwireRecordKind withdraws one record's interest for kind from the realm
// and returns the record to StateNone. Interests wired on a previous client
// died with it, and detached sessions have nothing live either; in both cases
// only the bookkeeping runs.
//
// Callers hold wireLock.
func (manager *Manager) unwireRecordKind(
	ctx context.Context, record *registry.Record, kind registry.Kind,
) error {
	key := wireKey(record.Path(), kind)
	state := record.State(kind)

	live := state == registry.StateDone &&
		manager.wiredGens[key] >= manager.session.ReconnectCount()

	record.SetState(kind, registry.StateNone)
	delete(manager.wiredGens, key)

	if !live || !manager.session.Attached() {
		return nil
	}

	uri := record.Path().String()

	var err error
	switch kind {
	case registry.KindCall:
		err = manager.session.Unregister(
			ctx, wampmiddleware.ArgsUnregister{Procedure: uri},
		)
	case registry.KindEvent:
		err = manager.session.Unsubscribe(
			ctx, wampmiddleware.ArgsUnsubscribe{Topic: uri},
		)
	}
	if err != nil {
		return fmt.Errorf("%v interest at '%v': %w", kind, uri, err)
	}

	if manager.logger.Debug().Enabled() {
		manager.logger.Debug().
			Str("URI", uri).
			Stringer("KIND", kind).
			Msg("wire interest withdrawn")
	}

	return nil
}

// unregisterPoints removes every point res holds and withdraws the wire
// interests of record kinds that emptied. The outcome goes out on the
// unregister stream when any point was actually removed.
func (manager *Manager) unregisterPoints(ctx context.Context, res node.Resource) error {
	affected := manager.store.RemoveOwner(res)
	if len(affected) == 0 {
		return nil
	}

	manager.wireLock.Lock()
	var errs []error
	for _, record := range affected {
		for _, kind := range wireKinds {
			// Points of this kind remain when the record is shared with
			// another owner; its interest stays up for them.
			if record.Has(kind) || record.State(kind) == registry.StateNone {
				continue
			}
			if err := manager.unwireRecordKind(ctx, record, kind); err != nil {
				errs = append(errs, err)
			}
		}
	}
	manager.wireLock.Unlock()

	err := errors.Join(errs...)
	manager.sendUnregisterEvent(UnregisterEvent{
		Node: res,
		Path: res.NodeRef().Path(),
		Err:  err,
	})
	return err
}

// sweepRegistrations re-establishes every tracked wire interest that is not
// live on the current client. It runs after each successful join: interests
// left pending during a detached stretch and interests wired on a previous
// client alike are (re)sent, and per-owner outcomes go out on the register
// stream.
func (manager *Manager) sweepRegistrations() {
	ctx := manager.session.ctx

	var owners []node.Resource
	outcomes := make(map[node.Resource][]error)
	sentCount := 0

	manager.wireLock.Lock()
	for _, record := range manager.store.Records() {
		for _, kind := range wireKinds {
			if !record.Has(kind) || record.State(kind) == registry.StateNone {
				continue
			}

			sent, err := manager.wireRecordKind(ctx, record, kind)
			if !sent && err == nil {
				continue
			}
			if sent {
				sentCount++
			}

			for _, point := range record.PointsOf(kind) {
				owner := point.Owner
				if _, ok := outcomes[owner]; !ok {
					owners = append(owners, owner)
					outcomes[owner] = nil
				}
				if err != nil {
					outcomes[owner] = append(outcomes[owner], err)
				}
			}
		}
	}
	manager.wireLock.Unlock()

	if sentCount > 0 && manager.logger.Info().Enabled() {
		manager.logger.Info().
			Int("INTERESTS", sentCount).
			Uint64("RECONNECT_COUNT", manager.session.ReconnectCount()).
			Msg("WAMP REGISTRATIONS REPLAYED")
	}

	for _, owner := range owners {
		manager.sendRegisterEvent(RegisterEvent{
			Node: owner,
			Path: owner.NodeRef().Path(),
			Err:  errors.Join(outcomes[owner]...),
		})
	}
}

// wireKey keys wiredGens entries. Kind is part of the key because a record's
// call and event interests are separate router-side objects.
func wireKey(path node.Path, kind registry.Kind) string {
	return kind.String() + "#" + path.String()
}
