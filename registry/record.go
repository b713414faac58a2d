package registry

import (
	"fmt"
	"sync"

	"github.com/peake100/rockyRaccoon-go/node"
)

// State tracks where a record's router-side interest stands for one kind:
// the procedure registration for KindCall, the topic subscription for
// KindEvent.
type State int

const (
	// StateNone means no router-side interest exists for the kind.
	StateNone State = iota
	// StatePending means interest was requested while no session was
	// attached. Pending interests are established when a connection comes up.
	StatePending
	// StateDone means the interest is established on the current connection.
	// A reconnect invalidates it, so done interests are re-established along
	// with pending ones.
	StateDone
)

// String returns the state name for logs.
func (state State) String() string {
	switch state {
	case StateNone:
		return "none"
	case StatePending:
		return "pending"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(state))
	}
}

// Record gathers every point registered at one path, along with the per-kind
// router-side state. Records are created by the store and stay valid after
// the store drops them, so callers can still unwind router-side interests of
// a record whose last point was removed.
type Record struct {
	lock sync.RWMutex

	path   node.Path
	points []*Point
	states map[Kind]State
}

func newRecord(path node.Path) *Record {
	return &Record{
		path:   path,
		states: make(map[Kind]State),
	}
}

// Path returns the path the record serves.
func (record *Record) Path() node.Path {
	return record.path
}

// Points returns the record's points in insertion order.
func (record *Record) Points() []*Point {
	record.lock.RLock()
	defer record.lock.RUnlock()

	points := make([]*Point, len(record.points))
	copy(points, record.points)
	return points
}

// PointsOf returns the record's points of one kind in insertion order.
func (record *Record) PointsOf(kind Kind) []*Point {
	record.lock.RLock()
	defer record.lock.RUnlock()

	var points []*Point
	for _, thisPoint := range record.points {
		if thisPoint.Kind == kind {
			points = append(points, thisPoint)
		}
	}
	return points
}

// CallPoint returns the record's single call point, if it has one.
func (record *Record) CallPoint() (*Point, bool) {
	record.lock.RLock()
	defer record.lock.RUnlock()

	for _, thisPoint := range record.points {
		if thisPoint.Kind == KindCall {
			return thisPoint, true
		}
	}
	return nil, false
}

// Has reports whether the record holds at least one point of kind.
func (record *Record) Has(kind Kind) bool {
	record.lock.RLock()
	defer record.lock.RUnlock()

	return record.hasLocked(kind)
}

func (record *Record) hasLocked(kind Kind) bool {
	for _, thisPoint := range record.points {
		if thisPoint.Kind == kind {
			return true
		}
	}
	return false
}

// Len returns the number of points in the record.
func (record *Record) Len() int {
	record.lock.RLock()
	defer record.lock.RUnlock()

	return len(record.points)
}

// State returns the router-side state for kind.
func (record *Record) State(kind Kind) State {
	record.lock.RLock()
	defer record.lock.RUnlock()

	return record.states[kind]
}

// SetState sets the router-side state for kind.
func (record *Record) SetState(kind Kind, state State) {
	record.lock.Lock()
	defer record.lock.Unlock()

	record.states[kind] = state
}

// add appends a point, enforcing the single-call-point rule.
func (record *Record) add(point *Point) error {
	record.lock.Lock()
	defer record.lock.Unlock()

	if point.Kind == KindCall && record.hasLocked(KindCall) {
		return ErrURIBusy
	}

	record.points = append(record.points, point)
	return nil
}

// remove drops the point, matching by identity. It reports whether the point
// was found and whether the record emptied.
func (record *Record) remove(point *Point) (found bool, empty bool) {
	record.lock.Lock()
	defer record.lock.Unlock()

	i := 0
	for _, thisPoint := range record.points {
		if thisPoint == point {
			found = true
			continue
		}
		record.points[i] = thisPoint
		i++
	}
	record.points = record.points[0:i]

	return found, len(record.points) == 0
}

// removeOwner drops every point the owner holds in the record. It reports how
// many points were dropped and whether the record emptied.
func (record *Record) removeOwner(owner node.Resource) (dropped int, empty bool) {
	record.lock.Lock()
	defer record.lock.Unlock()

	i := 0
	for _, thisPoint := range record.points {
		if thisPoint.Owner == owner {
			dropped++
			continue
		}
		record.points[i] = thisPoint
		i++
	}
	record.points = record.points[0:i]

	return dropped, len(record.points) == 0
}
