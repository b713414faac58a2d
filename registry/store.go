package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/peake100/rockyRaccoon-go/node"
)

// Store indexes records by path. All methods are safe for concurrent use.
//
// The store is pure bookkeeping: adding or removing a point never touches the
// router. Callers inspect the returned records to decide what router-side
// work is owed.
type Store struct {
	lock    sync.RWMutex
	records map[string]*Record
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		records: make(map[string]*Record),
	}
}

// Add adds the point at path, creating the record if the path is new, and
// returns the record the point landed in. Adding a second call point at the
// same path fails with ErrURIBusy.
func (store *Store) Add(path node.Path, point *Point) (*Record, error) {
	err := point.validate()
	if err != nil {
		return nil, err
	}

	store.lock.Lock()
	defer store.lock.Unlock()

	key := path.String()
	record, ok := store.records[key]
	if !ok {
		record = newRecord(path)
		store.records[key] = record
	}

	err = record.add(point)
	if err != nil {
		return nil, fmt.Errorf("cannot add %v point at '%v': %w", point.Kind, key, err)
	}

	return record, nil
}

// Get returns the record at path, if one exists.
func (store *Store) Get(path node.Path) (*Record, bool) {
	store.lock.RLock()
	defer store.lock.RUnlock()

	record, ok := store.records[path.String()]
	return record, ok
}

// Lookup returns the points of one kind at path, or nil when the path has no
// record.
func (store *Store) Lookup(path node.Path, kind Kind) []*Point {
	record, ok := store.Get(path)
	if !ok {
		return nil
	}
	return record.PointsOf(kind)
}

// RemovePoint drops the point from the record at path, matching by identity.
// A record whose last point is removed is dropped from the store; the
// returned flag reports that, so the caller knows router-side interests at
// the path are now orphaned.
func (store *Store) RemovePoint(path node.Path, point *Point) (empty bool, err error) {
	store.lock.Lock()
	defer store.lock.Unlock()

	key := path.String()
	record, ok := store.records[key]
	if !ok {
		return false, fmt.Errorf("no record at '%v': %w", key, ErrPointNotFound)
	}

	found, empty := record.remove(point)
	if !found {
		return false, fmt.Errorf(
			"%v point %d not at '%v': %w", point.Kind, point.ID(), key, ErrPointNotFound,
		)
	}

	if empty {
		delete(store.records, key)
	}

	return empty, nil
}

// OwnerPoints returns every point the owner holds, grouped by path string.
func (store *Store) OwnerPoints(owner node.Resource) map[string][]*Point {
	store.lock.RLock()
	defer store.lock.RUnlock()

	found := make(map[string][]*Point)
	for key, record := range store.records {
		for _, thisPoint := range record.Points() {
			if thisPoint.Owner == owner {
				found[key] = append(found[key], thisPoint)
			}
		}
	}

	return found
}

// RemoveOwner drops every point the owner holds and returns the records that
// lost points. Records that emptied are dropped from the store but remain in
// the returned slice so the caller can unwind their router-side interests.
func (store *Store) RemoveOwner(owner node.Resource) []*Record {
	store.lock.Lock()
	defer store.lock.Unlock()

	var affected []*Record
	for key, record := range store.records {
		dropped, empty := record.removeOwner(owner)
		if dropped == 0 {
			continue
		}

		affected = append(affected, record)
		if empty {
			delete(store.records, key)
		}
	}

	sort.Slice(affected, func(i, j int) bool {
		return affected[i].path.String() < affected[j].path.String()
	})

	return affected
}

// Records returns a snapshot of every record, sorted by path.
func (store *Store) Records() []*Record {
	store.lock.RLock()
	defer store.lock.RUnlock()

	records := make([]*Record, 0, len(store.records))
	for _, record := range store.records {
		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].path.String() < records[j].path.String()
	})

	return records
}

// Paths returns every path with a record, sorted.
func (store *Store) Paths() []string {
	store.lock.RLock()
	defer store.lock.RUnlock()

	paths := make([]string, 0, len(store.records))
	for key := range store.records {
		paths = append(paths, key)
	}

	sort.Strings(paths)
	return paths
}

// Len returns the number of records in the store.
func (store *Store) Len() int {
	store.lock.RLock()
	defer store.lock.RUnlock()

	return len(store.records)
}

// Clear drops every record.
func (store *Store) Clear() {
	store.lock.Lock()
	defer store.lock.Unlock()

	store.records = make(map[string]*Record)
}
