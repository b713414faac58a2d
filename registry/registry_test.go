//revive:disable
package registry_test

import (
	"context"
	"testing"

	"github.com/peake100/rockyRaccoon-go/node"
	"github.com/peake100/rockyRaccoon-go/registry"
	"github.com/stretchr/testify/suite"
)

type ownerResource struct {
	node.Node
}

func noopCall(ctx context.Context, inv node.Invocation) (*node.Result, error) {
	return nil, nil
}

func noopEvent(ctx context.Context, evt node.Event) {}

type RegistrySuite struct {
	suite.Suite
}

func (suite *RegistrySuite) TestAddAndLookup() {
	store := registry.NewStore()
	owner := new(ownerResource)
	path := node.MustPath("test.service")

	callPoint := registry.NewCallPoint(owner, noopCall)
	record, err := store.Add(path, callPoint)
	suite.NoError(err, "add call point")
	suite.NotNil(record)

	eventPoint := registry.NewEventPoint(owner, noopEvent)
	recordAgain, err := store.Add(path, eventPoint)
	suite.NoError(err, "add event point")
	suite.Same(record, recordAgain, "same record for same path")

	suite.Equal(2, record.Len())
	suite.True(record.Has(registry.KindCall))
	suite.True(record.Has(registry.KindEvent))

	gotCall, ok := record.CallPoint()
	suite.True(ok, "call point present")
	suite.Same(callPoint, gotCall)

	events := store.Lookup(path, registry.KindEvent)
	suite.Len(events, 1)
	suite.Same(eventPoint, events[0])

	suite.Nil(
		store.Lookup(node.MustPath("test.other"), registry.KindEvent),
		"lookup on unknown path",
	)

	suite.Equal(registry.StateNone, record.State(registry.KindCall))
	suite.Equal(registry.StateNone, record.State(registry.KindEvent))
	suite.Equal(1, store.Len())
	suite.Equal([]string{"test.service"}, store.Paths())
}

func (suite *RegistrySuite) TestSecondCallPointRejected() {
	store := registry.NewStore()
	path := node.MustPath("test.service")

	_, err := store.Add(path, registry.NewCallPoint(new(ownerResource), noopCall))
	suite.NoError(err, "add first call point")

	_, err = store.Add(path, registry.NewCallPoint(new(ownerResource), noopCall))
	suite.ErrorIs(err, registry.ErrURIBusy, "second call point at same path")

	// Event points are not limited.
	_, err = store.Add(path, registry.NewEventPoint(new(ownerResource), noopEvent))
	suite.NoError(err, "event point after rejection")
	_, err = store.Add(path, registry.NewEventPoint(new(ownerResource), noopEvent))
	suite.NoError(err, "second event point")
}

func (suite *RegistrySuite) TestRemovePoint() {
	store := registry.NewStore()
	owner := new(ownerResource)
	path := node.MustPath("test.service")

	callPoint := registry.NewCallPoint(owner, noopCall)
	eventPoint := registry.NewEventPoint(owner, noopEvent)

	_, err := store.Add(path, callPoint)
	suite.NoError(err)
	_, err = store.Add(path, eventPoint)
	suite.NoError(err)

	empty, err := store.RemovePoint(path, eventPoint)
	suite.NoError(err, "remove event point")
	suite.False(empty, "call point remains")

	empty, err = store.RemovePoint(path, callPoint)
	suite.NoError(err, "remove call point")
	suite.True(empty, "record emptied")

	_, ok := store.Get(path)
	suite.False(ok, "emptied record dropped")
	suite.Equal(0, store.Len())
}

func (suite *RegistrySuite) TestRemoveMissingPoint() {
	store := registry.NewStore()
	path := node.MustPath("test.service")
	stranger := registry.NewEventPoint(new(ownerResource), noopEvent)

	_, err := store.RemovePoint(path, stranger)
	suite.ErrorIs(err, registry.ErrPointNotFound, "remove from unknown path")

	_, err = store.Add(path, registry.NewEventPoint(new(ownerResource), noopEvent))
	suite.NoError(err)

	_, err = store.RemovePoint(path, stranger)
	suite.ErrorIs(err, registry.ErrPointNotFound, "remove foreign point")
}

func (suite *RegistrySuite) TestOwnerRemoval() {
	store := registry.NewStore()

	ownerA := new(ownerResource)
	ownerB := new(ownerResource)

	pathShared := node.MustPath("test.shared")
	pathSolo := node.MustPath("test.solo")

	_, err := store.Add(pathShared, registry.NewCallPoint(ownerA, noopCall))
	suite.NoError(err)
	_, err = store.Add(pathShared, registry.NewEventPoint(ownerB, noopEvent))
	suite.NoError(err)
	_, err = store.Add(pathSolo, registry.NewEventPoint(ownerA, noopEvent))
	suite.NoError(err)

	byPath := store.OwnerPoints(ownerA)
	suite.Len(byPath, 2, "owner A holds points at two paths")
	suite.Len(byPath["test.shared"], 1)
	suite.Len(byPath["test.solo"], 1)

	affected := store.RemoveOwner(ownerA)
	suite.Len(affected, 2, "both records lost points")
	suite.Equal("test.shared", affected[0].Path().String())
	suite.Equal("test.solo", affected[1].Path().String())

	suite.Equal(1, store.Len(), "solo record dropped, shared kept")

	shared, ok := store.Get(pathShared)
	suite.True(ok)
	suite.Equal(1, shared.Len())
	suite.False(shared.Has(registry.KindCall), "owner A's call point gone")

	suite.Empty(store.OwnerPoints(ownerA))

	suite.Empty(store.RemoveOwner(ownerA), "second removal finds nothing")
}

func (suite *RegistrySuite) TestRecordStates() {
	store := registry.NewStore()
	path := node.MustPath("test.service")
	point := registry.NewEventPoint(new(ownerResource), noopEvent)

	record, err := store.Add(path, point)
	suite.NoError(err)

	record.SetState(registry.KindEvent, registry.StatePending)
	suite.Equal(registry.StatePending, record.State(registry.KindEvent))

	record.SetState(registry.KindEvent, registry.StateDone)
	suite.Equal(registry.StateDone, record.State(registry.KindEvent))

	// The record stays usable after it empties out of the store, so callers
	// can still unwind router-side interests.
	empty, err := store.RemovePoint(path, point)
	suite.NoError(err)
	suite.True(empty)
	suite.Equal(registry.StateDone, record.State(registry.KindEvent))
}

func (suite *RegistrySuite) TestSignalPoint() {
	owner := new(ownerResource)
	sig := node.NewSignal()

	point := registry.NewSignalPoint(owner, sig)
	suite.Equal(registry.KindEvent, point.Kind)
	suite.Same(sig, point.Source)
	suite.NotNil(point.Event)

	other := registry.NewEventPoint(owner, noopEvent)
	suite.Nil(other.Source, "plain event points carry no source")
	suite.NotEqual(point.ID(), other.ID())
}

func (suite *RegistrySuite) TestMalformedPointRejected() {
	store := registry.NewStore()
	path := node.MustPath("test.service")

	_, err := store.Add(path, &registry.Point{Kind: registry.KindCall})
	suite.Error(err, "call point without handler")

	_, err = store.Add(path, &registry.Point{Kind: registry.KindEvent})
	suite.Error(err, "event point without handler")

	suite.Equal(0, store.Len(), "nothing stored")
}

func (suite *RegistrySuite) TestKindAndStateNames() {
	suite.Equal("call", registry.KindCall.String())
	suite.Equal("subscription", registry.KindEvent.String())

	suite.Equal("none", registry.StateNone.String())
	suite.Equal("pending", registry.StatePending.String())
	suite.Equal("done", registry.StateDone.String())
}

func (suite *RegistrySuite) TestClear() {
	store := registry.NewStore()

	_, err := store.Add(
		node.MustPath("test.a"), registry.NewEventPoint(new(ownerResource), noopEvent),
	)
	suite.NoError(err)
	_, err = store.Add(
		node.MustPath("test.b"), registry.NewEventPoint(new(ownerResource), noopEvent),
	)
	suite.NoError(err)

	suite.Equal(2, store.Len())
	suite.Len(store.Records(), 2)

	store.Clear()
	suite.Equal(0, store.Len())
	suite.Empty(store.Paths())
}

func TestRegistry(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}
