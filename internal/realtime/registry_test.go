package realtime

import (
	"math/rand"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_AddAndRemove(t *testing.T) {
	clock := clockwork.NewRealClock()
	r := NewRegistry(clock)
	s, _ := newSessionPair(t, clock, testIdentity())

	r.Add(s)
	assert.Equal(t, 1, r.Len())
	assert.Len(t, r.ConnectionsOf(s.ActorID), 1)

	r.Remove(s)
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.ConnectionsOf(s.ActorID))
}

func TestRegistry_RemoveIsIdempotent(t *testing.T) {
	clock := clockwork.NewRealClock()
	r := NewRegistry(clock)
	s, _ := newSessionPair(t, clock, testIdentity())

	r.Add(s)
	r.Remove(s)
	r.Remove(s)
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_MultiDevice(t *testing.T) {
	clock := clockwork.NewRealClock()
	r := NewRegistry(clock)

	identity := testIdentity()
	s1, _ := newSessionPair(t, clock, identity)
	s2, _ := newSessionPair(t, clock, identity)

	r.Add(s1)
	r.Add(s2)
	assert.Len(t, r.ConnectionsOf(identity.ActorID), 2)

	r.Remove(s1)
	assert.Len(t, r.ConnectionsOf(identity.ActorID), 1)
}

func TestRegistry_SubscribeUnsubscribe(t *testing.T) {
	clock := clockwork.NewRealClock()
	r := NewRegistry(clock)
	s, _ := newSessionPair(t, clock, testIdentity())
	r.Add(s)

	r.Subscribe(s, "feed")
	r.Subscribe(s, "industry:TECH")
	assert.Len(t, r.MembersOf("feed"), 1)
	assert.ElementsMatch(t, []string{"feed", "industry:TECH"}, r.RoomsOf(s))
	checkIndexConsistency(t, r)

	r.Unsubscribe(s, "feed")
	assert.Empty(t, r.MembersOf("feed"))
	assert.Equal(t, []string{"industry:TECH"}, r.RoomsOf(s))
	checkIndexConsistency(t, r)
}

func TestRegistry_SubscribeUnregisteredSessionIsNoop(t *testing.T) {
	clock := clockwork.NewRealClock()
	r := NewRegistry(clock)
	s, _ := newSessionPair(t, clock, testIdentity())

	r.Subscribe(s, "feed")
	assert.Empty(t, r.MembersOf("feed"))
}

func TestRegistry_RemoveClearsAllRooms(t *testing.T) {
	clock := clockwork.NewRealClock()
	r := NewRegistry(clock)
	s1, _ := newSessionPair(t, clock, testIdentity())
	s2, _ := newSessionPair(t, clock, testIdentity())
	r.Add(s1)
	r.Add(s2)

	r.Subscribe(s1, "feed")
	r.Subscribe(s1, "room:a")
	r.Subscribe(s2, "room:a")

	r.Remove(s1)
	checkIndexConsistency(t, r)
	assert.Empty(t, r.MembersOf("feed"), "empty room should be torn down")
	assert.Len(t, r.MembersOf("room:a"), 1)
}

// Property: for any interleaving of subscribe/unsubscribe/remove/re-add, the
// room index and the sessions' own room sets stay mutually consistent.
func TestRegistry_IndexConsistencyUnderRandomOps(t *testing.T) {
	clock := clockwork.NewRealClock()
	r := NewRegistry(clock)

	const sessionCount = 6
	sessions := make([]*Session, sessionCount)
	for i := range sessions {
		sessions[i], _ = newSessionPair(t, clock, testIdentity())
		r.Add(sessions[i])
	}

	rooms := []string{"feed", "room:a", "room:b", "room:c"}
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		s := sessions[rng.Intn(sessionCount)]
		room := rooms[rng.Intn(len(rooms))]

		switch rng.Intn(4) {
		case 0:
			r.Subscribe(s, room)
		case 1:
			r.Unsubscribe(s, room)
		case 2:
			r.Remove(s)
		case 3:
			r.Add(s)
		}
		checkIndexConsistency(t, r)
	}
}

func TestRegistry_SweepStale(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Now())
	r := NewRegistry(clock)

	stale, staleClient := newSessionPair(t, clock, testIdentity())
	fresh, _ := newSessionPair(t, clock, testIdentity())
	r.Add(stale)
	r.Add(fresh)
	r.Subscribe(stale, "feed")

	clock.Advance(90 * time.Second)
	r.TouchLiveness(fresh)
	clock.Advance(45 * time.Second)

	removed := r.SweepStale(2 * time.Minute)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, r.Len())
	assert.Empty(t, r.MembersOf("feed"))
	checkIndexConsistency(t, r)

	// Swept transport is closed: the client read eventually fails.
	require.NoError(t, staleClient.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		if _, _, err := staleClient.ReadMessage(); err != nil {
			break
		}
	}
}

func TestRegistry_SweepStale_NothingToDo(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Now())
	r := NewRegistry(clock)
	s, _ := newSessionPair(t, clock, testIdentity())
	r.Add(s)

	clock.Advance(30 * time.Second)
	assert.Equal(t, 0, r.SweepStale(2*time.Minute))
	assert.Equal(t, 1, r.Len())
}
