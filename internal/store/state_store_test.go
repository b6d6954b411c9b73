package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l4m1fy/playerpop/internal/model"
	"github.com/l4m1fy/playerpop/internal/service"
)

func intPtr(v int) *int { return &v }

func newTestStore() *StateStore {
	return New(map[string]int{"s1": 50, "s2": 100})
}

func TestStateStore_Apply(t *testing.T) {
	st := newTestStore()

	t.Run("seeds offline at declared capacity", func(t *testing.T) {
		state, ok := st.Get("s1")
		require.True(t, ok)
		assert.Equal(t, model.TenantState{Online: false, CurrentPlayers: 0, MaxPlayers: 50}, state)
	})

	t.Run("applies events in order", func(t *testing.T) {
		e1 := &model.Event{Type: model.EventStartup, CurrentPlayers: intPtr(0)}
		e2 := &model.Event{Type: model.EventCount, CurrentPlayers: intPtr(12)}

		initial, _ := st.Get("s1")
		s1, err := st.Apply("s1", e1)
		require.NoError(t, err)
		s2, err := st.Apply("s1", e2)
		require.NoError(t, err)

		assert.Equal(t, service.Reconcile(initial, e1), s1)
		assert.Equal(t, service.Reconcile(s1, e2), s2)
		assert.Equal(t, 12, s2.CurrentPlayers)
	})

	t.Run("unknown tenant", func(t *testing.T) {
		_, err := st.Apply("nope", &model.Event{Type: model.EventStartup})
		assert.Error(t, err)
	})
}

func TestStateStore_Isolation(t *testing.T) {
	st := newTestStore()

	before, _ := st.Get("s2")
	_, err := st.Apply("s1", &model.Event{Type: model.EventCount, CurrentPlayers: intPtr(30)})
	require.NoError(t, err)

	after, _ := st.Get("s2")
	assert.Equal(t, before, after, "tenant s2 must be untouched by s1 events")
}

func TestStateStore_Snapshot(t *testing.T) {
	st := newTestStore()
	_, err := st.Apply("s1", &model.Event{Type: model.EventStartup, CurrentPlayers: intPtr(5)})
	require.NoError(t, err)

	snap := st.Snapshot()
	assert.Len(t, snap, 2)
	assert.Equal(t, 5, snap["s1"].CurrentPlayers)
	assert.False(t, snap["s2"].Online)

	// The snapshot is detached: later applies must not show up in it.
	_, err = st.Apply("s1", &model.Event{Type: model.EventCount, CurrentPlayers: intPtr(9)})
	require.NoError(t, err)
	assert.Equal(t, 5, snap["s1"].CurrentPlayers)
}

func TestStateStore_OnChangeOrder(t *testing.T) {
	st := newTestStore()

	var seen []model.TenantState
	st.OnChange(func(tenantID string, state model.TenantState) {
		seen = append(seen, state)
	})

	_, err := st.Apply("s1", &model.Event{Type: model.EventStartup, CurrentPlayers: intPtr(1)})
	require.NoError(t, err)
	_, err = st.Apply("s1", &model.Event{Type: model.EventCount, CurrentPlayers: intPtr(2)})
	require.NoError(t, err)
	_, err = st.Apply("s1", &model.Event{Type: model.EventShutdown})
	require.NoError(t, err)

	require.Len(t, seen, 3)
	assert.Equal(t, 1, seen[0].CurrentPlayers)
	assert.Equal(t, 2, seen[1].CurrentPlayers)
	assert.False(t, seen[2].Online)
	assert.Equal(t, 0, seen[2].CurrentPlayers)
}

func TestStateStore_ConcurrentApplies(t *testing.T) {
	st := newTestStore()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			var ev *model.Event
			if n%10 == 0 {
				ev = &model.Event{Type: model.EventShutdown}
			} else {
				ev = &model.Event{Type: model.EventCount, CurrentPlayers: intPtr(n)}
			}
			_, err := st.Apply("s1", ev)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	// Whatever interleaving won, the state must reflect exactly one fully
	// applied event, never a torn write.
	state, _ := st.Get("s1")
	if state.Online {
		assert.GreaterOrEqual(t, state.CurrentPlayers, 0)
		assert.Less(t, state.CurrentPlayers, 100)
	} else {
		assert.Equal(t, 0, state.CurrentPlayers)
	}
	assert.Equal(t, 50, state.MaxPlayers)
}
