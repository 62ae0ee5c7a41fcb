package bus

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/crowdnav/pkg/geom"
)

type testObserver struct {
	publishCount   int
	deliveredCount int
	lastErr        error
}

func (o *testObserver) OnPublish(_, _ string, _ Event) {
	o.publishCount++
}

func (o *testObserver) OnDelivered(_, _ string, handlers int, err error, _ time.Duration) {
	o.deliveredCount += handlers
	o.lastErr = err
}

func TestPublishCarriesAgentData(t *testing.T) {
	b := New()
	var got AgentData
	_, err := b.Subscribe(AgentExited, func(e Event) error {
		got = e.Data().(AgentData)
		return nil
	})
	require.NoError(t, err)

	want := AgentData{Room: "simple", AgentID: uuid.New(), Position: geom.V(0, 100), Tick: 7}
	require.NoError(t, b.Publish(NewEvent(AgentExited, "sim", want)))
	assert.Equal(t, want, got)

	// other types are not delivered
	got = AgentData{}
	require.NoError(t, b.Publish(NewEvent(AgentStranded, "sim", want)))
	assert.Zero(t, got)
}

func TestDeliveryFollowsSubscriptionOrder(t *testing.T) {
	b := New()
	var order []int
	for i := range 5 {
		_, err := b.Subscribe(RoomLoaded, func(Event) error {
			order = append(order, i)
			return nil
		})
		require.NoError(t, err)
	}
	require.NoError(t, b.Publish(NewEvent(RoomLoaded, "sim", RoomData{Room: "r"})))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestHandlerErrorsAreJoined(t *testing.T) {
	b := New()
	errA := errors.New("a")
	errB := errors.New("b")
	_, _ = b.Subscribe("x", func(Event) error { return errA })
	_, _ = b.Subscribe("x", func(Event) error { return nil })
	_, _ = b.Subscribe("x", func(Event) error { return errB })

	err := b.Publish(NewEvent("x", "src", nil))
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
}

func TestTopicsIsolation(t *testing.T) {
	b := New()
	count1, count2, countDefault := 0, 0, 0
	_, _ = b.SubscribeTopic("t1", AgentSpawned, func(Event) error { count1++; return nil })
	_, _ = b.SubscribeTopic("t2", AgentSpawned, func(Event) error { count2++; return nil })
	_, _ = b.Subscribe(AgentSpawned, func(Event) error { countDefault++; return nil })

	require.NoError(t, b.PublishToTopic("t1", NewEvent(AgentSpawned, "src", nil)))
	assert.Equal(t, []int{1, 0, 0}, []int{count1, count2, countDefault})

	names := make([]string, 0, 3)
	for _, ti := range b.GetTopics() {
		names = append(names, ti.Name)
		assert.Equal(t, 1, ti.Subs, ti.Name)
	}
	assert.Equal(t, []string{"", "t1", "t2"}, names)
}

func TestCancelStopsDelivery(t *testing.T) {
	b := New()
	calls := 0
	sub, err := b.Subscribe("e", func(Event) error { calls++; return nil })
	require.NoError(t, err)
	require.True(t, sub.IsActive())
	assert.NotEmpty(t, sub.ID())
	assert.Equal(t, "e", sub.EventType())

	require.NoError(t, b.Unsubscribe(sub))
	require.NoError(t, sub.Cancel())
	assert.False(t, sub.IsActive())
	require.NoError(t, b.Unsubscribe(nil))

	require.NoError(t, b.Publish(NewEvent("e", "src", nil)))
	assert.Zero(t, calls)
}

func TestCancelDuringDelivery(t *testing.T) {
	b := New()
	calls := 0
	var second Subscription
	_, _ = b.Subscribe("e", func(Event) error { return second.Cancel() })
	second, _ = b.Subscribe("e", func(Event) error { calls++; return nil })

	require.NoError(t, b.Publish(NewEvent("e", "src", nil)))
	assert.Zero(t, calls)
}

func TestFiltersDropSilently(t *testing.T) {
	b := New()
	obs := &testObserver{}
	b.AddObserver(obs)
	calls := 0
	_, _ = b.Subscribe("e", func(Event) error { calls++; return nil })

	reject := func(Event) bool { return false }
	require.NoError(t, b.PublishWithFilters(NewEvent("e", "src", nil), reject))
	assert.Zero(t, calls)
	assert.Equal(t, uint64(1), b.GetMetrics().DroppedByFilters)
}

func TestObserverMetricsOptional(t *testing.T) {
	b := New()
	_, _ = b.Subscribe("e", func(Event) error { return nil })
	_ = b.Publish(NewEvent("e", "s", nil))
	assert.Zero(t, b.GetMetrics().Published)

	obs := &testObserver{}
	b.AddObserver(obs)
	_ = b.Publish(NewEvent("e", "s", nil))
	m := b.GetMetrics()
	assert.Equal(t, uint64(1), m.Published)
	assert.Equal(t, uint64(1), m.DeliveredHandlers)
	assert.Equal(t, uint64(1), m.SubscribersActive)
	assert.Equal(t, 1, obs.publishCount)
	assert.Equal(t, 1, obs.deliveredCount)

	b.RemoveObserver(obs)
	_ = b.Publish(NewEvent("e", "s", nil))
	assert.Equal(t, 1, obs.publishCount)
}
