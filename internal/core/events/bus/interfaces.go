package bus

import (
	"time"

	"github.com/google/uuid"
	"github.com/zeusync/crowdnav/pkg/geom"
)

// EventBus is an in-process pub/sub bus for simulation events.
//
// Handlers subscribe by event type, optionally scoped to a topic; the
// simulation publishes room-scoped events on a topic named after the room and
// mirrors them on the default topic "". Delivery is synchronous, in the
// publisher's goroutine, in subscription order. Handler errors are joined and
// returned from Publish. All methods are safe for concurrent use.
type EventBus interface {
	// Publish delivers the event to subscribers of event.Type() in the default topic.
	Publish(event Event) error
	// PublishToTopic delivers the event to subscribers within topic.
	PublishToTopic(topic string, event Event) error
	// PublishWithFilters drops the event silently if any filter rejects it.
	PublishWithFilters(event Event, filters ...EventFilter) error

	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	SubscribeTopic(topic, eventType string, handler EventHandler) (Subscription, error)
	// Unsubscribe cancels sub. A nil sub is ignored.
	Unsubscribe(sub Subscription) error

	AddObserver(obs EventBusObserver)
	RemoveObserver(obs EventBusObserver)
	// GetMetrics is only updated while at least one observer is registered.
	GetMetrics() EventBusMetrics
	GetTopics() []TopicInfo
}

// Event is an immutable message transported by the EventBus.
type Event interface {
	Type() string
	Source() string
	Timestamp() time.Time
	Data() any
}

type (
	EventHandler func(event Event) error
	EventFilter  func(event Event) bool
)

type Subscription interface {
	ID() string
	EventType() string
	IsActive() bool
	// Cancel de-registers the handler. Multiple calls are safe.
	Cancel() error
}

// EventBusObserver is notified about deliveries. Observers should return quickly.
type EventBusObserver interface {
	OnPublish(topic, eventType string, event Event)
	OnDelivered(topic, eventType string, handlers int, err error, duration time.Duration)
}

type EventBusMetrics struct {
	Published         uint64
	DeliveredHandlers uint64
	Errors            uint64
	DroppedByFilters  uint64
	SubscribersActive uint64
	Topics            uint64
}

type TopicInfo struct {
	Name       string
	EventTypes int
	Subs       int
}

// Simulation event types.
const (
	AgentSpawned    = "agent.spawned"
	AgentExited     = "agent.exited"
	AgentStranded   = "agent.stranded"
	AgentCleared    = "agent.cleared"
	RoomLoaded      = "room.loaded"
	RoomUnloaded    = "room.unloaded"
	StrategyChanged = "strategy.changed"
	SimPaused       = "simulation.paused"
	SimResumed      = "simulation.resumed"
)

// AgentData is the payload of the agent.* events.
type AgentData struct {
	Room     string
	AgentID  uuid.UUID
	Position geom.Vector
	Tick     uint64
}

// RoomData is the payload of the room.* events.
type RoomData struct {
	Room        string
	Fingerprint uint64
	Obstacles   int
	Nodes       int
	Edges       int
}

// StrategyData is the payload of strategy.changed.
type StrategyData struct {
	Room     string
	Strategy string
}
