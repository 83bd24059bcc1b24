package telemetry

// EventType identifies notable simulation events.
type EventType uint8

const (
	EventDeath EventType = iota
	EventTideEviction
	EventStormShelter
	EventLandingAborted
	EventHaulOutSuccess
	EventHaulOutTimeout
	EventRelaxedMove
	EventUnsafeMove
	EventDeepPanic
)

func (t EventType) String() string {
	switch t {
	case EventDeath:
		return "death"
	case EventTideEviction:
		return "tide_eviction"
	case EventStormShelter:
		return "storm_shelter"
	case EventLandingAborted:
		return "landing_aborted"
	case EventHaulOutSuccess:
		return "haul_out_success"
	case EventHaulOutTimeout:
		return "haul_out_timeout"
	case EventRelaxedMove:
		return "relaxed_move"
	case EventUnsafeMove:
		return "unsafe_move"
	case EventDeepPanic:
		return "deep_panic"
	default:
		return "unknown"
	}
}

// Event is a single notable occurrence attributed to one agent.
type Event struct {
	Type    EventType
	Tick    int
	AgentID string

	// Detail carries type-specific context: the death cause, or empty.
	Detail string
}

// EventCSV is the flat row written to events.csv.
type EventCSV struct {
	Tick    int    `csv:"tick"`
	Type    string `csv:"type"`
	AgentID string `csv:"agent_id"`
	Detail  string `csv:"detail"`
}

// ToCSV flattens the event for export.
func (e Event) ToCSV() EventCSV {
	return EventCSV{Tick: e.Tick, Type: e.Type.String(), AgentID: e.AgentID, Detail: e.Detail}
}

// NewDeathEvent records an agent death with its cause.
func NewDeathEvent(tick int, agentID, cause string) Event {
	return Event{Type: EventDeath, Tick: tick, AgentID: agentID, Detail: cause}
}
