package agent

type EventKind int

const (
	// EventCollision is a solid contact.
	EventCollision EventKind = iota + 1
	// EventTrigger is entering a zone.
	EventTrigger
)

// Object tags.
const (
	TagHomeBase = "HomeBase"
	TagTarget   = "Target"
	TagWall     = "Wall"
	TagAgent    = "Agent"
)

// Event is the payload of a collision or trigger callback.
type Event struct {
	Kind EventKind
	Tag  string
	// Team owning a HomeBase or another agent.
	Team int

	TargetID string
	Carried  int
	InBase   int
}
