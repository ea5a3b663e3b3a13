package event

// Type identifies the kind of event on the session bus
type Type int

const (
	SystemControl Type = iota // A control request from the UI
	AsyncResult               // Async work completion dispatched onto the session loop
)

// Control action constants
const (
	ActionQuit        = "quit"
	ActionPause       = "pause"
	ActionResume      = "resume"
	ActionTogglePause = "toggle_pause"
)

// ControlOp contains control operation details
type ControlOp struct {
	Action string // Use Action* constants
}

// Event is the universal packet sent to the session loop
type Event struct {
	Type     Type
	Control  ControlOp // For SystemControl events
	Callback func()    // For AsyncResult events
}

// Control builds a SystemControl event.
func Control(action string) Event {
	return Event{Type: SystemControl, Control: ControlOp{Action: action}}
}
