package chat

// EventType enumerates every stream event the orchestrator can emit.
// The SSE layer and the tests both consume this one definition.
type EventType string

const (
	// EventThinkingComplete marks the end of the blocking phase;
	// incremental output follows.
	EventThinkingComplete EventType = "thinking_complete"
	// EventToken carries one incremental response fragment.
	EventToken EventType = "token"
	// EventDone terminates a successful stream with the full response.
	EventDone EventType = "done"
	// EventError terminates a failed stream with a message.
	EventError EventType = "error"
)

// Event is one orchestrator emission. Exactly one terminal event
// (done or error) ends every stream.
type Event struct {
	Type         EventType `json:"type"`
	Token        string    `json:"token,omitempty"`
	FullResponse string    `json:"full_response,omitempty"`
	Message      string    `json:"message,omitempty"`
}

// Terminal reports whether the event ends the stream.
func (e Event) Terminal() bool {
	return e.Type == EventDone || e.Type == EventError
}

func thinkingComplete() Event { return Event{Type: EventThinkingComplete} }

func tokenEvent(fragment string) Event { return Event{Type: EventToken, Token: fragment} }

func doneEvent(full string) Event { return Event{Type: EventDone, FullResponse: full} }

func errorEvent(msg string) Event { return Event{Type: EventError, Message: msg} }
