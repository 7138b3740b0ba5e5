package ws

// Event types sent over the socket
const (
	TypeState        = "state"         // summary sent right after connecting or on refresh
	TypeSpaceUpdated = "space_updated" // the space changed
	TypeSpaceEnded   = "space_ended"   // the space ended; clients should leave
	TypeRefresh      = "refresh"       // client asks for a fresh state
	TypeError        = "error"
)

type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}
