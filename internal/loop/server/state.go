package server

// ClientHandle represents a client's connection to the hub.
type ClientHandle struct {
	ID       int
	Username string
	EventsCh chan ClientEvent // Events sent to the client
}

// ClientEvent represents an event sent from the hub to a client.
type ClientEvent struct {
	Type ClientEventType
}

// ClientEventType identifies the type of client event.
type ClientEventType int

const (
	EventLeaderboardUpdated ClientEventType = iota
	EventServerShutdown
)
