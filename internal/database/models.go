package database

// EventType represents an event type definition
type EventType struct {
	ID   int
	Name string
}

// EventCount is the number of logged events of one type for a guild
type EventCount struct {
	EventType int
	Name      string
	Count     int64
}
