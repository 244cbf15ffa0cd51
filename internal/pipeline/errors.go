package pipeline

import "fmt"

// ValidationError reports malformed input. Nothing was changed.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
}

// DeliveryError wraps a Publisher failure. Nothing was recorded.
type DeliveryError struct {
	Operation string
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s delivery failed: %v", e.Operation, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// PersistenceError means a message was delivered but recording it failed.
type PersistenceError struct {
	GuildID   string
	MessageID string
	Err       error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to record message %s in guild %s: %v", e.MessageID, e.GuildID, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
