package interfaces

// EventPublisher delivers outcome events to an external channel.
type EventPublisher interface {
	Publish(topic string, event any) error
}
