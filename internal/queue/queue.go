package queue

import "context"

const (
	// DispatchQueue carries asynchronous dispatch requests.
	DispatchQueue = "push.dispatch"
	// DispatchDLQ receives messages rejected as unprocessable.
	DispatchDLQ = "dlq.push.dispatch"
)

// Publisher publishes dispatch messages to a queue.
type Publisher interface {
	Publish(ctx context.Context, queue string, msg DispatchMessage) error
	Close() error
}

// MessageHandler handles a consumed queue message.
type MessageHandler func(ctx context.Context, msg DispatchMessage) error

// Consumer consumes dispatch messages from a queue.
type Consumer interface {
	Consume(ctx context.Context, queue string, handler MessageHandler) error
	Close() error
}
