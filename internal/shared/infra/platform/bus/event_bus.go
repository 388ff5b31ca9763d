package bus

import "context"

type Keyer interface {
	PartitionKey() string
}

// Topic naming and payload format are decided by the adapters.
type EventBus interface {
	Publish(ctx context.Context, event interface{}) error
}
