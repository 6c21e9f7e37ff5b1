package pubsub

import "context"

// Nop discards published events and never delivers any.
type Nop struct{}

func (Nop) Publish(context.Context, string, *Event) error { return nil }

func (Nop) Subscribe(ctx context.Context, _ string) (<-chan *Event, error) {
	return closedAfter(ctx), nil
}

func (Nop) SubscribePattern(ctx context.Context, _ string) (<-chan *Event, error) {
	return closedAfter(ctx), nil
}

func (Nop) Unsubscribe(context.Context, string) error { return nil }

func (Nop) Close() error { return nil }

func closedAfter(ctx context.Context) <-chan *Event {
	ch := make(chan *Event)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch
}
