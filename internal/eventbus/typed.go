package eventbus

// Typed subscribes to the bus and returns a channel that only carries events
// of type T. The returned cancel function unsubscribes and closes the
// channel.
func Typed[T any](b *Bus) (<-chan T, func()) {
	src := b.Subscribe()
	out := make(chan T, 16)
	go func() {
		defer close(out)
		for e := range src {
			if t, ok := e.(T); ok {
				select {
				case out <- t:
				default:
				}
			}
		}
	}()
	cancel := func() { b.Unsubscribe(src) }
	return out, cancel
}
