package dedupe

// Option configures a deduper.
type Option func(*inMemoryDeduper)

// WithMaxSize caps how many ids are remembered, forgetting the oldest first.
// Zero or a negative value keeps every id.
func WithMaxSize(n int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = n
	}
}
