package topomap

import (
	"github.com/hupe1980/topomap/container"
)

// DefaultMaxWorkers is the default number of worker slots of a map.
const DefaultMaxWorkers = 64

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	maxWorkers       int
	externalWorkers  bool
	memoryLimit      int64
	ioLimit          int64
	compression      container.Compression
}

// Option configures a map.
type Option func(*options)

// WithLogger configures structured logging.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetricsCollector configures metrics collection.
//
// Example:
//
//	metrics := &topomap.BasicMetricsCollector{}
//	m := cmap2.New(topomap.WithMetricsCollector(metrics))
//	// ... traverse ...
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithMaxWorkers sets the number of worker slots, the main worker included.
// Parallel traversals need one slot per worker.
func WithMaxWorkers(n int) Option {
	return func(o *options) {
		o.maxWorkers = n
	}
}

// WithExternalWorkers authorizes RegisterWorker from the start.
func WithExternalWorkers() Option {
	return func(o *options) {
		o.externalWorkers = true
	}
}

// WithMemoryLimit caps the memory of the blocks of all containers of the map.
// Creating a block beyond the limit panics with ErrMemoryLimitExceeded.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithIOLimit throttles SaveBin/LoadBin and snapshots to bytesPerSec.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.ioLimit = bytesPerSec
	}
}

// WithCompression sets the compression of column payloads in binary dumps.
func WithCompression(ct container.Compression) Option {
	return func(o *options) {
		o.compression = ct
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		maxWorkers:       DefaultMaxWorkers,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.maxWorkers < 1 {
		o.maxWorkers = 1
	}
	return o
}
