package telemetry

import (
	"context"
	"time"

	"github.com/nerrad567/hostlink/internal/infrastructure/config"
)

// Sink receives every successful sample.
type Sink interface {
	Record(s Sample)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Sample)

// Record implements Sink.
func (f SinkFunc) Record(s Sample) { f(s) }

// Logger interface for optional logging support.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Collector samples the host on an interval and fans each sample out to
// its sinks.
type Collector struct {
	source   Source
	diskPath string
	interval time.Duration
	sinks    []Sink
	trigger  chan struct{}
	logger   Logger
	now      func() time.Time
}

// NewCollector creates a collector from the telemetry config.
func NewCollector(cfg config.TelemetryConfig, source Source) *Collector {
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	diskPath := cfg.DiskPath
	if diskPath == "" {
		diskPath = "/"
	}
	return &Collector{
		source:   source,
		diskPath: diskPath,
		interval: interval,
		trigger:  make(chan struct{}, 1),
		logger:   noopLogger{},
		now:      time.Now,
	}
}

// SetLogger sets the logger.
func (c *Collector) SetLogger(logger Logger) {
	c.logger = logger
}

// AddSink registers a sink. Call before Run.
func (c *Collector) AddSink(s Sink) {
	c.sinks = append(c.sinks, s)
}

// Trigger requests an immediate sample. Requests made while one is
// already pending are merged.
func (c *Collector) Trigger() {
	select {
	case c.trigger <- struct{}{}:
	default:
	}
}

// Sample reads the host once. CPU frequency is optional; every other
// figure must be readable.
func (c *Collector) Sample(ctx context.Context) (Sample, error) {
	load, err := c.source.CPUPercent(ctx)
	if err != nil {
		return Sample{}, err
	}

	var freq *float64
	if mhz, err := c.source.CPUFrequencyMHz(ctx); err == nil {
		freq = &mhz
	} else {
		c.logger.Debug("cpu frequency unavailable", "error", err)
	}

	memTotal, memAvail, err := c.source.Memory(ctx)
	if err != nil {
		return Sample{}, err
	}
	diskTotal, diskFree, err := c.source.Disk(ctx, c.diskPath)
	if err != nil {
		return Sample{}, err
	}

	return Sample{
		Performance: newPerformance(load, freq, memTotal, memAvail, diskTotal, diskFree),
		At:          c.now(),
	}, nil
}

// Run samples on every tick and on Trigger until ctx is cancelled.
func (c *Collector) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case <-c.trigger:
		}
		c.collect(ctx)
	}
}

func (c *Collector) collect(ctx context.Context) {
	s, err := c.Sample(ctx)
	if err != nil {
		c.logger.Warn("telemetry sample failed", "error", err)
		return
	}
	c.logger.Debug("telemetry sampled",
		"cpu_load", s.CPULoad,
		"memory_free_percentage", s.MemoryFreePercentage,
		"disk_free_percentage", s.DiskFreePercentage,
	)
	for _, sink := range c.sinks {
		sink.Record(s)
	}
}
