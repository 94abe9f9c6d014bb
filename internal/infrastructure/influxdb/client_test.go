package influxdb

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/hostlink/internal/infrastructure/config"
)

func TestConnect_Disabled(t *testing.T) {
	c, err := Connect(context.Background(), config.InfluxDBConfig{Enabled: false}, "desk")
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
	if c != nil {
		t.Error("Connect() returned a client while disabled")
	}
}

func TestConnect_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	cfg := config.InfluxDBConfig{Enabled: true, URL: "http://127.0.0.1:59999", Token: "t", Org: "o", Bucket: "b"}
	_, err := Connect(ctx, cfg, "desk")
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestClientOptions(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.InfluxDBConfig
		wantBatch uint
		wantFlush uint
	}{
		{"defaults", config.InfluxDBConfig{}, 100, 10000},
		{"negative", config.InfluxDBConfig{BatchSize: -1, FlushInterval: -5}, 100, 10000},
		{"explicit", config.InfluxDBConfig{BatchSize: 20, FlushInterval: 2}, 20, 2000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := clientOptions(tt.cfg)
			if got := opts.BatchSize(); got != tt.wantBatch {
				t.Errorf("BatchSize() = %d, want %d", got, tt.wantBatch)
			}
			if got := opts.FlushInterval(); got != tt.wantFlush {
				t.Errorf("FlushInterval() = %d, want %d", got, tt.wantFlush)
			}
		})
	}
}

func TestPerformancePoint(t *testing.T) {
	at := time.Unix(1700000000, 0)
	p := performancePoint("desk", map[string]float64{"cpu_load": 12.5}, at)

	line := write.PointToLineProtocol(p, time.Second)
	want := "system_performance,host=desk cpu_load=12.5 1700000000\n"
	if line != want {
		t.Errorf("line protocol = %q, want %q", line, want)
	}
}

func TestActionPoint(t *testing.T) {
	at := time.Unix(1700000000, 0)
	p := actionPoint("desk", "desk_caffeine", "switch", "success", 250*time.Millisecond, at)

	line := write.PointToLineProtocol(p, time.Second)
	for _, part := range []string{"action,", "entity=desk_caffeine", "outcome=success", "duration_ms=250i"} {
		if !strings.Contains(line, part) {
			t.Errorf("line protocol %q missing %q", line, part)
		}
	}
}

func TestWriteOnDisconnectedClientIsNoop(t *testing.T) {
	c := &Client{}
	c.WritePerformance(map[string]float64{"cpu_load": 1}, time.Now())
	c.WriteAction("desk_caffeine", "switch", "success", time.Second, time.Now())
	c.Flush()
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}
