// hostlink - Home Assistant agent for a single host
//
// hostlink connects a desktop or server to an MQTT broker, announces its
// buttons, switches and sensors through Home Assistant discovery, runs the
// configured actions when commands arrive and reports system performance.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/hostlink/internal/action"
	"github.com/nerrad567/hostlink/internal/dbus"
	"github.com/nerrad567/hostlink/internal/discovery"
	"github.com/nerrad567/hostlink/internal/entity"
	"github.com/nerrad567/hostlink/internal/infrastructure/config"
	"github.com/nerrad567/hostlink/internal/infrastructure/database"
	"github.com/nerrad567/hostlink/internal/infrastructure/influxdb"
	"github.com/nerrad567/hostlink/internal/infrastructure/logging"
	"github.com/nerrad567/hostlink/internal/infrastructure/mqtt"
	"github.com/nerrad567/hostlink/internal/metrics"
	"github.com/nerrad567/hostlink/internal/notify"
	"github.com/nerrad567/hostlink/internal/process"
	"github.com/nerrad567/hostlink/internal/session"
	"github.com/nerrad567/hostlink/internal/statestore"
	"github.com/nerrad567/hostlink/internal/telemetry"
	"github.com/nerrad567/hostlink/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - args: Command line arguments without the program name
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context, args []string) error {
	flags := pflag.NewFlagSet("hostlink", pflag.ContinueOnError)
	configFlag := flags.StringP("config", "c", "", "path to the YAML configuration file")
	showVersion := flags.Bool("version", false, "print version information and exit")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *showVersion {
		fmt.Printf("hostlink %s (commit %s, built %s)\n", version, commit, date)
		return nil
	}

	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting hostlink",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath(*configFlag)
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	catalog, err := entity.Build(cfg)
	if err != nil {
		return fmt.Errorf("building entities: %w", err)
	}
	log.Info("entities built",
		"hostname", catalog.Hostname,
		"buttons", len(catalog.Buttons),
		"switches", len(catalog.Switches),
		"sensors", len(catalog.Sensors),
	)

	// Switch state store (optional)
	var (
		store   session.StateStore
		initial map[string]string
	)
	if cfg.State.Enabled {
		db, err := openDatabase(ctx, cfg.State)
		if err != nil {
			return err
		}
		defer func() {
			log.Info("closing state store")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing state store", "error", closeErr)
			}
		}()

		states := statestore.New(db)
		initial, err = states.Load(ctx)
		if err != nil {
			return fmt.Errorf("loading switch states: %w", err)
		}
		store = states
		log.Info("state store opened", "path", db.Path(), "remembered_switches", len(initial))
	} else {
		log.Info("state store disabled")
	}

	// D-Bus connections are opened on first use
	bus := dbus.NewClient()
	bus.SetLogger(log.With("component", "dbus"))
	defer func() {
		if closeErr := bus.Close(); closeErr != nil {
			log.Error("error closing D-Bus", "error", closeErr)
		}
	}()

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	var m *metrics.Metrics
	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		m = metrics.New(reg)
		metricsServer, err = metrics.Listen(cfg.Metrics.Listen, reg)
		if err != nil {
			return err
		}
		log.Info("metrics endpoint ready", "addr", metricsServer.Addr())
	} else {
		log.Info("metrics disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB, catalog.Hostname)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Actions
	runner := process.NewRunner(process.Config{})
	runner.SetLogger(log.With("component", "process"))

	registry := action.NewRegistry(runner, bus, cfg.Session.ActionTimeout)
	registry.SetLogger(log.With("component", "action"))
	registry.SetObserver(actionObservers{metrics: m, history: influxClient})
	if err := registerActions(registry, cfg, catalog); err != nil {
		return fmt.Errorf("registering actions: %w", err)
	}

	var notifier notify.Sender
	if cfg.DBus.Notifications {
		notifier = dbus.NewNotifier(bus)
	}

	// Session
	dialer := mqtt.NewDialer(cfg.MQTT, mqtt.AvailabilityWill(catalog.Topics.Availability()), cfg.Session.InboundQueue)
	dialer.SetLogger(log.With("component", "mqtt"))
	if m != nil {
		dialer.SetObserver(m)
	}

	mgr, err := session.New(session.Deps{
		Config:        cfg.Session,
		QoS:           byte(cfg.MQTT.QoS), // #nosec G115 -- validated 0-2
		Catalog:       catalog,
		Dialer:        session.MQTTDialer(dialer),
		Discovery:     discovery.NewPublisher(catalog.Topics, discovery.NewDeviceInfo(catalog.Hostname, cfg.Device.Name, version), version),
		Actions:       registry,
		Notifier:      notifier,
		Store:         store,
		InitialStates: initial,
		PowerEvents:   cfg.DBus.PowerEvents,
	})
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	mgr.SetLogger(log.With("component", "session"))
	if m != nil {
		mgr.SetObserver(m)
	}
	log.Info("session ready", "broker", dialer.Broker(), "client_id", cfg.MQTT.Broker.ClientID)

	g, gctx := errgroup.WithContext(ctx)

	if metricsServer != nil {
		g.Go(func() error { return metricsServer.Serve(gctx) })
	}

	if cfg.Telemetry.Enabled {
		collector := newCollector(cfg, catalog, mgr, m, influxClient)
		collector.SetLogger(log.With("component", "telemetry"))
		mgr.OnServing(collector.Trigger)
		g.Go(func() error { return collector.Run(gctx) })
		log.Info("telemetry enabled", "interval", cfg.Telemetry.Interval)
	}

	if cfg.DBus.PowerEvents {
		monitor := dbus.NewPowerMonitor(bus, mgr, cfg.DBus.SuspendGrace)
		g.Go(func() error {
			if err := monitor.Run(gctx); err != nil {
				log.Warn("power monitor unavailable", "error", err)
			}
			return nil
		})
	}

	g.Go(func() error { return mgr.Run(gctx) })

	log.Info("initialisation complete, waiting for shutdown signal")
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	log.Info("hostlink stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// The --config flag wins, then HOSTLINK_CONFIG, then the default.
func getConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if path := os.Getenv("HOSTLINK_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// openDatabase opens the state store file and applies migrations.
func openDatabase(ctx context.Context, cfg config.StateConfig) (*database.DB, error) {
	db, err := database.Open(database.Config{
		Path:        cfg.Path,
		BusyTimeout: cfg.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening state store: %w", err)
	}
	if _, err := db.Migrate(ctx, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

// registerActions attaches one action to every button and switch.
// Catalog entities line up with the config lists by index.
func registerActions(r *action.Registry, cfg *config.Config, catalog *entity.Catalog) error {
	for i, b := range cfg.Buttons {
		if err := r.RegisterShell(catalog.Buttons[i].ID, b.Exec); err != nil {
			return err
		}
	}
	for i, s := range cfg.Switches {
		id := catalog.Switches[i].ID
		if s.DBus != nil {
			call := action.Call{
				Service:   s.DBus.Service,
				Path:      s.DBus.Path,
				Interface: s.DBus.Interface,
				Method:    s.DBus.Method,
				System:    s.DBus.System,
			}
			if err := r.RegisterCall(id, call); err != nil {
				return err
			}
			continue
		}
		if err := r.RegisterSwitch(id, s.Exec); err != nil {
			return err
		}
	}
	return nil
}

// newCollector builds the telemetry collector with its sinks: the
// performance state topic, the Prometheus gauges and InfluxDB history.
func newCollector(cfg *config.Config, catalog *entity.Catalog, mgr *session.Manager, m *metrics.Metrics, history *influxdb.Client) *telemetry.Collector {
	collector := telemetry.NewCollector(cfg.Telemetry, telemetry.HostSource{})

	topic := catalog.Topics.Performance()
	collector.AddSink(telemetry.SinkFunc(func(s telemetry.Sample) {
		payload, err := s.JSON()
		if err != nil {
			return
		}
		mgr.Publish(session.Request{Topic: topic, Payload: payload})
	}))

	if m != nil {
		collector.AddSink(telemetry.GaugeSink(m))
	}
	if history != nil {
		collector.AddSink(telemetry.HistorySink(history))
	}
	return collector
}

// actionObservers fans action samples out to metrics and InfluxDB.
type actionObservers struct {
	metrics *metrics.Metrics
	history *influxdb.Client
}

// ObserveAction implements action.Observer.
func (o actionObservers) ObserveAction(entityID, kind, outcome string, d time.Duration) {
	o.metrics.ObserveAction(entityID, kind, outcome, d)
	if o.history != nil {
		o.history.WriteAction(entityID, kind, outcome, d, time.Now())
	}
}
