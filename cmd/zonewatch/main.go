package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/brightears/zonewatch/internal/config"
	"github.com/brightears/zonewatch/internal/httpapi"
	"github.com/brightears/zonewatch/internal/logging"
	"github.com/brightears/zonewatch/internal/metrics"
	"github.com/brightears/zonewatch/internal/monitor"
	"github.com/brightears/zonewatch/internal/notify"
	"github.com/brightears/zonewatch/internal/store"
	"github.com/brightears/zonewatch/internal/syb"
)

func main() {
	cfgFile := flag.String("config", "", "Path to config file")
	poll := flag.Duration("poll-interval", 0, "Poll interval (overrides config)")
	runOnce := flag.Bool("run-once", false, "run one discovery pass and exit")
	dryRun := flag.Bool("dry-run", false, "discover and log the diff without dispatching notifications")
	flag.Parse()

	// .env files are how the Render deployments carry credentials locally
	_ = godotenv.Load()

	cfg := config.DefaultConfig()
	if *cfgFile != "" {
		c, err := config.LoadConfigFromFile(*cfgFile)
		if err != nil {
			log.Fatalf("failed loading config: %v", err)
		}
		cfg = c
	}

	// env var overrides (overrides file/defaults)
	if err := config.ApplyEnvOverrides(cfg); err != nil {
		log.Fatalf("invalid environment configuration: %v", err)
	}

	// CLI flags have highest precedence
	if *poll > 0 {
		cfg.PollInterval = *poll
	}
	if *dryRun {
		cfg.DryRun = true
	}

	cleanup := initLogging()
	defer cleanup()

	initMetricsAndInflux(cfg)

	client := syb.NewClient(cfg.SYBAPIURL, cfg.SYBAPIKey, cfg.SYBPageSize, cfg.SYBTimeout)
	dispatcher, closeLog := buildDispatcher(cfg)
	defer closeLog()

	startMonitorAndWait(cfg, client, dispatcher, *runOnce)
}

// initLogging initializes the log subsystem from env and returns a cleanup func
func initLogging() func() {
	logLevel := os.Getenv("ZONEWATCH_LOG_LEVEL")
	logFile := os.Getenv("ZONEWATCH_LOG_FILE")
	cleanup, err := logging.Init(logFile, logLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	return cleanup
}

// initMetricsAndInflux starts the optional metrics server and Influx pusher
func initMetricsAndInflux(cfg *config.Config) {
	if cfg.MetricsEnabled {
		go httpapi.Serve(cfg.MetricsPort)
	}
	if cfg.InfluxURL != "" {
		go metrics.StartInfluxPusher(context.Background(), cfg.InfluxURL, cfg.InfluxToken, cfg.InfluxOrg, cfg.InfluxBucket, cfg.InfluxInterval)
	}
}

// buildDispatcher wires every configured channel plus the optional
// notification log. The returned func closes the log's pool.
func buildDispatcher(cfg *config.Config) (*notify.Dispatcher, func()) {
	d := notify.NewDispatcher()
	entries := []struct {
		enabled bool
		add     func()
	}{
		{cfg.WhatsAppConfigured(), func() {
			d.Add(notify.NewWhatsApp(cfg.WhatsAppToken, cfg.WhatsAppPhoneNumberID), cfg.WhatsAppTo)
		}},
		{cfg.EmailConfigured(), func() {
			email := notify.NewEmail(cfg.EmailHost, cfg.EmailPort, cfg.EmailUser, cfg.EmailPass)
			d.Add(email, cfg.EmailTo)
		}},
		{cfg.SMSConfigured(), func() {
			d.Add(notify.NewSMS(cfg.SMSAccountSID, cfg.SMSAuthToken, cfg.SMSFrom, cfg.InQuietHours), cfg.SMSTo)
		}},
	}
	for _, e := range entries {
		if e.enabled {
			e.add()
		}
	}
	logging.Get().Info().Int("channels", d.Len()).Msg("notification channels configured")

	closeLog := func() {}
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		nl, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logging.Get().Error().Err(err).Msg("notification log unavailable; continuing without it")
		} else {
			d.SetSink(func(r notify.Result) {
				recCtx, recCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer recCancel()
				if err := nl.RecordResult(recCtx, r); err != nil {
					logging.Get().Warn().Err(err).Msg("failed to record notification outcome")
				}
			})
			closeLog = nl.Close
		}
	}
	return d, closeLog
}

// startMonitorAndWait starts the monitor (or runs once) and waits for a shutdown signal
func startMonitorAndWait(cfg *config.Config, client *syb.Client, dispatcher *notify.Dispatcher, runOnce bool) {
	m := monitor.New(cfg, client, dispatcher)
	if runOnce {
		logging.Get().Info().Msg("run-once: performing a single discovery pass")
		m.RunOnce()
		return
	}
	go m.Start()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logging.Get().Info().Msg("shutdown signal received, waiting for active operations to complete")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	m.Stop(shutdownCtx)
}
