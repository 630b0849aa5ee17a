package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"FraudSentinel/internal/analyzer"
	"FraudSentinel/internal/bank"
	"FraudSentinel/internal/collector"
	"FraudSentinel/internal/config"
	"FraudSentinel/internal/emitter"
	"FraudSentinel/internal/monitor"
	"FraudSentinel/internal/recorder"
	"FraudSentinel/internal/scheduler"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] FraudSentinel starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	interval, _ := cfg.Interval()
	retryDelay, _ := cfg.RetryDelay()
	tokenTTL, _ := cfg.TokenTTL()
	minCategory, _ := cfg.MinCategory()

	// Init credentials
	var source bank.TokenSource
	if cfg.Auth.Token != "" {
		source = &bank.StaticTokenSource{Token: cfg.Auth.Token}
	} else {
		js, err := bank.NewJWTTokenSource(cfg.Auth.JWTKeyFile, cfg.Auth.Username, cfg.Auth.AccountID, tokenTTL)
		if err != nil {
			log.Fatalf("[FATAL] init jwt token source: %v", err)
		}
		source = js
	}
	cred := bank.NewCredential(source)
	log.Printf("[INFO] credential source: %s", source.Name())

	// Init bank client and collector
	client := bank.NewClient(cfg.Bank.AccountsURL, cfg.Bank.BalancesURL, cfg.Bank.TransactionsURL, cred)
	col := collector.NewCollector(client, cred, cfg.Monitor.Window)

	// Init analysis model
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mdl analyzer.Model
	gm, err := analyzer.NewGeminiModel(ctx, cfg.Model.Name)
	if err != nil {
		log.Printf("[WARN] gemini client unavailable, assessments will degrade to UNKNOWN: %v", err)
		mdl = &analyzer.UnavailableModel{Reason: err}
	} else {
		mdl = gm
	}
	anl := analyzer.New(mdl, cfg.Model.MaxAttempts, retryDelay)
	log.Printf("[INFO] analysis model: %s", mdl.Name())

	// Init alert sinks
	sinks := []emitter.Sink{emitter.LogSink{}}
	if cfg.Alerts.WebhookURL != "" {
		sinks = append(sinks, emitter.NewWebhookSink(cfg.Alerts.WebhookURL))
		log.Printf("[INFO] alert webhook enabled")
	}
	em := emitter.New(minCategory, cfg.Monitor.MinScore, cfg.Monitor.Realert, sinks...)

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Init monitoring loop
	loop := monitor.New(client, col, anl, em, rec, interval, cfg.Monitor.Concurrency)

	// Init scheduler for digest and alert re-arm tasks
	sched := scheduler.NewScheduler(ctx, loop, em)
	if err := sched.RegisterAll(cfg.Schedule.DigestCron, cfg.Schedule.RearmCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// First signal finishes the current cycle, second aborts it.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("[INFO] shutdown signal received, finishing current cycle...")
		loop.Shutdown()
		<-sigCh
		log.Println("[WARN] second signal received, aborting")
		cancel()
	}()

	log.Println("[INFO] FraudSentinel is running. Press Ctrl+C to stop.")
	loop.Run(ctx)
	log.Println("[INFO] FraudSentinel stopped")
}
