package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kampuskuevent/server/internal/loadtest"
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:8080", "Base URL of the server to test")
		profile     = flag.String("profile", "light", "Load profile: light, medium, heavy, rush")
		rps         = flag.Int("rps", 0, "Custom requests per second (overrides profile)")
		duration    = flag.Duration("duration", 0, "Custom test duration (overrides profile)")
		readRatio   = flag.Float64("read-ratio", -1, "Read/registration ratio 0.0-1.0 (overrides profile)")
		noRamp      = flag.Bool("no-ramp", false, "Disable ramp-up/ramp-down (instant start/stop)")
		eventID     = flag.Int64("event", 0, "Register against this event instead of creating one")
		quota       = flag.Int("quota", 1000, "Quota of the event created for the run")
		adminHeader = flag.String("admin-header", "X-API-Key", "Header carrying the admin token")
	)
	flag.Parse()

	tester := loadtest.NewLoadTester(*baseURL).
		WithAdminToken(*adminHeader, os.Getenv("ADMIN_TOKEN")).
		WithEvent(*eventID).
		WithQuota(*quota)

	cfg, ok := loadtest.LoadProfiles[loadtest.LoadProfile(*profile)]
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unknown profile %q\n", *profile)
		os.Exit(1)
	}
	if *rps > 0 {
		cfg.RequestsPerSecond = *rps
	}
	if *duration > 0 {
		cfg.Duration = *duration
	}
	if *readRatio >= 0 {
		cfg.ReadWriteRatio = *readRatio
	}
	if *noRamp {
		cfg.RampUpTime = 0
		cfg.RampDownTime = 0
	}

	fmt.Printf("Running load profile %s against %s\n", *profile, *baseURL)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := tester.RunCustom(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(stats.Report())
}
