package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress             string
	DatabaseURI            string
	MailerAddress          string
	ApprovalValidity       time.Duration
	OverdueAfter           time.Duration
	ReminderThresholds     []time.Duration
	SweepInterval          time.Duration
	SendPollInterval       time.Duration
	MaxNotificationRetries int
	SendBatchSize          int
	WorkerPoolSize         int
	ShutdownTimeout        time.Duration
}

const (
	defaultRunAddress         = ":8080"
	defaultApprovalValidity   = 72 * time.Hour
	defaultOverdueAfter       = 24 * time.Hour
	defaultReminderThresholds = "24h,48h"
	defaultSweepInterval      = 5 * time.Minute
	defaultSendPollInterval   = 3 * time.Second
	defaultMaxRetries         = 3
	defaultSendBatchSize      = 32
	defaultWorkerPoolSize     = 4
	defaultShutdownTimeout    = 10 * time.Second
)

// Load parses configuration from flags and environment variables.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:             getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:            getString(lookup, "DATABASE_URI", ""),
		MailerAddress:          getString(lookup, "MAILER_ADDRESS", ""),
		ApprovalValidity:       getDuration(lookup, "APPROVAL_VALIDITY", defaultApprovalValidity),
		OverdueAfter:           getDuration(lookup, "OVERDUE_AFTER", defaultOverdueAfter),
		SweepInterval:          getDuration(lookup, "SWEEP_INTERVAL", defaultSweepInterval),
		SendPollInterval:       getDuration(lookup, "SEND_POLL_INTERVAL", defaultSendPollInterval),
		MaxNotificationRetries: getInt(lookup, "MAX_NOTIFICATION_RETRIES", defaultMaxRetries),
		SendBatchSize:          getInt(lookup, "SEND_BATCH_SIZE", defaultSendBatchSize),
		WorkerPoolSize:         getInt(lookup, "WORKER_POOL_SIZE", defaultWorkerPoolSize),
		ShutdownTimeout:        getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
	}

	thresholdsStr := getString(lookup, "REMINDER_THRESHOLDS", defaultReminderThresholds)

	fs := flag.NewFlagSet("fulfillment", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		validityStr        = cfg.ApprovalValidity.String()
		overdueStr         = cfg.OverdueAfter.String()
		sweepIntervalStr   = cfg.SweepInterval.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.MailerAddress, "m", cfg.MailerAddress, "Mail provider base URL")
	fs.StringVar(&validityStr, "approval-validity", validityStr, "Design approval validity window")
	fs.StringVar(&overdueStr, "overdue-after", overdueStr, "Age after which a pending approval is overdue")
	fs.StringVar(&thresholdsStr, "reminder-thresholds", thresholdsStr, "Comma-separated reminder ages")
	fs.StringVar(&sweepIntervalStr, "sweep-interval", sweepIntervalStr, "Interval between expiry sweeps")
	fs.IntVar(&cfg.MaxNotificationRetries, "max-retries", cfg.MaxNotificationRetries, "Maximum notification send retries")
	fs.IntVar(&cfg.SendBatchSize, "send-batch", cfg.SendBatchSize, "Maximum notifications per dispatch batch")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent notification workers")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.ApprovalValidity, err = time.ParseDuration(validityStr); err != nil {
		return nil, fmt.Errorf("invalid approval validity: %w", err)
	}

	if cfg.OverdueAfter, err = time.ParseDuration(overdueStr); err != nil {
		return nil, fmt.Errorf("invalid overdue threshold: %w", err)
	}

	if cfg.SweepInterval, err = time.ParseDuration(sweepIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid sweep interval: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if cfg.ReminderThresholds, err = parseThresholds(thresholdsStr); err != nil {
		return nil, fmt.Errorf("invalid reminder thresholds: %w", err)
	}

	if cfg.MaxNotificationRetries < 0 {
		cfg.MaxNotificationRetries = defaultMaxRetries
	}

	if cfg.SendBatchSize <= 0 {
		cfg.SendBatchSize = defaultSendBatchSize
	}

	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}

	if cfg.ApprovalValidity <= 0 {
		cfg.ApprovalValidity = defaultApprovalValidity
	}

	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepInterval
	}

	if cfg.SendPollInterval <= 0 {
		cfg.SendPollInterval = defaultSendPollInterval
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	if cfg.MailerAddress == "" {
		return nil, fmt.Errorf("mail provider address must be provided")
	}

	return cfg, nil
}

// parseThresholds parses a comma-separated duration list and requires it to
// be strictly increasing so the reminder index stays unambiguous.
func parseThresholds(s string) ([]time.Duration, error) {
	parts := strings.Split(s, ",")
	thresholds := make([]time.Duration, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := time.ParseDuration(part)
		if err != nil {
			return nil, err
		}
		if d <= 0 {
			return nil, fmt.Errorf("threshold %q must be positive", part)
		}
		if len(thresholds) > 0 && d <= thresholds[len(thresholds)-1] {
			return nil, fmt.Errorf("thresholds must be strictly increasing")
		}
		thresholds = append(thresholds, d)
	}
	return thresholds, nil
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
