package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"math/rand/v2"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/otpfield/internal/config"
	"github.com/jask/otpfield/internal/database"
	"github.com/jask/otpfield/internal/database/repository"
	"github.com/jask/otpfield/internal/input"
	"github.com/jask/otpfield/internal/logging"
	"github.com/jask/otpfield/internal/prefs"
	"github.com/jask/otpfield/internal/sample"
	"github.com/jask/otpfield/internal/secrets"
	"github.com/jask/otpfield/internal/service"
	"github.com/jask/otpfield/internal/tui"
)

const demoDelay = 3 * time.Second

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// the field count chosen in the UI wins over the config file
	if f, ok, err := prefs.LoadField(); err != nil {
		log.Printf("warn: ignoring saved field prefs: %v", err)
	} else if ok && f.NumberOfFields >= config.MinFields && f.NumberOfFields <= config.MaxFields {
		cfg.Field.NumberOfFields = f.NumberOfFields
	}

	logger, logCloser, err := logging.Open(cfg.Log.File, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer logCloser.Close()

	db, err := database.OpenMigrated(cfg.Database.Path)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	attempts := repository.NewAttemptRepo(db)
	maintenance := &service.MaintenanceService{DB: db, Attempts: attempts}
	if cfg.Verify.Retention > 0 {
		n, err := maintenance.Prune(ctx, cfg.Verify.Retention)
		if err != nil {
			log.Fatalf("prune attempts: %v", err)
		}
		if n > 0 {
			logger.Info("pruned attempts", "count", n, "retention", cfg.Verify.Retention)
		}
	}

	key, err := secrets.EnsureKey(secrets.DigestKey, secrets.DigestKeySize)
	if err != nil {
		log.Fatalf("digest key: %v", err)
	}

	verification := &service.VerificationService{
		Verifier: newVerifier(cfg.Verify),
		Attempts: attempts,
		Key:      key,
		Log:      logger,
	}

	var sources tui.Sources
	if cfg.Inbox.Enabled {
		inbox, err := input.WatchInbox(ctx, cfg.Inbox.Path, logger)
		if err != nil {
			log.Fatalf("watch inbox: %v", err)
		}
		defer inbox.Close()
		sources.Inbox = inbox.Messages()
		if cfg.Inbox.Demo {
			go sendDemoSMS(ctx, cfg, logger)
		}
	}

	logger.Info("starting", "cells", cfg.Field.NumberOfFields, "verify", cfg.Verify.Mode, "inbox", cfg.Inbox.Enabled)

	p := tea.NewProgram(
		tui.New(ctx, cfg,
			tui.Services{Verification: verification, Maintenance: maintenance},
			sources,
			logger,
		),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	if _, err := p.Run(); err != nil {
		fmt.Printf("error: %v\n", err)
	}
}

func newVerifier(cfg config.VerifyConfig) service.Verifier {
	switch cfg.Mode {
	case config.VerifyExpected:
		return &service.ExpectedCodeVerifier{Expected: cfg.ExpectedCode, Delay: cfg.Delay}
	default:
		return &service.SimulatedVerifier{Delay: cfg.Delay}
	}
}

// sendDemoSMS drops one generated message into the inbox after a short wait.
func sendDemoSMS(ctx context.Context, cfg config.Config, logger *slog.Logger) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(demoDelay):
	}
	r := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	code := cfg.Verify.ExpectedCode
	if cfg.Verify.Mode != config.VerifyExpected || len(code) != cfg.Field.NumberOfFields {
		code = sample.Code(r, cfg.Field.NumberOfFields)
	}
	if err := input.WriteInbox(cfg.Inbox.Path, sample.SMS(r, code)); err != nil {
		logger.Warn("demo sms", "err", err)
	}
}
