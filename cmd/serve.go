package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambda"

	"frontdesk/handler"
	"frontdesk/internal/conversation"
	"frontdesk/internal/cooldown"
	"frontdesk/internal/integrations/gemini"
	"frontdesk/internal/integrations/twilio"
	"frontdesk/internal/server"
	"frontdesk/internal/usecase"
)

func serve(ctx context.Context) error {
	// ---- Configuration (read only here) ----
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	awsCfg, err := awsConfig(ctx, cfg)
	if err != nil {
		return err
	}
	if err := resolveSecrets(ctx, &cfg, awsCfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// ---- Clients ----
	llm, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return fmt.Errorf("create Gemini client: %w", err)
	}
	sms, err := twilio.NewClient(cfg.TwilioAccountSID, cfg.TwilioAuthToken)
	if err != nil {
		return fmt.Errorf("create Twilio client: %w", err)
	}
	leads, err := openLeads(cfg, awsCfg, true)
	if err != nil {
		return fmt.Errorf("open interaction log: %w", err)
	}

	// ---- Handler ----
	logger := slog.Default()
	replies, err := usecase.NewReplyGenerator(llm, conversation.NewStore(), cfg.GenerationTimeout, logger)
	if err != nil {
		return err
	}
	tracker := cooldown.New(cooldown.WithWindow(cfg.CooldownWindow))
	callRouter, err := usecase.NewCallRouter(sms, tracker, cfg.PersonalPhone, cfg.TwilioPhoneNumber, logger)
	if err != nil {
		return err
	}
	smsRouter, err := usecase.NewSMSRouter(replies, leads, sms, cfg.TwilioPhoneNumber, cfg.MonitorPhone, logger)
	if err != nil {
		return err
	}
	h, err := handler.NewHandler(callRouter, smsRouter, logger)
	if err != nil {
		return err
	}

	logger.Info("front desk configured",
		"model", llm.Model(),
		"cooldown_window", tracker.Window(),
		"generation_timeout", cfg.GenerationTimeout,
		"monitoring", cfg.MonitorPhone != "",
	)

	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" {
		lambda.Start(h.Handle)
		return nil
	}
	return serveHTTP(ctx, h, cfg.Port)
}

func serveHTTP(ctx context.Context, h *handler.Handler, port int) error {
	srv, err := server.New(h, port, slog.Default())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
