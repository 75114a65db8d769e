// cmd/reconciler/main.go
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	app "parkledger/internal"
	"parkledger/internal/jobs"
)

func main() {
	once := flag.Bool("once", false, "run the audit once and exit")
	schedule := flag.String("schedule", "0 2 * * *", "cron schedule for the nightly audit")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	application := app.NewApplication()
	if err := application.Initialize(ctx); err != nil {
		if application.Logger != nil {
			application.Logger.Error("Failed to initialize application", "error", err)
		}
		os.Exit(1)
	}
	defer func() { _ = application.Shutdown(context.Background()) }()

	reconciler := jobs.NewReconciler(
		application.DB,
		application.WalletRepository,
		application.TransactionRepository,
		application.Logger,
	)

	if *once {
		reconciler.AuditWalletChains(ctx)
		return
	}

	c := cron.New()
	if _, err := c.AddFunc(*schedule, func() { reconciler.AuditWalletChains(context.Background()) }); err != nil {
		application.Logger.Error("Invalid cron schedule", "schedule", *schedule, "error", err)
		os.Exit(1)
	}
	c.Start()
	application.Logger.Info("Reconciler scheduled", "schedule", *schedule)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	stopCtx := c.Stop()
	<-stopCtx.Done()
	application.Logger.Info("Reconciler stopped.")
}
