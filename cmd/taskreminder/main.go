package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"task-reminder/internal/bot"
	"task-reminder/internal/clock"
	"task-reminder/internal/config"
	"task-reminder/internal/platform"
	"task-reminder/internal/repository"
	"task-reminder/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	clk, err := clock.New(cfg.Timezone)
	if err != nil {
		log.Fatalf("clock: %v", err)
	}

	db, err := repository.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	docs := repository.NewDocumentStore(db)
	taskStore := repository.NewTaskStore(docs, clk)
	historyStore := repository.NewHistoryStore(docs)
	deliveredStore := repository.NewDeliveredStore(docs)

	scheduler := platform.NewCronScheduler(clk.Location())
	notificationSvc := service.NewNotificationService(scheduler, deliveredStore, clk, cfg.LeadMinutes, cfg.GraceMinutes)
	statusSvc := service.NewStatusService(taskStore, clk, cfg.GraceMinutes)
	deliverySvc := service.NewDeliveryService(deliveredStore, historyStore, clk, cfg.DedupWindow)
	planner := service.NewPlannerService(taskStore, statusSvc, notificationSvc)

	var sender platform.Sender = platform.LogSender{}
	var telegramBot *bot.Bot
	if cfg.TelegramToken != "" {
		telegramBot, err = bot.New(cfg.TelegramToken, cfg.TelegramChatID, planner, historyStore)
		if err != nil {
			log.Fatalf("bot: %v", err)
		}
		sender = telegramBot
	} else {
		log.Println("[warn] no telegram token configured, notifications go to the log only")
	}

	scheduler.OnReceived(func(payload platform.Payload) {
		jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		rec, err := deliverySvc.RecordDelivery(jobCtx, payload)
		if err != nil {
			log.Printf("[error] record delivery: %v", err)
			return
		}
		if rec == nil {
			return
		}
		if err := sender.Send(jobCtx, *rec); err != nil {
			log.Printf("[error] deliver notification %s: %v", rec.ID, err)
		}
	})

	// The in-memory handle table is empty after a restart; rebuild every open
	// task's alerts before the scheduler starts ticking.
	planner.RescheduleAll(ctx)

	if _, err := scheduler.ScheduleInterval(cfg.SweepInterval, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := planner.UpdateTaskStatuses(jobCtx); err != nil {
			log.Printf("[error] status sweep: %v", err)
		}
	}); err != nil {
		log.Fatalf("schedule status sweep: %v", err)
	}

	scheduler.Start()
	defer scheduler.Stop()

	log.Println("Task reminder daemon started.")
	if telegramBot != nil {
		if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Fatalf("bot stopped with error: %v", err)
		}
	} else {
		<-ctx.Done()
	}
	log.Println("Shutdown complete.")
}
