package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"goalplanner/internal/calendar"
	"goalplanner/internal/config"
	"goalplanner/internal/generator"
	"goalplanner/internal/repository"
	"goalplanner/internal/service"
	"goalplanner/internal/transport/httpapi"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db")
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	planRepo := repository.NewPlanRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	creditRepo := repository.NewCreditRepository(db)
	lockRepo := repository.NewPlanLockRepository(db)

	var busySource calendar.BusySource = calendar.Empty{}
	if cfg.CalendarURL != "" {
		busySource = calendar.NewHTTPClient(cfg.CalendarURL, 15*time.Second)
	}
	gen := generator.NewHTTPClient(cfg.GeneratorURL, cfg.GeneratorTimeout.Std(), cfg.GeneratorRPM)

	availability := service.NewAvailabilityService(scheduleRepo, busySource, log)
	scheduleSvc := service.NewScheduleService(scheduleRepo, settingsRepo, availability, log)
	rescheduleSvc := service.NewRescheduleService(scheduleRepo, taskRepo, settingsRepo, availability, log)
	regenerationSvc := service.NewRegenerationService(planRepo, taskRepo, scheduleRepo, creditRepo, lockRepo, gen, scheduleSvc, log)
	accountSvc := service.NewAccountService(userRepo, creditRepo, log)
	planSvc := service.NewPlanService(planRepo, taskRepo, scheduleSvc, log)
	settingsSvc := service.NewSettingsService(settingsRepo, log)

	sweep := service.NewSweepService(time.Local, userRepo, rescheduleSvc, log)
	if cfg.SweepInterval.Std() > 0 {
		if _, err := sweep.ScheduleInterval(cfg.SweepInterval.Std()); err != nil {
			log.Fatal().Err(err).Msg("schedule sweep")
		}
		sweep.Start()
		defer sweep.Stop()
	}

	server := httpapi.NewServer(cfg.ListenAddr, accountSvc, planSvc, settingsSvc, regenerationSvc, rescheduleSvc, scheduleSvc, log)

	log.Info().Str("addr", cfg.ListenAddr).Msg("goal planner started")
	if err := server.ListenAndServe(ctx); err != nil &&
		!errors.Is(err, context.Canceled) && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
	log.Info().Msg("shutdown complete")
}
