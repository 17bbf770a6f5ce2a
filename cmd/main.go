package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	schedulingv1 "github.com/Leganyst/slot-engine/internal/api/schedulingv1"
	"github.com/Leganyst/slot-engine/internal/config"
	"github.com/Leganyst/slot-engine/internal/db"
	"github.com/Leganyst/slot-engine/internal/httpapi"
	"github.com/Leganyst/slot-engine/internal/logger"
	"github.com/Leganyst/slot-engine/internal/model"
	"github.com/Leganyst/slot-engine/internal/renewal"
	"github.com/Leganyst/slot-engine/internal/repository"
	"github.com/Leganyst/slot-engine/internal/service"
)

func main() {
	// 1. Конфиг: .env (если есть), затем переменные окружения.
	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("load .env: %v", err)
	}
	dbCfg, err := config.LoadDBConfig()
	if err != nil {
		log.Fatalf("load db config: %v", err)
	}
	appCfg, err := config.LoadAppConfig()
	if err != nil {
		log.Fatalf("load app config: %v", err)
	}

	logg, err := logger.New(appCfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Подключаемся к БД через GORM и мигрируем модели.
	gormDB, err := db.NewGormDB(dbCfg)
	if err != nil {
		logg.Fatal("init db", zap.Error(err))
	}
	if err := model.AutoMigrate(gormDB); err != nil {
		logg.Fatal("auto migrate", zap.Error(err))
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logg.Fatal("sql DB", zap.Error(err))
	}
	defer sqlDB.Close()

	// 3. Репозитории (реализации на GORM).
	configRepo := repository.NewGormScheduleConfigRepository(gormDB)
	settingsRepo := repository.NewGormScheduleSettingsRepository(gormDB)
	slotRepo := repository.NewGormSlotRepository(gormDB)
	eventRepo := repository.NewGormSlotEventRepository(gormDB)
	providerRepo := repository.NewGormProviderRepository(gormDB)

	// 4. Сервисы ядра.
	manager := service.NewScheduleManager(configRepo, settingsRepo, slotRepo, eventRepo, providerRepo, logg, service.ManagerConfig{
		WindowLengthDays:   appCfg.Schedule.WindowDays,
		RenewalAdvanceDays: appCfg.Schedule.RenewalAdvanceDays,
		Concurrency:        appCfg.Renewal.Concurrency,
		Location:           appCfg.Schedule.Location,
	})
	bookingSvc := service.NewBookingService(slotRepo, logg)
	configSvc := service.NewConfigService(configRepo, providerRepo, logg)

	// 5. Фоновое продление. С Redis аренда не даёт репликам продлевать одновременно.
	renewalCfg := renewal.Config{
		Interval:         appCfg.Renewal.Interval,
		LeaseTTL:         appCfg.Renewal.LeaseTTL,
		Cleaner:          manager,
		CleanupAfterDays: appCfg.Renewal.CleanupAfterDays,
		Location:         appCfg.Schedule.Location,
	}
	if appCfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     appCfg.Redis.Addr,
			Password: appCfg.Redis.Password,
			DB:       appCfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logg.Fatal("redis ping", zap.String("addr", appCfg.Redis.Addr), zap.Error(err))
		}
		renewalCfg.Locker = renewal.NewRedisLocker(rdb)
	}
	scheduler := renewal.NewScheduler(manager, logg, renewalCfg)
	if appCfg.Renewal.Enabled {
		go scheduler.Run(ctx)
	} else {
		logg.Info("background renewal disabled")
	}

	// 6. gRPC-сервер.
	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	schedulingv1.RegisterSchedulingServer(grpcServer, service.NewSchedulingServer(manager, bookingSvc, configSvc))
	healthSrv := health.NewServer()
	healthSrv.SetServingStatus(schedulingv1.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", appCfg.GRPCAddr)
	if err != nil {
		logg.Fatal("listen grpc", zap.String("addr", appCfg.GRPCAddr), zap.Error(err))
	}
	go func() {
		logg.Info("gRPC server listening", zap.String("addr", appCfg.GRPCAddr))
		if err := grpcServer.Serve(lis); err != nil {
			logg.Error("grpc serve", zap.Error(err))
			stop()
		}
	}()

	// 7. Служебный HTTP: health, метрики, статус продления.
	httpServer := &http.Server{
		Addr: appCfg.HTTPAddr,
		Handler: httpapi.New(httpapi.Config{
			Logger:      logg,
			Ready:       sqlDB.PingContext,
			LastRenewal: scheduler.LastRun,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logg.Info("HTTP server listening", zap.String("addr", appCfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error("http serve", zap.Error(err))
			stop()
		}
	}()

	// 8. Грейсфул-шатдаун по сигналу.
	<-ctx.Done()
	logg.Info("shutting down")

	healthSrv.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logg.Warn("http shutdown", zap.Error(err))
	}
	grpcServer.GracefulStop()
}
