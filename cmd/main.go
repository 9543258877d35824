package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	bayQueueHandler "github.com/m04kA/SMC-BayService/internal/api/handlers/bay_queue"
	cancelBookingHandler "github.com/m04kA/SMC-BayService/internal/api/handlers/cancel_booking"
	draftHandler "github.com/m04kA/SMC-BayService/internal/api/handlers/draft"
	finalizeDraftHandler "github.com/m04kA/SMC-BayService/internal/api/handlers/finalize_draft"
	generateCalendarHandler "github.com/m04kA/SMC-BayService/internal/api/handlers/generate_calendar"
	getAvailableSlotsHandler "github.com/m04kA/SMC-BayService/internal/api/handlers/get_available_slots"
	getBayScheduleHandler "github.com/m04kA/SMC-BayService/internal/api/handlers/get_bay_schedule"
	slotLifecycleHandler "github.com/m04kA/SMC-BayService/internal/api/handlers/slot_lifecycle"
	"github.com/m04kA/SMC-BayService/internal/api/middleware"
	"github.com/m04kA/SMC-BayService/internal/config"
	draftRepo "github.com/m04kA/SMC-BayService/internal/infra/storage/draft"
	queueRepo "github.com/m04kA/SMC-BayService/internal/infra/storage/queue"
	slotRepo "github.com/m04kA/SMC-BayService/internal/infra/storage/slot"
	bookingServiceClient "github.com/m04kA/SMC-BayService/internal/integrations/bookingservice"
	catalogServiceClient "github.com/m04kA/SMC-BayService/internal/integrations/catalogservice"
	bayQueueService "github.com/m04kA/SMC-BayService/internal/service/bayqueue"
	draftWizardService "github.com/m04kA/SMC-BayService/internal/service/draftwizard"
	slotCalendarService "github.com/m04kA/SMC-BayService/internal/service/slotcalendar"
	cancelBookingUC "github.com/m04kA/SMC-BayService/internal/usecase/cancel_booking"
	completeServiceUC "github.com/m04kA/SMC-BayService/internal/usecase/complete_service"
	finalizeDraftUC "github.com/m04kA/SMC-BayService/internal/usecase/finalize_draft"
	sweepDraftsUC "github.com/m04kA/SMC-BayService/internal/usecase/sweep_drafts"
	"github.com/m04kA/SMC-BayService/pkg/dbmetrics"
	"github.com/m04kA/SMC-BayService/pkg/logger"
	"github.com/m04kA/SMC-BayService/pkg/metrics"
	"github.com/m04kA/SMC-BayService/pkg/simpletxmanager"
	"github.com/m04kA/SMC-BayService/pkg/txmanager"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-BayService...")
	log.Info("Configuration loaded from config.toml")

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	var wrappedDB *dbmetrics.DB
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Инициализируем интеграционных клиентов
	bookingClient := bookingServiceClient.NewClient(
		cfg.BookingService.URL,
		time.Duration(cfg.BookingService.Timeout)*time.Second,
		log,
	)
	catalogClient := catalogServiceClient.NewClient(
		cfg.CatalogService.URL,
		time.Duration(cfg.CatalogService.Timeout)*time.Second,
		log,
	)
	log.Info("Integration clients initialized (BookingService=%s timeout=%ds, CatalogService=%s timeout=%ds)",
		cfg.BookingService.URL, cfg.BookingService.Timeout, cfg.CatalogService.URL, cfg.CatalogService.Timeout)

	// Инициализируем репозитории и transaction manager (с метриками или без)
	var (
		slotRepository  *slotRepo.Repository
		queueRepository *queueRepo.Repository
		draftRepository *draftRepo.Repository
	)

	type TxManager interface {
		Do(ctx context.Context, fn func(ctx context.Context) error) error
		DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
	}
	var txMgr TxManager

	if cfg.Metrics.Enabled {
		wrappedDB = dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)
		log.Info("Database metrics collection started")

		slotRepository = slotRepo.NewRepository(wrappedDB)
		queueRepository = queueRepo.NewRepository(wrappedDB)
		draftRepository = draftRepo.NewRepository(wrappedDB)
		txMgr = txmanager.NewTransactionManager(wrappedDB)
	} else {
		slotRepository = slotRepo.NewRepository(db)
		queueRepository = queueRepo.NewRepository(db)
		draftRepository = draftRepo.NewRepository(db)
		txMgr = simpletxmanager.NewTransactionManager(db)
	}

	// Инициализируем сервисы
	slotCalendarSvc := slotCalendarService.NewService(
		slotRepository,
		catalogClient,
		txMgr,
		log,
	)
	bayQueueSvc := bayQueueService.NewService(
		queueRepository,
		bookingClient,
		txMgr,
		log,
	)
	draftWizardSvc := draftWizardService.NewService(
		draftRepository,
		catalogClient,
		txMgr,
		log,
	)

	// Инициализируем use cases
	finalizeDraftUseCase := finalizeDraftUC.NewUseCase(
		draftWizardSvc,
		slotCalendarSvc,
		bayQueueSvc,
		txMgr,
		log,
	)
	completeServiceUseCase := completeServiceUC.NewUseCase(
		slotCalendarSvc,
		bayQueueSvc,
		txMgr,
		log,
	)
	cancelBookingUseCase := cancelBookingUC.NewUseCase(
		bayQueueSvc,
		slotRepository,
		txMgr,
		cfg.Policy.ReleaseSlotOnCancel,
		log,
	)
	sweepDraftsUseCase := sweepDraftsUC.NewUseCase(draftRepository, log)

	// Инициализируем handlers
	generateCalendar := generateCalendarHandler.NewHandler(slotCalendarSvc, log)
	getBaySchedule := getBayScheduleHandler.NewHandler(slotCalendarSvc, log)
	getAvailableSlots := getAvailableSlotsHandler.NewHandler(slotCalendarSvc, log)
	slotLifecycle := slotLifecycleHandler.NewHandler(slotCalendarSvc, completeServiceUseCase, log)
	bayQueue := bayQueueHandler.NewHandler(bayQueueSvc, log)
	draft := draftHandler.NewHandler(draftWizardSvc, log)
	finalizeDraft := finalizeDraftHandler.NewHandler(finalizeDraftUseCase, log)
	cancelBooking := cancelBookingHandler.NewHandler(cancelBookingUseCase, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector, cfg.Metrics.ServiceName))
		log.Info("HTTP metrics middleware enabled")
	}

	// Metrics endpoint (публичный, без аутентификации)
	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Расписание поста и свободные слоты
	api.HandleFunc("/bays/{bayId}/schedule", getBaySchedule.Handle).Methods(http.MethodGet)
	api.HandleFunc("/bays/{bayId}/available-slots", getAvailableSlots.HandleBay).Methods(http.MethodGet)
	api.HandleFunc("/branches/{branchId}/available-slots", getAvailableSlots.HandleBranch).Methods(http.MethodGet)

	// Очередь поста (чтение)
	api.HandleFunc("/bays/{bayId}/queue", bayQueue.HandleGet).Methods(http.MethodGet)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// --- Календарь слотов ---
	protected.HandleFunc("/calendar/bays/{bayId}/generate", generateCalendar.HandleBay).Methods(http.MethodPost)
	protected.HandleFunc("/calendar/branches/{branchId}/generate", generateCalendar.HandleBranch).Methods(http.MethodPost)

	// --- Жизненный цикл слота ---
	protected.HandleFunc("/bays/{bayId}/slots/book", slotLifecycle.HandleBook).Methods(http.MethodPost)
	protected.HandleFunc("/bays/{bayId}/slots/start", slotLifecycle.HandleStart).Methods(http.MethodPost)
	protected.HandleFunc("/bays/{bayId}/slots/complete", slotLifecycle.HandleComplete).Methods(http.MethodPost)
	protected.HandleFunc("/bays/{bayId}/slots/cancel", slotLifecycle.HandleCancel).Methods(http.MethodPost)
	protected.HandleFunc("/bays/{bayId}/slots/release", slotLifecycle.HandleRelease).Methods(http.MethodPost)

	// --- Очередь поста ---
	protected.HandleFunc("/bays/{bayId}/queue", bayQueue.HandleAdd).Methods(http.MethodPost)
	protected.HandleFunc("/bays/{bayId}/queue/transfer", bayQueue.HandleTransfer).Methods(http.MethodPost)
	protected.HandleFunc("/bays/{bayId}/queue/{bookingId}", bayQueue.HandleRemove).Methods(http.MethodDelete)
	protected.HandleFunc("/bookings/{bookingId}/queue-position", bayQueue.HandlePosition).Methods(http.MethodGet)

	// --- Отмена бронирования ---
	protected.HandleFunc("/bookings/{bookingId}/cancel", cancelBooking.Handle).Methods(http.MethodPatch)

	// --- Мастер черновиков ---
	protected.HandleFunc("/drafts", draft.HandleGetOrCreate).Methods(http.MethodPost)
	protected.HandleFunc("/drafts/{sessionId}", draft.HandleGet).Methods(http.MethodGet)
	protected.HandleFunc("/drafts/{sessionId}", draft.HandleUpdate).Methods(http.MethodPatch)
	protected.HandleFunc("/drafts/{sessionId}/reset", draft.HandleReset).Methods(http.MethodPost)
	protected.HandleFunc("/drafts/{sessionId}/abandon", draft.HandleAbandon).Methods(http.MethodPost)
	protected.HandleFunc("/drafts/{sessionId}/services", draft.HandleAddService).Methods(http.MethodPost)
	protected.HandleFunc("/drafts/{sessionId}/services", draft.HandleClearServices).Methods(http.MethodDelete)
	protected.HandleFunc("/drafts/{sessionId}/services/{serviceId}", draft.HandleRemoveService).Methods(http.MethodDelete)
	protected.HandleFunc("/drafts/{sessionId}/finalize", finalizeDraft.Handle).Methods(http.MethodPost)

	// Запускаем периодическую уборку черновиков
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()

	if cfg.Sweep.Enabled {
		interval := time.Duration(cfg.Sweep.IntervalMinutes) * time.Minute
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			for {
				select {
				case <-ticker.C:
					if _, err := sweepDraftsUseCase.Execute(sweepCtx); err != nil {
						log.Error("Draft sweep failed: %v", err)
					}
				case <-sweepCtx.Done():
					return
				}
			}
		}()
		log.Info("Draft sweep scheduled every %s", interval)
	}

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Останавливаем фоновую уборку и сбор метрик connection pool
	stopSweep()
	if cfg.Metrics.Enabled {
		close(stopMetricsCh)
		log.Info("Metrics collection stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}
