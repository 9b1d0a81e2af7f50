package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"sentdebot/cache"
	"sentdebot/clients/discord"
	"sentdebot/config"
	"sentdebot/db"
	"sentdebot/handlers"
	"sentdebot/middleware"
	"sentdebot/services/auditlog"
	"sentdebot/services/channels"
	"sentdebot/services/helpthreads"
	"sentdebot/services/messages"
	"sentdebot/services/retention"
	"sentdebot/services/txmanager"
	"sentdebot/services/users"
	"sentdebot/services/weathersettings"
	"sentdebot/usecases/auditing"
	"sentdebot/usecases/backfill"
	"sentdebot/usecases/collection"
	"sentdebot/usecases/events"
	"sentdebot/usecases/lifecycle"
)

func main() {
	if err := run(); err != nil {
		log.Printf("❌ Fatal error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	// Cancelled on shutdown so background work (maintenance ticker, backfill
	// runs) stops cooperatively.
	runCtx, cancelBackground := context.WithCancel(context.Background())
	defer cancelBackground()

	// Initialize error alert middleware
	alertMiddleware := middleware.NewErrorAlertMiddleware(middleware.AlertConfig{
		WebhookURL:  cfg.AlertWebhookURL,
		Environment: cfg.Environment,
		AppName:     "sentdebot",
		LogsURL:     cfg.ServerLogsURL,
	})

	// Initialize database connection
	dbConn, err := db.NewConnection(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	// Initialize repositories with shared connection
	messagesRepo := db.NewPostgresMessagesRepository(dbConn, cfg.DatabaseSchema)
	usersRepo := db.NewPostgresUsersRepository(dbConn, cfg.DatabaseSchema)
	auditLogsRepo := db.NewPostgresAuditLogsRepository(dbConn, cfg.DatabaseSchema)
	channelsRepo := db.NewPostgresChannelsRepository(dbConn, cfg.DatabaseSchema)
	helpThreadsRepo := db.NewPostgresHelpThreadsRepository(dbConn, cfg.DatabaseSchema)
	weatherSettingsRepo := db.NewPostgresWeatherSettingsRepository(dbConn, cfg.DatabaseSchema)

	// Initialize transaction manager
	txManager := txmanager.NewTransactionManager(dbConn)

	// The users repository doubles as the consent store for the layers that
	// redact content at write time.
	messagesService := messages.NewMessagesService(messagesRepo, usersRepo)
	auditLogService := auditlog.NewAuditLogService(auditLogsRepo, usersRepo)
	usersService := users.NewUsersService(usersRepo)
	channelsService := channels.NewChannelsService(channelsRepo)
	helpThreadsService := helpthreads.NewHelpThreadsService(helpThreadsRepo)
	weatherSettingsService := weathersettings.NewWeatherSettingsService(weatherSettingsRepo)
	retentionService := retention.NewRetentionService(retention.Config{
		MessageDays:  cfg.RetentionConfig.MessageDays,
		AuditLogDays: cfg.RetentionConfig.AuditLogDays,
		MemberDays:   cfg.RetentionConfig.MemberDays,
	}, messagesService, auditLogService, usersService)

	messageCache, err := cache.NewMessageCache(cfg.MessageCacheSize)
	if err != nil {
		return err
	}

	// Initialize Discord gateway
	session, err := discordgo.New("Bot " + cfg.DiscordConfig.BotToken)
	if err != nil {
		return err
	}
	gateway := discord.NewGatewayClient(session)

	botUser, err := gateway.GetBotUser(runCtx)
	if err != nil {
		return err
	}
	log.Printf("✅ Authenticated as bot user: %s", botUser.ID)

	// Assemble the event pipeline: consumers fan out behind the dispatcher,
	// the resolver supplies before-state for edits and deletes.
	auditingConsumer := auditing.NewConsumer(auditLogService, usersService)
	collectionConsumer := collection.NewConsumer(
		messagesService,
		usersService,
		channelsService,
		helpThreadsService,
		cfg.DiscordConfig.HelpForumID,
	)
	dispatcher := events.NewDispatcher(collectionConsumer, auditingConsumer)
	resolver := events.NewResolver(messageCache, messagesService)
	eventsUseCase := events.NewEventsUseCase(
		gateway,
		dispatcher,
		resolver,
		messageCache,
		botUser.ID,
		cfg.DiscordConfig.CommandPrefix,
	)

	backfillUseCase := backfill.NewBackfillUseCase(
		gateway,
		messagesService,
		usersService,
		channelsService,
		txManager,
		backfill.Config{
			HistoryDays:    cfg.BackfillConfig.HistoryDays,
			PageSize:       cfg.BackfillConfig.PageSize,
			MemberPageSize: cfg.BackfillConfig.MemberPageSize,
			PageDelay:      cfg.BackfillConfig.PageDelay,
			Cooldown:       cfg.BackfillConfig.Cooldown,
			MaxRetries:     cfg.BackfillConfig.MaxRetries,
		},
	)
	lifecycleUseCase := lifecycle.NewLifecycleUseCase(gateway, helpThreadsService, channelsService, lifecycle.Config{
		InactivityDays: cfg.LifecycleConfig.InactivityDays,
		SweepDelay:     cfg.LifecycleConfig.SweepDelay,
	})

	discordHandler := handlers.NewDiscordEventsHandler(session, eventsUseCase, alertMiddleware)
	discordHandler.Register()

	if err := session.Open(); err != nil {
		return err
	}
	defer session.Close()
	log.Printf("✅ Discord gateway connection open")

	// Create a new router
	router := mux.NewRouter()

	apiHandler := handlers.NewAPIHandler(
		runCtx,
		messagesService,
		auditLogService,
		usersService,
		weatherSettingsService,
		lifecycleUseCase,
		backfillUseCase,
		cfg.DiscordConfig.GuildID,
	)
	apiHandler.SetupEndpoints(router)

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
			log.Printf("❌ Failed to write health check response: %v", err)
		}
	}).Methods("GET")

	// Start the daily retention pass and help thread sweep
	maintenanceTicker := time.NewTicker(24 * time.Hour)
	go func() {
		for {
			select {
			case <-runCtx.Done():
				return
			case <-maintenanceTicker.C:
				_ = alertMiddleware.WrapBackgroundTask("RetentionCleanup", func() error {
					return retentionService.RunCleanup(runCtx)
				})()
				_ = alertMiddleware.WrapBackgroundTask("HelpThreadSweep", func() error {
					return lifecycleUseCase.Sweep(runCtx, cfg.DiscordConfig.GuildID)
				})()
			}
		}
	}()
	defer maintenanceTicker.Stop()

	// Setup CORS middleware
	allowedOrigins := strings.Split(cfg.CORSAllowedOrigins, ",")
	for i, origin := range allowedOrigins {
		allowedOrigins[i] = strings.TrimSpace(origin)
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	// Setup and handle graceful shutdown
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           alertMiddleware.HTTPMiddleware(c.Handler(router)),
		ReadHeaderTimeout: 30 * time.Second,
	}

	return handleGracefulShutdown(server, cancelBackground)
}

func handleGracefulShutdown(server *http.Server, cancelBackground context.CancelFunc) error {
	// Channel to listen for interrupt signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Start server in a goroutine
	go func() {
		log.Printf("✅ Listening on http://localhost%s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("❌ Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	<-stop
	log.Printf("🛑 Shutdown signal received, cleaning up...")

	// Stop background work before refusing new requests
	cancelBackground()

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Shutdown server gracefully
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("❌ Server shutdown error: %v", err)
		return err
	}

	log.Printf("✅ Server stopped gracefully")
	return nil
}
