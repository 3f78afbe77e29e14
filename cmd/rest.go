package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/convodesk/convodesk/config"
	"github.com/convodesk/convodesk/domains/autoreply"
	"github.com/convodesk/convodesk/domains/channel"
	"github.com/convodesk/convodesk/infrastructure/storage"
	"github.com/convodesk/convodesk/infrastructure/valkey"
	"github.com/convodesk/convodesk/pkg/utils"
	"github.com/convodesk/convodesk/provider"
	"github.com/convodesk/convodesk/ui/rest"
	"github.com/convodesk/convodesk/ui/rest/middleware"
	"github.com/convodesk/convodesk/ui/websocket"
	"github.com/convodesk/convodesk/workspace/application"
)

var restCmd = &cobra.Command{
	Use:   "rest",
	Short: "Run the HTTP API and realtime socket server",
	Run:   restServer,
}

func init() {
	rootCmd.AddCommand(restCmd)
}

// newAutoReplyDecider builds the auto-reply decision engine for the
// pipeline. The open-core build ships without one; the hosted suggestion
// service replaces this hook with its own constructor. A nil decider keeps
// the pipeline on persist-and-fanout only.
var newAutoReplyDecider = func(c *config.Config) autoreply.Decider {
	return nil
}

func providerConfig() provider.Config {
	return provider.Config{
		BaseURL:             cfg.Provider.BaseURL,
		Timeout:             cfg.Provider.Timeout,
		StatusNotFoundLimit: cfg.Provider.StatusNotFoundLimit,
	}
}

func restServer(_ *cobra.Command, _ []string) {
	db, err := storage.NewDatabase(cfg)
	if err != nil {
		logrus.Fatalf("[REST] Database initialization failed: %v", err)
	}

	channelStore := storage.NewGormChannelStore(db)
	messageStore := storage.NewGormMessageStore(db)
	presenceStore := storage.NewGormPresenceStore(db)

	var vk *valkey.Client
	if cfg.Database.ValkeyEnabled {
		vk, err = valkey.NewClient(valkey.Config{
			Address:   cfg.Database.ValkeyAddress,
			Password:  cfg.Database.ValkeyPassword,
			DB:        cfg.Database.ValkeyDB,
			KeyPrefix: cfg.Database.ValkeyKeyPrefix,
		})
		if err != nil {
			logrus.Fatalf("[REST] Valkey initialization failed: %v", err)
		}
		defer vk.Close()
	}

	serverID := utils.GetPersistentServerID(cfg.App.ServerID, "storages")
	hub := websocket.NewHub(websocket.Config{
		PingInterval:   cfg.Realtime.PingInterval,
		SweepOffset:    cfg.Realtime.SweepOffset,
		TypingDebounce: cfg.Realtime.TypingDebounce,
		StatsInterval:  cfg.Realtime.StatsInterval,
		ServerID:       serverID,
	}, presenceStore, vk)

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go hub.Run(hubCtx)

	sessions := func(cred channel.Credential) (application.ProviderSession, error) {
		return provider.NewClient(cred, providerConfig())
	}
	senders := func(cred channel.Credential) (application.TextSender, error) {
		return provider.NewClient(cred, providerConfig())
	}
	clients := func(cred channel.Credential) (application.ProviderOps, error) {
		return provider.NewClient(cred, providerConfig())
	}

	webhookBase := strings.TrimRight(cfg.App.BaseURL, "/") + cfg.App.BasePath + "/webhooks/whatsapp"
	setup := application.NewSetupOrchestrator(sessions, webhookBase)
	channelService := application.NewChannelService(channelStore, setup)
	outboundService := application.NewOutboundService(channelStore, clients)
	decider := newAutoReplyDecider(cfg)
	if decider == nil {
		logrus.Info("[REST] No auto-reply decider linked in; inbound messages are persisted and fanned out only")
	}
	pipeline := application.NewMessagePipeline(
		channelStore, messageStore, hub, decider, senders, cfg.AI.ConfidenceThreshold,
	)

	fiberConfig := fiber.Config{
		EnableTrustedProxyCheck: true,
		Network:                 "tcp",
		AppName:                 "Convodesk Gateway",
		ServerHeader:            "Hidden",
	}
	if len(cfg.App.TrustedProxies) > 0 {
		fiberConfig.TrustedProxies = cfg.App.TrustedProxies
		fiberConfig.ProxyHeader = fiber.HeaderXForwardedFor
	}
	app := fiber.New(fiberConfig)

	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.App.CorsAllowedOrigins, ", "),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.Recovery())
	app.Use(helmet.New(helmet.Config{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "SAMEORIGIN",
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        1000,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}))
	if cfg.App.Debug {
		app.Use(logger.New())
	}

	basePath := cfg.App.BasePath
	if basePath == "" {
		basePath = "/"
	}
	root := app.Group(basePath)

	// Provider webhooks authenticate by unguessable channel ID, not basic
	// auth: the provider cannot send credentials.
	rest.InitRestWebhook(root, pipeline)

	apiGroup := root.Group("/")
	if len(cfg.App.BasicAuth) > 0 {
		account := make(map[string]string)
		for _, pair := range cfg.App.BasicAuth {
			ba := strings.Split(pair, ":")
			if len(ba) != 2 {
				logrus.Fatalln("Basic auth is not valid, use the format <user>:<secret>")
			}
			account[ba[0]] = ba[1]
		}
		apiGroup.Use(basicauth.New(basicauth.Config{
			Users: account,
			Next: func(c *fiber.Ctx) bool {
				return c.Method() == fiber.MethodOptions
			},
		}))
	} else if cfg.App.Environment != "development" {
		logrus.Fatalln("APP_BASIC_AUTH is required outside development; set APP_BASIC_AUTH=<user>:<secret> and restart.")
	}

	rest.InitRestChannel(apiGroup, channelService)
	rest.InitRestSend(apiGroup, outboundService)
	rest.InitRestHealth(apiGroup, db, hub, vk)
	websocket.RegisterRoutes(apiGroup, hub)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logrus.Info("[REST] Termination signal received, shutting down gracefully...")
		stopHub()
		if err := app.Shutdown(); err != nil {
			logrus.Errorf("[REST] Error during Fiber shutdown: %v", err)
		}
	}()

	logrus.WithFields(logrus.Fields{
		"port":      cfg.App.Port,
		"server_id": serverID,
	}).Info("[REST] Starting server")
	if err := app.Listen(":" + cfg.App.Port); err != nil {
		logrus.Fatalln("Failed to start server:", err)
	}
}
