package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/usdchub/usdchub/ledger"
	"github.com/usdchub/usdchub/lib"
	"github.com/usdchub/usdchub/lib/service"
	"github.com/usdchub/usdchub/lib/transport"
	"github.com/usdchub/usdchub/rabbitmq"
	"github.com/usdchub/usdchub/rail"
)

func main() {

	c := &service.Config{}

	// Load configuration from environment variables
	err := godotenv.Load(".env")
	if err != nil {
		fmt.Println("Failed to load .env file")
	}
	err = envconfig.Process("", c)
	if err != nil {
		log.Fatalf("Error loading environment variables: %v", err)
	}

	// Setup logging to STDOUT or a configured log file
	logger := lib.Logger(c.LogFilePath)

	// Setup exception tracking with Sentry if configured
	// sentry init needs to happen before the echo middlewares are added
	if c.SentryDSN != "" {
		if err = sentry.Init(sentry.ClientOptions{
			Dsn:              c.SentryDSN,
			IgnoreErrors:     []string{"401"},
			EnableTracing:    c.SentryTracesSampleRate > 0,
			TracesSampleRate: c.SentryTracesSampleRate,
		}); err != nil {
			logger.Errorf("sentry init error: %v", err)
		}
	}

	// The ledger lives in a single JSON document, by default under the
	// user's home directory.
	ledgerPath := c.LedgerPath
	if ledgerPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			logger.Fatalf("Error resolving home directory: %v", err)
		}
		ledgerPath = filepath.Join(home, ".usdchub", "invoices.json")
	}
	store := ledger.NewStore(ledger.NewFileStorage(ledgerPath))

	startupCtx := context.Background()

	// Init the settlement rail client (EVM or mock, selected by config)
	railCfg, err := rail.LoadConfig()
	if err != nil {
		logger.Fatalf("Error loading rail config: %v", err)
	}
	railClient, err := rail.InitRailClient(railCfg, logger, startupCtx)
	if err != nil {
		logger.Fatalf("Error initializing the %s rail client: %v", railCfg.ClientType, err)
	}
	logger.Infof("Using %s settlement rail on %s", railCfg.ClientType, railCfg.Network)

	// If no RABBITMQ_URI was provided we will not attempt to create a client
	// No rabbitmq features will be available in this case.
	var rabbitmqClient rabbitmq.Client
	if c.RabbitMQUri != "" {
		amqpConn, err := rabbitmq.DialAMQP(c.RabbitMQUri)
		if err != nil {
			logger.Fatal(err)
		}

		rabbitmqClient, err = rabbitmq.NewClient(amqpConn,
			rabbitmq.WithLogger(logger),
			rabbitmq.WithInvoiceExchange(c.RabbitMQExchange),
		)
		if err != nil {
			logger.Fatal(err)
		}

		// close the connection gently at the end of the runtime
		defer rabbitmqClient.Close()
	}

	svc := &service.InvoiceService{
		Config:         c,
		Store:          store,
		RailClient:     railClient,
		Logger:         logger,
		InvoicePubSub:  service.NewPubsub(),
		RabbitMQClient: rabbitmqClient,
	}

	//init echo server
	e := transport.InitEcho(c, logger)

	logMw := transport.CreateLoggingMiddleware(logger)
	// strict rate limit for requests that move funds
	strictRateLimitMiddleware := transport.CreateRateLimitMiddleware(c.StrictRateLimit, c.BurstRateLimit)

	transport.RegisterEndpoints(svc, e, strictRateLimitMiddleware, logMw)

	var backgroundWg sync.WaitGroup
	backGroundCtx, _ := signal.NotifyContext(context.Background(), os.Interrupt)

	//Start webhook subscription
	if svc.Config.WebhookUrl != "" {
		backgroundWg.Add(1)
		go func() {
			svc.StartWebhookSubscription(backGroundCtx, svc.Config.WebhookUrl)
			svc.Logger.Info("Webhook routine done")
			backgroundWg.Done()
		}()
	}
	//Start rabbit publisher
	if svc.RabbitMQClient != nil {
		backgroundWg.Add(1)
		go func() {
			err = svc.RabbitMQClient.StartPublishInvoices(backGroundCtx, svc.SubscribeInvoiceEvents)
			if err != nil {
				svc.Logger.Error(err)
				sentry.CaptureException(err)
			}

			svc.Logger.Info("Rabbit invoice publisher done")
			backgroundWg.Done()
		}()
	}

	// Start server
	go func() {
		if err := e.Start(fmt.Sprintf(":%v", c.Port)); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal("shutting down the server")
		}
	}()

	<-backGroundCtx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Fatal(err)
	}
	//Wait for graceful shutdown of background routines
	backgroundWg.Wait()
	svc.Logger.Info("usdchub exiting gracefully. Goodbye.")
}
