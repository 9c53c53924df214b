package main

import (
	"context"
	"log"
	"os"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"vendra/internal/adapter/api"
	"vendra/internal/adapter/api/handler"
	apimiddleware "vendra/internal/adapter/api/middleware"
	"vendra/internal/adapter/api/router"
	"vendra/internal/adapter/repository"
	"vendra/internal/infrastructure/firebase"
	"vendra/internal/infrastructure/notify"
	"vendra/internal/infrastructure/presence"
	"vendra/internal/infrastructure/storage"
	"vendra/internal/infrastructure/websocket"
	"vendra/internal/usecase"
	"vendra/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var opt option.ClientOption

	// Service account from environment variable (for production), file
	// path fallback for local development.
	serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON")
	serviceAccountPath := ""
	if serviceAccountJSON != "" {
		log.Printf("Using Firebase service account from environment variable")
		opt = option.WithCredentialsJSON([]byte(serviceAccountJSON))
	} else {
		serviceAccountPath = os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH")
		if serviceAccountPath == "" {
			serviceAccountPath = "./service-account.json"
		}

		if _, err := os.Stat(serviceAccountPath); os.IsNotExist(err) {
			log.Fatalf("Service account file does not exist: %s", serviceAccountPath)
		}

		log.Printf("Using Firebase service account from file: %s", serviceAccountPath)
		opt = option.WithCredentialsFile(serviceAccountPath)
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opt)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opt)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	var attachmentStore *storage.AttachmentStore
	if cfg.StorageBucket != "" {
		attachmentStore, err = storage.NewAttachmentStore(ctx, cfg.StorageBucket, serviceAccountPath)
		if err != nil {
			log.Fatalf("Failed to initialize Cloud Storage: %v", err)
		}
		defer attachmentStore.Close()
	}

	// Presence lives in Redis when an address is configured so every
	// instance behind the load balancer sees the same connection state.
	var presenceStore presence.Store
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		presenceStore = presence.NewRedisStore(redisClient)
		log.Printf("Using Redis presence store at %s", cfg.RedisAddr)
	} else {
		presenceStore = presence.NewMemoryStore()
		log.Printf("Using in-memory presence store")
	}

	envelopeRepo := repository.NewFirestoreEnvelopeRepository(firestoreClient)
	conversationRepo := repository.NewFirestoreConversationRepository(firestoreClient)
	engagementRepo := repository.NewFirestoreEngagementRepository(firestoreClient)
	earningRepo := repository.NewFirestoreEarningRepository(firestoreClient)
	directory := repository.NewFirestoreDirectory(firestoreClient)

	wsManager := websocket.NewManager(presenceStore, cfg.PresenceGrace, cfg.PresenceTTL)
	notifier := notify.NewLogNotifier()

	ledgerUseCase := usecase.NewLedgerUseCase(earningRepo, wsManager, notifier, cfg.FeeRate, cfg.HoldPeriod)
	engagementUseCase := usecase.NewEngagementUseCase(engagementRepo, directory, ledgerUseCase, wsManager, notifier)
	envelopeUseCase := usecase.NewEnvelopeUseCase(envelopeRepo, conversationRepo, engagementRepo, directory, directory, engagementUseCase, wsManager, notifier)

	wsManager.SetSyncFunc(envelopeUseCase.UnreadSummary)

	firebaseAuthClient := firebase.NewFirebaseAuthClient(authClient)
	authMiddleware := apimiddleware.NewAuthMiddleware(authClient)

	envelopeHandler := handler.NewEnvelopeHandler(envelopeUseCase, attachmentStore)
	engagementHandler := handler.NewEngagementHandler(engagementUseCase)
	ledgerHandler := handler.NewLedgerHandler(ledgerUseCase)
	paymentHandler := handler.NewPaymentHandler(engagementUseCase, cfg.PaymentWebhookKey)
	wsHandler := handler.NewWebSocketHandler(wsManager, authMiddleware)
	healthHandler := handler.NewHealthHandler(firebaseAuthClient)

	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.Validator = api.NewValidator()

	router.Setup(e, authMiddleware, envelopeHandler, engagementHandler, ledgerHandler, paymentHandler, wsHandler, healthHandler)

	log.Printf("Starting server on port %s", cfg.ServerPort)
	if err := e.Start(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
