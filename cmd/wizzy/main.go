package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/zidaneodrekoagnesouop/wizzy-telegram-bot/internal/cache"
	"github.com/zidaneodrekoagnesouop/wizzy-telegram-bot/internal/cart"
	"github.com/zidaneodrekoagnesouop/wizzy-telegram-bot/internal/catalog"
	"github.com/zidaneodrekoagnesouop/wizzy-telegram-bot/internal/checkout"
	"github.com/zidaneodrekoagnesouop/wizzy-telegram-bot/internal/config"
	"github.com/zidaneodrekoagnesouop/wizzy-telegram-bot/internal/httpapi"
	"github.com/zidaneodrekoagnesouop/wizzy-telegram-bot/internal/notify"
	"github.com/zidaneodrekoagnesouop/wizzy-telegram-bot/internal/order"
	"github.com/zidaneodrekoagnesouop/wizzy-telegram-bot/internal/outbox"
	"github.com/zidaneodrekoagnesouop/wizzy-telegram-bot/internal/rates"
	"github.com/zidaneodrekoagnesouop/wizzy-telegram-bot/internal/repository"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// MongoDB
	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	log.Printf("Connected to MongoDB at %s", cfg.MongoURI)

	if err := repository.EnsureIndexes(ctx, mongoDB); err != nil {
		log.Fatalf("Failed to create MongoDB indexes: %v", err)
	}

	cartRepo := repository.NewMongoCartRepository(mongoDB)
	productRepo := repository.NewMongoProductRepository(mongoDB)
	orderRepo := repository.NewMongoOrderRepository(mongoDB)
	outboxRepo := repository.NewMongoOutboxRepository(mongoDB)

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("Redis connection failed:", err)
	}
	log.Printf("Redis ping succeeded")

	// RabbitMQ notification sink; the process can run without it.
	var notifier order.Notifier = notify.NoopNotifier{}
	amqpConn, err := amqp.Dial(cfg.AmqpURL)
	if err != nil {
		log.Printf("RabbitMQ unavailable, notifications disabled: %v", err)
	} else {
		defer amqpConn.Close()
		rabbit, errN := notify.NewRabbitNotifier(amqpConn)
		if errN != nil {
			log.Printf("RabbitMQ channel setup failed, notifications disabled: %v", errN)
		} else {
			defer rabbit.Close()
			notifier = rabbit
			log.Printf("Connected to RabbitMQ at %s", cfg.AmqpURL)
		}
	}

	// Services
	cartCache := cache.NewRedisCache(redisClient)
	catalogSvc := catalog.NewService(productRepo)
	cartSvc := cart.NewService(cartRepo, cartCache, catalogSvc)

	scheduler := order.NewScheduler()
	defer scheduler.Stop()
	orderSvc := order.NewService(orderRepo, outboxRepo, notifier, scheduler)

	sessions := checkout.NewSessionStore()
	defer sessions.Close()

	oracle := rates.NewClient()
	go oracle.Run(ctx, cfg.RatesRefresh)

	checkoutSvc := checkout.NewService(sessions, cartSvc, orderSvc, oracle, cfg.PaymentWindow)

	// Orders that were pending when the process last stopped get their
	// payment windows re-armed before traffic arrives.
	if err := orderSvc.RescheduleExpiries(ctx); err != nil {
		log.Printf("failed to reschedule payment expiries: %v", err)
	}

	// Outbox poller
	poller := outbox.NewPoller(outboxRepo, cfg.KafkaBrokers...)
	defer poller.Close()
	go poller.Run(ctx)

	// HTTP server
	server := httpapi.NewServer(cfg, cartSvc, catalogSvc, checkoutSvc, orderSvc)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: server.Router(),
	}

	go func() {
		log.Printf("HTTP server listening on :%s", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Println("shutting down...")

	cancel()
	if err := httpServer.Shutdown(context.Background()); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}
}
