package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	queueadapter "hopaba-chat/internal/infrastructure/queue/adapter"
	"hopaba-chat/internal/pkg/chat/application/task"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	endpoint := os.Getenv("PUSH_ENDPOINT")
	if endpoint == "" {
		log.Fatal("PUSH_ENDPOINT environment variable is not set")
	}

	srv, err := queueadapter.NewAsynqServer()
	if err != nil {
		log.Fatalf("failed to create queue server: %v", err)
	}

	task.RegisterShowNotificationTask(srv, endpoint, &http.Client{Timeout: 10 * time.Second})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Println("worker started")
	if err := srv.Run(ctx); err != nil {
		log.Fatalf("worker stopped: %v", err)
	}
}
