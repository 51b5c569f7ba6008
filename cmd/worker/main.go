package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"taskpulse/internal/cache"
	"taskpulse/internal/refresh"
	"taskpulse/internal/repository"
)

func main() {
	postgresDSN := os.Getenv("POSTGRES_DSN")
	if postgresDSN == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	repo, err := repository.NewPostgresTaskRepository(postgresDSN)
	if err != nil {
		log.Fatal(err)
	}

	defer func() {
		if err := repo.Close(); err != nil {
			log.Printf("failed to close Postgres repository: %v", err)
		}
	}()

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	ttl := 5 * time.Minute
	if raw := os.Getenv("CACHE_TTL_SECONDS"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			log.Fatalf("invalid CACHE_TTL_SECONDS: %q", raw)
		}
		ttl = time.Duration(seconds) * time.Second
	}

	c, err := cache.New(redisAddr, ttl)
	if err != nil {
		log.Fatal(err)
	}

	defer func() {
		if err := c.Close(); err != nil {
			log.Printf("failed to close cache: %v", err)
		}
	}()

	workerID := os.Getenv("WORKER_ID")
	if workerID == "" {
		workerID = fmt.Sprintf("refresh-%d", time.Now().Unix())
	}

	w := refresh.NewWorker(workerID, repo, c)

	if raw := os.Getenv("REFRESH_INTERVAL_SECONDS"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			log.Fatalf("invalid REFRESH_INTERVAL_SECONDS: %q", raw)
		}
		w.SetPollInterval(time.Duration(seconds) * time.Second)
	}

	go w.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down refresh worker...")
	w.Stop()
}
