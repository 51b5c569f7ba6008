package main

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"taskpulse/internal/alert"
	"taskpulse/internal/api"
	"taskpulse/internal/cache"
	"taskpulse/internal/middleware"
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

	engine, err := alert.NewEngine(alert.DefaultConfig())
	if err != nil {
		log.Fatal(err)
	}

	apiHandler := api.NewAPI(repo, c, engine)

	mux := http.NewServeMux()
	mux.Handle("/api/", middleware.MetricsMiddleware(apiHandler))
	mux.Handle("/metrics", promhttp.Handler())

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on :%s", port)
	log.Printf("Connected to Redis at %s", redisAddr)

	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.Fatal(err)
	}
}
