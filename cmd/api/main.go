package main

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"libraryapi/internal/author"
	"libraryapi/internal/book"
	"libraryapi/internal/config"
	"libraryapi/internal/httpx"
	"libraryapi/internal/identity"
	"libraryapi/internal/keycloak"
	"libraryapi/internal/obs"

	"github.com/jackc/pgx/v5/pgxpool"
)

const maxRequestBytes = 1 << 20

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	dbPool := mustOpenDB(cfg.DatabaseDSN)
	defer dbPool.Close()

	keycloakClient := keycloak.NewClient(keycloak.Config{
		ServerURL:    cfg.KeycloakServerURL,
		Realm:        cfg.KeycloakRealm,
		ClientID:     cfg.KeycloakClientID,
		ClientSecret: cfg.KeycloakClientSecret,
	})
	verifier := identity.NewKeycloakVerifier(keycloakClient)

	authorHandler := author.NewHTTPHandler(author.NewService(author.NewPostgresRepo(dbPool)))
	bookHandler := book.NewHTTPHandler(book.NewService(book.NewPostgresRepo(dbPool)))

	viewBooks := identity.RequireRole("view-books", cfg.Debug)
	createBook := identity.RequireRole("create-book", cfg.Debug)
	createAuthor := identity.RequireRole("create-author", cfg.Debug)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := dbPool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	mux.Handle("GET /metrics", obs.Handler())

	mux.Handle("GET /books", viewBooks(http.HandlerFunc(bookHandler.List)))
	mux.Handle("GET /books/{id}", viewBooks(http.HandlerFunc(bookHandler.Retrieve)))
	mux.Handle("POST /books", createBook(http.HandlerFunc(bookHandler.Create)))
	mux.Handle("PUT /books/{id}", createBook(http.HandlerFunc(bookHandler.Update)))
	mux.Handle("PATCH /books/{id}", createBook(http.HandlerFunc(bookHandler.PartialUpdate)))
	mux.Handle("DELETE /books/{id}", createBook(http.HandlerFunc(bookHandler.Destroy)))

	mux.Handle("GET /authors", viewBooks(http.HandlerFunc(authorHandler.List)))
	mux.Handle("GET /authors/{id}", viewBooks(http.HandlerFunc(authorHandler.Retrieve)))
	mux.Handle("POST /authors", createAuthor(http.HandlerFunc(authorHandler.Create)))
	mux.Handle("PUT /authors/{id}", createAuthor(http.HandlerFunc(authorHandler.Update)))
	mux.Handle("PATCH /authors/{id}", createAuthor(http.HandlerFunc(authorHandler.PartialUpdate)))
	mux.Handle("DELETE /authors/{id}", createAuthor(http.HandlerFunc(authorHandler.Destroy)))

	rateLimiter := httpx.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	var handler http.Handler = mux
	handler = identity.Middleware(verifier)(handler)
	handler = rateLimiter.Middleware(handler)
	handler = httpx.RequestSizeLimitMiddleware(maxRequestBytes)(handler)
	handler = httpx.CORSMiddleware(cfg.CORSAllowedOrigins)(handler)
	handler = httpx.SecurityHeadersMiddleware(handler)
	handler = httpx.TrailingSlashMiddleware(handler)
	handler = obs.Instrument(handler)
	handler = httpx.RecoveryMiddleware(handler)
	handler = httpx.AccessLogMiddleware(handler)
	handler = httpx.RequestIDMiddleware(handler)

	httpServer := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("Starting server on %s", cfg.ServerAddress)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

func mustOpenDB(dsn string) *pgxpool.Pool {
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatalf("cannot create db pool: %v", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		log.Fatalf("cannot ping database (%s): %v", redactDSN(dsn), err)
	}
	log.Println("database connection OK")
	return pool
}

func redactDSN(dsn string) string {
	const marker = "://"
	start := strings.Index(dsn, marker)
	if start < 0 {
		return dsn
	}
	start += len(marker)
	end := strings.Index(dsn[start:], "@")
	if end < 0 {
		return dsn
	}
	return dsn[:start] + "***" + dsn[start+end:]
}
