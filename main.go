package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"

	"tripbite/auth"
	"tripbite/config"
	"tripbite/db"
	"tripbite/middleware"
	"tripbite/mq"
	"tripbite/places"
	"tripbite/plans"
	"tripbite/ratelim"
	"tripbite/rdx"
	"tripbite/routes"
	"tripbite/yelp"
)

// securityHeaders applies a set of recommended HTTP security headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "frame-ancestors 'none'")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs each request method, path, status and duration.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("%s %s from %s %d %v", r.Method, r.RequestURI, r.RemoteAddr, rec.status, time.Since(start))
	})
}

// Index is a simple health check handler.
func Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	fmt.Fprint(w, "200")
}

func setupRouter(authHandler *auth.Handler, planHandler *plans.Handler, authn *middleware.Authenticator, rateLimit float64) *httprouter.Router {
	router := httprouter.New()
	router.GET("/health", Index)

	// separate buckets so logins and plan searches do not starve each other
	routes.AddAuthRoutes(router, authHandler, ratelim.NewRateLimiter(rateLimit))
	routes.AddPlanRoutes(router, planHandler, authn, ratelim.NewRateLimiter(rateLimit))

	return router
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	ctx := context.Background()

	database, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("MongoDB: %v", err)
	}
	if err := database.CreateIndexes(ctx); err != nil {
		log.Fatalf("MongoDB indexes: %v", err)
	}

	conn, err := rdx.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("Redis: %v", err)
	}

	geo, err := places.NewClient(ctx, cfg.GoogleAPIKey)
	if err != nil {
		log.Fatalf("Places: %v", err)
	}

	planService := plans.NewService(
		plans.NewMongoStore(database.PlansCollection),
		yelp.NewClient(cfg.YelpAPIKey, cfg.YelpBaseURL),
		geo,
		mq.NewEmitter(conn),
		cfg.SearchProfile,
	)
	authService := auth.NewService(
		auth.NewMongoUserStore(database.UserCollection),
		rdx.NewTokenStore(conn),
		auth.Options{
			Secret:     cfg.JWTSecret,
			AccessTTL:  cfg.AccessTokenTTL,
			RefreshTTL: cfg.RefreshTokenTTL,
			BcryptCost: cfg.BcryptCost,
		},
	)

	router := setupRouter(
		auth.NewHandler(authService),
		plans.NewHandler(planService, cfg.PublicURL),
		middleware.NewAuthenticator(cfg.JWTSecret),
		cfg.RateLimit,
	)

	// request order: logging, security headers, CORS, router
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.PublicURL},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(router)

	handler := loggingMiddleware(securityHeaders(corsHandler))

	server := &http.Server{
		Addr:              cfg.Port,
		Handler:           handler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	server.RegisterOnShutdown(func() {
		log.Println("Closing MongoDB and Redis connections...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := database.Close(shutdownCtx); err != nil {
			log.Printf("MongoDB disconnect: %v", err)
		}
		if err := conn.Close(); err != nil {
			log.Printf("Redis close: %v", err)
		}
	})

	go func() {
		log.Printf("Server listening on %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe error: %v", err)
		}
	}()

	// wait for interrupt or SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutdown signal received; shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Graceful shutdown failed: %v", err)
	}

	log.Println("Server stopped cleanly")
}
