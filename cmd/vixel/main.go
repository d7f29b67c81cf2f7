package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/vixel/vixel/internal/auth"
	"github.com/vixel/vixel/internal/geoip"
	"github.com/vixel/vixel/internal/region"
	"github.com/vixel/vixel/internal/server"
	"github.com/vixel/vixel/internal/settings"
	"github.com/vixel/vixel/internal/youtube"
)

func main() {
	port := getEnv("PORT", "8080")
	baseURL := strings.TrimRight(getEnv("BASE_URL", "http://localhost:8080"), "/")
	secureCookies := strings.HasPrefix(baseURL, "https://")

	apiKey := os.Getenv("YOUTUBE_API_KEY")
	if apiKey == "" {
		log.Fatal("YOUTUBE_API_KEY is required")
	}

	sessionSecret := os.Getenv("SESSION_SECRET")
	if sessionSecret == "" {
		log.Fatal("SESSION_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	videos, err := youtube.New(ctx, youtube.Config{
		APIKey:  apiKey,
		Timeout: time.Duration(getEnvInt64("YOUTUBE_TIMEOUT_SECONDS", 10)) * time.Second,
	})
	if err != nil {
		log.Fatalf("youtube client initialization failed: %v", err)
	}

	settingsKey, err := auth.DeriveKey(sessionSecret, "settings")
	if err != nil {
		log.Fatalf("settings key derivation failed: %v", err)
	}

	geo, err := geoip.New(os.Getenv("GEOIP_DB_PATH"))
	if err != nil {
		log.Fatalf("geoip initialization failed: %v", err)
	}
	defer geo.Close()
	if geo.Enabled() {
		log.Println("local geoip lookups enabled")
	}

	detector := region.NewDetector(region.Config{
		GeoIP:         geo,
		Remote:        getEnv("REMOTE_GEO_ENABLED", "true") == "true",
		DefaultRegion: getEnv("DEFAULT_REGION", region.DefaultCode),
	})

	var authHandler *auth.Handler
	if clientID := os.Getenv("GOOGLE_CLIENT_ID"); clientID != "" {
		sessions, err := auth.NewSessions(sessionSecret)
		if err != nil {
			log.Fatalf("session initialization failed: %v", err)
		}
		authHandler = auth.NewHandler(auth.Config{
			ClientID:      clientID,
			ClientSecret:  os.Getenv("GOOGLE_CLIENT_SECRET"),
			BaseURL:       baseURL,
			SecureCookies: secureCookies,
		}, sessions)
		log.Println("Google sign-in enabled")
	}

	srv := server.New(server.Config{
		Videos:         videos,
		Breaker:        videos,
		Regions:        region.NewResolver(detector, region.NewCache(secureCookies)),
		Settings:       settings.NewStore(settingsKey, secureCookies),
		Auth:           authHandler,
		BaseURL:        baseURL,
		FrameAncestors: os.Getenv("FRAME_ANCESTORS"),
		DocsEnabled:    getEnv("API_DOCS_ENABLED", "false") == "true",
		MetricsEnabled: getEnv("METRICS_ENABLED", "false") == "true",
		APIRate:        getEnvFloat("API_RATE_PER_SECOND", 5),
		APIBurst:       int(getEnvInt64("API_BURST", 20)),
	})
	defer srv.Close()

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Printf("vixel listening on :%s", port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown failed: %v", err)
		return
	}
	log.Println("shutdown complete")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
