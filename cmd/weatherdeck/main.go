package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/kelvins/geocoder"
	"go.uber.org/zap"

	httpapi "github.com/weatherdeck/weatherdeck/internal/api/http"
	"github.com/weatherdeck/weatherdeck/internal/config"
	"github.com/weatherdeck/weatherdeck/internal/forecast"
	"github.com/weatherdeck/weatherdeck/internal/locate"
	"github.com/weatherdeck/weatherdeck/internal/prefs"
	"github.com/weatherdeck/weatherdeck/internal/refresh"
	"github.com/weatherdeck/weatherdeck/internal/resolve"
	"github.com/weatherdeck/weatherdeck/internal/weather/openweather"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	zlog, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zlog.Sync()

	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal("failed to load config", zap.Error(err))
	}

	// Shared HTTP client for outbound calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	store, err := prefs.Open(cfg.PrefsPath, zlog)
	if err != nil {
		zlog.Fatal("failed to open preference store", zap.Error(err))
	}

	client := openweather.New(httpClient, cfg.OpenWeatherAPIKey, cfg.ProviderBaseURL)
	forecasts := forecast.NewService(client, zlog)

	resolver := resolve.New(resolve.Config{
		GeolocationDeadline: cfg.GeolocationDeadline,
		FallbackGrace:       cfg.FallbackGrace,
		StaleFallbackDelay:  cfg.StaleFallbackDelay,
	}, client, buildLocator(cfg, httpClient, zlog), store, zlog)
	resolver.Start()
	defer resolver.Close()

	sched := refresh.New(resolver, cfg.RefreshInterval, zlog)
	if err := sched.Start(); err != nil {
		zlog.Fatal("failed to start refresh scheduler", zap.Error(err))
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "weatherdeck",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weatherdeck",
		})
	})

	httpapi.RegisterRoutes(app, resolver, forecasts, store)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			zlog.Error("fiber server stopped", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		zlog.Error("error during shutdown", zap.Error(err))
	}
}

// buildLocator selects the device location capability: the IP geolocation
// endpoint when configured, else a geocoded fixed address, else none.
func buildLocator(cfg *config.AppConfig, httpClient *http.Client, zlog *zap.Logger) locate.Locator {
	if cfg.IPLocatorEndpoint != "" {
		return locate.NewIPLocator(httpClient, cfg.IPLocatorEndpoint)
	}
	if cfg.GeocoderAPIKey != "" && cfg.LocatorCity != "" {
		return locate.NewAddressLocator(cfg.GeocoderAPIKey, geocoder.Address{
			City:    cfg.LocatorCity,
			State:   cfg.LocatorState,
			Country: cfg.LocatorCountry,
		})
	}
	zlog.Info("no device locator configured; location resolution relies on search and the remembered location")
	return nil
}
