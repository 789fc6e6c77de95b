package main

import (
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/joho/godotenv"

	"dvf/api"
	"dvf/database"
	analyticsapp "dvf/internal/analytics/application"
	analyticsinfra "dvf/internal/analytics/infrastructure"
	exportapp "dvf/internal/export/application"
	exportinfra "dvf/internal/export/infrastructure"
	geoinfra "dvf/internal/geo/infrastructure"
	sharedinfra "dvf/internal/shared/infrastructure"
)

func main() {
	_ = godotenv.Load()

	if err := database.Init(connString()); err != nil {
		log.Fatalf("connexion à la base impossible: %v", err)
	}
	defer database.Close()

	if err := database.EnsureSchema(database.DB); err != nil {
		log.Fatalf("création du schéma impossible: %v", err)
	}

	cache := sharedinfra.NewShardedCache(16)

	geoRepo := geoinfra.NewGeoQueryRepository(database.DB)
	chartRepo := analyticsinfra.NewChartQueryRepository(database.DB)
	exportRepo := exportinfra.NewExportQueryRepository(database.DB)

	chartService := analyticsapp.NewChartService(chartRepo, geoRepo, cache)
	heatmapService := analyticsapp.NewHeatmapService(chartRepo, geoRepo)
	exportService := exportapp.NewExportService(exportRepo)

	handlers := api.NewHandlers(chartService, heatmapService, exportService, geoRepo)
	handlers.Register()

	port := getEnv("PORT", "8080")
	log.Printf("API valeurs foncières à l'écoute sur :%s", port)
	log.Fatal(http.ListenAndServe(":"+port, nil))
}

func connString() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_USER", "dvfuser"),
		getEnv("DB_PASSWORD", "dvfpass"),
		getEnv("DB_NAME", "dvfdb"),
		getEnv("DB_SSLMODE", "disable"),
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
