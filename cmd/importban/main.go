package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"dvf/database"
	ingestapp "dvf/internal/ingest/application"
	ingestinfra "dvf/internal/ingest/infrastructure"
)

// stringList permet de répéter un flag (-department 75 -department 13).
type stringList []string

func (l *stringList) String() string {
	return strings.Join(*l, ",")
}

func (l *stringList) Set(value string) error {
	*l = append(*l, value)
	return nil
}

// Reconstruit le référentiel géographique (centroïdes, emprises, codes
// postaux) depuis les fichiers d'adresses de la BAN.
func main() {
	var departments stringList
	flag.Var(&departments, "department", "restreindre l'import à ce code département (répétable)")
	baseURL := flag.String("base-url", ingestapp.DefaultBANBaseURL, "URL de base des fichiers CSV de la BAN")
	workers := flag.Int("workers", 4, "nombre de téléchargements simultanés")
	flag.Parse()

	_ = godotenv.Load()
	if err := database.Init(connString()); err != nil {
		log.Fatalf("connexion à la base impossible: %v", err)
	}
	defer database.Close()
	if err := database.EnsureSchema(database.DB); err != nil {
		log.Fatalf("création du schéma impossible: %v", err)
	}

	service := ingestapp.NewBANImportService(ingestinfra.NewGeoBulkRepository(database.DB))
	err := service.Run(ingestapp.BANImportOptions{
		Departments: departments,
		BaseURL:     *baseURL,
		Workers:     *workers,
	})
	if err != nil {
		log.Fatalf("import BAN interrompu: %v", err)
	}
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
