package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"dvf/database"
	ingestapp "dvf/internal/ingest/application"
	ingestinfra "dvf/internal/ingest/infrastructure"
)

// Importe le CSV nettoyé des valeurs foncières dans la table des mutations.
func main() {
	batchSize := flag.Int("batch-size", ingestapp.DefaultBatchSize, "nombre de lignes par lot d'insertion")
	truncate := flag.Bool("truncate", false, "vider la table des mutations avant l'import")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [options] <clean_dvf.csv>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	path := flag.Arg(0)

	_ = godotenv.Load()
	if err := database.Init(connString()); err != nil {
		log.Fatalf("connexion à la base impossible: %v", err)
	}
	defer database.Close()
	if err := database.EnsureSchema(database.DB); err != nil {
		log.Fatalf("création du schéma impossible: %v", err)
	}

	service := ingestapp.NewDVFImportService(ingestinfra.NewRecordBulkRepository(database.DB))
	total, err := service.ImportFile(path, ingestapp.DVFImportOptions{
		BatchSize: *batchSize,
		Truncate:  *truncate,
	})
	if err != nil {
		log.Fatalf("import interrompu après %d mutations: %v", total, err)
	}
	log.Printf("Import terminé, %d mutations créées.", total)
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
