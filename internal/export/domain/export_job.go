package domain

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"dvf/database"
	shareddomain "dvf/internal/shared/domain"
)

// ExportFormat - format de fichier d'un export de mutations
type ExportFormat string

const (
	FormatCSV     ExportFormat = "csv"
	FormatParquet ExportFormat = "parquet"
)

// ExportJob identifie un export de mutations : identifiant unique, format
// et période couverte. L'identifiant sert de nom de fichier, deux exports
// simultanés ne peuvent pas se téléscoper côté client.
type ExportJob struct {
	ID        uuid.UUID
	Format    ExportFormat
	DateRange shareddomain.DateRange
	CreatedAt time.Time
}

// NewExportJob crée un nouvel export pour la période donnée
func NewExportJob(format ExportFormat, dateRange shareddomain.DateRange) ExportJob {
	return ExportJob{
		ID:        uuid.New(),
		Format:    format,
		DateRange: dateRange,
		CreatedAt: time.Now(),
	}
}

// Filename retourne le nom de fichier de l'export
func (j ExportJob) Filename() string {
	return fmt.Sprintf("mutations-%s.%s", j.ID, j.Format)
}

// MutationExportRow - une mutation aplatie pour l'export, les champs
// optionnels déjà convertis en texte ou en zéro.
type MutationExportRow struct {
	DateMutation    string
	NatureMutation  string
	ValeurFonciere  float64
	CodePostal      string
	Commune         string
	CodeDepartement string
	CodeCommune     string
	TypeLocal       string
	SurfaceBati     int
	NombrePieces    int
	SurfaceTerrain  int
}

// NewMutationExportRow aplatit une mutation pour l'export.
func NewMutationExportRow(r *database.MutationRecord) MutationExportRow {
	row := MutationExportRow{
		NatureMutation:  r.NatureMutation,
		CodePostal:      r.CodePostal,
		Commune:         r.Commune,
		CodeDepartement: r.CodeDepartement,
		CodeCommune:     r.CodeCommune,
		TypeLocal:       r.TypeLocal,
	}
	if r.DateMutation != nil {
		row.DateMutation = r.DateMutation.Format("2006-01-02")
	}
	if r.ValeurFonciere != nil {
		row.ValeurFonciere = *r.ValeurFonciere
	}
	if r.SurfaceReelleBati != nil {
		row.SurfaceBati = *r.SurfaceReelleBati
	}
	if r.NombrePiecesPrincipales != nil {
		row.NombrePieces = *r.NombrePiecesPrincipales
	}
	if r.SurfaceTerrain != nil {
		row.SurfaceTerrain = *r.SurfaceTerrain
	}
	return row
}

// CSVHeaders retourne l'en-tête du CSV d'export.
func CSVHeaders() []string {
	return []string{
		"date_mutation",
		"nature_mutation",
		"valeur_fonciere",
		"code_postal",
		"commune",
		"code_departement",
		"code_commune",
		"type_local",
		"surface_reelle_bati",
		"nombre_pieces_principales",
		"surface_terrain",
	}
}

// ToCSVRow retourne les champs alignés sur CSVHeaders.
func (row MutationExportRow) ToCSVRow() []string {
	return []string{
		row.DateMutation,
		row.NatureMutation,
		strconv.FormatFloat(row.ValeurFonciere, 'f', 2, 64),
		row.CodePostal,
		row.Commune,
		row.CodeDepartement,
		row.CodeCommune,
		row.TypeLocal,
		strconv.Itoa(row.SurfaceBati),
		strconv.Itoa(row.NombrePieces),
		strconv.Itoa(row.SurfaceTerrain),
	}
}

// MutationParquet - schéma Parquet de l'export, aligné sur les colonnes du
// CSV.
type MutationParquet struct {
	DateMutation    string  `parquet:"name=date_mutation, type=BYTE_ARRAY, convertedtype=UTF8"`
	NatureMutation  string  `parquet:"name=nature_mutation, type=BYTE_ARRAY, convertedtype=UTF8"`
	ValeurFonciere  float64 `parquet:"name=valeur_fonciere, type=DOUBLE"`
	CodePostal      string  `parquet:"name=code_postal, type=BYTE_ARRAY, convertedtype=UTF8"`
	Commune         string  `parquet:"name=commune, type=BYTE_ARRAY, convertedtype=UTF8"`
	CodeDepartement string  `parquet:"name=code_departement, type=BYTE_ARRAY, convertedtype=UTF8"`
	CodeCommune     string  `parquet:"name=code_commune, type=BYTE_ARRAY, convertedtype=UTF8"`
	TypeLocal       string  `parquet:"name=type_local, type=BYTE_ARRAY, convertedtype=UTF8"`
	SurfaceBati     int32   `parquet:"name=surface_reelle_bati, type=INT32"`
	NombrePieces    int32   `parquet:"name=nombre_pieces_principales, type=INT32"`
	SurfaceTerrain  int32   `parquet:"name=surface_terrain, type=INT32"`
}

// ToParquet convertit la ligne vers le schéma Parquet.
func (row MutationExportRow) ToParquet() MutationParquet {
	return MutationParquet{
		DateMutation:    row.DateMutation,
		NatureMutation:  row.NatureMutation,
		ValeurFonciere:  row.ValeurFonciere,
		CodePostal:      row.CodePostal,
		Commune:         row.Commune,
		CodeDepartement: row.CodeDepartement,
		CodeCommune:     row.CodeCommune,
		TypeLocal:       row.TypeLocal,
		SurfaceBati:     int32(row.SurfaceBati),
		NombrePieces:    int32(row.NombrePieces),
		SurfaceTerrain:  int32(row.SurfaceTerrain),
	}
}
