package application

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"dvf/database"
	"dvf/internal/ingest/infrastructure"
)

// DefaultBatchSize - nombre de mutations accumulées avant insertion
const DefaultBatchSize = 500

// Colonnes attendues du CSV nettoyé, dans l'ordre du fichier source DGFiP.
var dvfColumns = []string{
	"Date mutation",
	"Nature mutation",
	"Valeur fonciere",
	"No voie",
	"B/T/Q",
	"Type de voie",
	"Code voie",
	"Voie",
	"Code postal",
	"Commune",
	"Code departement",
	"Code commune",
	"Prefixe de section",
	"Section",
	"No plan",
	"No Volume",
	"Nombre de lots",
	"Code type local",
	"Type local",
	"Identifiant local",
	"Surface reelle bati",
	"Nombre pieces principales",
	"Nature culture",
	"Nature culture speciale",
	"Surface terrain",
}

// DVFImportOptions paramètre un import de mutations
type DVFImportOptions struct {
	BatchSize int
	Truncate  bool
}

// DVFImportService importe le CSV nettoyé des valeurs foncières dans la
// table des mutations. Le fichier est validé colonne par colonne : une
// valeur inexploitable interrompt l'import plutôt que de charger des
// agrégats faux.
type DVFImportService struct {
	records *infrastructure.RecordBulkRepository
}

// NewDVFImportService crée un nouveau service d'import DVF
func NewDVFImportService(records *infrastructure.RecordBulkRepository) *DVFImportService {
	return &DVFImportService{records: records}
}

// ImportFile charge le CSV et retourne le nombre de mutations insérées.
func (s *DVFImportService) ImportFile(path string, opts DVFImportOptions) (int, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}

	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("ouverture de %s: %w", path, err)
	}
	defer file.Close()

	if opts.Truncate {
		log.Println("Purge des mutations existantes...")
		if err := s.records.Truncate(); err != nil {
			return 0, err
		}
	}

	return s.importRows(file, opts.BatchSize)
}

func (s *DVFImportService) importRows(r io.Reader, batchSize int) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("lecture de l'en-tête: %w", err)
	}
	if len(header) > 0 {
		// BOM UTF-8 laissé par le convertisseur de dumps
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	var missing []string
	for _, column := range dvfColumns {
		if _, ok := index[column]; !ok {
			missing = append(missing, column)
		}
	}
	if len(missing) > 0 {
		return 0, fmt.Errorf("colonnes absentes du CSV: %s", strings.Join(missing, ", "))
	}

	total := 0
	batch := make([]database.MutationRecord, 0, batchSize)
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return total, fmt.Errorf("ligne %d: %w", line+1, err)
		}
		line++

		values := make(map[string]string, len(dvfColumns))
		for _, column := range dvfColumns {
			i := index[column]
			if i < len(row) {
				values[column] = row[i]
			}
		}
		record, err := ParseRecord(values)
		if err != nil {
			return total, fmt.Errorf("ligne %d: %w", line, err)
		}

		batch = append(batch, record)
		if len(batch) >= batchSize {
			if err := s.records.InsertBatch(batch); err != nil {
				return total, err
			}
			total += len(batch)
			batch = batch[:0]
			log.Printf("%d mutations importées...", total)
		}
	}

	if len(batch) > 0 {
		if err := s.records.InsertBatch(batch); err != nil {
			return total, err
		}
		total += len(batch)
	}
	return total, nil
}

// ParseRecord convertit une ligne du CSV (en-tête -> valeur brute) en
// mutation prête à insérer. Les champs vides deviennent NULL pour les
// colonnes nullables, chaîne vide sinon.
func ParseRecord(values map[string]string) (database.MutationRecord, error) {
	var record database.MutationRecord

	date, err := parseDate(values["Date mutation"])
	if err != nil {
		return record, err
	}
	valeur, err := parseFloat("Valeur fonciere", values["Valeur fonciere"])
	if err != nil {
		return record, err
	}
	lots, err := parseInt("Nombre de lots", values["Nombre de lots"])
	if err != nil {
		return record, err
	}
	surfaceBati, err := parseInt("Surface reelle bati", values["Surface reelle bati"])
	if err != nil {
		return record, err
	}
	pieces, err := parseInt("Nombre pieces principales", values["Nombre pieces principales"])
	if err != nil {
		return record, err
	}
	surfaceTerrain, err := parseInt("Surface terrain", values["Surface terrain"])
	if err != nil {
		return record, err
	}

	record.DateMutation = date
	record.NatureMutation = strings.TrimSpace(values["Nature mutation"])
	record.ValeurFonciere = valeur
	record.NoVoie = strings.TrimSpace(values["No voie"])
	record.BTQ = strings.TrimSpace(values["B/T/Q"])
	record.TypeDeVoie = strings.TrimSpace(values["Type de voie"])
	record.CodeVoie = strings.TrimSpace(values["Code voie"])
	record.Voie = strings.TrimSpace(values["Voie"])
	record.CodePostal = strings.TrimSpace(values["Code postal"])
	record.Commune = strings.TrimSpace(values["Commune"])
	record.CodeDepartement = strings.TrimSpace(values["Code departement"])
	record.CodeCommune = strings.TrimSpace(values["Code commune"])
	record.PrefixeDeSection = strings.TrimSpace(values["Prefixe de section"])
	record.Section = strings.TrimSpace(values["Section"])
	record.NoPlan = strings.TrimSpace(values["No plan"])
	record.NoVolume = strings.TrimSpace(values["No Volume"])
	record.NombreDeLots = lots
	record.CodeTypeLocal = strings.TrimSpace(values["Code type local"])
	record.TypeLocal = strings.TrimSpace(values["Type local"])
	record.IdentifiantLocal = strings.TrimSpace(values["Identifiant local"])
	record.SurfaceReelleBati = surfaceBati
	record.NombrePiecesPrincipales = pieces
	record.NatureCulture = strings.TrimSpace(values["Nature culture"])
	record.NatureCultureSpeciale = strings.TrimSpace(values["Nature culture speciale"])
	record.SurfaceTerrain = surfaceTerrain

	return record, nil
}

func parseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	date, err := time.Parse("02/01/2006", raw)
	if err != nil {
		return nil, fmt.Errorf("date invalide %q", raw)
	}
	return &date, nil
}

func parseFloat(column, raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%s: valeur décimale invalide %q", column, raw)
	}
	return &value, nil
}

func parseInt(column, raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: valeur entière invalide %q", column, raw)
	}
	return &value, nil
}
