package application

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/writer"

	"dvf/database"
	analyticsdomain "dvf/internal/analytics/domain"
	"dvf/internal/export/domain"
	"dvf/internal/export/infrastructure"
	shareddomain "dvf/internal/shared/domain"
)

// ExportResult - un export prêt à servir : contenu, nom de fichier et type
// MIME
type ExportResult struct {
	Job         domain.ExportJob
	Content     []byte
	ContentType string
}

// ExportService produit les fichiers d'export des mutations, générés en
// mémoire. Les volumes restent bornés par la période demandée.
type ExportService struct {
	records *infrastructure.ExportQueryRepository
}

// NewExportService crée un nouveau service d'export
func NewExportService(records *infrastructure.ExportQueryRepository) *ExportService {
	return &ExportService{records: records}
}

// ExportCSV exporte les mutations de la sélection en CSV.
func (s *ExportService) ExportCSV(filter analyticsdomain.RecordFilter, dateRange shareddomain.DateRange) (*ExportResult, error) {
	job := domain.NewExportJob(domain.FormatCSV, dateRange)

	records, err := s.records.Records(filter, dateRange)
	if err != nil {
		return nil, fmt.Errorf("lecture des mutations à exporter: %w", err)
	}

	content, err := encodeCSV(records)
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		Job:         job,
		Content:     content,
		ContentType: "text/csv; charset=utf-8",
	}, nil
}

func encodeCSV(records []database.MutationRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(domain.CSVHeaders()); err != nil {
		return nil, fmt.Errorf("écriture de l'en-tête CSV: %w", err)
	}
	for i := range records {
		row := domain.NewMutationExportRow(&records[i])
		if err := w.Write(row.ToCSVRow()); err != nil {
			return nil, fmt.Errorf("écriture d'une ligne CSV: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("finalisation du CSV: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportParquet exporte les mutations de la sélection en Parquet.
func (s *ExportService) ExportParquet(filter analyticsdomain.RecordFilter, dateRange shareddomain.DateRange) (*ExportResult, error) {
	job := domain.NewExportJob(domain.FormatParquet, dateRange)

	records, err := s.records.Records(filter, dateRange)
	if err != nil {
		return nil, fmt.Errorf("lecture des mutations à exporter: %w", err)
	}

	content, err := encodeParquet(records)
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		Job:         job,
		Content:     content,
		ContentType: "application/octet-stream",
	}, nil
}

func encodeParquet(records []database.MutationRecord) ([]byte, error) {
	file := buffer.NewBufferFile()
	pw, err := writer.NewParquetWriter(file, new(domain.MutationParquet), 2)
	if err != nil {
		return nil, fmt.Errorf("initialisation de l'écriture Parquet: %w", err)
	}
	for i := range records {
		row := domain.NewMutationExportRow(&records[i])
		if err := pw.Write(row.ToParquet()); err != nil {
			return nil, fmt.Errorf("écriture d'une ligne Parquet: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("finalisation du Parquet: %w", err)
	}
	return file.Bytes(), nil
}
