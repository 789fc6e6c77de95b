package infrastructure

import (
	"database/sql"
	"fmt"
	"strings"

	"dvf/database"
	analyticsdomain "dvf/internal/analytics/domain"
	shareddomain "dvf/internal/shared/domain"
	"dvf/internal/shared/infrastructure"
)

// ExportQueryRepository lit les mutations à exporter, filtrées par
// périmètre géographique et par période.
type ExportQueryRepository struct {
	infrastructure.BaseRepository
}

// NewExportQueryRepository crée un nouveau repository d'export
func NewExportQueryRepository(db *sql.DB) *ExportQueryRepository {
	return &ExportQueryRepository{
		BaseRepository: infrastructure.NewBaseRepository(db),
	}
}

// Records retourne les mutations datées de la période, plus récentes en
// premier.
func (r *ExportQueryRepository) Records(filter analyticsdomain.RecordFilter, dateRange shareddomain.DateRange) ([]database.MutationRecord, error) {
	conds := []string{"date_mutation IS NOT NULL"}
	var args []interface{}

	if filter.MatchesNothing {
		conds = append(conds, "FALSE")
	} else {
		if filter.DepartmentCode != "" {
			args = append(args, filter.DepartmentCode)
			conds = append(conds, fmt.Sprintf("code_departement = $%d", len(args)))
		}
		if filter.HasCommune {
			args = append(args, filter.CommuneSuffix)
			conds = append(conds, fmt.Sprintf("code_commune = $%d", len(args)))
		}
	}

	args = append(args, dateRange.Start())
	conds = append(conds, fmt.Sprintf("date_mutation >= $%d", len(args)))
	args = append(args, dateRange.End())
	conds = append(conds, fmt.Sprintf("date_mutation <= $%d", len(args)))

	query := fmt.Sprintf(`
		SELECT date_mutation, nature_mutation, valeur_fonciere,
		       code_postal, commune, code_departement, code_commune,
		       type_local, surface_reelle_bati, nombre_pieces_principales,
		       surface_terrain
		FROM dvf_records
		WHERE %s
		ORDER BY date_mutation DESC, id ASC
	`, strings.Join(conds, " AND "))

	rows, err := r.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []database.MutationRecord
	for rows.Next() {
		var record database.MutationRecord
		err := rows.Scan(
			&record.DateMutation, &record.NatureMutation, &record.ValeurFonciere,
			&record.CodePostal, &record.Commune, &record.CodeDepartement,
			&record.CodeCommune, &record.TypeLocal, &record.SurfaceReelleBati,
			&record.NombrePiecesPrincipales, &record.SurfaceTerrain,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
