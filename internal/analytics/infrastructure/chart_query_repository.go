package infrastructure

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"dvf/internal/analytics/domain"
	"dvf/internal/shared/infrastructure"
)

// ChartQueryRepository requêtes d'agrégation sur les mutations foncières.
// Chaque méthode délègue le groupement à PostgreSQL (GROUP BY + agrégats)
// et ne remonte que les lignes agrégées.
type ChartQueryRepository struct {
	infrastructure.BaseRepository
}

// NewChartQueryRepository crée un nouveau repository d'agrégations
func NewChartQueryRepository(db *sql.DB) *ChartQueryRepository {
	return &ChartQueryRepository{
		BaseRepository: infrastructure.NewBaseRepository(db),
	}
}

// CommuneSalesRow - agrégat de ventes d'une commune (code brut, non
// normalisé)
type CommuneSalesRow struct {
	DepartmentCode string
	CommuneCode    string
	SalesCount     int
	TotalValue     float64
}

// TypeCountRow - nombre de ventes pour un type de bien (clé vide pour les
// biens non classés)
type TypeCountRow struct {
	TypeKey    string
	SalesCount int
}

// MutationCountRow - nombre de ventes pour un couple (type de bien, nature
// de mutation)
type MutationCountRow struct {
	TypeKey    string
	Nature     string
	SalesCount int
}

// DepartmentSalesRow - agrégat de ventes d'un département
type DepartmentSalesRow struct {
	DepartmentCode string
	SalesCount     int
}

// appendFilter traduit le RecordFilter en conditions WHERE positionnelles.
func appendFilter(f domain.RecordFilter, conds []string, args []interface{}) ([]string, []interface{}) {
	if f.MatchesNothing {
		return append(conds, "FALSE"), args
	}
	if f.DepartmentCode != "" {
		args = append(args, f.DepartmentCode)
		conds = append(conds, fmt.Sprintf("code_departement = $%d", len(args)))
	}
	if f.HasCommune {
		args = append(args, f.CommuneSuffix)
		conds = append(conds, fmt.Sprintf("code_commune = $%d", len(args)))
	}
	return conds, args
}

// appendTypeFilter restreint aux types retenus; la clé vide couvre les
// libellés NULL ou vides. Retourne ok = false si aucun type n'est retenu.
func appendTypeFilter(typeKeys []string, conds []string, args []interface{}) ([]string, []interface{}, bool) {
	nonEmpty := make([]string, 0, len(typeKeys))
	hasEmpty := false
	for _, key := range typeKeys {
		if key == "" {
			hasEmpty = true
		} else {
			nonEmpty = append(nonEmpty, key)
		}
	}

	var parts []string
	if len(nonEmpty) > 0 {
		args = append(args, pq.Array(nonEmpty))
		parts = append(parts, fmt.Sprintf("type_local = ANY($%d)", len(args)))
	}
	if hasEmpty {
		parts = append(parts, "(type_local IS NULL OR type_local = '')")
	}
	if len(parts) == 0 {
		return conds, args, false
	}
	return append(conds, "("+strings.Join(parts, " OR ")+")"), args, true
}

// CommuneSales agrège les ventes par couple (département, commune), hors
// mutations sans code commune.
func (r *ChartQueryRepository) CommuneSales(filter domain.RecordFilter) ([]CommuneSalesRow, error) {
	conds := []string{"code_commune IS NOT NULL", "code_commune <> ''"}
	var args []interface{}
	conds, args = appendFilter(filter, conds, args)

	query := fmt.Sprintf(`
		SELECT code_departement, code_commune,
		       COUNT(*) AS sales_count,
		       COALESCE(SUM(valeur_fonciere), 0) AS total_value
		FROM dvf_records
		WHERE %s
		GROUP BY code_departement, code_commune
	`, strings.Join(conds, " AND "))

	rows, err := r.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []CommuneSalesRow
	for rows.Next() {
		var row CommuneSalesRow
		if err := rows.Scan(&row.DepartmentCode, &row.CommuneCode, &row.SalesCount, &row.TotalValue); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// DepartmentSales agrège les ventes par département, hors mutations sans
// code commune (même base que la heatmap).
func (r *ChartQueryRepository) DepartmentSales(filter domain.RecordFilter) ([]DepartmentSalesRow, error) {
	conds := []string{"code_commune IS NOT NULL", "code_commune <> ''"}
	var args []interface{}
	conds, args = appendFilter(filter, conds, args)

	query := fmt.Sprintf(`
		SELECT code_departement, COUNT(*) AS sales_count
		FROM dvf_records
		WHERE %s
		GROUP BY code_departement
	`, strings.Join(conds, " AND "))

	rows, err := r.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []DepartmentSalesRow
	for rows.Next() {
		var row DepartmentSalesRow
		if err := rows.Scan(&row.DepartmentCode, &row.SalesCount); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// MonthlyPoints agrège les mutations datées par mois calendaire, ordonnées
// par mois croissant.
func (r *ChartQueryRepository) MonthlyPoints(filter domain.RecordFilter) ([]domain.TimeSeriesPoint, error) {
	conds := []string{"date_mutation IS NOT NULL"}
	var args []interface{}
	conds, args = appendFilter(filter, conds, args)

	query := fmt.Sprintf(`
		SELECT date_trunc('month', date_mutation)::date AS month,
		       COUNT(*) AS sales_count,
		       COALESCE(SUM(valeur_fonciere), 0) AS total_value
		FROM dvf_records
		WHERE %s
		GROUP BY month
		ORDER BY month
	`, strings.Join(conds, " AND "))

	rows, err := r.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []domain.TimeSeriesPoint
	for rows.Next() {
		var month time.Time
		var point domain.TimeSeriesPoint
		if err := rows.Scan(&month, &point.SalesCount, &point.TotalValue); err != nil {
			return nil, err
		}
		point.Month = month.Format("2006-01-02")
		points = append(points, point)
	}
	return points, rows.Err()
}

// TypeCounts compte les ventes par type de bien, libellés NULL et vides
// confondus sous la clé vide. L'ordre (ventes décroissantes puis libellé)
// rend la coupe du top 5 déterministe.
func (r *ChartQueryRepository) TypeCounts(filter domain.RecordFilter) ([]TypeCountRow, error) {
	conds := []string{"TRUE"}
	var args []interface{}
	conds, args = appendFilter(filter, conds, args)

	query := fmt.Sprintf(`
		SELECT COALESCE(type_local, '') AS type_key, COUNT(*) AS sales_count
		FROM dvf_records
		WHERE %s
		GROUP BY type_key
		ORDER BY sales_count DESC, type_key ASC
	`, strings.Join(conds, " AND "))

	rows, err := r.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []TypeCountRow
	for rows.Next() {
		var row TypeCountRow
		if err := rows.Scan(&row.TypeKey, &row.SalesCount); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// PriceSamples extrait les prix au m² par type de bien. Le prix est la
// valeur foncière divisée par la surface bâtie si elle est positive, sinon
// par la surface de terrain; les mutations sans valeur, à valeur nulle ou
// sans surface exploitable sont exclues. Le quotient est arrondi au
// centime en SQL pour coller aux échantillons historiques en numeric(20,2).
func (r *ChartQueryRepository) PriceSamples(filter domain.RecordFilter, typeKeys []string) (map[string][]float64, error) {
	conds := []string{"valeur_fonciere IS NOT NULL", "valeur_fonciere <> 0"}
	var args []interface{}
	conds, args, ok := appendTypeFilter(typeKeys, conds, args)
	if !ok {
		return map[string][]float64{}, nil
	}
	conds, args = appendFilter(filter, conds, args)

	query := fmt.Sprintf(`
		SELECT type_key, price::float8
		FROM (
			SELECT COALESCE(type_local, '') AS type_key,
			       CASE
			           WHEN surface_reelle_bati > 0
			               THEN (valeur_fonciere / surface_reelle_bati)::numeric(20,2)
			           WHEN surface_terrain > 0
			               THEN (valeur_fonciere / surface_terrain)::numeric(20,2)
			       END AS price
			FROM dvf_records
			WHERE %s
		) priced
		WHERE price IS NOT NULL
	`, strings.Join(conds, " AND "))

	rows, err := r.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	samples := make(map[string][]float64, len(typeKeys))
	for rows.Next() {
		var key string
		var price float64
		if err := rows.Scan(&key, &price); err != nil {
			return nil, err
		}
		samples[key] = append(samples[key], price)
	}
	return samples, rows.Err()
}

// MutationCounts croise types de biens retenus et natures de mutation.
// L'ordre SQL fixe l'ordre de première apparition des natures, donc l'ordre
// final des séries à total égal.
func (r *ChartQueryRepository) MutationCounts(filter domain.RecordFilter, typeKeys []string) ([]MutationCountRow, error) {
	conds := []string{"TRUE"}
	var args []interface{}
	conds, args, ok := appendTypeFilter(typeKeys, conds, args)
	if !ok {
		return nil, nil
	}
	conds, args = appendFilter(filter, conds, args)

	query := fmt.Sprintf(`
		SELECT COALESCE(type_local, '') AS type_key,
		       COALESCE(nature_mutation, '') AS nature,
		       COUNT(*) AS sales_count
		FROM dvf_records
		WHERE %s
		GROUP BY type_key, nature
		ORDER BY nature ASC, type_key ASC
	`, strings.Join(conds, " AND "))

	rows, err := r.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []MutationCountRow
	for rows.Next() {
		var row MutationCountRow
		if err := rows.Scan(&row.TypeKey, &row.Nature, &row.SalesCount); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// SelectionMetrics calcule la valeur totale et moyenne des mutations de la
// sélection courante (même base que la heatmap : mutations avec commune).
func (r *ChartQueryRepository) SelectionMetrics(filter domain.RecordFilter) (totalValue, averageValue float64, err error) {
	conds := []string{"code_commune IS NOT NULL", "code_commune <> ''"}
	var args []interface{}
	conds, args = appendFilter(filter, conds, args)

	query := fmt.Sprintf(`
		SELECT COALESCE(SUM(valeur_fonciere), 0) AS total_value,
		       COALESCE(AVG(valeur_fonciere), 0) AS average_value
		FROM dvf_records
		WHERE %s
	`, strings.Join(conds, " AND "))

	err = r.QueryRow(query, args...).Scan(&totalValue, &averageValue)
	return totalValue, averageValue, err
}
