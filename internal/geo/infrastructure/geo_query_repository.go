package infrastructure

import (
	"database/sql"

	"github.com/lib/pq"

	"dvf/internal/geo/domain"
	"dvf/internal/shared/infrastructure"
)

// GeoQueryRepository accès en lecture aux référentiels géographiques
// (départements et communes issus de la Base Adresse Nationale).
type GeoQueryRepository struct {
	infrastructure.BaseRepository
}

// NewGeoQueryRepository crée un nouveau repository géographique
func NewGeoQueryRepository(db *sql.DB) *GeoQueryRepository {
	return &GeoQueryRepository{
		BaseRepository: infrastructure.NewBaseRepository(db),
	}
}

const communeColumns = `
	c.code_commune, d.code, c.name,
	c.centroid_lon, c.centroid_lat,
	c.address_count, c.postal_codes,
	c.min_lon, c.min_lat, c.max_lon, c.max_lat
`

func scanCommune(scanner interface{ Scan(...interface{}) error }) (*domain.Commune, error) {
	var c domain.Commune
	err := scanner.Scan(
		&c.CodeCommune, &c.DepartmentCode, &c.Name,
		&c.CentroidLon, &c.CentroidLat,
		&c.AddressCount, &c.PostalCodes,
		&c.MinLon, &c.MinLat, &c.MaxLon, &c.MaxLat,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CommuneByCode recherche une commune par son code INSEE complet.
// Retourne (nil, nil) si le code est inconnu.
func (r *GeoQueryRepository) CommuneByCode(code string) (*domain.Commune, error) {
	query := `
		SELECT ` + communeColumns + `
		FROM communes c
		JOIN departments d ON d.id = c.department_id
		WHERE c.code_commune = $1
	`
	commune, err := scanCommune(r.QueryRow(query, code))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return commune, nil
}

// CommunesByCodes charge plusieurs communes en une requête, indexées par
// code INSEE. Les codes inconnus sont simplement absents du résultat.
func (r *GeoQueryRepository) CommunesByCodes(codes []string) (map[string]*domain.Commune, error) {
	result := make(map[string]*domain.Commune, len(codes))
	if len(codes) == 0 {
		return result, nil
	}

	query := `
		SELECT ` + communeColumns + `
		FROM communes c
		JOIN departments d ON d.id = c.department_id
		WHERE c.code_commune = ANY($1)
	`
	rows, err := r.Query(query, pq.Array(codes))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		commune, err := scanCommune(rows)
		if err != nil {
			return nil, err
		}
		result[commune.CodeCommune] = commune
	}
	return result, rows.Err()
}

// DepartmentByCode recherche un département par son code.
// Retourne (nil, nil) si le code est inconnu.
func (r *GeoQueryRepository) DepartmentByCode(code string) (*domain.Department, error) {
	query := `
		SELECT id, code, name, centroid_lon, centroid_lat,
		       address_count, commune_count,
		       min_lon, min_lat, max_lon, max_lat
		FROM departments
		WHERE code = $1
	`
	var d domain.Department
	err := r.QueryRow(query, code).Scan(
		&d.ID, &d.Code, &d.Name,
		&d.CentroidLon, &d.CentroidLat,
		&d.AddressCount, &d.CommuneCount,
		&d.MinLon, &d.MinLat, &d.MaxLon, &d.MaxLat,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// CommuneOptions liste les communes d'un département pour les sélecteurs,
// triées par nom.
func (r *GeoQueryRepository) CommuneOptions(departmentCode string) ([]domain.CommuneOption, error) {
	query := `
		SELECT c.code_commune, c.name
		FROM communes c
		JOIN departments d ON d.id = c.department_id
		WHERE d.code = $1
		ORDER BY c.name ASC
	`
	rows, err := r.Query(query, departmentCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	options := make([]domain.CommuneOption, 0)
	for rows.Next() {
		var opt domain.CommuneOption
		if err := rows.Scan(&opt.CodeCommune, &opt.Name); err != nil {
			return nil, err
		}
		options = append(options, opt)
	}
	return options, rows.Err()
}

// Departments liste tous les départements triés par code, avec libellé de
// repli pour ceux sans nom connu.
func (r *GeoQueryRepository) Departments() ([]domain.DepartmentOption, error) {
	query := `
		SELECT code, name, centroid_lon, centroid_lat,
		       address_count, commune_count,
		       min_lon, min_lat, max_lon, max_lat
		FROM departments
		ORDER BY code ASC
	`
	rows, err := r.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	options := make([]domain.DepartmentOption, 0)
	for rows.Next() {
		var d domain.Department
		err := rows.Scan(
			&d.Code, &d.Name,
			&d.CentroidLon, &d.CentroidLat,
			&d.AddressCount, &d.CommuneCount,
			&d.MinLon, &d.MinLat, &d.MaxLon, &d.MaxLat,
		)
		if err != nil {
			return nil, err
		}
		options = append(options, domain.DepartmentOption{Code: d.Code, Name: d.DisplayName()})
	}
	return options, rows.Err()
}
