package infrastructure

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"dvf/database"
	geodomain "dvf/internal/geo/domain"
	"dvf/internal/shared/infrastructure"
)

// GeoBulkRepository remplace le référentiel géographique d'un bloc, dans
// une transaction unique : l'API ne voit jamais un référentiel partiel.
type GeoBulkRepository struct {
	uow infrastructure.UnitOfWork
}

// NewGeoBulkRepository crée un nouveau repository d'écriture géographique
func NewGeoBulkRepository(db *sql.DB) *GeoBulkRepository {
	return &GeoBulkRepository{uow: infrastructure.NewUnitOfWork(db)}
}

// ReplaceAll vide puis réinsère départements et communes. Les communes
// rattachées à un département absent de la liste sont ignorées.
func (r *GeoBulkRepository) ReplaceAll(departments []geodomain.Department, communes []geodomain.Commune) error {
	return r.uow.Execute(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM communes`); err != nil {
			return fmt.Errorf("purge des communes: %w", err)
		}
		if _, err := tx.Exec(`DELETE FROM departments`); err != nil {
			return fmt.Errorf("purge des départements: %w", err)
		}

		departmentIDs := make(map[string]int64, len(departments))
		insertDepartment := `
			INSERT INTO departments
				(code, name, centroid_lon, centroid_lat, address_count,
				 commune_count, min_lon, min_lat, max_lon, max_lat)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id
		`
		for _, d := range departments {
			var id int64
			err := tx.QueryRow(insertDepartment,
				d.Code, d.Name, d.CentroidLon, d.CentroidLat, d.AddressCount,
				d.CommuneCount, d.MinLon, d.MinLat, d.MaxLon, d.MaxLat,
			).Scan(&id)
			if err != nil {
				return fmt.Errorf("insertion du département %s: %w", d.Code, err)
			}
			departmentIDs[d.Code] = id
		}

		insertCommune := `
			INSERT INTO communes
				(code_commune, department_id, name, centroid_lon, centroid_lat,
				 address_count, postal_codes, min_lon, min_lat, max_lon, max_lat)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`
		for _, c := range communes {
			departmentID, ok := departmentIDs[c.DepartmentCode]
			if !ok {
				continue
			}
			_, err := tx.Exec(insertCommune,
				c.CodeCommune, departmentID, c.Name, c.CentroidLon, c.CentroidLat,
				c.AddressCount, c.PostalCodes, c.MinLon, c.MinLat, c.MaxLon, c.MaxLat,
			)
			if err != nil {
				return fmt.Errorf("insertion de la commune %s: %w", c.CodeCommune, err)
			}
		}
		return nil
	})
}

// RecordBulkRepository insère les mutations foncières nettoyées par lots
// via COPY, le volume (plusieurs millions de lignes par millésime) excluant
// les INSERT unitaires.
type RecordBulkRepository struct {
	db  *sql.DB
	uow infrastructure.UnitOfWork
}

// NewRecordBulkRepository crée un nouveau repository d'écriture de mutations
func NewRecordBulkRepository(db *sql.DB) *RecordBulkRepository {
	return &RecordBulkRepository{db: db, uow: infrastructure.NewUnitOfWork(db)}
}

// Truncate vide la table des mutations.
func (r *RecordBulkRepository) Truncate() error {
	_, err := r.db.Exec(`TRUNCATE dvf_records RESTART IDENTITY`)
	if err != nil {
		return fmt.Errorf("purge des mutations: %w", err)
	}
	return nil
}

// InsertBatch insère un lot de mutations dans une transaction dédiée.
func (r *RecordBulkRepository) InsertBatch(records []database.MutationRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.uow.Execute(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(pq.CopyIn("dvf_records", database.RecordColumns()...))
		if err != nil {
			return fmt.Errorf("préparation du COPY: %w", err)
		}
		for i := range records {
			if _, err := stmt.Exec(records[i].Values()...); err != nil {
				stmt.Close()
				return fmt.Errorf("ajout au COPY: %w", err)
			}
		}
		if _, err := stmt.Exec(); err != nil {
			stmt.Close()
			return fmt.Errorf("envoi du COPY: %w", err)
		}
		return stmt.Close()
	})
}
