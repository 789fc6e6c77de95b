package database

import "database/sql"

// Schéma minimal des trois tables; les importeurs sont les seuls écrivains.
const schema = `
CREATE TABLE IF NOT EXISTS departments (
	id             SERIAL PRIMARY KEY,
	code           VARCHAR(3) NOT NULL UNIQUE,
	name           VARCHAR(150) NOT NULL DEFAULT '',
	centroid_lon   DOUBLE PRECISION,
	centroid_lat   DOUBLE PRECISION,
	address_count  INTEGER NOT NULL DEFAULT 0,
	commune_count  INTEGER NOT NULL DEFAULT 0,
	min_lon        DOUBLE PRECISION,
	min_lat        DOUBLE PRECISION,
	max_lon        DOUBLE PRECISION,
	max_lat        DOUBLE PRECISION,
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS communes (
	id             SERIAL PRIMARY KEY,
	code_commune   VARCHAR(5) NOT NULL UNIQUE,
	department_id  INTEGER NOT NULL REFERENCES departments(id) ON DELETE CASCADE,
	name           VARCHAR(150) NOT NULL,
	centroid_lon   DOUBLE PRECISION,
	centroid_lat   DOUBLE PRECISION,
	address_count  INTEGER NOT NULL DEFAULT 0,
	postal_codes   TEXT NOT NULL DEFAULT '',
	min_lon        DOUBLE PRECISION,
	min_lat        DOUBLE PRECISION,
	max_lon        DOUBLE PRECISION,
	max_lat        DOUBLE PRECISION,
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS dvf_records (
	id                        BIGSERIAL PRIMARY KEY,
	date_mutation             DATE,
	nature_mutation           VARCHAR(100) NOT NULL DEFAULT '',
	valeur_fonciere           NUMERIC(15,2),
	no_voie                   VARCHAR(10) NOT NULL DEFAULT '',
	btq                       VARCHAR(5) NOT NULL DEFAULT '',
	type_de_voie              VARCHAR(100) NOT NULL DEFAULT '',
	code_voie                 VARCHAR(10) NOT NULL DEFAULT '',
	voie                      VARCHAR(200) NOT NULL DEFAULT '',
	code_postal               VARCHAR(10) NOT NULL DEFAULT '',
	commune                   VARCHAR(150) NOT NULL DEFAULT '',
	code_departement          VARCHAR(3) NOT NULL DEFAULT '',
	code_commune              VARCHAR(10) NOT NULL DEFAULT '',
	prefixe_de_section        VARCHAR(10) NOT NULL DEFAULT '',
	section                   VARCHAR(10) NOT NULL DEFAULT '',
	no_plan                   VARCHAR(10) NOT NULL DEFAULT '',
	no_volume                 VARCHAR(10) NOT NULL DEFAULT '',
	nombre_de_lots            INTEGER,
	code_type_local           VARCHAR(10) NOT NULL DEFAULT '',
	type_local                VARCHAR(100) NOT NULL DEFAULT '',
	identifiant_local         VARCHAR(50) NOT NULL DEFAULT '',
	surface_reelle_bati       INTEGER,
	nombre_pieces_principales INTEGER,
	nature_culture            VARCHAR(100) NOT NULL DEFAULT '',
	nature_culture_speciale   VARCHAR(100) NOT NULL DEFAULT '',
	surface_terrain           INTEGER
);

CREATE INDEX IF NOT EXISTS idx_dvf_records_departement ON dvf_records (code_departement);
CREATE INDEX IF NOT EXISTS idx_dvf_records_commune ON dvf_records (code_departement, code_commune);
CREATE INDEX IF NOT EXISTS idx_dvf_records_date ON dvf_records (date_mutation);
CREATE INDEX IF NOT EXISTS idx_dvf_records_type ON dvf_records (type_local);
`

// EnsureSchema crée les tables et index si nécessaire.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
