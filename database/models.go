package database

import "time"

// MutationRecord - une mutation foncière DVF telle qu'importée depuis le
// fichier nettoyé de la DGFiP. Les champs optionnels sont des pointeurs :
// NULL en base, valeur absente dans le fichier source.
//
// La seule clé géographique fiable est le couple (CodeDepartement,
// CodeCommune) : le code commune stocké est un suffixe qui n'est unique
// qu'au sein de son département.
type MutationRecord struct {
	ID                      int64      `json:"id"`
	DateMutation            *time.Time `json:"date_mutation,omitempty"`
	NatureMutation          string     `json:"nature_mutation,omitempty"`
	ValeurFonciere          *float64   `json:"valeur_fonciere,omitempty"`
	NoVoie                  string     `json:"no_voie,omitempty"`
	BTQ                     string     `json:"btq,omitempty"`
	TypeDeVoie              string     `json:"type_de_voie,omitempty"`
	CodeVoie                string     `json:"code_voie,omitempty"`
	Voie                    string     `json:"voie,omitempty"`
	CodePostal              string     `json:"code_postal,omitempty"`
	Commune                 string     `json:"commune,omitempty"`
	CodeDepartement         string     `json:"code_departement"`
	CodeCommune             string     `json:"code_commune"`
	PrefixeDeSection        string     `json:"prefixe_de_section,omitempty"`
	Section                 string     `json:"section,omitempty"`
	NoPlan                  string     `json:"no_plan,omitempty"`
	NoVolume                string     `json:"no_volume,omitempty"`
	NombreDeLots            *int       `json:"nombre_de_lots,omitempty"`
	CodeTypeLocal           string     `json:"code_type_local,omitempty"`
	TypeLocal               string     `json:"type_local,omitempty"`
	IdentifiantLocal        string     `json:"identifiant_local,omitempty"`
	SurfaceReelleBati       *int       `json:"surface_reelle_bati,omitempty"`
	NombrePiecesPrincipales *int       `json:"nombre_pieces_principales,omitempty"`
	NatureCulture           string     `json:"nature_culture,omitempty"`
	NatureCultureSpeciale   string     `json:"nature_culture_speciale,omitempty"`
	SurfaceTerrain          *int       `json:"surface_terrain,omitempty"`
}

// RecordColumns liste les colonnes de dvf_records dans l'ordre d'insertion,
// hors clé primaire.
func RecordColumns() []string {
	return []string{
		"date_mutation",
		"nature_mutation",
		"valeur_fonciere",
		"no_voie",
		"btq",
		"type_de_voie",
		"code_voie",
		"voie",
		"code_postal",
		"commune",
		"code_departement",
		"code_commune",
		"prefixe_de_section",
		"section",
		"no_plan",
		"no_volume",
		"nombre_de_lots",
		"code_type_local",
		"type_local",
		"identifiant_local",
		"surface_reelle_bati",
		"nombre_pieces_principales",
		"nature_culture",
		"nature_culture_speciale",
		"surface_terrain",
	}
}

// Values retourne les valeurs du record alignées sur RecordColumns.
func (r *MutationRecord) Values() []interface{} {
	return []interface{}{
		nullableTime(r.DateMutation),
		r.NatureMutation,
		nullableFloat(r.ValeurFonciere),
		r.NoVoie,
		r.BTQ,
		r.TypeDeVoie,
		r.CodeVoie,
		r.Voie,
		r.CodePostal,
		r.Commune,
		r.CodeDepartement,
		r.CodeCommune,
		r.PrefixeDeSection,
		r.Section,
		r.NoPlan,
		r.NoVolume,
		nullableInt(r.NombreDeLots),
		r.CodeTypeLocal,
		r.TypeLocal,
		r.IdentifiantLocal,
		nullableInt(r.SurfaceReelleBati),
		nullableInt(r.NombrePiecesPrincipales),
		r.NatureCulture,
		r.NatureCultureSpeciale,
		nullableInt(r.SurfaceTerrain),
	}
}

func nullableTime(v *time.Time) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullableFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullableInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
