package application

import (
	"strings"
	"testing"
)

func fullRow() map[string]string {
	return map[string]string{
		"Date mutation":             "15/03/2024",
		"Nature mutation":           "Vente",
		"Valeur fonciere":           "250000.50",
		"No voie":                   "12",
		"B/T/Q":                     "B",
		"Type de voie":              "RUE",
		"Code voie":                 "0450",
		"Voie":                      "DE LA PAIX",
		"Code postal":               "75002",
		"Commune":                   "PARIS 02",
		"Code departement":          "75",
		"Code commune":              "102",
		"Prefixe de section":        "",
		"Section":                   "AB",
		"No plan":                   "45",
		"No Volume":                 "",
		"Nombre de lots":            "1",
		"Code type local":           "2",
		"Type local":                "Appartement",
		"Identifiant local":         "",
		"Surface reelle bati":       "54",
		"Nombre pieces principales": "3",
		"Nature culture":            "",
		"Nature culture speciale":   "",
		"Surface terrain":           "",
	}
}

func TestImportRowsEnTeteAvecBOM(t *testing.T) {
	service := &DVFImportService{}
	header := "\uFEFF" + strings.Join(dvfColumns, ",") + "\n"

	total, err := service.importRows(strings.NewReader(header), DefaultBatchSize)
	if err != nil {
		t.Fatalf("l'en-tête précédé d'un BOM devrait être accepté: %v", err)
	}
	if total != 0 {
		t.Errorf("total = %d, attendu 0 sans ligne de données", total)
	}
}

func TestImportRowsColonnesManquantes(t *testing.T) {
	service := &DVFImportService{}
	header := "Date mutation,Valeur fonciere\n"

	if _, err := service.importRows(strings.NewReader(header), DefaultBatchSize); err == nil {
		t.Error("un en-tête incomplet devrait être rejeté")
	}
}

func TestParseRecordComplet(t *testing.T) {
	record, err := ParseRecord(fullRow())
	if err != nil {
		t.Fatalf("erreur inattendue: %v", err)
	}

	if record.DateMutation == nil || record.DateMutation.Format("2006-01-02") != "2024-03-15" {
		t.Errorf("DateMutation = %v, attendu 2024-03-15", record.DateMutation)
	}
	if record.ValeurFonciere == nil || *record.ValeurFonciere != 250000.50 {
		t.Errorf("ValeurFonciere = %v, attendu 250000.50", record.ValeurFonciere)
	}
	if record.CodeDepartement != "75" || record.CodeCommune != "102" {
		t.Errorf("codes = (%s, %s), attendu (75, 102)", record.CodeDepartement, record.CodeCommune)
	}
	if record.SurfaceReelleBati == nil || *record.SurfaceReelleBati != 54 {
		t.Errorf("SurfaceReelleBati = %v, attendu 54", record.SurfaceReelleBati)
	}
	if record.SurfaceTerrain != nil {
		t.Errorf("SurfaceTerrain = %v, attendu nil pour un champ vide", record.SurfaceTerrain)
	}
}

func TestParseRecordChampsVides(t *testing.T) {
	record, err := ParseRecord(map[string]string{})
	if err != nil {
		t.Fatalf("erreur inattendue: %v", err)
	}
	if record.DateMutation != nil || record.ValeurFonciere != nil || record.NombreDeLots != nil {
		t.Error("les champs optionnels vides devraient rester nil")
	}
	if record.NatureMutation != "" {
		t.Errorf("NatureMutation = %q, attendu une chaîne vide", record.NatureMutation)
	}
}

func TestParseRecordValeursInvalides(t *testing.T) {
	tests := []struct {
		name   string
		column string
		value  string
	}{
		{"date invalide", "Date mutation", "2024-03-15"},
		{"valeur avec virgule", "Valeur fonciere", "250000,50"},
		{"surface non entiere", "Surface reelle bati", "54.5"},
		{"nombre de lots textuel", "Nombre de lots", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := fullRow()
			row[tt.column] = tt.value
			if _, err := ParseRecord(row); err == nil {
				t.Errorf("ParseRecord devrait échouer avec %s = %q", tt.column, tt.value)
			}
		})
	}
}

func TestParseRecordEspacesSupprimes(t *testing.T) {
	row := fullRow()
	row["Commune"] = "  PARIS 02  "
	row["Valeur fonciere"] = " 1000 "

	record, err := ParseRecord(row)
	if err != nil {
		t.Fatalf("erreur inattendue: %v", err)
	}
	if record.Commune != "PARIS 02" {
		t.Errorf("Commune = %q, attendu sans espaces", record.Commune)
	}
	if record.ValeurFonciere == nil || *record.ValeurFonciere != 1000 {
		t.Errorf("ValeurFonciere = %v, attendu 1000", record.ValeurFonciere)
	}
}
