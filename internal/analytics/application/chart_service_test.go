package application

import (
	"testing"

	analyticsinfra "dvf/internal/analytics/infrastructure"
	geodomain "dvf/internal/geo/domain"
)

func TestClampTopLimit(t *testing.T) {
	tests := []struct {
		input    int
		expected int
	}{
		{0, 3},
		{-5, 3},
		{3, 3},
		{10, 10},
		{20, 20},
		{50, 20},
	}

	for _, tt := range tests {
		if got := clampTopLimit(tt.input); got != tt.expected {
			t.Errorf("clampTopLimit(%d) = %d, attendu %d", tt.input, got, tt.expected)
		}
	}
}

func TestAssembleTypeMetrics(t *testing.T) {
	rows := []analyticsinfra.TypeCountRow{
		{TypeKey: "Maison", SalesCount: 40},
		{TypeKey: "Appartement", SalesCount: 30},
		{TypeKey: "Dépendance", SalesCount: 20},
		{TypeKey: "Local industriel", SalesCount: 10},
		{TypeKey: "", SalesCount: 5},
		{TypeKey: "Terrain", SalesCount: 2},
	}

	topKeys, totals := assembleTypeMetrics(rows)

	expected := []string{"Maison", "Appartement", "Dépendance", "Local industriel", ""}
	if len(topKeys) != len(expected) {
		t.Fatalf("topKeys = %v, attendu %v", topKeys, expected)
	}
	for i, key := range expected {
		if topKeys[i] != key {
			t.Errorf("topKeys[%d] = %q, attendu %q", i, topKeys[i], key)
		}
	}
	if len(totals) != 6 {
		t.Errorf("totals contient %d types, attendu 6", len(totals))
	}
	if totals["Terrain"] != 2 {
		t.Errorf("totals[Terrain] = %d, attendu 2", totals["Terrain"])
	}
}

func TestAssembleTypeTotalsNeGardeQueLesTypesDominants(t *testing.T) {
	totals := map[string]int{"maison": 40, "": 5, "terrain": 2}
	result := assembleTypeTotals(totals, []string{"maison", ""})

	if len(result) != 2 {
		t.Fatalf("result = %v, attendu 2 entrées", result)
	}
	if result["Maison"] != 40 {
		t.Errorf("result[Maison] = %d, attendu 40", result["Maison"])
	}
	if result["Autre"] != 5 {
		t.Errorf("result[Autre] = %d, attendu 5", result["Autre"])
	}
}

func topCommuneFixture() ([]analyticsinfra.CommuneSalesRow, map[string]*geodomain.Commune) {
	rows := []analyticsinfra.CommuneSalesRow{
		{DepartmentCode: "75", CommuneCode: "56", SalesCount: 10, TotalValue: 5000000},
		{DepartmentCode: "75", CommuneCode: "1", SalesCount: 7, TotalValue: 3000000},
		{DepartmentCode: "75", CommuneCode: "2", SalesCount: 3, TotalValue: 900000},
	}
	lookup := map[string]*geodomain.Commune{
		"75056": {CodeCommune: "75056", DepartmentCode: "75", Name: "Paris"},
		"75001": {CodeCommune: "75001", DepartmentCode: "75", Name: "Paris 1er"},
	}
	return rows, lookup
}

func TestAssembleTopCommunesCoupeAuRangDemande(t *testing.T) {
	rows, lookup := topCommuneFixture()

	items := assembleTopCommunes(rows, lookup, "", 2)
	if len(items) != 2 {
		t.Fatalf("items = %d éléments, attendu 2", len(items))
	}
	if items[0].Code != "75056" || items[1].Code != "75001" {
		t.Errorf("codes = (%s, %s), attendu (75056, 75001)", items[0].Code, items[1].Code)
	}
	if items[0].Rank != 1 || items[1].Rank != 2 {
		t.Errorf("rangs = (%d, %d), attendu (1, 2)", items[0].Rank, items[1].Rank)
	}
	if items[0].Label != "Paris" {
		t.Errorf("label = %q, attendu Paris", items[0].Label)
	}
	if items[0].DepartmentCode == nil || *items[0].DepartmentCode != "75" {
		t.Errorf("department_code = %v, attendu 75", items[0].DepartmentCode)
	}
}

func TestAssembleTopCommunesReinjecteLaCommuneSelectionnee(t *testing.T) {
	rows, lookup := topCommuneFixture()

	items := assembleTopCommunes(rows, lookup, "75002", 2)
	if len(items) != 3 {
		t.Fatalf("items = %d éléments, attendu 3 (top 2 + sélection)", len(items))
	}
	last := items[2]
	if last.Code != "75002" || !last.IsSelected || last.Rank != 3 {
		t.Errorf("sélection = %+v, attendu 75002 sélectionnée au rang 3", last)
	}
}

func TestAssembleTopCommunesSelectionDejaDansLeTop(t *testing.T) {
	rows, lookup := topCommuneFixture()

	items := assembleTopCommunes(rows, lookup, "75056", 2)
	if len(items) != 2 {
		t.Fatalf("items = %d éléments, attendu 2 sans doublon", len(items))
	}
	if !items[0].IsSelected {
		t.Error("la première commune devrait être marquée sélectionnée")
	}
}

func TestAssembleTopCommunesLibelleDeRepli(t *testing.T) {
	rows, lookup := topCommuneFixture()

	items := assembleTopCommunes(rows, lookup, "", 3)
	inconnue := items[2]
	if inconnue.Code != "75002" {
		t.Fatalf("code = %s, attendu 75002", inconnue.Code)
	}
	if inconnue.Label != "75002" {
		t.Errorf("label = %q, attendu le code brut en repli", inconnue.Label)
	}
	if inconnue.DepartmentCode != nil {
		t.Errorf("department_code = %v, attendu nil hors référentiel", inconnue.DepartmentCode)
	}
}

func TestAssembleTopCommunesIgnoreLesCodesNonNormalisables(t *testing.T) {
	rows := []analyticsinfra.CommuneSalesRow{
		{DepartmentCode: "", CommuneCode: "56", SalesCount: 10},
		{DepartmentCode: "75", CommuneCode: "", SalesCount: 8},
		{DepartmentCode: "75", CommuneCode: "1", SalesCount: 5},
	}

	items := assembleTopCommunes(rows, nil, "", 10)
	if len(items) != 1 || items[0].Code != "75001" {
		t.Errorf("items = %+v, attendu la seule ligne normalisable", items)
	}
}

func TestAssembleMutationStack(t *testing.T) {
	typeKeys := []string{"Maison", "Appartement", ""}
	rows := []analyticsinfra.MutationCountRow{
		{TypeKey: "Appartement", Nature: "Vente", SalesCount: 12},
		{TypeKey: "Maison", Nature: "Vente", SalesCount: 20},
		{TypeKey: "Maison", Nature: "Adjudication", SalesCount: 2},
		{TypeKey: "", Nature: "  ", SalesCount: 4},
		{TypeKey: "Terrain", Nature: "Vente", SalesCount: 99},
	}

	stack := assembleMutationStack(rows, typeKeys)

	expectedLabels := []string{"Maison", "Appartement", "Autre"}
	for i, label := range expectedLabels {
		if stack.Labels[i] != label {
			t.Errorf("Labels[%d] = %q, attendu %q", i, stack.Labels[i], label)
		}
	}

	if len(stack.Series) != 3 {
		t.Fatalf("Series = %d éléments, attendu 3", len(stack.Series))
	}
	vente := stack.Series[0]
	if vente.Label != "Vente" || vente.Total != 32 {
		t.Errorf("première série = %+v, attendu Vente avec un total de 32", vente)
	}
	if vente.Data[0] != 20 || vente.Data[1] != 12 || vente.Data[2] != 0 {
		t.Errorf("Data = %v, attendu [20 12 0]", vente.Data)
	}
	autre := stack.Series[1]
	if autre.Label != "Autre" || autre.Total != 4 || autre.Data[2] != 4 {
		t.Errorf("deuxième série = %+v, attendu Autre avec 4 ventes sans type", autre)
	}
}

func TestAssembleMutationStackOrdreStableAEgalite(t *testing.T) {
	typeKeys := []string{"Maison"}
	rows := []analyticsinfra.MutationCountRow{
		{TypeKey: "Maison", Nature: "Adjudication", SalesCount: 5},
		{TypeKey: "Maison", Nature: "Vente", SalesCount: 5},
	}

	stack := assembleMutationStack(rows, typeKeys)
	if stack.Series[0].Label != "Adjudication" || stack.Series[1].Label != "Vente" {
		t.Errorf("ordre = (%s, %s), attendu l'ordre de première apparition",
			stack.Series[0].Label, stack.Series[1].Label)
	}
}

func TestAssembleMutationStackSansTypes(t *testing.T) {
	stack := assembleMutationStack(nil, nil)
	if len(stack.Labels) != 0 || len(stack.Series) != 0 {
		t.Errorf("stack = %+v, attendu labels et séries vides", stack)
	}
}

func TestAssembleSelectionPayload(t *testing.T) {
	name := "Paris"
	sel := &Selection{
		Level:          "commune",
		DepartmentCode: "75",
		Department:     &geodomain.Department{Code: "75", Name: "Paris"},
		Commune:        &geodomain.Commune{CodeCommune: "75056", Name: name},
	}

	payload := assembleSelectionPayload(sel)
	if payload.Level != "commune" {
		t.Errorf("Level = %q, attendu commune", payload.Level)
	}
	if payload.Department == nil || payload.Department.Name != "Paris" {
		t.Errorf("Department = %+v, attendu Paris", payload.Department)
	}
	if payload.Commune == nil || payload.Commune.Code != "75056" {
		t.Errorf("Commune = %+v, attendu 75056", payload.Commune)
	}
}

func TestAssembleSelectionPayloadDepartementHorsReferentiel(t *testing.T) {
	sel := &Selection{Level: "department", DepartmentCode: "99"}

	payload := assembleSelectionPayload(sel)
	if payload.Department == nil || payload.Department.Name != "Departement 99" {
		t.Errorf("Department = %+v, attendu le libellé de repli", payload.Department)
	}
	if payload.Commune != nil {
		t.Errorf("Commune = %+v, attendu nil", payload.Commune)
	}
}
