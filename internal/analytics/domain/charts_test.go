package domain

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCleanTypeLabel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"vide", "", "Autre"},
		{"minuscules", "maison", "Maison"},
		{"majuscules", "APPARTEMENT", "Appartement"},
		{"plusieurs mots", "local industriel", "Local Industriel"},
		{"deja propre", "Maison", "Maison"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanTypeLabel(tt.input); got != tt.expected {
				t.Errorf("CleanTypeLabel(%q) = %q, attendu %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestPercentile(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	tests := []struct {
		name     string
		ratio    float64
		expected float64
	}{
		{"premier quartile", 0.25, 3.25},
		{"mediane", 0.5, 5.5},
		{"troisieme quartile", 0.75, 7.75},
		{"minimum", 0, 1},
		{"maximum", 1, 10},
		{"ratio negatif borne au minimum", -0.5, 1},
		{"ratio superieur a un borne au maximum", 1.5, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Percentile(values, tt.ratio); !almostEqual(got, tt.expected) {
				t.Errorf("Percentile(%v) = %v, attendu %v", tt.ratio, got, tt.expected)
			}
		})
	}
}

func TestPercentileCasLimites(t *testing.T) {
	if got := Percentile(nil, 0.5); got != 0 {
		t.Errorf("Percentile(nil) = %v, attendu 0", got)
	}
	if got := Percentile([]float64{42}, 0.75); got != 42 {
		t.Errorf("Percentile(singleton) = %v, attendu 42", got)
	}
}

func TestComputeBoxStatsVide(t *testing.T) {
	if stats := ComputeBoxStats(nil); stats != nil {
		t.Errorf("ComputeBoxStats(nil) = %+v, attendu nil", stats)
	}
	if stats := ComputeBoxStats([]float64{}); stats != nil {
		t.Errorf("ComputeBoxStats(vide) = %+v, attendu nil", stats)
	}
}

func TestComputeBoxStatsSansValeursAberrantes(t *testing.T) {
	stats := ComputeBoxStats([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	if stats == nil {
		t.Fatal("stats attendues, nil obtenu")
	}
	if !almostEqual(stats.Q1, 3.25) || !almostEqual(stats.Median, 5.5) || !almostEqual(stats.Q3, 7.75) {
		t.Errorf("quartiles = (%v, %v, %v), attendu (3.25, 5.5, 7.75)", stats.Q1, stats.Median, stats.Q3)
	}
	if !almostEqual(stats.Min, 1) || !almostEqual(stats.Max, 10) {
		t.Errorf("bornes = (%v, %v), attendu (1, 10)", stats.Min, stats.Max)
	}
	if stats.WhiskerLow != stats.Min || stats.WhiskerHigh != stats.Max {
		t.Errorf("moustaches (%v, %v) differentes des bornes (%v, %v)",
			stats.WhiskerLow, stats.WhiskerHigh, stats.Min, stats.Max)
	}
	if len(stats.Outliers) != 0 {
		t.Errorf("aucune valeur aberrante attendue, obtenu %v", stats.Outliers)
	}
	if stats.Count != 10 {
		t.Errorf("Count = %d, attendu 10", stats.Count)
	}
}

func TestComputeBoxStatsAvecValeurAberrante(t *testing.T) {
	stats := ComputeBoxStats([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 100})
	if stats == nil {
		t.Fatal("stats attendues, nil obtenu")
	}
	// IQR = 4.5, la borne haute tombe donc a 7.75 + 1.5*4.5 = 14.5.
	if !almostEqual(stats.Max, 14.5) {
		t.Errorf("Max = %v, attendu 14.5", stats.Max)
	}
	if !almostEqual(stats.RawMax, 100) {
		t.Errorf("RawMax = %v, attendu 100", stats.RawMax)
	}
	if len(stats.Outliers) != 1 || !almostEqual(stats.Outliers[0], 100) {
		t.Errorf("Outliers = %v, attendu [100]", stats.Outliers)
	}
}

func TestComputeBoxStatsEcartInterquartileNul(t *testing.T) {
	stats := ComputeBoxStats([]float64{5, 5, 5, 5})
	if stats == nil {
		t.Fatal("stats attendues, nil obtenu")
	}
	if !almostEqual(stats.Min, 5) || !almostEqual(stats.Max, 5) {
		t.Errorf("bornes = (%v, %v), attendu (5, 5)", stats.Min, stats.Max)
	}
	if len(stats.Outliers) != 0 {
		t.Errorf("aucune valeur aberrante attendue, obtenu %v", stats.Outliers)
	}
}

func TestComputeBoxStatsEchantillonUnique(t *testing.T) {
	stats := ComputeBoxStats([]float64{42})
	if stats == nil {
		t.Fatal("stats attendues, nil obtenu")
	}
	if !almostEqual(stats.Min, 42) || !almostEqual(stats.Median, 42) || !almostEqual(stats.Max, 42) {
		t.Errorf("stats = (%v, %v, %v), attendu (42, 42, 42)", stats.Min, stats.Median, stats.Max)
	}
	if stats.Count != 1 {
		t.Errorf("Count = %d, attendu 1", stats.Count)
	}
}

func TestComputeBoxStatsNeModifiePasLEntree(t *testing.T) {
	values := []float64{3, 1, 2}
	ComputeBoxStats(values)
	if values[0] != 3 || values[1] != 1 || values[2] != 2 {
		t.Errorf("l'entree a ete triee en place: %v", values)
	}
}
