package domain

import (
	"math"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// MaxTopCommunes plafond du classement des communes
	MaxTopCommunes = 20
	// DefaultTopCommunes taille par défaut du classement
	DefaultTopCommunes = 10
	// MaxTypeCategories nombre de types de biens retenus dans les graphiques
	MaxTypeCategories = 5
	// PriceUnit unité des prix au mètre carré
	PriceUnit = "EUR/m2"
)

// RecordFilter restreint le jeu de mutations interrogé. Le filtre est passé
// explicitement à chaque requête : aucun état ambiant de query builder.
// CommuneSuffix est le suffixe tel que stocké dans les mutations (zéros de
// tête retirés), pas le code INSEE complet.
type RecordFilter struct {
	DepartmentCode string
	CommuneSuffix  string
	HasCommune     bool
	MatchesNothing bool
}

// CleanTypeLabel normalise un libellé de type de bien pour l'affichage :
// libellé vide -> "Autre", sinon passage en casse de titre.
func CleanTypeLabel(value string) string {
	label := strings.TrimSpace(value)
	if label == "" {
		return "Autre"
	}
	return cases.Title(language.French).String(label)
}

// Percentile calcule un percentile par interpolation linéaire entre
// statistiques d'ordre (méthode R-7, celle d'Excel) sur des valeurs déjà
// triées. Le ratio est borné à [0, 1].
func Percentile(sorted []float64, ratio float64) float64 {
	if len(sorted) == 0 {
		return 0.0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	clamped := math.Min(math.Max(ratio, 0.0), 1.0)
	position := float64(len(sorted)-1) * clamped
	lowerIndex := int(math.Floor(position))
	upperIndex := int(math.Ceil(position))
	lower := sorted[lowerIndex]
	upper := sorted[upperIndex]
	if lowerIndex == upperIndex {
		return lower
	}
	weight := position - float64(lowerIndex)
	return lower + (upper-lower)*weight
}

// BoxStats statistiques de boîte à moustaches d'une distribution de prix.
type BoxStats struct {
	Min         float64   `json:"min"`
	Q1          float64   `json:"q1"`
	Median      float64   `json:"median"`
	Q3          float64   `json:"q3"`
	Max         float64   `json:"max"`
	WhiskerLow  float64   `json:"whiskerLow"`
	WhiskerHigh float64   `json:"whiskerHigh"`
	Outliers    []float64 `json:"outliers"`
	RawMin      float64   `json:"rawMin"`
	RawMax      float64   `json:"rawMax"`
	Count       int       `json:"count"`
}

// ComputeBoxStats calcule les quartiles (R-7), les moustaches à 1,5×IQR et
// les valeurs aberrantes d'un échantillon. Retourne nil si l'échantillon est
// vide.
//
// Deux écarts volontaires à la règle de Tukey, exigés par les consommateurs
// existants : si l'IQR est nul les candidats moustaches sont les extrêmes
// bruts, et le min/max affiché ne rentre jamais à l'intérieur de [Q1, Q3].
func ComputeBoxStats(values []float64) *BoxStats {
	if len(values) == 0 {
		return nil
	}

	ordered := make([]float64, len(values))
	copy(ordered, values)
	sort.Float64s(ordered)

	q1 := Percentile(ordered, 0.25)
	median := Percentile(ordered, 0.5)
	q3 := Percentile(ordered, 0.75)
	iqr := math.Max(q3-q1, 0.0)

	lowerCandidate := ordered[0]
	upperCandidate := ordered[len(ordered)-1]
	if iqr != 0 {
		lowerCandidate = q1 - 1.5*iqr
		upperCandidate = q3 + 1.5*iqr
	}

	displayMin := math.Max(ordered[0], lowerCandidate)
	displayMax := math.Min(ordered[len(ordered)-1], upperCandidate)
	if displayMin > q1 {
		displayMin = ordered[0]
	}
	if displayMax < q3 {
		displayMax = ordered[len(ordered)-1]
	}

	outliers := make([]float64, 0)
	for _, v := range ordered {
		if v < displayMin || v > displayMax {
			outliers = append(outliers, v)
		}
	}

	return &BoxStats{
		Min:         displayMin,
		Q1:          q1,
		Median:      median,
		Q3:          q3,
		Max:         displayMax,
		WhiskerLow:  displayMin,
		WhiskerHigh: displayMax,
		Outliers:    outliers,
		RawMin:      ordered[0],
		RawMax:      ordered[len(ordered)-1],
		Count:       len(ordered),
	}
}
