package domain

// ============================================================================
// PAYLOADS (réponses API) - les noms JSON sont le contrat avec le tableau
// de bord et ne doivent pas changer.
// ============================================================================

// SelectionEntity - département ou commune résolu dans la sélection
type SelectionEntity struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// SelectionPayload - niveau de la sélection et entités résolues
type SelectionPayload struct {
	Level      string           `json:"level"`
	Department *SelectionEntity `json:"department"`
	Commune    *SelectionEntity `json:"commune"`
}

// TopCommuneItem - une commune du classement par nombre de ventes
type TopCommuneItem struct {
	Code           string  `json:"code"`
	SalesCount     int     `json:"sales_count"`
	TotalValue     float64 `json:"total_value"`
	Label          string  `json:"label"`
	DepartmentCode *string `json:"department_code"`
	IsSelected     bool    `json:"is_selected"`
	Rank           int     `json:"rank"`
}

// TopCommunes - classement des communes, avec la commune sélectionnée
// toujours présente même hors du top N (la liste peut alors dépasser Limit
// d'un élément, comportement d'affichage voulu).
type TopCommunes struct {
	ScopeLabel string           `json:"scope_label"`
	Items      []TopCommuneItem `json:"items"`
	Limit      int              `json:"limit"`
}

// TimeSeriesPoint - un mois de la série temporelle (premier jour du mois)
type TimeSeriesPoint struct {
	Month      string  `json:"month"`
	SalesCount int     `json:"sales_count"`
	TotalValue float64 `json:"total_value"`
}

// TimeSeries - série mensuelle ordonnée par mois croissant
type TimeSeries struct {
	Points []TimeSeriesPoint `json:"points"`
}

// BoxplotItem - distribution des prix au m² pour un type de bien
type BoxplotItem struct {
	Label string    `json:"label"`
	Stats *BoxStats `json:"stats"`
}

// PriceBoxplot - boîtes à moustaches des prix au m² par type de bien
type PriceBoxplot struct {
	Items []BoxplotItem `json:"items"`
	Unit  string        `json:"unit"`
}

// MutationSeries - une nature de mutation, avec un compteur par type de
// bien aligné sur MutationStack.Labels
type MutationSeries struct {
	Label string `json:"label"`
	Data  []int  `json:"data"`
	Total int    `json:"total"`
}

// MutationStack - ventilation des natures de mutation par type de bien
type MutationStack struct {
	Labels []string         `json:"labels"`
	Series []MutationSeries `json:"series"`
}

// ChartPayload - réponse complète de l'endpoint charts
type ChartPayload struct {
	Selection     SelectionPayload `json:"selection"`
	TopCommunes   TopCommunes      `json:"top_communes"`
	TimeSeries    TimeSeries       `json:"time_series"`
	PriceBoxplot  PriceBoxplot     `json:"price_boxplot"`
	MutationStack MutationStack    `json:"mutation_stack"`
	TypeTotals    map[string]int   `json:"type_totals"`
}

// HeatmapPoint - un centroïde de la carte de chaleur, au niveau commune ou
// département selon la sélection
type HeatmapPoint struct {
	Code           string   `json:"code"`
	Name           string   `json:"name"`
	DepartmentCode string   `json:"department_code,omitempty"`
	CentroidLat    *float64 `json:"centroid_lat"`
	CentroidLon    *float64 `json:"centroid_lon"`
	AddressCount   int      `json:"address_count"`
	CommuneCount   int      `json:"commune_count,omitempty"`
	PostalCodes    []string `json:"postal_codes,omitempty"`
	SalesCount     int      `json:"sales_count"`
}

// DepartmentSummary - bloc département du résumé heatmap
type DepartmentSummary struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	AddressCount int    `json:"address_count"`
	CommuneCount int    `json:"commune_count"`
}

// CommuneSummary - bloc commune du résumé heatmap
type CommuneSummary struct {
	Code           string `json:"code"`
	Name           string `json:"name"`
	DepartmentCode string `json:"department_code,omitempty"`
}

// HeatmapSummary - agrégats globaux de la sélection courante
type HeatmapSummary struct {
	TotalSales   int                `json:"total_sales"`
	EntityCount  int                `json:"entity_count"`
	MaxSales     int                `json:"max_sales"`
	Level        string             `json:"level"`
	TotalValue   float64            `json:"total_value"`
	AverageValue float64            `json:"average_value"`
	Department   *DepartmentSummary `json:"department,omitempty"`
	Commune      *CommuneSummary    `json:"commune,omitempty"`
}

// HeatmapPayload - réponse complète de l'endpoint heatmap
type HeatmapPayload struct {
	Summary HeatmapSummary `json:"summary"`
	Points  []HeatmapPoint `json:"points"`
}
