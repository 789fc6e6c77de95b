package application

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/exp/slices"

	"dvf/internal/analytics/domain"
	analyticsinfra "dvf/internal/analytics/infrastructure"
	geodomain "dvf/internal/geo/domain"
	geoinfra "dvf/internal/geo/infrastructure"
	sharedinfra "dvf/internal/shared/infrastructure"
)

const chartCacheTTL = 5 * time.Minute

// ChartService assemble le payload complet du tableau de bord : sélection
// résolue, top communes, série mensuelle, boîtes à moustaches des prix et
// ventilation des natures de mutation. Les quatre agrégations lourdes
// tournent en parallèle une fois les types de biens dominants connus.
type ChartService struct {
	charts *analyticsinfra.ChartQueryRepository
	geo    *geoinfra.GeoQueryRepository
	cache  sharedinfra.Cache
}

// NewChartService crée un nouveau service de graphiques
func NewChartService(charts *analyticsinfra.ChartQueryRepository, geo *geoinfra.GeoQueryRepository, cache sharedinfra.Cache) *ChartService {
	return &ChartService{
		charts: charts,
		geo:    geo,
		cache:  cache,
	}
}

// Selection décrit le périmètre résolu à partir des paramètres bruts de la
// requête : niveau, entités géographiques retrouvées et filtre à appliquer
// aux mutations.
type Selection struct {
	Level          string
	Department     *geodomain.Department
	DepartmentCode string
	Commune        *geodomain.Commune
	Filter         domain.RecordFilter

	// TopScopeDepartmentCode délimite le classement des communes, qui
	// reste au niveau du département même quand une commune est
	// sélectionnée.
	TopScopeDepartmentCode string
	SelectedCommuneCode    string
}

// resolveSelection interprète les codes reçus. Un code commune prime sur le
// code département : il est découpé en (département, suffixe) pour filtrer
// les mutations, et la commune du référentiel est retrouvée quand elle
// existe. Les codes inconnus du référentiel restent exploitables, le filtre
// s'appuyant uniquement sur le découpage.
func (s *ChartService) resolveSelection(departmentCode, communeCode string) (*Selection, error) {
	departmentCode = strings.ToUpper(strings.TrimSpace(departmentCode))
	communeCode = strings.ToUpper(strings.TrimSpace(communeCode))

	sel := &Selection{
		Level:               "national",
		DepartmentCode:      departmentCode,
		SelectedCommuneCode: communeCode,
	}

	if communeCode != "" {
		commune, err := s.geo.CommuneByCode(communeCode)
		if err != nil {
			return nil, fmt.Errorf("recherche commune %s: %w", communeCode, err)
		}
		sel.Commune = commune

		deptPart, communePart := geodomain.SplitCommuneCode(communeCode)
		if deptPart != "" {
			sel.TopScopeDepartmentCode = deptPart
			sel.Filter.DepartmentCode = deptPart
		}
		if communePart != "" {
			sel.Filter.HasCommune = true
			sel.Filter.CommuneSuffix = communePart
		} else {
			sel.Filter.MatchesNothing = true
		}

		if commune != nil {
			sel.Department, err = s.geo.DepartmentByCode(commune.DepartmentCode)
			if err != nil {
				return nil, fmt.Errorf("recherche département %s: %w", commune.DepartmentCode, err)
			}
		} else if deptPart != "" {
			sel.Department, err = s.geo.DepartmentByCode(deptPart)
			if err != nil {
				return nil, fmt.Errorf("recherche département %s: %w", deptPart, err)
			}
		}

		sel.Level = "commune"
		switch {
		case sel.Department != nil:
			sel.DepartmentCode = sel.Department.Code
		case deptPart != "":
			sel.DepartmentCode = deptPart
		}
		if commune != nil {
			sel.SelectedCommuneCode = commune.CodeCommune
		}
		return sel, nil
	}

	if departmentCode != "" {
		sel.Filter.DepartmentCode = departmentCode
		sel.TopScopeDepartmentCode = departmentCode
		sel.Level = "department"
		department, err := s.geo.DepartmentByCode(departmentCode)
		if err != nil {
			return nil, fmt.Errorf("recherche département %s: %w", departmentCode, err)
		}
		sel.Department = department
	}

	return sel, nil
}

// BuildChartPayload construit le payload du tableau de bord pour la
// sélection demandée, avec un cache court pour absorber les rafales de
// requêtes identiques.
func (s *ChartService) BuildChartPayload(departmentCode, communeCode string, topLimit int) (*domain.ChartPayload, error) {
	departmentCode = strings.ToUpper(strings.TrimSpace(departmentCode))
	communeCode = strings.ToUpper(strings.TrimSpace(communeCode))

	cacheKey := sharedinfra.NewCacheKeyBuilder().
		Add("charts").
		Add(departmentCode).
		Add(communeCode).
		AddInt(topLimit).
		Build()
	if cached, found := s.cache.Get(cacheKey); found {
		if payload, ok := cached.(*domain.ChartPayload); ok {
			return payload, nil
		}
	}

	sel, err := s.resolveSelection(departmentCode, communeCode)
	if err != nil {
		return nil, err
	}

	// Les types dominants conditionnent le boxplot et la ventilation des
	// natures, donc ce comptage précède les agrégations parallèles.
	typeRows, err := s.charts.TypeCounts(sel.Filter)
	if err != nil {
		return nil, fmt.Errorf("comptage des types de biens: %w", err)
	}
	topTypeKeys, typeTotals := assembleTypeMetrics(typeRows)

	var (
		topCommunes   *domain.TopCommunes
		timeSeries    *domain.TimeSeries
		priceBoxplot  *domain.PriceBoxplot
		mutationStack *domain.MutationStack
	)

	var wg sync.WaitGroup
	errCh := make(chan error, 4)

	wg.Add(4)
	go func() {
		defer wg.Done()
		var err error
		topCommunes, err = s.buildTopCommunes(sel.TopScopeDepartmentCode, sel.SelectedCommuneCode, topLimit)
		if err != nil {
			errCh <- fmt.Errorf("classement des communes: %w", err)
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		timeSeries, err = s.buildTimeSeries(sel.Filter)
		if err != nil {
			errCh <- fmt.Errorf("série mensuelle: %w", err)
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		priceBoxplot, err = s.buildPriceBoxplot(sel.Filter, topTypeKeys)
		if err != nil {
			errCh <- fmt.Errorf("boxplot des prix: %w", err)
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		mutationStack, err = s.buildMutationStack(sel.Filter, topTypeKeys)
		if err != nil {
			errCh <- fmt.Errorf("ventilation des mutations: %w", err)
		}
	}()

	wg.Wait()
	close(errCh)
	if err := <-errCh; err != nil {
		return nil, err
	}

	payload := &domain.ChartPayload{
		Selection:     assembleSelectionPayload(sel),
		TopCommunes:   *topCommunes,
		TimeSeries:    *timeSeries,
		PriceBoxplot:  *priceBoxplot,
		MutationStack: *mutationStack,
		TypeTotals:    assembleTypeTotals(typeTotals, topTypeKeys),
	}

	s.cache.Set(cacheKey, payload, chartCacheTTL)
	return payload, nil
}

func assembleSelectionPayload(sel *Selection) domain.SelectionPayload {
	payload := domain.SelectionPayload{Level: sel.Level}
	if sel.Department != nil {
		payload.Department = &domain.SelectionEntity{
			Code: sel.Department.Code,
			Name: sel.Department.DisplayName(),
		}
	} else if sel.DepartmentCode != "" {
		payload.Department = &domain.SelectionEntity{
			Code: sel.DepartmentCode,
			Name: fmt.Sprintf("Departement %s", sel.DepartmentCode),
		}
	}
	if sel.Commune != nil {
		payload.Commune = &domain.SelectionEntity{
			Code: sel.Commune.CodeCommune,
			Name: sel.Commune.Name,
		}
	}
	return payload
}

// assembleTypeMetrics dérive les types de biens dominants du comptage par
// type. Les lignes arrivent triées par ventes décroissantes puis libellé,
// ce qui fixe la coupe du top.
func assembleTypeMetrics(rows []analyticsinfra.TypeCountRow) ([]string, map[string]int) {
	typeTotals := make(map[string]int, len(rows))
	topKeys := make([]string, 0, domain.MaxTypeCategories)
	for _, row := range rows {
		typeTotals[row.TypeKey] += row.SalesCount
		if len(topKeys) < domain.MaxTypeCategories {
			topKeys = append(topKeys, row.TypeKey)
		}
	}
	return topKeys, typeTotals
}

func assembleTypeTotals(typeTotals map[string]int, topTypeKeys []string) map[string]int {
	totals := make(map[string]int, len(topTypeKeys))
	for _, key := range topTypeKeys {
		if count, ok := typeTotals[key]; ok {
			totals[domain.CleanTypeLabel(key)] = count
		}
	}
	return totals
}

func clampTopLimit(limit int) int {
	if limit < 3 {
		return 3
	}
	if limit > domain.MaxTopCommunes {
		return domain.MaxTopCommunes
	}
	return limit
}

// buildTopCommunes classe les communes par nombre de ventes sur le
// périmètre du département (ou de la France entière). Le classement ignore
// le filtre commune de la sélection : la commune sélectionnée doit se
// comparer à ses voisines.
func (s *ChartService) buildTopCommunes(scopeDepartmentCode, selectedCommuneCode string, limit int) (*domain.TopCommunes, error) {
	limit = clampTopLimit(limit)

	filter := domain.RecordFilter{DepartmentCode: scopeDepartmentCode}
	rows, err := s.charts.CommuneSales(filter)
	if err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(rows))
	for _, row := range rows {
		if code := geodomain.NormalizeCommuneCode(row.DepartmentCode, row.CommuneCode); code != "" {
			codes = append(codes, code)
		}
	}
	lookup, err := s.geo.CommunesByCodes(codes)
	if err != nil {
		return nil, err
	}

	scopeLabel := "France entiere"
	if scopeDepartmentCode != "" {
		scope, err := s.geo.DepartmentByCode(scopeDepartmentCode)
		if err != nil {
			return nil, err
		}
		if scope != nil {
			scopeLabel = scope.DisplayName()
		} else {
			scopeLabel = fmt.Sprintf("Departement %s", scopeDepartmentCode)
		}
	}

	return &domain.TopCommunes{
		ScopeLabel: scopeLabel,
		Items:      assembleTopCommunes(rows, lookup, selectedCommuneCode, limit),
		Limit:      limit,
	}, nil
}

// assembleTopCommunes trie les agrégats par ventes décroissantes, coupe au
// rang demandé puis réinjecte la commune sélectionnée si elle est sortie du
// top. Les tris sont stables, un ex aequo garde l'ordre des agrégats.
func assembleTopCommunes(rows []analyticsinfra.CommuneSalesRow, lookup map[string]*geodomain.Commune, selectedCommuneCode string, limit int) []domain.TopCommuneItem {
	selected := strings.ToUpper(strings.TrimSpace(selectedCommuneCode))

	items := make([]domain.TopCommuneItem, 0, len(rows))
	for _, row := range rows {
		code := geodomain.NormalizeCommuneCode(row.DepartmentCode, row.CommuneCode)
		if code == "" {
			continue
		}
		item := domain.TopCommuneItem{
			Code:       code,
			SalesCount: row.SalesCount,
			TotalValue: row.TotalValue,
			IsSelected: code == selected,
		}
		if commune := lookup[code]; commune != nil {
			item.Label = commune.Name
			departmentCode := commune.DepartmentCode
			item.DepartmentCode = &departmentCode
		} else {
			item.Label = code
		}
		items = append(items, item)
	}

	bySalesDesc := func(a, b domain.TopCommuneItem) int {
		return b.SalesCount - a.SalesCount
	}
	slices.SortStableFunc(items, bySalesDesc)

	cut := limit
	if cut > len(items) {
		cut = len(items)
	}
	top := append(make([]domain.TopCommuneItem, 0, cut+1), items[:cut]...)

	for index, item := range items {
		if item.IsSelected {
			if index >= cut {
				top = append(top, item)
				slices.SortStableFunc(top, bySalesDesc)
			}
			break
		}
	}

	for i := range top {
		top[i].Rank = i + 1
	}
	return top
}

func (s *ChartService) buildTimeSeries(filter domain.RecordFilter) (*domain.TimeSeries, error) {
	points, err := s.charts.MonthlyPoints(filter)
	if err != nil {
		return nil, err
	}
	if points == nil {
		points = []domain.TimeSeriesPoint{}
	}
	return &domain.TimeSeries{Points: points}, nil
}

func (s *ChartService) buildPriceBoxplot(filter domain.RecordFilter, topTypeKeys []string) (*domain.PriceBoxplot, error) {
	boxplot := &domain.PriceBoxplot{
		Items: []domain.BoxplotItem{},
		Unit:  domain.PriceUnit,
	}
	if len(topTypeKeys) == 0 {
		return boxplot, nil
	}

	samples, err := s.charts.PriceSamples(filter, topTypeKeys)
	if err != nil {
		return nil, err
	}
	for _, key := range topTypeKeys {
		stats := domain.ComputeBoxStats(samples[key])
		if stats == nil {
			continue
		}
		boxplot.Items = append(boxplot.Items, domain.BoxplotItem{
			Label: domain.CleanTypeLabel(key),
			Stats: stats,
		})
	}
	return boxplot, nil
}

func (s *ChartService) buildMutationStack(filter domain.RecordFilter, topTypeKeys []string) (*domain.MutationStack, error) {
	if len(topTypeKeys) == 0 {
		return &domain.MutationStack{Labels: []string{}, Series: []domain.MutationSeries{}}, nil
	}
	rows, err := s.charts.MutationCounts(filter, topTypeKeys)
	if err != nil {
		return nil, err
	}
	return assembleMutationStack(rows, topTypeKeys), nil
}

// assembleMutationStack ventile les comptages (type, nature) en séries
// alignées sur les libellés de types. Les séries sont triées par total
// décroissant; à total égal, l'ordre de première apparition des natures
// est conservé.
func assembleMutationStack(rows []analyticsinfra.MutationCountRow, topTypeKeys []string) *domain.MutationStack {
	labels := make([]string, len(topTypeKeys))
	indexByType := make(map[string]int, len(topTypeKeys))
	for i, key := range topTypeKeys {
		labels[i] = domain.CleanTypeLabel(key)
		indexByType[key] = i
	}

	data := make(map[string][]int)
	totals := make(map[string]int)
	var natureOrder []string
	for _, row := range rows {
		index, ok := indexByType[row.TypeKey]
		if !ok {
			continue
		}
		nature := strings.TrimSpace(row.Nature)
		if nature == "" {
			nature = "Autre"
		}
		if _, seen := data[nature]; !seen {
			data[nature] = make([]int, len(topTypeKeys))
			natureOrder = append(natureOrder, nature)
		}
		data[nature][index] += row.SalesCount
		totals[nature] += row.SalesCount
	}

	series := make([]domain.MutationSeries, 0, len(natureOrder))
	for _, nature := range natureOrder {
		series = append(series, domain.MutationSeries{
			Label: nature,
			Data:  data[nature],
			Total: totals[nature],
		})
	}
	slices.SortStableFunc(series, func(a, b domain.MutationSeries) int {
		return b.Total - a.Total
	})

	return &domain.MutationStack{Labels: labels, Series: series}
}
