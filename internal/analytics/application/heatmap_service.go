package application

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"

	"dvf/internal/analytics/domain"
	analyticsinfra "dvf/internal/analytics/infrastructure"
	geodomain "dvf/internal/geo/domain"
	geoinfra "dvf/internal/geo/infrastructure"
)

// HeatmapService construit les points de la carte de chaleur : centroïdes
// de départements sans sélection, centroïdes de communes dès qu'un
// département ou une commune est sélectionné.
type HeatmapService struct {
	charts *analyticsinfra.ChartQueryRepository
	geo    *geoinfra.GeoQueryRepository
}

// NewHeatmapService crée un nouveau service de carte de chaleur
func NewHeatmapService(charts *analyticsinfra.ChartQueryRepository, geo *geoinfra.GeoQueryRepository) *HeatmapService {
	return &HeatmapService{charts: charts, geo: geo}
}

// BuildHeatmapPayload assemble points et résumé pour la sélection donnée.
// Les points sans entité correspondante dans le référentiel géographique
// sont écartés, faute de centroïde à afficher.
func (s *HeatmapService) BuildHeatmapPayload(departmentParam, communeParam string) (*domain.HeatmapPayload, error) {
	departmentParam = strings.ToUpper(strings.TrimSpace(departmentParam))
	communeParam = strings.ToUpper(strings.TrimSpace(communeParam))

	var filter domain.RecordFilter
	level := "commune"

	if communeParam != "" {
		deptPart, communePart := geodomain.SplitCommuneCode(communeParam)
		if deptPart != "" && communePart != "" {
			filter.DepartmentCode = deptPart
			filter.HasCommune = true
			filter.CommuneSuffix = communePart
			if departmentParam == "" {
				departmentParam = deptPart
			}
		} else {
			filter.MatchesNothing = true
		}
	} else if departmentParam != "" {
		filter.DepartmentCode = departmentParam
	} else {
		level = "department"
	}

	totalValue, averageValue, err := s.charts.SelectionMetrics(filter)
	if err != nil {
		return nil, fmt.Errorf("métriques de la sélection: %w", err)
	}

	var points []domain.HeatmapPoint
	if level == "department" {
		points, err = s.buildDepartmentPoints(filter)
	} else {
		points, err = s.buildCommunePoints(filter)
	}
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(points, func(a, b domain.HeatmapPoint) int {
		return b.SalesCount - a.SalesCount
	})

	totalSales := 0
	maxSales := 0
	for _, point := range points {
		totalSales += point.SalesCount
		if point.SalesCount > maxSales {
			maxSales = point.SalesCount
		}
	}

	summary := domain.HeatmapSummary{
		TotalSales:   totalSales,
		EntityCount:  len(points),
		MaxSales:     maxSales,
		Level:        level,
		TotalValue:   totalValue,
		AverageValue: averageValue,
	}

	if departmentParam != "" {
		department, err := s.geo.DepartmentByCode(departmentParam)
		if err != nil {
			return nil, fmt.Errorf("recherche département %s: %w", departmentParam, err)
		}
		if department != nil {
			summary.Department = &domain.DepartmentSummary{
				Code:         department.Code,
				Name:         department.DisplayName(),
				AddressCount: department.AddressCount,
				CommuneCount: department.CommuneCount,
			}
		}
	}

	if communeParam != "" && level == "commune" {
		for _, point := range points {
			if point.Code == communeParam {
				summary.Commune = &domain.CommuneSummary{
					Code:           point.Code,
					Name:           point.Name,
					DepartmentCode: point.DepartmentCode,
				}
				break
			}
		}
	}

	return &domain.HeatmapPayload{Summary: summary, Points: points}, nil
}

func (s *HeatmapService) buildDepartmentPoints(filter domain.RecordFilter) ([]domain.HeatmapPoint, error) {
	rows, err := s.charts.DepartmentSales(filter)
	if err != nil {
		return nil, fmt.Errorf("agrégation par département: %w", err)
	}

	points := make([]domain.HeatmapPoint, 0, len(rows))
	for _, row := range rows {
		code := strings.ToUpper(row.DepartmentCode)
		department, err := s.geo.DepartmentByCode(code)
		if err != nil {
			return nil, fmt.Errorf("recherche département %s: %w", code, err)
		}
		if department == nil {
			continue
		}
		points = append(points, domain.HeatmapPoint{
			Code:         department.Code,
			Name:         department.DisplayName(),
			CentroidLat:  department.CentroidLat,
			CentroidLon:  department.CentroidLon,
			AddressCount: department.AddressCount,
			CommuneCount: department.CommuneCount,
			SalesCount:   row.SalesCount,
		})
	}
	return points, nil
}

func (s *HeatmapService) buildCommunePoints(filter domain.RecordFilter) ([]domain.HeatmapPoint, error) {
	rows, err := s.charts.CommuneSales(filter)
	if err != nil {
		return nil, fmt.Errorf("agrégation par commune: %w", err)
	}

	type aggregate struct {
		code       string
		salesCount int
	}
	aggregates := make([]aggregate, 0, len(rows))
	codes := make([]string, 0, len(rows))
	for _, row := range rows {
		normalized := geodomain.NormalizeCommuneCode(row.DepartmentCode, row.CommuneCode)
		if normalized == "" {
			continue
		}
		aggregates = append(aggregates, aggregate{code: normalized, salesCount: row.SalesCount})
		codes = append(codes, normalized)
	}

	lookup, err := s.geo.CommunesByCodes(codes)
	if err != nil {
		return nil, fmt.Errorf("chargement des communes: %w", err)
	}

	points := make([]domain.HeatmapPoint, 0, len(aggregates))
	for _, agg := range aggregates {
		commune := lookup[agg.code]
		if commune == nil {
			continue
		}
		points = append(points, domain.HeatmapPoint{
			Code:           agg.code,
			Name:           commune.Name,
			DepartmentCode: commune.DepartmentCode,
			CentroidLat:    commune.CentroidLat,
			CentroidLon:    commune.CentroidLon,
			AddressCount:   commune.AddressCount,
			PostalCodes:    commune.PostalCodeList(),
			SalesCount:     agg.salesCount,
		})
	}
	return points, nil
}
