package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	analyticsapp "dvf/internal/analytics/application"
	analyticsdomain "dvf/internal/analytics/domain"
	exportapp "dvf/internal/export/application"
	geodomain "dvf/internal/geo/domain"
	geoinfra "dvf/internal/geo/infrastructure"
	shareddomain "dvf/internal/shared/domain"
)

// defaultExportDays - période d'export par défaut quand le paramètre days
// est absent ou invalide
const defaultExportDays = 365

// Handlers regroupe les endpoints de l'API au-dessus des services
// applicatifs.
type Handlers struct {
	charts  *analyticsapp.ChartService
	heatmap *analyticsapp.HeatmapService
	export  *exportapp.ExportService
	geo     *geoinfra.GeoQueryRepository
}

// NewHandlers crée les handlers de l'API
func NewHandlers(charts *analyticsapp.ChartService, heatmap *analyticsapp.HeatmapService, export *exportapp.ExportService, geo *geoinfra.GeoQueryRepository) *Handlers {
	return &Handlers{
		charts:  charts,
		heatmap: heatmap,
		export:  export,
		geo:     geo,
	}
}

// Register branche les endpoints sur le mux par défaut.
func (h *Handlers) Register() {
	http.HandleFunc("/api/health", h.Health)
	http.HandleFunc("/api/charts", h.ChartsData)
	http.HandleFunc("/api/heatmap", h.HeatmapData)
	http.HandleFunc("/api/communes", h.CommuneOptions)
	http.HandleFunc("/api/departments", h.Departments)
	http.HandleFunc("/api/export/csv", h.ExportCSV)
	http.HandleFunc("/api/export/parquet", h.ExportParquet)
}

// Health - endpoint de supervision
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{
		"status":  "ok",
		"message": "API valeurs foncières disponible",
	})
}

// ChartsData sert le payload complet du tableau de bord pour la sélection
// passée en paramètres department / commune / top_limit.
func (h *Handlers) ChartsData(w http.ResponseWriter, r *http.Request) {
	if !requireGET(w, r) {
		return
	}

	department := r.URL.Query().Get("department")
	commune := r.URL.Query().Get("commune")
	topLimit := parseIntParam(r, "top_limit", analyticsdomain.DefaultTopCommunes)

	payload, err := h.charts.BuildChartPayload(department, commune, topLimit)
	if err != nil {
		serverError(w, err)
		return
	}
	writeJSON(w, payload)
}

// HeatmapData sert les points de la carte de chaleur pour la sélection.
func (h *Handlers) HeatmapData(w http.ResponseWriter, r *http.Request) {
	if !requireGET(w, r) {
		return
	}

	payload, err := h.heatmap.BuildHeatmapPayload(
		r.URL.Query().Get("department"),
		r.URL.Query().Get("commune"),
	)
	if err != nil {
		serverError(w, err)
		return
	}
	writeJSON(w, payload)
}

// CommuneOptions liste les communes d'un département pour le sélecteur du
// tableau de bord. Sans paramètre department, la liste est vide.
func (h *Handlers) CommuneOptions(w http.ResponseWriter, r *http.Request) {
	if !requireGET(w, r) {
		return
	}

	department := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("department")))
	options := []geodomain.CommuneOption{}
	if department != "" {
		var err error
		options, err = h.geo.CommuneOptions(department)
		if err != nil {
			serverError(w, err)
			return
		}
	}
	writeJSON(w, map[string]interface{}{"communes": options})
}

// Departments liste tous les départements connus du référentiel.
func (h *Handlers) Departments(w http.ResponseWriter, r *http.Request) {
	if !requireGET(w, r) {
		return
	}

	departments, err := h.geo.Departments()
	if err != nil {
		serverError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{"departments": departments})
}

// ExportCSV sert les mutations de la sélection en CSV téléchargeable.
func (h *Handlers) ExportCSV(w http.ResponseWriter, r *http.Request) {
	h.serveExport(w, r, h.export.ExportCSV)
}

// ExportParquet sert les mutations de la sélection en Parquet.
func (h *Handlers) ExportParquet(w http.ResponseWriter, r *http.Request) {
	h.serveExport(w, r, h.export.ExportParquet)
}

func (h *Handlers) serveExport(w http.ResponseWriter, r *http.Request, export func(analyticsdomain.RecordFilter, shareddomain.DateRange) (*exportapp.ExportResult, error)) {
	if !requireGET(w, r) {
		return
	}

	days := parseIntParam(r, "days", defaultExportDays)
	if days < 0 {
		days = defaultExportDays
	}
	dateRange, err := shareddomain.NewDateRangeFromDays(days)
	if err != nil {
		serverError(w, err)
		return
	}

	filter := exportFilter(
		r.URL.Query().Get("department"),
		r.URL.Query().Get("commune"),
	)

	result, err := export(filter, dateRange)
	if err != nil {
		serverError(w, err)
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Job.Filename()))
	if _, err := w.Write(result.Content); err != nil {
		log.Printf("envoi de l'export interrompu: %v", err)
	}
}

// exportFilter traduit les paramètres de sélection en filtre de mutations,
// avec le même découpage des codes commune que les graphiques.
func exportFilter(departmentParam, communeParam string) analyticsdomain.RecordFilter {
	departmentParam = strings.ToUpper(strings.TrimSpace(departmentParam))
	communeParam = strings.ToUpper(strings.TrimSpace(communeParam))

	var filter analyticsdomain.RecordFilter
	if communeParam != "" {
		deptPart, communePart := geodomain.SplitCommuneCode(communeParam)
		if deptPart != "" && communePart != "" {
			filter.DepartmentCode = deptPart
			filter.HasCommune = true
			filter.CommuneSuffix = communePart
		} else {
			filter.MatchesNothing = true
		}
	} else if departmentParam != "" {
		filter.DepartmentCode = departmentParam
	}
	return filter
}

func parseIntParam(r *http.Request, name string, fallback int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func requireGET(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func serverError(w http.ResponseWriter, err error) {
	log.Printf("erreur interne: %v", err)
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
