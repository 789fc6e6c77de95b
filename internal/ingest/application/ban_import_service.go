package application

import (
	"compress/gzip"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	geodomain "dvf/internal/geo/domain"
	ingestdomain "dvf/internal/ingest/domain"
	"dvf/internal/ingest/infrastructure"
	sharedinfra "dvf/internal/shared/infrastructure"
)

const (
	// DefaultBANBaseURL - publication officielle des adresses BAN par
	// département, un fichier gzip par code
	DefaultBANBaseURL = "https://adresse.data.gouv.fr/data/ban/adresses/latest/csv"

	departmentMetaURL = "https://geo.api.gouv.fr/departements"

	defaultBANWorkers = 4
)

var departmentFilePattern = regexp.MustCompile(`adresses-([0-9A-Z]{2,3})\.csv\.gz`)

// BANImportOptions paramètre un import de centroïdes
type BANImportOptions struct {
	// Departments restreint l'import à ces codes; vide, la liste est
	// découverte en parcourant le répertoire de publication.
	Departments []string
	BaseURL     string
	Workers     int
}

// BANImportService reconstruit le référentiel géographique à partir des
// fichiers d'adresses de la Base Adresse Nationale : centroïde, emprise,
// nombre d'adresses et codes postaux par commune et par département. Les
// fichiers départementaux sont indépendants et traités en parallèle.
type BANImportService struct {
	geo    *infrastructure.GeoBulkRepository
	client *http.Client
}

// NewBANImportService crée un nouveau service d'import BAN
func NewBANImportService(geo *infrastructure.GeoBulkRepository) *BANImportService {
	return &BANImportService{
		geo:    geo,
		client: &http.Client{Timeout: 10 * time.Minute},
	}
}

// banAggregate collecte les accumulateurs partagés entre les workers.
type banAggregate struct {
	mu                 sync.Mutex
	communes           map[string]*ingestdomain.AreaAccumulator
	communeDepartments map[string]string
	departments        map[string]*ingestdomain.AreaAccumulator
	departmentCommunes map[string]map[string]struct{}
}

func newBANAggregate() *banAggregate {
	return &banAggregate{
		communes:           make(map[string]*ingestdomain.AreaAccumulator),
		communeDepartments: make(map[string]string),
		departments:        make(map[string]*ingestdomain.AreaAccumulator),
		departmentCommunes: make(map[string]map[string]struct{}),
	}
}

func (a *banAggregate) record(codeINSEE, departmentCode string, lon, lat float64, postalCode, name string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	commune, ok := a.communes[codeINSEE]
	if !ok {
		commune = ingestdomain.NewAreaAccumulator()
		a.communes[codeINSEE] = commune
	}
	commune.Add(lon, lat, postalCode, name)
	a.communeDepartments[codeINSEE] = departmentCode

	department, ok := a.departments[departmentCode]
	if !ok {
		department = ingestdomain.NewAreaAccumulator()
		a.departments[departmentCode] = department
	}
	department.Add(lon, lat, "", "")

	members, ok := a.departmentCommunes[departmentCode]
	if !ok {
		members = make(map[string]struct{})
		a.departmentCommunes[departmentCode] = members
	}
	members[codeINSEE] = struct{}{}
}

// extractDepartmentCode dérive le code département d'un code INSEE complet.
// Contrairement au découpage des mutations, le code INSEE de la BAN est
// toujours sur 5 caractères et garde ses zéros.
func extractDepartmentCode(codeINSEE string) string {
	codeINSEE = strings.TrimSpace(codeINSEE)
	if len(codeINSEE) <= 2 {
		return codeINSEE
	}
	if strings.HasPrefix(codeINSEE, "97") || strings.HasPrefix(codeINSEE, "98") {
		return codeINSEE[:3]
	}
	return codeINSEE[:2]
}

// ingestAddresses lit un fichier d'adresses BAN (CSV séparé par des
// points-virgules) et alimente l'agrégat. Les lignes sans code INSEE ou
// sans coordonnées exploitables sont comptées puis ignorées.
func ingestAddresses(agg *banAggregate, r io.Reader) (processed, skipped int, err error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return 0, 0, fmt.Errorf("lecture de l'en-tête: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"code_insee", "lon", "lat"} {
		if _, ok := index[required]; !ok {
			return 0, 0, fmt.Errorf("colonne %s absente du fichier BAN", required)
		}
	}

	field := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return processed, skipped, err
		}

		codeINSEE := field(row, "code_insee")
		lonRaw := field(row, "lon")
		latRaw := field(row, "lat")
		if codeINSEE == "" || lonRaw == "" || latRaw == "" {
			skipped++
			continue
		}
		departmentCode := extractDepartmentCode(codeINSEE)
		if departmentCode == "" {
			skipped++
			continue
		}
		lon, lonErr := strconv.ParseFloat(lonRaw, 64)
		lat, latErr := strconv.ParseFloat(latRaw, 64)
		if lonErr != nil || latErr != nil {
			skipped++
			continue
		}

		agg.record(codeINSEE, departmentCode, lon, lat, field(row, "code_postal"), field(row, "nom_commune"))
		processed++
	}
	return processed, skipped, nil
}

// Run télécharge les fichiers départementaux, agrège les adresses puis
// remplace le référentiel géographique d'un bloc.
func (s *BANImportService) Run(opts BANImportOptions) error {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBANBaseURL
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultBANWorkers
	}

	codes := make([]string, 0, len(opts.Departments))
	for _, code := range opts.Departments {
		if code = strings.TrimSpace(code); code != "" {
			codes = append(codes, code)
		}
	}
	if len(codes) == 0 {
		discovered, err := s.discoverDepartmentCodes(baseURL)
		if err != nil {
			return err
		}
		if len(discovered) == 0 {
			return fmt.Errorf("aucun fichier départemental trouvé sous %s", baseURL)
		}
		codes = discovered
	}
	sort.Strings(codes)

	names := s.fetchDepartmentNames()

	agg := newBANAggregate()
	pool := sharedinfra.NewWorkerPool(workers)
	pool.Start()
	for _, code := range codes {
		code := code
		if err := pool.Submit(func() error {
			return s.importDepartment(baseURL, code, agg)
		}); err != nil {
			pool.Stop()
			return err
		}
	}
	pool.Wait()
	pool.Stop()
	if err := pool.FirstError(); err != nil {
		return err
	}

	log.Printf("%d communes agrégées sur %d départements.", len(agg.communes), len(agg.departments))

	departments, communes := s.buildEntities(agg, names)
	if err := s.geo.ReplaceAll(departments, communes); err != nil {
		return err
	}
	log.Println("Import des centroïdes BAN terminé.")
	return nil
}

func (s *BANImportService) importDepartment(baseURL, code string, agg *banAggregate) error {
	url := fmt.Sprintf("%s/adresses-%s.csv.gz", baseURL, code)
	log.Printf("Téléchargement de %s...", url)

	resp, err := s.client.Get(url)
	if err != nil {
		return fmt.Errorf("téléchargement de %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("téléchargement de %s: statut %s", url, resp.Status)
	}

	gz, err := gzip.NewReader(resp.Body)
	if err != nil {
		return fmt.Errorf("décompression de %s: %w", url, err)
	}
	defer gz.Close()

	processed, skipped, err := ingestAddresses(agg, gz)
	if err != nil {
		return fmt.Errorf("lecture de %s: %w", url, err)
	}
	log.Printf("  %s: %d adresses traitées, %d lignes ignorées.", code, processed, skipped)
	return nil
}

func (s *BANImportService) buildEntities(agg *banAggregate, names map[string]string) ([]geodomain.Department, []geodomain.Commune) {
	departments := make([]geodomain.Department, 0, len(agg.departments))
	for code, acc := range agg.departments {
		lon, lat := acc.Centroid()
		minLon, minLat, maxLon, maxLat := acc.BoundingBox()
		name := names[code]
		if name == "" {
			name = acc.Name()
		}
		departments = append(departments, geodomain.Department{
			Code:         code,
			Name:         name,
			CentroidLon:  lon,
			CentroidLat:  lat,
			AddressCount: acc.AddressCount(),
			CommuneCount: len(agg.departmentCommunes[code]),
			MinLon:       minLon,
			MinLat:       minLat,
			MaxLon:       maxLon,
			MaxLat:       maxLat,
		})
	}

	communes := make([]geodomain.Commune, 0, len(agg.communes))
	for code, acc := range agg.communes {
		lon, lat := acc.Centroid()
		minLon, minLat, maxLon, maxLat := acc.BoundingBox()
		name := acc.Name()
		if name == "" {
			name = code
		}
		communes = append(communes, geodomain.Commune{
			CodeCommune:    code,
			DepartmentCode: agg.communeDepartments[code],
			Name:           name,
			CentroidLon:    lon,
			CentroidLat:    lat,
			AddressCount:   acc.AddressCount(),
			PostalCodes:    acc.PostalCodes(),
			MinLon:         minLon,
			MinLat:         minLat,
			MaxLon:         maxLon,
			MaxLat:         maxLat,
		})
	}
	return departments, communes
}

func (s *BANImportService) discoverDepartmentCodes(baseURL string) ([]string, error) {
	resp, err := s.client.Get(baseURL + "/")
	if err != nil {
		return nil, fmt.Errorf("listage du répertoire BAN %s/: %w", baseURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listage du répertoire BAN %s/: statut %s", baseURL, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("listage du répertoire BAN %s/: %w", baseURL, err)
	}

	seen := make(map[string]struct{})
	var codes []string
	for _, match := range departmentFilePattern.FindAllStringSubmatch(string(body), -1) {
		if _, ok := seen[match[1]]; ok {
			continue
		}
		seen[match[1]] = struct{}{}
		codes = append(codes, match[1])
	}
	return codes, nil
}

// fetchDepartmentNames charge les noms officiels des départements depuis
// l'API geo.gouv.fr. L'échec n'est pas bloquant, les noms ont un repli.
func (s *BANImportService) fetchDepartmentNames() map[string]string {
	names := make(map[string]string)

	resp, err := s.client.Get(departmentMetaURL)
	if err != nil {
		log.Printf("noms des départements indisponibles: %v", err)
		return names
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Printf("noms des départements indisponibles: statut %s", resp.Status)
		return names
	}

	var items []struct {
		Code string `json:"code"`
		Nom  string `json:"nom"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		log.Printf("noms des départements illisibles: %v", err)
		return names
	}
	for _, item := range items {
		code := strings.TrimSpace(item.Code)
		if code == "" {
			continue
		}
		names[code] = strings.TrimSpace(item.Nom)
	}
	return names
}
