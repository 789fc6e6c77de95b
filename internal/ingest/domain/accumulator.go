package domain

import (
	"sort"
	"strings"

	"github.com/twpayne/go-geom"
)

// AreaAccumulator agrège les adresses d'une entité géographique (commune ou
// département) au fil de la lecture des fichiers de la Base Adresse
// Nationale : somme des coordonnées pour le centroïde, emprise englobante
// et codes postaux rencontrés. Non protégé contre les accès concurrents.
type AreaAccumulator struct {
	name         string
	sumLon       float64
	sumLat       float64
	addressCount int
	bounds       *geom.Bounds
	postalCodes  map[string]struct{}
}

// NewAreaAccumulator crée un accumulateur vide
func NewAreaAccumulator() *AreaAccumulator {
	return &AreaAccumulator{
		bounds:      geom.NewBounds(geom.XY),
		postalCodes: make(map[string]struct{}),
	}
}

// Add enregistre une adresse. Le nom et le code postal sont facultatifs; le
// premier nom non vide rencontré est conservé.
func (a *AreaAccumulator) Add(lon, lat float64, postalCode, name string) {
	a.sumLon += lon
	a.sumLat += lat
	a.addressCount++
	a.bounds.Extend(geom.NewPointFlat(geom.XY, []float64{lon, lat}))

	if a.name == "" {
		if name = strings.TrimSpace(name); name != "" {
			a.name = name
		}
	}
	if postalCode = strings.TrimSpace(postalCode); postalCode != "" {
		a.postalCodes[postalCode] = struct{}{}
	}
}

// Name retourne le nom retenu pour l'entité, éventuellement vide
func (a *AreaAccumulator) Name() string {
	return a.name
}

// AddressCount retourne le nombre d'adresses accumulées
func (a *AreaAccumulator) AddressCount() int {
	return a.addressCount
}

// Centroid retourne la moyenne des coordonnées accumulées, ou (nil, nil)
// si aucune adresse n'a été ajoutée.
func (a *AreaAccumulator) Centroid() (*float64, *float64) {
	if a.addressCount == 0 {
		return nil, nil
	}
	lon := a.sumLon / float64(a.addressCount)
	lat := a.sumLat / float64(a.addressCount)
	return &lon, &lat
}

// BoundingBox retourne l'emprise (minLon, minLat, maxLon, maxLat), ou des
// pointeurs nil si aucune adresse n'a été ajoutée.
func (a *AreaAccumulator) BoundingBox() (minLon, minLat, maxLon, maxLat *float64) {
	if a.bounds.IsEmpty() {
		return nil, nil, nil, nil
	}
	lonMin, latMin := a.bounds.Min(0), a.bounds.Min(1)
	lonMax, latMax := a.bounds.Max(0), a.bounds.Max(1)
	return &lonMin, &latMin, &lonMax, &latMax
}

// PostalCodes retourne les codes postaux rencontrés, triés et joints par
// des virgules, prêts pour la colonne texte du référentiel.
func (a *AreaAccumulator) PostalCodes() string {
	if len(a.postalCodes) == 0 {
		return ""
	}
	codes := make([]string, 0, len(a.postalCodes))
	for code := range a.postalCodes {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return strings.Join(codes, ",")
}
