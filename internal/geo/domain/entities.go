package domain

import (
	"fmt"
	"strings"
)

// Department - département avec ses agrégats dérivés de la base adresse.
// Code est le code département nu (2 ou 3 caractères, "2A"/"2B" inclus).
type Department struct {
	ID           int64    `json:"-"`
	Code         string   `json:"code"`
	Name         string   `json:"name"`
	CentroidLon  *float64 `json:"centroid_lon"`
	CentroidLat  *float64 `json:"centroid_lat"`
	AddressCount int      `json:"address_count"`
	CommuneCount int      `json:"commune_count"`
	MinLon       *float64 `json:"min_lon,omitempty"`
	MinLat       *float64 `json:"min_lat,omitempty"`
	MaxLon       *float64 `json:"max_lon,omitempty"`
	MaxLat       *float64 `json:"max_lat,omitempty"`
}

// DisplayName retourne le nom du département ou un libellé de repli.
func (d *Department) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	return fmt.Sprintf("Departement %s", d.Code)
}

// Commune - commune avec son centroïde. CodeCommune est le code INSEE
// complet normalisé sur 5 caractères, contrairement au suffixe stocké dans
// les mutations.
type Commune struct {
	ID             int64    `json:"-"`
	CodeCommune    string   `json:"code_commune"`
	DepartmentCode string   `json:"department_code"`
	Name           string   `json:"name"`
	CentroidLon    *float64 `json:"centroid_lon"`
	CentroidLat    *float64 `json:"centroid_lat"`
	AddressCount   int      `json:"address_count"`
	PostalCodes    string   `json:"postal_codes"`
	MinLon         *float64 `json:"min_lon,omitempty"`
	MinLat         *float64 `json:"min_lat,omitempty"`
	MaxLon         *float64 `json:"max_lon,omitempty"`
	MaxLat         *float64 `json:"max_lat,omitempty"`
}

// PostalCodeList découpe la liste de codes postaux stockée jointe par des
// virgules, en ignorant les entrées vides.
func (c *Commune) PostalCodeList() []string {
	parts := strings.Split(c.PostalCodes, ",")
	codes := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			codes = append(codes, p)
		}
	}
	return codes
}

// CommuneOption - entrée du sélecteur de communes du tableau de bord.
type CommuneOption struct {
	CodeCommune string `json:"code_commune"`
	Name        string `json:"name"`
}

// DepartmentOption - entrée du sélecteur de départements.
type DepartmentOption struct {
	Code string `json:"code"`
	Name string `json:"name"`
}
