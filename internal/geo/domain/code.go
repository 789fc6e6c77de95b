package domain

import "strings"

// SplitCommuneCode découpe un code commune INSEE complet en
// (code département, suffixe commune). Trois familles de codes :
//   - Corse : préfixe "2A"/"2B", département sur 2 caractères
//   - outre-mer : préfixe "97"/"98" et longueur >= 4, département sur 3
//   - métropole : département sur 2 caractères
//
// Le suffixe est débarrassé de ses zéros de tête ("004" -> "4"); un suffixe
// entièrement nul devient "0". Cette perte de zéros rend le découpage
// volontairement non réversible tel quel : NormalizeCommuneCode restaure la
// forme canonique sur 5 caractères.
func SplitCommuneCode(code string) (string, string) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if c == "" {
		return "", ""
	}

	var dept, rest string
	switch {
	case strings.HasPrefix(c, "2A") || strings.HasPrefix(c, "2B"):
		dept, rest = c[:2], c[2:]
	case (strings.HasPrefix(c, "97") || strings.HasPrefix(c, "98")) && len(c) >= 4:
		dept, rest = c[:3], c[3:]
	case len(c) < 2:
		dept, rest = c, ""
	default:
		dept, rest = c[:2], c[2:]
	}

	rest = strings.TrimLeft(rest, "0")
	if rest == "" {
		rest = "0"
	}
	return dept, rest
}

// NormalizeCommuneCode recompose le code commune canonique sur 5 caractères
// à partir d'un code département et d'un suffixe commune (avec ou sans zéros
// de tête). Retourne "" si l'une des deux parties est vide.
func NormalizeCommuneCode(departmentCode, communeCode string) string {
	dept := strings.ToUpper(strings.TrimSpace(departmentCode))
	commune := strings.TrimSpace(communeCode)
	if dept == "" || commune == "" {
		return ""
	}

	switch {
	case dept == "2A" || dept == "2B":
		commune = zfill(commune, 3)
	case strings.HasPrefix(dept, "97") || strings.HasPrefix(dept, "98"):
		commune = zfill(commune, 2)
	default:
		commune = zfill(commune, 3)
		dept = zfill(dept, 2)
	}
	return dept + commune
}

func zfill(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}
