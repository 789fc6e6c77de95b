package domain

import "testing"

func TestSplitCommuneCode(t *testing.T) {
	cases := []struct {
		input   string
		dept    string
		commune string
	}{
		{"75056", "75", "56"},
		{"01053", "01", "53"},
		{"2A004", "2A", "4"},
		{"2B033", "2B", "33"},
		{"97123", "971", "23"},
		{"97411", "974", "11"},
		{"98818", "988", "18"},
		{"97000", "970", "0"},
		{"  2a004 ", "2A", "4"},
		{"970", "97", "0"},
		{"7", "7", "0"},
	}

	for _, tc := range cases {
		dept, commune := SplitCommuneCode(tc.input)
		if dept != tc.dept || commune != tc.commune {
			t.Errorf("SplitCommuneCode(%q) = (%q, %q), want (%q, %q)",
				tc.input, dept, commune, tc.dept, tc.commune)
		}
	}
}

func TestSplitCommuneCodeEmpty(t *testing.T) {
	dept, commune := SplitCommuneCode("")
	if dept != "" || commune != "" {
		t.Errorf("SplitCommuneCode(\"\") = (%q, %q), want empty parts", dept, commune)
	}

	dept, commune = SplitCommuneCode("   ")
	if dept != "" || commune != "" {
		t.Errorf("SplitCommuneCode(blank) = (%q, %q), want empty parts", dept, commune)
	}
}

func TestNormalizeCommuneCode(t *testing.T) {
	cases := []struct {
		dept    string
		commune string
		want    string
	}{
		{"75", "56", "75056"},
		{"75", "056", "75056"},
		{"1", "53", "01053"},
		{"2A", "4", "2A004"},
		{"2B", "033", "2B033"},
		{"971", "23", "97123"},
		{"974", "3", "97403"},
		{"988", "18", "98818"},
		{" 2a ", "4", "2A004"},
	}

	for _, tc := range cases {
		got := NormalizeCommuneCode(tc.dept, tc.commune)
		if got != tc.want {
			t.Errorf("NormalizeCommuneCode(%q, %q) = %q, want %q", tc.dept, tc.commune, got, tc.want)
		}
	}
}

func TestNormalizeCommuneCodeEmpty(t *testing.T) {
	if got := NormalizeCommuneCode("", "56"); got != "" {
		t.Errorf("NormalizeCommuneCode(\"\", \"56\") = %q, want \"\"", got)
	}
	if got := NormalizeCommuneCode("75", ""); got != "" {
		t.Errorf("NormalizeCommuneCode(\"75\", \"\") = %q, want \"\"", got)
	}
}

// Le découpage perd les zéros de tête du suffixe mais la recomposition doit
// reproduire exactement le code d'origine pour les trois familles.
func TestSplitNormalizeRoundTrip(t *testing.T) {
	codes := []string{
		"75056", "01053", "13055", "69123", "59350",
		"2A004", "2A247", "2B033", "2B366",
		"97101", "97123", "97209", "97302", "97411", "97613", "98818",
	}

	for _, code := range codes {
		dept, commune := SplitCommuneCode(code)
		if got := NormalizeCommuneCode(dept, commune); got != code {
			t.Errorf("round trip %q -> (%q, %q) -> %q", code, dept, commune, got)
		}
	}
}

func TestDepartmentDisplayName(t *testing.T) {
	d := &Department{Code: "75", Name: "Paris"}
	if got := d.DisplayName(); got != "Paris" {
		t.Errorf("DisplayName() = %q, want Paris", got)
	}

	d = &Department{Code: "2A"}
	if got := d.DisplayName(); got != "Departement 2A" {
		t.Errorf("DisplayName() = %q, want fallback label", got)
	}
}

func TestCommunePostalCodeList(t *testing.T) {
	c := &Commune{PostalCodes: "75001,75002,75003"}
	codes := c.PostalCodeList()
	if len(codes) != 3 || codes[0] != "75001" {
		t.Errorf("PostalCodeList() = %v", codes)
	}

	c = &Commune{PostalCodes: ""}
	if codes := c.PostalCodeList(); len(codes) != 0 {
		t.Errorf("PostalCodeList() on empty = %v, want none", codes)
	}
}
