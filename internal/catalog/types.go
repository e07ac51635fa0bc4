package catalog

import "fmt"

const (
	OriginNative     = "NATIVE"
	OriginIntroduced = "INTRODUCED"

	MinScore = 0.0
	MaxScore = 10.0
)

// Record is one normalized catalog entry ready to be loaded.
type Record struct {
	ID             string
	Name           string
	ScientificName string
	Category       string
	Origin         string
	Color          string

	NutritionScore  *float64
	EfficacyScore   *float64
	CommercialValue *float64

	Description  string
	DetailedInfo string
	Region       string

	Spacing  string
	Climate  string
	SoilType string

	Warning  string
	Severity string

	Uses           []string
	HarvestMonths  []int
	Certifications []string
	Keywords       []string
}

type DiagnosticKind string

const (
	DiagnosticParse     DiagnosticKind = "parse"
	DiagnosticInvalid   DiagnosticKind = "invalid"
	DiagnosticDuplicate DiagnosticKind = "duplicate"
	DiagnosticWarning   DiagnosticKind = "warning"
)

// Diagnostic describes a problem with one source entry. Index is the entry's
// 1-based position in the source.
type Diagnostic struct {
	Index  int
	ID     string
	Kind   DiagnosticKind
	Reason string
}

func (d Diagnostic) String() string {
	if d.ID != "" {
		return fmt.Sprintf("entry #%d (%s): %s: %s", d.Index, d.ID, d.Kind, d.Reason)
	}
	return fmt.Sprintf("entry #%d: %s: %s", d.Index, d.Kind, d.Reason)
}

// Batch is the normalizer output. Accepted+Skipped+Duplicates equals the
// number of source entries.
type Batch struct {
	Records     []Record
	Diagnostics []Diagnostic

	Accepted   int
	Skipped    int
	Duplicates int
}
