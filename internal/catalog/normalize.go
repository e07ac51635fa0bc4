package catalog

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,63}$`)

var severities = map[string]bool{"LOW": true, "MEDIUM": true, "HIGH": true}

var monthNames = map[string]int{
	"jan": 1, "january": 1, "janeiro": 1,
	"feb": 2, "february": 2, "fev": 2, "fevereiro": 2,
	"mar": 3, "march": 3, "marco": 3, "março": 3,
	"apr": 4, "april": 4, "abr": 4, "abril": 4,
	"may": 5, "mai": 5, "maio": 5,
	"jun": 6, "june": 6, "junho": 6,
	"jul": 7, "july": 7, "julho": 7,
	"aug": 8, "august": 8, "ago": 8, "agosto": 8,
	"sep": 9, "sept": 9, "september": 9, "set": 9, "setembro": 9,
	"oct": 10, "october": 10, "out": 10, "outubro": 10,
	"nov": 11, "november": 11, "novembro": 11,
	"dec": 12, "december": 12, "dez": 12, "dezembro": 12,
}

type rawEntry struct {
	ID             Text `yaml:"id"`
	Name           Text `yaml:"name"`
	ScientificName Text `yaml:"scientificName"`
	Category       Text `yaml:"category"`
	Type           Text `yaml:"type"`
	Origin         Text `yaml:"origin"`
	Color          Text `yaml:"color"`

	NutritionScore  Score `yaml:"nutritionScore"`
	EfficacyScore   Score `yaml:"efficacyScore"`
	CommercialValue Score `yaml:"commercialValue"`

	Description  Text `yaml:"description"`
	DetailedInfo Text `yaml:"detailedInfo"`
	Region       Text `yaml:"region"`

	Spacing     Text            `yaml:"spacing"`
	Climate     Text            `yaml:"climate"`
	SoilType    Text            `yaml:"soilType"`
	Cultivation *rawCultivation `yaml:"cultivation"`

	Warning  Text `yaml:"warning"`
	Severity Text `yaml:"severity"`

	Uses           MultiValue `yaml:"uses"`
	HarvestMonths  MultiValue `yaml:"harvestMonths"`
	Certification  MultiValue `yaml:"certification"`
	Certifications MultiValue `yaml:"certifications"`
	Keywords       MultiValue `yaml:"keywords"`
}

type rawCultivation struct {
	Spacing  Text `yaml:"spacing"`
	Climate  Text `yaml:"climate"`
	SoilType Text `yaml:"soilType"`
}

// Normalize turns raw source entries into records. Entries are handled
// independently: a broken entry is reported in the batch diagnostics and the
// rest of the batch continues. Duplicates are resolved first-wins, both by
// identity key and by case-insensitive scientific name.
func Normalize(entries []RawNode) Batch {
	var batch Batch
	byID := make(map[string]string)
	byScientific := make(map[string]string)

	for _, entry := range entries {
		if entry.Err != nil {
			batch.skip(Diagnostic{Index: entry.Index, Kind: DiagnosticParse, Reason: entry.Err.Error()})
			continue
		}

		var raw rawEntry
		if err := entry.Node.Decode(&raw); err != nil {
			batch.skip(Diagnostic{Index: entry.Index, Kind: DiagnosticParse, Reason: err.Error()})
			continue
		}

		record, warnings, err := raw.normalize(entry.Index)
		if err != nil {
			batch.skip(Diagnostic{Index: entry.Index, ID: string(raw.ID), Kind: DiagnosticInvalid, Reason: err.Error()})
			continue
		}

		if winner, ok := byID[strings.ToLower(record.ID)]; ok {
			batch.duplicate(Diagnostic{
				Index:  entry.Index,
				ID:     record.ID,
				Kind:   DiagnosticDuplicate,
				Reason: fmt.Sprintf("identity key already used by %s", winner),
			})
			continue
		}

		sciKey := scientificKey(record.ScientificName)
		if sciKey != "" {
			if winner, ok := byScientific[sciKey]; ok {
				batch.duplicate(Diagnostic{
					Index:  entry.Index,
					ID:     record.ID,
					Kind:   DiagnosticDuplicate,
					Reason: fmt.Sprintf("scientific name %q already used by %s", record.ScientificName, winner),
				})
				continue
			}
			byScientific[sciKey] = record.ID
		}
		byID[strings.ToLower(record.ID)] = record.ID

		for _, w := range warnings {
			batch.Diagnostics = append(batch.Diagnostics, Diagnostic{Index: entry.Index, ID: record.ID, Kind: DiagnosticWarning, Reason: w})
		}
		batch.Records = append(batch.Records, record)
		batch.Accepted++
	}

	return batch
}

func (b *Batch) skip(d Diagnostic) {
	b.Diagnostics = append(b.Diagnostics, d)
	b.Skipped++
}

func (b *Batch) duplicate(d Diagnostic) {
	b.Diagnostics = append(b.Diagnostics, d)
	b.Duplicates++
}

func (raw *rawEntry) normalize(index int) (Record, []string, error) {
	var warnings []string

	category := normalizeCategory(string(raw.Category))
	if category == "" {
		category = normalizeCategory(string(raw.Type))
	}
	if category == "" {
		return Record{}, nil, errors.New("missing category")
	}

	name := collapse(string(raw.Name))
	if name == "" {
		return Record{}, nil, errors.New("missing name")
	}

	origin := strings.ToUpper(collapse(string(raw.Origin)))
	if origin != OriginNative && origin != OriginIntroduced {
		return Record{}, nil, fmt.Errorf("origin %q is not %s or %s", string(raw.Origin), OriginNative, OriginIntroduced)
	}

	id := string(raw.ID)
	if id == "" {
		id = fmt.Sprintf("%s-%d", category, index)
	} else if !idPattern.MatchString(id) {
		return Record{}, nil, fmt.Errorf("malformed identity key %q", id)
	}

	scores := []struct {
		name  string
		score Score
	}{
		{"nutritionScore", raw.NutritionScore},
		{"efficacyScore", raw.EfficacyScore},
		{"commercialValue", raw.CommercialValue},
	}
	for _, s := range scores {
		if s.score.Set && (s.score.Value < MinScore || s.score.Value > MaxScore) {
			return Record{}, nil, fmt.Errorf("%s %v outside [%v, %v]", s.name, s.score.Value, MinScore, MaxScore)
		}
	}

	months, dropped := parseMonths(raw.HarvestMonths.Values())
	for _, d := range dropped {
		warnings = append(warnings, fmt.Sprintf("ignored harvest month %q", d))
	}

	record := Record{
		ID:              id,
		Name:            name,
		ScientificName:  collapse(string(raw.ScientificName)),
		Category:        category,
		Origin:          origin,
		Color:           string(raw.Color),
		NutritionScore:  raw.NutritionScore.Ptr(),
		EfficacyScore:   raw.EfficacyScore.Ptr(),
		CommercialValue: raw.CommercialValue.Ptr(),
		Description:     string(raw.Description),
		DetailedInfo:    string(raw.DetailedInfo),
		Region:          collapse(string(raw.Region)),
		Spacing:         string(raw.Spacing),
		Climate:         string(raw.Climate),
		SoilType:        string(raw.SoilType),
		Warning:         string(raw.Warning),
		Uses:            raw.Uses.Values(),
		HarvestMonths:   months,
		Certifications:  canonical(append(raw.Certification.Values(), raw.Certifications.Values()...)),
		Keywords:        raw.Keywords.Values(),
	}

	if c := raw.Cultivation; c != nil {
		record.Spacing = firstNonEmpty(record.Spacing, string(c.Spacing))
		record.Climate = firstNonEmpty(record.Climate, string(c.Climate))
		record.SoilType = firstNonEmpty(record.SoilType, string(c.SoilType))
	}

	if record.Warning != "" {
		severity := strings.ToUpper(collapse(string(raw.Severity)))
		if severity != "" && !severities[severity] {
			warnings = append(warnings, fmt.Sprintf("unknown severity %q kept as-is", string(raw.Severity)))
		}
		record.Severity = severity
	}

	return record, warnings, nil
}

// parseMonths keeps months 1-12 given as numbers or month names, sorted and
// unique, and returns the values it could not use.
func parseMonths(values []string) ([]int, []string) {
	seen := make(map[int]bool)
	months := make([]int, 0, len(values))
	var dropped []string

	for _, v := range values {
		m, ok := parseMonth(v)
		if !ok {
			dropped = append(dropped, v)
			continue
		}
		if !seen[m] {
			seen[m] = true
			months = append(months, m)
		}
	}
	sort.Ints(months)
	return months, dropped
}

func parseMonth(v string) (int, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	if m, ok := monthNames[v]; ok {
		return m, true
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f != float64(int(f)) {
		return 0, false
	}
	m := int(f)
	return m, m >= 1 && m <= 12
}

func normalizeCategory(v string) string {
	return strings.ToUpper(strings.Join(strings.Fields(v), "_"))
}

func scientificKey(name string) string {
	return strings.ToLower(collapse(name))
}

func collapse(v string) string {
	return strings.Join(strings.Fields(v), " ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
