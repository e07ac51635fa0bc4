package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Entity is a fully hydrated catalog record as served to callers.
type Entity struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	ScientificName  string    `json:"scientificName"`
	Category        string    `json:"category"`
	Origin          string    `json:"origin"`
	Color           string    `json:"color,omitempty"`
	NutritionScore  *float64  `json:"nutritionScore"`
	EfficacyScore   *float64  `json:"efficacyScore"`
	CommercialValue *float64  `json:"commercialValue"`
	Description     string    `json:"description"`
	DetailedInfo    string    `json:"detailedInfo"`
	Region          string    `json:"region"`
	Spacing         string    `json:"spacing,omitempty"`
	Climate         string    `json:"climate,omitempty"`
	SoilType        string    `json:"soilType,omitempty"`
	Warning         *string   `json:"warning"`
	Severity        *string   `json:"severity"`
	CreatedAt       time.Time `json:"createdAt"`

	Uses           []string `json:"uses"`
	HarvestMonths  []int    `json:"harvestMonths"`
	Certifications []string `json:"certification"`
	Keywords       []string `json:"keywords"`
}

const entityColumns = `id, name, scientific_name, category, origin, color,
	nutrition_score, efficacy_score, commercial_value,
	description, detailed_info, region, spacing, climate, soil_type,
	warning, severity, created_at`

// hydrateChunk bounds the number of bound parameters per IN (...) query.
const hydrateChunk = 500

// GetEntity returns the hydrated entity or ErrNotFound.
func (s *Store) GetEntity(ctx context.Context, id string) (*Entity, error) {
	entities, err := Hydrate(ctx, s.db, []string{id})
	if err != nil {
		return nil, err
	}
	if len(entities) == 0 {
		return nil, ErrNotFound
	}
	return &entities[0], nil
}

// Hydrate loads the entities with the given ids, with all four relation sets,
// in the order of ids. Ids that do not exist are left out.
func Hydrate(ctx context.Context, q Queryer, ids []string) ([]Entity, error) {
	if len(ids) == 0 {
		return []Entity{}, nil
	}

	byID := make(map[string]*Entity, len(ids))
	for start := 0; start < len(ids); start += hydrateChunk {
		end := min(start+hydrateChunk, len(ids))
		if err := loadChunk(ctx, q, ids[start:end], byID); err != nil {
			return nil, err
		}
	}

	entities := make([]Entity, 0, len(byID))
	for _, id := range ids {
		if e, ok := byID[id]; ok {
			entities = append(entities, *e)
		}
	}
	return entities, nil
}

func loadChunk(ctx context.Context, q Queryer, ids []string, byID map[string]*Entity) error {
	placeholders, args := inClause(ids)

	rows, err := q.QueryContext(ctx,
		"SELECT "+entityColumns+" FROM entities WHERE id IN ("+placeholders+")",
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to query entities: %w", err)
	}
	defer rows.Close()

	var found []string
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return fmt.Errorf("failed to scan entity: %w", err)
		}
		byID[e.ID] = e
		found = append(found, e.ID)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating entities: %w", err)
	}
	if len(found) == 0 {
		return nil
	}

	placeholders, args = inClause(found)

	if err := loadStrings(ctx, q, "entity_uses", "use_name", placeholders, args, func(e *Entity, v string) {
		e.Uses = append(e.Uses, v)
	}, byID); err != nil {
		return err
	}
	if err := loadStrings(ctx, q, "certifications", "certification", placeholders, args, func(e *Entity, v string) {
		e.Certifications = append(e.Certifications, v)
	}, byID); err != nil {
		return err
	}
	if err := loadStrings(ctx, q, "keywords", "keyword", placeholders, args, func(e *Entity, v string) {
		e.Keywords = append(e.Keywords, v)
	}, byID); err != nil {
		return err
	}
	return loadMonths(ctx, q, placeholders, args, byID)
}

// loadStrings reads one text relation table; table and column are constants
// from this package, never caller input.
func loadStrings(ctx context.Context, q Queryer, table, column, placeholders string, args []any, add func(*Entity, string), byID map[string]*Entity) error {
	rows, err := q.QueryContext(ctx,
		fmt.Sprintf("SELECT entity_id, %s FROM %s WHERE entity_id IN (%s) ORDER BY entity_id, position", column, table, placeholders),
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, value string
		if err := rows.Scan(&id, &value); err != nil {
			return fmt.Errorf("failed to scan %s: %w", table, err)
		}
		if e, ok := byID[id]; ok {
			add(e, value)
		}
	}
	return rows.Err()
}

func loadMonths(ctx context.Context, q Queryer, placeholders string, args []any, byID map[string]*Entity) error {
	rows, err := q.QueryContext(ctx,
		"SELECT entity_id, month FROM harvest_months WHERE entity_id IN ("+placeholders+") ORDER BY entity_id, month",
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to query harvest_months: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var month int
		if err := rows.Scan(&id, &month); err != nil {
			return fmt.Errorf("failed to scan harvest_months: %w", err)
		}
		if e, ok := byID[id]; ok {
			e.HarvestMonths = append(e.HarvestMonths, month)
		}
	}
	return rows.Err()
}

func scanEntity(rows *sql.Rows) (*Entity, error) {
	var (
		e                                  Entity
		scientific, color, description     sql.NullString
		detailed, region, spacing, climate sql.NullString
		soil, warning, severity            sql.NullString
		nutrition, efficacy, commercial    sql.NullFloat64
		createdAt                          sql.NullTime
	)

	err := rows.Scan(
		&e.ID, &e.Name, &scientific, &e.Category, &e.Origin, &color,
		&nutrition, &efficacy, &commercial,
		&description, &detailed, &region, &spacing, &climate, &soil,
		&warning, &severity, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	e.ScientificName = scientific.String
	e.Color = color.String
	e.NutritionScore = floatPtr(nutrition)
	e.EfficacyScore = floatPtr(efficacy)
	e.CommercialValue = floatPtr(commercial)
	e.Description = description.String
	e.DetailedInfo = detailed.String
	e.Region = region.String
	e.Spacing = spacing.String
	e.Climate = climate.String
	e.SoilType = soil.String
	e.Warning = stringPtr(warning)
	e.Severity = stringPtr(severity)
	e.CreatedAt = createdAt.Time

	e.Uses = []string{}
	e.HarvestMonths = []int{}
	e.Certifications = []string{}
	e.Keywords = []string{}
	return &e, nil
}

func inClause(ids []string) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.TrimSuffix(strings.Repeat("?,", len(ids)), ","), args
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid || v.String == "" {
		return nil
	}
	s := v.String
	return &s
}
