package storage_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deidaraiorek/botanica/internal/catalog"
	"github.com/deidaraiorek/botanica/internal/storage"
)

func TestLoadHydratesRelations(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	report, err := newLoader(t, store).Load(ctx, sampleRecords())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Inserted)
	assert.Zero(t, report.Errored)
	assert.Equal(t, 3, report.UsesLinked)
	assert.Equal(t, 2, report.MonthsLinked)
	assert.Equal(t, 1, report.CertificationsLinked)
	assert.Equal(t, 1, report.KeywordsLinked)
	assert.Positive(t, report.TermsPosted)

	mango, err := store.GetEntity(ctx, "F1")
	require.NoError(t, err)
	assert.Equal(t, "Mango", mango.Name)
	assert.Equal(t, []string{"juice", "dessert"}, mango.Uses)
	assert.Equal(t, []int{6, 7}, mango.HarvestMonths)
	assert.Equal(t, []string{"tropical"}, mango.Keywords)
	assert.Empty(t, mango.Certifications)
	require.NotNil(t, mango.NutritionScore)
	assert.Equal(t, 9.0, *mango.NutritionScore)
	assert.Nil(t, mango.EfficacyScore)
	assert.Nil(t, mango.Warning)
	assert.Nil(t, mango.Severity)
	assert.False(t, mango.CreatedAt.IsZero())

	arnica, err := store.GetEntity(ctx, "H1")
	require.NoError(t, err)
	require.NotNil(t, arnica.Warning)
	assert.Equal(t, "Toxic if ingested", *arnica.Warning)
	require.NotNil(t, arnica.Severity)
	assert.Equal(t, "HIGH", *arnica.Severity)
}

func TestEntityJSONUsesEmptySets(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	_, err := newLoader(t, store).Load(ctx, []catalog.Record{
		{ID: "X1", Name: "Bare", Category: "HERBS", Origin: catalog.OriginNative},
	})
	require.NoError(t, err)

	entity, err := store.GetEntity(ctx, "X1")
	require.NoError(t, err)

	data, err := json.Marshal(entity)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	for _, key := range []string{"uses", "harvestMonths", "certification", "keywords"} {
		assert.Equal(t, []any{}, decoded[key], key)
	}
	assert.Nil(t, decoded["warning"])
}

func TestGetEntityNotFound(t *testing.T) {
	store := openStore(t)

	_, err := store.GetEntity(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLoadErrorDoesNotRollBackOthers(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	records := sampleRecords()
	records = append(records,
		catalog.Record{
			ID: "BAD1", Name: "Broken month", Category: "FRUITS", Origin: catalog.OriginNative,
			Uses: []string{"orphan-use"}, HarvestMonths: []int{13},
		},
		catalog.Record{
			ID: "F1", Name: "Second mango", Category: "FRUITS", Origin: catalog.OriginNative,
		},
		catalog.Record{
			ID: "V1", Name: "Cassava", Category: "VEGETABLES", Origin: catalog.OriginNative,
		},
	)

	report, err := newLoader(t, store).Load(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Inserted)
	assert.Equal(t, 2, report.Errored)
	require.Len(t, report.Errors, 2)
	assert.Equal(t, "BAD1", report.Errors[0].ID)
	assert.Equal(t, "F1", report.Errors[1].ID)

	_, err = store.GetEntity(ctx, "BAD1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	mango, err := store.GetEntity(ctx, "F1")
	require.NoError(t, err)
	assert.Equal(t, "Mango", mango.Name, "first write wins")

	_, err = store.GetEntity(ctx, "V1")
	require.NoError(t, err)

	var orphans int
	require.NoError(t, store.DB().QueryRow(
		"SELECT COUNT(*) FROM entity_uses WHERE use_name = 'orphan-use'",
	).Scan(&orphans))
	assert.Zero(t, orphans)

	integrity, err := store.CheckIntegrity(ctx)
	require.NoError(t, err)
	assert.True(t, integrity.Clean(), "%+v", integrity)
}

func TestReferentialIntegrity(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	_, err := newLoader(t, store).Load(ctx, sampleRecords())
	require.NoError(t, err)

	_, err = store.DB().Exec("INSERT INTO keywords (entity_id, position, keyword) VALUES ('ghost', 0, 'x')")
	assert.Error(t, err, "foreign keys are enforced")

	_, err = store.DB().Exec("DELETE FROM entities WHERE id = 'F1'")
	require.NoError(t, err)

	integrity, err := store.CheckIntegrity(ctx)
	require.NoError(t, err)
	assert.True(t, integrity.Clean(), "%+v", integrity)

	var mirrors int
	require.NoError(t, store.DB().QueryRow("SELECT COUNT(*) FROM entity_search").Scan(&mirrors))
	assert.Equal(t, 1, mirrors)
}

func TestHydrateKeepsOrder(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	_, err := newLoader(t, store).Load(ctx, sampleRecords())
	require.NoError(t, err)

	entities, err := storage.Hydrate(ctx, store.DB(), []string{"H1", "missing", "F1"})
	require.NoError(t, err)
	require.Len(t, entities, 2)
	assert.Equal(t, "H1", entities[0].ID)
	assert.Equal(t, "F1", entities[1].ID)

	entities, err = storage.Hydrate(ctx, store.DB(), nil)
	require.NoError(t, err)
	assert.Empty(t, entities)
}

func TestSearchPostings(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	_, err := newLoader(t, store).Load(ctx, sampleRecords())
	require.NoError(t, err)

	postings, err := storage.SearchPostings(ctx, store.DB(), []string{"mango"}, nil)
	require.NoError(t, err)
	require.Len(t, postings, 1)
	assert.Equal(t, "F1", postings[0].EntityID)
	assert.Equal(t, storage.WeightName, postings[0].TermFrequency)
	assert.Equal(t, 1, postings[0].DocumentFrequency)

	postings, err = storage.SearchPostings(ctx, store.DB(), nil, []string{"arn"})
	require.NoError(t, err)
	require.NotEmpty(t, postings)
	for _, p := range postings {
		assert.Equal(t, "H1", p.EntityID)
	}

	ids, err := storage.SearchMirrorMatches(ctx, store.DB(), "GIFERA")
	require.NoError(t, err)
	assert.Equal(t, []string{"F1"}, ids)

	ids, err = storage.SearchMirrorMatches(ctx, store.DB(), "100%")
	require.NoError(t, err)
	assert.Empty(t, ids)

	n, err := storage.MirrorCount(ctx, store.DB())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestStatsAndCategories(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	records := append(sampleRecords(), catalog.Record{
		ID: "F2", Name: "Guava", Category: "FRUITS", Origin: catalog.OriginNative,
		NutritionScore: score(7), Uses: []string{"Juice"},
	})
	_, err := newLoader(t, store).Load(ctx, records)
	require.NoError(t, err)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, map[string]int{"FRUITS": 2, "HERBS": 1}, stats.ByCategory)
	assert.Equal(t, map[string]int{"NATIVE": 2, "INTRODUCED": 1}, stats.ByOrigin)
	assert.Equal(t, 1, stats.WithWarnings)
	require.NotNil(t, stats.AvgNutrition)
	assert.InDelta(t, 8.0, *stats.AvgNutrition, 1e-9)
	require.NotNil(t, stats.AvgEfficacy)
	assert.InDelta(t, 7.5, *stats.AvgEfficacy, 1e-9)
	assert.Nil(t, stats.AvgCommercial)
	assert.Equal(t, 3, stats.UniqueUses)
	assert.Equal(t, 1, stats.UniqueKeywords)
	assert.Equal(t, 1, stats.UniqueCertifications)

	categories, err := store.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []storage.CategoryCount{
		{Name: "FRUITS", Count: 2},
		{Name: "HERBS", Count: 1},
	}, categories)
}
