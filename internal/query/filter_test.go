package query_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deidaraiorek/botanica/internal/query"
)

func TestParseFilter(t *testing.T) {
	limits := query.DefaultLimits

	tests := []struct {
		name  string
		query string
		check func(t *testing.T, f query.Filter)
	}{
		{
			name:  "empty",
			query: "",
			check: func(t *testing.T, f query.Filter) {
				assert.Equal(t, query.Filter{Limit: 100}, f)
			},
		},
		{
			name:  "category and origin upper-cased",
			query: "category=fruits&origin=native",
			check: func(t *testing.T, f query.Filter) {
				require.NotNil(t, f.Category)
				assert.Equal(t, "FRUITS", *f.Category)
				require.NotNil(t, f.Origin)
				assert.Equal(t, "NATIVE", *f.Origin)
			},
		},
		{
			name:  "type alias",
			query: "type=HERBS",
			check: func(t *testing.T, f query.Filter) {
				require.NotNil(t, f.Category)
				assert.Equal(t, "HERBS", *f.Category)
			},
		},
		{
			name:  "ALL means no constraint",
			query: "category=ALL&origin=all",
			check: func(t *testing.T, f query.Filter) {
				assert.Nil(t, f.Category)
				assert.Nil(t, f.Origin)
			},
		},
		{
			name:  "has warning false",
			query: "hasWarning=false",
			check: func(t *testing.T, f query.Filter) {
				require.NotNil(t, f.HasWarning)
				assert.False(t, *f.HasWarning)
			},
		},
		{
			name:  "garbled values dropped",
			query: "hasWarning=maybe&minNutrition=high&harvestMonth=june&limit=lots&offset=x",
			check: func(t *testing.T, f query.Filter) {
				assert.Equal(t, query.Filter{Limit: 100}, f)
			},
		},
		{
			name:  "month out of range ignored",
			query: "harvestMonth=13",
			check: func(t *testing.T, f query.Filter) {
				assert.Nil(t, f.HarvestMonth)
			},
		},
		{
			name:  "numeric filters",
			query: "minNutrition=8.5&harvestMonth=6",
			check: func(t *testing.T, f query.Filter) {
				require.NotNil(t, f.MinNutrition)
				assert.Equal(t, 8.5, *f.MinNutrition)
				require.NotNil(t, f.HarvestMonth)
				assert.Equal(t, 6, *f.HarvestMonth)
			},
		},
		{
			name:  "limit clamped",
			query: "limit=10000",
			check: func(t *testing.T, f query.Filter) {
				assert.Equal(t, 500, f.Limit)
			},
		},
		{
			name:  "non-positive limit uses default",
			query: "limit=0",
			check: func(t *testing.T, f query.Filter) {
				assert.Equal(t, 100, f.Limit)
			},
		},
		{
			name:  "negative offset",
			query: "offset=-5",
			check: func(t *testing.T, f query.Filter) {
				assert.Equal(t, 0, f.Offset)
			},
		},
		{
			name:  "region and search trimmed",
			query: "region=+Norte+&search=%20mango%20",
			check: func(t *testing.T, f query.Filter) {
				require.NotNil(t, f.Region)
				assert.Equal(t, "Norte", *f.Region)
				require.NotNil(t, f.Search)
				assert.Equal(t, "mango", *f.Search)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.query)
			require.NoError(t, err)
			tt.check(t, query.ParseFilter(values, limits))
		})
	}
}

func TestLimitsClamp(t *testing.T) {
	assert.Equal(t, query.Filter{Limit: 100}, query.Limits{}.Clamp(query.Filter{}))
	assert.Equal(t, query.Filter{Limit: 500}, query.Limits{}.Clamp(query.Filter{Limit: 9999, Offset: -1}))
	assert.Equal(t, query.Filter{Limit: 10}, query.Limits{Default: 50, Max: 10}.Clamp(query.Filter{}))
	assert.Equal(t, query.Filter{Limit: 7, Offset: 4}, query.DefaultLimits.Clamp(query.Filter{Limit: 7, Offset: 4}))
}

func TestFilterSignature(t *testing.T) {
	parse := func(raw string) query.Filter {
		values, err := url.ParseQuery(raw)
		require.NoError(t, err)
		return query.ParseFilter(values, query.DefaultLimits)
	}

	assert.Equal(t,
		parse("category=fruits&harvestMonth=6").Signature(),
		parse("harvestMonth=6&type=FRUITS").Signature(),
	)
	assert.NotEqual(t,
		parse("category=fruits").Signature(),
		parse("category=fruits&offset=100").Signature(),
	)
	assert.NotEqual(t,
		parse("hasWarning=true").Signature(),
		parse("hasWarning=false").Signature(),
	)
	assert.NotEqual(t,
		parse("region=a").Signature(),
		parse("search=a").Signature(),
	)
}
