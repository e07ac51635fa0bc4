package catalog_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deidaraiorek/botanica/internal/catalog"
)

const jsCatalog = `// Botanical catalog
const allItems = [
  {
    id: 'F1',
    name: 'Açaí',
    scientificName: "Euterpe oleracea",
    type: 'FRUITS',
    origin: 'NATIVE',
    nutritionScore: 9.0,
    uses: ['Juice', 'Food', 'juice'],
    harvestMonths: [1, 6, 12],
    certification: 'Organic; Fair Trade',
    keywords: { superfood: true, palm: 1, berry: false },
    warning: undefined,
  },
  /* second */
  { id: 'F2' name: 'Broken' },
  {
    name: 'Cashew',
    scientificName: 'Anacardium occidentale',
    type: 'fruits',
    origin: 'native',
    harvestMonths: 'sep, oct, 13',
    detailedInfo: 'Contains "urushiol" in the shell, it\'s toxic raw',
  },
];

export default allItems;
`

func TestParseSourceJavaScript(t *testing.T) {
	nodes, err := catalog.ParseSource("data.js", []byte(jsCatalog))
	require.NoError(t, err)
	require.Len(t, nodes, 3)

	assert.NoError(t, nodes[0].Err)
	assert.Error(t, nodes[1].Err)
	assert.NoError(t, nodes[2].Err)
	assert.Equal(t, []int{1, 2, 3}, []int{nodes[0].Index, nodes[1].Index, nodes[2].Index})
}

func TestNormalizeJavaScriptCatalog(t *testing.T) {
	nodes, err := catalog.ParseSource("data.js", []byte(jsCatalog))
	require.NoError(t, err)

	batch := catalog.Normalize(nodes)

	assert.Equal(t, 2, batch.Accepted)
	assert.Equal(t, 1, batch.Skipped)
	assert.Equal(t, 0, batch.Duplicates)
	require.Len(t, batch.Records, 2)

	acai := batch.Records[0]
	assert.Equal(t, "F1", acai.ID)
	assert.Equal(t, "Açaí", acai.Name)
	assert.Equal(t, "FRUITS", acai.Category)
	require.NotNil(t, acai.NutritionScore)
	assert.Equal(t, 9.0, *acai.NutritionScore)
	assert.Nil(t, acai.EfficacyScore)
	assert.Equal(t, []string{"Juice", "Food"}, acai.Uses)
	assert.Equal(t, []int{1, 6, 12}, acai.HarvestMonths)
	assert.Equal(t, []string{"Organic", "Fair Trade"}, acai.Certifications)
	assert.Equal(t, []string{"superfood", "palm"}, acai.Keywords)
	assert.Empty(t, acai.Warning)

	cashew := batch.Records[1]
	assert.Equal(t, "FRUITS-3", cashew.ID)
	assert.Equal(t, "NATIVE", cashew.Origin)
	assert.Equal(t, []int{9, 10}, cashew.HarvestMonths)
	assert.Equal(t, `Contains "urushiol" in the shell, it's toxic raw`, cashew.DetailedInfo)

	var kinds []catalog.DiagnosticKind
	for _, d := range batch.Diagnostics {
		kinds = append(kinds, d.Kind)
	}
	assert.ElementsMatch(t, []catalog.DiagnosticKind{catalog.DiagnosticParse, catalog.DiagnosticWarning}, kinds)
}

func TestParseSourceJSONContainer(t *testing.T) {
	doc := `{"plants": [
  {"id": "H1", "name": "Mint", "type": "HERBS", "origin": "INTRODUCED"},
  {"id": "H2", "name": "Basil", "type": "HERBS", "origin": "INTRODUCED"}
]}`

	nodes, err := catalog.ParseSource("plants.json", []byte(doc))
	require.NoError(t, err)
	require.Len(t, nodes, 2)

	batch := catalog.Normalize(nodes)
	assert.Equal(t, 2, batch.Accepted)
}

func TestParseSourceJSONFallsBackToLiteral(t *testing.T) {
	doc := `[
  {"id": "H1", "name": "Mint", "type": "HERBS", "origin": "INTRODUCED"},
  {"id": "H2", "name": "Basil" "type": "HERBS"}
]`

	nodes, err := catalog.ParseSource("plants.json", []byte(doc))
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.NoError(t, nodes[0].Err)
	assert.Error(t, nodes[1].Err)
}

func TestParseSourceYAML(t *testing.T) {
	doc := `
- id: T1
  name: Ipê
  category: trees
  origin: NATIVE
  uses: [timber, ornamental]
- id: T2
  name: Eucalyptus
  category: trees
  origin: INTRODUCED
`
	nodes, err := catalog.ParseSource("catalog.yaml", []byte(doc))
	require.NoError(t, err)
	require.Len(t, nodes, 2)

	batch := catalog.Normalize(nodes)
	require.Len(t, batch.Records, 2)
	assert.Equal(t, "TREES", batch.Records[0].Category)
	assert.Equal(t, []string{"timber", "ornamental"}, batch.Records[0].Uses)
}

func TestParseSourceWithoutArray(t *testing.T) {
	_, err := catalog.ParseSource("data.js", []byte("const nothing = 1;"))
	assert.Error(t, err)
}

func TestReadSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.js")
	require.NoError(t, os.WriteFile(path, []byte(jsCatalog), 0o644))

	nodes, err := catalog.ReadSource(path)
	require.NoError(t, err)
	assert.Len(t, nodes, 3)

	_, err = catalog.ReadSource(filepath.Join(t.TempDir(), "missing.js"))
	assert.Error(t, err)
}
