package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDefault(t *testing.T) *Catalog {
	t.Helper()
	c, err := Default()
	require.NoError(t, err)
	return c
}

func TestCanonicalize(t *testing.T) {
	t.Parallel()
	c := mustDefault(t)

	cases := []struct {
		locator string
		want    string
		matched bool
	}{
		{"https://grants.nih.gov/grants/guide/pa-files/pa-25-301.html", "PA-25-301", true},
		{"PAR-24-123", "PAR-24-123", true},
		{"see RFA-CA-25-011 for details", "RFA-CA-25-011", true},
		{"NOT-OD-24-086", "NOT-OD-24-086", true},
		{"parent r21 announcement", "R21", true},
		{"  custom-opportunity  ", "custom-opportunity", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, matched := c.Canonicalize(tc.locator)
		assert.Equal(t, tc.want, got, tc.locator)
		assert.Equal(t, tc.matched, matched, tc.locator)
	}
}

func TestClassifyPriority(t *testing.T) {
	t.Parallel()
	c := mustDefault(t)

	assert.Equal(t, "Research Project Grant (R01)", c.Classify("R01"))
	assert.Equal(t, "Exploratory/Developmental Grant (R21)", c.Classify("R21"))
	assert.Equal(t, "Career Development Award", c.Classify("K08"))
	assert.Equal(t, "Fellowship", c.Classify("F31"))
	assert.Equal(t, "Program Project/Center", c.Classify("PA-25-301"))
	assert.Equal(t, "Research Grant", c.Classify("XYZ-1"))
	assert.Equal(t, "Unknown", c.Classify(""))
}

func TestRequirementsOverlay(t *testing.T) {
	t.Parallel()
	c := mustDefault(t)

	r01 := c.Requirements("R01")
	assert.Len(t, r01.RequiredDocuments, 13)
	assert.Equal(t, 12, r01.PageLimits["researchStrategy"])
	require.NotNil(t, r01.BudgetRules.DirectCostsLimit)
	assert.Equal(t, 500000, *r01.BudgetRules.DirectCostsLimit)
	assert.Equal(t, 25000, r01.BudgetRules.ModulesOf)

	other := c.Requirements("R21")
	assert.Empty(t, other.PageLimits)
	assert.Nil(t, other.BudgetRules.DirectCostsLimit)
	assert.Equal(t, "11 points or larger", other.FormattingRules["fontSize"])

	// Mutating one result must not leak into the catalog.
	*r01.RequiredDocuments[0].MaxPages = 99
	r01.FormattingRules["font"] = "Comic Sans"
	again := c.Requirements("R01")
	assert.Equal(t, 1, *again.RequiredDocuments[0].MaxPages)
	assert.NotEqual(t, "Comic Sans", again.FormattingRules["font"])
}

func TestDefaultRequirements(t *testing.T) {
	t.Parallel()
	c := mustDefault(t)

	set := c.DefaultRequirements("")
	assert.Len(t, set.RequiredDocuments, 5)
	assert.Equal(t, "Unknown", set.MechanismType)
	assert.Equal(t, map[string]int{"specificAims": 1, "researchStrategy": 12}, set.PageLimits)
	assert.NotEmpty(t, set.Note)
}

func TestSectionsForFilename(t *testing.T) {
	t.Parallel()
	c := mustDefault(t)

	names := func(file string) []string {
		var out []string
		for _, s := range c.SectionsForFilename(file) {
			out = append(out, s.Name)
		}
		return out
	}

	assert.Equal(t, []string{"Specific Aims"}, names("Specific_Aims_v2.pdf"))
	assert.Equal(t, []string{"Budget"}, names("BUDGET.pdf"))
	assert.Equal(t, []string{"Data Management Plan"}, names("data-management.pdf"))
	assert.Empty(t, names("data.pdf"))
}

func TestListingURL(t *testing.T) {
	t.Parallel()
	c := mustDefault(t)

	assert.Equal(t, "https://grants.nih.gov/grants/guide/pa-files/PA-25-301.html", c.ListingURL("PA-25-301"))
	assert.Empty(t, c.ListingURL(""))
}

func TestLoadOverride(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
numberingTemplates:
  - {name: bad, pattern: "("}
fallback:
  documents: [{name: Narrative, required: true}]
`), 0o600))
	_, err := Load(path)
	require.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`
fallback:
  documents: [{name: Narrative, required: true}]
`), 0o600))
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Narrative", c.DefaultRequirements("").RequiredDocuments[0].Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
