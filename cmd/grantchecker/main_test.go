package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentRef(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Budget.pdf")
	require.NoError(t, os.WriteFile(path, []byte("12345"), 0o600))

	doc, err := documentRef(path)
	require.NoError(t, err)
	assert.Equal(t, "Budget.pdf", doc.Name)
	assert.Equal(t, path, doc.Path)
	assert.EqualValues(t, 5, doc.Size)

	_, err = documentRef(dir)
	require.Error(t, err)

	_, err = documentRef(filepath.Join(dir, "absent.pdf"))
	require.Error(t, err)
}

func TestCheckRequiresRequirementSource(t *testing.T) {
	requirementURL, requirementDoc = "", ""
	err := runCheck(checkCmd, []string{"Budget.pdf"})
	require.ErrorContains(t, err, "--url or --requirement-doc")
}
