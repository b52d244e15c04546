package engine

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckCleanDocument(t *testing.T) {
	issues := New().Check("[a] = [C]\n[b] = [a][a]\n", "doc.frag")
	assert.Empty(t, issues)
}

func TestCheckSelfReferenceCoversDefinition(t *testing.T) {
	issues := New().Check("[a] = [a]\n", "doc.frag")
	require.Len(t, issues, 1)

	issue := issues[0]
	assert.Equal(t, KindCircular, issue.Kind)
	assert.Equal(t, 1, issue.Line)
	assert.Equal(t, 1, issue.Column)
	assert.Equal(t, 10, issue.EndColumn)
}

func TestCheckUndefinedReference(t *testing.T) {
	issues := New().Check("[a] = [ghost]\n", "doc.frag")
	require.Len(t, issues, 1)
	assert.Equal(t, KindUndefinedRef, issues[0].Kind)
}

func TestCheckChemistryIsSeparateFromSyntax(t *testing.T) {
	issues := New().Check("[a] = [Qq]\n", "doc.frag")
	require.Len(t, issues, 1)
	assert.Equal(t, KindChemistry, issues[0].Kind)
}

func TestCheckSyntaxError(t *testing.T) {
	issues := New().Check("this is not a definition\n", "doc.frag")
	require.Len(t, issues, 1)
	assert.Equal(t, KindSyntax, issues[0].Kind)
	assert.Equal(t, 1, issues[0].Line)
}

func TestCheckIsIdempotent(t *testing.T) {
	text := "[a] = [C]\n[b] = [ghost]\n[b] = [O]\nnonsense\n"
	path := filepath.Join(t.TempDir(), "doc.frag")

	first := New().Check(text, path)
	second := New().Check(text, path)
	assert.Equal(t, first, second)
	assert.NotEmpty(t, first)
}
