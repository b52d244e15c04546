package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"alembic/internal/engine"
	"alembic/internal/modload"
	"alembic/internal/resolve"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	results []*resolve.Result
}

func (r *recorder) record(result *resolve.Result) {
	r.results = append(r.results, result)
}

func (r *recorder) last(t *testing.T) *resolve.Result {
	t.Helper()
	require.NotEmpty(t, r.results)
	return r.results[len(r.results)-1]
}

func newSession(t *testing.T) (*Session, *recorder) {
	t.Helper()
	loader, err := modload.NewLoader()
	require.NoError(t, err)
	t.Cleanup(loader.Close)

	s := New(engine.New(), loader)
	rec := &recorder{}
	s.Bus().Subscribe(rec.record)
	return s, rec
}

func TestNoopBeforeAnyDocument(t *testing.T) {
	s, rec := newSession(t)
	ctx := context.Background()

	s.CursorMoved(ctx, 3)
	s.ActiveViewChanged(ctx, "/nowhere.frag", 0)
	assert.Empty(t, rec.results, "nothing observed, nothing published")
}

func TestCursorResolvesDefinition(t *testing.T) {
	s, rec := newSession(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "doc.frag")

	s.DocumentOpened(path, "[a] = [C]\n[b] = [a][a]\n")
	s.ActiveViewChanged(ctx, path, 1)

	result := rec.last(t)
	require.NotNil(t, result)
	assert.Equal(t, "b", result.Name)
	assert.Equal(t, "[C][C]", result.Encoded)
	assert.Empty(t, result.Error)
}

func TestCursorMoveToNonDefinitionPublishesNil(t *testing.T) {
	s, rec := newSession(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "doc.frag")

	s.DocumentOpened(path, "[a] = [C]\n\n# trailing comment\n")
	s.ActiveViewChanged(ctx, path, 0)
	require.NotNil(t, rec.last(t))

	s.CursorMoved(ctx, 1)
	assert.Nil(t, rec.last(t), "blank line")

	s.CursorMoved(ctx, 2)
	assert.Nil(t, rec.last(t), "comment line")
}

func TestUnchangedCursorLineIsSuppressed(t *testing.T) {
	s, rec := newSession(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "doc.frag")

	s.DocumentOpened(path, "[a] = [C]\n")
	s.ActiveViewChanged(ctx, path, 0)
	published := len(rec.results)

	s.CursorMoved(ctx, 0)
	assert.Len(t, rec.results, published, "same line must not re-publish")
}

func TestDocumentSwitchAtSameLineRetriggers(t *testing.T) {
	s, rec := newSession(t)
	ctx := context.Background()
	dir := t.TempDir()
	first := filepath.Join(dir, "first.frag")
	second := filepath.Join(dir, "second.frag")

	s.DocumentOpened(first, "[a] = [C]\n")
	s.DocumentOpened(second, "[z] = [O]\n")

	s.ActiveViewChanged(ctx, first, 0)
	assert.Equal(t, "a", rec.last(t).Name)

	// same line number, different document identity
	s.ActiveViewChanged(ctx, second, 0)
	assert.Equal(t, "z", rec.last(t).Name)
}

func TestEditInvalidatesMemoizedResolution(t *testing.T) {
	s, rec := newSession(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "doc.frag")

	s.DocumentOpened(path, "[a] = [C]\n")
	s.ActiveViewChanged(ctx, path, 0)
	assert.Equal(t, "[C]", rec.last(t).Encoded)

	s.DocumentChanged(ctx, path, "[a] = [C][C]\n")
	assert.Equal(t, "[C][C]", rec.last(t).Encoded, "edit re-resolves without cursor movement")
}

func TestSelfReferenceKeepsName(t *testing.T) {
	s, rec := newSession(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "doc.frag")

	s.DocumentOpened(path, "[a] = [a]\n")
	s.ActiveViewChanged(ctx, path, 0)

	result := rec.last(t)
	require.NotNil(t, result)
	assert.Equal(t, "a", result.Name)
	assert.NotEmpty(t, result.Error)
}

func TestCloseActiveDocumentClearsPreview(t *testing.T) {
	s, rec := newSession(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "doc.frag")

	s.DocumentOpened(path, "[a] = [C]\n")
	s.ActiveViewChanged(ctx, path, 0)
	require.NotNil(t, rec.last(t))

	s.DocumentClosed(path)
	assert.Nil(t, rec.last(t))

	s.CursorMoved(ctx, 2)
	assert.Nil(t, rec.last(t), "no active document, cursor is a no-op")
}

func TestUntrackedDocumentPublishesNothingToShow(t *testing.T) {
	s, rec := newSession(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "notes.txt")

	s.DocumentOpened(path, "[a] = [C]\n")
	s.ActiveViewChanged(ctx, path, 0)
	assert.Nil(t, rec.last(t), "untracked file kinds never resolve")
}

func TestModuleDocument(t *testing.T) {
	s, rec := newSession(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "frags.mol.js")
	src := "export const ethanol = { smiles: \"CCO\", formula: \"C2H6O\", mass: 46.07 };\n"
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))

	s.DocumentOpened(path, src)
	s.ActiveViewChanged(ctx, path, 0)

	result := rec.last(t)
	require.NotNil(t, result)
	assert.Equal(t, "ethanol", result.Name)
	assert.Equal(t, "CCO", result.Notation)
}

func TestInvalidateOnImportChange(t *testing.T) {
	s, rec := newSession(t)
	ctx := context.Background()
	dir := t.TempDir()
	lib := filepath.Join(dir, "lib.frag")
	doc := filepath.Join(dir, "doc.frag")
	require.NoError(t, os.WriteFile(lib, []byte("[base] = [C]\n"), 0644))

	s.DocumentOpened(doc, "@import \"lib.frag\"\n[a] = [base]\n")
	s.ActiveViewChanged(ctx, doc, 1)
	assert.Equal(t, "[C]", rec.last(t).Encoded)

	require.NoError(t, os.WriteFile(lib, []byte("[base] = [O]\n"), 0644))
	s.Invalidate(ctx, lib)
	assert.Equal(t, "[O]", rec.last(t).Encoded)
}
