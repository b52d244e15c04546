package lsp

import (
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"alembic/internal/config"
	"alembic/internal/resolve"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

type notification struct {
	method string
	params any
}

type host struct {
	t        *testing.T
	ls       *Server
	d        *dispatcher
	notified []notification
}

func newHost(t *testing.T) *host {
	t.Helper()
	cfg := config.Default()
	cfg.WatchImports = false

	_, ls, err := NewServer(cfg)
	require.NoError(t, err)
	t.Cleanup(ls.Close)

	h := &host{t: t, ls: ls, d: &dispatcher{std: ls.handler, ls: ls}}
	return h
}

func (h *host) notify(method string, params any) {
	h.notified = append(h.notified, notification{method: method, params: params})
}

func (h *host) context(method string, params any) *glsp.Context {
	h.t.Helper()
	raw, err := json.Marshal(params)
	require.NoError(h.t, err)
	return &glsp.Context{Method: method, Params: raw, Notify: h.notify}
}

func (h *host) open(path string, text string) {
	h.t.Helper()
	err := h.ls.textDocumentDidOpen(h.context("textDocument/didOpen", nil), &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: string(pathToURI(path)), Text: text},
	})
	require.NoError(h.t, err)
}

func (h *host) dispatch(method string, params any) {
	h.t.Helper()
	_, validMethod, validParams, err := h.d.Handle(h.context(method, params))
	require.True(h.t, validMethod)
	require.True(h.t, validParams)
	require.NoError(h.t, err)
}

func (h *host) lastPreview() *resolve.Result {
	h.t.Helper()
	for i := len(h.notified) - 1; i >= 0; i-- {
		if h.notified[i].method == methodPreview {
			result, _ := h.notified[i].params.(*resolve.Result)
			return result
		}
	}
	h.t.Fatal("no preview notification")
	return nil
}

func (h *host) lastDiagnostics() []protocol.Diagnostic {
	h.t.Helper()
	for i := len(h.notified) - 1; i >= 0; i-- {
		if h.notified[i].method == "textDocument/publishDiagnostics" {
			return h.notified[i].params.(protocol.PublishDiagnosticsParams).Diagnostics
		}
	}
	h.t.Fatal("no diagnostics notification")
	return nil
}

func TestDidOpenPublishesDiagnostics(t *testing.T) {
	h := newHost(t)
	path := filepath.Join(t.TempDir(), "doc.frag")

	h.open(path, "[a] = [a]\n")
	diags := h.lastDiagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, protocol.DiagnosticSeverityError, *diags[0].Severity)
}

func TestCursorMovedPublishesPreview(t *testing.T) {
	h := newHost(t)
	path := filepath.Join(t.TempDir(), "doc.frag")

	h.open(path, "[a] = [C]\n[b] = [a][a]\n")
	h.dispatch(methodActiveEditor, cursorParams{URI: string(pathToURI(path)), Line: 1})

	result := h.lastPreview()
	require.NotNil(t, result)
	assert.Equal(t, "b", result.Name)
	assert.Equal(t, "[C][C]", result.Encoded)
	assert.Equal(t, "CC", result.Notation)
}

func TestCursorOnBlankLinePublishesNull(t *testing.T) {
	h := newHost(t)
	path := filepath.Join(t.TempDir(), "doc.frag")

	h.open(path, "[a] = [C]\n\n")
	h.dispatch(methodActiveEditor, cursorParams{URI: string(pathToURI(path)), Line: 0})
	h.dispatch(methodCursorMoved, cursorParams{Line: 1})

	assert.Nil(t, h.lastPreview())
}

func TestDidChangeRefreshesDiagnosticsAndPreview(t *testing.T) {
	h := newHost(t)
	path := filepath.Join(t.TempDir(), "doc.frag")

	h.open(path, "[a] = [C]\n")
	h.dispatch(methodActiveEditor, cursorParams{URI: string(pathToURI(path)), Line: 0})

	err := h.ls.textDocumentDidChange(h.context("textDocument/didChange", nil), &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: string(pathToURI(path))},
		},
		ContentChanges: []any{
			protocol.TextDocumentContentChangeEventWhole{Text: "[a] = [ghost]\n"},
		},
	})
	require.NoError(t, err)

	diags := h.lastDiagnostics()
	require.Len(t, diags, 1)

	result := h.lastPreview()
	require.NotNil(t, result)
	assert.Equal(t, "a", result.Name)
	assert.NotEmpty(t, result.Error)
}

func TestDidCloseClearsDiagnostics(t *testing.T) {
	h := newHost(t)
	path := filepath.Join(t.TempDir(), "doc.frag")

	h.open(path, "[a] = [a]\n")
	err := h.ls.textDocumentDidClose(h.context("textDocument/didClose", nil), &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: string(pathToURI(path))},
	})
	require.NoError(t, err)

	assert.Empty(t, h.lastDiagnostics())
}

func TestExportWritesArtifact(t *testing.T) {
	h := newHost(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.frag")

	h.open(path, "[a] = [C]\n")
	h.dispatch(methodActiveEditor, cursorParams{URI: string(pathToURI(path)), Line: 0})

	payload := base64.StdEncoding.EncodeToString([]byte("<svg/>"))
	result, validMethod, validParams, err := h.d.Handle(h.context(methodExport, exportParams{Name: "a.svg", Data: payload}))
	require.True(t, validMethod)
	require.True(t, validParams)
	require.NoError(t, err)

	written := result.(exportResult).Path
	assert.Equal(t, filepath.Join(dir, "a.svg"), written)
	content, err := os.ReadFile(written)
	require.NoError(t, err)
	assert.Equal(t, "<svg/>", string(content))
}

func TestUnknownMethodFallsThrough(t *testing.T) {
	h := newHost(t)
	_, validMethod, _, _ := h.d.Handle(h.context("workspace/nonexistent", nil))
	assert.False(t, validMethod)
}
