package lsp

import (
	"context"

	"alembic/internal/diagnostics"
	"alembic/internal/session"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func (ls *Server) initialize(
	glspCtx *glsp.Context,
	params *protocol.InitializeParams,
) (any, error) {
	capabilities := ls.handler.CreateServerCapabilities()
	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: &protocol.True,
		Change:    &syncKind,
	}

	ls.setNotifier(glspCtx.Notify)

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &version,
		},
	}, nil
}

func (ls *Server) initialized(glspCtx *glsp.Context, params *protocol.InitializedParams) error {
	if ls.watcher != nil {
		go ls.watcher.Run()
	}
	ls.log.Info("server initialized")
	return nil
}

func (ls *Server) shutdown(glspCtx *glsp.Context) error {
	ls.log.Info("server shutting down")
	protocol.SetTraceValue(protocol.TraceValueOff)
	ls.Close()
	return nil
}

func (ls *Server) setTrace(glspCtx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (ls *Server) textDocumentDidOpen(
	glspCtx *glsp.Context,
	params *protocol.DidOpenTextDocumentParams,
) error {
	ls.setNotifier(glspCtx.Notify)
	path := uriToPath(params.TextDocument.URI)
	text := params.TextDocument.Text

	ls.session.DocumentOpened(path, text)
	ls.runDiagnostics(glspCtx.Notify, params.TextDocument.URI, path, text)
	return nil
}

func (ls *Server) textDocumentDidChange(
	glspCtx *glsp.Context,
	params *protocol.DidChangeTextDocumentParams,
) error {
	ls.setNotifier(glspCtx.Notify)
	path := uriToPath(params.TextDocument.URI)

	// full sync is advertised; a whole-document event replaces the text
	var text string
	seen := false
	for _, change := range params.ContentChanges {
		switch contentChange := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			text = contentChange.Text
			seen = true
		case protocol.TextDocumentContentChangeEvent:
			ls.log.Warning("ignoring incremental change, full sync was negotiated")
		}
	}
	if !seen {
		return nil
	}

	ls.session.DocumentChanged(context.Background(), path, text)
	ls.runDiagnostics(glspCtx.Notify, params.TextDocument.URI, path, text)
	return nil
}

func (ls *Server) textDocumentDidSave(
	glspCtx *glsp.Context,
	params *protocol.DidSaveTextDocumentParams,
) error {
	path := uriToPath(params.TextDocument.URI)

	// a saved module file gets a fresh mtime, so re-resolving busts the
	// module cache; declarative documents were already handled on change
	if session.Classify(path) == session.KindModule {
		ls.session.Refresh(context.Background())
	}
	return nil
}

func (ls *Server) textDocumentDidClose(
	glspCtx *glsp.Context,
	params *protocol.DidCloseTextDocumentParams,
) error {
	path := uriToPath(params.TextDocument.URI)
	ls.session.DocumentClosed(path)

	// no stale carry-over: closing removes the document's diagnostics
	reportDiagnostics(glspCtx.Notify, params.TextDocument.URI, nil)
	return nil
}

// runDiagnostics rebuilds a declarative document's diagnostics from
// scratch and publishes them as a full replace.
func (ls *Server) runDiagnostics(notify func(method string, params any), uri protocol.DocumentUri, path string, text string) {
	if session.Classify(path) != session.KindDeclarative {
		return
	}

	var diags []protocol.Diagnostic
	res, err := ls.eng.Build(text, path)
	if err != nil {
		diags = diagnostics.Catastrophic(err)
	} else {
		diags = diagnostics.FromIssues(ls.eng.CheckResolution(res))
		if ls.watcher != nil {
			ls.watcher.Watch(res.ImportClosure())
		}
	}
	reportDiagnostics(notify, uri, diags)
}

func reportDiagnostics(notify func(method string, params any), uri protocol.DocumentUri, diags []protocol.Diagnostic) {
	if diags == nil {
		diags = []protocol.Diagnostic{}
	}
	notify("textDocument/publishDiagnostics", protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diags,
	})
}
