package lsp

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"alembic/internal/config"
	"alembic/internal/engine"
	"alembic/internal/modload"
	"alembic/internal/resolve"
	"alembic/internal/session"
	"alembic/internal/watch"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"
)

const lsName = "alembic"

var version = "0.1.0"

// Server glues the editor host to the resolution and diagnostics
// pipelines. All state lives in the session; the server only translates
// protocol traffic.
type Server struct {
	log     commonlog.Logger
	cfg     config.Config
	eng     *engine.Engine
	loader  *modload.Loader
	session *session.Session
	watcher *watch.Watcher
	handler *protocol.Handler

	mu     sync.Mutex
	notify func(method string, params any)

	closeOnce sync.Once
}

// NewServer builds the LSP server with its full pipeline behind it.
func NewServer(cfg config.Config) (*server.Server, *Server, error) {
	eng := engine.New(cfg.ImportRoots...)
	eng.Strict = cfg.StrictCheck

	loader, err := modload.NewLoader()
	if err != nil {
		return nil, nil, fmt.Errorf("create module loader: %w", err)
	}

	ls := &Server{
		log:     commonlog.GetLogger("alembic.lsp"),
		cfg:     cfg,
		eng:     eng,
		loader:  loader,
		session: session.New(eng, loader),
	}

	if cfg.WatchImports {
		watcher, err := watch.New(ls.onImportChanged)
		if err != nil {
			loader.Close()
			return nil, nil, err
		}
		ls.watcher = watcher
	}

	ls.handler = &protocol.Handler{
		Initialize:            ls.initialize,
		Initialized:           ls.initialized,
		Shutdown:              ls.shutdown,
		SetTrace:              ls.setTrace,
		TextDocumentDidOpen:   ls.textDocumentDidOpen,
		TextDocumentDidChange: ls.textDocumentDidChange,
		TextDocumentDidSave:   ls.textDocumentDidSave,
		TextDocumentDidClose:  ls.textDocumentDidClose,
	}

	// the preview surface sees whatever the bus last carried
	ls.session.Bus().Subscribe(ls.publishPreview)

	return server.NewServer(&dispatcher{std: ls.handler, ls: ls}, lsName, false), ls, nil
}

// Close releases the watcher and the module loader. Both the shutdown
// handler and the process exit path call it; only the first call acts.
func (ls *Server) Close() {
	ls.closeOnce.Do(func() {
		if ls.watcher != nil {
			_ = ls.watcher.Close()
		}
		ls.loader.Close()
	})
}

func (ls *Server) setNotifier(notify func(method string, params any)) {
	ls.mu.Lock()
	ls.notify = notify
	ls.mu.Unlock()
}

func (ls *Server) publishPreview(result *resolve.Result) {
	ls.mu.Lock()
	notify := ls.notify
	ls.mu.Unlock()
	if notify != nil {
		notify(methodPreview, result)
	}
}

func (ls *Server) onImportChanged(path string) {
	ls.session.Invalidate(context.Background(), path)

	// the active document's diagnostics may now be stale as well
	active, ok := ls.session.Active()
	if !ok || session.Classify(active) != session.KindDeclarative {
		return
	}
	text, ok := ls.session.Document(active)
	if !ok {
		return
	}
	ls.mu.Lock()
	notify := ls.notify
	ls.mu.Unlock()
	if notify != nil {
		ls.runDiagnostics(notify, pathToURI(active), active, text)
	}
}

// uriToPath converts a file URI to a filesystem path. Anything that is not
// a file URI passes through unchanged.
func uriToPath(uri protocol.DocumentUri) string {
	return strings.TrimPrefix(string(uri), "file://")
}

func pathToURI(path string) protocol.DocumentUri {
	if strings.HasPrefix(path, "file://") {
		return protocol.DocumentUri(path)
	}
	return protocol.DocumentUri("file://" + path)
}
