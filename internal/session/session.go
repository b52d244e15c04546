// Package session owns all mutable state of the resolution pipeline: the
// open documents, the currently tracked (document, line) pair, and the
// memoized full-document resolution. Editor host events map to the named
// transitions below; each one either updates the session or is a no-op,
// and tracked updates publish a resolution result on the bus.
package session

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"alembic/internal/bus"
	"alembic/internal/engine"
	"alembic/internal/modload"
	"alembic/internal/resolve"

	"github.com/tliron/commonlog"
)

type document struct {
	path string
	text string
}

type Session struct {
	mu     sync.Mutex
	log    commonlog.Logger
	eng    *engine.Engine
	loader *modload.Loader
	bus    *bus.Bus[*resolve.Result]

	docs   map[string]*document
	active string
	line   int // 0-based editor line
	kind   DocKind
	res    *engine.Resolution // nil when invalidated

	seq atomic.Uint64
}

func New(eng *engine.Engine, loader *modload.Loader) *Session {
	return &Session{
		log:    commonlog.GetLogger("alembic.session"),
		eng:    eng,
		loader: loader,
		bus:    bus.New[*resolve.Result](),
		docs:   make(map[string]*document),
	}
}

// Bus exposes the latest-wins channel the preview surface subscribes to.
func (s *Session) Bus() *bus.Bus[*resolve.Result] {
	return s.bus
}

// Document returns the tracked text of an open document.
func (s *Session) Document(path string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[path]
	if !ok {
		return "", false
	}
	return doc.text, true
}

// DocumentOpened records a newly opened document. It does not make the
// document active; that is the ActiveViewChanged transition.
func (s *Session) DocumentOpened(path string, text string) {
	s.mu.Lock()
	s.docs[path] = &document{path: path, text: text}
	s.mu.Unlock()
	s.log.Debugf("opened %s (%s)", path, Classify(path))
}

// DocumentChanged updates a document's text. A change to the active
// document invalidates the memoized resolution and re-resolves the current
// line, even though the line number did not move.
func (s *Session) DocumentChanged(ctx context.Context, path string, text string) {
	s.mu.Lock()
	doc, ok := s.docs[path]
	if !ok {
		doc = &document{path: path}
		s.docs[path] = doc
	}
	doc.text = text
	isActive := path == s.active
	if isActive {
		s.res = nil
	}
	s.mu.Unlock()

	if isActive {
		s.Refresh(ctx)
	}
}

// DocumentClosed forgets a document. Closing the active document clears
// the tracked position and publishes "nothing to show".
func (s *Session) DocumentClosed(path string) {
	s.mu.Lock()
	delete(s.docs, path)
	wasActive := path == s.active
	if wasActive {
		s.active = ""
		s.kind = KindUntracked
		s.res = nil
	}
	s.mu.Unlock()

	if wasActive {
		s.seq.Add(1)
		s.bus.Publish(nil)
	}
}

// ActiveViewChanged switches the tracked document. An identity change is
// never suppressed: switching between two documents parked on the same
// line number still re-triggers resolution.
func (s *Session) ActiveViewChanged(ctx context.Context, path string, line int) {
	s.mu.Lock()
	if _, ok := s.docs[path]; !ok {
		s.mu.Unlock()
		s.log.Warningf("active view %s was never opened", path)
		return
	}
	if path != s.active {
		s.res = nil
		s.kind = Classify(path)
	} else if line == s.line {
		s.mu.Unlock()
		return
	}
	s.active = path
	s.line = line
	s.mu.Unlock()

	s.Refresh(ctx)
}

// CursorMoved updates the tracked line. A numerically unchanged line is a
// no-op; document switches go through ActiveViewChanged instead.
func (s *Session) CursorMoved(ctx context.Context, line int) {
	s.mu.Lock()
	if s.active == "" || line == s.line {
		s.mu.Unlock()
		return
	}
	s.line = line
	s.mu.Unlock()

	s.Refresh(ctx)
}

// Invalidate drops the memoized resolution when a file in its import
// closure changed outside the editor, then re-resolves.
func (s *Session) Invalidate(ctx context.Context, path string) {
	s.mu.Lock()
	hit := false
	if s.res != nil {
		for _, p := range s.res.ImportClosure() {
			if p == path {
				hit = true
				break
			}
		}
	}
	if hit {
		s.res = nil
	}
	s.mu.Unlock()

	if hit {
		s.log.Debugf("import %s changed on disk, resolution invalidated", path)
		s.Refresh(ctx)
	}
}

// Resolution returns the memoized full-document resolution for the active
// document, building it if absent. Returns nil for non-declarative or
// inactive sessions.
func (s *Session) Resolution() *engine.Resolution {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolutionLocked()
}

func (s *Session) resolutionLocked() *engine.Resolution {
	if s.active == "" || s.kind != KindDeclarative {
		return nil
	}
	if s.res == nil {
		doc := s.docs[s.active]
		res, err := s.eng.Build(doc.text, doc.path)
		if err != nil {
			s.log.Errorf("build resolution for %s: %v", doc.path, err)
			return nil
		}
		s.res = res
	}
	return s.res
}

// Active returns the path of the currently tracked document, if any.
func (s *Session) Active() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active, s.active != ""
}

// Refresh runs the resolution pipeline for the tracked position and
// publishes the outcome. Every run takes a sequence number; a run that is
// no longer the latest when it completes is discarded rather than allowed
// to overwrite fresher state.
func (s *Session) Refresh(ctx context.Context) {
	s.mu.Lock()
	seq := s.seq.Add(1)
	if s.active == "" || s.kind == KindUntracked {
		s.mu.Unlock()
		if s.kind == KindUntracked && s.active != "" {
			s.publish(seq, nil)
		}
		return
	}
	doc := s.docs[s.active]
	kind := s.kind
	line := ToDefinitionLine(s.line)
	lineText := lineAt(doc.text, line)
	path := doc.path

	var res *engine.Resolution
	if kind == KindDeclarative {
		res = s.resolutionLocked()
	}
	s.mu.Unlock()

	var result *resolve.Result
	switch kind {
	case KindDeclarative:
		if res == nil {
			result = &resolve.Result{Line: line, Error: "document could not be processed"}
		} else {
			result = resolve.Declarative(res, lineText, line)
		}
	case KindModule:
		result = resolve.Module(ctx, s.loader, path, lineText, line)
	}

	s.publish(seq, result)
}

// publish delivers a result unless a newer run superseded it meanwhile.
func (s *Session) publish(seq uint64, result *resolve.Result) {
	if s.seq.Load() != seq {
		s.log.Debugf("discarding stale resolution (seq %d)", seq)
		return
	}
	s.bus.Publish(result)
}

func lineAt(text string, line int) string {
	lines := strings.Split(text, "\n")
	if line < 1 || line > len(lines) {
		return ""
	}
	return lines[line-1]
}
