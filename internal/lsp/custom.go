package lsp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tliron/glsp"
)

// Custom methods carried next to the standard protocol: the editor's
// cursor/view events come in, preview state and export artifacts go out.
const (
	methodCursorMoved  = "alembic/cursorMoved"
	methodActiveEditor = "alembic/activeEditorChanged"
	methodPreview      = "alembic/preview"
	methodExport       = "alembic/export"
)

type cursorParams struct {
	URI  string `json:"uri"`
	Line int    `json:"line"` // 0-based editor line
}

type exportParams struct {
	// Name is the suggested file name for the artifact.
	Name string `json:"name"`
	// Data is the base64-encoded payload.
	Data string `json:"data"`
}

type exportResult struct {
	Path string `json:"path"`
}

// dispatcher routes the custom alembic/* methods and hands everything else
// to the standard protocol handler.
type dispatcher struct {
	std glsp.Handler
	ls  *Server
}

func (d *dispatcher) Handle(glspCtx *glsp.Context) (any, bool, bool, error) {
	switch glspCtx.Method {
	case methodCursorMoved:
		var p cursorParams
		if err := json.Unmarshal(glspCtx.Params, &p); err != nil {
			return nil, true, false, err
		}
		d.ls.setNotifier(glspCtx.Notify)
		d.ls.session.CursorMoved(context.Background(), p.Line)
		return nil, true, true, nil

	case methodActiveEditor:
		var p cursorParams
		if err := json.Unmarshal(glspCtx.Params, &p); err != nil {
			return nil, true, false, err
		}
		d.ls.setNotifier(glspCtx.Notify)
		d.ls.session.ActiveViewChanged(context.Background(), uriToPath(p.URI), p.Line)
		return nil, true, true, nil

	case methodExport:
		var p exportParams
		if err := json.Unmarshal(glspCtx.Params, &p); err != nil {
			return nil, true, false, err
		}
		path, err := d.ls.saveExport(p)
		if err != nil {
			return nil, true, true, err
		}
		return exportResult{Path: path}, true, true, nil

	default:
		return d.std.Handle(glspCtx)
	}
}

// saveExport writes a rendering artifact next to the active document, or
// into the working directory when nothing is active.
func (ls *Server) saveExport(p exportParams) (string, error) {
	if p.Name == "" {
		return "", fmt.Errorf("export: empty file name")
	}
	payload, err := base64.StdEncoding.DecodeString(p.Data)
	if err != nil {
		return "", fmt.Errorf("export: decode payload: %w", err)
	}

	dir := "."
	if active, ok := ls.session.Active(); ok {
		dir = filepath.Dir(active)
	}
	path := filepath.Join(dir, filepath.Base(p.Name))
	if err := os.WriteFile(path, payload, 0644); err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	ls.log.Infof("exported %s (%d bytes)", path, len(payload))
	return path, nil
}
