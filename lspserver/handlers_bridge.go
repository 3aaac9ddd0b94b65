package lspserver

import (
	"context"
	"encoding/json"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/teranos/treesitter-ls/bridge"
	"github.com/teranos/treesitter-ls/document"
	"github.com/teranos/treesitter-ls/logger"
)

// bridgeTarget bundles what a position-based bridge passthrough needs:
// the downstream connection, the virtual document standing in for the
// host region, and the position translated into that virtual document's
// own coordinates.
type bridgeTarget struct {
	conn     *bridge.Connection
	virtual  *bridge.VirtualDocument
	position protocol.Position
}

// resolveBridgeTarget finds the injection region at pos (if any), its
// live virtual document, and the downstream connection serving it. Only
// line is translated into the virtual document's own coordinate space —
// virtual documents are only tracked with a starting line, not a column
// offset, so this passthrough is exact for regions that begin at column
// 0 (fenced blocks, standalone embedded files) and approximate for
// inline injections sharing a line with host syntax.
func (s *Server) resolveBridgeTarget(hostURI string, doc *document.Document, pos protocol.Position) (bridgeTarget, bool) {
	interval, hasRegions := s.cache.Interval(hostURI)
	if !hasRegions {
		return bridgeTarget{}, false
	}

	byteOffset := uint(doc.Index.UTF16ColumnToByte(int(pos.Line), int(pos.Character)))
	region, ok := interval.Innermost(byteOffset)
	if !ok {
		return bridgeTarget{}, false
	}

	snapshot := s.settingsNow()
	langCfg := snapshot.ResolvedLanguage(region.LanguageID)
	if langCfg.Bridge == "" {
		return bridgeTarget{}, false
	}

	set := s.virtualDocsFor(hostURI)
	v, ok := set.Get(region.RegionID)
	if !ok {
		return bridgeTarget{}, false
	}

	conn, ok := s.bridges.Get(v.ServerName)
	if !ok || conn.StateNow() == bridge.StateFailed {
		return bridgeTarget{}, false
	}

	return bridgeTarget{
		conn:    conn,
		virtual: v,
		position: protocol.Position{
			Line:      protocol.UInteger(int(pos.Line) - v.RegionStartLine),
			Character: pos.Character,
		},
	}, true
}

func (s *Server) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	doc, ok := s.docs.Get(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	target, ok := s.resolveBridgeTarget(params.TextDocument.URI, doc, params.Position)
	if !ok {
		return nil, nil
	}

	raw, err := target.conn.Call(context.Background(), "textDocument/hover", map[string]any{
		"textDocument": map[string]any{"uri": target.virtual.URI},
		"position":     target.position,
	})
	if err != nil {
		logger.Logger.Debugw("bridge hover failed", logger.FieldServer, target.virtual.ServerName, logger.FieldError, err.Error())
		return nil, nil
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var hover protocol.Hover
	if err := json.Unmarshal(raw, &hover); err != nil {
		return nil, nil
	}
	if hover.Range != nil {
		translated := translateRangeToHost(*hover.Range, target.virtual)
		hover.Range = &translated
	}
	return &hover, nil
}

func (s *Server) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	doc, ok := s.docs.Get(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	target, ok := s.resolveBridgeTarget(params.TextDocument.URI, doc, params.Position)
	if !ok {
		return nil, nil
	}

	raw, err := target.conn.Call(context.Background(), "textDocument/completion", map[string]any{
		"textDocument": map[string]any{"uri": target.virtual.URI},
		"position":     target.position,
	})
	if err != nil {
		logger.Logger.Debugw("bridge completion failed", logger.FieldServer, target.virtual.ServerName, logger.FieldError, err.Error())
		return nil, nil
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var list protocol.CompletionList
	if err := json.Unmarshal(raw, &list); err != nil {
		var items []protocol.CompletionItem
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, nil
		}
		list.Items = items
	}

	for i := range list.Items {
		list.Items[i].Data = completionResolveData{ServerName: target.virtual.ServerName, Downstream: list.Items[i].Data}
	}
	return &list, nil
}

// completionResolveData rides in a forwarded CompletionItem's Data field
// so completionItemResolve knows which downstream connection to replay
// the resolve request against.
type completionResolveData struct {
	ServerName string `json:"serverName"`
	Downstream any    `json:"downstream"`
}

func (s *Server) completionItemResolve(ctx *glsp.Context, params *protocol.CompletionItem) (*protocol.CompletionItem, error) {
	raw, err := json.Marshal(params.Data)
	if err != nil {
		return params, nil
	}
	var data completionResolveData
	if err := json.Unmarshal(raw, &data); err != nil || data.ServerName == "" {
		return params, nil
	}

	conn, ok := s.bridges.Get(data.ServerName)
	if !ok {
		return params, nil
	}

	restored := *params
	restored.Data = data.Downstream

	result, err := conn.Call(context.Background(), "completionItem/resolve", restored)
	if err != nil {
		logger.Logger.Debugw("bridge completion resolve failed", logger.FieldServer, data.ServerName, logger.FieldError, err.Error())
		return params, nil
	}

	var resolved protocol.CompletionItem
	if err := json.Unmarshal(result, &resolved); err != nil {
		return params, nil
	}
	resolved.Data = params.Data
	return &resolved, nil
}

func (s *Server) textDocumentReferences(ctx *glsp.Context, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	doc, ok := s.docs.Get(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	target, ok := s.resolveBridgeTarget(params.TextDocument.URI, doc, params.Position)
	if !ok {
		return nil, nil
	}

	raw, err := target.conn.Call(context.Background(), "textDocument/references", map[string]any{
		"textDocument": map[string]any{"uri": target.virtual.URI},
		"position":     target.position,
		"context":      params.Context,
	})
	if err != nil {
		logger.Logger.Debugw("bridge references failed", logger.FieldServer, target.virtual.ServerName, logger.FieldError, err.Error())
		return nil, nil
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var locations []protocol.Location
	if err := json.Unmarshal(raw, &locations); err != nil {
		return nil, nil
	}

	out := make([]protocol.Location, 0, len(locations))
	for _, loc := range locations {
		hostURI, keep := target.virtual.FilterCrossRegion(loc.URI)
		if !keep {
			continue
		}
		loc.URI = hostURI
		loc.Range = translateRangeToHost(loc.Range, target.virtual)
		out = append(out, loc)
	}
	return out, nil
}

func (s *Server) textDocumentCodeAction(ctx *glsp.Context, params *protocol.CodeActionParams) ([]protocol.CodeAction, error) {
	doc, ok := s.docs.Get(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	target, ok := s.resolveBridgeTarget(params.TextDocument.URI, doc, params.Range.Start)
	if !ok {
		return nil, nil
	}

	downstreamRange := protocol.Range{
		Start: target.position,
		End: protocol.Position{
			Line:      protocol.UInteger(int(params.Range.End.Line) - target.virtual.RegionStartLine),
			Character: params.Range.End.Character,
		},
	}

	raw, err := target.conn.Call(context.Background(), "textDocument/codeAction", map[string]any{
		"textDocument": map[string]any{"uri": target.virtual.URI},
		"range":        downstreamRange,
		"context":      params.Context,
	})
	if err != nil {
		logger.Logger.Debugw("bridge code action failed", logger.FieldServer, target.virtual.ServerName, logger.FieldError, err.Error())
		return nil, nil
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var actions []protocol.CodeAction
	if err := json.Unmarshal(raw, &actions); err != nil {
		return nil, nil
	}

	for i := range actions {
		actions[i].Data = completionResolveData{ServerName: target.virtual.ServerName, Downstream: actions[i].Data}
		if actions[i].Edit != nil {
			translateWorkspaceEdit(actions[i].Edit, target.virtual)
		}
	}
	return actions, nil
}

func (s *Server) codeActionResolve(ctx *glsp.Context, params *protocol.CodeAction) (*protocol.CodeAction, error) {
	raw, err := json.Marshal(params.Data)
	if err != nil {
		return params, nil
	}
	var data completionResolveData
	if err := json.Unmarshal(raw, &data); err != nil || data.ServerName == "" {
		return params, nil
	}

	conn, ok := s.bridges.Get(data.ServerName)
	if !ok {
		return params, nil
	}

	restored := *params
	restored.Data = data.Downstream

	result, err := conn.Call(context.Background(), "codeAction/resolve", restored)
	if err != nil {
		logger.Logger.Debugw("bridge code action resolve failed", logger.FieldServer, data.ServerName, logger.FieldError, err.Error())
		return params, nil
	}

	var resolved protocol.CodeAction
	if err := json.Unmarshal(result, &resolved); err != nil {
		return params, nil
	}
	resolved.Data = params.Data
	return &resolved, nil
}

func translateRangeToHost(r protocol.Range, v *bridge.VirtualDocument) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: protocol.UInteger(v.TranslateLine(int(r.Start.Line))), Character: r.Start.Character},
		End:   protocol.Position{Line: protocol.UInteger(v.TranslateLine(int(r.End.Line))), Character: r.End.Character},
	}
}

func translateWorkspaceEdit(edit *protocol.WorkspaceEdit, v *bridge.VirtualDocument) {
	if edit == nil {
		return
	}
	for uri, changes := range edit.Changes {
		if string(uri) != v.URI {
			continue
		}
		translated := make([]protocol.TextEdit, len(changes))
		for i, c := range changes {
			translated[i] = protocol.TextEdit{Range: translateRangeToHost(c.Range, v), NewText: c.NewText}
		}
		delete(edit.Changes, uri)
		edit.Changes[protocol.DocumentUri(v.HostURI)] = translated
	}
}
