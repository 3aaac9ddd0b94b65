package bridge

import (
	"context"
	"fmt"
	"strings"
)

// virtualURIPrefix precedes the region ulid in a virtual document's URI,
// using the `kakehashi-virtual-uri-<ulid>` scheme.
const virtualURIPrefix = "kakehashi-virtual-uri-"

// VirtualDocument mirrors one injection region's effective content to a
// downstream server as a synthetic open file, so the downstream server's
// own incremental-sync and analysis machinery can operate on injected
// content exactly as it would on a real file.
type VirtualDocument struct {
	URI            string
	LanguageID     string
	ServerName     string // the languageServers.<name> entry this region's content is mirrored to
	HostURI        string
	RegionID       string
	RegionStartLine int // host line the region's effective content begins at; added back onto every downstream coordinate
	Text           string
	Version        int
}

// VirtualURI builds the `file:///<lang>/kakehashi-virtual-uri-<ulid>.<ext>`
// URI for a region.
func VirtualURI(languageID, regionID, ext string) string {
	if ext == "" {
		ext = languageID
	}
	return fmt.Sprintf("file:///%s/%s%s.%s", languageID, virtualURIPrefix, regionID, ext)
}

// IsVirtualURI reports whether uri was synthesized by VirtualURI.
func IsVirtualURI(uri string) bool {
	return strings.Contains(uri, virtualURIPrefix)
}

// RegionIDFromVirtualURI extracts the ulid segment from a virtual URI,
// returning ok=false for a real file URI.
func RegionIDFromVirtualURI(uri string) (regionID string, ok bool) {
	idx := strings.Index(uri, virtualURIPrefix)
	if idx < 0 {
		return "", false
	}
	rest := uri[idx+len(virtualURIPrefix):]
	if dot := strings.LastIndex(rest, "."); dot >= 0 {
		rest = rest[:dot]
	}
	if rest == "" {
		return "", false
	}
	return rest, true
}

// Open sends didOpen for a freshly-created virtual document.
func (v *VirtualDocument) Open(ctx context.Context, conn *Connection) error {
	return conn.Notify(ctx, "textDocument/didOpen", map[string]any{
		"textDocument": map[string]any{
			"uri":        v.URI,
			"languageId": v.LanguageID,
			"version":    v.Version,
			"text":       v.Text,
		},
	})
}

// Change sends a full-text didChange for an existing virtual document and
// bumps its version and stored text.
func (v *VirtualDocument) Change(ctx context.Context, conn *Connection, newText string) error {
	v.Version++
	v.Text = newText
	return conn.Notify(ctx, "textDocument/didChange", map[string]any{
		"textDocument": map[string]any{
			"uri":     v.URI,
			"version": v.Version,
		},
		"contentChanges": []map[string]any{
			{"text": newText},
		},
	})
}

// Close sends didClose for a virtual document whose backing region has
// been retired (no longer present after a re-parse).
func (v *VirtualDocument) Close(ctx context.Context, conn *Connection) error {
	return conn.Notify(ctx, "textDocument/didClose", map[string]any{
		"textDocument": map[string]any{"uri": v.URI},
	})
}

// VirtualDocumentSet tracks the live virtual documents for one host
// document, keyed by region id, so a re-parse can diff against the
// previous set and close/open exactly what changed.
type VirtualDocumentSet struct {
	byRegion map[string]*VirtualDocument
}

// NewVirtualDocumentSet creates an empty set.
func NewVirtualDocumentSet() *VirtualDocumentSet {
	return &VirtualDocumentSet{byRegion: make(map[string]*VirtualDocument)}
}

// Get returns the virtual document for regionID, if any.
func (s *VirtualDocumentSet) Get(regionID string) (*VirtualDocument, bool) {
	v, ok := s.byRegion[regionID]
	return v, ok
}

// Put registers or replaces the virtual document for its region id.
func (s *VirtualDocumentSet) Put(v *VirtualDocument) {
	s.byRegion[v.RegionID] = v
}

// Retire removes and returns the virtual document for a region id that
// is no longer present, if one existed.
func (s *VirtualDocumentSet) Retire(regionID string) (*VirtualDocument, bool) {
	v, ok := s.byRegion[regionID]
	if ok {
		delete(s.byRegion, regionID)
	}
	return v, ok
}

// RetireAllExcept closes out every tracked virtual document whose region
// id is not in keep, returning the ones removed so the caller can issue
// didClose for each.
func (s *VirtualDocumentSet) RetireAllExcept(keep map[string]struct{}) []*VirtualDocument {
	var removed []*VirtualDocument
	for id, v := range s.byRegion {
		if _, ok := keep[id]; !ok {
			removed = append(removed, v)
			delete(s.byRegion, id)
		}
	}
	return removed
}

// TranslateLine shifts a downstream-reported line number back into host
// coordinates by adding the region's start line.
func (v *VirtualDocument) TranslateLine(downstreamLine int) int {
	return downstreamLine + v.RegionStartLine
}

// FilterCrossRegion reports whether a Location/LocationLink's uri should
// be surfaced to the editor: real file URIs pass through unchanged,
// virtual URIs matching this document's own region translate, and
// virtual URIs for a *different* region are dropped (cross-region jumps
// are not a thing a single-language downstream server can reason about).
func (v *VirtualDocument) FilterCrossRegion(targetURI string) (hostURI string, keep bool) {
	regionID, isVirtual := RegionIDFromVirtualURI(targetURI)
	if !isVirtual {
		return targetURI, true
	}
	if regionID != v.RegionID {
		return "", false
	}
	return v.HostURI, true
}
