// Package proto defines wire format DTOs for the uiforge HTTP API.
package proto

import (
	"uiforge/element"
	"uiforge/engine"
	"uiforge/mutate"
	"uiforge/placement"
)

// ErrorResponse is returned for API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Open    int    `json:"openDocuments"`
}

// DocumentInfo describes a stored document.
type DocumentInfo struct {
	Name      string `json:"name"`
	Head      string `json:"head"` // hex digest of the forest at the cursor
	Cursor    int    `json:"cursor"`
	Revision  uint64 `json:"revision"`
	Entries   int    `json:"entries"`
	UpdatedAt int64  `json:"updatedAt"` // Unix milliseconds
	Open      bool   `json:"open"`
}

// DocumentsResponse lists stored documents.
type DocumentsResponse struct {
	Documents []DocumentInfo `json:"documents"`
}

// TreeResponse carries a copy of the document tree.
type TreeResponse struct {
	Document  string         `json:"document"`
	Forest    element.Forest `json:"forest"`
	Revision  uint64         `json:"revision"`
	Selection string         `json:"selection,omitempty"`
	Digest    string         `json:"digest"`
}

// InsertRequest adds a node. Exactly one of Variant or Node is set; a
// missing Index appends.
type InsertRequest struct {
	Variant  string        `json:"variant,omitempty"`
	Node     *element.Node `json:"node,omitempty"`
	ParentID string        `json:"parentId,omitempty"`
	Index    *int          `json:"index,omitempty"`
}

// UpdateRequest patches a node. A null attribute value removes the key;
// a bucket or breakpoint present in the request replaces its tokens.
type UpdateRequest struct {
	DisplayName *string                         `json:"displayName,omitempty"`
	Attributes  map[string]any                  `json:"attributes,omitempty"`
	Groups      map[element.Bucket][]string     `json:"groups,omitempty"`
	Breakpoints map[element.Breakpoint][]string `json:"breakpoints,omitempty"`
}

// Patch converts the request to a mutation patch.
func (u UpdateRequest) Patch() mutate.Patch {
	return mutate.Patch{
		DisplayName: u.DisplayName,
		Attributes:  u.Attributes,
		Groups:      u.Groups,
		Breakpoints: u.Breakpoints,
	}
}

// MoveRequest relocates the addressed node relative to Over. An Over of
// element.CanvasRoot moves it to the end of the root list.
type MoveRequest struct {
	Over     string `json:"over"`
	Position string `json:"position,omitempty"` // defaults to "after"
}

// MutationResponse reports the outcome of an edit.
type MutationResponse struct {
	Applied  bool   `json:"applied"`
	ID       string `json:"id,omitempty"`
	Revision uint64 `json:"revision"`
}

// DropRequest carries a drag signal. Without Commit the intent is only
// resolved.
type DropRequest struct {
	Active placement.Active `json:"active"`
	Hover  placement.Hover  `json:"hover"`
	Commit bool             `json:"commit,omitempty"`
}

// DropResponse is the resolved intent and, on commit, its outcome. A nil
// intent means the drop is illegal.
type DropResponse struct {
	Intent   *placement.Intent `json:"intent"`
	Applied  bool              `json:"applied"`
	ID       string            `json:"id,omitempty"`
	Revision uint64            `json:"revision"`
}

// HistoryResponse summarizes the undo log.
type HistoryResponse struct {
	engine.HistoryInfo
	Revision uint64 `json:"revision"`
}

// SelectRequest selects a node; an empty ID clears the selection.
type SelectRequest struct {
	ID string `json:"id"`
}

// SelectResponse reports the current selection.
type SelectResponse struct {
	Selection string `json:"selection"`
}

// CatalogResponse lists the variant table.
type CatalogResponse struct {
	Variants []VariantInfo `json:"variants"`
}

// VariantInfo describes one catalog entry.
type VariantInfo struct {
	Name        string `json:"name"`
	Container   bool   `json:"container"`
	DisplayName string `json:"displayName,omitempty"`
}
