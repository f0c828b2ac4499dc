// Package document creates note documents in the host and resolves the id of
// the created document.
package document

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/webfetch/internal/markdown"
	"github.com/sells-group/webfetch/pkg/siyuan"
)

// Host is the document-creation capability of the host.
type Host interface {
	CreateDocWithMd(ctx context.Context, req siyuan.CreateDocRequest) (json.RawMessage, error)
}

// Shape tags which form of create response carried the document id.
type Shape int

const (
	ShapeNone Shape = iota
	ShapeString
	ShapeID
	ShapeDocID
	ShapeNestedString
	ShapeNestedID
	ShapeNestedDocID
)

func (s Shape) String() string {
	switch s {
	case ShapeString:
		return "string"
	case ShapeID:
		return "id"
	case ShapeDocID:
		return "docID"
	case ShapeNestedString:
		return "data"
	case ShapeNestedID:
		return "data.id"
	case ShapeNestedDocID:
		return "data.docID"
	default:
		return "none"
	}
}

// idFields holds the keys a create response may carry. Each is kept raw so
// that only JSON strings count as ids.
type idFields struct {
	ID    json.RawMessage `json:"id"`
	DocID json.RawMessage `json:"docID"`
	Data  json.RawMessage `json:"data"`
}

// Classify decodes a create response and reports which variant matched,
// trying in order: bare string, id, docID, data as a string, data.id,
// data.docID. The first key holding a JSON string wins even when that string
// is empty; such a document has no usable id.
func Classify(raw json.RawMessage) (Shape, string) {
	if id, ok := asString(raw); ok {
		return ShapeString, id
	}

	outer, ok := asObject(raw)
	if !ok {
		return ShapeNone, ""
	}
	if id, ok := asString(outer.ID); ok {
		return ShapeID, id
	}
	if id, ok := asString(outer.DocID); ok {
		return ShapeDocID, id
	}
	if id, ok := asString(outer.Data); ok {
		return ShapeNestedString, id
	}

	nested, ok := asObject(outer.Data)
	if !ok {
		return ShapeNone, ""
	}
	if id, ok := asString(nested.ID); ok {
		return ShapeNestedID, id
	}
	if id, ok := asString(nested.DocID); ok {
		return ShapeNestedDocID, id
	}
	return ShapeNone, ""
}

// ResolveID returns the new document id, or false when the response does not
// carry one.
func ResolveID(raw json.RawMessage) (string, bool) {
	shape, id := Classify(raw)
	return id, shape != ShapeNone && id != ""
}

func asString(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func asObject(raw json.RawMessage) (idFields, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return idFields{}, false
	}
	var f idFields
	if err := json.Unmarshal(raw, &f); err != nil {
		return idFields{}, false
	}
	return f, true
}

// Created describes a document created in the host.
type Created struct {
	ID   string
	Path string
	// Openable is false when the host did not report an id.
	Openable bool
}

// Creator writes markdown documents into host notebooks.
type Creator struct {
	host Host
}

// NewCreator returns a Creator using host.
func NewCreator(host Host) *Creator {
	return &Creator{host: host}
}

// Create stores md as a document named after title in the given notebook.
func (c *Creator) Create(ctx context.Context, notebookID, title, md string) (*Created, error) {
	path := "/" + markdown.SanitizeTitle(title)

	raw, err := c.host.CreateDocWithMd(ctx, siyuan.CreateDocRequest{
		Notebook: notebookID,
		Path:     path,
		Markdown: md,
	})
	if err != nil {
		return nil, eris.Wrap(err, "document: create")
	}

	shape, id := Classify(raw)
	if id == "" {
		zap.L().Warn("document: created without id",
			zap.String("notebook", notebookID),
			zap.String("path", path),
			zap.Stringer("shape", shape),
		)
	} else {
		zap.L().Debug("document: created",
			zap.String("id", id),
			zap.String("path", path),
			zap.Stringer("shape", shape),
		)
	}
	return &Created{ID: id, Path: path, Openable: id != ""}, nil
}
