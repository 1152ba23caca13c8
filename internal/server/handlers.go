package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/syssam/schemaflow/compiler/gen"
	"github.com/syssam/schemaflow/compiler/load"
	"github.com/syssam/schemaflow/editor"
	"github.com/syssam/schemaflow/graph"
)

// DocumentHandler serves the document API.
type DocumentHandler struct {
	docs     *Documents
	generate []gen.Option
}

// NewDocumentHandler returns a handler over docs. generate configures the
// Go model export.
func NewDocumentHandler(docs *Documents, generate ...gen.Option) *DocumentHandler {
	return &DocumentHandler{docs: docs, generate: generate}
}

type parseRequest struct {
	Source string `json:"source" binding:"required"`
}

type sourceRequest struct {
	Source *string `json:"source" binding:"required"`
}

type createRequest struct {
	Source string `json:"source"`
}

type layoutRequest struct {
	Seed *int64 `json:"seed"`
}

type tableRequest struct {
	Name string `json:"name" binding:"required"`
}

type documentView struct {
	ID string `json:"id"`
	editor.Snapshot
}

// Parse handles POST /api/v1/parse. It extracts and projects a source
// without creating a document.
func (h *DocumentHandler) Parse(c *gin.Context) {
	var req parseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err, "Invalid request body")
		return
	}
	s, err := load.Extract(req.Source)
	if err != nil {
		Fail(c, statusOf(err), err, "Source could not be parsed")
		return
	}
	nodes, edges := graph.Project(s, nil)
	Success(c, http.StatusOK, gin.H{
		"schema": s,
		"nodes":  nodes,
		"edges":  edges,
	}, "Source parsed successfully")
}

// Create handles POST /api/v1/documents.
func (h *DocumentHandler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		Fail(c, http.StatusBadRequest, err, "Invalid request body")
		return
	}
	id, err := h.docs.Create(c.Request.Context(), req.Source)
	if err != nil {
		Fail(c, statusOf(err), err, "Failed to create document")
		return
	}
	ctrl, err := h.docs.Open(c.Request.Context(), id)
	if err != nil {
		Fail(c, statusOf(err), err, "Failed to open document")
		return
	}
	Success(c, http.StatusCreated, documentView{ID: id, Snapshot: ctrl.Snapshot()}, "Document created successfully")
}

// List handles GET /api/v1/documents.
func (h *DocumentHandler) List(c *gin.Context) {
	ids, err := h.docs.List(c.Request.Context())
	if err != nil {
		Fail(c, statusOf(err), err, "Failed to list documents")
		return
	}
	Success(c, http.StatusOK, gin.H{"ids": ids}, "")
}

// Get handles GET /api/v1/documents/:id.
func (h *DocumentHandler) Get(c *gin.Context) {
	id := c.Param("id")
	ctrl, err := h.docs.Open(c.Request.Context(), id)
	if err != nil {
		Fail(c, statusOf(err), err, "Document not available")
		return
	}
	Success(c, http.StatusOK, documentView{ID: id, Snapshot: ctrl.Snapshot()}, "")
}

// Delete handles DELETE /api/v1/documents/:id.
func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.docs.Delete(c.Request.Context(), c.Param("id")); err != nil {
		Fail(c, statusOf(err), err, "Failed to delete document")
		return
	}
	Success(c, http.StatusOK, nil, "Document deleted successfully")
}

// UpdateSource handles PUT /api/v1/documents/:id/source.
func (h *DocumentHandler) UpdateSource(c *gin.Context) {
	var req sourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err, "Invalid request body")
		return
	}
	h.update(c, "Source applied", func(ctrl *editor.Controller) error {
		return ctrl.ApplySource(*req.Source)
	})
}

// EditNode handles PATCH /api/v1/documents/:id/nodes/:nodeID.
func (h *DocumentHandler) EditNode(c *gin.Context) {
	var p editor.Patch
	if err := c.ShouldBindJSON(&p); err != nil {
		Fail(c, http.StatusBadRequest, err, "Invalid request body")
		return
	}
	nodeID := c.Param("nodeID")
	h.update(c, "Node updated", func(ctrl *editor.Controller) error {
		return ctrl.EditNode(nodeID, p)
	})
}

// MoveNodes handles PUT /api/v1/documents/:id/positions.
func (h *DocumentHandler) MoveNodes(c *gin.Context) {
	var pos map[string]graph.Position
	if err := c.ShouldBindJSON(&pos); err != nil {
		Fail(c, http.StatusBadRequest, err, "Invalid request body")
		return
	}
	h.update(c, "Positions updated", func(ctrl *editor.Controller) error {
		return ctrl.MoveNodes(pos)
	})
}

// Layout handles POST /api/v1/documents/:id/layout.
func (h *DocumentHandler) Layout(c *gin.Context) {
	var req layoutRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		Fail(c, http.StatusBadRequest, err, "Invalid request body")
		return
	}
	var opts []graph.LayoutOption
	if req.Seed != nil {
		opts = append(opts, graph.WithSeed(*req.Seed))
	}
	h.update(c, "Layout applied", func(ctrl *editor.Controller) error {
		return ctrl.AutoLayout(opts...)
	})
}

// AddTable handles POST /api/v1/documents/:id/tables.
func (h *DocumentHandler) AddTable(c *gin.Context) {
	var req tableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err, "Invalid request body")
		return
	}
	h.update(c, "Table added", func(ctrl *editor.Controller) error {
		return ctrl.AddTable(req.Name)
	})
}

// Export handles GET /api/v1/documents/:id/export/:format. The go format
// accepts a package query parameter.
func (h *DocumentHandler) Export(c *gin.Context) {
	ctrl, err := h.docs.Open(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, statusOf(err), err, "Document not available")
		return
	}
	s, err := load.Extract(ctrl.Snapshot().Source)
	if err != nil {
		Fail(c, statusOf(err), err, "Source could not be parsed")
		return
	}
	switch format := c.Param("format"); format {
	case "go":
		opts := h.generate
		if pkg := c.Query("package"); pkg != "" {
			opts = append(opts[:len(opts):len(opts)], gen.WithPackage(pkg))
		}
		b, err := gen.GoModel(s, opts...)
		if err != nil {
			Fail(c, statusOf(err), err, "Failed to generate Go model")
			return
		}
		c.Data(http.StatusOK, "text/x-go; charset=utf-8", b)
	case "mermaid":
		c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(gen.Mermaid(s)))
	case "sql":
		ddl, err := gen.DDL(s, h.generate...)
		if err != nil {
			Fail(c, statusOf(err), err, "Failed to generate DDL")
			return
		}
		c.Data(http.StatusOK, "application/sql; charset=utf-8", []byte(ddl))
	default:
		Fail(c, http.StatusBadRequest, nil, "Unknown export format "+format)
	}
}

func (h *DocumentHandler) update(c *gin.Context, message string, fn func(*editor.Controller) error) {
	id := c.Param("id")
	snap, err := h.docs.Update(c.Request.Context(), id, fn)
	if err != nil {
		Fail(c, statusOf(err), err, message+" failed")
		return
	}
	Success(c, http.StatusOK, documentView{ID: id, Snapshot: snap}, message)
}
