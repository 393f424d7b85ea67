package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/foldcore/internal/application/folding"
	"github.com/turtacn/foldcore/pkg/errors"
	"github.com/turtacn/foldcore/pkg/types/fold"
)

// FoldHandler serves the folding endpoints. Until the provider holds a
// service every endpoint answers 503 with FOLD_002.
type FoldHandler struct {
	provider folding.Provider
}

// NewFoldHandler creates a new FoldHandler.
func NewFoldHandler(provider folding.Provider) *FoldHandler {
	return &FoldHandler{provider: provider}
}

func (h *FoldHandler) service(c *gin.Context) (folding.Service, bool) {
	svc, err := h.provider.Get()
	if err != nil {
		writeAppError(c, err)
		return nil, false
	}
	return svc, true
}

// RegisterRoutes mounts the folding endpoints on an /api/v1 group.
func (h *FoldHandler) RegisterRoutes(r gin.IRoutes) {
	r.POST("/fold", h.Fold)
	r.POST("/fold/batch", h.FoldBatch)
	r.GET("/library", h.Library)
	r.GET("/structures/:id", h.Structure)
}

// Fold handles POST /api/v1/fold.
func (h *FoldHandler) Fold(c *gin.Context) {
	svc, ok := h.service(c)
	if !ok {
		return
	}
	var req fold.FoldRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := svc.Fold(c.Request.Context(), req)
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// FoldBatch handles POST /api/v1/fold/batch. Per-sequence failures are
// reported inside the results; only batch-level failures are HTTP errors.
func (h *FoldHandler) FoldBatch(c *gin.Context) {
	svc, ok := h.service(c)
	if !ok {
		return
	}
	var req fold.BatchFoldRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := svc.FoldBatch(c.Request.Context(), req)
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Library handles GET /api/v1/library.
func (h *FoldHandler) Library(c *gin.Context) {
	svc, ok := h.service(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, svc.Library())
}

// Structure handles GET /api/v1/structures/:id[?sequence=SEQ].
func (h *FoldHandler) Structure(c *gin.Context) {
	svc, ok := h.service(c)
	if !ok {
		return
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		writeError(c, http.StatusBadRequest, errors.CodeInvalidParam, "structure id must be an integer")
		return
	}
	view, err := svc.Structure(c.Request.Context(), id, c.Query("sequence"))
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

//Personal.AI order the ending
