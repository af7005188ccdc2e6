package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"scoreservice.app/review/internal/http/dto"
	"scoreservice.app/review/internal/service"
)

type DocumentHandler struct {
	documentService service.DocumentService
}

func NewDocumentHandler(documentService service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

// Tree returns a Backlog document with its descendants.
func (h *DocumentHandler) Tree(c *gin.Context) {
	var req dto.DocumentTreeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: invalidBodyMessage})
		return
	}
	if err := req.Validate(); err != nil {
		respondValidation(c, err)
		return
	}

	tree, err := h.documentService.FetchTree(c.Request.Context(), req.ToParams())
	if err != nil {
		respondError(c, err, "fetch document tree")
		return
	}

	c.JSON(http.StatusOK, dto.DocumentTreeResponse{Documents: tree.Count(), Tree: tree})
}
