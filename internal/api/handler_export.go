package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"maintenance-tracker/internal/importer"
)

// Export handles GET /api/export with the stored machines array.
func (h *Handler) Export(c *gin.Context) {
	machines, err := h.machines.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="machines.json"`)
	c.Header("Content-Type", "application/json; charset=utf-8")
	c.Status(http.StatusOK)
	if err := importer.Encode(c.Writer, machines); err != nil {
		h.log.Warn("writing export", zap.Error(err))
	}
}

// Import handles POST /api/import. The body is a machines array or a storage
// dump holding one.
func (h *Handler) Import(c *gin.Context) {
	res, err := importer.FromReader(c.Request.Context(), h.machines, c.Request.Body)
	if err != nil {
		if errors.Is(err, importer.ErrFormat) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
