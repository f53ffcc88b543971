package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"maintenance-tracker/internal/model"
)

type themeBody struct {
	Theme model.Theme `json:"theme" binding:"required"`
}

// GetTheme handles GET /api/theme.
func (h *Handler) GetTheme(c *gin.Context) {
	t, err := h.themes.Get(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, themeBody{Theme: t})
}

// PutTheme handles PUT /api/theme.
func (h *Handler) PutTheme(c *gin.Context) {
	var req themeBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if err := h.themes.Set(c.Request.Context(), req.Theme); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// ToggleTheme handles POST /api/theme/toggle.
func (h *Handler) ToggleTheme(c *gin.Context) {
	t, err := h.themes.Toggle(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, themeBody{Theme: t})
}
