package api

import (
	"net/http"
	"slices"
	"strconv"

	"github.com/gin-gonic/gin"

	"maintenance-tracker/internal/form"
	"maintenance-tracker/internal/parse"
	"maintenance-tracker/internal/view"
)

type createMachineRequest struct {
	Name         string      `json:"name"`
	Type         string      `json:"type"`
	LastServiced string      `json:"lastServiced"`
	Interval     looseString `json:"interval"`
}

type updateMachineRequest struct {
	Name         *string      `json:"name"`
	Type         *string      `json:"type"`
	LastServiced *string      `json:"lastServiced"`
	Interval     *looseString `json:"interval"`
}

type machinesResponse struct {
	Machines []view.Row `json:"machines"`
}

func machineID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid machine id"})
		return 0, false
	}
	return id, true
}

// ListMachines handles GET /api/machines. The optional q parameter filters by
// type or status label; sort=next_service orders the rows without saving the order.
func (h *Handler) ListMachines(c *gin.Context) {
	machines, err := h.machines.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	rows := view.Filter(view.Rows(machines, h.today()), c.Query("q"))
	if c.Query("sort") == "next_service" {
		slices.SortStableFunc(rows, func(a, b view.Row) int {
			return a.NextServiceDate.Compare(b.NextServiceDate)
		})
	}
	c.JSON(http.StatusOK, machinesResponse{Machines: rows})
}

// CreateMachine handles POST /api/machines. Fields are validated exactly as the
// entry form does.
func (h *Handler) CreateMachine(c *gin.Context) {
	var req createMachineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	in, err := parse.Machine(parse.RawMachine{
		Name:         req.Name,
		Type:         req.Type,
		LastServiced: req.LastServiced,
		Interval:     string(req.Interval),
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	m, err := h.machines.Create(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, view.NewRow(m, h.today()))
}

// GetMachine handles GET /api/machines/:id and also returns the values the
// form would be loaded with when editing.
func (h *Handler) GetMachine(c *gin.Context) {
	id, ok := machineID(c)
	if !ok {
		return
	}
	m, err := h.machines.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"machine": view.NewRow(m, h.today()),
		"form":    form.Values(m),
	})
}

// UpdateMachine handles PUT /api/machines/:id. Only supplied fields change.
func (h *Handler) UpdateMachine(c *gin.Context) {
	id, ok := machineID(c)
	if !ok {
		return
	}

	var req updateMachineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	patch, err := parse.Patch(req.Name, req.Type, req.LastServiced, req.Interval.ptr())
	if err != nil {
		h.fail(c, err)
		return
	}

	m, err := h.machines.Update(c.Request.Context(), id, patch)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view.NewRow(m, h.today()))
}

// DeleteMachine handles DELETE /api/machines/:id. Unknown ids succeed.
func (h *Handler) DeleteMachine(c *gin.Context) {
	id, ok := machineID(c)
	if !ok {
		return
	}
	if err := h.machines.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SortMachines handles POST /api/machines/sort and persists the new order.
func (h *Handler) SortMachines(c *gin.Context) {
	machines, err := h.machines.SortByNextServiceDate(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, machinesResponse{Machines: view.Rows(machines, h.today())})
}
