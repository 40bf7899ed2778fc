package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/arnavshah/roster-api-go/pkg/models"
	"github.com/arnavshah/roster-api-go/pkg/preference"
	"github.com/gin-gonic/gin"
)

// ValidateInput checks a roster request without building it
func (h *Handler) ValidateInput(c *gin.Context) {
	var req models.RosterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	if len(req.Employees) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"valid": false,
			"error": "At least one employee is required",
		})
		return
	}

	if req.Capacity != nil && *req.Capacity < 1 {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": "capacity must be at least 1, got " + strconv.Itoa(*req.Capacity)})
		return
	}

	names := make(map[string]bool)
	for i, e := range req.Employees {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			c.JSON(http.StatusOK, gin.H{"valid": false, "error": "Employee " + strconv.Itoa(i+1) + " has no name"})
			return
		}
		if names[name] {
			c.JSON(http.StatusOK, gin.H{"valid": false, "error": "Duplicate employee name: " + name})
			return
		}
		names[name] = true
	}

	p := h.params(req.Days, req.Shifts, req.Capacity, nil)
	employees, err := employeesFromInput(req.Employees, p.Days, preference.New(p.Shifts))
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": err.Error()})
		return
	}

	configured := make(map[models.ShiftLabel]bool, len(p.Shifts))
	for _, s := range p.Shifts {
		configured[s] = true
	}
	// a preference that names no configured shift is only ever backfilled
	unrecognized := 0
	for _, e := range employees {
		for _, pref := range e.Preferences {
			matched := false
			for _, choice := range pref.Choices() {
				matched = matched || configured[choice]
			}
			if !matched {
				unrecognized++
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"stats": gin.H{
			"employee_count":           len(employees),
			"day_count":                len(p.Days),
			"shift_count":              len(p.Shifts),
			"slot_count":               len(p.Days) * len(p.Shifts),
			"unrecognized_preferences": unrecognized,
		},
	})
}
