package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"heating_curve/internal/models"
	"heating_curve/internal/variables"

	"github.com/gin-gonic/gin"
)

// VariableRequest defines or replaces a variable.
type VariableRequest struct {
	Name         string   `json:"name" example:"outdoor"`
	Value        *float64 `json:"value,omitempty" example:"2.5"`
	Action       int64    `json:"action,omitempty"`
	CustomAction int64    `json:"custom_action,omitempty"`
}

// ValueRequest carries a new value for a variable.
type ValueRequest struct {
	Value *float64 `json:"value" binding:"required" example:"41"`
}

func variableID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid variable id"})
		return 0, false
	}
	return id, true
}

// @Summary      Get variable
// @Tags         variables
// @Produce      json
// @Param        id   path      int  true  "Variable id"
// @Success      200  {object}  models.Variable
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/variables/{id} [get]
// @Security     BearerAuth
func (h *Handler) getVariable(c *gin.Context) {
	id, ok := variableID(c)
	if !ok {
		return
	}
	v, err := h.services.Variables.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, variables.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load variable", "variable_get_failed", err, "var_id", id)
		return
	}
	c.JSON(http.StatusOK, v)
}

// @Summary      Define variable
// @Tags         variables
// @Accept       json
// @Produce      json
// @Param        id    path      int              true  "Variable id"
// @Param        body  body      VariableRequest  true  "Variable"
// @Success      200   {object}  models.Variable
// @Failure      400   {object}  map[string]string
// @Router       /api/v1/variables/{id} [put]
// @Security     BearerAuth
func (h *Handler) defineVariable(c *gin.Context) {
	id, ok := variableID(c)
	if !ok {
		return
	}
	var req VariableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	v := models.Variable{
		ID:           id,
		Name:         req.Name,
		Value:        req.Value,
		Action:       req.Action,
		CustomAction: req.CustomAction,
	}
	if err := h.services.Variables.Define(c.Request.Context(), v); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to define variable", "variable_define_failed", err, "var_id", id)
		return
	}
	c.JSON(http.StatusOK, v)
}

// @Summary      Write variable value
// @Description  Stores the value and notifies subscribers; writing the bound sensor triggers a recalculation.
// @Tags         variables
// @Accept       json
// @Produce      json
// @Param        id    path      int           true  "Variable id"
// @Param        body  body      ValueRequest  true  "Value"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/variables/{id}/value [post]
// @Security     BearerAuth
func (h *Handler) writeVariable(c *gin.Context) {
	id, ok := variableID(c)
	if !ok {
		return
	}
	var req ValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	if err := h.services.Variables.Write(c.Request.Context(), id, *req.Value); err != nil {
		if errors.Is(err, variables.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to write variable", "variable_write_failed", err, "var_id", id)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "value": *req.Value})
}
