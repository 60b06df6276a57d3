package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"heating_curve/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	statusOK = "ok"

	errInvalidBodyPref = "invalid body: "
	errAtRequired      = "query parameter 'at' must be a finite number"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// ActionRequest is the tile's adjustment request. Value is the delta applied
// to the named boundary; it is ignored for Init.
type ActionRequest struct {
	// One of MinVL, MaxVL, MinAT, MaxAT, StartAT, EndAT, Init
	Ident string  `json:"ident" binding:"required" example:"MinVL"`
	Value float64 `json:"value" example:"1"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Adjust a curve boundary
// @Description  Moves one boundary by value, pushes the new state and writes the actuator. Init only returns the current state.
// @Tags         curve
// @Accept       json
// @Produce      json
// @Param        body  body      ActionRequest  true  "Adjustment"
// @Success      200   {object}  models.Payload
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/curve/action [post]
// @Security     BearerAuth
func (h *Handler) curveAction(c *gin.Context) {
	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	p, err := h.services.Curve.Adjust(c.Request.Context(), req.Ident, req.Value)
	if err != nil {
		if errors.Is(err, service.ErrInvalidArgument) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to adjust curve", "curve_adjust_failed", err, "ident", req.Ident)
		return
	}
	if h.log != nil && req.Ident != service.IdentInit {
		h.log.Infow("curve_adjusted", "ident", req.Ident, "delta", req.Value, "operator_id", operatorID(c))
	}
	c.JSON(http.StatusOK, p)
}

// @Summary      Current curve state
// @Tags         curve
// @Produce      json
// @Success      200  {object}  models.Payload
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/curve/state [get]
// @Security     BearerAuth
func (h *Handler) curveState(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Curve.State(c.Request.Context()))
}

// @Summary      Tile preview
// @Description  Payload for the configured defaults at the current reading. Does not write the actuator.
// @Tags         curve
// @Produce      json
// @Success      200  {object}  models.Payload
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/curve/tile [get]
// @Security     BearerAuth
func (h *Handler) curveTile(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Curve.Tile(c.Request.Context()))
}

// @Summary      Runtime curve parameters
// @Tags         curve
// @Produce      json
// @Success      200  {object}  models.CurveParameters
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/curve/parameters [get]
// @Security     BearerAuth
func (h *Handler) curveParameters(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Curve.Parameters())
}

// @Summary      Evaluate the curve
// @Tags         curve
// @Produce      json
// @Param        at   query     number  true  "Outdoor temperature"  example(2.5)
// @Success      200  {object}  map[string]number  "at, vl"
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/curve/evaluate [get]
// @Security     BearerAuth
func (h *Handler) curveEvaluate(c *gin.Context) {
	at, err := strconv.ParseFloat(c.Query("at"), 64)
	if err != nil || math.IsNaN(at) || math.IsInf(at, 0) {
		c.JSON(http.StatusBadRequest, gin.H{"error": errAtRequired})
		return
	}
	c.JSON(http.StatusOK, gin.H{"at": at, "vl": h.services.Curve.Preview(at)})
}
