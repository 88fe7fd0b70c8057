package handlers

import (
	"net/http"

	"dealflow/internal/handlers/business"

	"github.com/gin-gonic/gin"
)

// GetSPVProgress returns the current funding aggregates of an SPV
func GetSPVProgress(c *gin.Context) {
	spvID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	progress, err := business.GetProgress(spvID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

// GetSPVCarry returns the carry distribution of a closed SPV
func GetSPVCarry(c *gin.Context) {
	spvID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	dist, err := business.ComputeCarryDistribution(spvID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dist)
}
