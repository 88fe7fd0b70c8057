package handlers

import (
	"net/http"
	"time"

	"dealflow/internal/handlers/business"
	"dealflow/internal/models"

	"github.com/gin-gonic/gin"
)

// CreateSPVRequest is the request body for creating an SPV from an accepted
// interest. The UI's multi-step wizard collapses into this one flat struct.
type CreateSPVRequest struct {
	InterestID      uint       `json:"interest_id" binding:"required"`
	Name            string     `json:"name" binding:"required"`
	TargetAmount    float64    `json:"target_amount" binding:"required"`
	CarryPercentage float64    `json:"carry_percentage"`
	Description     string     `json:"description"`
	ClosesAt        *time.Time `json:"closes_at"`
}

// CreateSPV creates a pooled vehicle from the caller's accepted interest
func CreateSPV(c *gin.Context) {
	caller, ok := callerIdentity(c)
	if !ok {
		return
	}

	var request CreateSPVRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	spv, err := business.CreateSPV(caller, business.CreateSPVInput{
		InterestID:      request.InterestID,
		Name:            request.Name,
		TargetAmount:    request.TargetAmount,
		CarryPercentage: request.CarryPercentage,
		Description:     request.Description,
		ClosesAt:        request.ClosesAt,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, spv)
}

// GetSPV returns a specific SPV by ID
func GetSPV(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	spv, err := business.GetSPV(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, spv)
}

// ActivateSPV moves a planning SPV to active
func ActivateSPV(c *gin.Context) {
	spvTransition(c, business.ActivateSPV)
}

// CloseSPV closes an active SPV
func CloseSPV(c *gin.Context) {
	spvTransition(c, business.CloseSPV)
}

// CancelSPV cancels a non-closed SPV and declines its open memberships
func CancelSPV(c *gin.Context) {
	spvTransition(c, business.CancelSPV)
}

// ListSPVsByDeal returns all SPVs raised against a deal
func ListSPVsByDeal(c *gin.Context) {
	dealID, ok := parseIDParam(c, "deal_id")
	if !ok {
		return
	}

	spvs, err := business.ListSPVsByDeal(dealID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, spvs)
}

// ListSPVsByLead returns all SPVs led by an investor
func ListSPVsByLead(c *gin.Context) {
	investorID, ok := parseIDParam(c, "investor_id")
	if !ok {
		return
	}

	spvs, err := business.ListSPVsByLead(investorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, spvs)
}

func spvTransition(c *gin.Context, fn func(business.Caller, uint) (*models.SPV, error)) {
	caller, ok := callerIdentity(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	spv, err := fn(caller, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, spv)
}
