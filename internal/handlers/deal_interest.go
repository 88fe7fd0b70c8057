package handlers

import (
	"net/http"

	"dealflow/internal/handlers/business"

	"github.com/gin-gonic/gin"
)

// SubmitInterestRequest is the request body for submitting a deal interest
type SubmitInterestRequest struct {
	DealID uint    `json:"deal_id" binding:"required"`
	Amount float64 `json:"amount" binding:"required"`
	Notes  string  `json:"notes"`
}

// DecideInterestRequest is the request body for deciding a pending interest
type DecideInterestRequest struct {
	Decision string `json:"decision" binding:"required"`
}

// SubmitInterest records the caller's intent to invest in a deal
func SubmitInterest(c *gin.Context) {
	caller, ok := callerIdentity(c)
	if !ok {
		return
	}

	var request SubmitInterestRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	interest, err := business.SubmitInterest(caller, request.DealID, request.Amount, request.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, interest)
}

// DecideInterest accepts or rejects a pending interest
func DecideInterest(c *gin.Context) {
	caller, ok := callerIdentity(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var request DecideInterestRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	interest, err := business.DecideInterest(caller, id, request.Decision)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, interest)
}

// GetDealInterest returns a specific interest by ID
func GetDealInterest(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	interest, err := business.GetInterest(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, interest)
}

// ListDealInterestsByDeal returns all interests recorded for a deal
func ListDealInterestsByDeal(c *gin.Context) {
	dealID, ok := parseIDParam(c, "deal_id")
	if !ok {
		return
	}

	interests, err := business.ListInterestsByDeal(dealID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, interests)
}
