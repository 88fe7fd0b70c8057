package handlers

import (
	"net/http"
	"strconv"

	"dealflow/internal/handlers/business"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// parseIDParam reads a positive integer path parameter.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return 0, false
	}
	return uint(id), true
}

// callerIdentity resolves the caller from the gateway headers. Identity and
// role resolution belong to the upstream identity service; the core trusts
// what it forwards.
func callerIdentity(c *gin.Context) (business.Caller, bool) {
	id, err := strconv.ParseUint(c.GetHeader("X-Investor-ID"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid X-Investor-ID header"})
		return business.Caller{}, false
	}
	role := c.GetHeader("X-Investor-Role")
	if role == "" {
		role = business.RoleInvestor
	}
	return business.Caller{InvestorID: uint(id), Role: role}, true
}

// respondError maps a business error onto the HTTP surface. Domain errors
// carry their code, reason and (for conflicts) the current entity state so
// the caller can re-render without another round trip.
func respondError(c *gin.Context, err error) {
	de, ok := business.AsDomainError(err)
	if !ok {
		log.Errorf("unclassified error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	status := http.StatusInternalServerError
	switch de.Code {
	case business.CodeValidation:
		status = http.StatusBadRequest
	case business.CodeAuthorization:
		status = http.StatusForbidden
	case business.CodeNotFound:
		status = http.StatusNotFound
	case business.CodeDuplicate, business.CodeStateConflict, business.CodeOverAllocation:
		status = http.StatusConflict
	case business.CodeTransient:
		status = http.StatusServiceUnavailable
	}

	body := gin.H{
		"error": de.Message,
		"code":  de.Code,
	}
	if de.Reason != "" {
		body["reason"] = de.Reason
	}
	if de.State != nil {
		body["state"] = de.State
	}
	c.JSON(status, body)
}
