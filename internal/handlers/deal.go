package handlers

import (
	"net/http"

	"dealflow/internal/models"
	dbconfig "dealflow/pkg/config"

	"github.com/gin-gonic/gin"
)

// ListDeals returns the locally synced deal catalog. The catalog is owned by
// the external deal-management service; these endpoints are read-only.
func ListDeals(c *gin.Context) {
	var deals []models.Deal
	q := dbconfig.DB
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Order("created_at desc").Find(&deals).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, deals)
}

// GetDeal returns a specific deal by ID
func GetDeal(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var deal models.Deal
	if err := dbconfig.DB.First(&deal, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}
	c.JSON(http.StatusOK, deal)
}
