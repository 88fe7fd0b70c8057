package routes

import (
	"dealflow/internal/handlers"

	"github.com/gin-gonic/gin"
)

// SetupDealRoutes sets up the read-only deal catalog routes
func SetupDealRoutes(r *gin.Engine) {
	deal := r.Group("/deal")
	{
		deal.GET("", handlers.ListDeals)
		deal.GET("/:id", handlers.GetDeal)
	}
}
