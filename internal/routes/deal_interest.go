package routes

import (
	"dealflow/internal/handlers"

	"github.com/gin-gonic/gin"
)

// SetupDealInterestRoutes sets up all routes related to deal interest tracking
func SetupDealInterestRoutes(r *gin.Engine) {
	interest := r.Group("/deal-interest")
	{
		interest.POST("", handlers.SubmitInterest)
		interest.GET("/:id", handlers.GetDealInterest)
		interest.PATCH("/:id/decision", handlers.DecideInterest)
		interest.GET("/deal/:deal_id", handlers.ListDealInterestsByDeal)
	}
}
