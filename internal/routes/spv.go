package routes

import (
	"dealflow/internal/handlers"

	"github.com/gin-gonic/gin"
)

// SetupSPVRoutes sets up all routes related to SPV and membership management
func SetupSPVRoutes(r *gin.Engine) {
	spv := r.Group("/spv")
	{
		spv.POST("", handlers.CreateSPV)
		spv.GET("/:id", handlers.GetSPV)
		spv.POST("/:id/activate", handlers.ActivateSPV)
		spv.POST("/:id/close", handlers.CloseSPV)
		spv.POST("/:id/cancel", handlers.CancelSPV)
		spv.GET("/deal/:deal_id", handlers.ListSPVsByDeal)
		spv.GET("/lead/:investor_id", handlers.ListSPVsByLead)
		spv.POST("/:id/members", handlers.InviteMember)
		spv.GET("/:id/members", handlers.ListSPVMembers)
		spv.PATCH("/:id/members/:mid", handlers.UpdateMembership)
		spv.GET("/:id/progress", handlers.GetSPVProgress)
		spv.GET("/:id/progress/ws", handlers.StreamSPVProgress)
		spv.GET("/:id/carry", handlers.GetSPVCarry)
	}
}
