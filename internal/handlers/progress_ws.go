package handlers

import (
	"net/http"
	"time"

	"dealflow/internal/handlers/business"
	"dealflow/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// progressPushInterval is how often the live feed re-derives the aggregates.
const progressPushInterval = 2 * time.Second

var progressUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Cross-origin policy is enforced by the CORS middleware upstream.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StreamSPVProgress upgrades the connection and pushes fresh progress
// aggregates on an interval until the client disconnects or the SPV reaches a
// terminal state. Each frame is derived from the current transactional
// snapshot, so the commitment bar a client renders is never stale or above
// 100%.
func StreamSPVProgress(c *gin.Context) {
	spvID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if _, err := business.GetSPV(spvID); err != nil {
		respondError(c, err)
		return
	}

	conn, err := progressUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warnf("progress feed upgrade failed for spv %d: %v", spvID, err)
		return
	}
	defer conn.Close()

	// Drain control frames so client close is noticed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(progressPushInterval)
	defer ticker.Stop()

	for {
		progress, err := business.GetProgress(spvID)
		if err != nil {
			log.Warnf("progress feed for spv %d stopping: %v", spvID, err)
			return
		}
		if err := conn.WriteJSON(progress); err != nil {
			return
		}
		if progress.Status != models.SPVStatusPlanning && progress.Status != models.SPVStatusActive {
			return
		}
		<-ticker.C
	}
}
