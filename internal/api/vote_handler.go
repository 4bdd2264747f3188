package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/student-forum-api/internal/models"
	"github.com/student-forum-api/internal/service"
)

// VoteHandler handles POST .../:id/vote/:action for one target kind
type VoteHandler struct {
	kind     models.TargetKind
	services *service.Services
	log      zerolog.Logger
}

// NewVoteHandler creates a VoteHandler for articles or comments
func NewVoteHandler(kind models.TargetKind, services *service.Services, log zerolog.Logger) *VoteHandler {
	return &VoteHandler{
		kind:     kind,
		services: services,
		log:      log.With().Str("handler", string(kind)+"_vote").Logger(),
	}
}

// Cast handles POST /v1/{articles|comments}/:id/vote/:action
func (h *VoteHandler) Cast(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": service.ErrUnauthorized.Error()})
		return
	}

	outcome, err := h.services.Vote.CastVote(c.Request.Context(), h.kind, user.ID, c.Param("id"), c.Param("action"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Your vote has been " + string(outcome) + " successfully",
	})
}
