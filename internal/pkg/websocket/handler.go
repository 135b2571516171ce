package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/careportal/internal/app/models"
)

// ActorResolver extracts the authenticated actor placed on the context by the
// auth middleware.
type ActorResolver func(c *gin.Context) (models.Actor, bool)

// Handler for WebSocket connections
type Handler struct {
	hub          *Hub
	resolveActor ActorResolver
	clientBuffer int
	logger       zerolog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, resolveActor ActorResolver, clientBuffer int, logger zerolog.Logger) *Handler {
	if clientBuffer <= 0 {
		clientBuffer = 256
	}
	return &Handler{
		hub:          hub,
		resolveActor: resolveActor,
		clientBuffer: clientBuffer,
		logger:       logger,
	}
}

// tablesByRole lists the feeds each role may subscribe to.
var tablesByRole = map[models.Role][]string{
	models.RoleApplicant:          {models.TableApplications},
	models.RoleStudent:            {models.TableReferralRequests, models.TableStudents},
	models.RoleDepartmentReferrer: {models.TableReferralRequests, models.TableStudents},
	models.RoleCareStaff:          {models.TableReferralRequests, models.TableStudents, models.TableApplications},
}

// Subscription resolves which table and owner filter a connection gets.
// Applicants and students are always pinned to their own records.
func Subscription(actor models.Actor, table, owner string) (string, string, bool) {
	allowed := false
	for _, t := range tablesByRole[actor.Role] {
		if t == table {
			allowed = true
			break
		}
	}
	if !allowed {
		return "", "", false
	}
	switch actor.Role {
	case models.RoleApplicant, models.RoleStudent:
		return table, actor.SubjectID, true
	}
	return table, owner, true
}

// HandleConnection godoc
// @Summary Subscribe to the change feed
// @Description Upgrades the connection to a WebSocket and streams committed changes for one table. Students and applicants only receive their own records.
// @Tags feed
// @Produce json
// @Security BearerAuth
// @Param table path string true "Table" Enums(referral_requests, students, applications)
// @Param owner query string false "Owner student id filter (staff only)"
// @Success 101 {string} string "Switching Protocols to WebSocket"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Router /feed/{table}/ws [get]
func (h *Handler) HandleConnection(c *gin.Context) {
	actor, ok := h.resolveActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	table, owner, ok := Subscription(actor, c.Param("table"), c.Query("owner"))
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "feed not available for this role"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("table", table).
			Str("subject", actor.SubjectID).
			Msg("Failed to upgrade connection to WebSocket")
		return
	}

	client := &Client{
		hub:     h.hub,
		conn:    conn,
		send:    make(chan []byte, h.clientBuffer),
		subject: actor.SubjectID,
		table:   table,
		owner:   owner,
		logger:  h.logger,
	}
	select {
	case h.hub.register <- client:
	case <-h.hub.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()

	h.logger.Info().
		Str("table", table).
		Str("subject", actor.SubjectID).
		Str("remoteAddr", conn.RemoteAddr().String()).
		Msg("WebSocket connection established")
}
