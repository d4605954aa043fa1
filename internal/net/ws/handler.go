package ws

import (
	"log"
	nethttp "net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"croplands/server/internal/net/intake"
	"croplands/server/internal/net/proto"
	"croplands/server/internal/room"
)

// Handler upgrades connections and pumps decoded client frames into the
// session's room.
type Handler struct {
	rooms    *room.Manager
	logger   *log.Logger
	upgrader websocket.Upgrader
}

// NewHandler constructs a websocket handler over the room manager.
func NewHandler(rooms *room.Manager, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *nethttp.Request) bool {
			return true
		},
	}
	return &Handler{rooms: rooms, logger: logger, upgrader: upgrader}
}

// Handle runs one client session to completion: upgrade, join, pump,
// leave.
func (h *Handler) Handle(w nethttp.ResponseWriter, r *nethttp.Request) {
	token := r.URL.Query().Get("token")
	classroomID := r.URL.Query().Get("classroom")
	if token == "" || classroomID == "" {
		nethttp.Error(w, "missing token or classroom", nethttp.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("upgrade failed for classroom %s: %v", classroomID, err)
		return
	}
	conn.SetReadLimit(16 * 1024)

	ctx := r.Context()
	rm := h.rooms.GetOrCreate(classroomID)
	sessionID := uuid.NewString()
	session := NewSession(conn)

	ack, err := rm.Join(ctx, token, sessionID, session)
	if err != nil {
		h.logger.Printf("join rejected for classroom %s: %v", classroomID, err)
		message := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "access denied")
		conn.WriteMessage(websocket.CloseMessage, message)
		conn.Close()
		return
	}

	if err := session.Send(ack); err != nil {
		rm.Leave(sessionID)
		return
	}

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			rm.Leave(sessionID)
			return
		}

		msg, err := proto.DecodeClientMessage(payload)
		if err != nil {
			h.logger.Printf("discarding frame from %s: %v", sessionID, err)
			continue
		}

		switch msg.Type {
		case proto.TypeHeartbeat:
			hb, ok := rm.Heartbeat(sessionID, msg.SentAt)
			if !ok {
				continue
			}
			if err := session.Send(hb); err != nil {
				rm.Leave(sessionID)
				return
			}
		default:
			if !intake.Dispatch(ctx, rm, sessionID, msg) {
				h.logger.Printf("unhandled message type %q from %s", msg.Type, sessionID)
			}
		}
	}
}
