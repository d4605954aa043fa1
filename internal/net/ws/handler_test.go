package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"croplands/server/internal/items"
	"croplands/server/internal/room"
)

type openClassrooms struct{}

func (openClassrooms) IsUserInClassroom(_ context.Context, userID, _ string) (bool, error) {
	return userID != "intruder", nil
}

type emptyEquipment struct{}

func (emptyEquipment) Loadout(context.Context, string) (items.Loadout, error) {
	return items.Loadout{}, nil
}

func (emptyEquipment) Equip(context.Context, string, string) (items.Loadout, error) {
	return items.Loadout{}, nil
}

func (emptyEquipment) Unequip(context.Context, string, items.EquipSlot) (items.Loadout, error) {
	return items.Loadout{}, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *room.Manager) {
	t.Helper()
	cfg := room.DefaultConfig()
	cfg.TickInterval = time.Hour
	cfg.PlacementRules = nil
	manager := room.NewManager(cfg, room.Deps{
		Catalog:    items.DefaultCatalog(),
		Auth:       room.AuthorizerFunc(func(ctx context.Context, token string) (string, error) { return token, nil }),
		Classrooms: openClassrooms{},
		Equipment:  emptyEquipment{},
	})
	t.Cleanup(manager.Close)

	handler := NewHandler(manager, nil)
	srv := httptest.NewServer(http.HandlerFunc(handler.Handle))
	t.Cleanup(srv.Close)
	return srv, manager
}

func dial(t *testing.T, serverURL, token, classroom string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(websocketURL(t, serverURL, token, classroom), nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		t.Fatalf("failed to open websocket connection: %v", err)
	}
	t.Cleanup(func() {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	})
	return conn
}

func websocketURL(t *testing.T, serverURL, token, classroom string) string {
	t.Helper()
	parsed, err := url.Parse(serverURL)
	if err != nil {
		t.Fatalf("parse server url: %v", err)
	}
	parsed.Scheme = "ws"
	query := parsed.Query()
	query.Set("token", token)
	query.Set("classroom", classroom)
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	var frame map[string]any
	if err := json.Unmarshal(payload, &frame); err != nil {
		t.Fatalf("decode frame %s: %v", payload, err)
	}
	return frame
}

func TestHandleRequiresTokenAndClassroom(t *testing.T) {
	srv, _ := newTestServer(t)

	_, resp, err := websocket.DefaultDialer.Dial(websocketURL(t, srv.URL, "", "class-1"), nil)
	if err == nil {
		t.Fatalf("expected dial to fail without a token")
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %+v", resp)
	}
	resp.Body.Close()
}

func TestHandleRejectsNonMembers(t *testing.T) {
	srv, manager := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(websocketURL(t, srv.URL, "intruder", "class-1"), nil)
	if err != nil {
		t.Fatalf("upgrade must succeed before the join check: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	if err == nil {
		t.Fatalf("expected the server to close a rejected session")
	}
	if !strings.Contains(err.Error(), "access denied") && !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Fatalf("expected a policy-violation close, got %v", err)
	}

	rm, ok := manager.Lookup("class-1")
	if !ok {
		t.Fatalf("room must exist after the attempt")
	}
	if players := rm.Snapshot().Players; len(players) != 0 {
		t.Fatalf("rejected join must leave no state, got %+v", players)
	}
}

func TestHandleJoinAckAndHeartbeat(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dial(t, srv.URL, "alice", "class-1")

	ack := readFrame(t, conn)
	if ack["type"] != "join_ack" {
		t.Fatalf("expected join_ack first, got %+v", ack)
	}
	if sessionID, _ := ack["sessionId"].(string); sessionID == "" {
		t.Fatalf("join_ack must carry a session id: %+v", ack)
	}
	if _, ok := ack["keyframe"].(map[string]any); !ok {
		t.Fatalf("join_ack must carry a keyframe: %+v", ack)
	}

	if err := conn.WriteJSON(map[string]any{"type": "heartbeat", "sentAt": time.Now().UnixMilli()}); err != nil {
		t.Fatalf("send heartbeat: %v", err)
	}
	hb := readFrame(t, conn)
	if hb["type"] != "heartbeat_ack" {
		t.Fatalf("expected heartbeat_ack, got %+v", hb)
	}
}

func TestHandleMalformedFramesAreIsolated(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dial(t, srv.URL, "alice", "class-1")
	readFrame(t, conn)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"move"`)); err != nil {
		t.Fatalf("send malformed frame: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"select_hotbar","slotIndex":99}`)); err != nil {
		t.Fatalf("send invalid frame: %v", err)
	}

	if err := conn.WriteJSON(map[string]any{"type": "heartbeat", "sentAt": time.Now().UnixMilli()}); err != nil {
		t.Fatalf("send heartbeat after garbage: %v", err)
	}
	hb := readFrame(t, conn)
	if hb["type"] != "heartbeat_ack" {
		t.Fatalf("session must survive malformed frames, got %+v", hb)
	}
}

func TestHandleKeyframeRequestMissReturnsNack(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dial(t, srv.URL, "alice", "class-1")
	readFrame(t, conn)

	if err := conn.WriteJSON(map[string]any{"type": "keyframe_request", "keyframeSeq": 9999}); err != nil {
		t.Fatalf("send keyframe request: %v", err)
	}
	frame := readFrame(t, conn)
	if frame["type"] != "keyframe_nack" {
		t.Fatalf("expected keyframe_nack for an unknown sequence, got %+v", frame)
	}
}

func TestHandleDisconnectRemovesPlayer(t *testing.T) {
	srv, manager := newTestServer(t)
	conn := dial(t, srv.URL, "alice", "class-1")
	readFrame(t, conn)

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()

	rm, _ := manager.Lookup("class-1")
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(rm.Snapshot().Players) == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("disconnect must remove the player, still present: %+v", rm.Snapshot().Players)
}
