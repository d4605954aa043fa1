package net

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"croplands/server/internal/items"
	"croplands/server/internal/room"
)

type openClassrooms struct{}

func (openClassrooms) IsUserInClassroom(context.Context, string, string) (bool, error) {
	return true, nil
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

func newTestManager(t *testing.T) *room.Manager {
	t.Helper()
	cfg := room.DefaultConfig()
	cfg.TickInterval = time.Hour
	manager := room.NewManager(cfg, room.Deps{
		Catalog:    items.DefaultCatalog(),
		Auth:       room.AuthorizerFunc(func(ctx context.Context, token string) (string, error) { return token, nil }),
		Classrooms: openClassrooms{},
		Equipment:  emptyEquipment{},
	})
	t.Cleanup(manager.Close)
	return manager
}

func TestHealthEndpoint(t *testing.T) {
	handler := NewHTTPHandler(newTestManager(t), HTTPHandlerConfig{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if body := resp.Body.String(); body != "ok" {
		t.Fatalf("expected ok body, got %q", body)
	}
}

func TestDiagnosticsListsRooms(t *testing.T) {
	manager := newTestManager(t)
	manager.GetOrCreate("class-1")
	manager.GetOrCreate("class-2")

	handler := NewHTTPHandler(manager, HTTPHandlerConfig{})
	req := httptest.NewRequest(http.MethodGet, "/diagnostics", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if contentType := resp.Header().Get("Content-Type"); contentType != "application/json" {
		t.Fatalf("expected application/json, got %q", contentType)
	}

	var payload struct {
		Status string `json:"status"`
		Rooms  []struct {
			ClassroomID  string `json:"classroomId"`
			WorldObjects int    `json:"worldObjects"`
		} `json:"rooms"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode diagnostics: %v", err)
	}
	if payload.Status != "ok" || len(payload.Rooms) != 2 {
		t.Fatalf("unexpected diagnostics payload: %+v", payload)
	}
}

func TestWebsocketEndpointValidatesQuery(t *testing.T) {
	handler := NewHTTPHandler(newTestManager(t), HTTPHandlerConfig{})

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without credentials, got %d", resp.Code)
	}
}
