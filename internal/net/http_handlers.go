// Package net wires the HTTP surface: health, diagnostics, and the
// websocket endpoint.
package net

import (
	"encoding/json"
	"log"
	nethttp "net/http"
	"time"

	"croplands/server/internal/net/ws"
	"croplands/server/internal/room"
)

// HTTPHandlerConfig tunes the HTTP surface.
type HTTPHandlerConfig struct {
	ClientDir string
	Logger    *log.Logger
}

// NewHTTPHandler builds the server mux over the room manager.
func NewHTTPHandler(rooms *room.Manager, cfg HTTPHandlerConfig) nethttp.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	mux := nethttp.NewServeMux()

	mux.HandleFunc("/health", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/diagnostics", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		type roomInfo struct {
			ClassroomID  string `json:"classroomId"`
			Players      int    `json:"players"`
			WorldObjects int    `json:"worldObjects"`
			Tick         uint64 `json:"tick"`
			Sequence     uint64 `json:"sequence"`
		}

		live := rooms.Rooms()
		infos := make([]roomInfo, 0, len(live))
		for _, rm := range live {
			snapshot := rm.Snapshot()
			infos = append(infos, roomInfo{
				ClassroomID:  rm.ClassroomID(),
				Players:      len(snapshot.Players),
				WorldObjects: len(snapshot.WorldObjects),
				Tick:         snapshot.Tick,
				Sequence:     snapshot.Sequence,
			})
		}

		payload := struct {
			Status     string     `json:"status"`
			ServerTime int64      `json:"serverTime"`
			Rooms      []roomInfo `json:"rooms"`
		}{
			Status:     "ok",
			ServerTime: time.Now().UnixMilli(),
			Rooms:      infos,
		}

		data, err := json.Marshal(payload)
		if err != nil {
			nethttp.Error(w, "failed to encode", nethttp.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	wsHandler := ws.NewHandler(rooms, logger)
	mux.HandleFunc("/ws", wsHandler.Handle)

	if cfg.ClientDir != "" {
		fs := nethttp.FileServer(nethttp.Dir(cfg.ClientDir))
		mux.Handle("/", fs)
	}

	return mux
}
