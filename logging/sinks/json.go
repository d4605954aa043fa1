package sinks

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"croplands/server/logging"
)

// JSON appends newline-delimited JSON events to a file, flushing on a timer
// so a crash loses at most one interval of events.
type JSON struct {
	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
	ticker *time.Ticker
	done   chan struct{}
}

func NewJSON(cfg logging.JSONConfig) (*JSON, error) {
	path := cfg.FilePath
	if path == "" {
		path = "events.ndjson"
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open event log %s: %w", path, err)
	}
	interval := cfg.FlushInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	s := &JSON{
		file:   file,
		writer: bufio.NewWriter(file),
		ticker: time.NewTicker(interval),
		done:   make(chan struct{}),
	}
	go s.flushLoop()
	return s, nil
}

func (s *JSON) flushLoop() {
	for {
		select {
		case <-s.done:
			return
		case <-s.ticker.C:
			s.mu.Lock()
			s.writer.Flush()
			s.mu.Unlock()
		}
	}
}

func (s *JSON) Write(event logging.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.Type, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.writer.Write(payload); err != nil {
		return err
	}
	return s.writer.WriteByte('\n')
}

func (s *JSON) Close(context.Context) error {
	s.ticker.Stop()
	close(s.done)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writer.Flush(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}
