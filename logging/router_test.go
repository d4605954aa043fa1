package logging_test

import (
	"context"
	"testing"
	"time"

	"croplands/server/logging"
	"croplands/server/logging/sinks"
)

func newTestRouter(t *testing.T, cfg logging.Config) (*logging.Router, *sinks.Memory) {
	t.Helper()
	mem := sinks.NewMemory()
	router, err := logging.NewRouter(logging.SystemClock{}, cfg, []logging.NamedSink{{Name: "memory", Sink: mem}})
	if err != nil {
		t.Fatalf("new router: %v", err)
	}
	t.Cleanup(func() {
		router.Close(context.Background())
	})
	return router, mem
}

func waitForEvents(t *testing.T, mem *sinks.Memory, want int) []logging.Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if events := mem.Events(); len(events) >= want {
			return events
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d events, have %d", want, len(mem.Events()))
	return nil
}

func TestRouterDeliversEvents(t *testing.T) {
	cfg := logging.DefaultConfig()
	router, mem := newTestRouter(t, cfg)

	router.Publish(context.Background(), logging.Event{
		Type:  "interaction",
		Tick:  7,
		Actor: logging.EntityRef{ID: "p1", Kind: logging.EntityKindPlayer},
	})

	events := waitForEvents(t, mem, 1)
	if events[0].Type != "interaction" || events[0].Tick != 7 {
		t.Fatalf("unexpected event %+v", events[0])
	}
	if events[0].Time.IsZero() {
		t.Fatalf("router must stamp missing timestamps")
	}
}

func TestRouterFiltersBelowMinimumSeverity(t *testing.T) {
	cfg := logging.DefaultConfig()
	cfg.MinimumSeverity = logging.SeverityWarn
	router, mem := newTestRouter(t, cfg)

	router.Publish(context.Background(), logging.Event{Type: "quiet", Severity: logging.SeverityInfo})
	router.Publish(context.Background(), logging.Event{Type: "loud", Severity: logging.SeverityError})

	events := waitForEvents(t, mem, 1)
	for _, event := range events {
		if event.Type == "quiet" {
			t.Fatalf("info event must be filtered at warn threshold")
		}
	}
}

func TestRouterStampsConfiguredFields(t *testing.T) {
	cfg := logging.DefaultConfig()
	cfg.Fields = map[string]any{"service": "croplands"}
	router, mem := newTestRouter(t, cfg)

	router.Publish(context.Background(), logging.Event{Type: "tagged", Severity: logging.SeverityInfo})

	events := waitForEvents(t, mem, 1)
	if events[0].Extra["service"] != "croplands" {
		t.Fatalf("expected stamped field, got %+v", events[0].Extra)
	}
}

func TestWithFieldsDoesNotOverride(t *testing.T) {
	var captured logging.Event
	base := logging.PublisherFunc(func(_ context.Context, event logging.Event) {
		captured = event
	})
	pub := logging.WithFields(base, map[string]any{"room": "default", "shard": "a"})

	pub.Publish(context.Background(), logging.Event{
		Type:  "x",
		Extra: map[string]any{"room": "classroom-7"},
	})

	if captured.Extra["room"] != "classroom-7" {
		t.Fatalf("existing extra must win, got %v", captured.Extra["room"])
	}
	if captured.Extra["shard"] != "a" {
		t.Fatalf("missing stamped field: %+v", captured.Extra)
	}
}
