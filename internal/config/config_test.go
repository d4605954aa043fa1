package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"croplands/server/logging"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("unexpected addr %q", cfg.Server.Addr)
	}
	rc := cfg.RoomConfig()
	if rc.TickInterval != 200*time.Millisecond || rc.DefaultMapKey != "farm" {
		t.Fatalf("defaults must match the room package: %+v", rc)
	}
}

func TestLoadOverridesAndProjection(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
room:
  tick_millis: 100
  keyframe_interval: 30
  default_map_key: orchard
  spawn_x: 4
  spawn_y: 5
  max_stamina: 30
  stamina_regen_per_sec: 2
  world_seed: 77
  placements:
    - definition_id: oak_tree
      density: 0.1
      min_spacing: 3
logging:
  sinks: [console, json]
  json_file_path: /tmp/croplands.ndjson
  min_severity: warn
roster:
  - classroom_id: class-1
    user_ids: [alice, bob]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	rc := cfg.RoomConfig()
	if rc.TickInterval != 100*time.Millisecond || rc.KeyframeInterval != 30 {
		t.Fatalf("room overrides missing: %+v", rc)
	}
	if rc.DefaultMapKey != "orchard" || rc.SpawnX != 4 || rc.WorldSeed != 77 {
		t.Fatalf("room overrides missing: %+v", rc)
	}
	if len(rc.PlacementRules) != 1 || rc.PlacementRules[0].DefinitionID != "oak_tree" {
		t.Fatalf("placement rules must carry over: %+v", rc.PlacementRules)
	}

	lc := cfg.LoggingConfig()
	if lc.MinimumSeverity != logging.SeverityWarn {
		t.Fatalf("severity must project, got %v", lc.MinimumSeverity)
	}
	if !lc.HasSink("json") || lc.JSON.FilePath != "/tmp/croplands.ndjson" {
		t.Fatalf("json sink must project: %+v", lc)
	}

	if len(cfg.Roster) != 1 || cfg.Roster[0].ClassroomID != "class-1" || len(cfg.Roster[0].UserIDs) != 2 {
		t.Fatalf("roster must load: %+v", cfg.Roster)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"empty database path", "storage:\n  database_path: \"\"\n"},
		{"bad severity", "logging:\n  min_severity: loud\n"},
		{"json sink without path", "logging:\n  sinks: [json]\n"},
		{"density out of range", "room:\n  placements:\n    - definition_id: oak_tree\n      density: 1.5\n"},
		{"placement without definition", "room:\n  placements:\n    - density: 0.1\n"},
		{"roster without users", "roster:\n  - classroom_id: class-1\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tc.body)); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "room: [not: a: map")); err == nil {
		t.Fatalf("malformed yaml must fail")
	}
}
