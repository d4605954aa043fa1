package room

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"croplands/server/internal/grid"
	"croplands/server/internal/items"
	"croplands/server/internal/rules"
	"croplands/server/logging"
	"croplands/server/logging/gameplay"
)

// Config tunes one room's simulation loop and world generation.
type Config struct {
	TickInterval       time.Duration
	HeartbeatTimeout   time.Duration
	KeyframeInterval   int
	KeyframeCapacity   int
	KeyframeMaxAge     time.Duration
	DefaultMapKey      string
	SpawnX             int
	SpawnY             int
	MaxStamina         int
	StaminaRegenPerSec int
	WorldSeed          int64
	PlacementRules     []PlacementRule
}

// DefaultConfig returns the reference deployment settings.
func DefaultConfig() Config {
	return Config{
		TickInterval:       200 * time.Millisecond,
		HeartbeatTimeout:   15 * time.Second,
		KeyframeInterval:   15,
		KeyframeCapacity:   defaultKeyframeCapacity,
		KeyframeMaxAge:     defaultKeyframeMaxAge,
		DefaultMapKey:      "farm",
		SpawnX:             16,
		SpawnY:             16,
		MaxStamina:         20,
		StaminaRegenPerSec: 1,
		WorldSeed:          1,
		PlacementRules: []PlacementRule{
			{DefinitionID: items.ObjectOakTree, Density: 0.05, MinSpacing: 2},
			{DefinitionID: items.ObjectGraniteRock, Density: 0.03, MinSpacing: 2},
			{DefinitionID: items.ObjectSupplyCrate, Density: 0.01, MinSpacing: 4},
		},
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.TickInterval <= 0 {
		c.TickInterval = d.TickInterval
	}
	if c.HeartbeatTimeout <= 0 {
		c.HeartbeatTimeout = d.HeartbeatTimeout
	}
	if c.KeyframeInterval <= 0 {
		c.KeyframeInterval = d.KeyframeInterval
	}
	if c.DefaultMapKey == "" {
		c.DefaultMapKey = d.DefaultMapKey
	}
	if c.MaxStamina <= 0 {
		c.MaxStamina = d.MaxStamina
	}
	if c.StaminaRegenPerSec < 0 {
		c.StaminaRegenPerSec = 0
	}
	return c
}

// Deps are the external collaborators one room consumes. Catalog and the
// services must be non-nil; Publisher and Clock default when omitted.
type Deps struct {
	Catalog    items.Catalog
	Auth       Authorizer
	Classrooms ClassroomService
	Inventory  InventoryService
	Equipment  EquipmentService
	Currency   CurrencyService
	Containers ContainerService
	Tasks      TaskService
	Publisher  logging.Publisher
	Clock      func() time.Time
}

type session struct {
	sessionID     string
	userID        string
	sender        Sender
	lastHeartbeat time.Time
	rttMillis     int64
}

// Room owns one classroom's authoritative state. All schema access happens
// under mu; service calls run outside it with re-validation on return. The
// tick counter is atomic so it stays readable from panic recovery paths
// that must never touch the lock.
type Room struct {
	mu        sync.Mutex
	cfg       Config
	deps      Deps
	state     *RoomState
	journal   *Journal
	sessions  map[string]*session
	seeded    map[string]bool
	lootRNG   *rand.Rand
	tick      atomic.Uint64
	version   uint64
	lastRegen time.Time
}

// New builds a room for the classroom, seeds the grid, and spawns the
// default map's world objects deterministically from the configured seed.
func New(classroomID string, cfg Config, deps Deps) *Room {
	cfg = cfg.withDefaults()
	if deps.Publisher == nil {
		deps.Publisher = logging.NopPublisher()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}

	r := &Room{
		cfg:       cfg,
		deps:      deps,
		state:     NewRoomState(classroomID),
		journal:   NewJournal(cfg.KeyframeCapacity, cfg.KeyframeMaxAge),
		sessions:  make(map[string]*session),
		seeded:    make(map[string]bool),
		lootRNG:   rand.New(rand.NewSource(cfg.WorldSeed)),
		lastRegen: deps.Clock(),
	}
	r.state.SeedTiles()
	r.seedTileFeatures()
	r.seedMapLocked(cfg.DefaultMapKey)
	return r
}

// seedTileFeatures converts a deterministic subset of tiles into tilled soil
// and tree/rock features so interactions have targets from the first tick.
func (r *Room) seedTileFeatures() {
	rng := rand.New(rand.NewSource(r.cfg.WorldSeed + 1))
	for y := 0; y < grid.Size; y++ {
		for x := 0; x < grid.Size; x++ {
			if x == r.cfg.SpawnX && y == r.cfg.SpawnY {
				continue
			}
			roll := rng.Float64()
			tile := r.state.Tiles[grid.KeyFor(x, y)]
			switch {
			case roll < 0.04:
				tile.Kind = rules.TileKindTree
				tile.ObjectHealth = 3
			case roll < 0.06:
				tile.Kind = rules.TileKindRock
				tile.ObjectHealth = 2
			case roll < 0.12:
				tile.Kind = rules.TileKindTilledSoil
				tile.Tilled = true
			}
		}
	}
}

// seedMapLocked spawns the destructible world objects for a map the first
// time a player enters it. Safe at construction time before Run starts.
func (r *Room) seedMapLocked(mapKey string) {
	if r.seeded[mapKey] {
		return
	}
	r.seeded[mapKey] = true

	occupied := map[grid.TileKey]struct{}{
		grid.KeyFor(r.cfg.SpawnX, r.cfg.SpawnY): {},
	}
	placements := GenerateProceduralPlacements(r.cfg.PlacementRules, r.cfg.WorldSeed^int64(len(mapKey)), occupied)
	SortPlacements(placements)
	objects := SpawnWorldObjectsForMap(mapKey, placements, func(definitionID string) int {
		def, ok := r.deps.Catalog.Definition(definitionID)
		if !ok {
			return 0
		}
		return def.DestroyableHealth()
	})
	// Spawn in placement order so the join patches replicate identically
	// for every observer of the same seed.
	for _, placement := range placements {
		if obj, ok := objects[grid.ObjectKeyFor(mapKey, placement.GridX, placement.GridY)]; ok {
			r.spawnWorldObjectLocked(obj)
		}
	}
}

// ClassroomID returns the immutable classroom binding.
func (r *Room) ClassroomID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.ClassroomID
}

func (r *Room) nowMs() int64 {
	return r.deps.Clock().UnixMilli()
}

// Join authenticates the token, checks classroom membership, creates the
// PlayerState at spawn, and registers the transport session. A rejected
// join creates no state and broadcasts nothing.
func (r *Room) Join(ctx context.Context, token, sessionID string, sender Sender) (JoinAck, error) {
	userID, err := r.deps.Auth.Authorize(ctx, token)
	if err != nil {
		return JoinAck{}, fmt.Errorf("authorize join: %w", err)
	}
	classroomID := r.ClassroomID()
	member, err := r.deps.Classrooms.IsUserInClassroom(ctx, userID, classroomID)
	if err != nil {
		return JoinAck{}, fmt.Errorf("classroom lookup: %w", err)
	}
	if !member {
		return JoinAck{}, ErrAccessDenied
	}

	loadout, err := r.deps.Equipment.Loadout(ctx, userID)
	if err != nil {
		return JoinAck{}, fmt.Errorf("equipment sync: %w", err)
	}

	r.mu.Lock()
	if _, exists := r.state.Players[sessionID]; exists {
		r.mu.Unlock()
		return JoinAck{}, fmt.Errorf("session %s already joined", sessionID)
	}
	player := &PlayerState{
		SessionID:     sessionID,
		CurrentMapKey: r.cfg.DefaultMapKey,
		GridX:         r.cfg.SpawnX,
		GridY:         r.cfg.SpawnY,
		Stamina:       r.cfg.MaxStamina,
		MaxStamina:    r.cfg.MaxStamina,
	}
	player.EquippedHandItemID = loadout.Hand.InstanceID
	player.EquippedHeadItemID = loadout.Head.InstanceID
	player.EquippedHandDefID = loadout.Hand.DefinitionID
	player.EquippedHeadDefID = loadout.Head.DefinitionID

	r.state.Players[sessionID] = player
	r.version++
	r.journal.AppendPatch(Patch{
		Kind:     PatchPlayerJoined,
		EntityID: sessionID,
		Payload:  PlayerPayload{Player: *player},
	})
	r.sessions[sessionID] = &session{
		sessionID:     sessionID,
		userID:        userID,
		sender:        sender,
		lastHeartbeat: r.deps.Clock(),
	}
	ack := JoinAck{
		Type:      "join_ack",
		SessionID: sessionID,
		Keyframe:  r.buildKeyframeLocked(),
	}
	tick := r.tick.Load()
	r.mu.Unlock()

	gameplay.PlayerJoined(ctx, r.deps.Publisher, tick, sessionID, classroomID)
	return ack, nil
}

// Leave removes the player and its session. Replication diffing alone
// signals the removal to observers.
func (r *Room) Leave(sessionID string) {
	r.mu.Lock()
	sess, connected := r.sessions[sessionID]
	delete(r.sessions, sessionID)
	r.removePlayerLocked(sessionID)
	tick := r.tick.Load()
	classroomID := r.state.ClassroomID
	r.mu.Unlock()

	if connected {
		sess.sender.Close()
		gameplay.PlayerLeft(context.Background(), r.deps.Publisher, tick, sessionID, classroomID)
	}
}

// isBlockedLocked reports whether a collidable world object or an intact
// tile feature occupies the coordinate on the player's map.
func (r *Room) isBlockedLocked(mapKey string, x, y int) bool {
	if obj, ok := r.state.WorldObjects[grid.ObjectKeyFor(mapKey, x, y)]; ok {
		if def, found := r.deps.Catalog.Definition(obj.DefinitionID); found {
			if def.Destroyable != nil && def.Destroyable.Collidable {
				return true
			}
		}
	}
	if tile, ok := r.state.Tiles[grid.KeyFor(x, y)]; ok {
		if (tile.Kind == rules.TileKindTree || tile.Kind == rules.TileKindRock) && tile.ObjectHealth > 0 {
			return true
		}
	}
	return false
}

func (r *Room) handStatsLocked(p *PlayerState) rules.HandStats {
	if p.EquippedHandDefID == "" {
		return nil
	}
	def, ok := r.deps.Catalog.Definition(p.EquippedHandDefID)
	if !ok {
		return nil
	}
	return def.HandStats()
}

func (r *Room) buildKeyframeLocked() Keyframe {
	return Keyframe{
		Sequence:     r.version,
		Tick:         r.tick.Load(),
		RecordedAt:   r.deps.Clock(),
		Players:      r.state.clonePlayers(),
		Tiles:        r.state.cloneTiles(),
		WorldObjects: r.state.cloneWorldObjects(),
	}
}

// Run drives the fixed-rate tick until the context ends.
func (r *Room) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.advance(now)
		}
	}
}

// advance applies the per-tick duties: stamina regeneration, heartbeat
// expiry, keyframe recording, and the patch broadcast.
func (r *Room) advance(now time.Time) {
	r.mu.Lock()
	tick := r.tick.Add(1)

	if r.cfg.StaminaRegenPerSec > 0 && now.Sub(r.lastRegen) >= time.Second {
		for _, p := range r.state.Players {
			r.setPlayerStaminaLocked(p, p.Stamina+r.cfg.StaminaRegenPerSec)
		}
		r.lastRegen = now
	}

	var expired []*session
	for id, sess := range r.sessions {
		if now.Sub(sess.lastHeartbeat) > r.cfg.HeartbeatTimeout {
			expired = append(expired, sess)
			delete(r.sessions, id)
			r.removePlayerLocked(id)
		}
	}

	if tick%uint64(r.cfg.KeyframeInterval) == 0 {
		r.journal.RecordKeyframe(r.buildKeyframeLocked())
	}

	patches := r.journal.DrainPatches()
	sequence := r.version
	classroomID := r.state.ClassroomID
	subscribers := make([]*session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		subscribers = append(subscribers, sess)
	}
	r.mu.Unlock()

	for _, sess := range expired {
		sess.sender.Close()
		gameplay.PlayerExpired(context.Background(), r.deps.Publisher, tick, sess.sessionID, classroomID)
	}

	if len(patches) == 0 {
		return
	}
	msg := StateMessage{Type: "state", Tick: tick, Sequence: sequence, Patches: patches}
	delivered := false
	for _, sess := range subscribers {
		if err := sess.sender.Send(msg); err == nil {
			delivered = true
		}
	}
	if !delivered && len(subscribers) > 0 {
		r.journal.RestorePatches(patches)
	}
}

// Heartbeat refreshes a session's liveness and measures round-trip time.
func (r *Room) Heartbeat(sessionID string, clientSentMs int64) (HeartbeatAck, bool) {
	now := r.deps.Clock()
	r.mu.Lock()
	sess, ok := r.sessions[sessionID]
	if !ok {
		r.mu.Unlock()
		return HeartbeatAck{}, false
	}
	sess.lastHeartbeat = now
	if clientSentMs > 0 {
		rtt := now.UnixMilli() - clientSentMs
		if rtt >= 0 {
			sess.rttMillis = rtt
		}
	}
	rtt := sess.rttMillis
	r.mu.Unlock()

	return HeartbeatAck{
		Type:       "heartbeat_ack",
		ServerTime: now.UnixMilli(),
		ClientTime: clientSentMs,
		RTTMillis:  rtt,
	}, true
}

// RequestKeyframe serves a retained snapshot, or a nack plus the newest
// snapshot when the requested sequence has been evicted.
func (r *Room) RequestKeyframe(sessionID string, sequence uint64) {
	r.mu.Lock()
	sess, ok := r.sessions[sessionID]
	r.mu.Unlock()
	if !ok {
		return
	}
	if frame, found := r.journal.KeyframeBySequence(sequence); found {
		sess.sender.Send(KeyframeMessage{Type: "keyframe", Keyframe: frame})
		return
	}
	size, oldest, newest := r.journal.KeyframeWindow()
	sess.sender.Send(KeyframeNack{Type: "keyframe_nack", Requested: sequence, Oldest: oldest, Newest: newest})
	if size > 0 {
		if frame, found := r.journal.LatestKeyframe(); found {
			sess.sender.Send(KeyframeMessage{Type: "keyframe", Keyframe: frame})
		}
	}
}

// Snapshot exposes a point-in-time keyframe for diagnostics handlers.
func (r *Room) Snapshot() Keyframe {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buildKeyframeLocked()
}

func (r *Room) sendTo(sessionID string, message any) {
	r.mu.Lock()
	sess, ok := r.sessions[sessionID]
	r.mu.Unlock()
	if !ok {
		return
	}
	sess.sender.Send(message)
}

func (r *Room) sessionUser(sessionID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[sessionID]
	if !ok {
		return "", false
	}
	return sess.userID, true
}
