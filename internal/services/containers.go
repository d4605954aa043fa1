package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"croplands/server/internal/items"
	"croplands/server/internal/loot"
	"croplands/server/internal/room"
)

// Containers resolves container contents into one-time offers and enforces
// claim-once semantics by nonce. Replaying a claimed nonce returns the
// original claim so a retried client never double-grants.
type Containers struct {
	store     *Store
	catalog   items.Catalog
	inventory *Inventory
	currency  *Currency

	mu     sync.Mutex
	rng    *rand.Rand
	offers map[string]room.ContainerOffer
}

func NewContainers(store *Store, catalog items.Catalog, inventory *Inventory, currency *Currency, seed int64) *Containers {
	return &Containers{
		store:     store,
		catalog:   catalog,
		inventory: inventory,
		currency:  currency,
		rng:       rand.New(rand.NewSource(seed)),
		offers:    make(map[string]room.ContainerOffer),
	}
}

func offerKey(objectID, nonce string) string {
	return objectID + "|" + nonce
}

// Open resolves the container's loot table under a fresh nonce. An already
// claimed container cannot be reopened.
func (c *Containers) Open(ctx context.Context, _, objectID, definitionID string) (room.ContainerOffer, error) {
	if claimed, err := c.isClaimed(ctx, objectID); err != nil {
		return room.ContainerOffer{}, err
	} else if claimed {
		return room.ContainerOffer{}, room.ErrAlreadyClaimed
	}

	def, ok := c.catalog.Definition(definitionID)
	if !ok || def.Container == nil {
		return room.ContainerOffer{}, fmt.Errorf("definition %s has no container", definitionID)
	}

	c.mu.Lock()
	result := loot.Resolve(def.Container.Contents, c.rng)
	offer := room.ContainerOffer{
		Nonce:    uuid.NewString(),
		Items:    result.Items,
		Currency: mergeCurrency(result.Currency, def.Container.CurrencyRewards),
	}
	c.offers[offerKey(objectID, offer.Nonce)] = offer
	c.mu.Unlock()

	return offer, nil
}

func mergeCurrency(resolved, fixed map[string]int) map[string]int {
	if len(resolved) == 0 && len(fixed) == 0 {
		return nil
	}
	merged := make(map[string]int, len(resolved)+len(fixed))
	for currency, amount := range resolved {
		merged[currency] += amount
	}
	for currency, amount := range fixed {
		merged[currency] += amount
	}
	return merged
}

type claimRecord struct {
	Items    []items.Instance `json:"items"`
	Balances map[string]int   `json:"balances"`
}

// Claim grants an open offer exactly once. The same (object, nonce, user)
// replayed returns the stored result; any other claim attempt on a claimed
// object fails.
func (c *Containers) Claim(ctx context.Context, userID, objectID, nonce string) (room.ContainerClaim, error) {
	var (
		claimedBy   string
		storedNonce string
		resultJSON  string
	)
	err := c.store.db.QueryRowContext(ctx,
		`SELECT user_id, nonce, result_json FROM container_claims WHERE object_id = ?`,
		objectID).Scan(&claimedBy, &storedNonce, &resultJSON)
	switch {
	case err == nil:
		if claimedBy == userID && storedNonce == nonce {
			var record claimRecord
			if err := json.Unmarshal([]byte(resultJSON), &record); err != nil {
				return room.ContainerClaim{}, fmt.Errorf("decode stored claim: %w", err)
			}
			return room.ContainerClaim{Items: record.Items, Balances: record.Balances}, nil
		}
		return room.ContainerClaim{}, room.ErrAlreadyClaimed
	case !errors.Is(err, sql.ErrNoRows):
		return room.ContainerClaim{}, err
	}

	c.mu.Lock()
	offer, ok := c.offers[offerKey(objectID, nonce)]
	if ok {
		delete(c.offers, offerKey(objectID, nonce))
	}
	c.mu.Unlock()
	if !ok {
		return room.ContainerClaim{}, room.ErrNoOffer
	}

	granted, err := c.inventory.AddItems(ctx, userID, offer.Items)
	if err != nil {
		return room.ContainerClaim{}, fmt.Errorf("grant container items: %w", err)
	}
	balances := make(map[string]int, len(offer.Currency))
	for currency, amount := range offer.Currency {
		balance, err := c.currency.Add(ctx, userID, currency, amount)
		if err != nil {
			return room.ContainerClaim{}, fmt.Errorf("grant container currency: %w", err)
		}
		balances[currency] = balance
	}

	record := claimRecord{Items: granted, Balances: balances}
	encoded, err := json.Marshal(record)
	if err != nil {
		return room.ContainerClaim{}, err
	}
	if _, err := c.store.db.ExecContext(ctx,
		`INSERT INTO container_claims (object_id, user_id, nonce, result_json, claimed_at)
		 VALUES (?, ?, ?, ?, ?)`,
		objectID, userID, nonce, string(encoded), time.Now().UTC().Format(time.RFC3339)); err != nil {
		return room.ContainerClaim{}, fmt.Errorf("record claim: %w", err)
	}
	return room.ContainerClaim{Items: record.Items, Balances: record.Balances}, nil
}

func (c *Containers) isClaimed(ctx context.Context, objectID string) (bool, error) {
	var one int
	err := c.store.db.QueryRowContext(ctx,
		`SELECT 1 FROM container_claims WHERE object_id = ?`, objectID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
