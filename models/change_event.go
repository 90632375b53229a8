package models

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// ChangeKind names the upstream entity whose mutation triggers a cascade
type ChangeKind string

const (
	ChangeFreightTable ChangeKind = "freight_table"
	ChangeFeeTable     ChangeKind = "fee_table"
	ChangeChannel      ChangeKind = "channel"
	ChangeChannelGroup ChangeKind = "channel_group"
	ChangeProduct      ChangeKind = "product"
	// ChangeSalePrice is emitted when a record's computed sale price moved
	ChangeSalePrice ChangeKind = "sale_price"
)

// Valid checks if the kind is valid
func (k ChangeKind) Valid() bool {
	switch k {
	case ChangeFreightTable, ChangeFeeTable, ChangeChannel, ChangeChannelGroup, ChangeProduct, ChangeSalePrice:
		return true
	default:
		return false
	}
}

// ChangeEvent is published after an upstream mutation is committed
type ChangeEvent struct {
	ID       uuid.UUID  `json:"id"`
	Kind     ChangeKind `json:"kind"`
	EntityID uint       `json:"entity_id"`
	// ProductID is set for sale price changes; EntityID then holds the channel
	ProductID  *uint     `json:"product_id,omitempty"`
	Reason     string    `json:"reason"`
	Actor      *string   `json:"actor,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewChangeEvent builds an event stamped with a fresh ID and the current UTC time
func NewChangeEvent(kind ChangeKind, entityID uint, reason string, actor *string) ChangeEvent {
	return ChangeEvent{
		ID:         uuid.New(),
		Kind:       kind,
		EntityID:   entityID,
		Reason:     reason,
		Actor:      actor,
		OccurredAt: time.Now().UTC(),
	}
}

// NewSalePriceChangeEvent builds the follow-up event of a reference channel record
func NewSalePriceChangeEvent(channelID, productID uint, reason string, actor *string) ChangeEvent {
	ev := NewChangeEvent(ChangeSalePrice, channelID, reason, actor)
	ev.ProductID = &productID
	return ev
}

// Key returns the partition key used by ordered transports
func (e ChangeEvent) Key() string {
	return string(e.Kind) + ":" + strconv.FormatUint(uint64(e.EntityID), 10)
}
