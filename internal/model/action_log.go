package model

import "github.com/google/uuid"

// ActionLog records every confirmed ledger action: which tag, which product,
// which transaction, who asked for it. It is the audit trail operators use
// to reconcile the mirror when a mirror write fails after ledger success.
type ActionLog struct {
	BaseModel
	Action    string    `gorm:"type:varchar(40);not null" json:"action"`
	ProductID string    `gorm:"type:varchar(64);index" json:"product_id"`
	TxHash    string    `gorm:"type:varchar(80);not null" json:"tx_hash"`
	ActorID   uuid.UUID `gorm:"type:uuid;index" json:"actor_id"`
	Actor     *User     `gorm:"foreignKey:ActorID" json:"actor,omitempty"`

	// Raw payload snapshot, for replaying a failed mirror sync
	Payload string `gorm:"type:text" json:"payload,omitempty"`

	// False when the ledger committed but the mirror write failed
	MirrorSynced bool `gorm:"default:true" json:"mirror_synced"`
}
