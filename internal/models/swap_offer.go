package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SwapStatus string

// Swap status constants
const (
	SwapStatusPending   SwapStatus = "pending"
	SwapStatusAccepted  SwapStatus = "accepted"
	SwapStatusRejected  SwapStatus = "rejected"
	SwapStatusCancelled SwapStatus = "cancelled"
	SwapStatusCompleted SwapStatus = "completed"
)

// AllSwapStatuses lists every status in lifecycle order.
var AllSwapStatuses = []SwapStatus{
	SwapStatusPending,
	SwapStatusAccepted,
	SwapStatusRejected,
	SwapStatusCancelled,
	SwapStatusCompleted,
}

// swapTransitions holds every edge of the offer state machine.
var swapTransitions = map[SwapStatus][]SwapStatus{
	SwapStatusPending:  {SwapStatusAccepted, SwapStatusRejected, SwapStatusCancelled},
	SwapStatusAccepted: {SwapStatusCompleted},
}

func ParseSwapStatus(s string) (SwapStatus, bool) {
	status := SwapStatus(s)
	return status, status.Valid()
}

func (s SwapStatus) Valid() bool {
	switch s {
	case SwapStatusPending, SwapStatusAccepted, SwapStatusRejected, SwapStatusCancelled, SwapStatusCompleted:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s SwapStatus) IsTerminal() bool {
	return s.Valid() && len(swapTransitions[s]) == 0
}

func (s SwapStatus) CanTransitionTo(next SwapStatus) bool {
	for _, allowed := range swapTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// SwapOffer is a proposed exchange of OfferedSkill for WantedSkill between
// OfferedBy and RequestedFrom. Only Status and UpdatedAt change after creation.
type SwapOffer struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	OfferedBy     uint       `gorm:"not null;index:idx_swap_offers_offered_by;uniqueIndex:idx_swap_offers_pending_tuple,where:status = 'pending'" json:"offered_by"`
	RequestedFrom uint       `gorm:"not null;index:idx_swap_offers_requested_from;uniqueIndex:idx_swap_offers_pending_tuple,where:status = 'pending'" json:"requested_from"`
	OfferedSkill  string     `gorm:"type:varchar(255);not null;uniqueIndex:idx_swap_offers_pending_tuple,where:status = 'pending'" json:"offered_skill"`
	WantedSkill   string     `gorm:"type:varchar(255);not null;uniqueIndex:idx_swap_offers_pending_tuple,where:status = 'pending'" json:"wanted_skill"`
	Status        SwapStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime;index" json:"updated_at"`

	OfferedByUser     *UserBrief `gorm:"-" json:"offered_by_user,omitempty"`
	RequestedFromUser *UserBrief `gorm:"-" json:"requested_from_user,omitempty"`
}

func (o *SwapOffer) IsParty(userID uint) bool {
	return o.OfferedBy == userID || o.RequestedFrom == userID
}

// CounterpartyOf returns the other party of the offer from userID's side.
func (o *SwapOffer) CounterpartyOf(userID uint) uint {
	if o.OfferedBy == userID {
		return o.RequestedFrom
	}
	return o.OfferedBy
}

// BeforeCreate assigns the ID and rejects records that break the offer invariants.
func (o *SwapOffer) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.OfferedBy == o.RequestedFrom {
		return gorm.ErrInvalidData
	}
	if o.Status == "" {
		o.Status = SwapStatusPending
	}
	if o.Status != SwapStatusPending {
		return gorm.ErrInvalidData
	}
	return nil
}

func (SwapOffer) TableName() string {
	return "swap_offers"
}
