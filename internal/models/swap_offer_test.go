package models

import (
	"testing"

	"github.com/google/uuid"
)

func TestSwapStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from SwapStatus
		to   SwapStatus
		want bool
	}{
		{SwapStatusPending, SwapStatusAccepted, true},
		{SwapStatusPending, SwapStatusRejected, true},
		{SwapStatusPending, SwapStatusCancelled, true},
		{SwapStatusPending, SwapStatusCompleted, false},
		{SwapStatusAccepted, SwapStatusCompleted, true},
		{SwapStatusAccepted, SwapStatusCancelled, false},
		{SwapStatusAccepted, SwapStatusPending, false},
		{SwapStatusRejected, SwapStatusPending, false},
		{SwapStatusRejected, SwapStatusAccepted, false},
		{SwapStatusCancelled, SwapStatusPending, false},
		{SwapStatusCompleted, SwapStatusCompleted, false},
		{SwapStatusCompleted, SwapStatusAccepted, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("CanTransitionTo() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSwapStatus_IsTerminal(t *testing.T) {
	terminal := map[SwapStatus]bool{
		SwapStatusPending:   false,
		SwapStatusAccepted:  false,
		SwapStatusRejected:  true,
		SwapStatusCancelled: true,
		SwapStatusCompleted: true,
	}

	for status, want := range terminal {
		if got := status.IsTerminal(); got != want {
			t.Errorf("%s.IsTerminal() = %v, want %v", status, got, want)
		}
	}

	if SwapStatus("archived").IsTerminal() {
		t.Error("unknown status must not be reported terminal")
	}
}

func TestParseSwapStatus(t *testing.T) {
	for _, s := range AllSwapStatuses {
		if got, ok := ParseSwapStatus(string(s)); !ok || got != s {
			t.Errorf("ParseSwapStatus(%q) = %q, %v", s, got, ok)
		}
	}

	for _, bad := range []string{"", "PENDING", "expired"} {
		if _, ok := ParseSwapStatus(bad); ok {
			t.Errorf("ParseSwapStatus(%q) should fail", bad)
		}
	}
}

func TestSwapOffer_BeforeCreate(t *testing.T) {
	tests := []struct {
		name    string
		offer   SwapOffer
		wantErr bool
	}{
		{
			name:    "Defaults to pending",
			offer:   SwapOffer{OfferedBy: 1, RequestedFrom: 2, OfferedSkill: "Guitar", WantedSkill: "Piano"},
			wantErr: false,
		},
		{
			name:    "Self swap",
			offer:   SwapOffer{OfferedBy: 1, RequestedFrom: 1, OfferedSkill: "Guitar", WantedSkill: "Piano"},
			wantErr: true,
		},
		{
			name:    "Created in non-initial state",
			offer:   SwapOffer{OfferedBy: 1, RequestedFrom: 2, Status: SwapStatusAccepted},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offer := tt.offer
			err := offer.BeforeCreate(nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("BeforeCreate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				if offer.ID == uuid.Nil {
					t.Error("BeforeCreate() should assign an ID")
				}
				if offer.Status != SwapStatusPending {
					t.Errorf("Status = %q, want pending", offer.Status)
				}
			}
		})
	}
}

func TestSwapOffer_Parties(t *testing.T) {
	offer := SwapOffer{OfferedBy: 1, RequestedFrom: 2}

	if !offer.IsParty(1) || !offer.IsParty(2) {
		t.Error("IsParty() should be true for both parties")
	}
	if offer.IsParty(3) {
		t.Error("IsParty() should be false for outsiders")
	}
	if got := offer.CounterpartyOf(1); got != 2 {
		t.Errorf("CounterpartyOf(1) = %d, want 2", got)
	}
	if got := offer.CounterpartyOf(2); got != 1 {
		t.Errorf("CounterpartyOf(2) = %d, want 1", got)
	}
}
