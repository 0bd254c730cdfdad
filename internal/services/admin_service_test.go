package services

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/mroshb/skill_swap/internal/models"
	"github.com/mroshb/skill_swap/pkg/errors"
	"github.com/xuri/excelize/v2"
)

func TestAdminService_Stats(t *testing.T) {
	env := newTestEnv(t, 5)
	admin := NewAdminService(env.store, env.users)
	ctx := context.Background()

	stats, err := admin.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if len(stats) != len(models.AllSwapStatuses) {
		t.Fatalf("Stats() should list every status, got %v", stats)
	}

	offer, _ := env.svc.Propose(ctx, env.alice, env.bob, "Guitar", "Piano")
	env.svc.Propose(ctx, env.alice, env.bob, "Drums", "Piano")
	env.svc.Respond(ctx, offer.ID, env.bob, DecisionAccept)

	stats, err = admin.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	want := map[models.SwapStatus]int64{
		models.SwapStatusPending:   1,
		models.SwapStatusAccepted:  1,
		models.SwapStatusRejected:  0,
		models.SwapStatusCancelled: 0,
		models.SwapStatusCompleted: 0,
	}
	for status, n := range want {
		if stats[status] != n {
			t.Errorf("stats[%s] = %d, want %d", status, stats[status], n)
		}
	}
}

func TestAdminService_Delete(t *testing.T) {
	env := newTestEnv(t, 5)
	admin := NewAdminService(env.store, env.users)
	ctx := context.Background()

	offer, _ := env.svc.Propose(ctx, env.alice, env.bob, "Guitar", "Piano")
	env.svc.Respond(ctx, offer.ID, env.bob, DecisionAccept)

	// Moderators may delete in any status.
	if err := admin.Delete(ctx, offer.ID, env.carol); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	_, err := env.svc.Get(ctx, offer.ID, env.alice)
	assertCode(t, err, errors.ErrCodeNotFound)

	err = admin.Delete(ctx, uuid.New(), env.carol)
	assertCode(t, err, errors.ErrCodeNotFound)
}

func TestAdminService_ListAll(t *testing.T) {
	env := newTestEnv(t, 5)
	admin := NewAdminService(env.store, env.users)
	ctx := context.Background()

	env.svc.Propose(ctx, env.alice, env.bob, "Guitar", "Piano")
	env.svc.Propose(ctx, env.bob, env.carol, "Chess", "Go")

	offers, err := admin.ListAll(ctx, nil)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(offers) != 2 {
		t.Fatalf("expected 2 offers, got %d", len(offers))
	}
	if offers[0].OfferedSkill != "Chess" {
		t.Errorf("most recent offer should come first, got %s", offers[0].OfferedSkill)
	}
	if offers[0].OfferedByUser == nil || offers[0].OfferedByUser.DisplayName != "Bob" {
		t.Errorf("missing brief: %+v", offers[0].OfferedByUser)
	}

	bogus := models.SwapStatus("archived")
	_, err = admin.ListAll(ctx, &bogus)
	assertCode(t, err, errors.ErrCodeValidation)
}

func TestAdminService_ExportXLSX(t *testing.T) {
	env := newTestEnv(t, 5)
	admin := NewAdminService(env.store, env.users)
	ctx := context.Background()

	offer, _ := env.svc.Propose(ctx, env.alice, env.bob, "Guitar", "Piano")

	var buf bytes.Buffer
	if err := admin.ExportXLSX(ctx, &buf); err != nil {
		t.Fatalf("ExportXLSX() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 row, got %d rows", len(rows))
	}
	if strings.Join(rows[0], ",") != "ID,Offered By,Requested From,Offered Skill,Wanted Skill,Status,Created At,Updated At" {
		t.Errorf("unexpected header: %v", rows[0])
	}
	if rows[1][0] != offer.ID.String() {
		t.Errorf("ID cell = %q", rows[1][0])
	}
	if !strings.HasPrefix(rows[1][1], "Alice") || rows[1][5] != "pending" {
		t.Errorf("unexpected row: %v", rows[1])
	}
}
