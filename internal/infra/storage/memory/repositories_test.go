package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	domainavailability "staybook/internal/domain/availability"
)

func day(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", value)
	if err != nil {
		t.Fatal(err)
	}
	return d.UTC()
}

func TestBlockRepositoryClaimSlotsIsAllOrNothing(t *testing.T) {
	repo := NewBlockRepository()
	ctx := context.Background()

	held := []domainavailability.SlotClaim{
		{Date: day(t, "2025-06-01"), Slot: 0},
		{Date: day(t, "2025-06-02"), Slot: 0},
	}
	if err := repo.ClaimSlots(ctx, "t-1", "l-1", "block-a", held); err != nil {
		t.Fatalf("first claim: %v", err)
	}

	// The second block overlaps on one date only; the whole batch must fail
	// and its free date must stay unclaimed.
	overlapping := []domainavailability.SlotClaim{
		{Date: day(t, "2025-06-02"), Slot: 0},
		{Date: day(t, "2025-06-03"), Slot: 0},
	}
	if err := repo.ClaimSlots(ctx, "t-1", "l-1", "block-b", overlapping); !errors.Is(err, domainavailability.ErrSlotTaken) {
		t.Fatalf("err = %v, want ErrSlotTaken", err)
	}
	free := []domainavailability.SlotClaim{{Date: day(t, "2025-06-03"), Slot: 0}}
	if err := repo.ClaimSlots(ctx, "t-1", "l-1", "block-c", free); err != nil {
		t.Errorf("the losing batch must not leave partial claims: %v", err)
	}
}

func TestBlockRepositoryClaimSlotsScoping(t *testing.T) {
	repo := NewBlockRepository()
	ctx := context.Background()
	claim := []domainavailability.SlotClaim{{Date: day(t, "2025-06-01"), Slot: 0}}

	if err := repo.ClaimSlots(ctx, "t-1", "l-1", "block-a", claim); err != nil {
		t.Fatal(err)
	}
	// A different slot index on the same date is a different unit.
	second := []domainavailability.SlotClaim{{Date: day(t, "2025-06-01"), Slot: 1}}
	if err := repo.ClaimSlots(ctx, "t-1", "l-1", "block-b", second); err != nil {
		t.Errorf("slot 1 alongside slot 0: %v", err)
	}
	// Other tenants and listings never collide.
	if err := repo.ClaimSlots(ctx, "t-2", "l-1", "block-c", claim); err != nil {
		t.Errorf("foreign tenant claim: %v", err)
	}
	if err := repo.ClaimSlots(ctx, "t-1", "l-2", "block-d", claim); err != nil {
		t.Errorf("other listing claim: %v", err)
	}
}

func TestBlockRepositoryReleaseSlotsFreesOnlyTheBlock(t *testing.T) {
	repo := NewBlockRepository()
	ctx := context.Background()
	first := []domainavailability.SlotClaim{{Date: day(t, "2025-06-01"), Slot: 0}}
	second := []domainavailability.SlotClaim{{Date: day(t, "2025-06-02"), Slot: 0}}

	if err := repo.ClaimSlots(ctx, "t-1", "l-1", "block-a", first); err != nil {
		t.Fatal(err)
	}
	if err := repo.ClaimSlots(ctx, "t-1", "l-1", "block-b", second); err != nil {
		t.Fatal(err)
	}
	if err := repo.ReleaseSlots(ctx, "t-1", "block-a"); err != nil {
		t.Fatal(err)
	}

	if err := repo.ClaimSlots(ctx, "t-1", "l-1", "block-c", first); err != nil {
		t.Errorf("released slot must be claimable: %v", err)
	}
	if err := repo.ClaimSlots(ctx, "t-1", "l-1", "block-d", second); !errors.Is(err, domainavailability.ErrSlotTaken) {
		t.Errorf("err = %v, want ErrSlotTaken for the block that was not released", err)
	}
}
