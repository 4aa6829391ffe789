package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/quadra-game/quadra/internal/storage"
	"github.com/quadra-game/quadra/internal/types"
)

func TestPuzzleSaveRequiresOnePerColor(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	ids := saveColorSet(t, store, "Valid")
	if _, err := store.Puzzles().Save(ctx, storage.PuzzleInput{GroupIDs: ids, Genre: types.GenreFilms}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Two yellows.
	y2, err := store.Groups().Save(ctx, testGroupInput("Second yellow", types.ColorYellow))
	if err != nil {
		t.Fatalf("group Save failed: %v", err)
	}
	bad := []string{ids[0], y2.ID, ids[2], ids[3]}
	if _, err := store.Puzzles().Save(ctx, storage.PuzzleInput{GroupIDs: bad, Genre: types.GenreFilms}); err == nil {
		t.Error("expected error for two groups of the same color")
	}

	// Wrong count.
	if _, err := store.Puzzles().Save(ctx, storage.PuzzleInput{GroupIDs: ids[:3], Genre: types.GenreFilms}); err == nil {
		t.Error("expected error for 3 group ids")
	}

	// Missing group.
	missing := []string{ids[0], ids[1], ids[2], "nope"}
	if _, err := store.Puzzles().Save(ctx, storage.PuzzleInput{GroupIDs: missing, Genre: types.GenreFilms}); err == nil {
		t.Error("expected error for missing group id")
	}
}

func TestPuzzleMultisetUniqueness(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	ids := saveColorSet(t, store, "Multi")
	if _, err := store.Puzzles().Save(ctx, storage.PuzzleInput{GroupIDs: ids, Genre: types.GenreFilms}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Same four groups in a different order are the same puzzle.
	permuted := []string{ids[3], ids[1], ids[0], ids[2]}
	_, err := store.Puzzles().Save(ctx, storage.PuzzleInput{GroupIDs: permuted, Genre: types.GenreFilms})
	if !errors.Is(err, storage.ErrDuplicatePuzzle) {
		t.Fatalf("expected ErrDuplicatePuzzle for permuted ids, got %v", err)
	}

	exists, err := store.Puzzles().ExistsWithGroupMultiset(ctx, permuted, types.GenreFilms)
	if err != nil {
		t.Fatalf("ExistsWithGroupMultiset failed: %v", err)
	}
	if !exists {
		t.Error("expected multiset to exist regardless of order")
	}

	exists, err = store.Puzzles().ExistsWithGroupMultiset(ctx, permuted, types.GenreMusic)
	if err != nil {
		t.Fatalf("ExistsWithGroupMultiset failed: %v", err)
	}
	if exists {
		t.Error("multiset check must be scoped to the genre")
	}
}

func TestPuzzlePublishSnapshotsGroups(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	ids := saveColorSet(t, store, "Snap")
	p, err := store.Puzzles().Save(ctx, storage.PuzzleInput{GroupIDs: ids, Genre: types.GenreFilms})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if p.Status != types.PuzzlePending {
		t.Fatalf("new puzzle should be pending, got %s", p.Status)
	}
	if p.PuzzleDate != nil {
		t.Fatal("new puzzle should be undated")
	}

	date := "2026-09-01"
	status := types.PuzzlePublished
	p, err = store.Puzzles().Update(ctx, p.ID, storage.PuzzlePatch{PuzzleDate: &date, Status: &status})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if len(p.GroupsSnapshot) != types.GroupSize {
		t.Fatalf("expected %d snapshot groups, got %d", types.GroupSize, len(p.GroupsSnapshot))
	}

	// Later group edits must not leak into the published puzzle.
	newConn := "Renamed after publish"
	if _, err := store.Groups().Update(ctx, ids[0], storage.GroupPatch{Connection: &newConn}); err != nil {
		t.Fatalf("group Update failed: %v", err)
	}

	daily, err := store.Puzzles().GetDaily(ctx, date, types.GenreFilms)
	if err != nil {
		t.Fatalf("GetDaily failed: %v", err)
	}
	for _, g := range daily.GroupsSnapshot {
		if g.Connection == newConn {
			t.Error("published snapshot reflects a post-publish group edit")
		}
	}
}

func TestPuzzleDateSlotUnique(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	date := "2026-09-02"
	status := types.PuzzlePublished

	first := saveColorSet(t, store, "First")
	p1, err := store.Puzzles().Save(ctx, storage.PuzzleInput{GroupIDs: first, Genre: types.GenreFilms})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := store.Puzzles().Update(ctx, p1.ID, storage.PuzzlePatch{PuzzleDate: &date, Status: &status}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	second := saveColorSet(t, store, "Second")
	p2, err := store.Puzzles().Save(ctx, storage.PuzzleInput{GroupIDs: second, Genre: types.GenreFilms})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	_, err = store.Puzzles().Update(ctx, p2.ID, storage.PuzzlePatch{PuzzleDate: &date, Status: &status})
	if !errors.Is(err, storage.ErrDuplicatePuzzle) {
		t.Fatalf("expected ErrDuplicatePuzzle for taken date, got %v", err)
	}

	// The same date in another genre is free.
	musicIDs := make([]string, 0, types.GroupSize)
	for _, c := range types.Colors {
		in := testGroupInput("Music "+string(c), c)
		in.Genre = types.GenreMusic
		g, err := store.Groups().Save(ctx, in)
		if err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		musicIDs = append(musicIDs, g.ID)
	}
	p3, err := store.Puzzles().Save(ctx, storage.PuzzleInput{GroupIDs: musicIDs, Genre: types.GenreMusic})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := store.Puzzles().Update(ctx, p3.ID, storage.PuzzlePatch{PuzzleDate: &date, Status: &status}); err != nil {
		t.Fatalf("cross-genre publish failed: %v", err)
	}
}

func TestPuzzleBatchUpdate(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	first := saveColorSet(t, store, "BatchA")
	p1, err := store.Puzzles().Save(ctx, storage.PuzzleInput{GroupIDs: first, Genre: types.GenreFilms})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	second := make([]string, 0, types.GroupSize)
	for _, c := range types.Colors {
		in := testGroupInput("BatchB "+string(c), c)
		in.Genre = types.GenreMusic
		g, err := store.Groups().Save(ctx, in)
		if err != nil {
			t.Fatalf("group Save failed: %v", err)
		}
		second = append(second, g.ID)
	}
	p2, err := store.Puzzles().Save(ctx, storage.PuzzleInput{GroupIDs: second, Genre: types.GenreMusic})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// One entry publishes, the other retitles.
	date := "2026-09-05"
	status := types.PuzzlePublished
	title := "Anniversary special"
	updated, err := store.Puzzles().BatchUpdate(ctx, []storage.PuzzleUpdate{
		{ID: p1.ID, Patch: storage.PuzzlePatch{PuzzleDate: &date, Status: &status}},
		{ID: p2.ID, Patch: storage.PuzzlePatch{Title: &title}},
	})
	if err != nil {
		t.Fatalf("BatchUpdate failed: %v", err)
	}
	if len(updated) != 2 {
		t.Fatalf("expected 2 updated puzzles, got %d", len(updated))
	}
	if updated[0].Status != types.PuzzlePublished || len(updated[0].GroupsSnapshot) != types.GroupSize {
		t.Errorf("published entry missing status or snapshot: %+v", updated[0])
	}
	if updated[1].Title != title {
		t.Errorf("expected title %q, got %q", title, updated[1].Title)
	}
	if updated[1].Status != types.PuzzlePending {
		t.Errorf("retitle must not change status, got %s", updated[1].Status)
	}

	// A failing entry stops the batch; earlier updates stand.
	newTitle := "Applied"
	updated, err = store.Puzzles().BatchUpdate(ctx, []storage.PuzzleUpdate{
		{ID: p2.ID, Patch: storage.PuzzlePatch{Title: &newTitle}},
		{ID: "missing", Patch: storage.PuzzlePatch{Title: &newTitle}},
	})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing id, got %v", err)
	}
	if len(updated) != 1 || updated[0].Title != newTitle {
		t.Fatalf("expected the first update to be applied, got %+v", updated)
	}
}

func TestGetDailyOnlyPublished(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	ids := saveColorSet(t, store, "Draft")
	p, err := store.Puzzles().Save(ctx, storage.PuzzleInput{GroupIDs: ids, Genre: types.GenreFilms})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	date := "2026-09-03"
	approved := types.PuzzleApproved
	if _, err := store.Puzzles().Update(ctx, p.ID, storage.PuzzlePatch{PuzzleDate: &date, Status: &approved}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if _, err := store.Puzzles().GetDaily(ctx, date, types.GenreFilms); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unpublished date, got %v", err)
	}
}

func TestEmptyDays(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	ids := saveColorSet(t, store, "Window")
	p, err := store.Puzzles().Save(ctx, storage.PuzzleInput{GroupIDs: ids, Genre: types.GenreFilms})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	date := "2026-09-11"
	status := types.PuzzlePublished
	if _, err := store.Puzzles().Update(ctx, p.ID, storage.PuzzlePatch{PuzzleDate: &date, Status: &status}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	empty, err := store.Puzzles().EmptyDays(ctx, "2026-09-10", "2026-09-12", types.GenreFilms)
	if err != nil {
		t.Fatalf("EmptyDays failed: %v", err)
	}
	want := []string{"2026-09-10", "2026-09-12"}
	if len(empty) != len(want) {
		t.Fatalf("expected %v, got %v", want, empty)
	}
	for i := range want {
		if empty[i] != want[i] {
			t.Errorf("position %d: got %s, want %s", i, empty[i], want[i])
		}
	}

	// Inverted range is empty, not an error.
	empty, err = store.Puzzles().EmptyDays(ctx, "2026-09-12", "2026-09-10", types.GenreFilms)
	if err != nil {
		t.Fatalf("EmptyDays failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no days for inverted range, got %v", empty)
	}
}

func TestUsedGroupIDs(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	ids := saveColorSet(t, store, "Used")
	if _, err := store.Puzzles().Save(ctx, storage.PuzzleInput{GroupIDs: ids, Genre: types.GenreFilms}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	spare, err := store.Groups().Save(ctx, testGroupInput("Spare", types.ColorYellow))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	used, err := store.Puzzles().UsedGroupIDs(ctx, types.GenreFilms)
	if err != nil {
		t.Fatalf("UsedGroupIDs failed: %v", err)
	}
	for _, id := range ids {
		if !used[id] {
			t.Errorf("expected %s to be used", id)
		}
	}
	if used[spare.ID] {
		t.Error("spare group should not be marked used")
	}
}
