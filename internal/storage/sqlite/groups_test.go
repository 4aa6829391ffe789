package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/quadra-game/quadra/internal/storage"
	"github.com/quadra-game/quadra/internal/types"
)

func testItems(prefix string) []types.Item {
	items := make([]types.Item, types.GroupSize)
	for i := range items {
		items[i] = types.Item{Title: fmt.Sprintf("%s %d", prefix, i+1)}
	}
	return items
}

func testGroupInput(connection string, color types.Color) storage.GroupInput {
	return storage.GroupInput{
		Items:      testItems(connection),
		Connection: connection,
		Color:      color,
		Status:     types.GroupApproved,
		Genre:      types.GenreFilms,
	}
}

func TestGroupSaveDerivesDifficulty(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	g, err := store.Groups().Save(ctx, testGroupInput("Shot in one take", types.ColorPurple))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if g.Difficulty != types.DifficultyHardest {
		t.Errorf("expected difficulty hardest, got %s", g.Difficulty)
	}
	if g.DifficultyScore != 4 {
		t.Errorf("expected score 4, got %d", g.DifficultyScore)
	}
	if g.UsageCount != 0 {
		t.Errorf("expected usage count 0, got %d", g.UsageCount)
	}
	if g.LastUsedAt != nil {
		t.Error("expected nil last_used_at for new group")
	}
}

func TestGroupSaveDuplicateConnection(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if _, err := store.Groups().Save(ctx, testGroupInput("Heist gone wrong", types.ColorGreen)); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}

	_, err := store.Groups().Save(ctx, testGroupInput("Heist gone wrong", types.ColorBlue))
	if !errors.Is(err, storage.ErrDuplicateConnection) {
		t.Fatalf("expected ErrDuplicateConnection, got %v", err)
	}

	// Same connection in another genre is fine.
	in := testGroupInput("Heist gone wrong", types.ColorGreen)
	in.Genre = types.GenreMusic
	if _, err := store.Groups().Save(ctx, in); err != nil {
		t.Fatalf("cross-genre Save failed: %v", err)
	}
}

func TestGroupSaveBatchIgnoresDuplicates(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if _, err := store.Groups().Save(ctx, testGroupInput("Told in reverse", types.ColorBlue)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	n, err := store.Groups().SaveBatch(ctx, []storage.GroupInput{
		testGroupInput("Told in reverse", types.ColorBlue), // duplicate
		testGroupInput("Frame stories", types.ColorBlue),
		testGroupInput("Cold War era", types.ColorYellow),
	})
	if err != nil {
		t.Fatalf("SaveBatch failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 inserted, got %d", n)
	}
}

func TestGroupFreshnessOrdering(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	worn, err := store.Groups().Save(ctx, testGroupInput("Worn", types.ColorYellow))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	fresh, err := store.Groups().Save(ctx, testGroupInput("Fresh", types.ColorYellow))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := store.Groups().IncrementUsage(ctx, []string{worn.ID}); err != nil {
		t.Fatalf("IncrementUsage failed: %v", err)
	}

	groups, _, err := store.Groups().List(ctx, storage.GroupFilter{
		Genre:           types.GenreFilms,
		SortByFreshness: true,
	})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].ID != fresh.ID {
		t.Errorf("expected never-used group first, got %s", groups[0].Connection)
	}

	reloaded, err := store.Groups().GetByIDs(ctx, []string{worn.ID})
	if err != nil {
		t.Fatalf("GetByIDs failed: %v", err)
	}
	if reloaded[0].UsageCount != 1 {
		t.Errorf("expected usage count 1, got %d", reloaded[0].UsageCount)
	}
	if reloaded[0].LastUsedAt == nil {
		t.Error("expected last_used_at to be set after use")
	} else if time.Since(*reloaded[0].LastUsedAt) > time.Minute {
		t.Errorf("last_used_at too old: %v", reloaded[0].LastUsedAt)
	}
}

func TestGroupGetByIDsPreservesOrder(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	a, _ := store.Groups().Save(ctx, testGroupInput("Alpha", types.ColorYellow))
	b, _ := store.Groups().Save(ctx, testGroupInput("Beta", types.ColorGreen))
	c, _ := store.Groups().Save(ctx, testGroupInput("Gamma", types.ColorBlue))

	got, err := store.Groups().GetByIDs(ctx, []string{c.ID, "missing", a.ID, b.ID})
	if err != nil {
		t.Fatalf("GetByIDs failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(got))
	}
	want := []string{c.ID, a.ID, b.ID}
	for i, g := range got {
		if g.ID != want[i] {
			t.Errorf("position %d: got %s, want %s", i, g.ID, want[i])
		}
	}
}

func TestGroupUpdateColorMovesDifficulty(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	g, err := store.Groups().Save(ctx, testGroupInput("Palme d'Or winners", types.ColorYellow))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	purple := types.ColorPurple
	updated, err := store.Groups().Update(ctx, g.ID, storage.GroupPatch{Color: &purple})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Difficulty != types.DifficultyHardest || updated.DifficultyScore != 4 {
		t.Errorf("difficulty did not follow color: %s/%d", updated.Difficulty, updated.DifficultyScore)
	}
}

func TestGroupDeleteRules(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	// Approved groups cannot be deleted.
	approved, err := store.Groups().Save(ctx, testGroupInput("Approved", types.ColorYellow))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Groups().Delete(ctx, approved.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting approved group, got %v", err)
	}

	// Pending groups can.
	in := testGroupInput("Pending", types.ColorGreen)
	in.Status = types.GroupPending
	pending, err := store.Groups().Save(ctx, in)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Groups().Delete(ctx, pending.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	// Groups referenced by a puzzle cannot.
	ids := saveColorSet(t, store, "InUse")
	if _, err := store.Puzzles().Save(ctx, storage.PuzzleInput{GroupIDs: ids, Genre: types.GenreFilms}); err != nil {
		t.Fatalf("puzzle Save failed: %v", err)
	}
	if err := store.Groups().Delete(ctx, ids[0]); !errors.Is(err, storage.ErrGroupInUse) {
		t.Errorf("expected ErrGroupInUse, got %v", err)
	}
}

func TestCountsByColorOnlyApproved(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if _, err := store.Groups().Save(ctx, testGroupInput("A", types.ColorYellow)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := store.Groups().Save(ctx, testGroupInput("B", types.ColorYellow)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	in := testGroupInput("C", types.ColorYellow)
	in.Status = types.GroupPending
	if _, err := store.Groups().Save(ctx, in); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	counts, err := store.Groups().CountsByColor(ctx, types.GenreFilms)
	if err != nil {
		t.Fatalf("CountsByColor failed: %v", err)
	}
	if counts[types.ColorYellow] != 2 {
		t.Errorf("expected 2 approved yellow, got %d", counts[types.ColorYellow])
	}
	// Every color has an entry even when empty.
	if _, ok := counts[types.ColorPurple]; !ok {
		t.Error("expected zero entry for purple")
	}
}

func TestFreshestSet(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	ids := saveColorSet(t, store, "Base")
	if err := store.Groups().IncrementUsage(ctx, []string{ids[0]}); err != nil {
		t.Fatalf("IncrementUsage failed: %v", err)
	}
	fresher, err := store.Groups().Save(ctx, testGroupInput("Fresher yellow", types.ColorYellow))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	set, err := store.Groups().FreshestSet(ctx, nil, types.GenreFilms)
	if err != nil {
		t.Fatalf("FreshestSet failed: %v", err)
	}
	if set[types.ColorYellow] == nil || set[types.ColorYellow].ID != fresher.ID {
		t.Error("expected the unused yellow group to be freshest")
	}

	// Excluding the fresh group falls back to the worn one.
	set, err = store.Groups().FreshestSet(ctx, map[string]bool{fresher.ID: true}, types.GenreFilms)
	if err != nil {
		t.Fatalf("FreshestSet failed: %v", err)
	}
	if set[types.ColorYellow] == nil || set[types.ColorYellow].ID != ids[0] {
		t.Error("expected fallback to the used yellow group")
	}

	// A color with nothing eligible maps to nil.
	exclude := make(map[string]bool)
	for _, id := range ids {
		exclude[id] = true
	}
	exclude[fresher.ID] = true
	set, err = store.Groups().FreshestSet(ctx, exclude, types.GenreFilms)
	if err != nil {
		t.Fatalf("FreshestSet failed: %v", err)
	}
	if set[types.ColorGreen] != nil {
		t.Error("expected nil for exhausted green")
	}
}

// saveColorSet inserts one approved group per color and returns the four ids
// in canonical color order.
func saveColorSet(t *testing.T, store *Store, prefix string) []string {
	t.Helper()
	ctx := context.Background()
	ids := make([]string, 0, types.GroupSize)
	for _, c := range types.Colors {
		g, err := store.Groups().Save(ctx, testGroupInput(fmt.Sprintf("%s %s", prefix, c), c))
		if err != nil {
			t.Fatalf("Save failed for %s: %v", c, err)
		}
		ids = append(ids, g.ID)
	}
	return ids
}
