package db

import (
	"context"
	"testing"

	"marketboard/pkg/market/hsx"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()
	d, err := New(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	if err := ApplyMigrations(d); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return d
}

func TestSessionRoundtrip(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	tok, err := d.GetSession(ctx, "term-1")
	if err != nil {
		t.Fatalf("get empty session: %v", err)
	}
	if tok != "" {
		t.Errorf("token = %q, want empty", tok)
	}

	if err := d.SaveSession(ctx, "term-1", "abc"); err != nil {
		t.Fatalf("save session: %v", err)
	}
	tok, err = d.GetSession(ctx, "term-1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if tok != "abc" {
		t.Errorf("token = %q, want abc", tok)
	}

	// Upsert replaces the token for the same terminal.
	if err := d.SaveSession(ctx, "term-1", "def"); err != nil {
		t.Fatalf("resave session: %v", err)
	}
	tok, _ = d.GetSession(ctx, "term-1")
	if tok != "def" {
		t.Errorf("token = %q, want def", tok)
	}

	if err := d.DeleteSession(ctx, "term-1"); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	tok, _ = d.GetSession(ctx, "term-1")
	if tok != "" {
		t.Errorf("token after delete = %q, want empty", tok)
	}
}

func TestOperatorQueries(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	op, err := d.GetOperatorByEmail(ctx, "nobody@example.com")
	if err != nil {
		t.Fatalf("get missing operator: %v", err)
	}
	if op != nil {
		t.Errorf("expected nil for missing operator, got %+v", op)
	}

	err = d.UpsertOperator(ctx, Operator{
		ID:           "op-1",
		Email:        "desk@example.com",
		PasswordHash: "hash-1",
	})
	if err != nil {
		t.Fatalf("upsert operator: %v", err)
	}

	op, err = d.GetOperatorByEmail(ctx, "desk@example.com")
	if err != nil {
		t.Fatalf("get operator: %v", err)
	}
	if op == nil || op.ID != "op-1" || op.PasswordHash != "hash-1" {
		t.Errorf("unexpected operator: %+v", op)
	}

	// Re-upsert by email updates the hash in place.
	err = d.UpsertOperator(ctx, Operator{
		ID:           "op-2",
		Email:        "desk@example.com",
		PasswordHash: "hash-2",
	})
	if err != nil {
		t.Fatalf("re-upsert operator: %v", err)
	}
	op, _ = d.GetOperatorByEmail(ctx, "desk@example.com")
	if op.PasswordHash != "hash-2" {
		t.Errorf("hash = %q, want hash-2", op.PasswordHash)
	}
}

func TestBoardSnapshotRoundtrip(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	rows, err := d.LoadBoardSnapshot(ctx)
	if err != nil {
		t.Fatalf("load empty snapshot: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected no rows, got %d", len(rows))
	}

	saved := []hsx.SummaryRow{
		{Symbol: "HPG", LastPrice: 25000, Bid1Price: 24900},
		{Symbol: "FPT", LastPrice: 90000, TotalVolume: 120000},
	}
	if err := d.SaveBoardSnapshot(ctx, saved); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}

	rows, err = d.LoadBoardSnapshot(ctx)
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	// Loaded in symbol order regardless of save order.
	if rows[0].Symbol != "FPT" || rows[1].Symbol != "HPG" {
		t.Errorf("rows out of order: %s, %s", rows[0].Symbol, rows[1].Symbol)
	}
	if rows[0].LastPrice != 90000 || rows[0].TotalVolume != 120000 {
		t.Errorf("row fields lost: %+v", rows[0])
	}

	// A second save replaces the snapshot rather than appending.
	if err := d.SaveBoardSnapshot(ctx, saved[:1]); err != nil {
		t.Fatalf("resave snapshot: %v", err)
	}
	rows, _ = d.LoadBoardSnapshot(ctx)
	if len(rows) != 1 || rows[0].Symbol != "HPG" {
		t.Errorf("resave did not replace snapshot: %+v", rows)
	}
}
