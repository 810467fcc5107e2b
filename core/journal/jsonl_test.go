package journal

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kilianp07/factorysim/core/model"
)

func sampleRecords(base time.Time) []Record {
	from, to := model.Pos(600, 100), model.Pos(200, 200)
	return []Record{
		{Timestamp: base, Kind: KindDelivery, Action: "created", DeliveryID: 1, DeliveryType: "goods", Status: "pending", From: &from, To: &to},
		{Timestamp: base.Add(time.Second), Kind: KindDelivery, Action: "assigned", CartID: "cart-1", DeliveryID: 1, Status: "assigned"},
		{Timestamp: base.Add(2 * time.Second), Kind: KindRejection, Action: "grid", CartID: "cart-2", Error: "cart busy"},
		{Timestamp: base.Add(3 * time.Second), Kind: KindDelivery, Action: "completed", CartID: "cart-1", DeliveryID: 1, Status: "completed"},
	}
}

func TestJSONLStore_AppendQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	store, err := NewJSONLStore(path)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = store.Close() }()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for _, r := range sampleRecords(base) {
		if err := store.Append(context.Background(), r); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	out, err := store.Query(context.Background(), Query{CartID: "cart-1"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 2 || out[0].Action != "assigned" || out[1].Action != "completed" {
		t.Fatalf("unexpected records: %+v", out)
	}

	out, _ = store.Query(context.Background(), Query{Start: base.Add(2 * time.Second)})
	if len(out) != 2 {
		t.Fatalf("start filter: got %d", len(out))
	}
	out, _ = store.Query(context.Background(), Query{Kind: KindRejection})
	if len(out) != 1 || out[0].Error != "cart busy" {
		t.Fatalf("kind filter: %+v", out)
	}
	out, _ = store.Query(context.Background(), Query{DeliveryID: 1, Limit: 1})
	if len(out) != 1 || out[0].Action != "completed" {
		t.Fatalf("limit keeps latest: %+v", out)
	}
	out, _ = store.Query(context.Background(), Query{})
	if out[0].From == nil || *out[0].From != model.Pos(600, 100) {
		t.Fatalf("coordinates lost: %+v", out[0])
	}
}

func TestJSONLStore_SkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	if err := os.WriteFile(path, []byte("not json\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	store, err := NewJSONLStore(path)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := store.Append(context.Background(), Record{Kind: KindCart, Action: "arrived"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	out, err := store.Query(context.Background(), Query{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 record, got %d", len(out))
	}
}
