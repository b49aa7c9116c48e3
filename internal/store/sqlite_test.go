package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"uiforge/element"
	"uiforge/history"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func page(title string) element.Forest {
	return element.Forest{
		{
			ID:      "page",
			Variant: "container",
			Styles:  element.Styles{Groups: map[element.Bucket][]string{element.BucketLayout: {"flex", "flex-col"}}},
			Children: element.Forest{
				{ID: "title", Variant: "heading", ParentID: "page", Attributes: map[string]any{"text": title, "level": float64(1)}},
			},
		},
	}
}

var equate = cmpopts.EquateEmpty()

func TestSnapshotRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	digest, err := db.SaveSnapshot(ctx, "main", page("Hello"), 7)
	if err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	if len(digest) != 32 {
		t.Fatalf("digest length = %d, want 32", len(digest))
	}

	got, err := db.LoadSnapshot(ctx, "main")
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if diff := cmp.Diff(page("Hello"), got, equate); diff != "" {
		t.Errorf("loaded forest mismatch (-want +got):\n%s", diff)
	}

	info, err := db.GetDocument(ctx, "main")
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if info.Revision != 7 || info.Entries != 1 || info.Cursor != 0 {
		t.Errorf("info = %+v, want revision 7 with one entry", info)
	}
}

func TestSnapshotDeduplicates(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if _, err := db.SaveSnapshot(ctx, "a", page("Same"), 1); err != nil {
		t.Fatal(err)
	}
	if _, err := db.SaveSnapshot(ctx, "b", page("Same"), 1); err != nil {
		t.Fatal(err)
	}
	n, err := db.ObjectCount(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("object count = %d, want 1", n)
	}
}

func TestLoadMissingDocument(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if _, err := db.LoadSnapshot(ctx, "nope"); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("LoadSnapshot error = %v, want ErrDocumentNotFound", err)
	}
	if _, _, err := db.LoadHistory(ctx, "nope"); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("LoadHistory error = %v, want ErrDocumentNotFound", err)
	}
	if err := db.DeleteDocument(ctx, "nope"); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("DeleteDocument error = %v, want ErrDocumentNotFound", err)
	}
}

func TestHistoryRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	base := time.UnixMilli(1_700_000_000_000)
	entries := []history.Snapshot{
		{Forest: element.Forest{}, CreatedAt: base},
		{Forest: page("One"), CreatedAt: base.Add(time.Second)},
		{Forest: page("Two"), CreatedAt: base.Add(2 * time.Second)},
	}
	if err := db.SaveHistory(ctx, "main", entries, 1, 2); err != nil {
		t.Fatalf("SaveHistory: %v", err)
	}

	got, cursor, err := db.LoadHistory(ctx, "main")
	if err != nil {
		t.Fatalf("LoadHistory: %v", err)
	}
	if cursor != 1 {
		t.Errorf("cursor = %d, want 1", cursor)
	}
	if diff := cmp.Diff(entries, got, equate); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}

	head, err := db.LoadSnapshot(ctx, "main")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(page("One"), head, equate); diff != "" {
		t.Errorf("head should follow the cursor (-want +got):\n%s", diff)
	}
}

func TestSaveHistoryReplaces(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	long := []history.Snapshot{{Forest: page("a")}, {Forest: page("b")}, {Forest: page("c")}}
	if err := db.SaveHistory(ctx, "main", long, 2, 3); err != nil {
		t.Fatal(err)
	}
	short := []history.Snapshot{{Forest: page("z")}}
	if err := db.SaveHistory(ctx, "main", short, 0, 4); err != nil {
		t.Fatal(err)
	}

	got, cursor, err := db.LoadHistory(ctx, "main")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || cursor != 0 {
		t.Fatalf("got %d entries at cursor %d, want 1 at 0", len(got), cursor)
	}
	if got[0].CreatedAt.IsZero() {
		t.Error("zero timestamps should be stamped on save")
	}
}

func TestSaveHistoryRejectsBadInput(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.SaveHistory(ctx, "main", nil, 0, 0); err == nil {
		t.Error("empty history should fail")
	}
	entries := []history.Snapshot{{Forest: page("a")}}
	if err := db.SaveHistory(ctx, "main", entries, 1, 0); err == nil {
		t.Error("cursor past the end should fail")
	}
	if _, err := db.GetDocument(ctx, "main"); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("failed saves must not create the document, got %v", err)
	}
}

func TestListAndDelete(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for _, name := range []string{"beta", "alpha"} {
		if _, err := db.SaveSnapshot(ctx, name, page(name), 1); err != nil {
			t.Fatal(err)
		}
	}
	docs, err := db.ListDocuments(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 || docs[0].Name != "alpha" || docs[1].Name != "beta" {
		t.Fatalf("ListDocuments = %+v, want alpha then beta", docs)
	}

	if err := db.DeleteDocument(ctx, "alpha"); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	docs, err = db.ListDocuments(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 || docs[0].Name != "beta" {
		t.Errorf("ListDocuments after delete = %+v", docs)
	}
	n, err := db.ObjectCount(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("object count after delete = %d, want 1", n)
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.SaveSnapshot(ctx, "main", page("Persisted"), 1); err != nil {
		t.Fatal(err)
	}
	db.Close()

	db, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	got, err := db.LoadSnapshot(ctx, "main")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(page("Persisted"), got, equate); diff != "" {
		t.Errorf("reopened forest mismatch (-want +got):\n%s", diff)
	}
}
