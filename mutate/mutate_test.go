package mutate

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"uiforge/element"
)

var equateEmpty = cmpopts.EquateEmpty()

// sample builds: page{header{title}, body}, footer
func sample() element.Forest {
	title := &element.Node{ID: "title", Variant: "heading", ParentID: "header",
		Attributes: map[string]any{"text": "Welcome"}}
	header := &element.Node{ID: "header", Variant: "header", ParentID: "page", Children: []*element.Node{title}}
	body := &element.Node{ID: "body", Variant: "text", ParentID: "page"}
	page := &element.Node{ID: "page", Variant: "container", Children: []*element.Node{header, body}}
	footer := &element.Node{ID: "footer", Variant: "footer"}
	return element.Forest{page, footer}
}

func mustValid(t *testing.T, f element.Forest) {
	t.Helper()
	if err := element.Validate(f); err != nil {
		t.Fatalf("invariant violated: %v", err)
	}
}

func rootIDs(f element.Forest) []string {
	ids := make([]string, len(f))
	for i, n := range f {
		ids[i] = n.ID
	}
	return ids
}

func childIDs(f element.Forest, id string) []string {
	n := f.Find(id)
	if n == nil {
		return nil
	}
	return rootIDs(n.Children)
}

func TestInsert(t *testing.T) {
	tests := []struct {
		name     string
		parentID string
		index    int
		wantIn   string
		want     []string
	}{
		{"append at root", "", -1, "", []string{"page", "footer", "new"}},
		{"root front", "", 0, "", []string{"new", "page", "footer"}},
		{"root past end", "", 99, "", []string{"page", "footer", "new"}},
		{"child middle", "page", 1, "page", []string{"header", "new", "body"}},
		{"child append", "page", -1, "page", []string{"header", "body", "new"}},
		{"into leaf", "body", 0, "body", []string{"new"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := sample()
			snapshot := element.Clone(before)

			out, id, err := Insert(before, &element.Node{ID: "new", Variant: "text"}, tt.parentID, tt.index)
			if err != nil {
				t.Fatalf("Insert failed: %v", err)
			}
			if id != "new" {
				t.Errorf("id = %q, want new", id)
			}
			mustValid(t, out)

			var got []string
			if tt.wantIn == "" {
				got = rootIDs(out)
			} else {
				got = childIDs(out, tt.wantIn)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("order mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(snapshot, before, equateEmpty); diff != "" {
				t.Errorf("input forest modified (-want +got):\n%s", diff)
			}
		})
	}
}

func TestInsertMissingParent(t *testing.T) {
	f := sample()
	out, _, err := Insert(f, &element.Node{Variant: "text"}, "ghost", -1)
	if !errors.Is(err, ErrTargetNotFound) {
		t.Fatalf("expected ErrTargetNotFound, got %v", err)
	}
	if len(out) != len(f) || out[0] != f[0] {
		t.Error("forest should be returned unchanged")
	}
}

func TestInsertRejectsNilNodes(t *testing.T) {
	tests := map[string]*element.Node{
		"nil root":  nil,
		"nil child": {Variant: "container", Children: []*element.Node{nil}},
		"nil grandchild": {Variant: "container", Children: []*element.Node{
			{Variant: "row", Children: []*element.Node{{Variant: "text"}, nil}},
		}},
	}
	for name, n := range tests {
		t.Run(name, func(t *testing.T) {
			f := sample()
			out, id, err := Insert(f, n, "page", -1)
			if !errors.Is(err, element.ErrNilNode) {
				t.Fatalf("expected ErrNilNode, got %v", err)
			}
			if id != "" || len(out) != len(f) || out[0] != f[0] {
				t.Error("forest should be returned unchanged")
			}
		})
	}
}

func TestInsertAssignsIDs(t *testing.T) {
	f := sample()
	sub := &element.Node{
		ID:      "body", // collides
		Variant: "row",
		Children: []*element.Node{
			{Variant: "text"},              // missing
			{ID: "fresh", Variant: "text"}, // kept
		},
	}

	out, id, err := Insert(f, sub, "", -1)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	mustValid(t, out)

	if id == "body" || id == "" {
		t.Errorf("colliding id should be replaced, got %q", id)
	}
	inserted := out.Find(id)
	if inserted.Children[0].ID == "" {
		t.Error("missing id should be filled")
	}
	if inserted.Children[1].ID != "fresh" {
		t.Errorf("non-colliding id should be kept, got %q", inserted.Children[1].ID)
	}
	if sub.ID != "body" || sub.Children[0].ID != "" {
		t.Error("caller's node was modified")
	}
}

func TestInsertSharesUntouchedSubtrees(t *testing.T) {
	f := sample()
	out, _, err := Insert(f, &element.Node{Variant: "text"}, "header", -1)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if out[1] != f[1] {
		t.Error("footer should be shared")
	}
	if out[0] == f[0] {
		t.Error("page is on the changed path and must be rebuilt")
	}
	if out[0].Children[1] != f[0].Children[1] {
		t.Error("body should be shared")
	}
}

func TestRemove(t *testing.T) {
	f := sample()

	out, ok := Remove(f, "header")
	if !ok {
		t.Fatal("expected removal")
	}
	mustValid(t, out)
	if out.Contains("header") || out.Contains("title") {
		t.Error("subtree should be gone")
	}
	if !f.Contains("title") {
		t.Error("input forest modified")
	}

	again, ok := Remove(out, "header")
	if ok {
		t.Error("removing an absent id should report false")
	}
	if diff := cmp.Diff(out, again, equateEmpty); diff != "" {
		t.Errorf("absent remove changed forest:\n%s", diff)
	}
}

func TestRemoveLastRoot(t *testing.T) {
	f := element.Forest{{ID: "a", Variant: "text"}}
	out, ok := Remove(f, "a")
	if !ok || len(out) != 0 {
		t.Errorf("expected empty forest, got %v (%v)", out, ok)
	}
}

func TestUpdate(t *testing.T) {
	f := sample()
	f[0].Styles.Groups = map[element.Bucket][]string{
		element.BucketLayout:  {"flex"},
		element.BucketSpacing: {"p-4"},
	}
	name := "Main Page"

	out, err := Update(f, "page", Patch{
		DisplayName: &name,
		Attributes:  map[string]any{"role": "main"},
		Groups:      map[element.Bucket][]string{element.BucketLayout: {"grid", "grid-cols-2"}},
		Breakpoints: map[element.Breakpoint][]string{element.BreakpointMD: {"grid-cols-4"}},
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	mustValid(t, out)

	page := out.Find("page")
	if page.DisplayName != "Main Page" {
		t.Errorf("display name = %q", page.DisplayName)
	}
	if page.Attr("role") != "main" {
		t.Errorf("role attribute = %v", page.Attr("role"))
	}
	if diff := cmp.Diff([]string{"grid", "grid-cols-2"}, page.Styles.Groups[element.BucketLayout]); diff != "" {
		t.Errorf("layout bucket should be replaced wholesale:\n%s", diff)
	}
	if diff := cmp.Diff([]string{"p-4"}, page.Styles.Groups[element.BucketSpacing]); diff != "" {
		t.Errorf("untouched bucket changed:\n%s", diff)
	}
	if page.Styles.Breakpoints[element.BreakpointMD][0] != "grid-cols-4" {
		t.Errorf("breakpoint not applied: %v", page.Styles.Breakpoints)
	}

	if got := f.Find("page").Styles.Groups[element.BucketLayout]; got[0] != "flex" {
		t.Error("input forest modified")
	}
	if out[0].Children[0] != f[0].Children[0] {
		t.Error("children of the updated node should be shared")
	}
}

func TestUpdateAttributeMerge(t *testing.T) {
	f := sample()

	out, err := Update(f, "title", Patch{Attributes: map[string]any{"level": 1}})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	title := out.Find("title")
	if title.Attr("text") != "Welcome" || title.Attr("level") != 1 {
		t.Errorf("attributes not merged: %v", title.Attributes)
	}

	out, err = Update(out, "title", Patch{Attributes: map[string]any{"text": nil}})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if _, ok := out.Find("title").Attributes["text"]; ok {
		t.Error("nil value should delete the key")
	}
}

func TestUpdateErrors(t *testing.T) {
	f := sample()

	if _, err := Update(f, "ghost", Patch{Attributes: map[string]any{"a": 1}}); !errors.Is(err, ErrTargetNotFound) {
		t.Errorf("expected ErrTargetNotFound, got %v", err)
	}
	bad := Patch{Groups: map[element.Bucket][]string{"sparkle": {"x"}}}
	if _, err := Update(f, "page", bad); !errors.Is(err, ErrInvalidBucket) {
		t.Errorf("expected ErrInvalidBucket, got %v", err)
	}
}

func TestMove(t *testing.T) {
	tests := []struct {
		name   string
		active string
		over   string
		pos    Position
		check  string
		want   []string
	}{
		{"title after body", "title", "body", After, "page", []string{"header", "body", "title"}},
		{"body before header", "body", "header", Before, "page", []string{"body", "header"}},
		{"footer inside header", "footer", "header", Inside, "header", []string{"title", "footer"}},
		{"title to root before page", "title", "page", Before, "", []string{"title", "page", "footer"}},
		{"page after footer", "page", "footer", After, "", []string{"footer", "page"}},
		{"body to canvas root", "body", element.CanvasRoot, Inside, "", []string{"page", "footer", "body"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := sample()
			snapshot := element.Clone(f)

			out, ok := Move(f, tt.active, tt.over, tt.pos)
			if !ok {
				t.Fatal("expected move to apply")
			}
			mustValid(t, out)

			var got []string
			if tt.check == "" {
				got = rootIDs(out)
			} else {
				got = childIDs(out, tt.check)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("order mismatch (-want +got):\n%s", diff)
			}
			if out.Count() != f.Count() {
				t.Errorf("node count changed: %d -> %d", f.Count(), out.Count())
			}
			if diff := cmp.Diff(snapshot, f, equateEmpty); diff != "" {
				t.Errorf("input forest modified:\n%s", diff)
			}
		})
	}
}

func TestMoveKeepsSubtree(t *testing.T) {
	out, ok := Move(sample(), "header", "footer", Inside)
	if !ok {
		t.Fatal("expected move to apply")
	}
	mustValid(t, out)
	header := out.Find("header")
	if header.ParentID != "footer" {
		t.Errorf("parentId = %q, want footer", header.ParentID)
	}
	if len(header.Children) != 1 || header.Children[0].ID != "title" {
		t.Errorf("subtree lost: %+v", header.Children)
	}
}

func TestMoveNoops(t *testing.T) {
	tests := []struct {
		name   string
		active string
		over   string
		pos    Position
	}{
		{"self", "page", "page", Inside},
		{"into child", "page", "header", Inside},
		{"into grandchild", "page", "title", After},
		{"missing active", "ghost", "page", After},
		{"missing over", "page", "ghost", After},
		{"same position after", "header", "body", Before},
		{"same position before", "body", "header", After},
		{"already last root", "footer", element.CanvasRoot, After},
		{"only child inside parent", "title", "header", Inside},
		{"bad position", "body", "footer", Position("sideways")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := sample()
			out, ok := Move(f, tt.active, tt.over, tt.pos)
			if ok {
				t.Fatal("expected no-op")
			}
			if diff := cmp.Diff(f, out, equateEmpty); diff != "" {
				t.Errorf("forest changed:\n%s", diff)
			}
		})
	}
}

func TestMoveDescendantAlwaysRejected(t *testing.T) {
	f := sample()
	for _, anc := range f.IDs() {
		for _, desc := range f.IDs() {
			if !f.IsDescendant(anc, desc) {
				continue
			}
			for _, pos := range []Position{Before, After, Inside} {
				if _, ok := Move(f, anc, desc, pos); ok {
					t.Errorf("Move(%s, %s, %s) should be rejected", anc, desc, pos)
				}
			}
		}
	}
}

func TestDuplicate(t *testing.T) {
	f := sample()

	out, id, ok := Duplicate(f, "header")
	if !ok {
		t.Fatal("expected duplicate")
	}
	mustValid(t, out)

	if diff := cmp.Diff([]string{"header", id, "body"}, childIDs(out, "page")); diff != "" {
		t.Errorf("copy should be the next sibling:\n%s", diff)
	}

	orig, copied := out.Find("header"), out.Find(id)
	ignoreIDs := cmpopts.IgnoreFields(element.Node{}, "ID", "ParentID")
	if diff := cmp.Diff(orig, copied, ignoreIDs, equateEmpty); diff != "" {
		t.Errorf("copy not isomorphic:\n%s", diff)
	}

	origIDs := map[string]bool{}
	element.Forest{orig}.Walk(func(n *element.Node, _ int) bool {
		origIDs[n.ID] = true
		return true
	})
	element.Forest{copied}.Walk(func(n *element.Node, _ int) bool {
		if origIDs[n.ID] {
			t.Errorf("id %s shared between original and copy", n.ID)
		}
		return true
	})

	copied.Children[0].Attributes["text"] = "changed"
	if orig.Children[0].Attr("text") != "Welcome" {
		t.Error("copy shares attribute state with the original")
	}
}

func TestDuplicateRootAndMissing(t *testing.T) {
	f := sample()

	out, id, ok := Duplicate(f, "footer")
	if !ok {
		t.Fatal("expected duplicate")
	}
	if diff := cmp.Diff([]string{"page", "footer", id}, rootIDs(out)); diff != "" {
		t.Errorf("root order mismatch:\n%s", diff)
	}
	if out.Find(id).ParentID != "" {
		t.Error("root copy should have no parent")
	}

	if _, _, ok := Duplicate(f, "ghost"); ok {
		t.Error("duplicating a missing id should be a no-op")
	}
}

// Covers the documented end-to-end walk: container with one text child,
// a redundant inside move, then a duplicate.
func TestContainerScenario(t *testing.T) {
	var f element.Forest

	f, a, err := Insert(f, &element.Node{Variant: "container"}, "", -1)
	if err != nil {
		t.Fatalf("insert A: %v", err)
	}
	f, b, err := Insert(f, &element.Node{Variant: "text", Attributes: map[string]any{"text": "Hi"}}, a, -1)
	if err != nil {
		t.Fatalf("insert B: %v", err)
	}
	mustValid(t, f)
	if len(f) != 1 || len(f[0].Children) != 1 || f[0].Children[0].ID != b {
		t.Fatalf("expected two-level tree, got %+v", f)
	}

	moved, ok := Move(f, b, a, Inside)
	if ok {
		t.Error("moving the only child inside its parent should be a no-op")
	}
	if diff := cmp.Diff(f, moved, equateEmpty); diff != "" {
		t.Errorf("forest changed:\n%s", diff)
	}

	f, _, ok = Duplicate(f, a)
	if !ok {
		t.Fatal("duplicate failed")
	}
	mustValid(t, f)
	if len(f) != 2 {
		t.Fatalf("expected two roots, got %d", len(f))
	}
	ignoreIDs := cmpopts.IgnoreFields(element.Node{}, "ID", "ParentID")
	if diff := cmp.Diff(f[0], f[1], ignoreIDs, equateEmpty); diff != "" {
		t.Errorf("roots not isomorphic:\n%s", diff)
	}
}

func TestParsePosition(t *testing.T) {
	for _, s := range []string{"before", "after", "inside"} {
		if p, err := ParsePosition(s); err != nil || string(p) != s {
			t.Errorf("ParsePosition(%q) = %q, %v", s, p, err)
		}
	}
	if _, err := ParsePosition("over"); err == nil {
		t.Error("expected error for unknown position")
	}
}
