package codegen

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"uiforge/element"
)

const emptyLoose = `import React from 'react';

export default function GeneratedComponent(props) {
  return null;
}
`

const emptyTyped = `import React from 'react';

export interface GeneratedComponentProps {}

export default function GeneratedComponent(props: GeneratedComponentProps): React.ReactElement | null {
  return null;
}
`

func TestEmptyForestSkeleton(t *testing.T) {
	for _, f := range []element.Forest{nil, {}} {
		if got := Serialize(f, Loose, Options{}); got != emptyLoose {
			t.Errorf("loose skeleton mismatch:\n%s", got)
		}
		if got := Serialize(f, Typed, Options{}); got != emptyTyped {
			t.Errorf("typed skeleton mismatch:\n%s", got)
		}
	}
}

func landing() element.Forest {
	heading := &element.Node{ID: "h", Variant: "heading", ParentID: "root",
		Attributes: map[string]any{"text": "Hello", "level": 1}}
	button := &element.Node{ID: "b", Variant: "button", ParentID: "root",
		Attributes: map[string]any{"text": "Go", "onClick": "handleGo"}}
	card := &element.Node{ID: "c", Variant: "card", DisplayName: "Empty Card", ParentID: "root"}
	root := &element.Node{
		ID:      "root",
		Variant: "container",
		Styles: element.Styles{
			Groups: map[element.Bucket][]string{
				element.BucketSpacing: {"p-4"},
				element.BucketLayout:  {"flex", "flex-col"},
			},
			Breakpoints: map[element.Breakpoint][]string{element.BreakpointMD: {"p-8"}},
		},
		Children: []*element.Node{heading, button, card},
	}
	return element.Forest{root}
}

const landingLoose = `import React from 'react';

export default function LandingPage(props) {
  return (
    <div className="flex flex-col p-4 md:p-8">
      <h1>Hello</h1>
      <button type="button" onClick={props.handleGo}>Go</button>
      <div>
        {/* card */}
      </div>
    </div>
  );
}
`

const landingTyped = `import React from 'react';

export interface LandingPageProps {
  handleGo?: () => void;
}

export default function LandingPage(props: LandingPageProps): React.ReactElement | null {
  return (
    <div className="flex flex-col p-4 md:p-8">
      <h1>Hello</h1>
      <button type="button" onClick={props.handleGo}>Go</button>
      <div>
        {/* card */}
      </div>
    </div>
  );
}
`

func TestSerializeGolden(t *testing.T) {
	opts := Options{ComponentName: "landing page"}

	if got := Serialize(landing(), Loose, opts); got != landingLoose {
		t.Errorf("loose mismatch:\ngot:\n%s\nwant:\n%s", got, landingLoose)
	}
	if got := Serialize(landing(), Typed, opts); got != landingTyped {
		t.Errorf("typed mismatch:\ngot:\n%s\nwant:\n%s", got, landingTyped)
	}
}

func TestSerializeAllMatchesSerialize(t *testing.T) {
	opts := Options{ComponentName: "Landing"}
	out := SerializeAll(landing(), opts)

	for _, fl := range Flavors {
		if out.Get(fl) != Serialize(landing(), fl, opts) {
			t.Errorf("%s: SerializeAll differs from Serialize", fl)
		}
	}

	bodyOf := func(s string) string { return s[strings.Index(s, "  return ("):] }
	if bodyOf(out.Loose) != bodyOf(out.Typed) {
		t.Error("flavors should share an identical body")
	}
}

func TestSerializeDeterministic(t *testing.T) {
	f := landing()
	f[0].Children[1].Attributes["data-b"] = "2"
	f[0].Children[1].Attributes["data-a"] = "1"
	f[0].Children[1].Attributes["aria-label"] = "go"

	for _, fl := range Flavors {
		first := Serialize(f, fl, Options{})
		for i := 0; i < 20; i++ {
			if got := Serialize(f, fl, Options{}); got != first {
				t.Fatalf("%s output changed between runs:\n%s\nvs\n%s", fl, first, got)
			}
		}
	}
}

func TestSerializeMultipleRoots(t *testing.T) {
	f := element.Forest{
		{ID: "a", Variant: "text", Attributes: map[string]any{"text": "One"}},
		{ID: "b", Variant: "divider"},
	}
	got := Serialize(f, Loose, Options{})
	want := "  return (\n" +
		"    <>\n" +
		"      <p>One</p>\n" +
		"      <hr />\n" +
		"    </>\n" +
		"  );\n"
	if !strings.Contains(got, want) {
		t.Errorf("expected fragment wrapper, got:\n%s", got)
	}
}

func TestFallbackRule(t *testing.T) {
	leaf := element.Forest{{ID: "m", Variant: "mystery"}}
	if got := Serialize(leaf, Loose, Options{}); !strings.Contains(got, `    <div data-variant="mystery" />`) {
		t.Errorf("unexpected fallback leaf:\n%s", got)
	}

	parent := element.Forest{{
		ID:       "m",
		Variant:  "mystery",
		Children: []*element.Node{{ID: "t", Variant: "text", ParentID: "m"}},
	}}
	got := Serialize(parent, Loose, Options{})
	want := "    <div data-variant=\"mystery\">\n" +
		"      <p>Text</p>\n" +
		"    </div>\n"
	if !strings.Contains(got, want) {
		t.Errorf("unexpected fallback container:\n%s", got)
	}
	if HasRule("mystery") || !HasRule("card") {
		t.Error("HasRule disagrees with the rule table")
	}
}

func TestEveryBuiltinVariantBalanced(t *testing.T) {
	variants := []string{
		"container", "section", "header", "footer", "nav", "row", "column", "grid",
		"card", "form", "list", "list-item", "text", "heading", "link", "button",
		"image", "input", "textarea", "select", "checkbox", "divider", "spacer",
		"video", "unknown-widget",
	}

	var f element.Forest
	for _, v := range variants {
		f = append(f, &element.Node{ID: v, Variant: v})
	}
	f[len(f)-1].Attributes = map[string]any{"options": []any{"x"}}
	f[0].Children = []*element.Node{{ID: "inner", Variant: "select", ParentID: "container",
		Attributes: map[string]any{"options": []any{"A", "B"}}}}

	for _, fl := range Flavors {
		out := Serialize(f, fl, Options{})
		if out == "" {
			t.Fatalf("%s: empty output", fl)
		}
		for _, pair := range []string{"{}", "()", "<>"} {
			if strings.Count(out, pair[:1]) != strings.Count(out, pair[1:]) {
				t.Errorf("%s: unbalanced %s in:\n%s", fl, pair, out)
			}
		}
	}
}

func TestAttributeFormatting(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
		want  string
		ok    bool
	}{
		{"plain string", "href", "/about", `href="/about"`, true},
		{"quoted string", "title", `say "hi"`, `title={"say \"hi\""}`, true},
		{"brace string", "title", "a{b}", `title={"a{b}"}`, true},
		{"entity string", "title", "Q&amp;A", `title={"Q&amp;A"}`, true},
		{"empty string", "name", "", "", false},
		{"int", "rows", 3, `rows={3}`, true},
		{"integral float", "rows", float64(3), `rows={3}`, true},
		{"float", "step", 0.5, `step={0.5}`, true},
		{"json number", "rows", json.Number("4"), `rows={4}`, true},
		{"true", "controls", true, `controls`, true},
		{"false", "controls", false, "", false},
		{"nil", "x", nil, "", false},
		{"map", "style", map[string]any{"b": 1, "a": "x"}, `style={{"a":"x","b":1}}`, true},
		{"slice", "data-list", []any{"a", 1}, `data-list={["a",1]}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := formatAttr(tt.key, tt.value)
			if ok != tt.ok || got != tt.want {
				t.Errorf("formatAttr(%q, %v) = (%q, %v), want (%q, %v)", tt.key, tt.value, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestEscapeText(t *testing.T) {
	tests := map[string]string{
		"Hello":     "Hello",
		"a < b":     `{"a < b"}`,
		"{name}":    `{"{name}"}`,
		" padded":   `{" padded"}`,
		"two\nline": `{"two\nline"}`,
		"it's fine": "it's fine",
		"Q&amp;A":   `{"Q&amp;A"}`,
		"R&D":       `{"R&D"}`,
	}
	for in, want := range tests {
		if got := escapeText(in); got != want {
			t.Errorf("escapeText(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestClassList(t *testing.T) {
	s := element.Styles{
		Groups: map[element.Bucket][]string{
			element.BucketEffect:     {"shadow"},
			element.BucketLayout:     {"flex"},
			element.BucketTypography: {"", "text-sm font-bold"},
		},
		Breakpoints: map[element.Breakpoint][]string{
			element.Breakpoint2XL: {"p-12"},
			element.BreakpointSM:  {"p-2"},
			element.BreakpointLG:  {},
		},
	}
	want := "flex text-sm font-bold shadow sm:p-2 2xl:p-12"
	if got := ClassList(s); got != want {
		t.Errorf("ClassList = %q, want %q", got, want)
	}
	if got := ClassList(element.Styles{}); got != "" {
		t.Errorf("empty styles should compose to nothing, got %q", got)
	}
}

func TestCoercion(t *testing.T) {
	tests := []struct {
		name string
		node *element.Node
		want string
	}{
		{"heading level out of range", &element.Node{Variant: "heading", Attributes: map[string]any{"level": 9}}, "<h2>Heading</h2>"},
		{"heading level string", &element.Node{Variant: "heading", Attributes: map[string]any{"level": "3", "text": "T"}}, "<h3>T</h3>"},
		{"heading level fractional", &element.Node{Variant: "heading", Attributes: map[string]any{"level": 2.5}}, "<h2>Heading</h2>"},
		{"button bad type", &element.Node{Variant: "button", Attributes: map[string]any{"type": "launch"}}, `<button type="button">Button</button>`},
		{"text number", &element.Node{Variant: "text", Attributes: map[string]any{"text": 42}}, "<p>42</p>"},
		{"text wrong type", &element.Node{Variant: "text", Attributes: map[string]any{"text": []any{1}}}, "<p>Text</p>"},
		{"link empty href", &element.Node{Variant: "link", Attributes: map[string]any{"href": ""}}, `<a href="#">Link</a>`},
		{"ordered list", &element.Node{Variant: "list", Attributes: map[string]any{"ordered": true}}, "<ol>"},
		{"textarea rows float", &element.Node{Variant: "textarea", Attributes: map[string]any{"rows": float64(5)}}, "<textarea rows={5} />"},
		{"video defaults", &element.Node{Variant: "video"}, "<video controls />"},
		{"spacer", &element.Node{Variant: "spacer"}, "<div aria-hidden />"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.node.ID = "n"
			got := Serialize(element.Forest{tt.node}, Loose, Options{})
			if !strings.Contains(got, tt.want) {
				t.Errorf("expected %s in:\n%s", tt.want, got)
			}
		})
	}
}

func TestSelectOptions(t *testing.T) {
	n := &element.Node{ID: "s", Variant: "select", Attributes: map[string]any{
		"name": "size",
		"options": []any{
			"Small",
			2,
			map[string]any{"value": "lg", "label": "Large"},
			true,
		},
	}}
	got := Serialize(element.Forest{n}, Loose, Options{})
	want := "    <select name=\"size\">\n" +
		"      <option value=\"Small\">Small</option>\n" +
		"      <option value=\"2\">2</option>\n" +
		"      <option value=\"lg\">Large</option>\n" +
		"    </select>\n"
	if !strings.Contains(got, want) {
		t.Errorf("unexpected select:\n%s", got)
	}

	n.Attributes["options"] = "not a list"
	got = Serialize(element.Forest{n}, Loose, Options{})
	if !strings.Contains(got, `<select name="size" />`) {
		t.Errorf("invalid options should render an empty select:\n%s", got)
	}
}

func TestCheckbox(t *testing.T) {
	n := &element.Node{ID: "c", Variant: "checkbox", Attributes: map[string]any{
		"label": "Agree", "checked": true, "name": "agree",
	}}
	got := Serialize(element.Forest{n}, Loose, Options{})
	want := "    <label>\n" +
		"      <input type=\"checkbox\" name=\"agree\" defaultChecked />\n" +
		"      Agree\n" +
		"    </label>\n"
	if !strings.Contains(got, want) {
		t.Errorf("unexpected checkbox:\n%s", got)
	}
}

func TestPassthroughAndHandlers(t *testing.T) {
	n := &element.Node{ID: "b", Variant: "button", Attributes: map[string]any{
		"text":        "Save",
		"id":          "save",
		"data-testid": "save-btn",
		"aria-label":  "Save changes",
		"onSubmit":    "not valid!",
		"onClick":     "handleSave",
		"tooltip":     "dropped",
		"data-x y>":   "1",
		"aria-":       "empty",
		"data-{a}":    "brace",
	}}
	out := SerializeAll(element.Forest{n}, Options{})

	want := `<button type="button" aria-label="Save changes" data-testid="save-btn" id="save" onClick={props.handleSave}>Save</button>`
	if !strings.Contains(out.Loose, want) {
		t.Errorf("unexpected attributes:\n%s", out.Loose)
	}
	if strings.Contains(out.Loose, "tooltip") || strings.Contains(out.Loose, "onSubmit") ||
		strings.Contains(out.Loose, "data-x") || strings.Contains(out.Loose, "aria-=") || strings.Contains(out.Loose, "data-{") {
		t.Errorf("unexpected attribute leaked:\n%s", out.Loose)
	}
	if !strings.Contains(out.Typed, "  handleSave?: () => void;\n") {
		t.Errorf("handler missing from props interface:\n%s", out.Typed)
	}
}

func TestIncludeFilter(t *testing.T) {
	title := &element.Node{ID: "title", Variant: "heading", DisplayName: "Page Title", ParentID: "header",
		Attributes: map[string]any{"text": "Welcome"}}
	header := &element.Node{ID: "header", Variant: "header", DisplayName: "Header", ParentID: "page",
		Children: []*element.Node{title}}
	body := &element.Node{ID: "body", Variant: "text", ParentID: "page", Attributes: map[string]any{"text": "Body copy"}}
	page := &element.Node{ID: "page", Variant: "container", DisplayName: "Page", Children: []*element.Node{header, body}}
	f := element.Forest{page}

	got := Serialize(f, Loose, Options{Include: []string{"**/page-title"}})
	if !strings.Contains(got, "Welcome") || strings.Contains(got, "Body copy") {
		t.Errorf("filter mismatch:\n%s", got)
	}
	if !strings.Contains(got, "<header>") {
		t.Errorf("ancestors of a match should be kept:\n%s", got)
	}

	if got := Serialize(f, Loose, Options{Include: []string{"nothing/matches"}}); got != emptyLoose {
		t.Errorf("a filter matching nothing should give the skeleton:\n%s", got)
	}
	if len(f[0].Children) != 2 {
		t.Error("filtering modified the input forest")
	}
}

func TestOptionsValidate(t *testing.T) {
	if err := (Options{Include: []string{"**/card", "page/*"}}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (Options{Include: []string{"page/[unterminated"}}).Validate(); !errors.Is(err, ErrBadPattern) {
		t.Errorf("expected ErrBadPattern, got %v", err)
	}
}

func TestComponentName(t *testing.T) {
	tests := map[string]string{
		"":               DefaultComponentName,
		"landing page":   "LandingPage",
		"my-cool_widget": "MyCoolWidget",
		"Hero":           "Hero",
		"404 page":       "Component404Page",
		"!!!":            DefaultComponentName,
	}
	for in, want := range tests {
		if got := ComponentName(in); got != want {
			t.Errorf("ComponentName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseFlavor(t *testing.T) {
	tests := []struct {
		in   string
		want Flavor
	}{
		{"loose", Loose},
		{"jsx", Loose},
		{".tsx", Typed},
		{"TYPED", Typed},
	}
	for _, tt := range tests {
		got, err := ParseFlavor(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseFlavor(%q) = %q, %v", tt.in, got, err)
		}
	}
	if _, err := ParseFlavor("vue"); !errors.Is(err, ErrUnknownFlavor) {
		t.Errorf("expected ErrUnknownFlavor, got %v", err)
	}
	if Loose.Ext() != ".jsx" || Typed.Ext() != ".tsx" {
		t.Error("unexpected extensions")
	}
}

func TestDecodedForestRendersIdentically(t *testing.T) {
	f := landing()
	f[0].Children = append(f[0].Children, &element.Node{ID: "ta", Variant: "textarea", ParentID: "root",
		Attributes: map[string]any{"rows": 4, "placeholder": "Notes"}})

	data, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded element.Forest
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if SerializeAll(f, Options{}) != SerializeAll(decoded, Options{}) {
		t.Error("a JSON round trip changed the generated source")
	}
}

func TestPassthroughKeyNames(t *testing.T) {
	tests := map[string]bool{
		"data-testid":    true,
		"data-a.b:c_d-e": true,
		"aria-label":     true,
		"id":             true,
		"title":          true,
		"data-":          false,
		"data-x y>":      false,
		"aria-{x}":       false,
		"data-\"q":       false,
		"tooltip":        false,
	}
	for key, want := range tests {
		if got := isPassthrough(key); got != want {
			t.Errorf("isPassthrough(%q) = %v, want %v", key, got, want)
		}
	}
}

func TestChildrenOfLeafVariantsAreKept(t *testing.T) {
	heading := &element.Node{ID: "h", Variant: "heading", Attributes: map[string]any{"text": "Title"},
		Children: []*element.Node{{ID: "s", Variant: "text", ParentID: "h", Attributes: map[string]any{"text": "sub"}}}}
	image := &element.Node{ID: "i", Variant: "image", Attributes: map[string]any{"src": "/a.png"},
		Children: []*element.Node{{ID: "c", Variant: "text", ParentID: "i", Attributes: map[string]any{"text": "caption"}}}}

	got := Serialize(element.Forest{heading}, Loose, Options{})
	want := "    <h2>\n" +
		"      Title\n" +
		"      <p>sub</p>\n" +
		"    </h2>\n"
	if !strings.Contains(got, want) {
		t.Errorf("heading children missing:\n%s", got)
	}

	got = Serialize(element.Forest{image}, Loose, Options{})
	want = "    <>\n" +
		"      <img src=\"/a.png\" />\n" +
		"      <p>caption</p>\n" +
		"    </>\n"
	if !strings.Contains(got, want) {
		t.Errorf("image children missing:\n%s", got)
	}
}

func TestPlaceholderIgnoresDisplayName(t *testing.T) {
	plain := element.Forest{{ID: "s", Variant: "section"}}
	named := element.Forest{{ID: "s", Variant: "section", DisplayName: "Hero */ block"}}
	a := Serialize(plain, Typed, Options{})
	b := Serialize(named, Typed, Options{})
	if a != b {
		t.Errorf("display name changed the output:\n%s\nvs\n%s", a, b)
	}
	if !strings.Contains(a, "{/* section */}") {
		t.Errorf("expected variant placeholder:\n%s", a)
	}
	if got := placeholder("a */ b"); got != "{/* a * / b */}" {
		t.Errorf("placeholder did not neutralize the comment end: %s", got)
	}
}

