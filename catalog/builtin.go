package catalog

import "uiforge/element"

type groups = map[element.Bucket][]string

// Builtin returns the default variant table.
func Builtin() []Variant {
	return []Variant{
		{Name: "container", Container: true, DisplayName: "Container",
			Styles: groups{element.BucketLayout: {"flex", "flex-col"}, element.BucketSpacing: {"p-4", "gap-4"}}},
		{Name: "section", Container: true, DisplayName: "Section",
			Styles: groups{element.BucketLayout: {"w-full"}, element.BucketSpacing: {"py-12", "px-6"}}},
		{Name: "header", Container: true, DisplayName: "Header",
			Styles: groups{element.BucketLayout: {"flex", "items-center", "justify-between"}, element.BucketSpacing: {"px-6", "py-4"}}},
		{Name: "footer", Container: true, DisplayName: "Footer",
			Styles: groups{element.BucketSpacing: {"px-6", "py-8"}, element.BucketColor: {"bg-gray-100"}}},
		{Name: "nav", Container: true, DisplayName: "Navigation",
			Styles: groups{element.BucketLayout: {"flex", "gap-4"}}},
		{Name: "row", Container: true, DisplayName: "Row",
			Styles: groups{element.BucketLayout: {"flex", "flex-row"}, element.BucketSpacing: {"gap-4"}}},
		{Name: "column", Container: true, DisplayName: "Column",
			Styles: groups{element.BucketLayout: {"flex", "flex-col"}, element.BucketSpacing: {"gap-2"}}},
		{Name: "grid", Container: true, DisplayName: "Grid",
			Styles: groups{element.BucketLayout: {"grid", "grid-cols-2"}, element.BucketSpacing: {"gap-4"}},
			Breakpoints: map[element.Breakpoint][]string{element.BreakpointMD: {"grid-cols-3"}}},
		{Name: "card", Container: true, DisplayName: "Card",
			Styles: groups{
				element.BucketSpacing: {"p-6"},
				element.BucketColor:   {"bg-white"},
				element.BucketBorder:  {"rounded-lg", "border"},
				element.BucketEffect:  {"shadow-md"},
			}},
		{Name: "form", Container: true, DisplayName: "Form",
			Attributes: map[string]any{"action": "", "method": "post"},
			Styles:     groups{element.BucketLayout: {"flex", "flex-col"}, element.BucketSpacing: {"gap-4"}}},
		{Name: "list", Container: true, DisplayName: "List",
			Attributes: map[string]any{"ordered": false},
			Styles:     groups{element.BucketLayout: {"list-disc"}, element.BucketSpacing: {"pl-6"}}},
		{Name: "list-item", Container: true, DisplayName: "List Item"},
		{Name: "text", DisplayName: "Text",
			Attributes: map[string]any{"text": "Text"},
			Styles:     groups{element.BucketTypography: {"text-base"}}},
		{Name: "heading", DisplayName: "Heading",
			Attributes: map[string]any{"text": "Heading", "level": 2},
			Styles:     groups{element.BucketTypography: {"text-2xl", "font-bold"}}},
		{Name: "link", DisplayName: "Link",
			Attributes: map[string]any{"text": "Link", "href": "#"},
			Styles:     groups{element.BucketColor: {"text-blue-600"}, element.BucketTypography: {"underline"}}},
		{Name: "button", DisplayName: "Button",
			Attributes: map[string]any{"text": "Button", "type": "button"},
			Styles: groups{
				element.BucketSpacing: {"px-4", "py-2"},
				element.BucketColor:   {"bg-blue-600", "text-white"},
				element.BucketBorder:  {"rounded"},
			}},
		{Name: "image", DisplayName: "Image",
			Attributes: map[string]any{"src": "https://placehold.co/600x400", "alt": "Image"},
			Styles:     groups{element.BucketLayout: {"max-w-full", "h-auto"}}},
		{Name: "input", DisplayName: "Input",
			Attributes: map[string]any{"type": "text", "placeholder": "Enter text", "name": ""},
			Styles: groups{
				element.BucketSpacing: {"px-3", "py-2"},
				element.BucketBorder:  {"border", "rounded"},
			}},
		{Name: "textarea", DisplayName: "Text Area",
			Attributes: map[string]any{"placeholder": "Enter text", "rows": 3, "name": ""},
			Styles: groups{
				element.BucketSpacing: {"px-3", "py-2"},
				element.BucketBorder:  {"border", "rounded"},
			}},
		{Name: "select", DisplayName: "Select",
			Attributes: map[string]any{"options": []any{"Option 1", "Option 2"}, "name": ""},
			Styles:     groups{element.BucketBorder: {"border", "rounded"}}},
		{Name: "checkbox", DisplayName: "Checkbox",
			Attributes: map[string]any{"label": "Checkbox", "checked": false, "name": ""},
			Styles:     groups{element.BucketLayout: {"inline-flex", "items-center"}, element.BucketSpacing: {"gap-2"}}},
		{Name: "divider", DisplayName: "Divider",
			Styles: groups{element.BucketSpacing: {"my-4"}, element.BucketBorder: {"border-t"}}},
		{Name: "spacer", DisplayName: "Spacer",
			Styles: groups{element.BucketLayout: {"h-8"}}},
		{Name: "video", DisplayName: "Video",
			Attributes: map[string]any{"src": "", "controls": true},
			Styles:     groups{element.BucketLayout: {"w-full"}}},
	}
}
