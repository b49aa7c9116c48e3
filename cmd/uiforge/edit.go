package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"uiforge/element"
	"uiforge/engine"
	"uiforge/internal/store"
	"uiforge/mutate"
	"uiforge/placement"
)

var errNoChange = errors.New("nothing changed")

func (a *app) addCmd() *cobra.Command {
	var (
		parent string
		index  int
		name   string
	)
	cmd := &cobra.Command{
		Use:   "add <variant>",
		Short: "Insert a new element from the catalog",
		Long: `Insert a new element of the given catalog variant and print its id.

Examples:
  uiforge add container                  # Append a root container
  uiforge add heading --parent <id>      # Append inside a container
  uiforge add text --parent <id> -i 0    # Insert as the first child`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.edit(cmd.Context(), func(e *engine.Engine) error {
				if _, ok := e.Catalog().Lookup(args[0]); !ok {
					return fmt.Errorf("unknown variant %q (see uiforge catalog)", args[0])
				}
				n := e.Catalog().NewNode(args[0])
				if name != "" {
					n.DisplayName = name
				}
				id, err := e.InsertNode(n, parent, index)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, id)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&parent, "parent", "", "Parent node id (default: root)")
	cmd.Flags().IntVarP(&index, "index", "i", -1, "Position among siblings (default: append)")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	return cmd
}

func (a *app) rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove an element and its subtree",
		Long: `Remove an element and its subtree. Removing an id that is not in the
document changes nothing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.edit(cmd.Context(), func(e *engine.Engine) error {
				if !e.Remove(args[0]) {
					fmt.Fprintf(a.out, "%s not found, nothing removed\n", args[0])
				}
				return nil
			})
		},
	}
}

func (a *app) setCmd() *cobra.Command {
	var (
		name    string
		attrs   []string
		classes []string
		bps     []string
	)
	cmd := &cobra.Command{
		Use:   "set <id>",
		Short: "Update an element's name, attributes or classes",
		Long: `Update an element. Attribute values are parsed as JSON when possible and
taken as plain strings otherwise; a value of null removes the attribute.
Class flags replace the whole bucket or breakpoint; an empty value clears it.

Examples:
  uiforge set <id> --attr text="Sign up" --attr level=1
  uiforge set <id> --class typography="text-4xl font-bold"
  uiforge set <id> --bp md="flex-row gap-8"
  uiforge set <id> --attr onClick=handleSubmit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := buildPatch(cmd.Flags().Changed("name"), name, attrs, classes, bps)
			if err != nil {
				return err
			}
			return a.edit(cmd.Context(), func(e *engine.Engine) error {
				return e.Update(args[0], p)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringArrayVar(&attrs, "attr", nil, "Attribute key=value (repeatable)")
	cmd.Flags().StringArrayVar(&classes, "class", nil, "Bucket tokens, bucket=tokens (repeatable)")
	cmd.Flags().StringArrayVar(&bps, "bp", nil, "Breakpoint tokens, breakpoint=tokens (repeatable)")
	return cmd
}

// buildPatch turns the set flags into a mutation patch.
func buildPatch(nameSet bool, name string, attrs, classes, bps []string) (mutate.Patch, error) {
	var p mutate.Patch
	if nameSet {
		p.DisplayName = &name
	}
	for _, kv := range attrs {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return p, fmt.Errorf("invalid --attr %q (want key=value)", kv)
		}
		if p.Attributes == nil {
			p.Attributes = make(map[string]any)
		}
		p.Attributes[k] = parseValue(v)
	}
	for _, kv := range classes {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return p, fmt.Errorf("invalid --class %q (want bucket=tokens)", kv)
		}
		if p.Groups == nil {
			p.Groups = make(map[element.Bucket][]string)
		}
		p.Groups[element.Bucket(k)] = strings.Fields(v)
	}
	for _, kv := range bps {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return p, fmt.Errorf("invalid --bp %q (want breakpoint=tokens)", kv)
		}
		if p.Breakpoints == nil {
			p.Breakpoints = make(map[element.Breakpoint][]string)
		}
		p.Breakpoints[element.Breakpoint(k)] = strings.Fields(v)
	}
	return p, nil
}

func parseValue(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return v
	}
	return s
}

func (a *app) mvCmd() *cobra.Command {
	var position string
	cmd := &cobra.Command{
		Use:   "mv <id> <over|root>",
		Short: "Move an element relative to another",
		Long: `Move an element before, after or inside another element. The target
"root" moves the element to the end of the root list.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := mutate.ParsePosition(position)
			if err != nil {
				return err
			}
			over := args[1]
			if over == "root" {
				over = element.CanvasRoot
			}
			return a.edit(cmd.Context(), func(e *engine.Engine) error {
				if !e.Move(args[0], over, pos) {
					return fmt.Errorf("%w: cannot move %s %s %s", errNoChange, args[0], pos, args[1])
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&position, "position", "p", string(mutate.After), "before, after or inside")
	return cmd
}

func (a *app) dupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dup <id>",
		Short: "Duplicate an element next to the original",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.edit(cmd.Context(), func(e *engine.Engine) error {
				id, ok := e.Duplicate(args[0])
				if !ok {
					fmt.Fprintf(a.out, "%s not found, nothing duplicated\n", args[0])
					return nil
				}
				fmt.Fprintln(a.out, id)
				return nil
			})
		},
	}
}

func (a *app) dropCmd() *cobra.Command {
	var (
		newVariant string
		activeID   string
		overID     string
		root       bool
		dryRun     bool
	)
	cmd := &cobra.Command{
		Use:   "drop",
		Short: "Resolve a drag-and-drop and apply it",
		Long: `Resolve where a dragged element lands and apply the edit.

Examples:
  uiforge drop --new button --over <container-id>   # Insert inside
  uiforge drop --active <id> --over <id>            # Move after target
  uiforge drop --new section --root --dry-run       # Print the intent only`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (newVariant == "") == (activeID == "") {
				return errors.New("exactly one of --new or --active is required")
			}
			if (overID == "") == !root {
				return errors.New("exactly one of --over or --root is required")
			}
			active := placement.Active{ID: activeID, IsNew: newVariant != "", Variant: newVariant}
			hover := placement.Hover{TargetID: overID, Root: root}

			if dryRun {
				return a.view(cmd.Context(), func(_ *store.DB, e *engine.Engine) error {
					return printIntent(a, e.Preview(active, hover))
				})
			}
			return a.edit(cmd.Context(), func(e *engine.Engine) error {
				if active.IsNew {
					if _, ok := e.Catalog().Lookup(newVariant); !ok {
						return fmt.Errorf("unknown variant %q (see uiforge catalog)", newVariant)
					}
				}
				res, err := e.Drop(active, hover)
				if err != nil {
					return err
				}
				if res.Intent == nil || !res.Applied {
					return fmt.Errorf("%w: drop is not allowed here", errNoChange)
				}
				fmt.Fprintln(a.out, res.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&newVariant, "new", "", "Variant of a new element taken from the palette")
	cmd.Flags().StringVar(&activeID, "active", "", "Id of an existing element being dragged")
	cmd.Flags().StringVar(&overID, "over", "", "Id of the element under the pointer")
	cmd.Flags().BoolVar(&root, "root", false, "Drop onto the canvas itself")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the resolved intent without applying it")
	return cmd
}

func printIntent(a *app, intent *placement.Intent) error {
	if intent == nil {
		fmt.Fprintln(a.out, "null")
		return nil
	}
	data, err := json.Marshal(intent)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, string(data))
	return nil
}

func (a *app) undoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Step back one history entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.edit(cmd.Context(), func(e *engine.Engine) error {
				if !e.Undo() {
					return fmt.Errorf("%w: already at the oldest entry", errNoChange)
				}
				return nil
			})
		},
	}
}

func (a *app) redoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "redo",
		Short: "Step forward one history entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.edit(cmd.Context(), func(e *engine.Engine) error {
				if !e.Redo() {
					return fmt.Errorf("%w: already at the newest entry", errNoChange)
				}
				return nil
			})
		},
	}
}
