package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"uiforge/cas"
	"uiforge/codegen"
	"uiforge/codegen/syntax"
	"uiforge/element"
	"uiforge/engine"
	"uiforge/internal/store"
)

func (a *app) catalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List the element variants that can be inserted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := a.catalog()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "VARIANT\tCONTAINER\tNAME")
			for _, name := range cat.Names() {
				v, _ := cat.Lookup(name)
				fmt.Fprintf(tw, "%s\t%t\t%s\n", v.Name, v.Container, v.DisplayName)
			}
			return tw.Flush()
		},
	}
}

func (a *app) treeCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the document tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.view(cmd.Context(), func(_ *store.DB, e *engine.Engine) error {
				f := e.Forest()
				if asJSON {
					if f == nil {
						f = element.Forest{}
					}
					enc := json.NewEncoder(a.out)
					enc.SetIndent("", "  ")
					return enc.Encode(f)
				}
				if len(f) == 0 {
					fmt.Fprintln(a.out, "(empty)")
					return nil
				}
				printTree(a, f, 0)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output the forest as JSON")
	return cmd
}

func printTree(a *app, nodes []*element.Node, depth int) {
	for _, n := range nodes {
		line := strings.Repeat("  ", depth) + n.Variant + " " + n.ID
		if n.DisplayName != "" {
			line += " " + strconv.Quote(n.DisplayName)
		}
		if classes := codegen.ClassList(n.Styles); classes != "" {
			line += " [" + classes + "]"
		}
		fmt.Fprintln(a.out, line)
		printTree(a, n.Children, depth+1)
	}
}

func (a *app) historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List the undo history; * marks the current entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.view(cmd.Context(), func(_ *store.DB, e *engine.Engine) error {
				cp := e.Checkpoint()
				tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "\tSEQ\tNODES\tDIGEST\tCREATED")
				for i, s := range cp.Entries {
					mark := ""
					if i == cp.Cursor {
						mark = "*"
					}
					digest, err := cas.ForestDigest(s.Forest)
					if err != nil {
						return err
					}
					fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n",
						mark, i, s.Forest.Count(), cas.ShortHex(digest), s.CreatedAt.Format("2006-01-02 15:04:05"))
				}
				return tw.Flush()
			})
		},
	}
}

func (a *app) exportCmd() *cobra.Command {
	var (
		flavor  string
		name    string
		include []string
		out     string
		check   bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Generate React component source from the document",
		Long: `Generate a React function component from the document tree.

Examples:
  uiforge export                                  # Typed source on stdout
  uiforge export --flavor loose --name landing    # Untyped, component "Landing"
  uiforge export --include 'page/**' --out Page.tsx
  uiforge export --check                          # Parse the output before writing`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fl, err := codegen.ParseFlavor(flavor)
			if err != nil {
				return err
			}
			if name == "" {
				name = a.cfg.ComponentName
			}
			opts := codegen.Options{ComponentName: name, Include: include}
			if err := opts.Validate(); err != nil {
				return err
			}

			return a.view(cmd.Context(), func(_ *store.DB, e *engine.Engine) error {
				src := e.Export(fl, opts)
				if check {
					if err := syntax.Check(src, fl); err != nil {
						return err
					}
				}
				if out == "" {
					_, err := fmt.Fprint(a.out, src)
					return err
				}
				if err := os.WriteFile(out, []byte(src), 0644); err != nil {
					return fmt.Errorf("writing %s: %w", out, err)
				}
				fmt.Fprintf(a.out, "wrote %s\n", out)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&flavor, "flavor", "f", string(codegen.Typed), "typed (tsx) or loose (jsx)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "Component name (default $UIFORGE_COMPONENT)")
	cmd.Flags().StringArrayVar(&include, "include", nil, "Only export nodes whose path matches this pattern (repeatable)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to this file instead of stdout")
	cmd.Flags().BoolVar(&check, "check", false, "Fail if the generated source does not parse")
	return cmd
}

func (a *app) docsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "docs",
		Short: "List stored documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := store.Open(a.cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			docs, err := db.ListDocuments(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tENTRIES\tCURSOR\tHEAD\tUPDATED")
			for _, d := range docs {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n",
					d.Name, d.Entries, d.Cursor, cas.ShortHex(d.Head), d.UpdatedAt.Format("2006-01-02 15:04:05"))
			}
			return tw.Flush()
		},
	}
}
