package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"uiforge/codegen"
	"uiforge/element"
	"uiforge/internal/store"
)

func (a *app) diffCmd() *cobra.Command {
	var flavor string
	cmd := &cobra.Command{
		Use:   "diff <from> <to>",
		Short: "Show how generated source differs between two document states",
		Long: `Generate source for two document states and print a line diff.

A state is written as NAME, NAME@N or @N. NAME alone is the document's
current entry; @N selects history entry N; a missing NAME means --doc.

Examples:
  uiforge diff @0 @3                # First and fourth entry of --doc
  uiforge diff landing pricing      # Two documents
  uiforge diff main@2 main --flavor loose`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fl, err := codegen.ParseFlavor(flavor)
			if err != nil {
				return err
			}
			db, err := store.Open(a.cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			opts := codegen.Options{ComponentName: a.cfg.ComponentName}
			var src [2]string
			for i, ref := range args {
				f, err := a.resolveRef(cmd.Context(), db, ref)
				if err != nil {
					return err
				}
				src[i] = codegen.Serialize(f, fl, opts)
			}

			if src[0] == src[1] {
				fmt.Fprintln(a.out, "no differences")
				return nil
			}
			fmt.Fprintf(a.out, "--- %s\n+++ %s\n", args[0], args[1])
			writeLineDiff(a.out, src[0], src[1])
			return nil
		},
	}
	cmd.Flags().StringVarP(&flavor, "flavor", "f", string(codegen.Typed), "typed (tsx) or loose (jsx)")
	return cmd
}

// parseRef splits NAME@N into its parts. seq is -1 when no entry is given.
func parseRef(ref, defaultDoc string) (name string, seq int, err error) {
	name, num, hasSeq := strings.Cut(ref, "@")
	if name == "" {
		name = defaultDoc
	}
	if !hasSeq {
		return name, -1, nil
	}
	seq, err = strconv.Atoi(num)
	if err != nil || seq < 0 {
		return "", 0, fmt.Errorf("invalid history entry in %q", ref)
	}
	return name, seq, nil
}

func (a *app) resolveRef(ctx context.Context, db *store.DB, ref string) (element.Forest, error) {
	name, seq, err := parseRef(ref, a.cfg.Document)
	if err != nil {
		return nil, err
	}
	entries, cursor, err := db.LoadHistory(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ref, err)
	}
	if seq < 0 {
		seq = cursor
	}
	if seq >= len(entries) {
		return nil, fmt.Errorf("%s: history has %d entries", ref, len(entries))
	}
	return entries[seq].Forest, nil
}

// writeLineDiff prints a whole-file diff with one marker column per line.
func writeLineDiff(w io.Writer, before, after string) {
	dmp := diffmatchpatch.New()
	chars1, chars2, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(chars1, chars2, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)
	diffs = dmp.DiffCleanupSemantic(diffs)

	for _, d := range diffs {
		if d.Text == "" {
			continue
		}
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		}
		for _, line := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			fmt.Fprintln(w, prefix+line)
		}
	}
}
