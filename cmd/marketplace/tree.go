// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-extras/cobraflags"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"marketplace/internal/categorytree"
	"marketplace/internal/models"
)

const (
	fileFlag   = "file"
	formatFlag = "format"
	depthFlag  = "max-depth"
)

var treeFlags = map[string]cobraflags.Flag{
	fileFlag: &cobraflags.StringFlag{
		Name:  fileFlag,
		Value: "",
		Usage: "Read a JSON array of categories from this file (- for stdin) instead of the database",
	},
	formatFlag: &cobraflags.StringFlag{
		Name:  formatFlag,
		Value: "text",
		Usage: "Output format: text or json",
	},
}

func newTreeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the category tree, listing orphans separately",
		Long: `Build the category tree from the database, or from a JSON file of flat
category records, and print it. Categories whose parent is missing are
listed under "Orphans". Duplicate IDs and cycles are reported as errors.`,
		RunE: treeCommand,
	}
	cobraflags.RegisterMap(cmd, treeFlags)
	cmd.Flags().Int(depthFlag, 0, "Fail when the tree is deeper than this many levels (0 disables the check)")
	return cmd
}

func treeCommand(cmd *cobra.Command, _ []string) error {
	format := treeFlags[formatFlag].GetString()
	if format != "text" && format != "json" {
		return errors.Errorf("unknown format %q", format)
	}
	levels, _ := cmd.Flags().GetInt(depthFlag)

	var forest *categorytree.Forest
	var err error
	if path := treeFlags[fileFlag].GetString(); path != "" {
		forest, err = treeFromFile(cmd.InOrStdin(), path, levels)
	} else {
		forest, err = treeFromDatabase(cmd, levels)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(forest)
	}
	return writeTree(out, forest)
}

func treeFromFile(stdin io.Reader, path string, levels int) (*categorytree.Forest, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, errors.Wrap(err, "read categories")
	}

	var list []models.Category
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, errors.Wrap(err, "decode categories")
	}
	return categorytree.Build(list, categorytree.WithMaxDepth(levels))
}

func treeFromDatabase(cmd *cobra.Command, levels int) (*categorytree.Forest, error) {
	cfg, log, err := bootstrap()
	if err != nil {
		return nil, err
	}
	a, err := newApp(cfg, log, "cli", false)
	if err != nil {
		return nil, err
	}
	defer a.close(cmd.Context())

	list, err := a.catalog.List(cmd.Context())
	if err != nil {
		return nil, err
	}
	return categorytree.Build(list, categorytree.WithMaxDepth(levels))
}

// writeTree prints one category per line, indented two spaces per level.
func writeTree(w io.Writer, forest *categorytree.Forest) error {
	for _, e := range categorytree.Flatten(forest.Roots) {
		if _, err := fmt.Fprintln(w, line(e, 0)); err != nil {
			return err
		}
	}
	if len(forest.Orphans) == 0 {
		return nil
	}

	if _, err := fmt.Fprintln(w, "Orphans:"); err != nil {
		return err
	}
	for _, e := range categorytree.Flatten(forest.Orphans) {
		l := line(e, 1)
		if e.Depth == 0 && e.Category.ParentID != nil {
			l += " (missing parent " + e.Category.ParentID.String() + ")"
		}
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}

func line(e categorytree.Entry, indent int) string {
	s := strings.Repeat("  ", e.Depth+indent) + e.Category.Name
	if e.Category.Slug != "" {
		s += " [" + e.Category.Slug + "]"
	}
	return s
}
