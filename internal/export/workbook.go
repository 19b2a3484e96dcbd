// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package export renders the category forest as a spreadsheet and can
// upload it to object storage.
package export

import (
	"bytes"
	"io"
	"time"

	"github.com/pkg/errors"
	excelize "github.com/xuri/excelize/v2"

	"marketplace/internal/categorytree"
)

// SheetName is the worksheet holding the categories.
const SheetName = "Categories"

// ContentType is the MIME type of the generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Header is the first row of the sheet.
var Header = []interface{}{"Name", "Slug", "ID", "Parent ID", "Depth", "Created At", "Status"}

// StatusOrphan marks rows whose top-level ancestor points at a missing parent.
const StatusOrphan = "orphan"

// Workbook builds a workbook listing the forest in pre-order, the name cell
// indented by depth. Orphan subtrees follow the regular tree.
func Workbook(forest *categorytree.Forest) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "error while naming sheet")
	}

	if err := makeStyle(f); err != nil {
		f.Close()
		return nil, err
	}

	startCell, err := excelize.JoinCellName("A", 1)
	if err != nil {
		f.Close()
		return nil, err
	}
	if err := f.SetSheetRow(SheetName, startCell, &Header); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "error while writing header")
	}

	w := &rowWriter{f: f, row: 2, indent: map[int]int{}}
	for _, e := range categorytree.Flatten(forest.Roots) {
		if err := w.write(e, ""); err != nil {
			f.Close()
			return nil, err
		}
	}
	for _, e := range categorytree.Flatten(forest.Orphans) {
		if err := w.write(e, StatusOrphan); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

// Write renders the forest as an .xlsx document to w.
func Write(w io.Writer, forest *categorytree.Forest) error {
	f, err := Workbook(forest)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return errors.Wrap(err, "error while writing workbook")
	}
	return nil
}

// Bytes renders the forest as an .xlsx document in memory.
func Bytes(forest *categorytree.Forest) (*bytes.Buffer, error) {
	f, err := Workbook(forest)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "error while writing workbook")
	}
	return buf, nil
}

func makeStyle(f *excelize.File) error {
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.Wrap(err, "error while styling")
	}
	if err := f.SetCellStyle(SheetName, "A1", "G1", bold); err != nil {
		return errors.Wrap(err, "error while styling header")
	}
	if err := f.SetColWidth(SheetName, "A", "A", 40); err != nil {
		return errors.Wrap(err, "error while styling column width")
	}
	if err := f.SetColWidth(SheetName, "B", "D", 38); err != nil {
		return errors.Wrap(err, "error while styling column width")
	}
	return nil
}

type rowWriter struct {
	f      *excelize.File
	row    int
	indent map[int]int
}

func (w *rowWriter) write(e categorytree.Entry, status string) error {
	c := e.Category
	parent := ""
	if c.ParentID != nil {
		parent = c.ParentID.String()
	}
	created := ""
	if !c.CreatedAt.IsZero() {
		created = c.CreatedAt.UTC().Format(time.RFC3339)
	}

	cell, err := excelize.JoinCellName("A", w.row)
	if err != nil {
		return err
	}
	values := []interface{}{c.Name, c.Slug, c.ID.String(), parent, e.Depth, created, status}
	if err := w.f.SetSheetRow(SheetName, cell, &values); err != nil {
		return errors.Wrapf(err, "error while writing row %d", w.row)
	}

	if e.Depth > 0 {
		style, err := w.indentStyle(e.Depth)
		if err != nil {
			return err
		}
		if err := w.f.SetCellStyle(SheetName, cell, cell, style); err != nil {
			return errors.Wrap(err, "error while indenting name")
		}
	}
	w.row++
	return nil
}

func (w *rowWriter) indentStyle(depth int) (int, error) {
	if id, ok := w.indent[depth]; ok {
		return id, nil
	}
	id, err := w.f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{Indent: depth}})
	if err != nil {
		return 0, errors.Wrap(err, "error while styling indent")
	}
	w.indent[depth] = id
	return id, nil
}
