// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"marketplace/internal/catalog"
	"marketplace/internal/models"
)

func newDeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category and its subcategories",
		Args:  cobra.ExactArgs(1),
		RunE:  deleteCommand,
	}
	cmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func deleteCommand(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return errors.Wrap(err, "parse category id")
	}

	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	a, err := newApp(cfg, log, "cli", false)
	if err != nil {
		return err
	}
	defer a.close(cmd.Context())

	confirm := promptConfirm(cmd.InOrStdin(), cmd.OutOrStdout())
	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		confirm = catalog.AlwaysConfirm
	}

	res, err := a.catalog.Delete(cmd.Context(), id, confirm)
	if errors.Is(err, catalog.ErrNotConfirmed) {
		fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d categories.\n", len(res.Deleted))
	return nil
}

// promptConfirm asks on out and reads a y/N answer from in.
func promptConfirm(in io.Reader, out io.Writer) catalog.ConfirmFunc {
	return func(_ context.Context, c models.Category, affected int) (bool, error) {
		if affected > 1 {
			fmt.Fprintf(out, "Delete %q and its %d subcategories? [y/N] ", c.Name, affected-1)
		} else {
			fmt.Fprintf(out, "Delete %q? [y/N] ", c.Name)
		}

		answer, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false, errors.Wrap(err, "read answer")
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			return true, nil
		}
		return false, nil
	}
}
