// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"fmt"
	"os"

	"github.com/go-extras/cobraflags"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"marketplace/internal/export"
	"marketplace/internal/logger"
)

const outFlag = "out"

var exportFlags = map[string]cobraflags.Flag{
	outFlag: &cobraflags.StringFlag{
		Name:  outFlag,
		Value: "categories.xlsx",
		Usage: "Path of the workbook to write",
	},
}

func newExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the category tree to an .xlsx workbook",
		RunE:  exportCommand,
	}
	cobraflags.RegisterMap(cmd, exportFlags)
	cmd.Flags().Bool("upload", false, "Upload the workbook to the configured MinIO bucket instead of writing a file")
	return cmd
}

func exportCommand(cmd *cobra.Command, _ []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	a, err := newApp(cfg, log, "cli", false)
	if err != nil {
		return err
	}
	defer a.close(cmd.Context())

	forest, err := a.catalog.Tree(cmd.Context())
	if err != nil {
		return err
	}

	upload, _ := cmd.Flags().GetBool("upload")
	if upload {
		if !cfg.UploadsEnabled() {
			return errors.New("object storage is not configured")
		}
		client, err := export.NewMinioClient(cfg.MinioEndpoint, cfg.MinioAccessKeyID, cfg.MinioSecretKey, cfg.MinioSecure)
		if err != nil {
			return err
		}
		obj, err := export.NewUploader(client, cfg.MinioBucket, log).Upload(cmd.Context(), forest)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), obj.URL)
		return nil
	}

	path := exportFlags[outFlag].GetString()
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create export file")
	}
	if err := export.Write(f, forest); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "close export file")
	}
	log.Info("categories exported", logger.String("path", path))
	return nil
}
