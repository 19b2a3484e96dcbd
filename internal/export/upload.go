// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package export

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"

	"marketplace/internal/categorytree"
	"marketplace/internal/logger"
)

// LinkTTL is how long a presigned download link stays valid.
const LinkTTL = 24 * time.Hour

// Object describes an uploaded export.
type Object struct {
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
	Size   int64  `json:"size"`
	URL    string `json:"url"`
}

// Uploader stores exports in a MinIO bucket.
type Uploader struct {
	client *minio.Client
	bucket string
	log    logger.Logger
}

// NewMinioClient connects to a MinIO or S3-compatible endpoint.
func NewMinioClient(endpoint, accessKeyID, secretKey string, secure bool) (*minio.Client, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKeyID, secretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, errors.Wrap(err, "error while creating minio client")
	}
	return client, nil
}

// NewUploader returns an uploader writing to bucket.
func NewUploader(client *minio.Client, bucket string, log logger.Logger) *Uploader {
	return &Uploader{client: client, bucket: bucket, log: log}
}

// ObjectName returns the key an export taken at t is stored under.
func ObjectName(t time.Time) string {
	return fmt.Sprintf("categories/%s-%s.xlsx", t.UTC().Format("20060102150405"), uuid.NewString()[:8])
}

// Upload renders the forest and stores it, returning a presigned link.
func (u *Uploader) Upload(ctx context.Context, forest *categorytree.Forest) (*Object, error) {
	buf, err := Bytes(forest)
	if err != nil {
		return nil, err
	}

	name := ObjectName(time.Now())
	size := int64(buf.Len())
	_, err = u.client.PutObject(ctx, u.bucket, name, buf, size, minio.PutObjectOptions{ContentType: ContentType})
	if err != nil {
		return nil, errors.Wrap(err, "error while upload file to minio")
	}

	link, err := u.client.PresignedGetObject(ctx, u.bucket, name, LinkTTL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "error while presigning export link")
	}

	u.log.Info("category export uploaded",
		logger.String("bucket", u.bucket),
		logger.String("object", name),
		logger.Any("size", size),
	)
	return &Object{Bucket: u.bucket, Name: name, Size: size, URL: link.String()}, nil
}
