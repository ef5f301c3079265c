// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package minio implements storage.Source for MinIO and S3-compatible
// object storage. Shard payloads are objects below a bucket prefix.
package minio

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/poiesic/symfind/core"
	"github.com/poiesic/symfind/storage"
)

// Scheme is the location scheme handled by this package.
const Scheme = "s3"

// Source reads shard payloads from a bucket.
type Source struct {
	client  *minio.Client
	bucket  string
	prefix  string
	pattern string
}

var _ storage.Source = (*Source)(nil)

// ClientConfig describes how to reach an S3-compatible endpoint.
type ClientConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	Secure    bool
}

// NewClient builds a minio client from cfg using static credentials.
func NewClient(cfg ClientConfig) (*minio.Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%w: missing object storage endpoint", storage.ErrInvalidLocation)
	}
	return minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
		Region: cfg.Region,
	})
}

// ParseLocation splits an s3://bucket/prefix location into bucket and prefix.
func ParseLocation(location string) (bucket, prefix string, err error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", storage.ErrInvalidLocation, err)
	}
	if u.Scheme != Scheme {
		return "", "", fmt.Errorf("%w: expected %s:// location, got %q", storage.ErrInvalidLocation, Scheme, location)
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("%w: missing bucket in %q", storage.ErrInvalidLocation, location)
	}
	return u.Host, strings.Trim(u.Path, "/"), nil
}

// NewSource creates a source reading objects from bucket below prefix.
// pattern names each object relative to prefix; empty selects
// storage.DefaultPathPattern.
func NewSource(client *minio.Client, bucket, prefix, pattern string) (storage.Source, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: nil minio client", storage.ErrInvalidLocation)
	}
	if bucket == "" {
		return nil, fmt.Errorf("%w: missing bucket", storage.ErrInvalidLocation)
	}
	if err := storage.ValidatePathPattern(pattern); err != nil {
		return nil, err
	}
	return &Source{
		client:  client,
		bucket:  bucket,
		prefix:  strings.Trim(prefix, "/"),
		pattern: pattern,
	}, nil
}

func (s *Source) objectKey(key core.ShardKey) string {
	return path.Join(s.prefix, storage.ShardPath(s.pattern, key))
}

// Fetch downloads the object holding a shard payload.
func (s *Source) Fetch(ctx context.Context, key core.ShardKey) ([]byte, error) {
	name := s.objectKey(key)
	obj, err := s.client.GetObject(ctx, s.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.mapError(name, err)
	}
	defer obj.Close()

	// GetObject is lazy; request errors surface on the first read.
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.mapError(name, err)
	}
	return data, nil
}

func (s *Source) mapError(name string, err error) error {
	if isNotFound(err) {
		return fmt.Errorf("%w: s3://%s/%s", storage.ErrNotFound, s.bucket, name)
	}
	return err
}

func isNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NotFound"
}

// Location returns the s3://bucket/prefix location.
func (s *Source) Location() string {
	if s.prefix == "" {
		return fmt.Sprintf("%s://%s", Scheme, s.bucket)
	}
	return fmt.Sprintf("%s://%s/%s", Scheme, s.bucket, s.prefix)
}
