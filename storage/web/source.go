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


// Package web implements storage.Source over HTTP(S): shard payloads are
// static files below a documentation base URL.
package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/poiesic/symfind/core"
	"github.com/poiesic/symfind/storage"
)

// maxPayloadBytes bounds a single shard response.
const maxPayloadBytes = 64 << 20

// Source fetches shard payloads with GET requests relative to a base URL.
type Source struct {
	base    *url.URL
	pattern string
	client  *http.Client
	limiter *rate.Limiter // nil when unlimited
}

var _ storage.Source = (*Source)(nil)

// Option configures a Source.
type Option func(*Source) error

// WithHTTPClient sets the client used for requests.
// Default is http.DefaultClient.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Source) error {
		if client == nil {
			client = http.DefaultClient
		}
		s.client = client
		return nil
	}
}

// WithPathPattern sets how shard keys map to paths below the base URL.
// Default is storage.DefaultPathPattern.
func WithPathPattern(pattern string) Option {
	return func(s *Source) error {
		if err := storage.ValidatePathPattern(pattern); err != nil {
			return err
		}
		s.pattern = pattern
		return nil
	}
}

// WithRateLimit caps fetches at perSecond requests with the given burst.
// A non-positive rate disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(s *Source) error {
		if perSecond <= 0 {
			s.limiter = nil
			return nil
		}
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		return nil
	}
}

// NewSource creates an HTTP source rooted at baseURL.
func NewSource(baseURL string, opts ...Option) (storage.Source, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrInvalidLocation, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", storage.ErrInvalidLocation, base.Scheme)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	s := &Source{
		base:    base,
		pattern: storage.DefaultPathPattern,
		client:  http.DefaultClient,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Fetch downloads the payload of one shard.
func (s *Source) Fetch(ctx context.Context, key core.ShardKey) ([]byte, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	ref, err := url.Parse(storage.ShardPath(s.pattern, key))
	if err != nil {
		return nil, err
	}
	target := s.base.ResolveReference(ref)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, target)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetch %s: unexpected status %s", target, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxPayloadBytes {
		return nil, fmt.Errorf("fetch %s: payload exceeds %d bytes", target, maxPayloadBytes)
	}
	return data, nil
}

// Location returns the base URL.
func (s *Source) Location() string {
	return s.base.String()
}
