/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package modrinth provides the compatibility provider client backed by
// the Modrinth registry API.
package modrinth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/jahfer/mcpm/pkg/version"
)

const (
	defaultBaseURL     = "https://api.modrinth.com/v2"
	defaultHTTPTimeout = 30 * time.Second
	defaultUserAgent   = "jahfer/mcpm"
)

// Provider supplies per-project supported-version sets and download
// artifacts. Implementations must be referentially stable within one
// process run.
type Provider interface {
	// SupportedVersions returns the release game versions a project
	// supports for the given loader, ascending and deduplicated.
	SupportedVersions(ctx context.Context, projectID, loader string) ([]version.Version, error)

	// ResolveArtifact picks the registry's first matching version's
	// primary file for the given game version and loader.
	ResolveArtifact(ctx context.Context, projectID, gameVersion, loader string) (Artifact, error)
}

// Client talks to the Modrinth registry API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	token      string
}

// NewClient creates a registry client with default settings.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: defaultHTTPTimeout,
		},
		baseURL:   defaultBaseURL,
		userAgent: defaultUserAgent,
	}
}

// WithBaseURL overrides the API base URL, e.g. for tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// WithToken attaches an API token for authenticated, higher-rate-limit
// access.
func (c *Client) WithToken(token string) *Client {
	c.token = token
	return c
}

// WithTimeout overrides the per-request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.httpClient.Timeout = timeout
	return c
}

// GetProject retrieves project metadata. An unknown project ID yields
// ErrNotFound.
func (c *Client) GetProject(ctx context.Context, projectID string) (Project, error) {
	body, err := c.get(ctx, fmt.Sprintf("/project/%s", projectID), nil)
	if err != nil {
		return Project{}, errors.Wrapf(err, "project %q", projectID)
	}

	var project Project
	if err := json.Unmarshal(body, &project); err != nil {
		return Project{}, errors.Wrapf(err, "failed to parse project %q", projectID)
	}

	return project, nil
}

// listVersions retrieves version records filtered by loader and,
// optionally, game version. The registry's own ordering is preserved.
func (c *Client) listVersions(ctx context.Context, projectID, loader, gameVersion string) ([]VersionRecord, error) {
	query := url.Values{}
	query.Set("loaders", fmt.Sprintf("[%q]", loader))

	if gameVersion != "" {
		query.Set("game_versions", fmt.Sprintf("[%q]", gameVersion))
	}

	body, err := c.get(ctx, fmt.Sprintf("/project/%s/version", projectID), query)
	if err != nil {
		return nil, errors.Wrapf(err, "versions of project %q", projectID)
	}

	var records []VersionRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, errors.Wrapf(err, "failed to parse versions of project %q", projectID)
	}

	return records, nil
}

// SupportedVersions returns every release game version the project
// supports for the loader, ascending and deduplicated.
func (c *Client) SupportedVersions(ctx context.Context, projectID, loader string) ([]version.Version, error) {
	// Resolve the project first so an unknown ID is reported as such
	// rather than as an empty version list.
	if _, err := c.GetProject(ctx, projectID); err != nil {
		return nil, err
	}

	records, err := c.listVersions(ctx, projectID, loader, "")
	if err != nil {
		return nil, err
	}

	var supported []version.Version

	for _, record := range records {
		for _, gv := range record.GameVersions {
			v := version.Parse(gv)
			if v.IsRelease() {
				supported = append(supported, v)
			}
		}
	}

	supported = version.Dedupe(supported)
	version.SortAscending(supported)

	return supported, nil
}

// ResolveArtifact picks the first version record matching the filters
// and returns its primary file, falling back to the first file. The
// registry defines "latest" ordering; no re-sorting happens here.
func (c *Client) ResolveArtifact(ctx context.Context, projectID, gameVersion, loader string) (Artifact, error) {
	records, err := c.listVersions(ctx, projectID, loader, gameVersion)
	if err != nil {
		return Artifact{}, err
	}

	for _, record := range records {
		if len(record.Files) == 0 {
			continue
		}

		file := record.Files[0]

		for _, f := range record.Files {
			if f.Primary {
				file = f
				break
			}
		}

		return Artifact{
			Filename:    file.Filename,
			URL:         file.URL,
			SHA512:      file.Hashes.SHA512,
			GameVersion: gameVersion,
		}, nil
	}

	return Artifact{}, errors.Mark(
		errors.Newf("no version of %q matches game version %s for loader %s", projectID, gameVersion, loader),
		ErrNotFound)
}

// get performs a request against the API and classifies the outcome:
// 404 becomes ErrNotFound, any other non-2xx or transport failure
// becomes an APIError.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	if c.token != "" {
		req.Header.Set("Authorization", c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Transient: true, Message: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errors.Mark(errors.Newf("%s returned 404", path), ErrNotFound)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Transient: true, Message: err.Error()}
	}

	return body, nil
}
