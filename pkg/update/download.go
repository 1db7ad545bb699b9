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

package update

import (
	"context"
	"crypto/sha512"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/cockroachdb/errors"
)

// defaultDownloadTimeout bounds one artifact transfer.
const defaultDownloadTimeout = 60 * time.Second

// Downloader streams artifact bytes to the staging area. It writes to
// the exact path it is given and never touches the live mods directory;
// verification and renaming are the pipeline's responsibility.
type Downloader struct {
	httpClient *http.Client
	userAgent  string
}

// NewDownloader creates a downloader with default settings.
func NewDownloader() *Downloader {
	return &Downloader{
		httpClient: &http.Client{
			Timeout: defaultDownloadTimeout,
		},
		userAgent: "jahfer/mcpm",
	}
}

// WithHTTPClient injects a custom client, e.g. for tests.
func (d *Downloader) WithHTTPClient(client *http.Client) *Downloader {
	d.httpClient = client
	return d
}

// Fetch streams the URL's body to dest and returns the hex SHA-512 of
// the written bytes. A non-success status or an empty body is an error
// and dest is removed, so partial bytes are never left behind.
func (d *Downloader) Fetch(ctx context.Context, url, dest string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", errors.Wrap(err, "failed to create download request")
	}

	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, "failed to download %s", url)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Newf("HTTP %d downloading %s", resp.StatusCode, url)
	}

	out, err := os.Create(dest)
	if err != nil {
		return "", errors.Wrapf(err, "failed to create %s", dest)
	}

	hash := sha512.New()

	written, err := io.Copy(io.MultiWriter(out, hash), resp.Body)
	closeErr := out.Close()

	if err == nil {
		err = closeErr
	}

	if err == nil && written == 0 {
		err = errors.Newf("empty body downloading %s", url)
	}

	if err != nil {
		_ = os.Remove(dest)
		return "", errors.Wrapf(err, "transfer of %s failed", url)
	}

	return fmt.Sprintf("%x", hash.Sum(nil)), nil
}
