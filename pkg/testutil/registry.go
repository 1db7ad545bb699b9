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

package testutil

import (
	"crypto/sha512"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/jahfer/mcpm/pkg/modrinth"
)

// MockRegistry simulates the registry API and artifact downloads.
type MockRegistry struct {
	Server *httptest.Server

	mu sync.Mutex

	// Projects and Versions hold the registry state keyed by project ID.
	Projects map[string]modrinth.Project
	Versions map[string][]modrinth.VersionRecord

	// FileData serves downloads by URL path.
	FileData map[string][]byte

	// FailOnPath forces a 500 for matching paths.
	FailOnPath map[string]bool

	// Requests records every request path for assertions.
	Requests []string
}

// NewMockRegistry starts a mock registry server.
func NewMockRegistry() *MockRegistry {
	m := &MockRegistry{
		Projects:   make(map[string]modrinth.Project),
		Versions:   make(map[string][]modrinth.VersionRecord),
		FileData:   make(map[string][]byte),
		FailOnPath: make(map[string]bool),
	}

	m.Server = httptest.NewServer(http.HandlerFunc(m.handler))

	return m
}

// AddProject registers a project and its version records.
func (m *MockRegistry) AddProject(id string, records []modrinth.VersionRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Projects[id] = modrinth.Project{ID: id, Slug: id, Title: id}
	m.Versions[id] = records
}

// AddFile serves data at the given URL path.
func (m *MockRegistry) AddFile(path string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.FileData[path] = data
}

// SetFailOnPath makes the server return HTTP 500 for the given path.
func (m *MockRegistry) SetFailOnPath(path string, fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.FailOnPath[path] = fail
}

// FileURL returns the absolute URL for a served file path.
func (m *MockRegistry) FileURL(path string) string {
	return m.Server.URL + path
}

// URL returns the mock registry's base URL.
func (m *MockRegistry) URL() string {
	return m.Server.URL
}

// Close shuts the server down.
func (m *MockRegistry) Close() {
	m.Server.Close()
}

func (m *MockRegistry) handler(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	path := r.URL.Path
	m.Requests = append(m.Requests, path)

	if m.FailOnPath[path] {
		http.Error(w, "simulated failure", http.StatusInternalServerError)
		return
	}

	if data, ok := m.FileData[path]; ok {
		w.Header().Set("Content-Type", "application/java-archive")
		_, _ = w.Write(data)

		return
	}

	if strings.HasPrefix(path, "/project/") {
		m.handleProject(w, r, strings.TrimPrefix(path, "/project/"))
		return
	}

	http.NotFound(w, r)
}

func (m *MockRegistry) handleProject(w http.ResponseWriter, r *http.Request, rest string) {
	id, sub, _ := strings.Cut(rest, "/")

	project, ok := m.Projects[id]
	if !ok {
		http.NotFound(w, r)
		return
	}

	switch sub {
	case "":
		m.writeJSON(w, project)
	case "version":
		records := m.Versions[id]

		// The real API filters by game_versions; mimic just enough.
		if gv := queryVersion(r.URL.Query().Get("game_versions")); gv != "" {
			var filtered []modrinth.VersionRecord

			for _, rec := range records {
				for _, v := range rec.GameVersions {
					if v == gv {
						filtered = append(filtered, rec)
						break
					}
				}
			}

			records = filtered
		}

		if records == nil {
			records = []modrinth.VersionRecord{}
		}

		m.writeJSON(w, records)
	default:
		http.NotFound(w, r)
	}
}

func (m *MockRegistry) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		panic("MockRegistry: " + err.Error())
	}
}

// queryVersion unwraps the ["1.21"]-style query parameter format.
func queryVersion(raw string) string {
	raw = strings.TrimPrefix(raw, "[\"")
	raw = strings.TrimSuffix(raw, "\"]")

	return raw
}

// ComputeSHA512 computes the hex SHA-512 digest of data.
func ComputeSHA512(data []byte) string {
	hash := sha512.Sum512(data)
	return fmt.Sprintf("%x", hash)
}
