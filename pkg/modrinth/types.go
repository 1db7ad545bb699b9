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

package modrinth

// Project represents registry project metadata.
type Project struct {
	ID    string `json:"id"`
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

// FileHashes holds the published digests of a version file.
type FileHashes struct {
	SHA512 string `json:"sha512"`
	SHA1   string `json:"sha1,omitempty"`
}

// VersionFile is one downloadable file of a version record.
type VersionFile struct {
	Filename string     `json:"filename"`
	URL      string     `json:"url"`
	Primary  bool       `json:"primary"`
	Hashes   FileHashes `json:"hashes"`
}

// VersionRecord is one published version of a project. The registry
// returns records in its own "latest first" ordering, which callers
// must not re-sort.
type VersionRecord struct {
	VersionNumber string        `json:"version_number"`
	GameVersions  []string      `json:"game_versions"`
	Loaders       []string      `json:"loaders"`
	Files         []VersionFile `json:"files"`
}

// Artifact is a resolved download for one mod at one game version. It
// is fetched per update attempt and never persisted.
type Artifact struct {
	Filename string
	URL      string
	SHA512   string
	// GameVersion is the target the artifact was resolved for.
	GameVersion string
}
