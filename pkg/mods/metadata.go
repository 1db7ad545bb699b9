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

package mods

import (
	"archive/zip"
	"encoding/json"
	"io"
	"strings"
)

// Unknown is the sentinel for metadata that could not be extracted.
const Unknown = "unknown"

// metadataEntry is the well-known metadata file inside a Fabric mod JAR.
const metadataEntry = "fabric.mod.json"

// maxMetadataSize caps how much of a metadata entry we read (1 MB).
const maxMetadataSize = 1 << 20

// Metadata holds the fields extracted from an installed archive.
type Metadata struct {
	// Version is the mod's own version string.
	Version string
	// MinecraftVersion is the mod's declared game version constraint.
	MinecraftVersion string
}

// fabricModJSON covers the fields we read from fabric.mod.json. Depends
// values may be a single constraint string or a list of them.
type fabricModJSON struct {
	Version string                     `json:"version"`
	Depends map[string]json.RawMessage `json:"depends"`
}

// ExtractMetadata opens an installed archive and extracts its version
// metadata. It is best-effort: any failure (entry absent, parse error,
// archive corruption) yields Unknown fields, never an error, because
// version display must degrade gracefully.
func ExtractMetadata(path string) Metadata {
	meta := Metadata{Version: Unknown, MinecraftVersion: Unknown}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return meta
	}
	defer func() { _ = zr.Close() }()

	var entry *zip.File

	for _, f := range zr.File {
		if f.Name == metadataEntry {
			entry = f
			break
		}
	}

	if entry == nil {
		return meta
	}

	rc, err := entry.Open()
	if err != nil {
		return meta
	}
	defer func() { _ = rc.Close() }()

	raw, err := io.ReadAll(io.LimitReader(rc, maxMetadataSize))
	if err != nil {
		return meta
	}

	var parsed fabricModJSON
	if err := json.Unmarshal(stripControlBytes(raw), &parsed); err != nil {
		return meta
	}

	if parsed.Version != "" {
		meta.Version = parsed.Version
	}

	if mc := decodeConstraint(parsed.Depends["minecraft"]); mc != "" {
		meta.MinecraftVersion = mc
	}

	return meta
}

// stripControlBytes removes 0x00-0x1F and 0x7F. Real mod jars ship BOMs
// and stray control characters that break the JSON decoder.
func stripControlBytes(raw []byte) []byte {
	clean := make([]byte, 0, len(raw))

	for _, b := range raw {
		if b < 0x20 || b == 0x7F {
			continue
		}

		clean = append(clean, b)
	}

	return clean
}

// decodeConstraint accepts a dependency constraint that is either a
// string or a list of strings and flattens it for display.
func decodeConstraint(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return single
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, ", ")
	}

	return ""
}
