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

// Package testutil provides shared fixtures for mcpm tests: in-memory
// mod archives and a mock registry API server.
package testutil

import (
	"archive/zip"
	"bytes"
	"fmt"
)

// BuildJARMulti creates an in-memory JAR (ZIP) file with the given
// entries. Panics on error since this is a test utility.
func BuildJARMulti(files map[string]string) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	for name, content := range files {
		f, err := w.Create(name)
		if err != nil {
			panic("BuildJARMulti: " + err.Error())
		}

		if _, err := f.Write([]byte(content)); err != nil {
			panic("BuildJARMulti: " + err.Error())
		}
	}

	if err := w.Close(); err != nil {
		panic("BuildJARMulti: " + err.Error())
	}

	return buf.Bytes()
}

// BuildModJAR creates an in-memory Fabric mod archive whose
// fabric.mod.json declares the given mod and minecraft versions.
func BuildModJAR(modVersion, minecraftVersion string) []byte {
	manifest := fmt.Sprintf(
		`{"schemaVersion":1,"id":"testmod","version":%q,"depends":{"minecraft":%q}}`,
		modVersion, minecraftVersion)

	return BuildJARMulti(map[string]string{"fabric.mod.json": manifest})
}
