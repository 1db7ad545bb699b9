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

// Package mods manages mod declarations and their mapping onto installed
// archives in the server's mods directory.
package mods

import (
	"io"
	"regexp"
	"sort"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Type classifies where a mod must be present.
type Type string

const (
	// TypeServerOnly marks mods that only run on the server.
	TypeServerOnly Type = "server_only"
	// TypeClientAndServer marks mods that must be installed on both sides.
	TypeClientAndServer Type = "client_and_server"
)

// ErrInvalidDeclaration is returned when a declaration list is
// structurally malformed or a record is missing required fields. It is
// fatal to the whole run.
var ErrInvalidDeclaration = errors.New("invalid mod declaration")

// Declaration is the configured expectation of a single managed mod.
type Declaration struct {
	// ProjectID is the registry project identifier and the unique key.
	ProjectID string `yaml:"project_id"`
	// Name is the human-readable mod name.
	Name string `yaml:"name"`
	// Type is one of server_only or client_and_server.
	Type Type `yaml:"type"`
	// FilenamePattern is a case-insensitive regular expression matched
	// against archive base names.
	FilenamePattern string `yaml:"filename_pattern"`
	// DependsOn lists project IDs of platform mods this mod requires.
	DependsOn []string `yaml:"depends_on,omitempty"`
	// IsPlatform marks library-style mods other mods depend on.
	IsPlatform bool `yaml:"is_platform,omitempty"`
	// Optional mods never block a group upgrade on their own.
	Optional bool `yaml:"optional,omitempty"`
}

// compilePattern builds the case-insensitive matcher for the
// declaration's filename pattern.
func (d Declaration) compilePattern() (*regexp.Regexp, error) {
	re, err := regexp.Compile("(?i)" + d.FilenamePattern)
	if err != nil {
		return nil, errors.Wrapf(err, "filename_pattern for %q does not compile", d.ProjectID)
	}

	return re, nil
}

// validate checks the required fields and the type enumeration.
func (d Declaration) validate() error {
	if d.ProjectID == "" {
		return errors.New("project_id is required")
	}

	if d.Name == "" {
		return errors.Newf("name is required for %q", d.ProjectID)
	}

	if d.Type != TypeServerOnly && d.Type != TypeClientAndServer {
		return errors.Newf("type for %q must be %q or %q, got %q",
			d.ProjectID, TypeServerOnly, TypeClientAndServer, d.Type)
	}

	if d.FilenamePattern == "" {
		return errors.Newf("filename_pattern is required for %q", d.ProjectID)
	}

	if _, err := d.compilePattern(); err != nil {
		return err
	}

	return nil
}

// LoadDeclarations decodes and validates a declaration list. Any
// structural or per-record problem yields ErrInvalidDeclaration before
// the caller touches the network or the filesystem.
func LoadDeclarations(r io.Reader) ([]Declaration, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var decls []Declaration
	if err := dec.Decode(&decls); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "declarations are not a list of records"), ErrInvalidDeclaration)
	}

	seen := make(map[string]bool, len(decls))

	for _, d := range decls {
		if err := d.validate(); err != nil {
			return nil, errors.Mark(err, ErrInvalidDeclaration)
		}

		if seen[d.ProjectID] {
			return nil, errors.Mark(errors.Newf("duplicate project_id %q", d.ProjectID), ErrInvalidDeclaration)
		}

		seen[d.ProjectID] = true
	}

	return decls, nil
}

// DanglingDependencies reports depends_on entries that do not resolve to
// a declared project, keyed by the declaring project's ID. Dangling
// references are reportable, not fatal.
func DanglingDependencies(decls []Declaration) map[string][]string {
	known := make(map[string]bool, len(decls))
	for _, d := range decls {
		known[d.ProjectID] = true
	}

	dangling := make(map[string][]string)

	for _, d := range decls {
		for _, dep := range d.DependsOn {
			if !known[dep] {
				dangling[d.ProjectID] = append(dangling[d.ProjectID], dep)
			}
		}
	}

	for id := range dangling {
		sort.Strings(dangling[id])
	}

	return dangling
}
