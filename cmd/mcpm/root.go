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

package main

import (
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/jahfer/mcpm/pkg/config"
	"github.com/jahfer/mcpm/pkg/modrinth"
	"github.com/jahfer/mcpm/pkg/mods"
)

// Version information set via ldflags.
var (
	buildVersion = "dev"
	gitCommit    = "unknown"
)

// app bundles the pieces every subcommand needs.
type app struct {
	cfg      *config.Config
	env      *config.Env
	registry *mods.Registry
	provider modrinth.Provider
}

// appOptions tweak setup per command.
type appOptions struct {
	// skipScan leaves the mods directory untouched, for commands that
	// only reason over declarations.
	skipScan bool
}

// loadApp builds the run-scoped state: config, environment, registry
// scan and a memoized provider client.
func loadApp(configPath string, opts appOptions) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	env, err := config.LoadEnv()
	if err != nil {
		return nil, err
	}

	registry := mods.NewRegistry(cfg.Mods)

	if !opts.skipScan {
		if err := registry.ScanDir(cfg.ModsDir); err != nil {
			return nil, err
		}

		for _, d := range registry.Missing() {
			log.Warn("mod not installed", "project", d.ProjectID, "pattern", d.FilenamePattern)
		}

		for _, a := range registry.Ambiguous() {
			log.Warn("pattern matches several archives; mod excluded",
				"project", a.Declaration.ProjectID, "matches", a.Candidates)
		}
	}

	for id, refs := range mods.DanglingDependencies(cfg.Mods) {
		log.Warn("depends_on references undeclared mods", "project", id, "missing", refs)
	}

	client := modrinth.NewClient().
		WithToken(env.Token).
		WithTimeout(env.HTTPTimeout)

	return &app{
		cfg:      cfg,
		env:      env,
		registry: registry,
		provider: modrinth.NewCachedProvider(client),
	}, nil
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)

	root := &cobra.Command{
		Use:           "mcpm",
		Short:         "Manage a Minecraft server's mod set",
		Version:       buildVersion + " (" + gitCommit + ")",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := log.ParseLevel(logLevel)
			if err != nil {
				return errors.Wrapf(err, "invalid log level %q", logLevel)
			}

			log.SetLevel(level)

			return nil
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "mcpm.yaml", "path to the mcpm config file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(
		newListCmd(&configPath),
		newCheckCmd(&configPath),
		newUpdateCmd(&configPath),
		newPruneCmd(&configPath),
		newWatchCmd(&configPath),
	)

	root.SetErrPrefix("mcpm:")

	return root
}
