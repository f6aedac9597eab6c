// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikibrowser Contributors

package main

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/douglasArantes/wikibrowser-service/internal/config"
	wberr "github.com/douglasArantes/wikibrowser-service/pkg/errors"
)

// NewRootCmd creates the root wikibrowser command with all subcommands
// registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "wikibrowser",
		Short:         "wikibrowser — Wikidata knowledge graph exploration service",
		Long:          "Wikibrowser serves grouped Wikidata claims and graph traversals over HTTP.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initViper(cmd)
		},
	}

	// Global flags — these map to viper keys via initViper.
	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")

	root.AddCommand(
		newStartCmd(),
		newVersionCmd(),
	)

	return root
}

// initViper sets up the global Viper with defaults, env bindings, flag
// bindings, and optional config file so the standard precedence
// (flag > env > file > defaults) is handled uniformly.
func initViper(cmd *cobra.Command) error {
	v := viper.GetViper()

	config.SetDefaults(v)
	config.SetupEnv(v)

	if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return wberr.Errorf(wberr.CodeConfigLoadReadFailure, "reading config file: %w", err)
		}
	} else {
		// Auto-discover wikibrowser.yaml from standard locations. No config
		// file is fine, defaults and env vars still apply; parse or
		// permission errors must surface. SetConfigType is intentionally
		// omitted so viper never tries the bare name, which would collide
		// with the ./wikibrowser binary in the project root.
		v.SetConfigName("wikibrowser")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/wikibrowser")
		v.AddConfigPath("/etc/wikibrowser")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return wberr.Errorf(wberr.CodeConfigLoadReadFailure, "reading config: %w", err)
			}
		}
	}

	if err := v.BindPFlag("verbose", cmd.Root().PersistentFlags().Lookup("verbose")); err != nil {
		return wberr.Errorf(wberr.CodeCLISetupFailure, "binding verbose flag: %w", err)
	}

	return nil
}
