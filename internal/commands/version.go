// Copyright (c) 2025, the TradeLite contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tradelite/tradelite/internal/buildinfo"
)

type versionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"build_date"`
}

func VersionCommand() *cobra.Command {
	var jsonOutput bool
	var checkGithub bool

	command := &cobra.Command{
		Use:     "version",
		Short:   "Print version information",
		Example: `  tradelite run version --json`,
	}

	command.Flags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	command.Flags().BoolVar(&checkGithub, "check-github", false, "check the latest release on GitHub")

	command.RunE = func(cmd *cobra.Command, args []string) error {
		info := versionInfo{
			Version: buildinfo.Version,
			Commit:  buildinfo.Commit,
			Date:    buildinfo.Date,
		}

		if jsonOutput {
			if err := json.NewEncoder(os.Stdout).Encode(info); err != nil {
				return err
			}
		} else {
			fmt.Printf("Version: %s\nCommit: %s\nBuild date: %s\n", info.Version, info.Commit, info.Date)
		}

		if checkGithub {
			latest, err := latestGithubRelease(cmd)
			if err != nil {
				return fmt.Errorf("failed to check latest release: %v", err)
			}
			fmt.Printf("Latest release: %s\n", latest)
		}

		return nil
	}

	return command
}

func latestGithubRelease(cmd *cobra.Command) (string, error) {
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet,
		"https://api.github.com/repos/tradelite/tradelite/releases/latest", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent())

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var release struct {
		TagName string `json:"tag_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", err
	}
	return release.TagName, nil
}
