// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// LoadEnvFiles reads dotenv files in order and merges them into env; later
// files override earlier ones. Relative paths resolve against cwd (the
// process working directory when empty). A path suffixed with '?' is
// optional and skipped when missing.
func LoadEnvFiles(env map[string]string, paths []string, cwd string) error {
	for _, path := range paths {
		optional := strings.HasSuffix(path, "?")
		path = strings.TrimSuffix(path, "?")

		fullPath := filepath.FromSlash(path)
		if !filepath.IsAbs(fullPath) {
			if cwd == "" {
				wd, err := os.Getwd()
				if err != nil {
					return fmt.Errorf("failed to get current working directory: %w", err)
				}
				cwd = wd
			}
			fullPath = filepath.Join(cwd, fullPath)
		}

		vars, err := godotenv.Read(fullPath)
		if err != nil {
			if optional && os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("failed to read env file '%s': %w", path, err)
		}
		maps.Copy(env, vars)
	}
	return nil
}
