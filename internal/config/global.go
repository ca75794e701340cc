// SPDX-License-Identifier: MPL-2.0

package config

// configDirOverride replaces ConfigDir's platform lookup when non-empty.
var configDirOverride string

// SetConfigDirOverride points ConfigDir at dir. Tests use it where HOME and
// XDG_CONFIG_HOME cannot steer os.UserConfigDir (macOS, Windows).
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}

// Reset clears SetConfigDirOverride.
func Reset() {
	configDirOverride = ""
}
