package testenv

import "path/filepath"

// Dirs contains isolated directories for vibeusage config/cache/state in tests.
type Dirs struct {
	Base   string
	Config string
	Cache  string
	State  string
}

// VibeusageDirs returns conventional test directories rooted at base.
func VibeusageDirs(base string) Dirs {
	return Dirs{
		Base:   base,
		Config: filepath.Join(base, "config"),
		Cache:  filepath.Join(base, "cache"),
		State:  filepath.Join(base, "state"),
	}
}

// Apply sets VIBEUSAGE_* env vars to isolated test directories.
func Apply(setenv func(string, string), base string) Dirs {
	dirs := VibeusageDirs(base)
	setenv("VIBEUSAGE_CONFIG_DIR", dirs.Config)
	setenv("VIBEUSAGE_CACHE_DIR", dirs.Cache)
	setenv("VIBEUSAGE_STATE_DIR", dirs.State)
	return dirs
}

// ApplySameDir points config/cache/state to the same directory.
// Useful in tests that expect ConfigDir() to exactly match a temp dir path.
func ApplySameDir(setenv func(string, string), dir string) {
	setenv("VIBEUSAGE_CONFIG_DIR", dir)
	setenv("VIBEUSAGE_CACHE_DIR", dir)
	setenv("VIBEUSAGE_STATE_DIR", dir)
}
