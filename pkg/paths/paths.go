package paths

import (
	"os"
	"path/filepath"
)

const DefaultConfigName = "config.yaml"

// GetCurrentBinaryPath returns the directory holding the running binary, or the
// working directory when it cannot be resolved.
func GetCurrentBinaryPath() string {
	exe, err := os.Executable()
	if err != nil {
		if wd, err := os.Getwd(); err == nil {
			return wd
		}
		return "."
	}

	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}

	return filepath.Dir(exe)
}

// FindConfigFile returns the first existing name within dirs, or "" when there is none.
// Running without a config file is valid, every setting has a default or a flag.
func FindConfigFile(name string, dirs ...string) string {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}

		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}

	return ""
}

// ConfigDirs lists where a config file is looked for: the user config dir, then the binary's folder.
func ConfigDirs(app string) []string {
	dirs := make([]string, 0, 2)
	if d, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(d, app))
	}

	return append(dirs, GetCurrentBinaryPath())
}
