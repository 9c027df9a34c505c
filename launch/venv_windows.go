//go:build windows
// +build windows

package launch

import "path/filepath"

// systemPython is the unqualified interpreter name resolved through PATH.
const systemPython = "python"

// envPythonCandidates lists conventional interpreter locations inside a
// virtual environment directory (Windows layout).
func envPythonCandidates(envDir string) []string {
	return []string{
		filepath.Join(envDir, "Scripts", "python.exe"),
	}
}

// envBinDir returns the directory holding the environment's executables.
func envBinDir(envDir string) string {
	return filepath.Join(envDir, "Scripts")
}
