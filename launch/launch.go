package launch

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// TargetScript is the program this launcher exists to start.
const TargetScript = "videos-midjourney.py"

// Source tags where a resolved interpreter came from.
type Source int

const (
	// SystemDefault means the interpreter is resolved through PATH.
	SystemDefault Source = iota
	// LocalEnvironment means the interpreter lives inside a virtual
	// environment directory next to the launcher.
	LocalEnvironment
)

// String returns the string representation of the Source
func (s Source) String() string {
	switch s {
	case LocalEnvironment:
		return "local environment"
	case SystemDefault:
		return "system default"
	default:
		return "unknown"
	}
}

// Interpreter is the result of resolution: exactly one interpreter
// reference, fixed for the rest of the run.
type Interpreter struct {
	Path   string
	Source Source
	// BinDir is the executable directory of the virtual environment.
	// Empty for a system interpreter.
	BinDir string
}

// Conventional virtual environment directory names, probed in order.
var envDirNames = []string{"venv", ".venv"}

// ResolveInterpreter picks the interpreter for this run. If a virtual
// environment directory exists in baseDir the interpreter inside it is
// selected, whether or not the executable itself is present: a broken
// environment surfaces at spawn time, exactly like a missing system
// interpreter would. Without an environment the unqualified system
// interpreter name is returned and PATH lookup happens at spawn.
func ResolveInterpreter(baseDir string) Interpreter {
	for _, name := range envDirNames {
		envDir := filepath.Join(baseDir, name)
		info, err := os.Stat(envDir)
		if err != nil || !info.IsDir() {
			continue
		}
		return Interpreter{
			Path:   findEnvPython(envDir),
			Source: LocalEnvironment,
			BinDir: envBinDir(envDir),
		}
	}

	return Interpreter{Path: systemPython, Source: SystemDefault}
}

// findEnvPython returns the interpreter executable inside envDir, preferring
// a candidate that actually exists but falling back to the first conventional
// location so that resolution always points into the environment.
func findEnvPython(envDir string) string {
	candidates := envPythonCandidates(envDir)
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return candidates[0]
}

// Invoke runs the interpreter with the script path as its sole argument and
// the parent's console attached, blocking until the child exits. workDir
// pins the child's working directory; when empty the child inherits the
// launcher's current directory.
func Invoke(interp Interpreter, script, workDir string) error {
	cmd := exec.Command(interp.Path, script)
	cmd.Dir = workDir
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// InDir runs fn with the process working directory set to dir, restoring
// the previous directory on all exit paths.
func InDir(dir string, fn func() error) error {
	prev, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("could not determine current directory: %w", err)
	}
	if err := os.Chdir(dir); err != nil {
		return fmt.Errorf("could not change into %s: %w", dir, err)
	}
	defer os.Chdir(prev)
	return fn()
}

// ExecutableDir returns the directory containing the running binary,
// falling back to the working directory when the executable path cannot
// be determined.
func ExecutableDir() string {
	exe, err := os.Executable()
	if err != nil {
		wd, _ := os.Getwd()
		return wd
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}
