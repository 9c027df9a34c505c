// The launcher starts videos-midjourney.py with the interpreter from the
// virtual environment sitting next to this binary, falling back to the
// system interpreter when no environment exists. It takes no arguments,
// relays the script's console output, and waits for a keypress before
// closing so a double-click launch leaves its output readable.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"videos-midjourney/config"
	"videos-midjourney/launch"
)

func main() {
	baseDir := launch.ExecutableDir()

	cfg, err := config.LoadConfig()
	if err != nil {
		// A broken config file must not block the launch; run with defaults.
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		cfg = config.DefaultConfig()
	}

	interp := launch.ResolveInterpreter(baseDir)
	script := filepath.Join(baseDir, launch.TargetScript)

	var runErr error
	if cfg.RunInEnvBinDir && interp.Source == launch.LocalEnvironment {
		// Variant that runs the script from inside the environment's
		// executable directory, restoring the previous directory after.
		runErr = launch.InDir(interp.BinDir, func() error {
			return launch.Invoke(interp, script, "")
		})
	} else {
		runErr = launch.Invoke(interp, script, baseDir)
	}
	if runErr != nil {
		// The child's own output already went to the console; this covers
		// spawn failures (missing interpreter or script). The exit status is
		// not propagated either way.
		fmt.Fprintln(os.Stderr, runErr)
	}

	launch.AwaitKey(os.Stdin, os.Stdout)
}
