package launch

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// AwaitKey blocks until a single byte arrives on in, keeping the console
// window open after the child process has finished. When in is a terminal it
// is switched to raw mode so any key releases the wait; otherwise a plain
// buffered read is used (non-interactive stdin, tests).
func AwaitKey(in *os.File, out io.Writer) {
	fmt.Fprint(out, "Press any key to continue . . . ")

	fd := int(in.Fd())
	if term.IsTerminal(fd) {
		if old, err := term.MakeRaw(fd); err == nil {
			defer term.Restore(fd, old)
		}
	}

	buf := make([]byte, 1)
	in.Read(buf)
	fmt.Fprintln(out)
}
