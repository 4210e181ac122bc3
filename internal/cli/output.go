package cli

import (
	"fmt"
	"io"
	"os"
)

// Command output goes through outWriter so tests can swap in a buffer.
var outWriter io.Writer = os.Stdout

func out(format string, a ...any) {
	fmt.Fprintf(outWriter, format, a...)
}

func outln(a ...any) {
	fmt.Fprintln(outWriter, a...)
}
