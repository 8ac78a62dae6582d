// Package display renders human-facing output that is not a log line: the
// startup banner and size/duration formatting used in summaries.
package display

import (
	"fmt"
	"io"

	"github.com/fixmyhalo/fixmyhalo/internal/term"
)

// PrintBanner prints the ASCII art banner; uses Magenta if colors are enabled.
func PrintBanner(w io.Writer) {
	if term.Enabled() {
		fmt.Fprint(w, term.Magenta)
	}
	fmt.Fprint(w, ` _____ _      __  __       _   _       _
|  ___(_)_  _|  \/  |_   _| | | | __ _| | ___
| |_  | \ \/ / |\/| | | | | |_| |/ _`+"`"+` | |/ _ \
|  _| | |>  <| |  | | |_| |  _  | (_| | | (_) |
|_|   |_/_/\_\_|  |_|\__, |_| |_|\__,_|_|\___/
                     |___/
`)
	if term.Enabled() {
		fmt.Fprintln(w, term.NC)
	}
}
