// Package csi queries the attached terminal over Control Sequence
// Introducer escapes for the two numbers the CLI needs to resolve `c`
// (cell) geometry units and to respect a terminal's SIXEL size ceiling:
// the pixel size of one character cell, and the terminal's advertised
// maximum SIXEL image geometry.
package csi

import (
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"
)

// QueryTimeout bounds how long a query waits for the terminal to answer
// before assuming it doesn't support the escape at all.
const QueryTimeout = 100 * time.Millisecond

// CellSize is the pixel footprint of one character cell, as reported by
// CSI 16 t. Geometry values expressed in cells (§4.4 GeometryUnit) resolve
// against this.
type CellSize struct {
	Width, Height int
}

// QueryCellSize asks the terminal for its character cell size in pixels
// (CSI 16 t, response `CSI 6 ; height ; width t`).
func QueryCellSize() (CellSize, bool) {
	reply, ok := query("\x1b[16t")
	if !ok {
		return CellSize{}, false
	}
	if !strings.Contains(reply, "[6;") {
		return CellSize{}, false
	}
	h, w, ok := parsePair(reply)
	if !ok || w <= 0 || h <= 0 {
		return CellSize{}, false
	}
	return CellSize{Width: w, Height: h}, true
}

// GraphicsLimit is the terminal's advertised maximum SIXEL raster size, as
// reported by XTSMGRAPHICS. A CLI can use this to clamp an `auto`-sized
// geometry request rather than emit a stream the terminal will reject.
type GraphicsLimit struct {
	Width, Height int
}

// QueryGraphicsLimit asks the terminal for its SIXEL geometry ceiling via
// XTSMGRAPHICS (`Pi=2` sixel, `Pa=1` read), response
// `CSI ? 2 ; Ps ; width ; height S` with Ps=0 on success.
func QueryGraphicsLimit() (GraphicsLimit, bool) {
	reply, ok := query("\x1b[?2;1;0S")
	if !ok {
		return GraphicsLimit{}, false
	}
	if !strings.Contains(reply, "?2;") || !strings.HasSuffix(strings.TrimRight(reply, "\x00"), "S") {
		return GraphicsLimit{}, false
	}
	parts := strings.Split(strings.TrimSuffix(reply, "S"), ";")
	if len(parts) < 4 {
		return GraphicsLimit{}, false
	}
	var status, w, h int
	fmt.Sscanf(parts[1], "%d", &status)
	if status != 0 {
		return GraphicsLimit{}, false
	}
	fmt.Sscanf(parts[2], "%d", &w)
	fmt.Sscanf(parts[3], "%d", &h)
	if w <= 0 || h <= 0 {
		return GraphicsLimit{}, false
	}
	return GraphicsLimit{Width: w, Height: h}, true
}

// WindowSize reports the terminal's size in character columns and rows.
func WindowSize() (cols, rows int, err error) {
	return term.GetSize(int(os.Stdin.Fd()))
}

// Supported is a heuristic for whether the attached terminal is likely to
// answer CSI queries at all, so a CLI can skip the round trip entirely on
// terminals known to ignore or disable them.
func Supported() bool {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false
	}
	switch os.Getenv("TERM_PROGRAM") {
	case "Apple_Terminal", "vscode":
		return false
	}
	return os.Getenv("TERM") != "dumb"
}

// query opens the controlling TTY, writes seq (wrapped for a detected
// terminal multiplexer), and reads one reply within QueryTimeout.
func query(seq string) (string, bool) {
	wrapped := WrapMultiplexerPassthrough(seq)

	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return "", false
	}
	defer tty.Close()

	oldState, err := term.MakeRaw(int(tty.Fd()))
	if err != nil {
		return "", false
	}
	defer term.Restore(int(tty.Fd()), oldState)

	if _, err := tty.WriteString(wrapped); err != nil {
		return "", false
	}

	replies := make(chan string, 1)
	go func() {
		buf := make([]byte, 64)
		n, err := tty.Read(buf)
		if err != nil || n == 0 {
			replies <- ""
			return
		}
		replies <- string(buf[:n])
	}()

	select {
	case r := <-replies:
		return r, r != ""
	case <-time.After(QueryTimeout):
		return "", false
	}
}

// parsePair reads the 2nd and 3rd ';'-delimited fields of a CSI reply as
// integers, tolerating a trailing letter on the last one (e.g. "40t").
func parsePair(reply string) (first, second int, ok bool) {
	parts := strings.Split(reply, ";")
	if len(parts) < 3 {
		return 0, 0, false
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &first); err != nil {
		return 0, 0, false
	}
	if _, err := fmt.Sscanf(parts[2], "%d", &second); err != nil {
		return 0, 0, false
	}
	return first, second, true
}

// inMultiplexer reports whether the process is attached through tmux.
func inMultiplexer() bool {
	return os.Getenv("TMUX") != "" || os.Getenv("TERM_PROGRAM") == "tmux"
}

// WrapMultiplexerPassthrough wraps seq in tmux's DCS passthrough envelope
// (doubling embedded ESC bytes) when running inside tmux, mirroring the
// same escaping rule the Emitter applies for GNU Screen's `penetrate`
// option (§4.3) but keyed off the multiplexer actually in use here.
func WrapMultiplexerPassthrough(seq string) string {
	if !inMultiplexer() || !strings.HasPrefix(seq, "\x1b") {
		return seq
	}
	return "\x1bPtmux;" + strings.ReplaceAll(seq, "\x1b", "\x1b\x1b") + "\x1b\\"
}
