package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

var bannerLines = []string{
	` ___                _              `,
	`|_ _|_ __ ___  _ __ | |    ___   __ _ `,
	` | || '__/ _ \| '_ \| |   / _ \ / _' |`,
	` | || | | (_) | | | | |__| (_) | (_| |`,
	`|___|_|  \___/|_| |_|_____\___/ \__, |`,
	`                                |___/ `,
}

var bannerColors = []string{"#f97316", "#fb923c", "#f59e0b", "#eab308", "#84cc16", "#22c55e"}

// PrintBanner writes the IronLog banner and version to w. Colors are
// dropped when w is not a color terminal.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w)
	for i, line := range bannerLines {
		fmt.Fprintln(w, out.String(line).Foreground(out.Color(bannerColors[i])))
	}
	fmt.Fprintf(w, "%s\n\n", out.String("  v"+strings.TrimSpace(version)).Faint())
}

// Success and Warning style one-line status messages.
func Success(w io.Writer, msg string) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w, out.String("✔ "+msg).Foreground(out.Color("#22c55e")))
}

func Warning(w io.Writer, msg string) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w, out.String("! "+msg).Foreground(out.Color("#f59e0b")))
}
