// Package diffstat renders the per-file change histogram for a parsed
// patch, in the style of `diffstat(1)`:
//
//	src/x.py | 3 ++-
//	1 file changed, 2 insertions(+), 1 deletion(-)
package diffstat

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/sevigo/patchwork/internal/patch"
)

const defaultWidth = 80

var (
	addStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	delStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Row is one file's contribution to the histogram.
type Row struct {
	Name    string
	Added   int
	Removed int
}

// FromPatchSet derives the histogram rows from the parsed set, in item
// order.
func FromPatchSet(ps *patch.PatchSet) []Row {
	rows := make([]Row, 0, len(ps.Items))
	for _, fp := range ps.Items {
		rows = append(rows, Row{
			Name:    string(fp.Name()),
			Added:   fp.Added,
			Removed: fp.Removed,
		})
	}
	return rows
}

// TerminalWidth returns the width of the attached terminal, or the
// classic 80 columns when stdout is not a terminal.
func TerminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return defaultWidth
}

// Render writes the histogram to w, scaling the +/- bars so the widest
// row fits the given width.
func Render(w io.Writer, rows []Row, width int) error {
	if width <= 0 {
		width = defaultWidth
	}
	nameW, maxChanges, countW := 0, 0, 1
	for _, r := range rows {
		if n := runewidth.StringWidth(r.Name); n > nameW {
			nameW = n
		}
		if c := r.Added + r.Removed; c > maxChanges {
			maxChanges = c
		}
	}
	countW = len(fmt.Sprintf("%d", maxChanges))

	// columns consumed by "name | count " around the bar
	barW := width - nameW - countW - 4
	if barW < 10 {
		barW = 10
	}

	var totalAdd, totalDel int
	for _, r := range rows {
		changes := r.Added + r.Removed
		totalAdd += r.Added
		totalDel += r.Removed

		plus, minus := r.Added, r.Removed
		if changes > barW {
			plus = r.Added * barW / changes
			minus = r.Removed * barW / changes
			// never scale a non-zero side down to nothing
			if plus == 0 && r.Added > 0 {
				plus = 1
			}
			if minus == 0 && r.Removed > 0 {
				minus = 1
			}
		}
		pad := strings.Repeat(" ", nameW-runewidth.StringWidth(r.Name))
		bar := addStyle.Render(strings.Repeat("+", plus)) + delStyle.Render(strings.Repeat("-", minus))
		if _, err := fmt.Fprintf(w, "%s%s %s %*d %s\n", r.Name, pad, dimStyle.Render("|"), countW, changes, bar); err != nil {
			return err
		}
	}

	summary := fmt.Sprintf("%d %s changed, %d %s(+), %d %s(-)",
		len(rows), plural(len(rows), "file"),
		totalAdd, plural(totalAdd, "insertion"),
		totalDel, plural(totalDel, "deletion"))
	_, err := fmt.Fprintln(w, summary)
	return err
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
