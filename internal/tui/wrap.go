package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

type styledRune struct {
	s       string
	width   int
	isSpace bool
}

// buildWordRunes styles a word being spelled: letters before index are done,
// the letter at index is the cursor and the rest are pending. An index past
// the end marks the whole word done.
func buildWordRunes(word string, index int) []styledRune {
	runes := []rune(word)
	out := make([]styledRune, 0, 2*len(runes))
	for i, r := range runes {
		var style lipgloss.Style
		switch {
		case i < index:
			style = correctStyle
		case i == index:
			style = cursorStyle
		default:
			style = pendingStyle
		}
		if i > 0 {
			out = append(out, styledRune{s: " ", width: 1, isSpace: true})
		}
		out = append(out, styledRune{
			s:     style.Render(string(r)),
			width: runewidth.RuneWidth(r),
		})
	}
	return out
}

func renderStyledRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
	}
	return b.String()
}

func wrapStyledRunes(runes []styledRune, width int) string {
	if width <= 0 {
		return renderStyledRunes(runes)
	}
	var out strings.Builder
	line := make([]styledRune, 0, len(runes))
	lineWidth := 0
	lastSpaceIdx := -1

	for i := 0; i < len(runes); {
		item := runes[i]
		if lineWidth+item.width > width && len(line) > 0 {
			if lastSpaceIdx >= 0 {
				out.WriteString(renderStyledRunes(line[:lastSpaceIdx]))
				out.WriteRune('\n')
				line = append([]styledRune{}, line[lastSpaceIdx+1:]...)
				lineWidth = lineWidthOf(line)
				lastSpaceIdx = lastSpaceIndex(line)
			} else {
				out.WriteString(renderStyledRunes(line))
				out.WriteRune('\n')
				line = line[:0]
				lineWidth = 0
				lastSpaceIdx = -1
			}
			continue
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isSpace {
			lastSpaceIdx = len(line) - 1
		}
		i++
	}
	out.WriteString(renderStyledRunes(line))
	return out.String()
}

func lineWidthOf(line []styledRune) int {
	total := 0
	for _, item := range line {
		total += item.width
	}
	return total
}

func lastSpaceIndex(line []styledRune) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i].isSpace {
			return i
		}
	}
	return -1
}

// renderBoard lays the memory cards out in rows of cols, padding each cell to
// the same display width.
func renderBoard(cards []cardView, cols int) string {
	if cols <= 0 {
		cols = 4
	}
	cellWidth := 0
	for _, c := range cards {
		if w := runewidth.StringWidth(c.text); w > cellWidth {
			cellWidth = w
		}
	}
	var b strings.Builder
	for i, c := range cards {
		if i > 0 && i%cols == 0 {
			b.WriteString("\n\n")
		} else if i > 0 {
			b.WriteString("  ")
		}
		pad := cellWidth - runewidth.StringWidth(c.text)
		b.WriteString(c.style.Render(c.text + strings.Repeat(" ", pad)))
	}
	return b.String()
}

type cardView struct {
	text  string
	style lipgloss.Style
}
