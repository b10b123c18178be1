package terminal

import (
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

// DrawText writes s at x,y clipped to the screen width; returns the column after the text
func DrawText(screen tcell.Screen, x, y int, style tcell.Style, s string) int {
	w, h := screen.Size()
	if y < 0 || y >= h {
		return x
	}
	for _, r := range s {
		rw := runewidth.RuneWidth(r)
		if rw == 0 {
			continue
		}
		if x >= w {
			break
		}
		if x >= 0 {
			screen.SetContent(x, y, r, nil, style)
		}
		x += rw
	}
	return x
}

// FillRect paints a w by h rectangle with r
func FillRect(screen tcell.Screen, x, y, w, h int, r rune, style tcell.Style) {
	sw, sh := screen.Size()
	for row := max(y, 0); row < min(y+h, sh); row++ {
		for col := max(x, 0); col < min(x+w, sw); col++ {
			screen.SetContent(col, row, r, nil, style)
		}
	}
}

// DrawBox draws a single-line border around the rectangle
func DrawBox(screen tcell.Screen, x, y, w, h int, style tcell.Style) {
	if w < 2 || h < 2 {
		return
	}
	right, bottom := x+w-1, y+h-1
	for col := x + 1; col < right; col++ {
		screen.SetContent(col, y, tcell.RuneHLine, nil, style)
		screen.SetContent(col, bottom, tcell.RuneHLine, nil, style)
	}
	for row := y + 1; row < bottom; row++ {
		screen.SetContent(x, row, tcell.RuneVLine, nil, style)
		screen.SetContent(right, row, tcell.RuneVLine, nil, style)
	}
	screen.SetContent(x, y, tcell.RuneULCorner, nil, style)
	screen.SetContent(right, y, tcell.RuneURCorner, nil, style)
	screen.SetContent(x, bottom, tcell.RuneLLCorner, nil, style)
	screen.SetContent(right, bottom, tcell.RuneLRCorner, nil, style)
}
