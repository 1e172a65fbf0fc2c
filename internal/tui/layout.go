package tui

// Rect represents a rectangular region of the terminal.
type Rect struct {
	X, Y, Width, Height int
}

// Layout holds the computed panel geometry for a given terminal size.
type Layout struct {
	Header, Footer Rect
	Suites, Runs   Rect
	Main, Logs     Rect
	TooSmall       bool // true when terminal is below the minimum 80×24
}

// Calculate computes the panel layout for a terminal of the given dimensions.
// Returns a Layout with TooSmall=true if width < 80 or height < 24.
//
// Algorithm:
//   - Header: full width, 1 row at top
//   - Footer: full width, 1 row at bottom
//   - Sidebar: 35% of width, clamped to [30, 48]
//   - Suites: sidebar width × 55% of body height (top of sidebar)
//   - Runs: sidebar width × remaining body height (bottom of sidebar)
//   - Main: remaining width × 55% of body height (top-right)
//   - Logs: remaining width × remaining body height (bottom-right)
func Calculate(width, height int) Layout {
	if width < 80 || height < 24 {
		return Layout{TooSmall: true}
	}

	bodyH := height - 2 // subtract header + footer rows

	sidebarW := width * 35 / 100
	if sidebarW < 30 {
		sidebarW = 30
	}
	if sidebarW > 48 {
		sidebarW = 48
	}
	rightW := width - sidebarW

	suitesH := bodyH * 55 / 100
	runsH := bodyH - suitesH

	mainH := bodyH * 55 / 100
	logsH := bodyH - mainH

	return Layout{
		Header: Rect{X: 0, Y: 0, Width: width, Height: 1},
		Footer: Rect{X: 0, Y: height - 1, Width: width, Height: 1},
		Suites: Rect{X: 0, Y: 1, Width: sidebarW, Height: suitesH},
		Runs:   Rect{X: 0, Y: 1 + suitesH, Width: sidebarW, Height: runsH},
		Main:   Rect{X: sidebarW, Y: 1, Width: rightW, Height: mainH},
		Logs:   Rect{X: sidebarW, Y: 1 + mainH, Width: rightW, Height: logsH},
	}
}
