package export

import (
	"fmt"
	"strings"
)

// ProfileToSVG draws y against x as a polyline with labelled axes.
func ProfileToSVG(x, y []float64, width, height int, strokeColor, title string) string {
	if len(x) < 2 || len(x) != len(y) {
		return ""
	}

	// Find bounds
	minX, maxX := x[0], x[0]
	minY, maxY := y[0], y[0]
	for i := range x {
		minX, maxX = min(minX, x[i]), max(maxX, x[i])
		minY, maxY = min(minY, y[i]), max(maxY, y[i])
	}
	lowY, highY := minY, maxY

	// Add padding
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<text x="8" y="16" fill="#aaaaaa" font-family="monospace" font-size="12">%s</text>
<text x="8" y="%d" fill="#aaaaaa" font-family="monospace" font-size="10">%.4g .. %.4g</text>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, escape(title), height-6, lowY, highY, strokeColor))

	for i := range x {
		px := (x[i] - minX) / rangeX * float64(width)
		py := float64(height) - (y[i]-minY)/rangeY*float64(height)

		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", px, py))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", px, py))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}

var svgEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escape(s string) string { return svgEscaper.Replace(s) }
