package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/softbody/internal/dynamo"
	"github.com/san-kum/softbody/internal/viz"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	background    = "#0a0a0a"
	meshColor     = "#00ffff"
	obstacleColor = "#ff00ff"
)

func header(sb *strings.Builder, width, height int) {
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background))
}

// FrameToSVG draws one frame: obstacles, bonds and particles, scaled to fit
// width x height. The y axis points down as in the simulation.
func FrameToSVG(frame dynamo.Frame, scene viz.Scene, width, height int) string {
	lo, hi := scene.Bounds(frame.Particles, 2)
	v := viz.FitViewport(lo.X, lo.Y, hi.X, hi.Y, width, height)
	px := func(x, y float64) (float64, float64) {
		return (x - v.MinX) * v.Scale, (y - v.MinY) * v.Scale
	}

	var sb strings.Builder
	header(&sb, width, height)

	sb.WriteString(fmt.Sprintf(`<g fill="none" stroke="%s" stroke-width="1.5">
`, obstacleColor))
	for _, o := range scene.Obstacles {
		cx, cy := px(o.Center.X, o.Center.Y)
		switch o.Kind {
		case dynamo.KindCircle:
			sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f"/>
`, cx, cy, o.Radius*v.Scale))
		case dynamo.KindBox:
			w, h := 2*o.HalfExtents.X*v.Scale, 2*o.HalfExtents.Y*v.Scale
			sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f"/>
`, cx-w/2, cy-h/2, w, h))
		}
	}
	sb.WriteString("</g>\n")

	sb.WriteString(fmt.Sprintf(`<g stroke="%s" stroke-width="1">
`, meshColor))
	for _, b := range scene.Bonds {
		if b.I >= len(frame.Particles) || b.J >= len(frame.Particles) {
			continue
		}
		pi, pj := frame.Particles[b.I], frame.Particles[b.J]
		if !pi.IsValid() || !pj.IsValid() {
			continue
		}
		x1, y1 := px(pi.Pos.X, pi.Pos.Y)
		x2, y2 := px(pj.Pos.X, pj.Pos.Y)
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>
`, x1, y1, x2, y2))
	}
	sb.WriteString("</g>\n")

	r := max(scene.ParticleRadius*v.Scale, 1.5)
	sb.WriteString(fmt.Sprintf(`<g fill="%s">
`, meshColor))
	for _, p := range frame.Particles {
		if !p.IsValid() {
			continue
		}
		cx, cy := px(p.Pos.X, p.Pos.Y)
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f"/>
`, cx, cy, r))
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// CanvasToSVG converts a Braille canvas to SVG format
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	pw, ph := canvas.PixelSize()
	width, height := int(float64(pw)*scale), int(float64(ph)*scale)

	var sb strings.Builder
	header(&sb, width, height)
	sb.WriteString(fmt.Sprintf(`<g fill="%s">
`, meshColor))

	dotRadius := scale * 0.4
	for y := 0; y < ph; y++ {
		for x := 0; x < pw; x++ {
			if !canvas.IsSet(x, y) {
				continue
			}
			cx := float64(x)*scale + scale/2
			cy := float64(y)*scale + scale/2
			sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f"/>
`, cx, cy, dotRadius))
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// PathToSVG draws a polyline through points, padded by 10% of the span.
// It returns "" for fewer than two points.
func PathToSVG(points []r2.Vec, width, height int, strokeColor string) string {
	if len(points) < 2 {
		return ""
	}

	lo, hi := points[0], points[0]
	for _, p := range points {
		lo.X, lo.Y = min(lo.X, p.X), min(lo.Y, p.Y)
		hi.X, hi.Y = max(hi.X, p.X), max(hi.Y, p.Y)
	}

	rangeX := hi.X - lo.X
	rangeY := hi.Y - lo.Y
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	lo.X -= rangeX * 0.1
	lo.Y -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	var sb strings.Builder
	header(&sb, width, height)
	sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, strokeColor))

	for i, p := range points {
		x := (p.X - lo.X) / rangeX * float64(width)
		y := (p.Y - lo.Y) / rangeY * float64(height)

		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
