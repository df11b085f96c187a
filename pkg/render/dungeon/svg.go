// Package dungeon renders a solved dungeon model as an SVG floor plan.
//
// Rooms are drawn as filled rectangles titled "room N", doors as small
// squares and corridors as straight lines between their doors. Model
// coordinates grow upwards; the renderer flips the Y axis so the picture
// matches the model's orientation.
package dungeon

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/K1ngNothing/dungeon-generation/pkg/errors"
	"github.com/K1ngNothing/dungeon-generation/pkg/model"
	"github.com/K1ngNothing/dungeon-generation/pkg/render"
)

// Default drawing parameters.
const (
	DefaultPadding       = 0.07
	DefaultDoorSize      = 2.5
	DefaultCorridorWidth = 0.5
	DefaultRoomColor     = "yellow"
	DefaultDoorColor     = "red"
	DefaultCorridorColor = "blue"
)

// SVGOption configures SVG rendering.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	padding       float64
	doorSize      float64
	corridorWidth float64
	roomColor     string
	hubColor      string
	hub           bool
}

// WithPadding sets the fraction of the drawing size added on each side.
func WithPadding(p float64) SVGOption { return func(r *svgRenderer) { r.padding = p } }

// WithDoorSize sets the side of the door squares.
func WithDoorSize(s float64) SVGOption { return func(r *svgRenderer) { r.doorSize = s } }

// WithCorridorWidth sets the corridor stroke width.
func WithCorridorWidth(w float64) SVGOption { return func(r *svgRenderer) { r.corridorWidth = w } }

// WithHub fills room 0 with color.
func WithHub(color string) SVGOption {
	return func(r *svgRenderer) {
		r.hub = true
		r.hubColor = color
	}
}

func newSVGRenderer(opts ...SVGOption) svgRenderer {
	r := svgRenderer{
		padding:       DefaultPadding,
		doorSize:      DefaultDoorSize,
		corridorWidth: DefaultCorridorWidth,
		roomColor:     DefaultRoomColor,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// RenderSVG draws m. Every room and every door must be placed; otherwise it
// returns an [errors.ErrCodeInvalidModel] error.
func RenderSVG(m *model.Model, opts ...SVGOption) ([]byte, error) {
	r := newSVGRenderer(opts...)
	rooms := m.Rooms()
	if len(rooms) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidModel, "cannot render a model without rooms")
	}

	centers := make([]model.Position, len(rooms))
	for i, room := range rooms {
		c, ok := room.Center()
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidModel, "room %d has no position", room.ID())
		}
		centers[i] = c
	}
	for _, d := range m.MovableDoors() {
		if _, ok := d.Shift(); !ok {
			return nil, errors.New(errors.ErrCodeInvalidModel, "door %d has no shift", d.ID())
		}
	}

	var buf bytes.Buffer
	x, y, w, h := r.viewBox(rooms, centers)
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" width="100%%" height="100%%" viewBox="%s %s %s %s">`+"\n",
		num(x), num(y), num(w), num(h))

	for i, room := range rooms {
		fill := r.roomColor
		if r.hub && i == 0 {
			fill = r.hubColor
		}
		c := centers[i]
		writeRect(&buf, c.X-room.HalfWidth(), c.Y-room.HalfHeight(), room.Width(), room.Height(), fill,
			fmt.Sprintf("room %d", room.ID()))
		buf.WriteByte('\n')
		for _, d := range room.Doors() {
			p, _ := m.DoorPosition(d)
			half := r.doorSize / 2
			writeRect(&buf, p.X-half, p.Y-half, r.doorSize, r.doorSize, DefaultDoorColor, "")
			buf.WriteByte('\n')
		}
	}

	for _, c := range m.Corridors() {
		p1, _ := m.DoorPosition(c.Door1)
		p2, _ := m.DoorPosition(c.Door2)
		fmt.Fprintf(&buf, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="%s"/>`+"\n",
			num(p1.X), num(-p1.Y), num(p2.X), num(-p2.Y), DefaultCorridorColor, num(r.corridorWidth))
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes(), nil
}

// viewBox returns the padded bounding box of all rooms in flipped coordinates.
func (r svgRenderer) viewBox(rooms []*model.Room, centers []model.Position) (x, y, w, h float64) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i, room := range rooms {
		c := centers[i]
		minX = math.Min(minX, c.X-room.HalfWidth())
		minY = math.Min(minY, c.Y-room.HalfHeight())
		maxX = math.Max(maxX, c.X+room.HalfWidth())
		maxY = math.Max(maxY, c.Y+room.HalfHeight())
	}
	dx := (maxX - minX) * r.padding
	dy := (maxY - minY) * r.padding
	minX, maxX = minX-dx, maxX+dx
	minY, maxY = minY-dy, maxY+dy
	return minX, -maxY, maxX - minX, maxY - minY
}

// writeRect draws a rectangle given its lower-left corner in model coordinates.
func writeRect(buf *bytes.Buffer, x, y, w, h float64, fill, title string) {
	fmt.Fprintf(buf, `<rect x="%s" y="%s" width="%s" height="%s" fill="%s" stroke="black" stroke-width="0.5">`,
		num(x), num(-y-h), num(w), num(h), fill)
	if title != "" {
		fmt.Fprintf(buf, "<title>%s</title>", title)
	}
	buf.WriteString("</rect>")
}

// num formats v with at most two decimals.
func num(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}

// RenderPDF renders m as PDF via SVG conversion.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, m *model.Model, opts ...SVGOption) ([]byte, error) {
	svg, err := RenderSVG(m, opts...)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders m as PNG via SVG conversion at the given scale.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(ctx context.Context, m *model.Model, scale float64, opts ...SVGOption) ([]byte, error) {
	svg, err := RenderSVG(m, opts...)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
