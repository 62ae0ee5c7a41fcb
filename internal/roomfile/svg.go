package roomfile

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

const obstaclesGroup = "Obstacles"

var (
	pathCommand = regexp.MustCompile(`[a-zA-Z][^a-zA-Z]*`)
	separators  = regexp.MustCompile(`[\s,]+`)
)

// DecodeSVG reads a drawing whose viewBox gives the room size and whose
// direct children of <g id="Obstacles"> are <path> or <rect> outlines.
func DecodeSVG(r io.Reader) (*File, error) {
	dec := xml.NewDecoder(r)
	var (
		f         File
		sawSVG    bool
		stack     []string // group ids of open <g> elements
		obstacles = -1     // depth of the Obstacles group, -1 outside it
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRoom, err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "svg":
				if sawSVG {
					continue
				}
				sawSVG = true
				if err := f.readViewBox(attr(el, "viewBox")); err != nil {
					return nil, err
				}
			case "g":
				if obstacles < 0 && attr(el, "id") == obstaclesGroup {
					obstacles = len(stack)
				}
				stack = append(stack, attr(el, "id"))
			case "path":
				if obstacles >= 0 && len(stack) == obstacles+1 {
					vertices, err := verticesFromPath(attr(el, "d"))
					if err != nil {
						return nil, err
					}
					f.Obstacles = append(f.Obstacles, ObstacleSpec{Vertices: vertices})
				}
			case "rect":
				if obstacles >= 0 && len(stack) == obstacles+1 {
					vertices, err := verticesFromRect(el)
					if err != nil {
						return nil, err
					}
					f.Obstacles = append(f.Obstacles, ObstacleSpec{Vertices: vertices})
				}
			}
		case xml.EndElement:
			if el.Name.Local == "g" && len(stack) > 0 {
				stack = stack[:len(stack)-1]
				if len(stack) == obstacles {
					obstacles = -1
				}
			}
		}
	}
	if !sawSVG {
		return nil, fmt.Errorf("%w: no <svg> element", ErrInvalidRoom)
	}
	return f.normalize()
}

func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if strings.EqualFold(a.Name.Local, name) {
			return a.Value
		}
	}
	return ""
}

func (f *File) readViewBox(viewBox string) error {
	fields := separators.Split(strings.TrimSpace(viewBox), -1)
	if len(fields) != 4 {
		return fmt.Errorf("%w: viewBox %q", ErrInvalidRoom, viewBox)
	}
	values, err := parseNumbers(fields[2:])
	if err != nil {
		return fmt.Errorf("%w: viewBox %q: %w", ErrInvalidRoom, viewBox, err)
	}
	f.Width, f.Height = values[0], values[1]
	return nil
}

// verticesFromPath follows the absolute and relative move, line, horizontal
// and vertical commands of an SVG path. Other commands, closepath included,
// add no vertex.
func verticesFromPath(d string) ([]Point, error) {
	var (
		vertices []Point
		x, y     float64
	)
	for _, instruction := range pathCommand.FindAllString(d, -1) {
		command := instruction[0]
		if !strings.ContainsRune("mMlLhHvV", rune(command)) {
			continue
		}
		args, err := parseNumbers(separators.Split(strings.TrimSpace(instruction[1:]), -1))
		if err != nil {
			return nil, fmt.Errorf("%w: path %q: %w", ErrInvalidRoom, d, err)
		}
		want := 1
		if strings.ContainsRune("mMlL", rune(command)) {
			want = 2
		}
		if len(args) != want {
			return nil, fmt.Errorf("%w: path command %q wants %d arguments", ErrInvalidRoom, instruction, want)
		}
		switch command {
		case 'M', 'L':
			x, y = args[0], args[1]
		case 'm', 'l':
			x, y = x+args[0], y+args[1]
		case 'H':
			x = args[0]
		case 'h':
			x += args[0]
		case 'V':
			y = args[0]
		case 'v':
			y += args[0]
		}
		vertices = append(vertices, Point{x, y})
	}
	return vertices, nil
}

func verticesFromRect(el xml.StartElement) ([]Point, error) {
	values, err := parseNumbers([]string{attr(el, "x"), attr(el, "y"), attr(el, "width"), attr(el, "height")})
	if err != nil {
		return nil, fmt.Errorf("%w: rect: %w", ErrInvalidRoom, err)
	}
	x, y, w, h := values[0], values[1], values[2], values[3]
	return []Point{{x, y}, {x, y + h}, {x + w, y + h}, {x + w, y}}, nil
}

// parseNumbers parses every field; an empty field counts as 0 so that
// omitted rect x/y attributes default like they do in SVG.
func parseNumbers(fields []string) ([]float64, error) {
	out := make([]float64, 0, len(fields))
	for _, s := range fields {
		if s == "" {
			out = append(out, 0)
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
