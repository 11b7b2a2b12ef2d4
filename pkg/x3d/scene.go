// Package x3d reads terrain ElevationGrid parameters from X3D and X3DOM documents.
package x3d

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/Faultbox/gridprobe/pkg/gridlookup"
	"github.com/Faultbox/gridprobe/pkg/heightgrid"
)

// X3D read errors.
var (
	ErrNoElevationGrid = errors.New("no ElevationGrid element in document")
	ErrInvalidAttr     = errors.New("invalid ElevationGrid attribute")
)

// Scene holds the ElevationGrid parameters of a document.
type Scene struct {
	Columns  int     // xDimension
	Rows     int     // zDimension
	XSpacing float64 // world units between columns
	ZSpacing float64 // world units between rows
	Heights  string  // raw height attribute, row-major

	// VerticalScale is the product of the Y scale factors of the enclosing
	// Transform nodes, or 0 when no enclosing Transform scales Y. Heights
	// under such a Transform are true elevations.
	VerticalScale float64

	// Origin is the lower-left corner from a MetadataDouble DEF="origin".
	Origin    [2]float64
	HasOrigin bool
}

// ReadScene extracts the first ElevationGrid from an X3D or X3DOM document.
// X3DOM pages are HTML, so parsing is lenient about unclosed tags and
// attribute case.
func ReadScene(r io.Reader) (*Scene, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity

	var (
		scene     *Scene
		origin    [2]float64
		hasOrigin bool
		scales    []float64 // Y scale per open element; 1 for non-Transforms
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading document: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			sy := 1.0
			switch name := t.Name.Local; {
			case strings.EqualFold(name, "Transform"):
				if sy, err = scaleY(t); err != nil {
					return nil, err
				}
			case strings.EqualFold(name, "MetadataDouble") && !hasOrigin:
				origin, hasOrigin = parseOrigin(t)
			case strings.EqualFold(name, "ElevationGrid") && scene == nil:
				if scene, err = parseElevationGrid(t); err != nil {
					return nil, err
				}
				scene.VerticalScale = product(scales)
			}
			scales = append(scales, sy)
		case xml.EndElement:
			if len(scales) > 0 {
				scales = scales[:len(scales)-1]
			}
		}
	}

	if scene == nil {
		return nil, ErrNoElevationGrid
	}
	scene.Origin, scene.HasOrigin = origin, hasOrigin
	return scene, nil
}

// LoadFile reads a scene from an X3D or X3DOM file on disk.
func LoadFile(path string) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening scene: %w", err)
	}
	defer f.Close()

	s, err := ReadScene(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Grid parses the height attribute into a height grid.
func (s *Scene) Grid() (*heightgrid.Grid, error) {
	return heightgrid.Parse(s.Heights, s.Columns, s.Rows)
}

// ScaledByTransform reports whether an enclosing Transform scales the grid
// vertically.
func (s *Scene) ScaledByTransform() bool {
	return s.VerticalScale != 0
}

// Transform returns the spacing transform of the scene. When the document
// does not scale Y itself, the heights are taken to have defaultScale baked
// in.
func (s *Scene) Transform(defaultScale float64) gridlookup.Transform {
	if s.ScaledByTransform() {
		return gridlookup.Transform{
			ColumnSpacing:  s.XSpacing,
			RowSpacing:     s.ZSpacing,
			VerticalScale:  s.VerticalScale,
			ScaledAtRender: true,
		}
	}
	return gridlookup.Transform{
		ColumnSpacing: s.XSpacing,
		RowSpacing:    s.ZSpacing,
		VerticalScale: defaultScale,
	}
}

// Lookup builds a gridlookup.Lookup for the scene.
func (s *Scene) Lookup(defaultScale float64, opts ...gridlookup.Option) (*gridlookup.Lookup, error) {
	grid, err := s.Grid()
	if err != nil {
		return nil, err
	}
	return gridlookup.New(grid, s.Transform(defaultScale), opts...)
}

func attr(el xml.StartElement, name string) (string, bool) {
	for _, a := range el.Attr {
		if strings.EqualFold(a.Name.Local, name) {
			return a.Value, true
		}
	}
	return "", false
}

func parseElevationGrid(el xml.StartElement) (*Scene, error) {
	s := &Scene{}

	ints := []struct {
		name string
		dst  *int
	}{
		{"xDimension", &s.Columns},
		{"zDimension", &s.Rows},
	}
	for _, a := range ints {
		v, ok := attr(el, a.name)
		if !ok {
			return nil, fmt.Errorf("%w: missing %s", ErrInvalidAttr, a.name)
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q", ErrInvalidAttr, a.name, v)
		}
		*a.dst = n
	}

	floats := []struct {
		name string
		dst  *float64
	}{
		{"xSpacing", &s.XSpacing},
		{"zSpacing", &s.ZSpacing},
	}
	for _, a := range floats {
		v, ok := attr(el, a.name)
		if !ok {
			// X3D default spacing
			*a.dst = 1
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q", ErrInvalidAttr, a.name, v)
		}
		*a.dst = f
	}

	s.Heights, _ = attr(el, "height")
	return s, nil
}

// scaleY returns the Y component of a Transform's scale attribute.
func scaleY(el xml.StartElement) (float64, error) {
	v, ok := attr(el, "scale")
	if !ok {
		return 1, nil
	}
	parts := strings.Fields(strings.ReplaceAll(v, ",", " "))
	if len(parts) != 3 {
		return 0, fmt.Errorf("%w: Transform scale=%q", ErrInvalidAttr, v)
	}
	sy, err := strconv.ParseFloat(parts[1], 64)
	if err != nil || math.IsNaN(sy) || math.IsInf(sy, 0) || sy <= 0 {
		return 0, fmt.Errorf("%w: Transform scale=%q", ErrInvalidAttr, v)
	}
	return sy, nil
}

// parseOrigin reads <MetadataDouble DEF="origin" value="x,y"/>.
func parseOrigin(el xml.StartElement) ([2]float64, bool) {
	if def, _ := attr(el, "DEF"); def != "origin" {
		return [2]float64{}, false
	}
	v, _ := attr(el, "value")
	parts := strings.Fields(strings.ReplaceAll(v, ",", " "))
	if len(parts) < 2 {
		return [2]float64{}, false
	}
	x, errX := strconv.ParseFloat(parts[0], 64)
	y, errY := strconv.ParseFloat(parts[1], 64)
	if errX != nil || errY != nil {
		return [2]float64{}, false
	}
	return [2]float64{x, y}, true
}

// product multiplies the open Transform scales. It returns 0 when none of
// them scales Y.
func product(scales []float64) float64 {
	p := 1.0
	scaled := false
	for _, s := range scales {
		if s != 1 {
			scaled = true
		}
		p *= s
	}
	if !scaled {
		return 0
	}
	return p
}
