package layer

import (
	"fmt"
	"strings"

	"github.com/geodetic-io/cartograph/pkg/carto"
	"github.com/geodetic-io/cartograph/pkg/projection"
	"github.com/geodetic-io/cartograph/pkg/svg"
)

// Outline renders the projection's sphere outline: a true circle for the
// orthographic projection, an edge-sampled boundary path for cylindrical
// and pseudocylindrical projections.
type Outline struct {
	Base
	proj projection.Projection
}

// NewOutline builds an outline layer.
func NewOutline(id string, style carto.Style) *Outline {
	defaults := carto.Style{
		Fill:        "none",
		Stroke:      "#000",
		StrokeWidth: carto.Float(1),
	}
	return &Outline{Base: newBase(id, defaults, style)}
}

// SetProjection satisfies carto.ProjectionAware.
func (l *Outline) SetProjection(p projection.Projection) { l.proj = p }

// Render draws the outline.
func (l *Outline) Render(parent *svg.Element) error {
	g := l.begin(parent)

	// The orthographic globe's visible hemisphere is exactly the circle
	// of radius scale around the translate point; sampling the +/-180
	// boundary would trace the back of the globe instead.
	if l.proj.Name == "orthographic" {
		circle := svg.NewElement("circle").
			SetAttr("cx", fmt.Sprintf("%.2f", l.proj.TranslateX)).
			SetAttr("cy", fmt.Sprintf("%.2f", l.proj.TranslateY)).
			SetAttr("r", fmt.Sprintf("%.2f", l.proj.Scale))
		g.AppendChild(circle)
		return nil
	}

	d := l.boundaryPath()
	if d != "" {
		g.AppendChild(svg.NewElement("path").SetAttr("d", d))
	}
	return nil
}

// boundaryPath traces the projected edge of the [-180,180]x[-90,90]
// domain clockwise, sampled finely enough to follow curved edges.
func (l *Outline) boundaryPath() string {
	const step = 2.5
	var pts [][2]float64
	for lon := -180.0; lon < 180; lon += step {
		pts = append(pts, [2]float64{lon, 90})
	}
	for lat := 90.0; lat > -90; lat -= step {
		pts = append(pts, [2]float64{180, lat})
	}
	for lon := 180.0; lon > -180; lon -= step {
		pts = append(pts, [2]float64{lon, -90})
	}
	for lat := -90.0; lat < 90; lat += step {
		pts = append(pts, [2]float64{-180, lat})
	}

	var b strings.Builder
	started := false
	for _, pt := range pts {
		x, y, ok := l.proj.Project(pt[0], pt[1])
		if !ok {
			continue
		}
		if !started {
			fmt.Fprintf(&b, "M%.2f,%.2f", x, y)
			started = true
			continue
		}
		fmt.Fprintf(&b, "L%.2f,%.2f", x, y)
	}
	if !started {
		return ""
	}
	b.WriteString("Z")
	return b.String()
}
