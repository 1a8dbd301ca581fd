package carto_test

import (
	"fmt"

	"github.com/go-spatial/geom"

	"github.com/geodetic-io/cartograph/pkg/carto"
)

func Example() {
	m, err := carto.New(carto.Options{
		Width:      960,
		Height:     500,
		Projection: "natural-earth",
	})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	iberia := geom.Polygon{{{-9.5, 36}, {3.3, 36}, {3.3, 43.8}, {-9.5, 43.8}, {-9.5, 36}}}
	if _, err := m.AddDataLayer("iberia", carto.LayerOptions{
		Data:  iberia,
		Style: carto.Style{Fill: "#69b3a2"},
	}); err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println("projection:", m.Projection().Name)
	fmt.Println("layers:", m.LayerIDs())
	// Output:
	// projection: natural-earth
	// layers: [iberia]
}

func ExampleMap_SetLayerZIndex() {
	m, _ := carto.New(carto.Options{Width: 500, Height: 250})

	sea := geom.Polygon{{{-180, -60}, {180, -60}, {180, 85}, {-180, 85}, {-180, -60}}}
	land := geom.Polygon{{{-20, 30}, {40, 30}, {40, 70}, {-20, 70}, {-20, 30}}}
	m.AddDataLayer("sea", carto.LayerOptions{Data: sea, Style: carto.Style{Fill: "#a6cee3"}})
	m.AddDataLayer("land", carto.LayerOptions{Data: land, Style: carto.Style{Fill: "#b2df8a"}})

	// Paint the sea on top, then restore the usual order.
	m.SetLayerZIndex("sea", 10)
	m.SetLayerZIndex("sea", 0)

	fmt.Println(m.LayerIDs())
	// Output: [sea land]
}
