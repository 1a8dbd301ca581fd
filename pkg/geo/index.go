package geo

import (
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/go-spatial/geom/encoding/geojson"
)

// FeatureIndex provides fast spatial queries over a feature collection.
//
// The index stores each feature's geographic bounding box in an R-tree, so
// a bounds query touches O(log N) entries instead of scanning every
// feature. Layers use it for hit-testing style queries; the preview server
// uses it for the /query endpoint.
type FeatureIndex struct {
	features []geojson.Feature
	rtree    *rtreego.Rtree
}

// featureEntry is the R-tree payload: the feature's slice index plus its
// precomputed rectangle.
type featureEntry struct {
	idx  int
	rect rtreego.Rect
}

// Bounds implements the rtreego.Spatial interface.
func (e featureEntry) Bounds() rtreego.Rect { return e.rect }

// boundsEpsilon pads degenerate (point) extents so every feature gets a
// valid R-tree rectangle.
const boundsEpsilon = 1e-9

// NewFeatureIndex builds an index over the given features. Features
// without coordinates are kept in the collection but never match a query.
func NewFeatureIndex(features []geojson.Feature) *FeatureIndex {
	idx := &FeatureIndex{
		features: features,
		rtree:    rtreego.NewTree(2, 25, 50),
	}
	for i, f := range features {
		b, ok := GeometryBounds(f.Geometry.Geometry)
		if !ok {
			continue
		}
		rect, err := rtreego.NewRect(
			rtreego.Point{b.MinLon, b.MinLat},
			[]float64{
				b.MaxLon - b.MinLon + boundsEpsilon,
				b.MaxLat - b.MinLat + boundsEpsilon,
			},
		)
		if err != nil {
			continue
		}
		idx.rtree.Insert(featureEntry{idx: i, rect: rect})
	}
	return idx
}

// Size returns the number of indexed features.
func (idx *FeatureIndex) Size() int { return idx.rtree.Size() }

// Search returns every feature whose bounding box intersects b, in the
// original collection order.
func (idx *FeatureIndex) Search(b Bounds) []geojson.Feature {
	queryRect, err := rtreego.NewRect(
		rtreego.Point{b.MinLon, b.MinLat},
		[]float64{b.MaxLon - b.MinLon + boundsEpsilon, b.MaxLat - b.MinLat + boundsEpsilon},
	)
	if err != nil {
		return nil
	}

	spatials := idx.rtree.SearchIntersect(queryRect)
	indices := make([]int, 0, len(spatials))
	for _, s := range spatials {
		indices = append(indices, s.(featureEntry).idx)
	}
	sort.Ints(indices)

	result := make([]geojson.Feature, 0, len(indices))
	for _, i := range indices {
		result = append(result, idx.features[i])
	}
	return result
}
