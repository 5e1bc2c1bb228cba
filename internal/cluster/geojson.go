package cluster

import (
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// FeatureCollection renders clusters as GeoJSON points at their centroids.
// Properties carry the summary fields the map layer styles by. When showRPM is
// non-nil and returns false for a cluster, its avgRPM property is omitted.
func FeatureCollection(clusters []Summary, showRPM func(Summary) bool) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(clusters))}
	for _, c := range clusters {
		props := map[string]interface{}{
			"name":        c.Name,
			"loadVolume":  c.LoadVolume,
			"cellLat":     c.CellLat,
			"cellLon":     c.CellLon,
			"teams":       c.Teams,
			"dispatchers": c.Dispatchers,
		}
		if showRPM == nil || showRPM(c) {
			props["avgRPM"] = c.AvgRPM
		}
		pt := geom.NewPointFlat(geom.XY, []float64{c.Lon, c.Lat}).SetSRID(4326)
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry:   pt,
			Properties: props,
		})
	}
	return fc
}
