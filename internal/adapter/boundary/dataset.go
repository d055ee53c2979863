// Package boundary loads the geographic region dataset used to render the
// severity choropleth and joins it with regional case totals.
package boundary

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/couchcryptid/dengue-data-service/internal/domain"
)

// ErrNoRegions is returned when a dataset yields no named region.
var ErrNoRegions = errors.New("boundary dataset has no named regions")

// Region is one named boundary shape.
type Region struct {
	Key      string // normalized name, the join key against aggregates
	Name     string // name as it appears in the source
	Geometry geom.T
}

// Dataset is an ordered set of region boundaries.
type Dataset struct {
	regions []Region
}

// Load reads a boundary dataset from source: an http(s) URL serving GeoJSON,
// a .shp shapefile, or a local GeoJSON file. nameProperty names the feature
// property (or shapefile attribute) that holds the region name.
func Load(ctx context.Context, source, nameProperty string, client *http.Client) (*Dataset, error) {
	switch {
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		data, err := newFetcher(client).fetch(ctx, source)
		if err != nil {
			return nil, err
		}
		return ParseGeoJSON(data, nameProperty)
	case strings.EqualFold(filepath.Ext(source), ".shp"):
		return LoadShapefile(source, nameProperty)
	default:
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("read boundary file: %w", err)
		}
		return ParseGeoJSON(data, nameProperty)
	}
}

// ParseGeoJSON decodes a FeatureCollection and keys each feature by nameProperty.
// Features without a usable name are skipped.
func ParseGeoJSON(data []byte, nameProperty string) (*Dataset, error) {
	var fc geojson.FeatureCollection
	if err := fc.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("decode boundary geojson: %w", err)
	}

	d := &Dataset{}
	for _, f := range fc.Features {
		name := propertyString(f.Properties, nameProperty)
		d.add(name, f.Geometry)
	}
	if len(d.regions) == 0 {
		return nil, ErrNoRegions
	}
	return d, nil
}

// add appends a region unless its name is blank or its key is already present.
func (d *Dataset) add(name string, g geom.T) {
	key := domain.NormalizeRegion(name)
	if key == "" {
		return
	}
	for _, r := range d.regions {
		if r.Key == key {
			return
		}
	}
	d.regions = append(d.regions, Region{Key: key, Name: strings.TrimSpace(name), Geometry: g})
}

// Regions lists the normalized region names in dataset order.
func (d *Dataset) Regions() []string {
	names := make([]string, len(d.regions))
	for i, r := range d.regions {
		names[i] = r.Key
	}
	return names
}

// Choropleth joins aggs onto the boundaries. Every region gets a feature;
// regions without records carry zero totals and the no-data band.
func (d *Dataset) Choropleth(aggs []domain.RegionAggregate) *geojson.FeatureCollection {
	filled := domain.FillRegions(aggs, d.Regions())

	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(d.regions))}
	for i, r := range d.regions {
		a := filled[i]
		band := domain.Classify(a.TotalCases)
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry: r.Geometry,
			Properties: map[string]any{
				"name":      r.Name,
				"region":    r.Key,
				"cases":     a.TotalCases,
				"deaths":    a.TotalDeaths,
				"band":      band.String(),
				"fillColor": band.Color(),
			},
		})
	}
	return fc
}

// propertyString finds key in props, falling back to a case-insensitive match.
func propertyString(props map[string]any, key string) string {
	v, ok := props[key]
	if !ok {
		for k, val := range props {
			if strings.EqualFold(k, key) {
				v, ok = val, true
				break
			}
		}
	}
	if !ok || v == nil {
		return ""
	}
	if s, isString := v.(string); isString {
		return s
	}
	return fmt.Sprint(v)
}
