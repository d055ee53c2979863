package boundary

import (
	"fmt"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/twpayne/go-geom"
)

// LoadShapefile reads polygon boundaries from an ESRI shapefile, naming each
// region by the nameField attribute (matched case-insensitively).
func LoadShapefile(path, nameField string) (*Dataset, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open shapefile %s: %w", path, err)
	}
	defer func() { _ = reader.Close() }()

	idx := -1
	for i, f := range reader.Fields() {
		name := strings.TrimRight(f.String(), "\x00")
		if strings.EqualFold(name, nameField) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("shapefile %s has no %q attribute", path, nameField)
	}

	d := &Dataset{}
	for reader.Next() {
		_, shape := reader.Shape()
		g := shapeGeometry(shape)
		if g == nil {
			continue
		}
		name := strings.TrimSpace(strings.TrimRight(reader.Attribute(idx), "\x00"))
		d.add(name, g)
	}
	if err := reader.Err(); err != nil {
		return nil, fmt.Errorf("read shapefile %s: %w", path, err)
	}
	if len(d.regions) == 0 {
		return nil, ErrNoRegions
	}
	return d, nil
}

// shapeGeometry converts polygon shapes; other shape types are not boundaries.
func shapeGeometry(shape shp.Shape) geom.T {
	p, ok := shape.(*shp.Polygon)
	if !ok {
		return nil
	}
	return polygonToMultiPolygon(p)
}

// polygonToMultiPolygon converts a shapefile Polygon to a geom.MultiPolygon,
// one polygon per part. Malformed parts are dropped.
func polygonToMultiPolygon(p *shp.Polygon) geom.T {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY)
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}

		flat := make([]float64, 0, 2*(end-start))
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(geom.NewLinearRingFlat(geom.XY, flat)); err != nil {
			continue
		}
		if err := mp.Push(poly); err != nil {
			continue
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}
