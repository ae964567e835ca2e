package proj

import (
	"fmt"
	"math"
)

// SRID constants for the projections this pipeline deals with
const (
	SRID4326 = 4326 // WGS84 geographic (lon/lat)
	SRID2180 = 2180 // ETRS89 / Poland CS92 (projected)
)

// Poland CS92: transverse Mercator on the GRS80 ellipsoid.
const (
	semiMajor     = 6378137.0
	flattening    = 1.0 / 298.257222101
	centralLon    = 19.0 // degrees east
	scaleFactor   = 0.9993
	falseEasting  = 500000.0
	falseNorthing = -5300000.0
)

// Transformer converts coordinates between the source and target SRID.
// ETRS89 and the WGS84 ensemble agree to well below the dataset's
// accuracy, so no datum shift is applied.
type Transformer struct {
	SourceSRID int
	TargetSRID int
}

// NewTransformer creates a transformer from source to target SRID
func NewTransformer(sourceSRID, targetSRID int) (*Transformer, error) {
	if sourceSRID != SRID2180 && sourceSRID != SRID4326 {
		return nil, fmt.Errorf("unsupported source SRID: %d (only 2180 and 4326 supported)", sourceSRID)
	}
	if targetSRID != SRID2180 && targetSRID != SRID4326 {
		return nil, fmt.Errorf("unsupported target SRID: %d (only 2180 and 4326 supported)", targetSRID)
	}

	return &Transformer{
		SourceSRID: sourceSRID,
		TargetSRID: targetSRID,
	}, nil
}

// Transform converts one coordinate pair from source to target projection.
// For 2180 the pair is (easting, northing) in meters; for 4326 it is
// (longitude, latitude) in degrees.
func (t *Transformer) Transform(x, y float64) (float64, float64) {
	switch {
	case t.SourceSRID == t.TargetSRID:
		return x, y
	case t.SourceSRID == SRID2180 && t.TargetSRID == SRID4326:
		return cs92ToLonLat(x, y)
	case t.SourceSRID == SRID4326 && t.TargetSRID == SRID2180:
		return lonLatToCS92(x, y)
	}
	return x, y
}

// NeedsTransform returns true if transformation is required
func (t *Transformer) NeedsTransform() bool {
	return t.SourceSRID != t.TargetSRID
}

// cs92ToLonLat is the inverse transverse Mercator mapping, standard
// series form with the footpoint latitude.
func cs92ToLonLat(easting, northing float64) (lon, lat float64) {
	e2 := flattening * (2 - flattening)
	e4 := e2 * e2
	e6 := e4 * e2
	ep2 := e2 / (1 - e2)

	m := (northing - falseNorthing) / scaleFactor
	mu := m / (semiMajor * (1 - e2/4 - 3*e4/64 - 5*e6/256))

	e1 := (1 - math.Sqrt(1-e2)) / (1 + math.Sqrt(1-e2))
	phi1 := mu +
		(3*e1/2-27*e1*e1*e1/32)*math.Sin(2*mu) +
		(21*e1*e1/16-55*e1*e1*e1*e1/32)*math.Sin(4*mu) +
		(151*e1*e1*e1/96)*math.Sin(6*mu) +
		(1097*e1*e1*e1*e1/512)*math.Sin(8*mu)

	sinPhi1 := math.Sin(phi1)
	cosPhi1 := math.Cos(phi1)
	tanPhi1 := sinPhi1 / cosPhi1

	c1 := ep2 * cosPhi1 * cosPhi1
	t1 := tanPhi1 * tanPhi1
	n1 := semiMajor / math.Sqrt(1-e2*sinPhi1*sinPhi1)
	r1 := semiMajor * (1 - e2) / math.Pow(1-e2*sinPhi1*sinPhi1, 1.5)
	d := (easting - falseEasting) / (n1 * scaleFactor)

	latRad := phi1 - (n1*tanPhi1/r1)*(d*d/2-
		(5+3*t1+10*c1-4*c1*c1-9*ep2)*d*d*d*d/24+
		(61+90*t1+298*c1+45*t1*t1-252*ep2-3*c1*c1)*d*d*d*d*d*d/720)

	lonRad := (d -
		(1+2*t1+c1)*d*d*d/6 +
		(5-2*c1+28*t1-3*c1*c1+8*ep2+24*t1*t1)*d*d*d*d*d/120) / cosPhi1

	lat = latRad * 180 / math.Pi
	lon = centralLon + lonRad*180/math.Pi
	return lon, lat
}

// lonLatToCS92 is the forward transverse Mercator mapping.
func lonLatToCS92(lon, lat float64) (easting, northing float64) {
	e2 := flattening * (2 - flattening)
	ep2 := e2 / (1 - e2)

	phi := lat * math.Pi / 180
	dLon := (lon - centralLon) * math.Pi / 180

	sinPhi := math.Sin(phi)
	cosPhi := math.Cos(phi)
	tanPhi := sinPhi / cosPhi

	n := semiMajor / math.Sqrt(1-e2*sinPhi*sinPhi)
	t := tanPhi * tanPhi
	c := ep2 * cosPhi * cosPhi
	a := cosPhi * dLon

	m := meridionalArc(phi)

	easting = falseEasting + scaleFactor*n*(a+
		(1-t+c)*a*a*a/6+
		(5-18*t+t*t+72*c-58*ep2)*a*a*a*a*a/120)

	northing = falseNorthing + scaleFactor*(m+n*tanPhi*(a*a/2+
		(5-t+9*c+4*c*c)*a*a*a*a/24+
		(61-58*t+t*t+600*c-330*ep2)*a*a*a*a*a*a/720))
	return easting, northing
}

// meridionalArc is the distance along the meridian from the equator.
func meridionalArc(phi float64) float64 {
	e2 := flattening * (2 - flattening)
	e4 := e2 * e2
	e6 := e4 * e2

	return semiMajor * ((1-e2/4-3*e4/64-5*e6/256)*phi -
		(3*e2/8+3*e4/32+45*e6/1024)*math.Sin(2*phi) +
		(15*e4/256+45*e6/1024)*math.Sin(4*phi) -
		(35*e6/3072)*math.Sin(6*phi))
}

// ParseSRID parses a projection string to SRID
// Accepts: "2180", "4326", "EPSG:2180", "EPSG:4326"
func ParseSRID(s string) (int, error) {
	switch s {
	case "2180", "EPSG:2180":
		return SRID2180, nil
	case "4326", "EPSG:4326":
		return SRID4326, nil
	default:
		return 0, fmt.Errorf("unsupported projection: %s (supported: 2180, 4326)", s)
	}
}
