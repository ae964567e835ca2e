package geoparquet

import "encoding/json"

// CRS84PROJJSON is the PROJJSON description of OGC:CRS84 embedded in every
// output file: the WGS84 datum ensemble with geodetic longitude before
// latitude. EPSG:4326 declares the opposite axis order, which is why the
// CRS84 document is used for interchange.
const CRS84PROJJSON = `{
  "$schema": "https://proj.org/schemas/v0.6/projjson.schema.json",
  "type": "GeographicCRS",
  "name": "WGS 84 (CRS84)",
  "datum_ensemble": {
    "name": "World Geodetic System 1984 ensemble",
    "members": [
      {"name": "World Geodetic System 1984 (Transit)", "id": {"authority": "EPSG", "code": 1166}},
      {"name": "World Geodetic System 1984 (G730)", "id": {"authority": "EPSG", "code": 1152}},
      {"name": "World Geodetic System 1984 (G873)", "id": {"authority": "EPSG", "code": 1153}},
      {"name": "World Geodetic System 1984 (G1150)", "id": {"authority": "EPSG", "code": 1154}},
      {"name": "World Geodetic System 1984 (G1674)", "id": {"authority": "EPSG", "code": 1155}},
      {"name": "World Geodetic System 1984 (G1762)", "id": {"authority": "EPSG", "code": 1156}},
      {"name": "World Geodetic System 1984 (G2139)", "id": {"authority": "EPSG", "code": 1309}}
    ],
    "ellipsoid": {
      "name": "WGS 84",
      "semi_major_axis": 6378137,
      "inverse_flattening": 298.257223563
    },
    "accuracy": "2.0",
    "id": {"authority": "EPSG", "code": 6326}
  },
  "coordinate_system": {
    "subtype": "ellipsoidal",
    "axis": [
      {"name": "Geodetic longitude", "abbreviation": "Lon", "direction": "east", "unit": "degree"},
      {"name": "Geodetic latitude", "abbreviation": "Lat", "direction": "north", "unit": "degree"}
    ]
  },
  "scope": "Not known.",
  "area": "World.",
  "bbox": {"south_latitude": -90, "west_longitude": -180, "north_latitude": 90, "east_longitude": 180},
  "id": {"authority": "OGC", "code": "CRS84"}
}`

// geoParquetVersion is the GeoParquet metadata specification version
// written into the file.
const geoParquetVersion = "1.0.0"

// GeoMetadata renders the GeoParquet "geo" file metadata document for a
// single WKB point geometry column.
func GeoMetadata(geometryColumn string) (string, error) {
	doc := map[string]any{
		"version":        geoParquetVersion,
		"primary_column": geometryColumn,
		"columns": map[string]any{
			geometryColumn: map[string]any{
				"encoding":       "WKB",
				"geometry_types": []string{"Point"},
				"crs":            json.RawMessage(CRS84PROJJSON),
			},
		},
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
