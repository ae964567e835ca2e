// Package projection shapes the final record set for one of the two
// downstream consumers. Each mode is a pure column selection; the shared
// pipeline stages never branch on mode.
package projection

import (
	"fmt"
	"strings"
	"time"

	"github.com/prgtools/prg2geoparquet/internal/geometry"
)

// Mode selects the output column projection. Exactly two values are legal.
type Mode string

const (
	// ModeOverture is the minimal external-consumer shape: identity under
	// short aliases, address fields, geometry. Closed and planned records
	// are filtered out and cross-references dropped.
	ModeOverture Mode = "overture"
	// ModeOSMPoland is the full archival shape: original field names,
	// lifecycle and validity columns, status, cross-references, with the
	// administrative unit sequence pinned to 4 positional columns. No
	// filtering.
	ModeOSMPoland Mode = "osmpoland"
)

// Modes lists the legal mode tokens.
func Modes() []string {
	return []string{string(ModeOverture), string(ModeOSMPoland)}
}

// ParseMode parses a mode token, case-insensitive and trimmed. It is called
// before any data is read so that a bad run parameter never starts a batch.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeOverture:
		return ModeOverture, nil
	case ModeOSMPoland:
		return ModeOSMPoland, nil
	default:
		return "", fmt.Errorf("unknown mode %q, must be one of: %s", s, strings.Join(Modes(), ", "))
	}
}

// Filtered reports whether this mode restricts output to current, built or
// under-construction addresses.
func (m Mode) Filtered() bool {
	return m == ModeOverture
}

// OvertureRow is one output row of the overture projection.
type OvertureRow struct {
	IDNamespace         string
	UniqueID            string
	ObjectTimestamp     time.Time
	AdministrativeUnits []string
	Place               *string
	PlacePart           *string
	Street              *string
	HouseNumber         string
	PostalCode          *string
	Geometry            []byte
}

// OvertureRows projects located records into the overture shape.
func OvertureRows(located []geometry.Located) []OvertureRow {
	rows := make([]OvertureRow, 0, len(located))
	for i := range located {
		r := &located[i].Record
		rows = append(rows, OvertureRow{
			IDNamespace:         r.Identity.Namespace,
			UniqueID:            r.Identity.LocalID,
			ObjectTimestamp:     r.Identity.VersionID,
			AdministrativeUnits: r.AdministrativeUnits,
			Place:               optional(r.Place),
			PlacePart:           optional(r.PlacePart),
			Street:              optional(r.Street),
			HouseNumber:         r.HouseNumber,
			PostalCode:          optional(r.PostalCode),
			Geometry:            located[i].WKB,
		})
	}
	return rows
}

// AdministrativeUnitDepth is the fixed number of positional unit columns in
// the osmpoland shape.
const AdministrativeUnitDepth = 4

// OSMPolandRow is one output row of the osmpoland projection. Field names
// map one to one onto the original column names.
type OSMPolandRow struct {
	Namespace           string
	LocalID             string
	VersionID           time.Time
	AdministrativeUnits [AdministrativeUnitDepth]*string
	Place               *string
	PlacePart           *string
	Street              *string
	HouseNumber         string
	PostalCode          *string
	Status              string
	Geometry            []byte
	GMLIdentifier       string
	Components          []string
	EMUiARef            *string
	LifecycleStart      *time.Time
	LifecycleEnd        *time.Time
	ValidFrom           *time.Time
	ValidTo             *time.Time
}

// OSMPolandRows projects located records into the osmpoland shape. Unit
// positions past the record's depth are null.
func OSMPolandRows(located []geometry.Located) []OSMPolandRow {
	rows := make([]OSMPolandRow, 0, len(located))
	for i := range located {
		r := &located[i].Record
		row := OSMPolandRow{
			Namespace:      r.Identity.Namespace,
			LocalID:        r.Identity.LocalID,
			VersionID:      r.Identity.VersionID,
			Place:          optional(r.Place),
			PlacePart:      optional(r.PlacePart),
			Street:         optional(r.Street),
			HouseNumber:    r.HouseNumber,
			PostalCode:     optional(r.PostalCode),
			Status:         r.Status,
			Geometry:       located[i].WKB,
			GMLIdentifier:  r.GMLIdentifier,
			Components:     r.Components,
			EMUiARef:       optional(r.EMUiARef),
			LifecycleStart: r.Lifecycle.Start,
			LifecycleEnd:   r.Lifecycle.End,
			ValidFrom:      r.ValidFrom,
			ValidTo:        r.ValidTo,
		}
		for j := 0; j < AdministrativeUnitDepth && j < len(r.AdministrativeUnits); j++ {
			row.AdministrativeUnits[j] = &r.AdministrativeUnits[j]
		}
		rows = append(rows, row)
	}
	return rows
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
