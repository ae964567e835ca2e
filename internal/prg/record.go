package prg

import "time"

// Construction status values as they appear in the PRG dataset.
const (
	StatusExisting          = "istniejacy"
	StatusUnderConstruction = "wBudowie"
	StatusPlanned           = "prognozowany"
)

// Identity is the IIP identifier of one version of one address object.
// Namespace plus LocalID identifies the object across versions; VersionID
// distinguishes versions of the same object.
type Identity struct {
	Namespace string
	LocalID   string
	VersionID time.Time
}

// Lifecycle holds the object-version lifecycle timestamps. A non-nil End
// means this version has been superseded.
type Lifecycle struct {
	Start *time.Time
	End   *time.Time
}

// AddressRecord is one prg-ad:PRG_PunktAdresowy element. Records are
// read-only once parsed; pipeline stages derive new values instead of
// mutating in place.
type AddressRecord struct {
	// GMLIdentifier is the gml:identifier of the feature. The IIP identity
	// is the identifier used downstream; this one is kept for the archival
	// output shape only.
	GMLIdentifier string

	Identity  Identity
	Lifecycle Lifecycle

	// Validity window: calendar dates during which the address is
	// administratively valid. A non-nil ValidTo means historical.
	ValidFrom *time.Time
	ValidTo   *time.Time

	// AdministrativeUnits is the hierarchical unit sequence, outermost
	// first. The archival output shape pins it to 4 positional columns.
	AdministrativeUnits []string
	Place               string
	PlacePart           string
	Street              string
	HouseNumber         string
	PostalCode          string

	Status string

	// RawPosition is the gml:pos text in EPSG:2180, northing before
	// easting. The geometry stage replaces it with a parsed point.
	RawPosition string

	// Components are xlink:href references to the administrative unit,
	// place and street features in the same dump.
	Components []string
	// EMUiARef is the xlink:href into the municipal EMUiA system.
	EMUiARef string
}

// IsOpen reports whether this object version is current: neither the
// lifecycle nor the validity window has been closed. Absence of a closing
// marker means the version is still current.
func (r *AddressRecord) IsOpen() bool {
	return r.Lifecycle.End == nil && r.ValidTo == nil
}

// IsBuiltOrUnderConstruction reports whether the address exists physically
// or is being built. A missing status counts as not planned.
func (r *AddressRecord) IsBuiltOrUnderConstruction() bool {
	return r.Status != StatusPlanned
}
