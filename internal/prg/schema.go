package prg

import (
	"fmt"
	"time"
)

// Kind is the semantic type of a schema field. Literal kinds reject any
// value that does not parse exactly; there is no coercion.
type Kind int

const (
	KindString Kind = iota
	KindTimestamp
	KindDate
	KindStruct
	// KindLink is a cross-reference element carrying its value in an
	// xlink:href attribute rather than in element text.
	KindLink
)

// Field is one node of the declarative record schema: a name, a semantic
// kind and, for structs, the child fields. Repeated marks elements that may
// occur more than once and bind to an ordered sequence.
type Field struct {
	Name     string
	Kind     Kind
	Repeated bool
	Optional bool
	Children []Field
}

// Child returns the child field with the given qualified name, or nil when
// the schema does not declare it.
func (f *Field) Child(name string) *Field {
	for i := range f.Children {
		if f.Children[i].Name == name {
			return &f.Children[i]
		}
	}
	return nil
}

// AddressSchema returns the fixed schema of one prg-ad:PRG_PunktAdresowy
// element. The tree mirrors the XML nesting exactly; nothing is inferred at
// read time. Identity and position are the only required parts: the dump
// omits the other scalars on some records, and an omitted element binds to
// its zero value rather than rejecting the record. The dump also carries administrative unit, place and street
// feature types, but those are not needed to extract addresses and are not
// declared here.
func AddressSchema() Field {
	return Field{
		Name: "prg-ad:PRG_PunktAdresowy",
		Kind: KindStruct,
		Children: []Field{
			{Name: "gml:identifier", Kind: KindString, Optional: true},
			{Name: "prg-ad:idIIP", Kind: KindStruct, Children: []Field{
				{Name: "bt:BT_Identyfikator", Kind: KindStruct, Children: []Field{
					{Name: "bt:lokalnyId", Kind: KindString},
					{Name: "bt:przestrzenNazw", Kind: KindString},
					{Name: "bt:wersjaId", Kind: KindTimestamp},
				}},
			}},
			{Name: "prg-ad:cyklZycia", Kind: KindStruct, Optional: true, Children: []Field{
				{Name: "bt:BT_CyklZyciaInfo", Kind: KindStruct, Optional: true, Children: []Field{
					{Name: "bt:poczatekWersjiObiektu", Kind: KindTimestamp, Optional: true},
					{Name: "bt:koniecWersjiObiektu", Kind: KindTimestamp, Optional: true},
				}},
			}},
			{Name: "prg-ad:waznyOd", Kind: KindDate, Optional: true},
			{Name: "prg-ad:waznyDo", Kind: KindDate, Optional: true},
			{Name: "prg-ad:jednostkaAdmnistracyjna", Kind: KindString, Repeated: true},
			{Name: "prg-ad:miejscowosc", Kind: KindString, Optional: true},
			{Name: "prg-ad:czescMiejscowosci", Kind: KindString, Optional: true},
			{Name: "prg-ad:ulica", Kind: KindString, Optional: true},
			{Name: "prg-ad:numerPorzadkowy", Kind: KindString, Optional: true},
			{Name: "prg-ad:kodPocztowy", Kind: KindString, Optional: true},
			{Name: "prg-ad:status", Kind: KindString, Optional: true},
			{Name: "prg-ad:pozycja", Kind: KindStruct, Children: []Field{
				{Name: "gml:Point", Kind: KindStruct, Children: []Field{
					{Name: "gml:pos", Kind: KindString},
				}},
			}},
			{Name: "prg-ad:komponent", Kind: KindLink, Repeated: true},
			{Name: "prg-ad:obiektEMUiA", Kind: KindLink, Optional: true},
		},
	}
}

// Timestamp layouts seen in PRG dumps: zoned and naive local time.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}
