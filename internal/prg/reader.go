package prg

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/prgtools/prg2geoparquet/internal/logger"
)

// XML namespaces used by the PRG dump. The decoder resolves prefixes to
// URIs, so qualified names are rebuilt from this table before schema lookup.
var nsPrefix = map[string]string{
	"http://www.opengis.net/gml/3.2":                                "gml",
	"urn:gugik:specyfikacje:gmlas:panstwowyRejestrGranicAdresy:1.0": "prg-ad",
	"urn:gugik:specyfikacje:gmlas:modelPodstawowy:1.0":              "bt",
	"http://www.w3.org/1999/xlink":                                  "xlink",
}

func qualifiedName(n xml.Name) string {
	if p, ok := nsPrefix[n.Space]; ok {
		return p + ":" + n.Local
	}
	return n.Local
}

// ParseError reports a strict-mode schema violation. Any single violating
// record fails the whole batch; no partial record set is ever returned.
type ParseError struct {
	File   string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	msg := "parse error"
	if e.File != "" {
		msg += " in " + e.File
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

const recordTag = "prg-ad:PRG_PunktAdresowy"

// Reader binds the fixed address schema to a directory of GML documents.
// One prg-ad:PRG_PunktAdresowy element is one record; files are parsed in
// parallel and the reader fails as a whole on the first schema violation.
type Reader struct {
	schema  Field
	workers int
}

// NewReader creates a reader with the given parse parallelism.
func NewReader(workers int) *Reader {
	if workers < 1 {
		workers = 1
	}
	return &Reader{schema: AddressSchema(), workers: workers}
}

// ReadDir parses every *.xml document under dir and returns all address
// records found across them. Zero documents or zero records is not an error
// here; the empty-result check belongs after filtering.
func (r *Reader) ReadDir(ctx context.Context, dir string) ([]AddressRecord, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.xml"))
	if err != nil {
		return nil, fmt.Errorf("globbing %s: %w", dir, err)
	}
	sort.Strings(paths)
	return r.ReadFiles(ctx, paths)
}

// ReadFiles parses the given documents in parallel, strict mode.
func (r *Reader) ReadFiles(ctx context.Context, paths []string) ([]AddressRecord, error) {
	log := logger.Get()
	log.Info("Reading GML documents",
		zap.Int("files", len(paths)),
		zap.Int("workers", r.workers),
	)

	perFile := make([][]AddressRecord, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			records, err := r.readFile(ctx, path)
			if err != nil {
				return err
			}
			perFile[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []AddressRecord
	for _, records := range perFile {
		out = append(out, records...)
	}
	log.Info("Finished reading GML documents", zap.Int("records", len(out)))
	return out, nil
}

func (r *Reader) readFile(ctx context.Context, path string) ([]AddressRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	records, err := r.Read(ctx, f)
	if err != nil {
		if pe, ok := err.(*ParseError); ok && pe.File == "" {
			pe.File = filepath.Base(path)
		}
		return nil, err
	}
	return records, nil
}

// Read parses one feature-collection document from an io.Reader.
func (r *Reader) Read(ctx context.Context, src io.Reader) ([]AddressRecord, error) {
	decoder := xml.NewDecoder(src)
	var records []AddressRecord

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ParseError{Reason: "malformed XML", Err: err}
		}

		se, ok := token.(xml.StartElement)
		if !ok || qualifiedName(se.Name) != recordTag {
			continue
		}

		el, err := parseElement(decoder, se)
		if err != nil {
			return nil, &ParseError{Reason: "malformed record element", Err: err}
		}
		rec, err := r.bind(el)
		if err != nil {
			return nil, &ParseError{Reason: "record does not match schema", Err: err}
		}
		records = append(records, rec)
	}

	return records, nil
}

// element is the generic parse tree of one record before schema binding.
type element struct {
	name     string
	text     string
	href     string
	children []*element
}

func parseElement(decoder *xml.Decoder, start xml.StartElement) (*element, error) {
	el := &element{name: qualifiedName(start.Name)}
	for _, attr := range start.Attr {
		if qualifiedName(attr.Name) == "xlink:href" {
			el.href = attr.Value
		}
	}

	var text strings.Builder
	for {
		token, err := decoder.Token()
		if err != nil {
			return nil, err
		}
		switch t := token.(type) {
		case xml.StartElement:
			child, err := parseElement(decoder, t)
			if err != nil {
				return nil, err
			}
			el.children = append(el.children, child)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			el.text = strings.TrimSpace(text.String())
			return el, nil
		}
	}
}

// bind validates the parse tree against the schema and extracts a record.
// Unknown elements, duplicate non-repeated elements, missing required
// elements and unparseable literals all reject the record.
func (r *Reader) bind(el *element) (AddressRecord, error) {
	values, err := bindStruct(&r.schema, el)
	if err != nil {
		return AddressRecord{}, err
	}

	var rec AddressRecord
	rec.GMLIdentifier, _ = lookupString(values, "gml:identifier")

	id, err := path(values, "prg-ad:idIIP", "bt:BT_Identyfikator")
	if err != nil {
		return AddressRecord{}, err
	}
	rec.Identity.LocalID, _ = lookupString(id, "bt:lokalnyId")
	rec.Identity.Namespace, _ = lookupString(id, "bt:przestrzenNazw")
	if v, ok := id["bt:wersjaId"].(time.Time); ok {
		rec.Identity.VersionID = v
	}

	if cycle, ok := lookupStruct(values, "prg-ad:cyklZycia", "bt:BT_CyklZyciaInfo"); ok {
		rec.Lifecycle.Start = lookupTime(cycle, "bt:poczatekWersjiObiektu")
		rec.Lifecycle.End = lookupTime(cycle, "bt:koniecWersjiObiektu")
	}

	rec.ValidFrom = lookupTime(values, "prg-ad:waznyOd")
	rec.ValidTo = lookupTime(values, "prg-ad:waznyDo")

	rec.AdministrativeUnits = lookupStrings(values, "prg-ad:jednostkaAdmnistracyjna")
	rec.Place, _ = lookupString(values, "prg-ad:miejscowosc")
	rec.PlacePart, _ = lookupString(values, "prg-ad:czescMiejscowosci")
	rec.Street, _ = lookupString(values, "prg-ad:ulica")
	rec.HouseNumber, _ = lookupString(values, "prg-ad:numerPorzadkowy")
	rec.PostalCode, _ = lookupString(values, "prg-ad:kodPocztowy")
	rec.Status, _ = lookupString(values, "prg-ad:status")

	pos, err := path(values, "prg-ad:pozycja", "gml:Point")
	if err != nil {
		return AddressRecord{}, err
	}
	rec.RawPosition, _ = lookupString(pos, "gml:pos")
	if rec.RawPosition == "" {
		return AddressRecord{}, fmt.Errorf("record %s/%s has no position", rec.Identity.Namespace, rec.Identity.LocalID)
	}

	rec.Components = lookupStrings(values, "prg-ad:komponent")
	rec.EMUiARef, _ = lookupString(values, "prg-ad:obiektEMUiA")

	return rec, nil
}

// bindStruct walks a struct element's children against the schema field and
// returns a name-keyed value map. Repeated fields bind to []string.
func bindStruct(f *Field, el *element) (map[string]any, error) {
	values := make(map[string]any, len(f.Children))

	for _, child := range el.children {
		cf := f.Child(child.name)
		if cf == nil {
			return nil, fmt.Errorf("unexpected element %s inside %s", child.name, f.Name)
		}
		v, err := bindField(cf, child)
		if err != nil {
			return nil, err
		}
		if cf.Repeated {
			seq, _ := values[cf.Name].([]string)
			values[cf.Name] = append(seq, v.(string))
			continue
		}
		if _, dup := values[cf.Name]; dup {
			return nil, fmt.Errorf("duplicate element %s inside %s", child.name, f.Name)
		}
		values[cf.Name] = v
	}

	for i := range f.Children {
		cf := &f.Children[i]
		if cf.Optional || cf.Repeated {
			continue
		}
		if _, ok := values[cf.Name]; !ok {
			return nil, fmt.Errorf("missing required element %s inside %s", cf.Name, f.Name)
		}
	}

	return values, nil
}

func bindField(f *Field, el *element) (any, error) {
	switch f.Kind {
	case KindStruct:
		return bindStruct(f, el)
	case KindLink:
		if el.href == "" {
			return nil, fmt.Errorf("element %s has no xlink:href", f.Name)
		}
		return el.href, nil
	case KindTimestamp:
		t, err := parseTimestamp(el.text)
		if err != nil {
			return nil, fmt.Errorf("element %s: %w", f.Name, err)
		}
		return t, nil
	case KindDate:
		t, err := parseDate(el.text)
		if err != nil {
			return nil, fmt.Errorf("element %s: %w", f.Name, err)
		}
		return t, nil
	default:
		if len(el.children) > 0 {
			return nil, fmt.Errorf("element %s: expected text, found nested elements", f.Name)
		}
		return el.text, nil
	}
}

func path(values map[string]any, names ...string) (map[string]any, error) {
	m := values
	for _, name := range names {
		next, ok := m[name].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("missing required element %s", name)
		}
		m = next
	}
	return m, nil
}

func lookupStruct(values map[string]any, names ...string) (map[string]any, bool) {
	m := values
	for _, name := range names {
		next, ok := m[name].(map[string]any)
		if !ok {
			return nil, false
		}
		m = next
	}
	return m, true
}

func lookupString(values map[string]any, name string) (string, bool) {
	s, ok := values[name].(string)
	return s, ok
}

func lookupStrings(values map[string]any, name string) []string {
	s, _ := values[name].([]string)
	return s
}

func lookupTime(values map[string]any, name string) *time.Time {
	if t, ok := values[name].(time.Time); ok {
		return &t
	}
	return nil
}
