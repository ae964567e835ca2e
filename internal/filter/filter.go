// Package filter drops address records that must not reach the
// built-environment output: closed object versions and merely planned
// addresses. Filtering never fails on schema-shaped input.
package filter

import (
	"go.uber.org/zap"

	"github.com/prgtools/prg2geoparquet/internal/logger"
	"github.com/prgtools/prg2geoparquet/internal/prg"
)

// Predicate decides whether a record is kept.
type Predicate func(*prg.AddressRecord) bool

// IsOpen keeps records whose lifecycle and validity window are both still
// open. A missing end marker means the version is current.
func IsOpen(r *prg.AddressRecord) bool {
	return r.IsOpen()
}

// IsBuiltOrUnderConstruction keeps records that exist physically or are
// being built, i.e. everything except planned addresses.
func IsBuiltOrUnderConstruction(r *prg.AddressRecord) bool {
	return r.IsBuiltOrUnderConstruction()
}

// Apply returns the records matching every predicate, preserving order.
// The input slice is never mutated.
func Apply(records []prg.AddressRecord, predicates ...Predicate) []prg.AddressRecord {
	out := make([]prg.AddressRecord, 0, len(records))
outer:
	for i := range records {
		for _, keep := range predicates {
			if !keep(&records[i]) {
				continue outer
			}
		}
		out = append(out, records[i])
	}
	return out
}

// KeepCurrent applies both built-environment predicates and logs how many
// records were dropped.
func KeepCurrent(records []prg.AddressRecord) []prg.AddressRecord {
	out := Apply(records, IsOpen, IsBuiltOrUnderConstruction)
	logger.Get().Info("Filtered address records",
		zap.Int("in", len(records)),
		zap.Int("kept", len(out)),
		zap.Int("dropped", len(records)-len(out)),
	)
	return out
}
