// Package matcher explains overrepresented unknown barcodes by looking for
// near misses in the samplesheet.
package matcher

import (
	"fmt"

	"github.com/grailbio/base/log"
	"github.com/ludo-technologies/seqgate/domain"
)

// CauseKind tags the transformation that linked a barcode to a samplesheet row
type CauseKind string

const (
	CauseReverse           CauseKind = "reverse"
	CauseComplement        CauseKind = "complement"
	CauseReverseComplement CauseKind = "reverse complement"
	CauseLaneSwap          CauseKind = "lane swap"
	CauseDualIndexSwap     CauseKind = "dual index swap"
)

// Cause is one possible explanation for an unknown barcode
type Cause struct {
	Message string
	Kind    CauseKind
	Row     domain.SamplesheetRow
}

// Data returns the structured form stored in report payloads
func (c Cause) Data() map[string]any {
	return map[string]any{
		"kind": string(c.Kind),
		"row": map[string]any{
			"lane":      c.Row.Lane,
			"sample_id": c.Row.SampleID,
			"index":     c.Row.Index,
			"index2":    c.Row.Index2,
		},
	}
}

// Barcode is an unknown barcode observed on a lane
type Barcode struct {
	Index  string
	Index2 string
	Lane   int
}

// NewBarcode builds a query from a lane's unknown barcode record
func NewBarcode(b domain.UnknownBarcode, lane int) Barcode {
	return Barcode{Index: b.Index, Index2: b.Index2, Lane: lane}
}

func (b Barcode) isDual() bool {
	return b.Index2 != ""
}

func (b Barcode) full() string {
	return domain.JoinIndex(normalize(b.Index), normalize(b.Index2))
}

// SamplesheetMatcher indexes samplesheet rows for fast index lookups.
// Single-index rows are keyed by their index. Dual-index rows are keyed by
// index, index2 and "index+index2" so either half or the pair can match.
type SamplesheetMatcher struct {
	single map[string][]domain.SamplesheetRow
	dual   map[string][]domain.SamplesheetRow
}

// New builds a matcher from the samplesheet of a run
func New(rows []domain.SamplesheetRow) *SamplesheetMatcher {
	m := &SamplesheetMatcher{
		single: make(map[string][]domain.SamplesheetRow),
		dual:   make(map[string][]domain.SamplesheetRow),
	}
	for _, row := range rows {
		index, index2 := normalize(row.Index), normalize(row.Index2)
		if index2 != "" {
			m.dual[index] = append(m.dual[index], row)
			m.dual[index2] = append(m.dual[index2], row)
			m.dual[index+"+"+index2] = append(m.dual[index+"+"+index2], row)
		} else {
			m.single[index] = append(m.single[index], row)
		}
	}
	return m
}

func (m *SamplesheetMatcher) lookup(b Barcode) map[string][]domain.SamplesheetRow {
	if b.isDual() {
		return m.dual
	}
	return m.single
}

// ListCauses runs every check that applies to the barcode
func (m *SamplesheetMatcher) ListCauses(b Barcode) []Cause {
	var causes []Cause
	causes = append(causes, m.CheckComplementAndReverse(b)...)
	causes = append(causes, m.CheckLaneSwap(b)...)
	if b.isDual() {
		causes = append(causes, m.CheckDualIndexSwap(b)...)
	}
	return causes
}

// CheckComplementAndReverse looks up the reverse, complement and reverse
// complement of each index of the barcode. Variants that cannot be computed
// because of non-nucleotide characters are skipped.
func (m *SamplesheetMatcher) CheckComplementAndReverse(b Barcode) []Cause {
	indices := []string{normalize(b.Index)}
	if b.isDual() {
		indices = append(indices, normalize(b.Index2))
	}
	table := m.lookup(b)

	var causes []Cause
	for _, index := range indices {
		for _, v := range variants(index) {
			for _, row := range table[v.seq] {
				causes = append(causes, Cause{
					Message: fmt.Sprintf("%s index %q found in samplesheet for sample %s, lane %d",
						v.kind, v.seq, row.SampleID, row.Lane),
					Kind: v.kind,
					Row:  row,
				})
			}
		}
	}
	return causes
}

// CheckLaneSwap finds rows carrying the full barcode on another lane
func (m *SamplesheetMatcher) CheckLaneSwap(b Barcode) []Cause {
	index := b.full()

	var causes []Cause
	for _, row := range m.lookup(b)[index] {
		if row.Lane == b.Lane {
			continue
		}
		causes = append(causes, Cause{
			Message: fmt.Sprintf("index %s found on lane %d", index, row.Lane),
			Kind:    CauseLaneSwap,
			Row:     row,
		})
	}
	return causes
}

// CheckDualIndexSwap finds rows whose index and index2 are the barcode's halves swapped
func (m *SamplesheetMatcher) CheckDualIndexSwap(b Barcode) []Cause {
	if !b.isDual() {
		return nil
	}
	swapped := normalize(b.Index2) + "+" + normalize(b.Index)

	var causes []Cause
	for _, row := range m.dual[swapped] {
		causes = append(causes, Cause{
			Message: fmt.Sprintf("dual index swap: barcode %q found in samplesheet for sample %s, lane %d",
				swapped, row.SampleID, row.Lane),
			Kind: CauseDualIndexSwap,
			Row:  row,
		})
	}
	return causes
}

type variant struct {
	kind CauseKind
	seq  string
}

func variants(index string) []variant {
	out := []variant{{kind: CauseReverse, seq: Reverse(index)}}
	if c, ok := Complement(index); ok {
		out = append(out,
			variant{kind: CauseComplement, seq: c},
			variant{kind: CauseReverseComplement, seq: Reverse(c)},
		)
	} else {
		log.Debug.Printf("index %q contains non-nucleotide characters, skipping complement lookups", index)
	}
	return out
}
