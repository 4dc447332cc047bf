package frankentui

import "github.com/rivo/uniseg"

// graphemeOverflowFallback is written into a Cell whenever a pool has run
// out of 24-bit ids. It renders as a single-width "?" rather than failing
// the write.
const graphemeOverflowFallback = '?'

const maxGraphemeID = 1<<24 - 1

// GraphemePool interns multi-rune grapheme clusters (emoji ZWJ sequences,
// combining-mark text, flags) so a Cell can reference one by a 24-bit id
// instead of carrying variable-length text. Clusters are stored exactly as
// segmented: the pool performs no normalization.
type GraphemePool struct {
	ids      map[string]uint32
	clusters []string // index == id; append-only, stable insertion order
	overflow uint64    // count of writes that fell back to "?"
	logger   Logger
}

// NewGraphemePool creates an empty pool.
func NewGraphemePool() *GraphemePool {
	return &GraphemePool{ids: make(map[string]uint32), logger: nopLogger{}}
}

// SetLogger directs overflow diagnostics to l instead of discarding them.
func (p *GraphemePool) SetLogger(l Logger) { p.logger = l }

// Intern returns the id for cluster, assigning a new one if not already
// present. ok is false once the 24-bit id space is exhausted; callers
// should fall back to a scalar "?" cell in that case.
func (p *GraphemePool) Intern(cluster string) (id uint32, ok bool) {
	if id, found := p.ids[cluster]; found {
		return id, true
	}
	if len(p.clusters) > maxGraphemeID {
		p.overflow++
		p.logger.Printf("grapheme pool exhausted at %d ids, cluster %q rendered as '?'", maxGraphemeID, cluster)
		return 0, false
	}
	id = uint32(len(p.clusters))
	p.clusters = append(p.clusters, cluster)
	p.ids[cluster] = id
	return id, true
}

// Lookup returns the cluster text for id. Returns "", false for an unknown
// id (never expected in steady state - every id in a Buffer was interned
// through this same pool).
func (p *GraphemePool) Lookup(id uint32) (string, bool) {
	if int(id) >= len(p.clusters) {
		return "", false
	}
	return p.clusters[id], true
}

// Stats reports how many writes overflowed the id space and fell back to
// the "?" placeholder - a defensive bound, not an expected steady-state
// condition.
func (p *GraphemePool) Stats() (clusters int, overflow uint64) {
	return len(p.clusters), p.overflow
}

// Segment splits s into grapheme clusters without normalizing them,
// invoking fn(cluster, displayWidth) for each. It is the entry point
// Buffer.PutString uses to turn caller text into one or more Cells.
func Segment(s string, fn func(cluster string, width int)) {
	state := -1
	for len(s) > 0 {
		var cluster string
		var width int
		cluster, s, width, state = uniseg.FirstGraphemeClusterInString(s, state)
		fn(cluster, width)
	}
}
