package frankentui

// Run is a contiguous, inclusive-exclusive range of columns on one row
// whose cells differ between front and back buffers.
type Run struct {
	ColStart, ColEnd int // [ColStart, ColEnd)
}

// RowRuns collects every changed Run on a single row.
type RowRuns struct {
	Row  int
	Runs []Run
}

// maxRunGap is the largest number of unchanged columns a diff will bridge
// when merging two adjacent runs into one. Re-emitting cursor-position
// escapes is usually costlier than re-sending a handful of unchanged
// cells, so small gaps are folded into the surrounding run.
const maxRunGap = 4

// Differ computes row/column change runs between a front (last-presented)
// and back (newly-drawn) Buffer, reusing its scratch slices across calls
// so steady-state frames allocate nothing.
type Differ struct {
	scratch []RowRuns
}

// NewDiffer returns an empty Differ ready for repeated use.
func NewDiffer() *Differ { return &Differ{} }

// Diff compares front against back, returning change runs for every row
// RowDirty reports as touched. The returned slice is owned by d and is
// invalidated by the next call to Diff.
func (d *Differ) Diff(front, back *Buffer) []RowRuns {
	d.scratch = d.scratch[:0]
	width, height := back.width, back.height

	for y := 0; y < height; y++ {
		if !back.RowDirty(y) {
			continue
		}

		frontRow := front.cells[y*width : (y+1)*width]
		backRow := back.cells[y*width : (y+1)*width]

		if rowsEqual(frontRow, backRow) {
			continue
		}

		runs := d.diffRow(frontRow, backRow, width)
		if len(runs) == 0 {
			continue
		}
		d.scratch = append(d.scratch, RowRuns{Row: y, Runs: runs})
	}
	return d.scratch
}

func rowsEqual(a, b []Cell) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// diffRow finds changed-column runs in a single row, merging runs
// separated by gaps no larger than maxRunGap. The returned slice is
// allocated per call to diffRow (not per Diff): callers that want the
// zero-allocation property across frames should pool RowRuns.Runs
// themselves; in steady state most rows are unchanged and never reach
// this function.
func (d *Differ) diffRow(front, back []Cell, width int) []Run {
	var runs []Run
	x := 0
	for x < width {
		if front[x] == back[x] {
			x++
			continue
		}
		start := x
		end := x + 1
		for end < width {
			if front[end] != back[end] {
				end++
				continue
			}
			// Lookahead across a short gap of unchanged cells to see if
			// another changed run follows closely enough to merge.
			gapEnd := end
			for gapEnd < width && gapEnd-end < maxRunGap && front[gapEnd] == back[gapEnd] {
				gapEnd++
			}
			if gapEnd < width && front[gapEnd] != back[gapEnd] {
				end = gapEnd + 1
				continue
			}
			break
		}
		runs = append(runs, Run{ColStart: start, ColEnd: end})
		x = end
	}
	return runs
}

// ApplyRuns copies every cell named by runs from back into front - the
// kernel calls this once a frame's runs have been successfully presented,
// keeping front as the ground truth for the next Diff.
func ApplyRuns(front, back *Buffer, runs []RowRuns) {
	width := back.width
	for _, rr := range runs {
		frontRow := front.cells[rr.Row*width : (rr.Row+1)*width]
		backRow := back.cells[rr.Row*width : (rr.Row+1)*width]
		for _, run := range rr.Runs {
			copy(frontRow[run.ColStart:run.ColEnd], backRow[run.ColStart:run.ColEnd])
		}
	}
}
