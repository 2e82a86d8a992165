package tabulapdf

import (
	"math"
	"sort"
	"strings"

	"github.com/tsawler/tabula/model"

	"github.com/kirillkom/pdf-to-excel/internal/core/domain"
)

// edgeTolerance is how far apart, in points, two rulings may be and still
// count as the same cell boundary.
const edgeTolerance = 2.0

// segment is an axis-aligned ruling normalised so that x0 <= x1 and y0 <= y1.
type segment struct {
	x0, y0, x1, y1 float64
}

func (s segment) vertical() bool {
	return s.x1-s.x0 <= edgeTolerance && s.y1-s.y0 > edgeTolerance
}

func (s segment) horizontal() bool {
	return s.y1-s.y0 <= edgeTolerance && s.x1-s.x0 > edgeTolerance
}

func (s segment) touches(o segment) bool {
	return s.x0 <= o.x1+edgeTolerance && o.x0 <= s.x1+edgeTolerance &&
		s.y0 <= o.y1+edgeTolerance && o.y0 <= s.y1+edgeTolerance
}

// rulingSegments splits rectangles into their four edges and keeps the
// horizontal and vertical lines. Diagonals and dots are dropped.
func rulingSegments(lines []model.Line) []segment {
	var out []segment
	for _, l := range lines {
		x0, x1 := math.Min(l.Start.X, l.End.X), math.Max(l.Start.X, l.End.X)
		y0, y1 := math.Min(l.Start.Y, l.End.Y), math.Max(l.Start.Y, l.End.Y)
		if l.IsRect {
			if x1-x0 <= edgeTolerance || y1-y0 <= edgeTolerance {
				// A hairline rectangle is a drawn rule.
				out = appendRuling(out, segment{x0, y0, x1, y1})
				continue
			}
			out = append(out,
				segment{x0, y0, x0, y1},
				segment{x1, y0, x1, y1},
				segment{x0, y0, x1, y0},
				segment{x0, y1, x1, y1},
			)
			continue
		}
		out = appendRuling(out, segment{x0, y0, x1, y1})
	}
	return out
}

func appendRuling(out []segment, s segment) []segment {
	if s.vertical() || s.horizontal() {
		return append(out, s)
	}
	return out
}

// groupSegments joins touching rulings into connected components, one per
// drawn table.
func groupSegments(segs []segment) [][]segment {
	parent := make([]int, len(segs))
	for i := range parent {
		parent[i] = i
	}
	find := func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	for i := range segs {
		for j := i + 1; j < len(segs); j++ {
			if segs[i].touches(segs[j]) {
				parent[find(i)] = find(j)
			}
		}
	}

	index := map[int]int{}
	var groups [][]segment
	for i, s := range segs {
		root := find(i)
		g, ok := index[root]
		if !ok {
			g = len(groups)
			index[root] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], s)
	}
	return groups
}

// grid holds column boundaries left to right and row boundaries top to bottom.
type grid struct {
	xs []float64
	ys []float64
	// top is used to keep tables in reading order.
	top float64
}

func gridFrom(group []segment) (grid, bool) {
	var xs, ys []float64
	top := math.Inf(-1)
	for _, s := range group {
		switch {
		case s.vertical():
			xs = append(xs, (s.x0+s.x1)/2)
		case s.horizontal():
			ys = append(ys, (s.y0+s.y1)/2)
		}
		top = math.Max(top, s.y1)
	}
	xs = clusterEdges(xs, edgeTolerance)
	ys = clusterEdges(ys, edgeTolerance)
	if len(xs) < 2 || len(ys) < 2 || (len(xs)-1)*(len(ys)-1) < 2 {
		return grid{}, false
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(ys)))
	return grid{xs: xs, ys: ys, top: top}, true
}

// clusterEdges sorts values and collapses runs closer than tol into their mean.
func clusterEdges(values []float64, tol float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var out []float64
	sum, n, last := sorted[0], 1, sorted[0]
	for _, v := range sorted[1:] {
		if v-last <= tol {
			sum += v
			n++
		} else {
			out = append(out, sum/float64(n))
			sum, n = v, 1
		}
		last = v
	}
	return append(out, sum/float64(n))
}

// cell locates the grid cell containing (x, y).
func (g grid) cell(x, y float64) (row, col int, ok bool) {
	col, row = -1, -1
	for i := 0; i+1 < len(g.xs); i++ {
		if x >= g.xs[i] && x < g.xs[i+1] {
			col = i
			break
		}
	}
	for i := 0; i+1 < len(g.ys); i++ {
		if y <= g.ys[i] && y > g.ys[i+1] {
			row = i
			break
		}
	}
	return row, col, row >= 0 && col >= 0
}

// fragmentCentre returns the visual centre of a fragment. Y is the baseline
// and Height the font size, so the glyph body sits slightly above Y.
func fragmentCentre(f model.TextFragment) (float64, float64) {
	return f.BBox.X + f.BBox.Width/2, f.BBox.Y + f.BBox.Height*0.3
}

// latticeTables builds one table block per ruled grid on the page.
func latticeTables(page *model.Page) []domain.RowBlock {
	var grids []grid
	for _, group := range groupSegments(rulingSegments(page.RawLines)) {
		if g, ok := gridFrom(group); ok {
			grids = append(grids, g)
		}
	}
	sort.SliceStable(grids, func(i, j int) bool { return grids[i].top > grids[j].top })

	used := make([]bool, len(page.RawText))
	var blocks []domain.RowBlock
	for _, g := range grids {
		cells := make([][][]model.TextFragment, len(g.ys)-1)
		for r := range cells {
			cells[r] = make([][]model.TextFragment, len(g.xs)-1)
		}
		filled := false
		for i, f := range page.RawText {
			if used[i] || strings.TrimSpace(f.Text) == "" {
				continue
			}
			x, y := fragmentCentre(f)
			r, c, ok := g.cell(x, y)
			if !ok {
				continue
			}
			cells[r][c] = append(cells[r][c], f)
			used[i] = true
			filled = true
		}
		if !filled {
			continue
		}

		block := domain.RowBlock{Table: true, Rows: make([]domain.Row, 0, len(cells))}
		for _, fragments := range cells {
			row := make(domain.Row, len(fragments))
			for c, frags := range fragments {
				row[c] = cellText(frags)
			}
			block.Rows = append(block.Rows, row)
		}
		blocks = append(blocks, block)
	}
	return blocks
}

// cellText joins fragments top to bottom, then left to right.
func cellText(frags []model.TextFragment) string {
	sort.SliceStable(frags, func(i, j int) bool {
		a, b := frags[i].BBox, frags[j].BBox
		if math.Abs(a.Y-b.Y) > math.Max(a.Height, b.Height)/2 {
			return a.Y > b.Y
		}
		return a.X < b.X
	})
	parts := make([]string, 0, len(frags))
	for _, f := range frags {
		parts = append(parts, f.Text)
	}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}
