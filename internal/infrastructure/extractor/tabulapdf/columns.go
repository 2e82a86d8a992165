package tabulapdf

import (
	"math"
	"sort"
	"strings"

	"github.com/tsawler/tabula/model"

	"github.com/kirillkom/pdf-to-excel/internal/core/domain"
)

const (
	// columnTolerance is how far, in points, left edges may drift and still
	// share a column.
	columnTolerance = 4.0
	// phraseGap is the gap, as a fraction of the font size, that splits two
	// fragments on one line into separate phrases.
	phraseGap = 1.0
	// minStreamRows is the shortest run of aligned lines treated as a table.
	minStreamRows = 2
)

// phrase is a run of fragments on one line separated by less than phraseGap.
type phrase struct {
	text   string
	x0, x1 float64
}

// phraseLines groups fragments into lines top to bottom and merges each line
// into phrases left to right.
func phraseLines(fragments []model.TextFragment) [][]phrase {
	frags := make([]model.TextFragment, 0, len(fragments))
	for _, f := range fragments {
		if strings.TrimSpace(f.Text) != "" {
			frags = append(frags, f)
		}
	}
	sort.SliceStable(frags, func(i, j int) bool { return frags[i].BBox.Y > frags[j].BBox.Y })

	var lines [][]model.TextFragment
	for _, f := range frags {
		if n := len(lines); n > 0 {
			head := lines[n-1][0].BBox
			if math.Abs(head.Y-f.BBox.Y) <= math.Max(head.Height, f.BBox.Height)/2 {
				lines[n-1] = append(lines[n-1], f)
				continue
			}
		}
		lines = append(lines, []model.TextFragment{f})
	}

	out := make([][]phrase, 0, len(lines))
	for _, line := range lines {
		sort.SliceStable(line, func(i, j int) bool { return line[i].BBox.X < line[j].BBox.X })
		var phrases []phrase
		for _, f := range line {
			size := f.FontSize
			if size <= 0 {
				size = f.BBox.Height
			}
			right := f.BBox.X + f.BBox.Width
			if n := len(phrases); n > 0 && f.BBox.X-phrases[n-1].x1 < size*phraseGap {
				last := &phrases[n-1]
				last.text = strings.TrimSpace(last.text) + " " + strings.TrimSpace(f.Text)
				last.x1 = math.Max(last.x1, right)
				continue
			}
			phrases = append(phrases, phrase{text: strings.TrimSpace(f.Text), x0: f.BBox.X, x1: right})
		}
		out = append(out, phrases)
	}
	return out
}

// streamTables finds runs of consecutive multi-phrase lines whose left edges
// line up into at least two columns.
func streamTables(page *model.Page) []domain.RowBlock {
	lines := phraseLines(page.RawText)

	var blocks []domain.RowBlock
	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		if end-start >= minStreamRows {
			if block, ok := alignedBlock(lines[start:end]); ok {
				blocks = append(blocks, block)
			}
		}
		start = -1
	}
	for i, line := range lines {
		if len(line) < 2 {
			flush(i)
			continue
		}
		if start < 0 {
			start = i
		}
	}
	flush(len(lines))
	return blocks
}

func alignedBlock(run [][]phrase) (domain.RowBlock, bool) {
	anchors := columnAnchors(run)
	if len(anchors) < 2 {
		return domain.RowBlock{}, false
	}
	block := domain.RowBlock{Table: true, Rows: make([]domain.Row, 0, len(run))}
	for _, line := range run {
		row := make(domain.Row, len(anchors))
		for _, p := range line {
			col := 0
			for i, a := range anchors {
				if a <= p.x0+columnTolerance {
					col = i
				}
			}
			if row[col] == "" {
				row[col] = p.text
			} else {
				row[col] += " " + p.text
			}
		}
		block.Rows = append(block.Rows, row)
	}
	return block, true
}

// columnAnchors clusters phrase left edges and keeps the clusters shared by
// at least two lines.
func columnAnchors(run [][]phrase) []float64 {
	var lefts []float64
	for _, line := range run {
		for _, p := range line {
			lefts = append(lefts, p.x0)
		}
	}
	sort.Float64s(lefts)

	var anchors []float64
	for i := 0; i < len(lefts); {
		j := i + 1
		sum := lefts[i]
		for j < len(lefts) && lefts[j]-lefts[j-1] <= columnTolerance {
			sum += lefts[j]
			j++
		}
		if j-i >= 2 {
			anchors = append(anchors, sum/float64(j-i))
		}
		i = j
	}
	return anchors
}
