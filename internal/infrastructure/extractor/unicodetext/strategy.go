package unicodetext

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/unicode/norm"

	"github.com/kirillkom/pdf-to-excel/internal/core/domain"
)

const (
	// Horizontal gaps are measured in multiples of the glyph font size.
	wordGapRatio   = 0.15
	columnGapRatio = 1.5
)

// Strategy reads glyph runs through the PDF font encodings and rebuilds lines
// from their positions. It is the fallback for scripts the layout reader
// garbles, and it emits NFC-composed text.
type Strategy struct{}

func New() *Strategy {
	return &Strategy{}
}

func (s *Strategy) Name() domain.StrategyName {
	return domain.StrategyUnicodeText
}

func (s *Strategy) Attempt(ctx context.Context, documentPath string) (result domain.StrategyResult) {
	defer func() {
		if r := recover(); r != nil {
			result = domain.Failed(domain.WrapError(domain.ErrExtractor, string(domain.StrategyUnicodeText), fmt.Errorf("pdf reader panic: %v", r)))
		}
	}()

	lines, err := readLines(ctx, documentPath)
	if err != nil {
		return domain.Failed(domain.WrapError(domain.ErrExtractor, string(domain.StrategyUnicodeText), err))
	}
	return domain.Found(domain.TextBlock(strings.Join(lines, "\n")))
}

func readLines(ctx context.Context, path string) ([]string, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat pdf: %w", err)
	}
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var out []string
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		for _, row := range rows {
			if line := joinRow(row.Content); strings.TrimSpace(line) != "" {
				out = append(out, line)
			}
		}
	}
	return out, nil
}

// joinRow orders glyph runs left to right and rebuilds spacing from the gaps
// between them: a wide gap becomes a column break the splitter recognizes.
func joinRow(texts pdf.TextHorizontal) string {
	runs := make([]pdf.Text, 0, len(texts))
	for _, t := range texts {
		if t.S != "" {
			runs = append(runs, t)
		}
	}
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].X < runs[j].X })

	var b strings.Builder
	end := 0.0
	for i, t := range runs {
		if i > 0 {
			size := t.FontSize
			if size <= 0 {
				size = 10
			}
			gap := t.X - end
			switch {
			case gap >= size*columnGapRatio:
				b.WriteString("   ")
			case gap >= size*wordGapRatio:
				b.WriteByte(' ')
			}
		}
		b.WriteString(t.S)
		end = t.X + t.W
	}
	return clean(b.String())
}

// clean composes to NFC and drops replacement and control characters.
func clean(s string) string {
	s = norm.NFC.String(s)
	return strings.Map(func(r rune) rune {
		switch {
		case r == unicode.ReplacementChar:
			return -1
		case r == '\t':
			return ' '
		case unicode.IsControl(r):
			return -1
		default:
			return r
		}
	}, s)
}
