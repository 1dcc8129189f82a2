// Package diagram prints positions as PDF board diagrams.
package diagram

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jung-kurt/gofpdf"

	"omega/internal/board"
	"omega/internal/domain/coord"
	"omega/internal/domain/stone"
)

const (
	cell   = 9.0 // mm between lines
	margin = 20.0
	radius = cell * 0.47
)

var starPoints = []int{3, 9, 15}

type Options struct {
	Title       string
	MoveNumbers bool
	// Heat, when set, shades each point by its value in [0, 1].
	Heat []float64
}

// Render writes a one-page diagram of pos to w.
func Render(w io.Writer, pos *board.Position, opts Options) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	drawPage(pdf, pos, opts)
	return pdf.Output(w)
}

// RenderLine writes one page per position of line, from the first to the
// last index inclusive.
func RenderLine(w io.Writer, line []*board.Position, first, last int, title string) error {
	if first < 0 || last >= len(line) || first > last {
		return fmt.Errorf("positions %d..%d out of %d", first, last, len(line))
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	for i := first; i <= last; i++ {
		drawPage(pdf, line[i], Options{
			Title:       fmt.Sprintf("%s - move %d", title, line[i].MoveNumber),
			MoveNumbers: true,
		})
	}
	return pdf.Output(w)
}

// point converts board coordinates to page coordinates. Row 19 is at the top.
func point(x, y int) (float64, float64) {
	return margin + cell*float64(x), margin + 10 + cell*float64(coord.Size-1-y)
}

func drawPage(pdf *gofpdf.Fpdf, pos *board.Position, opts Options) {
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(margin, margin, opts.Title)

	if opts.Heat != nil {
		drawHeat(pdf, opts.Heat)
	}
	drawGrid(pdf)

	pdf.SetFont("Helvetica", "", 7)
	for i, s := range pos.Stones {
		if !s.IsColor() {
			continue
		}
		x, y := coord.FromIndex(i)
		px, py := point(x, y)
		if s == stone.Black {
			pdf.SetFillColor(0, 0, 0)
			pdf.SetTextColor(255, 255, 255)
		} else {
			pdf.SetFillColor(255, 255, 255)
			pdf.SetTextColor(0, 0, 0)
		}
		pdf.SetDrawColor(0, 0, 0)
		pdf.Circle(px, py, radius, "FD")

		label := ""
		if opts.MoveNumbers && pos.MoveNumberList[i] > 0 {
			label = strconv.Itoa(pos.MoveNumberList[i])
		}
		if label != "" {
			pdf.Text(px-pdf.GetStringWidth(label)/2, py+1.2, label)
		}
	}

	if last := pos.LastMove; last != nil && !opts.MoveNumbers {
		px, py := point(last.X, last.Y)
		pdf.SetDrawColor(200, 0, 0)
		pdf.SetLineWidth(0.5)
		pdf.Circle(px, py, radius/2, "D")
	}
	pdf.SetTextColor(0, 0, 0)
	pdf.SetDrawColor(0, 0, 0)
}

func drawGrid(pdf *gofpdf.Fpdf) {
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.2)
	pdf.SetFont("Helvetica", "", 7)
	for i := 0; i < coord.Size; i++ {
		x0, y0 := point(i, 0)
		x1, y1 := point(i, coord.Size-1)
		pdf.Line(x0, y0, x1, y1)
		pdf.Text(x0-1, y0+radius+4, coord.Name(i, 0)[:1])

		x0, y0 = point(0, i)
		x1, y1 = point(coord.Size-1, i)
		pdf.Line(x0, y0, x1, y1)
		pdf.Text(x0-radius-5, y0+1, strconv.Itoa(i+1))
	}
	pdf.SetFillColor(0, 0, 0)
	for _, x := range starPoints {
		for _, y := range starPoints {
			px, py := point(x, y)
			pdf.Circle(px, py, 0.8, "F")
		}
	}
}

func drawHeat(pdf *gofpdf.Fpdf, heat []float64) {
	for i, v := range heat {
		if v <= 0 {
			continue
		}
		v = min(v, 1)
		x, y := coord.FromIndex(i)
		px, py := point(x, y)
		shade := 255 - int(v*200)
		pdf.SetFillColor(255, shade, shade)
		pdf.Rect(px-cell/2, py-cell/2, cell, cell, "F")
	}
}
