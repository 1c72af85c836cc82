// Package report renders a board's win-rate graph as PDF.
package report

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"lizboard/internal/domain/game"
	"lizboard/internal/usecase/winrate"
)

const (
	marginX = 15.0
	marginY = 25.0
	graphW  = 267.0
	graphH  = 150.0
)

// WinratePDF draws black's win-rate per move with tagged moves labelled.
func WinratePDF(w io.Writer, h *game.History) error {
	points := winrate.Series(h)

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 10, title(h))
	pdf.Ln(12)

	pdf.SetDrawColor(160, 160, 160)
	pdf.SetLineWidth(0.2)
	pdf.Rect(marginX, marginY, graphW, graphH, "D")
	pdf.SetFont("Helvetica", "", 8)
	for _, pct := range []float64{0, 25, 50, 75, 100} {
		y := yOf(pct)
		pdf.Line(marginX, y, marginX+graphW, y)
		pdf.Text(marginX-8, y+1, fmt.Sprintf("%.0f%%", pct))
	}

	n := max(len(points)-1, 1)
	xOf := func(s int) float64 {
		return marginX + graphW*float64(s)/float64(n)
	}

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	var prevX, prevY float64
	have := false
	for s, p := range points {
		if p.R == nil {
			have = false
			continue
		}
		x, y := xOf(s), yOf(*p.R)
		if have {
			pdf.Line(prevX, prevY, x, y)
		}
		prevX, prevY, have = x, y, true
	}

	pdf.SetTextColor(200, 0, 0)
	for s, p := range points {
		if p.Tag == "" {
			continue
		}
		y := marginY + graphH + 5
		if p.R != nil {
			y = yOf(*p.R) - 2
		}
		pdf.Text(xOf(s), y, p.Tag)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("winrate pdf: %w", err)
	}
	return pdf.Output(w)
}

func yOf(pct float64) float64 {
	return marginY + graphH*(1-pct/100)
}

func title(h *game.History) string {
	b, w := h.PlayerBlack, h.PlayerWhite
	if b == "" {
		b = "Black"
	}
	if w == "" {
		w = "White"
	}
	return fmt.Sprintf("%s vs %s (%d moves)", b, w, h.Len())
}
