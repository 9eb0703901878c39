// Package export renders a run as a 3x2 panel figure image.
package export

import (
	"bufio"
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgsvg"

	"github.com/san-kum/vesselsim/internal/sim"
	"github.com/san-kum/vesselsim/internal/viz"
)

var ErrUnsupportedFormat = errors.New("export: unsupported figure format")

const (
	FormatPNG = "png"
	FormatSVG = "svg"
)

var (
	figureWidth  = 10 * vg.Inch
	figureHeight = 8 * vg.Inch
	lineColors   = []color.Color{
		color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
		color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
	}
)

// FormatOf maps a file name to a figure format by extension.
func FormatOf(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		return FormatPNG, nil
	case ".svg":
		return FormatSVG, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

func newPlot(p viz.Panel, xs []float64) (*plot.Plot, error) {
	pl := plot.New()
	pl.Title.Text = p.Title
	pl.X.Label.Text = "time (min)"
	pl.Y.Label.Text = p.YLabel
	pl.Add(plotter.NewGrid())

	for i, s := range p.Series {
		if len(s.Values) == 0 {
			continue
		}
		pts := make(plotter.XYs, len(s.Values))
		for j := range s.Values {
			pts[j].X = xs[j]
			pts[j].Y = s.Values[j]
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.Title, err)
		}
		line.LineStyle.Width = vg.Points(1.5)
		line.LineStyle.Color = lineColors[i%len(lineColors)]
		switch s.Style {
		case viz.Dashed:
			line.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
		case viz.Dotted:
			line.LineStyle.Dashes = []vg.Length{vg.Points(1.5), vg.Points(2)}
		}
		pl.Add(line)
		if len(p.Series) > 1 {
			pl.Legend.Add(s.Label, line)
		}
	}
	pl.Legend.Top = true
	return pl, nil
}

// Draw lays out the panels of res on dc.
func Draw(dc draw.Canvas, res *sim.Result) error {
	panels := viz.Panels(res)
	plots := make([][]*plot.Plot, viz.Rows)
	for r := range plots {
		plots[r] = make([]*plot.Plot, viz.Cols)
		for c := range plots[r] {
			pl, err := newPlot(panels[r*viz.Cols+c], res.Times)
			if err != nil {
				return err
			}
			plots[r][c] = pl
		}
	}

	tiles := draw.Tiles{
		Rows:      viz.Rows,
		Cols:      viz.Cols,
		PadX:      vg.Millimeter * 4,
		PadY:      vg.Millimeter * 4,
		PadTop:    vg.Points(4),
		PadBottom: vg.Points(4),
		PadLeft:   vg.Points(4),
		PadRight:  vg.Points(4),
	}

	canvases := plot.Align(plots, tiles, dc)
	for r := range plots {
		for c := range plots[r] {
			plots[r][c].Draw(canvases[r][c])
		}
	}
	return nil
}

// WriteFigure renders res in the given format to w.
func WriteFigure(w io.Writer, format string, res *sim.Result) error {
	if res.Len() == 0 || len(res.Times) != res.Len() {
		return fmt.Errorf("export: result has %d states and %d times", res.Len(), len(res.Times))
	}

	switch format {
	case FormatPNG:
		c := vgimg.NewWith(vgimg.UseWH(figureWidth, figureHeight), vgimg.UseDPI(150))
		if err := Draw(draw.New(c), res); err != nil {
			return err
		}
		_, err := vgimg.PngCanvas{Canvas: c}.WriteTo(w)
		return err
	case FormatSVG:
		c := vgsvg.New(figureWidth, figureHeight)
		if err := Draw(draw.New(c), res); err != nil {
			return err
		}
		_, err := c.WriteTo(w)
		return err
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// SaveFigure writes res to path, choosing the format from its extension.
func SaveFigure(path string, res *sim.Result) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	if err := WriteFigure(bw, format, res); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
