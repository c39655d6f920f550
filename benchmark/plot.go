package benchmark

import (
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// SaveValidationCurve draws validation RMSE against the boosting round with the
// selected round marked, and writes it to path (format from the extension).
func SaveValidationCurve(path, title string, valMSE []float64, best int) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Boosting round"
	p.Y.Label.Text = "Validation RMSE"

	pts := make(plotter.XYs, len(valMSE))
	for i, mse := range valMSE {
		pts[i] = plotter.XY{X: float64(i + 1), Y: math.Sqrt(mse)}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.LineStyle.Width = vg.Points(1.5)
	p.Add(line, plotter.NewGrid())

	if best >= 1 && best <= len(pts) {
		mark, err := plotter.NewScatter(plotter.XYs{pts[best-1]})
		if err != nil {
			return err
		}
		mark.GlyphStyle.Radius = vg.Points(4)
		mark.GlyphStyle.Color = color.RGBA{R: 200, A: 255}
		p.Add(mark)
		p.Legend.Add("best", mark)
	}

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
