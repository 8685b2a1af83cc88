// Package layout places tables on a grid and assigns palette colors by table position.
package layout

const (
	Columns = 3
	Margin  = 50.0
	XStride = 450.0
	YStride = 400.0
)

// Palette is the fixed color cycle for tables
var Palette = [...]string{
	"#175e7a",
	"#7c4af0",
	"#ff9159",
	"#32c9b0",
	"#ffe159",
	"#ff4f81",
	"#89e667",
	"#a751e8",
}

// Position returns the grid coordinates of the table at zero-based position i
func Position(i int) (x, y float64) {
	x = float64(i%Columns)*XStride + Margin
	y = float64(i/Columns)*YStride + Margin
	return x, y
}

// Color returns the palette color of the table at zero-based position i
func Color(i int) string {
	return Palette[i%len(Palette)]
}
