package writer

import "image/color"

// semanticPalette maps label indices to display colors. Index 0 is the
// background; further labels cycle through the palette.
var semanticPalette = []color.RGBA{
	{R: 0, G: 0, B: 0, A: 255},
	{R: 227, G: 26, B: 28, A: 255},
	{R: 31, G: 120, B: 180, A: 255},
	{R: 51, G: 160, B: 44, A: 255},
	{R: 255, G: 127, B: 0, A: 255},
	{R: 106, G: 61, B: 154, A: 255},
	{R: 177, G: 89, B: 40, A: 255},
	{R: 166, G: 206, B: 227, A: 255},
	{R: 178, G: 223, B: 138, A: 255},
}

// SemanticColor returns the display color for a label index.
func SemanticColor(index uint16) color.RGBA {
	if int(index) < len(semanticPalette) {
		return semanticPalette[index]
	}
	// Wrap past the background entry.
	return semanticPalette[1+int(index-1)%(len(semanticPalette)-1)]
}
