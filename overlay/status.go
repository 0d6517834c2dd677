package overlay

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	fractal "github.com/marben/fractal_nav"
)

const (
	lineHeight = 14
	margin     = 4
)

// DrawStatus writes lines in the top-left corner of img, white on a one pixel
// black shadow so the text stays readable over any palette.
func DrawStatus(img *image.RGBA, lines ...string) {
	face := basicfont.Face7x13
	shadow := &font.Drawer{Dst: img, Src: image.NewUniform(color.Black), Face: face}
	text := &font.Drawer{Dst: img, Src: image.NewUniform(color.White), Face: face}

	o := img.Bounds().Min
	for i, line := range lines {
		x, y := o.X+margin, o.Y+margin+face.Ascent+i*lineHeight
		shadow.Dot = fixed.P(x+1, y+1)
		shadow.DrawString(line)
		text.Dot = fixed.P(x, y)
		text.DrawString(line)
	}
}

// StatusLines describes a frame in a few short lines.
func StatusLines(info fractal.FrameInfo) []string {
	r := info.Region
	lines := []string{
		fmt.Sprintf("%s  %s  iter %d", info.Kind, info.Scheme, info.MaxIter),
		fmt.Sprintf("re [%.6g, %.6g]", r.Xmin, r.Xmax),
		fmt.Sprintf("im [%.6g, %.6g]", r.Ymin, r.Ymax),
	}
	if info.Preview {
		lines = append(lines, "preview")
	}
	return lines
}
