package plotting

import (
	"fmt"
	"image/color"
	"math"
)

// ramp is a palette.Palette running from blue through green to red at
// constant saturation and lightness.
type ramp []color.Color

func (r ramp) Colors() []color.Color { return r }

// newRamp returns an n-colour ramp. n below 2 is raised to 2.
func newRamp(n int) ramp {
	if n < 2 {
		n = 2
	}
	colors := make(ramp, n)
	for i := 0; i < n; i++ {
		// hue 2/3 is blue, 0 is red
		hue := (2.0 / 3.0) * (1 - float64(i)/float64(n-1))
		r, g, b := hslToRGB(hue, 0.7, 0.5)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

// at picks the ramp colour for v within [lo, hi].
func (r ramp) at(v, lo, hi float64) color.Color {
	if hi <= lo || math.IsNaN(v) {
		return r[len(r)/2]
	}
	k := int(math.Round((v - lo) / (hi - lo) * float64(len(r)-1)))
	if k < 0 {
		k = 0
	}
	if k >= len(r) {
		k = len(r) - 1
	}
	return r[k]
}

// hex formats the ramp for go-echarts visual maps.
func (r ramp) hex() []string {
	out := make([]string, len(r))
	for i, c := range r {
		rgba := color.RGBAModel.Convert(c).(color.RGBA)
		out[i] = fmt.Sprintf("#%02x%02x%02x", rgba.R, rgba.G, rgba.B)
	}
	return out
}

// hslToRGB converts HSL to RGB (0-255 range)
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var rf, gf, bf float64

	if s == 0 {
		rf, gf, bf = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q
		rf = hueToRGB(p, q, h+1.0/3.0)
		gf = hueToRGB(p, q, h)
		bf = hueToRGB(p, q, h-1.0/3.0)
	}

	return uint8(rf * 255), uint8(gf * 255), uint8(bf * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	if t < 1.0/6.0 {
		return p + (q-p)*6*t
	}
	if t < 1.0/2.0 {
		return q
	}
	if t < 2.0/3.0 {
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}
