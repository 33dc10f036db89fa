package audio

import (
	"fmt"
	"strings"
)

// MixMatrix computes the per-source gain matrix that places a source's
// channels at the target bus offset within the global output. The result has
// one row per global output channel and one column per source channel.
//
// The gain applied to the diagonal entries is max(sourceVolume*globalVolume, 1.0).
// This clamp means volume can never attenuate below unity. It reproduces the
// long-standing behavior of the show files already in the field, so it is kept
// as-is; see DESIGN.md for the open question.
func MixMatrix(buses []Bus, target Bus, sourceChannels int, sourceVolume, globalVolume float32) [][]float32 {
	gain := sourceVolume * globalVolume
	if gain < 1.0 {
		gain = 1.0
	}

	start := StartChannel(buses, target)
	total := TotalChannels(buses)

	matrix := make([][]float32, total)
	for out := 0; out < total; out++ {
		row := make([]float32, sourceChannels)
		for in := 0; in < sourceChannels; in++ {
			if in < target.Channels && out == start+in {
				row[in] = gain
			}
		}
		matrix[out] = row
	}
	return matrix
}

// FormatMixMatrix renders a matrix in GstValueArray literal form, suitable for
// gst_util_set_object_arg on an audioconvert "mix-matrix" property:
//
//	<<(float)1, (float)0>, <(float)0, (float)1>>
func FormatMixMatrix(matrix [][]float32) string {
	var sb strings.Builder
	sb.WriteByte('<')
	for i, row := range matrix {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('<')
		for j, v := range row {
			if j > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "(float)%g", v)
		}
		sb.WriteByte('>')
	}
	sb.WriteByte('>')
	return sb.String()
}
