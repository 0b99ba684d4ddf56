package audio

// remixMono averages interleaved channels into one.
func remixMono(data []int, channels int) []int {
	if channels <= 1 {
		return data
	}
	frames := len(data) / channels
	out := make([]int, frames)
	for i := 0; i < frames; i++ {
		sum := 0
		for c := 0; c < channels; c++ {
			sum += data[i*channels+c]
		}
		out[i] = sum / channels
	}
	return out
}

// rescaleWidth brings samples of other bit depths into 16-bit range.
// 8-bit WAV is unsigned with a 128 bias.
func rescaleWidth(data []int, bitDepth int) []int {
	switch {
	case bitDepth == 16 || bitDepth == 0:
		return data
	case bitDepth == 8:
		out := make([]int, len(data))
		for i, v := range data {
			out[i] = (v - 128) << 8
		}
		return out
	case bitDepth > 16:
		shift := uint(bitDepth - 16)
		out := make([]int, len(data))
		for i, v := range data {
			out[i] = v >> shift
		}
		return out
	default:
		shift := uint(16 - bitDepth)
		out := make([]int, len(data))
		for i, v := range data {
			out[i] = v << shift
		}
		return out
	}
}

// resampleLinear converts between sample rates by linear interpolation.
func resampleLinear(data []int, from, to int) []int {
	if from == to || from <= 0 || to <= 0 || len(data) == 0 {
		return data
	}
	outLen := int(int64(len(data)) * int64(to) / int64(from))
	if outLen == 0 {
		return nil
	}
	out := make([]int, outLen)
	ratio := float64(from) / float64(to)
	for i := range out {
		pos := float64(i) * ratio
		j := int(pos)
		if j >= len(data)-1 {
			out[i] = data[len(data)-1]
			continue
		}
		frac := pos - float64(j)
		out[i] = int(float64(data[j])*(1-frac) + float64(data[j+1])*frac)
	}
	return out
}
