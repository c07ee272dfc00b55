package frequency

import "math/rand/v2"

// The host reserves this band for its own transmitters. Random channels
// that land inside it are moved just below it.
const (
	ReservedMin = 4760
	ReservedMax = 4790
)

// RandomChannel picks a channel in [MinChannel, MaxChannel] outside the
// reserved band. src may be nil to use the global source.
func RandomChannel(src *rand.Rand) int {
	var ch int
	if src == nil {
		ch = rand.IntN(MaxChannel) + MinChannel
	} else {
		ch = src.IntN(MaxChannel) + MinChannel
	}
	if ch >= ReservedMin && ch <= ReservedMax {
		return ReservedMin - 1
	}
	return ch
}
