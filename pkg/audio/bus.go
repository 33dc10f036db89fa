// Package audio models the output bus layout and per-source channel routing.
//
// The configured buses form a concatenated channel layout: bus i occupies a
// contiguous channel range in the global output, starting at the sum of the
// channel counts of all buses before it.
package audio

// Bus is a named group of contiguous output channels.
type Bus struct {
	Name     string `yaml:"name" json:"name"`
	Channels int    `yaml:"channels" json:"channels"`
}

// TotalChannels returns the width of the global output in channels.
func TotalChannels(buses []Bus) int {
	total := 0
	for _, b := range buses {
		total += b.Channels
	}
	return total
}

// StartChannel returns the first global output channel of the target bus.
// Buses are matched by name. An unknown bus starts at channel 0.
func StartChannel(buses []Bus, target Bus) int {
	start := 0
	for _, b := range buses {
		if b.Name == target.Name {
			return start
		}
		start += b.Channels
	}
	return 0
}

// BusByName looks up a bus in the configured list.
func BusByName(buses []Bus, name string) (Bus, bool) {
	for _, b := range buses {
		if b.Name == name {
			return b, true
		}
	}
	return Bus{}, false
}
