package game

// Quality grades a resolved note by how far the onset landed from the
// scheduled beat.
type Quality int

const (
	Perfect Quality = iota
	Good
	Okay
	Early
	Late
	Miss
)

var qualityNames = [...]string{"perfect", "good", "ok", "early", "late", "miss"}

func (q Quality) String() string {
	if q < Perfect || q > Miss {
		return "unknown"
	}
	return qualityNames[q]
}

// BaseScore is the pre-multiplier score for a hit of this quality.
func (q Quality) BaseScore() int {
	switch q {
	case Perfect:
		return 100
	case Good:
		return 50
	case Okay:
		return 25
	case Early, Late:
		return 10
	}
	return 0
}

// Windowed reports whether the hit landed inside the detection window,
// which is what keeps a streak alive.
func (q Quality) Windowed() bool {
	return q == Perfect || q == Good || q == Okay
}

func ParseQuality(s string) (Quality, bool) {
	for i, name := range qualityNames {
		if name == s {
			return Quality(i), true
		}
	}
	return Miss, false
}
