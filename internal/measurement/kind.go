package measurement

// Kind discriminates the three measurement variants.
type Kind uint8

const (
	Accumulator Kind = iota
	Analog
	Discrete
)

// KindCount is the number of known kinds; valid kinds are [0, KindCount).
const KindCount = 3

// Unknown labels failures that happened before a kind could be determined.
const Unknown Kind = KindCount

var kindNames = [KindCount]string{
	Accumulator: "accumulator",
	Analog:      "analog",
	Discrete:    "discrete",
}

func (k Kind) Valid() bool {
	return k < KindCount
}

func (k Kind) String() string {
	if !k.Valid() {
		return "unknown"
	}
	return kindNames[k]
}

// Kinds returns all known kinds in declaration order.
func Kinds() []Kind {
	return []Kind{Accumulator, Analog, Discrete}
}
