package taxonomy

// Undertone is the warm/cool bias of skin color.
type Undertone string

const (
	Warm        Undertone = "warm"
	WarmNeutral Undertone = "warm-neutral"
	Neutral     Undertone = "neutral"
	CoolNeutral Undertone = "cool-neutral"
	Cool        Undertone = "cool"
)

// Undertones lists every undertone label, warm to cool.
var Undertones = []Undertone{Warm, WarmNeutral, Neutral, CoolNeutral, Cool}

// undertoneCompat maps an expected undertone to the observed values that
// count as a partial match. The lookup is expected -> observed.
var undertoneCompat = map[Undertone][]Undertone{
	Warm:        {WarmNeutral},
	Cool:        {CoolNeutral},
	Neutral:     {WarmNeutral, CoolNeutral},
	WarmNeutral: {Warm, Neutral},
	CoolNeutral: {Cool, Neutral},
}

// Valid reports whether u is one of the five undertone labels.
func (u Undertone) Valid() bool {
	_, ok := undertoneCompat[u]
	return ok
}

// CompatibleWith reports whether observed is a partial match for an entry
// expecting u.
func (u Undertone) CompatibleWith(observed Undertone) bool {
	for _, c := range undertoneCompat[u] {
		if c == observed {
			return true
		}
	}
	return false
}

// Depth is the perceived lightness of skin on an ordered 5-level scale.
type Depth string

const (
	Light       Depth = "light"
	LightMedium Depth = "light-medium"
	Medium      Depth = "medium"
	MediumDeep  Depth = "medium-deep"
	Deep        Depth = "deep"
)

// DepthScale is ordered light to deep; adjacency on it matters for scoring.
var DepthScale = []Depth{Light, LightMedium, Medium, MediumDeep, Deep}

// Index returns the position of d on DepthScale, or -1.
func (d Depth) Index() int {
	for i, v := range DepthScale {
		if v == d {
			return i
		}
	}
	return -1
}

// Valid reports whether d is on the depth scale.
func (d Depth) Valid() bool { return d.Index() >= 0 }

// AdjacentTo reports whether d and o are exactly one step apart.
// Unknown labels are never adjacent.
func (d Depth) AdjacentTo(o Depth) bool {
	return adjacent(d.Index(), o.Index())
}

// Contrast is the skin/hair luminance difference on an ordered 5-level scale.
type Contrast string

const (
	LowContrast        Contrast = "low"
	LowMediumContrast  Contrast = "low-medium"
	MediumContrast     Contrast = "medium"
	MediumHighContrast Contrast = "medium-high"
	HighContrast       Contrast = "high"
)

// ContrastScale is ordered low to high.
var ContrastScale = []Contrast{LowContrast, LowMediumContrast, MediumContrast, MediumHighContrast, HighContrast}

// Index returns the position of c on ContrastScale, or -1.
func (c Contrast) Index() int {
	for i, v := range ContrastScale {
		if v == c {
			return i
		}
	}
	return -1
}

// Valid reports whether c is on the contrast scale.
func (c Contrast) Valid() bool { return c.Index() >= 0 }

// AdjacentTo reports whether c and o are exactly one step apart.
func (c Contrast) AdjacentTo(o Contrast) bool {
	return adjacent(c.Index(), o.Index())
}

func adjacent(a, b int) bool {
	if a < 0 || b < 0 {
		return false
	}
	return a-b == 1 || b-a == 1
}

// Season groups subtypes.
type Season string

const (
	Spring Season = "spring"
	Summer Season = "summer"
	Autumn Season = "autumn"
	Winter Season = "winter"
)

// Seasons lists the seasons in calendar order.
var Seasons = []Season{Spring, Summer, Autumn, Winter}

// Valid reports whether s is a known season.
func (s Season) Valid() bool {
	switch s {
	case Spring, Summer, Autumn, Winter:
		return true
	}
	return false
}
