package session

// UnitSystem selects how lengths and masses are presented. It is a
// process-wide display configuration, deliberately untied to any
// particular tree.
type UnitSystem string

const (
	Metric   UnitSystem = "metric"
	Imperial UnitSystem = "imperial"
)

// Units is an observable unit-system value. Display layers subscribe
// once and reformat on change; the sculpture data itself always stays
// in scene units.
type Units struct {
	value UnitSystem
	subs  []func(UnitSystem)
}

func NewUnits() *Units {
	return &Units{value: Metric}
}

func (u *Units) Get() UnitSystem { return u.value }

// Set changes the unit system and notifies subscribers. Setting the
// current value is a no-op.
func (u *Units) Set(v UnitSystem) {
	if v != Metric && v != Imperial {
		return
	}
	if v == u.value {
		return
	}
	u.value = v
	for _, fn := range u.subs {
		fn(v)
	}
}

func (u *Units) Subscribe(fn func(UnitSystem)) {
	u.subs = append(u.subs, fn)
}

// lengths are scene meters, masses scene kilograms
const (
	feetPerMeter  = 3.28084
	poundsPerKilo = 2.20462
)

// FormatLength converts a scene length into the active system's value
// and unit suffix.
func (u *Units) FormatLength(meters float64) (float64, string) {
	if u.value == Imperial {
		return meters * feetPerMeter, "ft"
	}
	return meters, "m"
}

func (u *Units) FormatMass(kilos float64) (float64, string) {
	if u.value == Imperial {
		return kilos * poundsPerKilo, "lb"
	}
	return kilos, "kg"
}
