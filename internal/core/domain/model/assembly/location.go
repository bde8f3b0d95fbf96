package assembly

import (
	"time"

	"mfps/internal/pkg/errs"
)

// Location is an assembly line a transport order can be routed to. Every line
// carries an estimated transit time from the parts warehouse, used by the
// transport workflow to simulate the delivery leg.
type Location string

const (
	LineA Location = "ASSEMBLY_LINE_A"
	LineB Location = "ASSEMBLY_LINE_B"
	LineC Location = "ASSEMBLY_LINE_C"
)

var transitMinutes = map[Location]int{
	LineA: 3,
	LineB: 5,
	LineC: 4,
}

// AllLines returns every assembly line in declaration order. The order is
// significant: the line router breaks load ties by picking the first line.
func AllLines() []Location {
	return []Location{LineA, LineB, LineC}
}

// Validate checks that the location is one of the known assembly lines.
func (l Location) Validate() error {
	if _, ok := transitMinutes[l]; !ok {
		return errs.NewValueIsInvalidError("location")
	}
	return nil
}

// TransitTime returns the estimated travel time from the parts warehouse to
// the line.
func (l Location) TransitTime() time.Duration {
	return time.Duration(transitMinutes[l]) * time.Minute
}

func (l Location) String() string {
	return string(l)
}

// LocationFromString parses a wire value into a Location.
func LocationFromString(raw string) (Location, error) {
	l := Location(raw)
	if err := l.Validate(); err != nil {
		return "", err
	}
	return l, nil
}
