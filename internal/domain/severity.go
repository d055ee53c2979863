package domain

import "fmt"

// SeverityBand is one of eight ordered choropleth classes for a regional case total.
type SeverityBand int

const (
	BandNoData SeverityBand = iota
	BandOver0
	BandOver10
	BandOver50
	BandOver100
	BandOver500
	BandOver1000
	BandOver5000
)

var bandLabels = [...]string{
	BandNoData:   "no-data",
	BandOver0:    ">0",
	BandOver10:   ">10",
	BandOver50:   ">50",
	BandOver100:  ">100",
	BandOver500:  ">500",
	BandOver1000: ">1000",
	BandOver5000: ">5000",
}

// bandColors is the sequential YlOrRd palette used for map fills, plus grey for no data.
var bandColors = [...]string{
	BandNoData:   "#E0E0E0",
	BandOver0:    "#FED976",
	BandOver10:   "#FEB24C",
	BandOver50:   "#FD8D3C",
	BandOver100:  "#FC4E2A",
	BandOver500:  "#E31A1C",
	BandOver1000: "#BD0026",
	BandOver5000: "#800026",
}

// Classify maps a case count to its band. Thresholds are exclusive lower
// bounds evaluated highest first, so exactly 1000 cases lands in ">500".
// Counts of zero or below have no data.
func Classify(cases int) SeverityBand {
	switch {
	case cases > 5000:
		return BandOver5000
	case cases > 1000:
		return BandOver1000
	case cases > 500:
		return BandOver500
	case cases > 100:
		return BandOver100
	case cases > 50:
		return BandOver50
	case cases > 10:
		return BandOver10
	case cases > 0:
		return BandOver0
	default:
		return BandNoData
	}
}

// Bands lists every band from lowest to highest, for legends.
func Bands() []SeverityBand {
	out := make([]SeverityBand, len(bandLabels))
	for i := range bandLabels {
		out[i] = SeverityBand(i)
	}
	return out
}

func (b SeverityBand) valid() bool {
	return b >= BandNoData && b <= BandOver5000
}

func (b SeverityBand) String() string {
	if !b.valid() {
		return fmt.Sprintf("SeverityBand(%d)", int(b))
	}
	return bandLabels[b]
}

// Color returns the fill color for the band.
func (b SeverityBand) Color() string {
	if !b.valid() {
		return bandColors[BandNoData]
	}
	return bandColors[b]
}

// MarshalText encodes the band as its label.
func (b SeverityBand) MarshalText() ([]byte, error) {
	if !b.valid() {
		return nil, fmt.Errorf("invalid severity band %d", int(b))
	}
	return []byte(bandLabels[b]), nil
}

// UnmarshalText decodes a band label.
func (b *SeverityBand) UnmarshalText(text []byte) error {
	for i, label := range bandLabels {
		if label == string(text) {
			*b = SeverityBand(i)
			return nil
		}
	}
	return fmt.Errorf("unknown severity band %q", text)
}
