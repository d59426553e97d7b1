package domain

// Default tab names.
const (
	DefaultRawTab         = "buoy_data"
	DefaultLongboardTab   = "Longboard Alert"
	DefaultShortboardTab  = "Shortboard Alert"
	DefaultShortPeriodTab = "Short Period Alerts"
)

// Tabs names the raw data tab and one alert tab per rule category.
type Tabs struct {
	Raw         string `yaml:"raw" json:"raw"`
	Longboard   string `yaml:"longboard" json:"longboard"`
	Shortboard  string `yaml:"shortboard" json:"shortboard"`
	ShortPeriod string `yaml:"short_period" json:"short_period"`
}

// DefaultTabs returns the stock tab names.
func DefaultTabs() Tabs {
	return Tabs{
		Raw:         DefaultRawTab,
		Longboard:   DefaultLongboardTab,
		Shortboard:  DefaultShortboardTab,
		ShortPeriod: DefaultShortPeriodTab,
	}
}

// Alert returns the alert tab for a category.
func (t Tabs) Alert(c Category) string {
	switch c {
	case Longboard:
		return t.Longboard
	case Shortboard:
		return t.Shortboard
	case ShortPeriod:
		return t.ShortPeriod
	default:
		return ""
	}
}

// Merge returns t with every non-empty name of override applied.
func (t Tabs) Merge(override Tabs) Tabs {
	if override.Raw != "" {
		t.Raw = override.Raw
	}
	if override.Longboard != "" {
		t.Longboard = override.Longboard
	}
	if override.Shortboard != "" {
		t.Shortboard = override.Shortboard
	}
	if override.ShortPeriod != "" {
		t.ShortPeriod = override.ShortPeriod
	}
	return t
}
