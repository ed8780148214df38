package entity

// History modes for threat charts
const (
	ModeWeekly  = "weekly"
	ModeMonthly = "monthly"
	ModeYearly  = "yearly"
)

// ThreatPoint is one bucket of a threat history series
type ThreatPoint struct {
	Label    string `json:"label"`
	Critical int64  `json:"critical"`
	High     int64  `json:"high"`
	Medium   int64  `json:"medium"`
	Low      int64  `json:"low"`
}

// Add increments the counter for level. Unknown levels are ignored.
func (p *ThreatPoint) Add(level string, n int64) {
	switch level {
	case ThreatCritical:
		p.Critical += n
	case ThreatHigh:
		p.High += n
	case ThreatMedium:
		p.Medium += n
	case ThreatLow:
		p.Low += n
	}
}

func (p ThreatPoint) Total() int64 {
	return p.Critical + p.High + p.Medium + p.Low
}

// CategoryCount is a per-category total
type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// DashboardStats are the headline counters with month over month change
type DashboardStats struct {
	EmailsAnalyzed        int64  `json:"emailsAnalyzed"`
	EmailsAnalyzedChange  string `json:"emailsAnalyzedChange"`
	ThreatsDetected       int64  `json:"threatsDetected"`
	ThreatsDetectedChange string `json:"threatsDetectedChange"`
	ThreatRate            string `json:"threatRate"`
}

// ThreatReport is the content of a periodic threat summary email
type ThreatReport struct {
	AccountName  string
	Period       string
	Stats        DashboardStats
	Categories   []CategoryCount
	DashboardURL string
}
