package entity

// Analysis types accepted by the public analyze endpoint
const (
	AnalysisFull  = "full"
	AnalysisQuick = "quick"
	AnalysisDeep  = "deep"
)

// Threat levels, most severe first
const (
	ThreatCritical = "critical"
	ThreatHigh     = "high"
	ThreatMedium   = "medium"
	ThreatLow      = "low"
)

// ThreatLevels lists every severity in display order
var ThreatLevels = []string{ThreatCritical, ThreatHigh, ThreatMedium, ThreatLow}

// AnalysisRequest is the input to an email analyzer
type AnalysisRequest struct {
	AccountID    string
	Content      string
	Headers      map[string]string
	AnalysisType string
}

// AnalysisResult is the analyzer's verdict
type AnalysisResult struct {
	ThreatLevel     string                 `json:"threat_level"`
	Confidence      float64                `json:"confidence"`
	Categories      []string               `json:"categories"`
	Details         map[string]interface{} `json:"details"`
	Recommendations []string               `json:"recommendations"`
}
