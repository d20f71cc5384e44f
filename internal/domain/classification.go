package domain

// NoDetectionLabel is the sentinel the classifier returns when the image
// yields no actionable finding.
const NoDetectionLabel = "no_detection"

type Detection struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Classification is the image classifier's verdict for one photo.
// Err carries a human-readable marker when the classifier itself failed;
// the pipeline continues either way.
type Classification struct {
	Label      string      `json:"disease"`
	Confidence float64     `json:"confidence"`
	Detections []Detection `json:"raw_detections,omitempty"`
	Err        string      `json:"error,omitempty"`
}

// Detected reports whether the classification holds an actionable finding.
func (c *Classification) Detected() bool {
	return c != nil && c.Err == "" && c.Label != "" && c.Label != NoDetectionLabel
}
