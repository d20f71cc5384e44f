package domain

// Forecast mirrors the open-meteo hourly forecast payload.
type Forecast struct {
	Latitude  float64        `json:"latitude"`
	Longitude float64        `json:"longitude"`
	Timezone  string         `json:"timezone,omitempty"`
	Hourly    HourlyForecast `json:"hourly"`
}

type HourlyForecast struct {
	Time               []string  `json:"time,omitempty"`
	Temperature2M      []float64 `json:"temperature_2m,omitempty"`
	RelativeHumidity2M []float64 `json:"relativehumidity_2m,omitempty"`
	Precipitation      []float64 `json:"precipitation,omitempty"`
}

// Empty reports whether the forecast carries no hourly data at all.
func (f *Forecast) Empty() bool {
	if f == nil {
		return true
	}
	h := f.Hourly
	return len(h.Temperature2M) == 0 && len(h.RelativeHumidity2M) == 0 && len(h.Precipitation) == 0
}
