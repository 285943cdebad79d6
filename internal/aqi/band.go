package aqi

import "airsense/internal/domain"

type BandKey string

const (
	Good               BandKey = "good"
	Moderate           BandKey = "moderate"
	UnhealthySensitive BandKey = "unhealthy_sensitive"
	Unhealthy          BandKey = "unhealthy"
	VeryUnhealthy      BandKey = "very_unhealthy"
	Hazardous          BandKey = "hazardous"
)

// Band is one of the six ordered AQI severity categories.
type Band struct {
	Key            BandKey              `json:"key"`
	Label          string               `json:"label"`
	Min            int                  `json:"min"`
	Max            int                  `json:"max"`
	Message        string               `json:"message"`
	Recommendation string               `json:"recommendation"`
	Color          string               `json:"color"`
	CSSClass       string               `json:"css_class"`
	Priority       []domain.ProductType `json:"priority"`
}

var bands = [...]Band{
	{
		Key:            Good,
		Label:          "Good",
		Min:            0,
		Max:            50,
		Message:        "Air quality is satisfactory. No special precautions needed.",
		Recommendation: "Consider air quality monitors to track changes and indoor plants for additional freshness.",
		Color:          "green",
		CSSClass:       "aqi-good",
		Priority:       []domain.ProductType{domain.ProductPlant, domain.ProductMonitor},
	},
	{
		Key:            Moderate,
		Label:          "Moderate",
		Min:            51,
		Max:            100,
		Message:        "Air quality is acceptable for most people.",
		Recommendation: "Sensitive individuals should consider wearing masks during prolonged outdoor activities. Basic air purifiers recommended for homes.",
		Color:          "yellow",
		CSSClass:       "aqi-moderate",
		Priority:       []domain.ProductType{domain.ProductMask, domain.ProductPlant, domain.ProductMonitor},
	},
	{
		Key:            UnhealthySensitive,
		Label:          "Unhealthy for Sensitive Groups",
		Min:            101,
		Max:            150,
		Message:        "Sensitive groups (children, elderly, respiratory patients) may experience health effects.",
		Recommendation: "N95 masks essential for outdoor activities. HEPA air purifiers strongly recommended for indoor spaces. Consider air quality monitors.",
		Color:          "orange",
		CSSClass:       "aqi-sensitive",
		Priority: []domain.ProductType{
			domain.ProductMask, domain.ProductPurifier, domain.ProductRoomPurifier, domain.ProductMonitor,
		},
	},
	{
		Key:            Unhealthy,
		Label:          "Unhealthy",
		Min:            151,
		Max:            200,
		Message:        "Everyone may begin to experience health effects.",
		Recommendation: "N95/N99 masks mandatory outdoors. Premium air purifiers with HEPA filters essential. Limit outdoor activities. Use car air filters.",
		Color:          "red",
		CSSClass:       "aqi-unhealthy",
		Priority: []domain.ProductType{
			domain.ProductMask, domain.ProductPurifier, domain.ProductRoomPurifier, domain.ProductMonitor, domain.ProductCarFilter,
		},
	},
	{
		Key:            VeryUnhealthy,
		Label:          "Very Unhealthy",
		Min:            201,
		Max:            300,
		Message:        "Health alert: everyone may experience serious health effects.",
		Recommendation: "Stay indoors. Use N99 masks if must go outside. Premium air purifiers running continuously. Seal windows and doors. Monitor indoor AQI.",
		Color:          "purple",
		CSSClass:       "aqi-very-unhealthy",
		Priority: []domain.ProductType{
			domain.ProductPurifier, domain.ProductRoomPurifier, domain.ProductMask, domain.ProductMonitor, domain.ProductCarFilter,
		},
	},
	{
		Key:            Hazardous,
		Label:          "Hazardous",
		Min:            301,
		Max:            500,
		Message:        "Health emergency: entire population is at risk.",
		Recommendation: "Emergency protection required. Avoid all outdoor activities. Multiple air purifiers recommended. N99 masks essential. Seek medical attention if experiencing symptoms.",
		Color:          "maroon",
		CSSClass:       "aqi-hazardous",
		Priority: []domain.ProductType{
			domain.ProductPurifier, domain.ProductRoomPurifier, domain.ProductMask, domain.ProductMonitor, domain.ProductCarFilter, domain.ProductPlant,
		},
	},
}

// Classify returns the band containing index. Values above 300 are
// hazardous, values at or below 50 are good.
func Classify(index int) Band {
	for _, b := range bands[:len(bands)-1] {
		if index <= b.Max {
			return b.clone()
		}
	}
	return bands[len(bands)-1].clone()
}

// Bands returns the six bands in ascending severity.
func Bands() []Band {
	out := make([]Band, len(bands))
	for i, b := range bands {
		out[i] = b.clone()
	}
	return out
}

func (b Band) clone() Band {
	b.Priority = append([]domain.ProductType(nil), b.Priority...)
	return b
}
