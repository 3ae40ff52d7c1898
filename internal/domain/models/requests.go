package models

// Requests for the analysis HTTP endpoints. Defined in domain for reuse by the HTTP and
// WebSocket handlers.

type StatisticsRequest struct {
	Points []PointDTO `json:"points" validate:"dive"`
}

type ForecastRequest struct {
	Points []PointDTO `json:"points" validate:"dive"`
	Steps  int        `json:"steps" default:"7" validate:"gte=1,lte=365"`
}

type InsightsRequest struct {
	Points []PointDTO `json:"points" validate:"required,min=1,dive"`
}

type ProfessionalForecastRequest struct {
	Points  []PointDTO `json:"points" validate:"required,min=1,dive"`
	Horizon int        `json:"horizon" default:"7" validate:"gte=1,lte=365"`
}

type AnalyzeRequest struct {
	Points       []PointDTO `json:"points" validate:"dive"`
	Steps        int        `json:"steps" default:"7" validate:"gte=1,lte=365"`
	AI           bool       `json:"ai"`
	Professional bool       `json:"professional"`
}

type AnalyzeCSVRequest struct {
	Steps        int  `query:"steps" default:"7" validate:"gte=1,lte=365"`
	AI           bool `query:"ai"`
	Professional bool `query:"professional"`
}
