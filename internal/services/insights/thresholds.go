package insights

// Classification thresholds. Values are part of the engine's observable behavior.
const (
	TrendUpMultiplier   = 1.05
	TrendDownMultiplier = 0.95

	VolatilityHighCoV     = 0.30
	VolatilityModerateCoV = 0.15

	OutlierIQRMultiplier = 1.5
	LowerQuartile        = 0.25
	UpperQuartile        = 0.75

	ConsistencyHighRatio     = 0.10
	ConsistencyModerateRatio = 0.20

	SeasonalityMinPoints   = 14
	SeasonalityLag         = 7
	SeasonalityMaxWindow   = 20
	SeasonalityCorrelation = 0.3

	StationarityMinPoints     = 10
	StationaritySegments      = 3
	StationarityVarianceRatio = 2.0

	CyclicalityMinPoints = 20
	CyclesHighRate       = 0.3
	CyclesModerateRate   = 0.1

	// Recommendation triggers.
	RecommendMinPoints     = 30
	RecommendOutlierRatio  = 0.10
	RecommendSkewMagnitude = 1.0

	// Summary shape descriptor.
	SkewNormalBand = 0.5
)
