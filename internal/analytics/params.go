package analytics

import (
	"errors"
	"fmt"
)

// Params holds every tunable heuristic of the engine. The defaults are the
// dashboard's historical constants; none of them are empirically validated.
type Params struct {
	// TrendEpsilon is the slope (and two-point delta) below which a series
	// is considered stable.
	TrendEpsilon float64 `env:"TREND_EPSILON" envDefault:"0.01" toml:"trend_epsilon"`

	// MinTrendPoints is the series length below which trends are always stable.
	MinTrendPoints int `env:"MIN_TREND_POINTS" envDefault:"3" toml:"min_trend_points"`

	// RollingWindow is the number of periods the rolling average of a trend
	// series trails over.
	RollingWindow int `env:"ROLLING_WINDOW" envDefault:"3" toml:"rolling_window"`

	Forecast ForecastParams `envPrefix:"FORECAST_" toml:"forecast"`
	Risk     RiskThresholds `envPrefix:"RISK_" toml:"risk"`
}

// ForecastParams controls projection growth and confidence decay.
type ForecastParams struct {
	GrowthFactor         float64 `env:"GROWTH_FACTOR" envDefault:"1.05" toml:"growth_factor"`
	DeclineFactor        float64 `env:"DECLINE_FACTOR" envDefault:"0.95" toml:"decline_factor"`
	BaseConfidence       float64 `env:"BASE_CONFIDENCE" envDefault:"90" toml:"base_confidence"`
	ConfidenceStep       float64 `env:"CONFIDENCE_STEP" envDefault:"8" toml:"confidence_step"`
	MinConfidence        float64 `env:"MIN_CONFIDENCE" envDefault:"50" toml:"min_confidence"`
	HistoricalConfidence float64 `env:"HISTORICAL_CONFIDENCE" envDefault:"95" toml:"historical_confidence"`
	HistoricalStep       float64 `env:"HISTORICAL_STEP" envDefault:"2" toml:"historical_step"`
	MinHistory           int     `env:"MIN_HISTORY" envDefault:"3" toml:"min_history"`
	MaxHorizon           int     `env:"MAX_HORIZON" envDefault:"24" toml:"max_horizon"`
}

// RiskThresholds configures the risk rules. Percent values are on a 0-100
// scale; rating values are in stars.
type RiskThresholds struct {
	Window int `env:"WINDOW" envDefault:"3" toml:"window"`

	RatingDrop           float64 `env:"RATING_DROP" envDefault:"0.3" toml:"rating_drop"`
	RatingCriticalDrop   float64 `env:"RATING_CRITICAL_DROP" envDefault:"0.6" toml:"rating_critical_drop"`
	RatingMaxProbability float64 `env:"RATING_MAX_PROBABILITY" envDefault:"90" toml:"rating_max_probability"`

	VolumeDropPercent    float64 `env:"VOLUME_DROP_PERCENT" envDefault:"20" toml:"volume_drop_percent"`
	VolumeHighPercent    float64 `env:"VOLUME_HIGH_PERCENT" envDefault:"40" toml:"volume_high_percent"`
	VolumeMaxProbability float64 `env:"VOLUME_MAX_PROBABILITY" envDefault:"85" toml:"volume_max_probability"`

	SentimentDropPoints     float64 `env:"SENTIMENT_DROP_POINTS" envDefault:"15" toml:"sentiment_drop_points"`
	SentimentHighPoints     float64 `env:"SENTIMENT_HIGH_POINTS" envDefault:"25" toml:"sentiment_high_points"`
	SentimentMaxProbability float64 `env:"SENTIMENT_MAX_PROBABILITY" envDefault:"80" toml:"sentiment_max_probability"`

	// SeasonalDeficit is the star gap between the all-time average and the
	// reference month's historical average above which seasonal_risk fires.
	SeasonalDeficit        float64 `env:"SEASONAL_DEFICIT" envDefault:"0.6" toml:"seasonal_deficit"`
	SeasonalMaxProbability float64 `env:"SEASONAL_MAX_PROBABILITY" envDefault:"70" toml:"seasonal_max_probability"`
}

// DefaultParams returns the documented defaults.
func DefaultParams() Params {
	return Params{
		TrendEpsilon:   0.01,
		MinTrendPoints: 3,
		RollingWindow:  3,
		Forecast: ForecastParams{
			GrowthFactor:         1.05,
			DeclineFactor:        0.95,
			BaseConfidence:       90,
			ConfidenceStep:       8,
			MinConfidence:        50,
			HistoricalConfidence: 95,
			HistoricalStep:       2,
			MinHistory:           3,
			MaxHorizon:           24,
		},
		Risk: RiskThresholds{
			Window:                  3,
			RatingDrop:              0.3,
			RatingCriticalDrop:      0.6,
			RatingMaxProbability:    90,
			VolumeDropPercent:       20,
			VolumeHighPercent:       40,
			VolumeMaxProbability:    85,
			SentimentDropPoints:     15,
			SentimentHighPoints:     25,
			SentimentMaxProbability: 80,
			SeasonalDeficit:         0.6,
			SeasonalMaxProbability:  70,
		},
	}
}

// Validate checks that the parameters are internally consistent.
func (p Params) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(p.TrendEpsilon >= 0, "trend_epsilon must be >= 0, got %v", p.TrendEpsilon)
	check(p.MinTrendPoints >= 2, "min_trend_points must be >= 2, got %d", p.MinTrendPoints)
	check(p.RollingWindow >= 1, "rolling_window must be >= 1, got %d", p.RollingWindow)

	f := p.Forecast
	check(f.GrowthFactor >= 1, "forecast.growth_factor must be >= 1, got %v", f.GrowthFactor)
	check(f.DeclineFactor > 0 && f.DeclineFactor <= 1, "forecast.decline_factor must be in (0,1], got %v", f.DeclineFactor)
	check(f.MinConfidence >= 0 && f.MinConfidence <= f.BaseConfidence && f.BaseConfidence <= 100,
		"forecast confidences must satisfy 0 <= min <= base <= 100")
	check(f.HistoricalConfidence >= f.MinConfidence && f.HistoricalConfidence <= 100,
		"forecast.historical_confidence must be in [min_confidence,100]")
	check(f.ConfidenceStep >= 0 && f.HistoricalStep >= 0, "confidence steps must be >= 0")
	check(f.MinHistory >= 1, "forecast.min_history must be >= 1, got %d", f.MinHistory)
	check(f.MaxHorizon >= 1, "forecast.max_horizon must be >= 1, got %d", f.MaxHorizon)

	r := p.Risk
	check(r.Window >= 2, "risk.window must be >= 2, got %d", r.Window)
	check(r.RatingDrop > 0 && r.RatingCriticalDrop >= r.RatingDrop, "risk rating thresholds must satisfy 0 < drop <= critical_drop")
	check(r.VolumeDropPercent > 0 && r.VolumeHighPercent >= r.VolumeDropPercent, "risk volume thresholds must satisfy 0 < drop <= high")
	check(r.SentimentDropPoints > 0 && r.SentimentHighPoints >= r.SentimentDropPoints, "risk sentiment thresholds must satisfy 0 < drop <= high")
	check(r.SeasonalDeficit > 0, "risk.seasonal_deficit must be > 0")

	return errors.Join(errs...)
}
