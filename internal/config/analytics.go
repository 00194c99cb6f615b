package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/spice-dashboard/internal/common"
	"github.com/Veraticus/spice-dashboard/internal/forecast"
	"github.com/Veraticus/spice-dashboard/internal/report"
)

// Analytics holds the tunable parameters of the analytics engine.
type Analytics struct {
	Location            *time.Location
	InvestmentKeywords  []string
	LowBalanceThreshold float64
	ConfidenceMargin    float64
	TrendDays           int
	HorizonDays         int
	MinOccurrences      int
	TopN                int
}

// DefaultAnalytics returns the stock engine parameters.
func DefaultAnalytics() Analytics {
	opts := forecast.DefaultOptions()
	return Analytics{
		Location:            time.Local,
		InvestmentKeywords:  report.DefaultInvestmentKeywords,
		LowBalanceThreshold: opts.LowBalanceThreshold,
		ConfidenceMargin:    opts.ConfidenceMargin,
		TrendDays:           opts.TrendDays,
		HorizonDays:         forecast.DefaultHorizonDays,
		MinOccurrences:      opts.MinOccurrences,
		TopN:                5,
	}
}

// ForecastOptions converts the settings into forecaster options.
func (a Analytics) ForecastOptions() forecast.Options {
	return forecast.Options{
		LowBalanceThreshold: a.LowBalanceThreshold,
		ConfidenceMargin:    a.ConfidenceMargin,
		TrendDays:           a.TrendDays,
		MinOccurrences:      a.MinOccurrences,
	}
}

// Validate rejects settings the engine cannot work with.
func (a Analytics) Validate() error {
	switch {
	case a.TrendDays <= 0:
		return fmt.Errorf("%w: analytics.trend_days must be positive", common.ErrInvalidConfig)
	case a.HorizonDays <= 0:
		return fmt.Errorf("%w: analytics.horizon_days must be positive", common.ErrInvalidConfig)
	case a.ConfidenceMargin < 0:
		return fmt.Errorf("%w: analytics.confidence_margin cannot be negative", common.ErrInvalidConfig)
	case a.MinOccurrences < 2:
		return fmt.Errorf("%w: analytics.min_occurrences must be at least 2", common.ErrInvalidConfig)
	case a.TopN <= 0:
		return fmt.Errorf("%w: analytics.top_n must be positive", common.ErrInvalidConfig)
	}
	return nil
}

// LoadAnalytics reads analytics.* keys from Viper over the defaults.
func LoadAnalytics() (Analytics, error) {
	a := DefaultAnalytics()

	if viper.IsSet("analytics.low_balance_threshold") {
		a.LowBalanceThreshold = viper.GetFloat64("analytics.low_balance_threshold")
	}
	if viper.IsSet("analytics.confidence_margin") {
		a.ConfidenceMargin = viper.GetFloat64("analytics.confidence_margin")
	}
	if viper.IsSet("analytics.trend_days") {
		a.TrendDays = viper.GetInt("analytics.trend_days")
	}
	if viper.IsSet("analytics.horizon_days") {
		a.HorizonDays = viper.GetInt("analytics.horizon_days")
	}
	if viper.IsSet("analytics.min_occurrences") {
		a.MinOccurrences = viper.GetInt("analytics.min_occurrences")
	}
	if viper.IsSet("analytics.top_n") {
		a.TopN = viper.GetInt("analytics.top_n")
	}
	if kw := viper.GetStringSlice("analytics.investment_keywords"); len(kw) > 0 {
		a.InvestmentKeywords = kw
	}
	if tz := viper.GetString("analytics.timezone"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return Analytics{}, fmt.Errorf("%w: analytics.timezone: %v", common.ErrInvalidConfig, err)
		}
		a.Location = loc
	}

	if err := a.Validate(); err != nil {
		return Analytics{}, err
	}
	return a, nil
}
