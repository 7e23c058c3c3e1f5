package models

import "time"

// Confidence represents the confidence level of a reflection result
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Significance tags a correlation that passed the scan thresholds
type Significance string

const (
	SignificanceHigh   Significance = "high"
	SignificanceMedium Significance = "medium"
)

// Direction represents the direction of a correlation or trend
type Direction string

const (
	DirectionPositive Direction = "positive"
	DirectionNegative Direction = "negative"
	DirectionNeutral  Direction = "neutral"
)

// Trend values for metric summaries
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
)

// CorrelationResult holds the result of a correlation calculation
type CorrelationResult struct {
	MetricX      string       `json:"metric_x" yaml:"metric_x"`
	MetricY      string       `json:"metric_y" yaml:"metric_y"`
	Coefficient  float64      `json:"coefficient" yaml:"coefficient"` // Pearson r value (-1 to 1)
	SampleSize   int          `json:"sample_size" yaml:"sample_size"` // Number of logs with both metrics present
	Significance Significance `json:"significance" yaml:"significance"`
	Direction    Direction    `json:"direction" yaml:"direction"`
	Description  string       `json:"description" yaml:"description"`
}

// SimilarDay pairs a historical log with its distance to the target day
type SimilarDay struct {
	Log      DailyLog `json:"log" yaml:"log"`
	Distance float64  `json:"distance" yaml:"distance"`
}

// MetricSummary holds descriptive statistics for one metric over a log set
type MetricSummary struct {
	Metric string  `json:"metric" yaml:"metric"`
	Count  int     `json:"count" yaml:"count"`
	Mean   float64 `json:"mean" yaml:"mean"`
	StdDev float64 `json:"std_dev" yaml:"std_dev"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
	Slope  float64 `json:"slope" yaml:"slope"` // change per day
	Trend  string  `json:"trend" yaml:"trend"` // "increasing", "decreasing", "stable"
}

// CorrelationResponse is the API response for a single metric pair.
// Correlation is nil when no claim can be made (too few paired logs or no variance).
type CorrelationResponse struct {
	MetricX     string             `json:"metric_x"`
	MetricY     string             `json:"metric_y"`
	Defined     bool               `json:"defined"`
	Correlation *CorrelationResult `json:"correlation"`
}

// DashboardResponse is the API response containing all numeric insights
type DashboardResponse struct {
	Correlations   []CorrelationResult `json:"correlations"`
	SimilarDays    []SimilarDay        `json:"similar_days"`
	Summaries      []MetricSummary     `json:"summaries"`
	TargetLogID    string              `json:"target_log_id,omitempty"`
	ComputedAt     time.Time           `json:"computed_at"`
	DataSufficient bool                `json:"data_sufficient"`
	MinDaysNeeded  int                 `json:"min_days_needed,omitempty"`
	TotalDays      int                 `json:"total_days"`
}

// CorrelationQuery selects one metric pair
type CorrelationQuery struct {
	MetricX    string `form:"x" binding:"required,max=64"`
	MetricY    string `form:"y" binding:"required,max=64"`
	WindowDays int    `form:"window_days" binding:"omitempty,min=1,max=365"`
}

// CorrelationScanQuery configures a scan over every metric pair. An empty
// Metrics list scans every metric discovered in the logs.
type CorrelationScanQuery struct {
	Metrics       []string `form:"metrics" collection_format:"csv" binding:"omitempty,max=32,dive,required,max=64"`
	MinSampleSize int      `form:"min_sample_size" binding:"omitempty,min=2,max=1000"`
	Threshold     *float64 `form:"threshold" binding:"omitempty,gte=0,lte=1"` // 0 reports every pair
	WindowDays    int      `form:"window_days" binding:"omitempty,min=1,max=365"`
}

// SimilarDaysQuery selects a target log and the metrics to compare. An empty
// LogID targets the most recent log.
type SimilarDaysQuery struct {
	LogID   string   `form:"log_id" binding:"omitempty,uuid"`
	Metrics []string `form:"metrics" collection_format:"csv" binding:"omitempty,max=32,dive,required,max=64"`
	K       int      `form:"k" binding:"omitempty,min=1,max=50"`
}

// SummaryQuery selects the metrics and span of a summary
type SummaryQuery struct {
	Metrics    []string `form:"metrics" collection_format:"csv" binding:"omitempty,max=32,dive,required,max=64"`
	WindowDays int      `form:"window_days" binding:"omitempty,min=1,max=365"`
}

// SimilarDaysResponse is the API response for a similarity search
type SimilarDaysResponse struct {
	TargetLogID string       `json:"target_log_id"`
	Metrics     []string     `json:"metrics"`
	SimilarDays []SimilarDay `json:"similar_days"`
}
