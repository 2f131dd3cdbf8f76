package core

type (
	// Filter narrows aggregate queries. Zero values mean "no filter".
	Filter struct {
		Category1 string
		Staff     string
		Start     Date
		End       Date
	}

	// Summary is the top-level KPI block for the dashboard.
	Summary struct {
		TotalHours     float64 `json:"total_hours"`
		TotalCost      int64   `json:"total_cost"`
		EstimatedCost  float64 `json:"estimated_cost"`
		TaskTypes      int     `json:"task_types"`
		ReductionRatio float64 `json:"reduction_ratio"`
	}

	// CategoryHours is one row of the category breakdown.
	CategoryHours struct {
		Category string  `json:"category"`
		Hours    float64 `json:"hours"`
	}

	// DailySeries is a chart-ready per-category series over dates.
	DailySeries struct {
		Label string    `json:"label"`
		Data  []float64 `json:"data"`
		Color string    `json:"backgroundColor"`
	}

	DailyBreakdown struct {
		Labels   []string      `json:"labels"`
		Datasets []DailySeries `json:"datasets"`
	}

	// RankingRow is one work item in the time-consumption ranking,
	// classified and enriched.
	RankingRow struct {
		WorkName          string   `json:"work_name"`
		Category          string   `json:"category"`
		OriginalCategory  string   `json:"original_category"`
		Hours             float64  `json:"hours"`
		Quantity          float64  `json:"quantity"`
		Ratio             float64  `json:"ratio"`
		Cost              int64    `json:"cost"`
		EstimatedCost     float64  `json:"estimated_cost"`
		UnitType          UnitType `json:"unit_type"`
		UnitSuffix        string   `json:"unit_suffix"`
		SubCategory       string   `json:"sub_category,omitempty"`
		IsReductionTarget bool     `json:"is_reduction_target"`
	}
)
