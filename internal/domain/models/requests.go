package models

import "time"

// Requests for the analysis HTTP endpoints. Defined in domain for consistency and reuse.

// BarPayload is one bar as it arrives over the wire. Trend is optional; when
// every bar carries one, the payload labels win over the configured tagger.
type BarPayload struct {
	Time   time.Time `json:"time" validate:"required"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
	Trend  string    `json:"trend,omitempty"`
}

type AnalyzeRequest struct {
	Symbol    string       `json:"symbol" default:"adhoc"`
	TF        string       `json:"tf" default:"1d"`
	Bars      []BarPayload `json:"bars" validate:"required,min=2,dive"`
	TrendFrom string       `json:"trend_from" default:"auto" validate:"oneof=auto column local"`
}

type AnalysisRequest struct {
	Symbol string `param:"symbol" json:"symbol" validate:"required"`
	N      int    `query:"n" json:"n" default:"500" validate:"gte=2,lte=20000"`
	TF     string `query:"tf" json:"tf" default:"1d"`
	Fresh  bool   `query:"fresh" json:"fresh"`
}

type ReportRequest struct {
	Symbol string `param:"symbol" json:"symbol" validate:"required"`
	N      int    `query:"n" json:"n" default:"500" validate:"gte=2,lte=20000"`
	TF     string `query:"tf" json:"tf" default:"1d"`
}

// BarsRequest reads stored bars back. From and To are RFC3339; empty From
// means the beginning of the series, empty To means now.
type BarsRequest struct {
	Symbol string `param:"symbol" json:"symbol" validate:"required"`
	TF     string `query:"tf" json:"tf" default:"1d"`
	From   string `query:"from" json:"from" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	To     string `query:"to" json:"to" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Limit  int    `query:"limit" json:"limit" default:"10000" validate:"gte=1,lte=50000"`
}

func (b BarPayload) Bar() Bar {
	return Bar{Time: b.Time, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume}
}
