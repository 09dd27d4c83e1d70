package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"CandleScope/internal/domain/models"
	"CandleScope/internal/domain/repository"
	"CandleScope/pkg/logger"
	"CandleScope/pkg/util"
)

// headerAliases maps normalized CSV headers to canonical column names. The
// aliases cover the export formats of the usual platforms (exchange dumps,
// broker terminals, finance portals).
var headerAliases = map[string]string{
	"date":      "date",
	"time":      "date",
	"datetime":  "date",
	"timestamp": "date",
	"open time": "date",

	"open":      "open",
	"o":         "open",
	"high":      "high",
	"h":         "high",
	"low":       "low",
	"l":         "low",
	"close":     "close",
	"c":         "close",
	"adj close": "close",

	"volume":  "volume",
	"v":       "volume",
	"vol":     "volume",
	"tickvol": "volume",

	"trend": "trend",
}

var requiredColumns = []string{"date", "open", "high", "low", "close"}

// Result is what one CSV load produced. Trends is nil when the file carried
// no trend column.
type Result struct {
	Bars      []models.Bar
	Trends    []models.Trend
	Timeframe repository.Timeframe
	Skipped   int
}

// Loader reads OHLCV series out of CSV exports. Rows that cannot be parsed
// are skipped and counted instead of failing the whole file. MaxRows caps
// how many data rows a file may carry; 0 means no cap.
type Loader struct {
	MaxRows int

	log *logger.Logger
}

func NewLoader() *Loader {
	return &Loader{log: logger.Nop()}
}

func (l *Loader) SetLogger(lg *logger.Logger) {
	if lg != nil {
		l.log = lg
	}
}

func (l *Loader) LoadFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return l.Load(f)
}

func (l *Loader) Load(r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	// First occurrence of each canonical column wins.
	index := map[string]int{}
	for i, col := range header {
		key := util.NormalizeHeader(col)
		canonical, ok := headerAliases[key]
		if !ok {
			canonical = key
		}
		if _, seen := index[canonical]; !seen {
			index[canonical] = i
		}
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, &models.MissingColumnError{Name: col}
		}
	}
	volumeIdx, hasVolume := index["volume"]
	trendIdx, hasTrend := index["trend"]

	type row struct {
		bar   models.Bar
		trend models.Trend
	}
	var rows []row
	skipped := 0

	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}

		ts, ok := field(record, index["date"])
		if !ok {
			skipped++
			continue
		}
		when, ok := util.ParseTime(ts)
		if !ok {
			l.log.Debug("skipping row with bad timestamp", logger.Int("line", line), logger.String("value", ts))
			skipped++
			continue
		}

		prices := make([]float64, 4)
		bad := false
		for i, col := range []string{"open", "high", "low", "close"} {
			raw, ok := field(record, index[col])
			if !ok {
				bad = true
				break
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				bad = true
				break
			}
			prices[i] = v
		}
		if bad {
			l.log.Debug("skipping row with bad prices", logger.Int("line", line))
			skipped++
			continue
		}

		volume := 0.0
		if hasVolume {
			if raw, ok := field(record, volumeIdx); ok {
				volume = util.ParseFloatDefault(raw, 0)
			}
		}

		rw := row{bar: models.Bar{
			Time:   when,
			Open:   prices[0],
			High:   prices[1],
			Low:    prices[2],
			Close:  prices[3],
			Volume: volume,
		}}
		if hasTrend {
			if raw, ok := field(record, trendIdx); ok {
				rw.trend = models.NormalizeTrend(raw)
			} else {
				rw.trend = models.TrendSideways
			}
		}
		rows = append(rows, rw)
		if l.MaxRows > 0 && len(rows) > l.MaxRows {
			return nil, fmt.Errorf("csv exceeds row limit of %d", l.MaxRows)
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].bar.Time.Before(rows[j].bar.Time)
	})

	res := &Result{Bars: make([]models.Bar, len(rows)), Skipped: skipped}
	times := make([]time.Time, len(rows))
	for i, rw := range rows {
		res.Bars[i] = rw.bar
		times[i] = rw.bar.Time
	}
	if hasTrend {
		res.Trends = make([]models.Trend, len(rows))
		for i, rw := range rows {
			res.Trends[i] = rw.trend
		}
	}
	res.Timeframe = repository.DetectTimeframe(times)

	l.log.Info("csv loaded",
		logger.Int("rows", len(res.Bars)),
		logger.Int("skipped", skipped),
		logger.String("timeframe", string(res.Timeframe)),
		logger.Bool("trend_column", hasTrend),
	)
	return res, nil
}

func field(record []string, idx int) (string, bool) {
	if idx >= len(record) {
		return "", false
	}
	v := record[idx]
	if v == "" {
		return "", false
	}
	return v, true
}
