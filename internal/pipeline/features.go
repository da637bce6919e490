package pipeline

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
)

// Feature vector layout consumed by the regressor.
const (
	featLocation = iota
	featArticle
	featYear
	featMonth
	featMonthSin
	featMonthCos
	featureCount
)

// LabelEncoder maps categorical ids to dense zero-based indices in first-seen
// order. The instance fit during training is the one reused for inference; an
// id unseen at fit time is a hard failure, never an arbitrary code.
type LabelEncoder struct {
	classes []string
	index   map[string]int
}

func NewLabelEncoder() *LabelEncoder {
	return &LabelEncoder{index: make(map[string]int)}
}

// Fit assigns indices to every distinct id, in first-seen order. Refitting on
// the same sequence is idempotent.
func (e *LabelEncoder) Fit(ids []string) {
	for _, id := range ids {
		if _, ok := e.index[id]; !ok {
			e.index[id] = len(e.classes)
			e.classes = append(e.classes, id)
		}
	}
}

// Transform returns the dense index for id.
func (e *LabelEncoder) Transform(id string) (int, error) {
	code, ok := e.index[id]
	if !ok {
		return 0, fmt.Errorf("%w: %q was not present at fit time", domain.ErrUnknownCategory, id)
	}
	return code, nil
}

// Inverse returns the id for a dense index.
func (e *LabelEncoder) Inverse(code int) (string, error) {
	if code < 0 || code >= len(e.classes) {
		return "", fmt.Errorf("%w: code %d out of range", domain.ErrUnknownCategory, code)
	}
	return e.classes[code], nil
}

// Classes returns the fitted ids in index order.
func (e *LabelEncoder) Classes() []string {
	out := make([]string, len(e.classes))
	copy(out, e.classes)
	return out
}

func (e *LabelEncoder) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.classes)
}

func (e *LabelEncoder) UnmarshalJSON(data []byte) error {
	var classes []string
	if err := json.Unmarshal(data, &classes); err != nil {
		return err
	}
	e.classes = nil
	e.index = make(map[string]int, len(classes))
	e.Fit(classes)
	return nil
}

// monthSin and monthCos place a month on a 12-month circle so December and
// January stay numerically adjacent.
func monthSin(month int) float64 {
	return math.Sin(2 * math.Pi * float64(month-1) / 12)
}

func monthCos(month int) float64 {
	return math.Cos(2 * math.Pi * float64(month-1) / 12)
}

// FeatureSet is the model-ready view of the sales aggregate plus the encoders
// fit on it.
type FeatureSet struct {
	Rows    [][]float64
	Targets []float64
	Periods []time.Time

	LocationEncoder *LabelEncoder
	ArticleEncoder  *LabelEncoder
}

// BuildFeatures fits the two encoders over the aggregate and emits one feature
// row per SalesAggregate row, targets being units sold.
func BuildFeatures(aggregates []domain.SalesAggregate) (*FeatureSet, error) {
	locEnc := NewLabelEncoder()
	artEnc := NewLabelEncoder()
	for _, agg := range aggregates {
		locEnc.Fit([]string{agg.LocationID})
		artEnc.Fit([]string{agg.ArticleID})
	}

	fs := &FeatureSet{
		Rows:            make([][]float64, 0, len(aggregates)),
		Targets:         make([]float64, 0, len(aggregates)),
		Periods:         make([]time.Time, 0, len(aggregates)),
		LocationEncoder: locEnc,
		ArticleEncoder:  artEnc,
	}

	for _, agg := range aggregates {
		locCode, err := locEnc.Transform(agg.LocationID)
		if err != nil {
			return nil, err
		}
		artCode, err := artEnc.Transform(agg.ArticleID)
		if err != nil {
			return nil, err
		}
		fs.Rows = append(fs.Rows, featureRow(locCode, artCode, agg.Year, agg.Month))
		fs.Targets = append(fs.Targets, agg.UnitsSold)
		fs.Periods = append(fs.Periods, agg.PeriodDate)
	}

	return fs, nil
}

func featureRow(locCode, artCode, year, month int) []float64 {
	row := make([]float64, featureCount)
	row[featLocation] = float64(locCode)
	row[featArticle] = float64(artCode)
	row[featYear] = float64(year)
	row[featMonth] = float64(month)
	row[featMonthSin] = monthSin(month)
	row[featMonthCos] = monthCos(month)
	return row
}
