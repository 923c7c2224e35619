// Package classifier ranks every taxonomy subtype against observed coloring
// labels and returns the best match with its runners-up.
package classifier

import (
	"math"
	"sort"

	"github.com/ironsheep/coloring-mcp/internal/features"
	"github.com/ironsheep/coloring-mcp/internal/taxonomy"
)

// Score weights.
const (
	UndertoneExact      = 0.4
	UndertoneCompatible = 0.2
	DepthExact          = 0.3
	DepthAdjacent       = 0.15
	ContrastExact       = 0.3
	ContrastAdjacent    = 0.15
)

// MaxAlternatives is the number of runners-up reported after the best match.
const MaxAlternatives = 4

// Observation is the set of labels a prediction is scored against.
type Observation struct {
	Undertone  taxonomy.Undertone `json:"undertone"`
	Depth      taxonomy.Depth     `json:"depth"`
	Contrast   taxonomy.Contrast  `json:"contrast"`
	Confidence float64            `json:"confidence"`
}

// Alternative is a runner-up subtype.
type Alternative struct {
	Subtype    string  `json:"subtype"`
	Confidence float64 `json:"confidence"`
}

// Result is the outcome of a prediction.
type Result struct {
	Subtype      string          `json:"subtype"`
	DisplayName  string          `json:"display_name"`
	Confidence   float64         `json:"confidence"`
	Season       taxonomy.Season `json:"season"`
	Alternatives []Alternative   `json:"alternatives"`
}

// Predictor scores observations against a taxonomy table.
type Predictor struct {
	table *taxonomy.Table
}

// New returns a Predictor over table. A nil table means taxonomy.Default().
func New(table *taxonomy.Table) *Predictor {
	if table == nil {
		table = taxonomy.Default()
	}
	return &Predictor{table: table}
}

// Table returns the taxonomy the predictor ranks.
func (p *Predictor) Table() *taxonomy.Table {
	return p.table
}

type ranked struct {
	subtype taxonomy.Subtype
	score   float64
}

// Predict scores every subtype and returns the best plus up to
// MaxAlternatives runners-up. Labels outside the enumerations simply fail to
// match; they never cause an error.
func (p *Predictor) Predict(obs Observation) Result {
	n := p.table.Len()
	scores := make([]ranked, n)
	for i := 0; i < n; i++ {
		s := p.table.At(i)
		scores[i] = ranked{subtype: s, score: Score(s, obs)}
	}

	// Stable so ties keep table order.
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})

	if n == 0 {
		return Result{Alternatives: []Alternative{}}
	}

	best := scores[0]
	res := Result{
		Subtype:      best.subtype.Code,
		DisplayName:  best.subtype.DisplayName(),
		Confidence:   round3(best.score),
		Season:       best.subtype.Season,
		Alternatives: make([]Alternative, 0, MaxAlternatives),
	}
	for _, r := range scores[1:] {
		if len(res.Alternatives) == MaxAlternatives {
			break
		}
		res.Alternatives = append(res.Alternatives, Alternative{
			Subtype:    r.subtype.Code,
			Confidence: round3(r.score),
		})
	}
	return res
}

// PredictFeatures predicts from an extractor FeatureSet, using the undertone
// confidence as the observation confidence.
func (p *Predictor) PredictFeatures(fs *features.FeatureSet) Result {
	return p.Predict(Observation{
		Undertone:  fs.Undertone,
		Depth:      fs.Depth,
		Contrast:   fs.ContrastLevel,
		Confidence: fs.UndertoneConfidence,
	})
}

// Score returns the confidence-weighted match score of one subtype, in
// [0,1].
func Score(s taxonomy.Subtype, obs Observation) float64 {
	var score float64

	switch {
	case obs.Undertone == s.Undertone:
		score += UndertoneExact
	case s.Undertone.CompatibleWith(obs.Undertone):
		score += UndertoneCompatible
	}

	switch {
	case obs.Depth == s.Depth:
		score += DepthExact
	case s.Depth.AdjacentTo(obs.Depth):
		score += DepthAdjacent
	}

	switch {
	case obs.Contrast == s.Contrast:
		score += ContrastExact
	case s.Contrast.AdjacentTo(obs.Contrast):
		score += ContrastAdjacent
	}

	return score * (0.5 + 0.5*clamp01(obs.Confidence))
}

var defaultPredictor = New(nil)

// Predict runs the default predictor. String labels are accepted as-is.
func Predict(undertone, depth, contrast string, confidence float64) Result {
	return defaultPredictor.Predict(Observation{
		Undertone:  taxonomy.Undertone(undertone),
		Depth:      taxonomy.Depth(depth),
		Contrast:   taxonomy.Contrast(contrast),
		Confidence: confidence,
	})
}

// PredictFeatures runs the default predictor on a FeatureSet.
func PredictFeatures(fs *features.FeatureSet) Result {
	return defaultPredictor.PredictFeatures(fs)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
