package ecan

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// TensorParams are the tunables for gradient-based reallocation.
type TensorParams struct {
	LearningRate     float64
	Momentum         float64
	GradientClipping float64
	EconomicWeight   float64
}

// GradientAudit records one successful bank-funded gradient update.
type GradientAudit struct {
	ID   uuid.UUID
	Head int
	Cost float64
	At   time.Time
}

// Tensor is the derived heads x temporal-depth attention grid. It carries
// per-cell values and gradients plus per-head and per-temporal weights, and
// is the bridge between the attention economy and an external learning
// signal. It is not bound to any particular atom.
type Tensor struct {
	heads          int
	depth          int
	values         [][]float64
	gradients      [][]float64
	headWeight     []float64
	temporalWeight []float64
	audit          []GradientAudit
}

// NewTensor creates a zero grid with uniform head and temporal weights.
// Non-positive dimensions are a caller bug and fail loudly; this is the
// only fatal error class in the core.
func NewTensor(heads, temporalDepth int) (*Tensor, error) {
	if heads <= 0 || temporalDepth <= 0 {
		return nil, fmt.Errorf("tensor shape %dx%d: dimensions must be positive", heads, temporalDepth)
	}
	t := &Tensor{
		heads:          heads,
		depth:          temporalDepth,
		values:         makeGrid(heads, temporalDepth),
		gradients:      makeGrid(heads, temporalDepth),
		headWeight:     make([]float64, heads),
		temporalWeight: make([]float64, temporalDepth),
	}
	for h := range t.headWeight {
		t.headWeight[h] = 1.0 / float64(heads)
	}
	for d := range t.temporalWeight {
		t.temporalWeight[d] = 1.0 / float64(temporalDepth)
	}
	return t, nil
}

func makeGrid(rows, cols int) [][]float64 {
	g := make([][]float64, rows)
	for i := range g {
		g[i] = make([]float64, cols)
	}
	return g
}

// Heads returns the head dimension.
func (t *Tensor) Heads() int { return t.heads }

// TemporalDepth returns the temporal dimension.
func (t *Tensor) TemporalDepth() int { return t.depth }

// Value returns one cell's value.
func (t *Tensor) Value(head, depth int) float64 { return t.values[head][depth] }

// HeadWeight returns one head's weight.
func (t *Tensor) HeadWeight(head int) float64 { return t.headWeight[head] }

// UpdateGradients scatters an externally computed learning signal
// cyclically across the grid: cell (h,d) takes vector[(h*depth+d) mod
// len(vector)]. An empty vector is a no-op.
func (t *Tensor) UpdateGradients(vector []float64) {
	if len(vector) == 0 {
		return
	}
	for h := 0; h < t.heads; h++ {
		for d := 0; d < t.depth; d++ {
			t.gradients[h][d] = vector[(h*t.depth+d)%len(vector)]
		}
	}
}

// ApplyGradientOptimization clips each gradient, steps each value by the
// learning rate, blends head weights toward the mean cell magnitude of
// their row, and renormalizes head weights to sum to 1. Renormalization is
// skipped when the sum is zero.
func (t *Tensor) ApplyGradientOptimization(p TensorParams) {
	for h := 0; h < t.heads; h++ {
		rowMagnitude := 0.0
		for d := 0; d < t.depth; d++ {
			g := t.gradients[h][d]
			if g > p.GradientClipping {
				g = p.GradientClipping
			} else if g < -p.GradientClipping {
				g = -p.GradientClipping
			}
			t.values[h][d] += p.LearningRate * g
			rowMagnitude += math.Abs(t.values[h][d])
		}
		rowMean := rowMagnitude / float64(t.depth)
		t.headWeight[h] = p.Momentum*t.headWeight[h] + (1-p.Momentum)*rowMean
	}

	sum := 0.0
	for _, w := range t.headWeight {
		sum += w
	}
	if sum == 0 {
		return
	}
	for h := range t.headWeight {
		t.headWeight[h] /= sum
	}
}

// ComputeHeadImportance returns, per head, the weighted sum of its row.
func (t *Tensor) ComputeHeadImportance() []float64 {
	out := make([]float64, t.heads)
	for h := 0; h < t.heads; h++ {
		sum := 0.0
		for d := 0; d < t.depth; d++ {
			sum += t.values[h][d]
		}
		out[h] = sum * t.headWeight[h]
	}
	return out
}

// AllocateComputeCycles returns a per-head compute allocation: the head's
// share of total cell magnitude, scaled by the economic weight, the bank's
// available-STI ratio, and the head's weight. It is a proportional
// recommendation, not a spend.
func (t *Tensor) AllocateComputeCycles(bank *Bank, p TensorParams) []float64 {
	out := make([]float64, t.heads)

	total := 0.0
	rowMagnitude := make([]float64, t.heads)
	for h := 0; h < t.heads; h++ {
		for d := 0; d < t.depth; d++ {
			rowMagnitude[h] += math.Abs(t.values[h][d])
		}
		total += rowMagnitude[h]
	}
	if total == 0 {
		return out
	}

	snap := bank.Snapshot()
	if snap.TotalSTI == 0 {
		return out
	}
	economy := snap.AvailableSTI / snap.TotalSTI

	for h := 0; h < t.heads; h++ {
		out[h] = (rowMagnitude[h] / total) * p.EconomicWeight * economy * t.headWeight[h]
	}
	return out
}

// EconomicGradientIntegration converts each head's compute allocation into
// an STI cost (allocation x 10) and attempts to fund it from the bank. Each
// funded head gets an audit record. Afterwards the whole grid decays by the
// given factor. Unfunded heads are skipped silently, per the
// insufficient-funds policy.
func (t *Tensor) EconomicGradientIntegration(bank *Bank, p TensorParams, decayFactor float64) {
	allocations := t.AllocateComputeCycles(bank, p)
	now := time.Now()
	for h, alloc := range allocations {
		cost := alloc * 10
		if cost <= 0 {
			continue
		}
		if !bank.Allocate(STI, cost) {
			continue
		}
		t.audit = append(t.audit, GradientAudit{
			ID:   uuid.New(),
			Head: h,
			Cost: cost,
			At:   now,
		})
	}
	t.TemporalDecay(decayFactor)
}

// TemporalDecay multiplies every value, gradient, and temporal weight by
// the factor.
func (t *Tensor) TemporalDecay(factor float64) {
	for h := 0; h < t.heads; h++ {
		for d := 0; d < t.depth; d++ {
			t.values[h][d] *= factor
			t.gradients[h][d] *= factor
		}
	}
	for d := range t.temporalWeight {
		t.temporalWeight[d] *= factor
	}
}

// AuditTrail returns a copy of the funded gradient updates so far.
func (t *Tensor) AuditTrail() []GradientAudit {
	out := make([]GradientAudit, len(t.audit))
	copy(out, t.audit)
	return out
}

// TensorStats summarizes the grid for monitoring.
type TensorStats struct {
	AverageMagnitude float64
	MaxMagnitude     float64
	MinMagnitude     float64
	ActiveHeads      int
}

// activeThreshold is the cell magnitude above which a head counts as active.
const activeThreshold = 0.001

// Stats reports average/max/min cell magnitude and the active head count.
func (t *Tensor) Stats() TensorStats {
	stats := TensorStats{MinMagnitude: math.Inf(1)}
	sum := 0.0
	for h := 0; h < t.heads; h++ {
		active := false
		for d := 0; d < t.depth; d++ {
			m := math.Abs(t.values[h][d])
			sum += m
			if m > stats.MaxMagnitude {
				stats.MaxMagnitude = m
			}
			if m < stats.MinMagnitude {
				stats.MinMagnitude = m
			}
			if m > activeThreshold {
				active = true
			}
		}
		if active {
			stats.ActiveHeads++
		}
	}
	stats.AverageMagnitude = sum / float64(t.heads*t.depth)
	return stats
}
