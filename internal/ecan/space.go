package ecan

import (
	"sync"

	"github.com/o9nn/opencoq-sub001/internal/atomspace"
)

// Space bundles the store, bank, cycle, and tensor behind one
// reader-writer boundary. It is the explicit context object threaded
// through the server and CLI; there is no ambient global state. One tick
// runs to completion under the write lock before another begins, and store
// mutations never interleave with a tick.
type Space struct {
	mu     sync.RWMutex
	store  *atomspace.Store
	bank   *Bank
	cycle  *Cycle
	tensor *Tensor

	tensorParams TensorParams
}

// NewSpace wires a fresh store to a bank, cycle, and tensor.
func NewSpace(bank *Bank, cycleParams Params, heads, temporalDepth int, tensorParams TensorParams) (*Space, error) {
	store := atomspace.New()
	cycle, err := NewCycle(store, bank, cycleParams)
	if err != nil {
		return nil, err
	}
	tensor, err := NewTensor(heads, temporalDepth)
	if err != nil {
		return nil, err
	}
	return &Space{
		store:        store,
		bank:         bank,
		cycle:        cycle,
		tensor:       tensor,
		tensorParams: tensorParams,
	}, nil
}

// SetHooks installs mutation hooks on the underlying store.
func (s *Space) SetHooks(h atomspace.Hooks) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.SetHooks(h)
}

// Store exposes the underlying store for callers that already hold
// exclusive access, such as snapshot load at startup.
func (s *Space) Store() *atomspace.Store { return s.store }

// AddNode inserts a node.
func (s *Space) AddNode(kind atomspace.NodeKind, name string) atomspace.NodeID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.AddNode(kind, name)
}

// AddLink inserts a link.
func (s *Space) AddLink(kind atomspace.LinkKind, outgoing []atomspace.NodeID) atomspace.LinkID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.AddLink(kind, outgoing)
}

// GetNode returns a copy of the node, or nil.
func (s *Space) GetNode(id atomspace.NodeID) *atomspace.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.GetNode(id)
}

// GetLink returns a copy of the link, or nil.
func (s *Space) GetLink(id atomspace.LinkID) *atomspace.Link {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.GetLink(id)
}

// RemoveNode deletes a node at caller request.
func (s *Space) RemoveNode(id atomspace.NodeID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.RemoveNode(id)
}

// RemoveLink deletes a link at caller request.
func (s *Space) RemoveLink(id atomspace.LinkID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.RemoveLink(id)
}

// UpdateNodeTruth is the reasoning-engine write surface for node truth.
func (s *Space) UpdateNodeTruth(id atomspace.NodeID, tv atomspace.TruthValue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.UpdateNodeTruth(id, tv)
}

// UpdateLinkTruth is the reasoning-engine write surface for link truth.
func (s *Space) UpdateLinkTruth(id atomspace.LinkID, tv atomspace.TruthValue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.UpdateLinkTruth(id, tv)
}

// FindByName returns node ids by name.
func (s *Space) FindByName(name string) []atomspace.NodeID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.FindByName(name)
}

// IncomingLinks returns links containing the node anywhere in outgoing.
func (s *Space) IncomingLinks(id atomspace.NodeID) []atomspace.LinkID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.IncomingLinks(id)
}

// OutgoingLinks returns links whose outgoing starts with the node.
func (s *Space) OutgoingLinks(id atomspace.NodeID) []atomspace.LinkID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.OutgoingLinks(id)
}

// NodeCount returns the live node count.
func (s *Space) NodeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.NodeCount()
}

// LinkCount returns the live link count.
func (s *Space) LinkCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.LinkCount()
}

// Tick runs one attention cycle to completion.
func (s *Space) Tick() TickStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cycle.Tick()
}

// Stimulate grants bank-funded sti to a node.
func (s *Space) Stimulate(id atomspace.NodeID, amount float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cycle.Stimulate(id, amount)
}

// StimulateLink grants bank-funded sti to a link.
func (s *Space) StimulateLink(id atomspace.LinkID, amount float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cycle.StimulateLink(id, amount)
}

// Focus returns the current focus membership.
func (s *Space) Focus() []FocusEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cycle.Focus()
}

// IsInFocus reports node focus membership.
func (s *Space) IsInFocus(id atomspace.NodeID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cycle.IsInFocus(id)
}

// PrioritizeByAttention orders node ids by descending sti.
func (s *Space) PrioritizeByAttention(ids []atomspace.NodeID) []atomspace.NodeID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cycle.PrioritizeByAttention(ids)
}

// BankSnapshot reads the ledger.
func (s *Space) BankSnapshot() BankSnapshot {
	return s.bank.Snapshot()
}

// Export renders the whole store in the interchange grammar.
func (s *Space) Export() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.Export()
}

// Import loads an export into the store, preserving ids.
func (s *Space) Import(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Import(text)
}

// UpdateGradients feeds an external learning signal into the tensor.
func (s *Space) UpdateGradients(vector []float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tensor.UpdateGradients(vector)
}

// OptimizeTensor applies one gradient optimization step followed by the
// bank-funded economic integration and temporal decay.
func (s *Space) OptimizeTensor() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tensor.ApplyGradientOptimization(s.tensorParams)
	s.tensor.EconomicGradientIntegration(s.bank, s.tensorParams, s.cycle.Params().DecayFactor)
}

// TensorStats reports the tensor's monitoring summary.
func (s *Space) TensorStats() TensorStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tensor.Stats()
}

// HeadImportance reports per-head weighted importance.
func (s *Space) HeadImportance() []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tensor.ComputeHeadImportance()
}

// GradientAuditTrail returns the funded gradient updates so far.
func (s *Space) GradientAuditTrail() []GradientAudit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tensor.AuditTrail()
}
