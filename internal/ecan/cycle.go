package ecan

import (
	"fmt"
	"sort"

	"github.com/o9nn/opencoq-sub001/internal/atomspace"
)

// Params are the tunables for one attention cycle.
type Params struct {
	DecayFactor         float64 // per-tick multiplier on sti/lti, in (0,1]
	RentRate            float64 // fraction of sti collected back into the bank
	SpreadThreshold     float64 // minimum sti before an entity spreads
	SpreadFraction      float64 // fraction of sti an entity spreads, normally 0.1
	ForgettingThreshold float64 // entities below this on both sti and lti are evicted
	FocusCapacity       int     // total focus size; half nodes, half links
}

func (p Params) validate() error {
	if p.DecayFactor <= 0 || p.DecayFactor > 1 {
		return fmt.Errorf("decay factor %g out of (0,1]", p.DecayFactor)
	}
	if p.RentRate < 0 || p.RentRate > 1 {
		return fmt.Errorf("rent rate %g out of [0,1]", p.RentRate)
	}
	if p.SpreadFraction < 0 || p.SpreadFraction > 1 {
		return fmt.Errorf("spread fraction %g out of [0,1]", p.SpreadFraction)
	}
	if p.FocusCapacity <= 0 {
		return fmt.Errorf("focus capacity %d must be positive", p.FocusCapacity)
	}
	return nil
}

// FocusEntry pairs one top-K node with one top-K link. Entries are a view:
// the entities still live in the store and may be evicted underneath.
type FocusEntry struct {
	Node atomspace.NodeID
	Link atomspace.LinkID
}

// TickStats summarizes what one tick did, for logging at the call site.
type TickStats struct {
	NodesDecayed   int
	LinksDecayed   int
	RentCollected  float64
	SpreadSources  int
	FocusSize      int
	ForgottenNodes int
	ForgottenLinks int
}

// Cycle runs the economic attention cycle against a store and a bank.
// One Tick executes decay, rent collection, spread activation, focus
// refresh, and forgetting, in that order. Each phase is best-effort over
// all entities; no phase branches on another's failure.
type Cycle struct {
	store  *atomspace.Store
	bank   *Bank
	params Params
	focus  []FocusEntry
}

// NewCycle validates params and binds the cycle to its store and bank.
func NewCycle(store *atomspace.Store, bank *Bank, params Params) (*Cycle, error) {
	if err := params.validate(); err != nil {
		return nil, fmt.Errorf("cycle params: %w", err)
	}
	return &Cycle{store: store, bank: bank, params: params}, nil
}

// Params returns the cycle's tunables.
func (c *Cycle) Params() Params { return c.params }

// Tick runs one full cycle and reports per-phase stats.
func (c *Cycle) Tick() TickStats {
	var stats TickStats
	c.decay(&stats)
	c.collectRent(&stats)
	c.spreadActivation(&stats)
	c.refreshFocus(&stats)
	c.forget(&stats)
	return stats
}

// decay multiplies every entity's sti and lti by the decay factor. The
// removed currency is a sink, not a transfer: it is never credited back to
// the bank. vlti is untouched.
func (c *Cycle) decay(stats *TickStats) {
	f := c.params.DecayFactor
	for _, n := range c.store.Nodes() {
		av := n.Attention
		av.STI *= f
		av.LTI *= f
		c.store.UpdateNodeAttention(n.ID, av)
		stats.NodesDecayed++
	}
	for _, l := range c.store.Links() {
		av := l.Attention
		av.STI *= f
		av.LTI *= f
		c.store.UpdateLinkAttention(l.ID, av)
		stats.LinksDecayed++
	}
}

// collectRent charges every entity sti*rate, floored so sti never goes
// negative, and credits the sum back to the bank's available STI.
func (c *Cycle) collectRent(stats *TickStats) {
	rate := c.params.RentRate
	if rate == 0 {
		return
	}
	total := 0.0
	for _, n := range c.store.Nodes() {
		av, rent := chargeRent(n.Attention, rate)
		if rent > 0 {
			c.store.UpdateNodeAttention(n.ID, av)
			total += rent
		}
	}
	for _, l := range c.store.Links() {
		av, rent := chargeRent(l.Attention, rate)
		if rent > 0 {
			c.store.UpdateLinkAttention(l.ID, av)
			total += rent
		}
	}
	if total > 0 {
		c.bank.Return(STI, total)
	}
	stats.RentCollected = total
}

func chargeRent(av atomspace.AttentionValue, rate float64) (atomspace.AttentionValue, float64) {
	rent := av.STI * rate
	if rent <= 0 {
		return av, 0
	}
	if rent > av.STI {
		rent = av.STI
	}
	av.STI -= rent
	return av, rent
}

// spreadActivation transfers attention from focused nodes to their
// connected links. This is a pure entity-to-entity transfer, not
// bank-mediated. Entities evicted since the last focus refresh are skipped.
func (c *Cycle) spreadActivation(stats *TickStats) {
	for _, entry := range c.focus {
		n := c.store.GetNode(entry.Node)
		if n == nil {
			continue
		}
		if n.Attention.STI <= c.params.SpreadThreshold {
			continue
		}
		connected := c.connectedLinks(entry.Node)
		if len(connected) == 0 {
			continue
		}
		spread := c.params.SpreadFraction * n.Attention.STI
		share := spread / float64(len(connected))
		for _, lid := range connected {
			l := c.store.GetLink(lid)
			if l == nil {
				continue
			}
			av := l.Attention
			av.STI += share
			c.store.UpdateLinkAttention(lid, av)
		}
		av := n.Attention
		av.STI -= spread
		c.store.UpdateNodeAttention(entry.Node, av)
		stats.SpreadSources++
	}
}

// connectedLinks is the union of incoming and outgoing links, deduplicated.
func (c *Cycle) connectedLinks(id atomspace.NodeID) []atomspace.LinkID {
	incoming := c.store.IncomingLinks(id)
	outgoing := c.store.OutgoingLinks(id)
	seen := make(map[atomspace.LinkID]bool, len(incoming)+len(outgoing))
	var connected []atomspace.LinkID
	for _, lid := range incoming {
		if !seen[lid] {
			seen[lid] = true
			connected = append(connected, lid)
		}
	}
	for _, lid := range outgoing {
		if !seen[lid] {
			seen[lid] = true
			connected = append(connected, lid)
		}
	}
	return connected
}

// refreshFocus recomputes the focus as the top capacity/2 nodes paired
// positionally with the top capacity/2 links, by sti. When the two pools
// differ in length the pairing truncates to the shorter one.
func (c *Cycle) refreshFocus(stats *TickStats) {
	k := c.params.FocusCapacity / 2
	nodes := c.store.Nodes()
	links := c.store.Links()

	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Attention.STI != nodes[j].Attention.STI {
			return nodes[i].Attention.STI > nodes[j].Attention.STI
		}
		return nodes[i].ID < nodes[j].ID
	})
	sort.Slice(links, func(i, j int) bool {
		if links[i].Attention.STI != links[j].Attention.STI {
			return links[i].Attention.STI > links[j].Attention.STI
		}
		return links[i].ID < links[j].ID
	})

	if len(nodes) > k {
		nodes = nodes[:k]
	}
	if len(links) > k {
		links = links[:k]
	}
	pairs := len(nodes)
	if len(links) < pairs {
		pairs = len(links)
	}

	c.focus = c.focus[:0]
	for i := 0; i < pairs; i++ {
		c.focus = append(c.focus, FocusEntry{Node: nodes[i].ID, Link: links[i].ID})
	}
	stats.FocusSize = len(c.focus)
}

// forget permanently evicts every entity below the forgetting threshold on
// both sti and lti. Eviction is irreversible and not transactional with the
// rest of the tick; removals flow through the store's hooks tagged with the
// eviction reason.
func (c *Cycle) forget(stats *TickStats) {
	th := c.params.ForgettingThreshold
	for _, n := range c.store.Nodes() {
		if n.Attention.STI < th && n.Attention.LTI < th {
			c.store.EvictNode(n.ID)
			stats.ForgottenNodes++
		}
	}
	for _, l := range c.store.Links() {
		if l.Attention.STI < th && l.Attention.LTI < th {
			c.store.EvictLink(l.ID)
			stats.ForgottenLinks++
		}
	}
}

// Stimulate grants a node extra sti, gated through the bank. It fails
// without side effects when the node is unknown or the bank cannot cover
// the amount.
func (c *Cycle) Stimulate(id atomspace.NodeID, amount float64) bool {
	n := c.store.GetNode(id)
	if n == nil || amount < 0 {
		return false
	}
	if !c.bank.Allocate(STI, amount) {
		return false
	}
	av := n.Attention
	av.STI += amount
	c.store.UpdateNodeAttention(id, av)
	return true
}

// StimulateLink is Stimulate for links.
func (c *Cycle) StimulateLink(id atomspace.LinkID, amount float64) bool {
	l := c.store.GetLink(id)
	if l == nil || amount < 0 {
		return false
	}
	if !c.bank.Allocate(STI, amount) {
		return false
	}
	av := l.Attention
	av.STI += amount
	c.store.UpdateLinkAttention(id, av)
	return true
}

// Focus returns a copy of the current focus membership.
func (c *Cycle) Focus() []FocusEntry {
	out := make([]FocusEntry, len(c.focus))
	copy(out, c.focus)
	return out
}

// IsInFocus reports whether the node is a current focus member.
func (c *Cycle) IsInFocus(id atomspace.NodeID) bool {
	for _, e := range c.focus {
		if e.Node == id {
			return true
		}
	}
	return false
}

// IsLinkInFocus reports whether the link is a current focus member.
func (c *Cycle) IsLinkInFocus(id atomspace.LinkID) bool {
	for _, e := range c.focus {
		if e.Link == id {
			return true
		}
	}
	return false
}

// PrioritizeByAttention orders the given node ids by descending sti,
// dropping ids that no longer resolve. Ties break on id for determinism.
func (c *Cycle) PrioritizeByAttention(ids []atomspace.NodeID) []atomspace.NodeID {
	type ranked struct {
		id  atomspace.NodeID
		sti float64
	}
	var known []ranked
	for _, id := range ids {
		if n := c.store.GetNode(id); n != nil {
			known = append(known, ranked{id: id, sti: n.Attention.STI})
		}
	}
	sort.Slice(known, func(i, j int) bool {
		if known[i].sti != known[j].sti {
			return known[i].sti > known[j].sti
		}
		return known[i].id < known[j].id
	})
	out := make([]atomspace.NodeID, len(known))
	for i, r := range known {
		out[i] = r.id
	}
	return out
}
