package ecan

import (
	"testing"

	"github.com/o9nn/opencoq-sub001/internal/atomspace"
)

func testParams() Params {
	return Params{
		DecayFactor:         1.0,
		RentRate:            0,
		SpreadThreshold:     10,
		SpreadFraction:      0.1,
		ForgettingThreshold: 0.1,
		FocusCapacity:       20,
	}
}

func testCycle(t *testing.T, p Params) (*Cycle, *atomspace.Store, *Bank) {
	t.Helper()
	store := atomspace.New()
	bank := NewBank(1000, 1000, 0, 0)
	c, err := NewCycle(store, bank, p)
	if err != nil {
		t.Fatalf("NewCycle: %v", err)
	}
	return c, store, bank
}

func setSTI(store *atomspace.Store, id atomspace.NodeID, sti, lti float64) {
	store.UpdateNodeAttention(id, atomspace.AttentionValue{STI: sti, LTI: lti})
}

func TestParamsValidation(t *testing.T) {
	store := atomspace.New()
	bank := NewBank(1000, 1000, 0, 0)

	bad := []Params{
		{DecayFactor: 0, SpreadFraction: 0.1, FocusCapacity: 10},
		{DecayFactor: 1.5, SpreadFraction: 0.1, FocusCapacity: 10},
		{DecayFactor: 0.9, RentRate: -1, SpreadFraction: 0.1, FocusCapacity: 10},
		{DecayFactor: 0.9, SpreadFraction: 2, FocusCapacity: 10},
		{DecayFactor: 0.9, SpreadFraction: 0.1, FocusCapacity: 0},
	}
	for i, p := range bad {
		if _, err := NewCycle(store, bank, p); err == nil {
			t.Errorf("params %d: expected validation error", i)
		}
	}
}

func TestDecayLinearity(t *testing.T) {
	p := testParams()
	p.DecayFactor = 0.9
	c, store, _ := testCycle(t, p)

	n := store.AddNode(atomspace.NodeConcept, "a")
	store.UpdateNodeAttention(n, atomspace.AttentionValue{STI: 100, LTI: 50, VLTI: 2})
	a := store.AddNode(atomspace.NodeConcept, "b")
	b := store.AddNode(atomspace.NodeConcept, "c")
	l := store.AddLink(atomspace.LinkInheritance, []atomspace.NodeID{a, b})
	store.UpdateLinkAttention(l, atomspace.AttentionValue{STI: 10, LTI: 10, VLTI: 1})

	var stats TickStats
	c.decay(&stats)

	got := store.GetNode(n).Attention
	if got.STI != 90 || got.LTI != 45 {
		t.Errorf("node attention = %+v, want sti 90 lti 45", got)
	}
	if got.VLTI != 2 {
		t.Errorf("vlti = %g, want untouched 2", got.VLTI)
	}
	lgot := store.GetLink(l).Attention
	if lgot.STI != 9 || lgot.LTI != 9 {
		t.Errorf("link attention = %+v, want sti 9 lti 9", lgot)
	}
	if lgot.VLTI != 1 {
		t.Errorf("link vlti = %g, want 1", lgot.VLTI)
	}
}

func TestDecayIsSink(t *testing.T) {
	p := testParams()
	p.DecayFactor = 0.5
	c, store, bank := testCycle(t, p)

	n := store.AddNode(atomspace.NodeConcept, "a")
	if !c.Stimulate(n, 100) {
		t.Fatal("stimulate should succeed")
	}
	before := bank.Snapshot().AvailableSTI

	var stats TickStats
	c.decay(&stats)

	// Decayed currency vanishes; the bank sees none of it.
	if after := bank.Snapshot().AvailableSTI; after != before {
		t.Errorf("decay credited the bank: %g -> %g", before, after)
	}
	if got := store.GetNode(n).Attention.STI; got != 50 {
		t.Errorf("sti = %g, want 50", got)
	}
}

func TestRentConservation(t *testing.T) {
	p := testParams()
	p.RentRate = 0.1
	c, store, bank := testCycle(t, p)

	a := store.AddNode(atomspace.NodeConcept, "a")
	b := store.AddNode(atomspace.NodeConcept, "b")
	c.Stimulate(a, 100)
	c.Stimulate(b, 50)

	before := bank.Snapshot().AvailableSTI
	var stats TickStats
	c.collectRent(&stats)
	after := bank.Snapshot().AvailableSTI

	if stats.RentCollected != 15 {
		t.Errorf("rent collected = %g, want 15", stats.RentCollected)
	}
	if after-before != stats.RentCollected {
		t.Errorf("bank credit %g != rent collected %g", after-before, stats.RentCollected)
	}
	if got := store.GetNode(a).Attention.STI; got != 90 {
		t.Errorf("a.sti = %g, want 90", got)
	}
}

func TestRentSkipsNonPositive(t *testing.T) {
	p := testParams()
	p.RentRate = 0.1
	c, store, bank := testCycle(t, p)

	n := store.AddNode(atomspace.NodeConcept, "a")
	store.UpdateNodeAttention(n, atomspace.AttentionValue{STI: -5})

	before := bank.Snapshot().AvailableSTI
	var stats TickStats
	c.collectRent(&stats)

	if stats.RentCollected != 0 {
		t.Errorf("rent = %g, want 0 for negative sti", stats.RentCollected)
	}
	if bank.Snapshot().AvailableSTI != before {
		t.Error("bank changed for non-positive rent")
	}
	if got := store.GetNode(n).Attention.STI; got != -5 {
		t.Errorf("sti = %g, want unchanged -5", got)
	}
}

func TestSpreadScenario(t *testing.T) {
	c, store, _ := testCycle(t, testParams())

	a := store.AddNode(atomspace.NodeConcept, "a")
	b := store.AddNode(atomspace.NodeConcept, "b")
	l1 := store.AddLink(atomspace.LinkInheritance, []atomspace.NodeID{a, b})
	l2 := store.AddLink(atomspace.LinkSimilarity, []atomspace.NodeID{b, a})
	setSTI(store, a, 20, 0)

	c.focus = []FocusEntry{{Node: a, Link: l1}}
	var stats TickStats
	c.spreadActivation(&stats)

	if got := store.GetNode(a).Attention.STI; got != 18 {
		t.Errorf("source sti = %g, want 18", got)
	}
	if got := store.GetLink(l1).Attention.STI; got != 1 {
		t.Errorf("l1 sti = %g, want 1", got)
	}
	if got := store.GetLink(l2).Attention.STI; got != 1 {
		t.Errorf("l2 sti = %g, want 1", got)
	}
	if stats.SpreadSources != 1 {
		t.Errorf("spread sources = %d, want 1", stats.SpreadSources)
	}
}

func TestSpreadNoConnectionsIsNoOp(t *testing.T) {
	c, store, _ := testCycle(t, testParams())

	a := store.AddNode(atomspace.NodeConcept, "loner")
	setSTI(store, a, 500, 0)

	c.focus = []FocusEntry{{Node: a}}
	var stats TickStats
	c.spreadActivation(&stats)

	if got := store.GetNode(a).Attention.STI; got != 500 {
		t.Errorf("sti = %g, want unchanged 500", got)
	}
}

func TestSpreadBelowThreshold(t *testing.T) {
	c, store, _ := testCycle(t, testParams())

	a := store.AddNode(atomspace.NodeConcept, "a")
	b := store.AddNode(atomspace.NodeConcept, "b")
	store.AddLink(atomspace.LinkInheritance, []atomspace.NodeID{a, b})
	setSTI(store, a, 5, 0)

	c.focus = []FocusEntry{{Node: a}}
	var stats TickStats
	c.spreadActivation(&stats)

	if got := store.GetNode(a).Attention.STI; got != 5 {
		t.Errorf("sti = %g, want unchanged 5", got)
	}
}

func TestSpreadSkipsEvictedFocusEntries(t *testing.T) {
	c, store, _ := testCycle(t, testParams())

	a := store.AddNode(atomspace.NodeConcept, "a")
	setSTI(store, a, 50, 0)
	c.focus = []FocusEntry{{Node: a}}
	store.RemoveNode(a)

	var stats TickStats
	c.spreadActivation(&stats) // must not panic
	if stats.SpreadSources != 0 {
		t.Errorf("spread sources = %d, want 0", stats.SpreadSources)
	}
}

func TestFocusRefreshTruncatesUnequalPools(t *testing.T) {
	c, store, _ := testCycle(t, testParams())

	var top atomspace.NodeID
	for _, sti := range []float64{30, 50, 10, 20, 40} {
		n := store.AddNode(atomspace.NodeConcept, "n")
		setSTI(store, n, sti, 0)
		if sti == 50 {
			top = n
		}
	}
	a := store.AddNode(atomspace.NodeConcept, "a")
	b := store.AddNode(atomspace.NodeConcept, "b")
	l := store.AddLink(atomspace.LinkInheritance, []atomspace.NodeID{a, b})

	var stats TickStats
	c.refreshFocus(&stats)

	// Seven nodes, one link: pairing truncates to one entry.
	if stats.FocusSize != 1 {
		t.Fatalf("focus size = %d, want 1", stats.FocusSize)
	}
	entry := c.Focus()[0]
	if entry.Node != top || entry.Link != l {
		t.Errorf("focus entry = %+v, want node %d link %d", entry, top, l)
	}
}

func TestFocusRefreshTopK(t *testing.T) {
	p := testParams()
	p.FocusCapacity = 4
	c, store, _ := testCycle(t, p)

	n1 := store.AddNode(atomspace.NodeConcept, "n1")
	n2 := store.AddNode(atomspace.NodeConcept, "n2")
	n3 := store.AddNode(atomspace.NodeConcept, "n3")
	setSTI(store, n1, 30, 0)
	setSTI(store, n2, 20, 0)
	setSTI(store, n3, 10, 0)

	l1 := store.AddLink(atomspace.LinkInheritance, []atomspace.NodeID{n1, n2})
	l2 := store.AddLink(atomspace.LinkInheritance, []atomspace.NodeID{n2, n3})
	l3 := store.AddLink(atomspace.LinkInheritance, []atomspace.NodeID{n3, n1})
	store.UpdateLinkAttention(l1, atomspace.AttentionValue{STI: 5})
	store.UpdateLinkAttention(l2, atomspace.AttentionValue{STI: 3})
	store.UpdateLinkAttention(l3, atomspace.AttentionValue{STI: 1})

	var stats TickStats
	c.refreshFocus(&stats)

	focus := c.Focus()
	if len(focus) != 2 {
		t.Fatalf("focus size = %d, want capacity/2 = 2", len(focus))
	}
	if focus[0].Node != n1 || focus[0].Link != l1 {
		t.Errorf("focus[0] = %+v, want node %d link %d", focus[0], n1, l1)
	}
	if focus[1].Node != n2 || focus[1].Link != l2 {
		t.Errorf("focus[1] = %+v, want node %d link %d", focus[1], n2, l2)
	}

	if !c.IsInFocus(n1) || c.IsInFocus(n3) {
		t.Error("IsInFocus membership wrong")
	}
	if !c.IsLinkInFocus(l1) || c.IsLinkInFocus(l3) {
		t.Error("IsLinkInFocus membership wrong")
	}
}

func TestForgettingCorrectness(t *testing.T) {
	p := testParams()
	p.ForgettingThreshold = 1.0
	c, store, _ := testCycle(t, p)

	gone := store.AddNode(atomspace.NodeConcept, "gone")
	setSTI(store, gone, 0.5, 0.5)
	keptSTI := store.AddNode(atomspace.NodeConcept, "kept-sti")
	setSTI(store, keptSTI, 2.0, 0.0)
	keptLTI := store.AddNode(atomspace.NodeConcept, "kept-lti")
	setSTI(store, keptLTI, 0.0, 3.0)

	var stats TickStats
	c.forget(&stats)

	if store.GetNode(gone) != nil {
		t.Error("node below threshold on both funds should be forgotten")
	}
	if store.GetNode(keptSTI) == nil {
		t.Error("node with sti above threshold should survive")
	}
	if store.GetNode(keptLTI) == nil {
		t.Error("node with lti above threshold should survive")
	}
	if stats.ForgottenNodes != 1 {
		t.Errorf("forgotten nodes = %d, want 1", stats.ForgottenNodes)
	}
}

func TestForgettingEvictsLinks(t *testing.T) {
	p := testParams()
	p.ForgettingThreshold = 1.0
	c, store, _ := testCycle(t, p)

	a := store.AddNode(atomspace.NodeConcept, "a")
	b := store.AddNode(atomspace.NodeConcept, "b")
	setSTI(store, a, 5, 0)
	setSTI(store, b, 5, 0)
	cold := store.AddLink(atomspace.LinkInheritance, []atomspace.NodeID{a, b})
	warm := store.AddLink(atomspace.LinkSimilarity, []atomspace.NodeID{a, b})
	store.UpdateLinkAttention(warm, atomspace.AttentionValue{STI: 2})

	var stats TickStats
	c.forget(&stats)

	if store.GetLink(cold) != nil {
		t.Error("cold link should be forgotten")
	}
	if store.GetLink(warm) == nil {
		t.Error("warm link should survive")
	}
}

func TestStimulateScenario(t *testing.T) {
	c, store, bank := testCycle(t, testParams())

	a := store.AddNode(atomspace.NodeConcept, "a")

	if !c.Stimulate(a, 100) {
		t.Fatal("stimulate 100 should succeed")
	}
	if got := bank.Snapshot().AvailableSTI; got != 900 {
		t.Errorf("available sti = %g, want 900", got)
	}
	if got := store.GetNode(a).Attention.STI; got != 100 {
		t.Errorf("a.sti = %g, want 100", got)
	}

	if c.Stimulate(a, 950) {
		t.Fatal("stimulate beyond available should fail")
	}
	if got := bank.Snapshot().AvailableSTI; got != 900 {
		t.Errorf("failed stimulate changed bank: %g", got)
	}
	if got := store.GetNode(a).Attention.STI; got != 100 {
		t.Errorf("failed stimulate changed node: %g", got)
	}
}

func TestStimulateUnknownID(t *testing.T) {
	c, _, bank := testCycle(t, testParams())

	if c.Stimulate(999, 50) {
		t.Error("stimulate on unknown id should fail")
	}
	if got := bank.Snapshot().AvailableSTI; got != 1000 {
		t.Errorf("bank debited for unknown id: %g", got)
	}
}

func TestStimulateLink(t *testing.T) {
	c, store, bank := testCycle(t, testParams())

	a := store.AddNode(atomspace.NodeConcept, "a")
	b := store.AddNode(atomspace.NodeConcept, "b")
	l := store.AddLink(atomspace.LinkInheritance, []atomspace.NodeID{a, b})

	if !c.StimulateLink(l, 25) {
		t.Fatal("stimulate link should succeed")
	}
	if got := store.GetLink(l).Attention.STI; got != 25 {
		t.Errorf("link sti = %g, want 25", got)
	}
	if got := bank.Snapshot().AvailableSTI; got != 975 {
		t.Errorf("available = %g, want 975", got)
	}
}

func TestPrioritizeByAttention(t *testing.T) {
	c, store, _ := testCycle(t, testParams())

	low := store.AddNode(atomspace.NodeConcept, "low")
	high := store.AddNode(atomspace.NodeConcept, "high")
	mid := store.AddNode(atomspace.NodeConcept, "mid")
	setSTI(store, low, 1, 0)
	setSTI(store, high, 100, 0)
	setSTI(store, mid, 10, 0)

	got := c.PrioritizeByAttention([]atomspace.NodeID{low, 999, high, mid})
	want := []atomspace.NodeID{high, mid, low}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
			break
		}
	}
}

func TestTickPhaseOrder(t *testing.T) {
	p := Params{
		DecayFactor:         0.9,
		RentRate:            0.1,
		SpreadThreshold:     10,
		SpreadFraction:      0.1,
		ForgettingThreshold: 1.0,
		FocusCapacity:       20,
	}
	c, store, bank := testCycle(t, p)

	a := store.AddNode(atomspace.NodeConcept, "a")
	b := store.AddNode(atomspace.NodeConcept, "b")
	store.AddLink(atomspace.LinkInheritance, []atomspace.NodeID{a, b})
	c.Stimulate(a, 100)

	stats := c.Tick()

	// Decay then rent: 100 -> 90 -> 81, bank credited 9.
	if got := store.GetNode(a).Attention.STI; got != 81 {
		t.Errorf("a.sti = %g, want 81", got)
	}
	if stats.RentCollected != 9 {
		t.Errorf("rent = %g, want 9", stats.RentCollected)
	}
	if got := bank.Snapshot().AvailableSTI; got != 909 {
		t.Errorf("available = %g, want 909", got)
	}
	// b and the link decayed to zero attention and were forgotten.
	if store.GetNode(b) != nil {
		t.Error("b should have been forgotten")
	}
	if stats.ForgottenNodes != 1 || stats.ForgottenLinks != 1 {
		t.Errorf("forgotten = %d/%d, want 1/1", stats.ForgottenNodes, stats.ForgottenLinks)
	}
	if store.GetNode(a) == nil {
		t.Error("a should survive")
	}
}
