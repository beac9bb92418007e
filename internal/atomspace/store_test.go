package atomspace

import (
	"testing"
)

func TestAddNode(t *testing.T) {
	s := New()

	id := s.AddNode(NodeConcept, "dog")
	if id == 0 {
		t.Fatal("expected non-zero id")
	}

	n := s.GetNode(id)
	if n == nil {
		t.Fatal("expected node, got nil")
	}
	if n.Kind != NodeConcept {
		t.Errorf("kind = %q, want Concept", n.Kind)
	}
	if n.Name != "dog" {
		t.Errorf("name = %q, want dog", n.Name)
	}
	if n.Attention != (AttentionValue{}) {
		t.Errorf("attention = %+v, want zero", n.Attention)
	}
}

func TestIDsMonotonicAcrossKinds(t *testing.T) {
	s := New()

	a := s.AddNode(NodeConcept, "a")
	l := s.AddLink(LinkInheritance, []NodeID{a})
	b := s.AddNode(NodeConcept, "b")

	if int64(l) <= int64(a) || int64(b) <= int64(l) {
		t.Errorf("ids not monotonic: node %d, link %d, node %d", a, l, b)
	}
}

func TestIDsNeverReused(t *testing.T) {
	s := New()

	a := s.AddNode(NodeConcept, "a")
	s.RemoveNode(a)
	b := s.AddNode(NodeConcept, "b")

	if b <= a {
		t.Errorf("id %d reused after removing %d", b, a)
	}
	if s.GetNode(a) != nil {
		t.Error("removed node still resolves")
	}
}

func TestUnknownIDSilentNoOp(t *testing.T) {
	s := New()
	a := s.AddNode(NodeConcept, "a")

	// None of these should panic or change state.
	s.UpdateNodeAttention(999, AttentionValue{STI: 5})
	s.UpdateNodeTruth(999, TruthValue{Strength: 1})
	s.UpdateLinkAttention(999, AttentionValue{STI: 5})
	s.UpdateLinkTruth(999, TruthValue{Strength: 1})
	s.RemoveNode(999)
	s.RemoveLink(999)

	if s.GetNode(999) != nil {
		t.Error("expected nil for unknown node")
	}
	if s.GetLink(999) != nil {
		t.Error("expected nil for unknown link")
	}
	if got := s.IncomingLinks(999); len(got) != 0 {
		t.Errorf("incoming for unknown id = %v, want empty", got)
	}
	if s.NodeCount() != 1 {
		t.Errorf("node count = %d, want 1", s.NodeCount())
	}
	if n := s.GetNode(a); n.Attention.STI != 0 {
		t.Errorf("bystander node mutated: %+v", n.Attention)
	}
}

func TestNameIndexConsistency(t *testing.T) {
	s := New()

	a := s.AddNode(NodeConcept, "dog")
	b := s.AddNode(NodePredicate, "dog")
	s.AddNode(NodeConcept, "cat")

	ids := s.FindByName("dog")
	if len(ids) != 2 || ids[0] != a || ids[1] != b {
		t.Fatalf("FindByName(dog) = %v, want [%d %d]", ids, a, b)
	}

	s.RemoveNode(a)
	ids = s.FindByName("dog")
	if len(ids) != 1 || ids[0] != b {
		t.Errorf("after removal FindByName(dog) = %v, want [%d]", ids, b)
	}

	s.RemoveNode(b)
	if got := s.FindByName("dog"); len(got) != 0 {
		t.Errorf("after removing all, FindByName(dog) = %v, want empty", got)
	}
}

func TestFindByKind(t *testing.T) {
	s := New()

	a := s.AddNode(NodeConcept, "a")
	s.AddNode(NodePredicate, "p")
	b := s.AddNode(NodeConcept, "b")
	l := s.AddLink(LinkSimilarity, []NodeID{a, b})
	s.AddLink(LinkInheritance, []NodeID{a, b})

	concepts := s.FindNodesByKind(NodeConcept)
	if len(concepts) != 2 || concepts[0] != a || concepts[1] != b {
		t.Errorf("FindNodesByKind(Concept) = %v, want [%d %d]", concepts, a, b)
	}
	sims := s.FindLinksByKind(LinkSimilarity)
	if len(sims) != 1 || sims[0] != l {
		t.Errorf("FindLinksByKind(Similarity) = %v, want [%d]", sims, l)
	}
}

func TestAdjacency(t *testing.T) {
	s := New()

	a := s.AddNode(NodeConcept, "a")
	b := s.AddNode(NodeConcept, "b")
	c := s.AddNode(NodeConcept, "c")

	ab := s.AddLink(LinkInheritance, []NodeID{a, b})
	ca := s.AddLink(LinkSimilarity, []NodeID{c, a})

	// a is the source of ab and a member of both.
	out := s.OutgoingLinks(a)
	if len(out) != 1 || out[0] != ab {
		t.Errorf("OutgoingLinks(a) = %v, want [%d]", out, ab)
	}
	in := s.IncomingLinks(a)
	if len(in) != 2 {
		t.Errorf("IncomingLinks(a) = %v, want 2 links", in)
	}

	// b is only a member, never a source.
	if got := s.OutgoingLinks(b); len(got) != 0 {
		t.Errorf("OutgoingLinks(b) = %v, want empty", got)
	}
	in = s.IncomingLinks(b)
	if len(in) != 1 || in[0] != ab {
		t.Errorf("IncomingLinks(b) = %v, want [%d]", in, ab)
	}

	s.RemoveLink(ca)
	in = s.IncomingLinks(a)
	if len(in) != 1 || in[0] != ab {
		t.Errorf("after RemoveLink IncomingLinks(a) = %v, want [%d]", in, ab)
	}
}

func TestDuplicateMemberIndexedOnce(t *testing.T) {
	s := New()

	a := s.AddNode(NodeConcept, "a")
	l := s.AddLink(LinkEvaluation, []NodeID{a, a})

	in := s.IncomingLinks(a)
	if len(in) != 1 || in[0] != l {
		t.Errorf("IncomingLinks with duplicate member = %v, want [%d]", in, l)
	}
}

func TestDanglingReferenceAfterNodeRemoval(t *testing.T) {
	s := New()

	a := s.AddNode(NodeConcept, "a")
	b := s.AddNode(NodeConcept, "b")
	l := s.AddLink(LinkInheritance, []NodeID{a, b})

	s.RemoveNode(a)

	// The link survives with a dangling reference.
	link := s.GetLink(l)
	if link == nil {
		t.Fatal("link should survive node removal")
	}
	if len(link.Outgoing) != 2 || link.Outgoing[0] != a {
		t.Errorf("outgoing = %v, want dangling [%d %d]", link.Outgoing, a, b)
	}
	// Adjacency queries on the removed id go empty.
	if got := s.IncomingLinks(a); len(got) != 0 {
		t.Errorf("IncomingLinks(removed) = %v, want empty", got)
	}
}

func TestTruthClamped(t *testing.T) {
	s := New()
	a := s.AddNode(NodeConcept, "a")

	s.UpdateNodeTruth(a, TruthValue{Strength: 1.5, Confidence: -0.2})
	n := s.GetNode(a)
	if n.Truth.Strength != 1 || n.Truth.Confidence != 0 {
		t.Errorf("truth = %+v, want clamped to [0,1]", n.Truth)
	}
}

func TestGetReturnsCopies(t *testing.T) {
	s := New()
	a := s.AddNode(NodeConcept, "a")
	b := s.AddNode(NodeConcept, "b")
	l := s.AddLink(LinkInheritance, []NodeID{a, b})

	got := s.GetLink(l)
	got.Outgoing[0] = 999
	got.Attention.STI = 42

	fresh := s.GetLink(l)
	if fresh.Outgoing[0] != a || fresh.Attention.STI != 0 {
		t.Error("mutating a returned copy leaked into the store")
	}
}

func TestEnumerationSortedByID(t *testing.T) {
	s := New()
	s.AddNode(NodeConcept, "c")
	s.AddNode(NodeConcept, "a")
	s.AddNode(NodeConcept, "b")

	nodes := s.Nodes()
	for i := 1; i < len(nodes); i++ {
		if nodes[i].ID <= nodes[i-1].ID {
			t.Fatalf("enumeration not sorted: %v then %v", nodes[i-1].ID, nodes[i].ID)
		}
	}
}

func TestRestorePreservesIDs(t *testing.T) {
	s := New()

	err := s.RestoreNode(Node{ID: 10, Kind: NodeConcept, Name: "dog"})
	if err != nil {
		t.Fatalf("RestoreNode: %v", err)
	}
	err = s.RestoreLink(Link{ID: 11, Kind: LinkInheritance, Outgoing: []NodeID{10}})
	if err != nil {
		t.Fatalf("RestoreLink: %v", err)
	}

	// Fresh inserts continue past the restored ids.
	next := s.AddNode(NodeConcept, "cat")
	if int64(next) <= 11 {
		t.Errorf("next id = %d, want > 11", next)
	}

	// Restored entities are fully indexed.
	if ids := s.FindByName("dog"); len(ids) != 1 || ids[0] != 10 {
		t.Errorf("FindByName(dog) = %v, want [10]", ids)
	}
	if in := s.IncomingLinks(10); len(in) != 1 || in[0] != 11 {
		t.Errorf("IncomingLinks(10) = %v, want [11]", in)
	}
}

func TestRestoreCollisionRejected(t *testing.T) {
	s := New()
	a := s.AddNode(NodeConcept, "a")

	if err := s.RestoreNode(Node{ID: a, Kind: NodeConcept, Name: "dup"}); err == nil {
		t.Error("expected error restoring over a live node id")
	}
	if err := s.RestoreLink(Link{ID: LinkID(a), Kind: LinkInheritance}); err == nil {
		t.Error("expected error restoring a link over a node id")
	}
	if err := s.RestoreNode(Node{ID: 0}); err == nil {
		t.Error("expected error restoring id 0")
	}
}

func TestHooksFire(t *testing.T) {
	s := New()

	type event struct {
		entity Entity
		id     int64
		action string
		reason RemovalReason
	}
	var events []event
	s.SetHooks(Hooks{
		OnAdd: func(e Entity, id int64) {
			events = append(events, event{e, id, "add", ""})
		},
		OnUpdate: func(e Entity, id int64) {
			events = append(events, event{e, id, "update", ""})
		},
		OnRemove: func(e Entity, id int64, reason RemovalReason) {
			events = append(events, event{e, id, "remove", reason})
		},
	})

	a := s.AddNode(NodeConcept, "a")
	s.UpdateNodeAttention(a, AttentionValue{STI: 1})
	s.RemoveNode(a)

	b := s.AddNode(NodeConcept, "b")
	s.EvictNode(b)

	// Unknown-id mutators must not fire hooks.
	s.UpdateNodeAttention(999, AttentionValue{})
	s.RemoveNode(999)

	want := []event{
		{EntityNode, int64(a), "add", ""},
		{EntityNode, int64(a), "update", ""},
		{EntityNode, int64(a), "remove", RemovalUser},
		{EntityNode, int64(b), "add", ""},
		{EntityNode, int64(b), "remove", RemovalEviction},
	}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d: %+v", len(events), len(want), events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d = %+v, want %+v", i, events[i], want[i])
		}
	}
}
