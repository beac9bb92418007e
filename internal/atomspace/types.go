package atomspace

// NodeID is an opaque handle for a node. Handles are monotonically
// increasing for the lifetime of a store and are never reused, even after
// the node is removed.
type NodeID int64

// LinkID is an opaque handle for a link, with the same lifetime guarantees
// as NodeID. Node and link ids are drawn from the same counter, so an id
// identifies at most one entity of either kind.
type LinkID int64

// NodeKind classifies a node.
type NodeKind string

const (
	NodeConcept   NodeKind = "Concept"
	NodePredicate NodeKind = "Predicate"
	NodeVariable  NodeKind = "Variable"
	NodeNumber    NodeKind = "Number"
	NodeLinkType  NodeKind = "LinkType"
	NodeSchema    NodeKind = "Schema"
)

// LinkKind classifies a link. Any value outside the predefined set is a
// custom kind and is stored and exported verbatim.
type LinkKind string

const (
	LinkInheritance LinkKind = "Inheritance"
	LinkSimilarity  LinkKind = "Similarity"
	LinkImplication LinkKind = "Implication"
	LinkEvaluation  LinkKind = "Evaluation"
	LinkExecution   LinkKind = "Execution"
)

// AttentionValue carries the attention currencies attached to every entity.
// STI and LTI are spendable and decay over time; VLTI is a slow structural
// importance scalar that decay and rent never touch.
type AttentionValue struct {
	STI  float64
	LTI  float64
	VLTI float64
}

// TruthValue is a (strength, confidence) pair, each in [0,1]. The store
// holds truth values for its consumers but never interprets them.
type TruthValue struct {
	Strength   float64
	Confidence float64
}

// NewTruthValue clamps both components into [0,1].
func NewTruthValue(strength, confidence float64) TruthValue {
	return TruthValue{
		Strength:   clamp01(strength),
		Confidence: clamp01(confidence),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Node is a named vertex in the hypergraph.
type Node struct {
	ID        NodeID
	Kind      NodeKind
	Name      string
	Attention AttentionValue
	Truth     TruthValue
}

// Link is an ordered hyperedge over nodes. The outgoing sequence is
// semantically directed: the first element is the source for adjacency
// queries.
type Link struct {
	ID        LinkID
	Kind      LinkKind
	Outgoing  []NodeID
	Attention AttentionValue
	Truth     TruthValue
}
