package atomspace

import (
	"fmt"
	"sort"
)

// Entity tags which kind of record a mutation hook fires for.
type Entity string

const (
	EntityNode Entity = "node"
	EntityLink Entity = "link"
)

// RemovalReason distinguishes explicit deletion from economic eviction in
// audit trails. Eviction is not an error, but it must be tellable apart.
type RemovalReason string

const (
	RemovalUser     RemovalReason = "user"
	RemovalEviction RemovalReason = "eviction"
)

// Hooks are per-mutation notification callbacks for a write-ahead-log
// collaborator. The store calls them after each successful mutation; it does
// not implement logging itself. Nil callbacks are skipped.
type Hooks struct {
	OnAdd    func(entity Entity, id int64)
	OnUpdate func(entity Entity, id int64)
	OnRemove func(entity Entity, id int64, reason RemovalReason)
}

// Store is the identifier-indexed hypergraph arena. Nodes and links
// reference each other only by id, never by pointer. The store holds
// attention and truth fields but knows nothing about attention economics.
//
// Mutators on unknown ids are silent no-ops and queries return nil/empty:
// consumers routinely operate on ids that may have just been evicted.
type Store struct {
	nextID int64
	nodes  map[NodeID]*Node
	links  map[LinkID]*Link

	byName   map[string][]NodeID
	byMember map[NodeID][]LinkID // links whose outgoing contains the id anywhere
	bySource map[NodeID][]LinkID // links whose outgoing starts with the id

	hooks Hooks
}

// New creates an empty store.
func New() *Store {
	return &Store{
		nodes:    make(map[NodeID]*Node),
		links:    make(map[LinkID]*Link),
		byName:   make(map[string][]NodeID),
		byMember: make(map[NodeID][]LinkID),
		bySource: make(map[NodeID][]LinkID),
	}
}

// SetHooks installs mutation notification callbacks.
func (s *Store) SetHooks(h Hooks) {
	s.hooks = h
}

// AddNode inserts a node and returns its freshly assigned id.
func (s *Store) AddNode(kind NodeKind, name string) NodeID {
	s.nextID++
	id := NodeID(s.nextID)
	s.nodes[id] = &Node{ID: id, Kind: kind, Name: name}
	s.byName[name] = append(s.byName[name], id)
	if s.hooks.OnAdd != nil {
		s.hooks.OnAdd(EntityNode, int64(id))
	}
	return id
}

// AddLink inserts a link over the given ordered outgoing sequence and
// returns its id. The sequence is copied; member ids are not checked for
// existence (a link may legitimately reference an id that was just evicted).
func (s *Store) AddLink(kind LinkKind, outgoing []NodeID) LinkID {
	s.nextID++
	id := LinkID(s.nextID)
	out := make([]NodeID, len(outgoing))
	copy(out, outgoing)
	s.links[id] = &Link{ID: id, Kind: kind, Outgoing: out}
	s.indexLink(id, out)
	if s.hooks.OnAdd != nil {
		s.hooks.OnAdd(EntityLink, int64(id))
	}
	return id
}

func (s *Store) indexLink(id LinkID, outgoing []NodeID) {
	seen := make(map[NodeID]bool, len(outgoing))
	for _, nid := range outgoing {
		if seen[nid] {
			continue
		}
		seen[nid] = true
		s.byMember[nid] = append(s.byMember[nid], id)
	}
	if len(outgoing) > 0 {
		src := outgoing[0]
		s.bySource[src] = append(s.bySource[src], id)
	}
}

func (s *Store) unindexLink(id LinkID, outgoing []NodeID) {
	seen := make(map[NodeID]bool, len(outgoing))
	for _, nid := range outgoing {
		if seen[nid] {
			continue
		}
		seen[nid] = true
		s.byMember[nid] = removeID(s.byMember[nid], id)
		if len(s.byMember[nid]) == 0 {
			delete(s.byMember, nid)
		}
	}
	if len(outgoing) > 0 {
		src := outgoing[0]
		s.bySource[src] = removeID(s.bySource[src], id)
		if len(s.bySource[src]) == 0 {
			delete(s.bySource, src)
		}
	}
}

func removeID(ids []LinkID, id LinkID) []LinkID {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

// GetNode returns a copy of the node, or nil if the id is unknown.
func (s *Store) GetNode(id NodeID) *Node {
	n, ok := s.nodes[id]
	if !ok {
		return nil
	}
	c := *n
	return &c
}

// GetLink returns a copy of the link (outgoing included), or nil.
func (s *Store) GetLink(id LinkID) *Link {
	l, ok := s.links[id]
	if !ok {
		return nil
	}
	c := *l
	c.Outgoing = make([]NodeID, len(l.Outgoing))
	copy(c.Outgoing, l.Outgoing)
	return &c
}

// UpdateNodeAttention replaces a node's attention value. Unknown id: no-op.
func (s *Store) UpdateNodeAttention(id NodeID, av AttentionValue) {
	n, ok := s.nodes[id]
	if !ok {
		return
	}
	n.Attention = av
	if s.hooks.OnUpdate != nil {
		s.hooks.OnUpdate(EntityNode, int64(id))
	}
}

// UpdateNodeTruth replaces a node's truth value, clamped. Unknown id: no-op.
func (s *Store) UpdateNodeTruth(id NodeID, tv TruthValue) {
	n, ok := s.nodes[id]
	if !ok {
		return
	}
	n.Truth = NewTruthValue(tv.Strength, tv.Confidence)
	if s.hooks.OnUpdate != nil {
		s.hooks.OnUpdate(EntityNode, int64(id))
	}
}

// UpdateLinkAttention replaces a link's attention value. Unknown id: no-op.
func (s *Store) UpdateLinkAttention(id LinkID, av AttentionValue) {
	l, ok := s.links[id]
	if !ok {
		return
	}
	l.Attention = av
	if s.hooks.OnUpdate != nil {
		s.hooks.OnUpdate(EntityLink, int64(id))
	}
}

// UpdateLinkTruth replaces a link's truth value, clamped. Unknown id: no-op.
func (s *Store) UpdateLinkTruth(id LinkID, tv TruthValue) {
	l, ok := s.links[id]
	if !ok {
		return
	}
	l.Truth = NewTruthValue(tv.Strength, tv.Confidence)
	if s.hooks.OnUpdate != nil {
		s.hooks.OnUpdate(EntityLink, int64(id))
	}
}

// RemoveNode deletes a node by explicit caller request. Links referencing
// the node are left in place with a dangling id; adjacency queries for the
// removed id return empty from then on. Unknown id: no-op.
func (s *Store) RemoveNode(id NodeID) {
	s.removeNode(id, RemovalUser)
}

// EvictNode is RemoveNode with the eviction reason, used by the forgetting
// policy so the audit trail can distinguish it from user deletion.
func (s *Store) EvictNode(id NodeID) {
	s.removeNode(id, RemovalEviction)
}

func (s *Store) removeNode(id NodeID, reason RemovalReason) {
	n, ok := s.nodes[id]
	if !ok {
		return
	}
	delete(s.nodes, id)
	s.byName[n.Name] = removeNodeID(s.byName[n.Name], id)
	if len(s.byName[n.Name]) == 0 {
		delete(s.byName, n.Name)
	}
	// Adjacency entries for a dead id are unreachable; drop them.
	delete(s.byMember, id)
	delete(s.bySource, id)
	if s.hooks.OnRemove != nil {
		s.hooks.OnRemove(EntityNode, int64(id), reason)
	}
}

func removeNodeID(ids []NodeID, id NodeID) []NodeID {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

// RemoveLink deletes a link by explicit caller request. Unknown id: no-op.
func (s *Store) RemoveLink(id LinkID) {
	s.removeLink(id, RemovalUser)
}

// EvictLink is RemoveLink with the eviction reason.
func (s *Store) EvictLink(id LinkID) {
	s.removeLink(id, RemovalEviction)
}

func (s *Store) removeLink(id LinkID, reason RemovalReason) {
	l, ok := s.links[id]
	if !ok {
		return
	}
	delete(s.links, id)
	s.unindexLink(id, l.Outgoing)
	if s.hooks.OnRemove != nil {
		s.hooks.OnRemove(EntityLink, int64(id), reason)
	}
}

// FindByName returns the ids of all nodes with the given name, in insertion
// order.
func (s *Store) FindByName(name string) []NodeID {
	ids := s.byName[name]
	if len(ids) == 0 {
		return nil
	}
	out := make([]NodeID, len(ids))
	copy(out, ids)
	return out
}

// FindNodesByKind returns the ids of all nodes of the given kind, sorted.
func (s *Store) FindNodesByKind(kind NodeKind) []NodeID {
	var ids []NodeID
	for id, n := range s.nodes {
		if n.Kind == kind {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// FindLinksByKind returns the ids of all links of the given kind, sorted.
func (s *Store) FindLinksByKind(kind LinkKind) []LinkID {
	var ids []LinkID
	for id, l := range s.links {
		if l.Kind == kind {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// IncomingLinks returns links whose outgoing sequence contains the id
// anywhere. Unknown id: empty.
func (s *Store) IncomingLinks(id NodeID) []LinkID {
	ids := s.byMember[id]
	if len(ids) == 0 {
		return nil
	}
	out := make([]LinkID, len(ids))
	copy(out, ids)
	return out
}

// OutgoingLinks returns links whose outgoing sequence starts with the id.
// Unknown id: empty.
func (s *Store) OutgoingLinks(id NodeID) []LinkID {
	ids := s.bySource[id]
	if len(ids) == 0 {
		return nil
	}
	out := make([]LinkID, len(ids))
	copy(out, ids)
	return out
}

// Nodes returns a snapshot of all nodes, sorted by id. The ordering is the
// deterministic enumeration the persistence collaborator relies on.
func (s *Store) Nodes() []Node {
	out := make([]Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Links returns a snapshot of all links, sorted by id, outgoing copied.
func (s *Store) Links() []Link {
	out := make([]Link, 0, len(s.links))
	for _, l := range s.links {
		c := *l
		c.Outgoing = make([]NodeID, len(l.Outgoing))
		copy(c.Outgoing, l.Outgoing)
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// NodeCount returns the number of live nodes.
func (s *Store) NodeCount() int { return len(s.nodes) }

// LinkCount returns the number of live links.
func (s *Store) LinkCount() int { return len(s.links) }

// RestoreNode re-inserts a node preserving its original id, so a snapshot
// reload does not break links that reference it. The id counter advances
// past the restored id. Restoring over a live id is a caller bug and fails.
func (s *Store) RestoreNode(n Node) error {
	if n.ID <= 0 {
		return fmt.Errorf("restore node: invalid id %d", n.ID)
	}
	if _, ok := s.nodes[n.ID]; ok {
		return fmt.Errorf("restore node: id %d already present", n.ID)
	}
	if _, ok := s.links[LinkID(n.ID)]; ok {
		return fmt.Errorf("restore node: id %d already used by a link", n.ID)
	}
	c := n
	s.nodes[n.ID] = &c
	s.byName[n.Name] = append(s.byName[n.Name], n.ID)
	if int64(n.ID) > s.nextID {
		s.nextID = int64(n.ID)
	}
	return nil
}

// RestoreLink re-inserts a link preserving its original id. Same contract
// as RestoreNode.
func (s *Store) RestoreLink(l Link) error {
	if l.ID <= 0 {
		return fmt.Errorf("restore link: invalid id %d", l.ID)
	}
	if _, ok := s.links[l.ID]; ok {
		return fmt.Errorf("restore link: id %d already present", l.ID)
	}
	if _, ok := s.nodes[NodeID(l.ID)]; ok {
		return fmt.Errorf("restore link: id %d already used by a node", l.ID)
	}
	c := l
	c.Outgoing = make([]NodeID, len(l.Outgoing))
	copy(c.Outgoing, l.Outgoing)
	s.links[l.ID] = &c
	s.indexLink(l.ID, c.Outgoing)
	if int64(l.ID) > s.nextID {
		s.nextID = int64(l.ID)
	}
	return nil
}
