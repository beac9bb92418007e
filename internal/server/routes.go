package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/o9nn/opencoq-sub001/internal/atomspace"
	"github.com/o9nn/opencoq-sub001/internal/ecan"
)

type attentionJSON struct {
	STI  float64 `json:"sti"`
	LTI  float64 `json:"lti"`
	VLTI float64 `json:"vlti"`
}

type truthJSON struct {
	Strength   float64 `json:"strength"`
	Confidence float64 `json:"confidence"`
}

type nodeJSON struct {
	ID        int64         `json:"id"`
	Kind      string        `json:"kind"`
	Name      string        `json:"name"`
	Attention attentionJSON `json:"attention"`
	Truth     truthJSON     `json:"truth"`
}

type linkJSON struct {
	ID        int64         `json:"id"`
	Kind      string        `json:"kind"`
	Outgoing  []int64       `json:"outgoing"`
	Attention attentionJSON `json:"attention"`
	Truth     truthJSON     `json:"truth"`
}

func nodeToJSON(n *atomspace.Node) nodeJSON {
	return nodeJSON{
		ID:        int64(n.ID),
		Kind:      string(n.Kind),
		Name:      n.Name,
		Attention: attentionJSON{STI: n.Attention.STI, LTI: n.Attention.LTI, VLTI: n.Attention.VLTI},
		Truth:     truthJSON{Strength: n.Truth.Strength, Confidence: n.Truth.Confidence},
	}
}

func linkToJSON(l *atomspace.Link) linkJSON {
	out := make([]int64, len(l.Outgoing))
	for i, id := range l.Outgoing {
		out[i] = int64(id)
	}
	return linkJSON{
		ID:        int64(l.ID),
		Kind:      string(l.Kind),
		Outgoing:  out,
		Attention: attentionJSON{STI: l.Attention.STI, LTI: l.Attention.LTI, VLTI: l.Attention.VLTI},
		Truth:     truthJSON{Strength: l.Truth.Strength, Confidence: l.Truth.Confidence},
	}
}

func bankJSON(snap ecan.BankSnapshot) map[string]float64 {
	return map[string]float64{
		"total_sti":     snap.TotalSTI,
		"available_sti": snap.AvailableSTI,
		"total_lti":     snap.TotalLTI,
		"available_lti": snap.AvailableLTI,
	}
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (s *Server) handleAddNode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind string `json:"kind"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Kind == "" {
		writeError(w, http.StatusBadRequest, "kind is required")
		return
	}
	id := s.space.AddNode(atomspace.NodeKind(req.Kind), req.Name)
	writeJSON(w, http.StatusCreated, map[string]int64{"id": int64(id)})
}

func (s *Server) handleFindNodes(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "name query parameter is required")
		return
	}
	ids := s.space.FindByName(name)
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	writeJSON(w, http.StatusOK, map[string][]int64{"ids": out})
}

func (s *Server) handleGetNode(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	n := s.space.GetNode(atomspace.NodeID(id))
	if n == nil {
		writeError(w, http.StatusNotFound, "node not found")
		return
	}
	writeJSON(w, http.StatusOK, nodeToJSON(n))
}

// Mutators on unknown ids stay silent no-ops at this boundary too: DELETE
// always answers 204.
func (s *Server) handleRemoveNode(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	s.space.RemoveNode(atomspace.NodeID(id))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleNodeTruth(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req truthJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid truth body")
		return
	}
	s.space.UpdateNodeTruth(atomspace.NodeID(id), atomspace.TruthValue{
		Strength:   req.Strength,
		Confidence: req.Confidence,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleIncoming(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]int64{"ids": linkIDs(s.space.IncomingLinks(atomspace.NodeID(id)))})
}

func (s *Server) handleOutgoing(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]int64{"ids": linkIDs(s.space.OutgoingLinks(atomspace.NodeID(id)))})
}

func linkIDs(ids []atomspace.LinkID) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}

func (s *Server) handleAddLink(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind     string  `json:"kind"`
		Outgoing []int64 `json:"outgoing"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Kind == "" {
		writeError(w, http.StatusBadRequest, "kind is required")
		return
	}
	outgoing := make([]atomspace.NodeID, len(req.Outgoing))
	for i, id := range req.Outgoing {
		outgoing[i] = atomspace.NodeID(id)
	}
	id := s.space.AddLink(atomspace.LinkKind(req.Kind), outgoing)
	writeJSON(w, http.StatusCreated, map[string]int64{"id": int64(id)})
}

func (s *Server) handleGetLink(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	l := s.space.GetLink(atomspace.LinkID(id))
	if l == nil {
		writeError(w, http.StatusNotFound, "link not found")
		return
	}
	writeJSON(w, http.StatusOK, linkToJSON(l))
}

func (s *Server) handleRemoveLink(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	s.space.RemoveLink(atomspace.LinkID(id))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLinkTruth(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req truthJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid truth body")
		return
	}
	s.space.UpdateLinkTruth(atomspace.LinkID(id), atomspace.TruthValue{
		Strength:   req.Strength,
		Confidence: req.Confidence,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStimulate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     int64   `json:"id"`
		Amount float64 `json:"amount"`
		Entity string  `json:"entity"` // "node" (default) or "link"
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid stimulate body")
		return
	}
	var ok bool
	if req.Entity == "link" {
		ok = s.space.StimulateLink(atomspace.LinkID(req.ID), req.Amount)
	} else {
		ok = s.space.Stimulate(atomspace.NodeID(req.ID), req.Amount)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   ok,
		"bank": bankJSON(s.space.BankSnapshot()),
	})
}

func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	stats := s.space.Tick()
	writeJSON(w, http.StatusOK, map[string]any{
		"nodes_decayed":   stats.NodesDecayed,
		"links_decayed":   stats.LinksDecayed,
		"rent_collected":  stats.RentCollected,
		"spread_sources":  stats.SpreadSources,
		"focus_size":      stats.FocusSize,
		"forgotten_nodes": stats.ForgottenNodes,
		"forgotten_links": stats.ForgottenLinks,
	})
}

func (s *Server) handleBank(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, bankJSON(s.space.BankSnapshot()))
}

func (s *Server) handleFocus(w http.ResponseWriter, r *http.Request) {
	entries := s.space.Focus()
	out := make([]map[string]int64, len(entries))
	for i, e := range entries {
		out[i] = map[string]int64{"node": int64(e.Node), "link": int64(e.Link)}
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": out})
}

func (s *Server) handleIsInFocus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"in_focus": s.space.IsInFocus(atomspace.NodeID(id))})
}

func (s *Server) handlePrioritize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []int64 `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid prioritize body")
		return
	}
	ids := make([]atomspace.NodeID, len(req.IDs))
	for i, id := range req.IDs {
		ids[i] = atomspace.NodeID(id)
	}
	ranked := s.space.PrioritizeByAttention(ids)
	out := make([]int64, len(ranked))
	for i, id := range ranked {
		out[i] = int64(id)
	}
	writeJSON(w, http.StatusOK, map[string][]int64{"ids": out})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(s.space.Export()))
}

func (s *Server) handleTensorStats(w http.ResponseWriter, r *http.Request) {
	stats := s.space.TensorStats()
	writeJSON(w, http.StatusOK, map[string]any{
		"average_magnitude": stats.AverageMagnitude,
		"max_magnitude":     stats.MaxMagnitude,
		"min_magnitude":     stats.MinMagnitude,
		"active_heads":      stats.ActiveHeads,
		"head_importance":   s.space.HeadImportance(),
	})
}

func (s *Server) handleTensorGradients(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Vector []float64 `json:"vector"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Vector) == 0 {
		writeError(w, http.StatusBadRequest, "non-empty vector is required")
		return
	}
	s.space.UpdateGradients(req.Vector)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTensorOptimize(w http.ResponseWriter, r *http.Request) {
	s.space.OptimizeTensor()
	writeJSON(w, http.StatusOK, map[string]any{
		"audit_entries": len(s.space.GradientAuditTrail()),
		"bank":          bankJSON(s.space.BankSnapshot()),
	})
}
