package snapshot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/o9nn/opencoq-sub001/internal/atomspace"
)

// Save replaces the atoms table with a full snapshot of the store. The
// store's enumeration is deterministic (ascending id), so two saves of the
// same state produce identical rows.
func (db *DB) Save(store *atomspace.Store) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin snapshot: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM atoms"); err != nil {
		tx.Rollback()
		return fmt.Errorf("clear snapshot: %w", err)
	}

	now := time.Now().UnixMilli()

	for _, n := range store.Nodes() {
		_, err := tx.Exec(`
			INSERT INTO atoms (id, entity, kind, name, outgoing, sti, lti, vlti, strength, confidence, saved_at)
			VALUES (?, 'node', ?, ?, NULL, ?, ?, ?, ?, ?, ?)
		`, int64(n.ID), string(n.Kind), n.Name,
			n.Attention.STI, n.Attention.LTI, n.Attention.VLTI,
			n.Truth.Strength, n.Truth.Confidence, now)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("save node %d: %w", n.ID, err)
		}
	}

	for _, l := range store.Links() {
		_, err := tx.Exec(`
			INSERT INTO atoms (id, entity, kind, name, outgoing, sti, lti, vlti, strength, confidence, saved_at)
			VALUES (?, 'link', ?, NULL, ?, ?, ?, ?, ?, ?, ?)
		`, int64(l.ID), string(l.Kind), encodeOutgoing(l.Outgoing),
			l.Attention.STI, l.Attention.LTI, l.Attention.VLTI,
			l.Truth.Strength, l.Truth.Confidence, now)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("save link %d: %w", l.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// Load restores a snapshot into the store, preserving the original ids so
// surviving links keep resolving the nodes their outgoing sequences
// reference. The store should be empty; id collisions fail the load.
// Returns the number of atoms restored.
func (db *DB) Load(store *atomspace.Store) (int, error) {
	rows, err := db.Query(`
		SELECT id, entity, kind, name, outgoing, sti, lti, vlti, strength, confidence
		FROM atoms ORDER BY id
	`)
	if err != nil {
		return 0, fmt.Errorf("query snapshot: %w", err)
	}
	defer rows.Close()

	restored := 0
	for rows.Next() {
		var (
			id                   int64
			entity, kind         string
			name, outgoing       *string
			sti, lti, vlti       float64
			strength, confidence float64
		)
		if err := rows.Scan(&id, &entity, &kind, &name, &outgoing,
			&sti, &lti, &vlti, &strength, &confidence); err != nil {
			return restored, fmt.Errorf("scan atom: %w", err)
		}

		av := atomspace.AttentionValue{STI: sti, LTI: lti, VLTI: vlti}
		tv := atomspace.TruthValue{Strength: strength, Confidence: confidence}

		switch entity {
		case "node":
			n := atomspace.Node{
				ID:        atomspace.NodeID(id),
				Kind:      atomspace.NodeKind(kind),
				Attention: av,
				Truth:     tv,
			}
			if name != nil {
				n.Name = *name
			}
			if err := store.RestoreNode(n); err != nil {
				return restored, fmt.Errorf("restore: %w", err)
			}
		case "link":
			l := atomspace.Link{
				ID:        atomspace.LinkID(id),
				Kind:      atomspace.LinkKind(kind),
				Attention: av,
				Truth:     tv,
			}
			if outgoing != nil {
				out, err := decodeOutgoing(*outgoing)
				if err != nil {
					return restored, fmt.Errorf("link %d: %w", id, err)
				}
				l.Outgoing = out
			}
			if err := store.RestoreLink(l); err != nil {
				return restored, fmt.Errorf("restore: %w", err)
			}
		default:
			return restored, fmt.Errorf("unknown entity %q for atom %d", entity, id)
		}
		restored++
	}
	return restored, rows.Err()
}

// AtomCount returns the number of atoms in the stored snapshot.
func (db *DB) AtomCount() (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM atoms").Scan(&count)
	return count, err
}

func encodeOutgoing(ids []atomspace.NodeID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(int64(id), 10)
	}
	return strings.Join(parts, " ")
}

func decodeOutgoing(s string) ([]atomspace.NodeID, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Fields(s)
	out := make([]atomspace.NodeID, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("outgoing id %q: %w", p, err)
		}
		out = append(out, atomspace.NodeID(v))
	}
	return out, nil
}
