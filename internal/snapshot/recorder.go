package snapshot

import (
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/o9nn/opencoq-sub001/internal/atomspace"
)

// Recorder consumes the store's mutation hooks into the audit_log table.
// Hook delivery is best-effort: a failed insert is logged and dropped, it
// never propagates back into the store's mutation path.
type Recorder struct {
	db *DB
}

// NewRecorder creates a Recorder writing to the given database.
func NewRecorder(db *DB) *Recorder {
	return &Recorder{db: db}
}

// Hooks returns the callback set to install on a store.
func (r *Recorder) Hooks() atomspace.Hooks {
	return atomspace.Hooks{
		OnAdd: func(entity atomspace.Entity, id int64) {
			r.record(entity, id, "add", "")
		},
		OnUpdate: func(entity atomspace.Entity, id int64) {
			r.record(entity, id, "update", "")
		},
		OnRemove: func(entity atomspace.Entity, id int64, reason atomspace.RemovalReason) {
			r.record(entity, id, "remove", string(reason))
		},
	}
}

func (r *Recorder) record(entity atomspace.Entity, id int64, action, reason string) {
	var reasonVal any
	if reason != "" {
		reasonVal = reason
	}
	_, err := r.db.Exec(`
		INSERT INTO audit_log (id, entity, atom_id, action, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, uuid.NewString(), string(entity), id, action, reasonVal, time.Now().UnixMilli())
	if err != nil {
		log.Printf("audit: record %s %s %d: %v", action, entity, id, err)
	}
}

// AuditEntry is one row of the mutation trail.
type AuditEntry struct {
	ID        string
	Entity    string
	AtomID    int64
	Action    string
	Reason    string
	CreatedAt int64
}

// AuditTrail returns the most recent audit entries, newest first.
func (db *DB) AuditTrail(limit int) ([]AuditEntry, error) {
	rows, err := db.Query(`
		SELECT id, entity, atom_id, action, COALESCE(reason, ''), created_at
		FROM audit_log ORDER BY created_at DESC, id LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.ID, &e.Entity, &e.AtomID, &e.Action, &e.Reason, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
