package pg

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/securekey/authcore/pkg/audit"
)

// AuditDB is the subset of pgxpool.Pool used by AuditStore.
type AuditDB interface {
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// AuditStore writes audit events to the audit_events table.
type AuditStore struct {
	db AuditDB
}

func NewAuditStore(db AuditDB) *AuditStore {
	return &AuditStore{db: db}
}

var auditColumns = []string{"id", "account_id", "email", "action", "result", "reason", "metadata", "created_at"}

func (s *AuditStore) Store(ctx context.Context, event audit.Event) error {
	return s.StoreBatch(ctx, []audit.Event{event})
}

// StoreBatch inserts events with COPY, which is atomic for the whole batch.
func (s *AuditStore) StoreBatch(ctx context.Context, events []audit.Event) error {
	if len(events) == 0 {
		return nil
	}
	_, err := s.db.CopyFrom(ctx, pgx.Identifier{"audit_events"}, auditColumns,
		pgx.CopyFromSlice(len(events), func(i int) ([]any, error) {
			e := events[i]
			if err := e.Validate(); err != nil {
				return nil, err
			}
			return []any{
				e.ID, nullUUID(e.AccountID), e.Email, string(e.Action), string(e.Result),
				e.Reason, e.Metadata, e.CreatedAt,
			}, nil
		}),
	)
	if err != nil {
		return errors.Join(ErrQueryFailed, err)
	}
	return nil
}

// Query returns matching events, newest first.
func (s *AuditStore) Query(ctx context.Context, c audit.Criteria) ([]audit.Event, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if c.AccountID != uuid.Nil {
		where = append(where, "account_id = "+arg(c.AccountID))
	}
	if len(c.Actions) > 0 {
		actions := make([]string, len(c.Actions))
		for i, a := range c.Actions {
			actions[i] = string(a)
		}
		where = append(where, "action = ANY("+arg(actions)+")")
	}
	if !c.Since.IsZero() {
		where = append(where, "created_at >= "+arg(c.Since))
	}

	q := "SELECT " + strings.Join(auditColumns, ", ") + " FROM audit_events"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC, id"
	if c.Limit > 0 {
		q += " LIMIT " + arg(c.Limit)
	}

	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	events, err := pgx.CollectRows(rows, scanAuditEvent)
	if err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	return events, nil
}

func scanAuditEvent(row pgx.CollectableRow) (audit.Event, error) {
	var (
		e         audit.Event
		accountID *uuid.UUID
		action    string
		result    string
	)
	if err := row.Scan(&e.ID, &accountID, &e.Email, &action, &result, &e.Reason, &e.Metadata, &e.CreatedAt); err != nil {
		return audit.Event{}, err
	}
	if accountID != nil {
		e.AccountID = *accountID
	}
	e.Action = audit.Action(action)
	e.Result = audit.Result(result)
	e.CreatedAt = e.CreatedAt.UTC()
	return e, nil
}

func nullUUID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
