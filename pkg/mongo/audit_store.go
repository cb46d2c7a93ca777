package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/securekey/authcore/pkg/audit"
)

type auditDocument struct {
	ID        string         `bson:"_id"`
	AccountID string         `bson:"account_id,omitempty"`
	Email     string         `bson:"email,omitempty"`
	Action    string         `bson:"action"`
	Result    string         `bson:"result"`
	Reason    string         `bson:"reason,omitempty"`
	Metadata  map[string]any `bson:"metadata,omitempty"`
	CreatedAt time.Time      `bson:"created_at"`
}

func toAuditDocument(e audit.Event) auditDocument {
	d := auditDocument{
		ID:        e.ID.String(),
		Email:     e.Email,
		Action:    string(e.Action),
		Result:    string(e.Result),
		Reason:    e.Reason,
		Metadata:  e.Metadata,
		CreatedAt: e.CreatedAt,
	}
	if e.AccountID != uuid.Nil {
		d.AccountID = e.AccountID.String()
	}
	return d
}

func (d auditDocument) toEvent() (audit.Event, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return audit.Event{}, errors.Join(ErrQueryFailed, err)
	}
	e := audit.Event{
		ID:        id,
		Email:     d.Email,
		Action:    audit.Action(d.Action),
		Result:    audit.Result(d.Result),
		Reason:    d.Reason,
		Metadata:  d.Metadata,
		CreatedAt: utc(d.CreatedAt),
	}
	if d.AccountID != "" {
		if e.AccountID, err = uuid.Parse(d.AccountID); err != nil {
			return audit.Event{}, errors.Join(ErrQueryFailed, err)
		}
	}
	return e, nil
}

// AuditStore writes audit events to a MongoDB collection.
type AuditStore struct {
	coll *mongo.Collection
}

// NewAuditStore creates the query indexes and returns the store.
func NewAuditStore(ctx context.Context, coll *mongo.Collection) (*AuditStore, error) {
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "account_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return nil, errors.Join(ErrFailedToCreateIndexes, err)
	}
	return &AuditStore{coll: coll}, nil
}

func (s *AuditStore) Store(ctx context.Context, event audit.Event) error {
	return s.StoreBatch(ctx, []audit.Event{event})
}

// StoreBatch validates every event before writing any of them.
func (s *AuditStore) StoreBatch(ctx context.Context, events []audit.Event) error {
	if len(events) == 0 {
		return nil
	}
	docs := make([]any, len(events))
	for i, e := range events {
		if err := e.Validate(); err != nil {
			return err
		}
		docs[i] = toAuditDocument(e)
	}
	if _, err := s.coll.InsertMany(ctx, docs); err != nil {
		return errors.Join(ErrQueryFailed, err)
	}
	return nil
}

// Query returns matching events, newest first.
func (s *AuditStore) Query(ctx context.Context, c audit.Criteria) ([]audit.Event, error) {
	cur, err := s.coll.Find(ctx, auditFilter(c), auditFindOptions(c))
	if err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	var docs []auditDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}

	events := make([]audit.Event, 0, len(docs))
	for _, d := range docs {
		e, err := d.toEvent()
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}

func auditFilter(c audit.Criteria) bson.D {
	filter := bson.D{}
	if c.AccountID != uuid.Nil {
		filter = append(filter, bson.E{Key: "account_id", Value: c.AccountID.String()})
	}
	if len(c.Actions) > 0 {
		actions := make([]string, len(c.Actions))
		for i, a := range c.Actions {
			actions[i] = string(a)
		}
		filter = append(filter, bson.E{Key: "action", Value: bson.D{{Key: "$in", Value: actions}}})
	}
	if !c.Since.IsZero() {
		filter = append(filter, bson.E{Key: "created_at", Value: bson.D{{Key: "$gte", Value: c.Since}}})
	}
	return filter
}

func auditFindOptions(c audit.Criteria) *options.FindOptionsBuilder {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	if c.Limit > 0 {
		opts.SetLimit(int64(c.Limit))
	}
	return opts
}
