// Package mongo stores records as MongoDB documents, one collection per
// table. Integer ids come from a counters collection so records keep the
// same identity shape as the SQL backends.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"farmdash/internal/records"
)

const countersCollection = "counters"

type Store struct {
	client *mongo.Client
	db     *mongo.Database
	now    func() time.Time
}

var _ records.Store = (*Store)(nil)

// Connect dials uri and prepares the per-table indexes.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	s := &Store{client: client, db: client.Database(database), now: time.Now}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	for _, table := range records.Tables {
		if table == records.Fields || table == records.EquipmentTab {
			continue
		}
		_, err := s.db.Collection(table).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{{Key: "fieldId", Value: 1}},
		})
		if err != nil {
			return fmt.Errorf("create %s index: %w", table, err)
		}
	}
	return nil
}

// WithClock replaces the timestamp source.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) List(ctx context.Context, table string, opts records.ListOptions) ([]records.Record, error) {
	if err := records.CheckTable(table); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	findOpts := options.Find().SetSort(BuildSort(opts.Sort))
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}
	cur, err := s.db.Collection(table).Find(ctx, BuildFilter(opts.Filters), findOpts)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	defer cur.Close(ctx)

	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	out := make([]records.Record, 0, len(docs))
	for _, d := range docs {
		out = append(out, FromDocument(d))
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, table string, id int64) (records.Record, error) {
	if err := records.CheckTable(table); err != nil {
		return nil, err
	}
	var doc bson.M
	err := s.db.Collection(table).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%s %d: %w", table, id, records.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s %d: %w", table, id, err)
	}
	return FromDocument(doc), nil
}

func (s *Store) nextID(ctx context.Context, table string) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := s.db.Collection(countersCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": table},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("next %s id: %w", table, err)
	}
	return counter.Seq, nil
}

func (s *Store) Create(ctx context.Context, table string, rec records.Record) (records.Record, error) {
	if err := records.CheckTable(table); err != nil {
		return nil, err
	}
	id, err := s.nextID(ctx, table)
	if err != nil {
		return nil, err
	}
	stamp := s.now().UTC().Format(time.RFC3339Nano)
	row := rec.Clone()
	row[records.KeyID] = id
	row[records.KeyCreatedAt] = stamp
	row[records.KeyUpdatedAt] = stamp

	if _, err := s.db.Collection(table).InsertOne(ctx, ToDocument(row)); err != nil {
		return nil, fmt.Errorf("insert %s: %w", table, err)
	}
	slog.InfoContext(ctx, "Record saved to MongoDB", "table", table, "id", id)
	return row, nil
}

func (s *Store) Update(ctx context.Context, table string, id int64, partial records.Record) (records.Record, error) {
	if err := records.CheckTable(table); err != nil {
		return nil, err
	}
	set := bson.M{}
	for k, v := range partial {
		if k == records.KeyID || k == records.KeyCreatedAt {
			continue
		}
		set[k] = v
	}
	set[records.KeyUpdatedAt] = s.now().UTC().Format(time.RFC3339Nano)

	var doc bson.M
	err := s.db.Collection(table).FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%s %d: %w", table, id, records.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update %s %d: %w", table, id, err)
	}
	slog.InfoContext(ctx, "Record updated in MongoDB", "table", table, "id", id)
	return FromDocument(doc), nil
}

func (s *Store) Delete(ctx context.Context, table string, id int64) (bool, error) {
	if err := records.CheckTable(table); err != nil {
		return false, err
	}
	res, err := s.db.Collection(table).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("delete %s %d: %w", table, id, err)
	}
	return res.DeletedCount > 0, nil
}

func attr(field string) string {
	if field == records.KeyID {
		return "_id"
	}
	return field
}

// BuildFilter translates record filters to a query document. Mongo's $ne
// and null equality both match absent attributes, as the in-memory store
// does.
func BuildFilter(filters []records.Filter) bson.D {
	out := bson.D{}
	for _, f := range filters {
		key := attr(f.Field)
		switch f.Op {
		case records.OpEq:
			out = append(out, bson.E{Key: key, Value: f.Value})
		case records.OpNe:
			out = append(out, bson.E{Key: key, Value: bson.M{"$ne": f.Value}})
		case records.OpGte:
			out = append(out, bson.E{Key: key, Value: bson.M{"$gte": f.Value}})
		case records.OpLte:
			out = append(out, bson.E{Key: key, Value: bson.M{"$lte": f.Value}})
		}
	}
	return out
}

// BuildSort appends _id as the final key so ties are stable.
func BuildSort(keys []records.Sort) bson.D {
	out := bson.D{}
	for _, k := range keys {
		dir := 1
		if k.Desc {
			dir = -1
		}
		out = append(out, bson.E{Key: attr(k.Field), Value: dir})
	}
	return append(out, bson.E{Key: "_id", Value: 1})
}

// ToDocument moves the record id to _id.
func ToDocument(rec records.Record) bson.M {
	doc := make(bson.M, len(rec))
	for k, v := range rec {
		doc[attr(k)] = v
	}
	return doc
}

// FromDocument converts a decoded document back to a record with plain Go
// values: nested documents become maps, arrays become slices and int32
// becomes int64.
func FromDocument(doc bson.M) records.Record {
	rec := make(records.Record, len(doc))
	for k, v := range doc {
		if k == "_id" {
			k = records.KeyID
		}
		rec[k] = plain(v)
	}
	return rec
}

func plain(v any) any {
	switch x := v.(type) {
	case bson.M:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = plain(e)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(x))
		for _, e := range x {
			out[e.Key] = plain(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = plain(e)
		}
		return out
	case int32:
		return int64(x)
	case primitive.DateTime:
		return x.Time().UTC().Format(time.RFC3339Nano)
	}
	return v
}
