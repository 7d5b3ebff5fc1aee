// Package mongo stores import records in MongoDB, one collection per
// record collection. Sub-records carry their parent in parentCollection
// and parentId fields.
package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/JonMunkholm/gereecole/internal/core"
	"github.com/JonMunkholm/gereecole/internal/store"
)

// Options configures the client.
type Options struct {
	URI            string
	Database       string
	MaxPoolSize    uint64
	ConnectTimeout time.Duration
}

// Store is a core.Store over a MongoDB database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ core.Store = (*Store)(nil)

// Open connects to MongoDB and pings the primary.
func Open(ctx context.Context, opts Options) (*Store, error) {
	clientOpts := options.Client().ApplyURI(opts.URI)
	if opts.MaxPoolSize > 0 {
		clientOpts.SetMaxPoolSize(opts.MaxPoolSize)
	}
	if opts.ConnectTimeout > 0 {
		clientOpts.SetConnectTimeout(opts.ConnectTimeout)
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &Store{client: client, db: client.Database(opts.Database)}, nil
}

// CreateRecord inserts rec into its collection and returns the new id.
func (s *Store) CreateRecord(ctx context.Context, tenantID string, rec core.Record) (string, error) {
	id := uuid.New().String()
	doc := toBSON(id, tenantID, rec)

	if _, err := s.db.Collection(rec.Collection).InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("insert into %s: %w", rec.Path(), err)
	}
	return id, nil
}

// toBSON builds the stored document: the record body plus id, tenant and
// parent reference.
func toBSON(id, tenantID string, rec core.Record) bson.M {
	doc := make(bson.M, len(rec.Doc)+4)
	for k, v := range rec.Doc {
		doc[k] = v
	}
	doc[store.FieldID] = id
	doc[core.FieldTenantID] = tenantID
	if rec.Parent != nil {
		doc[store.FieldParentCollection] = rec.Parent.Collection
		doc[store.FieldParentID] = rec.Parent.ID
	}
	return doc
}

// ListClasses returns the tenant's classes.
func (s *Store) ListClasses(ctx context.Context, tenantID string) ([]core.ClassRef, error) {
	docs, err := s.findTopLevel(ctx, store.ClassesCollection, tenantID)
	if err != nil {
		return nil, fmt.Errorf("query classes: %w", err)
	}

	classes := make([]core.ClassRef, 0, len(docs))
	for _, doc := range docs {
		classes = append(classes, store.ClassFromDoc(idString(doc[store.FieldID]), core.Document(doc)))
	}
	return classes, nil
}

// ListStudents returns the tenant's students.
func (s *Store) ListStudents(ctx context.Context, tenantID string) ([]core.StudentRef, error) {
	docs, err := s.findTopLevel(ctx, store.StudentsCollection, tenantID)
	if err != nil {
		return nil, fmt.Errorf("query students: %w", err)
	}

	students := make([]core.StudentRef, 0, len(docs))
	for _, doc := range docs {
		students = append(students, store.StudentFromDoc(idString(doc[store.FieldID]), core.Document(doc)))
	}
	return students, nil
}

func (s *Store) findTopLevel(ctx context.Context, collection, tenantID string) ([]bson.M, error) {
	filter := bson.M{
		core.FieldTenantID:   tenantID,
		store.FieldParentID: bson.M{"$exists": false},
	}
	findOptions := options.Find().
		SetSort(bson.D{{Key: core.FieldCreatedAt, Value: 1}, {Key: store.FieldID, Value: 1}})

	cursor, err := s.db.Collection(collection).Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// idString renders ids written by this store (strings) and by other
// writers (ObjectIDs) the same way.
func idString(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case primitive.ObjectID:
		return id.Hex()
	case nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}

// Ping checks the primary.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
