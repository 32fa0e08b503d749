package placement

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matthetz/scrim/pkg/errors"
)

const (
	mongoDatabase   = "scrim"
	mongoCollection = "placements"
	mongoDocID      = "snapshot"
)

// mongoDoc wraps the snapshot document with a fixed _id so ReplaceOne with
// upsert keeps exactly one snapshot per deployment.
type mongoDoc struct {
	ID       string    `bson:"_id"`
	Snapshot *Document `bson:"snapshot"`
}

// MongoBackend stores the snapshot as a single document, replaced
// atomically on every flush.
type MongoBackend struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoBackend connects to the mongod at uri and verifies the
// connection.
func NewMongoBackend(ctx context.Context, uri string) (*MongoBackend, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "connect to mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "mongo ping")
	}
	return &MongoBackend{
		client: client,
		coll:   client.Database(mongoDatabase).Collection(mongoCollection),
	}, nil
}

func (b *MongoBackend) Load(ctx context.Context) (*Document, error) {
	var doc mongoDoc
	err := b.coll.FindOne(ctx, bson.M{"_id": mongoDocID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "mongo find")
	}
	if doc.Snapshot == nil {
		return nil, nil
	}
	if doc.Snapshot.Version != Version {
		return nil, errors.New(errors.ErrCodeSnapshotBad,
			"mongo snapshot has version %d, want %d", doc.Snapshot.Version, Version)
	}
	if doc.Snapshot.Groups == nil {
		doc.Snapshot.Groups = make(map[string]map[string]*Entry)
	}
	return doc.Snapshot, nil
}

func (b *MongoBackend) Store(ctx context.Context, doc *Document) error {
	_, err := b.coll.ReplaceOne(ctx,
		bson.M{"_id": mongoDocID},
		mongoDoc{ID: mongoDocID, Snapshot: doc},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "mongo replace")
	}
	return nil
}

func (b *MongoBackend) Reset(ctx context.Context) error {
	if _, err := b.coll.DeleteOne(ctx, bson.M{"_id": mongoDocID}); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "mongo delete")
	}
	return nil
}

func (b *MongoBackend) Close() error {
	return b.client.Disconnect(context.Background())
}

var _ Backend = (*MongoBackend)(nil)
