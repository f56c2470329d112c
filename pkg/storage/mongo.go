package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	nerrors "github.com/matzehuels/nodel/pkg/errors"
	"github.com/matzehuels/nodel/pkg/nodel"
)

// MongoCollection is the collection holding snapshot documents.
const MongoCollection = "snapshots"

// MongoStore keeps one document per snapshot, keyed by name.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type mongoDoc struct {
	Name      string    `bson:"_id"`
	Data      string    `bson:"data,omitempty"`
	Nodes     int       `bson:"nodes"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// NewMongoStore connects to uri and pings the primary.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(MongoCollection),
	}, nil
}

func (s *MongoStore) Save(ctx context.Context, name string, snap nodel.Snapshot) error {
	data, err := encode(name, snap)
	if err != nil {
		return err
	}
	doc := mongoDoc{Name: name, Data: string(data), Nodes: len(snap), UpdatedAt: time.Now().UTC()}
	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": name}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save snapshot %q: %w", name, err)
	}
	return nil
}

func (s *MongoStore) Load(ctx context.Context, name string) (nodel.Snapshot, error) {
	if err := nerrors.ValidateName(name); err != nil {
		return nil, err
	}
	var doc mongoDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": name}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %q: %w", name, err)
	}
	return decode(name, []byte(doc.Data))
}

func (s *MongoStore) Delete(ctx context.Context, name string) error {
	if err := nerrors.ValidateName(name); err != nil {
		return err
	}
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": name}); err != nil {
		return fmt.Errorf("delete snapshot %q: %w", name, err)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context) ([]Info, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetProjection(bson.M{"data": 0})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	var docs []mongoDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	infos := make([]Info, 0, len(docs))
	for _, d := range docs {
		infos = append(infos, Info{Name: d.Name, Nodes: d.Nodes, UpdatedAt: d.UpdatedAt.UTC()})
	}
	return infos, nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

var _ Store = (*MongoStore)(nil)
