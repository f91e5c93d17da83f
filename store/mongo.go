package store

import (
	"context"
	"errors"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore keeps one collection per category. Each document is
// {_id: id, data: record, updatedAt: time}.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, &Error{Op: "connect", Category: database, Err: err}
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, &Error{Op: "ping", Category: database, Err: err}
	}
	s := &MongoStore{client: client, db: client.Database(database)}
	s.ensureIndexes(ctx)
	return s, nil
}

// Database exposes the underlying database for callers sharing the connection.
func (s *MongoStore) Database() *mongo.Database { return s.db }

func (s *MongoStore) ensureIndexes(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	for _, category := range []string{CategoryChannels, CategoryVideos} {
		_, err := s.db.Collection(category).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{{Key: "updatedAt", Value: -1}},
		})
		if err != nil {
			log.Printf("[WARN] Failed to create index on %s: %v", category, err)
		}
	}
}

func (s *MongoStore) Store(ctx context.Context, category, id string, v any) (err error) {
	defer func() { observe("mongo", "store", err) }()

	doc := bson.M{"_id": id, "data": v, "updatedAt": time.Now()}
	opts := options.Replace().SetUpsert(true)
	_, err = s.db.Collection(category).ReplaceOne(ctx, bson.M{"_id": id}, doc, opts)
	if err != nil {
		return &Error{Op: "store", Category: category, ID: id, Err: err}
	}
	return nil
}

func (s *MongoStore) Restore(ctx context.Context, category, id string, v any) (err error) {
	defer func() { observe("mongo", "restore", err) }()

	raw, err := s.db.Collection(category).FindOne(ctx, bson.M{"_id": id}).Raw()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return &Error{Op: "restore", Category: category, ID: id, Err: err}
	}
	data, ok := raw.Lookup("data").DocumentOK()
	if !ok {
		return &Error{Op: "restore", Category: category, ID: id, Err: errors.New("data field is not a document")}
	}

	// snippet and statistics decode as bson.M, not bson.D
	dec, err := bson.NewDecoder(bsonrw.NewBSONDocumentReader(data))
	if err != nil {
		return &Error{Op: "restore", Category: category, ID: id, Err: err}
	}
	dec.DefaultDocumentM()
	if err := dec.Decode(v); err != nil {
		return &Error{Op: "restore", Category: category, ID: id, Err: err}
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context, category string) (ids []string, err error) {
	defer func() { observe("mongo", "list", err) }()

	opts := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := s.db.Collection(category).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, &Error{Op: "list", Category: category, Err: err}
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var row struct {
			ID string `bson:"_id"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, &Error{Op: "list", Category: category, Err: err}
		}
		ids = append(ids, row.ID)
	}
	if err := cursor.Err(); err != nil {
		return nil, &Error{Op: "list", Category: category, Err: err}
	}
	return ids, nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
