package storage

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sliink/dataprocessor/internal/model"
)

const mongoCollection = "processed_data"

// MongoAdapter is a document-style mock backend holding one collection
type MongoAdapter struct {
	connection
	mu        sync.RWMutex
	documents []model.Record
}

// NewMongoAdapter creates a disconnected document-style adapter
func NewMongoAdapter(opts Options) *MongoAdapter {
	return &MongoAdapter{
		connection: connection{backend: model.BackendMongo, label: "MongoDB", opts: opts},
	}
}

// Save inserts a copy of record with an ObjectID, createdAt and collection name
func (a *MongoAdapter) Save(_ context.Context, record model.Record) (bool, error) {
	if err := a.ensureConnected("save"); err != nil {
		return false, err
	}

	doc := record.Clone()
	if doc == nil {
		doc = model.Record{}
	}
	if !model.Truthy(doc["_id"]) {
		doc["_id"] = primitive.NewObjectID().Hex()
	}
	doc["createdAt"] = time.Now().UTC()
	doc["collection"] = mongoCollection

	a.mu.Lock()
	a.documents = append(a.documents, doc)
	a.mu.Unlock()
	return true, nil
}

// Validate requires name and email to be present and non-null
func (a *MongoAdapter) Validate(_ context.Context, record model.Record) (bool, error) {
	if err := a.ensureConnected("validate"); err != nil {
		return false, err
	}
	for _, field := range []string{"name", "email"} {
		if record[field] == nil {
			return false, nil
		}
	}
	return true, nil
}

// Query returns copies of the documents matching criteria
func (a *MongoAdapter) Query(_ context.Context, criteria model.Record) ([]model.Record, error) {
	if err := a.ensureConnected("query"); err != nil {
		return nil, err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	return queryList(a.documents, criteria), nil
}
