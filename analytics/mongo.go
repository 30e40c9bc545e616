package analytics

import (
	"context"
	"fmt"
	"time"

	"food-marketplace-api/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const collectionName = "delivery_analytics"

// MongoStore keeps events in the delivery_analytics collection.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	timeout    time.Duration
}

func NewMongoStore(ctx context.Context, uri, database string, timeout time.Duration) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(50))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	s := &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(collectionName),
		timeout:    timeout,
	}
	if err := s.createIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) createIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "recorded_at", Value: 1}}},
		{Keys: bson.D{{Key: "personnel_id", Value: 1}, {Key: "recorded_at", Value: 1}}},
		{Keys: bson.D{{Key: "zone_id", Value: 1}}},
	}
	if _, err := s.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create %s indexes: %w", collectionName, err)
	}
	return nil
}

func (s *MongoStore) Record(ctx context.Context, event *models.DeliveryEvent) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if event.RecordedAt.IsZero() {
		event.RecordedAt = time.Now().UTC()
	}
	if _, err := s.collection.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("failed to insert delivery event: %w", err)
	}
	return nil
}

func (s *MongoStore) Between(ctx context.Context, from, to time.Time, f Filter) ([]models.DeliveryEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cursor, err := s.collection.Find(ctx, mongoFilter(from, to, f),
		options.Find().SetSort(bson.D{{Key: "recorded_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query delivery events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []models.DeliveryEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode delivery events: %w", err)
	}
	return events, nil
}

func mongoFilter(from, to time.Time, f Filter) bson.M {
	filter := bson.M{"recorded_at": bson.M{"$gte": from.UTC(), "$lt": to.UTC()}}
	if f.PersonnelID != 0 {
		filter["personnel_id"] = f.PersonnelID
	}
	if f.ZoneID != 0 {
		filter["zone_id"] = f.ZoneID
	}
	return filter
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
