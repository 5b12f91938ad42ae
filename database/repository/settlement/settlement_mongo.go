package settlementRepo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"casabay/database"
	"casabay/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSettlementRepo implements SettlementRepository using MongoDB.
// It also holds the bookings collection so finalization can update both
// documents inside one transaction.
type MongoSettlementRepo struct {
	coll        *mongo.Collection
	bookingColl *mongo.Collection
}

// NewMongoSettlementRepo creates a new instance of SettlementRepository using MongoDB.
func NewMongoSettlementRepo() SettlementRepository {
	db := database.MongoClient.Database("casabay")
	repo := &MongoSettlementRepo{
		coll:        db.Collection("settlements"),
		bookingColl: db.Collection("bookings"),
	}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

// newContext creates a context with the given timeout.
func newContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

// ensureIndexes enforces the two uniqueness invariants at the storage layer:
// a reference code identifies exactly one settlement, and a booking holds at
// most one pending settlement at a time.
func (r *MongoSettlementRepo) ensureIndexes() error {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{
			Keys:    bson.D{{Key: "reference", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_reference"),
		},
		{
			Keys: bson.D{{Key: "booking_id", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("uniq_active_per_booking").
				SetPartialFilterExpression(bson.M{"state": models.SettlementPending}),
		},
		{Keys: bson.D{{Key: "state", Value: 1}, {Key: "created_at", Value: -1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// Create inserts a new settlement document. Duplicate-key violations are
// translated onto the repository sentinels so callers can tell a reference
// collision apart from a second active settlement.
func (r *MongoSettlementRepo) Create(settlement *models.Settlement) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	if settlement.CreatedAt.IsZero() {
		settlement.CreatedAt = time.Now()
	}

	_, err := r.coll.InsertOne(ctx, settlement)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			if strings.Contains(err.Error(), "uniq_reference") {
				return ErrReferenceTaken
			}
			return ErrDuplicateActive
		}
		return fmt.Errorf("failed to create settlement: %w", err)
	}
	return nil
}

// GetByID retrieves a settlement by its unique ID.
func (r *MongoSettlementRepo) GetByID(id string) (*models.Settlement, error) {
	return r.findOne(bson.M{"id": id})
}

// FindByReference retrieves a settlement by its reference code.
func (r *MongoSettlementRepo) FindByReference(code string) (*models.Settlement, error) {
	return r.findOne(bson.M{"reference": code})
}

// FindActiveByBooking retrieves the pending settlement for a booking, if any.
func (r *MongoSettlementRepo) FindActiveByBooking(bookingID string) (*models.Settlement, error) {
	return r.findOne(bson.M{"booking_id": bookingID, "state": models.SettlementPending})
}

func (r *MongoSettlementRepo) findOne(filter bson.M) (*models.Settlement, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var settlement models.Settlement
	if err := r.coll.FindOne(ctx, filter).Decode(&settlement); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch settlement: %w", err)
	}
	return &settlement, nil
}

// ListPending returns all pending settlements, optionally filtered by kind.
func (r *MongoSettlementRepo) ListPending(kind models.SettlementKind) ([]models.Settlement, error) {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	filter := bson.M{"state": models.SettlementPending}
	if kind != "" {
		filter["kind"] = kind
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve pending settlements: %w", err)
	}
	defer cursor.Close(ctx)

	var settlements []models.Settlement
	for cursor.Next(ctx) {
		var s models.Settlement
		if err := cursor.Decode(&s); err != nil {
			return nil, fmt.Errorf("failed to decode settlement: %w", err)
		}
		settlements = append(settlements, s)
	}
	return settlements, nil
}
