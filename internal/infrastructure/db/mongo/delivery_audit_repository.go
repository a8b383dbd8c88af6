package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/brickworks/console/internal/core/domain"
	"github.com/brickworks/console/internal/core/ports"
)

const collectionDeliveryAttempts = "delivery_attempts"

var _ ports.DeliveryAuditRepository = (*DeliveryAuditRepository)(nil)

// attemptDocument is the stored form of a DeliveryAttempt.
type attemptDocument struct {
	domain.DeliveryAttempt `bson:",inline"`
	RecordedAt             time.Time `bson:"recorded_at"`
}

// DeliveryAuditRepository writes toggle outcomes to the delivery_attempts collection.
type DeliveryAuditRepository struct {
	col *mongo.Collection
}

// NewDeliveryAuditRepository creates a new DeliveryAuditRepository.
func NewDeliveryAuditRepository(db *mongo.Database) *DeliveryAuditRepository {
	return &DeliveryAuditRepository{col: db.Collection(collectionDeliveryAttempts)}
}

// InsertAttempt persists one toggle outcome. The attempt ID is the document
// _id, so a replayed record is rejected rather than duplicated.
func (r *DeliveryAuditRepository) InsertAttempt(ctx context.Context, attempt *domain.DeliveryAttempt) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := attemptDocument{DeliveryAttempt: *attempt, RecordedAt: time.Now().UTC()}
	doc.At = doc.At.UTC()

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("insert delivery attempt: %w", err)
	}
	return nil
}

// EnsureIndexes creates the lookup indexes on the attempts collection.
func (r *DeliveryAuditRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "order_id", Value: 1}, {Key: "at", Value: -1}}},
		{Keys: bson.D{{Key: "actor", Value: 1}}},
		{Keys: bson.D{{Key: "condition", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
