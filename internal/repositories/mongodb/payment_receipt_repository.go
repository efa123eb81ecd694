package mongodb

import (
	"context"
	"time"

	"github.com/rafflehub/raffle-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Ensure paymentReceiptRepository implements repositories.PaymentReceiptRepository
var _ repositories.PaymentReceiptRepository = (*paymentReceiptRepository)(nil)

type paymentReceiptRepository struct {
	collection *mongo.Collection
}

// NewPaymentReceiptRepository creates a new repository for payment receipts
func NewPaymentReceiptRepository(db *mongo.Database) repositories.PaymentReceiptRepository {
	return &paymentReceiptRepository{
		collection: db.Collection("payment_receipts"),
	}
}

// EnsureIndexes creates the unique index on the payment reference. The index
// is the arbiter for the webhook/client race: whichever path records the
// reference first wins, the other sees a duplicate.
func (r *paymentReceiptRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.M{"reference": 1},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// Record stores the reference with an upsert keyed on the reference itself.
// A fresh insert reports true; a reference that was already processed leaves
// the existing receipt untouched and reports false.
func (r *paymentReceiptRepository) Record(ctx context.Context, reference string, raffleID primitive.ObjectID) (bool, error) {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"reference": reference},
		bson.M{"$setOnInsert": bson.M{
			"reference": reference,
			"raffleId":  raffleID,
			"createdAt": time.Now(),
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		// A duplicate-key error means the concurrent writer got there first.
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, err
	}
	return res.UpsertedCount == 1, nil
}
