package mongodb

import (
	"context"
	"time"

	"github.com/rafflehub/raffle-backend/internal/models"
	"github.com/rafflehub/raffle-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RaffleRepository implements the repositories.RaffleRepository interface
type RaffleRepository struct {
	collection *mongo.Collection
}

// NewRaffleRepository creates a new RaffleRepository
func NewRaffleRepository(db *mongo.Database) repositories.RaffleRepository {
	return &RaffleRepository{
		collection: db.Collection("raffles"),
	}
}

// Create creates a new raffle
func (r *RaffleRepository) Create(ctx context.Context, raffle *models.Raffle) error {
	raffle.CreatedAt = time.Now()
	if raffle.Participants == nil {
		raffle.Participants = []models.Participant{}
	}
	res, err := r.collection.InsertOne(ctx, raffle)
	if err != nil {
		return err
	}
	raffle.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// FindByID finds a raffle by ID
func (r *RaffleRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Raffle, error) {
	var raffle models.Raffle
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&raffle)
	if err != nil {
		return nil, err // Returns mongo.ErrNoDocuments if not found
	}
	return &raffle, nil
}

// FindAll finds all raffles, newest first
func (r *RaffleRepository) FindAll(ctx context.Context) ([]*models.Raffle, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var raffles []*models.Raffle
	if err := cursor.All(ctx, &raffles); err != nil {
		return nil, err
	}
	if raffles == nil {
		raffles = []*models.Raffle{}
	}
	return raffles, nil
}

// AppendParticipant appends one participant entry with a single $push update.
// The whole document is never read back and rewritten, so concurrent
// issuance against the same raffle cannot lose entries.
func (r *RaffleRepository) AppendParticipant(ctx context.Context, id primitive.ObjectID, participant models.Participant) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$push": bson.M{"participants": participant}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// MarkClosed sets the winner and end time, guarded by the closed flag so the
// transition happens at most once. A raffle that was already closed (or does
// not exist) matches nothing and the method returns false.
func (r *RaffleRepository) MarkClosed(ctx context.Context, id primitive.ObjectID, winner string, endTime time.Time) (bool, error) {
	set := bson.M{
		"closed":  true,
		"endTime": endTime,
	}
	if winner != "" {
		set["winner"] = winner
	}
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "closed": bson.M{"$ne": true}},
		bson.M{"$set": set},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

// Delete deletes a raffle by ID
func (r *RaffleRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
