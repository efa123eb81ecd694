package mongodb

import (
	"context"
	"time"

	"github.com/rafflehub/raffle-backend/internal/models"
	"github.com/rafflehub/raffle-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Ensure adminUserRepository implements repositories.AdminUserRepository
var _ repositories.AdminUserRepository = (*adminUserRepository)(nil)

type adminUserRepository struct {
	collection *mongo.Collection
}

// NewAdminUserRepository creates a new repository for admin users
func NewAdminUserRepository(db *mongo.Database) repositories.AdminUserRepository {
	return &adminUserRepository{
		collection: db.Collection("admin_users"),
	}
}

// Create inserts a new admin user into the database
func (r *adminUserRepository) Create(ctx context.Context, adminUser *models.AdminUser) error {
	adminUser.ID = primitive.NewObjectID()
	adminUser.CreatedAt = time.Now()
	adminUser.UpdatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, adminUser)
	return err
}

// FindByIdentifier finds an admin user by email or username
func (r *adminUserRepository) FindByIdentifier(ctx context.Context, identifier string) (*models.AdminUser, error) {
	var adminUser models.AdminUser
	filter := bson.M{"$or": bson.A{
		bson.M{"email": identifier},
		bson.M{"username": identifier},
	}}
	err := r.collection.FindOne(ctx, filter).Decode(&adminUser)
	if err != nil {
		// Return mongo.ErrNoDocuments untouched so the service layer can
		// distinguish 'not found' from other errors.
		return nil, err
	}
	return &adminUser, nil
}
