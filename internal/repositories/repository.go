package repositories

import (
	"context"
	"time"

	"github.com/rafflehub/raffle-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RaffleRepository defines the interface for raffle data operations
type RaffleRepository interface {
	Create(ctx context.Context, raffle *models.Raffle) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Raffle, error)
	// FindAll returns every raffle, newest first.
	FindAll(ctx context.Context) ([]*models.Raffle, error)
	// AppendParticipant atomically appends one participant entry to the
	// raffle's array. Implementations must not read-modify-write the whole
	// document; concurrent appends against one raffle must not lose updates.
	AppendParticipant(ctx context.Context, id primitive.ObjectID, participant models.Participant) error
	// MarkClosed performs the one-way close transition: it sets the winner
	// (when non-empty), the closed flag, and the end time, but only matches a
	// raffle that is not yet closed. Returns false when the raffle was
	// already closed or does not exist.
	MarkClosed(ctx context.Context, id primitive.ObjectID, winner string, endTime time.Time) (bool, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// AdminUserRepository defines the interface for admin account operations
type AdminUserRepository interface {
	Create(ctx context.Context, adminUser *models.AdminUser) error
	// FindByIdentifier matches either the email or the username.
	FindByIdentifier(ctx context.Context, identifier string) (*models.AdminUser, error)
}

// PaymentReceiptRepository records processed payment references so a webhook
// retry or a race between the webhook and the client-confirmed path issues at
// most one ticket batch per charge.
type PaymentReceiptRepository interface {
	// Record atomically stores the reference if it has not been seen before.
	// Returns false when the reference was already recorded.
	Record(ctx context.Context, reference string, raffleID primitive.ObjectID) (bool, error)
	EnsureIndexes(ctx context.Context) error
}
