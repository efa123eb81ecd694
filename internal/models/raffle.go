package models

import (
	"time"

	"github.com/rafflehub/raffle-backend/internal/apperrors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PrizeType identifies one kind of prize a raffle can award.
type PrizeType string

const (
	PrizeTypeCash PrizeType = "cash"
	PrizeTypeItem PrizeType = "item"
)

// CashPrize is a monetary prize.
type CashPrize struct {
	Amount float64 `bson:"amount" json:"amount"`
}

// ItemPrize is a physical prize with an uploaded image (base64-encoded).
type ItemPrize struct {
	Name  string `bson:"name" json:"name"`
	Image string `bson:"image" json:"image,omitempty"`
}

// PrizeSpec describes what a raffle awards. At least one member must be set;
// each member is validated structurally rather than via conditional rules.
type PrizeSpec struct {
	Cash *CashPrize `bson:"cash,omitempty" json:"cash,omitempty"`
	Item *ItemPrize `bson:"item,omitempty" json:"item,omitempty"`
}

// Validate checks the internal consistency of the prize specification.
func (p *PrizeSpec) Validate() error {
	if p.Cash == nil && p.Item == nil {
		return apperrors.New(apperrors.KindValidation, "at least one prize type is required")
	}
	if p.Cash != nil && p.Cash.Amount <= 0 {
		return apperrors.New(apperrors.KindValidation, "cash prize must be a positive number")
	}
	if p.Item != nil {
		if p.Item.Name == "" {
			return apperrors.New(apperrors.KindValidation, "item name is required when item is selected")
		}
		if p.Item.Image == "" {
			return apperrors.New(apperrors.KindValidation, "item prize requires an image")
		}
	}
	return nil
}

// Types lists the prize types present in the specification.
func (p *PrizeSpec) Types() []PrizeType {
	var types []PrizeType
	if p.Cash != nil {
		types = append(types, PrizeTypeCash)
	}
	if p.Item != nil {
		types = append(types, PrizeTypeItem)
	}
	return types
}

// Participant is one ticket holder entry within a raffle. Entries are
// append-only: one entry is created per issued ticket.
type Participant struct {
	DisplayName  string `bson:"displayName" json:"displayName"`
	Contact      string `bson:"contact" json:"contact"`
	Email        string `bson:"email,omitempty" json:"email,omitempty"`
	TicketNumber string `bson:"ticketNumber" json:"ticketNumber"`
}

// Raffle represents a raffle document. CreatorSecret is issued once at
// creation and never serialized in API responses.
type Raffle struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Title         string             `bson:"title" json:"title"`
	Description   string             `bson:"description,omitempty" json:"description,omitempty"`
	Prize         PrizeSpec          `bson:"prize" json:"prize"`
	TicketPrice   float64            `bson:"ticketPrice" json:"ticketPrice"`
	EndTime       time.Time          `bson:"endTime" json:"endTime"`
	CreatedBy     string             `bson:"createdBy" json:"createdBy"`
	CreatorSecret string             `bson:"creatorSecret" json:"-"`
	Participants  []Participant      `bson:"participants" json:"participants"`
	Winner        string             `bson:"winner,omitempty" json:"winner,omitempty"`
	Closed        bool               `bson:"closed" json:"closed"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}

// IsOpen reports whether the raffle still accepts ticket issuance at the
// given instant. A past end time closes issuance without invalidating
// already-issued tickets.
func (r *Raffle) IsOpen(now time.Time) bool {
	return !r.Closed && r.EndTime.After(now)
}

// TicketNumbers returns every ticket number held by any participant, in
// issuance order. This is the draw pool: a participant holding two tickets
// appears twice.
func (r *Raffle) TicketNumbers() []string {
	numbers := make([]string, 0, len(r.Participants))
	for _, p := range r.Participants {
		numbers = append(numbers, p.TicketNumber)
	}
	return numbers
}

// FindParticipant returns the participant entry holding the given ticket number.
func (r *Raffle) FindParticipant(ticketNumber string) (*Participant, bool) {
	for i := range r.Participants {
		if r.Participants[i].TicketNumber == ticketNumber {
			return &r.Participants[i], true
		}
	}
	return nil, false
}

// CreateRaffleRequest carries the multipart form fields of a raffle-creation
// request. Numeric and time fields arrive as strings and are parsed during
// validation, mirroring the form encoding.
type CreateRaffleRequest struct {
	Title       string
	Description string
	PrizeTypes  []string
	CashPrize   string
	ItemName    string
	PrizeImage  []byte
	TicketPrice string
	EndTime     string
}

// JoinRaffleRequest is the body of an init-payment request.
type JoinRaffleRequest struct {
	DisplayName string `json:"displayName" binding:"required"`
	Contact     string `json:"contact" binding:"required"`
	Email       string `json:"email"`
	Quantity    int    `json:"quantity"`
}

// VerifyPaymentRequest is the body of a client-side payment confirmation.
type VerifyPaymentRequest struct {
	Reference   string `json:"reference" binding:"required"`
	DisplayName string `json:"displayName" binding:"required"`
	Contact     string `json:"contact" binding:"required"`
	Email       string `json:"email"`
	Quantity    int    `json:"quantity"`
}

// PaymentQuote tells a paying participant what to charge before coming back
// through verify-payment or the gateway webhook.
type PaymentQuote struct {
	TicketPrice float64 `json:"ticketPrice"`
	Currency    string  `json:"currency"`
	RaffleID    string  `json:"raffleId"`
	DisplayName string  `json:"displayName"`
	Contact     string  `json:"contact"`
	Email       string  `json:"email,omitempty"`
}

// PaymentReceipt records a processed gateway reference so the webhook path
// and the client-confirmed path cannot both issue a ticket for one charge.
type PaymentReceipt struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Reference string             `bson:"reference" json:"reference"`
	RaffleID  primitive.ObjectID `bson:"raffleId" json:"raffleId"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
