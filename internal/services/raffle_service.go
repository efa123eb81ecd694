package services

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/rafflehub/raffle-backend/internal/apperrors"
	"github.com/rafflehub/raffle-backend/internal/models"
	"github.com/rafflehub/raffle-backend/internal/repositories"
	"github.com/rafflehub/raffle-backend/internal/ticket"
	"github.com/rafflehub/raffle-backend/internal/utils"
	"github.com/rafflehub/raffle-backend/pkg/paystack"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/exp/slog"
)

func init() {
	rand.Seed(time.Now().UnixNano())
}

const (
	// Currency is the currency participants are charged in.
	Currency = "GHS"

	maxTicketsPerRequest = 10
)

// PaymentVerifier wraps the remote payment verification call.
type PaymentVerifier interface {
	VerifyTransaction(ctx context.Context, reference string) (*paystack.TransactionData, error)
}

// IssueResult is a rendered ticket response: the document bytes plus the
// ticket numbers carried out of band so callers need not parse the document.
type IssueResult struct {
	TicketNumbers []string
	Document      []byte
	ContentType   string
	Filename      string
}

// CreateRaffleResult is returned from raffle creation. The creator secret
// appears here exactly once; no read endpoint ever re-exposes it.
type CreateRaffleResult struct {
	ID            string `json:"id"`
	CreatorSecret string `json:"creatorSecret"`
}

// RaffleService defines the interface for the raffle lifecycle: creation,
// payment-triggered ticket issuance, closure with winner draw, and lookups.
type RaffleService interface {
	CreateRaffle(ctx context.Context, req *models.CreateRaffleRequest, createdBy string) (*CreateRaffleResult, error)
	InitPayment(ctx context.Context, raffleID string, req *models.JoinRaffleRequest) (*models.PaymentQuote, *IssueResult, error)
	VerifyAndIssue(ctx context.Context, raffleID string, req *models.VerifyPaymentRequest) (*IssueResult, error)
	HandleWebhook(ctx context.Context, event *paystack.WebhookEvent) (*IssueResult, error)
	CloseRaffle(ctx context.Context, raffleID, secret string) (string, error)
	DeleteRaffle(ctx context.Context, raffleID, secret string) error
	GetRaffle(ctx context.Context, raffleID string) (*models.Raffle, error)
	ListRaffles(ctx context.Context) ([]*models.Raffle, error)
	GetTicket(ctx context.Context, raffleID, ticketNumber string) (*models.Raffle, *models.Participant, error)
}

// Compile-time check to ensure RaffleServiceImpl implements RaffleService
var _ RaffleService = (*RaffleServiceImpl)(nil)

// RaffleServiceImpl coordinates the raffle repositories, the payment gateway
// adapter, and the pure artifact renderer.
type RaffleServiceImpl struct {
	raffleRepo  repositories.RaffleRepository
	receiptRepo repositories.PaymentReceiptRepository
	verifier    PaymentVerifier
	frontendURL string
}

// NewRaffleService creates a new RaffleServiceImpl
func NewRaffleService(
	raffleRepo repositories.RaffleRepository,
	receiptRepo repositories.PaymentReceiptRepository,
	verifier PaymentVerifier,
	frontendURL string,
) *RaffleServiceImpl {
	return &RaffleServiceImpl{
		raffleRepo:  raffleRepo,
		receiptRepo: receiptRepo,
		verifier:    verifier,
		frontendURL: frontendURL,
	}
}

// --- Raffle creation ---

// CreateRaffle validates the submitted fields, generates the creator secret,
// and persists the raffle with zero participants. Nothing is persisted on a
// validation failure.
func (s *RaffleServiceImpl) CreateRaffle(ctx context.Context, req *models.CreateRaffleRequest, createdBy string) (*CreateRaffleResult, error) {
	if req.Title == "" {
		return nil, apperrors.New(apperrors.KindValidation, "missing required field: title")
	}

	prize, err := buildPrizeSpec(req)
	if err != nil {
		return nil, err
	}

	ticketPrice, err := strconv.ParseFloat(req.TicketPrice, 64)
	if err != nil || ticketPrice < 0 {
		return nil, apperrors.New(apperrors.KindValidation, "ticket price must be a non-negative number")
	}

	endTime, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil || !endTime.After(time.Now()) {
		return nil, apperrors.New(apperrors.KindValidation, "end time must be a valid date in the future")
	}

	secret, err := utils.GenerateCreatorSecret()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindPersistence, err, "failed to generate creator secret")
	}

	raffle := &models.Raffle{
		Title:         req.Title,
		Description:   req.Description,
		Prize:         *prize,
		TicketPrice:   ticketPrice,
		EndTime:       endTime,
		CreatedBy:     createdBy,
		CreatorSecret: secret,
		Participants:  []models.Participant{},
	}
	if err := s.raffleRepo.Create(ctx, raffle); err != nil {
		slog.Error("failed to persist raffle", "title", req.Title, "error", err)
		return nil, apperrors.Wrap(apperrors.KindPersistence, err, "failed to create raffle")
	}

	slog.Info("raffle created", "raffleId", raffle.ID.Hex(), "createdBy", createdBy)
	return &CreateRaffleResult{ID: raffle.ID.Hex(), CreatorSecret: secret}, nil
}

// buildPrizeSpec turns the form fields into a structurally validated prize
// specification.
func buildPrizeSpec(req *models.CreateRaffleRequest) (*models.PrizeSpec, error) {
	if len(req.PrizeTypes) == 0 {
		return nil, apperrors.New(apperrors.KindValidation, "at least one prize type is required")
	}

	var prize models.PrizeSpec
	for _, t := range req.PrizeTypes {
		switch models.PrizeType(t) {
		case models.PrizeTypeCash:
			amount, err := strconv.ParseFloat(req.CashPrize, 64)
			if err != nil || amount <= 0 {
				return nil, apperrors.New(apperrors.KindValidation, "cash prize must be a positive number")
			}
			prize.Cash = &models.CashPrize{Amount: amount}
		case models.PrizeTypeItem:
			item := &models.ItemPrize{Name: req.ItemName}
			if len(req.PrizeImage) > 0 {
				item.Image = base64.StdEncoding.EncodeToString(req.PrizeImage)
			}
			prize.Item = item
		default:
			return nil, apperrors.Newf(apperrors.KindValidation, "prize types must be %q or %q", models.PrizeTypeCash, models.PrizeTypeItem)
		}
	}
	if err := prize.Validate(); err != nil {
		return nil, err
	}
	return &prize, nil
}

// --- Payment-triggered ticket issuance ---

// InitPayment begins participation. A free raffle issues immediately; a paid
// one returns the quote the caller charges through the gateway before coming
// back via verify-payment or the webhook.
func (s *RaffleServiceImpl) InitPayment(ctx context.Context, raffleID string, req *models.JoinRaffleRequest) (*models.PaymentQuote, *IssueResult, error) {
	raffle, err := s.findRaffle(ctx, raffleID)
	if err != nil {
		return nil, nil, err
	}

	if raffle.TicketPrice == 0 {
		result, err := s.issueTickets(ctx, raffle, req.DisplayName, req.Contact, req.Email, req.Quantity)
		if err != nil {
			return nil, nil, err
		}
		return nil, result, nil
	}

	return &models.PaymentQuote{
		TicketPrice: raffle.TicketPrice,
		Currency:    Currency,
		RaffleID:    raffle.ID.Hex(),
		DisplayName: req.DisplayName,
		Contact:     req.Contact,
		Email:       req.Email,
	}, nil, nil
}

// VerifyAndIssue is the client-confirmed payment path: the gateway is asked
// whether the reference corresponds to a successful charge, the reference is
// recorded against replays, and only then are tickets issued.
func (s *RaffleServiceImpl) VerifyAndIssue(ctx context.Context, raffleID string, req *models.VerifyPaymentRequest) (*IssueResult, error) {
	raffle, err := s.findRaffle(ctx, raffleID)
	if err != nil {
		return nil, err
	}

	if raffle.TicketPrice > 0 {
		if _, err := s.verifier.VerifyTransaction(ctx, req.Reference); err != nil {
			slog.Warn("payment verification failed", "raffleId", raffleID, "reference", req.Reference, "error", err)
			return nil, apperrors.Wrap(apperrors.KindPaymentVerification, err, "payment not successful")
		}
		if err := s.recordReference(ctx, raffle.ID, req.Reference); err != nil {
			return nil, err
		}
	}

	return s.issueTickets(ctx, raffle, req.DisplayName, req.Contact, req.Email, req.Quantity)
}

// HandleWebhook is the asynchronous gateway path. Signature verification has
// already happened against the raw payload in the handler; only a successful
// charge event reaches issuance, every other event type is acknowledged
// without action.
func (s *RaffleServiceImpl) HandleWebhook(ctx context.Context, event *paystack.WebhookEvent) (*IssueResult, error) {
	if event.Event != paystack.EventChargeSuccess {
		slog.Info("ignoring webhook event", "event", event.Event)
		return nil, nil
	}

	meta := event.Data.Metadata
	raffle, err := s.findRaffle(ctx, meta.RaffleID)
	if err != nil {
		return nil, err
	}

	if event.Data.Reference != "" {
		if err := s.recordReference(ctx, raffle.ID, event.Data.Reference); err != nil {
			return nil, err
		}
	}

	return s.issueTickets(ctx, raffle, meta.DisplayName, meta.Contact, meta.Email, meta.Quantity)
}

// recordReference is the atomic idempotency guard shared by both paid paths.
func (s *RaffleServiceImpl) recordReference(ctx context.Context, raffleID primitive.ObjectID, reference string) error {
	fresh, err := s.receiptRepo.Record(ctx, reference, raffleID)
	if err != nil {
		return apperrors.Wrap(apperrors.KindPersistence, err, "failed to record payment reference")
	}
	if !fresh {
		slog.Warn("duplicate payment reference", "raffleId", raffleID.Hex(), "reference", reference)
		return apperrors.New(apperrors.KindDuplicatePayment, "payment reference already processed")
	}
	return nil
}

// issueTickets runs the issuance steps in order for each requested ticket:
// generate the number, render its QR image, durably append the participant
// entry, and render the document. The append must succeed before any document
// is returned; a document-rendering failure after the append leaves the
// ticket issued and re-fetchable.
func (s *RaffleServiceImpl) issueTickets(ctx context.Context, raffle *models.Raffle, displayName, contact, email string, quantity int) (*IssueResult, error) {
	if displayName == "" || contact == "" {
		return nil, apperrors.New(apperrors.KindValidation, "missing required fields: displayName, contact")
	}
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 1 || quantity > maxTicketsPerRequest {
		return nil, apperrors.Newf(apperrors.KindValidation, "quantity must be between 1 and %d", maxTicketsPerRequest)
	}
	if !raffle.IsOpen(time.Now()) {
		return nil, apperrors.New(apperrors.KindValidation, "raffle is closed for new tickets")
	}

	raffleID := raffle.ID.Hex()
	numbers := make([]string, 0, quantity)
	documents := make([][]byte, 0, quantity)

	for i := 0; i < quantity; i++ {
		number, err := utils.GenerateTicketNumber()
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindPersistence, err, "failed to generate ticket number")
		}

		qr, err := ticket.QRCode(s.frontendURL, raffleID, number)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindArtifactRender, err, "failed to generate qr code")
		}

		participant := models.Participant{
			DisplayName:  displayName,
			Contact:      contact,
			Email:        email,
			TicketNumber: number,
		}
		if err := s.raffleRepo.AppendParticipant(ctx, raffle.ID, participant); err != nil {
			slog.Error("failed to persist participant", "raffleId", raffleID, "ticketNumber", number, "error", err)
			return nil, apperrors.Wrap(apperrors.KindPersistence, err, "failed to save ticket")
		}
		numbers = append(numbers, number)

		doc, err := ticket.PDF(ticket.Ticket{
			RaffleID:     raffleID,
			RaffleTitle:  raffle.Title,
			TicketNumber: number,
			DisplayName:  displayName,
			Contact:      contact,
			QR:           qr,
		})
		if err != nil {
			// The ticket is durable at this point; log enough context for
			// reconciliation and let the holder re-fetch the document.
			slog.Error("ticket issued but document rendering failed",
				"raffleId", raffleID, "ticketNumbers", strings.Join(numbers, ","), "error", err)
			return nil, apperrors.Wrap(apperrors.KindArtifactRender, err, "failed to generate ticket document")
		}
		documents = append(documents, doc)
	}

	slog.Info("tickets issued", "raffleId", raffleID, "count", len(numbers))

	if len(documents) == 1 {
		return &IssueResult{
			TicketNumbers: numbers,
			Document:      documents[0],
			ContentType:   "application/pdf",
			Filename:      fmt.Sprintf("ticket-%s.pdf", numbers[0]),
		}, nil
	}

	archive, err := ticket.Archive(numbers, documents)
	if err != nil {
		slog.Error("tickets issued but archive rendering failed",
			"raffleId", raffleID, "ticketNumbers", strings.Join(numbers, ","), "error", err)
		return nil, apperrors.Wrap(apperrors.KindArtifactRender, err, "failed to archive ticket documents")
	}
	return &IssueResult{
		TicketNumbers: numbers,
		Document:      archive,
		ContentType:   "application/zip",
		Filename:      fmt.Sprintf("tickets-%s.zip", raffleID),
	}, nil
}

// --- Closure & winner draw ---

// CloseRaffle is the one-way, secret-gated close transition. When tickets
// exist, the winner is drawn uniformly over every ticket number held by any
// participant, so a holder of two tickets has twice the chance of a holder
// of one.
func (s *RaffleServiceImpl) CloseRaffle(ctx context.Context, raffleID, secret string) (string, error) {
	raffle, err := s.findRaffle(ctx, raffleID)
	if err != nil {
		return "", err
	}
	if err := checkCreatorSecret(raffle, secret); err != nil {
		return "", err
	}
	if raffle.Closed {
		return "", apperrors.New(apperrors.KindAlreadyClosed, "raffle has already been closed")
	}

	winner := drawWinner(raffle.TicketNumbers())

	closed, err := s.raffleRepo.MarkClosed(ctx, raffle.ID, winner, time.Now())
	if err != nil {
		slog.Error("failed to close raffle", "raffleId", raffleID, "error", err)
		return "", apperrors.Wrap(apperrors.KindPersistence, err, "failed to close raffle")
	}
	if !closed {
		// Lost a race against a concurrent close; the stored winner stands.
		return "", apperrors.New(apperrors.KindAlreadyClosed, "raffle has already been closed")
	}

	slog.Info("raffle closed", "raffleId", raffleID, "winner", winner, "tickets", len(raffle.Participants))
	return winner, nil
}

// DeleteRaffle removes a raffle entirely. Gated by the same creator secret
// as closure.
func (s *RaffleServiceImpl) DeleteRaffle(ctx context.Context, raffleID, secret string) error {
	raffle, err := s.findRaffle(ctx, raffleID)
	if err != nil {
		return err
	}
	if err := checkCreatorSecret(raffle, secret); err != nil {
		return err
	}
	if err := s.raffleRepo.Delete(ctx, raffle.ID); err != nil {
		return apperrors.Wrap(apperrors.KindPersistence, err, "failed to delete raffle")
	}
	slog.Info("raffle deleted", "raffleId", raffleID)
	return nil
}

// drawWinner selects one ticket number uniformly at random from the pool.
// Returns "" for an empty pool.
func drawWinner(numbers []string) string {
	if len(numbers) == 0 {
		return ""
	}
	return numbers[rand.Intn(len(numbers))]
}

func checkCreatorSecret(raffle *models.Raffle, secret string) error {
	if subtle.ConstantTimeCompare([]byte(raffle.CreatorSecret), []byte(secret)) != 1 {
		return apperrors.New(apperrors.KindAuthorization, "unauthorized: invalid creator secret")
	}
	return nil
}

// --- Queries ---

// GetRaffle fetches one raffle.
func (s *RaffleServiceImpl) GetRaffle(ctx context.Context, raffleID string) (*models.Raffle, error) {
	return s.findRaffle(ctx, raffleID)
}

// ListRaffles lists all raffles, newest first.
func (s *RaffleServiceImpl) ListRaffles(ctx context.Context) ([]*models.Raffle, error) {
	raffles, err := s.raffleRepo.FindAll(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindPersistence, err, "failed to fetch raffles")
	}
	return raffles, nil
}

// GetTicket returns the raffle together with the participant entry holding
// the ticket number.
func (s *RaffleServiceImpl) GetTicket(ctx context.Context, raffleID, ticketNumber string) (*models.Raffle, *models.Participant, error) {
	raffle, err := s.findRaffle(ctx, raffleID)
	if err != nil {
		return nil, nil, err
	}
	participant, ok := raffle.FindParticipant(ticketNumber)
	if !ok {
		return nil, nil, apperrors.New(apperrors.KindNotFound, "ticket not found")
	}
	return raffle, participant, nil
}

func (s *RaffleServiceImpl) findRaffle(ctx context.Context, raffleID string) (*models.Raffle, error) {
	id, err := primitive.ObjectIDFromHex(raffleID)
	if err != nil {
		return nil, apperrors.New(apperrors.KindNotFound, "raffle not found")
	}
	raffle, err := s.raffleRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.New(apperrors.KindNotFound, "raffle not found")
		}
		return nil, apperrors.Wrap(apperrors.KindPersistence, err, "failed to fetch raffle")
	}
	return raffle, nil
}

// UnmarshalWebhookEvent decodes a raw, already signature-verified payload.
func UnmarshalWebhookEvent(payload []byte) (*paystack.WebhookEvent, error) {
	var event paystack.WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, apperrors.Wrap(apperrors.KindValidation, err, "malformed webhook payload")
	}
	return &event, nil
}
