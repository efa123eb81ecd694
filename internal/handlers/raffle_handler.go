package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rafflehub/raffle-backend/internal/apperrors"
	"github.com/rafflehub/raffle-backend/internal/models"
	"github.com/rafflehub/raffle-backend/internal/services"
	"github.com/rafflehub/raffle-backend/pkg/paystack"
	"golang.org/x/exp/slog"
)

// TicketNumberHeader exposes issued ticket numbers out of band so automated
// clients can extract them without parsing the document body.
const TicketNumberHeader = "X-Ticket-Number"

// RaffleHandler handles raffle related HTTP requests
type RaffleHandler struct {
	raffleService  services.RaffleService
	paystackSecret string
}

// NewRaffleHandler creates a new RaffleHandler
func NewRaffleHandler(raffleService services.RaffleService, paystackSecret string) *RaffleHandler {
	return &RaffleHandler{
		raffleService:  raffleService,
		paystackSecret: paystackSecret,
	}
}

// CreateRaffle handles POST /raffles (multipart form, session-gated)
func (h *RaffleHandler) CreateRaffle(c *gin.Context) {
	req := models.CreateRaffleRequest{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		CashPrize:   c.PostForm("cashPrize"),
		ItemName:    c.PostForm("itemName"),
		TicketPrice: c.PostForm("ticketPrice"),
		EndTime:     c.PostForm("endTime"),
	}

	if raw := c.PostForm("prizeTypes"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.PrizeTypes); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid prize types format"})
			return
		}
	}

	if file, err := c.FormFile("prizeImage"); err == nil {
		f, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read prize image"})
			return
		}
		defer f.Close()
		req.PrizeImage, err = io.ReadAll(f)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read prize image"})
			return
		}
	}

	createdBy := c.GetString("username")
	result, err := h.raffleService.CreateRaffle(c.Request.Context(), &req, createdBy)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// InitPayment handles POST /raffles/:id/participants/init-payment. A free
// raffle responds with the ticket document immediately; a paid one responds
// with the payment quote.
func (h *RaffleHandler) InitPayment(c *gin.Context) {
	var req models.JoinRaffleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields: displayName, contact"})
		return
	}

	quote, result, err := h.raffleService.InitPayment(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	if result != nil {
		writeDocument(c, result)
		return
	}
	c.JSON(http.StatusOK, quote)
}

// VerifyPayment handles POST /raffles/:id/participants/verify-payment, the
// client-confirmed payment path.
func (h *RaffleHandler) VerifyPayment(c *gin.Context) {
	var req models.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields: reference, displayName, contact"})
		return
	}

	result, err := h.raffleService.VerifyAndIssue(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	writeDocument(c, result)
}

// Webhook handles POST /raffles/webhook. The signature is recomputed over
// the exact raw body bytes before anything is decoded; a mismatch fails
// closed with no side effect.
func (h *RaffleHandler) Webhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	signature := c.GetHeader(paystack.SignatureHeader)
	if !paystack.VerifyWebhookSignature(h.paystackSecret, payload, signature) {
		slog.Warn("webhook rejected: invalid signature", "remoteAddr", c.ClientIP())
		writeError(c, apperrors.New(apperrors.KindInvalidSignature, "invalid webhook signature"))
		return
	}

	event, err := services.UnmarshalWebhookEvent(payload)
	if err != nil {
		writeError(c, err)
		return
	}

	if _, err := h.raffleService.HandleWebhook(c.Request.Context(), event); err != nil {
		writeError(c, err)
		return
	}

	// The gateway only needs an acknowledgement; the ticket document is
	// fetched by the holder through the ticket endpoint.
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetAllRaffles handles GET /raffles
func (h *RaffleHandler) GetAllRaffles(c *gin.Context) {
	raffles, err := h.raffleService.ListRaffles(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, raffles)
}

// GetRaffle handles GET /raffles/:id
func (h *RaffleHandler) GetRaffle(c *gin.Context) {
	raffle, err := h.raffleService.GetRaffle(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, raffle)
}

// GetTicket handles GET /raffles/:id/tickets/:ticketNumber
func (h *RaffleHandler) GetTicket(c *gin.Context) {
	raffle, participant, err := h.raffleService.GetTicket(c.Request.Context(), c.Param("id"), c.Param("ticketNumber"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"raffle": raffle, "participant": participant})
}

// CloseRaffle handles POST /raffles/:id/close/:secret
func (h *RaffleHandler) CloseRaffle(c *gin.Context) {
	winner, err := h.raffleService.CloseRaffle(c.Request.Context(), c.Param("id"), c.Param("secret"))
	if err != nil {
		writeError(c, err)
		return
	}
	if winner == "" {
		c.JSON(http.StatusOK, gin.H{"winner": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"winner": winner})
}

// DeleteRaffle handles DELETE /raffles/:id/:secret
func (h *RaffleHandler) DeleteRaffle(c *gin.Context) {
	if err := h.raffleService.DeleteRaffle(c.Request.Context(), c.Param("id"), c.Param("secret")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// writeDocument sends a rendered ticket document. The ticket numbers ride in
// a response header so programmatic callers need not parse the body.
func writeDocument(c *gin.Context, result *services.IssueResult) {
	c.Header(TicketNumberHeader, strings.Join(result.TicketNumbers, ","))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Document)
}

// writeError translates a service error into the HTTP response. Once any
// bytes have been written the error is only logged; a response is never sent
// twice.
func writeError(c *gin.Context, err error) {
	if c.Writer.Written() {
		slog.Error("error after response already sent", "path", c.FullPath(), "error", err)
		return
	}
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "path", c.FullPath(), "status", status, "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
