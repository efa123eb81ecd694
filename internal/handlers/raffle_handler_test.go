package handlers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rafflehub/raffle-backend/internal/apperrors"
	"github.com/rafflehub/raffle-backend/internal/models"
	"github.com/rafflehub/raffle-backend/internal/services"
	"github.com/rafflehub/raffle-backend/pkg/paystack"
)

const testWebhookSecret = "sk_test_secret"

type fakeRaffleService struct {
	initQuote    *models.PaymentQuote
	initResult   *services.IssueResult
	initErr      error
	verifyResult *services.IssueResult
	verifyErr    error
	closeWinner  string
	closeErr     error

	webhookEvents []*paystack.WebhookEvent
	verifyCalls   int
}

func (f *fakeRaffleService) CreateRaffle(ctx context.Context, req *models.CreateRaffleRequest, createdBy string) (*services.CreateRaffleResult, error) {
	return &services.CreateRaffleResult{ID: "raffle-1", CreatorSecret: "secret"}, nil
}

func (f *fakeRaffleService) InitPayment(ctx context.Context, raffleID string, req *models.JoinRaffleRequest) (*models.PaymentQuote, *services.IssueResult, error) {
	return f.initQuote, f.initResult, f.initErr
}

func (f *fakeRaffleService) VerifyAndIssue(ctx context.Context, raffleID string, req *models.VerifyPaymentRequest) (*services.IssueResult, error) {
	f.verifyCalls++
	return f.verifyResult, f.verifyErr
}

func (f *fakeRaffleService) HandleWebhook(ctx context.Context, event *paystack.WebhookEvent) (*services.IssueResult, error) {
	f.webhookEvents = append(f.webhookEvents, event)
	return nil, nil
}

func (f *fakeRaffleService) CloseRaffle(ctx context.Context, raffleID, secret string) (string, error) {
	return f.closeWinner, f.closeErr
}

func (f *fakeRaffleService) DeleteRaffle(ctx context.Context, raffleID, secret string) error {
	return nil
}

func (f *fakeRaffleService) GetRaffle(ctx context.Context, raffleID string) (*models.Raffle, error) {
	return nil, apperrors.New(apperrors.KindNotFound, "raffle not found")
}

func (f *fakeRaffleService) ListRaffles(ctx context.Context) ([]*models.Raffle, error) {
	return []*models.Raffle{}, nil
}

func (f *fakeRaffleService) GetTicket(ctx context.Context, raffleID, ticketNumber string) (*models.Raffle, *models.Participant, error) {
	return nil, nil, apperrors.New(apperrors.KindNotFound, "ticket not found")
}

func newTestRouter(svc services.RaffleService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewRaffleHandler(svc, testWebhookSecret)
	r := gin.New()
	raffles := r.Group("/api/v1/raffles")
	{
		raffles.POST("/webhook", h.Webhook)
		raffles.GET("/:id", h.GetRaffle)
		raffles.POST("/:id/participants/init-payment", h.InitPayment)
		raffles.POST("/:id/participants/verify-payment", h.VerifyPayment)
		raffles.POST("/:id/close/:secret", h.CloseRaffle)
	}
	return r
}

func signPayload(secret string, payload []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestWebhookRejectsInvalidSignature(t *testing.T) {
	svc := &fakeRaffleService{}
	router := newTestRouter(svc)

	payload := []byte(`{"event":"charge.success","data":{"reference":"ref-1"}}`)

	tests := []struct {
		name      string
		signature string
	}{
		{"missing signature", ""},
		{"wrong signature", signPayload("some-other-secret", payload)},
		{"garbage signature", "not-hex-at-all"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/raffles/webhook", bytes.NewReader(payload))
			if tt.signature != "" {
				req.Header.Set(paystack.SignatureHeader, tt.signature)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
		})
	}

	if len(svc.webhookEvents) != 0 {
		t.Errorf("rejected webhooks must not reach the service, got %d calls", len(svc.webhookEvents))
	}
}

func TestWebhookAcceptsValidSignature(t *testing.T) {
	svc := &fakeRaffleService{}
	router := newTestRouter(svc)

	payload := []byte(`{"event":"charge.success","data":{"reference":"ref-1","metadata":{"raffleId":"abc"}}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/raffles/webhook", bytes.NewReader(payload))
	req.Header.Set(paystack.SignatureHeader, signPayload(testWebhookSecret, payload))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	if len(svc.webhookEvents) != 1 {
		t.Fatalf("expected one service call, got %d", len(svc.webhookEvents))
	}
	if got := svc.webhookEvents[0].Data.Reference; got != "ref-1" {
		t.Errorf("event reference = %q, want %q", got, "ref-1")
	}
}

func TestInitPaymentFreeRaffleResponse(t *testing.T) {
	svc := &fakeRaffleService{
		initResult: &services.IssueResult{
			TicketNumbers: []string{"AAAA1111BBBB2222", "CCCC3333DDDD4444"},
			Document:      []byte("zipbytes"),
			ContentType:   "application/zip",
			Filename:      "tickets-raffle-1.zip",
		},
	}
	router := newTestRouter(svc)

	body, _ := json.Marshal(models.JoinRaffleRequest{DisplayName: "Alice", Contact: "111", Quantity: 2})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/raffles/raffle-1/participants/init-payment", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if got := w.Header().Get(TicketNumberHeader); got != "AAAA1111BBBB2222,CCCC3333DDDD4444" {
		t.Errorf("%s = %q, want comma-joined ticket numbers", TicketNumberHeader, got)
	}
	if got := w.Header().Get("Content-Type"); !strings.HasPrefix(got, "application/zip") {
		t.Errorf("Content-Type = %q, want application/zip", got)
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), "tickets-raffle-1.zip") {
		t.Errorf("Content-Disposition = %q, want the archive filename", w.Header().Get("Content-Disposition"))
	}
	if w.Body.String() != "zipbytes" {
		t.Error("response body does not carry the document bytes")
	}
}

func TestInitPaymentPaidRaffleQuote(t *testing.T) {
	svc := &fakeRaffleService{
		initQuote: &models.PaymentQuote{TicketPrice: 10, Currency: "GHS", RaffleID: "raffle-1"},
	}
	router := newTestRouter(svc)

	body, _ := json.Marshal(models.JoinRaffleRequest{DisplayName: "Alice", Contact: "111"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/raffles/raffle-1/participants/init-payment", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var quote models.PaymentQuote
	if err := json.Unmarshal(w.Body.Bytes(), &quote); err != nil {
		t.Fatalf("unmarshal quote: %v", err)
	}
	if quote.TicketPrice != 10 || quote.Currency != "GHS" {
		t.Errorf("unexpected quote: %+v", quote)
	}
}

func TestInitPaymentRejectsMissingFields(t *testing.T) {
	svc := &fakeRaffleService{}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/raffles/raffle-1/participants/init-payment", strings.NewReader(`{"displayName":"Alice"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", apperrors.New(apperrors.KindValidation, "bad input"), http.StatusBadRequest},
		{"authorization", apperrors.New(apperrors.KindAuthorization, "wrong secret"), http.StatusForbidden},
		{"not found", apperrors.New(apperrors.KindNotFound, "raffle not found"), http.StatusNotFound},
		{"payment verification", apperrors.New(apperrors.KindPaymentVerification, "declined"), http.StatusPaymentRequired},
		{"duplicate payment", apperrors.New(apperrors.KindDuplicatePayment, "already processed"), http.StatusConflict},
		{"already closed", apperrors.New(apperrors.KindAlreadyClosed, "closed"), http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeRaffleService{verifyErr: tt.err}
			router := newTestRouter(svc)

			body := `{"reference":"ref-1","displayName":"Alice","contact":"111"}`
			req := httptest.NewRequest(http.MethodPost, "/api/v1/raffles/raffle-1/participants/verify-payment", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}

			var resp map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshal error body: %v", err)
			}
			if resp["error"] == "" {
				t.Error("expected an error message in the response body")
			}
		})
	}
}

func TestCloseRaffleResponse(t *testing.T) {
	t.Run("with winner", func(t *testing.T) {
		svc := &fakeRaffleService{closeWinner: "AAAA1111BBBB2222"}
		router := newTestRouter(svc)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/raffles/raffle-1/close/somesecret", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
		}
		var resp map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if resp["winner"] != "AAAA1111BBBB2222" {
			t.Errorf("winner = %v, want the drawn ticket number", resp["winner"])
		}
	})

	t.Run("without winner", func(t *testing.T) {
		svc := &fakeRaffleService{}
		router := newTestRouter(svc)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/raffles/raffle-1/close/somesecret", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
		}
		var resp map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if winner, present := resp["winner"]; !present || winner != nil {
			t.Errorf("winner = %v, want explicit null", winner)
		}
	})
}
