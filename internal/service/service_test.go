package service_test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/ginext"

	"campusevents/internal/api/api"
	"campusevents/internal/dto"
	"campusevents/internal/model"
	"campusevents/internal/payment"
	"campusevents/internal/repo"
	"campusevents/internal/service"
)

const testSecret = "merchant-secret"

func signatureFor(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// fakeRepo is an in-memory stand-in for the postgres ledger with the same
// transition semantics: partial uniqueness on active (event, user) pairs and
// the pending -> paid latch.
type fakeRepo struct {
	events       map[int64]*model.Event
	regs         map[int64]*model.Registration
	nextEvent    int64
	nextReg      int64
	regFailure   error
	countFailure error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		events: make(map[int64]*model.Event),
		regs:   make(map[int64]*model.Registration),
	}
}

func (f *fakeRepo) CreateEvent(_ context.Context, e *model.Event) (int64, error) {
	f.nextEvent++
	e.ID = f.nextEvent
	cp := *e
	f.events[e.ID] = &cp
	return e.ID, nil
}

func (f *fakeRepo) GetEventByID(_ context.Context, id int64) (*model.Event, error) {
	e, ok := f.events[id]
	if !ok {
		return nil, repo.ErrEventNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeRepo) GetApprovedEvents(_ context.Context) ([]model.Event, error) {
	var out []model.Event
	for _, e := range f.events {
		if e.Approved {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (f *fakeRepo) CountActiveRegistrations(_ context.Context, eventID int64) (int, error) {
	if f.countFailure != nil {
		return 0, f.countFailure
	}
	count := 0
	for _, r := range f.regs {
		if r.EventID == eventID && r.PaymentStatus != model.PaymentExpired {
			count++
		}
	}
	return count, nil
}

func (f *fakeRepo) RegisterTx(_ context.Context, reg *model.Registration) (int64, int, error) {
	if f.regFailure != nil {
		return 0, 0, f.regFailure
	}
	event, ok := f.events[reg.EventID]
	if !ok {
		return 0, 0, repo.ErrEventNotFound
	}
	if !event.Approved {
		return 0, 0, repo.ErrEventNotApproved
	}
	active := 0
	for _, r := range f.regs {
		if r.EventID == reg.EventID && r.PaymentStatus != model.PaymentExpired {
			active++
			if r.UserID == reg.UserID {
				return 0, 0, repo.ErrDuplicateRegistration
			}
		}
	}
	if active >= event.Capacity {
		return 0, 0, repo.ErrEventFull
	}

	f.nextReg++
	cp := *reg
	cp.ID = f.nextReg
	cp.PaymentStatus = model.PaymentPending
	cp.CreatedAt = time.Now().Add(time.Duration(f.nextReg) * time.Millisecond)
	f.regs[cp.ID] = &cp
	return cp.ID, event.PaymentTimeoutMinutes, nil
}

func (f *fakeRepo) GetRegistrationByEventAndUser(_ context.Context, eventID, userID int64) (*model.Registration, error) {
	for _, r := range f.regs {
		if r.EventID == eventID && r.UserID == userID && r.PaymentStatus != model.PaymentExpired {
			cp := *r
			return &cp, nil
		}
	}
	return nil, repo.ErrRegistrationNotFound
}

func (f *fakeRepo) GetRegistrationByID(_ context.Context, id int64) (*model.Registration, error) {
	r, ok := f.regs[id]
	if !ok {
		return nil, repo.ErrRegistrationNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRepo) GetRegistrationByOrderID(_ context.Context, orderID string) (*model.Registration, error) {
	for _, r := range f.regs {
		if r.OrderID == orderID && orderID != "" {
			cp := *r
			return &cp, nil
		}
	}
	return nil, repo.ErrRegistrationNotFound
}

func (f *fakeRepo) GetRegistrationsByUser(_ context.Context, userID int64) ([]model.Registration, error) {
	var out []model.Registration
	for _, r := range f.regs {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeRepo) AttachOrder(_ context.Context, registrationID int64, orderID string) error {
	r, ok := f.regs[registrationID]
	if !ok || r.PaymentStatus != model.PaymentPending {
		return repo.ErrRegistrationNotFound
	}
	r.OrderID = orderID
	return nil
}

func (f *fakeRepo) MarkPaidTx(_ context.Context, registrationID int64, paymentID, signature string) (*model.Registration, error) {
	r, ok := f.regs[registrationID]
	if !ok {
		return nil, repo.ErrRegistrationNotFound
	}
	switch r.PaymentStatus {
	case model.PaymentExpired:
		return nil, repo.ErrRegistrationExpired
	case model.PaymentPaid:
		if r.PaymentID == paymentID {
			cp := *r
			return &cp, nil
		}
		return nil, repo.ErrAlreadyPaid
	}
	r.PaymentStatus = model.PaymentPaid
	r.PaymentID = paymentID
	r.Signature = signature
	r.UpdatedAt = time.Now()
	cp := *r
	return &cp, nil
}

func (f *fakeRepo) ExpireIfUnpaidTx(_ context.Context, registrationID int64) (bool, error) {
	r, ok := f.regs[registrationID]
	if !ok {
		return false, repo.ErrRegistrationNotFound
	}
	if r.PaymentStatus != model.PaymentPending {
		return false, nil
	}
	r.PaymentStatus = model.PaymentExpired
	return true, nil
}

func (f *fakeRepo) MigrateUp(string) error   { return nil }
func (f *fakeRepo) MigrateDown(string) error { return nil }

type fakeGateway struct {
	orders  int
	failing bool
}

func (g *fakeGateway) CreateOrder(amountPaise int64, receipt string) (*payment.Order, error) {
	if amountPaise <= 0 {
		return nil, payment.ErrInvalidAmount
	}
	if g.failing {
		return nil, fmt.Errorf("%w: processor down", payment.ErrGateway)
	}
	g.orders++
	return &payment.Order{
		ID:       fmt.Sprintf("order_%d", g.orders),
		Amount:   amountPaise,
		Currency: "INR",
		Receipt:  receipt,
	}, nil
}

func (g *fakeGateway) VerifySignature(orderID, paymentID, signature string) bool {
	expected := signatureFor(orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}

type fakePublisher struct {
	published [][]byte
	delays    []int
}

func (p *fakePublisher) Publish(message []byte, delaySeconds int) error {
	p.published = append(p.published, message)
	p.delays = append(p.delays, delaySeconds)
	return nil
}

type fakeNotifier struct {
	sent []string
}

func (n *fakeNotifier) SendRegistrationEmail(_, status, _ string, _ int) error {
	n.sent = append(n.sent, status)
	return nil
}

type fixture struct {
	app      *ginext.Engine
	repo     *fakeRepo
	gateway  *fakeGateway
	queue    *fakePublisher
	notifier *fakeNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	fr := newFakeRepo()
	fg := &fakeGateway{}
	fp := &fakePublisher{}
	fn := &fakeNotifier{}
	log := zerolog.Nop()

	svc := service.NewService(fr, &log, fg, fp, fn)
	app := api.NewRouters(&api.Routers{Service: svc})

	return &fixture{app: app, repo: fr, gateway: fg, queue: fp, notifier: fn}
}

func (f *fixture) seedEvent(t *testing.T, regFee int64, capacity int, approved bool) int64 {
	t.Helper()
	id, err := f.repo.CreateEvent(context.Background(), &model.Event{
		Name:                  "TechFest",
		StartTime:             time.Now().Add(48 * time.Hour),
		Venue:                 "Main Auditorium",
		RegFee:                regFee,
		Capacity:              capacity,
		PaymentTimeoutMinutes: 15,
		Approved:              approved,
	})
	require.NoError(t, err)
	return id
}

func (f *fixture) do(t *testing.T, method, path string, userID int64, body any) (*httptest.ResponseRecorder, dto.Response) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID > 0 {
		req.Header.Set("X-User-ID", fmt.Sprintf("%d", userID))
	}

	rr := httptest.NewRecorder()
	f.app.ServeHTTP(rr, req)

	var resp dto.Response
	if rr.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	}
	return rr, resp
}

func participants(n int) []map[string]string {
	out := make([]map[string]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, map[string]string{
			"name":     fmt.Sprintf("Student %d", i+1),
			"email":    fmt.Sprintf("student%d@college.edu", i+1),
			"mobile":   "9876543210",
			"college":  "City Engineering College",
			"branch":   "CSE",
			"semester": "5",
		})
	}
	return out
}

func registerBody(n int) map[string]any {
	return map[string]any{"participants": participants(n)}
}

func orderFromData(t *testing.T, resp dto.Response) dto.OrderResponse {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var order dto.OrderResponse
	require.NoError(t, json.Unmarshal(raw, &order))
	return order
}

func TestRegisterCreatesOrder(t *testing.T) {
	f := newFixture(t)
	eventID := f.seedEvent(t, 5, 10, true)

	rr, resp := f.do(t, http.MethodPost, fmt.Sprintf("/v1/events/%d/register", eventID), 7, registerBody(2))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	order := orderFromData(t, resp)
	assert.Equal(t, "order_1", order.OrderID)
	assert.Equal(t, int64(1000), order.Amount, "2 participants x fee 5 = 1000 paise")
	assert.Equal(t, "INR", order.Currency)

	reg, err := f.repo.GetRegistrationByID(context.Background(), order.RegistrationID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPending, reg.PaymentStatus)
	assert.Equal(t, "order_1", reg.OrderID)

	require.Len(t, f.queue.published, 1, "expiry message scheduled")
	assert.Equal(t, 15*60, f.queue.delays[0])
	assert.Equal(t, []string{model.PaymentPending}, f.notifier.sent)
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	eventID := f.seedEvent(t, 5, 10, true)

	t.Run("empty participant list rejected", func(t *testing.T) {
		rr, resp := f.do(t, http.MethodPost, fmt.Sprintf("/v1/events/%d/register", eventID), 7,
			map[string]any{"participants": []any{}})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, dto.FieldIncorrect, resp.Error.Code)
	})

	t.Run("participant missing required field rejected", func(t *testing.T) {
		p := participants(1)
		p[0]["college"] = ""
		rr, _ := f.do(t, http.MethodPost, fmt.Sprintf("/v1/events/%d/register", eventID), 7,
			map[string]any{"participants": p})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("single well-formed participant succeeds", func(t *testing.T) {
		rr, resp := f.do(t, http.MethodPost, fmt.Sprintf("/v1/events/%d/register", eventID), 8, registerBody(1))
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		order := orderFromData(t, resp)
		assert.Equal(t, int64(500), order.Amount)
	})

	t.Run("missing identity rejected", func(t *testing.T) {
		rr, _ := f.do(t, http.MethodPost, fmt.Sprintf("/v1/events/%d/register", eventID), 0, registerBody(1))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("unknown event rejected", func(t *testing.T) {
		rr, _ := f.do(t, http.MethodPost, "/v1/events/999/register", 7, registerBody(1))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestEventListing(t *testing.T) {
	t.Run("only approved events are listed", func(t *testing.T) {
		f := newFixture(t)
		approvedID := f.seedEvent(t, 5, 10, true)
		f.seedEvent(t, 5, 10, false)

		rr, resp := f.do(t, http.MethodGet, "/v1/events", 0, nil)
		require.Equal(t, http.StatusOK, rr.Code)

		raw, err := json.Marshal(resp.Data)
		require.NoError(t, err)
		var events []dto.EventInfoResponse
		require.NoError(t, json.Unmarshal(raw, &events))

		require.Len(t, events, 1, "draft events must stay invisible")
		assert.Equal(t, approvedID, events[0].ID)
		assert.True(t, events[0].Approved)
	})

	t.Run("count failure fails the whole listing", func(t *testing.T) {
		f := newFixture(t)
		f.seedEvent(t, 5, 10, true)
		f.repo.countFailure = errors.New("connection reset")

		rr, resp := f.do(t, http.MethodGet, "/v1/events", 0, nil)
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, dto.ServiceUnavailable, resp.Error.Code)
	})
}

func TestRegisterUnapprovedEvent(t *testing.T) {
	f := newFixture(t)
	eventID := f.seedEvent(t, 5, 10, false)

	rr, resp := f.do(t, http.MethodPost, fmt.Sprintf("/v1/events/%d/register", eventID), 7, registerBody(1))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, dto.EventNotApproved, resp.Error.Code)
}

func TestVerifyPayment(t *testing.T) {
	register := func(t *testing.T, f *fixture, eventID, userID int64) dto.OrderResponse {
		rr, resp := f.do(t, http.MethodPost, fmt.Sprintf("/v1/events/%d/register", eventID), userID, registerBody(2))
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		return orderFromData(t, resp)
	}

	t.Run("valid signature transitions to paid", func(t *testing.T) {
		f := newFixture(t)
		eventID := f.seedEvent(t, 5, 10, true)
		order := register(t, f, eventID, 7)

		rr, _ := f.do(t, http.MethodPost, "/v1/payments/verify", 7, map[string]string{
			"order_id":   order.OrderID,
			"payment_id": "pay_1",
			"signature":  signatureFor(order.OrderID, "pay_1"),
		})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		reg, err := f.repo.GetRegistrationByID(context.Background(), order.RegistrationID)
		require.NoError(t, err)
		assert.Equal(t, model.PaymentPaid, reg.PaymentStatus)
		assert.Equal(t, "pay_1", reg.PaymentID)
		assert.Contains(t, f.notifier.sent, model.PaymentPaid)
	})

	t.Run("altered signature leaves registration pending", func(t *testing.T) {
		f := newFixture(t)
		eventID := f.seedEvent(t, 5, 10, true)
		order := register(t, f, eventID, 7)

		rr, resp := f.do(t, http.MethodPost, "/v1/payments/verify", 7, map[string]string{
			"order_id":   order.OrderID,
			"payment_id": "pay_1",
			"signature":  signatureFor(order.OrderID, "pay_2"),
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, dto.PaymentRejected, resp.Error.Code)

		reg, err := f.repo.GetRegistrationByID(context.Background(), order.RegistrationID)
		require.NoError(t, err)
		assert.Equal(t, model.PaymentPending, reg.PaymentStatus)
	})

	t.Run("repeating the same confirmation is a no-op", func(t *testing.T) {
		f := newFixture(t)
		eventID := f.seedEvent(t, 5, 10, true)
		order := register(t, f, eventID, 7)

		body := map[string]string{
			"order_id":   order.OrderID,
			"payment_id": "pay_1",
			"signature":  signatureFor(order.OrderID, "pay_1"),
		}
		rr, _ := f.do(t, http.MethodPost, "/v1/payments/verify", 7, body)
		require.Equal(t, http.StatusOK, rr.Code)

		rr, _ = f.do(t, http.MethodPost, "/v1/payments/verify", 7, body)
		assert.Equal(t, http.StatusOK, rr.Code)

		reg, err := f.repo.GetRegistrationByID(context.Background(), order.RegistrationID)
		require.NoError(t, err)
		assert.Equal(t, "pay_1", reg.PaymentID)
	})

	t.Run("different confirmation after paid is rejected", func(t *testing.T) {
		f := newFixture(t)
		eventID := f.seedEvent(t, 5, 10, true)
		order := register(t, f, eventID, 7)

		rr, _ := f.do(t, http.MethodPost, "/v1/payments/verify", 7, map[string]string{
			"order_id":   order.OrderID,
			"payment_id": "pay_1",
			"signature":  signatureFor(order.OrderID, "pay_1"),
		})
		require.Equal(t, http.StatusOK, rr.Code)

		rr, resp := f.do(t, http.MethodPost, "/v1/payments/verify", 7, map[string]string{
			"order_id":   order.OrderID,
			"payment_id": "pay_2",
			"signature":  signatureFor(order.OrderID, "pay_2"),
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, dto.RegistrationPaid, resp.Error.Code)

		reg, err := f.repo.GetRegistrationByID(context.Background(), order.RegistrationID)
		require.NoError(t, err)
		assert.Equal(t, "pay_1", reg.PaymentID, "first confirmation must be preserved")
	})

	t.Run("unknown order yields 404", func(t *testing.T) {
		f := newFixture(t)
		f.seedEvent(t, 5, 10, true)

		rr, _ := f.do(t, http.MethodPost, "/v1/payments/verify", 7, map[string]string{
			"order_id":   "order_unknown",
			"payment_id": "pay_1",
			"signature":  signatureFor("order_unknown", "pay_1"),
		})
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("someone else's order yields 404", func(t *testing.T) {
		f := newFixture(t)
		eventID := f.seedEvent(t, 5, 10, true)
		order := register(t, f, eventID, 7)

		rr, _ := f.do(t, http.MethodPost, "/v1/payments/verify", 8, map[string]string{
			"order_id":   order.OrderID,
			"payment_id": "pay_1",
			"signature":  signatureFor(order.OrderID, "pay_1"),
		})
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestRegisterDuplicateAndResume(t *testing.T) {
	f := newFixture(t)
	eventID := f.seedEvent(t, 5, 10, true)

	rr, resp := f.do(t, http.MethodPost, fmt.Sprintf("/v1/events/%d/register", eventID), 7, registerBody(2))
	require.Equal(t, http.StatusCreated, rr.Code)
	first := orderFromData(t, resp)

	t.Run("pending registration is resumed with a fresh order", func(t *testing.T) {
		rr, resp := f.do(t, http.MethodPost, fmt.Sprintf("/v1/events/%d/register", eventID), 7, registerBody(2))
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		resumed := orderFromData(t, resp)

		assert.Equal(t, first.RegistrationID, resumed.RegistrationID)
		assert.NotEqual(t, first.OrderID, resumed.OrderID)
		assert.Equal(t, first.Amount, resumed.Amount, "amount comes from stored participants")
	})

	t.Run("paid registration cannot be duplicated", func(t *testing.T) {
		reg, err := f.repo.GetRegistrationByID(context.Background(), first.RegistrationID)
		require.NoError(t, err)
		_, _ = f.do(t, http.MethodPost, "/v1/payments/verify", 7, map[string]string{
			"order_id":   reg.OrderID,
			"payment_id": "pay_1",
			"signature":  signatureFor(reg.OrderID, "pay_1"),
		})

		rr, resp := f.do(t, http.MethodPost, fmt.Sprintf("/v1/events/%d/register", eventID), 7, registerBody(2))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, dto.RegistrationDuplicate, resp.Error.Code)
	})
}

func TestRegisterGatewayFailure(t *testing.T) {
	f := newFixture(t)
	eventID := f.seedEvent(t, 5, 10, true)
	f.gateway.failing = true

	rr, resp := f.do(t, http.MethodPost, fmt.Sprintf("/v1/events/%d/register", eventID), 7, registerBody(1))
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Equal(t, dto.GatewayFailed, resp.Error.Code)
	assert.Len(t, f.queue.published, 1, "expiry still scheduled for the pending registration")

	reg, err := f.repo.GetRegistrationByEventAndUser(context.Background(), eventID, 7)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPending, reg.PaymentStatus)
	assert.Empty(t, reg.OrderID)

	t.Run("registration can be resumed once the gateway recovers", func(t *testing.T) {
		f.gateway.failing = false
		rr, resp := f.do(t, http.MethodPost, fmt.Sprintf("/v1/events/%d/register", eventID), 7, registerBody(1))
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		order := orderFromData(t, resp)
		assert.Equal(t, reg.ID, order.RegistrationID)
	})
}

func TestRegisterEventFull(t *testing.T) {
	f := newFixture(t)
	eventID := f.seedEvent(t, 5, 1, true)

	rr, _ := f.do(t, http.MethodPost, fmt.Sprintf("/v1/events/%d/register", eventID), 7, registerBody(1))
	require.Equal(t, http.StatusCreated, rr.Code)

	rr, _ = f.do(t, http.MethodPost, fmt.Sprintf("/v1/events/%d/register", eventID), 8, registerBody(1))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRegisterStorageFailure(t *testing.T) {
	f := newFixture(t)
	eventID := f.seedEvent(t, 5, 10, true)
	f.repo.regFailure = errors.New("connection reset")

	rr, resp := f.do(t, http.MethodPost, fmt.Sprintf("/v1/events/%d/register", eventID), 7, registerBody(1))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, dto.ServiceUnavailable, resp.Error.Code)
}

func TestMyRegistrations(t *testing.T) {
	f := newFixture(t)
	firstEvent := f.seedEvent(t, 5, 10, true)
	secondEvent := f.seedEvent(t, 10, 10, true)

	rr, _ := f.do(t, http.MethodPost, fmt.Sprintf("/v1/events/%d/register", firstEvent), 7, registerBody(1))
	require.Equal(t, http.StatusCreated, rr.Code)
	rr, _ = f.do(t, http.MethodPost, fmt.Sprintf("/v1/events/%d/register", secondEvent), 7, registerBody(2))
	require.Equal(t, http.StatusCreated, rr.Code)

	rr, resp := f.do(t, http.MethodGet, "/v1/registrations", 7, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var regs []dto.RegistrationResponse
	require.NoError(t, json.Unmarshal(raw, &regs))

	require.Len(t, regs, 2)
	assert.Equal(t, secondEvent, regs[0].EventID, "newest first")
	assert.Equal(t, firstEvent, regs[1].EventID)
}
