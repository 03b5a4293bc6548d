package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"

	"campusevents/internal/dto"
	"campusevents/internal/model"
	"campusevents/internal/payment"
	"campusevents/internal/repo"
	"campusevents/pkg/validator"
)

// userIDKey is set by the identity middleware from the X-User-ID header.
const userIDKey = "user_id"

type Service interface {
	CreateEvent(ctx *ginext.Context)
	GetAllEvents(ctx *ginext.Context)
	GetInfo(ctx *ginext.Context)
	Register(ctx *ginext.Context)
	VerifyPayment(ctx *ginext.Context)
	MyRegistrations(ctx *ginext.Context)
}

// Gateway is the payment adapter surface the service needs.
type Gateway interface {
	CreateOrder(amountPaise int64, receipt string) (*payment.Order, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

// Publisher queues a message for delivery after the given delay.
type Publisher interface {
	Publish(message []byte, delaySeconds int) error
}

// Notifier sends registration e-mails; failures are logged, never fatal.
type Notifier interface {
	SendRegistrationEmail(eventName, status, recipientEmail string, timeoutMinutes int) error
}

type service struct {
	repo    repo.Repository
	log     *zerolog.Logger
	gateway Gateway
	rbt     Publisher
	mailer  Notifier
}

func NewService(repo repo.Repository, logger *zerolog.Logger, gateway Gateway, rbt Publisher, mailer Notifier) Service {
	return &service{
		repo:    repo,
		log:     logger,
		gateway: gateway,
		rbt:     rbt,
		mailer:  mailer,
	}
}

func currentUser(ctx *ginext.Context) (int64, bool) {
	v, ok := ctx.Get(userIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

func (s *service) CreateEvent(ctx *ginext.Context) {
	var req dto.CreateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		s.log.Error().Err(err).Msg("failed to parse create event request")
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		s.log.Error().Msgf("validation failed: %v", verr)
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	event := &model.Event{
		Name:                  req.Name,
		Description:           req.Description,
		StartTime:             req.StartTime,
		EndTime:               req.EndTime,
		Venue:                 req.Venue,
		Department:            req.Department,
		ContactInfo:           req.ContactInfo,
		RegFee:                req.RegFee,
		Capacity:              req.Capacity,
		PaymentTimeoutMinutes: req.PaymentTimeoutMinutes,
		CreatedAt:             time.Now(),
		UpdatedAt:             time.Now(),
	}

	id, err := s.repo.CreateEvent(ctx.Request.Context(), event)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to create event in DB")
		dto.InternalServerError(ctx)
		return
	}

	event.ID = id
	s.log.Info().Int64("event_id", id).Msg("event created successfully")

	dto.SuccessCreatedResponse(ctx, dto.EventResponse{
		ID:                    event.ID,
		Name:                  event.Name,
		Description:           event.Description,
		StartTime:             event.StartTime,
		EndTime:               event.EndTime,
		Venue:                 event.Venue,
		Department:            event.Department,
		ContactInfo:           event.ContactInfo,
		RegFee:                event.RegFee,
		Capacity:              event.Capacity,
		PaymentTimeoutMinutes: event.PaymentTimeoutMinutes,
		Approved:              event.Approved,
		CreatedAt:             event.CreatedAt,
	})
}

func (s *service) GetAllEvents(ctx *ginext.Context) {
	events, err := s.repo.GetApprovedEvents(ctx.Request.Context())
	if err != nil {
		dto.InternalServerError(ctx)
		return
	}

	resp := make([]dto.EventInfoResponse, 0, len(events))
	for _, e := range events {
		count, err := s.repo.CountActiveRegistrations(ctx.Request.Context(), e.ID)
		if err != nil {
			s.log.Error().Err(err).Msg("failed to count registrations for event")
			dto.InternalServerError(ctx)
			return
		}
		resp = append(resp, eventInfo(&e, count))
	}

	dto.SuccessResponse(ctx, resp)
}

func (s *service) GetInfo(ctx *ginext.Context) {
	eventID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid event ID")
		return
	}

	event, err := s.repo.GetEventByID(ctx.Request.Context(), eventID)
	if err != nil {
		dto.EventNotFoundError(ctx)
		return
	}

	count, err := s.repo.CountActiveRegistrations(ctx.Request.Context(), eventID)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to count registrations")
		dto.InternalServerError(ctx)
		return
	}

	dto.SuccessResponse(ctx, eventInfo(event, count))
}

func eventInfo(e *model.Event, activeCount int) dto.EventInfoResponse {
	return dto.EventInfoResponse{
		EventResponse: dto.EventResponse{
			ID:                    e.ID,
			Name:                  e.Name,
			Description:           e.Description,
			StartTime:             e.StartTime,
			EndTime:               e.EndTime,
			Venue:                 e.Venue,
			Department:            e.Department,
			ContactInfo:           e.ContactInfo,
			RegFee:                e.RegFee,
			Capacity:              e.Capacity,
			PaymentTimeoutMinutes: e.PaymentTimeoutMinutes,
			Approved:              e.Approved,
			CreatedAt:             e.CreatedAt,
		},
		SeatsLeft: e.Capacity - activeCount,
		UpdatedAt: e.UpdatedAt,
	}
}

// Register handles the register -> create-order flow. A pending registration
// for the same (event, user) pair is resumed with a fresh order instead of
// being duplicated, so an abandoned payment page does not lock the user out.
func (s *service) Register(ctx *ginext.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		dto.UnauthorizedError(ctx)
		return
	}

	eventID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid event ID")
		return
	}

	var req dto.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	event, err := s.repo.GetEventByID(ctx.Request.Context(), eventID)
	if err != nil {
		dto.EventNotFoundError(ctx)
		return
	}

	existing, err := s.repo.GetRegistrationByEventAndUser(ctx.Request.Context(), eventID, userID)
	if err != nil && !errors.Is(err, repo.ErrRegistrationNotFound) {
		s.log.Error().Err(err).Msg("failed to check existing registration")
		dto.InternalServerError(ctx)
		return
	}

	if existing != nil {
		if existing.PaymentStatus == model.PaymentPaid {
			dto.RegistrationDuplicateError(ctx)
			return
		}
		s.resumePendingRegistration(ctx, event, existing)
		return
	}

	participants := make([]model.Participant, 0, len(req.Participants))
	for _, p := range req.Participants {
		participants = append(participants, p.ToModel())
	}

	registration := &model.Registration{
		EventID:      eventID,
		UserID:       userID,
		Participants: participants,
	}

	regID, timeout, err := s.repo.RegisterTx(ctx.Request.Context(), registration)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrEventNotFound):
			dto.EventNotFoundError(ctx)
		case errors.Is(err, repo.ErrEventNotApproved):
			dto.EventNotApprovedError(ctx)
		case errors.Is(err, repo.ErrEventFull):
			dto.BadResponseError(ctx, dto.FieldIncorrect, "Event is full")
		case errors.Is(err, repo.ErrDuplicateRegistration):
			dto.RegistrationDuplicateError(ctx)
		default:
			s.log.Error().Err(err).Msg("failed to create registration")
			dto.InternalServerError(ctx)
		}
		return
	}

	s.log.Info().Int64("registration_id", regID).Msg("registration created successfully")

	// Scheduled before the order call so a gateway failure cannot leave a
	// pending registration that never expires.
	s.scheduleExpiry(regID, eventID, timeout)

	amount := payment.AmountPaise(event.RegFee, len(participants))
	order, err := s.gateway.CreateOrder(amount, payment.NewReceipt())
	if err != nil {
		// Registration stays pending without an order; re-registering
		// resumes it and creates a new order.
		s.log.Error().Err(err).Int64("registration_id", regID).Msg("order creation failed")
		dto.GatewayError(ctx)
		return
	}

	if err := s.repo.AttachOrder(ctx.Request.Context(), regID, order.ID); err != nil {
		s.log.Error().Err(err).Int64("registration_id", regID).Msg("failed to attach order")
		dto.InternalServerError(ctx)
		return
	}

	if len(participants) > 0 {
		if err := s.mailer.SendRegistrationEmail(event.Name, model.PaymentPending, participants[0].Email, timeout); err != nil {
			s.log.Warn().Err(err).Msg("failed to send pending registration email")
		}
	}

	dto.SuccessCreatedResponse(ctx, dto.OrderResponse{
		RegistrationID: regID,
		OrderID:        order.ID,
		Amount:         order.Amount,
		Currency:       order.Currency,
	})
}

func (s *service) resumePendingRegistration(ctx *ginext.Context, event *model.Event, reg *model.Registration) {
	amount := payment.AmountPaise(event.RegFee, len(reg.Participants))
	order, err := s.gateway.CreateOrder(amount, payment.NewReceipt())
	if err != nil {
		s.log.Error().Err(err).Int64("registration_id", reg.ID).Msg("order creation failed on resume")
		dto.GatewayError(ctx)
		return
	}

	if err := s.repo.AttachOrder(ctx.Request.Context(), reg.ID, order.ID); err != nil {
		s.log.Error().Err(err).Int64("registration_id", reg.ID).Msg("failed to attach order on resume")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().
		Int64("registration_id", reg.ID).
		Str("order_id", order.ID).
		Msg("pending registration resumed with a new order")

	dto.SuccessResponse(ctx, dto.OrderResponse{
		RegistrationID: reg.ID,
		OrderID:        order.ID,
		Amount:         order.Amount,
		Currency:       order.Currency,
	})
}

func (s *service) scheduleExpiry(registrationID, eventID int64, timeoutMinutes int) {
	msg := dto.RegistrationExpireMessage{
		RegistrationID: registrationID,
		EventID:        eventID,
		ExpireAt:       time.Now().Add(time.Duration(timeoutMinutes) * time.Minute),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to marshal expiry message")
		return
	}
	if err := s.rbt.Publish(payload, timeoutMinutes*60); err != nil {
		s.log.Error().Err(err).Msg("failed to publish expiry message to RabbitMQ")
	}
}

// VerifyPayment reconciles a client-reported payment confirmation. The
// signature check is the only gate between "user claims paid" and "ledger
// records paid"; the registration is located by the order id stored on it.
func (s *service) VerifyPayment(ctx *ginext.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		dto.UnauthorizedError(ctx)
		return
	}

	var req dto.VerifyPaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	reg, err := s.repo.GetRegistrationByOrderID(ctx.Request.Context(), req.OrderID)
	if err != nil {
		if errors.Is(err, repo.ErrRegistrationNotFound) {
			dto.RegistrationNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to look up registration by order")
		dto.InternalServerError(ctx)
		return
	}

	if reg.UserID != userID {
		dto.RegistrationNotFoundError(ctx)
		return
	}

	if !s.gateway.VerifySignature(req.OrderID, req.PaymentID, req.Signature) {
		s.log.Warn().
			Int64("registration_id", reg.ID).
			Str("order_id", req.OrderID).
			Msg("payment signature mismatch, registration stays pending")
		dto.PaymentRejectedError(ctx)
		return
	}

	updated, err := s.repo.MarkPaidTx(ctx.Request.Context(), reg.ID, req.PaymentID, req.Signature)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrAlreadyPaid):
			dto.RegistrationPaidError(ctx)
		case errors.Is(err, repo.ErrRegistrationExpired):
			dto.RegistrationExpiredError(ctx)
		case errors.Is(err, repo.ErrRegistrationNotFound):
			dto.RegistrationNotFoundError(ctx)
		default:
			s.log.Error().Err(err).Msg("failed to mark registration paid")
			dto.InternalServerError(ctx)
		}
		return
	}

	s.log.Info().
		Int64("registration_id", updated.ID).
		Str("payment_id", req.PaymentID).
		Msg("payment verified, registration paid")

	if event, err := s.repo.GetEventByID(ctx.Request.Context(), updated.EventID); err == nil && len(updated.Participants) > 0 {
		if err := s.mailer.SendRegistrationEmail(event.Name, model.PaymentPaid, updated.Participants[0].Email, 0); err != nil {
			s.log.Warn().Err(err).Msg("failed to send payment confirmation email")
		}
	}

	dto.SuccessResponse(ctx, dto.NewRegistrationResponse(updated))
}

func (s *service) MyRegistrations(ctx *ginext.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		dto.UnauthorizedError(ctx)
		return
	}

	regs, err := s.repo.GetRegistrationsByUser(ctx.Request.Context(), userID)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list registrations")
		dto.InternalServerError(ctx)
		return
	}

	resp := make([]dto.RegistrationResponse, 0, len(regs))
	for i := range regs {
		resp = append(resp, dto.NewRegistrationResponse(&regs[i]))
	}

	dto.SuccessResponse(ctx, resp)
}
