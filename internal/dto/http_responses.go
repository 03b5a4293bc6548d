package dto

import (
	"strings"
	"time"

	"github.com/wb-go/wbf/ginext"

	"campusevents/internal/model"
)

const (
	FieldBadFormat     = "FIELD_BADFORMAT"
	FieldIncorrect     = "FIELD_INCORRECT"
	ServiceUnavailable = "SERVICE_UNAVAILABLE"
	InternalError      = "Service is currently unavailable. Please try again later."

	EventNotFound         = "EVENT_NOT_FOUND"
	EventNotApproved      = "EVENT_NOT_APPROVED"
	RegistrationNotFound  = "REGISTRATION_NOT_FOUND"
	RegistrationDuplicate = "REGISTRATION_DUPLICATE"
	RegistrationPaid      = "REGISTRATION_ALREADY_PAID"
	RegistrationExpired   = "REGISTRATION_EXPIRED"
	PaymentRejected       = "PAYMENT_VERIFICATION_FAILED"
	GatewayFailed         = "PAYMENT_GATEWAY_UNAVAILABLE"
	AuthRequired          = "AUTH_REQUIRED"
)

type ParticipantPayload struct {
	Name      string `json:"name" validate:"required,min=2,max=255"`
	Email     string `json:"email" validate:"required,email"`
	Mobile    string `json:"mobile" validate:"required,mobile"`
	AltMobile string `json:"alt_mobile,omitempty"`
	College   string `json:"college" validate:"required,max=255"`
	Branch    string `json:"branch" validate:"required,max=255"`
	Semester  string `json:"semester" validate:"required,max=32"`
}

// ToModel trims every field; the alternate mobile defaults to empty.
func (p ParticipantPayload) ToModel() model.Participant {
	return model.Participant{
		Name:      strings.TrimSpace(p.Name),
		Email:     strings.TrimSpace(p.Email),
		Mobile:    strings.TrimSpace(p.Mobile),
		AltMobile: strings.TrimSpace(p.AltMobile),
		College:   strings.TrimSpace(p.College),
		Branch:    strings.TrimSpace(p.Branch),
		Semester:  strings.TrimSpace(p.Semester),
	}
}

type RegisterRequest struct {
	Participants []ParticipantPayload `json:"participants" validate:"required,min=1,dive"`
}

type VerifyPaymentRequest struct {
	OrderID   string `json:"order_id" validate:"required"`
	PaymentID string `json:"payment_id" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}

type CreateEventRequest struct {
	Name                  string    `json:"name" validate:"required,max=255"`
	Description           string    `json:"description"`
	StartTime             time.Time `json:"start_time" validate:"required"`
	EndTime               time.Time `json:"end_time"`
	Venue                 string    `json:"venue" validate:"required,max=255"`
	Department            string    `json:"department"`
	ContactInfo           string    `json:"contact_info"`
	RegFee                int64     `json:"reg_fee" validate:"gte=0"`
	Capacity              int       `json:"capacity" validate:"gt=0"`
	PaymentTimeoutMinutes int       `json:"payment_timeout_minutes" validate:"gte=1"`
}

type OrderResponse struct {
	RegistrationID int64  `json:"registration_id"`
	OrderID        string `json:"order_id"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
}

type ParticipantResponse struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Mobile    string `json:"mobile"`
	AltMobile string `json:"alt_mobile,omitempty"`
	College   string `json:"college"`
	Branch    string `json:"branch"`
	Semester  string `json:"semester"`
}

type RegistrationResponse struct {
	ID            int64                 `json:"id"`
	EventID       int64                 `json:"event_id"`
	UserID        int64                 `json:"user_id"`
	OrderID       string                `json:"order_id,omitempty"`
	PaymentID     string                `json:"payment_id,omitempty"`
	PaymentStatus string                `json:"payment_status"`
	Participants  []ParticipantResponse `json:"participants"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

func NewRegistrationResponse(reg *model.Registration) RegistrationResponse {
	resp := RegistrationResponse{
		ID:            reg.ID,
		EventID:       reg.EventID,
		UserID:        reg.UserID,
		OrderID:       reg.OrderID,
		PaymentID:     reg.PaymentID,
		PaymentStatus: reg.PaymentStatus,
		CreatedAt:     reg.CreatedAt,
		UpdatedAt:     reg.UpdatedAt,
	}
	for _, p := range reg.Participants {
		resp.Participants = append(resp.Participants, ParticipantResponse{
			Name:      p.Name,
			Email:     p.Email,
			Mobile:    p.Mobile,
			AltMobile: p.AltMobile,
			College:   p.College,
			Branch:    p.Branch,
			Semester:  p.Semester,
		})
	}
	return resp
}

// RegistrationExpireMessage is the delayed RabbitMQ payload that reaps
// registrations left unpaid past the event's payment timeout.
type RegistrationExpireMessage struct {
	RegistrationID int64     `json:"registration_id"`
	EventID        int64     `json:"event_id"`
	ExpireAt       time.Time `json:"expire_at"`
}

type EventResponse struct {
	ID                    int64     `json:"id"`
	Name                  string    `json:"name"`
	Description           string    `json:"description"`
	StartTime             time.Time `json:"start_time"`
	EndTime               time.Time `json:"end_time"`
	Venue                 string    `json:"venue"`
	Department            string    `json:"department"`
	ContactInfo           string    `json:"contact_info"`
	RegFee                int64     `json:"reg_fee"`
	Capacity              int       `json:"capacity"`
	PaymentTimeoutMinutes int       `json:"payment_timeout_minutes"`
	Approved              bool      `json:"approved"`
	CreatedAt             time.Time `json:"created_at"`
}

type EventInfoResponse struct {
	EventResponse
	SeatsLeft int       `json:"seats_left"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Response struct {
	Status string `json:"status"`
	Error  *Error `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

type Error struct {
	Code string `json:"code"`
	Desc string `json:"desc"`
}

func BadResponseError(c *ginext.Context, code, desc string) {
	c.JSON(400, Response{
		Status: "error",
		Error: &Error{
			Code: code,
			Desc: desc,
		},
	})
}

func InternalServerError(c *ginext.Context) {
	c.JSON(500, Response{
		Status: "error",
		Error: &Error{
			Code: ServiceUnavailable,
			Desc: InternalError,
		},
	})
}

func EventNotFoundError(c *ginext.Context) {
	c.JSON(404, Response{
		Status: "error",
		Error:  &Error{Code: EventNotFound, Desc: "Event not found"},
	})
}

func EventNotApprovedError(c *ginext.Context) {
	BadResponseError(c, EventNotApproved, "Event is not open for registration")
}

func RegistrationNotFoundError(c *ginext.Context) {
	c.JSON(404, Response{
		Status: "error",
		Error:  &Error{Code: RegistrationNotFound, Desc: "Registration not found"},
	})
}

func RegistrationDuplicateError(c *ginext.Context) {
	BadResponseError(c, RegistrationDuplicate, "You have already registered for this event")
}

func RegistrationPaidError(c *ginext.Context) {
	BadResponseError(c, RegistrationPaid, "Registration is already paid; the new confirmation was ignored")
}

func RegistrationExpiredError(c *ginext.Context) {
	BadResponseError(c, RegistrationExpired, "Registration expired before payment; please register again")
}

func PaymentRejectedError(c *ginext.Context) {
	BadResponseError(c, PaymentRejected, "Payment verification failed")
}

func GatewayError(c *ginext.Context) {
	c.JSON(502, Response{
		Status: "error",
		Error:  &Error{Code: GatewayFailed, Desc: "Could not create payment order. Please try again."},
	})
}

func UnauthorizedError(c *ginext.Context) {
	c.AbortWithStatusJSON(401, Response{
		Status: "error",
		Error:  &Error{Code: AuthRequired, Desc: "Missing or invalid user identity"},
	})
}

func SuccessResponse(c *ginext.Context, data any) {
	c.JSON(200, Response{
		Status: "ok",
		Data:   data,
	})
}

func SuccessCreatedResponse(c *ginext.Context, data any) {
	c.JSON(201, Response{
		Status: "ok",
		Data:   data,
	})
}
