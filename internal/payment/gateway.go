package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"
	razorpay "github.com/razorpay/razorpay-go"
	"github.com/rs/zerolog"
)

var (
	ErrInvalidAmount = errors.New("order amount must be positive")
	ErrGateway       = errors.New("payment gateway request failed")
)

// orderAPI is the slice of the Razorpay SDK the gateway needs; tests
// substitute a fake.
type orderAPI interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

type Order struct {
	ID       string
	Amount   int64
	Currency string
	Receipt  string
}

// Gateway creates processor orders and verifies payment confirmations.
// The merchant secret never leaves this package.
type Gateway struct {
	orders   orderAPI
	secret   string
	currency string
	log      *zerolog.Logger
}

func NewGateway(keyID, secret, currency string, log *zerolog.Logger) *Gateway {
	client := razorpay.NewClient(keyID, secret)
	return &Gateway{
		orders:   client.Order,
		secret:   secret,
		currency: currency,
		log:      log,
	}
}

// AmountPaise computes the order amount in the processor's smallest currency
// unit: registration fee x 100 paise x participant count.
func AmountPaise(regFee int64, participantCount int) int64 {
	return regFee * 100 * int64(participantCount)
}

// NewReceipt returns a receipt token unique per creation attempt.
func NewReceipt() string {
	return "receipt_" + uuid.NewString()
}

// CreateOrder reserves a payable amount with the processor. Failures are not
// retried; the user has to re-initiate the payment.
func (g *Gateway) CreateOrder(amountPaise int64, receipt string) (*Order, error) {
	if amountPaise <= 0 {
		return nil, ErrInvalidAmount
	}

	data := map[string]interface{}{
		"amount":   amountPaise,
		"currency": g.currency,
		"receipt":  receipt,
	}

	resp, err := g.orders.Create(data, nil)
	if err != nil {
		g.log.Error().Err(err).Int64("amount", amountPaise).Msg("failed to create payment order")
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	orderID, ok := resp["id"].(string)
	if !ok || orderID == "" {
		return nil, fmt.Errorf("%w: order id missing in response", ErrGateway)
	}

	g.log.Info().Str("order_id", orderID).Int64("amount", amountPaise).Msg("payment order created")

	return &Order{
		ID:       orderID,
		Amount:   amountPaise,
		Currency: g.currency,
		Receipt:  receipt,
	}, nil
}

// VerifySignature checks that a client-reported payment confirmation really
// came from the processor: HMAC-SHA256 over "orderID|paymentID" keyed with
// the merchant secret, hex-encoded, compared in constant time. Amount and
// status fields reported by the client are never trusted, only this check.
func (g *Gateway) VerifySignature(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(g.secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
