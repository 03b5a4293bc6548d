package consumerWorker

import (
	"context"
	"encoding/json"

	"github.com/wb-go/wbf/zlog"

	"campusevents/internal/dto"
	"campusevents/internal/model"
	"campusevents/internal/repo"
)

// Consumer is the slice of the rabbit client the reader uses.
type Consumer interface {
	Consume(handler func([]byte) error) error
}

// Notifier sends registration e-mails; failures are logged, never fatal.
type Notifier interface {
	SendRegistrationEmail(eventName, status, recipientEmail string, timeoutMinutes int) error
}

// Reader consumes delayed expiry messages and reaps registrations that are
// still unpaid when the payment window closes. Messages for registrations
// that were paid in the meantime are acknowledged without changes.
type Reader struct {
	RMQ    Consumer
	repo   repo.Repository
	mailer Notifier
	done   chan struct{}
	cancel context.CancelFunc
}

func NewReader(rmq Consumer, repo repo.Repository, mailer Notifier) *Reader {
	return &Reader{
		RMQ:    rmq,
		repo:   repo,
		mailer: mailer,
		done:   make(chan struct{}),
	}
}

func (r *Reader) Start(ctx context.Context) {
	cctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	zlog.Logger.Info().Msg("Registration expiry reader started")

	go func() {
		defer close(r.done)

		if err := r.RMQ.Consume(r.handleMessage(cctx)); err != nil {
			zlog.Logger.Error().Err(err).Msg("Failed to start consuming")
			return
		}

		<-cctx.Done()
		zlog.Logger.Info().Msg("Registration expiry reader stopped by context")
	}()
}

func (r *Reader) handleMessage(ctx context.Context) func([]byte) error {
	return func(body []byte) error {
		var msg dto.RegistrationExpireMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			// Returning an error would requeue the message and poison the
			// queue; a body that never parses is dropped after logging.
			zlog.Logger.Error().
				Err(err).
				Msgf("Dropping unparsable message: %s", string(body))
			return nil
		}

		zlog.Logger.Info().
			Int64("registration_id", msg.RegistrationID).
			Int64("event_id", msg.EventID).
			Msg("Payment window closed, checking registration")

		expired, err := r.repo.ExpireIfUnpaidTx(ctx, msg.RegistrationID)
		if err != nil {
			zlog.Logger.Error().
				Err(err).
				Int64("registration_id", msg.RegistrationID).
				Msg("Failed to expire registration")
			return err
		}

		if !expired {
			zlog.Logger.Info().
				Int64("registration_id", msg.RegistrationID).
				Msg("Registration already paid or expired, nothing to do")
			return nil
		}

		reg, err := r.repo.GetRegistrationByID(ctx, msg.RegistrationID)
		if err != nil {
			zlog.Logger.Error().
				Err(err).
				Int64("registration_id", msg.RegistrationID).
				Msg("Failed to get registration from DB in worker")
			return nil
		}

		event, err := r.repo.GetEventByID(ctx, reg.EventID)
		if err != nil {
			zlog.Logger.Error().
				Err(err).
				Int64("event_id", reg.EventID).
				Msg("Failed to get event from DB in worker")
			return nil
		}

		if len(reg.Participants) == 0 {
			return nil
		}

		if err := r.mailer.SendRegistrationEmail(
			event.Name,
			model.PaymentExpired,
			reg.Participants[0].Email,
			0,
		); err != nil {
			zlog.Logger.Warn().
				Err(err).
				Msg("Failed to send expiry notification email")
		}

		return nil
	}
}

func (r *Reader) Stop() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}
