package consumerWorker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusevents/internal/dto"
	"campusevents/internal/model"
	"campusevents/internal/repo"
)

type fakeLedger struct {
	repo.Repository
	regs   map[int64]*model.Registration
	events map[int64]*model.Event
}

func (f *fakeLedger) ExpireIfUnpaidTx(_ context.Context, id int64) (bool, error) {
	r, ok := f.regs[id]
	if !ok {
		return false, repo.ErrRegistrationNotFound
	}
	if r.PaymentStatus != model.PaymentPending {
		return false, nil
	}
	r.PaymentStatus = model.PaymentExpired
	return true, nil
}

func (f *fakeLedger) GetRegistrationByID(_ context.Context, id int64) (*model.Registration, error) {
	r, ok := f.regs[id]
	if !ok {
		return nil, repo.ErrRegistrationNotFound
	}
	return r, nil
}

func (f *fakeLedger) GetEventByID(_ context.Context, id int64) (*model.Event, error) {
	e, ok := f.events[id]
	if !ok {
		return nil, repo.ErrEventNotFound
	}
	return e, nil
}

type fakeNotifier struct {
	sent []string
}

func (n *fakeNotifier) SendRegistrationEmail(_, status, recipient string, _ int) error {
	n.sent = append(n.sent, status+":"+recipient)
	return nil
}

func expiryMessage(t *testing.T, regID, eventID int64) []byte {
	t.Helper()
	body, err := json.Marshal(dto.RegistrationExpireMessage{
		RegistrationID: regID,
		EventID:        eventID,
		ExpireAt:       time.Now(),
	})
	require.NoError(t, err)
	return body
}

func TestExpiryHandler(t *testing.T) {
	newLedger := func(status string) *fakeLedger {
		return &fakeLedger{
			regs: map[int64]*model.Registration{
				1: {
					ID:            1,
					EventID:       10,
					UserID:        7,
					PaymentStatus: status,
					Participants: []model.Participant{
						{Name: "Student", Email: "student@college.edu"},
					},
				},
			},
			events: map[int64]*model.Event{
				10: {ID: 10, Name: "TechFest"},
			},
		}
	}

	t.Run("pending registration is expired and registrant notified", func(t *testing.T) {
		ledger := newLedger(model.PaymentPending)
		notifier := &fakeNotifier{}
		reader := NewReader(nil, ledger, notifier)

		handler := reader.handleMessage(context.Background())
		require.NoError(t, handler(expiryMessage(t, 1, 10)))

		assert.Equal(t, model.PaymentExpired, ledger.regs[1].PaymentStatus)
		assert.Equal(t, []string{model.PaymentExpired + ":student@college.edu"}, notifier.sent)
	})

	t.Run("paid registration is left alone", func(t *testing.T) {
		ledger := newLedger(model.PaymentPaid)
		notifier := &fakeNotifier{}
		reader := NewReader(nil, ledger, notifier)

		handler := reader.handleMessage(context.Background())
		require.NoError(t, handler(expiryMessage(t, 1, 10)))

		assert.Equal(t, model.PaymentPaid, ledger.regs[1].PaymentStatus)
		assert.Empty(t, notifier.sent)
	})

	t.Run("malformed message is dropped, not requeued", func(t *testing.T) {
		ledger := newLedger(model.PaymentPending)
		notifier := &fakeNotifier{}
		reader := NewReader(nil, ledger, notifier)

		handler := reader.handleMessage(context.Background())
		assert.NoError(t, handler([]byte("not json")), "an error would redeliver the message forever")

		assert.Equal(t, model.PaymentPending, ledger.regs[1].PaymentStatus)
		assert.Empty(t, notifier.sent)
	})
}
