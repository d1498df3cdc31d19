// AngelaMos | 2026
// events_test.go

package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	subject string
	data    []byte
}

type fakeConn struct {
	msgs []published
	err  error
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, published{subject, data})
	return nil
}

func TestPublishWrapsPayloadInEnvelope(t *testing.T) {
	fc := &fakeConn{}
	n := newNATS(fc, "etudiantesolidaire", nil)
	fixed := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return fixed }

	err := n.Publish(context.Background(), RdvReserved, BookingEvent{
		BookingID: "b1",
		DateRdv:   "2025-06-01",
		HeureRdv:  "09:00",
		Statut:    "pending",
	})
	require.NoError(t, err)
	require.Len(t, fc.msgs, 1)
	assert.Equal(t, "etudiantesolidaire.rdv.reserved", fc.msgs[0].subject)

	var env Envelope
	require.NoError(t, json.Unmarshal(fc.msgs[0].data, &env))
	assert.NotEmpty(t, env.ID)
	assert.Equal(t, "etudiantesolidaire.rdv.reserved", env.Subject)
	assert.True(t, env.OccurredAt.Equal(fixed))

	var ev BookingEvent
	require.NoError(t, json.Unmarshal(env.Data, &ev))
	assert.Equal(t, "b1", ev.BookingID)
	assert.Equal(t, "09:00", ev.HeureRdv)
}

func TestPublishReturnsConnError(t *testing.T) {
	n := newNATS(&fakeConn{err: errors.New("nats down")}, "", nil)

	err := n.Publish(context.Background(), RdvCancelled, BookingEvent{BookingID: "b1"})
	assert.ErrorContains(t, err, "publish rdv.cancelled")
}

func TestSubjectWithoutPrefix(t *testing.T) {
	n := newNATS(&fakeConn{}, "", nil)
	assert.Equal(t, RdvStatusChanged, n.Subject(RdvStatusChanged))
}

func TestNoop(t *testing.T) {
	var p Publisher = Noop{}
	assert.NoError(t, p.Publish(context.Background(), RdvReserved, nil))
	assert.NoError(t, p.Close())
}
