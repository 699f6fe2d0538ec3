package natsbus

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/agencia-leads-api/internal/application/ports"
	"github.com/jhoicas/agencia-leads-api/internal/domain/entity"
)

type recorder struct {
	msgs []*nats.Msg
	err  error
}

func (r *recorder) PublishMsg(m *nats.Msg) error {
	if r.err != nil {
		return r.err
	}
	r.msgs = append(r.msgs, m)
	return nil
}

func TestNotifier_PublicaPorTipo(t *testing.T) {
	rec := &recorder{}
	agent := "a0000000-0000-4000-8000-0000000000a1"
	e := ports.LeadEvent{
		Type:       ports.EventLeadAssigned,
		TenantID:   "t1",
		Lead:       entity.Lead{ID: "l1", FirstName: "Jan", Email: "jan@acme.pl", AssignedTo: &agent},
		OccurredAt: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, NewNotifier(rec, "leads").Notify(context.Background(), e))
	require.Len(t, rec.msgs, 1)

	msg := rec.msgs[0]
	assert.Equal(t, "leads.lead.assigned", msg.Subject)
	assert.Equal(t, "lead.assigned:l1:2026-05-01T10:00:00Z", msg.Header.Get(nats.MsgIdHdr))

	var body EventMessage
	require.NoError(t, json.Unmarshal(msg.Data, &body))
	assert.Equal(t, agent, body.AssignedTo)
	assert.Equal(t, "Jan", body.FullName)
}

// jsRecorder fake de JetStream: guarda lo publicado y responde con ack o error.
type jsRecorder struct {
	msgs    []*nats.Msg
	err     error
	noAck   bool
	withCtx bool
}

func (r *jsRecorder) PublishMsg(m *nats.Msg, opts ...nats.PubOpt) (*nats.PubAck, error) {
	r.withCtx = len(opts) > 0
	if r.err != nil {
		return nil, r.err
	}
	r.msgs = append(r.msgs, m)
	if r.noAck {
		return &nats.PubAck{}, nil
	}
	return &nats.PubAck{Stream: "LEADS_INTAKE", Sequence: uint64(len(r.msgs))}, nil
}

func TestLedger_Record(t *testing.T) {
	js := &jsRecorder{}
	err := NewLedger(js, "leads").Record(context.Background(), ports.IntakeRecord{
		TrackingID: "trk-9", Payload: map[string]any{"email": "jan@acme.pl"}, Reason: "store down",
	})
	require.NoError(t, err)
	require.Len(t, js.msgs, 1)
	assert.True(t, js.withCtx, "la publicación espera el ack con timeout")
	assert.Equal(t, "leads.intake.fallback", js.msgs[0].Subject)
	assert.Equal(t, "trk-9", js.msgs[0].Header.Get(nats.MsgIdHdr))
	assert.Contains(t, string(js.msgs[0].Data), `"reason":"store down"`)
}

// Sin ack del stream el registro no cuenta como guardado.
func TestLedger_SinAckEsError(t *testing.T) {
	err := NewLedger(&jsRecorder{err: nats.ErrNoStreamResponse}, "leads").
		Record(context.Background(), ports.IntakeRecord{TrackingID: "x"})
	assert.ErrorIs(t, err, nats.ErrNoStreamResponse)
	assert.ErrorContains(t, err, "leads.intake.fallback")

	err = NewLedger(&jsRecorder{noAck: true}, "leads").
		Record(context.Background(), ports.IntakeRecord{TrackingID: "y"})
	assert.ErrorContains(t, err, "ack vacío")
}

func TestLedger_ErrorDePublicacion(t *testing.T) {
	js := &jsRecorder{err: errors.New("nats: connection closed")}
	err := NewLedger(js, "leads").Record(context.Background(), ports.IntakeRecord{TrackingID: "x"})
	assert.ErrorContains(t, err, "leads.intake.fallback")
}

func TestLedger_ContextoCancelado(t *testing.T) {
	js := &jsRecorder{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewLedger(js, "leads").Record(ctx, ports.IntakeRecord{TrackingID: "x"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, js.msgs)
}

// streams fake de administración de streams.
type streams struct {
	existing map[string]bool
	infoErr  error
	added    []*nats.StreamConfig
}

func (s *streams) StreamInfo(name string, _ ...nats.JSOpt) (*nats.StreamInfo, error) {
	if s.infoErr != nil {
		return nil, s.infoErr
	}
	if s.existing[name] {
		return &nats.StreamInfo{Config: nats.StreamConfig{Name: name}}, nil
	}
	return nil, nats.ErrStreamNotFound
}

func (s *streams) AddStream(cfg *nats.StreamConfig, _ ...nats.JSOpt) (*nats.StreamInfo, error) {
	s.added = append(s.added, cfg)
	return &nats.StreamInfo{Config: *cfg}, nil
}

func TestEnsureIntakeStream(t *testing.T) {
	t.Run("crea si no existe", func(t *testing.T) {
		s := &streams{}
		require.NoError(t, EnsureIntakeStream(s, "LEADS_INTAKE", "leads", 30*24*time.Hour))
		require.Len(t, s.added, 1)
		cfg := s.added[0]
		assert.Equal(t, "LEADS_INTAKE", cfg.Name)
		assert.Equal(t, []string{"leads.intake.>"}, cfg.Subjects)
		assert.Equal(t, nats.FileStorage, cfg.Storage)
		assert.Equal(t, 30*24*time.Hour, cfg.MaxAge)
	})
	t.Run("existente no se toca", func(t *testing.T) {
		s := &streams{existing: map[string]bool{"LEADS_INTAKE": true}}
		require.NoError(t, EnsureIntakeStream(s, "LEADS_INTAKE", "leads", time.Hour))
		assert.Empty(t, s.added)
	})
	t.Run("jetstream no disponible", func(t *testing.T) {
		s := &streams{infoErr: nats.ErrJetStreamNotEnabled}
		err := EnsureIntakeStream(s, "LEADS_INTAKE", "leads", time.Hour)
		assert.ErrorIs(t, err, nats.ErrJetStreamNotEnabled)
		assert.Empty(t, s.added)
	})
}
