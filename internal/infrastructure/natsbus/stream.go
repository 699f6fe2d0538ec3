package natsbus

import (
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// streamManager subconjunto de nats.JetStreamContext para administrar streams.
type streamManager interface {
	StreamInfo(stream string, opts ...nats.JSOpt) (*nats.StreamInfo, error)
	AddStream(cfg *nats.StreamConfig, opts ...nats.JSOpt) (*nats.StreamInfo, error)
}

// IntakeSubjects subjects del sink de respaldo bajo prefix.
func IntakeSubjects(prefix string) string { return prefix + ".intake.>" }

// EnsureIntakeStream crea, si no existe, el stream en disco que guarda el sink de respaldo.
// Un stream ya existente no se modifica.
func EnsureIntakeStream(js streamManager, name, prefix string, maxAge time.Duration) error {
	_, err := js.StreamInfo(name)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return fmt.Errorf("nats: consultar stream %s: %w", name, err)
	}
	_, err = js.AddStream(&nats.StreamConfig{
		Name:       name,
		Subjects:   []string{IntakeSubjects(prefix)},
		Storage:    nats.FileStorage,
		Retention:  nats.LimitsPolicy,
		MaxAge:     maxAge,
		Duplicates: 2 * time.Minute,
	})
	if err != nil {
		return fmt.Errorf("nats: crear stream %s: %w", name, err)
	}
	return nil
}
