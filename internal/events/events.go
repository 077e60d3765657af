// Package events publishes applied inventory changes to NATS.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/invmap/engine/internal/inventory"
	"github.com/invmap/engine/pkg/logger"
)

const SubjectPrefix = "inventory"

// Subject returns inventory.<ownerId>.<change>.
func Subject(ownerID uuid.UUID, t inventory.ChangeType) string {
	return SubjectPrefix + "." + ownerID.String() + "." + string(t)
}

// OwnerWildcard matches every change of one owner.
func OwnerWildcard(ownerID uuid.UUID) string {
	return SubjectPrefix + "." + ownerID.String() + ".>"
}

// Connect dials NATS with reconnects and zap-backed connection callbacks.
func Connect(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("inventory-engine"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			logger.L().Warn("nats error", zap.Error(err))
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.L().Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.L().Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
}

type Publisher struct {
	nc *nats.Conn
}

func NewPublisher(nc *nats.Conn) *Publisher { return &Publisher{nc: nc} }

// Publish sends c as JSON. Errors are logged; publishing never blocks a mutation.
func (p *Publisher) Publish(c inventory.Change) {
	data, err := json.Marshal(c)
	if err != nil {
		logger.L().Error("encode change failed", zap.Error(err))
		return
	}
	subject := Subject(c.OwnerID, c.Type)
	if err := p.nc.Publish(subject, data); err != nil {
		logger.L().Warn("publish change failed", zap.String("subject", subject), zap.Error(err))
	}
}
