package notifier

import (
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/reform.v1"

	"github.com/prayerwatchman/paygate/provider"
	"github.com/prayerwatchman/paygate/provider/paypal"
)

// Server consumes capture events and hands them to the wider platform
// (receipt mail, dashboards). Stored orders are marked as notified so a
// capture is never announced twice after a restart.
func NewServer(db *reform.DB, nc *nats.EncodedConn) *Server {
	s := &Server{
		nc: nc,
		l:  zap.L().Named("notifier"),
	}
	if db != nil {
		s.s = &provider.Store{
			DB: db,
		}
	}
	return s
}

type Server struct {
	s  *provider.Store
	nc *nats.EncodedConn
	l  *zap.Logger
}

func (s *Server) Subscribe() (*nats.Subscription, error) {
	sub, err := s.nc.Subscribe(paypal.SUBJECT, s.HandleCapture)
	if err != nil {
		return nil, errors.Wrap(err, "Failed subscribe.")
	}
	s.l.Info("Subscribed.", zap.String("subject", paypal.SUBJECT))
	return sub, nil
}

func (s *Server) HandleCapture(ev *paypal.CaptureEvent) {
	s.l.Info(
		"Donation captured.",
		zap.String("order_id", ev.OrderID),
		zap.String("status", ev.Status),
		zap.String("amount", ev.Amount),
		zap.String("currency", ev.Currency),
	)
	if s.s == nil {
		return
	}
	if err := s.s.SetNotified(ev.OrderID, paypal.PAYPAL, time.Now()); err != nil {
		if err == reform.ErrNoRows {
			s.l.Warn("Captured order is not in the store.", zap.String("order_id", ev.OrderID))
			return
		}
		s.l.Warn(
			"Failed mark order as notified.",
			zap.String("order_id", ev.OrderID),
			zap.Error(err),
		)
	}
}
