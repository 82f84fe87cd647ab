package provider

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/reform.v1"
)

type Store struct {
	DB *reform.DB
}

const (
	prefixOrderId = "pw"
)

func (s *Store) NewOrder(ordID string, providerName Provider, rawOrderStatus string, amount, currency string, demo bool) error {
	return s.DB.Insert(&DonationOrders{
		OrderNumber:       formatOrderID(providerName, ordID),
		PaymentSystemName: providerName,
		RawOrderStatus:    rawOrderStatus,
		Amount:            amount,
		Currency:          currency,
		Demo:              demo,
	})
}

func (s *Store) GetByOrderID(ordID string, providerName Provider) (*DonationOrders, error) {
	so := &DonationOrders{OrderNumber: formatOrderID(providerName, ordID)}
	err := s.DB.Reload(so)
	if err != nil {
		if err == reform.ErrNoRows {
			return nil, err
		}
		return nil, errors.Wrap(err, "Failed get donation order")
	}
	return so, nil
}

func (s *Store) SetStatus(ordID string, providerName Provider, newStatus string) error {
	o := &DonationOrders{OrderNumber: formatOrderID(providerName, ordID)}
	err := s.DB.Reload(o)
	if err != nil {
		return err
	}
	o.RawOrderStatus = newStatus
	return s.DB.Save(o)
}

func (s *Store) SetNotified(ordID string, providerName Provider, tm time.Time) error {
	o := &DonationOrders{OrderNumber: formatOrderID(providerName, ordID)}
	err := s.DB.Reload(o)
	if err != nil {
		return err
	}
	o.NotifiedAt = &tm
	return s.DB.Save(o)
}

//go:generate reform

//reform:paygate.donation_orders
type DonationOrders struct {
	OrderNumber       string     `reform:"order_number,pk"`
	PaymentSystemName Provider   `reform:"payment_system_name"`
	RawOrderStatus    string     `reform:"raw_order_status"`
	Amount            string     `reform:"amount"`
	Currency          string     `reform:"currency"`
	Demo              bool       `reform:"demo"`
	NotifiedAt        *time.Time `reform:"notified_at"`
	CreatedAt         time.Time  `reform:"created_at"`
	UpdatedAt         time.Time  `reform:"updated_at"`
}

func (o *DonationOrders) BeforeInsert() error {
	o.UpdatedAt = time.Now()
	o.CreatedAt = time.Now()
	return nil
}

func (o *DonationOrders) BeforeUpdate() error {
	o.UpdatedAt = time.Now()
	return nil
}

func formatOrderID(p Provider, extOrderID string) string {
	return prefixOrderId + fmt.Sprintf("-%s-%s", p, extOrderID)
}
