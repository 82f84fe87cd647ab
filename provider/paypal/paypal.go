package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/reform.v1"

	"github.com/prayerwatchman/paygate"
	"github.com/prayerwatchman/paygate/provider"
)

func NewProvider(db *reform.DB, cfg Config, nc *nats.EncodedConn) *Provider {
	if cfg.Mode == "" {
		cfg.Mode = inferMode(cfg.ClientID)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	p := &Provider{
		cfg: cfg,
		db:  db,
		nc:  nc,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		l: zap.L().Named("paypal_provider"),
	}
	if db != nil {
		p.s = &provider.Store{
			DB: db,
		}
	}
	return p
}

type Provider struct {
	cfg        Config
	db         *reform.DB
	nc         *nats.EncodedConn
	s          *provider.Store
	httpClient *http.Client
	l          *zap.Logger
}

const (
	PAYPAL provider.Provider = "paypal"

	SUBJECT = "paygate_captures_subject"

	liveAPIBase    = "https://api-m.paypal.com"
	sandboxAPIBase = "https://api-m.sandbox.paypal.com"
)

// Mode selects the provider environment explicitly instead of inferring it
// from credential prefixes alone. ModeDemo never makes network calls.
type Mode string

const (
	ModeLive    Mode = "live"
	ModeSandbox Mode = "sandbox"
	ModeDemo    Mode = "demo"
)

type Config struct {
	ClientID string
	Secret   string
	Mode     Mode

	// EntrypointURL overrides the provider API base. Empty means the base
	// is chosen from Mode.
	EntrypointURL string

	// Timeout bounds every outbound call. Zero means 10s.
	Timeout time.Duration
}

func inferMode(clientID string) Mode {
	if strings.HasPrefix(clientID, sandboxPrefix) {
		return ModeSandbox
	}
	return ModeLive
}

func (p *Provider) apiBase() string {
	if p.cfg.EntrypointURL != "" {
		return p.cfg.EntrypointURL
	}
	if p.cfg.Mode == ModeSandbox {
		return sandboxAPIBase
	}
	return liveAPIBase
}

type Amount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type PurchaseUnit struct {
	Amount Amount `json:"amount"`
}

type ApplicationContext struct {
	ReturnURL string `json:"return_url,omitempty"`
	CancelURL string `json:"cancel_url,omitempty"`
}

type orderRequest struct {
	Intent             string             `json:"intent"`
	PurchaseUnits      []PurchaseUnit     `json:"purchase_units"`
	ApplicationContext ApplicationContext `json:"application_context"`
}

type Link struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method,omitempty"`
}

// Order is the provider order representation returned to callers. Demo and
// Message are set only on locally fabricated demo orders.
type Order struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Links   []Link `json:"links"`
	Demo    bool   `json:"demo,omitempty"`
	Message string `json:"message,omitempty"`
}

// ApproveLink returns the href of the rel=="approve" link, or "".
func (o *Order) ApproveLink() string {
	for _, ln := range o.Links {
		if ln.Rel == "approve" {
			return ln.Href
		}
	}
	return ""
}

type Capture struct {
	ID            string                `json:"id"`
	Status        string                `json:"status"`
	PurchaseUnits []CapturePurchaseUnit `json:"purchase_units"`
}

type CapturePurchaseUnit struct {
	Payments CapturePayments `json:"payments"`
}

type CapturePayments struct {
	Captures []CaptureDetail `json:"captures"`
}

type CaptureDetail struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount Amount `json:"amount"`
}

// CapturedAmount returns the amount of the first payment capture, or nil
// if the provider returned none.
func (c *Capture) CapturedAmount() *Amount {
	for _, pu := range c.PurchaseUnits {
		for _, cd := range pu.Payments.Captures {
			return &cd.Amount
		}
	}
	return nil
}

type CaptureEvent struct {
	OrderID  string
	Status   string
	Amount   string
	Currency string
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// AccessToken obtains a fresh bearer token via the OAuth client-credentials
// grant. No caching: every call is a network round trip. Credential shape
// is checked first, a CredentialError means zero network calls were made.
func (p *Provider) AccessToken(ctx context.Context) (string, error) {
	if err := p.checkCredentials(); err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		p.apiBase()+"/v1/oauth2/token",
		strings.NewReader("grant_type=client_credentials"),
	)
	if err != nil {
		return "", errors.Wrap(err, "Failed new request")
	}
	req.SetBasicAuth(p.cfg.ClientID, p.cfg.Secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	res, err := p.httpClient.Do(req)
	if err != nil {
		return "", p.doErr("token request", err)
	}
	defer res.Body.Close()
	body, err := ioutil.ReadAll(res.Body)
	if err != nil {
		return "", errors.Wrap(err, "Failed read body response from paypal")
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		p.l.Warn(
			"token: bad status from paypal",
			zap.Int("status", res.StatusCode),
			zap.String("body", string(body)),
		)
		return "", &TokenError{StatusCode: res.StatusCode, Body: string(body)}
	}
	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		p.l.Warn(
			"token: bad unmarshal response from paypal",
			zap.String("body", string(body)),
			zap.Error(err),
		)
		return "", errors.Wrap(err, "Failed unmarshal response from paypal")
	}
	if tr.AccessToken == "" {
		return "", &TokenError{StatusCode: res.StatusCode, Body: "empty access_token in response"}
	}
	return tr.AccessToken, nil
}

// CreateOrder creates a provider-side order with the given amount, currency
// and intent. Amount validation is the caller's concern, this method only
// drives the provider API. A CredentialError from the token step propagates
// unchanged so callers can fall back to a demo order.
func (p *Provider) CreateOrder(ctx context.Context, amount, currency, intent, returnURL, cancelURL string) (*Order, error) {
	token, err := p.AccessToken(ctx)
	if err != nil {
		return nil, err
	}
	in := orderRequest{
		Intent: intent,
		PurchaseUnits: []PurchaseUnit{
			{Amount: Amount{CurrencyCode: currency, Value: amount}},
		},
		ApplicationContext: ApplicationContext{
			ReturnURL: returnURL,
			CancelURL: cancelURL,
		},
	}
	var ord Order
	if err := p.postJSON(ctx, "create order", "/v2/checkout/orders", token, &in, &ord); err != nil {
		return nil, err
	}
	if ord.ID == "" {
		return nil, &RequestError{Op: "create order", StatusCode: http.StatusOK, Body: "empty order id in response"}
	}
	if ord.ApproveLink() == "" {
		p.l.Warn(
			"createOrder: no approve link in response",
			zap.String("order_id", ord.ID),
		)
		return nil, &RequestError{Op: "create order", StatusCode: http.StatusOK, Body: "no approve link in response"}
	}
	if p.s != nil {
		if err := p.s.NewOrder(ord.ID, PAYPAL, ord.Status, amount, currency, false); err != nil {
			p.l.Warn(
				"createOrder: failed insert order",
				zap.String("order_id", ord.ID),
				zap.Error(err),
			)
		}
	}
	return &ord, nil
}

// CaptureOrder finalizes a previously approved order. A fresh token is
// requested, tokens are never reused across calls.
func (p *Provider) CaptureOrder(ctx context.Context, orderID string) (*Capture, error) {
	token, err := p.AccessToken(ctx)
	if err != nil {
		return nil, err
	}
	var cpt Capture
	if err := p.postJSON(ctx, "capture order", "/v2/checkout/orders/"+orderID+"/capture", token, nil, &cpt); err != nil {
		return nil, err
	}
	if p.s != nil {
		if err := p.s.SetStatus(orderID, PAYPAL, cpt.Status); err != nil && err != reform.ErrNoRows {
			p.l.Warn(
				"captureOrder: failed save order status",
				zap.String("order_id", orderID),
				zap.String("status", cpt.Status),
				zap.Error(err),
			)
		}
	}
	if p.nc != nil {
		ev := CaptureEvent{OrderID: orderID, Status: cpt.Status}
		if am := cpt.CapturedAmount(); am != nil {
			ev.Amount = am.Value
			ev.Currency = am.CurrencyCode
		}
		if err := p.nc.Publish(SUBJECT, &ev); err != nil {
			p.l.Warn("captureOrder: failed publish capture event", zap.Error(err))
		}
	}
	return &cpt, nil
}

type clientTokenResponse struct {
	ClientToken string `json:"client_token"`
}

// GenerateClientToken returns a client token for browser SDK embeds.
func (p *Provider) GenerateClientToken(ctx context.Context) (string, error) {
	token, err := p.AccessToken(ctx)
	if err != nil {
		return "", err
	}
	var ctr clientTokenResponse
	if err := p.postJSON(ctx, "generate client token", "/v1/identity/generate-token", token, nil, &ctr); err != nil {
		return "", err
	}
	if ctr.ClientToken == "" {
		return "", &RequestError{Op: "generate client token", StatusCode: http.StatusOK, Body: "empty client_token in response"}
	}
	return ctr.ClientToken, nil
}

// DemoOrder fabricates a local stand-in order used when the configured
// credentials are unusable. It has no provider-side existence, its approve
// link points at the application's own success page so the client flow
// stays exercisable.
func DemoOrder(amount string) *Order {
	return &Order{
		ID:     fmt.Sprintf("DEMO_ORDER_%d", time.Now().UnixMilli()),
		Status: string(paygate.CREATED),
		Links: []Link{
			{Href: "/donate/success?demo=true&amount=" + amount, Rel: "approve"},
		},
		Demo:    true,
		Message: "PayPal credentials are not usable, a demo order was created instead. No real payment will be made.",
	}
}

// RecordDemoOrder stores a fabricated demo order for operator audit.
func (p *Provider) RecordDemoOrder(ord *Order, amount, currency string) {
	if p.s == nil {
		return
	}
	if err := p.s.NewOrder(ord.ID, PAYPAL, ord.Status, amount, currency, true); err != nil {
		p.l.Warn(
			"demoOrder: failed insert order",
			zap.String("order_id", ord.ID),
			zap.Error(err),
		)
	}
}

// GetByPayPalID returns the stored order record for a provider order id.
// Unknown orders (and a missing store) report paygate.ErrNotFound.
func (p *Provider) GetByPayPalID(ordID string) (*provider.DonationOrders, error) {
	if p.s == nil {
		return nil, paygate.ErrNotFound
	}
	rec, err := p.s.GetByOrderID(ordID, PAYPAL)
	if err == reform.ErrNoRows {
		return nil, paygate.ErrNotFound
	}
	return rec, err
}

func (p *Provider) postJSON(ctx context.Context, op, path, token string, in, out interface{}) error {
	var rd *bytes.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "Failed marshal")
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiBase()+path, rd)
	if err != nil {
		return errors.Wrap(err, "Failed new request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	res, err := p.httpClient.Do(req)
	if err != nil {
		return p.doErr(op, err)
	}
	defer res.Body.Close()
	body, err := ioutil.ReadAll(res.Body)
	if err != nil {
		return errors.Wrap(err, "Failed read body response from paypal")
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		p.l.Warn(
			op+": bad status from paypal",
			zap.Int("status", res.StatusCode),
			zap.String("body", string(body)),
			zap.String("path", path),
		)
		return &RequestError{Op: op, StatusCode: res.StatusCode, Body: string(body)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		p.l.Warn(
			op+": bad unmarshal response from paypal",
			zap.String("body", string(body)),
			zap.Error(err),
		)
		return &RequestError{Op: op, StatusCode: res.StatusCode, Body: "malformed response body: " + err.Error()}
	}
	return nil
}

func (p *Provider) doErr(op string, err error) error {
	if e, ok := err.(interface{ Timeout() bool }); ok && e.Timeout() {
		p.l.Warn(op+": request timed out", zap.Error(err))
		return &TimeoutError{Op: op}
	}
	if errors.Cause(err) == context.DeadlineExceeded {
		p.l.Warn(op+": request timed out", zap.Error(err))
		return &TimeoutError{Op: op}
	}
	return errors.Wrap(err, "Failed do request")
}
