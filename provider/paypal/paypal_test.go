package paypal

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	testClientID = "AfQvHE0qqV3mZ0eJ8kTuLWvGhM"
	testSecret   = "EMSvB1yEJRoAd8LJ60GGXqNk"
)

// fakePayPal is an httptest stand-in for the provider API.
type fakePayPal struct {
	t *testing.T

	tokenStatus   int
	tokenCalls    int
	orderStatus   int
	orderResp     string
	captureStatus int
	captureResp   string

	lastOrderPayload []byte
}

func newFakePayPal(t *testing.T) *fakePayPal {
	return &fakePayPal{
		t:             t,
		tokenStatus:   http.StatusOK,
		orderStatus:   http.StatusCreated,
		captureStatus: http.StatusCreated,
	}
}

func (f *fakePayPal) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v1/oauth2/token":
			f.tokenCalls++
			user, pass, ok := r.BasicAuth()
			require.True(f.t, ok)
			require.Equal(f.t, testClientID, user)
			require.Equal(f.t, testSecret, pass)
			body, _ := ioutil.ReadAll(r.Body)
			require.Equal(f.t, "grant_type=client_credentials", string(body))
			if f.tokenStatus != http.StatusOK {
				w.WriteHeader(f.tokenStatus)
				w.Write([]byte(`{"error":"invalid_client"}`))
				return
			}
			w.Write([]byte(`{"access_token":"A21AAHtok","token_type":"Bearer","expires_in":32400}`))
		case r.URL.Path == "/v2/checkout/orders":
			require.Equal(f.t, "Bearer A21AAHtok", r.Header.Get("Authorization"))
			f.lastOrderPayload, _ = ioutil.ReadAll(r.Body)
			w.WriteHeader(f.orderStatus)
			w.Write([]byte(f.orderResp))
		case regexp.MustCompile(`^/v2/checkout/orders/[^/]+/capture$`).MatchString(r.URL.Path):
			require.Equal(f.t, "Bearer A21AAHtok", r.Header.Get("Authorization"))
			w.WriteHeader(f.captureStatus)
			w.Write([]byte(f.captureResp))
		case r.URL.Path == "/v1/identity/generate-token":
			require.Equal(f.t, "Bearer A21AAHtok", r.Header.Get("Authorization"))
			w.Write([]byte(`{"client_token":"ct-123"}`))
		default:
			f.t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func newTestProvider(t *testing.T, f *fakePayPal) (*Provider, func()) {
	ts := httptest.NewServer(f.handler())
	p := NewProvider(nil, Config{
		ClientID:      testClientID,
		Secret:        testSecret,
		Mode:          ModeSandbox,
		EntrypointURL: ts.URL,
	}, nil)
	return p, ts.Close
}

func TestAccessToken(t *testing.T) {
	f := newFakePayPal(t)
	p, closeFn := newTestProvider(t, f)
	defer closeFn()

	token, err := p.AccessToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "A21AAHtok", token)
	require.Equal(t, 1, f.tokenCalls)

	// no caching: each call is a fresh round trip
	_, err = p.AccessToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, f.tokenCalls)
}

func TestAccessTokenUnauthorized(t *testing.T) {
	f := newFakePayPal(t)
	f.tokenStatus = http.StatusUnauthorized
	p, closeFn := newTestProvider(t, f)
	defer closeFn()

	_, err := p.AccessToken(context.Background())
	require.Error(t, err)
	te, ok := err.(*TokenError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, te.StatusCode)
	require.Contains(t, te.Error(), "same REST app")
}

func TestCreateOrder(t *testing.T) {
	f := newFakePayPal(t)
	f.orderResp = `{
		"id": "5O190127TN364715T",
		"status": "CREATED",
		"links": [
			{"href": "https://api-m.sandbox.paypal.com/v2/checkout/orders/5O190127TN364715T", "rel": "self", "method": "GET"},
			{"href": "https://www.sandbox.paypal.com/checkoutnow?token=5O190127TN364715T", "rel": "approve", "method": "GET"}
		]
	}`
	p, closeFn := newTestProvider(t, f)
	defer closeFn()

	ord, err := p.CreateOrder(context.Background(), "25.00", "USD", "CAPTURE",
		"https://donate.example.org/donate/success", "https://donate.example.org/donate/cancel")
	require.NoError(t, err)
	require.Equal(t, "5O190127TN364715T", ord.ID)
	require.Equal(t, "CREATED", ord.Status)
	require.False(t, ord.Demo)
	require.Equal(t, "https://www.sandbox.paypal.com/checkoutnow?token=5O190127TN364715T", ord.ApproveLink())

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(f.lastOrderPayload, &payload))
	require.Equal(t, "CAPTURE", payload["intent"])
	pu := payload["purchase_units"].([]interface{})[0].(map[string]interface{})
	amount := pu["amount"].(map[string]interface{})
	require.Equal(t, "USD", amount["currency_code"])
	require.Equal(t, "25.00", amount["value"])
	appCtx := payload["application_context"].(map[string]interface{})
	require.Equal(t, "https://donate.example.org/donate/success", appCtx["return_url"])
	require.Equal(t, "https://donate.example.org/donate/cancel", appCtx["cancel_url"])
}

func TestCreateOrderNoApproveLink(t *testing.T) {
	f := newFakePayPal(t)
	f.orderResp = `{"id": "5O190127TN364715T", "status": "CREATED", "links": [{"href": "x", "rel": "self"}]}`
	p, closeFn := newTestProvider(t, f)
	defer closeFn()

	_, err := p.CreateOrder(context.Background(), "25.00", "USD", "CAPTURE", "", "")
	require.Error(t, err)
	re, ok := err.(*RequestError)
	require.True(t, ok)
	require.Contains(t, re.Body, "no approve link")
}

func TestCreateOrderProviderFailure(t *testing.T) {
	f := newFakePayPal(t)
	f.orderStatus = http.StatusUnprocessableEntity
	f.orderResp = `{"name":"UNPROCESSABLE_ENTITY"}`
	p, closeFn := newTestProvider(t, f)
	defer closeFn()

	_, err := p.CreateOrder(context.Background(), "25.00", "USD", "CAPTURE", "", "")
	require.Error(t, err)
	re, ok := err.(*RequestError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnprocessableEntity, re.StatusCode)
	require.False(t, IsCredentialError(err))
}

func TestCaptureOrder(t *testing.T) {
	f := newFakePayPal(t)
	f.captureResp = `{
		"id": "5O190127TN364715T",
		"status": "COMPLETED",
		"purchase_units": [
			{"payments": {"captures": [{"id": "3C679366HH908993F", "status": "COMPLETED", "amount": {"currency_code": "USD", "value": "25.00"}}]}}
		]
	}`
	p, closeFn := newTestProvider(t, f)
	defer closeFn()

	cpt, err := p.CaptureOrder(context.Background(), "5O190127TN364715T")
	require.NoError(t, err)
	require.Equal(t, "COMPLETED", cpt.Status)
	am := cpt.CapturedAmount()
	require.NotNil(t, am)
	require.Equal(t, "25.00", am.Value)
	require.Equal(t, "USD", am.CurrencyCode)
	// fresh token per call, none reused from creation time
	require.Equal(t, 1, f.tokenCalls)
}

func TestCaptureOrderProviderFailure(t *testing.T) {
	f := newFakePayPal(t)
	f.captureStatus = http.StatusUnprocessableEntity
	f.captureResp = `{"name":"ORDER_NOT_APPROVED"}`
	p, closeFn := newTestProvider(t, f)
	defer closeFn()

	// provider-determined outcome surfaces as a typed error, never a crash
	for i := 0; i < 2; i++ {
		_, err := p.CaptureOrder(context.Background(), "5O190127TN364715T")
		require.Error(t, err)
		re, ok := err.(*RequestError)
		require.True(t, ok)
		require.Equal(t, http.StatusUnprocessableEntity, re.StatusCode)
	}
}

func TestGenerateClientToken(t *testing.T) {
	f := newFakePayPal(t)
	p, closeFn := newTestProvider(t, f)
	defer closeFn()

	token, err := p.GenerateClientToken(context.Background())
	require.NoError(t, err)
	require.Equal(t, "ct-123", token)
}

func TestRequestTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer ts.Close()

	p := NewProvider(nil, Config{
		ClientID:      testClientID,
		Secret:        testSecret,
		EntrypointURL: ts.URL,
		Timeout:       20 * time.Millisecond,
	}, nil)
	_, err := p.AccessToken(context.Background())
	require.Error(t, err)
	require.True(t, IsTimeout(err))
}

func TestDemoOrder(t *testing.T) {
	ord := DemoOrder("25.00")
	require.Regexp(t, `^DEMO_ORDER_\d+$`, ord.ID)
	require.Equal(t, "CREATED", ord.Status)
	require.True(t, ord.Demo)
	require.NotEmpty(t, ord.Message)
	require.Equal(t, "/donate/success?demo=true&amount=25.00", ord.ApproveLink())
}
