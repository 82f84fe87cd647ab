package paypal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestCheckCredentials(t *testing.T) {
	tests := []struct {
		name     string
		clientID string
		secret   string
		mode     Mode
		wantErr  bool
	}{
		{"live pair", "AfQvHE0qqV3mZ0eJ8kTuLWvGhM", "EMSvB1yEJRoAd8LJ60GGXqNk", ModeLive, false},
		{"sandbox pair", "sb-k4ube31902276", "EGnHDxD_qRPdaLdZz8iCr8N7_MzF", ModeSandbox, false},
		{"inferred live", "AfQvHE0qqV3mZ0eJ8kTuLWvGhM", "EMSvB1yEJRoAd8LJ60GGXqNk", "", false},
		{"stripe secret as client id", "sk_live_51Hb9examplekey", "EMSvB1yEJRoAd8LJ60GGXqNk", ModeLive, true},
		{"stripe publishable as client id", "pk_test_51Hb9examplekey", "EMSvB1yEJRoAd8LJ60GGXqNk", ModeLive, true},
		{"stripe restricted as secret", "AfQvHE0qqV3mZ0eJ8kTuLWvGhM", "rk_live_51Hb9examplekey", ModeLive, true},
		{"unknown client id prefix", "Zx-not-a-paypal-id", "EMSvB1yEJRoAd8LJ60GGXqNk", ModeLive, true},
		{"unknown secret prefix", "AfQvHE0qqV3mZ0eJ8kTuLWvGhM", "XMSvB1yEJRoAd8LJ60GGXqNk", ModeLive, true},
		{"forced demo mode", "AfQvHE0qqV3mZ0eJ8kTuLWvGhM", "EMSvB1yEJRoAd8LJ60GGXqNk", ModeDemo, true},
		{"empty pair", "", "", ModeLive, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProvider(nil, Config{ClientID: tt.clientID, Secret: tt.secret, Mode: tt.mode}, nil)
			err := p.checkCredentials()
			if tt.wantErr {
				require.Error(t, err)
				require.True(t, IsCredentialError(err))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestAccessTokenBadCredentialsNoNetworkCall(t *testing.T) {
	var calls int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
	}))
	defer ts.Close()

	for _, creds := range []struct{ id, secret string }{
		{"sk_live_51Hb9examplekey", "EMSvB1yEJRoAd8LJ60GGXqNk"},
		{"Zx-not-a-paypal-id", "EMSvB1yEJRoAd8LJ60GGXqNk"},
		{"AfQvHE0qqV3mZ0eJ8kTuLWvGhM", "not-a-paypal-secret"},
	} {
		p := NewProvider(nil, Config{ClientID: creds.id, Secret: creds.secret, EntrypointURL: ts.URL}, nil)
		_, err := p.AccessToken(context.Background())
		require.Error(t, err)
		require.True(t, IsCredentialError(err))
	}
	require.EqualValues(t, 0, atomic.LoadInt64(&calls), "credential failures must not reach the network")
}

func TestIsCredentialErrorWrapped(t *testing.T) {
	err := errors.Wrap(&CredentialError{Reason: "x"}, "Failed get token")
	require.True(t, IsCredentialError(err))
	require.False(t, IsCredentialError(errors.New("other")))
}

func TestCredFragmentNeverLeaksFullValue(t *testing.T) {
	require.Equal(t, "sk_l...", credFragment("sk_live_51Hb9examplekey"))
	require.Equal(t, "sk", credFragment("sk"))
}
