package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDingTalk serves the two endpoints the provider calls.
func fakeDingTalk(t *testing.T, profile map[string]any) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+dingTalkTokenPath, func(w http.ResponseWriter, r *http.Request) {
		var req dingTalkTokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Code != "good-code" || req.ClientID != "app" || req.GrantType != "authorization_code" {
			http.Error(w, `{"code":"invalidCode"}`, http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(dingTalkTokenResponse{AccessToken: "token-1", ExpireIn: 7200})
	})
	mux.HandleFunc("GET "+dingTalkProfilePath, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(dingTalkTokenHeader) != "token-1" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(profile)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newProvider(server *httptest.Server) *DingTalk {
	return NewDingTalk(DingTalkConfig{ClientID: "app", ClientSecret: "secret", BaseURL: server.URL + "/", HTTPClient: server.Client()})
}

func TestDingTalkGetViewer(t *testing.T) {
	server := fakeDingTalk(t, map[string]any{"unionId": "u-42", "nick": "Ada"})
	provider := newProvider(server)

	user, err := provider.GetViewer(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "u-42", user.ID)
	assert.Equal(t, "Ada", user.User["nick"])
}

func TestDingTalkFailuresAreGeneric(t *testing.T) {
	ctx := context.Background()

	t.Run("bad code", func(t *testing.T) {
		provider := newProvider(fakeDingTalk(t, map[string]any{"unionId": "u"}))
		_, err := provider.GetViewer(ctx, "bad-code")
		assert.ErrorIs(t, err, ErrThirdUser)
	})

	t.Run("empty code", func(t *testing.T) {
		provider := newProvider(fakeDingTalk(t, map[string]any{"unionId": "u"}))
		_, err := provider.GetViewer(ctx, " ")
		assert.ErrorIs(t, err, ErrThirdUser)
	})

	t.Run("missing union id", func(t *testing.T) {
		provider := newProvider(fakeDingTalk(t, map[string]any{"nick": "Ada"}))
		_, err := provider.GetThirdUser(ctx, "token-1")
		assert.ErrorIs(t, err, ErrThirdUser)
	})

	t.Run("rejected token", func(t *testing.T) {
		provider := newProvider(fakeDingTalk(t, map[string]any{"unionId": "u"}))
		_, err := provider.GetThirdUser(ctx, "stale")
		assert.ErrorIs(t, err, ErrThirdUser)
	})

	t.Run("upstream down", func(t *testing.T) {
		server := fakeDingTalk(t, nil)
		provider := newProvider(server)
		server.Close()
		_, err := provider.GetThirdUser(ctx, "token-1")
		assert.ErrorIs(t, err, ErrThirdUser)
	})
}

type namedProvider struct{ name string }

func (p namedProvider) Name() string { return p.name }
func (namedProvider) GetViewer(context.Context, string) (ThirdUser, error) {
	return ThirdUser{}, ErrThirdUser
}
func (namedProvider) GetThirdUser(context.Context, string) (ThirdUser, error) {
	return ThirdUser{}, ErrThirdUser
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(NewDingTalk(DingTalkConfig{})))
	require.NoError(t, reg.Register(namedProvider{name: "Feishu"}))

	assert.Error(t, reg.Register(namedProvider{name: " DingTalk "}))
	assert.Error(t, reg.Register(namedProvider{}))
	assert.Error(t, reg.Register(nil))

	p, err := reg.Get("DINGTALK")
	require.NoError(t, err)
	assert.Equal(t, DingTalkName, p.Name())

	_, err = reg.Get("github")
	assert.ErrorIs(t, err, ErrProviderNotFound)
	assert.Equal(t, []string{"dingtalk", "feishu"}, reg.Names())
}
