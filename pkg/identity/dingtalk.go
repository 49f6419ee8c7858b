package identity

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/goliatone/go-formbuilder/internal/logging"
)

const (
	// DingTalkName is the registry name of the DingTalk provider.
	DingTalkName = "dingtalk"
	// DingTalkBaseURL is the public DingTalk open API endpoint.
	DingTalkBaseURL = "https://api.dingtalk.com"

	dingTalkTokenPath   = "/v1.0/oauth2/userAccessToken"
	dingTalkProfilePath = "/v1.0/contact/users/me"
	dingTalkTokenHeader = "x-acs-dingtalk-access-token"

	maxErrorBodySize = 4 << 10
)

// DingTalkConfig holds the app credentials issued by DingTalk.
type DingTalkConfig struct {
	ClientID     string
	ClientSecret string
	// BaseURL defaults to DingTalkBaseURL.
	BaseURL string
	// HTTPClient defaults to a client with a ten second timeout.
	HTTPClient *http.Client
}

// DingTalk implements Provider against the DingTalk open API.
type DingTalk struct {
	cfg    DingTalkConfig
	client *http.Client
}

var _ Provider = (*DingTalk)(nil)

func NewDingTalk(cfg DingTalkConfig) *DingTalk {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = DingTalkBaseURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &DingTalk{cfg: cfg, client: client}
}

func (d *DingTalk) Name() string {
	return DingTalkName
}

type dingTalkTokenRequest struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
	Code         string `json:"code"`
	GrantType    string `json:"grantType"`
}

type dingTalkTokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpireIn     int    `json:"expireIn"`
}

func (d *DingTalk) GetViewer(ctx context.Context, code string) (ThirdUser, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return ThirdUser{}, fmt.Errorf("%w: authorization code is empty", ErrThirdUser)
	}

	body, err := json.Marshal(dingTalkTokenRequest{
		ClientID:     d.cfg.ClientID,
		ClientSecret: d.cfg.ClientSecret,
		Code:         code,
		GrantType:    "authorization_code",
	})
	if err != nil {
		return ThirdUser{}, fmt.Errorf("%w: %w", ErrThirdUser, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.BaseURL+dingTalkTokenPath, bytes.NewReader(body))
	if err != nil {
		return ThirdUser{}, fmt.Errorf("%w: %w", ErrThirdUser, err)
	}
	req.Header.Set("Content-Type", "application/json")

	var token dingTalkTokenResponse
	if err := d.do(req, &token); err != nil {
		logging.FromContext(ctx).Warn("dingtalk token exchange failed", "error", err)
		return ThirdUser{}, err
	}
	if strings.TrimSpace(token.AccessToken) == "" {
		return ThirdUser{}, fmt.Errorf("%w: response has no accessToken", ErrThirdUser)
	}
	return d.GetThirdUser(ctx, token.AccessToken)
}

func (d *DingTalk) GetThirdUser(ctx context.Context, accessToken string) (ThirdUser, error) {
	if strings.TrimSpace(accessToken) == "" {
		return ThirdUser{}, fmt.Errorf("%w: access token is empty", ErrThirdUser)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.cfg.BaseURL+dingTalkProfilePath, nil)
	if err != nil {
		return ThirdUser{}, fmt.Errorf("%w: %w", ErrThirdUser, err)
	}
	req.Header.Set(dingTalkTokenHeader, accessToken)

	var profile map[string]any
	if err := d.do(req, &profile); err != nil {
		logging.FromContext(ctx).Warn("dingtalk profile lookup failed", "error", err)
		return ThirdUser{}, err
	}
	unionID, _ := profile["unionId"].(string)
	if strings.TrimSpace(unionID) == "" {
		return ThirdUser{}, fmt.Errorf("%w: profile has no unionId", ErrThirdUser)
	}
	return ThirdUser{ID: unionID, User: profile}, nil
}

func (d *DingTalk) do(req *http.Request, out any) error {
	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrThirdUser, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return fmt.Errorf("%w: %s returned %d: %s", ErrThirdUser, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrThirdUser, req.URL.Path, err)
	}
	return nil
}
