package shapes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tanpawarit/yuchi/pkg/yuchierr"
)

const maxAuthResponseBytes = 1 << 20

// Authenticator trades the one-time code shown on the Shapes authorize page
// for a user auth token.
type Authenticator struct {
	authURL      string
	authorizeURL string
	appID        string
	httpClient   *http.Client
}

type AuthOption func(*Authenticator)

func WithAuthHTTPClient(client *http.Client) AuthOption {
	return func(a *Authenticator) {
		if client != nil {
			a.httpClient = client
		}
	}
}

func NewAuthenticator(cfg Config, opts ...AuthOption) *Authenticator {
	a := &Authenticator{
		authURL:      strings.TrimRight(strings.TrimSpace(cfg.AuthURL), "/"),
		authorizeURL: strings.TrimSpace(cfg.AuthorizeURL),
		appID:        cfg.appID(),
		httpClient:   cfg.httpClient(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

func (a *Authenticator) AppID() string {
	return a.appID
}

// AuthorizeLink is the page where the user approves Yuchi and gets a code.
func (a *Authenticator) AuthorizeLink() string {
	return a.authorizeURL + "?app_id=" + url.QueryEscape(a.appID)
}

type nonceRequest struct {
	AppID string `json:"app_id"`
	Code  string `json:"code"`
}

type nonceResponse struct {
	AuthToken string `json:"auth_token"`
}

func (a *Authenticator) ExchangeCode(ctx context.Context, code string) (string, error) {
	body, err := json.Marshal(nonceRequest{AppID: a.appID, Code: strings.TrimSpace(code)})
	if err != nil {
		return "", yuchierr.APIf("Failed to exchange one-time code: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.authURL+"/nonce", bytes.NewReader(body))
	if err != nil {
		return "", yuchierr.APIf("Failed to exchange one-time code: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", yuchierr.APIf("Failed to exchange one-time code: %v", err)
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxAuthResponseBytes))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", yuchierr.APIf("Failed to exchange one-time code with status: %s. Response: %s",
			StatusText(resp.StatusCode), responseBody(raw, readErr))
	}
	if readErr != nil {
		return "", yuchierr.APIf("Failed to parse auth token response: %v", readErr)
	}

	var parsed nonceResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", yuchierr.APIf("Failed to parse auth token response: %v", err)
	}
	if strings.TrimSpace(parsed.AuthToken) == "" {
		return "", yuchierr.API("Missing auth_token in response")
	}
	return parsed.AuthToken, nil
}

// StatusText renders a status code as "429 Too Many Requests".
func StatusText(code int) string {
	if text := http.StatusText(code); text != "" {
		return fmt.Sprintf("%d %s", code, text)
	}
	return fmt.Sprintf("%d", code)
}

func responseBody(raw []byte, readErr error) string {
	if readErr != nil || len(bytes.TrimSpace(raw)) == 0 {
		return "No response body"
	}
	return string(raw)
}
