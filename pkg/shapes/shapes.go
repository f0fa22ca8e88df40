package shapes

import (
	"net/http"
	"strings"
	"time"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/tanpawarit/yuchi/pkg/yuchierr"
)

// DefaultAppID identifies Yuchi in the user auth token flow.
const DefaultAppID = "3718bde3-c803-4bfc-b41b-3b5f0aa0ddd8"

const (
	headerAppID     = "X-App-ID"
	headerUserAuth  = "X-User-Auth"
	headerUserID    = "X-User-ID"
	headerChannelID = "X-Channel-ID"
)

type Config struct {
	BaseURL      string        `envconfig:"BASE_URL" split_words:"true" default:"https://api.shapes.inc/v1"`
	AuthURL      string        `envconfig:"AUTH_URL" split_words:"true" default:"https://api.shapes.inc/auth"`
	AuthorizeURL string        `envconfig:"AUTHORIZE_URL" split_words:"true" default:"https://shapes.inc/authorize"`
	AppID        string        `envconfig:"APP_ID" split_words:"true" default:"3718bde3-c803-4bfc-b41b-3b5f0aa0ddd8"`
	DefaultModel string        `envconfig:"DEFAULT_MODEL" split_words:"true" default:"shapesinc/ariwa"`
	Timeout      time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"60s"`
	MaxRetries   int           `envconfig:"MAX_RETRIES" split_words:"true" default:"0"`
}

// Credentials authenticate a request. A user auth token takes precedence over
// an API key.
type Credentials struct {
	APIKey        string
	UserAuthToken string
	AppID         string
	UserID        string
	ChannelID     string
}

func (c Config) httpClient() *http.Client {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

func (c Config) appID() string {
	if v := strings.TrimSpace(c.AppID); v != "" {
		return v
	}
	return DefaultAppID
}

// NewClient creates an OpenAI SDK client configured for the Shapes API.
func NewClient(cfg Config, creds Credentials) (*openaisdk.Client, error) {
	auth, err := authOptions(creds)
	if err != nil {
		return nil, err
	}

	opts := []option.RequestOption{
		option.WithHTTPClient(cfg.httpClient()),
		option.WithMaxRetries(max(cfg.MaxRetries, 0)),
	}
	if trimmed := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); trimmed != "" {
		opts = append(opts, option.WithBaseURL(trimmed))
	}
	opts = append(opts, auth...)

	client := openaisdk.NewClient(opts...)
	return &client, nil
}

func authOptions(creds Credentials) ([]option.RequestOption, error) {
	if token := strings.TrimSpace(creds.UserAuthToken); token != "" {
		appID := strings.TrimSpace(creds.AppID)
		if appID == "" {
			return nil, yuchierr.Config("No app ID set for user auth token.")
		}
		return []option.RequestOption{
			option.WithHeaderDel("Authorization"),
			option.WithHeader(headerAppID, appID),
			option.WithHeader(headerUserAuth, token),
		}, nil
	}

	if key := strings.TrimSpace(creds.APIKey); key != "" {
		return []option.RequestOption{
			option.WithAPIKey(key),
			option.WithHeader(headerUserID, creds.UserID),
			option.WithHeader(headerChannelID, creds.ChannelID),
		}, nil
	}

	return nil, yuchierr.API("No API key or user auth token provided.")
}
