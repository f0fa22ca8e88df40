package command

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	chatx "github.com/tanpawarit/yuchi/agent/chat"
	contractx "github.com/tanpawarit/yuchi/agent/contract"
	imagex "github.com/tanpawarit/yuchi/agent/image"
	statex "github.com/tanpawarit/yuchi/agent/state"
	"github.com/tanpawarit/yuchi/pkg/config"
	"github.com/tanpawarit/yuchi/pkg/shapes"
	"github.com/tanpawarit/yuchi/pkg/yuchierr"
)

// Output is what commands print besides errors.
type Output interface {
	Response(reply string)
	Success(msg string)
	Notice(msg string)
	Link(url string)
	Info(msg string)
}

// Deps are the collaborators every command shares. Remote is optional.
type Deps struct {
	Settings    *config.SettingsFile
	Shapes      shapes.Config
	Auth        *shapes.Authenticator
	Tools       contractx.ToolGateway
	Prompter    contractx.Prompter
	Output      Output
	Progress    contractx.Progress
	Downloader  *imagex.Downloader
	Transcripts statex.Store
	Remote      statex.Store
}

type Option func(*Service)

// WithIDGenerator replaces uuid v4 for new user and channel ids.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service runs the user-facing commands.
type Service struct {
	settings    *config.SettingsFile
	shapes      shapes.Config
	auth        *shapes.Authenticator
	tools       contractx.ToolGateway
	prompter    contractx.Prompter
	out         Output
	progress    contractx.Progress
	downloader  *imagex.Downloader
	transcripts statex.Store
	remote      statex.Store
	newID       func() string
	now         func() time.Time
}

func New(d Deps, opts ...Option) (*Service, error) {
	switch {
	case d.Settings == nil:
		return nil, errors.New("settings file is required")
	case d.Tools == nil:
		return nil, errors.New("tool gateway is required")
	case d.Prompter == nil:
		return nil, errors.New("prompter is required")
	case d.Output == nil:
		return nil, errors.New("output is required")
	}

	s := &Service{
		settings:    d.Settings,
		shapes:      d.Shapes,
		auth:        d.Auth,
		tools:       d.Tools,
		prompter:    d.Prompter,
		out:         d.Output,
		progress:    d.Progress,
		downloader:  d.Downloader,
		transcripts: d.Transcripts,
		remote:      d.Remote,
		newID:       uuid.NewString,
		now:         time.Now,
	}
	if s.auth == nil {
		s.auth = shapes.NewAuthenticator(d.Shapes)
	}
	if s.progress == nil {
		s.progress = contractx.NoopProgress{}
	}
	if s.downloader == nil {
		s.downloader = imagex.NewDownloader(imagex.Config{})
	}
	if s.transcripts == nil {
		s.transcripts = statex.NewFileStore(d.Settings.Dir())
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

func (s *Service) defaultModel() string {
	if m := strings.TrimSpace(s.shapes.DefaultModel); m != "" {
		return m
	}
	return "shapesinc/ariwa"
}

// query sends one prompt with the given credentials.
func (s *Service) query(ctx context.Context, creds shapes.Credentials, prompt, model, imagePath string) (string, error) {
	client, err := shapes.NewClient(s.shapes, creds)
	if err != nil {
		return "", err
	}
	asker, err := chatx.New(client, s.tools, s.progress)
	if err != nil {
		return "", yuchierr.API(err.Error())
	}
	return asker.Ask(ctx, chatx.Request{Prompt: prompt, Model: model, ImagePath: imagePath})
}

func (s *Service) credentials(st config.Settings) shapes.Credentials {
	appID := st.AppID
	if strings.TrimSpace(appID) == "" && st.UserAuthToken != "" {
		appID = s.auth.AppID()
	}
	return shapes.Credentials{
		APIKey:        st.APIKey,
		UserAuthToken: st.UserAuthToken,
		AppID:         appID,
		UserID:        st.UserID,
		ChannelID:     st.ChannelID,
	}
}

// loadReady loads settings and checks that a conversation can be started.
func (s *Service) loadReady() (config.Settings, error) {
	st, err := s.settings.Load()
	if err != nil {
		return config.Settings{}, err
	}
	if strings.TrimSpace(st.UserID) == "" {
		return config.Settings{}, yuchierr.Config("No user ID set. Run `yuchi --login` first.")
	}
	if strings.TrimSpace(st.ChannelID) == "" {
		return config.Settings{}, yuchierr.Config("No channel ID set. Run `yuchi --login` first.")
	}
	if !st.HasCredentials() {
		return config.Settings{}, yuchierr.Config("No API key or user auth token set. Run `yuchi --login` first.")
	}
	return st, nil
}
