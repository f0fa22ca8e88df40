package command

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/yuchi/pkg/config"
	"github.com/tanpawarit/yuchi/pkg/shapes"
	"github.com/tanpawarit/yuchi/pkg/yuchierr"
)

const (
	methodAPIKey   = "1"
	methodUserAuth = "2"
	validationText = "Test"
)

// Login stores either an API key or a user auth token after checking it
// against the default model.
func (s *Service) Login(ctx context.Context) error {
	st, err := s.settings.Load()
	if err != nil {
		return err
	}

	method, err := s.prompter.ReadLine("Choose authentication method (1: API key, 2: User auth token): ")
	if err != nil {
		return yuchierr.Input(err.Error())
	}

	switch strings.TrimSpace(method) {
	case methodAPIKey:
		return s.loginAPIKey(ctx, st)
	case methodUserAuth:
		return s.loginUserAuth(ctx, st)
	default:
		return yuchierr.Input("Invalid authentication method. Choose 1 for API key or 2 for user auth token.")
	}
}

func (s *Service) loginAPIKey(ctx context.Context, st config.Settings) error {
	key, err := s.prompter.ReadSecret("Enter API key: ")
	if err != nil {
		return yuchierr.Input(err.Error())
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return yuchierr.Input("API key cannot be empty")
	}

	if err := s.ensureIDs(&st); err != nil {
		return err
	}

	reply, err := s.query(ctx, shapes.Credentials{
		APIKey:    key,
		UserID:    st.UserID,
		ChannelID: st.ChannelID,
	}, validationText, s.defaultModel(), "")
	if err != nil {
		return err
	}
	if reply == "" {
		return yuchierr.API("API key validation failed: No response received")
	}

	st.APIKey = key
	st.AppID = ""
	st.UserAuthToken = ""
	if err := s.settings.Save(st); err != nil {
		return err
	}
	log.Debug().Str("user_id", st.UserID).Msg("api key saved")
	s.out.Success("API key validated and saved successfully!")
	return nil
}

func (s *Service) loginUserAuth(ctx context.Context, st config.Settings) error {
	st.AppID = s.auth.AppID()
	if err := s.ensureIDs(&st); err != nil {
		return err
	}

	s.out.Notice("Click on the link to authorize the application:")
	s.out.Link(s.auth.AuthorizeLink())
	s.out.Info("\nAfter logging in to ShapesAI and approving the authorization request,")
	s.out.Info("you will be given a one-time code. Copy and paste that code here.")

	code, err := s.prompter.ReadSecret("Enter the one-time code: ")
	if err != nil {
		return yuchierr.Input(err.Error())
	}
	if strings.TrimSpace(code) == "" {
		return yuchierr.Input("One-time code cannot be empty")
	}

	s.progress.Start("")
	token, err := s.auth.ExchangeCode(ctx, code)
	s.progress.Stop()
	if err != nil {
		return err
	}

	reply, err := s.query(ctx, shapes.Credentials{
		UserAuthToken: token,
		AppID:         st.AppID,
		UserID:        st.UserID,
		ChannelID:     st.ChannelID,
	}, validationText, s.defaultModel(), "")
	if err != nil {
		return err
	}
	if reply == "" {
		return yuchierr.API("User auth token validation failed: No response received")
	}

	st.UserAuthToken = token
	st.APIKey = ""
	if err := s.settings.Save(st); err != nil {
		return err
	}
	log.Debug().Str("user_id", st.UserID).Msg("user auth token saved")
	s.out.Success("User auth token validated and saved successfully!")
	return nil
}

// ensureIDs fills in missing user and channel ids and saves them right away
// so a failed validation does not lose them.
func (s *Service) ensureIDs(st *config.Settings) error {
	if strings.TrimSpace(st.UserID) == "" {
		st.UserID = s.newID()
		s.out.Notice("Generated new user ID.")
	}
	if strings.TrimSpace(st.ChannelID) == "" {
		st.ChannelID = s.newID()
		s.out.Notice("Generated new channel ID.")
	}
	return s.settings.Save(*st)
}

// Logout clears every stored setting and the local transcript.
func (s *Service) Logout(ctx context.Context) error {
	st, err := s.settings.Load()
	if err != nil {
		log.Warn().Err(err).Msg("could not read settings before logout")
	}
	if err := s.settings.Save(config.Settings{}); err != nil {
		return err
	}
	if err := s.transcripts.Delete(ctx, st.ChannelID); err != nil {
		log.Warn().Err(err).Msg("could not delete local transcript")
	}
	s.out.Success("API key, app ID, auth token, username, user ID, and channel ID cleared!")
	return nil
}

// SetShape switches the default model to shapesinc/<username> once the shape
// answers.
func (s *Service) SetShape(ctx context.Context, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return yuchierr.Input("Username cannot be empty")
	}

	st, err := s.loadReady()
	if err != nil {
		return err
	}

	model := "shapesinc/" + username
	reply, err := s.query(ctx, s.credentials(st), validationText, model, "")
	if err != nil {
		return err
	}
	if reply == "" {
		return yuchierr.API("Username validation failed: No response received.")
	}

	st.Username = username
	if err := s.settings.Save(st); err != nil {
		return err
	}
	s.out.Success("Username '" + username + "' validated and saved successfully! Using model: " + model)
	return nil
}
