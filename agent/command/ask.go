package command

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	statex "github.com/tanpawarit/yuchi/agent/state"
	"github.com/tanpawarit/yuchi/pkg/config"
	"github.com/tanpawarit/yuchi/pkg/yuchierr"
)

const (
	imagineCommand = "!imagine"
	resetCommand   = "!reset"
	wackCommand    = "!wack"
)

// Ask sends question to the chosen model and prints the reply. model
// overrides the shape set with --shape.
func (s *Service) Ask(ctx context.Context, question, model, imagePath string) (string, error) {
	return s.ask(ctx, question, model, imagePath, true)
}

func (s *Service) ask(ctx context.Context, prompt, model, imagePath string, record bool) (string, error) {
	st, err := s.loadReady()
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(model) == "" {
		model = st.Model(s.defaultModel())
	}

	reply, err := s.query(ctx, s.credentials(st), prompt, model, imagePath)
	if err != nil {
		return "", err
	}
	s.out.Response(reply)

	if record {
		s.record(ctx, st, prompt, reply, model)
	}
	return reply, nil
}

// record appends the exchange to the local transcript. A failure here never
// fails the question.
func (s *Service) record(ctx context.Context, st config.Settings, question, reply, model string) {
	t, err := s.transcripts.Load(ctx, st.ChannelID)
	if err != nil {
		if !errors.Is(err, statex.ErrTranscriptNotFound) {
			log.Warn().Err(err).Msg("starting a new transcript")
		}
		t = statex.NewTranscript(st.ChannelID, st.UserID, s.now())
	}
	t.Append(question, reply, model, s.now())
	if err := s.transcripts.Save(ctx, t); err != nil {
		log.Warn().Err(err).Msg("could not save transcript")
	}
}

// Imagine asks for an image and downloads the one the reply links to.
func (s *Service) Imagine(ctx context.Context, prompt, model, imagePath string) (string, error) {
	final := imagineCommand
	if prompt != "" {
		final = prompt + " " + imagineCommand
	}

	reply, err := s.ask(ctx, final, model, imagePath, true)
	if err != nil {
		return "", err
	}

	s.progress.Start("Downloading image...")
	path, err := s.downloader.Download(ctx, reply)
	s.progress.Stop()
	if err != nil {
		return "", err
	}
	s.out.Success("Image saved as '" + path + "'")
	return path, nil
}

// Reset clears the shape's conversation history and the local transcript.
func (s *Service) Reset(ctx context.Context, model string) error {
	if _, err := s.ask(ctx, resetCommand, model, "", false); err != nil {
		return err
	}
	st, err := s.settings.Load()
	if err != nil {
		return err
	}
	if err := s.transcripts.Delete(ctx, st.ChannelID); err != nil {
		log.Warn().Err(err).Msg("could not delete local transcript")
	}
	return nil
}

// Wack clears the shape's short-term memory.
func (s *Service) Wack(ctx context.Context, model string) error {
	_, err := s.ask(ctx, wackCommand, model, "", false)
	return err
}

// Sleep copies the local transcript to the remote store when one is
// configured.
func (s *Service) Sleep(ctx context.Context) error {
	s.out.Info("Saving conversation state...")
	if s.remote == nil {
		log.Debug().Msg("no remote transcript store configured")
		return nil
	}

	st, err := s.settings.Load()
	if err != nil {
		return err
	}
	if strings.TrimSpace(st.ChannelID) == "" {
		return yuchierr.Config("No channel ID set. Run `yuchi --login` first.")
	}

	t, err := s.transcripts.Load(ctx, st.ChannelID)
	if errors.Is(err, statex.ErrTranscriptNotFound) {
		s.out.Notice("Nothing to save yet.")
		return nil
	}
	if err != nil {
		return yuchierr.Configf("Failed to read conversation state: %v", err)
	}

	if err := s.remote.Save(ctx, t); err != nil {
		return yuchierr.APIf("Failed to save conversation state: %v", err)
	}
	s.out.Success("Conversation state saved.")
	return nil
}
