package ui

import (
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"
)

const (
	DefaultSpinnerMessage = "Processing..."
	spinnerInterval       = 100 * time.Millisecond
	brailleCharSet        = 11
)

// Spinner is a braille spinner on one line. A disabled spinner draws
// nothing, which keeps piped stderr clean.
type Spinner struct {
	spin    *spinner.Spinner
	enabled bool

	mu      sync.Mutex
	message string
}

func NewSpinner(out io.Writer, enabled bool) *Spinner {
	spin := spinner.New(spinner.CharSets[brailleCharSet], spinnerInterval,
		spinner.WithWriter(out),
		spinner.WithColor("cyan"),
	)
	return &Spinner{spin: spin, enabled: enabled}
}

// Start shows message, or updates it when the spinner is already running.
func (s *Spinner) Start(message string) {
	if message == "" {
		message = DefaultSpinnerMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
	if !s.enabled {
		return
	}

	s.spin.Lock()
	s.spin.Suffix = " " + message
	s.spin.Unlock()
	s.spin.Start()
}

func (s *Spinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enabled {
		s.spin.Stop()
	}
}

func (s *Spinner) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message
}
