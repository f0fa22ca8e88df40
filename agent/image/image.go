package image

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/yuchi/pkg/shapes"
	"github.com/tanpawarit/yuchi/pkg/yuchierr"
)

// Generated images are served from the Shapes file host.
var imageURLPattern = regexp.MustCompile(`https://files\.shapes\.inc/[^\s]+`)

var mimeTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// Attach reads a PNG or JPEG file and returns it as a base64 data URL.
func Attach(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", yuchierr.Imagef("Image file '%s' does not exist or is not a file", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", yuchierr.Imagef("Failed to read image file '%s': %v", path, err)
	}

	mime, ok := mimeTypes[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return "", yuchierr.Imagef("Unsupported image format for '%s'. Use PNG or JPEG.", path)
	}

	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// FindURL returns the first generated-image URL in text.
func FindURL(text string) (string, bool) {
	url := imageURLPattern.FindString(text)
	return url, url != ""
}

type Config struct {
	Dir     string        `envconfig:"IMAGE_DIR" split_words:"true"`
	Timeout time.Duration `envconfig:"IMAGE_TIMEOUT" split_words:"true" default:"60s"`
}

// Downloader saves images the model generated.
type Downloader struct {
	dir        string
	httpClient *http.Client
	newName    func() string
}

type DownloaderOption func(*Downloader)

func WithHTTPClient(client *http.Client) DownloaderOption {
	return func(d *Downloader) {
		if client != nil {
			d.httpClient = client
		}
	}
}

func WithFileName(newName func() string) DownloaderOption {
	return func(d *Downloader) {
		if newName != nil {
			d.newName = newName
		}
	}
}

// NewDownloader writes into cfg.Dir, or the working directory when it is
// empty.
func NewDownloader(cfg Config, opts ...DownloaderOption) *Downloader {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	dir := strings.TrimSpace(cfg.Dir)
	if dir == "" {
		dir = "."
	}

	d := &Downloader{
		dir:        dir,
		httpClient: &http.Client{Timeout: timeout},
		newName: func() string {
			return fmt.Sprintf("yuchi_image_%s.png", uuid.NewString())
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Download fetches the first image URL found in reply and returns the path
// it was written to.
func (d *Downloader) Download(ctx context.Context, reply string) (string, error) {
	url, ok := FindURL(reply)
	if !ok {
		return "", yuchierr.API("No valid image URL found in response")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", yuchierr.APIf("Failed to download image: %v", err)
	}
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", yuchierr.APIf("Failed to download image: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", yuchierr.APIf("Failed to download image, status: %s", shapes.StatusText(resp.StatusCode))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", yuchierr.APIf("Failed to read image bytes: %v", err)
	}

	filename := filepath.Join(d.dir, d.newName())
	f, err := os.Create(filename)
	if err != nil {
		return "", yuchierr.APIf("Failed to create file '%s': %v", filename, err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return "", yuchierr.APIf("Failed to write image to '%s': %v", filename, err)
	}
	if err := f.Close(); err != nil {
		return "", yuchierr.APIf("Failed to write image to '%s': %v", filename, err)
	}

	log.Debug().Str("url", url).Str("file", filename).Int("bytes", len(data)).Msg("image saved")
	return filename, nil
}
