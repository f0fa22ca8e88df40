package image

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tanpawarit/yuchi/pkg/yuchierr"
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestAttach(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		mime string
	}{
		{name: "meme.png", mime: "image/png"},
		{name: "photo.jpg", mime: "image/jpeg"},
		{name: "photo.jpeg", mime: "image/jpeg"},
		{name: "SHOUT.PNG", mime: "image/png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := writeFile(t, tt.name, pngBytes)
			got, err := Attach(path)
			if err != nil {
				t.Fatalf("Attach() error = %v", err)
			}
			want := "data:" + tt.mime + ";base64," + base64.StdEncoding.EncodeToString(pngBytes)
			if got != want {
				t.Fatalf("Attach() = %q, want %q", got, want)
			}
		})
	}
}

func TestAttachErrors(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "nope.png")
	dir := t.TempDir()
	gif := writeFile(t, "anim.gif", []byte("GIF89a"))

	tests := []struct {
		path string
		want string
	}{
		{path: missing, want: "Image Error: Image file '" + missing + "' does not exist or is not a file"},
		{path: dir, want: "Image Error: Image file '" + dir + "' does not exist or is not a file"},
		{path: gif, want: "Image Error: Unsupported image format for '" + gif + "'. Use PNG or JPEG."},
	}

	for _, tt := range tests {
		_, err := Attach(tt.path)
		if err == nil || err.Error() != tt.want {
			t.Fatalf("Attach(%s) error = %v, want %q", tt.path, err, tt.want)
		}
		if !yuchierr.IsCategory(err, yuchierr.CategoryImage) {
			t.Fatalf("expected Image category: %v", err)
		}
	}
}

func TestFindURL(t *testing.T) {
	t.Parallel()

	got, ok := FindURL("Here you go! https://files.shapes.inc/abc123.png enjoy")
	if !ok || got != "https://files.shapes.inc/abc123.png" {
		t.Fatalf("FindURL() = %q, %v", got, ok)
	}

	if _, ok := FindURL("see https://example.com/x.png"); ok {
		t.Fatal("non-shapes URL should not match")
	}
}

// redirectTo sends every request to server regardless of the requested host.
func redirectTo(server *httptest.Server) *http.Client {
	target, _ := url.Parse(server.URL)
	return &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		r = r.Clone(r.Context())
		r.URL.Scheme = target.Scheme
		r.URL.Host = target.Host
		return http.DefaultTransport.RoundTrip(r)
	})}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestDownload(t *testing.T) {
	t.Parallel()

	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write(pngBytes)
	}))
	t.Cleanup(server.Close)

	dir := t.TempDir()
	d := NewDownloader(Config{Dir: dir},
		WithHTTPClient(redirectTo(server)),
		WithFileName(func() string { return "yuchi_image_test.png" }),
	)

	path, err := d.Download(context.Background(), "A train station: https://files.shapes.inc/img/42.png")
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if path != filepath.Join(dir, "yuchi_image_test.png") {
		t.Fatalf("path = %q", path)
	}
	if gotPath != "/img/42.png" {
		t.Fatalf("requested path = %q", gotPath)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved image: %v", err)
	}
	if string(data) != string(pngBytes) {
		t.Fatalf("saved bytes differ")
	}
}

func TestDownloadDefaultFileName(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(pngBytes)
	}))
	t.Cleanup(server.Close)

	dir := t.TempDir()
	path, err := NewDownloader(Config{Dir: dir}, WithHTTPClient(redirectTo(server))).
		Download(context.Background(), "https://files.shapes.inc/a.png")
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	name := filepath.Base(path)
	if !strings.HasPrefix(name, "yuchi_image_") || !strings.HasSuffix(name, ".png") {
		t.Fatalf("unexpected file name: %s", name)
	}
}

func TestDownloadErrors(t *testing.T) {
	t.Parallel()

	notFound := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(notFound.Close)

	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(pngBytes)
	}))
	t.Cleanup(ok.Close)

	tests := []struct {
		name   string
		server *httptest.Server
		dir    string
		reply  string
		want   string
	}{
		{
			name:  "no url",
			reply: "I could not draw that.",
			want:  "API Error: No valid image URL found in response",
		},
		{
			name:   "status",
			server: notFound,
			reply:  "https://files.shapes.inc/x.png",
			want:   "API Error: Failed to download image, status: 404 Not Found",
		},
		{
			name:   "create",
			server: ok,
			dir:    filepath.Join(t.TempDir(), "missing"),
			reply:  "https://files.shapes.inc/x.png",
			want:   "API Error: Failed to create file '",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var opts []DownloaderOption
			if tt.server != nil {
				opts = append(opts, WithHTTPClient(redirectTo(tt.server)))
			}
			dir := tt.dir
			if dir == "" {
				dir = t.TempDir()
			}

			_, err := NewDownloader(Config{Dir: dir}, opts...).Download(context.Background(), tt.reply)
			if err == nil || !strings.HasPrefix(err.Error(), tt.want) {
				t.Fatalf("Download() error = %v, want prefix %q", err, tt.want)
			}
		})
	}
}
