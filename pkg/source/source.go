// Package source resolves raster operands to local files. Plain paths are
// used as they are; http(s) and s3 URLs are downloaded to a temporary file
// that the caller releases once done with it.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrUnsupportedScheme is returned for URLs with a scheme no fetcher handles.
var ErrUnsupportedScheme = errors.New("source: unsupported URL scheme")

// Local is a resolved operand. Release removes any temporary copy.
type Local struct {
	Path    string
	release func()
}

// Release frees resources held for the operand. It is safe to call on a
// zero Local and more than once.
func (l *Local) Release() {
	if l == nil || l.release == nil {
		return
	}
	l.release()
	l.release = nil
}

// S3Getter is the subset of the S3 client used for downloads.
type S3Getter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Resolver turns operands into local paths.
type Resolver struct {
	httpClient *http.Client
	s3Client   S3Getter
	tempDir    string
	logger     *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithHTTPClient sets the client used for http and https operands.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Resolver) { r.httpClient = c }
}

// WithS3Client sets the client used for s3 operands. Without one, the
// default AWS configuration is loaded on first use.
func WithS3Client(c S3Getter) Option {
	return func(r *Resolver) { r.s3Client = c }
}

// WithTempDir sets where downloads are written. Defaults to os.TempDir.
func WithTempDir(dir string) Option {
	return func(r *Resolver) { r.tempDir = dir }
}

// WithLogger sets the logger for download events.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResolver creates a Resolver.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		httpClient: http.DefaultClient,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IsRemote reports whether operand names a URL rather than a local path.
func IsRemote(operand string) bool {
	u, err := url.Parse(operand)
	if err != nil {
		return false
	}
	// Single-letter schemes are Windows drive letters.
	return len(u.Scheme) > 1 && u.Host != ""
}

// Resolve returns a local path for operand, downloading it when remote.
func (r *Resolver) Resolve(ctx context.Context, operand string) (*Local, error) {
	if !IsRemote(operand) {
		return &Local{Path: operand}, nil
	}

	u, err := url.Parse(operand)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	var body io.ReadCloser
	switch u.Scheme {
	case "http", "https":
		body, err = r.openHTTP(ctx, operand)
	case "s3":
		body, err = r.openS3(ctx, u)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
	}
	if err != nil {
		return nil, err
	}
	defer body.Close()

	local, err := r.writeTemp(ctx, body, path.Base(u.Path))
	if err != nil {
		return nil, err
	}
	r.logger.Debug("fetched remote raster", "url", operand, "path", local.Path)
	return local, nil
}

func (r *Resolver) openHTTP(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download raster: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to download raster: unexpected status code %d", resp.StatusCode)
	}
	return resp.Body, nil
}

func (r *Resolver) openS3(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	if r.s3Client == nil {
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		r.s3Client = s3.NewFromConfig(cfg)
	}

	bucket := u.Host
	key := strings.TrimPrefix(u.Path, "/")

	result, err := r.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download from S3: %w", err)
	}
	return result.Body, nil
}

// writeTemp copies src into a fresh temporary directory, keeping the remote
// base name so extension-based sidecar lookup still works.
func (r *Resolver) writeTemp(ctx context.Context, src io.Reader, name string) (_ *Local, err error) {
	dir, err := os.MkdirTemp(r.tempDir, "raster-extent-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary directory: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(dir) }
	defer func() {
		if err != nil {
			cleanup()
		}
	}()

	if name == "" || name == "." || name == "/" {
		name = "raster"
	}
	dest := filepath.Join(dir, name)

	out, err := os.Create(dest)
	if err != nil {
		return nil, fmt.Errorf("failed to create destination file: %w", err)
	}
	if _, err = copyWithContext(ctx, out, src); err != nil {
		out.Close()
		return nil, fmt.Errorf("failed to write raster to file: %w", err)
	}
	if err = out.Close(); err != nil {
		return nil, fmt.Errorf("failed to write raster to file: %w", err)
	}
	return &Local{Path: dest, release: cleanup}, nil
}

func copyWithContext(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	const bufferSize = 32 * 1024
	buf := make([]byte, bufferSize)
	var written int64

	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		n, readErr := src.Read(buf)
		if n > 0 {
			w, writeErr := dst.Write(buf[:n])
			if writeErr != nil {
				return written, writeErr
			}
			if w != n {
				return written, io.ErrShortWrite
			}
			written += int64(w)
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return written, nil
			}
			return written, readErr
		}
	}
}
