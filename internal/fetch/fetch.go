package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
)

// MaxManifestSize limita el cuerpo que se acepta de un manifest (1 MiB).
const MaxManifestSize = 1 << 20

// ErrRetrieval indica que no se pudieron obtener los bytes (red, status, archivo).
var ErrRetrieval = errors.New("fetch: retrieval failed")

// Fetcher obtiene el documento en u. Las implementaciones no reintentan ni cachean.
type Fetcher interface {
	Fetch(ctx context.Context, u *url.URL) ([]byte, error)
}

// HTTPFetcher es el Fetcher por defecto: un GET sobre HTTPS.
type HTTPFetcher struct {
	Client    *http.Client
	UserAgent string
}

// NewHTTPFetcher crea un fetcher con timeout y que rechaza redirects fuera de https.
func NewHTTPFetcher(timeout time.Duration, userAgent string) *HTTPFetcher {
	return &HTTPFetcher{
		Client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if req.URL.Scheme != "https" {
					return fmt.Errorf("refusing redirect to %s", req.URL.Redacted())
				}
				if len(via) >= 5 {
					return errors.New("stopped after 5 redirects")
				}
				return nil
			},
		},
		UserAgent: userAgent,
	}
}

func (f *HTTPFetcher) client() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return http.DefaultClient
}

// Fetch hace GET de u y retorna el cuerpo completo.
// Status no-2xx, cuerpo mayor a MaxManifestSize o esquema distinto de https son errores.
func (f *HTTPFetcher) Fetch(ctx context.Context, u *url.URL) ([]byte, error) {
	if u == nil || u.Scheme != "https" {
		return nil, fmt.Errorf("%w: manifest must be fetched over https", ErrRetrieval)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrRetrieval, err)
	}
	req.Header.Set("Accept", "application/json")
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	resp, err := f.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrieval, err)
	}
	defer resp.Body.Close()

	if resp.Request != nil && resp.Request.URL.Scheme != "https" {
		return nil, fmt.Errorf("%w: final address %s is not https", ErrRetrieval, resp.Request.URL.Redacted())
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("%w: GET %s: status=%d", ErrRetrieval, u.Redacted(), resp.StatusCode)
	}

	return readLimited(resp.Body)
}

// ReadFile lee un manifest local.
func ReadFile(path string) ([]byte, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open manifest file: %v", ErrRetrieval, err)
	}
	defer fh.Close()
	return readLimited(fh)
}

func readLimited(r io.Reader) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, MaxManifestSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrRetrieval, err)
	}
	if len(b) > MaxManifestSize {
		return nil, fmt.Errorf("%w: manifest larger than %d bytes", ErrRetrieval, MaxManifestSize)
	}
	return b, nil
}
