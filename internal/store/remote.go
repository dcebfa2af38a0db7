package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dgallion1/reportforge/internal/compose"
)

// Remote fetches artifacts from an external asset service over HTTP.
// Tables are served as JSON, chart images as raw bytes.
type Remote struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// RemoteError is a non-404 failure from the asset service. Callers use the
// status to decide whether a retry can help.
type RemoteError struct {
	Status int
	Op     string
	Name   string
	Body   string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s %q: status %d: %s", e.Op, e.Name, e.Status, e.Body)
}

// Retryable reports whether the failure is transient (throttling or a server
// error) rather than a caller mistake.
func (e *RemoteError) Retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// NewRemote returns a client for the asset service at baseURL. A zero timeout
// falls back to 30 seconds.
func NewRemote(baseURL, token string, timeout time.Duration) *Remote {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Remote{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchTable implements Source.
func (r *Remote) FetchTable(ctx context.Context, name string) (compose.TableArtifact, error) {
	resp, err := r.get(ctx, "/artifacts/tables/"+url.PathEscape(name))
	if err != nil {
		return compose.TableArtifact{}, fmt.Errorf("fetch table: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return compose.TableArtifact{}, &compose.NotFoundError{Kind: compose.KindTable, Name: name}
	}
	if resp.StatusCode != http.StatusOK {
		return compose.TableArtifact{}, remoteErr(resp, "fetch table", name)
	}

	var a compose.TableArtifact
	if err := json.NewDecoder(resp.Body).Decode(&a); err != nil {
		return compose.TableArtifact{}, fmt.Errorf("decode table %q: %w", name, err)
	}
	return a, nil
}

// FetchChart implements Source. The response body is the encoded image.
func (r *Remote) FetchChart(ctx context.Context, name string) (compose.ChartArtifact, error) {
	resp, err := r.get(ctx, "/artifacts/charts/"+url.PathEscape(name))
	if err != nil {
		return compose.ChartArtifact{}, fmt.Errorf("fetch chart: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return compose.ChartArtifact{}, &compose.NotFoundError{Kind: compose.KindChart, Name: name}
	}
	if resp.StatusCode != http.StatusOK {
		return compose.ChartArtifact{}, remoteErr(resp, "fetch chart", name)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return compose.ChartArtifact{}, fmt.Errorf("read chart %q: %w", name, err)
	}
	return compose.ChartArtifact{Image: name + ".png", Data: data}, nil
}

func (r *Remote) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	return r.httpClient.Do(req)
}

// Close releases idle connections.
func (r *Remote) Close() {
	r.httpClient.CloseIdleConnections()
}

func remoteErr(resp *http.Response, op, name string) *RemoteError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return &RemoteError{
		Status: resp.StatusCode,
		Op:     op,
		Name:   name,
		Body:   string(body),
	}
}
