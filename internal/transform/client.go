package transform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mrz1836/transmute/internal/constants"
	"github.com/mrz1836/transmute/internal/errors"
	"github.com/mrz1836/transmute/internal/packager"
	"github.com/mrz1836/transmute/internal/telemetry"
)

// uploadMaxRetries bounds the retry loop around payload uploads. Client (4xx)
// responses are never retried.
const uploadMaxRetries = 3

// Client is the HTTP implementation of Service. Control-plane calls (status,
// steps, resume, stop) share one short-timeout http.Client; payload uploads
// and artifact downloads use a separate transfer client because archives can
// be large.
type Client struct {
	baseURL   string
	authToken string

	httpClient     *http.Client
	transferClient *http.Client

	logger    zerolog.Logger
	telemetry telemetry.Emitter
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the control-plane HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

// WithTransferClient overrides the HTTP client used for uploads and downloads.
func WithTransferClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		if c != nil {
			cl.transferClient = c
		}
	}
}

// WithAuthToken sets the bearer token sent on every service request.
func WithAuthToken(token string) ClientOption {
	return func(cl *Client) { cl.authToken = token }
}

// WithTelemetry sets the telemetry emitter. Defaults to telemetry.Noop.
func WithTelemetry(e telemetry.Emitter) ClientOption {
	return func(cl *Client) {
		if e != nil {
			cl.telemetry = e
		}
	}
}

// NewClient creates a Client for the transformation service at baseURL.
func NewClient(baseURL string, logger zerolog.Logger, opts ...ClientOption) *Client {
	cl := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		httpClient:     &http.Client{Timeout: constants.DefaultServiceTimeout},
		transferClient: &http.Client{Timeout: constants.DefaultTransferTimeout},
		logger:         logger.With().Str("component", "transform_client").Logger(),
		telemetry:      telemetry.Noop{},
	}
	for _, opt := range opts {
		opt(cl)
	}
	return cl
}

// Ensure Client implements Service.
var _ Service = (*Client)(nil)

// CreateUploadURL implements Service.
func (cl *Client) CreateUploadURL(ctx context.Context) (*UploadTarget, error) {
	var target UploadTarget
	err := cl.call(ctx, "create_upload_url", func(ctx context.Context) error {
		return cl.doJSON(ctx, http.MethodPost, "/v1/uploads", nil, &target)
	})
	if err != nil {
		return nil, err
	}
	return &target, nil
}

// UploadPayload implements Service. The archive is PUT to the pre-signed URL
// with bounded retries; 4xx responses fail immediately.
func (cl *Client) UploadPayload(ctx context.Context, path string, target *UploadTarget, uploadContext string) error {
	return cl.call(ctx, "upload_payload", func(ctx context.Context) error {
		info, err := os.Stat(path)
		if err != nil {
			return errors.Wrap(err, "payload not found")
		}

		var lastErr error
		for attempt := 0; attempt <= uploadMaxRetries; attempt++ {
			if err = ctx.Err(); err != nil {
				return err
			}
			if attempt > 0 {
				wait := time.Duration(1<<uint(attempt-1)) * time.Second
				cl.logger.Debug().
					Int("attempt", attempt).
					Dur("backoff", wait).
					Str("path", path).
					Msg("Retrying payload upload")
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(wait):
				}
			}

			lastErr = cl.putFile(ctx, target.URL, path, info.Size(), uploadContext)
			if lastErr == nil {
				return nil
			}
			if isClientError(lastErr) {
				return lastErr
			}
			cl.logger.Warn().
				Int("attempt", attempt).
				Err(lastErr).
				Msg("Payload upload failed")
		}
		return errors.Wrapf(lastErr, "upload failed after %d retries", uploadMaxRetries)
	})
}

// StartJob implements Service. A 429 from the service maps to
// ErrTooManyActiveJobs so the caller can present a distinct message.
func (cl *Client) StartJob(ctx context.Context, uploadID string) (string, error) {
	var out struct {
		JobID string `json:"job_id"`
	}
	req := map[string]string{"upload_id": uploadID}
	err := cl.call(ctx, "start_job", func(ctx context.Context) error {
		return cl.doJSON(ctx, http.MethodPost, "/v1/jobs", req, &out)
	})
	if err != nil {
		return "", err
	}
	return out.JobID, nil
}

// GetStatus implements Service.
func (cl *Client) GetStatus(ctx context.Context, jobID string) (JobStatus, error) {
	var out struct {
		Status string `json:"status"`
	}
	err := cl.call(ctx, "get_status", func(ctx context.Context) error {
		return cl.doJSON(ctx, http.MethodGet, "/v1/jobs/"+url.PathEscape(jobID)+"/status", nil, &out)
	})
	if err != nil {
		return "", err
	}
	return JobStatus(out.Status), nil
}

// GetPlan implements Service.
func (cl *Client) GetPlan(ctx context.Context, jobID string) (string, error) {
	var out struct {
		Plan string `json:"plan"`
	}
	err := cl.call(ctx, "get_plan", func(ctx context.Context) error {
		return cl.doJSON(ctx, http.MethodGet, "/v1/jobs/"+url.PathEscape(jobID)+"/plan", nil, &out)
	})
	if err != nil {
		return "", err
	}
	return out.Plan, nil
}

// GetSteps implements Service.
func (cl *Client) GetSteps(ctx context.Context, jobID string) ([]Step, error) {
	var out struct {
		Steps []Step `json:"steps"`
	}
	err := cl.call(ctx, "get_steps", func(ctx context.Context) error {
		return cl.doJSON(ctx, http.MethodGet, "/v1/jobs/"+url.PathEscape(jobID)+"/steps", nil, &out)
	})
	if err != nil {
		return nil, err
	}
	return out.Steps, nil
}

// DownloadArtifact implements Service. The artifact archive is streamed to
// disk, unpacked into destDir, and its manifest.json parsed. The returned
// descriptor path points at the extracted pom.xml copy, which the caller may
// rewrite freely.
func (cl *Client) DownloadArtifact(ctx context.Context, jobID, artifactID, destDir string) (*HILArtifact, error) {
	var artifact *HILArtifact
	err := cl.call(ctx, "download_artifact", func(ctx context.Context) error {
		archivePath := filepath.Join(destDir, "artifact.zip")
		if err := cl.getFile(ctx, "/v1/jobs/"+url.PathEscape(jobID)+"/artifacts/"+url.PathEscape(artifactID), archivePath); err != nil {
			return err
		}
		defer func() { _ = os.Remove(archivePath) }()

		extracted, err := packager.Unpack(archivePath, destDir)
		if err != nil {
			return errors.Wrap(err, "failed to unpack artifact")
		}

		parsed, err := parseHILArtifact(destDir, extracted)
		if err != nil {
			return err
		}
		artifact = parsed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return artifact, nil
}

// ResumeJob implements Service.
func (cl *Client) ResumeJob(ctx context.Context, jobID, outcome string) error {
	req := map[string]string{"outcome": outcome}
	return cl.call(ctx, "resume_job", func(ctx context.Context) error {
		return cl.doJSON(ctx, http.MethodPost, "/v1/jobs/"+url.PathEscape(jobID)+"/resume", req, nil)
	})
}

// StopJob implements Service.
func (cl *Client) StopJob(ctx context.Context, jobID string) error {
	return cl.call(ctx, "stop_job", func(ctx context.Context) error {
		return cl.doJSON(ctx, http.MethodPost, "/v1/jobs/"+url.PathEscape(jobID)+"/stop", nil, nil)
	})
}

// call runs one service operation, reporting its latency to telemetry and
// wrapping failures with ErrRemoteService. Context errors pass through
// unwrapped so cancellation stays distinguishable upstream.
func (cl *Client) call(ctx context.Context, operation string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	cl.telemetry.RemoteCall(operation, time.Since(start), err)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, errors.ErrTooManyActiveJobs) {
		return err
	}
	return errors.Wrapf(fmt.Errorf("%w: %w", errors.ErrRemoteService, err), "%s", operation)
}

// doJSON issues a JSON request against the service API and decodes the
// response body into out when out is non-nil.
func (cl *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "failed to encode request")
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, cl.baseURL+path, body)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	cl.decorate(req)

	resp, err := cl.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		return errors.ErrTooManyActiveJobs
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "failed to decode response")
	}
	return nil
}

// putFile streams the file at path to a pre-signed URL.
func (cl *Client) putFile(ctx context.Context, target, path string, size int64, uploadContext string) error {
	f, err := os.Open(path) //nolint:gosec // path is produced by the packager
	if err != nil {
		return errors.Wrap(err, "failed to open payload")
	}
	defer func() { _ = f.Close() }()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, f)
	if err != nil {
		return errors.Wrap(err, "failed to create upload request")
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", "application/octet-stream")
	if uploadContext != "" {
		req.Header.Set("X-Upload-Context", uploadContext)
	}

	resp, err := cl.transferClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		cl.logger.Debug().Int64("bytes", size).Msg("Uploaded payload")
		return nil
	}
	return statusError(resp)
}

// getFile downloads a service resource to destPath.
func (cl *Client) getFile(ctx context.Context, path, destPath string) (err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cl.baseURL+path, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create download request")
	}
	cl.decorate(req)

	resp, err := cl.transferClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp)
	}

	f, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gosec // destPath is inside the job work dir
	if err != nil {
		return errors.Wrap(err, "failed to create download file")
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if _, err = io.Copy(f, resp.Body); err != nil {
		return errors.Wrap(err, "failed to write download")
	}
	return nil
}

// decorate applies the headers every service request carries.
func (cl *Client) decorate(req *http.Request) {
	req.Header.Set("X-Request-ID", uuid.NewString())
	if cl.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+cl.authToken)
	}
}

// parseHILArtifact reads manifest.json from the extracted artifact files and
// locates the descriptor copy next to it.
func parseHILArtifact(destDir string, extracted []string) (*HILArtifact, error) {
	var manifestPath, descriptorPath string
	for _, name := range extracted {
		switch filepath.Base(name) {
		case constants.ManifestFileName:
			manifestPath = filepath.Join(destDir, name)
		case "pom.xml":
			descriptorPath = filepath.Join(destDir, name)
		}
	}
	if manifestPath == "" || descriptorPath == "" {
		return nil, errors.Wrap(errors.ErrManifestInvalid, "artifact missing manifest or descriptor")
	}

	raw, err := os.ReadFile(manifestPath) //nolint:gosec // path comes from controlled extraction
	if err != nil {
		return nil, errors.Wrap(err, "failed to read artifact manifest")
	}

	var manifest HILManifest
	if err = json.Unmarshal(raw, &manifest); err != nil {
		return nil, errors.Wrap(err, "failed to parse artifact manifest")
	}
	if manifest.PomGroupID == "" || manifest.PomArtifactID == "" || manifest.SourcePomVersion == "" {
		return nil, errors.Wrap(errors.ErrManifestInvalid, "manifest missing dependency coordinates")
	}

	return &HILArtifact{Manifest: manifest, DescriptorPath: descriptorPath}, nil
}

// httpStatusError carries a non-2xx service response.
type httpStatusError struct {
	statusCode int
	message    string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("service responded %d: %s", e.statusCode, e.message)
}

func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return &httpStatusError{statusCode: resp.StatusCode, message: strings.TrimSpace(string(raw))}
}

func isClientError(err error) bool {
	var se *httpStatusError
	if errors.As(err, &se) {
		return se.statusCode >= 400 && se.statusCode < 500
	}
	return false
}
