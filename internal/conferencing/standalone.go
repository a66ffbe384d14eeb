package conferencing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/teemow/calsync/internal/domain"
	"github.com/teemow/calsync/internal/instrumentation"
	"github.com/teemow/calsync/internal/logging"
)

// Standalone provider defaults.
const (
	DefaultPlatformName = "Zoom"
	DefaultAPIURL       = "https://api.zoom.us/v2"
	DefaultTokenURL     = "https://zoom.us/oauth/token"
	DefaultRateLimit    = 10.0
	DefaultRateBurst    = 5
	DefaultTimeout      = 15 * time.Second

	// scheduledMeeting is the provider's meeting type for a meeting with a
	// fixed start time.
	scheduledMeeting = 2
)

// StandaloneConfig configures the standalone meeting provider.
type StandaloneConfig struct {
	AccountID    string
	ClientID     string
	ClientSecret string

	APIURL       string
	TokenURL     string
	PlatformName string

	// RateLimit is the sustained number of outbound requests per second.
	RateLimit float64
	RateBurst int
	Timeout   time.Duration
}

func (c StandaloneConfig) withDefaults() StandaloneConfig {
	c.AccountID = strings.TrimSpace(c.AccountID)
	c.ClientID = strings.TrimSpace(c.ClientID)
	c.ClientSecret = strings.TrimSpace(c.ClientSecret)
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	c.APIURL = strings.TrimRight(c.APIURL, "/")
	if c.TokenURL == "" {
		c.TokenURL = DefaultTokenURL
	}
	c.PlatformName = platformName(c.PlatformName)
	if c.RateLimit <= 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.RateBurst <= 0 {
		c.RateBurst = DefaultRateBurst
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// Validate checks that every credential is present and expanded.
func (c StandaloneConfig) Validate() error {
	c = c.withDefaults()
	creds := []struct{ name, value string }{
		{"account id", c.AccountID},
		{"client id", c.ClientID},
		{"client secret", c.ClientSecret},
	}
	var missing []string
	for _, cred := range creds {
		if isPlaceholder(cred.value) {
			return domain.ProviderMisconfiguredf("conferencing.credentials",
				"%s credential %s is an unexpanded placeholder", c.PlatformName, cred.name)
		}
		if cred.value == "" {
			missing = append(missing, cred.name)
		}
	}
	if len(missing) > 0 {
		return domain.ProviderMisconfiguredf("conferencing.credentials",
			"%s credentials are not fully configured: missing %s", c.PlatformName, strings.Join(missing, ", "))
	}
	return nil
}

func isPlaceholder(v string) bool {
	return strings.HasPrefix(v, "${") && strings.HasSuffix(v, "}")
}

func platformName(name string) string {
	if strings.TrimSpace(name) == "" {
		return DefaultPlatformName
	}
	return strings.TrimSpace(name)
}

// StandaloneProvider talks to a Zoom-style meetings API.
type StandaloneProvider struct {
	config  StandaloneConfig
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
	metrics *instrumentation.Metrics

	tokenOnce sync.Once
	tokens    oauth2.TokenSource
}

// NewStandaloneProvider builds the provider. Credentials are checked on
// every call, so a misconfigured provider can still be constructed. client
// may be nil.
func NewStandaloneProvider(config StandaloneConfig, client *http.Client, logger *slog.Logger, metrics *instrumentation.Metrics) *StandaloneProvider {
	config = config.withDefaults()
	if client == nil {
		client = &http.Client{Timeout: config.Timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StandaloneProvider{
		config:  config,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), config.RateBurst),
		logger:  logger.With(logging.Provider(instrumentation.ServiceStandalone)),
		metrics: metrics,
	}
}

func (p *StandaloneProvider) Type() domain.ConferenceType { return domain.ConferenceTypeStandalone }

// PlatformName returns the configured display name.
func (p *StandaloneProvider) PlatformName() string { return p.config.PlatformName }

func (p *StandaloneProvider) tokenSource() oauth2.TokenSource {
	p.tokenOnce.Do(func() {
		conf := &clientcredentials.Config{
			ClientID:     p.config.ClientID,
			ClientSecret: p.config.ClientSecret,
			TokenURL:     p.config.TokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
			EndpointParams: url.Values{
				"grant_type": {"account_credentials"},
				"account_id": {p.config.AccountID},
			},
		}
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, p.client)
		p.tokens = conf.TokenSource(ctx)
	})
	return p.tokens
}

func (p *StandaloneProvider) accessToken(ctx context.Context) (_ string, err error) {
	start := time.Now()
	defer func() {
		p.metrics.RecordExternalOperation(ctx, instrumentation.ServiceStandalone, instrumentation.OperationToken,
			instrumentation.StatusFor(err), time.Since(start))
	}()

	tok, err := p.tokenSource().Token()
	if err != nil {
		return "", fmt.Errorf("failed to get %s access token: %w", p.config.PlatformName, err)
	}
	return tok.AccessToken, nil
}

type createMeetingBody struct {
	Topic     string `json:"topic"`
	Type      int    `json:"type"`
	StartTime string `json:"start_time"`
	Duration  int    `json:"duration"`
	Timezone  string `json:"timezone"`
}

type createMeetingResponse struct {
	ID       json.Number `json:"id"`
	JoinURL  string      `json:"join_url"`
	Password string      `json:"password"`
}

// CreateMeeting schedules a meeting and returns its join details.
func (p *StandaloneProvider) CreateMeeting(ctx context.Context, req MeetingRequest) (m *Meeting, err error) {
	const op = "conferencing.create"
	if err := p.config.Validate(); err != nil {
		p.logger.Error("standalone meeting credentials are invalid", logging.Operation(op), logging.Err(err))
		return nil, err
	}

	duration := req.Duration
	if duration <= 0 {
		duration = DefaultMeetingDuration
	}
	body, err := json.Marshal(createMeetingBody{
		Topic:     req.Topic,
		Type:      scheduledMeeting,
		StartTime: req.Start.UTC().Format("2006-01-02T15:04:05Z"),
		Duration:  int(duration / time.Minute),
		Timezone:  "UTC",
	})
	if err != nil {
		return nil, domain.Internal(op, fmt.Errorf("failed to encode meeting request: %w", err))
	}

	ctx, span := instrumentation.StartConferencingSpan(ctx, instrumentation.ServiceStandalone, instrumentation.OperationCreate)
	start := time.Now()
	defer func() {
		p.metrics.RecordExternalOperation(ctx, instrumentation.ServiceStandalone, instrumentation.OperationCreate,
			instrumentation.StatusFor(err), time.Since(start))
		instrumentation.EndSpan(span, err)
	}()

	var out createMeetingResponse
	status, err := p.do(ctx, http.MethodPost, "/users/me/meetings", body, &out)
	if err != nil {
		p.logger.Error("failed to create standalone meeting", logging.Operation(op), logging.Err(err))
		return nil, domain.ExternalSyncFailure(op, "failed to create "+p.config.PlatformName+" meeting", err)
	}
	if status != http.StatusCreated && status != http.StatusOK {
		err = fmt.Errorf("unexpected status %d", status)
		return nil, domain.ExternalSyncFailure(op, "failed to create "+p.config.PlatformName+" meeting", err)
	}
	if out.JoinURL == "" {
		err = fmt.Errorf("response did not contain a join url")
		return nil, domain.ExternalSyncFailure(op, "failed to create "+p.config.PlatformName+" meeting", err)
	}

	p.logger.Info("standalone meeting created", logging.Operation(op), slog.String("meeting_id", out.ID.String()))
	return &Meeting{
		Type:         domain.ConferenceTypeStandalone,
		ID:           out.ID.String(),
		JoinURL:      out.JoinURL,
		Password:     out.Password,
		PlatformName: p.config.PlatformName,
	}, nil
}

// DeleteMeeting removes a meeting. A meeting that no longer exists counts
// as deleted.
func (p *StandaloneProvider) DeleteMeeting(ctx context.Context, meetingID string) (err error) {
	const op = "conferencing.delete"
	if err := p.config.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(meetingID) == "" {
		return domain.Validationf(op, "meeting id is required")
	}

	ctx, span := instrumentation.StartConferencingSpan(ctx, instrumentation.ServiceStandalone, instrumentation.OperationDelete)
	start := time.Now()
	defer func() {
		p.metrics.RecordExternalOperation(ctx, instrumentation.ServiceStandalone, instrumentation.OperationDelete,
			instrumentation.StatusFor(err), time.Since(start))
		instrumentation.EndSpan(span, err)
	}()

	status, err := p.do(ctx, http.MethodDelete, "/meetings/"+url.PathEscape(meetingID), nil, nil)
	if err != nil {
		p.logger.Error("failed to delete standalone meeting", logging.Operation(op),
			slog.String("meeting_id", meetingID), logging.Err(err))
		return domain.ExternalSyncFailure(op, "failed to delete "+p.config.PlatformName+" meeting "+meetingID, err)
	}
	switch status {
	case http.StatusNoContent, http.StatusOK:
		return nil
	case http.StatusNotFound:
		p.logger.Warn("standalone meeting already deleted", logging.Operation(op), slog.String("meeting_id", meetingID))
		return nil
	default:
		err = fmt.Errorf("unexpected status %d", status)
		return domain.ExternalSyncFailure(op, "failed to delete "+p.config.PlatformName+" meeting "+meetingID, err)
	}
}

// Describe formats the stored join details.
func (p *StandaloneProvider) Describe(_ context.Context, _ string, c *domain.Conference) Description {
	d := describeStored(c)
	if c != nil && c.PlatformName == "" {
		d.Platform = p.config.PlatformName
	}
	return d
}

// do sends an authenticated request. Non-2xx statuses other than 404 are
// returned as errors that include the response body.
func (p *StandaloneProvider) do(ctx context.Context, method, path string, body []byte, out any) (int, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rate limiter: %w", err)
	}
	token, err := p.accessToken(ctx)
	if err != nil {
		return 0, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, p.config.APIURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return resp.StatusCode, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return resp.StatusCode, fmt.Errorf("%s %s returned %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
