package twilio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	twilio "github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// ErrNotConfigured is returned for operations that need credentials when none are set.
var ErrNotConfigured = errors.New("twilio credentials are not configured")

const whatsappPrefix = "whatsapp:"

const mediaBaseURL = "https://api.twilio.com"

// Config holds account credentials and the sender number.
type Config struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	Logger     zerolog.Logger
}

// restAPI is the subset of the twilio-go v2010 API used here.
type restAPI interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
	CreateCall(params *twilioApi.CreateCallParams) (*twilioApi.ApiV2010Call, error)
	ListRecording(params *twilioApi.ListRecordingParams) ([]twilioApi.ApiV2010Recording, error)
}

// Client sends WhatsApp messages and places voice calls through Twilio.
type Client struct {
	api        restAPI
	cfg        Config
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient builds a client. Without credentials the client still constructs, and
// SendMessage degrades to a logged no-op.
func NewClient(cfg Config) *Client {
	c := &Client{
		cfg:        cfg,
		httpClient: http.DefaultClient,
		logger:     cfg.Logger.With().Str("component", "twilio_client").Logger(),
	}
	if cfg.AccountSID != "" && cfg.AuthToken != "" {
		rest := twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.AccountSID,
			Password: cfg.AuthToken,
		})
		c.api = rest.Api
	}
	return c
}

// Configured reports whether credentials were supplied.
func (c *Client) Configured() bool {
	return c.api != nil
}

// SendMessage delivers a WhatsApp message and returns its SID.
func (c *Client) SendMessage(ctx context.Context, to, body string) (string, error) {
	if !c.Configured() {
		c.logger.Warn().Str("to", to).Msg("twilio not configured, message not sent")
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(NormalizeWhatsApp(to))
	params.SetFrom(NormalizeWhatsApp(c.cfg.FromNumber))
	params.SetBody(body)

	resp, err := c.api.CreateMessage(params)
	if err != nil {
		return "", fmt.Errorf("send whatsapp message: %w", err)
	}

	sid := ""
	if resp != nil && resp.Sid != nil {
		sid = *resp.Sid
	}
	c.logger.Debug().Str("sid", sid).Str("to", to).Msg("whatsapp message sent")
	return sid, nil
}

// InitiateCall dials the number and points Twilio at callbackURL for TwiML and status updates.
func (c *Client) InitiateCall(ctx context.Context, to, callbackURL, statusCallbackURL string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	params := &twilioApi.CreateCallParams{}
	params.SetTo(StripWhatsApp(to))
	params.SetFrom(StripWhatsApp(c.cfg.FromNumber))
	params.SetUrl(callbackURL)
	params.SetRecord(true)
	if statusCallbackURL != "" {
		params.SetStatusCallback(statusCallbackURL)
		params.SetStatusCallbackEvent([]string{"initiated", "answered", "completed"})
	}

	resp, err := c.api.CreateCall(params)
	if err != nil {
		return "", fmt.Errorf("initiate call: %w", err)
	}
	if resp == nil || resp.Sid == nil {
		return "", errors.New("initiate call: empty call sid")
	}
	return *resp.Sid, nil
}

// LatestRecordingURL returns the media URL of the most recent recording of a call.
func (c *Client) LatestRecordingURL(ctx context.Context, callSID string) (string, bool, error) {
	if !c.Configured() {
		return "", false, ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	params := &twilioApi.ListRecordingParams{}
	params.SetCallSid(callSID)
	params.SetLimit(1)

	recordings, err := c.api.ListRecording(params)
	if err != nil {
		return "", false, fmt.Errorf("list recordings: %w", err)
	}
	if len(recordings) == 0 || recordings[0].Uri == nil {
		return "", false, nil
	}

	return recordingMediaURL(*recordings[0].Uri), true, nil
}

// DownloadRecording streams a recording's media. The caller closes the body.
func (c *Client) DownloadRecording(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if c.Configured() {
		req.SetBasicAuth(c.cfg.AccountSID, c.cfg.AuthToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download recording: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("download recording: unexpected status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

func recordingMediaURL(uri string) string {
	return mediaBaseURL + strings.TrimSuffix(uri, ".json") + ".mp3"
}

// NormalizeWhatsApp ensures the number carries the whatsapp: channel prefix.
func NormalizeWhatsApp(number string) string {
	number = strings.TrimSpace(number)
	if number == "" || strings.HasPrefix(number, whatsappPrefix) {
		return number
	}
	return whatsappPrefix + number
}

// StripWhatsApp removes the whatsapp: channel prefix.
func StripWhatsApp(number string) string {
	return strings.TrimPrefix(strings.TrimSpace(number), whatsappPrefix)
}
