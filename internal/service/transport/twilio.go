package transport

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/twilio/twilio-go"
	"github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"

	"github.com/zhouzirui/shopbot/backend/internal/config"
)

const defaultTwilioBaseURL = "https://api.twilio.com"

// TwilioSender posts WhatsApp messages through the Twilio Messages API.
type TwilioSender struct {
	from       string
	accountSID string
	rest       *twilio.RestClient
	logger     *zap.Logger
}

// NewTwilioSender returns ErrNotConfigured when credentials are missing.
// A BaseURL other than the public API host redirects every call to it.
func NewTwilioSender(cfg config.TwilioConfig, httpClient *http.Client, logger *zap.Logger) (*TwilioSender, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	hc := &http.Client{Timeout: 15 * time.Second}
	if httpClient != nil {
		copied := *httpClient
		hc = &copied
	}
	if base := strings.TrimRight(cfg.BaseURL, "/"); base != "" && base != defaultTwilioBaseURL {
		target, err := url.Parse(base)
		if err != nil || target.Host == "" {
			return nil, fmt.Errorf("invalid twilio base url %q", cfg.BaseURL)
		}
		next := hc.Transport
		if next == nil {
			next = http.DefaultTransport
		}
		hc.Transport = rewriteHost{target: target, next: next}
	}

	httpAPI := &client.Client{
		Credentials: client.NewCredentials(cfg.AccountSID, cfg.AuthToken),
		HTTPClient:  hc,
	}
	httpAPI.SetAccountSid(cfg.AccountSID)

	return &TwilioSender{
		from:       whatsappAddress(cfg.From),
		accountSID: cfg.AccountSID,
		rest:       twilio.NewRestClientWithParams(twilio.ClientParams{Client: httpAPI}),
		logger:     logger.Named("twilio"),
	}, nil
}

// Send delivers text to the WhatsApp identity to. The SDK call takes no
// context, so ctx is only checked before sending; the client timeout bounds
// the request.
func (s *TwilioSender) Send(ctx context.Context, to, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &openapi.CreateMessageParams{}
	params.SetPathAccountSid(s.accountSID)
	params.SetFrom(s.from)
	params.SetTo(whatsappAddress(to))
	params.SetBody(text)

	msg, err := s.rest.Api.CreateMessage(params)
	if err != nil {
		s.logger.Warn("twilio rejected message", zap.String("to", to), zap.Error(err))
		return fmt.Errorf("send whatsapp message: %w", err)
	}

	sid := ""
	if msg != nil && msg.Sid != nil {
		sid = *msg.Sid
	}
	s.logger.Debug("message sent", zap.String("to", to), zap.String("sid", sid))
	return nil
}

// rewriteHost sends requests built for the public API host to target.
type rewriteHost struct {
	target *url.URL
	next   http.RoundTripper
}

func (t rewriteHost) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.URL.Scheme = t.target.Scheme
	out.URL.Host = t.target.Host
	out.Host = t.target.Host
	return t.next.RoundTrip(out)
}

func whatsappAddress(number string) string {
	if strings.HasPrefix(number, whatsappPrefix) {
		return number
	}
	return whatsappPrefix + number
}
