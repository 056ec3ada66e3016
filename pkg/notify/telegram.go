package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/entrhq/autologin/pkg/logging"
)

const (
	defaultAPIBase = "https://api.telegram.org"
	defaultTimeout = 30 * time.Second

	// Telegram allows roughly one message per second per chat.
	defaultRate = 1.0
)

// Telegram delivers notifications through the Telegram Bot API using HTML parse mode.
type Telegram struct {
	token   string
	chatID  string
	apiBase string
	client  *http.Client
	limiter *rate.Limiter
	log     logging.Sink
}

// apiResponse is the envelope every Bot API method returns.
type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// NewTelegram creates a Telegram notifier.
func NewTelegram(cfg Config, log logging.Sink) *Telegram {
	if log == nil {
		log = logging.Discard
	}
	apiBase := strings.TrimRight(cfg.APIBase, "/")
	if apiBase == "" {
		apiBase = defaultAPIBase
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	perSecond := cfg.RatePerSecond
	if perSecond <= 0 {
		perSecond = defaultRate
	}

	return &Telegram{
		token:   cfg.BotToken,
		chatID:  cfg.ChatID,
		apiBase: apiBase,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
		log:     log,
	}
}

// SendText sends an HTML message. Failures are logged, never returned.
func (t *Telegram) SendText(ctx context.Context, message string) {
	if err := t.sendMessage(ctx, message); err != nil {
		t.log.Warnf("telegram message delivery failed: %v", err)
		return
	}
	t.log.Debugf("telegram message delivered (%d bytes)", len(message))
}

// SendImage sends the file at path as a photo with an HTML caption, then deletes it.
func (t *Telegram) SendImage(ctx context.Context, path, caption string) {
	defer removeArtifact(path, t.log)

	if err := t.sendPhoto(ctx, path, caption); err != nil {
		t.log.Warnf("telegram photo delivery failed: %v", err)
		return
	}
	t.log.Debugf("telegram photo delivered: %s", filepath.Base(path))
}

func (t *Telegram) sendMessage(ctx context.Context, message string) error {
	form := url.Values{}
	form.Set("chat_id", t.chatID)
	form.Set("text", message)
	form.Set("parse_mode", "HTML")
	form.Set("disable_web_page_preview", "true")

	return t.call(ctx, "sendMessage", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
}

func (t *Telegram) sendPhoto(ctx context.Context, path, caption string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open photo: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	fields := map[string]string{"chat_id": t.chatID}
	if caption != "" {
		fields["caption"] = caption
		fields["parse_mode"] = "HTML"
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return fmt.Errorf("failed to write field %s: %w", name, err)
		}
	}

	part, err := writer.CreateFormFile("photo", filepath.Base(path))
	if err != nil {
		return fmt.Errorf("failed to create photo part: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("failed to read photo: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finish multipart body: %w", err)
	}

	return t.call(ctx, "sendPhoto", writer.FormDataContentType(), &body)
}

// call posts body to a Bot API method and checks the response envelope.
func (t *Telegram) call(ctx context.Context, method, contentType string, body io.Reader) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/%s", t.apiBase, t.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := t.client.Do(req)
	if err != nil {
		// The URL carries the token; keep it out of logs.
		return fmt.Errorf("%s request failed: %w", method, redact(err, t.token))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", method, err)
	}

	var envelope apiResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("%s returned status %d with unreadable body", method, resp.StatusCode)
	}
	if !envelope.OK {
		return fmt.Errorf("%s rejected (status %d): %s", method, resp.StatusCode, envelope.Description)
	}
	return nil
}

// redact strips the bot token from an error message.
func redact(err error, token string) error {
	if token == "" {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), token, "<token>"))
}
