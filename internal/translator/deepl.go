package translator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DeepLFreeURL = "https://api-free.deepl.com"
	DeepLProURL  = "https://api.deepl.com"

	// DefaultTimeout bounds a DeepL call when no timeout is configured.
	DefaultTimeout = 30 * time.Second

	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 8 * 1024 * 1024
)

// DeepLBaseURL picks the API host for authKey. DeepL free-tier keys end in ":fx".
func DeepLBaseURL(authKey string) string {
	if strings.HasSuffix(strings.TrimSpace(authKey), ":fx") {
		return DeepLFreeURL
	}
	return DeepLProURL
}

type DeepLService struct {
	authKey string
	baseURL string
	client  *http.Client
}

// NewDeepLService returns a DeepL client. An empty baseURL is derived from
// the key with DeepLBaseURL; a non-positive timeout means DefaultTimeout.
func NewDeepLService(authKey, baseURL string, timeout time.Duration) *DeepLService {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &DeepLService{
		authKey: strings.TrimSpace(authKey),
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Timeout is the per-request bound of the underlying HTTP client.
func (s *DeepLService) Timeout() time.Duration {
	return s.client.Timeout
}

// withConfig applies the key and timeout from cfg where they differ from the
// service's own settings. s is never modified.
func (s *DeepLService) withConfig(cfg ServiceConfig) *DeepLService {
	svc := s
	if s.authKey == "" && strings.TrimSpace(cfg.AuthKey) != "" {
		svc = &DeepLService{authKey: strings.TrimSpace(cfg.AuthKey), baseURL: s.baseURL, client: s.client}
	}
	if cfg.Timeout > 0 && cfg.Timeout != svc.client.Timeout {
		client := *svc.client
		client.Timeout = cfg.Timeout
		svc = &DeepLService{authKey: svc.authKey, baseURL: svc.baseURL, client: &client}
	}
	return svc
}

func (s *DeepLService) Name() string {
	return "deepl"
}

func (s *DeepLService) endpoint(path string) string {
	base := s.baseURL
	if base == "" {
		base = DeepLBaseURL(s.authKey)
	}
	return base + path
}

func (s *DeepLService) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	if s.authKey == "" {
		return nil, ErrMissingAuthKey
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, s.endpoint(path), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "DeepL-Auth-Key "+s.authKey)
	return httpReq, nil
}

// Do sends one translation request and returns the raw outcome.
// A non-200 status is reported as Failure with a nil error; err is set only
// when no response was obtained or a 200 body could not be decoded.
func (s *DeepLService) Do(ctx context.Context, req TranslateRequest) (Outcome, error) {
	form := url.Values{}
	form.Set("text", req.Text)
	if req.SourceLang != "" && !strings.EqualFold(req.SourceLang, "auto") {
		form.Set("source_lang", req.SourceLang)
	}
	form.Set("target_lang", req.TargetLang)

	httpReq, err := s.newRequest(ctx, http.MethodPost, "/v2/translate", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body := io.LimitReader(resp.Body, maxResponseBytes)

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(body)
		return Failure{StatusCode: resp.StatusCode, Body: string(raw)}, nil
	}

	var success Success
	if err := json.NewDecoder(body).Decode(&success); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return success, nil
}

func (s *DeepLService) Translate(ctx context.Context, cfg ServiceConfig, req TranslateRequest) (*ServiceResult, error) {
	result := &ServiceResult{ServiceName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	svc := s.withConfig(cfg)
	outcome, err := svc.Do(ctx, req)
	if err != nil {
		result.Error = err.Error()
		return result, err
	}

	switch o := outcome.(type) {
	case Failure:
		rerr := &RemoteError{StatusCode: o.StatusCode, Body: o.Body}
		result.Error = rerr.Error()
		return result, rerr
	case Success:
		first, err := o.First()
		if err != nil {
			result.Error = err.Error()
			return result, err
		}
		result.TranslatedText = first.Text
		result.DetectedLang = first.DetectedSourceLanguage
		result.Metadata = map[string]string{"endpoint": svc.endpoint("")}
		return result, nil
	default:
		return result, fmt.Errorf("unexpected outcome %T", outcome)
	}
}

// Usage is the account's character quota for the current billing period.
type Usage struct {
	CharacterCount int64 `json:"character_count"`
	CharacterLimit int64 `json:"character_limit"`
}

func (s *DeepLService) Usage(ctx context.Context) (*Usage, error) {
	httpReq, err := s.newRequest(ctx, http.MethodGet, "/v2/usage", nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body := io.LimitReader(resp.Body, maxResponseBytes)
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(body)
		return nil, &RemoteError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var usage Usage
	if err := json.NewDecoder(body).Decode(&usage); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &usage, nil
}

func (s *DeepLService) IsAvailable(ctx context.Context) error {
	_, err := s.Usage(ctx)
	return err
}

func (s *DeepLService) SupportedLanguages(ctx context.Context) ([]string, error) {
	httpReq, err := s.newRequest(ctx, http.MethodGet, "/v2/languages?type=target", nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body := io.LimitReader(resp.Body, maxResponseBytes)
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(body)
		return nil, &RemoteError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var langs []struct {
		Language string `json:"language"`
		Name     string `json:"name"`
	}
	if err := json.NewDecoder(body).Decode(&langs); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	codes := make([]string, 0, len(langs))
	for _, l := range langs {
		codes = append(codes, l.Language)
	}
	return codes, nil
}
