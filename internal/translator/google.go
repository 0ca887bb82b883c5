package translator

import (
	"context"
	"fmt"
	"strings"
	"time"

	translate "cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/option"
)

// GoogleService translates through Google Cloud Translation. Credentials come
// from a credentials file or the application default credentials; projectID,
// when set, is billed as the quota project.
type GoogleService struct {
	credentials string
	projectID   string
}

func NewGoogleService(credentials, projectID string) *GoogleService {
	return &GoogleService{credentials: credentials, projectID: projectID}
}

func (s *GoogleService) Name() string {
	return "google"
}

// ParseLang converts a DeepL-style code such as "ZH" or "EN-GB" into a
// language tag. An empty or "auto" code yields language.Und.
func ParseLang(code string) (language.Tag, error) {
	code = strings.TrimSpace(code)
	if code == "" || strings.EqualFold(code, "auto") {
		return language.Und, nil
	}
	return language.Parse(code)
}

func (s *GoogleService) Translate(ctx context.Context, cfg ServiceConfig, req TranslateRequest) (*ServiceResult, error) {
	result := &ServiceResult{ServiceName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	targetTag, err := ParseLang(req.TargetLang)
	if err != nil || targetTag == language.Und {
		result.Error = fmt.Sprintf("invalid target language: %q", req.TargetLang)
		return result, fmt.Errorf("invalid target language: %q", req.TargetLang)
	}

	sourceTag, err := ParseLang(req.SourceLang)
	if err != nil {
		result.Error = fmt.Sprintf("invalid source language: %v", err)
		return result, fmt.Errorf("invalid source language: %w", err)
	}

	client, err := translate.NewClient(ctx, s.clientOptions(cfg)...)
	if err != nil {
		result.Error = fmt.Sprintf("failed to create client: %v", err)
		return result, fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	var topts *translate.Options
	if sourceTag != language.Und {
		topts = &translate.Options{Source: sourceTag, Format: translate.Text}
	}

	translations, err := client.Translate(ctx, []string{req.Text}, targetTag, topts)
	if err != nil {
		result.Error = fmt.Sprintf("translation failed: %v", err)
		return result, fmt.Errorf("translation failed: %w", err)
	}

	if len(translations) == 0 {
		result.Error = ErrNoTranslation.Error()
		return result, ErrNoTranslation
	}

	result.TranslatedText = translations[0].Text
	if translations[0].Source != language.Und {
		result.DetectedLang = strings.ToUpper(translations[0].Source.String())
	}

	return result, nil
}

// clientOptions builds the client options, preferring values from cfg over
// the ones the service was constructed with.
func (s *GoogleService) clientOptions(cfg ServiceConfig) []option.ClientOption {
	credentials, projectID := s.credentials, s.projectID
	if cfg.Credentials != "" {
		credentials = cfg.Credentials
	}
	if cfg.ProjectID != "" {
		projectID = cfg.ProjectID
	}

	var opts []option.ClientOption
	if credentials != "" {
		opts = append(opts, option.WithCredentialsFile(credentials))
	}
	if projectID != "" {
		opts = append(opts, option.WithQuotaProject(projectID))
	}
	return opts
}

func (s *GoogleService) IsAvailable(ctx context.Context) error {
	return nil
}

func (s *GoogleService) SupportedLanguages(ctx context.Context) ([]string, error) {
	client, err := translate.NewClient(ctx, s.clientOptions(ServiceConfig{})...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	langs, err := client.SupportedLanguages(ctx, language.English)
	if err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(langs))
	for _, l := range langs {
		codes = append(codes, strings.ToUpper(l.Tag.String()))
	}
	return codes, nil
}
