package translator

import (
	"context"
	"time"
)

type ServiceConfig struct {
	Credentials string        `mapstructure:"credentials" json:"credentials"`
	AuthKey     string        `mapstructure:"auth_key" json:"-"`
	BaseURL     string        `mapstructure:"base_url" json:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout" json:"timeout"`
	ProjectID   string        `mapstructure:"project_id" json:"project_id"`
}

type TranslateRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

type ServiceResult struct {
	ServiceName    string            `json:"service_name"`
	TranslatedText string            `json:"translated_text"`
	DetectedLang   string            `json:"detected_lang,omitempty"`
	Metadata       map[string]string `json:"metadata"`
	Latency        time.Duration     `json:"latency"`
	Error          string            `json:"error,omitempty"`
}

type TranslationService interface {
	Name() string
	Translate(ctx context.Context, cfg ServiceConfig, req TranslateRequest) (*ServiceResult, error)
	IsAvailable(ctx context.Context) error
	SupportedLanguages(ctx context.Context) ([]string, error)
}

// Translation is one entry of the translations list returned by DeepL.
type Translation struct {
	DetectedSourceLanguage string `json:"detected_source_language"`
	Text                   string `json:"text"`
}

// Outcome is the result of a single call to the translation endpoint.
// It is either Success or Failure.
type Outcome interface {
	isOutcome()
}

// Success holds the decoded body of an HTTP 200 response.
type Success struct {
	Translations []Translation `json:"translations"`
}

// First returns the first translation, or ErrNoTranslation when the list is empty.
func (s Success) First() (Translation, error) {
	if len(s.Translations) == 0 {
		return Translation{}, ErrNoTranslation
	}
	return s.Translations[0], nil
}

// Failure holds the status code and raw body of any non-200 response.
type Failure struct {
	StatusCode int
	Body       string
}

func (Success) isOutcome() {}
func (Failure) isOutcome() {}
