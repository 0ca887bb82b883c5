package translator

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newTestDeepL(server *httptest.Server, key string) *DeepLService {
	return &DeepLService{
		authKey: key,
		baseURL: server.URL,
		client:  server.Client(),
	}
}

var sampleRequest = TranslateRequest{
	Text:       "你好，世界！",
	SourceLang: "ZH",
	TargetLang: "EN",
}

func TestDeepLService_Translate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"translations":[{"detected_source_language":"ZH","text":"Hello, world!"}]}`))
	}))
	defer server.Close()

	svc := newTestDeepL(server, "test-key")

	result, err := svc.Translate(context.Background(), ServiceConfig{}, sampleRequest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TranslatedText != "Hello, world!" {
		t.Errorf("expected 'Hello, world!', got %q", result.TranslatedText)
	}
	if result.DetectedLang != "ZH" {
		t.Errorf("expected detected language ZH, got %q", result.DetectedLang)
	}
	if result.ServiceName != "deepl" {
		t.Errorf("expected service name 'deepl', got %q", result.ServiceName)
	}
}

func TestDeepLService_Do_RequestShape(t *testing.T) {
	var gotAuth, gotMethod, gotPath, gotContentType string
	var gotKeys []string
	var gotForm map[string][]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		if err := r.ParseForm(); err != nil {
			t.Errorf("failed to parse form: %v", err)
		}
		gotForm = r.PostForm
		for k := range r.PostForm {
			gotKeys = append(gotKeys, k)
		}
		w.Write([]byte(`{"translations":[{"text":"Hello, world!"}]}`))
	}))
	defer server.Close()

	svc := newTestDeepL(server, "secret-key:fx")

	if _, err := svc.Do(context.Background(), sampleRequest); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAuth != "DeepL-Auth-Key secret-key:fx" {
		t.Errorf("unexpected Authorization header %q", gotAuth)
	}
	if gotMethod != http.MethodPost {
		t.Errorf("expected POST, got %s", gotMethod)
	}
	if gotPath != "/v2/translate" {
		t.Errorf("expected /v2/translate, got %s", gotPath)
	}
	if !strings.HasPrefix(gotContentType, "application/x-www-form-urlencoded") {
		t.Errorf("expected form content type, got %q", gotContentType)
	}

	sort.Strings(gotKeys)
	if strings.Join(gotKeys, ",") != "source_lang,target_lang,text" {
		t.Errorf("expected exactly text, source_lang, target_lang; got %v", gotKeys)
	}
	if got := gotForm["text"]; len(got) != 1 || got[0] != "你好，世界！" {
		t.Errorf("unexpected text field %v", got)
	}
	if got := gotForm["source_lang"]; len(got) != 1 || got[0] != "ZH" {
		t.Errorf("unexpected source_lang field %v", got)
	}
	if got := gotForm["target_lang"]; len(got) != 1 || got[0] != "EN" {
		t.Errorf("unexpected target_lang field %v", got)
	}
}

func TestDeepLService_Do_AutoSourceLang(t *testing.T) {
	var hasSource bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		_, hasSource = r.PostForm["source_lang"]
		w.Write([]byte(`{"translations":[{"detected_source_language":"DE","text":"Hello"}]}`))
	}))
	defer server.Close()

	svc := newTestDeepL(server, "test-key")

	_, err := svc.Do(context.Background(), TranslateRequest{Text: "Hallo", SourceLang: "auto", TargetLang: "EN"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hasSource {
		t.Error("expected source_lang to be omitted for auto detection")
	}
}

func TestDeepLService_Do_Failure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("Forbidden"))
	}))
	defer server.Close()

	svc := newTestDeepL(server, "bad-key")

	outcome, err := svc.Do(context.Background(), sampleRequest)
	if err != nil {
		t.Fatalf("expected no error for non-200 outcome, got %v", err)
	}

	failure, ok := outcome.(Failure)
	if !ok {
		t.Fatalf("expected Failure, got %T", outcome)
	}
	if failure.StatusCode != http.StatusForbidden {
		t.Errorf("expected status 403, got %d", failure.StatusCode)
	}
	if failure.Body != "Forbidden" {
		t.Errorf("expected body 'Forbidden', got %q", failure.Body)
	}
}

func TestDeepLService_Translate_RemoteError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(456)
		w.Write([]byte(`{"message":"Quota exceeded"}`))
	}))
	defer server.Close()

	svc := newTestDeepL(server, "test-key")

	result, err := svc.Translate(context.Background(), ServiceConfig{}, sampleRequest)
	if err == nil {
		t.Fatal("expected error for non-OK status")
	}

	var rerr *RemoteError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected *RemoteError, got %T", err)
	}
	if rerr.StatusCode != 456 {
		t.Errorf("expected status 456, got %d", rerr.StatusCode)
	}
	if result == nil || result.Error == "" {
		t.Error("expected error message in result")
	}
}

func TestDeepLService_Translate_EmptyTranslations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"translations":[]}`))
	}))
	defer server.Close()

	svc := newTestDeepL(server, "test-key")

	result, err := svc.Translate(context.Background(), ServiceConfig{}, sampleRequest)
	if !errors.Is(err, ErrNoTranslation) {
		t.Fatalf("expected ErrNoTranslation, got %v", err)
	}
	if result == nil {
		t.Fatal("expected non-nil result")
	}
	if result.TranslatedText != "" {
		t.Errorf("expected empty translation, got %q", result.TranslatedText)
	}
}

func TestDeepLService_Do_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	svc := newTestDeepL(server, "test-key")

	if _, err := svc.Do(context.Background(), sampleRequest); err == nil {
		t.Error("expected decode error")
	}
}

func TestDeepLService_MissingKey_NoNetworkCall(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	svc := newTestDeepL(server, "")

	result, err := svc.Translate(context.Background(), ServiceConfig{}, sampleRequest)
	if !errors.Is(err, ErrMissingAuthKey) {
		t.Fatalf("expected ErrMissingAuthKey, got %v", err)
	}
	if result == nil || result.Error == "" {
		t.Error("expected error message in result")
	}

	if _, err := svc.Usage(context.Background()); !errors.Is(err, ErrMissingAuthKey) {
		t.Errorf("expected ErrMissingAuthKey from Usage, got %v", err)
	}
	if _, err := svc.SupportedLanguages(context.Background()); !errors.Is(err, ErrMissingAuthKey) {
		t.Errorf("expected ErrMissingAuthKey from SupportedLanguages, got %v", err)
	}

	if n := calls.Load(); n != 0 {
		t.Errorf("expected no network calls, got %d", n)
	}
}

func TestDeepLService_Translate_ConfigKeyFallback(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"translations":[{"text":"Hello, world!"}]}`))
	}))
	defer server.Close()

	svc := newTestDeepL(server, "")

	_, err := svc.Translate(context.Background(), ServiceConfig{AuthKey: "cfg-key"}, sampleRequest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "DeepL-Auth-Key cfg-key" {
		t.Errorf("unexpected Authorization header %q", gotAuth)
	}
}

func TestDeepLService_Usage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/usage" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"character_count":180118,"character_limit":500000}`))
	}))
	defer server.Close()

	svc := newTestDeepL(server, "test-key")

	usage, err := svc.Usage(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if usage.CharacterCount != 180118 || usage.CharacterLimit != 500000 {
		t.Errorf("unexpected usage %+v", usage)
	}
	if err := svc.IsAvailable(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestDeepLService_IsAvailable_Forbidden(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	svc := newTestDeepL(server, "bad-key")

	err := svc.IsAvailable(context.Background())
	var rerr *RemoteError
	if !errors.As(err, &rerr) || rerr.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 RemoteError, got %v", err)
	}
}

func TestDeepLService_SupportedLanguages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("type") != "target" {
			t.Errorf("expected type=target, got %q", r.URL.RawQuery)
		}
		w.Write([]byte(`[{"language":"EN-GB","name":"English (British)"},{"language":"ZH","name":"Chinese"}]`))
	}))
	defer server.Close()

	svc := newTestDeepL(server, "test-key")

	langs, err := svc.SupportedLanguages(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(langs) != 2 || langs[0] != "EN-GB" || langs[1] != "ZH" {
		t.Errorf("unexpected languages %v", langs)
	}
}

func TestDeepLBaseURL(t *testing.T) {
	if got := DeepLBaseURL("abc:fx"); got != DeepLFreeURL {
		t.Errorf("expected free URL for :fx key, got %s", got)
	}
	if got := DeepLBaseURL("abc"); got != DeepLProURL {
		t.Errorf("expected pro URL, got %s", got)
	}
}

func TestDeepLService_Endpoint_DerivedFromKey(t *testing.T) {
	svc := NewDeepLService("abc:fx", "", 0)
	if got := svc.endpoint("/v2/translate"); got != DeepLFreeURL+"/v2/translate" {
		t.Errorf("unexpected endpoint %s", got)
	}

	svc = NewDeepLService("abc", "https://example.test/", 0)
	if got := svc.endpoint("/v2/translate"); got != "https://example.test/v2/translate" {
		t.Errorf("unexpected endpoint %s", got)
	}
}

func TestDeepLService_Name(t *testing.T) {
	svc := NewDeepLService("test-key", "", 0)

	if svc.Name() != "deepl" {
		t.Errorf("expected 'deepl', got %q", svc.Name())
	}
}

func TestSuccess_First_Empty(t *testing.T) {
	_, err := Success{}.First()
	if !errors.Is(err, ErrNoTranslation) {
		t.Errorf("expected ErrNoTranslation, got %v", err)
	}
}

func TestNewDeepLService_Timeout(t *testing.T) {
	if got := NewDeepLService("k", "", 0).Timeout(); got != DefaultTimeout {
		t.Errorf("expected default timeout %s, got %s", DefaultTimeout, got)
	}
	if got := NewDeepLService("k", "", 2*time.Minute).Timeout(); got != 2*time.Minute {
		t.Errorf("expected 2m timeout, got %s", got)
	}
}

func TestDeepLService_Translate_ConfiguredTimeoutOutlastsClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(150 * time.Millisecond)
		w.Write([]byte(`{"translations":[{"text":"Hello, world!"}]}`))
	}))
	defer server.Close()

	svc := newTestDeepL(server, "test-key")
	svc.client.Timeout = 50 * time.Millisecond

	result, err := svc.Translate(context.Background(), ServiceConfig{Timeout: 5 * time.Second}, sampleRequest)
	if err != nil {
		t.Fatalf("expected the configured timeout to apply, got %v", err)
	}
	if result.TranslatedText != "Hello, world!" {
		t.Errorf("expected 'Hello, world!', got %q", result.TranslatedText)
	}
	if svc.client.Timeout != 50*time.Millisecond {
		t.Errorf("service client was modified: %s", svc.client.Timeout)
	}
}
