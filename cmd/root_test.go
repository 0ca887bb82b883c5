package cmd

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/zalando/go-keyring"

	"github.com/valpere/deepltr/internal/config"
	"github.com/valpere/deepltr/internal/translator"
)

// resetFlags restores every flag of cmd and its subcommands to its default.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// executeRoot runs the root command with args against a clean config, an
// empty keychain and no config file.
func executeRoot(t *testing.T, key string, args ...string) (string, error) {
	t.Helper()
	keyring.MockInit()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DEEPL_AUTH_KEY", key)
	t.Setenv("DEEPLTR_AUTH_KEY", "")

	vp = config.New()
	cfgFile = ""
	inputFile = ""
	appCfg = nil
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(append([]string{}, args...))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func TestRoot_Sample_NoKey(t *testing.T) {
	out, err := executeRoot(t, "")
	if !errors.Is(err, translator.ErrMissingAuthKey) {
		t.Fatalf("expected ErrMissingAuthKey, got %v", err)
	}
	if out != "" {
		t.Errorf("expected no output, got %q", out)
	}
}

func TestRoot_Sample_StubServer(t *testing.T) {
	var gotAuth, gotText, gotSource, gotTarget string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		r.ParseForm()
		gotText = r.PostForm.Get("text")
		gotSource = r.PostForm.Get("source_lang")
		gotTarget = r.PostForm.Get("target_lang")
		w.Write([]byte(`{"translations":[{"detected_source_language":"ZH","text":"Hello, world!"}]}`))
	}))
	defer server.Close()

	out, err := executeRoot(t, "env-key", "--base-url", server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "Original: 你好，世界！\nTranslated: Hello, world!\n"
	if out != want {
		t.Errorf("expected %q, got %q", want, out)
	}
	if gotAuth != "DeepL-Auth-Key env-key" {
		t.Errorf("unexpected Authorization header %q", gotAuth)
	}
	if gotText != sampleText || gotSource != "ZH" || gotTarget != "EN" {
		t.Errorf("unexpected form text=%q source_lang=%q target_lang=%q", gotText, gotSource, gotTarget)
	}
}

func TestRoot_Sample_RemoteFailure(t *testing.T) {
	server := deeplServer(t, http.StatusForbidden, "Forbidden", nil)

	out, err := executeRoot(t, "bad-key", "--base-url", server.URL)
	if err != nil {
		t.Fatalf("remote failure should not be a command error, got %v", err)
	}
	if out != "Error: 403 Forbidden\n" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestRoot_Translate_FlagsReachService(t *testing.T) {
	var gotText, gotSource, gotTarget string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		gotText = r.PostForm.Get("text")
		gotSource = r.PostForm.Get("source_lang")
		gotTarget = r.PostForm.Get("target_lang")
		w.Write([]byte(`{"translations":[{"text":"Bonjour"}]}`))
	}))
	defer server.Close()

	out, err := executeRoot(t, "env-key",
		"translate", "--base-url", server.URL, "-s", "DE", "-t", "FR", "--timeout", "1m", "Guten", "Morgen")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "Original: Guten Morgen\nTranslated: Bonjour\n" {
		t.Errorf("unexpected output %q", out)
	}
	if gotText != "Guten Morgen" || gotSource != "DE" || gotTarget != "FR" {
		t.Errorf("unexpected form text=%q source_lang=%q target_lang=%q", gotText, gotSource, gotTarget)
	}
	if appCfg == nil || appCfg.Timeout != time.Minute {
		t.Errorf("expected --timeout to reach the config, got %+v", appCfg)
	}
}
