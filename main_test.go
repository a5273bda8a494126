package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"tgreport/internal/notification"
	"tgreport/internal/report"
)

// isolate resets viper and hides any configuration on the host
func isolate(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	for _, key := range []string{"TGR_TOKEN", "TGR_CHAT_ID", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "TGR_MESSAGE"} {
		t.Setenv(key, "")
	}
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(io.Discard)

	err := root.Execute()
	return out.String(), err
}

func TestRun_SendsMessage(t *testing.T) {
	isolate(t)

	var gotPath, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.Write([]byte(`{"ok":true,"result":{"message_id":5}}`))
	}))
	defer server.Close()

	out, err := execute(t, "", "--token", "ABC", "--chat-id", "1195212155", "--api-url", server.URL, "-m", "hello")
	require.NoError(t, err)

	assert.Equal(t, "/botABC/sendMessage", gotPath)
	assert.Equal(t, `{"chat_id":"1195212155","text":"hello","parse_mode":"HTML"}`, gotBody)
	assert.Equal(t, "status: 200\nresponse: {\"ok\":true,\"result\":{\"message_id\":5}}\n", out)
}

func TestRun_Non2xxStillPrinted(t *testing.T) {
	isolate(t)

	reply := `{"ok":false,"error_code":401,"description":"Unauthorized"}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(reply))
	}))
	defer server.Close()

	out, err := execute(t, "", "--token", "ABC", "--chat-id", "1", "--api-url", server.URL, "-m", "hello")
	require.NoError(t, err)
	assert.Equal(t, "status: 401\nresponse: "+reply+"\n", out)
}

func TestRun_FailuresPrintNothing(t *testing.T) {
	closed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	closedURL := closed.URL
	closed.Close()

	html := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer html.Close()

	tests := []struct {
		name        string
		apiURL      string
		expectedErr string
	}{
		{name: "transport failure", apiURL: closedURL, expectedErr: "failed to send message"},
		{name: "non-JSON reply", apiURL: html.URL, expectedErr: notification.ErrNonJSONResponse.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)

			out, err := execute(t, "", "--token", "ABC", "--chat-id", "1", "--api-url", tt.apiURL, "-m", "hello")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedErr)
			assert.Empty(t, out)
		})
	}
}

func TestRun_MissingTokenSendsNothing(t *testing.T) {
	isolate(t)

	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	out, err := execute(t, "", "--chat-id", "1", "--api-url", server.URL, "-m", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token is required")
	assert.Empty(t, out)
	assert.False(t, called)
}

func TestRun_MessageSources(t *testing.T) {
	tests := []struct {
		name     string
		stdin    string
		args     []string
		expected string
	}{
		{name: "built-in report", expected: report.Default()},
		{name: "stdin", stdin: "from a pipe\n", args: []string{"--message-file", "-"}, expected: "from a pipe"},
		{name: "flag wins", stdin: "ignored", args: []string{"-m", "flag text", "--message-file", "-"}, expected: "flag text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)

			var gotText string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				raw, _ := io.ReadAll(r.Body)
				gotText = gjson.GetBytes(raw, "text").String()
				w.Write([]byte(`{"ok":true}`))
			}))
			defer server.Close()

			args := append([]string{"--token", "ABC", "--chat-id", "1", "--api-url", server.URL}, tt.args...)
			_, err := execute(t, tt.stdin, args...)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, gotText)
		})
	}
}

func TestRun_EnvironmentConfiguration(t *testing.T) {
	isolate(t)

	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	t.Setenv("TELEGRAM_BOT_TOKEN", "XYZ")
	t.Setenv("TGR_CHAT_ID", "7")
	t.Setenv("TGR_API_URL", server.URL)

	out, err := execute(t, "", "-m", "hi")
	require.NoError(t, err)
	assert.Equal(t, "/botXYZ/sendMessage", gotPath)
	assert.True(t, strings.HasPrefix(out, "status: 200\n"))
}

func TestVersionCommand(t *testing.T) {
	isolate(t)

	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "tgreport version dev (commit: unknown)\n", out)
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	printResult(&buf, &notification.Result{
		StatusCode: 200,
		Body:       []byte("{\"ok\":true,\"result\":{}}\n"),
	})

	assert.Equal(t, "status: 200\nresponse: {\"ok\":true,\"result\":{}}\n", buf.String())
}
