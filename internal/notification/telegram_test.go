package notification

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func TestEndpointURL(t *testing.T) {
	tests := []struct {
		name     string
		baseURL  string
		token    string
		method   string
		expected string
	}{
		{
			name:     "public api",
			baseURL:  DefaultAPIURL,
			token:    "ABC",
			method:   "sendMessage",
			expected: "https://api.telegram.org/botABC/sendMessage",
		},
		{
			name:     "token inserted verbatim",
			baseURL:  DefaultAPIURL,
			token:    "123456:AA-bb_CC",
			method:   "sendMessage",
			expected: "https://api.telegram.org/bot123456:AA-bb_CC/sendMessage",
		},
		{
			name:     "trailing slash on base",
			baseURL:  "http://localhost:8081/",
			token:    "T",
			method:   "sendPhoto",
			expected: "http://localhost:8081/botT/sendPhoto",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EndpointURL(tt.baseURL, tt.token, tt.method))
		})
	}
}

func TestNewTelegramNotifier(t *testing.T) {
	notifier := NewTelegramNotifier("ABC", "12345", testLogger())

	require.NotNil(t, notifier)
	assert.Equal(t, "ABC", notifier.token)
	assert.Equal(t, "12345", notifier.ChatID())
	assert.Equal(t, DefaultAPIURL, notifier.baseURL)
	assert.NotNil(t, notifier.httpClient)
	assert.NotNil(t, notifier.logger)
}

func TestTelegramNotifier_Send_Request(t *testing.T) {
	var gotPath, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))

		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true,"result":{"message_id":7}}`))
	}))
	defer server.Close()

	notifier := NewTelegramNotifierWithClient("ABC", "1195212155", server.URL, nil, testLogger())

	res, err := notifier.Send(context.Background(), "hello", ParseModeHTML)
	require.NoError(t, err)

	assert.Equal(t, "/botABC/sendMessage", gotPath)
	assert.Equal(t, `{"chat_id":"1195212155","text":"hello","parse_mode":"HTML"}`, gotBody)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(gotBody), &fields))
	assert.Len(t, fields, 3)

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, `{"ok":true,"result":{"message_id":7}}`, res.String())
	assert.True(t, res.OK())
	assert.Equal(t, int64(7), res.MessageID())
	assert.NoError(t, res.Err())
}

func TestTelegramNotifier_Send_KeepsMarkupUnescaped(t *testing.T) {
	var payload map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), `<b>done</b> & shipped`)
		assert.NoError(t, json.Unmarshal(body, &payload))
		w.Write([]byte(`{"ok":true,"result":{"message_id":1}}`))
	}))
	defer server.Close()

	notifier := NewTelegramNotifierWithClient("ABC", "1", server.URL, nil, testLogger())
	_, err := notifier.Send(context.Background(), "<b>done</b> & shipped", ParseModeHTML)
	require.NoError(t, err)
	assert.Equal(t, "<b>done</b> & shipped", payload["text"])
}

func TestTelegramNotifier_Send_EmptyParseModeOmitted(t *testing.T) {
	var fields map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&fields))
		w.Write([]byte(`{"ok":true,"result":{"message_id":1}}`))
	}))
	defer server.Close()

	notifier := NewTelegramNotifierWithClient("ABC", "1", server.URL, nil, testLogger())
	_, err := notifier.Send(context.Background(), "plain", "")
	require.NoError(t, err)

	assert.NotContains(t, fields, "parse_mode")
	assert.Equal(t, "plain", fields["text"])
}

func TestTelegramNotifier_Send_Non2xxIsNotAnError(t *testing.T) {
	reply := `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(reply))
	}))
	defer server.Close()

	notifier := NewTelegramNotifierWithClient("ABC", "1", server.URL, nil, testLogger())

	res, err := notifier.Send(context.Background(), "hello", ParseModeHTML)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, reply, res.String())
	assert.False(t, res.OK())

	var apiErr *APIError
	require.True(t, errors.As(res.Err(), &apiErr))
	assert.Equal(t, 400, apiErr.StatusCode)
	assert.Equal(t, 400, apiErr.ErrorCode)
	assert.Equal(t, "Bad Request: chat not found", apiErr.Description)
}

func TestTelegramNotifier_Send_NonJSONResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer server.Close()

	notifier := NewTelegramNotifierWithClient("ABC", "1", server.URL, nil, testLogger())

	res, err := notifier.Send(context.Background(), "hello", ParseModeHTML)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrNonJSONResponse)
	assert.Contains(t, err.Error(), "status 502")
}

func TestTelegramNotifier_Send_TransportFailureRedactsToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	token := "123456789:super-secret-token"
	notifier := NewTelegramNotifierWithClient(token, "1", url, nil, testLogger())

	res, err := notifier.Send(context.Background(), "hello", ParseModeHTML)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.NotContains(t, err.Error(), token)
	assert.Contains(t, err.Error(), "<redacted>")
}

func TestTelegramNotifier_Send_ShortTokenRedactsOnlyPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	notifier := NewTelegramNotifierWithClient("1", "1", url, nil, testLogger())

	_, err := notifier.Send(context.Background(), "hello", ParseModeHTML)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/bot<redacted>/sendMessage")
	assert.NotContains(t, err.Error(), "/bot1/")
	assert.Contains(t, err.Error(), "127.0.0.1", "host must survive redaction")
}

func TestTelegramNotifier_WithChatID(t *testing.T) {
	var chats []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		chats = append(chats, payload["chat_id"])
		w.Write([]byte(`{"ok":true,"result":{"message_id":1}}`))
	}))
	defer server.Close()

	notifier := NewTelegramNotifierWithClient("ABC", "1", server.URL, nil, testLogger())
	other := notifier.WithChatID("@ops")

	_, err := other.Send(context.Background(), "to ops", "")
	require.NoError(t, err)
	_, err = notifier.Send(context.Background(), "to default", "")
	require.NoError(t, err)

	assert.Equal(t, []string{"@ops", "1"}, chats)
	assert.Equal(t, "1", notifier.ChatID())
	assert.Equal(t, "@ops", other.ChatID())
}

func TestTelegramNotifier_Send_MissingDestination(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		chatID   string
		expected error
	}{
		{name: "missing token", token: "", chatID: "1", expected: ErrMissingToken},
		{name: "missing chat id", token: "ABC", chatID: "", expected: ErrMissingChatID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))
			defer server.Close()

			notifier := NewTelegramNotifierWithClient(tt.token, tt.chatID, server.URL, nil, testLogger())
			_, err := notifier.Send(context.Background(), "hello", ParseModeHTML)
			assert.ErrorIs(t, err, tt.expected)
			assert.False(t, called)
		})
	}
}

func TestTelegramNotifier_Send_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	notifier := NewTelegramNotifierWithClient("ABC", "1", server.URL, nil, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	_, err := notifier.Send(ctx, "hello", ParseModeHTML)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTelegramNotifier_ImplementsNotifier(t *testing.T) {
	var _ Notifier = NewTelegramNotifier("ABC", "1", testLogger())
}
