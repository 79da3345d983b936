package stt

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"wander/pkg/fault"
)

func keyed(k string) func() string {
	return func() string { return k }
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{Endpoint: srv.URL, Model: "whisper-1"}, srv.Client(), keyed("sk-test"), nil)
}

func TestTranscribeSuccess(t *testing.T) {
	req := require.New(t)

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		req.Equal(http.MethodPost, r.Method)
		req.Equal("Bearer sk-test", r.Header.Get("Authorization"))

		req.NoError(r.ParseMultipartForm(1 << 20))
		req.Equal("whisper-1", r.FormValue("model"))

		file, header, err := r.FormFile("audio")
		req.NoError(err)
		defer file.Close()
		req.Equal("take.wav", header.Filename)
		blob, err := io.ReadAll(file)
		req.NoError(err)
		req.Equal([]byte{'R', 'I', 'F', 'F'}, blob)

		w.Write([]byte(`{"text":"take me to salmiya"}`))
	})

	out, err := c.Transcribe(context.Background(), []byte("RIFF"), "take.wav")
	req.NoError(err)
	req.Equal("take me to salmiya", out)
}

func TestTranscribeCredentialMissing(t *testing.T) {
	req := require.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request may be sent without a credential")
	}))
	defer srv.Close()

	c := NewClient(Config{Endpoint: srv.URL, Model: "m"}, srv.Client(), keyed(""), nil)
	_, err := c.Transcribe(context.Background(), nil, "a.wav")
	req.ErrorIs(err, fault.ErrCredentialMissing)
}

func TestTranscribeHTMLBody(t *testing.T) {
	req := require.New(t)

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("<html><body>404 page not found</body></html>"))
	})

	_, err := c.Transcribe(context.Background(), []byte("x"), "a.wav")
	var mal *fault.MalformedError
	req.ErrorAs(err, &mal)
	req.Contains(mal.Reason, "HTML")
}

func TestTranscribeErrorEnvelope(t *testing.T) {
	req := require.New(t)

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"file too large"}}`))
	})

	_, err := c.Transcribe(context.Background(), []byte("x"), "a.wav")
	var up *fault.UpstreamError
	req.ErrorAs(err, &up)
	req.Equal(http.StatusBadRequest, up.Status)
	req.Contains(up.Body, "file too large")
}

func TestTranscribeStringErrorEnvelope(t *testing.T) {
	req := require.New(t)

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"backend unavailable"}`))
	})

	_, err := c.Transcribe(context.Background(), []byte("x"), "a.wav")
	var up *fault.UpstreamError
	req.ErrorAs(err, &up)
	req.Equal("backend unavailable", up.Body)
}

func TestTranscribeOpaqueErrorBodyKeepsStatus(t *testing.T) {
	req := require.New(t)

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream timed out"))
	})

	_, err := c.Transcribe(context.Background(), []byte("x"), "a.wav")
	var up *fault.UpstreamError
	req.ErrorAs(err, &up)
	req.Equal(http.StatusBadGateway, up.Status)
	req.Equal("upstream timed out", up.Body)
}

func TestTranscribeMissingTextField(t *testing.T) {
	req := require.New(t)

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})

	_, err := c.Transcribe(context.Background(), []byte("x"), "a.wav")
	var mal *fault.MalformedError
	req.ErrorAs(err, &mal)
	req.Contains(mal.Reason, "text")
}

func TestTranscribeNetworkUnavailable(t *testing.T) {
	req := require.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient(Config{Endpoint: srv.URL, Model: "m"}, nil, keyed("sk"), nil)
	_, err := c.Transcribe(context.Background(), []byte("x"), "a.wav")
	req.ErrorIs(err, fault.ErrNetworkUnavailable)
}

func TestClassifyBody(t *testing.T) {
	tests := []struct {
		name string
		body string
		want BodyKind
	}{
		{"object", `{"text":"hi"}`, BodyJSON},
		{"array", `[1,2]`, BodyJSON},
		{"leading whitespace", "\n\t {\"a\":1}", BodyJSON},
		{"html", `<!DOCTYPE html><html></html>`, BodyHTML},
		{"plain text", "service unavailable", BodyOpaque},
		{"empty", "", BodyOpaque},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ClassifyBody([]byte(tt.body)))
		})
	}
}
