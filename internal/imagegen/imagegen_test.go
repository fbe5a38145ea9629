package imagegen

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperifyio/serprelay/internal/linkcheck"
)

// imageHost serves HEAD 200 for /ok.png and 404 for anything else.
func imageHost(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ok.png" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// openAIServer returns image URLs from urls in sequence, repeating the last one.
func openAIServer(t *testing.T, urls ...string) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(atomic.AddInt32(&calls, 1))
		assert.Equal(t, "/v1/images/generations", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		u := urls[len(urls)-1]
		if n <= len(urls) {
			u = urls[n-1]
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"created":1700000000,"data":[{"url":%q}]}`, u)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newGenerator(baseURL string) *Generator {
	return &Generator{
		BaseURL:   baseURL + "/v1",
		Validator: &linkcheck.Validator{Timeout: time.Second},
	}
}

func TestGenerate_RegeneratesUntilReachable(t *testing.T) {
	img := imageHost(t)
	api, calls := openAIServer(t, img.URL+"/gone.png", img.URL+"/ok.png")

	resp, err := newGenerator(api.URL).Generate(context.Background(), "a red panda", "sk-test")
	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, img.URL+"/ok.png", resp.Data[0].URL)
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestGenerate_BoundedAttempts(t *testing.T) {
	img := imageHost(t)
	api, calls := openAIServer(t, img.URL+"/gone.png")

	g := newGenerator(api.URL)
	g.MaxAttempts = 2
	_, err := g.Generate(context.Background(), "a red panda", "sk-test")
	assert.ErrorIs(t, err, ErrNoValidImage)
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestGenerate_UpstreamStatusPassesThrough(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	}))
	defer api.Close()

	_, err := newGenerator(api.URL).Generate(context.Background(), "a red panda", "sk-test")
	require.Error(t, err)
	status, body, ok := UpstreamError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.NotNil(t, body)
	assert.True(t, strings.Contains(err.Error(), "Incorrect API key"))
}

func TestUpstreamError_Plain(t *testing.T) {
	_, _, ok := UpstreamError(errors.New("dial tcp: refused"))
	assert.False(t, ok)
}

type fakeClient struct {
	got openai.ImageRequest
}

func (f *fakeClient) CreateImage(_ context.Context, req openai.ImageRequest) (openai.ImageResponse, error) {
	f.got = req
	return openai.ImageResponse{Data: []openai.ImageResponseDataInner{{URL: "https://img.example/ok.png"}}}, nil
}

type allowAll struct{}

func (allowAll) Validate(context.Context, string) bool { return true }

func TestGenerate_RequestShape(t *testing.T) {
	fc := &fakeClient{}
	var gotKey string
	g := &Generator{Validator: allowAll{}, NewClient: func(k string) Client { gotKey = k; return fc }}

	_, err := g.Generate(context.Background(), "sunset", "sk-caller")
	require.NoError(t, err)
	assert.Equal(t, "sk-caller", gotKey)
	assert.Equal(t, "dall-e-3", fc.got.Model)
	assert.Equal(t, 1, fc.got.N)
	assert.Equal(t, "1024x1024", fc.got.Size)
	assert.Equal(t, "sunset", fc.got.Prompt)
}
