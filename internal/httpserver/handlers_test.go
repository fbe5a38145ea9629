package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperifyio/serprelay/internal/assemble"
	"github.com/hyperifyio/serprelay/internal/imagegen"
	"github.com/hyperifyio/serprelay/internal/search"
	"github.com/hyperifyio/serprelay/internal/social"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubSources struct {
	out      []assemble.Source
	err      error
	gotQuery string
}

func (s *stubSources) Sources(_ context.Context, q string) ([]assemble.Source, error) {
	s.gotQuery = q
	return s.out, s.err
}

type stubTokens struct {
	token string
	err   error
}

func (s stubTokens) ExchangeCode(context.Context, string) (string, error) { return s.token, s.err }

type stubImages struct {
	resp openai.ImageResponse
	err  error
}

func (s stubImages) Generate(context.Context, string, string) (openai.ImageResponse, error) {
	return s.resp, s.err
}

type stubSocial struct {
	tweets  []social.Tweet
	details json.RawMessage
	err     error
}

func (s stubSocial) SearchTweets(_ context.Context, c social.Credentials, _ social.SearchParams) ([]social.Tweet, error) {
	if c.Host == "" || c.Key == "" {
		return nil, social.ErrMissingCredentials
	}
	return s.tweets, s.err
}

func (s stubSocial) UserDetails(_ context.Context, c social.Credentials, _ string) (json.RawMessage, error) {
	if c.Host == "" || c.Key == "" {
		return nil, social.ErrMissingCredentials
	}
	return s.details, s.err
}

func (s stubSocial) UserTweets(_ context.Context, c social.Credentials, _ social.UserTweetsParams) ([]social.Tweet, error) {
	if c.Host == "" || c.Key == "" {
		return nil, social.ErrMissingCredentials
	}
	return s.tweets, s.err
}

func newTestServer(deps Deps) http.Handler {
	return New(Options{Logger: zerolog.Nop()}, deps).Handler()
}

func do(t *testing.T, h http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSerper_Success(t *testing.T) {
	src := &stubSources{out: []assemble.Source{{
		Candidate:     search.Candidate{Title: "Red panda", Link: "https://a", Image: "https://a.jpg"},
		SearchResults: "The red panda is a small mammal.",
	}}}
	h := newTestServer(Deps{Sources: src})

	rec := do(t, h, http.MethodPost, "/v2/serper", `{"message":"red panda"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "red panda", src.gotQuery)
	assert.JSONEq(t, `{"sourcesWithContent":[{"title":"Red panda","link":"https://a","image":"https://a.jpg","searchResults":"The red panda is a small mammal."}]}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestSerper_EmptyResultIsArray(t *testing.T) {
	h := newTestServer(Deps{Sources: &stubSources{}})
	rec := do(t, h, http.MethodPost, "/v2/serper", `{"message":"nothing"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sourcesWithContent":[]}`, rec.Body.String())
}

func TestSerper_SearchFailure(t *testing.T) {
	h := newTestServer(Deps{Sources: &stubSources{err: errors.New("search serper: status 403")}})
	rec := do(t, h, http.MethodPost, "/v2/serper", `{"message":"red panda"}`, nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Internal server error", body["error"])
	assert.Equal(t, "search serper: status 403", body["message"])
	assert.Equal(t, []any{}, body["sourcesWithContent"])
}

func TestSerper_BadRequest(t *testing.T) {
	h := newTestServer(Deps{Sources: &stubSources{}})
	for _, body := range []string{``, `{}`, `{"message":"  "}`, `not json`} {
		rec := do(t, h, http.MethodPost, "/v2/serper", body, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
		assert.Contains(t, rec.Body.String(), `"sourcesWithContent":[]`)
	}
}

func TestCallback(t *testing.T) {
	h := newTestServer(Deps{Tokens: stubTokens{token: "tok"}})
	rec := do(t, h, http.MethodGet, "/callback?code=abc", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"accessToken":"tok"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/callback", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))

	h = newTestServer(Deps{Tokens: stubTokens{err: errors.New("exhausted")}})
	rec = do(t, h, http.MethodGet, "/callback?code=abc", "", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
}

func TestGenerateImage(t *testing.T) {
	ok := stubImages{resp: openai.ImageResponse{Created: 1, Data: []openai.ImageResponseDataInner{{URL: "https://img/ok.png"}}}}
	h := newTestServer(Deps{Images: ok})

	rec := do(t, h, http.MethodPost, "/generate-image", `{"prompt":"cat","authorization":"sk"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "https://img/ok.png")

	rec = do(t, h, http.MethodPost, "/generate-image", `{"authorization":"sk"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, h, http.MethodPost, "/generate-image", `{"prompt":"cat"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGenerateImage_Errors(t *testing.T) {
	upstream := fmt.Errorf("create image: %w", &openai.APIError{HTTPStatusCode: 429, Message: "rate limited"})
	cases := []struct {
		err  error
		want int
	}{
		{upstream, http.StatusTooManyRequests},
		{fmt.Errorf("%w after 3 attempt(s)", imagegen.ErrNoValidImage), http.StatusBadGateway},
		{errors.New("dial tcp"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		h := newTestServer(Deps{Images: stubImages{err: tc.err}})
		rec := do(t, h, http.MethodPost, "/generate-image", `{"prompt":"cat","authorization":"sk"}`, nil)
		assert.Equal(t, tc.want, rec.Code, "err %v", tc.err)
	}
}

func TestSocialRoutes(t *testing.T) {
	creds := map[string]string{"X-RapidAPI-Host": "h", "X-RapidAPI-Key": "k"}
	h := newTestServer(Deps{Social: stubSocial{
		tweets:  []social.Tweet{{Text: "hello"}},
		details: json.RawMessage(`{"username":"nasa"}`),
	}})

	rec := do(t, h, http.MethodGet, "/search/search?query=panda", "", creds)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"text":"hello"}]`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/search/search", "", creds)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/search/search?query=panda", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "X-RapidAPI-Key")

	rec = do(t, h, http.MethodGet, "/user/details?username=nasa", "", creds)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"username":"nasa"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/user/tweets", "", creds)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	failing := newTestServer(Deps{Social: stubSocial{err: errors.New("upstream 403")}})
	rec = do(t, failing, http.MethodGet, "/user/tweets?username=nasa", "", creds)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to fetch user tweets."}`, rec.Body.String())
}

func TestHealthAndMetrics(t *testing.T) {
	h := newTestServer(Deps{})
	rec := do(t, h, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "serprelay_")
}

func TestRequestID_Propagated(t *testing.T) {
	h := newTestServer(Deps{})
	rec := do(t, h, http.MethodGet, "/healthz", "", map[string]string{RequestIDHeader: "abc-123"})
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}
