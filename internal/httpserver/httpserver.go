package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/serprelay/internal/assemble"
	"github.com/hyperifyio/serprelay/internal/social"
)

// SourceService produces enriched sources for a query. *relay.Service satisfies it.
type SourceService interface {
	Sources(ctx context.Context, query string) ([]assemble.Source, error)
}

// TokenExchanger swaps an authorization code for an access token. *oauthx.Exchanger satisfies it.
type TokenExchanger interface {
	ExchangeCode(ctx context.Context, code string) (string, error)
}

// ImageGenerator creates images with the caller's key. *imagegen.Generator satisfies it.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt, apiKey string) (openai.ImageResponse, error)
}

// SocialClient proxies the social endpoints. *social.Client satisfies it.
type SocialClient interface {
	SearchTweets(ctx context.Context, creds social.Credentials, p social.SearchParams) ([]social.Tweet, error)
	UserDetails(ctx context.Context, creds social.Credentials, username string) (json.RawMessage, error)
	UserTweets(ctx context.Context, creds social.Credentials, p social.UserTweetsParams) ([]social.Tweet, error)
}

// Deps are the services behind the routes.
type Deps struct {
	Sources SourceService
	Tokens  TokenExchanger
	Images  ImageGenerator
	Social  SocialClient
}

// Options configure the listener and logging.
type Options struct {
	Addr            string
	ShutdownTimeout time.Duration
	Logger          zerolog.Logger
	ReleaseMode     bool
}

// Server is the HTTP surface.
type Server struct {
	opts   Options
	deps   Deps
	engine *gin.Engine
}

// New builds the gin engine and registers every route.
func New(opts Options, deps Deps) *Server {
	if opts.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestID())
	engine.Use(Metrics())
	engine.Use(RequestLogger(opts.Logger))

	s := &Server{opts: opts, deps: deps, engine: engine}
	s.registerRoutes()
	return s
}

// Handler exposes the engine, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	s.engine.GET("/readyz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.engine.POST("/v2/serper", s.handleSerper)
	s.engine.GET("/callback", s.handleCallback)
	s.engine.POST("/generate-image", s.handleGenerateImage)

	s.engine.GET("/search/search", s.handleSearchTweets)
	s.engine.GET("/user/details", s.handleUserDetails)
	s.engine.GET("/user/tweets", s.handleUserTweets)
}

// Run listens on Options.Addr and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve handles connections on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.opts.Logger.Info().Str("addr", ln.Addr().String()).Msg("HTTP server listening")
		err := server.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.opts.Logger.Info().Msg("context cancelled, shutting down HTTP server")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
