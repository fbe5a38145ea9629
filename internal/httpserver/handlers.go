package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hyperifyio/serprelay/internal/assemble"
	"github.com/hyperifyio/serprelay/internal/imagegen"
	"github.com/hyperifyio/serprelay/internal/social"
)

type serperRequest struct {
	Message string `json:"message"`
}

type imageRequest struct {
	Prompt        string `json:"prompt"`
	Authorization string `json:"authorization"`
}

func (s *Server) handleSerper(c *gin.Context) {
	var req serperRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":              "Bad request",
			"message":            "message is required",
			"sourcesWithContent": []assemble.Source{},
		})
		return
	}

	sources, err := s.deps.Sources.Sources(c.Request.Context(), req.Message)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":              "Internal server error",
			"message":            err.Error(),
			"sourcesWithContent": []assemble.Source{},
		})
		return
	}
	if sources == nil {
		sources = []assemble.Source{}
	}
	c.JSON(http.StatusOK, gin.H{"sourcesWithContent": sources})
}

func (s *Server) handleCallback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.String(http.StatusBadRequest, "Missing authorization code")
		return
	}
	token, err := s.deps.Tokens.ExchangeCode(c.Request.Context(), code)
	if err != nil {
		_ = c.Error(err)
		c.String(http.StatusInternalServerError, "Failed to exchange authorization code for access token")
		return
	}
	c.JSON(http.StatusOK, gin.H{"accessToken": token})
}

func (s *Server) handleGenerateImage(c *gin.Context) {
	var req imageRequest
	_ = c.ShouldBindJSON(&req)
	if req.Prompt == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Prompt is required"})
		return
	}
	if req.Authorization == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization is required"})
		return
	}

	images, err := s.deps.Images.Generate(c.Request.Context(), req.Prompt, req.Authorization)
	if err != nil {
		_ = c.Error(err)
		if status, body, ok := imagegen.UpstreamError(err); ok {
			c.JSON(status, body)
			return
		}
		if errors.Is(err, imagegen.ErrNoValidImage) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Generated image is not reachable"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unexpected error occurred"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"images": images})
}

func credentials(c *gin.Context) social.Credentials {
	return social.Credentials{
		Host: c.GetHeader("X-RapidAPI-Host"),
		Key:  c.GetHeader("X-RapidAPI-Key"),
	}
}

// socialError maps a social client error to a response; failMsg is used for upstream failures.
func socialError(c *gin.Context, err error, failMsg string) {
	_ = c.Error(err)
	if errors.Is(err, social.ErrMissingCredentials) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Required headers 'X-RapidAPI-Host' and 'X-RapidAPI-Key' are missing."})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": failMsg})
}

func (s *Server) handleSearchTweets(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Search query is required."})
		return
	}
	tweets, err := s.deps.Social.SearchTweets(c.Request.Context(), credentials(c), social.SearchParams{
		Query:       query,
		Section:     c.Query("section"),
		Language:    c.Query("language"),
		Limit:       c.Query("limit"),
		MinLikes:    c.Query("min_likes"),
		MinRetweets: c.Query("min_retweets"),
	})
	if err != nil {
		socialError(c, err, "Failed to fetch tweets.")
		return
	}
	c.JSON(http.StatusOK, tweets)
}

func (s *Server) handleUserDetails(c *gin.Context) {
	username := c.Query("username")
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username is required."})
		return
	}
	details, err := s.deps.Social.UserDetails(c.Request.Context(), credentials(c), username)
	if err != nil {
		socialError(c, err, "Failed to fetch user details.")
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", details)
}

func (s *Server) handleUserTweets(c *gin.Context) {
	username := c.Query("username")
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username is required."})
		return
	}
	tweets, err := s.deps.Social.UserTweets(c.Request.Context(), credentials(c), social.UserTweetsParams{
		Username:      username,
		Limit:         c.Query("limit"),
		IncludePinned: c.Query("include_pinned"),
	})
	if err != nil {
		socialError(c, err, "Failed to fetch user tweets.")
		return
	}
	c.JSON(http.StatusOK, tweets)
}
