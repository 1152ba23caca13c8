// Package server exposes editor documents over an HTTP JSON API for the
// browser diagram client.
package server

import (
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/syssam/schemaflow"
	"github.com/syssam/schemaflow/compiler/gen"
	"github.com/syssam/schemaflow/editor"
)

// Server is the HTTP API.
type Server struct {
	logger   *zap.Logger
	origins  []string
	editor   []editor.Option
	generate []gen.Option

	docs   *Documents
	router *gin.Engine
}

// Option configures a Server.
type Option func(*Server) error

// WithLogger sets the logger of the server and its documents.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) error {
		if l == nil {
			return errors.New("schemaflow: server logger cannot be nil")
		}
		s.logger = l
		return nil
	}
}

// WithAllowedOrigins sets the CORS origins. "*" allows every origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) error {
		s.origins = origins
		return nil
	}
}

// WithEditorOptions sets options passed to every document controller.
func WithEditorOptions(opts ...editor.Option) Option {
	return func(s *Server) error {
		s.editor = append(s.editor, opts...)
		return nil
	}
}

// WithGenerateOptions sets the generator options of documents and exports.
func WithGenerateOptions(opts ...gen.Option) Option {
	return func(s *Server) error {
		s.generate = append(s.generate, opts...)
		return nil
	}
}

// New returns a server whose documents are persisted in st.
func New(st schemaflow.Store, opts ...Option) (*Server, error) {
	if st == nil {
		return nil, errors.New("schemaflow: server store cannot be nil")
	}
	s := &Server{
		logger:  zap.NewNop(),
		origins: []string{"*"},
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	editorOpts := append(slices.Clone(s.editor), editor.WithGenerateOptions(s.generate...))
	s.docs = NewDocuments(st, s.logger, editorOpts...)

	router := gin.New()
	router.Use(requestLogger(s.logger), gin.Recovery(), cors.New(s.corsConfig()))
	RegisterRoutes(router, NewDocumentHandler(s.docs, s.generate...))
	s.router = router
	return s, nil
}

// Documents returns the document registry.
func (s *Server) Documents() *Documents { return s.docs }

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// HTTPServer returns an http.Server listening on addr.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      s.router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

func (s *Server) corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}
	cfg.MaxAge = 12 * time.Hour
	if len(s.origins) == 0 || slices.Contains(s.origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = s.origins
	}
	return cfg
}

func requestLogger(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		l.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
