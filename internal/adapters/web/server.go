// Package web serves the taskmaster document API used by the taskmaster
// provider's api transport.
package web

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/example/deck/internal/ports/secondary"
)

// Server is the document API server.
type Server struct {
	store  secondary.DocumentStore
	router *gin.Engine
	logger *log.Logger
}

// NewServer creates a server that reads and writes documents through store.
func NewServer(store secondary.DocumentStore, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}

	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())

	s := &Server{
		store:  store,
		router: router,
		logger: logger,
	}

	api := router.Group("/api")
	{
		api.GET("/health", s.handleHealth)
		api.GET("/taskmaster/document", s.handleGetDocument)
		api.PUT("/taskmaster/document", s.handlePutDocument)
	}

	return s
}

// Handler exposes the router for embedding and tests.
func (s *Server) Handler() *gin.Engine {
	return s.router
}

// Run starts the server on addr.
func (s *Server) Run(addr string) error {
	s.logger.Printf("document API listening on %s", addr)
	return s.router.Run(addr)
}
