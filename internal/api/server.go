package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/romangod6/store-insights/internal/service"
)

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type Server struct {
	router *gin.Engine
	config ServerConfig
	server *http.Server
}

func NewServer(config ServerConfig, svc *service.Service) *Server {
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = 15 * time.Second
	}
	// Extractions and competitor analyses answer within the same request.
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 5 * time.Minute
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = 60 * time.Second
	}

	router := gin.Default()

	// Setup CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	handler := NewHandler(svc)

	router.GET("/health", handler.Health)

	api := router.Group("/api/v1")
	{
		insights := api.Group("/store-insights")
		{
			insights.POST("", handler.ExtractInsights)
			insights.GET("", handler.ListInsights)
			insights.GET("/*store_url", handler.GetInsights)
			insights.DELETE("/*store_url", handler.DeleteInsights)
		}

		competitors := api.Group("/competitor-analysis")
		{
			competitors.POST("", handler.AnalyzeCompetitors)
			competitors.GET("/*store_url", handler.ListCompetitorAnalyses)
		}
	}

	return &Server{
		router: router,
		config: config,
	}
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
