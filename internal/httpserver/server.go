// Package httpserver is the external interface of the gateway: REST
// routes for transcription, synthesis and conversational turns, plus a
// websocket endpoint for live audio capture.
package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/parivelss/tamil-voice-gateway/internal/conversation"
	"github.com/parivelss/tamil-voice-gateway/internal/provider"
)

// Server bundles the echo instance with its pipeline dependencies.
type Server struct {
	Echo       *echo.Echo
	Controller *conversation.Controller

	// MaxAudioBytes caps uploaded audio before it reaches any provider.
	MaxAudioBytes int64
}

// New creates a configured server with all routes registered.
func New(ctrl *conversation.Controller, maxAudioBytes int64) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	s := &Server{Echo: e, Controller: ctrl, MaxAudioBytes: maxAudioBytes}
	s.routes()
	return s
}

func (s *Server) routes() {
	e := s.Echo
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	v1 := e.Group("/v1")
	v1.POST("/listen", s.handleListen)
	v1.GET("/listen/live", s.handleListenLive)
	v1.POST("/speak", s.handleSpeak)
	v1.POST("/speak/preview", s.handleSpeakPreview)
	v1.POST("/converse", s.handleConverse)
	v1.POST("/converse/reset/:session_id", s.handleConverseReset)
	v1.GET("/converse/sessions", s.handleConverseSessions)
}

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

func isNoSpeech(err error) bool     { return errors.Is(err, provider.ErrNoSpeech) }
func isInvalidInput(err error) bool { return errors.Is(err, provider.ErrInvalidInput) }

// httpError maps pipeline errors onto transport status codes. Caller
// mistakes are 400s, exhausted provider chains are 502s, everything else
// is a 500.
func httpError(c echo.Context, err error) error {
	var ex *provider.ExhaustedError
	switch {
	case errors.Is(err, provider.ErrNoSpeech):
		return c.JSON(http.StatusBadRequest, errorEnvelope{errorBody{Kind: "no_speech_detected", Message: err.Error()}})
	case errors.Is(err, provider.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, errorEnvelope{errorBody{Kind: "invalid_input", Message: err.Error()}})
	case errors.As(err, &ex):
		return c.JSON(http.StatusBadGateway, errorEnvelope{errorBody{Kind: "providers_exhausted", Message: err.Error()}})
	default:
		return c.JSON(http.StatusInternalServerError, errorEnvelope{errorBody{Kind: "internal", Message: err.Error()}})
	}
}
