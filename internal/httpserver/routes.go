package httpserver

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/parivelss/tamil-voice-gateway/internal/conversation"
	"github.com/parivelss/tamil-voice-gateway/internal/provider"
)

type listenResponse struct {
	Success           bool                 `json:"success"`
	EnglishTranscript string               `json:"english_transcript"`
	OriginalLanguage  string               `json:"original_language"`
	OriginalText      string               `json:"original_text"`
	Confidence        float64              `json:"confidence"`
	ProcessingTimeSec float64              `json:"processing_time_sec"`
	STTProvider       string               `json:"stt_provider"`
	Timestamps        []provider.Timestamp `json:"timestamps,omitempty"`
}

func (s *Server) handleListen(c echo.Context) error {
	audio, err := s.readAudio(c)
	if err != nil {
		return httpError(c, err)
	}

	start := time.Now()
	res, err := s.Controller.Listen(c.Request().Context(), conversation.ListenRequest{
		Audio:       audio,
		STTProvider: c.FormValue("stt_provider"),
		Timestamps:  c.FormValue("timestamps") == "true",
	})
	if err != nil {
		return httpError(c, err)
	}

	return c.JSON(http.StatusOK, listenResponse{
		Success:           true,
		EnglishTranscript: res.EnglishTranscript,
		OriginalLanguage:  res.OriginalLanguage,
		OriginalText:      res.OriginalText,
		Confidence:        res.Confidence,
		ProcessingTimeSec: time.Since(start).Seconds(),
		STTProvider:       res.Provider,
		Timestamps:        res.Timestamps,
	})
}

// readAudio accepts either a multipart file upload or an audio_base64
// form field, enforcing the size ceiling before any provider sees the
// payload.
func (s *Server) readAudio(c echo.Context) ([]byte, error) {
	if fh, err := c.FormFile("file"); err == nil {
		if fh.Size > s.MaxAudioBytes {
			return nil, fmt.Errorf("audio exceeds %d byte limit: %w", s.MaxAudioBytes, provider.ErrInvalidInput)
		}
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(io.LimitReader(f, s.MaxAudioBytes+1))
	}

	if b64 := c.FormValue("audio_base64"); b64 != "" {
		return s.decodeAudio(b64)
	}
	return nil, fmt.Errorf("no audio payload: %w", provider.ErrInvalidInput)
}

func (s *Server) decodeAudio(b64 string) ([]byte, error) {
	audio, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 audio: %w", provider.ErrInvalidInput)
	}
	if int64(len(audio)) > s.MaxAudioBytes {
		return nil, fmt.Errorf("audio exceeds %d byte limit: %w", s.MaxAudioBytes, provider.ErrInvalidInput)
	}
	return audio, nil
}

type speakRequest struct {
	EnglishText    string  `json:"english_text"`
	TargetLanguage string  `json:"target_language"`
	VoiceProvider  string  `json:"voice_provider"`
	VoiceSpeed     float64 `json:"voice_speed"`
}

func (s *Server) speak(c echo.Context) (speakRequest, *conversation.SpeakResult, time.Duration, error) {
	var req speakRequest
	if err := c.Bind(&req); err != nil {
		return req, nil, 0, fmt.Errorf("invalid request body: %w", provider.ErrInvalidInput)
	}
	start := time.Now()
	res, err := s.Controller.Speak(c.Request().Context(), conversation.SpeakRequest{
		EnglishText:    req.EnglishText,
		TargetLanguage: req.TargetLanguage,
		VoiceProvider:  req.VoiceProvider,
		VoiceSpeed:     req.VoiceSpeed,
	})
	return req, res, time.Since(start), err
}

func (s *Server) handleSpeak(c echo.Context) error {
	req, res, elapsed, err := s.speak(c)
	if err != nil {
		return httpError(c, err)
	}

	h := c.Response().Header()
	h.Set("X-Processing-Time", fmt.Sprintf("%.3f", elapsed.Seconds()))
	h.Set("X-Final-Language", res.FinalLanguage)
	h.Set("X-Original-Text-Length", strconv.Itoa(len(req.EnglishText)))
	h.Set("X-Final-Text-Length", strconv.Itoa(len(res.FinalText)))
	return c.Blob(http.StatusOK, audioContentType(res.Format), res.Audio)
}

type speakPreviewResponse struct {
	Success           bool    `json:"success"`
	AudioBase64       string  `json:"audio_base64"`
	Format            string  `json:"format"`
	FinalLanguage     string  `json:"final_language"`
	FinalText         string  `json:"final_text"`
	ProcessingTimeSec float64 `json:"processing_time_sec"`
}

func (s *Server) handleSpeakPreview(c echo.Context) error {
	_, res, elapsed, err := s.speak(c)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, speakPreviewResponse{
		Success:           true,
		AudioBase64:       base64.StdEncoding.EncodeToString(res.Audio),
		Format:            res.Format,
		FinalLanguage:     res.FinalLanguage,
		FinalText:         res.FinalText,
		ProcessingTimeSec: elapsed.Seconds(),
	})
}

type converseRequest struct {
	AudioData         string  `json:"audio_data"`
	SessionID         string  `json:"session_id"`
	STTProvider       string  `json:"stt_provider"`
	LLMProvider       string  `json:"llm_provider"`
	VoiceSpeed        float64 `json:"voice_speed"`
	ResetConversation bool    `json:"reset_conversation"`
}

type converseDegradedResponse struct {
	Message      string `json:"message"`
	TextResponse string `json:"text_response"`
}

func (s *Server) handleConverse(c echo.Context) error {
	var req converseRequest
	if err := c.Bind(&req); err != nil {
		return httpError(c, fmt.Errorf("invalid request body: %w", provider.ErrInvalidInput))
	}
	audio, err := s.decodeAudio(req.AudioData)
	if err != nil {
		return httpError(c, err)
	}

	start := time.Now()
	res, err := s.Controller.RunTurn(c.Request().Context(), conversation.TurnRequest{
		SessionID:   req.SessionID,
		Audio:       audio,
		STTProvider: req.STTProvider,
		Variant:     req.LLMProvider,
		Reset:       req.ResetConversation,
		VoiceSpeed:  req.VoiceSpeed,
	})
	if err != nil {
		return httpError(c, err)
	}

	h := c.Response().Header()
	h.Set("X-Session-ID", res.SessionID)
	h.Set("X-User-Transcript", base64.StdEncoding.EncodeToString([]byte(res.UserTranscript)))
	h.Set("X-User-Language", res.UserLanguage)
	h.Set("X-AI-Response", base64.StdEncoding.EncodeToString([]byte(res.AgentText)))
	h.Set("X-AI-Language", res.AgentLanguage)
	h.Set("X-Processing-Time", fmt.Sprintf("%.3f", time.Since(start).Seconds()))
	h.Set("X-Message-Count", strconv.Itoa(res.MessageCount))

	if res.Degraded {
		h.Set("X-Error-Type", "quota_exceeded")
		return c.JSON(http.StatusOK, converseDegradedResponse{
			Message:      "speech synthesis quota exhausted, text response only",
			TextResponse: res.AgentText,
		})
	}
	return c.Blob(http.StatusOK, audioContentType(res.AudioFormat), res.Audio)
}

type resetResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id"`
	Found     bool   `json:"found"`
}

func (s *Server) handleConverseReset(c echo.Context) error {
	id := c.Param("session_id")
	found := s.Controller.Reset(id)
	return c.JSON(http.StatusOK, resetResponse{Success: true, SessionID: id, Found: found})
}

type sessionsResponse struct {
	Sessions []conversation.SessionInfo `json:"sessions"`
	Count    int                        `json:"count"`
}

func (s *Server) handleConverseSessions(c echo.Context) error {
	sessions := s.Controller.Sessions()
	return c.JSON(http.StatusOK, sessionsResponse{Sessions: sessions, Count: len(sessions)})
}

func audioContentType(format string) string {
	switch format {
	case "wav", "linear16":
		return "audio/wav"
	default:
		return "audio/mpeg"
	}
}
