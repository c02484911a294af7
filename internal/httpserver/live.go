package httpserver

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/parivelss/tamil-voice-gateway/internal/conversation"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Browser capture pages are served from anywhere during development.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleListenLive accepts audio over a websocket: binary frames append
// to the capture buffer, a "stop" text frame runs the listen pipeline on
// the buffered audio and sends back the transcript JSON, "reset" discards
// the buffer. The connection stays open for repeated captures.
func (s *Server) handleListenLive(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	var buf []byte
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("live listen: connection error: %v", err)
			}
			return nil
		}

		switch msgType {
		case websocket.BinaryMessage:
			if int64(len(buf)+len(data)) > s.MaxAudioBytes {
				s.writeLiveError(conn, "invalid_input", fmt.Sprintf("audio exceeds %d byte limit", s.MaxAudioBytes))
				buf = nil
				continue
			}
			buf = append(buf, data...)

		case websocket.TextMessage:
			switch strings.TrimSpace(string(data)) {
			case "stop":
				s.finishLiveCapture(c, conn, buf)
				buf = nil
			case "reset":
				buf = nil
			default:
				s.writeLiveError(conn, "invalid_input", "unknown command, expected stop or reset")
			}
		}
	}
}

func (s *Server) finishLiveCapture(c echo.Context, conn *websocket.Conn, audio []byte) {
	start := time.Now()
	res, err := s.Controller.Listen(c.Request().Context(), conversation.ListenRequest{Audio: audio})
	if err != nil {
		kind := "internal"
		switch {
		case isNoSpeech(err):
			kind = "no_speech_detected"
		case isInvalidInput(err):
			kind = "invalid_input"
		}
		s.writeLiveError(conn, kind, err.Error())
		return
	}
	if err := conn.WriteJSON(listenResponse{
		Success:           true,
		EnglishTranscript: res.EnglishTranscript,
		OriginalLanguage:  res.OriginalLanguage,
		OriginalText:      res.OriginalText,
		Confidence:        res.Confidence,
		ProcessingTimeSec: time.Since(start).Seconds(),
		STTProvider:       res.Provider,
	}); err != nil {
		log.Printf("live listen: write result: %v", err)
	}
}

func (s *Server) writeLiveError(conn *websocket.Conn, kind, message string) {
	if err := conn.WriteJSON(errorEnvelope{errorBody{Kind: kind, Message: message}}); err != nil {
		log.Printf("live listen: write error: %v", err)
	}
}
