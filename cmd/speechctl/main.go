// speechctl is an operator CLI for a running voice gateway: inspect
// sessions, synthesize text to an audio file, transcribe an audio file.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var serverURL string

func main() {
	root := &cobra.Command{
		Use:           "speechctl",
		Short:         "Operator CLI for the Tamil voice gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "gateway base URL")

	root.AddCommand(sessionsCmd(), speakCmd(), listenCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "speechctl:", err)
		os.Exit(1)
	}
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 60 * time.Second}
}

type sessionRow struct {
	ID        string    `json:"session_id"`
	Variant   string    `json:"variant"`
	CreatedAt time.Time `json:"created_at"`
	LastUsed  time.Time `json:"last_used"`
	Stats     struct {
		MessageCount  int `json:"message_count"`
		UserMessages  int `json:"user_messages"`
		AgentMessages int `json:"ai_messages"`
	} `json:"stats"`
}

func sessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List active conversation sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := httpClient().Get(serverURL + "/v1/converse/sessions")
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("gateway returned %s", resp.Status)
			}

			var body struct {
				Sessions []sessionRow `json:"sessions"`
				Count    int          `json:"count"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				return err
			}

			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.SetStyle(table.StyleRounded)
			tw.AppendHeader(table.Row{"Session ID", "Variant", "Created", "Last Used", "Messages"})
			for _, s := range body.Sessions {
				tw.AppendRow(table.Row{
					s.ID,
					s.Variant,
					s.CreatedAt.Format(time.RFC3339),
					s.LastUsed.Format(time.RFC3339),
					s.Stats.MessageCount,
				})
			}
			if body.Count == 0 {
				tw.AppendRow(table.Row{"(no sessions)", "-", "-", "-", 0})
			}
			tw.Render()
			return nil
		},
	}
}

func speakCmd() *cobra.Command {
	var lang, voiceProvider, outFile string
	var speed float64

	cmd := &cobra.Command{
		Use:   "speak [text]",
		Short: "Synthesize English text and write the audio to a file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, _ := json.Marshal(map[string]any{
				"english_text":    strings.Join(args, " "),
				"target_language": lang,
				"voice_provider":  voiceProvider,
				"voice_speed":     speed,
			})
			resp, err := httpClient().Post(serverURL+"/v1/speak", "application/json", bytes.NewReader(payload))
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				b, _ := io.ReadAll(resp.Body)
				return fmt.Errorf("gateway returned %s: %s", resp.Status, b)
			}

			audio, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			if err := os.WriteFile(outFile, audio, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d bytes to %s (language=%s)\n",
				len(audio), outFile, resp.Header.Get("X-Final-Language"))
			return nil
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "ta", "target language")
	cmd.Flags().StringVar(&voiceProvider, "voice-provider", "", "tts provider (default server side)")
	cmd.Flags().StringVar(&outFile, "out", "speech.mp3", "output audio file")
	cmd.Flags().Float64Var(&speed, "speed", 0, "voice speed multiplier in [0.5, 2.0]")
	return cmd
}

func listenCmd() *cobra.Command {
	var sttProvider string
	var timestamps bool

	cmd := &cobra.Command{
		Use:   "listen [audio-file]",
		Short: "Transcribe an audio file through the gateway",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			var buf bytes.Buffer
			mw := multipart.NewWriter(&buf)
			part, err := mw.CreateFormFile("file", filepath.Base(args[0]))
			if err != nil {
				return err
			}
			if _, err := io.Copy(part, f); err != nil {
				return err
			}
			if sttProvider != "" {
				_ = mw.WriteField("stt_provider", sttProvider)
			}
			if timestamps {
				_ = mw.WriteField("timestamps", "true")
			}
			if err := mw.Close(); err != nil {
				return err
			}

			resp, err := httpClient().Post(serverURL+"/v1/listen", mw.FormDataContentType(), &buf)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("gateway returned %s: %s", resp.Status, body)
			}

			var pretty bytes.Buffer
			if err := json.Indent(&pretty, body, "", "  "); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), pretty.String())
			return nil
		},
	}
	cmd.Flags().StringVar(&sttProvider, "stt-provider", "", "transcription provider (sarvam, google)")
	cmd.Flags().BoolVar(&timestamps, "timestamps", false, "request word timestamps")
	return cmd
}
