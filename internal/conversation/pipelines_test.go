package conversation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/parivelss/tamil-voice-gateway/internal/provider"
)

func TestListen_TamilPivotedToEnglish(t *testing.T) {
	primary := &stubSTT{name: "sarvam", result: &provider.STTResult{Text: "கால் வலிக்குது", DetectedLanguage: "ta", Confidence: 0.9}}
	c := newTestController(primary, nil, &stubTTS{})
	c.Router.Translator = &mappingTranslator{mapping: map[string]string{"கால் வலிக்குது": "my leg hurts"}}

	res, err := c.Listen(context.Background(), ListenRequest{Audio: []byte("wav")})
	require.NoError(t, err)
	require.Equal(t, "my leg hurts", res.EnglishTranscript)
	require.Equal(t, "கால் வலிக்குது", res.OriginalText)
	require.Equal(t, "ta", res.OriginalLanguage)
	require.InDelta(t, 0.9, res.Confidence, 1e-9)
}

func TestListen_EnglishPassThrough(t *testing.T) {
	primary := &stubSTT{name: "sarvam", result: &provider.STTResult{Text: "hello doctor", DetectedLanguage: "en"}}
	c := newTestController(primary, nil, &stubTTS{})

	res, err := c.Listen(context.Background(), ListenRequest{Audio: []byte("wav")})
	require.NoError(t, err)
	require.Equal(t, "hello doctor", res.EnglishTranscript)
	require.Equal(t, "en", res.OriginalLanguage)
}

func TestListen_EmptyAudio(t *testing.T) {
	primary := &stubSTT{name: "sarvam", result: &provider.STTResult{Text: "x"}}
	c := newTestController(primary, nil, &stubTTS{})

	_, err := c.Listen(context.Background(), ListenRequest{})
	require.ErrorIs(t, err, provider.ErrInvalidInput)
}

func TestListen_SilenceIsNoSpeech(t *testing.T) {
	primary := &stubSTT{name: "sarvam", result: &provider.STTResult{Text: ""}}
	c := newTestController(primary, nil, &stubTTS{})

	_, err := c.Listen(context.Background(), ListenRequest{Audio: []byte("wav")})
	require.ErrorIs(t, err, provider.ErrNoSpeech)
}

func TestSpeak_TamilColloquialRoute(t *testing.T) {
	primary := &stubSTT{name: "sarvam", result: &provider.STTResult{Text: "x"}}
	tts := &stubTTS{}
	c := newTestController(primary, nil, tts)

	res, err := c.Speak(context.Background(), SpeakRequest{EnglishText: "Take rest and drink water.", TargetLanguage: "ta"})
	require.NoError(t, err)
	require.Equal(t, "ta", res.FinalLanguage)
	require.Equal(t, "தமிழ் Take rest and drink water.", res.FinalText)
	require.Len(t, res.Audio, len(res.FinalText))
	require.Equal(t, 1, tts.calls)
}

func TestSpeak_EnglishTargetSkipsTranslation(t *testing.T) {
	primary := &stubSTT{name: "sarvam", result: &provider.STTResult{Text: "x"}}
	c := newTestController(primary, nil, &stubTTS{})

	res, err := c.Speak(context.Background(), SpeakRequest{EnglishText: "Take rest."})
	require.NoError(t, err)
	require.Equal(t, "en", res.FinalLanguage)
	require.Equal(t, "Take rest.", res.FinalText)
}

func TestSpeak_SpeedValidation(t *testing.T) {
	primary := &stubSTT{name: "sarvam", result: &provider.STTResult{Text: "x"}}
	c := newTestController(primary, nil, &stubTTS{})

	_, err := c.Speak(context.Background(), SpeakRequest{EnglishText: "hi.", VoiceSpeed: 3.0})
	require.ErrorIs(t, err, provider.ErrInvalidInput)

	_, err = c.Speak(context.Background(), SpeakRequest{EnglishText: "hi.", VoiceSpeed: 0.1})
	require.ErrorIs(t, err, provider.ErrInvalidInput)

	_, err = c.Speak(context.Background(), SpeakRequest{EnglishText: "hi.", VoiceSpeed: 0.5})
	require.NoError(t, err)
}

func TestSpeak_UnknownVoiceProvider(t *testing.T) {
	primary := &stubSTT{name: "sarvam", result: &provider.STTResult{Text: "x"}}
	c := newTestController(primary, nil, &stubTTS{})

	_, err := c.Speak(context.Background(), SpeakRequest{EnglishText: "hi.", VoiceProvider: "espeak"})
	require.ErrorIs(t, err, provider.ErrInvalidInput)
}
