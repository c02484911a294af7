package config

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ssmAPI is the minimal AWS SSM surface the secret overlay needs.
// *ssm.Client from aws-sdk-go-v2 satisfies it.
type ssmAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// ParamStore fetches decrypted SSM parameters.
type ParamStore struct {
	api ssmAPI
}

func NewParamStore(api ssmAPI) (*ParamStore, error) {
	if api == nil {
		return nil, errors.New("config: ssm api must not be nil")
	}
	return &ParamStore{api: api}, nil
}

func (p *ParamStore) Get(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("config: parameter name is required")
	}
	withDecryption := true
	out, err := p.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &name,
		WithDecryption: &withDecryption,
	})
	if err != nil {
		return "", fmt.Errorf("config: get parameter %q: %w", name, err)
	}
	if out == nil || out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("config: parameter %q has no value", name)
	}
	return *out.Parameter.Value, nil
}

// ApplySSM fills API keys that the environment left empty from the
// parameter store under prefix (e.g. "/voice-gateway/prod"). Parameters
// that do not exist are skipped; secrets set via environment always win.
func (c *Config) ApplySSM(ctx context.Context, store *ParamStore, prefix string) {
	prefix = strings.TrimRight(prefix, "/")
	overlay := []struct {
		name string
		dst  *string
	}{
		{"sarvam-api-key", &c.SarvamAPIKey},
		{"google-api-key", &c.GoogleAPIKey},
		{"gemini-api-key", &c.GeminiAPIKey},
		{"openai-api-key", &c.OpenAIAPIKey},
		{"elevenlabs-api-key", &c.ElevenLabsAPIKey},
		{"deepgram-api-key", &c.DeepgramAPIKey},
	}
	for _, o := range overlay {
		if *o.dst != "" {
			continue
		}
		v, err := store.Get(ctx, prefix+"/"+o.name)
		if err != nil {
			log.Printf("config: ssm overlay skipped %s: %v", o.name, err)
			continue
		}
		*o.dst = v
	}
}
