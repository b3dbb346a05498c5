package asr

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/rbright/hotscribe/internal/failure"
)

// OpenAI transcribes through the audio transcriptions endpoint of an
// OpenAI-compatible API.
type OpenAI struct {
	client openai.Client
	model  string
	logger *slog.Logger
}

// NewOpenAI builds a client from opts. The SDK's own retries are disabled;
// re-submitting is left to the user.
func NewOpenAI(opts Options) (*OpenAI, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, failure.New(failure.KindConfig, "OPENAI_API_KEY is not set")
	}

	requestOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(opts.BaseURL))
	}

	return &OpenAI{
		client: openai.NewClient(requestOpts...),
		model:  opts.Model,
		logger: loggerOrDiscard(opts.Logger),
	}, nil
}

func (o *OpenAI) Name() string { return EngineOpenAI }

// Transcribe uploads the staged WAV and returns the transcript text.
func (o *OpenAI) Transcribe(ctx context.Context, in Input) (string, error) {
	file, err := os.Open(in.Path)
	if err != nil {
		return "", failure.Wrap(failure.KindInput, "open recording", err)
	}
	defer file.Close()

	params := openai.AudioTranscriptionNewParams{
		File:  file,
		Model: openai.AudioModel(o.model),
	}
	if lang := NormalizeLanguage(in.Language); lang != "" {
		params.Language = openai.String(lang)
	}
	if in.Prompt != "" {
		params.Prompt = openai.String(in.Prompt)
	}

	o.logger.Debug("openai transcription request", "model", o.model, "audio", describe(in))
	resp, err := o.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", classifyAPIError(err)
	}
	return resp.Text, nil
}

// classifyAPIError maps HTTP status codes onto transcription failure kinds.
// Rejected credentials count as a resource failure like any other denied
// access. Transport errors are returned as-is for the dispatcher to classify.
func classifyAPIError(err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return err
	}

	switch code := apiErr.StatusCode; {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return failure.Wrap(failure.KindResource, "transcription API rejected the credentials; check OPENAI_API_KEY", err)
	case code == http.StatusTooManyRequests:
		return failure.Wrap(failure.KindResource, "transcription API quota or rate limit reached", err)
	case code == http.StatusBadRequest || code == http.StatusRequestEntityTooLarge ||
		code == http.StatusUnsupportedMediaType || code == http.StatusUnprocessableEntity:
		return failure.Wrap(failure.KindInput, "transcription API rejected the recording", err)
	case code >= 500:
		return failure.Wrap(failure.KindConnectivity, "transcription API unavailable", err)
	default:
		return failure.Wrap(failure.KindUnknown, "transcription API error", err)
	}
}
