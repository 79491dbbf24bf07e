// Package gemini generates exclusion patterns from a directory tree rendering
// using the Gemini text-completion API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultAPIBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultAPITimeout = 60 * time.Second

	generateContentPathFormat = "%s/models/%s:generateContent"
	headerContentType         = "Content-Type"
	headerAPIKey              = "x-goog-api-key"
	contentTypeJSON           = "application/json"

	generationTemperature     = 0.1
	generationMaxOutputTokens = 1024

	finishReasonSafety = "SAFETY"

	errorEncodeRequestFormat  = "encode generation request: %w"
	errorBuildRequestFormat   = "build generation request: %w"
	errorPerformRequestFormat = "perform generation request: %w"
	errorReadResponseFormat   = "read generation response: %w"
	errorStatusFormat         = "generation backend returned status %d: %s"
	errorDecodeResponseFormat = "decode generation response: %w"
	emptyCandidatesMessage    = "response carried no candidates"
)

var (
	errMissingAPIKey = errors.New("api key is required")
	errMissingModel  = errors.New("model identifier is required")
)

// RefusalError reports a content-safety refusal from the generation backend.
// Retrying an identical prompt cannot succeed, so callers abort immediately.
type RefusalError struct {
	Reason string
}

// Error describes the refusal.
func (refusalError *RefusalError) Error() string {
	return "generation refused: " + refusalError.Reason
}

// Backend produces free text for a prompt under the fixed system instruction.
type Backend interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

type httpClient interface {
	Do(request *http.Request) (*http.Response, error)
}

// HTTPBackend calls the Gemini generateContent REST endpoint.
type HTTPBackend struct {
	client  httpClient
	apiBase string
	apiKey  string
	model   string
}

// NewHTTPBackend constructs a backend for the given credential and model identifier.
func NewHTTPBackend(apiKey string, model string) (HTTPBackend, error) {
	if strings.TrimSpace(apiKey) == "" {
		return HTTPBackend{}, errMissingAPIKey
	}
	if strings.TrimSpace(model) == "" {
		return HTTPBackend{}, errMissingModel
	}
	return HTTPBackend{
		client:  &http.Client{Timeout: defaultAPITimeout},
		apiBase: defaultAPIBaseURL,
		apiKey:  apiKey,
		model:   model,
	}, nil
}

// WithAPIBase overrides the API base URL, primarily for tests.
func (backend HTTPBackend) WithAPIBase(base string) HTTPBackend {
	if base == "" {
		return backend
	}
	backend.apiBase = strings.TrimRight(base, "/")
	return backend
}

// WithClient overrides the HTTP client used for requests.
func (backend HTTPBackend) WithClient(client httpClient) HTTPBackend {
	if client == nil {
		return backend
	}
	backend.client = client
	return backend
}

type generationPart struct {
	Text string `json:"text"`
}

type generationContent struct {
	Role  string           `json:"role,omitempty"`
	Parts []generationPart `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generationRequest struct {
	SystemInstruction generationContent   `json:"systemInstruction"`
	Contents          []generationContent `json:"contents"`
	GenerationConfig  generationConfig    `json:"generationConfig"`
}

type generationCandidate struct {
	Content      generationContent `json:"content"`
	FinishReason string            `json:"finishReason"`
}

type promptFeedback struct {
	BlockReason string `json:"blockReason"`
}

type generationResponse struct {
	Candidates     []generationCandidate `json:"candidates"`
	PromptFeedback promptFeedback        `json:"promptFeedback"`
}

// GenerateContent sends the prompt with the fixed system instruction and
// returns the concatenated candidate text. Safety blocks are reported as
// RefusalError; transport and protocol failures as ordinary errors.
func (backend HTTPBackend) GenerateContent(ctx context.Context, prompt string) (string, error) {
	requestPayload := generationRequest{
		SystemInstruction: generationContent{Parts: []generationPart{{Text: SystemInstruction}}},
		Contents:          []generationContent{{Role: "user", Parts: []generationPart{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     generationTemperature,
			MaxOutputTokens: generationMaxOutputTokens,
		},
	}

	encodedRequest, encodeError := json.Marshal(requestPayload)
	if encodeError != nil {
		return "", fmt.Errorf(errorEncodeRequestFormat, encodeError)
	}

	// Transport errors wrap the request URL verbatim, so the credential must
	// never appear in it.
	requestURL := fmt.Sprintf(generateContentPathFormat, backend.apiBase, url.PathEscape(backend.model))
	request, buildError := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(encodedRequest))
	if buildError != nil {
		return "", fmt.Errorf(errorBuildRequestFormat, buildError)
	}
	request.Header.Set(headerContentType, contentTypeJSON)
	request.Header.Set(headerAPIKey, backend.apiKey)

	response, requestError := backend.client.Do(request)
	if requestError != nil {
		return "", fmt.Errorf(errorPerformRequestFormat, requestError)
	}
	defer response.Body.Close()

	responseBody, readError := io.ReadAll(response.Body)
	if readError != nil {
		return "", fmt.Errorf(errorReadResponseFormat, readError)
	}
	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf(errorStatusFormat, response.StatusCode, strings.TrimSpace(string(responseBody)))
	}

	var decodedResponse generationResponse
	if decodeError := json.Unmarshal(responseBody, &decodedResponse); decodeError != nil {
		return "", fmt.Errorf(errorDecodeResponseFormat, decodeError)
	}

	if decodedResponse.PromptFeedback.BlockReason != "" {
		return "", &RefusalError{Reason: decodedResponse.PromptFeedback.BlockReason}
	}
	if len(decodedResponse.Candidates) == 0 {
		return "", errors.New(emptyCandidatesMessage)
	}

	candidate := decodedResponse.Candidates[0]
	if candidate.FinishReason == finishReasonSafety {
		return "", &RefusalError{Reason: finishReasonSafety}
	}

	var textBuilder strings.Builder
	for _, part := range candidate.Content.Parts {
		textBuilder.WriteString(part.Text)
	}
	return strings.TrimSpace(textBuilder.String()), nil
}

var _ Backend = HTTPBackend{}
