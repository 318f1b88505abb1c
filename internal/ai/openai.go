package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"roadwatch/internal/config"
	"roadwatch/internal/domain"
	"roadwatch/pkg/e"

	"log/slog"
)

// OpenAI talks to an OpenAI-compatible API: chat completions for text
// and photo, the transcription endpoint for voice. Every response is
// treated as untrusted free text: the first well-formed JSON object is
// extracted and anything else is a backend failure.
type OpenAI struct {
	client *http.Client
	cfg    config.AIConfig
	parser *ConfigHolder
	logger *slog.Logger
}

func NewOpenAI(cfg config.AIConfig, parser *ConfigHolder, logger *slog.Logger) *OpenAI {
	return &OpenAI{
		client: &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
		parser: parser,
		logger: logger,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (o *OpenAI) AnalyzeText(ctx context.Context, text string) (*domain.ParsedIncident, error) {
	const op = "ai.OpenAI.AnalyzeText"

	pc := o.parser.Get()
	req := chatRequest{
		Model:       pc.Model,
		Temperature: pc.Temperature,
		Messages: []chatMessage{
			{Role: "system", Content: pc.Prompt},
			{Role: "user", Content: text},
		},
	}

	content, err := o.chat(ctx, req)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	return o.parseContent(op, content)
}

func (o *OpenAI) AnalyzeVoice(ctx context.Context, payload []byte, mimeType string) (*domain.ParsedIncident, error) {
	const op = "ai.OpenAI.AnalyzeVoice"

	transcript, err := o.transcribe(ctx, payload, mimeType)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if strings.TrimSpace(transcript) == "" {
		return nil, nil
	}
	return o.AnalyzeText(ctx, transcript)
}

func (o *OpenAI) AnalyzePhoto(ctx context.Context, payload []byte, mimeType string) (*domain.ParsedIncident, error) {
	const op = "ai.OpenAI.AnalyzePhoto"

	pc := o.parser.Get()
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(payload))
	req := chatRequest{
		Model:       pc.Model,
		Temperature: pc.Temperature,
		Messages: []chatMessage{
			{Role: "system", Content: pc.Prompt},
			{Role: "user", Content: []map[string]any{
				{"type": "text", "text": "Classify the road incident shown in this photo."},
				{"type": "image_url", "image_url": map[string]string{"url": dataURL}},
			}},
		},
	}

	content, err := o.chat(ctx, req)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	return o.parseContent(op, content)
}

func (o *OpenAI) chat(ctx context.Context, req chatRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		o.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", e.Wrap("request failed", e.ErrBackendUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		o.logger.Warn("ai backend returned non-200", slog.Int("status", resp.StatusCode))
		return "", fmt.Errorf("status %d: %w", resp.StatusCode, e.ErrBackendUnavailable)
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", err
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("empty choices: %w", e.ErrBackendUnavailable)
	}
	return cr.Choices[0].Message.Content, nil
}

func (o *OpenAI) transcribe(ctx context.Context, payload []byte, mimeType string) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", "report"+extensionFor(mimeType))
	if err != nil {
		return "", err
	}
	if _, err := part.Write(payload); err != nil {
		return "", err
	}
	if err := w.WriteField("model", "whisper-1"); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		o.cfg.BaseURL+"/audio/transcriptions", &buf)
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", w.FormDataContentType())
	httpReq.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", e.Wrap("transcription request failed", e.ErrBackendUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transcription status %d: %w", resp.StatusCode, e.ErrBackendUnavailable)
	}

	var tr struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", err
	}
	return tr.Text, nil
}

func (o *OpenAI) parseContent(op, content string) (*domain.ParsedIncident, error) {
	raw, ok := firstJSONObject(content)
	if !ok {
		o.logger.Warn("no json object in ai response", slog.String("op", op))
		return nil, fmt.Errorf("%s: malformed response: %w", op, e.ErrBackendUnavailable)
	}

	var parsed domain.ParsedIncident
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("%s: %w", op, e.ErrBackendUnavailable)
	}

	if !domain.ValidIncidentType(parsed.Type) {
		parsed.Type = domain.TypeOther
	}
	if parsed.Severity < 1 || parsed.Severity > 5 {
		parsed.Severity = 3
	}
	parsed.Description = truncate(parsed.Description, maxDescriptionLen)
	if parsed.Confidence == 0 {
		parsed.Confidence = 0.85
	}
	return &parsed, nil
}

// firstJSONObject scans for the first balanced {...} block, skipping
// braces inside string literals.
func firstJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "audio/ogg":
		return ".ogg"
	case "audio/mpeg":
		return ".mp3"
	case "audio/wav", "audio/x-wav":
		return ".wav"
	case "audio/mp4", "audio/m4a":
		return ".m4a"
	default:
		return ".bin"
	}
}
