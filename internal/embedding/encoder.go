package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/inventohub/patent-etl/internal/config"
	"github.com/inventohub/patent-etl/internal/infrastructure/monitoring/logging"
	apperrors "github.com/inventohub/patent-etl/pkg/errors"
)

// Encoder turns one text chunk into a fixed-dimension vector.
type Encoder interface {
	Encode(ctx context.Context, text string) ([]float32, error)
}

// HTTPEncoder calls an embedding model served over an Ollama-compatible
// HTTP API.
type HTTPEncoder struct {
	baseURL string
	model   string
	client  *http.Client
	log     logging.Logger
}

func NewHTTPEncoder(cfg config.EmbeddingConfig, log logging.Logger) *HTTPEncoder {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPEncoder{
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		client:  &http.Client{Timeout: timeout},
		log:     log.Named("encoder"),
	}
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Encode posts one chunk to the model and returns its vector.
func (e *HTTPEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embedRequest{Model: e.model, Prompt: text})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeEmbeddingFailed, "marshal embed request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeEmbeddingFailed, "build embed request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeExternalService, "call embedding service")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.New(apperrors.ErrCodeExternalService,
			fmt.Sprintf("embedding service returned status %d", resp.StatusCode))
	}

	var er embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeEmbeddingFailed, "decode embed response")
	}
	return er.Embedding, nil
}
