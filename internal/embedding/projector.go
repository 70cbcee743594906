package embedding

import (
	"context"

	"github.com/inventohub/patent-etl/internal/infrastructure/monitoring/logging"
)

// Projector produces one document-level vector per input text: normalize,
// chunk, encode each chunk, mean-pool.  Every failure path returns a zero
// vector of the target dimension; the caller never sees an error.
type Projector struct {
	encoder Encoder
	dim     int
	budget  int
	overlap int
	log     logging.Logger
}

func NewProjector(encoder Encoder, dim, budget, overlap int, log logging.Logger) *Projector {
	return &Projector{
		encoder: encoder,
		dim:     dim,
		budget:  budget,
		overlap: overlap,
		log:     log.Named("projector"),
	}
}

// Dim returns the projector's output dimension.
func (p *Projector) Dim() int { return p.dim }

// Project returns the document vector for text.  The result always has
// exactly Dim elements.
func (p *Projector) Project(ctx context.Context, text string) []float32 {
	chunks := Chunk(Normalize(text), p.budget, p.overlap)
	if len(chunks) == 0 {
		return make([]float32, p.dim)
	}

	vectors := make([][]float32, 0, len(chunks))
	for _, chunk := range chunks {
		vec, err := p.encoder.Encode(ctx, chunk)
		if err != nil {
			p.log.Warn("chunk encode failed, using zero vector for document",
				logging.Int("chunks", len(chunks)),
				logging.Err(err))
			return make([]float32, p.dim)
		}
		if len(vec) != p.dim {
			p.log.Warn("encoder returned unexpected dimension",
				logging.Int("want", p.dim),
				logging.Int("got", len(vec)))
			return make([]float32, p.dim)
		}
		vectors = append(vectors, vec)
	}

	return meanPool(vectors, p.dim)
}

// meanPool averages the chunk vectors element-wise.
func meanPool(vectors [][]float32, dim int) []float32 {
	out := make([]float32, dim)
	for _, v := range vectors {
		for i, x := range v {
			out[i] += x
		}
	}
	n := float32(len(vectors))
	for i := range out {
		out[i] /= n
	}
	return out
}
