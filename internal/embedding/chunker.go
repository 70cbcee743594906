package embedding

import "strings"

// Chunk splits text into windows of at most budget tokens, each window
// starting budget-overlap tokens after the previous one.  Tokens are
// whitespace-delimited words, a close-enough stand-in for the encoder's own
// tokenizer given the post-normalization vocabulary.  Empty input yields no
// chunks.
func Chunk(text string, budget, overlap int) []string {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil
	}
	if budget < 1 {
		return []string{text}
	}
	if overlap < 0 || overlap >= budget {
		overlap = 0
	}

	step := budget - overlap
	var chunks []string
	for start := 0; start < len(tokens); start += step {
		end := start + budget
		if end > len(tokens) {
			end = len(tokens)
		}
		chunks = append(chunks, strings.Join(tokens[start:end], " "))
	}
	return chunks
}
