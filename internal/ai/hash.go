package ai

import (
	"context"
	"crypto/md5"
	"fmt"
	"math"
	"regexp"
	"strings"
)

// hashEmbedProvider is a local, deterministic embedder: every word hashes
// into a handful of fixed positions of a normalized vector. It needs no
// network and always returns the identical vector for identical text, which
// keeps the similarity index stable across restarts.
type hashEmbedProvider struct {
	dim int
}

type hashEmbedConfig struct {
	Dim int `json:"dim"`
}

const defaultHashDim = 256

var wordRegex = regexp.MustCompile(`\w+`)

// Filler words carry no signal for questionnaire matching.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"be": {}, "been": {}, "being": {}, "have": {}, "has": {}, "had": {},
	"do": {}, "does": {}, "did": {}, "will": {}, "would": {}, "could": {},
	"should": {}, "may": {}, "might": {}, "must": {}, "shall": {}, "can": {},
	"need": {}, "dare": {}, "ought": {}, "used": {}, "to": {}, "of": {},
	"in": {}, "for": {}, "on": {}, "with": {}, "at": {}, "by": {}, "from": {},
	"as": {}, "into": {}, "through": {}, "during": {}, "before": {},
	"after": {}, "above": {}, "below": {}, "between": {}, "under": {},
	"again": {}, "further": {}, "then": {}, "once": {}, "and": {}, "but": {},
	"or": {}, "nor": {}, "so": {}, "yet": {}, "both": {}, "either": {},
	"neither": {}, "not": {}, "only": {}, "own": {}, "same": {}, "than": {},
	"too": {}, "very": {}, "just": {}, "also": {}, "your": {}, "you": {},
	"our": {}, "we": {}, "they": {}, "their": {}, "this": {}, "that": {},
	"these": {}, "those": {}, "what": {}, "which": {}, "who": {}, "whom": {},
	"how": {}, "when": {}, "where": {}, "why": {}, "all": {}, "each": {},
	"every": {}, "any": {}, "some": {}, "no": {}, "none": {},
}

func (p *hashEmbedProvider) Name() string {
	return "hash"
}

func (p *hashEmbedProvider) Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error) {
	_ = ctx
	_ = model
	_ = taskType
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty text")
	}

	vector := make([]float32, p.dim)
	for _, word := range wordRegex.FindAllString(strings.ToLower(text), -1) {
		if len(word) <= 2 {
			continue
		}
		if _, ok := stopWords[word]; ok {
			continue
		}
		// Spread each word over four hash-derived positions.
		sum := md5.Sum([]byte(word))
		for i := 0; i < 4; i++ {
			vector[int(sum[i])%p.dim] += 1.0
		}
	}

	var magnitude float64
	for _, v := range vector {
		magnitude += float64(v) * float64(v)
	}
	if magnitude > 0 {
		norm := float32(math.Sqrt(magnitude))
		for i := range vector {
			vector[i] /= norm
		}
	}
	return vector, nil
}

func createHashEmbedFactory(args interface{}) (IEmbedProvider, error) {
	cfg := &hashEmbedConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	dim := cfg.Dim
	if dim <= 0 {
		dim = defaultHashDim
	}
	return &hashEmbedProvider{dim: dim}, nil
}

func init() {
	RegisterEmbed("hash", createHashEmbedFactory)
}
