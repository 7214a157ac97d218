package api

import "github.com/samcharles93/seqgen/internal/translate"

// TranslationRequest is the body of POST /v1/translations. Input is a string
// or an array of strings.
type TranslationRequest struct {
	Input    any             `json:"input"`
	K        *int            `json:"k,omitempty"`
	BeamSize *int            `json:"beam_size,omitempty"`
	Sampling *SamplingParams `json:"sampling,omitempty"`
}

// SamplingParams switches a request from beam search to sampling.
type SamplingParams struct {
	Temperature   *float64 `json:"temperature,omitempty"`
	TopK          *int     `json:"top_k,omitempty"`
	TopP          *float64 `json:"top_p,omitempty"`
	MinP          *float64 `json:"min_p,omitempty"`
	RepeatPenalty *float64 `json:"repeat_penalty,omitempty"`
	Seed          *int64   `json:"seed,omitempty"`
}

type Translation struct {
	ID        string              `json:"id"`
	Object    string              `json:"object"`
	CreatedAt int64               `json:"created_at"`
	Partial   bool                `json:"partial"`
	Results   []*translate.Result `json:"results"`
}

type DeleteTranslationResp struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}

type HealthResp struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Pool    int    `json:"pool"`
}
