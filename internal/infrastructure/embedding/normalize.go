package embedding

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/optiprice/backend/internal/domain"
)

// ResultKind tags the variant held by a Result
type ResultKind int

const (
	// ResultVectors means the provider returned one vector per input
	ResultVectors ResultKind = iota
	// ResultProviderError means the provider answered with an error payload
	ResultProviderError
)

// Result is a remote embedding response after normalization. Later stages only
// ever look at Kind, never at the raw response shape.
type Result struct {
	Kind    ResultKind
	Vectors []domain.EmbeddingVector
	Message string
}

func vectorsResult(vectors []domain.EmbeddingVector) Result {
	return Result{Kind: ResultVectors, Vectors: vectors}
}

func providerError(format string, args ...interface{}) Result {
	return Result{Kind: ResultProviderError, Message: fmt.Sprintf(format, args...)}
}

// normalizeResponse converts a raw feature-extraction payload into a Result.
//
// Accepted shapes: a list of vectors, a single vector, and a list nested one level
// deeper than requested, which is flattened over its outer dimension. Objects are
// read as provider errors.
func normalizeResponse(payload []byte) Result {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return providerError("empty response")
	}

	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	var root interface{}
	if err := dec.Decode(&root); err != nil {
		return providerError("malformed response: %v", err)
	}

	switch v := root.(type) {
	case map[string]interface{}:
		return providerError("%s", errorMessage(v))
	case []interface{}:
		if vec, ok := asVector(v); ok && len(vec) > 0 {
			return vectorsResult([]domain.EmbeddingVector{vec})
		}
		if matrix, ok := asMatrix(v); ok {
			return vectorsResult(matrix)
		}
		var flattened []domain.EmbeddingVector
		for _, item := range v {
			inner, ok := item.([]interface{})
			if !ok {
				return providerError("malformed response: mixed nesting")
			}
			matrix, ok := asMatrix(inner)
			if !ok {
				return providerError("malformed response: non-numeric values")
			}
			flattened = append(flattened, matrix...)
		}
		return vectorsResult(flattened)
	default:
		return providerError("malformed response: unexpected %T", root)
	}
}

// errorMessage extracts a readable message from an error object
func errorMessage(obj map[string]interface{}) string {
	switch e := obj["error"].(type) {
	case string:
		return e
	case []interface{}:
		parts := make([]string, 0, len(e))
		for _, p := range e {
			parts = append(parts, fmt.Sprint(p))
		}
		return strings.Join(parts, "; ")
	case map[string]interface{}:
		if msg, ok := e["message"].(string); ok {
			return msg
		}
	}
	if msg, ok := obj["message"].(string); ok {
		return msg
	}
	return "unexpected object response"
}

func asVector(items []interface{}) (domain.EmbeddingVector, bool) {
	vec := make(domain.EmbeddingVector, len(items))
	for i, item := range items {
		num, ok := item.(json.Number)
		if !ok {
			return nil, false
		}
		f, err := num.Float64()
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, false
		}
		vec[i] = f
	}
	return vec, true
}

func asMatrix(items []interface{}) ([]domain.EmbeddingVector, bool) {
	matrix := make([]domain.EmbeddingVector, len(items))
	for i, item := range items {
		row, ok := item.([]interface{})
		if !ok {
			return nil, false
		}
		vec, ok := asVector(row)
		if !ok {
			return nil, false
		}
		matrix[i] = vec
	}
	return matrix, true
}

// validateVectors enforces one finite vector per input with a shared, non-zero dimensionality
func validateVectors(vectors []domain.EmbeddingVector, want int) error {
	if len(vectors) != want {
		return fmt.Errorf("got %d vectors for %d texts", len(vectors), want)
	}
	if want == 0 {
		return nil
	}
	dim := len(vectors[0])
	if dim == 0 {
		return fmt.Errorf("empty vectors")
	}
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("vector %d has %d dimensions, want %d", i, len(v), dim)
		}
		for _, x := range v {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return fmt.Errorf("vector %d contains non-finite values", i)
			}
		}
	}
	return nil
}
