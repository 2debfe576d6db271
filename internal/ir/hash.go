package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix leaves room for a future algorithm change.
const (
	DomainGraph = "jetdag/graph/v1"
	DomainRun   = "jetdag/run-input/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// GraphID returns the content address of a graph. Two graphs with the same
// nodes, leaves and outputs share an ID regardless of how they were built.
func GraphID(g *Graph) (string, error) {
	data, err := MarshalGraph(g)
	if err != nil {
		return "", fmt.Errorf("GraphID: %w", err)
	}
	return hashWithDomain(DomainGraph, data), nil
}

// InputHash identifies an evaluation request: the graph, the evaluation
// kind, the truncation sizes and the expansion point. Point values are
// hashed through their exact hex form.
func InputHash(graphID, kind string, degree, order int, point map[string]float64) (string, error) {
	pt := make(map[string]any, len(point))
	for name, v := range point {
		pt[name] = FormatFloat(v)
	}
	data, err := MarshalCanonical(map[string]any{
		"graph_id": graphID,
		"kind":     kind,
		"degree":   degree,
		"order":    order,
		"point":    pt,
	})
	if err != nil {
		return "", fmt.Errorf("InputHash: %w", err)
	}
	return hashWithDomain(DomainRun, data), nil
}
