package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainNetwork = "pulse/network/v1"
	DomainState   = "pulse/state/v1"
	DomainResult  = "pulse/result/v1"
)

// hashWithDomain computes SHA-256 with domain separation:
// SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// NetworkHash identifies a network description. Declarations are hashed in
// id order, so reordering lines of a description does not change the hash;
// destination order is kept because it changes the propagation order.
func NetworkHash(decls []NodeDecl) (string, error) {
	canonical, err := MarshalCanonical(DeclsValue(decls))
	if err != nil {
		return "", fmt.Errorf("NetworkHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainNetwork, canonical), nil
}

// DeclsValue converts declarations into the canonical value form, sorted by
// node id.
func DeclsValue(decls []NodeDecl) []any {
	sorted := make([]NodeDecl, len(decls))
	copy(sorted, decls)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	out := make([]any, len(sorted))
	for i, d := range sorted {
		dests := make([]string, len(d.Destinations))
		for j, dst := range d.Destinations {
			dests[j] = string(dst)
		}
		out[i] = map[string]any{
			"id":           string(d.ID),
			"kind":         string(d.Kind),
			"destinations": dests,
		}
	}
	return out
}

// StateHash hashes an encoded network state snapshot.
func StateHash(snapshot []byte) string {
	return hashWithDomain(DomainState, snapshot)
}

// ResultKey identifies a computed answer: the network, the run mode and the
// mode parameters, under the current engine version. Identical keys must
// produce identical answers, which is what lets the store act as a cache.
func ResultKey(networkHash, mode string, params map[string]any) (string, error) {
	if params == nil {
		params = map[string]any{}
	}
	obj := map[string]any{
		"network":        networkHash,
		"mode":           mode,
		"params":         params,
		"engine_version": EngineVersion,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("ResultKey: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainResult, canonical), nil
}
