package service

import "github.com/xrpl-farmer-api/internal/models"

// Partition splits input into addresses that matched a farmer record and
// addresses that did not. Matching is exact and case-sensitive.
//
// farmers holds each matched address once, in order of first appearance in
// input. cleaned is input filtered to unmatched addresses and keeps input
// order and repeats.
func Partition(input []string, matched []models.FarmerRecord) (cleaned, farmers []string) {
	matchedSet := make(map[string]struct{}, len(matched))
	for _, rec := range matched {
		matchedSet[rec.XRPLAddress] = struct{}{}
	}

	cleaned = make([]string, 0, len(input))
	farmers = make([]string, 0, len(matchedSet))
	emitted := make(map[string]struct{}, len(matchedSet))

	for _, addr := range input {
		if _, ok := matchedSet[addr]; !ok {
			cleaned = append(cleaned, addr)
			continue
		}
		if _, done := emitted[addr]; done {
			continue
		}
		emitted[addr] = struct{}{}
		farmers = append(farmers, addr)
	}

	return cleaned, farmers
}
