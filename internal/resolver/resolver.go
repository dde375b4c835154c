// Package resolver disambiguates ticker collisions across chains and bridges,
// picking the single most-likely-native coin from a set of same-symbol
// catalogue entries.
package resolver

import (
	"fmt"
	"strings"

	"github.com/alanyoungcy/stablewatch/internal/domain"
)

// bridgeScore marks a candidate as a definite bridge; such candidates are
// never selected.
const bridgeScore = -1000

// maxNativeChains is the deployment-count ceiling: a single catalogue entry
// deployed on more chains than this is a bridged aggregate, not a native
// issuance record.
const maxNativeChains = 3

// Resolver scores same-ticker candidates against its configured tables.
type Resolver struct {
	tables Tables
}

// New creates a Resolver using the given tables. Use DefaultTables for the
// production rule set.
func New(tables Tables) *Resolver {
	return &Resolver{tables: tables}
}

// Resolve filters the catalogue to candidates matching ticker
// (case-insensitive) and returns the highest-scoring non-bridge candidate.
//
// It returns domain.ErrNotFound when no candidate matches the ticker at all,
// and domain.ErrOnlyBridged when matches exist but every one is a
// disqualified bridge. Ties are broken by catalogue order: first seen wins.
func (r *Resolver) Resolve(catalogue []domain.CoinCandidate, ticker string) (domain.NativeTokenResolution, error) {
	want := strings.ToLower(strings.TrimSpace(ticker))
	if want == "" {
		return domain.NativeTokenResolution{}, fmt.Errorf("resolver: empty ticker: %w", domain.ErrNotFound)
	}

	var matched []domain.CoinCandidate
	for _, c := range catalogue {
		if strings.ToLower(c.Symbol) == want {
			matched = append(matched, c)
		}
	}
	if len(matched) == 0 {
		return domain.NativeTokenResolution{}, fmt.Errorf("resolver: ticker %q: %w", ticker, domain.ErrNotFound)
	}

	var (
		res      domain.NativeTokenResolution
		selected bool
	)
	for _, c := range matched {
		score := r.score(c)
		if score <= bridgeScore {
			res.RejectedBridges = append(res.RejectedBridges, c)
			continue
		}
		// Strict comparison keeps the first-seen candidate on ties.
		if !selected || score > res.Score {
			res.Selected = c
			res.Score = score
			selected = true
		}
	}

	if !selected {
		return res, fmt.Errorf("resolver: ticker %q: %w", ticker, domain.ErrOnlyBridged)
	}
	return res, nil
}

// score computes the native-likelihood score for one candidate. A return of
// bridgeScore means the candidate is disqualified outright.
func (r *Resolver) score(c domain.CoinCandidate) float64 {
	if _, bridged := r.disqualify(c); bridged {
		return bridgeScore
	}

	var score float64

	// Weight for each known native chain the candidate is deployed on.
	for chain := range c.Platforms {
		if w, ok := r.tables.NativeChainWeights[strings.ToLower(chain)]; ok {
			score += w
		}
	}

	// Bonus for chain-specific naming keywords matching a chain the
	// candidate actually lives on.
	text := candidateText(c)
	for chain := range c.Platforms {
		for _, kw := range r.tables.ChainKeywords[strings.ToLower(chain)] {
			if strings.Contains(text, kw) {
				score += chainKeywordBonus
			}
		}
	}

	// Short, simple identifiers are typical of the original listing.
	if simpleID(c.ID) {
		score += simpleIDBonus
	}
	if strings.EqualFold(c.ID, c.Symbol) {
		score += symbolEqualsIDBonus
	}

	// Higher market-cap rank (closer to 1) means more likely canonical.
	if c.MarketCapRank > 0 {
		score += rankBonusScale / float64(c.MarketCapRank)
	}

	return score
}

// Per-rule score contributions.
const (
	chainKeywordBonus   = 1.0
	simpleIDBonus       = 1.0
	symbolEqualsIDBonus = 2.0
	rankBonusScale      = 50.0
)

// disqualify applies the ordered bridge rules and returns the first matching
// reason, if any.
func (r *Resolver) disqualify(c domain.CoinCandidate) (string, bool) {
	rules := []func(domain.CoinCandidate) (string, bool){
		r.bridgeKeywordRule,
		r.emptyPlatformRule,
		r.chainSprawlRule,
	}
	for _, rule := range rules {
		if reason, ok := rule(c); ok {
			return reason, true
		}
	}
	return "", false
}

// bridgeKeywordRule flags candidates whose combined name/id/symbol/platform
// text contains any bridge-indicator substring.
func (r *Resolver) bridgeKeywordRule(c domain.CoinCandidate) (string, bool) {
	text := candidateText(c)
	for _, kw := range r.tables.BridgeKeywords {
		if strings.Contains(text, kw) {
			return "bridge keyword " + kw, true
		}
	}
	return "", false
}

// emptyPlatformRule flags candidates with no platform entries unless they are
// on the known natively-issued allowlist.
func (r *Resolver) emptyPlatformRule(c domain.CoinCandidate) (string, bool) {
	if len(c.Platforms) > 0 {
		return "", false
	}
	for _, id := range r.tables.NativeAllowlist {
		if strings.EqualFold(id, c.ID) {
			return "", false
		}
	}
	return "no platform data", true
}

// chainSprawlRule flags candidates deployed on more chains than a native
// issuance record would list.
func (r *Resolver) chainSprawlRule(c domain.CoinCandidate) (string, bool) {
	if c.ChainCount() > maxNativeChains {
		return fmt.Sprintf("deployed on %d chains", c.ChainCount()), true
	}
	return "", false
}

// candidateText concatenates the candidate's textual fields, lowercased, for
// substring matching.
func candidateText(c domain.CoinCandidate) string {
	var sb strings.Builder
	sb.WriteString(strings.ToLower(c.Name))
	sb.WriteByte(' ')
	sb.WriteString(strings.ToLower(c.ID))
	sb.WriteByte(' ')
	sb.WriteString(strings.ToLower(c.Symbol))
	for chain := range c.Platforms {
		sb.WriteByte(' ')
		sb.WriteString(strings.ToLower(chain))
	}
	return sb.String()
}

// simpleID reports whether id looks like an original short listing id:
// a single token without digits, at most 12 characters.
func simpleID(id string) bool {
	if len(id) == 0 || len(id) > 12 {
		return false
	}
	for _, r := range id {
		if r == '-' || r == '_' || (r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}
