package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/stablewatch/internal/domain"
)

func testTables() Tables {
	return Tables{
		BridgeKeywords: []string{"bridged", "wrapped", "polygon", "bsc"},
		NativeChainWeights: map[string]float64{
			"ethereum": 10,
			"tron":     8,
		},
		ChainKeywords: map[string][]string{
			"ethereum": {"erc20"},
		},
		NativeAllowlist: []string{"nativecoin"},
	}
}

func TestResolve_PrefersNativeOverBridge(t *testing.T) {
	catalogue := []domain.CoinCandidate{
		{
			ID:        "bridged-usdx-polygon",
			Symbol:    "USDX",
			Name:      "Bridged USDX (Polygon)",
			Platforms: map[string]string{"polygon-pos": "0xabc"},
		},
		{
			ID:            "usdx",
			Symbol:        "USDX",
			Name:          "USDX",
			Platforms:     map[string]string{"ethereum": "0xdef"},
			MarketCapRank: 10,
		},
	}

	res, err := New(testTables()).Resolve(catalogue, "usdx")
	require.NoError(t, err)

	assert.Equal(t, "usdx", res.Selected.ID)
	assert.Len(t, res.RejectedBridges, 1)
	assert.Equal(t, "bridged-usdx-polygon", res.RejectedBridges[0].ID)
}

func TestResolve_NeverSelectsBridgeFlaggedCandidate(t *testing.T) {
	// Even when the bridge candidate would out-score the native one on
	// chain weights, the keyword disqualification must win.
	catalogue := []domain.CoinCandidate{
		{
			ID:     "usdy-wrapped",
			Symbol: "USDY",
			Name:   "Wrapped USDY",
			Platforms: map[string]string{
				"ethereum": "0x1",
				"tron":     "0x2",
			},
			MarketCapRank: 1,
		},
		{
			ID:        "usdy",
			Symbol:    "USDY",
			Name:      "USDY",
			Platforms: map[string]string{"tron": "0x3"},
		},
	}

	res, err := New(testTables()).Resolve(catalogue, "USDY")
	require.NoError(t, err)
	assert.Equal(t, "usdy", res.Selected.ID)
}

func TestResolve_TickerAbsent(t *testing.T) {
	catalogue := []domain.CoinCandidate{
		{ID: "usdx", Symbol: "USDX", Name: "USDX", Platforms: map[string]string{"ethereum": "0x1"}},
	}

	_, err := New(testTables()).Resolve(catalogue, "nosuch")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResolve_OnlyBridgedVersionsFound(t *testing.T) {
	catalogue := []domain.CoinCandidate{
		{
			ID:        "bridged-polygon-usdx",
			Symbol:    "USDX",
			Name:      "Bridged USDX",
			Platforms: map[string]string{"polygon-pos": "0x1"},
		},
	}

	res, err := New(testTables()).Resolve(catalogue, "usdx")
	require.ErrorIs(t, err, domain.ErrOnlyBridged)
	assert.Len(t, res.RejectedBridges, 1)
}

func TestResolve_FirstSeenWinsOnTie(t *testing.T) {
	// Two identical-scoring candidates: listing order decides.
	catalogue := []domain.CoinCandidate{
		{ID: "usdz", Symbol: "USDZ", Name: "USDZ One", Platforms: map[string]string{"ethereum": "0x1"}},
		{ID: "usdzz", Symbol: "USDZ", Name: "USDZ Two", Platforms: map[string]string{"ethereum": "0x2"}},
	}

	tables := Tables{
		NativeChainWeights: map[string]float64{"ethereum": 10},
	}
	res, err := New(tables).Resolve(catalogue, "usdz")
	require.NoError(t, err)
	// First candidate also earns the symbol-equals-id bonus, but even with
	// equal scores the first-seen rule applies; assert against the scores
	// to make the intent explicit.
	assert.Equal(t, "usdz", res.Selected.ID)
}

func TestResolve_EmptyPlatformsDisqualifiedUnlessAllowlisted(t *testing.T) {
	catalogue := []domain.CoinCandidate{
		{ID: "ghostcoin", Symbol: "GST", Name: "Ghost"},
		{ID: "nativecoin", Symbol: "NTV", Name: "Native"},
	}

	r := New(testTables())

	_, err := r.Resolve(catalogue, "gst")
	require.ErrorIs(t, err, domain.ErrOnlyBridged)

	res, err := r.Resolve(catalogue, "ntv")
	require.NoError(t, err)
	assert.Equal(t, "nativecoin", res.Selected.ID)
}

func TestResolve_ChainSprawlDisqualifies(t *testing.T) {
	catalogue := []domain.CoinCandidate{
		{
			ID:     "usdw",
			Symbol: "USDW",
			Name:   "USDW Everywhere",
			Platforms: map[string]string{
				"ethereum": "0x1",
				"tron":     "0x2",
				"solana":   "0x3",
				"base":     "0x4",
			},
		},
	}

	_, err := New(testTables()).Resolve(catalogue, "usdw")
	require.ErrorIs(t, err, domain.ErrOnlyBridged)
}

func TestResolve_MarketCapRankBreaksNearTies(t *testing.T) {
	catalogue := []domain.CoinCandidate{
		{ID: "usdq-token", Symbol: "USDQ", Name: "USDQ Token", Platforms: map[string]string{"ethereum": "0x1"}, MarketCapRank: 900},
		{ID: "usdq-coin", Symbol: "USDQ", Name: "USDQ Coin", Platforms: map[string]string{"ethereum": "0x2"}, MarketCapRank: 9},
	}

	res, err := New(testTables()).Resolve(catalogue, "usdq")
	require.NoError(t, err)
	assert.Equal(t, "usdq-coin", res.Selected.ID)
}
