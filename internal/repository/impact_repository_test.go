package repository

import (
	"testing"

	"impactx/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestBuildImpactListQuery_WalletFilterIsCaseInsensitive(t *testing.T) {
	// The same address arrives with different EIP-55 checksum casing from
	// different clients; the filter must not depend on it.
	query, args := buildImpactListQuery(map[string]interface{}{
		"wallet_address": "0x12A3456789aBCdEf0123456789abCDef01234567",
	})

	assert.Contains(t, query, "LOWER(wallet_address) = LOWER($1)")
	assert.Equal(t, []interface{}{"0x12A3456789aBCdEf0123456789abCDef01234567"}, args)
}

func TestBuildImpactListQuery_AllFilters(t *testing.T) {
	query, args := buildImpactListQuery(map[string]interface{}{
		"wallet_address": "0xabc",
		"status":         models.ImpactVerified,
		"limit":          25,
	})

	assert.Contains(t, query, "LOWER(wallet_address) = LOWER($1)")
	assert.Contains(t, query, "status = $2")
	assert.Contains(t, query, "ORDER BY created_at DESC")
	assert.Contains(t, query, "LIMIT $3")
	assert.Len(t, args, 3)
}

func TestBuildImpactListQuery_NoFilters(t *testing.T) {
	query, args := buildImpactListQuery(map[string]interface{}{})

	assert.NotContains(t, query, "LOWER")
	assert.NotContains(t, query, "LIMIT")
	assert.Contains(t, query, "ORDER BY created_at DESC")
	assert.Empty(t, args)
}
