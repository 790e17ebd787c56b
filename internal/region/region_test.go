package region

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		wantCode Code
		wantCur  string
		wantErr  bool
	}{
		{name: "turkey", code: "tr", wantCode: Turkey, wantCur: "TRY"},
		{name: "united states", code: "us", wantCode: UnitedStates, wantCur: "USD"},
		{name: "germany", code: "de", wantCode: Germany, wantCur: "EUR"},
		{name: "sweden", code: "se", wantCode: Sweden, wantCur: "SEK"},
		{name: "uk canonical", code: "gb", wantCode: UnitedKingdom, wantCur: "GBP"},
		{name: "uk alias", code: "uk", wantCode: UnitedKingdom, wantCur: "GBP"},
		{name: "unknown region", code: "fr", wantErr: true},
		{name: "empty code", code: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Get(tt.code)

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrUnknownRegion)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, cfg.Code)
			assert.Equal(t, tt.wantCur, cfg.Currency)
			assert.NotEmpty(t, cfg.BaseURL)
			assert.NotEmpty(t, cfg.AcceptLanguage)
			assert.NotEmpty(t, cfg.CategoryPaths)
		})
	}
}

func TestResolve(t *testing.T) {
	t.Run("collapses alias duplicates", func(t *testing.T) {
		configs, err := Resolve([]string{"uk", "gb", "tr"})
		require.NoError(t, err)
		require.Len(t, configs, 2)
		assert.Equal(t, UnitedKingdom, configs[0].Code)
		assert.Equal(t, Turkey, configs[1].Code)
	})

	t.Run("fails fast on unknown code", func(t *testing.T) {
		_, err := Resolve([]string{"tr", "xx"})
		assert.ErrorIs(t, err, ErrUnknownRegion)
	})
}

func TestAll(t *testing.T) {
	configs := All()
	require.Len(t, configs, 5)

	currencies := make(map[string]bool)
	for _, cfg := range configs {
		currencies[cfg.Currency] = true
	}
	for _, cur := range []string{"TRY", "USD", "GBP", "EUR", "SEK"} {
		assert.True(t, currencies[cur], "missing currency %s", cur)
	}
}
