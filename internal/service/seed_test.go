package service_test

import (
	"testing"

	"github.com/nikolayk812/orderledger/internal/repository/memrepo"
	"github.com/nikolayk812/orderledger/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSeedCatalog(t *testing.T) {
	store := memrepo.New()
	catalog := service.DefaultCatalog()

	inserted, err := service.SeedCatalog(t.Context(), store, catalog, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, len(catalog), inserted)

	inserted, err = service.SeedCatalog(t.Context(), store, catalog, zap.NewNop())
	require.NoError(t, err)
	assert.Zero(t, inserted)

	products, err := store.Products().ListProducts(t.Context())
	require.NoError(t, err)
	assert.Len(t, products, len(catalog))
}
