package source_test

import (
	"testing"

	"github.com/illmade-knight/go-dataprovider/pkg/provider"
	"github.com/illmade-knight/go-dataprovider/pkg/source"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// Both base providers satisfy the contract.
var (
	_ provider.Provider = (*source.HTTPSource)(nil)
	_ provider.Provider = (*source.FirestoreSource)(nil)
)

func TestNewFirestoreSource_NilClient(t *testing.T) {
	_, err := source.NewFirestoreSource(&source.FirestoreSourceConfig{}, nil, zerolog.Nop())
	require.Error(t, err)
}
