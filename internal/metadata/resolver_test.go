package metadata

import (
	"context"
	"encoding/base64"
	"fmt"
	"math/big"
	"testing"

	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna-game/mna-indexer/internal/adapter"
	"github.com/mna-game/mna-indexer/internal/domain"
	"github.com/mna-game/mna-indexer/internal/engine"
)

// stubGameClient serves a canned tokenURI
type stubGameClient struct {
	uri string
	err error
}

func (s *stubGameClient) ParseEventLog(_ context.Context, _ types.Log) (*domain.GameEvent, error) {
	return nil, nil
}

func (s *stubGameClient) SubscribeFilterLogs(_ context.Context, _ goethereum.FilterQuery, _ chan<- types.Log) (goethereum.Subscription, error) {
	return nil, nil
}

func (s *stubGameClient) FilterLogs(_ context.Context, _ goethereum.FilterQuery) ([]types.Log, error) {
	return nil, nil
}

func (s *stubGameClient) HeaderByNumber(_ context.Context, _ *big.Int) (*types.Header, error) {
	return nil, nil
}

func (s *stubGameClient) ERC721TokenURI(_ context.Context, _, _ string) (string, error) {
	return s.uri, s.err
}

func (s *stubGameClient) Close() {}

// stubHTTPClient records the requested URL and returns a canned body
type stubHTTPClient struct {
	lastURL string
	body    []byte
	err     error
}

func (s *stubHTTPClient) Get(_ context.Context, _ string, _ interface{}) error {
	return fmt.Errorf("not implemented")
}

func (s *stubHTTPClient) GetRaw(_ context.Context, url string) ([]byte, error) {
	s.lastURL = url
	return s.body, s.err
}

const marineDoc = `{"name":"Marine #1","attributes":[` +
	`{"trait_type":"M_Eyes","value":"Laser"},` +
	`{"trait_type":"M_Weapon","value":"Rifle"},` +
	`{"trait_type":"Rank Score","value":42},` +
	`{"trait_type":"Generation","value":"Gen 0"}]}`

func TestResolveFromDataURI(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte(marineDoc))
	r := NewResolver(
		&stubGameClient{uri: "data:application/json;base64," + encoded},
		&stubHTTPClient{},
		adapter.NewJSON(),
	)

	resolved, err := r.Resolve(context.Background(), "0x1111111111111111111111111111111111111111", "1")
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.JSONEq(t, marineDoc, string(resolved.Raw))
	assert.Equal(t, []engine.TokenAttribute{
		{Name: "M_Eyes", Value: "Laser"},
		{Name: "M_Weapon", Value: "Rifle"},
		{Name: "Rank Score", Value: "42"},
		{Name: "Generation", Value: "Gen 0"},
	}, resolved.Attributes)
}

func TestResolveFromPlainDataURI(t *testing.T) {
	r := NewResolver(
		&stubGameClient{uri: "data:application/json," + marineDoc},
		&stubHTTPClient{},
		adapter.NewJSON(),
	)

	resolved, err := r.Resolve(context.Background(), "0x1111111111111111111111111111111111111111", "1")
	require.NoError(t, err)
	assert.Len(t, resolved.Attributes, 4)
}

func TestResolveFromIPFS(t *testing.T) {
	httpClient := &stubHTTPClient{body: []byte(marineDoc)}
	r := NewResolver(
		&stubGameClient{uri: "ipfs://QmHash/1.json"},
		httpClient,
		adapter.NewJSON(),
	)

	resolved, err := r.Resolve(context.Background(), "0x1111111111111111111111111111111111111111", "1")
	require.NoError(t, err)
	assert.Equal(t, "https://ipfs.io/ipfs/QmHash/1.json", httpClient.lastURL)
	assert.Len(t, resolved.Attributes, 4)
}

func TestResolveUnsupportedScheme(t *testing.T) {
	r := NewResolver(&stubGameClient{uri: "ftp://nope"}, &stubHTTPClient{}, adapter.NewJSON())

	_, err := r.Resolve(context.Background(), "0x1111111111111111111111111111111111111111", "1")
	require.Error(t, err)
}

func TestProcessMetadataURI(t *testing.T) {
	tests := []struct {
		name        string
		uri         string
		tokenNumber string
		expected    string
	}{
		{
			name:        "id placeholder substituted",
			uri:         "https://example.com/token/{id}",
			tokenNumber: "7",
			expected:    "https://example.com/token/7",
		},
		{
			name:        "gateway link converted to ipfs scheme",
			uri:         "https://gateway.pinata.cloud/ipfs/QmHash/1.json",
			tokenNumber: "1",
			expected:    "ipfs://QmHash/1.json",
		},
		{
			name:        "plain https untouched",
			uri:         "https://example.com/1.json",
			tokenNumber: "1",
			expected:    "https://example.com/1.json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, processMetadataURI(tt.uri, tt.tokenNumber))
		})
	}
}

func TestFormatAttributeValue(t *testing.T) {
	assert.Equal(t, "Laser", formatAttributeValue("Laser"))
	assert.Equal(t, "42", formatAttributeValue(float64(42)))
	assert.Equal(t, "2.5", formatAttributeValue(2.5))
	assert.Equal(t, "true", formatAttributeValue(true))
	assert.Equal(t, "", formatAttributeValue(nil))
}
