package metadata

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/mna-game/mna-indexer/internal/adapter"
	"github.com/mna-game/mna-indexer/internal/engine"
	"github.com/mna-game/mna-indexer/internal/providers/ethereum"
)

// ResolvedMetadata carries the decoded metadata document and the
// attribute list extracted from it
type ResolvedMetadata struct {
	Raw        []byte
	Attributes []engine.TokenAttribute
}

// Resolver fetches and decodes token metadata. The game contracts serve
// metadata as on-chain base64 data URIs; IPFS and plain HTTP URIs are
// handled as well for the founder pass collection.
type Resolver interface {
	Resolve(ctx context.Context, contractAddress, tokenNumber string) (*ResolvedMetadata, error)
}

type resolver struct {
	ethClient  ethereum.GameClient
	httpClient adapter.HTTPClient
	json       adapter.JSON
}

// NewResolver creates a metadata resolver
func NewResolver(ethClient ethereum.GameClient, httpClient adapter.HTTPClient, json adapter.JSON) Resolver {
	return &resolver{
		ethClient:  ethClient,
		httpClient: httpClient,
		json:       json,
	}
}

// Resolve fetches tokenURI from the contract and decodes the document
func (r *resolver) Resolve(ctx context.Context, contractAddress, tokenNumber string) (*ResolvedMetadata, error) {
	uri, err := r.ethClient.ERC721TokenURI(ctx, contractAddress, tokenNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch token URI: %w", err)
	}

	raw, err := r.fetchFromURI(ctx, processMetadataURI(uri, tokenNumber))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch metadata from URI: %w", err)
	}

	return DecodeDocument(r.json, raw)
}

// DecodeDocument validates a metadata JSON document and extracts its
// attribute list
func DecodeDocument(json adapter.JSON, raw []byte) (*ResolvedMetadata, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse metadata JSON: %w", err)
	}

	return &ResolvedMetadata{
		Raw:        raw,
		Attributes: extractAttributes(doc),
	}, nil
}

// processMetadataURI normalizes the URI before fetching: the {id}
// placeholder is substituted and gateway-style IPFS links are converted
// to the ipfs scheme
func processMetadataURI(uri, tokenNumber string) string {
	uri = strings.ReplaceAll(uri, "{id}", tokenNumber)

	if strings.HasPrefix(uri, "http") && strings.Contains(uri, "/ipfs/") {
		parts := strings.Split(uri, "/ipfs/")
		if len(parts) > 1 {
			uri = "ipfs://" + parts[1]
		}
	}

	return uri
}

func (r *resolver) fetchFromURI(ctx context.Context, uri string) ([]byte, error) {
	switch {
	case strings.HasPrefix(uri, "data:"):
		return parseDataURI(uri)
	case strings.HasPrefix(uri, "ipfs://"):
		return r.httpClient.GetRaw(ctx, "https://ipfs.io/ipfs/"+strings.TrimPrefix(uri, "ipfs://"))
	case strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://"):
		return r.httpClient.GetRaw(ctx, uri)
	default:
		return nil, fmt.Errorf("unsupported URI scheme: %s", uri)
	}
}

// parseDataURI decodes an inline data URI.
// data:application/json;base64,<encoded data> or
// data:application/json,<json data>
func parseDataURI(uri string) ([]byte, error) {
	parts := strings.SplitN(uri[5:], ",", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid data URI format")
	}

	dataType := parts[0]
	data := parts[1]

	if strings.Contains(dataType, "base64") {
		decoded, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64: %w", err)
		}
		return decoded, nil
	}

	return []byte(data), nil
}

// extractAttributes pulls the OpenSea-style attribute list out of a
// metadata document. Entries without a trait_type are skipped.
func extractAttributes(doc map[string]interface{}) []engine.TokenAttribute {
	rawAttrs, ok := doc["attributes"].([]interface{})
	if !ok {
		return nil
	}

	attrs := make([]engine.TokenAttribute, 0, len(rawAttrs))
	for _, rawAttr := range rawAttrs {
		attrMap, ok := rawAttr.(map[string]interface{})
		if !ok {
			continue
		}
		name, ok := attrMap["trait_type"].(string)
		if !ok || name == "" {
			continue
		}
		attrs = append(attrs, engine.TokenAttribute{
			Name:  name,
			Value: formatAttributeValue(attrMap["value"]),
		})
	}
	return attrs
}

// formatAttributeValue renders an attribute value as text. Numeric
// values like rank scores arrive as JSON numbers.
func formatAttributeValue(v interface{}) string {
	switch value := v.(type) {
	case string:
		return value
	case float64:
		if value == float64(int64(value)) {
			return strconv.FormatInt(int64(value), 10)
		}
		return strconv.FormatFloat(value, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", value)
	}
}
