package rest

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mna-game/mna-indexer/internal/domain"
	"github.com/mna-game/mna-indexer/internal/engine"
	"github.com/mna-game/mna-indexer/internal/metadata"
	"github.com/mna-game/mna-indexer/internal/store"
)

// Handler defines the interface for REST API handlers
type Handler interface {
	// GetGame retrieves the game-wide aggregate
	// GET /api/v1/game
	GetGame(c *gin.Context)

	// GetPlayer retrieves per-address aggregates
	// GET /api/v1/players/:address
	GetPlayer(c *gin.Context)

	// GetToken retrieves a single token
	// GET /api/v1/tokens/:contract/:number
	GetToken(c *gin.Context)

	// ListTokens retrieves tokens filtered by owner
	// GET /api/v1/tokens?owner=<address>&limit=<limit>&offset=<offset>
	ListTokens(c *gin.Context)

	// ListTraits retrieves trait populations, optionally filtered by species
	// GET /api/v1/traits?species=<species>
	ListTraits(c *gin.Context)

	// ListThefts retrieves mint theft records, newest first
	// GET /api/v1/thefts?resolved=<bool>&limit=<limit>&offset=<offset>
	ListThefts(c *gin.Context)

	// RefreshTokenMetadata re-resolves metadata for a token (requires authentication)
	// POST /api/v1/tokens/:contract/:number/metadata
	RefreshTokenMetadata(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	store    store.Store
	engine   *engine.Engine
	resolver metadata.Resolver
}

// NewHandler creates a new REST API handler
func NewHandler(s store.Store, eng *engine.Engine, resolver metadata.Resolver) Handler {
	return &handler{
		store:    s,
		engine:   eng,
		resolver: resolver,
	}
}

// GetGame retrieves the game-wide aggregate
func (h *handler) GetGame(c *gin.Context) {
	game, err := h.store.GetGame(c.Request.Context(), domain.GameID)
	if err != nil {
		respondInternalError(c, err, "Failed to get game")
		return
	}
	if game == nil {
		respondNotFound(c, "Game not found")
		return
	}

	c.JSON(http.StatusOK, gameResponse(game))
}

// GetPlayer retrieves per-address aggregates
func (h *handler) GetPlayer(c *gin.Context) {
	address := c.Param("address")
	if !common.IsHexAddress(address) {
		respondBadRequest(c, "Invalid player address")
		return
	}

	player, err := h.store.GetPlayer(c.Request.Context(), domain.NormalizeAddress(address))
	if err != nil {
		respondInternalError(c, err, "Failed to get player")
		return
	}
	if player == nil {
		respondNotFound(c, "Player not found")
		return
	}

	c.JSON(http.StatusOK, playerResponse(player))
}

// tokenKeyFromParams validates the :contract/:number path segments and
// derives the composite token key. Responds with 400 and returns false
// when invalid.
func tokenKeyFromParams(c *gin.Context) (domain.TokenKey, bool) {
	key := domain.NewTokenKey(c.Param("contract"), c.Param("number"))
	if !key.Valid() {
		respondBadRequest(c, "Invalid token reference")
		return "", false
	}
	return key, true
}

// GetToken retrieves a single token
func (h *handler) GetToken(c *gin.Context) {
	key, ok := tokenKeyFromParams(c)
	if !ok {
		return
	}

	token, err := h.store.GetToken(c.Request.Context(), key.String())
	if err != nil {
		respondInternalError(c, err, "Failed to get token")
		return
	}
	if token == nil {
		respondNotFound(c, "Token not found")
		return
	}

	c.JSON(http.StatusOK, tokenResponse(token))
}

// ListTokens retrieves tokens filtered by owner
func (h *handler) ListTokens(c *gin.Context) {
	queryParams, err := ParseListTokensQuery(c)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	if !common.IsHexAddress(queryParams.Owner) {
		respondBadRequest(c, "Invalid owner address")
		return
	}

	tokens, err := h.store.ListTokensByOwner(
		c.Request.Context(),
		domain.NormalizeAddress(queryParams.Owner),
		queryParams.Limit,
		queryParams.Offset,
	)
	if err != nil {
		respondInternalError(c, err, "Failed to list tokens")
		return
	}

	response := TokenListResponse{
		Tokens: make([]TokenResponse, 0, len(tokens)),
		Limit:  queryParams.Limit,
		Offset: queryParams.Offset,
	}
	for _, token := range tokens {
		response.Tokens = append(response.Tokens, tokenResponse(token))
	}

	c.JSON(http.StatusOK, response)
}

// ListTraits retrieves trait populations
func (h *handler) ListTraits(c *gin.Context) {
	queryParams, err := ParseListTraitsQuery(c)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	traits, err := h.store.ListTraits(c.Request.Context(), domain.Species(queryParams.Species))
	if err != nil {
		respondInternalError(c, err, "Failed to list traits")
		return
	}

	response := make([]TraitResponse, 0, len(traits))
	for _, trait := range traits {
		response = append(response, traitResponse(trait))
	}

	c.JSON(http.StatusOK, gin.H{"traits": response})
}

// ListThefts retrieves mint theft records
func (h *handler) ListThefts(c *gin.Context) {
	queryParams, err := ParseListTheftsQuery(c)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	thefts, err := h.store.ListStolenTokens(
		c.Request.Context(),
		queryParams.Resolved,
		queryParams.Limit,
		queryParams.Offset,
	)
	if err != nil {
		respondInternalError(c, err, "Failed to list thefts")
		return
	}

	response := TheftListResponse{
		Thefts: make([]TheftResponse, 0, len(thefts)),
		Limit:  queryParams.Limit,
		Offset: queryParams.Offset,
	}
	for _, stolen := range thefts {
		response.Thefts = append(response.Thefts, theftResponse(stolen))
	}

	c.JSON(http.StatusOK, response)
}

// RefreshTokenMetadata re-resolves metadata for a token
func (h *handler) RefreshTokenMetadata(c *gin.Context) {
	key, ok := tokenKeyFromParams(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()

	token, err := h.store.GetToken(ctx, key.String())
	if err != nil {
		respondInternalError(c, err, "Failed to get token")
		return
	}
	if token == nil {
		respondNotFound(c, "Token not found")
		return
	}

	contract, number := key.Parse()
	resolved, err := h.resolver.Resolve(ctx, contract, number)
	if err != nil {
		respondServiceError(c, err, "Failed to resolve token metadata",
			zap.String("token", key.String()))
		return
	}

	if err := h.engine.ApplyMetadata(ctx, key.String(), resolved.Attributes, resolved.Raw); err != nil {
		respondInternalError(c, err, "Failed to store token metadata",
			zap.String("token", key.String()))
		return
	}

	token, err = h.store.GetToken(ctx, key.String())
	if err != nil {
		respondInternalError(c, err, "Failed to get token")
		return
	}

	c.JSON(http.StatusOK, tokenResponse(token))
}

// HealthCheck returns the health status of the API
func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":  "ok",
		"service": "mna-indexer-api",
	})
}
