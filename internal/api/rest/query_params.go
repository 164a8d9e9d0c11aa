package rest

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/mna-game/mna-indexer/internal/domain"
)

const MAX_PAGE_SIZE = 100

// ListQueryParams holds common pagination parameters
type ListQueryParams struct {
	Limit  int `form:"limit,default=20"`
	Offset int `form:"offset,default=0"`
}

// ListTokensQueryParams holds query parameters for GET /tokens
type ListTokensQueryParams struct {
	Owner string `form:"owner"`

	ListQueryParams
}

// ListTraitsQueryParams holds query parameters for GET /traits
type ListTraitsQueryParams struct {
	Species string `form:"species"`
}

// ListTheftsQueryParams holds query parameters for GET /thefts
type ListTheftsQueryParams struct {
	// Resolved filters on whether the thief is known, unset means both
	Resolved *bool `form:"resolved"`

	ListQueryParams
}

// ParseListQuery parses and caps common pagination parameters
func ParseListQuery(c *gin.Context) (*ListQueryParams, error) {
	var params ListQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &params, nil
}

// Validate checks pagination bounds
func (p *ListQueryParams) Validate() error {
	if p.Limit < 1 {
		return fmt.Errorf("limit must be positive, got %d", p.Limit)
	}
	if p.Limit > MAX_PAGE_SIZE {
		p.Limit = MAX_PAGE_SIZE
	}
	if p.Offset < 0 {
		return fmt.Errorf("offset must not be negative, got %d", p.Offset)
	}
	return nil
}

// ParseListTokensQuery parses query parameters for GET /tokens
func ParseListTokensQuery(c *gin.Context) (*ListTokensQueryParams, error) {
	var params ListTokensQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if params.Owner == "" {
		return nil, fmt.Errorf("owner is required")
	}
	return &params, nil
}

// ParseListTraitsQuery parses query parameters for GET /traits
func ParseListTraitsQuery(c *gin.Context) (*ListTraitsQueryParams, error) {
	var params ListTraitsQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, err
	}
	if params.Species != "" && !domain.IsValidSpecies(domain.Species(params.Species)) {
		return nil, fmt.Errorf("unknown species: %s", params.Species)
	}
	return &params, nil
}

// ParseListTheftsQuery parses query parameters for GET /thefts
func ParseListTheftsQuery(c *gin.Context) (*ListTheftsQueryParams, error) {
	var params ListTheftsQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &params, nil
}
