package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/coldcatalog/catalog-service/models"
)

// RecommendationService runs the hard-constraint filter + weighted soft
// scoring algorithm from spec.md §4.11.
type RecommendationService interface {
	Recommend(ctx context.Context, req models.RecommendRequest) (*models.RecommendResponse, error)
}

// CompareService builds the aligned spec table for the compare endpoint
// (spec.md §6).
type CompareService interface {
	Compare(ctx context.Context, req models.CompareRequest) (*models.CompareResponse, error)
	Equivalents(ctx context.Context, productID uuid.UUID, maxDepth int) (*models.EquivalentsResponse, error)
}
