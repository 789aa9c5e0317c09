package impl

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/coldcatalog/catalog-service/catalogerr"
	"github.com/coldcatalog/catalog-service/models"
	"github.com/coldcatalog/catalog-service/services"
)

const equivalentsMaxDepth = 3

// compareService implements services.CompareService: an aligned spec table
// across 2-4 products (spec.md §6), and a bounded-depth transitive closure
// over ProductRelationship edges with cycle detection (spec.md §9).
type compareService struct {
	products services.ProductStore
	registry services.RegistryService
}

// NewCompareService constructs the Compare Service.
func NewCompareService(products services.ProductStore, registry services.RegistryService) services.CompareService {
	return &compareService{products: products, registry: registry}
}

func (s *compareService) Compare(ctx context.Context, req models.CompareRequest) (*models.CompareResponse, error) {
	if len(req.ProductIDs) < 2 || len(req.ProductIDs) > 4 {
		return nil, catalogerr.New(catalogerr.KindValidation, "compare accepts between 2 and 4 products")
	}

	products := make([]*models.Product, 0, len(req.ProductIDs))
	for _, id := range req.ProductIDs {
		p, err := s.products.GetByID(ctx, id)
		if err != nil {
			return nil, catalogerr.Wrap(catalogerr.KindStoreUnavailable, "failed to load product for comparison", err)
		}
		if p == nil {
			return nil, catalogerr.New(catalogerr.KindNotFound, "product not found: "+id.String())
		}
		products = append(products, p)
	}

	names := comparableSpecNames(products)

	rows := make([]models.CompareRow, 0, len(names))
	for _, name := range names {
		displayName := name
		if entry, err := s.registry.Lookup(ctx, name); err == nil && entry != nil && entry.DisplayName != "" {
			displayName = entry.DisplayName
		}

		values := make(map[string]*models.SpecValue, len(products))
		var first *models.SpecValue
		differs := false
		missing := false
		for _, p := range products {
			sv, ok := p.Specs[name]
			key := p.ID.String()
			if !ok {
				values[key] = nil
				missing = true
				continue
			}
			v := sv
			values[key] = &v
			if first == nil {
				first = &v
			} else if !first.Equal(v, 0) {
				differs = true
			}
		}
		if missing && first != nil {
			differs = true
		}

		if req.HighlightDifferences && !differs {
			continue
		}
		rows = append(rows, models.CompareRow{
			CanonicalName: name,
			DisplayName:   displayName,
			Values:        values,
			Differs:       differs,
		})
	}

	return &models.CompareResponse{ProductIDs: req.ProductIDs, Rows: rows}, nil
}

// comparableSpecNames is the sorted union of every spec key present across
// the compared products, so a spec only one product has still gets a row
// (with a nil value for the others).
func comparableSpecNames(products []*models.Product) []string {
	seen := make(map[string]bool)
	var names []string
	for _, p := range products {
		for name := range p.Specs {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

func (s *compareService) Equivalents(ctx context.Context, productID uuid.UUID, maxDepth int) (*models.EquivalentsResponse, error) {
	if maxDepth <= 0 || maxDepth > equivalentsMaxDepth {
		maxDepth = equivalentsMaxDepth
	}

	visited := map[uuid.UUID]bool{productID: true}
	var entries []models.EquivalentEntry

	frontier := []uuid.UUID{productID}
	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		var next []uuid.UUID
		for _, id := range frontier {
			rels, err := s.products.ListRelationships(ctx, id)
			if err != nil {
				return nil, catalogerr.Wrap(catalogerr.KindStoreUnavailable, "failed to load product relationships", err)
			}
			for _, rel := range rels {
				neighbor := rel.TargetID
				if neighbor == id {
					neighbor = rel.SourceID
				}
				if neighbor == id || visited[neighbor] {
					continue
				}
				visited[neighbor] = true

				neighborProduct, err := s.products.GetByID(ctx, neighbor)
				if err != nil {
					return nil, catalogerr.Wrap(catalogerr.KindStoreUnavailable, "failed to load equivalent product", err)
				}
				modelNumber := ""
				if neighborProduct != nil {
					modelNumber = neighborProduct.ModelNumber
				}

				entries = append(entries, models.EquivalentEntry{
					ProductID:   neighbor,
					ModelNumber: modelNumber,
					Kind:        rel.Kind,
					Depth:       depth,
				})
				next = append(next, neighbor)
			}
		}
		frontier = next
	}

	return &models.EquivalentsResponse{ProductID: productID, Equivalents: entries}, nil
}
