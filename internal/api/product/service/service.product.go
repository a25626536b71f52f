// Package productsvc phục vụ catalog sản phẩm từ commerce backend, có cache và fallback bản cũ.
package productsvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	productmodels "order_board/internal/api/product/models"
	"order_board/internal/common"
	"order_board/internal/global"
	"order_board/internal/logger"
	"order_board/internal/utility"

	"golang.org/x/sync/singleflight"
)

const catalogKey = "catalog"

// ProductFetcher lấy catalog từ commerce backend
type ProductFetcher interface {
	FetchProducts(ctx context.Context) ([]productmodels.Product, error)
}

// ProductService cache catalog; khi backend lỗi trả về bản cũ với Stale=true
type ProductService struct {
	fetcher ProductFetcher
	cache   *utility.Cache
	group   singleflight.Group
}

type cachedCatalog struct {
	products    []productmodels.Product
	lastFetched int64
}

// NewProductService tạo service từ global
func NewProductService() (*ProductService, error) {
	if global.CommerceClient == nil || global.ServerConfig == nil {
		return nil, fmt.Errorf("product service dependencies are not initialized")
	}
	ttl := time.Duration(global.ServerConfig.ProductCacheTTLMinutes) * time.Minute
	return NewProductServiceWith(global.CommerceClient, ttl), nil
}

// NewProductServiceWith tạo service với fetcher và ttl truyền vào.
// Bản cũ không bao giờ bị dọn, backend lỗi kéo dài vẫn còn catalog stale để trả.
func NewProductServiceWith(fetcher ProductFetcher, ttl time.Duration) *ProductService {
	return &ProductService{
		fetcher: fetcher,
		cache:   utility.NewCache(ttl, 0),
	}
}

// Close dừng goroutine dọn cache
func (s *ProductService) Close() {
	s.cache.Stop()
}

// Catalog trả về catalog; refresh=true bỏ qua cache còn hạn
func (s *ProductService) Catalog(ctx context.Context, refresh bool) (*productmodels.Catalog, error) {
	if !refresh {
		if v, ok := s.cache.Get(catalogKey); ok {
			return buildCatalog(v.(cachedCatalog), false), nil
		}
	}

	v, err, _ := s.group.Do(catalogKey, func() (interface{}, error) {
		products, err := s.fetcher.FetchProducts(ctx)
		if err != nil {
			return nil, err
		}
		entry := cachedCatalog{products: products, lastFetched: time.Now().UnixMilli()}
		s.cache.Set(catalogKey, entry)
		return entry, nil
	})
	if err == nil {
		return buildCatalog(v.(cachedCatalog), false), nil
	}

	stale, _, ok := s.cache.GetStale(catalogKey)
	if !ok {
		var customErr *common.Error
		if errors.As(err, &customErr) {
			return nil, err
		}
		return nil, common.WrapDetails(common.ErrCommerceUnavailable, err.Error())
	}
	logger.WithModule("product").WithError(err).Warn("🛒 [PRODUCT] Commerce backend failed, serving stale catalog")
	return buildCatalog(stale.(cachedCatalog), true), nil
}

// buildCatalog nhóm sản phẩm theo productType, giữ thứ tự xuất hiện đầu tiên
func buildCatalog(entry cachedCatalog, stale bool) *productmodels.Catalog {
	return &productmodels.Catalog{
		Products:    entry.products,
		Categories:  Categorize(entry.products),
		LastFetched: entry.lastFetched,
		Stale:       stale,
	}
}

// Categorize nhóm sản phẩm theo productType; productType rỗng vào nhóm Uncategorized
func Categorize(products []productmodels.Product) []productmodels.ProductCategory {
	index := make(map[string]int)
	categories := []productmodels.ProductCategory{}
	for _, p := range products {
		name := p.ProductType
		if name == "" {
			name = productmodels.CategoryUncategorized
		}
		pos, ok := index[name]
		if !ok {
			categories = append(categories, productmodels.ProductCategory{Name: name})
			pos = len(categories) - 1
			index[name] = pos
		}
		categories[pos].Products = append(categories[pos].Products, p)
	}
	return categories
}
