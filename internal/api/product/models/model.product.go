package models

// CategoryUncategorized là tên nhóm cho sản phẩm không có productType
const CategoryUncategorized = "Uncategorized"

// ProductImage ảnh sản phẩm / biến thể
type ProductImage struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	AltText string `json:"altText"`
}

// ProductVariant biến thể của sản phẩm (size, hương vị, ...)
type ProductVariant struct {
	ID                string        `json:"id"`
	Title             string        `json:"title"`
	SKU               string        `json:"sku"`
	Price             string        `json:"price"`
	CompareAtPrice    string        `json:"compareAtPrice"`
	InventoryQuantity int           `json:"inventoryQuantity"`
	Taxable           bool          `json:"taxable"`
	Image             *ProductImage `json:"image"`
}

// ProductOption tuỳ chọn khai báo trên sản phẩm
type ProductOption struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// ProductMetafield metafield tuỳ biến
type ProductMetafield struct {
	ID        string `json:"id"`
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Value     string `json:"value"`
}

// Product sản phẩm trong catalog của commerce backend
type Product struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Handle      string             `json:"handle"`
	Description string             `json:"description"`
	ProductType string             `json:"productType"`
	Vendor      string             `json:"vendor"`
	Tags        []string           `json:"tags"`
	Status      string             `json:"status"`
	CreatedAt   string             `json:"createdAt"`
	UpdatedAt   string             `json:"updatedAt"`
	PublishedAt string             `json:"publishedAt"`
	Variants    []ProductVariant   `json:"variants"`
	Images      []ProductImage     `json:"images"`
	Options     []ProductOption    `json:"options"`
	Metafields  []ProductMetafield `json:"metafields"`
}

// ProductCategory nhóm sản phẩm theo productType
type ProductCategory struct {
	Name     string    `json:"name"`
	Products []Product `json:"products"`
}

// Catalog là response của GET /products
type Catalog struct {
	Products    []Product         `json:"products"`
	Categories  []ProductCategory `json:"categories"`
	LastFetched int64             `json:"lastFetched"` // Unix ms
	Stale       bool              `json:"stale"`       // true khi trả về bản cũ vì commerce backend lỗi
}
