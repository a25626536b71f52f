// Package registry cung cấp registry generic, thread-safe, dùng để quản lý các instance dùng chung
// (collections MongoDB, hub stream theo ngày, ...).
package registry

import (
	"fmt"
	"sort"
	"sync"

	"order_board/internal/common"
)

// Registry là một thread-safe generic registry.
// Thread-safety được đảm bảo thông qua sync.RWMutex.
//
// Example:
//
//	hubs := NewRegistry[*Hub]()
//	hub, _ := hubs.GetOrCreate("2025-08-18", func() (*Hub, error) { return newHub(), nil })
type Registry[T any] struct {
	items map[string]T // Map lưu trữ các items theo key
	mu    sync.RWMutex
}

// NewRegistry tạo và trả về một registry mới.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{
		items: make(map[string]T),
	}
}

// Register đăng ký item, ghi đè nếu đã tồn tại.
//
// Returns:
//   - isNew: true nếu là item mới, false nếu ghi đè item cũ
//   - err: lỗi nếu name rỗng
func (r *Registry[T]) Register(name string, item T) (isNew bool, err error) {
	if name == "" {
		return false, fmt.Errorf("name cannot be empty: %w", common.ErrRequiredField)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists := r.items[name]
	r.items[name] = item
	return !exists, nil
}

// Get lấy item theo tên.
func (r *Registry[T]) Get(name string) (item T, exists bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, exists = r.items[name]
	return item, exists
}

// MustGet lấy item hoặc trả về common.ErrNotFound (wrap kèm tên)
func (r *Registry[T]) MustGet(name string) (T, error) {
	item, ok := r.Get(name)
	if !ok {
		return item, fmt.Errorf("registry item %q: %w", name, common.ErrNotFound)
	}
	return item, nil
}

// GetOrCreate lấy item theo tên, nếu chưa có thì tạo qua creator.
// creator chạy trong lock nên không được gọi lại registry.
func (r *Registry[T]) GetOrCreate(name string, creator func() (T, error)) (item T, err error) {
	if name == "" {
		return item, fmt.Errorf("name cannot be empty: %w", common.ErrRequiredField)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, exists := r.items[name]; exists {
		return existing, nil
	}

	newItem, err := creator()
	if err != nil {
		return item, fmt.Errorf("failed to create item: %w", err)
	}

	r.items[name] = newItem
	return newItem, nil
}

// ClearIf xóa item nếu predicate trả về true (kiểm tra và xóa trong cùng một lock).
func (r *Registry[T]) ClearIf(name string, predicate func(T) bool) (deleted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, exists := r.items[name]
	if !exists || !predicate(item) {
		return false
	}
	delete(r.items, name)
	return true
}

// ClearAll xóa tất cả items, gọi cleanup cho từng item (nếu có). Trả về số item đã xóa.
func (r *Registry[T]) ClearAll(cleanup func(T)) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := len(r.items)
	if cleanup != nil {
		for _, item := range r.items {
			cleanup(item)
		}
	}
	r.items = make(map[string]T)
	return count
}

// Keys trả về danh sách tên đã đăng ký, sắp xếp tăng dần
func (r *Registry[T]) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.items))
	for k := range r.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
