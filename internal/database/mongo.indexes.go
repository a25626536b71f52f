package database

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"order_board/internal/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// indexSpec là một index cần có trên collection, dựng từ tag `index:"..."` của model
type indexSpec struct {
	Name    string
	Keys    bson.D
	Options *options.IndexOptions
}

// parseOrder: trích xuất thứ tự sắp xếp từ tag (1 hoặc -1)
func parseOrder(tag string) int {
	if strings.Contains(tag, "order:-1") {
		return -1
	}
	return 1
}

// parseIndexTag phân tách tag index: các cấu hình cách nhau bởi ';', thuộc tính cách nhau bởi ','
func parseIndexTag(tag string) []map[string]string {
	parts := strings.Split(tag, ";")
	result := []map[string]string{}

	for _, part := range parts {
		entry := map[string]string{}
		for _, subPart := range strings.Split(part, ",") {
			kv := strings.SplitN(subPart, ":", 2)
			if len(kv) == 2 {
				entry[kv[0]] = kv[1]
			} else {
				entry[kv[0]] = ""
			}
		}
		result = append(result, entry)
	}
	return result
}

// collectIndexSpecs đọc tag index trên các field của model.
// Hỗ trợ: single, unique (kèm sparse), ttl:<giây>, compound:<tên nhóm> (tên chứa "_unique" thì unique).
func collectIndexSpecs(model interface{}) ([]indexSpec, error) {
	modelType := reflect.TypeOf(model)
	if modelType.Kind() == reflect.Ptr {
		modelType = modelType.Elem()
	}

	var specs []indexSpec
	compoundGroups := map[string]bson.D{}
	compoundSparse := map[string]bool{}
	var compoundOrder []string

	for i := 0; i < modelType.NumField(); i++ {
		field := modelType.Field(i)
		tag, ok := field.Tag.Lookup("index")
		if !ok {
			continue
		}
		bsonField := strings.Split(field.Tag.Get("bson"), ",")[0]
		if bsonField == "" || bsonField == "-" {
			continue
		}

		for _, cfg := range parseIndexTag(tag) {
			if _, ok := cfg["single"]; ok {
				name := bsonField + "_single"
				specs = append(specs, indexSpec{
					Name:    name,
					Keys:    bson.D{{Key: bsonField, Value: parseOrder(tag)}},
					Options: options.Index().SetName(name),
				})
			}

			if _, ok := cfg["unique"]; ok {
				name := bsonField + "_unique"
				opts := options.Index().SetName(name).SetUnique(true)
				if _, sparse := cfg["sparse"]; sparse {
					opts = opts.SetSparse(true)
				}
				specs = append(specs, indexSpec{Name: name, Keys: bson.D{{Key: bsonField, Value: 1}}, Options: opts})
			}

			if ttlValue, ok := cfg["ttl"]; ok {
				ttl, err := strconv.Atoi(ttlValue)
				if err != nil {
					return nil, fmt.Errorf("invalid ttl %q on %s: %w", ttlValue, field.Name, err)
				}
				specs = append(specs, ttlSpec(bsonField, time.Duration(ttl)*time.Second))
			}

			if group, ok := cfg["compound"]; ok {
				if _, seen := compoundGroups[group]; !seen {
					compoundOrder = append(compoundOrder, group)
				}
				compoundGroups[group] = append(compoundGroups[group], bson.E{Key: bsonField, Value: parseOrder(tag)})
				if _, sparse := cfg["sparse"]; sparse {
					compoundSparse[group] = true
				}
			}
		}
	}

	for _, group := range compoundOrder {
		opts := options.Index().SetName(group)
		if strings.Contains(group, "_unique") {
			opts = opts.SetUnique(true)
		}
		if compoundSparse[group] {
			opts = opts.SetSparse(true)
		}
		specs = append(specs, indexSpec{Name: group, Keys: compoundGroups[group], Options: opts})
	}
	return specs, nil
}

func ttlSpec(bsonField string, ttl time.Duration) indexSpec {
	name := bsonField + "_ttl"
	return indexSpec{
		Name:    name,
		Keys:    bson.D{{Key: bsonField, Value: 1}},
		Options: options.Index().SetName(name).SetExpireAfterSeconds(int32(ttl / time.Second)),
	}
}

func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

// compareIndex true khi index đang có khớp keys và options mong muốn
func compareIndex(existing bson.M, keys bson.D, opts *options.IndexOptions) bool {
	existingKeys, ok := existing["key"].(bson.M)
	if !ok || len(existingKeys) != len(keys) {
		return false
	}
	for _, key := range keys {
		existingValue, exists := existingKeys[key.Key]
		if !exists {
			return false
		}
		newVal, isInt := key.Value.(int)
		if !isInt {
			if existingValue != key.Value {
				return false
			}
			continue
		}
		oldVal, ok := toInt(existingValue)
		if !ok || oldVal != newVal {
			return false
		}
	}

	unique, _ := existing["unique"].(bool)
	wantUnique := opts.Unique != nil && *opts.Unique
	if unique != wantUnique {
		return false
	}

	if opts.ExpireAfterSeconds != nil {
		ttl, ok := toInt(existing["expireAfterSeconds"])
		if !ok || ttl != int(*opts.ExpireAfterSeconds) {
			return false
		}
	}
	return true
}

func listIndexes(ctx context.Context, collection *mongo.Collection) (map[string]bson.M, error) {
	cursor, err := collection.Indexes().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list indexes of %s: %w", collection.Name(), err)
	}
	defer cursor.Close(ctx)

	existing := map[string]bson.M{}
	for cursor.Next(ctx) {
		var info bson.M
		if err := cursor.Decode(&info); err != nil {
			return nil, fmt.Errorf("decode index info: %w", err)
		}
		if name, ok := info["name"].(string); ok {
			existing[name] = info
		}
	}
	return existing, cursor.Err()
}

// checkAndReplaceIndex tạo index, hoặc drop rồi tạo lại nếu cấu hình đã đổi
func checkAndReplaceIndex(ctx context.Context, collection *mongo.Collection, existing map[string]bson.M, idx indexSpec) error {
	log := logger.GetAppLogger().WithFields(map[string]interface{}{
		"collection": collection.Name(),
		"index":      idx.Name,
	})

	if current, ok := existing[idx.Name]; ok {
		if compareIndex(current, idx.Keys, idx.Options) {
			log.Debug("Index up to date")
			return nil
		}
		if _, err := collection.Indexes().DropOne(ctx, idx.Name); err != nil {
			return fmt.Errorf("drop index %s: %w", idx.Name, err)
		}
		log.Info("Dropped outdated index")
	}

	if _, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: idx.Keys, Options: idx.Options}); err != nil {
		return fmt.Errorf("create index %s: %w", idx.Name, err)
	}
	log.Info("Created index")
	return nil
}

// CreateIndexes đảm bảo mọi index khai báo qua tag trên model tồn tại đúng cấu hình
func CreateIndexes(ctx context.Context, collection *mongo.Collection, model interface{}) error {
	specs, err := collectIndexSpecs(model)
	if err != nil {
		return err
	}
	existing, err := listIndexes(ctx, collection)
	if err != nil {
		return err
	}
	for _, idx := range specs {
		if err := checkAndReplaceIndex(ctx, collection, existing, idx); err != nil {
			return err
		}
	}
	return nil
}

// EnsureTTLIndex tạo TTL index với thời hạn lấy từ cấu hình (tag không chứa được giá trị động)
func EnsureTTLIndex(ctx context.Context, collection *mongo.Collection, bsonField string, ttl time.Duration) error {
	existing, err := listIndexes(ctx, collection)
	if err != nil {
		return err
	}
	return checkAndReplaceIndex(ctx, collection, existing, ttlSpec(bsonField, ttl))
}

// IndexNames liệt kê tên index dựng từ tag của model, sắp xếp tăng dần
func IndexNames(model interface{}) ([]string, error) {
	specs, err := collectIndexSpecs(model)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(specs))
	for _, s := range specs {
		names = append(names, s.Name)
	}
	sort.Strings(names)
	return names, nil
}
