package docstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	ordermodels "order_board/internal/api/order/models"
	"order_board/internal/common"
	"order_board/internal/database"
	"order_board/internal/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCollections nhóm các collection driver Mongo sử dụng
type MongoCollections struct {
	Orders   *mongo.Collection
	Groups   *mongo.Collection
	Requests *mongo.Collection
}

// MongoStore lưu dữ liệu theo ngày trong MongoDB.
// Ghi batch dùng version của document: ReplaceOne lọc theo {_id, version}, lệch version thì đọc lại và thử lại.
type MongoStore struct {
	cols      MongoCollections
	dedupeTTL time.Duration
	now       func() time.Time
}

// NewMongoStore tạo store Mongo
func NewMongoStore(cols MongoCollections, dedupeTTL time.Duration) *MongoStore {
	return &MongoStore{cols: cols, dedupeTTL: dedupeTTL, now: time.Now}
}

// EnsureIndexes tạo index theo tag của model và TTL index cho toggle_requests
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	if err := database.CreateIndexes(ctx, s.cols.Orders, ordermodels.Order{}); err != nil {
		return err
	}
	if err := database.CreateIndexes(ctx, s.cols.Groups, ordermodels.GroupUnit{}); err != nil {
		return err
	}
	if err := database.CreateIndexes(ctx, s.cols.Requests, ordermodels.ToggleRequestRecord{}); err != nil {
		return err
	}
	if s.dedupeTTL > 0 {
		return database.EnsureTTLIndex(ctx, s.cols.Requests, "createdAt", s.dedupeTTL)
	}
	return nil
}

func (s *MongoStore) Groups(ctx context.Context, day string) ([]ordermodels.GroupUnit, error) {
	opts := options.Find().SetSort(bson.D{{Key: "productTitle", Value: 1}, {Key: "key", Value: 1}})
	cursor, err := s.cols.Groups.Find(ctx, bson.M{"day": day}, opts)
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}
	groups := []ordermodels.GroupUnit{}
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, common.ConvertMongoError(err)
	}
	return groups, nil
}

func (s *MongoStore) Orders(ctx context.Context, day string) ([]ordermodels.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "ref_number", Value: 1}, {Key: "id", Value: 1}})
	cursor, err := s.cols.Orders.Find(ctx, bson.M{"day": day}, opts)
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}
	orders := []ordermodels.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, common.ConvertMongoError(err)
	}
	return orders, nil
}

func (s *MongoStore) ReplaceDay(ctx context.Context, day string, rebuild RebuildFunc) error {
	for attempt := 1; ; attempt++ {
		err := s.replaceDayOnce(ctx, day, rebuild)
		if err == nil || !errors.Is(err, common.ErrConflict) || attempt >= maxConflictRetries {
			return err
		}
		logger.WithModule("docstore").WithFields(map[string]interface{}{
			"day":     day,
			"attempt": attempt,
		}).Warn("Day write conflicted with a concurrent toggle, rebuilding")
	}
}

func (s *MongoStore) replaceDayOnce(ctx context.Context, day string, rebuild RebuildFunc) error {
	priorOrders, err := s.Orders(ctx, day)
	if err != nil {
		return err
	}
	priorGroups, err := s.Groups(ctx, day)
	if err != nil {
		return err
	}

	orders, groups, err := rebuild(priorOrders, priorGroups)
	if err != nil {
		return err
	}
	prepareDay(day, orders, groups, priorGroups)

	// Batch trước, vì batch mang trạng thái completed và có thể xung đột với toggle
	priorByKey := make(map[string]ordermodels.GroupUnit, len(priorGroups))
	for _, g := range priorGroups {
		priorByKey[g.Key] = g
	}
	keep := make(map[string]bool, len(groups))
	for _, g := range groups {
		keep[g.Key] = true
		prior, existed := priorByKey[g.Key]
		if !existed {
			if _, err := s.cols.Groups.InsertOne(ctx, g); err != nil {
				if mongo.IsDuplicateKeyError(err) {
					return common.ErrConflict
				}
				return common.ConvertMongoError(err)
			}
			continue
		}
		res, err := s.cols.Groups.ReplaceOne(ctx, bson.M{"_id": g.DocID, "version": prior.Version}, g)
		if err != nil {
			return common.ConvertMongoError(err)
		}
		if res.MatchedCount == 0 {
			return common.ErrConflict
		}
	}
	for _, g := range priorGroups {
		if keep[g.Key] {
			continue
		}
		if _, err := s.cols.Groups.DeleteOne(ctx, bson.M{"_id": g.DocID, "version": g.Version}); err != nil {
			return common.ConvertMongoError(err)
		}
	}

	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.DocID)
		if _, err := s.cols.Orders.ReplaceOne(ctx, bson.M{"_id": o.DocID}, o, options.Replace().SetUpsert(true)); err != nil {
			return common.ConvertMongoError(err)
		}
	}
	if _, err := s.cols.Orders.DeleteMany(ctx, bson.M{"day": day, "_id": bson.M{"$nin": ids}}); err != nil {
		return common.ConvertMongoError(err)
	}
	return nil
}

// ToggleUnit: ghi nhận requestId trước (insert _id = requestId), áp dụng flip có kiểm tra version,
// rồi lưu kết quả. Lần giao lặp lại của cùng requestId đọc kết quả đã lưu.
func (s *MongoStore) ToggleUnit(ctx context.Context, cmd ordermodels.ToggleCommand) (*ordermodels.ToggleResult, error) {
	now := s.now()
	if cmd.RequestID != "" {
		replay, err := s.claimRequest(ctx, cmd, now)
		if err != nil || replay != nil {
			return replay, err
		}
	}

	res, err := s.flip(ctx, cmd)
	if err != nil {
		if cmd.RequestID != "" {
			if _, delErr := s.cols.Requests.DeleteOne(ctx, bson.M{"_id": cmd.RequestID, "pending": true}); delErr != nil {
				logger.WithModule("docstore").WithError(delErr).WithField("request_id", cmd.RequestID).Warn("Cannot release toggle request claim")
			}
		}
		return nil, err
	}

	if cmd.RequestID != "" {
		rec := ordermodels.NewToggleRequestRecord(*res, now)
		if _, err := s.cols.Requests.ReplaceOne(ctx, bson.M{"_id": cmd.RequestID}, rec); err != nil {
			// Flip đã áp dụng; chỉ mất khả năng nhận diện lần giao lặp
			logger.WithModule("docstore").WithError(err).WithField("request_id", cmd.RequestID).Error("Cannot record toggle result")
		}
	}
	return res, nil
}

// claimRequest trả về kết quả cũ nếu requestId đã xử lý, nil nếu lần này được quyền áp dụng
func (s *MongoStore) claimRequest(ctx context.Context, cmd ordermodels.ToggleCommand, now time.Time) (*ordermodels.ToggleResult, error) {
	claim := ordermodels.ToggleRequestRecord{
		RequestID:  cmd.RequestID,
		Day:        cmd.Day,
		GroupKey:   cmd.GroupKey,
		OrderID:    cmd.OrderID,
		LineItemID: cmd.LineItemID,
		UnitIndex:  cmd.UnitIndex,
		Pending:    true,
		CreatedAt:  now,
	}
	_, err := s.cols.Requests.InsertOne(ctx, claim)
	if err == nil {
		return nil, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return nil, common.ConvertMongoError(err)
	}

	var existing ordermodels.ToggleRequestRecord
	if err := s.cols.Requests.FindOne(ctx, bson.M{"_id": cmd.RequestID}).Decode(&existing); err != nil {
		return nil, common.ConvertMongoError(err)
	}
	if existing.Pending {
		return nil, common.WrapDetails(common.ErrConflict, "toggle request is still being applied")
	}
	if isFresh(existing, now, s.dedupeTTL) {
		res := existing.Result()
		return &res, nil
	}

	// Hết hạn nhưng TTL monitor chưa dọn: coi như request mới
	res, err := s.cols.Requests.ReplaceOne(ctx, bson.M{"_id": cmd.RequestID, "createdAt": existing.CreatedAt}, claim)
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}
	if res.MatchedCount == 0 {
		return nil, common.ErrConflict
	}
	return nil, nil
}

func (s *MongoStore) flip(ctx context.Context, cmd ordermodels.ToggleCommand) (*ordermodels.ToggleResult, error) {
	id := docID(cmd.Day, cmd.GroupKey)
	for attempt := 1; attempt <= maxConflictRetries; attempt++ {
		var g ordermodels.GroupUnit
		if err := s.cols.Groups.FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, common.WrapDetails(common.ErrNotFound, map[string]interface{}{"day": cmd.Day, "groupKey": cmd.GroupKey})
			}
			return nil, common.ConvertMongoError(err)
		}

		updated, res, err := applyToggle(g, cmd)
		if err != nil {
			return nil, err
		}
		replaced, err := s.cols.Groups.ReplaceOne(ctx, bson.M{"_id": id, "version": g.Version}, updated)
		if err != nil {
			return nil, common.ConvertMongoError(err)
		}
		if replaced.MatchedCount == 1 {
			return &res, nil
		}
	}
	return nil, common.ErrConflict
}

func (s *MongoStore) WatchGroups(ctx context.Context, day string, fn GroupsFunc) error {
	return s.watch(ctx, s.cols.Groups, day, func() error {
		groups, err := s.Groups(ctx, day)
		if err != nil {
			return err
		}
		fn(groups)
		return nil
	})
}

func (s *MongoStore) WatchOrders(ctx context.Context, day string, fn OrdersFunc) error {
	return s.watch(ctx, s.cols.Orders, day, func() error {
		orders, err := s.Orders(ctx, day)
		if err != nil {
			return err
		}
		fn(orders)
		return nil
	})
}

// watch mở change stream lọc theo tiền tố _id "{day}/", gửi snapshot đầu rồi đọc lại toàn bộ sau mỗi đợt thay đổi.
// Stream được mở trước khi đọc snapshot đầu để không lọt thay đổi ở giữa.
func (s *MongoStore) watch(ctx context.Context, col *mongo.Collection, day string, deliver func() error) error {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"documentKey._id": bson.M{"$regex": "^" + regexp.QuoteMeta(day+"/")},
		}}},
	}
	stream, err := col.Watch(ctx, pipeline, options.ChangeStream().SetMaxAwaitTime(time.Second))
	if err != nil {
		return fmt.Errorf("open change stream on %s: %w", col.Name(), common.ConvertMongoError(err))
	}
	defer stream.Close(context.Background())

	if err := deliver(); err != nil {
		return ignoreCanceled(ctx, err)
	}
	for stream.Next(ctx) {
		// Gộp các thay đổi còn trong batch hiện tại thành một lần đọc lại
		if stream.RemainingBatchLength() > 0 {
			continue
		}
		if err := deliver(); err != nil {
			return ignoreCanceled(ctx, err)
		}
	}
	return ignoreCanceled(ctx, stream.Err())
}

// ignoreCanceled: ctx bị huỷ là kết thúc bình thường của watch
func ignoreCanceled(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (s *MongoStore) Close(ctx context.Context) error {
	return database.CloseInstance(ctx, s.cols.Orders.Database().Client())
}
