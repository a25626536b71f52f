package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	ordermodels "order_board/internal/api/order/models"
	"order_board/internal/common"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	firestoreDays           = "days"
	firestoreToggleRequests = "toggle_requests"
)

// FirestoreStore lưu dữ liệu ở days/{date}/groups và days/{date}/orders.
// Ghi ngày và toggle chạy trong transaction; snapshot lấy từ Query.Snapshots.
type FirestoreStore struct {
	client    *firestore.Client
	dedupeTTL time.Duration
	now       func() time.Time
}

// NewFirestoreStore tạo store Firestore
func NewFirestoreStore(client *firestore.Client, dedupeTTL time.Duration) *FirestoreStore {
	return &FirestoreStore{client: client, dedupeTTL: dedupeTTL, now: time.Now}
}

func (s *FirestoreStore) groupsCol(day string) *firestore.CollectionRef {
	return s.client.Collection(firestoreDays).Doc(day).Collection(collectionGroups)
}

func (s *FirestoreStore) ordersCol(day string) *firestore.CollectionRef {
	return s.client.Collection(firestoreDays).Doc(day).Collection(collectionOrders)
}

func (s *FirestoreStore) groupsQuery(day string) firestore.Query {
	return s.groupsCol(day).OrderBy("productTitle", firestore.Asc)
}

func (s *FirestoreStore) ordersQuery(day string) firestore.Query {
	return s.ordersCol(day).OrderBy("ref_number", firestore.Asc)
}

func decodeGroups(iter *firestore.DocumentIterator) ([]ordermodels.GroupUnit, error) {
	defer iter.Stop()
	groups := []ordermodels.GroupUnit{}
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, convertFirestoreError(err)
		}
		var g ordermodels.GroupUnit
		if err := doc.DataTo(&g); err != nil {
			return nil, fmt.Errorf("decode group %s: %w", doc.Ref.ID, err)
		}
		g.DocID = docID(g.Day, doc.Ref.ID)
		groups = append(groups, g)
	}
	SortGroups(groups)
	return groups, nil
}

func decodeOrders(iter *firestore.DocumentIterator) ([]ordermodels.Order, error) {
	defer iter.Stop()
	orders := []ordermodels.Order{}
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, convertFirestoreError(err)
		}
		var o ordermodels.Order
		if err := doc.DataTo(&o); err != nil {
			return nil, fmt.Errorf("decode order %s: %w", doc.Ref.ID, err)
		}
		o.DocID = docID(o.Day, doc.Ref.ID)
		orders = append(orders, o)
	}
	SortOrders(orders)
	return orders, nil
}

// convertFirestoreError chuyển mã lỗi gRPC sang lỗi hệ thống
func convertFirestoreError(err error) error {
	if err == nil {
		return nil
	}
	var custom *common.Error
	if errors.As(err, &custom) {
		return err
	}
	switch status.Code(err) {
	case codes.NotFound:
		return common.ErrNotFound
	case codes.AlreadyExists:
		return common.ErrDuplicate
	case codes.Aborted:
		return common.ErrConflict
	case codes.Unavailable, codes.DeadlineExceeded:
		return common.ErrConnection
	}
	return common.NewError(common.ErrCodeDatabase, common.MsgDatabaseError, common.StatusInternalServerError, err.Error())
}

func (s *FirestoreStore) Groups(ctx context.Context, day string) ([]ordermodels.GroupUnit, error) {
	return decodeGroups(s.groupsQuery(day).Documents(ctx))
}

func (s *FirestoreStore) Orders(ctx context.Context, day string) ([]ordermodels.Order, error) {
	return decodeOrders(s.ordersQuery(day).Documents(ctx))
}

func (s *FirestoreStore) ReplaceDay(ctx context.Context, day string, rebuild RebuildFunc) error {
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		priorOrders, err := decodeOrders(tx.Documents(s.ordersCol(day)))
		if err != nil {
			return err
		}
		priorGroups, err := decodeGroups(tx.Documents(s.groupsCol(day)))
		if err != nil {
			return err
		}

		orders, groups, err := rebuild(priorOrders, priorGroups)
		if err != nil {
			return err
		}
		prepareDay(day, orders, groups, priorGroups)

		keepGroups := make(map[string]bool, len(groups))
		for _, g := range groups {
			keepGroups[g.Key] = true
			if err := tx.Set(s.groupsCol(day).Doc(g.Key), g); err != nil {
				return err
			}
		}
		for _, g := range priorGroups {
			if !keepGroups[g.Key] {
				if err := tx.Delete(s.groupsCol(day).Doc(g.Key)); err != nil {
					return err
				}
			}
		}

		keepOrders := make(map[string]bool, len(orders))
		for _, o := range orders {
			keepOrders[o.ID] = true
			if err := tx.Set(s.ordersCol(day).Doc(o.ID), o); err != nil {
				return err
			}
		}
		for _, o := range priorOrders {
			if !keepOrders[o.ID] {
				if err := tx.Delete(s.ordersCol(day).Doc(o.ID)); err != nil {
					return err
				}
			}
		}
		return nil
	})
	return convertFirestoreError(err)
}

func (s *FirestoreStore) ToggleUnit(ctx context.Context, cmd ordermodels.ToggleCommand) (*ordermodels.ToggleResult, error) {
	var result *ordermodels.ToggleResult
	now := s.now()

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		result = nil
		var reqRef *firestore.DocumentRef
		if cmd.RequestID != "" {
			reqRef = s.client.Collection(firestoreToggleRequests).Doc(cmd.RequestID)
			snap, err := tx.Get(reqRef)
			switch {
			case err == nil:
				var rec ordermodels.ToggleRequestRecord
				if err := snap.DataTo(&rec); err != nil {
					return fmt.Errorf("decode toggle request %s: %w", cmd.RequestID, err)
				}
				if isFresh(rec, now, s.dedupeTTL) {
					res := rec.Result()
					result = &res
					return nil
				}
			case status.Code(err) != codes.NotFound:
				return err
			}
		}

		groupRef := s.groupsCol(cmd.Day).Doc(cmd.GroupKey)
		snap, err := tx.Get(groupRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return common.WrapDetails(common.ErrNotFound, map[string]interface{}{"day": cmd.Day, "groupKey": cmd.GroupKey})
			}
			return err
		}
		var g ordermodels.GroupUnit
		if err := snap.DataTo(&g); err != nil {
			return fmt.Errorf("decode group %s: %w", cmd.GroupKey, err)
		}

		updated, res, err := applyToggle(g, cmd)
		if err != nil {
			return err
		}
		if err := tx.Set(groupRef, updated); err != nil {
			return err
		}
		if reqRef != nil {
			if err := tx.Set(reqRef, ordermodels.NewToggleRequestRecord(res, now)); err != nil {
				return err
			}
		}
		result = &res
		return nil
	})
	if err != nil {
		return nil, convertFirestoreError(err)
	}
	return result, nil
}

func (s *FirestoreStore) WatchGroups(ctx context.Context, day string, fn GroupsFunc) error {
	it := s.groupsQuery(day).Snapshots(ctx)
	defer it.Stop()
	for {
		snap, err := it.Next()
		if err != nil {
			return ignoreCanceled(ctx, convertFirestoreError(err))
		}
		groups, err := decodeGroups(snap.Documents)
		if err != nil {
			return ignoreCanceled(ctx, err)
		}
		fn(groups)
	}
}

func (s *FirestoreStore) WatchOrders(ctx context.Context, day string, fn OrdersFunc) error {
	it := s.ordersQuery(day).Snapshots(ctx)
	defer it.Stop()
	for {
		snap, err := it.Next()
		if err != nil {
			return ignoreCanceled(ctx, convertFirestoreError(err))
		}
		orders, err := decodeOrders(snap.Documents)
		if err != nil {
			return ignoreCanceled(ctx, err)
		}
		fn(orders)
	}
}

func (s *FirestoreStore) Close(ctx context.Context) error {
	return s.client.Close()
}
