package store

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/branch-risk/internal/model"
	"github.com/sells-group/branch-risk/internal/notify"
)

// NotifyingStore publishes a notify.Event after every successful write to
// the wrapped Store. Publish failures are logged and never fail the write.
type NotifyingStore struct {
	Store
	pub notify.Publisher
}

// Notifying wraps s so that writes are announced on pub.
func Notifying(s Store, pub notify.Publisher) *NotifyingStore {
	return &NotifyingStore{Store: s, pub: pub}
}

func (n *NotifyingStore) CreateBranch(ctx context.Context, b model.Branch) (*model.Branch, error) {
	created, err := n.Store.CreateBranch(ctx, b)
	if err != nil {
		return nil, err
	}
	n.publish(ctx, notify.KindBranch, notify.OpCreated, created.ID, created.ID)
	return created, nil
}

func (n *NotifyingStore) UpdateBranch(ctx context.Context, b model.Branch) error {
	if err := n.Store.UpdateBranch(ctx, b); err != nil {
		return err
	}
	n.publish(ctx, notify.KindBranch, notify.OpUpdated, b.ID, b.ID)
	return nil
}

func (n *NotifyingStore) DeleteBranch(ctx context.Context, id string) error {
	if err := n.Store.DeleteBranch(ctx, id); err != nil {
		return err
	}
	n.publish(ctx, notify.KindBranch, notify.OpDeleted, id, id)
	return nil
}

func (n *NotifyingStore) CreateRecord(ctx context.Context, r model.PerformanceRecord) (*model.PerformanceRecord, error) {
	created, err := n.Store.CreateRecord(ctx, r)
	if err != nil {
		return nil, err
	}
	n.publish(ctx, notify.KindRecord, notify.OpCreated, created.ID, created.BranchID)
	return created, nil
}

func (n *NotifyingStore) UpdateRecord(ctx context.Context, r model.PerformanceRecord) error {
	if err := n.Store.UpdateRecord(ctx, r); err != nil {
		return err
	}
	n.publish(ctx, notify.KindRecord, notify.OpUpdated, r.ID, r.BranchID)
	return nil
}

func (n *NotifyingStore) DeleteRecord(ctx context.Context, id string) error {
	if err := n.Store.DeleteRecord(ctx, id); err != nil {
		return err
	}
	n.publish(ctx, notify.KindRecord, notify.OpDeleted, id, "")
	return nil
}

func (n *NotifyingStore) ImportRecords(ctx context.Context, records []model.PerformanceRecord) (int, error) {
	count, err := n.Store.ImportRecords(ctx, records)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		n.publish(ctx, notify.KindRecord, notify.OpCreated, "", "")
	}
	return count, nil
}

func (n *NotifyingStore) publish(ctx context.Context, kind notify.Kind, op notify.Op, id, branchID string) {
	e := notify.Event{Kind: kind, Op: op, ID: id, BranchID: branchID, At: time.Now().UTC()}
	if err := n.pub.Publish(ctx, e); err != nil {
		zap.L().Warn("store: publish change event",
			zap.String("kind", string(kind)),
			zap.String("op", string(op)),
			zap.String("id", id),
			zap.Error(err),
		)
	}
}
