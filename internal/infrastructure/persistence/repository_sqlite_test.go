package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	apptrade "github.com/mfgadmin/backend/internal/application/trade"
	"github.com/mfgadmin/backend/internal/domain/catalog"
	"github.com/mfgadmin/backend/internal/domain/inventory"
	"github.com/mfgadmin/backend/internal/domain/partner"
	"github.com/mfgadmin/backend/internal/domain/shared"
	"github.com/mfgadmin/backend/internal/domain/trade"
	"github.com/mfgadmin/backend/internal/infrastructure/cache"
	"github.com/mfgadmin/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var sqliteToday = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

// newSQLiteDB opens an in-memory database with the full schema. A single
// connection keeps every query on the same in-memory database.
func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func saveStorageItem(t *testing.T, db *gorm.DB, name string, itemType inventory.ItemType, qNew int) *inventory.StorageItem {
	t.Helper()
	item, err := inventory.NewStorageItem(name, "", itemType)
	require.NoError(t, err)
	require.NoError(t, item.SetQuantities(qNew, 0, 0))
	require.NoError(t, NewGormStorageItemRepository(db).Save(context.Background(), item))
	return item
}

func saveSentOrder(t *testing.T, db *gorm.DB, number string, lines ...trade.OrderLine) *trade.PurchaseOrder {
	t.Helper()
	supplier, err := partner.NewSupplier("Hoffmann", nil)
	require.NoError(t, err)
	require.NoError(t, NewGormSupplierRepository(db).Save(context.Background(), supplier))

	order, err := trade.NewPurchaseOrder(number, sqliteToday, trade.OrderDraft{
		SupplierID: supplier.ID,
		Lines:      lines,
	})
	require.NoError(t, err)
	require.NoError(t, order.Send(sqliteToday, trade.DeliveryEstimate{}))
	order.ClearDomainEvents()
	require.NoError(t, NewGormPurchaseOrderRepository(db).Save(context.Background(), order))
	return order
}

func TestGormStorageItemRepository_SQLite(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	repo := NewGormStorageItemRepository(db)

	drill := saveStorageItem(t, db, "Twist drill 8mm", inventory.ItemTypeTool, 4)
	saveStorageItem(t, db, "Vise 125", inventory.ItemTypeClampingDevice, 2)

	t.Run("round trips weights, thresholds and custom fields", func(t *testing.T) {
		half := decimal.RequireFromString("0.4")
		reorder := decimal.NewFromInt(10)
		require.NoError(t, drill.SetWeights(nil, &half, nil))
		require.NoError(t, drill.SetStockThresholds(true, &reorder, nil))
		drill.SetCustomFields(map[string]any{"diameter": 8.0})
		require.NoError(t, repo.SaveWithLock(ctx, drill))

		found, err := repo.FindByID(ctx, drill.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, found.Version)
		assert.Equal(t, 4, found.QuantityNew)
		require.NotNil(t, found.WeightUsed)
		assert.True(t, half.Equal(*found.WeightUsed))
		assert.Nil(t, found.WeightNew)
		require.NotNil(t, found.ReorderPoint)
		assert.True(t, reorder.Equal(*found.ReorderPoint))
		assert.Equal(t, 8.0, found.CustomFields["diameter"])
	})

	t.Run("stale version is rejected", func(t *testing.T) {
		stale, err := repo.FindByID(ctx, drill.ID)
		require.NoError(t, err)
		stale.Version--

		err = repo.SaveWithLock(ctx, stale)
		assert.Equal(t, shared.KindConflict, shared.KindOf(err))
	})

	t.Run("alert candidates are weighted items with a reorder point", func(t *testing.T) {
		items, err := repo.FindAlertCandidates(ctx)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, drill.ID, items[0].ID)
	})

	t.Run("filters and counts", func(t *testing.T) {
		filter := shared.Filter{Search: "DRILL", Page: 1, PageSize: 10}
		items, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "Twist drill 8mm", items[0].Name)

		count, err := repo.Count(ctx, shared.Filter{Filters: map[string]interface{}{"item_type": "clamping_device"}})
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("missing item", func(t *testing.T) {
		_, err := repo.FindByIDForUpdate(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormCategoryRepository_SQLite(t *testing.T) {
	ctx := context.Background()
	repo := NewGormCategoryRepository(newSQLiteDB(t))

	category, err := catalog.NewCategory("Drills", catalog.FieldDescriptor{
		Key:   "diameter",
		Label: "Diameter",
		Type:  catalog.FieldTypeNumber,
	})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, category))

	found, err := repo.FindByID(ctx, category.ID)
	require.NoError(t, err)
	assert.Equal(t, "Drills", found.Name)
	require.Len(t, found.Fields, 1)
	assert.Equal(t, catalog.FieldTypeNumber, found.Fields[0].Type)
}

func TestGormSupplierItemRepository_SetPreferred(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	repo := NewGormSupplierItemRepository(db)

	storageItemID := uuid.New()
	first, err := partner.NewSupplierItem(uuid.New(), storageItemID, decimal.NewFromInt(5), nil)
	require.NoError(t, err)
	second, err := partner.NewSupplierItem(uuid.New(), storageItemID, decimal.NewFromInt(6), nil)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, first))
	require.NoError(t, repo.Save(ctx, second))

	_, err = repo.FindPreferred(ctx, storageItemID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	require.NoError(t, repo.SetPreferred(ctx, first.ID))
	require.NoError(t, repo.SetPreferred(ctx, second.ID))

	preferred, err := repo.FindPreferred(ctx, storageItemID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, preferred.ID)

	links, err := repo.FindBySupplierAndStorageItems(ctx, first.SupplierID, []uuid.UUID{storageItemID})
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.False(t, links[0].IsPreferred)

	assert.ErrorIs(t, repo.SetPreferred(ctx, uuid.New()), shared.ErrNotFound)
}

func TestGormPurchaseOrderRepository_SQLite(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	repo := NewGormPurchaseOrderRepository(db)

	a := saveStorageItem(t, db, "Insert CNMG", inventory.ItemTypeInsert, 0)
	b := saveStorageItem(t, db, "Collet ER32", inventory.ItemTypeAccessory, 0)
	order := saveSentOrder(t, db, "PO-20250310-0001",
		trade.OrderLine{StorageItemID: a.ID, Quantity: 10, UnitPrice: decimal.RequireFromString("2.50")},
		trade.OrderLine{StorageItemID: b.ID, Quantity: 3, UnitPrice: decimal.NewFromInt(12)},
	)

	t.Run("loads items in line order", func(t *testing.T) {
		found, err := repo.FindByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, trade.PurchaseOrderStatusSent, found.Status)
		require.Len(t, found.Items, 2)
		assert.Equal(t, a.ID, found.Items[0].StorageItemID)
		assert.Equal(t, b.ID, found.Items[1].StorageItemID)
		assert.True(t, decimal.NewFromInt(61).Equal(found.TotalAmount))
		require.NotNil(t, found.SentDate)
		assert.Equal(t, "2025-03-10", found.SentDate.Format("2006-01-02"))
	})

	t.Run("next order number of the day", func(t *testing.T) {
		number, err := repo.GenerateOrderNumber(ctx, sqliteToday)
		require.NoError(t, err)
		assert.Equal(t, "PO-20250310-0002", number)

		number, err = repo.GenerateOrderNumber(ctx, sqliteToday.AddDate(0, 0, 1))
		require.NoError(t, err)
		assert.Equal(t, "PO-20250311-0001", number)
	})

	t.Run("counts by status including empty ones", func(t *testing.T) {
		counts, err := repo.CountByStatus(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), counts[trade.PurchaseOrderStatusSent])
		assert.Equal(t, int64(0), counts[trade.PurchaseOrderStatusDraft])
		assert.Len(t, counts, len(trade.AllPurchaseOrderStatuses))
	})

	t.Run("filters by status", func(t *testing.T) {
		draft := trade.PurchaseOrderStatusDraft
		orders, err := repo.FindAll(ctx, trade.PurchaseOrderFilter{Status: &draft})
		require.NoError(t, err)
		assert.Empty(t, orders)

		total, err := repo.Count(ctx, trade.PurchaseOrderFilter{SupplierID: &order.SupplierID})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})

	t.Run("delete removes order and items", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, order.ID))

		_, err := repo.FindByID(ctx, order.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		var items int64
		require.NoError(t, db.Model(&models.PurchaseOrderItemModel{}).Count(&items).Error)
		assert.Zero(t, items)
	})
}

func newSQLiteProcessor(db *gorm.DB) *apptrade.ReceivingProcessor {
	p := apptrade.NewReceivingProcessor(NewGormTransactionScope(db), zap.NewNop())
	p.SetClock(shared.FixedClock{At: sqliteToday})
	p.SetIdempotencyStore(cache.NewInMemoryIdempotencyStore(), shared.DefaultIdempotencyConfig())
	return p
}

func TestReceivingProcessor_SQLite(t *testing.T) {
	ctx := context.Background()

	t.Run("partial then full receipt credits stock", func(t *testing.T) {
		db := newSQLiteDB(t)
		items := NewGormStorageItemRepository(db)
		orders := NewGormPurchaseOrderRepository(db)
		p := newSQLiteProcessor(db)

		insert := saveStorageItem(t, db, "Insert WNMG", inventory.ItemTypeInsert, 2)
		order := saveSentOrder(t, db, "PO-20250310-0001",
			trade.OrderLine{StorageItemID: insert.ID, Quantity: 10, UnitPrice: decimal.NewFromInt(4)},
		)
		lineID := order.Items[0].ID

		result, err := p.ReceiveItem(ctx, order.ID, lineID, apptrade.ReceiveItemRequest{
			QuantityReceived: 4,
			Condition:        "reground",
			Notes:            "first pallet",
		}, "k-1")
		require.NoError(t, err)
		assert.False(t, result.IsFullyReceived)

		stored, err := orders.FindByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, trade.PurchaseOrderStatusPartiallyReceived, stored.Status)
		assert.Equal(t, 4, stored.Items[0].QuantityReceived)
		assert.Contains(t, stored.Items[0].Notes, "first pallet")

		_, err = p.ReceiveItem(ctx, order.ID, lineID, apptrade.ReceiveItemRequest{QuantityReceived: 4}, "k-1")
		assert.ErrorIs(t, err, shared.ErrDuplicateRequest)

		result, err = p.ReceiveAll(ctx, order.ID, apptrade.ReceivePurchaseOrderRequest{}, "k-2")
		require.NoError(t, err)
		assert.True(t, result.IsFullyReceived)
		require.Len(t, result.Receipts, 1)
		assert.Equal(t, 6, result.Receipts[0].Quantity)

		item, err := items.FindByID(ctx, insert.ID)
		require.NoError(t, err)
		assert.Equal(t, 8, item.QuantityNew)
		assert.Equal(t, 4, item.QuantityReground)
		assert.Equal(t, 3, item.Version)

		stored, err = orders.FindByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, trade.PurchaseOrderStatusReceived, stored.Status)
		require.NotNil(t, stored.ActualDeliveryDate)
	})

	t.Run("missing storage item rolls the whole receipt back", func(t *testing.T) {
		db := newSQLiteDB(t)
		orders := NewGormPurchaseOrderRepository(db)
		p := newSQLiteProcessor(db)

		present := saveStorageItem(t, db, "Face mill", inventory.ItemTypeTool, 0)
		order := saveSentOrder(t, db, "PO-20250310-0001",
			trade.OrderLine{StorageItemID: present.ID, Quantity: 2, UnitPrice: decimal.NewFromInt(90)},
			trade.OrderLine{StorageItemID: uuid.New(), Quantity: 1, UnitPrice: decimal.NewFromInt(5)},
		)

		_, err := p.ReceiveAll(ctx, order.ID, apptrade.ReceivePurchaseOrderRequest{}, "k-1")
		require.Error(t, err)
		assert.True(t, shared.IsConsistencyError(err))

		stored, err := orders.FindByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, trade.PurchaseOrderStatusSent, stored.Status)
		assert.Equal(t, order.Version, stored.Version)
		for _, item := range stored.Items {
			assert.Zero(t, item.QuantityReceived)
		}

		item, err := NewGormStorageItemRepository(db).FindByID(ctx, present.ID)
		require.NoError(t, err)
		assert.Zero(t, item.QuantityNew)

		_, err = p.ReceiveAll(ctx, order.ID, apptrade.ReceivePurchaseOrderRequest{}, "k-1")
		assert.True(t, shared.IsConsistencyError(err), "failed key is released and may be retried")
	})

	t.Run("over delivery is rejected", func(t *testing.T) {
		db := newSQLiteDB(t)
		p := newSQLiteProcessor(db)

		insert := saveStorageItem(t, db, "Insert DNMG", inventory.ItemTypeInsert, 0)
		order := saveSentOrder(t, db, "PO-20250310-0001",
			trade.OrderLine{StorageItemID: insert.ID, Quantity: 3, UnitPrice: decimal.NewFromInt(4)},
		)

		_, err := p.ReceiveItem(ctx, order.ID, order.Items[0].ID, apptrade.ReceiveItemRequest{QuantityReceived: 4}, "")
		require.Error(t, err)
		assert.True(t, shared.IsValidationError(err))
	})
}
