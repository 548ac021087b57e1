package invrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/pkg/errors"
	"github.com/sksmith/stock-ledger/core"
	"github.com/sksmith/stock-ledger/core/inventory"
	"github.com/sksmith/stock-ledger/db"
)

type dbRepo struct {
	conn core.Conn
}

func NewPostgresRepo(conn core.Conn) inventory.Repository {
	return &dbRepo{
		conn: conn,
	}
}

const itemColumns = `i.id, i.product_id, i.sku, i.reorder_point, i.reorder_quantity, i.attributes,
       i.total_available, i.total_reserved, i.total_damaged, i.state, i.version, i.created_at, i.updated_at`

func (d *dbRepo) GetItem(ctx context.Context, id uint64, options ...core.QueryOptions) (inventory.InventoryItem, error) {
	m := db.StartMetric("GetItem")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	item, err := d.getItem(ctx, tx, `SELECT `+itemColumns+` FROM inventory_items i WHERE i.id = $1 `+forUpdate, id)
	m.Complete(err)
	return item, err
}

func (d *dbRepo) GetItemByProductID(ctx context.Context, productID string, options ...core.QueryOptions) (inventory.InventoryItem, error) {
	m := db.StartMetric("GetItemByProductID")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	item, err := d.getItem(ctx, tx, `SELECT `+itemColumns+` FROM inventory_items i WHERE i.product_id = $1 `+forUpdate, productID)
	m.Complete(err)
	return item, err
}

func (d *dbRepo) getItem(ctx context.Context, tx core.Conn, query string, arg interface{}) (inventory.InventoryItem, error) {
	item, err := scanItem(tx.QueryRow(ctx, query, arg))
	if err != nil {
		if err == pgx.ErrNoRows {
			return item, errors.WithStack(core.ErrNotFound)
		}
		return item, errors.WithStack(err)
	}

	if item.StockByLocation, err = d.getPools(ctx, tx, item.ID); err != nil {
		return inventory.InventoryItem{}, err
	}
	if item.AuditLog, err = d.getAuditLog(ctx, tx, item.ID); err != nil {
		return inventory.InventoryItem{}, err
	}
	item.RecomputeTotals()
	return item, nil
}

// SearchItems returns items with their stock pools. Audit trails are not loaded for search results.
func (d *dbRepo) SearchItems(ctx context.Context, filter inventory.ItemFilter, limit, offset int, options ...core.QueryOptions) ([]inventory.InventoryItem, error) {
	m := db.StartMetric("SearchItems")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	where := make([]string, 0, 3)
	args := make([]interface{}, 0, 5)
	if filter.Sku != "" {
		args = append(args, filter.Sku)
		where = append(where, fmt.Sprintf("i.sku = $%d", len(args)))
	}
	if filter.State != inventory.StateNone {
		args = append(args, string(filter.State))
		where = append(where, fmt.Sprintf("i.state = $%d", len(args)))
	}
	if filter.LocationID != "" {
		args = append(args, filter.LocationID)
		where = append(where, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM stock_pools sp WHERE sp.item_id = i.id AND sp.location_id = $%d)", len(args)))
	}

	query := `SELECT ` + itemColumns + ` FROM inventory_items i`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(` ORDER BY i.product_id LIMIT $%d OFFSET $%d `, len(args)-1, len(args)) + forUpdate

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		m.Complete(err)
		return nil, errors.WithStack(err)
	}

	items := make([]inventory.InventoryItem, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			rows.Close()
			m.Complete(err)
			return nil, errors.WithStack(err)
		}
		items = append(items, item)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		m.Complete(err)
		return nil, errors.WithStack(err)
	}

	for idx := range items {
		if items[idx].StockByLocation, err = d.getPools(ctx, tx, items[idx].ID); err != nil {
			m.Complete(err)
			return nil, err
		}
		items[idx].RecomputeTotals()
	}

	m.Complete(nil)
	return items, nil
}

func (d *dbRepo) SaveItem(ctx context.Context, item *inventory.InventoryItem, options ...core.UpdateOptions) (err error) {
	m := db.StartMetric("SaveItem")
	defer func() { m.Complete(err) }()
	tx := db.GetUpdateOptions(d.conn, options...)

	attrs, err := json.Marshal(item.Attributes)
	if err != nil {
		return errors.WithStack(err)
	}
	if item.State == inventory.StateNone {
		item.State = inventory.StateActive
	}
	now := time.Now()
	if item.Created.IsZero() {
		item.Created = now
	}
	item.Updated = now

	insert := `INSERT INTO inventory_items (product_id, sku, reorder_point, reorder_quantity, attributes,
                                 total_available, total_reserved, total_damaged, state, version, created_at, updated_at)
                      VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1, $10, $11) RETURNING id, version;`

	err = tx.QueryRow(ctx, insert, item.ProductID, item.Sku, item.ReorderPoint, item.ReorderQuantity, string(attrs),
		item.TotalAvailable, item.TotalReserved, item.TotalDamaged, string(item.State), item.Created, item.Updated).
		Scan(&item.ID, &item.Version)
	if err != nil {
		return errors.WithStack(err)
	}

	if err = d.savePools(ctx, tx, item); err != nil {
		return err
	}
	return d.appendAudit(ctx, tx, item.ID, item.AuditLog, 0)
}

func (d *dbRepo) UpdateItem(ctx context.Context, item *inventory.InventoryItem, transition inventory.ItemState, options ...core.UpdateOptions) (err error) {
	m := db.StartMetric("UpdateItem")
	defer func() { m.Complete(err) }()
	tx := db.GetUpdateOptions(d.conn, options...)

	attrs, err := json.Marshal(item.Attributes)
	if err != nil {
		return errors.WithStack(err)
	}
	item.Updated = time.Now()

	var state string
	err = tx.QueryRow(ctx, `
		UPDATE inventory_items
           SET sku = $2, reorder_point = $3, reorder_quantity = $4, attributes = $5,
               total_available = $6, total_reserved = $7, total_damaged = $8,
               state = COALESCE(NULLIF($9, ''), state), version = version + 1, updated_at = $10
         WHERE id = $1 AND version = $11
     RETURNING version, state;`,
		item.ID, item.Sku, item.ReorderPoint, item.ReorderQuantity, string(attrs),
		item.TotalAvailable, item.TotalReserved, item.TotalDamaged, string(transition), item.Updated, item.Version).
		Scan(&item.Version, &state)
	if err != nil {
		if err == pgx.ErrNoRows {
			return errors.Wrapf(core.ErrVersionConflict, "item %s at version %d", item.ProductID, item.Version)
		}
		return errors.WithStack(err)
	}
	item.State = inventory.ItemState(state)

	if err = d.savePools(ctx, tx, item); err != nil {
		return err
	}

	var stored int
	err = tx.QueryRow(ctx, `SELECT COUNT(*) FROM audit_log WHERE item_id = $1`, item.ID).Scan(&stored)
	if err != nil {
		return errors.WithStack(err)
	}
	return d.appendAudit(ctx, tx, item.ID, item.AuditLog, stored)
}

func (d *dbRepo) BeginTransaction(ctx context.Context) (core.Transaction, error) {
	tx, err := d.conn.Begin(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return tx, nil
}

func (d *dbRepo) savePools(ctx context.Context, tx core.Conn, item *inventory.InventoryItem) error {
	for pos, p := range item.StockByLocation {
		_, err := tx.Exec(ctx, `
			INSERT INTO stock_pools (item_id, location_id, position, location_name, location_type,
			                         available, reserved, damaged, in_transit, last_stock_check, last_checked_by)
			     VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (item_id, location_id) DO UPDATE
			        SET position = EXCLUDED.position, location_name = EXCLUDED.location_name,
			            location_type = EXCLUDED.location_type, available = EXCLUDED.available,
			            reserved = EXCLUDED.reserved, damaged = EXCLUDED.damaged, in_transit = EXCLUDED.in_transit,
			            last_stock_check = EXCLUDED.last_stock_check, last_checked_by = EXCLUDED.last_checked_by;`,
			item.ID, p.LocationID, pos, p.LocationName, p.LocationType,
			p.Available, p.Reserved, p.Damaged, p.InTransit, nullTime(p.LastStockCheck), p.LastCheckedBy)
		if err != nil {
			return errors.WithMessagef(err, "failed to save location %s", p.LocationID)
		}
	}
	return nil
}

// appendAudit inserts the entries from index from onwards. Entries with an id that is already stored are skipped.
func (d *dbRepo) appendAudit(ctx context.Context, tx core.Conn, itemID uint64, trail inventory.AuditTrail, from int) error {
	for seq := from; seq < len(trail); seq++ {
		e := trail[seq]
		_, err := tx.Exec(ctx, `
			INSERT INTO audit_log (id, item_id, seq, occurred_at, reason, actor, location_id, stock_type,
			                       delta, previous_value, new_value, reference_id, notes)
			     VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			ON CONFLICT (id) DO NOTHING;`,
			e.ID, itemID, seq, e.Timestamp, string(e.Reason), e.Actor, e.LocationID, string(e.StockType),
			e.Delta, e.PreviousValue, e.NewValue, e.ReferenceID, e.Notes)
		if err != nil {
			return errors.WithMessagef(err, "failed to append audit entry %s", e.ID)
		}
	}
	return nil
}

func (d *dbRepo) getPools(ctx context.Context, tx core.Conn, itemID uint64) ([]inventory.StockPool, error) {
	rows, err := tx.Query(ctx, `
		SELECT location_id, location_name, location_type, available, reserved, damaged, in_transit,
		       last_stock_check, last_checked_by
		  FROM stock_pools
		 WHERE item_id = $1
		 ORDER BY position`, itemID)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer rows.Close()

	pools := make([]inventory.StockPool, 0)
	for rows.Next() {
		p := inventory.StockPool{}
		var checked *time.Time
		if err = rows.Scan(&p.LocationID, &p.LocationName, &p.LocationType, &p.Available, &p.Reserved,
			&p.Damaged, &p.InTransit, &checked, &p.LastCheckedBy); err != nil {
			return nil, errors.WithStack(err)
		}
		if checked != nil {
			p.LastStockCheck = *checked
		}
		pools = append(pools, p)
	}
	return pools, errors.WithStack(rows.Err())
}

func (d *dbRepo) getAuditLog(ctx context.Context, tx core.Conn, itemID uint64) (inventory.AuditTrail, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, occurred_at, reason, actor, location_id, stock_type, delta, previous_value, new_value,
		       reference_id, notes
		  FROM audit_log
		 WHERE item_id = $1
		 ORDER BY seq`, itemID)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer rows.Close()

	trail := make(inventory.AuditTrail, 0)
	for rows.Next() {
		e := inventory.AuditLogEntry{}
		var reason, stockType string
		if err = rows.Scan(&e.ID, &e.Timestamp, &reason, &e.Actor, &e.LocationID, &stockType, &e.Delta,
			&e.PreviousValue, &e.NewValue, &e.ReferenceID, &e.Notes); err != nil {
			return nil, errors.WithStack(err)
		}
		e.Reason = inventory.Reason(reason)
		e.StockType = inventory.StockType(stockType)
		trail = append(trail, e)
	}
	return trail, errors.WithStack(rows.Err())
}

func scanItem(row pgx.Row) (inventory.InventoryItem, error) {
	item := inventory.InventoryItem{}
	var attrs []byte
	var state string
	err := row.Scan(&item.ID, &item.ProductID, &item.Sku, &item.ReorderPoint, &item.ReorderQuantity, &attrs,
		&item.TotalAvailable, &item.TotalReserved, &item.TotalDamaged, &state, &item.Version,
		&item.Created, &item.Updated)
	if err != nil {
		return item, err
	}
	item.State = inventory.ItemState(state)
	if len(attrs) > 0 {
		if err = json.Unmarshal(attrs, &item.Attributes); err != nil {
			return item, err
		}
	}
	return item, nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
