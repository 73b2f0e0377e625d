package telemetry

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/mfgadmin/backend/internal/infrastructure/config"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultSlowQueryThreshold = 200 * time.Millisecond
	poolStatsInterval         = 15 * time.Second
	queryStartKey             = "telemetry:query_start"
)

// DBInstrumentation traces GORM statements, records their duration, warns
// about slow queries and samples connection pool statistics
type DBInstrumentation struct {
	logger        *zap.Logger
	slowThreshold time.Duration

	queryDuration   *Histogram
	poolConnections *Gauge

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// InstrumentDatabase registers the otelgorm plugin (when DB tracing is
// enabled) and the timing callbacks on db
func InstrumentDatabase(db *gorm.DB, cfg config.TelemetryConfig, meter metric.Meter, logger *zap.Logger) (*DBInstrumentation, error) {
	threshold := cfg.DBSlowQueryThresh
	if threshold <= 0 {
		threshold = defaultSlowQueryThreshold
	}

	d := &DBInstrumentation{
		logger:        logger,
		slowThreshold: threshold,
		stopCh:        make(chan struct{}),
	}

	var err error
	d.queryDuration, err = NewHistogram(meter,
		"mfg_db_query_duration_seconds",
		"Duration of database statements",
		"s",
		DBDurationBuckets,
	)
	if err != nil {
		return nil, err
	}
	d.poolConnections, err = NewGauge(meter,
		"mfg_db_pool_connections",
		"Database connections by pool state",
		"{connections}",
	)
	if err != nil {
		return nil, err
	}

	if cfg.Enabled && cfg.DBTraceEnabled {
		opts := []otelgorm.Option{otelgorm.WithDBName("postgres")}
		if !cfg.DBLogFullSQL {
			opts = append(opts, otelgorm.WithoutQueryVariables())
		}
		if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
			return nil, err
		}
	}

	if err := d.registerCallbacks(db); err != nil {
		return nil, err
	}

	logger.Info("Database instrumentation registered",
		zap.Bool("tracing", cfg.Enabled && cfg.DBTraceEnabled),
		zap.Duration("slow_query_threshold", threshold),
	)
	return d, nil
}

func (d *DBInstrumentation) registerCallbacks(db *gorm.DB) error {
	cb := db.Callback()
	before := func(tx *gorm.DB) { tx.InstanceSet(queryStartKey, time.Now()) }

	if err := cb.Create().Before("gorm:create").Register("telemetry:before_create", before); err != nil {
		return err
	}
	if err := cb.Query().Before("gorm:query").Register("telemetry:before_query", before); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("telemetry:before_update", before); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register("telemetry:before_delete", before); err != nil {
		return err
	}
	if err := cb.Row().Before("gorm:row").Register("telemetry:before_row", before); err != nil {
		return err
	}
	if err := cb.Raw().Before("gorm:raw").Register("telemetry:before_raw", before); err != nil {
		return err
	}

	if err := cb.Create().After("gorm:create").Register("telemetry:after_create", d.after("insert")); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("telemetry:after_query", d.after("select")); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("telemetry:after_update", d.after("update")); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register("telemetry:after_delete", d.after("delete")); err != nil {
		return err
	}
	if err := cb.Row().After("gorm:row").Register("telemetry:after_row", d.after("")); err != nil {
		return err
	}
	return cb.Raw().After("gorm:raw").Register("telemetry:after_raw", d.after(""))
}

// after records the statement once it finished. An empty operation is
// derived from the SQL text.
func (d *DBInstrumentation) after(operation string) func(*gorm.DB) {
	return func(tx *gorm.DB) {
		v, ok := tx.InstanceGet(queryStartKey)
		if !ok {
			return
		}
		start, ok := v.(time.Time)
		if !ok {
			return
		}
		elapsed := time.Since(start)

		op := operation
		if op == "" {
			op = detectOperation(tx.Statement.SQL.String())
		}
		ctx := tx.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}

		d.queryDuration.RecordDuration(ctx, elapsed,
			AttrDBOperation.String(op),
			AttrDBTable.String(tx.Statement.Table),
		)

		span := trace.SpanFromContext(ctx)
		if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			RecordError(span, tx.Error)
		}

		if elapsed >= d.slowThreshold {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
			d.logger.Warn("Slow database query",
				zap.String("operation", op),
				zap.String("table", tx.Statement.Table),
				zap.Duration("elapsed", elapsed),
				zap.Int64("rows", tx.Statement.RowsAffected),
				zap.String("trace_id", TraceID(ctx)),
			)
		}
	}
}

func detectOperation(sql string) string {
	sql = strings.TrimSpace(strings.ToLower(sql))
	for _, op := range []string{"select", "insert", "update", "delete"} {
		if strings.HasPrefix(sql, op) {
			return op
		}
	}
	return "other"
}

// StartPoolStatsCollection samples the connection pool until Stop or ctx ends
func (d *DBInstrumentation) StartPoolStatsCollection(ctx context.Context, db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		d.logger.Warn("Cannot collect pool stats", zap.Error(err))
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ticker := time.NewTicker(poolStatsInterval)
		defer ticker.Stop()

		for {
			stats := sqlDB.Stats()
			d.poolConnections.Record(ctx, int64(stats.Idle), AttrDBState.String("idle"))
			d.poolConnections.Record(ctx, int64(stats.InUse), AttrDBState.String("in_use"))
			d.poolConnections.Record(ctx, int64(stats.MaxOpenConnections), AttrDBState.String("max"))

			select {
			case <-ticker.C:
			case <-d.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop ends pool stats collection. Safe to call more than once.
func (d *DBInstrumentation) Stop() {
	d.stopOnce.Do(func() {
		close(d.stopCh)
		d.wg.Wait()
	})
}
