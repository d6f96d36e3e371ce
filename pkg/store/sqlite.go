package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"mercator-hq/saturn/pkg/budget"
	"mercator-hq/saturn/pkg/history"
	"mercator-hq/saturn/pkg/ledger"
)

// timeLayout persists timestamps as RFC 3339 UTC text with a
// fixed-width fraction so range scans compare lexicographically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteConfig contains configuration for the SQLite backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// Driver selects the database/sql driver: "sqlite" (pure Go) or
	// "sqlite3" (cgo). Default: "sqlite"
	Driver string

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/saturn.db",
		Driver:       "sqlite",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLite persists rules, violations, cost records, and daily history in
// a single SQLite database.
type SQLite struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLite opens the database, applies pragmas, and creates the schema.
func NewSQLite(config *SQLiteConfig) (*SQLite, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	if config.Driver == "" {
		config.Driver = "sqlite"
	}

	db, err := sql.Open(config.Driver, config.Path)
	if err != nil {
		return nil, NewStorageError(config.Driver, "open", err)
	}
	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	s := &SQLite{
		db:     db,
		config: config,
		logger: slog.Default().With("component", "store.sqlite"),
	}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Info("SQLite store initialized",
		"path", config.Path,
		"driver", config.Driver,
		"wal_mode", config.WALMode,
	)
	return s, nil
}

// initialize applies pragmas and creates the schema. Pragmas go through
// Exec rather than the DSN so both drivers behave identically.
func (s *SQLite) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return NewStorageError(s.config.Driver, "enable_wal", err)
		}
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", s.config.BusyTimeout.Milliseconds())); err != nil {
		return NewStorageError(s.config.Driver, "set_busy_timeout", err)
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return NewStorageError(s.config.Driver, "create_schema", err)
	}
	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return NewStorageError(s.config.Driver, "insert_schema_version", err)
	}

	var version int
	if err := s.db.QueryRow(GetSchemaVersion).Scan(&version); err != nil && err != sql.ErrNoRows {
		return NewStorageError(s.config.Driver, "get_schema_version", err)
	}
	if version != SchemaVersion {
		return NewStorageError(s.config.Driver, "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}
	return nil
}

// Close releases the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// ============================================================================
// budget.RuleStore
// ============================================================================

// SaveRule inserts or replaces a rule by ID.
func (s *SQLite) SaveRule(ctx context.Context, rule *budget.Rule) error {
	actions, _ := json.Marshal(rule.AllowedActions)
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO budget_rules (
			id, name, description, scope, limit_usd, enforcement_level,
			allowed_actions, warning_threshold_pct, critical_threshold_pct,
			enabled, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rule.ID, rule.Name, rule.Description, string(rule.Scope), rule.LimitUSD,
		string(rule.EnforcementLevel), string(actions),
		rule.WarningThresholdPct, rule.CriticalThresholdPct,
		rule.Enabled,
		rule.CreatedAt.UTC().Format(timeLayout),
		rule.UpdatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return NewStorageError(s.config.Driver, "save_rule", err)
	}
	return nil
}

// DeleteRule removes a rule. Unknown IDs are not an error.
func (s *SQLite) DeleteRule(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM budget_rules WHERE id = ?`, id); err != nil {
		return NewStorageError(s.config.Driver, "delete_rule", err)
	}
	return nil
}

// ListRules returns all stored rules.
func (s *SQLite) ListRules(ctx context.Context) ([]*budget.Rule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, scope, limit_usd, enforcement_level,
		       allowed_actions, warning_threshold_pct, critical_threshold_pct,
		       enabled, created_at, updated_at
		FROM budget_rules`)
	if err != nil {
		return nil, NewStorageError(s.config.Driver, "list_rules", err)
	}
	defer rows.Close()

	var out []*budget.Rule
	for rows.Next() {
		var (
			rule                 budget.Rule
			scope, level         string
			actions              string
			createdAt, updatedAt string
		)
		if err := rows.Scan(&rule.ID, &rule.Name, &rule.Description, &scope, &rule.LimitUSD,
			&level, &actions, &rule.WarningThresholdPct, &rule.CriticalThresholdPct,
			&rule.Enabled, &createdAt, &updatedAt); err != nil {
			return nil, NewStorageError(s.config.Driver, "scan_rule", err)
		}
		rule.Scope = budget.Scope(scope)
		rule.EnforcementLevel = budget.EnforcementLevel(level)
		if err := json.Unmarshal([]byte(actions), &rule.AllowedActions); err != nil {
			return nil, NewStorageError(s.config.Driver, "decode_rule_actions", err)
		}
		if rule.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, NewStorageError(s.config.Driver, "parse_rule_time", err)
		}
		if rule.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, NewStorageError(s.config.Driver, "parse_rule_time", err)
		}
		out = append(out, &rule)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError(s.config.Driver, "list_rules", err)
	}
	return out, nil
}

// ============================================================================
// budget.ViolationStore
// ============================================================================

// SaveViolation inserts or replaces a violation by ID.
func (s *SQLite) SaveViolation(ctx context.Context, v *budget.Violation) error {
	var resolvedAt interface{}
	if v.ResolvedAt != nil {
		resolvedAt = v.ResolvedAt.UTC().Format(timeLayout)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO budget_violations (
			id, rule_id, timestamp, kind, current_amount_usd, limit_amount_usd,
			percentage_used, action, message, resolved, resolved_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.RuleID, v.Timestamp.UTC().Format(timeLayout), string(v.Kind),
		v.CurrentAmountUSD, v.LimitAmountUSD, v.PercentageUsed,
		string(v.Action), v.Message, v.Resolved, resolvedAt,
	)
	if err != nil {
		return NewStorageError(s.config.Driver, "save_violation", err)
	}
	return nil
}

// ListViolations returns violations with Timestamp >= since.
func (s *SQLite) ListViolations(ctx context.Context, since time.Time) ([]*budget.Violation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, rule_id, timestamp, kind, current_amount_usd, limit_amount_usd,
		       percentage_used, action, message, resolved, resolved_at
		FROM budget_violations
		WHERE timestamp >= ?
		ORDER BY timestamp ASC`,
		since.UTC().Format(timeLayout))
	if err != nil {
		return nil, NewStorageError(s.config.Driver, "list_violations", err)
	}
	defer rows.Close()

	var out []*budget.Violation
	for rows.Next() {
		var (
			v            budget.Violation
			kind, action string
			ts           string
			resolvedAt   sql.NullString
		)
		if err := rows.Scan(&v.ID, &v.RuleID, &ts, &kind, &v.CurrentAmountUSD,
			&v.LimitAmountUSD, &v.PercentageUsed, &action, &v.Message,
			&v.Resolved, &resolvedAt); err != nil {
			return nil, NewStorageError(s.config.Driver, "scan_violation", err)
		}
		v.Kind = budget.ViolationKind(kind)
		v.Action = budget.EnforcementAction(action)
		if v.Timestamp, err = parseTime(ts); err != nil {
			return nil, NewStorageError(s.config.Driver, "parse_violation_time", err)
		}
		if resolvedAt.Valid {
			t, err := parseTime(resolvedAt.String)
			if err != nil {
				return nil, NewStorageError(s.config.Driver, "parse_violation_time", err)
			}
			v.ResolvedAt = &t
		}
		out = append(out, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError(s.config.Driver, "list_violations", err)
	}
	return out, nil
}

// DeleteViolationsBefore removes violations older than the cutoff.
func (s *SQLite) DeleteViolationsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM budget_violations WHERE timestamp < ?`,
		cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, NewStorageError(s.config.Driver, "delete_violations", err)
	}
	return res.RowsAffected()
}

// ============================================================================
// ledger.Store
// ============================================================================

// AppendRecord persists a new cost record.
func (s *SQLite) AppendRecord(ctx context.Context, r *ledger.QueryCostRecord) error {
	tags, _ := json.Marshal(r.Tags)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cost_records (
			id, timestamp, operation_type, operation_hash, operation_preview,
			estimated_cost_usd, actual_cost_usd, cost_difference_usd,
			data_processing_cost_usd, compute_cost_usd,
			execution_time_ms, resource_bytes, compute_slot_ms,
			status, error_message, priority, tags
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Timestamp.UTC().Format(timeLayout), r.OperationType,
		r.OperationHash, r.OperationPreview,
		r.EstimatedCostUSD, r.ActualCostUSD, r.CostDifferenceUSD,
		r.DataProcessingCostUSD, r.ComputeCostUSD,
		r.ExecutionTimeMS, r.ResourceBytes, r.ComputeSlotMS,
		string(r.Status), r.ErrorMessage, string(r.Priority), string(tags),
	)
	if err != nil {
		return NewStorageError(s.config.Driver, "append_record", err)
	}
	return nil
}

// ListRecords returns records with from <= Timestamp < to, ordered by
// timestamp ascending.
func (s *SQLite) ListRecords(ctx context.Context, from, to time.Time) ([]*ledger.QueryCostRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, operation_type, operation_hash, operation_preview,
		       estimated_cost_usd, actual_cost_usd, cost_difference_usd,
		       data_processing_cost_usd, compute_cost_usd,
		       execution_time_ms, resource_bytes, compute_slot_ms,
		       status, error_message, priority, tags
		FROM cost_records
		WHERE timestamp >= ? AND timestamp < ?
		ORDER BY timestamp ASC`,
		from.UTC().Format(timeLayout), to.UTC().Format(timeLayout))
	if err != nil {
		return nil, NewStorageError(s.config.Driver, "list_records", err)
	}
	defer rows.Close()

	var out []*ledger.QueryCostRecord
	for rows.Next() {
		var (
			r                      ledger.QueryCostRecord
			ts, status, prio, tags string
		)
		if err := rows.Scan(&r.ID, &ts, &r.OperationType, &r.OperationHash, &r.OperationPreview,
			&r.EstimatedCostUSD, &r.ActualCostUSD, &r.CostDifferenceUSD,
			&r.DataProcessingCostUSD, &r.ComputeCostUSD,
			&r.ExecutionTimeMS, &r.ResourceBytes, &r.ComputeSlotMS,
			&status, &r.ErrorMessage, &prio, &tags); err != nil {
			return nil, NewStorageError(s.config.Driver, "scan_record", err)
		}
		r.Status = ledger.Status(status)
		r.Priority = ledger.Priority(prio)
		if err := json.Unmarshal([]byte(tags), &r.Tags); err != nil {
			return nil, NewStorageError(s.config.Driver, "decode_record_tags", err)
		}
		if r.Timestamp, err = parseTime(ts); err != nil {
			return nil, NewStorageError(s.config.Driver, "parse_record_time", err)
		}
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError(s.config.Driver, "list_records", err)
	}
	return out, nil
}

// DeleteRecordsBefore removes cost records older than the cutoff.
func (s *SQLite) DeleteRecordsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cost_records WHERE timestamp < ?`,
		cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, NewStorageError(s.config.Driver, "delete_records", err)
	}
	return res.RowsAffected()
}

// ============================================================================
// history.Store
// ============================================================================

// SaveDaily inserts or replaces the daily record for its date.
func (s *SQLite) SaveDaily(ctx context.Context, r *history.CostHistoryRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO cost_history (
			date, id, timestamp, total_cost_usd,
			data_processing_cost_usd, compute_cost_usd,
			bytes_processed, slot_ms,
			total_queries, succeeded_queries, failed_queries,
			avg_query_cost_usd, max_query_cost_usd,
			budget_limit_usd, budget_used_usd, budget_remaining_usd, budget_utilization_pct
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Date, r.ID, r.Timestamp.UTC().Format(timeLayout), r.TotalCostUSD,
		r.DataProcessingCostUSD, r.ComputeCostUSD,
		r.BytesProcessed, r.SlotMS,
		r.TotalQueries, r.SucceededQueries, r.FailedQueries,
		r.AvgQueryCostUSD, r.MaxQueryCostUSD,
		r.BudgetLimitUSD, r.BudgetUsedUSD, r.BudgetRemainingUSD, r.BudgetUtilizationPct,
	)
	if err != nil {
		return NewStorageError(s.config.Driver, "save_daily", err)
	}
	return nil
}

// ListDaily returns daily records within the inclusive date range,
// ordered by date ascending.
func (s *SQLite) ListDaily(ctx context.Context, startDate, endDate string) ([]*history.CostHistoryRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, id, timestamp, total_cost_usd,
		       data_processing_cost_usd, compute_cost_usd,
		       bytes_processed, slot_ms,
		       total_queries, succeeded_queries, failed_queries,
		       avg_query_cost_usd, max_query_cost_usd,
		       budget_limit_usd, budget_used_usd, budget_remaining_usd, budget_utilization_pct
		FROM cost_history
		WHERE date >= ? AND date <= ?
		ORDER BY date ASC`,
		startDate, endDate)
	if err != nil {
		return nil, NewStorageError(s.config.Driver, "list_daily", err)
	}
	defer rows.Close()

	var out []*history.CostHistoryRecord
	for rows.Next() {
		var (
			r  history.CostHistoryRecord
			ts string
		)
		if err := rows.Scan(&r.Date, &r.ID, &ts, &r.TotalCostUSD,
			&r.DataProcessingCostUSD, &r.ComputeCostUSD,
			&r.BytesProcessed, &r.SlotMS,
			&r.TotalQueries, &r.SucceededQueries, &r.FailedQueries,
			&r.AvgQueryCostUSD, &r.MaxQueryCostUSD,
			&r.BudgetLimitUSD, &r.BudgetUsedUSD, &r.BudgetRemainingUSD, &r.BudgetUtilizationPct); err != nil {
			return nil, NewStorageError(s.config.Driver, "scan_daily", err)
		}
		if r.Timestamp, err = parseTime(ts); err != nil {
			return nil, NewStorageError(s.config.Driver, "parse_daily_time", err)
		}
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError(s.config.Driver, "list_daily", err)
	}
	return out, nil
}

// DeleteDailyBefore removes daily records dated before the cutoff.
func (s *SQLite) DeleteDailyBefore(ctx context.Context, cutoffDate string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cost_history WHERE date < ?`, cutoffDate)
	if err != nil {
		return 0, NewStorageError(s.config.Driver, "delete_daily", err)
	}
	return res.RowsAffected()
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}
