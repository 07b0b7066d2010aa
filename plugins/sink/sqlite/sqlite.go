package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"paste2excel/pkg/contract"
)

// Options: SQLite Sink 的选项。
type Options struct {
	// Path: 数据库文件（必需）；父目录不存在时创建。
	Path string `json:"path"`
	// Table: 表名；默认 contracts。
	Table string `json:"table"`
	// BusyTimeoutMS: busy_timeout 毫秒；<=0 使用 5000。
	BusyTimeoutMS int `json:"busy_timeout_ms,omitempty"`
}

const DefaultTable = "contracts"

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// slotColumns: 槽位 → 列名（每个槽位一列可空 TEXT）。
var slotColumns = map[contract.TargetColumn]string{
	contract.JobNameSlot:       "job_name",
	contract.GcNameSlot:        "gc_name",
	contract.StateSlot:         "state",
	contract.AddressSlot:       "address",
	contract.ArchitectSlot:     "architect",
	contract.ContractPriceSlot: "contract_price",
	contract.RetainageSlot:     "retainage",
	contract.DateAwardedSlot:   "date_awarded",
}

// Row: 表中一行。日期以 YYYY-MM-DD 存储，date_awarded_kind 区分 date 与 raw。
type Row struct {
	ID              int64          `db:"id"`
	ContractID      string         `db:"contract_id"`
	JobName         sql.NullString `db:"job_name"`
	GcName          sql.NullString `db:"gc_name"`
	State           sql.NullString `db:"state"`
	Address         sql.NullString `db:"address"`
	Architect       sql.NullString `db:"architect"`
	ContractPrice   sql.NullString `db:"contract_price"`
	Retainage       sql.NullString `db:"retainage"`
	DateAwarded     sql.NullString `db:"date_awarded"`
	DateAwardedKind sql.NullString `db:"date_awarded_kind"`
	CreatedAt       string         `db:"created_at"`
}

// Store 将记录插入 SQLite 表；首次 Append 时打开并迁移。
type Store struct {
	path  string
	table string
	busy  int
	now   func() time.Time

	mu sync.Mutex
	db *sqlx.DB
}

// New 校验选项；不在此处打开数据库。
func New(opts *Options) (*Store, error) {
	if opts == nil || strings.TrimSpace(opts.Path) == "" {
		return nil, fmt.Errorf("%w: sqlite path required", contract.ErrInvalidInput)
	}
	table := strings.TrimSpace(opts.Table)
	if table == "" {
		table = DefaultTable
	}
	if !identRe.MatchString(table) {
		return nil, fmt.Errorf("%w: table name %q", contract.ErrInvalidInput, table)
	}
	busy := opts.BusyTimeoutMS
	if busy <= 0 {
		busy = 5000
	}
	return &Store{path: opts.Path, table: table, busy: busy, now: time.Now}, nil
}

var _ contract.Sink = (*Store)(nil)

// Append 插入一行；Row 为 LastInsertId。
func (s *Store) Append(ctx context.Context, id contract.ContractID, rec contract.TargetRecord) (contract.AppendResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return contract.AppendResult{}, err
	}
	if err := s.openLocked(ctx); err != nil {
		return contract.AppendResult{}, err
	}

	row := Row{ContractID: string(id), CreatedAt: s.now().UTC().Format(time.RFC3339)}
	fields := map[contract.TargetColumn]*sql.NullString{
		contract.JobNameSlot:       &row.JobName,
		contract.GcNameSlot:        &row.GcName,
		contract.StateSlot:         &row.State,
		contract.AddressSlot:       &row.Address,
		contract.ArchitectSlot:     &row.Architect,
		contract.ContractPriceSlot: &row.ContractPrice,
		contract.RetainageSlot:     &row.Retainage,
		contract.DateAwardedSlot:   &row.DateAwarded,
	}
	cols := rec.Columns()
	for _, c := range cols {
		v := rec[c]
		text := v.Text()
		if v.IsDate() {
			text = v.ISODate()
		}
		*fields[c] = sql.NullString{String: text, Valid: true}
	}
	if v, ok := rec[contract.DateAwardedSlot]; ok {
		row.DateAwardedKind = sql.NullString{String: v.Kind().String(), Valid: true}
	}

	res, err := s.db.NamedExecContext(ctx, s.insertSQL(), row)
	if err != nil {
		return contract.AppendResult{}, fmt.Errorf("insert %s: %w", s.table, err)
	}
	last, err := res.LastInsertId()
	if err != nil {
		return contract.AppendResult{}, err
	}
	return contract.AppendResult{Row: int(last), Columns: cols}, nil
}

// Close 释放数据库连接；未打开时为 no-op。
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) openLocked(ctx context.Context) error {
	if s.db != nil {
		return nil
	}
	abs, err := filepath.Abs(s.path)
	if err != nil {
		return fmt.Errorf("resolve sqlite path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)", abs, s.busy)
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping sqlite: %w", err)
	}
	if err := migrate(ctx, db, s.table); err != nil {
		_ = db.Close()
		return err
	}
	s.db = db
	return nil
}

func migrate(ctx context.Context, db *sqlx.DB, table string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", table)
	b.WriteString("  id INTEGER PRIMARY KEY AUTOINCREMENT,\n")
	b.WriteString("  contract_id TEXT NOT NULL,\n")
	for _, c := range contract.AllColumns() {
		fmt.Fprintf(&b, "  %s TEXT,\n", slotColumns[c])
	}
	b.WriteString("  date_awarded_kind TEXT,\n")
	b.WriteString("  created_at TEXT NOT NULL\n)")
	if _, err := db.ExecContext(ctx, b.String()); err != nil {
		return fmt.Errorf("migrate %s: %w", table, err)
	}
	return nil
}

func (s *Store) insertSQL() string {
	names := []string{"contract_id"}
	for _, c := range contract.AllColumns() {
		names = append(names, slotColumns[c])
	}
	names = append(names, "date_awarded_kind", "created_at")
	params := make([]string, len(names))
	for i, n := range names {
		params[i] = ":" + n
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", s.table, strings.Join(names, ", "), strings.Join(params, ", "))
}

// Rows 按插入顺序读取全部行。
func (s *Store) Rows(ctx context.Context) ([]Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.openLocked(ctx); err != nil {
		return nil, err
	}
	var out []Row
	q := fmt.Sprintf("SELECT id, contract_id, job_name, gc_name, state, address, architect, contract_price, retainage, date_awarded, date_awarded_kind, created_at FROM %s ORDER BY id", s.table)
	if err := s.db.SelectContext(ctx, &out, q); err != nil {
		return nil, err
	}
	return out, nil
}
