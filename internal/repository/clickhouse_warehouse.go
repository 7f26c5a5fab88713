package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"AlphaRefinery/internal/domain/models"
	domrepo "AlphaRefinery/internal/domain/repository"
	pkgch "AlphaRefinery/pkg/clickhouse"
	applogger "AlphaRefinery/pkg/logger"
)

const stockInfoTable = "stock_info"

// refinedColumns is the persisted column set of an enriched market table, in
// insert order. It mirrors models.RefinedRecord field for field.
var refinedColumns = []string{
	"trade_date", "symbol",
	"open", "high", "low", "close", "volume",
	"prev_close", "ret_day", "overnight_alpha", "vol_ma5", "vol_ratio",
	"limit_price", "is_limit_up", "is_limit_down", "is_anomaly",
	"prev_lu", "lu_type", "fail_type", "seq_lu_count",
	"volatility_10d", "volatility_20d", "volatility_50d",
	"drawdown_after_high_10d", "drawdown_after_high_20d", "drawdown_after_high_50d",
	"recovery_from_dd_10d",
	"ret_5d", "ret_20d", "ret_200d",
	"ret_week", "ret_month", "ret_year",
	"next_1d_max", "next_1d_min",
	"fwd_5d_max", "fwd_5d_min",
	"fwd_6_10d_max", "fwd_6_10d_min",
	"fwd_11_20d_max", "fwd_11_20d_min",
}

// CHWarehouse implements Warehouse backed by ClickHouse.
type CHWarehouse struct {
	db       *sql.DB
	database string
	l        *applogger.Logger
}

func NewCHWarehouse(ch *pkgch.Client) *CHWarehouse {
	return &CHWarehouse{db: ch.DB(), database: ch.Database()}
}

// SetLogger injects a structured logger.
func (w *CHWarehouse) SetLogger(l *applogger.Logger) { w.l = l }

// RefinedTable returns the enriched table name for a market.
func RefinedTable(market string) string {
	return "cleaned_daily_base_" + strings.ToLower(market)
}

func (w *CHWarehouse) ListTables(ctx context.Context) ([]string, error) {
	rows, err := w.db.QueryContext(ctx, "SHOW TABLES FROM "+safeIdent(w.database))
	if err != nil {
		return nil, fmt.Errorf("show tables: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// ReadRaw streams every row of a raw table without assuming its column
// layout; raw vendor dumps carry localized headers the normalizer resolves.
func (w *CHWarehouse) ReadRaw(ctx context.Context, table string) ([]domrepo.RawRow, error) {
	start := time.Now()
	rows, err := w.db.QueryContext(ctx, "SELECT * FROM "+safeIdent(table))
	if err != nil {
		if w.l != nil {
			w.l.Error("clickhouse read_raw query error",
				applogger.String("table", table),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("read raw %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns of %s: %w", table, err)
	}

	out := make([]domrepo.RawRow, 0, 4096)
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan raw row of %s: %w", table, err)
		}
		row := make(domrepo.RawRow, len(cols))
		for i, c := range cols {
			row[c] = vals[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows of %s: %w", table, err)
	}
	if w.l != nil {
		w.l.Info("clickhouse read_raw ok",
			applogger.String("table", table),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (w *CHWarehouse) ReadStockInfo(ctx context.Context) (map[string]models.StockInfo, error) {
	tables, err := w.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	if !contains(tables, stockInfoTable) {
		return map[string]models.StockInfo{}, nil
	}

	rows, err := w.db.QueryContext(ctx,
		"SELECT symbol, name, sector, board FROM "+stockInfoTable)
	if err != nil {
		return nil, fmt.Errorf("read stock_info: %w", err)
	}
	defer rows.Close()

	out := make(map[string]models.StockInfo, 2048)
	for rows.Next() {
		var si models.StockInfo
		if err := rows.Scan(&si.Symbol, &si.Name, &si.Sector, &si.Board); err != nil {
			return nil, fmt.Errorf("scan stock_info: %w", err)
		}
		si.Board = models.NormalizeBoard(si.Board)
		out[si.Symbol] = si
	}
	return out, rows.Err()
}

// ReplaceRefined rebuilds the market's enriched table wholesale. Records are
// inserted into a staging table first and swapped in atomically, so readers
// never observe a half-written table and a failed run leaves the previous
// result intact.
func (w *CHWarehouse) ReplaceRefined(ctx context.Context, market string, recs []models.RefinedRecord) error {
	start := time.Now()
	target := RefinedTable(market)
	staging := target + "_staging"

	if _, err := w.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+staging); err != nil {
		return fmt.Errorf("drop stale staging: %w", err)
	}
	if _, err := w.db.ExecContext(ctx, refinedDDL(staging)); err != nil {
		return fmt.Errorf("create staging: %w", err)
	}

	if err := w.insertRefined(ctx, staging, recs); err != nil {
		_, _ = w.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+staging)
		return err
	}

	tables, err := w.ListTables(ctx)
	if err != nil {
		return err
	}
	if contains(tables, target) {
		if _, err := w.db.ExecContext(ctx,
			fmt.Sprintf("EXCHANGE TABLES %s AND %s", staging, target)); err != nil {
			return fmt.Errorf("exchange tables: %w", err)
		}
		if _, err := w.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+staging); err != nil {
			return fmt.Errorf("drop replaced table: %w", err)
		}
	} else {
		if _, err := w.db.ExecContext(ctx,
			fmt.Sprintf("RENAME TABLE %s TO %s", staging, target)); err != nil {
			return fmt.Errorf("rename staging: %w", err)
		}
	}

	if w.l != nil {
		w.l.Info("clickhouse replace_refined ok",
			applogger.String("market", market),
			applogger.String("table", target),
			applogger.Int("rows", len(recs)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func (w *CHWarehouse) insertRefined(ctx context.Context, table string, recs []models.RefinedRecord) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table,
		strings.Join(refinedColumns, ", "),
		placeholders(len(refinedColumns)),
	)
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range recs {
		if _, err := stmt.ExecContext(ctx, refinedArgs(&recs[i])...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert row %s/%s: %w",
				recs[i].Symbol, recs[i].Date.Format("2006-01-02"), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert: %w", err)
	}
	return nil
}

func (w *CHWarehouse) QueryRefined(ctx context.Context, market, symbol string, from, to time.Time) ([]models.RefinedRecord, error) {
	q := fmt.Sprintf(`
        SELECT %s
        FROM %s
        WHERE symbol = ? AND trade_date >= ? AND trade_date <= ?
        ORDER BY trade_date ASC
    `, strings.Join(refinedColumns, ", "), RefinedTable(market))

	rows, err := w.db.QueryContext(ctx, q, symbol, from, to)
	if err != nil {
		return nil, fmt.Errorf("query refined: %w", err)
	}
	defer rows.Close()

	out := make([]models.RefinedRecord, 0, 256)
	for rows.Next() {
		rec, err := scanRefined(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (w *CHWarehouse) LatestTradeDate(ctx context.Context, market string) (time.Time, bool, error) {
	var (
		d time.Time
		n uint64
	)
	q := fmt.Sprintf("SELECT max(trade_date), count() FROM %s", RefinedTable(market))
	if err := w.db.QueryRowContext(ctx, q).Scan(&d, &n); err != nil {
		return time.Time{}, false, fmt.Errorf("latest trade date: %w", err)
	}
	if n == 0 {
		return time.Time{}, false, nil
	}
	return d, true, nil
}

func (w *CHWarehouse) LimitUpOn(ctx context.Context, market string, date time.Time) ([]models.LimitUpEntry, error) {
	tables, err := w.ListTables(ctx)
	if err != nil {
		return nil, err
	}

	table := RefinedTable(market)
	var q string
	if contains(tables, stockInfoTable) {
		q = fmt.Sprintf(`
            SELECT r.symbol, coalesce(s.name, ''), coalesce(s.sector, ''),
                   r.trade_date, r.close, r.ret_day, r.seq_lu_count
            FROM %s AS r
            LEFT JOIN %s AS s ON r.symbol = s.symbol
            WHERE r.trade_date = ? AND r.is_limit_up = 1
            ORDER BY r.seq_lu_count DESC, r.symbol ASC
        `, table, stockInfoTable)
	} else {
		q = fmt.Sprintf(`
            SELECT symbol, '' AS name, '' AS sector,
                   trade_date, close, ret_day, seq_lu_count
            FROM %s
            WHERE trade_date = ? AND is_limit_up = 1
            ORDER BY seq_lu_count DESC, symbol ASC
        `, table)
	}

	rows, err := w.db.QueryContext(ctx, q, date)
	if err != nil {
		return nil, fmt.Errorf("limit-up board: %w", err)
	}
	defer rows.Close()

	out := make([]models.LimitUpEntry, 0, 64)
	for rows.Next() {
		var (
			e   models.LimitUpEntry
			ret sql.NullFloat64
		)
		if err := rows.Scan(&e.Symbol, &e.Name, &e.Sector, &e.Date, &e.Close, &ret, &e.SeqLUCount); err != nil {
			return nil, fmt.Errorf("scan limit-up entry: %w", err)
		}
		if ret.Valid {
			e.RetDay = ret.Float64
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (w *CHWarehouse) SymbolStats(ctx context.Context, market, symbol string) (models.SymbolStats, error) {
	q := fmt.Sprintf(`
        SELECT count(),
               countIf(is_limit_up = 1),
               avgIf(overnight_alpha, prev_lu = 1),
               avgIf(next_1d_max, prev_lu = 1)
        FROM %s
        WHERE symbol = ?
    `, RefinedTable(market))

	var (
		stats     models.SymbolStats
		total     uint64
		lus       uint64
		overnight sql.NullFloat64
		nextMax   sql.NullFloat64
	)
	if err := w.db.QueryRowContext(ctx, q, symbol).Scan(&total, &lus, &overnight, &nextMax); err != nil {
		return models.SymbolStats{}, fmt.Errorf("symbol stats: %w", err)
	}
	stats.Symbol = symbol
	stats.Total = int(total)
	stats.LimitUps = int(lus)
	if overnight.Valid {
		stats.AvgOvernight = overnight.Float64
	}
	if nextMax.Valid {
		stats.AvgNext1DMax = nextMax.Float64
	}
	return stats, nil
}

func (w *CHWarehouse) Health(ctx context.Context) error { return w.db.PingContext(ctx) }

func (w *CHWarehouse) Close() error { return nil }

func refinedDDL(table string) string {
	return fmt.Sprintf(`
        CREATE TABLE %s (
            trade_date Date,
            symbol String,
            open Float64,
            high Float64,
            low Float64,
            close Float64,
            volume Float64,
            prev_close Nullable(Float64),
            ret_day Nullable(Float64),
            overnight_alpha Nullable(Float64),
            vol_ma5 Nullable(Float64),
            vol_ratio Nullable(Float64),
            limit_price Nullable(Float64),
            is_limit_up UInt8,
            is_limit_down UInt8,
            is_anomaly UInt8,
            prev_lu UInt8,
            lu_type Int32,
            fail_type Int32,
            seq_lu_count Int32,
            volatility_10d Nullable(Float64),
            volatility_20d Nullable(Float64),
            volatility_50d Nullable(Float64),
            drawdown_after_high_10d Nullable(Float64),
            drawdown_after_high_20d Nullable(Float64),
            drawdown_after_high_50d Nullable(Float64),
            recovery_from_dd_10d Nullable(Float64),
            ret_5d Nullable(Float64),
            ret_20d Nullable(Float64),
            ret_200d Nullable(Float64),
            ret_week Nullable(Float64),
            ret_month Nullable(Float64),
            ret_year Nullable(Float64),
            next_1d_max Nullable(Float64),
            next_1d_min Nullable(Float64),
            fwd_5d_max Nullable(Float64),
            fwd_5d_min Nullable(Float64),
            fwd_6_10d_max Nullable(Float64),
            fwd_6_10d_min Nullable(Float64),
            fwd_11_20d_max Nullable(Float64),
            fwd_11_20d_min Nullable(Float64)
        ) ENGINE = MergeTree
        ORDER BY (symbol, trade_date)
    `, table)
}

func refinedArgs(r *models.RefinedRecord) []any {
	return []any{
		r.Date, r.Symbol,
		r.Open, r.High, r.Low, r.Close, r.Volume,
		nullable(r.PrevClose), nullable(r.RetDay), nullable(r.OvernightAlpha),
		nullable(r.VolMA5), nullable(r.VolRatio),
		nullable(r.LimitPrice),
		boolU8(r.IsLimitUp), boolU8(r.IsLimitDown), boolU8(r.IsAnomaly), boolU8(r.PrevLU),
		int32(r.LUType), int32(r.FailType), int32(r.SeqLUCount),
		nullable(r.Volatility10D), nullable(r.Volatility20D), nullable(r.Volatility50D),
		nullable(r.DrawdownHigh10), nullable(r.DrawdownHigh20), nullable(r.DrawdownHigh50),
		nullable(r.RecoveryLow10),
		nullable(r.Ret5D), nullable(r.Ret20D), nullable(r.Ret200D),
		nullable(r.RetWeek), nullable(r.RetMonth), nullable(r.RetYear),
		nullable(r.Next1DMax), nullable(r.Next1DMin),
		nullable(r.Fwd5DMax), nullable(r.Fwd5DMin),
		nullable(r.Fwd610DMax), nullable(r.Fwd610DMin),
		nullable(r.Fwd1120Max), nullable(r.Fwd1120Min),
	}
}

func scanRefined(rows *sql.Rows) (models.RefinedRecord, error) {
	var (
		r    models.RefinedRecord
		lu   uint8
		ld   uint8
		an   uint8
		plu  uint8
		lut  int32
		ft   int32
		seq  int32
		nf   [27]sql.NullFloat64
		take = 0
	)
	next := func() *sql.NullFloat64 {
		p := &nf[take]
		take++
		return p
	}
	dst := []any{
		&r.Date, &r.Symbol,
		&r.Open, &r.High, &r.Low, &r.Close, &r.Volume,
		next(), next(), next(), next(), next(), // prev_close .. vol_ratio
		next(),                 // limit_price
		&lu, &ld, &an, &plu,
		&lut, &ft, &seq,
		next(), next(), next(), // volatility
		next(), next(), next(), // drawdown
		next(),                 // recovery
		next(), next(), next(), // trailing returns
		next(), next(), next(), // period returns
		next(), next(), // next 1d
		next(), next(), // fwd 5d
		next(), next(), // fwd 6-10d
		next(), next(), // fwd 11-20d
	}
	if err := rows.Scan(dst...); err != nil {
		return r, fmt.Errorf("scan refined row: %w", err)
	}

	r.IsLimitUp, r.IsLimitDown = lu != 0, ld != 0
	r.IsAnomaly, r.PrevLU = an != 0, plu != 0
	r.LUType, r.FailType, r.SeqLUCount = int(lut), int(ft), int(seq)

	fs := []*float64{
		&r.PrevClose, &r.RetDay, &r.OvernightAlpha, &r.VolMA5, &r.VolRatio,
		&r.LimitPrice,
		&r.Volatility10D, &r.Volatility20D, &r.Volatility50D,
		&r.DrawdownHigh10, &r.DrawdownHigh20, &r.DrawdownHigh50,
		&r.RecoveryLow10,
		&r.Ret5D, &r.Ret20D, &r.Ret200D,
		&r.RetWeek, &r.RetMonth, &r.RetYear,
		&r.Next1DMax, &r.Next1DMin,
		&r.Fwd5DMax, &r.Fwd5DMin,
		&r.Fwd610DMax, &r.Fwd610DMin,
		&r.Fwd1120Max, &r.Fwd1120Min,
	}
	for i, f := range fs {
		if nf[i].Valid {
			*f = nf[i].Float64
		} else {
			*f = models.Absent()
		}
	}
	return r, nil
}

func nullable(f float64) any {
	if models.IsAbsent(f) {
		return nil
	}
	return f
}

func boolU8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

func placeholders(n int) string {
	return strings.Repeat("?, ", n-1) + "?"
}

// safeIdent guards interpolated identifiers; table names come from SHOW
// TABLES or config, never request input, but a quote here is still a bug.
func safeIdent(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r == '_' || r == '.' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
