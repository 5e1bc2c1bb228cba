package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"dispatchboard/internal/model"
)

// Pool is the subset of *pgxpool.Pool the store uses. pgxmock pools satisfy it.
type Pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `mapstructure:"max_conns"`
	MinConns int32 `mapstructure:"min_conns"`
}

// Postgres implements Store on a pgx connection pool.
type Postgres struct {
	pool Pool
}

// NewPostgres connects, pings and returns a Postgres store.
func NewPostgres(ctx context.Context, dsn string, poolCfg PoolConfig) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	if poolCfg.MaxConns > 0 {
		cfg.MaxConns = poolCfg.MaxConns
	}
	if poolCfg.MinConns > 0 {
		cfg.MinConns = poolCfg.MinConns
	}
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Close() { p.pool.Close() }

const schema = `
CREATE TABLE IF NOT EXISTS load_imports (
	id          TEXT PRIMARY KEY,
	created     INTEGER NOT NULL DEFAULT 0,
	updated     INTEGER NOT NULL DEFAULT 0,
	imported_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS loads (
	id                   TEXT PRIMARY KEY,
	import_id            TEXT REFERENCES load_imports(id),
	driver               TEXT,
	dispatcher           TEXT,
	team                 TEXT,
	company_name         TEXT,
	pu_date              DATE,
	pu_time              TEXT,
	do_date              DATE,
	do_time              TEXT,
	pu_location          TEXT,
	do_location          TEXT,
	start_location_city  TEXT,
	start_location_state TEXT,
	pu_latitude          DOUBLE PRECISION,
	pu_longitude         DOUBLE PRECISION,
	do_latitude          DOUBLE PRECISION,
	do_longitude         DOUBLE PRECISION,
	price                DOUBLE PRECISION,
	trip_miles           DOUBLE PRECISION,
	deadhead_miles       DOUBLE PRECISION,
	rpm_all              DOUBLE PRECISION,
	status               TEXT,
	contract_type        TEXT
);

CREATE INDEX IF NOT EXISTS idx_loads_pu_date ON loads(pu_date);
CREATE INDEX IF NOT EXISTS idx_loads_driver ON loads(lower(driver));
`

// Migrate creates the tables if they do not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, schema)
	return eris.Wrap(err, "postgres: migrate")
}

func (p *Postgres) Ping(ctx context.Context) error {
	return eris.Wrap(p.pool.Ping(ctx), "postgres: ping")
}

// Nullable columns are coalesced so rows scan into plain Go types. Missing
// coordinates come back as NaN and decode to invalid coordinates.
const selectLoads = `SELECT id,
	COALESCE(driver, ''), COALESCE(dispatcher, ''), COALESCE(team, ''), COALESCE(company_name, ''),
	COALESCE(to_char(pu_date, 'YYYY-MM-DD'), ''), COALESCE(pu_time, ''),
	COALESCE(to_char(do_date, 'YYYY-MM-DD'), ''), COALESCE(do_time, ''),
	COALESCE(pu_location, ''), COALESCE(do_location, ''),
	COALESCE(start_location_city, ''), COALESCE(start_location_state, ''),
	COALESCE(pu_latitude, 'NaN'), COALESCE(pu_longitude, 'NaN'),
	COALESCE(do_latitude, 'NaN'), COALESCE(do_longitude, 'NaN'),
	COALESCE(price, 0), COALESCE(trip_miles, 0), COALESCE(deadhead_miles, 0), COALESCE(rpm_all, 0),
	COALESCE(status, ''), COALESCE(contract_type, '')
FROM loads`

func scanLoad(row pgx.Row) (model.Load, error) {
	var (
		l                             model.Load
		id                            string
		puLat, puLon, doLat, doLon    float64
		price, trip, deadhead, rpmAll float64
	)
	err := row.Scan(&id,
		&l.Driver, &l.Dispatcher, &l.Team, &l.CompanyName,
		&l.PuDate, &l.PuTime, &l.DoDate, &l.DoTime,
		&l.PuLocation, &l.DoLocation, &l.StartLocationCity, &l.StartLocationState,
		&puLat, &puLon, &doLat, &doLon,
		&price, &trip, &deadhead, &rpmAll,
		&l.Status, &l.ContractType)
	if err != nil {
		return model.Load{}, err
	}
	l.ID = model.LoadID(id)
	l.PuLatitude, l.PuLongitude = model.NewCoord(puLat), model.NewCoord(puLon)
	l.DoLatitude, l.DoLongitude = model.NewCoord(doLat), model.NewCoord(doLon)
	l.Price, l.TripMiles = model.Number(price), model.Number(trip)
	l.DeadheadMiles, l.RPMAll = model.Number(deadhead), model.Number(rpmAll)
	return l, nil
}

func (p *Postgres) ListLoads(ctx context.Context, f LoadFilter) ([]model.Load, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if !f.From.IsZero() {
		add("pu_date >= $%d", civil(f.From))
	}
	if !f.To.IsZero() {
		add("pu_date <= $%d", civil(f.To))
	}
	if f.Driver != "" {
		add("lower(driver) = lower($%d)", f.Driver)
	}
	if f.Dispatcher != "" {
		add("lower(dispatcher) = lower($%d)", f.Dispatcher)
	}
	if f.Team != "" {
		add("lower(team) = lower($%d)", f.Team)
	}
	q := selectLoads
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY pu_date NULLS LAST, pu_time, id"

	rows, err := p.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list loads")
	}
	defer rows.Close()
	out := []model.Load{}
	for rows.Next() {
		l, err := scanLoad(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan load")
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: list loads")
	}
	// pu_time is free text; re-sort on the parsed clock.
	sortByPickup(out)
	return out, nil
}

func (p *Postgres) GetLoad(ctx context.Context, id model.LoadID) (model.Load, error) {
	l, err := scanLoad(p.pool.QueryRow(ctx, selectLoads+" WHERE id = $1", string(id)))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Load{}, ErrNotFound
	}
	if err != nil {
		return model.Load{}, eris.Wrapf(err, "postgres: get load %s", id)
	}
	return l, nil
}

const upsertLoad = `INSERT INTO loads (
	id, import_id, driver, dispatcher, team, company_name,
	pu_date, pu_time, do_date, do_time, pu_location, do_location,
	start_location_city, start_location_state,
	pu_latitude, pu_longitude, do_latitude, do_longitude,
	price, trip_miles, deadhead_miles, rpm_all, status, contract_type
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24)
ON CONFLICT (id) DO UPDATE SET
	import_id = EXCLUDED.import_id, driver = EXCLUDED.driver, dispatcher = EXCLUDED.dispatcher,
	team = EXCLUDED.team, company_name = EXCLUDED.company_name,
	pu_date = EXCLUDED.pu_date, pu_time = EXCLUDED.pu_time,
	do_date = EXCLUDED.do_date, do_time = EXCLUDED.do_time,
	pu_location = EXCLUDED.pu_location, do_location = EXCLUDED.do_location,
	start_location_city = EXCLUDED.start_location_city, start_location_state = EXCLUDED.start_location_state,
	pu_latitude = EXCLUDED.pu_latitude, pu_longitude = EXCLUDED.pu_longitude,
	do_latitude = EXCLUDED.do_latitude, do_longitude = EXCLUDED.do_longitude,
	price = EXCLUDED.price, trip_miles = EXCLUDED.trip_miles,
	deadhead_miles = EXCLUDED.deadhead_miles, rpm_all = EXCLUDED.rpm_all,
	status = EXCLUDED.status, contract_type = EXCLUDED.contract_type
RETURNING (xmax = 0)`

// ImportLoads upserts the batch in one transaction and records it in
// load_imports.
func (p *Postgres) ImportLoads(ctx context.Context, loads []model.Load) (ImportResult, error) {
	res := ImportResult{ImportID: uuid.New().String()}
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return ImportResult{}, eris.Wrap(err, "postgres: begin import")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `INSERT INTO load_imports (id) VALUES ($1)`, res.ImportID); err != nil {
		return ImportResult{}, eris.Wrap(err, "postgres: insert import")
	}
	for _, l := range loads {
		if l.ID == "" {
			l.ID = model.LoadID(uuid.New().String())
		}
		var inserted bool
		if err := tx.QueryRow(ctx, upsertLoad, loadArgs(l, res.ImportID)...).Scan(&inserted); err != nil {
			return ImportResult{}, eris.Wrapf(err, "postgres: upsert load %s", l.ID)
		}
		if inserted {
			res.Created++
		} else {
			res.Updated++
		}
	}
	if _, err := tx.Exec(ctx, `UPDATE load_imports SET created = $1, updated = $2 WHERE id = $3`,
		res.Created, res.Updated, res.ImportID); err != nil {
		return ImportResult{}, eris.Wrap(err, "postgres: finish import")
	}
	if err := tx.Commit(ctx); err != nil {
		return ImportResult{}, eris.Wrap(err, "postgres: commit import")
	}
	zap.L().Info("postgres: imported loads",
		zap.String("import_id", res.ImportID),
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated),
	)
	return res, nil
}

func loadArgs(l model.Load, importID string) []any {
	return []any{
		string(l.ID), importID,
		nullIfEmpty(l.Driver), nullIfEmpty(l.Dispatcher), nullIfEmpty(l.Team), nullIfEmpty(l.CompanyName),
		// pu_date is a DATE column; the clock carried inside the date string lives on in pu_time
		nullDate(l.PuDate), nullIfEmpty(model.ClockPart(l.PuTime, l.PuDate)),
		nullDate(l.DoDate), nullIfEmpty(model.ClockPart(l.DoTime, l.DoDate)),
		nullIfEmpty(l.PuLocation), nullIfEmpty(l.DoLocation),
		nullIfEmpty(l.StartLocationCity), nullIfEmpty(l.StartLocationState),
		nullCoord(l.PuLatitude), nullCoord(l.PuLongitude), nullCoord(l.DoLatitude), nullCoord(l.DoLongitude),
		float64(l.Price), float64(l.TripMiles), float64(l.DeadheadMiles), float64(l.RPMAll),
		nullIfEmpty(l.Status), nullIfEmpty(l.ContractType),
	}
}

func nullIfEmpty(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func nullDate(s string) any {
	d, ok := model.ParseDate(s)
	if !ok {
		return nil
	}
	return d
}

func nullCoord(c model.Coord) any {
	if !c.Valid || math.IsNaN(c.Deg) {
		return nil
	}
	return c.Deg
}
