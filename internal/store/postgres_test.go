package store

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispatchboard/internal/model"
)

func newMockPostgres(t *testing.T) (*Postgres, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	return &Postgres{pool: mock}, mock
}

var loadColumns = []string{
	"id", "driver", "dispatcher", "team", "company_name",
	"pu_date", "pu_time", "do_date", "do_time",
	"pu_location", "do_location", "start_location_city", "start_location_state",
	"pu_latitude", "pu_longitude", "do_latitude", "do_longitude",
	"price", "trip_miles", "deadhead_miles", "rpm_all",
	"status", "contract_type",
}

func loadRow(id, driver, puDate, puTime string, puLat float64) []any {
	return []any{
		id, driver, "Jo", "Red", "Acme",
		puDate, puTime, "2024-06-04", "",
		"Dallas, TX", "Atlanta, GA", "Dallas", "TX",
		puLat, -96.8, math.NaN(), -84.4,
		1500.0, 750.0, 20.0, 0.0,
		"Billed", "OO",
	}
}

func TestPostgresListLoadsBuildsFilter(t *testing.T) {
	p, mock := newMockPostgres(t)
	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	rows := pgxmock.NewRows(loadColumns).
		AddRow(loadRow("2", "Ann", "2024-06-03", "14:00", 32.7)...).
		AddRow(loadRow("1", "Ann", "2024-06-03", "09:00", 32.7)...)
	mock.ExpectQuery(`FROM loads WHERE pu_date >= \$1 AND lower\(driver\) = lower\(\$2\) ORDER BY`).
		WithArgs(from, "Ann").
		WillReturnRows(rows)

	got, err := p.ListLoads(context.Background(), LoadFilter{From: from, Driver: "Ann"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, model.LoadID("1"), got[0].ID, "re-sorted on parsed pickup time")

	l := got[1]
	assert.Equal(t, "Dallas, TX", l.PuLocation)
	assert.True(t, l.PuLatitude.Valid)
	assert.False(t, l.DoLatitude.Valid, "NaN sentinel decodes as missing")
	assert.InDelta(t, 2.0, l.RPM(), 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListLoadsQueryError(t *testing.T) {
	p, mock := newMockPostgres(t)
	mock.ExpectQuery(`FROM loads ORDER BY`).WillReturnError(errors.New("boom"))

	_, err := p.ListLoads(context.Background(), LoadFilter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list loads")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetLoadNotFound(t *testing.T) {
	p, mock := newMockPostgres(t)
	mock.ExpectQuery(`FROM loads WHERE id = \$1`).
		WithArgs("L-9").
		WillReturnError(pgx.ErrNoRows)

	_, err := p.GetLoad(context.Background(), "L-9")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresImportLoads(t *testing.T) {
	p, mock := newMockPostgres(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO load_imports`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(`INSERT INTO loads`).
		WillReturnRows(pgxmock.NewRows([]string{"inserted"}).AddRow(true))
	mock.ExpectQuery(`INSERT INTO loads`).
		WillReturnRows(pgxmock.NewRows([]string{"inserted"}).AddRow(false))
	mock.ExpectExec(`UPDATE load_imports SET created`).
		WithArgs(1, 1, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	res, err := p.ImportLoads(context.Background(), []model.Load{
		{ID: "1", Driver: "Ann", PuDate: "6/3/2024"},
		{Driver: "Bob"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Updated)
	assert.NotEmpty(t, res.ImportID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresImportKeepsClockFromDate(t *testing.T) {
	p, mock := newMockPostgres(t)
	day := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO load_imports`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(`INSERT INTO loads`).
		WithArgs("b", pgxmock.AnyArg(),
			"Ann", nil, nil, nil,
			day, "06:00:00", day, "18:30",
			nil, nil, nil, nil,
			nil, nil, nil, nil,
			0.0, 0.0, 0.0, 0.0,
			nil, nil).
		WillReturnRows(pgxmock.NewRows([]string{"inserted"}).AddRow(true))
	mock.ExpectExec(`UPDATE load_imports SET created`).
		WithArgs(1, 0, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	_, err := p.ImportLoads(context.Background(), []model.Load{
		{ID: "b", Driver: "Ann", PuDate: "2024-06-03T06:00:00", DoDate: "2024-06-03 18:30"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresImportBeginError(t *testing.T) {
	p, mock := newMockPostgres(t)
	mock.ExpectBegin().WillReturnError(errors.New("db down"))

	_, err := p.ImportLoads(context.Background(), []model.Load{{ID: "1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin import")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMigrateAndPing(t *testing.T) {
	p, mock := newMockPostgres(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS load_imports`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectPing()

	require.NoError(t, p.Migrate(context.Background()))
	require.NoError(t, p.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadArgsNullsMissingValues(t *testing.T) {
	args := loadArgs(model.Load{ID: "7", PuDate: "2024-06-03", PuLatitude: model.NewCoord(40)}, "imp")
	require.Len(t, args, 24)
	assert.Equal(t, "7", args[0])
	assert.Nil(t, args[2], "empty driver")
	assert.Equal(t, time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), args[6])
	assert.Nil(t, args[8], "missing do_date")
	assert.Equal(t, 40.0, args[14])
	assert.Nil(t, args[15])

	args = loadArgs(model.Load{ID: "8", PuDate: "2024-06-03T14:30:00", PuTime: " ", DoDate: "2024-06-04 07:15"}, "imp")
	assert.Equal(t, "14:30:00", args[7], "clock taken from the date string")
	assert.Equal(t, "07:15", args[9])

	args = loadArgs(model.Load{ID: "9", PuDate: "2024-06-03T14:30:00", PuTime: "16:00"}, "imp")
	assert.Equal(t, "16:00", args[7], "explicit time wins")
}
