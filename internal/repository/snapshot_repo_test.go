package repository

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/chefwhisper/recipe-viewer/internal/models"
)

// jsonArrayOf matches an argument that decodes to the expected timer ids.
func jsonArrayOf(t *testing.T, wantIDs ...string) sqlmock.Argument {
	t.Helper()
	return sqlmockArgFunc(func(v driver.Value) bool {
		s, ok := v.(string)
		if !ok {
			return false
		}
		var snaps []models.Timer
		if err := json.Unmarshal([]byte(s), &snaps); err != nil {
			return false
		}
		if len(snaps) != len(wantIDs) {
			return false
		}
		for i, id := range wantIDs {
			if snaps[i].ID != id {
				return false
			}
		}
		return true
	})
}

type sqlmockArgFunc func(driver.Value) bool

func (f sqlmockArgFunc) Match(v driver.Value) bool { return f(v) }

func TestSnapshotSQLite_Save_UpsertsKeyedRecord(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := NewSnapshotSQLite(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timer_snapshots")).
		WithArgs("timers", jsonArrayOf(t, "a", "b"), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Save(ctx(t), []models.Timer{
		{ID: "a", Name: "Pasta", Duration: 600, RemainingTime: 600, Status: models.StatusIdle},
		{ID: "b", Name: "Eggs", Duration: 420, RemainingTime: 55, Status: models.StatusRunning},
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestSnapshotSQLite_Save_EmptySetWritesEmptyArray(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := NewSnapshotSQLite(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timer_snapshots")).
		WithArgs("timers", "[]", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Save(ctx(t), nil); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestSnapshotSQLite_Load_MissingRecordMeansEmptySet(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := NewSnapshotSQLite(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT payload FROM timer_snapshots")).
		WithArgs("timers").
		WillReturnError(sql.ErrNoRows)

	got, err := repo.Load(ctx(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil set, got %v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestSnapshotSQLite_Load_DecodesStoredArray(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := NewSnapshotSQLite(db)

	stored, _ := json.Marshal([]models.Timer{
		{ID: "a", Name: "Simmer sauce", Duration: 900, RemainingTime: 545,
			Status: models.StatusRunning, CreatedAt: time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)},
	})
	rows := sqlmock.NewRows([]string{"payload"}).AddRow(string(stored))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT payload FROM timer_snapshots")).
		WithArgs("timers").
		WillReturnRows(rows)

	got, err := repo.Load(ctx(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("want 1 snapshot, got %d", len(got))
	}
	if got[0].ID != "a" || got[0].RemainingTime != 545 || got[0].Status != models.StatusRunning {
		t.Fatalf("unexpected snapshot: %+v", got[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestSnapshotSQLite_Load_MalformedPayload(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := NewSnapshotSQLite(db)

	rows := sqlmock.NewRows([]string{"payload"}).AddRow("{not json")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT payload FROM timer_snapshots")).
		WithArgs("timers").
		WillReturnRows(rows)

	_, err = repo.Load(ctx(t))
	if err == nil || !strings.Contains(err.Error(), "decode") {
		t.Fatalf("expected decode error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}
