package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tifye/bungeoppang/assert"
	"github.com/tifye/bungeoppang/progress"
	"github.com/tifye/bungeoppang/shop"
)

// DayRecord is a stored day summary.
type DayRecord struct {
	ID         string       `json:"id"`
	Day        int          `json:"day"`
	FinishedAt time.Time    `json:"finishedAt"`
	Summary    shop.Summary `json:"summary"`
}

type storedSave struct {
	Slot         string    `db:"slot"`
	Day          int       `db:"day"`
	TotalRevenue int       `db:"total_revenue"`
	Upgrades     string    `db:"upgrades"`
	UpdatedAt    time.Time `db:"updated_at"`
}

type storedSummary struct {
	ID              string    `db:"id"`
	Slot            string    `db:"slot"`
	Day             int       `db:"day"`
	Revenue         int       `db:"revenue"`
	Goal            int       `db:"goal"`
	Success         bool      `db:"success"`
	UnitsSold       int       `db:"units_sold"`
	CustomersServed int       `db:"customers_served"`
	CustomersLost   int       `db:"customers_lost"`
	AvgSatisfaction int       `db:"avg_satisfaction"`
	MostPopular     string    `db:"most_popular"`
	FillingsSold    string    `db:"fillings_sold"`
	FinishedAt      time.Time `db:"finished_at"`
}

type SaveStore struct {
	db  DuckDB
	now func() time.Time
}

func NewSaveStore(db DuckDB) *SaveStore {
	assert.AssertNotNil(db)
	return &SaveStore{
		db:  db,
		now: time.Now,
	}
}

// LoadSnapshot reports false when the slot has never been saved.
func (s *SaveStore) LoadSnapshot(ctx context.Context, slot string) (progress.Snapshot, bool, error) {
	assert.AssertNotEmpty(slot)

	query := `
	select slot, day, total_revenue, upgrades, updated_at
	from saves
	where slot = ?
	`
	var row storedSave
	err := s.db.GetContext(ctx, &row, query, slot)
	if errors.Is(err, sql.ErrNoRows) {
		return progress.Snapshot{}, false, nil
	}
	if err != nil {
		return progress.Snapshot{}, false, err
	}

	snap := progress.Snapshot{
		CurrentDay:        row.Day,
		CumulativeRevenue: row.TotalRevenue,
	}
	if err := json.Unmarshal([]byte(row.Upgrades), &snap.Upgrades); err != nil {
		return progress.Snapshot{}, false, fmt.Errorf("decode upgrades: %s", err)
	}
	return snap, true, nil
}

func (s *SaveStore) SaveSnapshot(ctx context.Context, slot string, snap progress.Snapshot) error {
	assert.AssertNotEmpty(slot)

	upgrades, err := json.Marshal(snap.Upgrades)
	if err != nil {
		return fmt.Errorf("encode upgrades: %s", err)
	}

	query := `
	insert or replace into saves (
		slot,
		day,
		total_revenue,
		upgrades,
		updated_at
	)
	values (?,?,?,?,?)
	`
	_, err = s.db.ExecContext(
		ctx, query,
		slot,
		snap.CurrentDay,
		snap.CumulativeRevenue,
		string(upgrades),
		s.now(),
	)
	return err
}

// DeleteSlot removes the save and the day history of slot.
func (s *SaveStore) DeleteSlot(ctx context.Context, slot string) error {
	assert.AssertNotEmpty(slot)

	if _, err := s.db.ExecContext(ctx, `delete from saves where slot = ?`, slot); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `delete from day_summaries where slot = ?`, slot)
	return err
}

func (s *SaveStore) AppendSummary(ctx context.Context, slot string, day int, sum shop.Summary) (DayRecord, error) {
	assert.AssertNotEmpty(slot)

	fillings, err := json.Marshal(sum.FillingsSold)
	if err != nil {
		return DayRecord{}, fmt.Errorf("encode fillings: %s", err)
	}

	rec := DayRecord{
		ID:         uuid.New().String(),
		Day:        day,
		FinishedAt: s.now().UTC().Truncate(time.Microsecond),
		Summary:    sum,
	}

	query := `
	insert into day_summaries (
		id,
		slot,
		day,
		revenue,
		goal,
		success,
		units_sold,
		customers_served,
		customers_lost,
		avg_satisfaction,
		most_popular,
		fillings_sold,
		finished_at
	)
	values (?,?,?,?,?,?,?,?,?,?,?,?,?)
	`
	_, err = s.db.ExecContext(
		ctx, query,
		rec.ID,
		slot,
		day,
		sum.Revenue,
		sum.Goal,
		sum.Success,
		sum.UnitsSold,
		sum.CustomersServed,
		sum.CustomersLost,
		sum.AvgSatisfactionPercent,
		sum.MostPopularFilling.String(),
		string(fillings),
		rec.FinishedAt,
	)
	if err != nil {
		return DayRecord{}, err
	}
	return rec, nil
}

// MaxSummaryLimit is the most day records a single Summaries call returns.
const MaxSummaryLimit = 999

// Summaries returns the newest day records of slot first.
func (s *SaveStore) Summaries(ctx context.Context, slot string, limit uint) ([]DayRecord, error) {
	assert.AssertNotEmpty(slot)
	assert.Assert(limit <= MaxSummaryLimit, "limit too large")

	query := `
	select *
	from day_summaries
	where slot = ?
	order by finished_at desc, day desc
	limit ?
	`
	var rows []storedSummary
	if err := s.db.SelectContext(ctx, &rows, query, slot, limit); err != nil {
		return nil, err
	}

	records := make([]DayRecord, len(rows))
	for i, row := range rows {
		rec, err := row.record()
		if err != nil {
			return nil, fmt.Errorf("decode summary %s: %s", row.ID, err)
		}
		records[i] = rec
	}
	return records, nil
}

func (row storedSummary) record() (DayRecord, error) {
	sum := shop.Summary{
		Revenue:                row.Revenue,
		Goal:                   row.Goal,
		Success:                row.Success,
		UnitsSold:              row.UnitsSold,
		CustomersServed:        row.CustomersServed,
		CustomersLost:          row.CustomersLost,
		AvgSatisfactionPercent: row.AvgSatisfaction,
	}
	if err := sum.MostPopularFilling.UnmarshalText([]byte(row.MostPopular)); err != nil {
		return DayRecord{}, err
	}
	if err := json.Unmarshal([]byte(row.FillingsSold), &sum.FillingsSold); err != nil {
		return DayRecord{}, err
	}
	return DayRecord{
		ID:         row.ID,
		Day:        row.Day,
		FinishedAt: row.FinishedAt,
		Summary:    sum,
	}, nil
}
