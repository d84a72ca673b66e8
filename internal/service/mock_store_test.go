package service_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/zzenonn/ratepart/internal/domain"
	"github.com/zzenonn/ratepart/internal/placement"
	"github.com/zzenonn/ratepart/internal/service"
)

// mockStore is an in-memory Store. Tables are slices kept in insertion order,
// and a failed transaction restores the tables as they were before it began.
type mockStore struct {
	tables map[string][]domain.Rating

	migrateFunc func(ctx context.Context, table string) error
	insertFunc  func(table string, r domain.Rating) error

	txCount int
	locked  []string
}

func newMockStore() *mockStore {
	return &mockStore{tables: make(map[string][]domain.Rating)}
}

func (m *mockStore) InTx(ctx context.Context, fn func(service.Session) error) error {
	m.txCount++
	snapshot := make(map[string][]domain.Rating, len(m.tables))
	for name, rows := range m.tables {
		snapshot[name] = append([]domain.Rating(nil), rows...)
	}

	if err := fn(&mockSession{m: m}); err != nil {
		m.tables = snapshot
		return err
	}
	return nil
}

func (m *mockStore) MigrateDb(ctx context.Context, table string) error {
	if m.migrateFunc != nil {
		if err := m.migrateFunc(ctx, table); err != nil {
			return err
		}
	}
	if _, ok := m.tables[table]; !ok {
		m.tables[table] = nil
	}
	return nil
}

// seed creates table with rows.
func (m *mockStore) seed(table string, rows ...domain.Rating) {
	m.tables[table] = append(m.tables[table], rows...)
}

type mockSession struct {
	m *mockStore
}

func (s *mockSession) ListTables(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	for name := range s.m.tables {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *mockSession) CountTables(ctx context.Context, prefix string) (int, error) {
	names, err := s.ListTables(ctx, prefix)
	return len(names), err
}

func (s *mockSession) CountRows(ctx context.Context, table string) (int64, error) {
	rows, ok := s.m.tables[table]
	if !ok {
		return 0, fmt.Errorf("no such table: %s", table)
	}
	return int64(len(rows)), nil
}

func (s *mockSession) CreatePartitionTable(ctx context.Context, table string) error {
	if _, ok := s.m.tables[table]; ok {
		return fmt.Errorf("table %s already exists", table)
	}
	s.m.tables[table] = nil
	return nil
}

func (s *mockSession) DropTable(ctx context.Context, table string) error {
	delete(s.m.tables, table)
	return nil
}

func (s *mockSession) DropAll(ctx context.Context) ([]string, error) {
	names, _ := s.ListTables(ctx, "")
	for _, name := range names {
		delete(s.m.tables, name)
	}
	return names, nil
}

func (s *mockSession) LockTable(ctx context.Context, table string) error {
	if _, ok := s.m.tables[table]; !ok {
		return fmt.Errorf("no such table: %s", table)
	}
	s.m.locked = append(s.m.locked, table)
	return nil
}

func (s *mockSession) InsertRating(ctx context.Context, table string, r domain.Rating) error {
	if s.m.insertFunc != nil {
		if err := s.m.insertFunc(table, r); err != nil {
			return err
		}
	}
	if _, ok := s.m.tables[table]; !ok {
		return fmt.Errorf("no such table: %s", table)
	}
	s.m.tables[table] = append(s.m.tables[table], r)
	return nil
}

func (s *mockSession) BulkInsert(ctx context.Context, table string, src domain.RatingReader) (int64, error) {
	var n int64
	for {
		r, err := src.Read()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		if err := s.InsertRating(ctx, table, r); err != nil {
			return n, err
		}
		n++
	}
}

func (s *mockSession) CopyRange(ctx context.Context, src, dst string, iv placement.Interval) (int64, error) {
	var n int64
	for _, r := range s.m.tables[src] {
		if iv.Contains(r.Rating) {
			s.m.tables[dst] = append(s.m.tables[dst], r)
			n++
		}
	}
	return n, nil
}

func (s *mockSession) CopyRoundRobin(ctx context.Context, src, dst string, n, index int) (int64, error) {
	var copied int64
	for pos, r := range s.m.tables[src] {
		if pos%n == index {
			s.m.tables[dst] = append(s.m.tables[dst], r)
			copied++
		}
	}
	return copied, nil
}
