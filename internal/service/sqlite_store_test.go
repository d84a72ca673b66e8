package service_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zzenonn/ratepart/internal/config"
	apperrors "github.com/zzenonn/ratepart/internal/errors"
	"github.com/zzenonn/ratepart/internal/placement"
	"github.com/zzenonn/ratepart/internal/repository/db"
	"github.com/zzenonn/ratepart/internal/service"
)

func openSQLite(t *testing.T) *db.Database {
	t.Helper()
	d, err := db.Open(context.Background(), config.DriverSQLite, filepath.Join(t.TempDir(), "ratings.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

// ratingsFile renders rows in MovieLens format, one per half star, repeated.
func ratingsFile(repeat int) string {
	var sb strings.Builder
	for _, r := range halfStarRatings(repeat) {
		fmt.Fprintf(&sb, "%d::%d::%g::978300760\n", r.UserID, r.ItemID, r.Rating)
	}
	return sb.String()
}

// snapshot returns each partition's rows as sorted "user/item/rating" keys.
func snapshot(t *testing.T, d *db.Database, kind placement.Kind, n int) [][]string {
	t.Helper()
	parts := make([][]string, n)
	for i := 0; i < n; i++ {
		table := placement.TableName(kind.Prefix(), i)
		rows, err := d.Client.Query(`SELECT userid, itemid, rating FROM "` + table + `"`)
		require.NoError(t, err)
		for rows.Next() {
			var u, it int64
			var r float64
			require.NoError(t, rows.Scan(&u, &it, &r))
			parts[i] = append(parts[i], fmt.Sprintf("%d/%d/%g", u, it, r))
		}
		require.NoError(t, rows.Err())
		rows.Close()
		sort.Strings(parts[i])
	}
	return parts
}

func TestSQLite_RouterAgreesWithBuilder(t *testing.T) {
	for _, tc := range []struct {
		kind placement.Kind
		n    int
	}{
		{placement.KindRange, 5},
		{placement.KindRange, 3},
		{placement.KindRange, 7},
		{placement.KindRoundRobin, 5},
		{placement.KindRoundRobin, 4},
	} {
		t.Run(fmt.Sprintf("%s_%d", tc.kind, tc.n), func(t *testing.T) {
			d := openSQLite(t)
			store := service.NewStore(d)
			ctx := context.Background()

			_, err := service.NewRatingsService(store, ratingsTable).LoadRatings(ctx, strings.NewReader(ratingsFile(1)))
			require.NoError(t, err)

			svc := service.NewPartitionService(store, ratingsTable)
			_, err = svc.BuildPartitions(ctx, tc.kind, tc.n, "", false)
			require.NoError(t, err)

			for i, r := range halfStarRatings(2) {
				_, err := svc.Insert(ctx, tc.kind, tc.n, int64(1000+i), r.ItemID, r.Rating)
				require.NoError(t, err)
			}
			routed := snapshot(t, d, tc.kind, tc.n)

			// Rebuilding from the full ratings table must land every row in
			// the partition the router picked.
			_, err = svc.BuildPartitions(ctx, tc.kind, tc.n, "", true)
			require.NoError(t, err)
			assert.Equal(t, routed, snapshot(t, d, tc.kind, tc.n))
		})
	}
}

func TestSQLite_BuildAndCount(t *testing.T) {
	d := openSQLite(t)
	store := service.NewStore(d)
	ctx := context.Background()

	n, err := service.NewRatingsService(store, ratingsTable).LoadRatings(ctx, strings.NewReader(ratingsFile(3)))
	require.NoError(t, err)
	assert.Equal(t, int64(33), n)

	svc := service.NewPartitionService(store, ratingsTable)
	result, err := svc.BuildPartitions(ctx, placement.KindRange, 5, "", false)
	require.NoError(t, err)
	assert.Equal(t, int64(33), result.Total())
	// [0,1] holds 0, 0.5, 1; every later slice holds two half stars.
	assert.Equal(t, int64(9), result.Partitions[0].Rows)
	for _, p := range result.Partitions[1:] {
		assert.Equal(t, int64(6), p.Rows, p.Table)
	}

	rr, err := svc.BuildPartitions(ctx, placement.KindRoundRobin, 4, "", false)
	require.NoError(t, err)
	assert.Equal(t, []int64{9, 8, 8, 8}, []int64{rr.Partitions[0].Rows, rr.Partitions[1].Rows, rr.Partitions[2].Rows, rr.Partitions[3].Rows})

	count, err := svc.CountPartitions(ctx, placement.KindRange)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
	count, err = svc.CountPartitions(ctx, placement.KindRoundRobin)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	_, err = svc.BuildPartitions(ctx, placement.KindRange, 5, "", false)
	assert.ErrorIs(t, err, apperrors.ErrPartitionsExist)
}

func TestSQLite_InsertWithoutPartitions(t *testing.T) {
	d := openSQLite(t)
	store := service.NewStore(d)
	ctx := context.Background()

	_, err := service.NewRatingsService(store, ratingsTable).LoadRatings(ctx, strings.NewReader(ratingsFile(1)))
	require.NoError(t, err)

	svc := service.NewPartitionService(store, ratingsTable)
	_, err = svc.Insert(ctx, placement.KindRoundRobin, 0, 1, 1, 3)
	assert.ErrorIs(t, err, apperrors.ErrNoPartitionsExist)

	var rows int
	require.NoError(t, d.Client.QueryRow(`SELECT count(*) FROM ratings`).Scan(&rows))
	assert.Equal(t, 11, rows)
}

func TestSQLite_ConcurrentRoundRobinInserts(t *testing.T) {
	d := openSQLite(t)
	store := service.NewStore(d)
	ctx := context.Background()

	_, err := service.NewRatingsService(store, ratingsTable).LoadRatings(ctx, strings.NewReader(ratingsFile(1)))
	require.NoError(t, err)
	svc := service.NewPartitionService(store, ratingsTable)
	_, err = svc.BuildPartitions(ctx, placement.KindRoundRobin, 3, "", false)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Insert(ctx, placement.KindRoundRobin, 0, int64(500+i), 1, 2)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// 31 rows over 3 partitions.
	sizes := []int{}
	for _, part := range snapshot(t, d, placement.KindRoundRobin, 3) {
		sizes = append(sizes, len(part))
	}
	assert.Equal(t, []int{11, 10, 10}, sizes)
}

func TestSQLite_DeleteTables(t *testing.T) {
	d := openSQLite(t)
	store := service.NewStore(d)
	ctx := context.Background()

	_, err := service.NewRatingsService(store, ratingsTable).LoadRatings(ctx, strings.NewReader(ratingsFile(1)))
	require.NoError(t, err)
	svc := service.NewPartitionService(store, ratingsTable)
	_, err = svc.BuildPartitions(ctx, placement.KindRange, 2, "", false)
	require.NoError(t, err)

	dropped, err := service.NewRatingsService(store, ratingsTable).DeleteTables(ctx, "all")
	require.NoError(t, err)
	assert.Equal(t, []string{"range_part0", "range_part1", "ratings"}, dropped)

	count, err := svc.CountPartitions(ctx, placement.KindRange)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
