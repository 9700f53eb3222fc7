// Package stationdb persists fetched station and promotion snapshots in
// sqlite so the CLI and server can work offline between updates, and logs
// nearby searches for the popular-locations heatmap.
package stationdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/patrickmn/go-cache"

	"github.com/ratana-tep/stationmap/pkg/api"
)

const (
	cacheDefaultExpiry = 5 * time.Minute
	cacheCleanupTime   = 10 * time.Minute

	defaultReducePrecisionDecimalPlace = 2
	decimalBase                        = 10
	defaultCacheSize                   = -1024 * 1024 // negative value for pages
	defaultPageSize                    = 4096

	datasetCacheKey = "latest_dataset"
	dateFormat      = "2006-01-02"
)

// Storage wraps the sqlite snapshot database.
type Storage struct {
	db    *sql.DB
	cache *cache.Cache
	log   *slog.Logger
}

func NewStorage(ctx context.Context, dbPath string, logger *slog.Logger) (*Storage, error) {
	db, err := sql.Open("sqlite3", "file:"+dbPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := configurePragmas(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	if err := createTables(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating tables: %w", err)
	}

	s := &Storage{
		db:    db,
		cache: cache.New(cacheDefaultExpiry, cacheCleanupTime),
		log:   logger,
	}

	return s, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS station_snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT UNIQUE NOT NULL,
		data BLOB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_station_snapshots_date ON station_snapshots(date);

	CREATE TABLE IF NOT EXISTS promotion_snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT UNIQUE NOT NULL,
		data BLOB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_promotion_snapshots_date ON promotion_snapshots(date);

	CREATE TABLE IF NOT EXISTS location_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		distance REAL NOT NULL,
		search_count INTEGER NOT NULL DEFAULT 1,
		search_time TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		last_search TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_location_logs_coordinates ON location_logs (latitude, longitude);
	`

	_, err := db.ExecContext(ctx, createTableSQL)
	if err != nil {
		return fmt.Errorf("error creating tables: %w", err)
	}
	return nil
}

func configurePragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA busy_timeout = 10000;",
		"PRAGMA journal_mode = WAL;",
		"PRAGMA auto_vacuum = INCREMENTAL;",
		"PRAGMA synchronous = NORMAL;",
		fmt.Sprintf("PRAGMA cache_size = %d;", defaultCacheSize),
		fmt.Sprintf("PRAGMA page_size = %d;", defaultPageSize),
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("error applying %q: %w", pragma, err)
		}
	}
	return nil
}

func (s *Storage) Close() error {
	if s.cache != nil {
		s.cache.Flush()
	}
	return s.db.Close()
}

// SaveSnapshot stores the raw station and promotion JSON payloads under the
// given date, replacing any existing snapshot for that date.
func (s *Storage) SaveSnapshot(ctx context.Context, date time.Time, stationData, promotionData []byte) error {
	dateStr := date.Format(dateFormat)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			s.log.Warn("rollback error", "error", err)
		}
	}()

	_, err = tx.ExecContext(ctx, "INSERT OR REPLACE INTO station_snapshots (date, data) VALUES (?, ?)", dateStr, stationData)
	if err != nil {
		return fmt.Errorf("error inserting station snapshot: %w", err)
	}
	_, err = tx.ExecContext(ctx, "INSERT OR REPLACE INTO promotion_snapshots (date, data) VALUES (?, ?)", dateStr, promotionData)
	if err != nil {
		return fmt.Errorf("error inserting promotion snapshot: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}

	s.cache.Delete(datasetCacheKey)
	return nil
}

// HasDate reports whether a snapshot exists for the date.
func (s *Storage) HasDate(ctx context.Context, date time.Time) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM station_snapshots WHERE date = ?", date.Format(dateFormat)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("error checking date existence: %w", err)
	}
	return count > 0, nil
}

// GetLastUpdateDate returns the date of the newest snapshot or nil when the
// database is empty.
func (s *Storage) GetLastUpdateDate(ctx context.Context) (*time.Time, error) {
	var dateStr string
	err := s.db.QueryRowContext(ctx, "SELECT date FROM station_snapshots ORDER BY date DESC LIMIT 1").Scan(&dateStr)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("error querying last update date: %w", err)
	}

	lastUpdate, err := time.Parse(dateFormat, dateStr)
	if err != nil {
		return nil, fmt.Errorf("error parsing date %s: %w", dateStr, err)
	}

	return &lastUpdate, nil
}

// LoadDataset returns the latest snapshot's stations with promotions
// joined. Results are cached for a few minutes.
func (s *Storage) LoadDataset(ctx context.Context) ([]api.Station, error) {
	if cached, found := s.cache.Get(datasetCacheKey); found {
		s.log.Debug("Using cached dataset", "key", datasetCacheKey)
		return cached.([]api.Station), nil
	}

	var stationData []byte
	err := s.db.QueryRowContext(ctx, "SELECT data FROM station_snapshots ORDER BY date DESC LIMIT 1").Scan(&stationData)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("no data available, run update first")
		}
		return nil, fmt.Errorf("error querying database: %w", err)
	}

	var stations api.StationList
	if err := json.Unmarshal(stationData, &stations); err != nil {
		return nil, fmt.Errorf("error unmarshaling station data: %w", err)
	}

	var promotionData []byte
	err = s.db.QueryRowContext(ctx, "SELECT data FROM promotion_snapshots ORDER BY date DESC LIMIT 1").Scan(&promotionData)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("error querying promotions: %w", err)
	}
	if len(promotionData) > 0 {
		var promotions api.PromotionList
		if err := json.Unmarshal(promotionData, &promotions); err != nil {
			// A corrupt promotion snapshot must not take the stations down.
			s.log.Warn("error unmarshaling promotion data", "error", err)
		} else {
			api.JoinPromotions(stations.Stations, &promotions)
		}
	}

	s.cache.Set(datasetCacheKey, stations.Stations, cache.DefaultExpiration)
	return stations.Stations, nil
}

// UpdateDB fetches both upstream resources and snapshots them under today's
// date.
func (s *Storage) UpdateDB(ctx context.Context, client *api.StationAPI) error {
	stations, err := client.FetchStations(ctx)
	if err != nil {
		return fmt.Errorf("error fetching stations: %w", err)
	}
	promotions, err := client.FetchPromotions(ctx)
	if err != nil {
		return fmt.Errorf("error fetching promotions: %w", err)
	}

	stationData, err := json.Marshal(stations)
	if err != nil {
		return fmt.Errorf("error marshaling station data: %w", err)
	}
	promotionData, err := json.Marshal(promotions)
	if err != nil {
		return fmt.Errorf("error marshaling promotion data: %w", err)
	}

	return s.SaveSnapshot(ctx, time.Now(), stationData, promotionData)
}

// LogSearchLocation records a nearby search at reduced precision so the
// popular-locations view can cluster them. Callers treat failures as
// non-fatal.
func (s *Storage) LogSearchLocation(ctx context.Context, latitude, longitude, distance float64) error {
	var id int64
	var count int

	newLat, newLong := reduceLocationPrecision(latitude, longitude, defaultReducePrecisionDecimalPlace)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, search_count FROM location_logs
		WHERE latitude = ?
		AND longitude = ?
		LIMIT 1
	`, newLat, newLong).Scan(&id, &count)

	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("error checking for existing location: %w", err)
	}

	if err == sql.ErrNoRows {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO location_logs (latitude, longitude, distance)
			VALUES (?, ?, ?)
		`, newLat, newLong, distance)

		if err != nil {
			return fmt.Errorf("error logging search location: %w", err)
		}
	} else {
		_, err := s.db.ExecContext(ctx, `
			UPDATE location_logs
			SET search_count = search_count + 1, last_search = CURRENT_TIMESTAMP, distance = ?
			WHERE id = ?
		`, distance, id)

		if err != nil {
			return fmt.Errorf("error updating search location: %w", err)
		}
	}

	return nil
}

// LocationLog represents a row in the location_logs table.
type LocationLog struct {
	ID          int64
	Latitude    float64
	Longitude   float64
	Distance    float64
	SearchCount int64
	SearchTime  time.Time
	LastSearch  time.Time
}

// GetLocationLogs retrieves location logs ordered by search count.
// limit: maximum number of rows to return (0 for all).
func (s *Storage) GetLocationLogs(ctx context.Context, limit int) ([]LocationLog, error) {
	query := `SELECT id, latitude, longitude, distance, search_count, search_time, last_search
			  FROM location_logs
			  ORDER BY search_count DESC `

	if limit > 0 {
		query += fmt.Sprintf("LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error retrieving location logs: %w", err)
	}
	defer rows.Close()

	var logs []LocationLog
	for rows.Next() {
		var logEntry LocationLog
		if err := rows.Scan(
			&logEntry.ID,
			&logEntry.Latitude,
			&logEntry.Longitude,
			&logEntry.Distance,
			&logEntry.SearchCount,
			&logEntry.SearchTime,
			&logEntry.LastSearch,
		); err != nil {
			return nil, fmt.Errorf("error scanning location log: %w", err)
		}
		logs = append(logs, logEntry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}

	return logs, nil
}

// PopularLocation represents a clustered area of searches with its popularity.
type PopularLocation struct {
	Latitude    float64 `json:"lat"`
	Longitude   float64 `json:"lng"`
	SearchCount int64   `json:"weight"`
	Radius      float64 `json:"radius"`
}

// GetPopularLocations clusters nearby logged searches and returns them
// ordered by search count, most popular first.
func (s *Storage) GetPopularLocations(ctx context.Context, limit int) ([]PopularLocation, error) {
	logs, err := s.GetLocationLogs(ctx, 0)
	if err != nil {
		return nil, err
	}

	const clusterDistance = 0.01 // roughly 1km

	processed := make(map[int64]bool)
	var popularLocations []PopularLocation

	for i, log := range logs {
		if processed[log.ID] {
			continue
		}
		processed[log.ID] = true

		cluster := PopularLocation{
			Latitude:    log.Latitude,
			Longitude:   log.Longitude,
			SearchCount: log.SearchCount,
			Radius:      log.Distance,
		}

		for j, other := range logs {
			if i == j || processed[other.ID] {
				continue
			}

			distance := math.Hypot(log.Latitude-other.Latitude, log.Longitude-other.Longitude)
			if distance > clusterDistance {
				continue
			}
			processed[other.ID] = true

			totalWeight := cluster.SearchCount + other.SearchCount
			cluster.Latitude = (cluster.Latitude*float64(cluster.SearchCount) +
				other.Latitude*float64(other.SearchCount)) / float64(totalWeight)
			cluster.Longitude = (cluster.Longitude*float64(cluster.SearchCount) +
				other.Longitude*float64(other.SearchCount)) / float64(totalWeight)

			cluster.SearchCount += other.SearchCount
			if other.Distance > cluster.Radius {
				cluster.Radius = other.Distance
			}
		}

		popularLocations = append(popularLocations, cluster)
	}

	sort.Slice(popularLocations, func(i, j int) bool {
		return popularLocations[i].SearchCount > popularLocations[j].SearchCount
	})

	if limit > 0 && len(popularLocations) > limit {
		popularLocations = popularLocations[:limit]
	}
	return popularLocations, nil
}

func reduceLocationPrecision(lat, lng float64, decimalPlaces int) (roundedLat, roundedLng float64) {
	factor := math.Pow(decimalBase, float64(decimalPlaces))
	roundedLat = math.Round(lat*factor) / factor
	roundedLng = math.Round(lng*factor) / factor
	return
}
