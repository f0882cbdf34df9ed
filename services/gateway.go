package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"case_desk_app_go/config"
	"case_desk_app_go/db"
	"case_desk_app_go/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrSnapshotNotFound is returned by Load when nothing has been saved yet
var ErrSnapshotNotFound = errors.New("no snapshot saved")

// Gateway loads and saves the whole application snapshot as one document
type Gateway interface {
	Load(ctx context.Context) (*models.Snapshot, error)
	Save(ctx context.Context, snapshot *models.Snapshot) error
	Name() string
}

// SnapshotInfo describes one stored version
type SnapshotInfo struct {
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	Checksum  string    `json:"checksum"`
	CaseCount int       `json:"caseCount"`
	UserCount int       `json:"userCount"`
}

// HistoryGateway is implemented by gateways that keep older versions
type HistoryGateway interface {
	Gateway
	History(ctx context.Context) ([]SnapshotInfo, error)
	LoadVersion(ctx context.Context, version int64) (*models.Snapshot, error)
}

// EncodeSnapshot serializes a snapshot. Nil collections are written as empty arrays.
func EncodeSnapshot(snapshot *models.Snapshot) ([]byte, error) {
	if snapshot == nil {
		return nil, fmt.Errorf("%w: nil snapshot", ErrInvalidInput)
	}
	out := snapshot.Clone()
	out.Normalize()
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses a stored document. Anything but a JSON object is rejected.
func DecodeSnapshot(data []byte) (*models.Snapshot, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: snapshot is not a JSON object", ErrInvalidInput)
	}
	var snapshot models.Snapshot
	if err := json.Unmarshal(trimmed, &snapshot); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	snapshot.Normalize()
	return &snapshot, nil
}

// LoadOrDefault loads the stored snapshot, falling back to the defaults when
// nothing was saved or the stored document cannot be read.
func LoadOrDefault(ctx context.Context, gw Gateway, log *zap.SugaredLogger) *models.Snapshot {
	snapshot, err := gw.Load(ctx)
	switch {
	case err == nil:
		log.Infow("Snapshot loaded", "backend", gw.Name(), "cases", len(snapshot.Cases), "users", len(snapshot.Users))
		return snapshot
	case errors.Is(err, ErrSnapshotNotFound):
		log.Infow("No snapshot found, starting with defaults", "backend", gw.Name())
	default:
		log.Warnw("Snapshot unreadable, starting with defaults", "backend", gw.Name(), "error", err)
	}
	return models.DefaultSnapshot()
}

// BlobGateway stores the snapshot as a single object in a StorageProvider
// (a local file or an R2 object).
type BlobGateway struct {
	storage StorageProvider
	key     string
}

// NewBlobGateway creates a gateway writing the snapshot under key
func NewBlobGateway(storage StorageProvider, key string) *BlobGateway {
	return &BlobGateway{storage: storage, key: key}
}

func (g *BlobGateway) Name() string {
	return g.storage.Describe() + "/" + g.key
}

func (g *BlobGateway) Load(ctx context.Context) (*models.Snapshot, error) {
	reader, _, err := g.storage.Get(ctx, g.key)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return nil, ErrSnapshotNotFound
		}
		return nil, err
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return DecodeSnapshot(data)
}

func (g *BlobGateway) Save(ctx context.Context, snapshot *models.Snapshot) error {
	data, err := EncodeSnapshot(snapshot)
	if err != nil {
		return err
	}
	_, err = g.storage.UploadReader(ctx, bytes.NewReader(data), g.key, "application/json", int64(len(data)))
	return err
}

// DatabaseGateway appends every save as a new row and keeps the newest
// `keep` versions. Load returns the newest row.
type DatabaseGateway struct {
	db   *gorm.DB
	keep int
}

// NewDatabaseGateway migrates the snapshots table and returns the gateway
func NewDatabaseGateway(database *gorm.DB, keep int) (*DatabaseGateway, error) {
	if err := db.AutoMigrate(database, &models.SnapshotRecord{}); err != nil {
		return nil, err
	}
	if keep < 1 {
		keep = 1
	}
	return &DatabaseGateway{db: database, keep: keep}, nil
}

func (g *DatabaseGateway) Name() string {
	return "database"
}

func (g *DatabaseGateway) Load(ctx context.Context) (*models.Snapshot, error) {
	var record models.SnapshotRecord
	err := g.db.WithContext(ctx).Order("version DESC").First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return decodeRecord(&record)
}

func (g *DatabaseGateway) LoadVersion(ctx context.Context, version int64) (*models.Snapshot, error) {
	var record models.SnapshotRecord
	err := g.db.WithContext(ctx).Where("version = ?", version).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot version %d: %w", version, err)
	}
	return decodeRecord(&record)
}

func (g *DatabaseGateway) Save(ctx context.Context, snapshot *models.Snapshot) error {
	data, err := EncodeSnapshot(snapshot)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(data)

	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var latest int64
		if err := tx.Model(&models.SnapshotRecord{}).Select("COALESCE(MAX(version), 0)").Scan(&latest).Error; err != nil {
			return fmt.Errorf("failed to read latest version: %w", err)
		}

		record := &models.SnapshotRecord{
			Version:   latest + 1,
			Payload:   string(data),
			Checksum:  hex.EncodeToString(sum[:]),
			CaseCount: len(snapshot.Cases),
			UserCount: len(snapshot.Users),
		}
		if err := tx.Create(record).Error; err != nil {
			return fmt.Errorf("failed to insert snapshot: %w", err)
		}

		// Prune everything older than the retained window
		cutoff := record.Version - int64(g.keep)
		if cutoff > 0 {
			if err := tx.Where("version <= ?", cutoff).Delete(&models.SnapshotRecord{}).Error; err != nil {
				return fmt.Errorf("failed to prune snapshots: %w", err)
			}
		}
		return nil
	})
}

// History lists the retained versions, newest first
func (g *DatabaseGateway) History(ctx context.Context) ([]SnapshotInfo, error) {
	var records []models.SnapshotRecord
	err := g.db.WithContext(ctx).
		Select("version", "created_at", "checksum", "case_count", "user_count").
		Order("version DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	infos := make([]SnapshotInfo, len(records))
	for i, r := range records {
		infos[i] = SnapshotInfo{
			Version:   r.Version,
			CreatedAt: r.CreatedAt,
			Checksum:  r.Checksum,
			CaseCount: r.CaseCount,
			UserCount: r.UserCount,
		}
	}
	return infos, nil
}

func decodeRecord(record *models.SnapshotRecord) (*models.Snapshot, error) {
	sum := sha256.Sum256([]byte(record.Payload))
	if hex.EncodeToString(sum[:]) != record.Checksum {
		return nil, fmt.Errorf("%w: checksum mismatch on version %d", ErrInvalidInput, record.Version)
	}
	return DecodeSnapshot([]byte(record.Payload))
}

// NewGateway builds the gateway selected by PERSISTENCE_BACKEND. The returned
// close function releases the database connection, if any.
func NewGateway(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (Gateway, func() error, error) {
	noop := func() error { return nil }

	switch cfg.PersistenceBackend {
	case config.BackendFile, "":
		storage := NewLocalStorage(filepath.Dir(cfg.DataFile))
		return NewBlobGateway(storage, filepath.Base(cfg.DataFile)), noop, nil

	case config.BackendR2:
		storage, err := NewR2StorageFromConfig(ctx, cfg, log)
		if err != nil {
			return nil, noop, err
		}
		return NewBlobGateway(storage, cfg.R2SnapshotKey), noop, nil

	case config.BackendDatabase:
		database, err := db.Initialize(cfg, log)
		if err != nil {
			return nil, noop, err
		}
		gw, err := NewDatabaseGateway(database, cfg.SnapshotHistory)
		if err != nil {
			db.Close(database)
			return nil, noop, err
		}
		return gw, func() error { return db.Close(database) }, nil
	}

	return nil, noop, fmt.Errorf("unknown persistence backend %q", cfg.PersistenceBackend)
}
