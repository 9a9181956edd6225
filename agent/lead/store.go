package lead

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

var ErrNotFound = errors.New("lead not found")

// NotFoundError reports a lookup by id that matched nothing.
type NotFoundError struct {
	ID int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Lead with id %d not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Store is the lead record store. Search is a full scan in store order.
// Update runs mutate on a copy of the first lead with id and persists its
// status and notes atomically with respect to other writers of the store.
type Store interface {
	Count(ctx context.Context) (int, error)
	Insert(ctx context.Context, leads ...Lead) error
	Get(ctx context.Context, id int) (Lead, error)
	Search(ctx context.Context, m Matcher) ([]Lead, error)
	Update(ctx context.Context, id int, mutate func(*Lead) error) (Lead, error)
	Close() error
}

const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Driver string `split_words:"true" default:"file"`
	// Path is the file store, and the seed source for sqlite and postgres
	// when SeedPath is unset.
	Path       string `split_words:"true" default:"db/leads.json"`
	SeedPath   string `split_words:"true"`
	SQLitePath string `envconfig:"SQLITE_PATH" default:"db/leads.sqlite"`
	DSN        string `envconfig:"DSN"`
}

func (c Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Driver)) {
	case DriverFile:
		if strings.TrimSpace(c.Path) == "" {
			return errors.New("store path is required for the file driver")
		}
	case DriverSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return errors.New("sqlite path is required for the sqlite driver")
		}
	case DriverPostgres:
		if strings.TrimSpace(c.DSN) == "" {
			return errors.New("dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Driver)
	}
	return nil
}

// Open opens the configured backend and imports the seed payload when the
// store is empty. Database drivers read the seed from SeedPath, or from Path
// when SeedPath is unset. Seed problems never fail Open.
func Open(ctx context.Context, cfg Config) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		store Store
		seed  []byte
		err   error
	)
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case DriverFile:
		var fs *FileStore
		fs, seed, err = OpenFileStore(cfg.Path)
		store = fs
	case DriverSQLite:
		store, err = OpenSQLiteStore(ctx, cfg.SQLitePath)
	case DriverPostgres:
		store, err = OpenPostgresStore(ctx, cfg.DSN)
	}
	if err != nil {
		return nil, err
	}

	seedPath := strings.TrimSpace(cfg.SeedPath)
	if seedPath == "" && driver != DriverFile {
		seedPath = strings.TrimSpace(cfg.Path)
	}
	if seed == nil && seedPath != "" {
		raw, readErr := os.ReadFile(seedPath)
		if readErr != nil {
			log.Debug().Err(readErr).Str("seed_path", seedPath).Msg("seed file unreadable, skipping import")
		} else {
			seed = raw
		}
	}

	n, err := Bootstrap(ctx, store, seed)
	if err != nil {
		log.Warn().Err(err).Msg("lead seed import failed")
	} else if n > 0 {
		log.Info().Int("rows", n).Str("driver", cfg.Driver).Msg("imported lead seed")
	}

	return store, nil
}
