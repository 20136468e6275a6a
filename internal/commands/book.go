package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chequera-dev/chequera/internal/auditlog"
	"github.com/chequera-dev/chequera/internal/checkbook"
	"github.com/chequera-dev/chequera/internal/config"
	"github.com/chequera-dev/chequera/internal/gitops"
	"github.com/chequera-dev/chequera/internal/issuing"
	"github.com/chequera-dev/chequera/internal/ledger"
	"github.com/chequera-dev/chequera/internal/movements"
	"github.com/chequera-dev/chequera/internal/reconcile"
)

// configFile is the book's configuration file name.
const configFile = "chequera.yaml"

// auditActor is the actor recorded for entries written by the CLI.
const auditActor = "cli"

// defaultBookDir resolves the default book directory: the CHEQUERA_DIR
// environment variable when set, else the working directory.
func defaultBookDir() string {
	if dir := os.Getenv("CHEQUERA_DIR"); dir != "" {
		return dir
	}
	return "."
}

// book is an opened book directory with its config and services wired.
type book struct {
	root     string
	cfg      *config.Config
	ledger   *ledger.Service
	registry *checkbook.Service
	store    *movements.Service
}

// openBook loads the config and services from a book directory.
func openBook(dir string) (*book, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	cfg, err := config.Load(filepath.Join(root, configFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s is not a chequera book (run 'chequera init' first)", root)
		}
		return nil, err
	}

	led, err := ledger.Load(root)
	if err != nil {
		return nil, fmt.Errorf("loading accounts: %w", err)
	}
	reg, err := checkbook.Load(root)
	if err != nil {
		return nil, fmt.Errorf("loading checkbooks: %w", err)
	}
	mov, err := movements.Load(root)
	if err != nil {
		return nil, fmt.Errorf("loading movements: %w", err)
	}

	return &book{
		root:     root,
		cfg:      cfg,
		ledger:   led,
		registry: reg,
		store:    mov,
	}, nil
}

func (b *book) issuer() *issuing.Service {
	return issuing.NewService(b.ledger, b.registry, b.store, b.cfg.Ledger.AllowOverdraft)
}

func (b *book) reconciler() *reconcile.Service {
	return reconcile.NewService(b.root, b.store, b.ledger, b.cfg.Matching.DateBufferDays)
}

// record auto-commits the book (when enabled) and appends an audit entry
// carrying the commit hash. The log entry itself rides along with the next
// commit.
func (b *book) record(action, details, entityID string) error {
	var hash string
	if b.cfg.Git.AutoCommit {
		h, err := gitops.AutoCommit(b.root, action+": "+details, b.cfg.Git.AuthorName, b.cfg.Git.AuthorEmail)
		if err != nil {
			return fmt.Errorf("auto-commit: %w", err)
		}
		hash = h
	}

	entry := auditlog.Entry{
		Timestamp:  time.Now().UTC(),
		Actor:      auditActor,
		Action:     action,
		Details:    details,
		EntityID:   entityID,
		CommitHash: hash,
	}
	if err := auditlog.Append(b.root, []auditlog.Entry{entry}); err != nil {
		return fmt.Errorf("writing audit log: %w", err)
	}
	return nil
}

// parseDate parses a YYYY-MM-DD flag value, defaulting to today when empty.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return d, nil
}
