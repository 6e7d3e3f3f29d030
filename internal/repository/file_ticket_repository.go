package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/spec-kit/queue-repair/internal/domain"
	apperrors "github.com/spec-kit/queue-repair/pkg/util"
)

const corruptSuffix = ".corrupt"

type fileTicketRepository struct {
	path      string
	backupDir string
	// unprotected is set while a corrupt file exists that could not be backed up.
	unprotected atomic.Bool
}

// NewFileTicketRepository stores tickets as an indented JSON array at path.
// Unreadable files are copied next to it before anything overwrites them.
func NewFileTicketRepository(path string) TicketRepository {
	return &fileTicketRepository{path: path, backupDir: filepath.Dir(path)}
}

func (r *fileTicketRepository) Describe() string {
	return r.path
}

func (r *fileTicketRepository) Load(ctx context.Context) ([]domain.Ticket, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []domain.Ticket{}, nil
		}
		return []domain.Ticket{}, apperrors.NewStorageError("load", err)
	}

	tickets, err := decodeTickets(data)
	if err != nil {
		backup, backupErr := r.backup(data)
		if backupErr != nil {
			r.unprotected.Store(true)
			return []domain.Ticket{}, apperrors.NewCorruptData(r.path,
				errors.Join(err, fmt.Errorf("backing up corrupt data: %w", backupErr)))
		}
		r.unprotected.Store(false)
		return []domain.Ticket{}, apperrors.NewCorruptData(r.path, fmt.Errorf("%w (copy saved to %s)", err, backup))
	}
	r.unprotected.Store(false)
	return tickets, nil
}

// backup writes data to a new uniquely named file so earlier copies are kept.
func (r *fileTicketRepository) backup(data []byte) (string, error) {
	file, err := os.CreateTemp(r.backupDir, filepath.Base(r.path)+".*"+corruptSuffix)
	if err != nil {
		return "", err
	}
	name := file.Name()
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(name)
		return "", err
	}
	if err := file.Close(); err != nil {
		os.Remove(name)
		return "", err
	}
	return name, nil
}

func (r *fileTicketRepository) Save(ctx context.Context, tickets []domain.Ticket) error {
	if r.unprotected.Load() {
		return apperrors.NewStorageError("save",
			fmt.Errorf("%s holds corrupt data that could not be backed up; refusing to overwrite it", r.path))
	}
	data, err := encodeTickets(tickets)
	if err != nil {
		return apperrors.NewStorageError("save", err)
	}
	if err := writeFileAtomic(r.path, data); err != nil {
		return apperrors.NewStorageError("save", err)
	}
	return nil
}

func encodeTickets(tickets []domain.Ticket) ([]byte, error) {
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	return json.MarshalIndent(tickets, "", "  ")
}

func decodeTickets(data []byte) ([]domain.Ticket, error) {
	var tickets []domain.Ticket
	if err := json.Unmarshal(data, &tickets); err != nil {
		return nil, err
	}
	if tickets == nil {
		// A literal "null" is not a ticket list.
		return nil, errors.New("ticket data is not a JSON array")
	}
	return tickets, nil
}

// writeFileAtomic writes data to a temp file in the target directory and
// renames it over path, so readers see either the old or the new content.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp data file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing data: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("syncing data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp data file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming data file to %s: %w", path, err)
	}

	success = true
	return nil
}
