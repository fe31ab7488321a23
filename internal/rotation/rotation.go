// Package rotation cycles through a scenario's test data (accounts,
// search terms, ...) so that each run uses the next entry.
//
// The position is persisted per scenario in
// {output_path}/cache/{application}/{scenario}.txt and guarded by a file
// lock, so concurrent runs of the same scenario never pick the same index
// twice in a row.
package rotation

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/injecteur/internal/constants"
	"github.com/mrz1836/injecteur/internal/errors"
	"github.com/mrz1836/injecteur/internal/fileutil"
	"github.com/mrz1836/injecteur/internal/flock"
)

// CurrentSuffix is appended to the rotation key to store the selected value.
const CurrentSuffix = "_courant"

// Rotator hands out values round-robin.
type Rotator struct {
	outputPath  string
	lockTimeout time.Duration
	logger      zerolog.Logger
}

// NewRotator creates a Rotator persisting its indexes under outputPath.
func NewRotator(outputPath string, logger zerolog.Logger) *Rotator {
	return &Rotator{
		outputPath:  outputPath,
		lockTimeout: constants.LockTimeout,
		logger:      logger.With().Str("component", "rotation").Logger(),
	}
}

// CachePath returns the index file of scenario. An empty application is
// left out of the path.
func (r *Rotator) CachePath(application, scenario string) string {
	if application == "" {
		return filepath.Join(r.outputPath, constants.CacheDir, scenario+".txt")
	}
	return filepath.Join(r.outputPath, constants.CacheDir, application, scenario+".txt")
}

// Next returns values[i] where i is the persisted index, then stores i+1.
// A missing or unreadable index starts at 0, and an index past the end
// wraps to 0. An empty list wraps errors.ErrRotationEmpty.
func (r *Rotator) Next(ctx context.Context, application, scenario string, values []any) (any, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: scenario %s", errors.ErrRotationEmpty, scenario)
	}

	path := r.CachePath(application, scenario)
	if err := os.MkdirAll(filepath.Dir(path), constants.DirPerm); err != nil {
		return nil, errors.Wrap(err, "failed to create rotation cache directory")
	}

	lock, err := flock.Acquire(ctx, path+".lock", r.lockTimeout)
	if err != nil {
		return nil, err
	}
	defer func() { _ = lock.Release() }()

	index := r.readIndex(path)
	if index >= len(values) {
		index = 0
	}
	if err := fileutil.AtomicWrite(path, []byte(strconv.Itoa(index+1))); err != nil {
		return nil, errors.Wrap(err, "failed to save rotation index")
	}

	r.logger.Info().Str("scenario", scenario).Int("index", index).Int("size", len(values)).Msg("rotation value selected")
	return values[index], nil
}

// readIndex returns the stored index, or 0 when the file is missing or invalid.
func (r *Rotator) readIndex(path string) int {
	data, err := os.ReadFile(path) //#nosec G304 -- path is constructed internally
	if err != nil {
		if !stderrors.Is(err, fs.ErrNotExist) {
			r.logger.Warn().Err(err).Str("path", path).Msg("rotation index unreadable, restarting at 0")
		}
		return 0
	}
	index, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || index < 0 {
		r.logger.Warn().Str("path", path).Str("content", string(data)).Msg("invalid rotation index, restarting at 0")
		return 0
	}
	return index
}
