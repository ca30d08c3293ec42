// Package backup copies the sqlite database file into timestamped snapshots
// on a fixed schedule.
package backup

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	prefix     = "backup_"
	timeLayout = "20060102_150405"
)

var runsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{Name: "backup_runs_total", Help: "Database backup runs by result"},
	[]string{"result"},
)

func init() { prometheus.MustRegister(runsTotal) }

type Options struct {
	Source   string // database file
	Dir      string // destination directory
	Interval time.Duration
	Keep     int // newest snapshots kept; 0 keeps all
}

type Scheduler struct {
	opts Options
	log  *zap.Logger
	now  func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

func New(opts Options, log *zap.Logger) (*Scheduler, error) {
	if opts.Source == "" || opts.Source == ":memory:" {
		return nil, errors.New("backup: a database file is required")
	}
	if opts.Interval < time.Minute {
		opts.Interval = 30 * time.Minute
	}
	if opts.Dir == "" {
		opts.Dir = "backups"
	}
	return &Scheduler{opts: opts, log: log.Named("backup"), now: time.Now}, nil
}

// Start schedules RunOnce every Interval. The first copy is taken one interval after Start.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return nil
	}
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	spec := fmt.Sprintf("@every %s", s.opts.Interval)
	if _, err := c.AddFunc(spec, func() { _, _ = s.Run() }); err != nil {
		return fmt.Errorf("backup: schedule %q: %w", spec, err)
	}
	c.Start()
	s.cron = c
	s.log.Info("backup scheduled",
		zap.String("source", s.opts.Source),
		zap.String("dir", s.opts.Dir),
		zap.Duration("interval", s.opts.Interval))
	return nil
}

// Stop cancels the schedule and waits for a running copy to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}

// Run takes one snapshot now. Failures are logged and counted as well as returned,
// so a scheduled run never takes the process down.
func (s *Scheduler) Run() (string, error) {
	path, err := s.RunOnce(s.now())
	if err != nil {
		runsTotal.WithLabelValues("error").Inc()
		s.log.Error("backup failed", zap.String("source", s.opts.Source), zap.Error(err))
		return "", err
	}
	runsTotal.WithLabelValues("ok").Inc()
	s.log.Info("backup created", zap.String("file", path))
	return path, nil
}

// RunOnce copies the source file to Dir/backup_<YYYYMMDD_HHMMSS><ext> and
// prunes old snapshots beyond Keep.
func (s *Scheduler) RunOnce(at time.Time) (string, error) {
	if err := os.MkdirAll(s.opts.Dir, 0o755); err != nil {
		return "", fmt.Errorf("backup: create dir: %w", err)
	}
	dst := filepath.Join(s.opts.Dir, Name(s.opts.Source, at))
	if err := copyFile(s.opts.Source, dst); err != nil {
		return "", err
	}
	if s.opts.Keep > 0 {
		for _, err := range s.prune() {
			s.log.Warn("prune backup", zap.Error(err))
		}
	}
	return dst, nil
}

// Name is the snapshot file name for source taken at t. A source without an
// extension gets ".db".
func Name(source string, t time.Time) string {
	ext := filepath.Ext(source)
	if ext == "" {
		ext = ".db"
	}
	return prefix + t.Format(timeLayout) + ext
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("backup: open source: %w", err)
	}
	defer in.Close()

	tmp := dst + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("backup: create snapshot: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("backup: copy: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("backup: close snapshot: %w", err)
	}
	return os.Rename(tmp, dst)
}

// prune deletes the oldest snapshots so that at most Keep remain. The
// timestamp layout sorts lexically.
func (s *Scheduler) prune() []error {
	entries, err := os.ReadDir(s.opts.Dir)
	if err != nil {
		return []error{err}
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), prefix) && !strings.HasSuffix(e.Name(), ".part") {
			names = append(names, e.Name())
		}
	}
	if len(names) <= s.opts.Keep {
		return nil
	}
	sort.Strings(names)
	var errs []error
	for _, n := range names[:len(names)-s.opts.Keep] {
		if err := os.Remove(filepath.Join(s.opts.Dir, n)); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
