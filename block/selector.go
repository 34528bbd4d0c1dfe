package block

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/samber/lo"
)

// Selector probes a registered list of loaders in order and adopts the
// first one whose Initialize succeeds.
type Selector struct {
	loaders []Loader
	log     *slog.Logger
}

// Option configures a Selector at construction.
type Option func(*Selector)

// WithLogger threads an explicit logger handle into the selector, in place
// of a package-level global verbose flag. A nil logger (the default)
// disables logging.
func WithLogger(l *slog.Logger) Option {
	return func(s *Selector) {
		s.log = l
	}
}

// NewSelector builds a selector with the standard loader list: single-block
// first (it declares its own length and is unambiguous to validate), then
// headerless.
func NewSelector(opts ...Option) *Selector {
	s := &Selector{
		loaders: []Loader{
			NewSingleBlockLoader(),
			NewHeaderlessLoader(),
		},
		log: discardLogger(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.log == nil {
		s.log = discardLogger()
	}

	return s
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// Names lists the registered loaders' names, in probe order.
func (s *Selector) Names() []string {
	return lo.Map(s.loaders, func(l Loader, _ int) string {
		return l.Name()
	})
}

// Initialize saves the input position, then tries each loader in turn. A
// loader that accepts the input wins; the input is restored to the saved
// position in all cases, so the winning loader's ReadNextBlock starts from
// the beginning.
func (s *Selector) Initialize(r io.ReadSeeker) (Loader, error) {
	start, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("block: reading start position: %w", err)
	}

	for _, l := range s.loaders {
		if _, err := r.Seek(start, io.SeekStart); err != nil {
			return nil, fmt.Errorf("block: restoring position: %w", err)
		}

		ok, err := l.Initialize(r)
		if err != nil {
			return nil, fmt.Errorf("block: probing %s: %w", l.Name(), err)
		}

		if ok {
			s.log.Debug("block loader matched", "loader", l.Name())

			if _, err := r.Seek(start, io.SeekStart); err != nil {
				return nil, fmt.Errorf("block: restoring position: %w", err)
			}

			return l, nil
		}

		s.log.Debug("block loader rejected input", "loader", l.Name())
	}

	if _, err := r.Seek(start, io.SeekStart); err != nil {
		return nil, fmt.Errorf("block: restoring position: %w", err)
	}

	return nil, ErrUnrecognizedFormat
}
