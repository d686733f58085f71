package output

import (
	"errors"
	"fmt"
)

// Sink receives cppcheck.Finding values and lifecycle Events. Values of any
// other type are ignored.
type Sink interface {
	Write(v any) error
	Close() error
}

type namedSink struct {
	name   string
	sink   Sink
	failed bool
}

// Manager fans filter output out to the CSV, console and optional structured
// sinks. A sink that failed a write receives nothing further but is still
// closed, so a broken CSV path does not hide the console listing.
type Manager struct {
	sinks []*namedSink
}

func NewManager() *Manager {
	return &Manager{}
}

// AddSink registers s under name, which prefixes its errors (e.g. "csv").
func (m *Manager) AddSink(name string, s Sink) error {
	if m == nil {
		return errors.New("output manager is nil")
	}
	if s == nil {
		return fmt.Errorf("%s sink must not be nil", name)
	}
	m.sinks = append(m.sinks, &namedSink{name: name, sink: s})
	return nil
}

func (m *Manager) Write(v any) error {
	if m == nil {
		return errors.New("output manager is nil")
	}
	var errs []error
	for _, ns := range m.sinks {
		if ns.failed {
			continue
		}
		if err := ns.sink.Write(v); err != nil {
			ns.failed = true
			errs = append(errs, fmt.Errorf("%s output: %w", ns.name, err))
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) Close() error {
	if m == nil {
		return errors.New("output manager is nil")
	}
	var errs []error
	for _, ns := range m.sinks {
		if err := ns.sink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s output: %w", ns.name, err))
		}
	}
	return errors.Join(errs...)
}
