// Package errors provides the typed errors used around the template engine
// and a collector for located problems reported across many templates.
//
// Compiling, rendering and linting never fail on template or data input;
// the errors here cover file access, configuration, schema resolution and
// the problems the CLI aggregates from lint runs.
package errors

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Severity ranks a reported problem.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

// String returns the string representation of the severity
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the severity by name.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// MarshalYAML encodes the severity by name.
func (s Severity) MarshalYAML() (any, error) {
	return s.String(), nil
}

// Problem is one located finding in a template file.
type Problem struct {
	File     string   `json:"file"`
	Line     int      `json:"line"`
	Column   int      `json:"column"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Error implements the error interface
func (p *Problem) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s", p.File, p.Line, p.Column, p.Severity, p.Message)
}

// Collector gathers problems and plain errors from concurrent workers.
type Collector struct {
	problems []Problem
	errors   []error
	mutex    sync.RWMutex
}

// NewCollector creates a new collector
func NewCollector() *Collector {
	return &Collector{}
}

// Add records a problem.
func (c *Collector) Add(p Problem) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.problems = append(c.problems, p)
}

// AddError records a general error.
func (c *Collector) AddError(err error) {
	if err == nil {
		return
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.errors = append(c.errors, err)
}

// Problems returns the recorded problems ordered by file and position.
func (c *Collector) Problems() []Problem {
	c.mutex.RLock()
	result := make([]Problem, len(c.problems))
	copy(result, c.problems)
	c.mutex.RUnlock()

	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
	return result
}

// Errors returns the recorded general errors.
func (c *Collector) Errors() []error {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	result := make([]error, len(c.errors))
	copy(result, c.errors)
	return result
}

// HasErrors reports whether any error-severity problem or general error was recorded.
func (c *Collector) HasErrors() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	if len(c.errors) > 0 {
		return true
	}
	for _, p := range c.problems {
		if p.Severity == SeverityError {
			return true
		}
	}
	return false
}

// HasWarnings reports whether any warning-severity problem was recorded.
func (c *Collector) HasWarnings() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	for _, p := range c.problems {
		if p.Severity == SeverityWarning {
			return true
		}
	}
	return false
}

// ByFile returns the problems recorded for file.
func (c *Collector) ByFile(file string) []Problem {
	var out []Problem
	for _, p := range c.Problems() {
		if p.File == file {
			out = append(out, p)
		}
	}
	return out
}

// Clear clears all problems and errors
func (c *Collector) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.problems = c.problems[:0]
	c.errors = c.errors[:0]
}
