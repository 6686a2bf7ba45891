// Package diag provides a small, redirectable diagnostic logger shared by
// the gff and erf codecs. Callers supply a Logger through an Options
// struct; none of the codecs reach for a process-wide logging stream.
package diag

import "github.com/sirupsen/logrus"

// Logger is the diagnostic surface the codecs log through. It intentionally
// carries only leveled formatting calls, no progress or TTY concerns.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Logrus adapts a *logrus.Logger to Logger.
type Logrus struct {
	L *logrus.Logger
}

// NewLogrus returns a Logrus-backed Logger at the given level.
func NewLogrus(level logrus.Level) *Logrus {
	l := logrus.New()
	l.SetLevel(level)
	return &Logrus{L: l}
}

func (d *Logrus) Debugf(format string, args ...interface{}) { d.L.Debugf(format, args...) }
func (d *Logrus) Infof(format string, args ...interface{})  { d.L.Infof(format, args...) }
func (d *Logrus) Warnf(format string, args ...interface{})  { d.L.Warnf(format, args...) }
func (d *Logrus) Errorf(format string, args ...interface{}) { d.L.Errorf(format, args...) }

// Nop discards everything. It is the default when an Options.Logger is nil.
type Nop struct{}

func (Nop) Debugf(format string, args ...interface{}) {}
func (Nop) Infof(format string, args ...interface{})  {}
func (Nop) Warnf(format string, args ...interface{})  {}
func (Nop) Errorf(format string, args ...interface{}) {}

// Default returns l if non-nil, otherwise a Nop logger.
func Default(l Logger) Logger {
	if l == nil {
		return Nop{}
	}
	return l
}
