package log

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// BadgerLogrusAdapter implements badger.Logger on top of a logrus Entry.
// Badger's info chatter (compactions, replay) is demoted to debug so a normal
// CLI run only shows TOC progress.
type BadgerLogrusAdapter struct {
	*logrus.Entry
}

// NewBadgerLogrusAdapter creates a new adapter
func NewBadgerLogrusAdapter(entry *logrus.Entry) *BadgerLogrusAdapter {
	return &BadgerLogrusAdapter{entry}
}

// badger terminates most messages with a newline; logrus adds its own
func trimmed(f string, v ...interface{}) string {
	return strings.TrimRight(fmt.Sprintf(f, v...), "\n")
}

func (l *BadgerLogrusAdapter) Errorf(f string, v ...interface{}) { l.Entry.Error(trimmed(f, v...)) }

func (l *BadgerLogrusAdapter) Warningf(f string, v ...interface{}) { l.Entry.Warn(trimmed(f, v...)) }

func (l *BadgerLogrusAdapter) Infof(f string, v ...interface{}) { l.Entry.Debug(trimmed(f, v...)) }

func (l *BadgerLogrusAdapter) Debugf(f string, v ...interface{}) { l.Entry.Trace(trimmed(f, v...)) }
