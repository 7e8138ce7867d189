// Package services holds the domain core: identity, the task catalog and
// ledger with its accrual engine, achievements, groups and the reporting
// queries built on top of them. Every operation runs in a single database
// transaction and reports failures with the error types in errors.go.
package services

import (
	"time"

	"github.com/gdg-garage/ecopoints-api/internal/notifier"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Viewer is the authenticated caller of an operation.
type Viewer struct {
	UserID uint
	Admin  bool
}

// Deps are shared by every service.
type Deps struct {
	DB       *gorm.DB
	Log      logrus.FieldLogger
	Notifier notifier.Notifier
	Now      func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}
	if d.Notifier == nil {
		d.Notifier = notifier.Nop{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) datatypes.Date {
	y, m, d := t.UTC().Date()
	return datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

func (d Deps) today() time.Time {
	return time.Time(DateOf(d.Now()))
}

func inFuture(d Deps, day time.Time) bool {
	return time.Time(DateOf(day)).After(d.today())
}
