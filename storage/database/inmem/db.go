package inmemdb

import (
	"sync"

	"github.com/trezcool/academia/core/assessment"
	"github.com/trezcool/academia/core/remedial"
	"github.com/trezcool/academia/core/submission"
	"github.com/trezcool/academia/core/user"
)

// DB is an in-memory database shared by the repositories of this package.
// A single lock guards every table so that joins read a consistent snapshot.
type DB struct {
	mutex       sync.RWMutex
	users       map[string]*user.User
	aat1s       map[string]*assessment.AAT1
	aat2s       map[string]*assessment.AAT2
	sessions    map[string]*remedial.Session
	submissions map[string]*submission.Submission
}

func Open() *DB {
	return &DB{
		users:       make(map[string]*user.User),
		aat1s:       make(map[string]*assessment.AAT1),
		aat2s:       make(map[string]*assessment.AAT2),
		sessions:    make(map[string]*remedial.Session),
		submissions: make(map[string]*submission.Submission),
	}
}

func copyStrings(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return append(make([]string, 0, len(ss)), ss...)
}

func copyStringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
