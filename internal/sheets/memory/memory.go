// Package memory is an in-process InstanceWriter used in tests and when
// no spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/akinalpfdn/ExpenseTracker-sub000/internal/core"
	"github.com/akinalpfdn/ExpenseTracker-sub000/internal/sheets"
)

type Store struct {
	mu    sync.Mutex
	items []core.ExpenseInstance
}

var _ sheets.InstanceWriter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// AppendInstance stores the instance and returns a synthetic row reference.
func (s *Store) AppendInstance(_ context.Context, inst core.ExpenseInstance) (string, error) {
	if err := inst.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, inst)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

// Instances returns a copy of everything written so far.
func (s *Store) Instances() []core.ExpenseInstance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.ExpenseInstance(nil), s.items...)
}
