package services

import (
	"github.com/stretchr/testify/mock"
)

// Ensure MockLiveUpdater implements LiveUpdater
var _ LiveUpdater = (*MockLiveUpdater)(nil)

// MockLiveUpdater is a testify mock of the live refresh trigger.
type MockLiveUpdater struct {
	mock.Mock
}

// Trigger (Mocked)
func (m *MockLiveUpdater) Trigger(ev ScanEvent) {
	m.Called(ev)
}
