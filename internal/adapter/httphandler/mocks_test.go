package httphandler_test

import (
	"context"

	"github.com/niksmo/cardfinder/internal/core/domain"
	"github.com/niksmo/cardfinder/internal/core/port"
	"github.com/stretchr/testify/mock"
)

type MockSessionManager struct {
	mock.Mock
}

func (m *MockSessionManager) Login(
	ctx context.Context, cr port.Credentials,
) (string, error) {
	args := m.Called(ctx, cr)
	return args.String(0), args.Error(1)
}

func (m *MockSessionManager) Logout(token string) error {
	args := m.Called(token)
	return args.Error(0)
}

func (m *MockSessionManager) Dashboard(token string) (port.Dashboard, error) {
	args := m.Called(token)
	d, _ := args.Get(0).(port.Dashboard)
	return d, args.Error(1)
}

func (m *MockSessionManager) Identity(token string) (port.Identity, error) {
	args := m.Called(token)
	return args.Get(0).(port.Identity), args.Error(1)
}

type MockDashboard struct {
	mock.Mock
}

func (m *MockDashboard) View() domain.View {
	args := m.Called()
	return args.Get(0).(domain.View)
}

func (m *MockDashboard) SetRangeLower(name string, v int) (domain.Range, bool) {
	args := m.Called(name, v)
	return args.Get(0).(domain.Range), args.Bool(1)
}

func (m *MockDashboard) SetRangeUpper(name string, v int) (domain.Range, bool) {
	args := m.Called(name, v)
	return args.Get(0).(domain.Range), args.Bool(1)
}

func (m *MockDashboard) SetSelection(criterion, value string) bool {
	return m.Called(criterion, value).Bool(0)
}

func (m *MockDashboard) SetField(field, raw string) bool {
	return m.Called(field, raw).Bool(0)
}

func (m *MockDashboard) TogglePreference(name string) bool {
	return m.Called(name).Bool(0)
}

func (m *MockDashboard) ResetFilters() {
	m.Called()
}

func (m *MockDashboard) Search() <-chan struct{} {
	return m.Called().Get(0).(chan struct{})
}

func (m *MockDashboard) LoadAll() <-chan struct{} {
	return m.Called().Get(0).(chan struct{})
}
