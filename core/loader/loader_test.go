package loader_test

import (
	"errors"
	"testing"

	"feedsync/core/loader"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockFeature struct {
	mock.Mock
}

func (m *mockFeature) Name() string {
	return m.Called().String(0)
}

func (m *mockFeature) IsEnabled() bool {
	return m.Called().Bool(0)
}

func (m *mockFeature) Load(app fiber.Router) error {
	return m.Called(app).Error(0)
}

func TestManager_LoadAll(t *testing.T) {
	app := fiber.New()

	enabled := &mockFeature{}
	enabled.On("Name").Return("timeline")
	enabled.On("IsEnabled").Return(true)
	enabled.On("Load", app).Return(nil)

	disabled := &mockFeature{}
	disabled.On("Name").Return("integrity")
	disabled.On("IsEnabled").Return(false)

	mgr := loader.NewManager(nil)
	mgr.Register(enabled)
	mgr.Register(disabled)

	assert.NoError(t, mgr.LoadAll(app))
	assert.Equal(t, []string{"timeline", "integrity"}, mgr.Names())
	enabled.AssertExpectations(t)
	disabled.AssertNotCalled(t, "Load", mock.Anything)
}

func TestManager_LoadAllStopsOnError(t *testing.T) {
	app := fiber.New()

	broken := &mockFeature{}
	broken.On("Name").Return("broken")
	broken.On("IsEnabled").Return(true)
	broken.On("Load", app).Return(errors.New("boom"))

	next := &mockFeature{}

	mgr := loader.NewManager(nil)
	mgr.Register(broken)
	mgr.Register(next)

	err := mgr.LoadAll(app)
	assert.ErrorContains(t, err, "broken")
	next.AssertNotCalled(t, "IsEnabled")
}
