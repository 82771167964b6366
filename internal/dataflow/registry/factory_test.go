package registry

import (
	"testing"

	"github.com/jmylchreest/signalgraph/internal/dataflow/dferrors"
	"github.com/jmylchreest/signalgraph/internal/dataflow/module"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubModule struct{ module.Base }

func (s *stubModule) Process() error { return nil }

func TestFactoryRegisterAndInstantiate(t *testing.T) {
	f := NewFactory()
	err := f.Register("stub", func(host module.Host, cfg Config) (module.Module, error) {
		return &stubModule{}, nil
	})
	require.NoError(t, err)

	mod, err := f.Instantiate("stub", nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &stubModule{}, mod)
}

func TestFactoryDuplicateRegistration(t *testing.T) {
	f := NewFactory()
	ctor := func(host module.Host, cfg Config) (module.Module, error) { return &stubModule{}, nil }
	require.NoError(t, f.Register("stub", ctor))
	err := f.Register("stub", ctor)
	require.ErrorIs(t, err, dferrors.DuplicateRegistration)
}

func TestFactoryUnknownModule(t *testing.T) {
	f := NewFactory()
	_, err := f.Instantiate("missing", nil, nil)
	require.ErrorIs(t, err, dferrors.UnknownModule)
}
