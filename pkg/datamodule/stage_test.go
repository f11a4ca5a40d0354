package datamodule_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rastml/segpipe/pkg/datamodule"
)

func TestParseStage(t *testing.T) {
	t.Parallel()

	cases := map[string]datamodule.Stage{
		"fit":     datamodule.StageFit,
		"test":    datamodule.StageTest,
		"predict": datamodule.StagePredict,
	}
	for in, want := range cases {
		got, err := datamodule.ParseStage(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, in, got.String())
	}
}

func TestParseStageRejectsUnknown(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "bogus", "Fit", "validate"} {
		_, err := datamodule.ParseStage(in)
		require.Error(t, err, in)
		assert.ErrorIs(t, err, datamodule.ErrUnknownStage)
	}
}
