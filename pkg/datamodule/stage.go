package datamodule

import (
	"github.com/pkg/errors"
)

var ErrUnknownStage = errors.New("unknown stage")

// Stage selects which dataset splits a run needs.
type Stage uint8

const (
	StageFit Stage = iota + 1
	StageTest
	StagePredict
)

// ParseStage rejects anything outside the closed stage set at the boundary.
func ParseStage(s string) (Stage, error) {
	switch s {
	case "fit":
		return StageFit, nil
	case "test":
		return StageTest, nil
	case "predict":
		return StagePredict, nil
	default:
		return 0, errors.Wrapf(ErrUnknownStage, "%q", s)
	}
}

func (s Stage) String() string {
	switch s {
	case StageFit:
		return "fit"
	case StageTest:
		return "test"
	case StagePredict:
		return "predict"
	default:
		return "unknown"
	}
}
