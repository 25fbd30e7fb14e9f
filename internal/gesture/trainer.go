package gesture

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ayusman/holocore/internal/landmark"
)

// ErrNoSamples is returned when training without samples.
var ErrNoSamples = errors.New("no samples provided")

// StaticSample is a recorded hand pose.
type StaticSample struct {
	Type      string           `json:"type"`
	Landmarks []landmark.Point `json:"landmarks"`
	Timestamp int64            `json:"timestamp"`
}

// DynamicSample is a recorded palm trajectory.
type DynamicSample struct {
	Type      string      `json:"type"`
	Path      []PathPoint `json:"path"`
	Timestamp int64       `json:"timestamp"`
}

// Trainer turns recorded samples into gesture templates.
type Trainer struct{}

// NewTrainer creates a Trainer.
func NewTrainer() *Trainer {
	return &Trainer{}
}

// TrainStatic averages the wrist-relative, size-normalized landmarks of
// every sample.
func (t *Trainer) TrainStatic(samples []json.RawMessage) ([]landmark.Point, error) {
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}

	sum := make([]landmark.Point, landmark.NumLandmarks)
	for i, raw := range samples {
		var sample StaticSample
		if err := json.Unmarshal(raw, &sample); err != nil {
			return nil, fmt.Errorf("parse sample %d: %w", i, err)
		}
		if len(sample.Landmarks) != landmark.NumLandmarks {
			return nil, fmt.Errorf("sample %d has %d landmarks, expected %d",
				i, len(sample.Landmarks), landmark.NumLandmarks)
		}

		for j, p := range landmark.Normalize(sample.Landmarks) {
			sum[j].X += p.X
			sum[j].Y += p.Y
			sum[j].Z += p.Z
		}
	}

	n := float64(len(samples))
	for j := range sum {
		sum[j].X /= n
		sum[j].Y /= n
		sum[j].Z /= n
	}
	return sum, nil
}

// TrainDynamic resamples every path to the length of the first one and
// averages them point by point.
func (t *Trainer) TrainDynamic(samples []json.RawMessage) ([]PathPoint, error) {
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}

	paths := make([][]PathPoint, 0, len(samples))
	for i, raw := range samples {
		var sample DynamicSample
		if err := json.Unmarshal(raw, &sample); err != nil {
			return nil, fmt.Errorf("parse sample %d: %w", i, err)
		}
		if len(sample.Path) < 2 {
			return nil, fmt.Errorf("sample %d has %d path points, need at least 2", i, len(sample.Path))
		}
		paths = append(paths, sample.Path)
	}

	length := len(paths[0])
	averaged := make([]PathPoint, length)
	for idx, path := range paths {
		resampled := resamplePath(path, length)
		for i, p := range resampled {
			averaged[i].X += p.X
			averaged[i].Y += p.Y
			if idx == 0 {
				averaged[i].Timestamp = p.Timestamp
			}
		}
	}

	n := float64(len(paths))
	for i := range averaged {
		averaged[i].X /= n
		averaged[i].Y /= n
	}
	return averaged, nil
}
