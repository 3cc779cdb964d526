package repositories

import (
	"context"
	"errors"

	"github.com/satriahrh/gymbuddy/domain/entities"
)

// ErrNoPoseDetected is returned when the image contains no recognisable body.
var ErrNoPoseDetected = errors.New("no pose detected")

// PoseEstimator extracts 3D landmarks from a single encoded image.
type PoseEstimator interface {
	EstimatePose(ctx context.Context, image []byte) ([]entities.PoseLandmark, error)
}
