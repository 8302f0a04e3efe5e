// Package cleanup carries best-effort image deletions from the API process
// to the worker. Jobs are single-shot: a failed destroy is logged and
// dropped, never retried.
package cleanup

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Queue is the redis list the producer and worker agree on.
const Queue = "brocante:image_cleanup"

var (
	ErrInvalidJob = errors.New("invalid cleanup job")
)

type Job struct {
	ID       string    `json:"id"`
	PublicID string    `json:"publicId"`
	OfferID  string    `json:"offerId,omitempty"` // correlation only
	Enqueued time.Time `json:"enqueuedAt"`
}

func NewJob(publicID, offerID string) Job {
	return Job{
		ID:       uuid.NewString(),
		PublicID: publicID,
		OfferID:  offerID,
		Enqueued: time.Now().UTC(),
	}
}

func Encode(j Job) ([]byte, error) {
	if j.PublicID == "" {
		return nil, fmt.Errorf("%w: missing public id", ErrInvalidJob)
	}

	return json.Marshal(j)
}

func Decode(raw []byte) (Job, error) {
	if len(raw) == 0 {
		return Job{}, ErrInvalidJob
	}

	var j Job

	if err := json.Unmarshal(raw, &j); err != nil {
		return Job{}, fmt.Errorf("%w: %v", ErrInvalidJob, err)
	}

	if j.PublicID == "" {
		return Job{}, fmt.Errorf("%w: missing public id", ErrInvalidJob)
	}

	return j, nil
}
