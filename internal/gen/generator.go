// Package gen talks to the external image generation service and keeps
// the read-only dispatch log.
//
// The collaborator is a black box: prompt plus optional context image
// in, image out, fallible, unspecified latency. The core never retries;
// a failure propagates to the committing operation, which aborts and
// leaves the scene untouched.
package gen

import (
	"context"
	"errors"
	"image"
)

// Generator produces an image for a prompt, optionally conditioned on a
// context image. contextImg may be nil for unconstrained requests.
type Generator interface {
	Generate(ctx context.Context, prompt string, contextImg image.Image) (image.Image, error)
}

var (
	// ErrNoImagePayload is returned when the service responds without
	// a usable image.
	ErrNoImagePayload = errors.New("gen: response carried no image payload")

	// ErrInFlight rejects a dispatch while another request is
	// pending. Concurrent pending generations would race their
	// captured contexts against each other's commits, so the client
	// enforces single-flight.
	ErrInFlight = errors.New("gen: a generation request is already in flight")
)

// Func adapts a function to the Generator interface, mainly for tests.
type Func func(ctx context.Context, prompt string, contextImg image.Image) (image.Image, error)

// Generate implements Generator.
func (f Func) Generate(ctx context.Context, prompt string, contextImg image.Image) (image.Image, error) {
	return f(ctx, prompt, contextImg)
}
