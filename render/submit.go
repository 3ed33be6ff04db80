// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/wgpu/hal"
)

// ErrSubmitTimeout is returned when a submission does not complete within
// the configured timeout.
var ErrSubmitTimeout = errors.New("render: GPU submission timed out")

// submitter submits command buffers and awaits their completion by
// polling the queue's completed index.
//
// A command buffer whose completion was never observed (timeout or
// cancellation) is retired rather than freed. Retired buffers are freed
// once a later submission completes, since the queue completes in order,
// or on release after the device goes idle.
type submitter struct {
	device  hal.Device
	queue   hal.Queue
	poll    time.Duration
	timeout time.Duration
	retired []hal.CommandBuffer
}

func newSubmitter(device hal.Device, queue hal.Queue, poll, timeout time.Duration) *submitter {
	return &submitter{device: device, queue: queue, poll: poll, timeout: timeout}
}

// submitAndWait submits cmd and blocks until the GPU reports it complete,
// ctx is done, or the timeout elapses.
func (s *submitter) submitAndWait(ctx context.Context, cmd hal.CommandBuffer) error {
	idx, err := s.queue.Submit([]hal.CommandBuffer{cmd})
	if err != nil {
		s.device.FreeCommandBuffer(cmd)
		return fmt.Errorf("submit: %w", err)
	}
	if err := s.await(ctx, idx); err != nil {
		s.retired = append(s.retired, cmd)
		return err
	}
	s.device.FreeCommandBuffer(cmd)
	s.freeRetired()
	return nil
}

func (s *submitter) await(ctx context.Context, idx uint64) error {
	if s.queue.PollCompleted() >= idx {
		return nil
	}

	deadline := time.NewTimer(s.timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("%w after %v (submission %d)", ErrSubmitTimeout, s.timeout, idx)
		case <-ticker.C:
			if s.queue.PollCompleted() >= idx {
				return nil
			}
		}
	}
}

func (s *submitter) freeRetired() {
	for _, cmd := range s.retired {
		s.device.FreeCommandBuffer(cmd)
	}
	s.retired = s.retired[:0]
}

// release waits for the device to go idle and frees retired buffers.
func (s *submitter) release() {
	if len(s.retired) == 0 {
		return
	}
	if err := s.device.WaitIdle(); err != nil {
		// The GPU may still read them; leak.
		return
	}
	s.freeRetired()
}
