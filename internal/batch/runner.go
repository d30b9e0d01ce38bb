// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

package batch

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/glslpost"
	"github.com/gogpu/glslpost/spv"
)

// Processor runs the pipeline for one shader. *glslpost.PostProcessor
// implements it.
type Processor interface {
	Process(source string, req glslpost.Request, out glslpost.Outputs) error
}

// Runner processes jobs concurrently.
type Runner struct {
	// ProcessorFor returns the processor for a job, so that WGSL and GLSL
	// inputs can use different front-ends.
	ProcessorFor func(Job) (Processor, error)

	// Workers bounds the number of shaders processed at once.
	Workers int

	// Stdout receives outputs whose path is "-". Nil means os.Stdout.
	Stdout io.Writer

	Log *zap.Logger

	stdoutMu sync.Mutex
}

// Result is the outcome of one job.
type Result struct {
	Job      Job
	Err      error
	Duration time.Duration
}

// Run processes every job and returns one result per job, in job order. A
// failing job does not stop the others; a cancelled context does.
func (r *Runner) Run(ctx context.Context, jobs []Job) []Result {
	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}
	workers := r.Workers
	if workers < 1 {
		workers = 1
	}

	results := make([]Result, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, job := range jobs {
		g.Go(func() error {
			results[i].Job = job
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			start := time.Now()
			err := r.runJob(job)
			results[i].Duration = time.Since(start)
			results[i].Err = err
			if err != nil {
				log.Error("shader failed", zap.String("shader", job.Name), zap.Error(err))
			} else {
				log.Info("shader processed", zap.String("shader", job.Name), zap.Duration("took", results[i].Duration))
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (r *Runner) runJob(job Job) error {
	if r.ProcessorFor == nil {
		return errors.New("batch: no processor")
	}
	p, err := r.ProcessorFor(job)
	if err != nil {
		return err
	}
	source, err := os.ReadFile(job.Input)
	if err != nil {
		return errors.Wrap(err, "failed to read shader")
	}

	var (
		glsl, msl string
		blob      spv.Blob
		out       glslpost.Outputs
	)
	if job.Outputs.GLSL != "" {
		out.GLSL = &glsl
	}
	if job.Outputs.SPIRV != "" {
		out.SPIRV = &blob
	}
	if job.Outputs.MSL != "" {
		out.MSL = &msl
	}
	if err := p.Process(string(source), job.Request, out); err != nil {
		return err
	}

	if out.GLSL != nil {
		if err := r.write(job.Outputs.GLSL, []byte(glsl)); err != nil {
			return err
		}
	}
	if out.SPIRV != nil {
		if err := r.write(job.Outputs.SPIRV, blob.Bytes()); err != nil {
			return err
		}
	}
	if out.MSL != nil {
		if err := r.write(job.Outputs.MSL, []byte(msl)); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) write(path string, data []byte) error {
	if path == Stdout {
		r.stdoutMu.Lock()
		defer r.stdoutMu.Unlock()
		w := r.Stdout
		if w == nil {
			w = os.Stdout
		}
		_, err := w.Write(data)
		return errors.Wrap(err, "failed to write output")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "failed to create output directory")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write output")
	}
	return nil
}

// Failed returns an error naming every failed job, or nil.
func Failed(results []Result) error {
	var errs error
	n := 0
	for _, res := range results {
		if res.Err != nil {
			n++
			errs = errors.CombineErrors(errs, errors.Wrap(res.Err, res.Job.Name))
		}
	}
	if errs == nil {
		return nil
	}
	return errors.Wrapf(errs, "%d of %d shaders failed", n, len(results))
}
