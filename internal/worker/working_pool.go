package worker

import (
	"context"
	"log"
	"sync"
	"time"
)

// Job is a unit of background work. The context is the pool's lifetime.
type Job func(ctx context.Context) error

type WorkingPool struct {
	NumWorkers int
	jobChan    chan Job
}

func NewWorkingPool(numWorkers int, queueSize int) *WorkingPool {
	return &WorkingPool{
		NumWorkers: numWorkers,
		jobChan:    make(chan Job, queueSize),
	}
}

func (p *WorkingPool) SubmitJob(job Job) {
	p.jobChan <- job
}

// SubmitAfter schedules a job to enter the queue after the given delay. The
// moderation pipeline uses this to hold auto-finalization for a grace period.
// The job is dropped when the context ends before the send completes, so a
// timer firing during shutdown never touches a dead pool.
func (p *WorkingPool) SubmitAfter(ctx context.Context, delay time.Duration, job Job) {
	go func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-timer.C:
			select {
			case p.jobChan <- job:
			case <-ctx.Done():
			}
		case <-ctx.Done():
		}
	}()
}

// Start runs the workers until the context ends. The job channel is never
// closed: SubmitAfter timers may still be pending at shutdown, and a send on
// a closed channel would panic the process. Workers exit on ctx.Done alone.
func (p *WorkingPool) Start(ctx context.Context, managerWg *sync.WaitGroup) {
	defer managerWg.Done() // Tell manager we are done

	var workerWg sync.WaitGroup

	// Start all the workers
	for i := range p.NumWorkers {
		workerWg.Add(1)
		go p.worker(ctx, &workerWg, i+1)
	}

	// Wait for the manager to signal shutdown
	<-ctx.Done()
	log.Println("[WorkingPool] Shutdown signaled. Waiting for workers.")

	// Wait for all workers to finish their current job and exit
	workerWg.Wait()
	log.Println("[WorkingPool] All workers stopped.")
}

// worker is the internal goroutine for a single worker
func (p *WorkingPool) worker(ctx context.Context, wg *sync.WaitGroup, id int) {
	defer wg.Done()

	for {
		select {
		case job := <-p.jobChan:
			p.safeExecution(ctx, job, id)

		case <-ctx.Done():
			// Exit IMMEDIATELY, even if jobs are still queued.
			log.Printf("[WorkingPool-Worker %d] Context canceled. Exiting.\n", id)
			return
		}
	}
}

func (p *WorkingPool) JobChan() chan<- Job {
	return p.jobChan
}

func (p *WorkingPool) safeExecution(ctx context.Context, job Job, workerID int) error {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[WorkingPool-Worker %d] FATAL: Panic recovered in job: %v\n", workerID, r)
		}
	}()

	err := job(ctx)
	if err != nil {
		log.Printf("[WorkingPool-Worker %d] Error executing job: %s.\n", workerID, err)
	}
	return err
}
