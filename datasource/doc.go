// Package datasource turns a retrieval into a stream of fixed-size training
// batches.
//
// A DataSource owns an ordered, shuffled store of entities and assembles
// batches from it. With Workers=1 everything runs inline on the caller's
// goroutine. With Workers>1 a background filler walks the store cyclically
// into a bounded entity queue and a pool of workers materializes samples into
// a bounded sample queue; the bounded queues are the backpressure that keeps
// in-flight memory at O(queue_size). Close stops and joins the background
// units.
//
//	src, err := datasource.New(ctx, ret, factory,
//	    datasource.WithBatchSize(32),
//	    datasource.WithWorkers(4),
//	    datasource.WithControllers(controller.Single(normalize)),
//	)
//	defer src.Close()
//	batch, err := src.Next(ctx)
//
// Batch assembly never returns a short batch: it blocks until BatchSize
// samples are accepted, or fails explicitly once too many consecutive
// samples are rejected or failed.
package datasource
