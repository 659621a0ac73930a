// Package shufflr provides label-aware data access for training pipelines.
//
// A Store is a keyed durable collection of labeled items with three derived
// tables (key manifest, label enum, index table) that are invalidated on
// every mutation and lazily rebuilt by a full scan. Sources pull (key, item)
// pairs out of a store or any other producer; a Cache keeps a bounded,
// randomly-refreshing in-memory sample of a source; LabelBatch and
// PairedBatch snapshot fixed-size batches with stacked values, labels and
// label-balanced index pairs.
//
// # Quick Start
//
// Open a store on a local directory and fill it:
//
//	ctx := context.Background()
//	db, err := shufflr.Open(shufflr.Local("./data"))
//	if err != nil {
//	    panic(err)
//	}
//	defer db.Close()
//
//	item := model.Item{
//	    Kind:   model.KindSample,
//	    Value:  spectrogram,
//	    Labels: map[string][]string{"chord": {"Amaj"}},
//	}
//	if err := db.Add(ctx, "takes/001", item); err != nil {
//	    panic(err)
//	}
//
// Stream batches through a cache:
//
//	src, err := db.KeySource(ctx, store.WithShuffleSeed(42))
//	c, err := cache.New(ctx, src, cache.WithCacheSize(10_000))
//	pb, err := batch.NewPaired(c, 64, "chord", []int{96, 96})
//	for step := 0; step < steps; step++ {
//	    if err := pb.Refresh(ctx); err != nil {
//	        break
//	    }
//	    train(pb)
//	}
//
// Remote backends (S3 or MinIO) plug in through the entry.Store interface;
// see entry/s3 and entry/minio.
package shufflr
