// Package gltfx provides programmatic editing of glTF 2.0 scene files.
//
// Documents are loaded into an in-memory object graph (package core),
// mutated by transforms, and re-serialized (package gltfio). The flagship
// transform is Weld: it merges vertices that are numerically
// indistinguishable within per-semantic tolerances and rebuilds the
// primitive's attribute and index buffers to the reduced vertex count.
//
// # Quick start
//
//	ctx := context.Background()
//
//	doc, err := gltfio.NewReader().ReadFile(ctx, "scene.glb")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	err = gltfx.NewPipeline(
//	    gltfx.WithLogLevel(slog.LevelInfo),
//	).Run(ctx, doc,
//	    gltfx.Weld(func(o *gltfx.WeldOptions) {
//	        o.Tolerance = 1e-4
//	    }),
//	    gltfx.Dedup(),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	err = gltfio.NewWriter().WriteFile(ctx, doc, "scene.welded.glb")
//
// # Welding
//
// Weld processes each primitive independently. Vertex positions are bucketed
// into a cubic grid whose cell size equals the resolved position tolerance,
// so candidate lookup stays near-linear instead of comparing all pairs. Two
// vertices merge only when every base attribute and every morph-target
// attribute matches component-wise within its semantic's tolerance; skinning
// joint indices always require an exact match. Matching is greedy in
// ascending original-index order, which makes the result deterministic.
//
// A Weld with Tolerance 0 performs no merging at all: it only adds an
// identity index buffer to non-indexed primitives.
//
// # Observability
//
// Pipelines accept a structured Logger (log/slog) and a MetricsCollector.
// Both default to no-ops; neither affects transform semantics.
package gltfx
