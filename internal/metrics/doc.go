// Package metrics provides build observability for the course builder.
//
// Components receive a Recorder and default to NoopRecorder, so no nil checks
// are needed anywhere in the pipeline:
//
//	recorder := metrics.NewPrometheusRecorder(nil)
//	builder := build.New(opts, build.WithRecorder(recorder))
//
// After a build the Prometheus recorder can be dumped in the node-exporter
// textfile format (WriteTextfile) or served over HTTP (HTTPHandler) by the
// preview server.
package metrics
