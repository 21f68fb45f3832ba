// Package build runs the course build pipeline.
//
// A build resolves the project configuration, classifies the content tree and
// then renders every document once per target:
//
//   - TargetWeb writes HTML pages to build/web, with solutions shown and math
//     either precompiled with KaTeX or left for the browser;
//   - TargetNotebook writes notebooks (or markdown) to build/source, with
//     solutions replaced by placeholders.
//
// Documents are processed by a bounded worker pool. A failing document never
// stops the others; failures are collected and reported together, and the
// build returns an error classified as DocumentsFailed.
package build
