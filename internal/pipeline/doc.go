// Package pipeline runs a documentation site build as a sequence of steps.
//
// # Architecture
//
// A Build carries the validated SiteConfig, the run Options, the document
// tree and the BuildReport. Steps run in order against the same Build:
//
//	IndexDocsStep -> NavbarStep -> DocLinkStep -> HyperlinkStep -> [StylesheetStep] -> EnforceStep
//
// Link checking steps never fail on a broken reference; they record it with
// Build.Found together with the policy configured for its kind. EnforceStep
// then applies the policies in one place:
//
//   - ignore: the reference is dropped and only counted
//   - warn: one warning is logged and the reference is reported
//   - fail: the reference is reported and the build fails with a
//     *LinkIntegrityError listing all of them
//
// Navbar doc references and stylesheet integrity are not links: a problem
// with either fails the build regardless of policy.
//
// # Concurrency
//
// StylesheetStep downloads stylesheets in parallel using errgroup with a
// bounded limit. Everything else is sequential.
//
// # Usage
//
//	b := pipeline.NewBuild(cfg, opts, docsDir)
//	err := pipeline.DefaultPipeline(opts, logger).Execute(ctx, b)
//	var broken *pipeline.LinkIntegrityError
//	if errors.As(err, &broken) {
//		// broken.Links
//	}
package pipeline
