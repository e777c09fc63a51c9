// Package manifest reads pipeline manifests and runs their steps.
//
// A manifest is a markup document with a project identifier and an ordered
// list of steps:
//
//	project:
//	  id: demo
//	steps:
//	  - name: build
//	  - name: test
//
// The Runner walks the steps in order, reporting each lifecycle transition
// to a Notifier, and stops at the first failing step.
//
//	r := manifest.NewRunner(notifier, manifest.WithCorrelationID(id))
//	if err := r.Run(ctx, "pipeline/manifest.yml"); err != nil {
//	    os.Exit(errors.ExitCode(err))
//	}
package manifest
