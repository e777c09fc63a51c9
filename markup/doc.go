// Package markup parses the restricted indentation-based text format used by
// pipeline manifests.
//
// The format is a small subset of block-style YAML: nested mappings
// (`key: value`), sequences (`- item`), and scalars (booleans, null, numbers,
// quoted or plain strings). Anchors, flow collections, block scalars and
// multi-document streams are not supported.
//
// # Usage
//
//	root, err := markup.Parse(text)
//	if err != nil {
//	    return err
//	}
//	id, _ := markup.Lookup(root, "project", "id")
//
// Parse always returns a *Mapping root. Nodes form a closed sum type: every
// Node is a *Mapping, a *Sequence, or a Scalar.
package markup
