// Package generation contains the 3D preview generation context.
//
// Key concepts:
//   - Primitive: a geometric shape descriptor returned by a vision model
//   - Mode: real (vision model pipeline) or mock (deterministic demo assets)
//   - Record: one entry of the generation history ledger
//   - MeshTask: an asynchronous image-to-3D job on the mesh provider
package generation
