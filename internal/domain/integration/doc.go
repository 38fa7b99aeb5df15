// Package integration contains the ports to the external platforms the studio
// talks to: the storefront, the marketing platform and the generative models.
//
// Key concepts:
//   - Storefront: Port for reading products from and writing metafields to a store
//   - MarketingTracker: Port for tracking studio events and reading them back
//   - VisionAnalyzer, GeometryGenerator, ImageGenerator: ports to generative models
//   - MeshGenerator: Port for asynchronous image-to-3D jobs
//   - StoreCredentials: per-request store session
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package integration
