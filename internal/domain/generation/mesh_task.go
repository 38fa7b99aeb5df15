package generation

// MeshTaskStatus is the lifecycle status of an image-to-3D job
type MeshTaskStatus string

const (
	MeshTaskPending    MeshTaskStatus = "PENDING"
	MeshTaskInProgress MeshTaskStatus = "IN_PROGRESS"
	MeshTaskSucceeded  MeshTaskStatus = "SUCCEEDED"
	MeshTaskFailed     MeshTaskStatus = "FAILED"
	MeshTaskExpired    MeshTaskStatus = "EXPIRED"
)

// IsFinal returns true if the job will not change status any more
func (s MeshTaskStatus) IsFinal() bool {
	switch s {
	case MeshTaskSucceeded, MeshTaskFailed, MeshTaskExpired:
		return true
	default:
		return false
	}
}

// MeshModelURLs holds the downloadable model formats of a finished job
type MeshModelURLs struct {
	GLB  string `json:"glb"`
	USDZ string `json:"usdz"`
}

// MeshTask is the state of an image-to-3D job
type MeshTask struct {
	ID           string         `json:"id"`
	Status       MeshTaskStatus `json:"status"`
	Progress     int            `json:"progress"`
	ModelURLs    MeshModelURLs  `json:"model_urls"`
	ThumbnailURL string         `json:"thumbnail_url"`
}
