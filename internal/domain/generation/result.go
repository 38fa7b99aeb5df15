package generation

// Result is the outcome of a generation request
type Result struct {
	Success    bool        `json:"success"`
	Mode       Mode        `json:"mode"`
	Message    string      `json:"message"`
	ModelURL   string      `json:"modelUrl,omitempty"`
	VoxelData  []Primitive `json:"voxelData,omitempty"`
	TaskID     string      `json:"taskId,omitempty"`
	ArchiveKey string      `json:"archiveKey,omitempty"`
}

// Result messages
const (
	MessageVoxelGenerated = "Voxel Model Generated"
	MessageMockGenerated  = "Model generated (Mock)"
)

// ActionResult is the {success, message} envelope returned by store and
// campaign actions.
type ActionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// VariantResult is the outcome of a product variant image request
type VariantResult struct {
	Success    bool   `json:"success"`
	ImageURL   string `json:"imageUrl,omitempty"`
	Message    string `json:"message"`
	ArchiveKey string `json:"archiveKey,omitempty"`
}
