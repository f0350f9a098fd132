package domain

// VectorConfig holds internal vectorization settings, not exposed to clients.
type VectorConfig struct {
	Model             string
	Dimensions        int
	MaxFrames         int
	QueryInstruction  string
	MaxMediaSizeBytes int64
}

// DefaultVectorConfig returns the default configuration tuned for CLIP ViT-B/32.
func DefaultVectorConfig() VectorConfig {
	return VectorConfig{
		Model:             "clip-vit-base-patch32",
		Dimensions:        512,
		MaxFrames:         5,
		QueryInstruction:  "",
		MaxMediaSizeBytes: 8 << 20,
	}
}
