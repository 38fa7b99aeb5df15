// Package storage archives generated assets in S3-compatible object storage.
package storage

import (
	"strconv"
	"time"
)

// GenerationKey is the object key of a voxel primitive set
func GenerationKey(taskID string) string {
	return "generations/" + taskID + ".json"
}

// VariantKey is the object key of a copied variant image
func VariantKey(productID string, now time.Time) string {
	return "variants/" + productID + "/" + strconv.FormatInt(now.UnixMilli(), 10) + ".png"
}
