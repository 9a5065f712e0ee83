package utils

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	storage "github.com/supabase-community/storage-go"
)

const exportBucket = "survey_exports"

// UploadArtifact uploads a generated export artifact to the Supabase storage
// bucket and returns its public URL. Requires SUPABASE_URL and SUPABASE_KEY.
func UploadArtifact(data []byte, objectPath, contentType string) (string, error) {
	supabaseURL := os.Getenv("SUPABASE_URL")
	supabaseKey := os.Getenv("SUPABASE_KEY")
	if supabaseURL == "" || supabaseKey == "" {
		return "", errors.New("supabase storage is not configured")
	}

	client := storage.NewClient(supabaseURL+"/storage/v1", supabaseKey, nil)

	upsert := true
	options := storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	}
	if _, err := client.UploadFile(exportBucket, objectPath, bytes.NewReader(data), options); err != nil {
		return "", fmt.Errorf("upload %s: %w", objectPath, err)
	}

	publicURL := client.GetPublicUrl(exportBucket, objectPath)
	return publicURL.SignedURL, nil
}

// StorageConfigured reports whether artifact uploads are possible.
func StorageConfigured() bool {
	return os.Getenv("SUPABASE_URL") != "" && os.Getenv("SUPABASE_KEY") != ""
}
