package models

import "fmt"

// CoverKey identifies one artwork lookup.
type CoverKey struct {
	Source    Source
	PictureID string
	Size      int
}

// String renders the key as `source-pictureID-size`.
func (k CoverKey) String() string {
	return fmt.Sprintf("%s-%s-%d", k.Source, k.PictureID, k.Size)
}
