package repositories

import (
	"context"

	"github.com/vidtube/backend/internal/models"
)

// LikeRepository exposes the toggle contract for likes. Toggle reports the
// affected row and whether the relation exists after the call: liked=true
// means the like was created (or already present), liked=false means an
// existing like was removed.
type LikeRepository interface {
	Toggle(ctx context.Context, likedBy, target, targetID string) (models.Like, bool, error)
}
