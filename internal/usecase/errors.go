package usecase

import (
	"errors"

	"github.com/ElHadji11/farmconnect-backend/internal/domain"
)

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
