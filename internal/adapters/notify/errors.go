package notify

import (
	"fmt"

	"github.com/kevin07696/recurringhub/internal/domain"
)

func unavailable(provider string, err error) error {
	return domain.WrapError(domain.ErrorCodeNotifierUnavailable,
		fmt.Sprintf("%s notifier unavailable", provider), err).
		WithDetail("provider", provider)
}

func rejected(provider, reason string) error {
	return domain.NewDomainError(domain.ErrorCodeNotifierRejected, reason).
		WithDetail("provider", provider)
}

// isTransient reports whether another attempt could succeed
func isTransient(err error) bool {
	return domain.IsDomainError(err, domain.ErrorCodeNotifierUnavailable)
}
