package claim

import (
	"github.com/coverbase/claims/internal/claim/repository"
	"github.com/coverbase/claims/internal/claim/service"
	"go.uber.org/fx"
)

var Module = fx.Module("claim.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
