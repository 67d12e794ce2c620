package router

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-fullstack-go/internal/user"
	"github.com/ovaphlow/pitchfork/service-fullstack-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-fullstack-go/pkg/utilities"
)

// privateUserCreate is the unauthenticated seeding payload of local setups.
type privateUserCreate struct {
	Email      string  `json:"email" validate:"required,email,max=255"`
	Password   string  `json:"password" validate:"required,min=8,max=40"`
	FullName   *string `json:"full_name" validate:"omitempty,max=255"`
	IsVerified bool    `json:"is_verified"`
}

// registerPrivate mounts routes that only exist when ENVIRONMENT=local.
func registerPrivate(mux *http.ServeMux, prefix string, users *user.Service, logger *zap.SugaredLogger) {
	handle(mux, http.MethodPost, prefix+"/private/users/", func(w http.ResponseWriter, r *http.Request) {
		var in privateUserCreate
		if err := utilities.DecodeAndValidate(r, &in); err != nil {
			utilities.WriteError(w, logger, err)
			return
		}
		u, err := users.Create(r.Context(), entity.UserCreate{
			Email:    in.Email,
			Password: in.Password,
			FullName: in.FullName,
		})
		if err != nil {
			utilities.WriteError(w, logger, err)
			return
		}
		logger.Infow("private user created", "user_id", u.ID)
		utilities.WriteJSON(w, http.StatusOK, u.Public())
	})
}
