package api

import (
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/pkg/errors"
	"github.com/sksmith/stock-ledger/core/user"
)

type UserApi struct {
	service user.Service
}

func NewUserApi(service user.Service) *UserApi {
	return &UserApi{service: service}
}

func (a *UserApi) ConfigureRouter(r chi.Router) {
	r.With(AdminOnly).Post("/", a.Create)
}

type CreateUserRequestDto struct {
	*user.CreateUserRequest
	Password string `json:"password,omitempty"`
}

func (p *CreateUserRequestDto) Bind(_ *http.Request) error {
	if p.CreateUserRequest == nil || p.Username == "" || p.Password == "" {
		return errors.New("missing required field(s)")
	}

	p.CreateUserRequest.PlainTextPassword = p.Password

	return nil
}

type UserResponse struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
}

func (u *UserResponse) Render(_ http.ResponseWriter, _ *http.Request) error {
	return nil
}

func (a *UserApi) Create(w http.ResponseWriter, r *http.Request) {
	data := &CreateUserRequestDto{}
	if err := render.Bind(r, data); err != nil {
		Render(w, r, ErrInvalidRequest(err))
		return
	}

	usr, err := a.service.Create(r.Context(), *data.CreateUserRequest)
	if err != nil {
		Render(w, r, ErrFromService(err))
		return
	}

	render.Status(r, http.StatusCreated)
	Render(w, r, &UserResponse{Username: usr.Username, IsAdmin: usr.IsAdmin})
}
