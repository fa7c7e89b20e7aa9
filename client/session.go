package client

import (
	"github.com/yeremiapane/pizzeria-app/cart"
)

// TokenKey is the storage name of the bearer token.
const TokenKey = "token"

// Session is the client-held state of one user: the bearer token and the
// cart, both persisted in the same storage.
type Session struct {
	storage cart.Storage
	token   string
	cart    *cart.Cart
}

func NewSession(storage cart.Storage, cartOpts ...cart.Option) *Session {
	s := &Session{storage: storage}
	if token, ok, err := storage.Get(TokenKey); err == nil && ok {
		s.token = token
	}
	s.cart = cart.Load(storage, cartOpts...)
	return s
}

func (s *Session) Token() string { return s.token }

func (s *Session) LoggedIn() bool { return s.token != "" }

func (s *Session) SetToken(token string) error {
	s.token = token
	return s.storage.Set(TokenKey, token)
}

func (s *Session) ClearToken() error {
	s.token = ""
	return s.storage.Remove(TokenKey)
}

func (s *Session) Cart() *cart.Cart { return s.cart }
