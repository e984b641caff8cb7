package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netbar/billing-system/internal/core/domain"
	"github.com/netbar/billing-system/internal/core/ports"
)

type stubZoneService struct {
	created ports.ZoneInput
	names   map[string]bool
	delErr  error
}

func (s *stubZoneService) Create(_ context.Context, in ports.ZoneInput) (*domain.Zone, error) {
	s.created = in
	return &domain.Zone{ID: 1, Name: in.Name, Capacity: in.Capacity, PricePerHour: in.PricePerHour}, nil
}

func (s *stubZoneService) Get(_ context.Context, id int64) (*domain.Zone, error) {
	return &domain.Zone{ID: id}, nil
}

func (s *stubZoneService) Update(_ context.Context, id int64, in ports.ZoneInput) (*domain.Zone, error) {
	return &domain.Zone{ID: id, Name: in.Name}, nil
}

func (s *stubZoneService) Delete(context.Context, int64) error { return s.delErr }

func (s *stubZoneService) List(context.Context) ([]*domain.Zone, error) {
	return []*domain.Zone{{ID: 1, Name: "Hall"}}, nil
}

func (s *stubZoneService) NameExists(_ context.Context, name string) (bool, error) {
	return s.names[name], nil
}

func TestZoneHandler_Create(t *testing.T) {
	zones := &stubZoneService{}
	h := NewZoneHandler(zones)

	c, rec := newContext(http.MethodPost, "/api/zones", `{"name":"VIP","capacity":10,"pricePerHour":8,"description":"quiet room"}`, adminClaims)
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, ports.ZoneInput{Name: "VIP", Capacity: 10, PricePerHour: 8, Description: "quiet room"}, zones.created)
}

func TestZoneHandler_Create_FreeZoneRejected(t *testing.T) {
	h := NewZoneHandler(&stubZoneService{})

	c, _ := newContext(http.MethodPost, "/api/zones", `{"name":"VIP","capacity":10,"pricePerHour":0}`, adminClaims)
	var he *echo.HTTPError
	require.True(t, errors.As(h.Create(c), &he))
	assert.Equal(t, http.StatusUnprocessableEntity, he.Code)
}

func TestZoneHandler_CheckName(t *testing.T) {
	h := NewZoneHandler(&stubZoneService{names: map[string]bool{"Hall": true}})

	c, rec := newContext(http.MethodGet, "/api/zones/check/Hall", "", adminClaims)
	withParams(c, "name", "Hall")
	require.NoError(t, h.CheckName(c))
	assert.JSONEq(t, `{"exists":true}`, rec.Body.String())
}

func TestZoneHandler_Delete_NotEmpty(t *testing.T) {
	h := NewZoneHandler(&stubZoneService{delErr: domain.ErrZoneNotEmpty})

	c, _ := newContext(http.MethodDelete, "/api/zones/1", "", adminClaims)
	withParams(c, "id", "1")
	assert.ErrorIs(t, h.Delete(c), domain.ErrZoneNotEmpty)
}
