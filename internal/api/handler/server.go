package handler

import (
	"net/http"
	"time"

	"github.com/edvin/vmfleet/internal/api/request"
	"github.com/edvin/vmfleet/internal/api/response"
	"github.com/edvin/vmfleet/internal/core"
	"github.com/edvin/vmfleet/internal/model"
	"github.com/edvin/vmfleet/internal/platform"
	"github.com/go-chi/chi/v5"
)

type Server struct {
	svc *core.ServerService
}

func NewServer(services *core.Services) *Server {
	return &Server{svc: services.Server}
}

// List godoc
//
//	@Summary		List servers
//	@Description	Returns all managed hosts.
//	@Tags			Servers
//	@Success		200 {array} model.Server
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/servers [get]
func (h *Server) List(w http.ResponseWriter, r *http.Request) {
	servers, err := h.svc.List(r.Context())
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	response.WriteJSON(w, http.StatusOK, servers)
}

// Create godoc
//
//	@Summary		Register a server
//	@Description	Registers a host with the fleet. PVE and PBS hosts need an API token for control-plane calls.
//	@Tags			Servers
//	@Param			body body request.CreateServer true "Server details"
//	@Success		201 {object} model.Server
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/servers [post]
func (h *Server) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateServer
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	port := req.Port
	if port == 0 {
		port = 22
	}

	now := time.Now().UTC()
	server := &model.Server{
		ID:        platform.NewID(),
		Name:      req.Name,
		Host:      req.Host,
		Port:      port,
		SSHUser:   req.SSHUser,
		Type:      req.Type,
		APIToken:  req.APIToken,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.svc.Create(r.Context(), server); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusCreated, server)
}

// Get godoc
//
//	@Summary		Get a server
//	@Description	Returns a single server by ID.
//	@Tags			Servers
//	@Param			id path string true "Server ID"
//	@Success		200 {object} model.Server
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/servers/{id} [get]
func (h *Server) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	server, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, server)
}

// Update godoc
//
//	@Summary		Update a server
//	@Description	Replaces a server's connection details.
//	@Tags			Servers
//	@Param			id path string true "Server ID"
//	@Param			body body request.UpdateServer true "Server updates"
//	@Success		200 {object} model.Server
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/servers/{id} [put]
func (h *Server) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.UpdateServer
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	server, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	server.Name = req.Name
	server.Host = req.Host
	if req.Port != 0 {
		server.Port = req.Port
	}
	server.SSHUser = req.SSHUser
	server.Type = req.Type
	if req.APIToken != nil {
		server.APIToken = req.APIToken
	}

	if err := h.svc.Update(r.Context(), server); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, server)
}

// Delete godoc
//
//	@Summary		Remove a server
//	@Description	Removes a host from the fleet. Jobs referencing it keep running and fail at dispatch.
//	@Tags			Servers
//	@Param			id path string true "Server ID"
//	@Success		204
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/servers/{id} [delete]
func (h *Server) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.svc.GetByID(r.Context(), id); err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
