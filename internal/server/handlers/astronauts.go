package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/agentstation/astronauts/internal/server/response"
	"github.com/agentstation/astronauts/pkg/astronauts"
	pkgerrors "github.com/agentstation/astronauts/pkg/errors"
	"github.com/agentstation/astronauts/pkg/logging"
)

// HandleListAstronauts handles GET /astronauts.
// @Summary List astronauts
// @Description List every astronaut in insertion order
// @Tags astronauts
// @Produce json
// @Success 200 {object} response.Response{payload=[]astronauts.Astronaut}
// @Router /astronauts [get].
func (h *Handlers) HandleListAstronauts(w http.ResponseWriter, _ *http.Request) {
	result := h.cached("astronauts:list", func() any {
		return h.store.List()
	})

	response.OK(w, result)
}

// HandleGetAstronaut handles GET /astronauts/{id}.
// @Summary Get astronaut by ID
// @Tags astronauts
// @Produce json
// @Param id path string true "Astronaut ID"
// @Success 200 {object} response.Response{payload=astronauts.Astronaut}
// @Failure 404 {object} response.Response{payload=string}
// @Router /astronauts/{id} [get].
func (h *Handlers) HandleGetAstronaut(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	a, ok := h.store.Get(id)
	if !ok {
		response.ErrorFromType(w, pkgerrors.NewNotFoundError(astronauts.Resource, id))
		return
	}

	response.OK(w, a)
}

// HandleCreateAstronaut handles POST /astronauts.
// @Summary Create astronaut
// @Tags astronauts
// @Accept json
// @Produce json
// @Param astronaut body astronauts.Astronaut true "Astronaut to create"
// @Success 201 {object} response.Response{payload=astronauts.Astronaut}
// @Failure 400 {object} response.Response{payload=string}
// @Failure 409 {object} response.Response{payload=string}
// @Router /astronauts [post].
func (h *Handlers) HandleCreateAstronaut(w http.ResponseWriter, r *http.Request) {
	var a astronauts.Astronaut
	if err := decodeBody(w, r, &a); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	created, err := h.store.Create(a)
	if err != nil {
		logging.FromContext(r.Context()).Debug().Err(err).Str("astronaut_id", a.ID).Msg("Create rejected")
		response.ErrorFromType(w, err)
		return
	}

	logMutation(r, "create", created.ID)
	response.Created(w, created)
}

// HandleReplaceAstronaut handles PUT /astronauts/{id}.
// @Summary Replace astronaut
// @Description Overwrite every field of an astronaut. The body id, when
// @Description present, must match the path id.
// @Tags astronauts
// @Accept json
// @Produce json
// @Param id path string true "Astronaut ID"
// @Param astronaut body astronauts.Astronaut true "Replacement record"
// @Success 200 {object} response.Response{payload=astronauts.Astronaut}
// @Failure 400 {object} response.Response{payload=string}
// @Failure 404 {object} response.Response{payload=string}
// @Router /astronauts/{id} [put].
func (h *Handlers) HandleReplaceAstronaut(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var a astronauts.Astronaut
	if err := decodeBody(w, r, &a); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	if a.ID != "" && a.ID != id {
		response.ErrorFromType(w, pkgerrors.NewValidationError("id", a.ID, "must match the id in the path"))
		return
	}
	a.ID = id
	if err := a.Validate(); err != nil {
		response.ErrorFromType(w, err)
		return
	}

	replaced, ok := h.store.Replace(id, a)
	if !ok {
		response.ErrorFromType(w, pkgerrors.NewNotFoundError(astronauts.Resource, id))
		return
	}

	logMutation(r, "replace", id)
	response.OK(w, replaced)
}

// HandleUpdateAstronaut handles PATCH /astronauts/{id}.
// @Summary Update astronaut
// @Description Merge the supplied top-level fields into an astronaut
// @Tags astronauts
// @Accept json
// @Produce json
// @Param id path string true "Astronaut ID"
// @Param patch body astronauts.Patch true "Fields to change"
// @Success 200 {object} response.Response{payload=astronauts.Astronaut}
// @Failure 400 {object} response.Response{payload=string}
// @Failure 404 {object} response.Response{payload=string}
// @Router /astronauts/{id} [patch].
func (h *Handlers) HandleUpdateAstronaut(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var p astronauts.Patch
	if err := decodeBody(w, r, &p); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	if err := p.Validate(id); err != nil {
		response.ErrorFromType(w, err)
		return
	}

	updated, ok := h.store.Update(id, p)
	if !ok {
		response.ErrorFromType(w, pkgerrors.NewNotFoundError(astronauts.Resource, id))
		return
	}

	logMutation(r, "update", id)
	response.OK(w, updated)
}

// HandleDeleteAstronaut handles DELETE /astronauts/{id}.
// @Summary Delete astronaut
// @Tags astronauts
// @Produce json
// @Param id path string true "Astronaut ID"
// @Success 200 {object} response.Response{payload=astronauts.Astronaut}
// @Failure 404 {object} response.Response{payload=string}
// @Router /astronauts/{id} [delete].
func (h *Handlers) HandleDeleteAstronaut(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	removed, ok := h.store.Delete(id)
	if !ok {
		response.ErrorFromType(w, pkgerrors.NewNotFoundError(astronauts.Resource, id))
		return
	}

	logMutation(r, "delete", id)
	response.OK(w, removed)
}

// HandleSearchAstronauts handles GET /astronauts/search/{name}.
// @Summary Search astronauts by name
// @Description Case-insensitive substring match on first or last name
// @Tags astronauts
// @Produce json
// @Param name path string true "Name fragment"
// @Success 200 {object} response.Response{payload=[]astronauts.Astronaut}
// @Router /astronauts/search/{name} [get].
func (h *Handlers) HandleSearchAstronauts(w http.ResponseWriter, r *http.Request) {
	// Not cached: every distinct name would add a key.
	response.OK(w, h.store.SearchByName(r.PathValue("name")))
}

// MethodNotAllowed returns a handler answering 405 with the given Allow list.
func MethodNotAllowed(allowed ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.MethodNotAllowed(w, r.Method, allowed...)
	}
}

// HandleNotFound answers requests that match no route.
func (h *Handlers) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	response.NotFound(w, fmt.Sprintf("Route %s %s not found", r.Method, r.URL.Path))
}

// decodeBody decodes a JSON object body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return errors.New("request body is required")
		case errors.As(err, &maxErr):
			return fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
		default:
			return fmt.Errorf("invalid JSON body: %w", err)
		}
	}
	if dec.More() {
		return errors.New("invalid JSON body: unexpected data after object")
	}
	return nil
}

func logMutation(r *http.Request, operation, id string) {
	ctx := logging.WithOperation(logging.WithAstronaut(r.Context(), id), operation)
	logging.FromContext(ctx).Info().Msg("Astronaut changed")
}
