package api

import (
	"encoding/json"
	"net/http"

	"github.com/Kerhoff/todotree/internal/service"
)

// optionalString tells an explicit null apart from an absent field.
type optionalString struct {
	Set   bool
	Value *string
}

func (o *optionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

type updateItemRequest struct {
	Completed   *bool          `json:"completed"`
	Title       *string        `json:"title"`
	Description optionalString `json:"description"`
}

type moveItemRequest struct {
	ListID *int64 `json:"list_id"`
}

// ---------------------------------------------------------------------------
// Lists
// ---------------------------------------------------------------------------

func (s *Server) handleGetLists(w http.ResponseWriter, r *http.Request) {
	lists, err := s.svc.ListLists(r.Context(), callerOf(r).userID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, lists)
}

func (s *Server) handleCreateList(w http.ResponseWriter, r *http.Request) {
	var req service.ListInput
	if ok, msg := s.decodeJSON(w, r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	list, err := s.svc.CreateList(r.Context(), callerOf(r).userID, req)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, list)
}

func (s *Server) handleGetList(w http.ResponseWriter, r *http.Request) {
	id, ok := s.requirePathID(w, r, "list")
	if !ok {
		return
	}

	list, err := s.svc.GetList(r.Context(), callerOf(r).userID, id)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, list)
}

func (s *Server) handleUpdateList(w http.ResponseWriter, r *http.Request) {
	id, ok := s.requirePathID(w, r, "list")
	if !ok {
		return
	}
	var req service.ListInput
	if ok, msg := s.decodeJSON(w, r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	list, err := s.svc.UpdateList(r.Context(), callerOf(r).userID, id, req)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, list)
}

func (s *Server) handleDeleteList(w http.ResponseWriter, r *http.Request) {
	id, ok := s.requirePathID(w, r, "list")
	if !ok {
		return
	}

	if err := s.svc.DeleteList(r.Context(), callerOf(r).userID, id); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusNoContent, nil)
}

// ---------------------------------------------------------------------------
// Items
// ---------------------------------------------------------------------------

func (s *Server) handleGetItems(w http.ResponseWriter, r *http.Request) {
	id, ok := s.requirePathID(w, r, "list")
	if !ok {
		return
	}

	items, err := s.svc.ListItems(r.Context(), callerOf(r).userID, id)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := s.requirePathID(w, r, "list")
	if !ok {
		return
	}
	var req service.ItemInput
	if ok, msg := s.decodeJSON(w, r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	item, err := s.svc.CreateItem(r.Context(), callerOf(r).userID, id, req)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, item)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := s.requirePathID(w, r, "item")
	if !ok {
		return
	}
	var req updateItemRequest
	if ok, msg := s.decodeJSON(w, r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	item, err := s.svc.UpdateItem(r.Context(), callerOf(r).userID, id, service.ItemPatch{
		Completed:      req.Completed,
		Title:          req.Title,
		Description:    req.Description.Value,
		SetDescription: req.Description.Set,
	})
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, item)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := s.requirePathID(w, r, "item")
	if !ok {
		return
	}

	if err := s.svc.DeleteItem(r.Context(), callerOf(r).userID, id); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleCreateSubitem(w http.ResponseWriter, r *http.Request) {
	id, ok := s.requirePathID(w, r, "item")
	if !ok {
		return
	}
	var req service.ItemInput
	if ok, msg := s.decodeJSON(w, r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	item, err := s.svc.CreateSubitem(r.Context(), callerOf(r).userID, id, req)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, item)
}

func (s *Server) handleMoveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := s.requirePathID(w, r, "item")
	if !ok {
		return
	}
	var req moveItemRequest
	if ok, msg := s.decodeJSON(w, r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	if _, err := s.svc.MoveItem(r.Context(), callerOf(r).userID, id, req.ListID); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondMessage(w, http.StatusOK, "Item moved successfully")
}
