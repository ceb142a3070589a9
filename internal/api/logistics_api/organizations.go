package logistics_api

import (
	"net/http"
	"time"

	"github.com/BearBump/ShipRollup/internal/models"
	"github.com/BearBump/ShipRollup/internal/services/orgs"
	"github.com/go-chi/chi/v5"
)

type organizationJSON struct {
	ID         string    `json:"id"`
	ExternalID *string   `json:"externalId,omitempty"`
	Name       string    `json:"name"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func toOrganizationJSON(o *models.Organization) organizationJSON {
	return organizationJSON{
		ID:         o.ID,
		ExternalID: o.ExternalID,
		Name:       o.Name,
		Status:     o.Status,
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
}

type websiteJSON struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"orgId"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Platform  string    `json:"platform"`
	Domain    *string   `json:"domain,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toWebsiteJSON(w *models.Website) websiteJSON {
	return websiteJSON{
		ID:        w.ID,
		OrgID:     w.OrgID,
		Code:      w.Code,
		Name:      w.Name,
		Platform:  w.Platform,
		Domain:    w.Domain,
		Status:    w.Status,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

type createOrganizationRequest struct {
	Name       string  `json:"name"`
	ExternalID *string `json:"externalId"`
	Status     string  `json:"status"`
}

func (a *API) createOrganization(w http.ResponseWriter, r *http.Request) {
	var req createOrganizationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	o, err := a.orgs.CreateOrganization(r.Context(), orgs.OrganizationCreateInput{
		Name:       req.Name,
		ExternalID: req.ExternalID,
		Status:     req.Status,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrganizationJSON(o))
}

func (a *API) getOrganization(w http.ResponseWriter, r *http.Request) {
	o, err := a.orgs.GetOrganization(r.Context(), chi.URLParam(r, "orgId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrganizationJSON(o))
}

type patchOrganizationRequest struct {
	Name       *string `json:"name"`
	ExternalID *string `json:"externalId"`
	Status     *string `json:"status"`
}

func (a *API) patchOrganization(w http.ResponseWriter, r *http.Request) {
	var req patchOrganizationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	o, err := a.orgs.PatchOrganization(r.Context(), chi.URLParam(r, "orgId"), orgs.OrganizationPatch{
		Name:       req.Name,
		ExternalID: req.ExternalID,
		Status:     req.Status,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrganizationJSON(o))
}

func (a *API) deleteOrganization(w http.ResponseWriter, r *http.Request) {
	if err := a.orgs.DeleteOrganization(r.Context(), chi.URLParam(r, "orgId")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listOrganizations(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	os, err := a.orgs.ListOrganizations(r.Context(), r.URL.Query().Get("externalId"), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]organizationJSON, 0, len(os))
	for _, o := range os {
		out = append(out, toOrganizationJSON(o))
	}
	writeJSON(w, http.StatusOK, out)
}

type createWebsiteRequest struct {
	Code     string  `json:"code"`
	Name     string  `json:"name"`
	Platform string  `json:"platform"`
	Domain   *string `json:"domain"`
	Status   string  `json:"status"`
}

func (a *API) createWebsite(w http.ResponseWriter, r *http.Request) {
	var req createWebsiteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	ws, err := a.orgs.CreateWebsite(r.Context(), chi.URLParam(r, "orgId"), orgs.WebsiteCreateInput{
		Code:     req.Code,
		Name:     req.Name,
		Platform: req.Platform,
		Domain:   req.Domain,
		Status:   req.Status,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toWebsiteJSON(ws))
}

func (a *API) getWebsite(w http.ResponseWriter, r *http.Request) {
	ws, err := a.orgs.GetWebsite(r.Context(), chi.URLParam(r, "orgId"), chi.URLParam(r, "websiteId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWebsiteJSON(ws))
}

type patchWebsiteRequest struct {
	Name     *string `json:"name"`
	Platform *string `json:"platform"`
	Domain   *string `json:"domain"`
	Status   *string `json:"status"`
}

func (a *API) patchWebsite(w http.ResponseWriter, r *http.Request) {
	var req patchWebsiteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	ws, err := a.orgs.PatchWebsite(r.Context(), chi.URLParam(r, "orgId"), chi.URLParam(r, "websiteId"), orgs.WebsitePatch{
		Name:     req.Name,
		Platform: req.Platform,
		Domain:   req.Domain,
		Status:   req.Status,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWebsiteJSON(ws))
}

func (a *API) deleteWebsite(w http.ResponseWriter, r *http.Request) {
	if err := a.orgs.DeleteWebsite(r.Context(), chi.URLParam(r, "orgId"), chi.URLParam(r, "websiteId")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listWebsites(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	wss, err := a.orgs.ListWebsites(r.Context(), chi.URLParam(r, "orgId"), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]websiteJSON, 0, len(wss))
	for _, ws := range wss {
		out = append(out, toWebsiteJSON(ws))
	}
	writeJSON(w, http.StatusOK, out)
}
